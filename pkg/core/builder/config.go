// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package builder

import (
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/lazyconst/internal/workerspool"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// GOMLX_LAZYCONST is the environment variable with the Builder configuration used by New.
//
// See NewWithConfig for the format of the configuration string.
const GOMLX_LAZYCONST = "GOMLX_LAZYCONST"

// DefaultConfig is used by New if the GOMLX_LAZYCONST environment variable is not set.
var DefaultConfig = ""

// DefaultMinChunk is the minimum number of elements per parallel chunk when materializing values.
const DefaultMinChunk = 16 * 1024

// New returns a new Builder creating its constants through pool.
//
// Its configuration is taken from the environment variable GOMLX_LAZYCONST if set, or from DefaultConfig
// otherwise. It panics if the configuration is invalid.
func New(pool Pool) *Builder {
	config, found := os.LookupEnv(GOMLX_LAZYCONST)
	if !found {
		config = DefaultConfig
	}
	return must.M1(NewWithConfig(pool, config))
}

// NewWithConfig returns a new Builder creating its constants through pool, configured by config:
// a comma-separated list of options, each formatted as "key=value". The options are:
//
//   - "parallelism": maximum number of goroutines used to materialize values. 0 disables parallelism and -1 makes
//     it unlimited. The default is runtime.NumCPU().
//   - "chunk": minimum number of elements per parallel chunk. The default is DefaultMinChunk.
func NewWithConfig(pool Pool, config string) (*Builder, error) {
	if pool == nil {
		return nil, errors.New("builder.NewWithConfig requires a non-nil Pool")
	}
	b := &Builder{pool: pool, workers: workerspool.New(), minChunk: DefaultMinChunk}
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, errors.Errorf("invalid configuration option %q for lazy constants builder, "+
				"options must be formatted as key=value", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for configuration option %q of lazy constants builder", key)
		}
		switch strings.TrimSpace(key) {
		case "parallelism":
			if n < -1 {
				return nil, errors.Errorf("invalid parallelism=%d, it must be -1 (unlimited), 0 (disabled) or "+
					"positive", n)
			}
			b.workers.SetMaxParallelism(n)
		case "chunk":
			if n <= 0 {
				return nil, errors.Errorf("invalid chunk=%d, it must be positive", n)
			}
			b.minChunk = n
		default:
			return nil, errors.Errorf("unknown configuration option %q for lazy constants builder", key)
		}
	}
	return b, nil
}
