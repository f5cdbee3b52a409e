// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

// Config are the configuration options for the Interpreter
type Config struct {
	// HardGasLimit is the gas limit of an operation, in gas units.
	HardGasLimit int64 `mapstructure:"hard_gas_limit_per_operation"`
	// CacheSize is the number of decoded big map values kept per execution.
	CacheSize int `mapstructure:"value_cache_size"`
	// Trace logs every instruction at debug level.
	Trace bool `mapstructure:"trace"`
	// CheckStacks verifies the runtime stack against the static stack type
	// before every instruction.
	CheckStacks bool `mapstructure:"check_stacks"`
}

// default settings
const (
	DefaultHardGasLimit = 1040000
	DefaultCacheSize    = 256
)

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{HardGasLimit: DefaultHardGasLimit, CacheSize: DefaultCacheSize}
}

func (c Config) withDefaults() Config {
	if c.HardGasLimit <= 0 {
		c.HardGasLimit = DefaultHardGasLimit
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	return c
}
