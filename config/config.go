// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	logtypes "github.com/BOXFoundation/tzvm/log/types"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/BOXFoundation/tzvm/vm"
)

////////////////////////////////////////////////////////////////
// build time variants

// Version number of the build
var Version string

// GitCommit id of source code
var GitCommit string

// GitBranch name of source code
var GitBranch string

// GoVersion is the go runtime the binary was built with
var GoVersion = runtime.Version()

////////////////////////////////////////////////////////////////

// Config is the configuration of the tzvm tools, read from the config file
// or parsed from the command line.
type Config struct {
	Workspace string          `mapstructure:"workspace"`
	Log       logtypes.Config `mapstructure:"log"`
	Database  storage.Config  `mapstructure:"database"`
	Metrics   metrics.Config  `mapstructure:"metrics"`
	VM        vm.Config       `mapstructure:"vm"`
}

var format = `workspace: %s
log: %v
database: %s at %s
vm: gas limit %d, cache %d, trace %v`

func (c Config) String() string {
	return fmt.Sprintf(format, c.Workspace, c.Log, c.Database.Name, c.Database.Path,
		c.VM.HardGasLimit, c.VM.CacheSize, c.VM.Trace)
}

// GetLog return log config.
func (c Config) GetLog() logtypes.Config {
	return c.Log
}

// Prepare makes the workspace paths absolute and creates the directories
// they point to.
func (c *Config) Prepare() error {
	ws, err := filepath.Abs(c.Workspace)
	if err != nil {
		return err
	}
	c.Workspace = ws // change to abs path
	if err := mkDirAll(c.Workspace); err != nil {
		return err
	}

	// check log file configuration
	for _, hook := range c.Log.Hooks {
		if hook.Name != "file" && hook.Name != "filewithformatter" { // only check file logs
			continue
		}
		filename, _ := hook.Options["filename"].(string)
		switch {
		case filename == "":
			filename = "tzvm.log"
		case filepath.IsAbs(filename):
			if err := mkDirAll(filepath.Dir(filename)); err != nil {
				return err
			}
			continue
		case strings.Contains(filename, "/"):
			return fmt.Errorf("incorrect log filename %s", filename)
		}
		logfile := filepath.Join(c.Workspace, "logs", filename)
		if err := mkDirAll(filepath.Dir(logfile)); err != nil {
			return err
		}
		hook.Options["filename"] = logfile
	}

	// database
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.Workspace, "database")
	}
	if c.Database.Name == "" {
		c.Database.Name = "rocksdb"
	}
	if err := mkDirAll(c.Database.Path); err != nil {
		return err
	}

	if c.VM.HardGasLimit <= 0 {
		c.VM.HardGasLimit = vm.DefaultHardGasLimit
	}
	if c.VM.CacheSize <= 0 {
		c.VM.CacheSize = vm.DefaultCacheSize
	}
	return nil
}

func mkDirAll(p string) error {
	return os.MkdirAll(p, 0700)
}
