// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package root

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/BOXFoundation/tzvm/config"
	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/jbenet/goprocess"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/BOXFoundation/tzvm/storage/memdb"   // mem driver
	_ "github.com/BOXFoundation/tzvm/storage/rocksdb" // rocksdb driver
)

// root command
var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tzvm",
	Short: "typed contract interpreter tools",
	Long: `tzvm runs typed stack contracts and inspects the lazy storage,
big maps and sapling states, they persist.`,
	Example: `
1. list the big maps of the configured database
  ./tzvm bigmap ls
2. dump the bindings of a big map
  ./tzvm bigmap show 0
3. run the sample contracts in memory
  ./tzvm demo
	`,
	Version: fmt.Sprintf("%s %s(%s) %s\n", config.Version, config.GitCommit, config.GitBranch, config.GoVersion),
}

var logger = log.NewLogger("cmd")

// RootProcess is the root process of the app, closed on interrupt.
var RootProcess = goprocess.WithParent(goprocess.Background())

// init sets flags appropriately.
func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is nil)")

	RootCmd.PersistentFlags().String("workspace", "", "work directory for tzvm (default ~/.tzvm)")
	viper.BindPFlag("workspace", RootCmd.PersistentFlags().Lookup("workspace"))

	RootCmd.PersistentFlags().String("log-level", "error", "log level [debug|info|warn|error|fatal]")
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	RootCmd.PersistentFlags().String("database", "rocksdb", "database name [rocksdb|memdb]")
	viper.BindPFlag("database.name", RootCmd.PersistentFlags().Lookup("database"))

	RootCmd.PersistentFlags().Int64("gas-limit", 0, "hard gas limit per operation (default 1040000)")
	viper.BindPFlag("vm.hard_gas_limit_per_operation", RootCmd.PersistentFlags().Lookup("gas-limit"))

	RootCmd.PersistentFlags().Bool("trace", false, "log every instruction at debug level")
	viper.BindPFlag("vm.trace", RootCmd.PersistentFlags().Lookup("trace"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	log.SetLogLevel(viper.GetString("log.level"))

	// Find home directory.
	home, err := homedir.Dir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("tzvm")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	viper.SetDefault("workspace", path.Join(home, ".tzvm"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}

// LoadConfig unmarshals the viper settings, prepares the workspace and
// sets up logging and metrics.
func LoadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	log.Setup(&cfg.Log)
	if level := viper.GetString("log.level"); level != "" {
		log.SetLogLevel(level)
	}
	metrics.Run(&cfg.Metrics)
	logger.Debugf("Loaded config:\n%s", cfg)
	return cfg, nil
}

// OpenDatabase opens the configured database as a child of RootProcess.
func OpenDatabase(cfg *config.Config) (*storage.Database, error) {
	db, err := storage.NewDatabase(RootProcess, &cfg.Database)
	if err != nil {
		logger.Errorf("Failed to open database %s at %s: %v", cfg.Database.Name, cfg.Database.Path, err)
		return nil, err
	}
	return db, nil
}
