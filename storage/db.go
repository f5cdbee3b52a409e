// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/BOXFoundation/tzvm/log"
	"github.com/jbenet/goprocess"
)

var logger = log.NewLogger("storage")

// Config defines the database configuration
type Config struct {
	Name    string  `mapstructure:"name"`
	Path    string  `mapstructure:"path"`
	Options Options `mapstructure:"options"`
}

// Database is a wrapper of Storage, implementing the database life cycle
type Database struct {
	Storage
	Proc   goprocess.Process
	sm     sync.Mutex
	closed bool
}

// NewDatabase creates a database instance
func NewDatabase(parent goprocess.Process, cfg *Config) (*Database, error) {
	var storage, err = newStorage(cfg.Name, cfg.Path, &cfg.Options)
	if err != nil {
		return nil, err
	}

	var database = &Database{
		Storage: storage,
		Proc:    goprocess.WithParent(parent),
	}
	database.Proc.SetTeardown(database.shutdown)
	logger.Debugf("Database %s opened at %s", cfg.Name, cfg.Path)
	return database, nil
}

// Close closes the database
func (db *Database) Close() error {
	return db.Proc.Close()
}

// the real shutdown func of database
func (db *Database) shutdown() error {
	db.sm.Lock()
	defer db.sm.Unlock()

	if db.closed {
		return ErrDatabaseClose
	}
	db.closed = true
	logger.Info("Shutdown database...")
	return db.Storage.Close()
}
