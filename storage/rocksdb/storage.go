// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rocksdb

import (
	"sync"

	"github.com/BOXFoundation/tzvm/storage"
	"github.com/tecbot/gorocksdb"
)

type rocksdb struct {
	*rtable

	sm     sync.RWMutex
	closed bool

	db           *gorocksdb.DB
	cache        *gorocksdb.Cache
	dboptions    *gorocksdb.Options
	readOptions  *gorocksdb.ReadOptions
	writeOptions *gorocksdb.WriteOptions
	flushOptions *gorocksdb.FlushOptions

	smcfhandlers sync.Mutex
	cfs          map[string]*gorocksdb.ColumnFamilyHandle
}

var _ storage.Storage = (*rocksdb)(nil)

// Create or Get the table associate with the name
func (db *rocksdb) Table(name string) (storage.Table, error) {
	db.smcfhandlers.Lock()
	defer db.smcfhandlers.Unlock()

	cf, ok := db.cfs[name]
	if !ok {
		var err error
		cf, err = db.db.CreateColumnFamily(db.dboptions, name)
		if err != nil {
			return nil, err
		}
		db.cfs[name] = cf
	}
	return &rtable{db: db, cf: cf}, nil
}

// Drop the table associate with the name
func (db *rocksdb) DropTable(name string) error {
	db.smcfhandlers.Lock()
	defer db.smcfhandlers.Unlock()

	if cf, ok := db.cfs[name]; ok {
		delete(db.cfs, name)
		return db.db.DropColumnFamily(cf)
	}
	return nil
}

// Close closes the database
func (db *rocksdb) Close() error {
	db.sm.Lock()
	defer db.sm.Unlock()

	if db.closed {
		return storage.ErrDatabaseClose
	}
	db.closed = true
	db.reportCacheUsage()
	if err := db.db.Flush(db.flushOptions); err != nil {
		return err
	}
	for _, cf := range db.cfs {
		cf.Destroy()
	}
	db.db.Close()

	db.writeOptions.Destroy()
	db.readOptions.Destroy()
	db.flushOptions.Destroy()
	db.cfs = nil
	return nil
}
