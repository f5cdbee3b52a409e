// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/storage"
)

var logger = log.NewLogger("memdb")

func init() {
	// register memdb impl
	storage.Register("memdb", NewMemoryDB)
}

type memorydb struct {
	sm     *sync.RWMutex
	db     map[string][]byte
	closed bool
}

// NewMemoryDB creates a memorydb instance
func NewMemoryDB(_ string, _ *storage.Options) (storage.Storage, error) {
	logger.Debug("Creating memdb")
	return &mstorage{
		mtable: &mtable{
			memorydb: &memorydb{
				sm: &sync.RWMutex{},
				db: make(map[string][]byte),
			},
		},
	}, nil
}

type mstorage struct {
	*mtable
}

var _ storage.Storage = (*mstorage)(nil)

// Create or Get the table associate with the name
func (s *mstorage) Table(name string) (storage.Table, error) {
	return &mtable{
		memorydb: s.memorydb,
		prefix:   "/tb/" + name + "/",
	}, nil
}

// Drop the table associate with the name
func (s *mstorage) DropTable(name string) error {
	s.sm.Lock()
	defer s.sm.Unlock()

	var prefix = "/tb/" + name + "/"
	for k := range s.db {
		if strings.HasPrefix(k, prefix) {
			delete(s.db, k)
		}
	}
	return nil
}

// Close the database
func (s *mstorage) Close() error {
	s.sm.Lock()
	defer s.sm.Unlock()

	if s.closed {
		return storage.ErrDatabaseClose
	}
	s.closed = true
	s.db = make(map[string][]byte)
	return nil
}

// sortedKeys returns the keys with prefix, stripped of strip bytes, in order.
// The caller must hold the lock.
func (db *memorydb) sortedKeys(prefix string, strip int) [][]byte {
	var names []string
	for k := range db.db {
		if strings.HasPrefix(k, prefix) {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	keys := make([][]byte, 0, len(names))
	for _, k := range names {
		keys = append(keys, []byte(k[strip:]))
	}
	return keys
}
