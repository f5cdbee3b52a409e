// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdb

import (
	"github.com/BOXFoundation/tzvm/storage"
)

type mtable struct {
	*memorydb

	prefix string
}

var _ storage.Table = (*mtable)(nil)

// create a new write batch
func (t *mtable) NewBatch() storage.Batch {
	return &mbatch{
		table: t,
	}
}

func (t *mtable) realkey(key []byte) string {
	return t.prefix + string(key)
}

// put the value to entry associate with the key
func (t *mtable) Put(key, value []byte) error {
	t.sm.Lock()
	defer t.sm.Unlock()

	if t.closed {
		return storage.ErrDatabaseClose
	}
	t.db[t.realkey(key)] = append([]byte(nil), value...)
	return nil
}

// delete the entry associate with the key
func (t *mtable) Del(key []byte) error {
	t.sm.Lock()
	defer t.sm.Unlock()

	if t.closed {
		return storage.ErrDatabaseClose
	}
	delete(t.db, t.realkey(key))
	return nil
}

// return value associate with the key, nil if absent
func (t *mtable) Get(key []byte) ([]byte, error) {
	t.sm.RLock()
	defer t.sm.RUnlock()

	if t.closed {
		return nil, storage.ErrDatabaseClose
	}
	if value, ok := t.db[t.realkey(key)]; ok {
		return value, nil
	}
	return nil, nil
}

// check if the entry associate with key exists
func (t *mtable) Has(key []byte) (bool, error) {
	t.sm.RLock()
	defer t.sm.RUnlock()

	if t.closed {
		return false, storage.ErrDatabaseClose
	}
	_, ok := t.db[t.realkey(key)]
	return ok, nil
}

// return the keys with specified prefix in ascending order
func (t *mtable) KeysWithPrefix(prefix []byte) [][]byte {
	t.sm.RLock()
	defer t.sm.RUnlock()

	return t.sortedKeys(t.realkey(prefix), len(t.prefix))
}
