// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rocksdb

import (
	"bytes"

	"github.com/BOXFoundation/tzvm/storage"
	"github.com/tecbot/gorocksdb"
)

// rtable operates on a column family, or the default one when cf is nil
type rtable struct {
	db *rocksdb
	cf *gorocksdb.ColumnFamilyHandle
}

var _ storage.Table = (*rtable)(nil)

// create a new write batch
func (t *rtable) NewBatch() storage.Batch {
	return &rbatch{
		table: t,
		wb:    gorocksdb.NewWriteBatch(),
	}
}

func (t *rtable) iterator() *gorocksdb.Iterator {
	if t.cf == nil {
		return t.db.db.NewIterator(t.db.readOptions)
	}
	return t.db.db.NewIteratorCF(t.db.readOptions, t.cf)
}

// put the value to entry associate with the key
func (t *rtable) Put(key, value []byte) error {
	t.db.sm.RLock()
	defer t.db.sm.RUnlock()

	if t.db.closed {
		return storage.ErrDatabaseClose
	}
	if t.cf == nil {
		return t.db.db.Put(t.db.writeOptions, key, value)
	}
	return t.db.db.PutCF(t.db.writeOptions, t.cf, key, value)
}

// delete the entry associate with the key
func (t *rtable) Del(key []byte) error {
	t.db.sm.RLock()
	defer t.db.sm.RUnlock()

	if t.db.closed {
		return storage.ErrDatabaseClose
	}
	if t.cf == nil {
		return t.db.db.Delete(t.db.writeOptions, key)
	}
	return t.db.db.DeleteCF(t.db.writeOptions, t.cf, key)
}

// return value associate with the key, nil if absent
func (t *rtable) Get(key []byte) ([]byte, error) {
	t.db.sm.RLock()
	defer t.db.sm.RUnlock()

	if t.db.closed {
		return nil, storage.ErrDatabaseClose
	}
	var value *gorocksdb.Slice
	var err error
	if t.cf == nil {
		value, err = t.db.db.Get(t.db.readOptions, key)
	} else {
		value, err = t.db.db.GetCF(t.db.readOptions, t.cf, key)
	}
	if err != nil {
		return nil, err
	}
	return data(value), nil
}

// check if the entry associate with key exists
func (t *rtable) Has(key []byte) (bool, error) {
	t.db.sm.RLock()
	defer t.db.sm.RUnlock()

	if t.db.closed {
		return false, storage.ErrDatabaseClose
	}
	var iter = t.iterator()
	defer iter.Close()

	iter.Seek(key)
	if iter.Valid() {
		var k = iter.Key()
		defer k.Free()

		return bytes.Equal(key, k.Data()), nil
	}
	return false, nil
}

// return the keys with specified prefix in ascending order
func (t *rtable) KeysWithPrefix(prefix []byte) [][]byte {
	t.db.sm.RLock()
	defer t.db.sm.RUnlock()

	if t.db.closed {
		return nil
	}
	var iter = t.iterator()
	defer iter.Close()

	var keys [][]byte
	for iter.Seek(prefix); iter.Valid(); iter.Next() {
		key := iter.Key()
		if !bytes.HasPrefix(key.Data(), prefix) {
			key.Free()
			break
		}
		keys = append(keys, data(key))
	}
	return keys
}
