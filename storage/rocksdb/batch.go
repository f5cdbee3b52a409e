// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rocksdb

import (
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/tecbot/gorocksdb"
)

type rbatch struct {
	table *rtable
	wb    *gorocksdb.WriteBatch
}

var _ storage.Batch = (*rbatch)(nil)

// put the value to entry associate with the key
func (b *rbatch) Put(key, value []byte) {
	if b.table.cf != nil {
		b.wb.PutCF(b.table.cf, key, value)
	} else {
		b.wb.Put(key, value)
	}
}

// delete the entry associate with the key
func (b *rbatch) Del(key []byte) {
	if b.table.cf != nil {
		b.wb.DeleteCF(b.table.cf, key)
	} else {
		b.wb.Delete(key)
	}
}

// returns the number of updates in the batch
func (b *rbatch) Count() int {
	return b.wb.Count()
}

// atomic writes all enqueued put/delete
func (b *rbatch) Write() error {
	db := b.table.db
	db.sm.RLock()
	defer db.sm.RUnlock()

	if db.closed {
		return storage.ErrDatabaseClose
	}
	if err := db.db.Write(db.writeOptions, b.wb); err != nil {
		return err
	}
	b.wb.Clear()
	db.reportCacheUsage()
	return nil
}

// close the batch, it must be called to close the batch
func (b *rbatch) Close() {
	b.wb.Destroy()
}
