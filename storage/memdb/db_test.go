// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdb

import (
	"testing"

	"github.com/BOXFoundation/tzvm/storage"
	"github.com/facebookgo/ensure"
)

func newTestDB(t *testing.T) storage.Storage {
	db, err := NewMemoryDB("", nil)
	ensure.Nil(t, err)
	return db
}

func TestMemdbPutGet(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ensure.Nil(t, db.Put([]byte("a"), []byte("1")))
	v, err := db.Get([]byte("a"))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, v, []byte("1"))

	v, err = db.Get([]byte("missing"))
	ensure.Nil(t, err)
	ensure.True(t, v == nil)

	ensure.Nil(t, db.Del([]byte("a")))
	has, err := db.Has([]byte("a"))
	ensure.Nil(t, err)
	ensure.False(t, has)
}

func TestMemdbKeysWithPrefix(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, k := range []string{"/x/3", "/x/1", "/y/1", "/x/2"} {
		ensure.Nil(t, db.Put([]byte(k), []byte(k)))
	}
	keys := db.KeysWithPrefix([]byte("/x/"))
	ensure.DeepEqual(t, keys, [][]byte{[]byte("/x/1"), []byte("/x/2"), []byte("/x/3")})
}

func TestMemdbTable(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tb, err := db.Table("t1")
	ensure.Nil(t, err)
	ensure.Nil(t, tb.Put([]byte("k"), []byte("v")))

	has, _ := db.Has([]byte("k"))
	ensure.False(t, has)
	v, _ := tb.Get([]byte("k"))
	ensure.DeepEqual(t, v, []byte("v"))
	ensure.DeepEqual(t, tb.KeysWithPrefix(nil), [][]byte{[]byte("k")})

	ensure.Nil(t, db.DropTable("t1"))
	has, _ = tb.Has([]byte("k"))
	ensure.False(t, has)
}

func TestMemdbBatch(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	ensure.Nil(t, db.Put([]byte("gone"), []byte("x")))
	batch := db.NewBatch()
	defer batch.Close()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Del([]byte("gone"))
	ensure.DeepEqual(t, batch.Count(), 3)

	has, _ := db.Has([]byte("a"))
	ensure.False(t, has)

	ensure.Nil(t, batch.Write())
	ensure.DeepEqual(t, batch.Count(), 0)
	v, _ := db.Get([]byte("b"))
	ensure.DeepEqual(t, v, []byte("2"))
	has, _ = db.Has([]byte("gone"))
	ensure.False(t, has)
}

func TestMemdbClosed(t *testing.T) {
	db := newTestDB(t)
	ensure.Nil(t, db.Close())
	ensure.DeepEqual(t, db.Close(), storage.ErrDatabaseClose)
	_, err := db.Get([]byte("a"))
	ensure.DeepEqual(t, err, storage.ErrDatabaseClose)
}
