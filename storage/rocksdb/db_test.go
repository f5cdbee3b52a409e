// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rocksdb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/BOXFoundation/tzvm/storage"
	"github.com/facebookgo/ensure"
)

func withDB(t *testing.T, fn func(db storage.Storage)) {
	dir, err := ioutil.TempDir("", "tzvm-rocksdb")
	ensure.Nil(t, err)
	defer os.RemoveAll(dir)

	db, err := NewRocksDB(dir, &storage.Options{})
	ensure.Nil(t, err)
	defer db.Close()

	fn(db)
}

func TestRocksdbPutGet(t *testing.T) {
	withDB(t, func(db storage.Storage) {
		ensure.Nil(t, db.Put([]byte("a"), []byte("1")))
		v, err := db.Get([]byte("a"))
		ensure.Nil(t, err)
		ensure.DeepEqual(t, v, []byte("1"))

		v, err = db.Get([]byte("b"))
		ensure.Nil(t, err)
		ensure.True(t, v == nil)

		ensure.Nil(t, db.Del([]byte("a")))
		has, err := db.Has([]byte("a"))
		ensure.Nil(t, err)
		ensure.False(t, has)
	})
}

func TestRocksdbBatchAndPrefix(t *testing.T) {
	withDB(t, func(db storage.Storage) {
		batch := db.NewBatch()
		defer batch.Close()
		batch.Put([]byte("/k/2"), []byte("2"))
		batch.Put([]byte("/k/1"), []byte("1"))
		batch.Put([]byte("/z"), []byte("z"))
		ensure.DeepEqual(t, batch.Count(), 3)
		ensure.Nil(t, batch.Write())

		keys := db.KeysWithPrefix([]byte("/k/"))
		ensure.DeepEqual(t, keys, [][]byte{[]byte("/k/1"), []byte("/k/2")})
	})
}

func TestRocksdbTable(t *testing.T) {
	withDB(t, func(db storage.Storage) {
		tb, err := db.Table("contracts")
		ensure.Nil(t, err)
		ensure.Nil(t, tb.Put([]byte("k"), []byte("v")))
		has, _ := db.Has([]byte("k"))
		ensure.False(t, has)
		v, _ := tb.Get([]byte("k"))
		ensure.DeepEqual(t, v, []byte("v"))
		ensure.Nil(t, db.DropTable("contracts"))
	})
}

func TestIntOption(t *testing.T) {
	o := &storage.Options{"cache_size": 1024, "bloom_bits": float64(12), "max_open_files": "many"}
	ensure.DeepEqual(t, intOption(o, "cache_size", 1), 1024)
	ensure.DeepEqual(t, intOption(o, "bloom_bits", 1), 12)
	ensure.DeepEqual(t, intOption(o, "max_open_files", 7), 7)
	ensure.DeepEqual(t, intOption(nil, "cache_size", 3), 3)
}
