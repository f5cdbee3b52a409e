// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package state

import (
	"testing"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/BOXFoundation/tzvm/storage/key"
	"github.com/BOXFoundation/tzvm/storage/memdb"
	"github.com/facebookgo/ensure"
)

func newTestDB(t *testing.T) storage.Storage {
	db, err := memdb.NewMemoryDB("", nil)
	ensure.Nil(t, err)
	return db
}

func TestContextCopyOnWrite(t *testing.T) {
	db := newTestDB(t)
	ensure.Nil(t, db.Put([]byte("/a/1"), []byte("one")))

	c0 := New(db)
	c1 := c0.Set(key.NewKey("/a/2"), []byte("two"))
	c2 := c1.Del(key.NewKey("/a/1"))

	v, err := c0.Get(key.NewKey("/a/2"))
	ensure.Nil(t, err)
	ensure.True(t, v == nil)

	v, err = c1.Get(key.NewKey("/a/1"))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, v, []byte("one"))

	has, err := c2.Mem(key.NewKey("/a/1"))
	ensure.Nil(t, err)
	ensure.False(t, has)

	_, err = c2.Find(key.NewKey("/a/1"))
	ensure.NotNil(t, err)
}

func TestContextKeysMerge(t *testing.T) {
	db := newTestDB(t)
	for _, k := range []string{"/m/1/a", "/m/1/c", "/m/10/a"} {
		ensure.Nil(t, db.Put([]byte(k), []byte(k)))
	}
	c := New(db).
		Set(key.NewKey("/m/1/b"), []byte("b")).
		Del(key.NewKey("/m/1/c")).
		Set(key.NewKey("/m/1/d"), nil)

	keys := c.Keys(key.NewKey("/m/1"))
	ensure.DeepEqual(t, keys, []key.Key{
		key.NewKey("/m/1/a"), key.NewKey("/m/1/b"), key.NewKey("/m/1/d"),
	})
}

func TestContextTreeOps(t *testing.T) {
	db := newTestDB(t)
	c := New(db).
		Set(key.NewKey("/src/x"), []byte("1")).
		Set(key.NewKey("/src/y/z"), []byte("2"))

	c, err := c.CopyTree(key.NewKey("/src"), key.NewKey("/dst"))
	ensure.Nil(t, err)
	v, _ := c.Get(key.NewKey("/dst/y/z"))
	ensure.DeepEqual(t, v, []byte("2"))

	c = c.RemoveTree(key.NewKey("/src"))
	ensure.DeepEqual(t, len(c.Keys(key.NewKey("/src"))), 0)
	ensure.DeepEqual(t, len(c.Keys(key.NewKey("/dst"))), 2)
}

func TestContextCommit(t *testing.T) {
	db := newTestDB(t)
	ensure.Nil(t, db.Put([]byte("/gone"), []byte("x")))

	c := New(db).SetInt64(key.NewKey("/counter"), 42).Del(key.NewKey("/gone")).WithCounter("tmp", 3)
	ensure.DeepEqual(t, c.Pending(), 2)

	c, err := c.Commit(db)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, c.Pending(), 0)
	ensure.DeepEqual(t, c.Counter("tmp"), int64(3))

	n, ok, err := c.GetInt64(key.NewKey("/counter"))
	ensure.Nil(t, err)
	ensure.True(t, ok)
	ensure.DeepEqual(t, n, int64(42))
	has, _ := db.Has([]byte("/gone"))
	ensure.False(t, has)
}

func TestContextGas(t *testing.T) {
	m, err := gas.NewMeter(1)
	ensure.Nil(t, err)
	c := New(newTestDB(t)).WithMeter(m)
	ensure.Nil(t, c.Consume(gas.Milligas(400)))
	ensure.DeepEqual(t, c.Consume(gas.Gas(1)), gas.ErrOperationQuotaExceeded)
}
