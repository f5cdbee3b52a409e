// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memdb

import (
	"sync"

	"github.com/BOXFoundation/tzvm/storage"
)

type mbatch struct {
	table *mtable

	bsm sync.Mutex
	ops []*bop
}

var _ storage.Batch = (*mbatch)(nil)

type op uint

const (
	opPut op = iota
	opDel
)

type bop struct {
	o op
	k []byte
	v []byte
}

// put the value to entry associate with the key
func (b *mbatch) Put(key, value []byte) {
	b.bsm.Lock()
	defer b.bsm.Unlock()

	b.ops = append(b.ops, &bop{o: opPut, k: key, v: append([]byte(nil), value...)})
}

// delete the entry associate with the key
func (b *mbatch) Del(key []byte) {
	b.bsm.Lock()
	defer b.bsm.Unlock()

	b.ops = append(b.ops, &bop{o: opDel, k: key})
}

// returns the number of updates in the batch
func (b *mbatch) Count() int {
	b.bsm.Lock()
	defer b.bsm.Unlock()

	return len(b.ops)
}

// atomic writes all enqueued put/delete
func (b *mbatch) Write() error {
	b.bsm.Lock()
	defer b.bsm.Unlock()

	t := b.table
	t.sm.Lock()
	defer t.sm.Unlock()

	if t.closed {
		return storage.ErrDatabaseClose
	}
	for _, o := range b.ops {
		k := t.realkey(o.k)
		switch o.o {
		case opPut:
			t.db[k] = o.v
		case opDel:
			delete(t.db, k)
		}
	}
	b.ops = nil
	return nil
}

// close the batch, it must be called to close the batch
func (b *mbatch) Close() {
	b.bsm.Lock()
	defer b.bsm.Unlock()

	b.ops = nil
}
