// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package state implements the versioned store threaded through contract
execution. A Context is immutable: every write returns a new Context that
shares its unchanged entries with the receiver, so callers keep the
pre-invocation context to discard a failed invocation.
*/
package state

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/BOXFoundation/tzvm/storage/key"
	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"
)

var logger = log.NewLogger("state")

type stringComparer struct{}

func (stringComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// Context is a copy-on-write view over a storage backend.
type Context struct {
	db       storage.Reader
	writes   *immutable.SortedMap[string, []byte] // nil value marks a deletion
	counters *immutable.SortedMap[string, int64]  // in-memory counters, never persisted
	meter    *gas.Meter
}

// New creates a context reading through db.
func New(db storage.Reader) *Context {
	return &Context{
		db:       db,
		writes:   immutable.NewSortedMap[string, []byte](stringComparer{}),
		counters: immutable.NewSortedMap[string, int64](stringComparer{}),
	}
}

// WithMeter returns a context charging store accesses to m.
func (c *Context) WithMeter(m *gas.Meter) *Context {
	cp := *c
	cp.meter = m
	return &cp
}

// Meter returns the gas meter of the context, nil if unmetered.
func (c *Context) Meter() *gas.Meter {
	return c.meter
}

// Consume charges cost to the gas meter of the context.
func (c *Context) Consume(cost gas.Cost) error {
	return c.meter.Consume(cost)
}

// Get returns the value at k, nil if absent.
func (c *Context) Get(k key.Key) ([]byte, error) {
	if v, ok := c.writes.Get(k.String()); ok {
		return v, nil
	}
	v, err := c.db.Get(k.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", k)
	}
	return v, nil
}

// Find is Get failing with ErrMissingKey when k is absent.
func (c *Context) Find(k key.Key) ([]byte, error) {
	v, err := c.Get(k)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.Wrap(ErrMissingKey, k.String())
	}
	return v, nil
}

// Mem checks whether k holds a value.
func (c *Context) Mem(k key.Key) (bool, error) {
	v, err := c.Get(k)
	return v != nil, err
}

// Set returns a context where k holds v.
func (c *Context) Set(k key.Key, v []byte) *Context {
	cp := *c
	value := make([]byte, len(v))
	copy(value, v)
	cp.writes = c.writes.Set(k.String(), value)
	return &cp
}

// Del returns a context where k is absent.
func (c *Context) Del(k key.Key) *Context {
	cp := *c
	cp.writes = c.writes.Set(k.String(), nil)
	return &cp
}

// Keys returns the keys below prefix, in ascending order.
func (c *Context) Keys(prefix key.Key) []key.Key {
	p := prefix.Prefix()
	persisted := c.db.KeysWithPrefix(p)

	var out []key.Key
	itr := c.writes.Iterator()
	itr.Seek(string(p))
	i := 0
	for !itr.Done() {
		k, v, _ := itr.Next()
		if !strings.HasPrefix(k, string(p)) {
			break
		}
		for ; i < len(persisted) && bytes.Compare(persisted[i], []byte(k)) < 0; i++ {
			out = append(out, key.NewKeyFromBytes(persisted[i]))
		}
		if i < len(persisted) && string(persisted[i]) == k {
			i++
		}
		if v != nil {
			out = append(out, key.NewKey(k))
		}
	}
	for ; i < len(persisted); i++ {
		out = append(out, key.NewKeyFromBytes(persisted[i]))
	}
	return out
}

// RemoveTree returns a context where prefix and every key below it are absent.
func (c *Context) RemoveTree(prefix key.Key) *Context {
	cp := c.Del(prefix)
	for _, k := range c.Keys(prefix) {
		cp = cp.Del(k)
	}
	return cp
}

// CopyTree returns a context where every key below src is duplicated below dst.
func (c *Context) CopyTree(src, dst key.Key) (*Context, error) {
	cp := c
	srcPrefix := len(src.String())
	for _, k := range c.Keys(src) {
		v, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		cp = cp.Set(dst.ChildString(k.String()[srcPrefix:]), v)
	}
	return cp, nil
}

// GetInt64 reads an 8 bytes big endian counter.
func (c *Context) GetInt64(k key.Key) (int64, bool, error) {
	v, err := c.Get(k)
	if err != nil || v == nil {
		return 0, false, err
	}
	if len(v) != 8 {
		return 0, false, errors.Wrap(ErrCorruptValue, k.String())
	}
	return int64(binary.BigEndian.Uint64(v)), true, nil
}

// SetInt64 stores an 8 bytes big endian counter.
func (c *Context) SetInt64(k key.Key, v int64) *Context {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return c.Set(k, buf[:])
}

// Counter returns an in-memory counter, zero when unset.
func (c *Context) Counter(name string) int64 {
	v, _ := c.counters.Get(name)
	return v
}

// WithCounter returns a context with the in-memory counter set to v.
func (c *Context) WithCounter(name string, v int64) *Context {
	cp := *c
	cp.counters = c.counters.Set(name, v)
	return &cp
}

// Pending returns the number of uncommitted writes.
func (c *Context) Pending() int {
	return c.writes.Len()
}

// Commit flushes the writes of the context to table through one batch and
// returns a clean context over the same backend.
func (c *Context) Commit(table storage.Table) (*Context, error) {
	batch := table.NewBatch()
	defer batch.Close()

	itr := c.writes.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		if v == nil {
			batch.Del([]byte(k))
		} else {
			batch.Put([]byte(k), v)
		}
	}
	if err := batch.Write(); err != nil {
		logger.Errorf("Failed to commit %d writes: %v", c.writes.Len(), err)
		return nil, errors.Wrap(err, "committing context")
	}
	logger.Debugf("Committed %d writes", c.writes.Len())
	committed := New(c.db)
	committed.counters = c.counters
	committed.meter = c.meter
	return committed, nil
}
