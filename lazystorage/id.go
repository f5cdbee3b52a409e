// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"sort"
	"strconv"

	"github.com/BOXFoundation/tzvm/state"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

// ID identifies a lazy storage value of a kind. Negative ids are temporary:
// they only live for one operation and are never persisted.
type ID int64

// IsTemp reports whether the id is temporary.
func (id ID) IsTemp() bool { return id < 0 }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// IDSet is a set of ids.
type IDSet = mapset.Set[ID]

// NewIDSet creates an empty id set.
func NewIDSet(ids ...ID) IDSet {
	return mapset.NewThreadUnsafeSet[ID](ids...)
}

func tempCounterName(k Kind) string {
	return k.Title() + "/temporary"
}

// Fresh allocates a new id of kind k. Temporary ids come from an in-memory
// counter of the context, permanent ids from a persisted counter.
func Fresh(c *state.Context, k Kind, temporary bool) (*state.Context, ID, error) {
	if !k.valid() {
		return nil, 0, ErrUnknownKind
	}
	if temporary {
		n := c.Counter(tempCounterName(k))
		return c.WithCounter(tempCounterName(k), n+1), ID(-n - 1), nil
	}
	next, _, err := c.GetInt64(nextKey(k))
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading next lazy storage id")
	}
	return c.SetInt64(nextKey(k), next+1), ID(next), nil
}

// Exists checks whether id has been allocated for kind k.
func Exists(c *state.Context, k Kind, id ID) (bool, error) {
	return c.Mem(totalBytesKey(k, id))
}

// IDs lists the allocated permanent ids of kind k.
func IDs(c *state.Context, k Kind) ([]ID, error) {
	seen := NewIDSet()
	var ids []ID
	for _, key := range c.Keys(indexKey(k)) {
		list := key.List()
		n, err := strconv.ParseInt(list[len(indexKey(k).List())], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, key.String())
		}
		id := ID(n)
		if !id.IsTemp() && seen.Add(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CleanupTemporaries removes every temporary id of every kind and resets
// the temporary counters. It must also run when the operation failed.
func CleanupTemporaries(c *state.Context) *state.Context {
	for k := range kinds {
		kind := Kind(k)
		n := c.Counter(tempCounterName(kind))
		for i := int64(1); i <= n; i++ {
			c = c.RemoveTree(idKey(kind, ID(-i)))
		}
		c = c.WithCounter(tempCounterName(kind), 0)
	}
	return c
}
