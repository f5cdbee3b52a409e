// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/key"
)

// Kind tags a lazy storage kind.
type Kind byte

// lazy storage kinds
const (
	BigMap Kind = iota
	SaplingState
)

// kindOps are the capabilities every lazy storage kind provides.
type kindOps interface {
	// root path of the kind in the context
	title() string

	// fixed size charged for allocating an id of the kind
	bytesSizeForEmpty() int64

	// kind specific allocation, the total size counter is already set
	alloc(c *state.Context, id ID, params AllocParams) (*state.Context, error)

	// apply updates and return the byte size delta they imply
	applyUpdates(c *state.Context, id ID, updates Updates) (*state.Context, int64, error)
}

var kinds = [...]kindOps{
	BigMap:       bigMapOps{},
	SaplingState: saplingOps{},
}

func (k Kind) valid() bool { return int(k) < len(kinds) }

func (k Kind) ops() kindOps { return kinds[k] }

// Title is the name of the kind.
func (k Kind) Title() string {
	if !k.valid() {
		return "unknown"
	}
	return kinds[k].title()
}

func (k Kind) String() string { return k.Title() }

// BytesSizeForEmpty is the size charged when an id of the kind is allocated.
func (k Kind) BytesSizeForEmpty() int64 { return kinds[k].bytesSizeForEmpty() }

func nextKey(k Kind) key.Key { return key.NewKeyWithPaths(k.Title(), "next") }

func indexKey(k Kind) key.Key { return key.NewKeyWithPaths(k.Title(), "index") }

func idKey(k Kind, id ID) key.Key { return indexKey(k).ChildInt(int64(id)) }

func totalBytesKey(k Kind, id ID) key.Key { return idKey(k, id).ChildString("total_bytes") }
