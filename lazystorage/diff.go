// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"fmt"
)

// Diff is the change of one lazy storage id: Remove or *Update.
type Diff interface {
	isDiff()
}

// Remove deletes the id.
type Remove struct{}

// Update initializes the id then applies updates to it.
type Update struct {
	Init    Init
	Updates Updates
}

func (Remove) isDiff()  {}
func (*Update) isDiff() {}

// Init is how an updated id comes to exist: Existing, Copy or Alloc.
type Init interface {
	isInit()
}

// Existing keeps the id as it is.
type Existing struct{}

// Copy duplicates the content of Src.
type Copy struct {
	Src ID
}

// Alloc allocates a fresh id with kind specific parameters.
type Alloc struct {
	Params AllocParams
}

func (Existing) isInit() {}
func (Copy) isInit()     {}
func (Alloc) isInit()    {}

// AllocParams are the kind specific allocation parameters:
// *BigMapAlloc or *SaplingAlloc.
type AllocParams interface {
	kind() Kind
}

// Updates are the kind specific updates: BigMapUpdates or *SaplingUpdates.
type Updates interface {
	kind() Kind
	len() int
}

// Item is the diff of one id of a kind.
type Item struct {
	Kind Kind
	ID   ID
	Diff Diff
}

func (it *Item) String() string {
	switch d := it.Diff.(type) {
	case Remove:
		return fmt.Sprintf("%s %s: remove", it.Kind, it.ID)
	case *Update:
		n := 0
		if d.Updates != nil {
			n = d.Updates.len()
		}
		switch init := d.Init.(type) {
		case Copy:
			return fmt.Sprintf("%s %s: copy from %s, %d updates", it.Kind, it.ID, init.Src, n)
		case Alloc:
			return fmt.Sprintf("%s %s: alloc, %d updates", it.Kind, it.ID, n)
		default:
			return fmt.Sprintf("%s %s: %d updates", it.Kind, it.ID, n)
		}
	}
	return fmt.Sprintf("%s %s", it.Kind, it.ID)
}

// Diffs is an ordered list of items, applied in order.
type Diffs []*Item

// MakeRemove builds a removal item.
func MakeRemove(k Kind, id ID) *Item {
	return &Item{Kind: k, ID: id, Diff: Remove{}}
}

// MakeUpdate builds an update item.
func MakeUpdate(k Kind, id ID, init Init, updates Updates) *Item {
	return &Item{Kind: k, ID: id, Diff: &Update{Init: init, Updates: updates}}
}
