// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"bytes"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/benbjohnson/immutable"
)

// List is an immutable singly linked list.
type List struct {
	head *cell
	size int
}

type cell struct {
	v    Value
	next *cell
}

func (*List) value() {}

// NewList creates a list holding vs in order.
func NewList(vs ...Value) *List {
	l := &List{}
	for i := len(vs) - 1; i >= 0; i-- {
		l = l.Cons(vs[i])
	}
	return l
}

// Cons returns the list with v prepended.
func (l *List) Cons(v Value) *List {
	return &List{head: &cell{v: v, next: l.head}, size: l.size + 1}
}

// Uncons splits a non empty list into its head and tail.
func (l *List) Uncons() (Value, *List, bool) {
	if l.head == nil {
		return nil, l, false
	}
	return l.head.v, &List{head: l.head.next, size: l.size - 1}, true
}

// Len returns the number of elements.
func (l *List) Len() int { return l.size }

// Items returns the elements in order.
func (l *List) Items() []Value {
	out := make([]Value, 0, l.size)
	for c := l.head; c != nil; c = c.next {
		out = append(out, c.v)
	}
	return out
}

// Set is an immutable ordered set of comparable values.
type Set struct {
	Elt *Ty
	m   *immutable.SortedMap[Value, struct{}]
}

func (*Set) value() {}

// NewSet creates a set of elements of type elt.
func NewSet(elt *Ty, vs ...Value) *Set {
	s := &Set{Elt: elt, m: immutable.NewSortedMap[Value, struct{}](valueComparer{})}
	for _, v := range vs {
		s = s.Update(v, true)
	}
	return s
}

// Mem checks whether v belongs to the set.
func (s *Set) Mem(v Value) bool {
	_, ok := s.m.Get(v)
	return ok
}

// Update adds or removes v.
func (s *Set) Update(v Value, present bool) *Set {
	if present {
		return &Set{Elt: s.Elt, m: s.m.Set(v, struct{}{})}
	}
	return &Set{Elt: s.Elt, m: s.m.Delete(v)}
}

// Len returns the number of elements.
func (s *Set) Len() int { return s.m.Len() }

// Items returns the elements in increasing order.
func (s *Set) Items() []Value {
	out := make([]Value, 0, s.m.Len())
	for it := s.m.Iterator(); !it.Done(); {
		k, _, _ := it.Next()
		out = append(out, k)
	}
	return out
}

// MapEntry is a binding of a map.
type MapEntry struct {
	Key, Value Value
}

// Map is an immutable ordered map with comparable keys.
type Map struct {
	KeyTy, ValueTy *Ty
	m              *immutable.SortedMap[Value, Value]
}

func (*Map) value() {}

// NewMap creates an empty map.
func NewMap(k, v *Ty) *Map {
	return &Map{KeyTy: k, ValueTy: v, m: immutable.NewSortedMap[Value, Value](valueComparer{})}
}

// Get returns the value bound to k.
func (m *Map) Get(k Value) (Value, bool) {
	return m.m.Get(k)
}

// Mem checks whether k is bound.
func (m *Map) Mem(k Value) bool {
	_, ok := m.m.Get(k)
	return ok
}

// Update binds k to v, or removes k when v is nil.
func (m *Map) Update(k, v Value) *Map {
	cp := *m
	if v == nil {
		cp.m = m.m.Delete(k)
	} else {
		cp.m = m.m.Set(k, v)
	}
	return &cp
}

// Len returns the number of bindings.
func (m *Map) Len() int { return m.m.Len() }

// Items returns the bindings in increasing key order.
func (m *Map) Items() []MapEntry {
	out := make([]MapEntry, 0, m.m.Len())
	for it := m.m.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		out = append(out, MapEntry{k, v})
	}
	return out
}

type hashComparer struct{}

func (hashComparer) Compare(a, b crypto.HashType) int { return bytes.Compare(a[:], b[:]) }

// BigMapEntry is a pending change of a big map. A nil Value removes the key.
type BigMapEntry struct {
	KeyHash crypto.HashType
	Key     Value
	Value   Value
}

// BigMap is a lazily loaded map. ID designates the persisted contents, if
// any; the overlay holds the changes made since, keyed by key hash.
type BigMap struct {
	ID             *lazystorage.ID
	KeyTy, ValueTy *Ty
	overlay        *immutable.SortedMap[crypto.HashType, BigMapEntry]
}

func (*BigMap) value() {}

// NewBigMap creates an empty big map with no persisted contents.
func NewBigMap(k, v *Ty) *BigMap {
	return &BigMap{KeyTy: k, ValueTy: v, overlay: immutable.NewSortedMap[crypto.HashType, BigMapEntry](hashComparer{})}
}

// StoredBigMap references the persisted big map id.
func StoredBigMap(id lazystorage.ID, k, v *Ty) *BigMap {
	b := NewBigMap(k, v)
	b.ID = &id
	return b
}

// Size returns the number of pending changes.
func (b *BigMap) Size() int { return b.overlay.Len() }

func (b *BigMap) lookup(h crypto.HashType) (BigMapEntry, bool) {
	return b.overlay.Get(h)
}

func (b *BigMap) update(e BigMapEntry) *BigMap {
	cp := *b
	cp.overlay = b.overlay.Set(e.KeyHash, e)
	return &cp
}

// Overlay returns the pending changes ordered by key hash.
func (b *BigMap) Overlay() []BigMapEntry {
	out := make([]BigMapEntry, 0, b.overlay.Len())
	for it := b.overlay.Iterator(); !it.Done(); {
		_, e, _ := it.Next()
		out = append(out, e)
	}
	return out
}
