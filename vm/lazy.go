// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/state"
)

// lazyExtractor moves the big maps and sapling states of a value to ids,
// recording the diffs that bring each id to the in-memory contents.
type lazyExtractor struct {
	ctxt *state.Context
	// temporary extraction allocates temporary ids.
	temporary bool
	// owned are the ids of each kind that may be updated in place, nil for
	// any id of the extraction lifetime.
	owned lazyIDs
	seen  lazyIDs
	// copies are kept apart from the other diffs: a copy must read its
	// source before the source is updated in place.
	copies lazystorage.Diffs
	diffs  lazystorage.Diffs
}

// lazyIDs are sets of ids by kind.
type lazyIDs map[lazystorage.Kind]lazystorage.IDSet

func newLazyIDs() lazyIDs {
	return lazyIDs{
		lazystorage.BigMap:       lazystorage.NewIDSet(),
		lazystorage.SaplingState: lazystorage.NewIDSet(),
	}
}

func newLazyExtractor(ctxt *state.Context, temporary bool, owned lazyIDs) *lazyExtractor {
	return &lazyExtractor{ctxt: ctxt, temporary: temporary, owned: owned, seen: newLazyIDs()}
}

func (x *lazyExtractor) reusable(k lazystorage.Kind, id lazystorage.ID) bool {
	if x.seen[k].Contains(id) {
		return false
	}
	if x.owned != nil {
		return x.owned[k].Contains(id)
	}
	return id.IsTemp() == x.temporary
}

// claim picks the id a lazy value is written to. The first occurrence of
// a reusable id is kept, other ids are copied.
func (x *lazyExtractor) claim(k lazystorage.Kind, id *lazystorage.ID, alloc lazystorage.AllocParams) (lazystorage.ID, lazystorage.Init, error) {
	if id != nil && x.reusable(k, *id) {
		x.seen[k].Add(*id)
		return *id, lazystorage.Existing{}, nil
	}
	c, fresh, err := lazystorage.Fresh(x.ctxt, k, x.temporary)
	if err != nil {
		return 0, nil, err
	}
	x.ctxt = c
	x.seen[k].Add(fresh)
	if id != nil {
		return fresh, lazystorage.Copy{Src: *id}, nil
	}
	return fresh, lazystorage.Alloc{Params: alloc}, nil
}

func (x *lazyExtractor) record(it *lazystorage.Item) {
	if u, ok := it.Diff.(*lazystorage.Update); ok {
		if _, ok := u.Init.(lazystorage.Copy); ok {
			x.copies = append(x.copies, it)
			return
		}
	}
	x.diffs = append(x.diffs, it)
}

// result returns the diffs in the order they must be applied.
func (x *lazyExtractor) result() lazystorage.Diffs {
	if len(x.copies) == 0 {
		return x.diffs
	}
	return append(append(lazystorage.Diffs{}, x.copies...), x.diffs...)
}

func (x *lazyExtractor) bigMap(m *BigMap) (Value, error) {
	alloc := &lazystorage.BigMapAlloc{KeyType: m.KeyTy.Node(), ValueType: m.ValueTy.Node()}
	id, init, err := x.claim(lazystorage.BigMap, m.ID, alloc)
	if err != nil {
		return nil, err
	}
	var updates lazystorage.BigMapUpdates
	for _, e := range m.Overlay() {
		u := &lazystorage.BigMapUpdate{Key: Unparse(e.Key, Optimized), KeyHash: e.KeyHash}
		if e.Value != nil {
			u.Value = Unparse(e.Value, Optimized)
		}
		updates = append(updates, u)
	}
	if _, ok := init.(lazystorage.Existing); ok && len(updates) == 0 {
		return StoredBigMap(id, m.KeyTy, m.ValueTy), nil
	}
	x.record(lazystorage.MakeUpdate(lazystorage.BigMap, id, init, updates))
	return StoredBigMap(id, m.KeyTy, m.ValueTy), nil
}

func (x *lazyExtractor) sapling(s *SaplingState) (Value, error) {
	id, init, err := x.claim(lazystorage.SaplingState, s.ID, &lazystorage.SaplingAlloc{MemoSize: s.MemoSize})
	if err != nil {
		return nil, err
	}
	var updates lazystorage.Updates
	if s.Diff != nil && len(s.Diff.Outputs)+len(s.Diff.Nullifiers) > 0 {
		updates = s.Diff
	}
	if _, ok := init.(lazystorage.Existing); !ok || updates != nil {
		x.record(lazystorage.MakeUpdate(lazystorage.SaplingState, id, init, updates))
	}
	out := NewSaplingState(s.MemoSize)
	out.ID = &id
	return out, nil
}

// extract rewrites v of type t so that every lazy value is stored by id.
func (x *lazyExtractor) extract(t *Ty, v Value) (Value, error) {
	if !t.HasLazyStorage() {
		return v, nil
	}
	switch t.Kind {
	case TBigMap:
		return x.bigMap(v.(*BigMap))
	case TSaplingState:
		return x.sapling(v.(*SaplingState))
	case TPair:
		p := v.(Pair)
		l, err := x.extract(t.Args[0], p.L)
		if err != nil {
			return nil, err
		}
		r, err := x.extract(t.Args[1], p.R)
		if err != nil {
			return nil, err
		}
		return Pair{l, r}, nil
	case TOr:
		o := v.(Or)
		arg := t.Args[0]
		if o.Right {
			arg = t.Args[1]
		}
		w, err := x.extract(arg, o.V)
		if err != nil {
			return nil, err
		}
		return Or{Right: o.Right, V: w}, nil
	case TOption:
		o := v.(Option)
		if o.IsNone() {
			return o, nil
		}
		w, err := x.extract(t.Args[0], o.V)
		if err != nil {
			return nil, err
		}
		return Some(w), nil
	case TList:
		items := v.(*List).Items()
		for j, it := range items {
			w, err := x.extract(t.Args[0], it)
			if err != nil {
				return nil, err
			}
			items[j] = w
		}
		return NewList(items...), nil
	case TMap:
		m := v.(*Map)
		out := m
		for _, e := range m.Items() {
			w, err := x.extract(t.Args[1], e.Value)
			if err != nil {
				return nil, err
			}
			out = out.Update(e.Key, w)
		}
		return out, nil
	}
	return v, nil
}

// collectLazyIDs lists the ids referenced by v of type t.
func collectLazyIDs(t *Ty, v Value, ids lazyIDs) {
	if !t.HasLazyStorage() {
		return
	}
	switch t.Kind {
	case TBigMap:
		if m := v.(*BigMap); m.ID != nil {
			ids[lazystorage.BigMap].Add(*m.ID)
		}
	case TSaplingState:
		if s := v.(*SaplingState); s.ID != nil {
			ids[lazystorage.SaplingState].Add(*s.ID)
		}
	case TPair:
		p := v.(Pair)
		collectLazyIDs(t.Args[0], p.L, ids)
		collectLazyIDs(t.Args[1], p.R, ids)
	case TOr:
		o := v.(Or)
		if o.Right {
			collectLazyIDs(t.Args[1], o.V, ids)
		} else {
			collectLazyIDs(t.Args[0], o.V, ids)
		}
	case TOption:
		if o := v.(Option); !o.IsNone() {
			collectLazyIDs(t.Args[0], o.V, ids)
		}
	case TList:
		for _, it := range v.(*List).Items() {
			collectLazyIDs(t.Args[0], it, ids)
		}
	case TMap:
		for _, e := range v.(*Map).Items() {
			collectLazyIDs(t.Args[1], e.Value, ids)
		}
	}
}

// extractTemporary moves the lazy values of v to temporary ids and applies
// the diffs to the interpreter context at once, so that later copies can
// read them.
func (in *Interpreter) extractTemporary(t *Ty, v Value) (Value, lazystorage.Diffs, error) {
	if !t.HasLazyStorage() {
		return v, nil, nil
	}
	x := newLazyExtractor(in.ctxt, true, nil)
	w, err := x.extract(t, v)
	if err != nil {
		return nil, nil, err
	}
	diffs := x.result()
	c, _, err := lazystorage.Apply(x.ctxt, diffs)
	if err != nil {
		return nil, nil, err
	}
	in.ctxt = c
	return w, diffs, nil
}
