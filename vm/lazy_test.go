// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/facebookgo/ensure"
)

func TestDuplicatedBigMapIsCopied(t *testing.T) {
	bm := natStringBigMapT(t)
	pair, err := NewPairT(0, bm, bm)
	ensure.Nil(t, err)

	keep, err := NewScript(UnitT, pair, func(b *Builder) { b.Cdr().Nil(OperationT).Pair() })
	ensure.Nil(t, err)
	res, err := Execute(newTestContext(t, 100000), nil, nil, keep, "", Unit{},
		Pair{NewBigMap(NatT, StringT), NewBigMap(NatT, StringT)}, DefaultConfig())
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(res.LazyStorageDiff), 2)
	stored := res.Storage.(Pair)
	ensure.DeepEqual(t, *stored.L.(*BigMap).ID, lazystorage.ID(0))
	ensure.DeepEqual(t, *stored.R.(*BigMap).ID, lazystorage.ID(1))

	dup, err := NewScript(UnitT, pair, func(b *Builder) {
		b.Cdr().Car().Dup().Pair().Nil(OperationT).Pair()
	})
	ensure.Nil(t, err)
	res, err = Execute(res.Ctxt, nil, nil, dup, "", Unit{}, res.Storage, DefaultConfig())
	ensure.Nil(t, err)

	// the left occurrence keeps id 0 untouched, the right one is a copy,
	// and id 1 is no longer referenced
	ensure.DeepEqual(t, res.LazyStorageDiff, lazystorage.Diffs{
		lazystorage.MakeUpdate(lazystorage.BigMap, 2, lazystorage.Copy{Src: 0}, lazystorage.BigMapUpdates(nil)),
		lazystorage.MakeRemove(lazystorage.BigMap, 1),
	})
	stored = res.Storage.(Pair)
	ensure.DeepEqual(t, *stored.L.(*BigMap).ID, lazystorage.ID(0))
	ensure.DeepEqual(t, *stored.R.(*BigMap).ID, lazystorage.ID(2))
}

func TestExtractTemporary(t *testing.T) {
	in := newTestInterpreter(t, 100000)
	bm := NewBigMap(NatT, StringT)
	bm = bigMapSet(bm, NewNat(3), String("three"))

	v, diffs, err := in.extractTemporary(natStringBigMapT(t), bm)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(diffs), 1)
	id := *v.(*BigMap).ID
	ensure.True(t, id.IsTemp())

	got, err := in.bigMapGet(v.(*BigMap), NewNat(3))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, got, Value(String("three")))

	c := lazystorage.CleanupTemporaries(in.Context())
	exists, err := lazystorage.Exists(c, lazystorage.BigMap, id)
	ensure.Nil(t, err)
	ensure.False(t, exists)
}

func TestCopyReadsSourceBeforeInPlaceUpdate(t *testing.T) {
	bm := natStringBigMapT(t)
	pair, err := NewPairT(0, bm, bm)
	ensure.Nil(t, err)

	keep, err := NewScript(UnitT, pair, func(b *Builder) { b.Cdr().Nil(OperationT).Pair() })
	ensure.Nil(t, err)
	res, err := Execute(newTestContext(t, 100000), nil, nil, keep, "", Unit{},
		Pair{bigMapSet(NewBigMap(NatT, StringT), NewNat(1), String("one")), NewBigMap(NatT, StringT)},
		DefaultConfig())
	ensure.Nil(t, err)

	// only the left occurrence gets key 2
	setLeft, err := NewScript(UnitT, pair, func(b *Builder) {
		b.Cdr().Car().Dup().
			Push(StringT, String("x")).Some().Push(NatT, NewNat(2)).Update().
			Pair().Nil(OperationT).Pair()
	})
	ensure.Nil(t, err)
	res, err = Execute(res.Ctxt, nil, nil, setLeft, "", Unit{}, res.Storage, DefaultConfig())
	ensure.Nil(t, err)

	ensure.DeepEqual(t, len(res.LazyStorageDiff), 3)
	first := res.LazyStorageDiff[0]
	ensure.DeepEqual(t, first.ID, lazystorage.ID(2))
	ensure.DeepEqual(t, first.Diff.(*lazystorage.Update).Init, lazystorage.Init(lazystorage.Copy{Src: 0}))

	stored := res.Storage.(Pair)
	left, right := *stored.L.(*BigMap).ID, *stored.R.(*BigMap).ID
	ensure.DeepEqual(t, left, lazystorage.ID(0))
	ensure.DeepEqual(t, right, lazystorage.ID(2))

	for _, tc := range []struct {
		id   lazystorage.ID
		key  int64
		want bool
	}{
		{left, 1, true},
		{left, 2, true},
		{right, 1, true},
		{right, 2, false},
	} {
		mem, err := lazystorage.BigMapMem(res.Ctxt, tc.id, bigMapKeyHash(NewNat(tc.key)))
		ensure.Nil(t, err)
		ensure.DeepEqual(t, mem, tc.want, tc.id, tc.key)
	}
}
