// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"testing"

	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/memdb"
	"github.com/facebookgo/ensure"
)

func newTestContext(t *testing.T) *state.Context {
	db, err := memdb.NewMemoryDB("", nil)
	ensure.Nil(t, err)
	return state.New(db)
}

func natStringAlloc() Alloc {
	return Alloc{Params: &BigMapAlloc{
		KeyType:   micheline.NewPrim(micheline.TNat),
		ValueType: micheline.NewPrim(micheline.TString).WithAnnots("%v"),
	}}
}

func add(k int64, v string) *BigMapUpdate {
	key := micheline.NewInt(k)
	return &BigMapUpdate{Key: key, KeyHash: KeyHash(key), Value: micheline.String{V: v}}
}

func del(k int64) *BigMapUpdate {
	key := micheline.NewInt(k)
	return &BigMapUpdate{Key: key, KeyHash: KeyHash(key)}
}

func valueSize(v string) int64 {
	return int64(len(micheline.Encode(micheline.String{V: v})))
}

func TestFreshIDs(t *testing.T) {
	c := newTestContext(t)

	c, id0, err := Fresh(c, BigMap, false)
	ensure.Nil(t, err)
	c, id1, err := Fresh(c, BigMap, false)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, []ID{id0, id1}, []ID{0, 1})

	c, tmp0, err := Fresh(c, BigMap, true)
	ensure.Nil(t, err)
	c, tmp1, err := Fresh(c, BigMap, true)
	ensure.Nil(t, err)
	ensure.True(t, tmp0.IsTemp() && tmp1.IsTemp())
	ensure.True(t, tmp0 != tmp1)

	c, sid, err := Fresh(c, SaplingState, false)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, sid, ID(0))

	_, _, err = Fresh(c, Kind(9), false)
	ensure.DeepEqual(t, err, ErrUnknownKind)
}

func TestAllocThenRemoveIsNeutral(t *testing.T) {
	c := newTestContext(t)
	c, id, err := Fresh(c, BigMap, false)
	ensure.Nil(t, err)

	c, delta, err := Apply(c, Diffs{MakeUpdate(BigMap, id, natStringAlloc(), BigMapUpdates{add(1, "a"), add(2, "bb")})})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, delta, bigMapBytesSizeForEmpty+2*bigMapBytesSizeForKey+valueSize("a")+valueSize("bb"))

	c, removed, err := Apply(c, Diffs{MakeRemove(BigMap, id)})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, delta+removed, int64(0))

	exists, err := Exists(c, BigMap, id)
	ensure.Nil(t, err)
	ensure.False(t, exists)
}

func TestCopyChargesSourceSize(t *testing.T) {
	c := newTestContext(t)
	c, src, _ := Fresh(c, BigMap, false)
	c, _, err := Apply(c, Diffs{MakeUpdate(BigMap, src, natStringAlloc(), BigMapUpdates{add(1, "hello")})})
	ensure.Nil(t, err)
	srcSize, err := TotalBytes(c, BigMap, src)
	ensure.Nil(t, err)

	c, dst, _ := Fresh(c, BigMap, false)
	c, delta, err := Apply(c, Diffs{MakeUpdate(BigMap, dst, Copy{Src: src}, nil)})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, delta, srcSize+bigMapBytesSizeForEmpty)

	v, err := BigMapGet(c, dst, KeyHash(micheline.NewInt(1)))
	ensure.Nil(t, err)
	ensure.True(t, micheline.Equal(v, micheline.String{V: "hello"}))

	kt, vt, err := BigMapTypes(c, dst)
	ensure.Nil(t, err)
	ensure.True(t, micheline.Equal(kt, micheline.NewPrim(micheline.TNat)))
	ensure.True(t, micheline.Equal(vt, micheline.NewPrim(micheline.TString)))

	// copying into a temporary id is free
	c, tmp, _ := Fresh(c, BigMap, true)
	_, d, err := ApplyItem(c, MakeUpdate(BigMap, tmp, Copy{Src: src}, nil))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, d, int64(0))
}

func TestReaddingExistingKeyIsFree(t *testing.T) {
	c := newTestContext(t)
	c, id, _ := Fresh(c, BigMap, false)
	c, _, err := Apply(c, Diffs{MakeUpdate(BigMap, id, natStringAlloc(), nil)})
	ensure.Nil(t, err)

	update := Diffs{MakeUpdate(BigMap, id, Existing{}, BigMapUpdates{add(7, "x")})}
	c, first, err := Apply(c, update)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, first, bigMapBytesSizeForKey+valueSize("x"))

	c, second, err := Apply(c, update)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, second, int64(0))

	// overwrite and removal
	c, third, err := Apply(c, Diffs{MakeUpdate(BigMap, id, Existing{}, BigMapUpdates{add(7, "xyz")})})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, third, valueSize("xyz")-valueSize("x"))

	c, fourth, err := Apply(c, Diffs{MakeUpdate(BigMap, id, Existing{}, BigMapUpdates{del(7), del(8)})})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, fourth, -(bigMapBytesSizeForKey + valueSize("xyz")))

	total, err := TotalBytes(c, BigMap, id)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, total, int64(0))
}

func TestTemporariesExcludedFromTotal(t *testing.T) {
	c := newTestContext(t)
	c, tmp, _ := Fresh(c, BigMap, true)
	c, perm, _ := Fresh(c, BigMap, false)

	diffs := Diffs{
		MakeUpdate(BigMap, tmp, natStringAlloc(), BigMapUpdates{add(1, "temp")}),
		MakeUpdate(BigMap, perm, natStringAlloc(), nil),
	}
	c, total, err := Apply(c, diffs)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, total, int64(bigMapBytesSizeForEmpty))

	_, tmpDelta, err := ApplyItem(c, MakeUpdate(BigMap, tmp, Existing{}, BigMapUpdates{add(2, "more")}))
	ensure.Nil(t, err)
	ensure.True(t, tmpDelta > 0)

	c = CleanupTemporaries(c)
	exists, _ := Exists(c, BigMap, tmp)
	ensure.False(t, exists)
	exists, _ = Exists(c, BigMap, perm)
	ensure.True(t, exists)

	_, again, err := Fresh(c, BigMap, true)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, again, tmp)

	ids, err := IDs(c, BigMap)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, ids, []ID{perm})
}

func TestBigMapEntries(t *testing.T) {
	c := newTestContext(t)
	c, id, _ := Fresh(c, BigMap, false)
	c, _, err := Apply(c, Diffs{MakeUpdate(BigMap, id, natStringAlloc(), BigMapUpdates{add(1, "a"), add(2, "b"), del(1)})})
	ensure.Nil(t, err)

	entries, err := BigMapEntries(c, id)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(entries), 1)
	ensure.True(t, micheline.Equal(entries[0].Key, micheline.NewInt(2)))
	ensure.True(t, micheline.Equal(entries[0].Value, micheline.String{V: "b"}))

	mem, err := BigMapMem(c, id, KeyHash(micheline.NewInt(1)))
	ensure.Nil(t, err)
	ensure.False(t, mem)
}

func TestSaplingState(t *testing.T) {
	c := newTestContext(t)
	c, id, _ := Fresh(c, SaplingState, false)

	var nf [32]byte
	nf[0] = 1
	updates := &SaplingUpdates{
		Outputs:    []SaplingOutput{{Ciphertext: make([]byte, 10)}},
		Nullifiers: [][32]byte{nf},
	}
	c, delta, err := Apply(c, Diffs{MakeUpdate(SaplingState, id, Alloc{Params: &SaplingAlloc{MemoSize: 8}}, updates)})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, delta, int64(saplingBytesSizeForEmpty+32+10+32))

	memo, err := SaplingMemoSize(c, id)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, memo, uint16(8))
	size, err := SaplingSize(c, id)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, size, int64(1))
	spent, err := SaplingNullifierSpent(c, id, nf)
	ensure.Nil(t, err)
	ensure.True(t, spent)

	_, _, err = Apply(c, Diffs{MakeUpdate(SaplingState, id, Existing{}, BigMapUpdates{})})
	ensure.DeepEqual(t, err, ErrInvalidUpdates)
}

func TestItemString(t *testing.T) {
	ensure.DeepEqual(t, MakeRemove(BigMap, 4).String(), "big_maps 4: remove")
	ensure.DeepEqual(t, MakeUpdate(BigMap, -1, Copy{Src: 3}, BigMapUpdates{add(1, "a")}).String(),
		"big_maps -1: copy from 3, 1 updates")
}
