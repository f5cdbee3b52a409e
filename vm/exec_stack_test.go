// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/pkg/errors"
)

var abc = []Value{NewInt(1), String("a"), True}

func TestStackSurgery(t *testing.T) {
	isb := func() *Builder { return NewBuilder(IntT, StringT, BoolT) }
	runCases(t, []execCase{
		{"dig 0", isb().Dig(0), abc, abc},
		{"dig 2", isb().Dig(2), abc, []Value{True, NewInt(1), String("a")}},
		{"dug 2", isb().Dug(2), abc, []Value{String("a"), True, NewInt(1)}},
		{"dug 1", isb().Dug(1), abc, []Value{String("a"), NewInt(1), True}},
		{"drop 0", isb().DropN(0), abc, abc},
		{"drop 2", isb().DropN(2), abc, []Value{True}},
		{"dup 1", isb().DupN(1), abc, []Value{NewInt(1), NewInt(1), String("a"), True}},
		{"dup 3", isb().DupN(3), abc, []Value{True, NewInt(1), String("a"), True}},
		{"dip 2", isb().DipN(2, func(b *Builder) { b.Not() }), abc, []Value{NewInt(1), String("a"), False}},
		{"dip 0", isb().DipN(0, func(b *Builder) { b.Drop() }), abc, []Value{String("a"), True}},
		{"dip", isb().Dip(func(b *Builder) { b.Drop() }), abc, []Value{NewInt(1), True}},
		{"swap", isb().Swap(), abc, []Value{String("a"), NewInt(1), True}},
	})
}

func TestCombs(t *testing.T) {
	ct := mustTy(NewPairT(0, IntT, mustTy(NewPairT(0, StringT, BoolT))))
	c := NewPair(abc...)
	runCases(t, []execCase{
		{"pair 3", NewBuilder(IntT, StringT, BoolT).PairN(3), abc, []Value{c}},
		{"pair 2", NewBuilder(IntT, StringT, BoolT).PairN(2), abc, []Value{Pair{NewInt(1), String("a")}, True}},
		{"unpair 3", NewBuilder(ct).UnpairN(3), []Value{c}, abc},
		{"unpair 2", NewBuilder(ct).UnpairN(2), []Value{c}, []Value{NewInt(1), Pair{String("a"), True}}},
		{"pair then unpair", NewBuilder(IntT, StringT, BoolT).PairN(3).UnpairN(3), abc, abc},
		{"get 0", NewBuilder(ct).GetN(0), []Value{c}, []Value{c}},
		{"get 1", NewBuilder(ct).GetN(1), []Value{c}, []Value{NewInt(1)}},
		{"get 2", NewBuilder(ct).GetN(2), []Value{c}, []Value{Pair{String("a"), True}}},
		{"get 3", NewBuilder(ct).GetN(3), []Value{c}, []Value{String("a")}},
		{"get 4", NewBuilder(ct).GetN(4), []Value{c}, []Value{True}},
		{"update 0", NewBuilder(NatT, ct).UpdateN(0), []Value{NewNat(7), c}, []Value{NewNat(7)}},
		{"update 1", NewBuilder(IntT, ct).UpdateN(1), []Value{NewInt(9), c}, []Value{NewPair(NewInt(9), String("a"), True)}},
		{"update 3 new type", NewBuilder(NatT, ct).UpdateN(3), []Value{NewNat(5), c},
			[]Value{NewPair(NewInt(1), NewNat(5), True)}},
		{"update 4", NewBuilder(BoolT, ct).UpdateN(4), []Value{False, c}, []Value{NewPair(NewInt(1), String("a"), False)}},
		{"update 2", NewBuilder(UnitT, ct).UpdateN(2), []Value{Unit{}, c}, []Value{Pair{NewInt(1), Unit{}}}},
	})
}

func TestBuilderSetsWitnesses(t *testing.T) {
	ct := mustTy(NewPairT(0, IntT, mustTy(NewPairT(0, StringT, BoolT))))
	tests := []struct {
		name  string
		b     *Builder
		op    OpCode
		depth int
		args  []Value
	}{
		{"dig", NewBuilder(IntT, StringT, BoolT).Dig(2), OpDig, 2, abc},
		{"dug", NewBuilder(IntT, StringT, BoolT).Dug(2), OpDug, 2, abc},
		{"drop n", NewBuilder(IntT, StringT, BoolT).DropN(3), OpDropN, 3, abc},
		{"dup n", NewBuilder(IntT, StringT, BoolT).DupN(3), OpDupN, 2, abc},
		{"dip n", NewBuilder(IntT, StringT, BoolT).DipN(2, func(*Builder) {}), OpDipN, 2, abc},
		{"pair n", NewBuilder(IntT, StringT, BoolT).PairN(3), OpComb, 3, abc},
		{"unpair n", NewBuilder(ct).UnpairN(3), OpUncomb, 3, []Value{NewPair(abc...)}},
		{"get n", NewBuilder(ct).GetN(3), OpCombGet, 3, []Value{NewPair(abc...)}},
		{"update n", NewBuilder(StringT, ct).UpdateN(3), OpCombSet, 3, []Value{String("b"), NewPair(abc...)}},
	}
	for _, tc := range tests {
		code := build(t, tc.b)
		ensure.DeepEqual(t, code.Entry.Op, tc.op, tc.name)
		ensure.NotNil(t, code.Entry.W, tc.name)
		ensure.DeepEqual(t, code.Entry.W.Depth(), tc.depth, tc.name)
		ensure.True(t, code.Entry.W.check(newstack(tc.args...)), tc.name)
	}

	dug := build(t, NewBuilder(IntT, StringT, BoolT).Dug(2)).Entry.W.(*StackPrefix)
	ensure.DeepEqual(t, dug.Offset, 1)
	ensure.True(t, dug.Types.Equal(StackTy{StringT, BoolT}))

	get := build(t, NewBuilder(ct).GetN(3)).Entry.W.(*CombPath)
	ensure.DeepEqual(t, get.Rights, 1)
	ensure.True(t, get.Left)
	ensure.True(t, get.Ty.Equal(StringT))

	set := build(t, NewBuilder(NatT, ct).UpdateN(4)).Entry.W.(*CombPath)
	ensure.DeepEqual(t, set.At, 1)
	ensure.DeepEqual(t, set.Rights, 2)
	ensure.False(t, set.Left)
	ensure.True(t, set.Ty.Equal(BoolT))
}

func TestCheckStacksRejectsBrokenWitness(t *testing.T) {
	ct := mustTy(NewPairT(0, IntT, StringT))
	tests := []struct {
		name string
		b    *Builder
		w    Witness
		args []Value
	}{
		{"dig", NewBuilder(IntT, StringT, BoolT).Dig(2),
			&StackPrefix{Types: StackTy{StringT, StringT}}, abc},
		{"dug", NewBuilder(IntT, StringT, BoolT).Dug(2),
			&StackPrefix{Offset: 1, Types: StackTy{IntT, BoolT}}, abc},
		{"pair n", NewBuilder(IntT, StringT, BoolT).PairN(3),
			&Comb{Items: StackTy{IntT, StringT, IntT}}, abc},
		{"unpair n", NewBuilder(ct).UnpairN(2),
			&Comb{Items: StackTy{IntT, IntT}, Folded: true}, []Value{Pair{NewInt(1), String("a")}}},
		{"get n", NewBuilder(ct).GetN(1),
			newCombPath(1, 0, StringT), []Value{Pair{NewInt(1), String("a")}}},
		{"update n", NewBuilder(IntT, ct).UpdateN(2),
			newCombPath(2, 1, IntT), []Value{NewInt(2), Pair{NewInt(1), String("a")}}},
	}
	for _, tc := range tests {
		code := build(t, tc.b)
		_, err := newTestInterpreter(t, 100000).Run(code, tc.args...)
		ensure.Nil(t, err, tc.name)

		code.Entry.W = tc.w
		_, err = newTestInterpreter(t, 100000).Run(code, tc.args...)
		ensure.DeepEqual(t, errors.Cause(err), ErrStackShape, tc.name)
	}
}
