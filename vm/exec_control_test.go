// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func ints(vs ...int64) []Value {
	out := make([]Value, len(vs))
	for j, v := range vs {
		out[j] = NewInt(v)
	}
	return out
}

func wordCounts() *Map {
	return NewMap(StringT, IntT).
		Update(String("pear"), NewInt(3)).
		Update(String("apple"), NewInt(1)).
		Update(String("fig"), NewInt(2))
}

func TestListMapAndIter(t *testing.T) {
	lt := mustTy(NewListT(0, IntT))
	plus := func(b *Builder) { b.Push(IntT, NewInt(10)).Add() }
	runCases(t, []execCase{
		{"map", NewBuilder(lt).Map(plus), []Value{NewList(ints(1, 2, 3)...)}, []Value{NewList(ints(11, 12, 13)...)}},
		{"map empty", NewBuilder(lt).Map(plus), []Value{NewList()}, []Value{NewList()}},
		{"map reads below", NewBuilder(lt, IntT).Map(func(b *Builder) { b.DupN(2).Add() }),
			[]Value{NewList(ints(1, 2)...), NewInt(5)}, []Value{NewList(ints(6, 7)...), NewInt(5)}},
		{"map changes type", NewBuilder(lt).Map(func(b *Builder) { b.Eq() }),
			[]Value{NewList(ints(0, 1, 0)...)}, []Value{NewList(True, False, True)}},
		{"iter sums", NewBuilder(lt).Push(IntT, NewInt(0)).Swap().Iter(func(b *Builder) { b.Add() }),
			[]Value{NewList(ints(1, 2, 3, 4)...)}, []Value{NewInt(10)}},
		{"size", NewBuilder(lt).Size(), []Value{NewList(ints(1, 2, 3)...)}, []Value{NewNat(3)}},
		{"cons", NewBuilder(IntT, lt).Cons(), []Value{NewInt(0), NewList(ints(1)...)}, []Value{NewList(ints(0, 1)...)}},
		{"if cons", NewBuilder(lt).IfCons(
			func(b *Builder) { b.Dip(func(b *Builder) { b.Drop() }) },
			func(b *Builder) { b.Push(IntT, NewInt(-1)) }),
			[]Value{NewList(ints(4, 5)...)}, ints(4)},
		{"if cons empty", NewBuilder(lt).IfCons(
			func(b *Builder) { b.Dip(func(b *Builder) { b.Drop() }) },
			func(b *Builder) { b.Push(IntT, NewInt(-1)) }),
			[]Value{NewList()}, ints(-1)},
	})
}

func TestSetIterInOrder(t *testing.T) {
	st := mustTy(NewSetT(0, IntT))
	s := NewSet(IntT, ints(3, -1, 2, 10)...)
	runCases(t, []execCase{
		{"iter", NewBuilder(st).Nil(IntT).Swap().Iter(func(b *Builder) { b.Cons() }),
			[]Value{s}, []Value{NewList(ints(10, 3, 2, -1)...)}},
		{"mem", NewBuilder(IntT, st).Mem(), []Value{NewInt(2), s}, []Value{True}},
		{"not mem", NewBuilder(IntT, st).Mem(), []Value{NewInt(5), s}, []Value{False}},
		{"add", NewBuilder(IntT, BoolT, st).Update().Size(), []Value{NewInt(5), True, s}, []Value{NewNat(5)}},
		{"add present", NewBuilder(IntT, BoolT, st).Update().Size(), []Value{NewInt(2), True, s}, []Value{NewNat(4)}},
		{"remove", NewBuilder(IntT, BoolT, st).Update(), []Value{NewInt(2), False, s},
			[]Value{NewSet(IntT, ints(-1, 3, 10)...)}},
		{"empty", NewBuilder().EmptySet(IntT).Size(), nil, []Value{NewNat(0)}},
	})
}

func TestMapOps(t *testing.T) {
	mt := mustTy(NewMapT(0, StringT, IntT))
	ot := mustTy(NewOptionT(0, IntT))
	m := wordCounts()
	runCases(t, []execCase{
		{"iter keys", NewBuilder(mt).Nil(StringT).Swap().Iter(func(b *Builder) { b.Car().Cons() }),
			[]Value{m}, []Value{NewList(String("pear"), String("fig"), String("apple"))}},
		{"map values", NewBuilder(mt).Map(func(b *Builder) { b.Cdr().Push(IntT, NewInt(1)).Add() }),
			[]Value{m}, []Value{NewMap(StringT, IntT).
				Update(String("apple"), NewInt(2)).
				Update(String("fig"), NewInt(3)).
				Update(String("pear"), NewInt(4))}},
		{"map sees keys", NewBuilder(mt).Map(func(b *Builder) { b.Car().Size() }),
			[]Value{m}, []Value{NewMap(StringT, NatT).
				Update(String("apple"), NewNat(5)).
				Update(String("fig"), NewNat(3)).
				Update(String("pear"), NewNat(4))}},
		{"map empty", NewBuilder(mt).Map(func(b *Builder) { b.Cdr() }),
			[]Value{NewMap(StringT, IntT)}, []Value{NewMap(StringT, IntT)}},
		{"size", NewBuilder(mt).Size(), []Value{m}, []Value{NewNat(3)}},
		{"mem", NewBuilder(StringT, mt).Mem(), []Value{String("fig"), m}, []Value{True}},
		{"get", NewBuilder(StringT, mt).Get(), []Value{String("fig"), m}, []Value{Some(NewInt(2))}},
		{"get missing", NewBuilder(StringT, mt).Get(), []Value{String("kiwi"), m}, []Value{None}},
		{"update adds", NewBuilder(StringT, ot, mt).Update().Size(), []Value{String("kiwi"), Some(NewInt(7)), m},
			[]Value{NewNat(4)}},
		{"update removes", NewBuilder(StringT, ot, mt).Update(), []Value{String("fig"), None, m},
			[]Value{NewMap(StringT, IntT).Update(String("apple"), NewInt(1)).Update(String("pear"), NewInt(3))}},
		{"get and update", NewBuilder(StringT, ot, mt).GetAndUpdate().Dip(func(b *Builder) { b.Size() }),
			[]Value{String("pear"), Some(NewInt(9)), m}, []Value{Some(NewInt(3)), NewNat(3)}},
		{"empty", NewBuilder().EmptyMap(StringT, IntT).Size(), nil, []Value{NewNat(0)}},
	})

	// the body runs once per binding, in key order
	code := build(t, NewBuilder(mt).Nil(StringT).Swap().Map(func(b *Builder) {
		b.Car().Dup().Dig(2).Swap().Cons().Swap()
	}).Drop())
	out, err := newTestInterpreter(t, 100000).Run(code, m)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, packed(out[0]), packed(NewList(String("pear"), String("fig"), String("apple"))))
}

func TestOptionsAndOrs(t *testing.T) {
	ot := mustTy(NewOptionT(0, IntT))
	orT := mustTy(NewOrT(0, IntT, StringT))
	runCases(t, []execCase{
		{"map some", NewBuilder(ot).Map(func(b *Builder) { b.Push(IntT, NewInt(1)).Add() }),
			[]Value{Some(NewInt(1))}, []Value{Some(NewInt(2))}},
		{"map none", NewBuilder(ot).Map(func(b *Builder) { b.Push(IntT, NewInt(1)).Add() }),
			[]Value{None}, []Value{None}},
		{"if none", NewBuilder(ot).IfNone(
			func(b *Builder) { b.Push(IntT, NewInt(0)) },
			func(*Builder) {}), []Value{None}, ints(0)},
		{"if some", NewBuilder(ot).IfNone(
			func(b *Builder) { b.Push(IntT, NewInt(0)) },
			func(*Builder) {}), []Value{Some(NewInt(4))}, ints(4)},
		{"if left", NewBuilder(orT).IfLeft(
			func(*Builder) {},
			func(b *Builder) { b.Size().Int() }), []Value{Left(NewInt(-2))}, ints(-2)},
		{"if right", NewBuilder(orT).IfLeft(
			func(*Builder) {},
			func(b *Builder) { b.Size().Int() }), []Value{Right(String("abc"))}, ints(3)},
		{"left", NewBuilder(IntT).Left(StringT), ints(1), []Value{Left(NewInt(1))}},
		{"right", NewBuilder(StringT).Right(IntT), []Value{String("x")}, []Value{Right(String("x"))}},
	})
}

func TestLoops(t *testing.T) {
	// sum of 1..n
	sum := NewBuilder(IntT).Push(IntT, NewInt(0)).Swap().Dup().Gt().Loop(func(b *Builder) {
		b.Dup().Dig(2).Add().Swap().
			Push(IntT, NewInt(1)).Swap().Sub().
			Dup().Gt()
	}).Drop()
	// doubles until reaching 10
	double := func() *Builder {
		return NewBuilder(IntT).Left(IntT).LoopLeft(func(b *Builder) {
			b.Dup().Push(IntT, NewInt(10)).Swap().Compare().Ge().If(
				func(b *Builder) { b.Right(IntT) },
				func(b *Builder) { b.Push(IntT, NewInt(2)).Mul().Left(IntT) })
		})
	}
	runCases(t, []execCase{
		{"loop", sum, ints(4), ints(10)},
		{"loop never entered", NewBuilder(IntT).Push(IntT, NewInt(0)).Swap().Dup().Gt().Loop(func(b *Builder) {
			b.Push(IntT, NewInt(1)).Swap().Sub().Dup().Gt()
		}).Drop(), ints(0), ints(0)},
		{"loop left", double(), ints(3), ints(12)},
		{"loop left done", double(), ints(11), ints(11)},
	})
}
