// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math"
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/pkg/errors"
)

func TestBooleans(t *testing.T) {
	var cases []execCase
	for _, a := range []Bool{True, False} {
		for _, b := range []Bool{True, False} {
			cases = append(cases,
				execCase{"or", NewBuilder(BoolT, BoolT).Or(), []Value{a, b}, []Value{a || b}},
				execCase{"and", NewBuilder(BoolT, BoolT).And(), []Value{a, b}, []Value{a && b}},
				execCase{"xor", NewBuilder(BoolT, BoolT).Xor(), []Value{a, b}, []Value{Bool(a != b)}},
			)
		}
		cases = append(cases, execCase{"not", NewBuilder(BoolT).Not(), []Value{a}, []Value{!a}})
	}
	runCases(t, cases)
}

func TestNatAdd(t *testing.T) {
	code := build(t, NewBuilder(NatT, NatT).Add())
	ensure.True(t, code.After.Equal(StackTy{NatT}))
	ensure.DeepEqual(t, code.Entry.Op, OpAddNat)
	out, err := newTestInterpreter(t, 100000).Run(code, NewNat(2), NewNat(40))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out[0].(Nat).V.Int64(), int64(42))
}

func TestIntegers(t *testing.T) {
	runCases(t, []execCase{
		{"add int nat", NewBuilder(IntT, NatT).Add(), []Value{NewInt(-3), NewNat(5)}, []Value{NewInt(2)}},
		{"sub nat gives int", NewBuilder(NatT, NatT).Sub(), []Value{NewNat(3), NewNat(5)}, []Value{NewInt(-2)}},
		{"mul nat", NewBuilder(NatT, NatT).Mul(), []Value{NewNat(6), NewNat(7)}, []Value{NewNat(42)}},
		{"mul int", NewBuilder(IntT, NatT).Mul(), []Value{NewInt(-6), NewNat(7)}, []Value{NewInt(-42)}},
		{"ediv -7 2", NewBuilder(IntT, IntT).Ediv(), []Value{NewInt(-7), NewInt(2)},
			[]Value{Some(Pair{NewInt(-4), NewNat(1)})}},
		{"ediv 7 -2", NewBuilder(IntT, IntT).Ediv(), []Value{NewInt(7), NewInt(-2)},
			[]Value{Some(Pair{NewInt(-3), NewNat(1)})}},
		{"ediv -7 -2", NewBuilder(IntT, IntT).Ediv(), []Value{NewInt(-7), NewInt(-2)},
			[]Value{Some(Pair{NewInt(4), NewNat(1)})}},
		{"ediv by zero", NewBuilder(IntT, IntT).Ediv(), []Value{NewInt(7), NewInt(0)}, []Value{None}},
		{"ediv nat", NewBuilder(NatT, NatT).Ediv(), []Value{NewNat(7), NewNat(2)},
			[]Value{Some(Pair{NewNat(3), NewNat(1)})}},
		{"abs", NewBuilder(IntT).Abs(), []Value{NewInt(-5)}, []Value{NewNat(5)}},
		{"isnat negative", NewBuilder(IntT).IsNat(), []Value{NewInt(-1)}, []Value{None}},
		{"isnat", NewBuilder(IntT).IsNat(), []Value{NewInt(3)}, []Value{Some(NewNat(3))}},
		{"neg nat", NewBuilder(NatT).Neg(), []Value{NewNat(3)}, []Value{NewInt(-3)}},
		{"int of nat", NewBuilder(NatT).Int(), []Value{NewNat(3)}, []Value{NewInt(3)}},
		{"compare", NewBuilder(IntT, IntT).Compare(), []Value{NewInt(1), NewInt(2)}, []Value{NewInt(-1)}},
		{"add timestamp", NewBuilder(TimestampT, IntT).Add(), []Value{NewTimestamp(100), NewInt(5)},
			[]Value{NewTimestamp(105)}},
		{"diff timestamps", NewBuilder(TimestampT, TimestampT).Sub(), []Value{NewTimestamp(100), NewTimestamp(40)},
			[]Value{NewInt(60)}},
	})
}

func TestBitwise(t *testing.T) {
	runCases(t, []execCase{
		{"lsl", NewBuilder(NatT, NatT).Lsl(), []Value{NewNat(1), NewNat(8)}, []Value{NewNat(256)}},
		{"lsr", NewBuilder(NatT, NatT).Lsr(), []Value{NewNat(256), NewNat(4)}, []Value{NewNat(16)}},
		{"or nat", NewBuilder(NatT, NatT).Or(), []Value{NewNat(12), NewNat(10)}, []Value{NewNat(14)}},
		{"and nat", NewBuilder(NatT, NatT).And(), []Value{NewNat(12), NewNat(10)}, []Value{NewNat(8)}},
		{"xor nat", NewBuilder(NatT, NatT).Xor(), []Value{NewNat(12), NewNat(10)}, []Value{NewNat(6)}},
		{"and -1 nat", NewBuilder(IntT, NatT).And(), []Value{NewInt(-1), NewNat(12)}, []Value{NewNat(12)}},
		{"and -8 nat", NewBuilder(IntT, NatT).And(), []Value{NewInt(-8), NewNat(13)}, []Value{NewNat(8)}},
		{"not int", NewBuilder(IntT).Not(), []Value{NewInt(5)}, []Value{NewInt(-6)}},
		{"not nat", NewBuilder(NatT).Not(), []Value{NewNat(0)}, []Value{NewInt(-1)}},
	})
}

func TestShiftOverflow(t *testing.T) {
	for _, b := range []*Builder{NewBuilder(NatT, NatT).Lsl(), NewBuilder(NatT, NatT).Lsr()} {
		_, err := newTestInterpreter(t, 100000).Run(build(t, b), NewNat(1), NewNat(257))
		_, ok := errors.Cause(err).(*OverflowError)
		ensure.True(t, ok)
	}
	out, err := newTestInterpreter(t, 100000).Run(build(t, NewBuilder(NatT, NatT).Lsl()), NewNat(1), NewNat(256))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out[0].(Nat).V.BitLen(), 257)
}

func TestMutez(t *testing.T) {
	runCases(t, []execCase{
		{"add", NewBuilder(MutezT, MutezT).Add(), []Value{Mutez(3), Mutez(4)}, []Value{Mutez(7)}},
		{"sub", NewBuilder(MutezT, MutezT).SubMutez(), []Value{Mutez(5), Mutez(3)}, []Value{Some(Mutez(2))}},
		{"sub underflow", NewBuilder(MutezT, MutezT).SubMutez(), []Value{Mutez(3), Mutez(5)}, []Value{None}},
		{"sub legacy", NewBuilder(MutezT, MutezT).Sub(), []Value{Mutez(5), Mutez(3)}, []Value{Mutez(2)}},
		{"mul", NewBuilder(MutezT, NatT).Mul(), []Value{Mutez(5), NewNat(3)}, []Value{Mutez(15)}},
		{"mul nat first", NewBuilder(NatT, MutezT).Mul(), []Value{NewNat(3), Mutez(5)}, []Value{Mutez(15)}},
		{"ediv by nat", NewBuilder(MutezT, NatT).Ediv(), []Value{Mutez(7), NewNat(2)},
			[]Value{Some(Pair{Mutez(3), Mutez(1)})}},
		{"ediv by mutez", NewBuilder(MutezT, MutezT).Ediv(), []Value{Mutez(7), Mutez(2)},
			[]Value{Some(Pair{NewNat(3), Mutez(1)})}},
		{"ediv by zero", NewBuilder(MutezT, MutezT).Ediv(), []Value{Mutez(7), Mutez(0)}, []Value{None}},
	})
	runFailCases(t, []failCase{
		{"sub legacy underflow", NewBuilder(MutezT, MutezT).Sub(), []Value{Mutez(3), Mutez(5)}, ErrTezUnderflow},
	})

	overflows := []struct {
		name string
		b    *Builder
		args []Value
	}{
		{"add", NewBuilder(MutezT, MutezT).Add(), []Value{Mutez(math.MaxInt64), Mutez(1)}},
		{"mul", NewBuilder(MutezT, NatT).Mul(), []Value{Mutez(math.MaxInt64 / 2), NewNat(3)}},
	}
	for _, tc := range overflows {
		_, err := newTestInterpreter(t, 100000).Run(build(t, tc.b), tc.args...)
		_, ok := errors.Cause(err).(*OverflowError)
		ensure.True(t, ok, tc.name)
	}
}

func TestStringsAndBytes(t *testing.T) {
	strs := mustTy(NewListT(0, StringT))
	bs := mustTy(NewListT(0, BytesT))
	runCases(t, []execCase{
		{"concat pair", NewBuilder(StringT, StringT).Concat(), []Value{String("ab"), String("cd")}, []Value{String("abcd")}},
		{"concat list", NewBuilder(strs).Concat(), []Value{NewList(String("a"), String("b"), String("c"))},
			[]Value{String("abc")}},
		{"concat bytes", NewBuilder(BytesT, BytesT).Concat(), []Value{Bytes{1}, Bytes{2}}, []Value{Bytes{1, 2}}},
		{"concat bytes list", NewBuilder(bs).Concat(), []Value{NewList(Bytes{1}, Bytes{}, Bytes{2, 3})},
			[]Value{Bytes{1, 2, 3}}},
		{"size", NewBuilder(StringT).Size(), []Value{String("hello")}, []Value{NewNat(5)}},
		{"bytes size", NewBuilder(BytesT).Size(), []Value{Bytes{1, 2}}, []Value{NewNat(2)}},
		{"slice", NewBuilder(NatT, NatT, StringT).Slice(), []Value{NewNat(1), NewNat(3), String("hello")},
			[]Value{Some(String("ell"))}},
		{"slice empty at end", NewBuilder(NatT, NatT, StringT).Slice(), []Value{NewNat(5), NewNat(0), String("hello")},
			[]Value{Some(String(""))}},
		{"slice out of range", NewBuilder(NatT, NatT, StringT).Slice(), []Value{NewNat(3), NewNat(3), String("hello")},
			[]Value{None}},
		{"slice bytes", NewBuilder(NatT, NatT, BytesT).Slice(), []Value{NewNat(0), NewNat(2), Bytes{1, 2, 3}},
			[]Value{Some(Bytes{1, 2})}},
		{"bytes of nat", NewBuilder(NatT).Bytes(), []Value{NewNat(256)}, []Value{Bytes{1, 0}}},
		{"nat of bytes", NewBuilder(BytesT).Nat(), []Value{Bytes{1, 0}}, []Value{NewNat(256)}},
		{"bytes of zero", NewBuilder(IntT).Bytes(), []Value{NewInt(0)}, []Value{Bytes{}}},
		{"bytes of 128", NewBuilder(IntT).Bytes(), []Value{NewInt(128)}, []Value{Bytes{0, 0x80}}},
		{"bytes of -1", NewBuilder(IntT).Bytes(), []Value{NewInt(-1)}, []Value{Bytes{0xff}}},
		{"bytes of -129", NewBuilder(IntT).Bytes(), []Value{NewInt(-129)}, []Value{Bytes{0xff, 0x7f}}},
		{"int of bytes", NewBuilder(BytesT).Int(), []Value{Bytes{0xff, 0x7f}}, []Value{NewInt(-129)}},
		{"int of 0x0080", NewBuilder(BytesT).Int(), []Value{Bytes{0, 0x80}}, []Value{NewInt(128)}},
	})
}
