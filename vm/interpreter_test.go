// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"
	"testing"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/memdb"
	"github.com/facebookgo/ensure"
	fuzz "github.com/google/gofuzz"
	"github.com/pkg/errors"
)

func newTestContext(t *testing.T, limit int64) *state.Context {
	db, err := memdb.NewMemoryDB("", nil)
	ensure.Nil(t, err)
	meter, err := gas.NewMeter(limit)
	ensure.Nil(t, err)
	return state.New(db).WithMeter(meter)
}

func newTestInterpreter(t *testing.T, limit int64) *Interpreter {
	cfg := DefaultConfig()
	cfg.CheckStacks = true
	return NewInterpreter(newTestContext(t, limit), nil, nil, cfg)
}

func build(t *testing.T, b *Builder) *Code {
	code, err := b.Build()
	ensure.Nil(t, err)
	return code
}

func mustTy(ty *Ty, err error) *Ty {
	if err != nil {
		panic(err)
	}
	return ty
}

func packed(v Value) []byte {
	return micheline.Pack(Unparse(v, Optimized))
}

// execCase runs b on args and expects want, both top first.
type execCase struct {
	name string
	b    *Builder
	args []Value
	want []Value
}

func runCases(t *testing.T, cases []execCase) {
	for _, tc := range cases {
		code, err := tc.b.Build()
		ensure.Nil(t, err, tc.name)
		out, err := newTestInterpreter(t, 100000).Run(code, tc.args...)
		ensure.Nil(t, err, tc.name)
		ensure.DeepEqual(t, len(out), len(tc.want), tc.name)
		for j, v := range tc.want {
			ensure.DeepEqual(t, packed(out[j]), packed(v), tc.name, j)
			ensure.True(t, HasType(out[j], code.After[j]), tc.name, j)
		}
	}
}

// failCase runs b on args and expects an error with the given cause.
type failCase struct {
	name  string
	b     *Builder
	args  []Value
	cause error
}

func runFailCases(t *testing.T, cases []failCase) {
	for _, tc := range cases {
		code, err := tc.b.Build()
		ensure.Nil(t, err, tc.name)
		_, err = newTestInterpreter(t, 100000).Run(code, tc.args...)
		ensure.NotNil(t, err, tc.name)
		ensure.DeepEqual(t, errors.Cause(err), tc.cause, tc.name)
	}
}

func TestAddInt(t *testing.T) {
	in := newTestInterpreter(t, 1000)
	code := build(t, NewBuilder(IntT, IntT).Add())
	out, err := in.Run(code, NewInt(3), NewInt(4))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(out), 1)
	ensure.DeepEqual(t, out[0].(Int).V.Int64(), int64(7))
	ensure.True(t, in.Context().Meter().Consumed() > 0)
	ensure.True(t, in.Steps() > 0)
}

func TestCompareIf(t *testing.T) {
	code := build(t, NewBuilder(IntT, IntT).Compare().Eq().If(
		func(b *Builder) { b.Push(StringT, String("equal")) },
		func(b *Builder) { b.Push(StringT, String("different")) },
	))
	out, err := newTestInterpreter(t, 1000).Run(code, NewInt(5), NewInt(5))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out, []Value{String("equal")})

	out, err = newTestInterpreter(t, 1000).Run(code, NewInt(5), NewInt(6))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out, []Value{String("different")})
}

func TestIterReversesList(t *testing.T) {
	lt, err := NewListT(0, IntT)
	ensure.Nil(t, err)
	code := build(t, NewBuilder(lt).Nil(IntT).Swap().Iter(func(b *Builder) { b.Cons() }))
	out, err := newTestInterpreter(t, 1000).Run(code, NewList(NewInt(1), NewInt(2), NewInt(3)))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(out), 1)
	var got []int64
	for _, v := range out[0].(*List).Items() {
		got = append(got, v.(Int).V.Int64())
	}
	ensure.DeepEqual(t, got, []int64{3, 2, 1})
}

func TestEdiv(t *testing.T) {
	code := build(t, NewBuilder(IntT, IntT).Ediv())
	f := fuzz.New()
	for n := 0; n < 200; n++ {
		var a, b int32
		f.Fuzz(&a)
		f.Fuzz(&b)
		out, err := newTestInterpreter(t, 1000).Run(code, NewInt(int64(a)), NewInt(int64(b)))
		ensure.Nil(t, err)
		res := out[0].(Option)
		if b == 0 {
			ensure.True(t, res.IsNone())
			continue
		}
		qr := res.V.(Pair)
		q, r := qr.L.(Int).V, qr.R.(Nat).V
		ensure.True(t, r.Sign() >= 0)
		ensure.True(t, r.CmpAbs(big.NewInt(int64(b))) < 0)
		back := new(big.Int).Mul(q, big.NewInt(int64(b)))
		back.Add(back, r)
		ensure.DeepEqual(t, back.Int64(), int64(a))
	}
}

func TestApplyExec(t *testing.T) {
	arg, err := NewPairT(0, IntT, IntT)
	ensure.Nil(t, err)
	code := build(t, NewBuilder(IntT, IntT).
		Lambda(arg, IntT, func(b *Builder) { b.Unpair().Add() }).
		Dig(2).Apply().Swap().Exec())
	out, err := newTestInterpreter(t, 1000).Run(code, NewInt(3), NewInt(4))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out[0].(Int).V.Int64(), int64(7))
}

// sumLambda computes 0 + 1 + ... + n by recursion.
func sumLambda(t *testing.T) *Lambda {
	l, err := NewRecLambda(NatT, NatT, func(b *Builder) {
		b.Dup().Push(NatT, NewNat(0)).Compare().Eq().If(
			func(b *Builder) { b.Swap().Drop() },
			func(b *Builder) {
				b.Dup().Push(NatT, NewNat(1)).Swap().Sub().Abs().
					Dig(2).Dup().Dig(2).Exec().
					Dip(func(b *Builder) { b.Drop() }).
					Add()
			})
	})
	ensure.Nil(t, err)
	return l
}

func TestRecursiveLambda(t *testing.T) {
	in := newTestInterpreter(t, 10000)
	res, err := in.Call(sumLambda(t), NewNat(4))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, res.(Nat).V.Int64(), int64(10))
	ensure.DeepEqual(t, in.depth, 0)
}

func TestFailwith(t *testing.T) {
	code := build(t, NewBuilder(IntT).Push(StringT, String("boom")).Failwith())
	_, err := newTestInterpreter(t, 1000).Run(code, NewInt(1))
	reject, ok := err.(*RejectError)
	ensure.True(t, ok)
	ensure.DeepEqual(t, reject.Value, Unparse(String("boom"), Optimized))
}

func TestGasExhaustion(t *testing.T) {
	code := build(t, NewBuilder().Push(BoolT, Bool(true)).Loop(func(b *Builder) {
		b.Push(BoolT, Bool(true))
	}))
	in := newTestInterpreter(t, 10)
	_, err := in.Run(code)
	ensure.DeepEqual(t, errors.Cause(err), gas.ErrOperationQuotaExceeded)
	ensure.DeepEqual(t, in.Context().Meter().Remaining(), gas.Free)
}

func TestRunChecksStack(t *testing.T) {
	code := build(t, NewBuilder(IntT, IntT).Add())
	_, err := newTestInterpreter(t, 1000).Run(code, NewInt(3), String("x"))
	ensure.DeepEqual(t, errors.Cause(err), ErrStackShape)
}

// TestRandomSequences runs random well typed sequences of stack and
// integer instructions and checks the result against the static type.
func TestRandomSequences(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for n := 0; n < 50; n++ {
		var ops []uint8
		f.NumElements(1, 40).Fuzz(&ops)
		b := NewBuilder()
		for _, o := range ops {
			st := b.Stack()
			switch {
			case o%6 == 0 || len(st) == 0:
				var v int32
				f.Fuzz(&v)
				b.Push(IntT, NewInt(int64(v)))
			case o%6 == 1:
				b.Dup()
			case o%6 == 2 && len(st) > 1:
				b.Swap()
			case o%6 == 3 && len(st) > 1:
				b.Drop()
			case o%6 == 4 && len(st) > 1 && st[0].Kind == TInt && st[1].Kind == TInt:
				b.Add()
			case o%6 == 5 && len(st) > 1 && st[0].Size()+st[1].Size() < 64:
				b.Pair()
			case st[0].Kind == TPair:
				b.Unpair()
			}
		}
		code := build(t, b)
		out, err := newTestInterpreter(t, 100000).Run(code)
		ensure.Nil(t, err)
		ensure.True(t, newstack(out...).matches(code.After))
	}
}

func TestStructLogger(t *testing.T) {
	in := newTestInterpreter(t, 1000)
	l := NewStructLogger(nil)
	in.SetLogger(l)
	code := build(t, NewBuilder(IntT, IntT).Add().Push(IntT, NewInt(1)).Add())
	_, err := in.Run(code, NewInt(3), NewInt(4))
	ensure.Nil(t, err)

	logs := l.StructLogs()
	ensure.True(t, len(logs) >= 3)
	ensure.DeepEqual(t, logs[0].Op, OpAddInt)
	ensure.DeepEqual(t, len(logs[0].Stack), 2)
	ensure.True(t, logs[0].GasCost > 0)
	ensure.DeepEqual(t, logs[1].Op, OpConst)
	ensure.Nil(t, l.Error())
}
