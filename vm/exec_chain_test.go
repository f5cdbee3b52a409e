// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/pkg/errors"
)

func mustHex(s string) Bytes {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestPackUnpack(t *testing.T) {
	pt := mustTy(NewPairT(0, IntT, StringT))
	lt := mustTy(NewListT(0, NatT))
	runCases(t, []execCase{
		{"pack int", NewBuilder(IntT).Pack(), ints(1), []Value{mustHex("050001")}},
		{"pack string", NewBuilder(StringT).Pack(), []Value{String("a")}, []Value{mustHex("05010000000161")}},
		{"round trip pair", NewBuilder(pt).Pack().Unpack(pt), []Value{Pair{NewInt(-5), String("x")}},
			[]Value{Some(Pair{NewInt(-5), String("x")})}},
		{"round trip list", NewBuilder(lt).Pack().Unpack(lt), []Value{NewList(NewNat(1), NewNat(300))},
			[]Value{Some(NewList(NewNat(1), NewNat(300)))}},
		{"wrong type", NewBuilder(StringT).Pack().Unpack(IntT), []Value{String("a")}, []Value{None}},
		{"negative nat", NewBuilder(IntT).Pack().Unpack(NatT), ints(-1), []Value{None}},
		{"not packed", NewBuilder(BytesT).Unpack(IntT), []Value{mustHex("0001")}, []Value{None}},
		{"trailing bytes", NewBuilder(BytesT).Unpack(IntT), []Value{mustHex("05000100")}, []Value{None}},
	})
}

func TestHashes(t *testing.T) {
	empty := []Value{Bytes{}}
	runCases(t, []execCase{
		{"blake2b", NewBuilder(BytesT).Blake2b(), empty,
			[]Value{mustHex("0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8")}},
		{"sha256", NewBuilder(BytesT).Sha256(), empty,
			[]Value{mustHex("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")}},
		{"sha512", NewBuilder(BytesT).Sha512(), empty,
			[]Value{mustHex("cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce" +
				"47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e")}},
		{"keccak", NewBuilder(BytesT).Keccak(), empty,
			[]Value{mustHex("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")}},
		{"sha3", NewBuilder(BytesT).Sha3(), empty,
			[]Value{mustHex("a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a")}},
	})
}

func TestStepConstants(t *testing.T) {
	self := OriginatedAddress([ContractHashSize]byte{1})
	sender := OriginatedAddress([ContractHashSize]byte{2})
	step := &StepConstants{
		Source:       sender,
		Sender:       sender,
		Self:         self.WithEntrypoint("mint"),
		Amount:       5,
		Balance:      100,
		ChainID:      ChainID{1, 2, 3, 4},
		Now:          big.NewInt(1000),
		Level:        big.NewInt(7),
		MinBlockTime: big.NewInt(15),
	}
	code := build(t, NewBuilder().
		Amount().Balance().Level().Now().MinBlockTime().ChainID().Sender().Source().SelfAddress())
	cfg := DefaultConfig()
	cfg.CheckStacks = true
	out, err := NewInterpreter(newTestContext(t, 100000), step, nil, cfg).Run(code)
	ensure.Nil(t, err)
	want := []Value{self, sender, sender, ChainID{1, 2, 3, 4}, NewNat(15), NewTimestamp(1000), NewNat(7), Mutez(100), Mutez(5)}
	ensure.DeepEqual(t, len(out), len(want))
	for j, v := range want {
		ensure.DeepEqual(t, packed(out[j]), packed(v), j)
	}

	// without step constants the counters start at zero
	out, err = newTestInterpreter(t, 100000).Run(build(t, NewBuilder().Level().Now()))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, packed(out[0]), packed(NewTimestamp(0)))
	ensure.DeepEqual(t, packed(out[1]), packed(NewNat(0)))
}

func ticketInterpreter(t *testing.T, self Address) *Interpreter {
	cfg := DefaultConfig()
	cfg.CheckStacks = true
	return NewInterpreter(newTestContext(t, 100000), &StepConstants{Self: self}, nil, cfg)
}

func noTicket(b *Builder) { b.Push(StringT, String("no ticket")).Failwith() }

func TestTickets(t *testing.T) {
	self := OriginatedAddress([ContractHashSize]byte{7})
	nn := mustTy(NewPairT(0, NatT, NatT))

	read := build(t, NewBuilder(StringT, NatT).Ticket().IfNone(noTicket, func(b *Builder) { b.ReadTicket() }))
	out, err := ticketInterpreter(t, self).Run(read, String("t"), NewNat(10))
	ensure.Nil(t, err)
	ensure.DeepEqual(t, packed(out[0]), packed(NewPair(self, String("t"), NewNat(10))))
	ensure.DeepEqual(t, out[1].(*Ticket).Amount.Int64(), int64(10))

	mint := build(t, NewBuilder(StringT, NatT).Ticket())
	out, err = ticketInterpreter(t, self).Run(mint, String("t"), NewNat(0))
	ensure.Nil(t, err)
	ensure.True(t, out[0].(Option).IsNone())

	split := build(t, NewBuilder(StringT, NatT, nn).Ticket().IfNone(noTicket, func(b *Builder) { b.SplitTicket() }))
	tests := []struct {
		a, b int64
		ok   bool
	}{
		{4, 6, true},
		{3, 4, false},
		{0, 10, false},
	}
	for _, tc := range tests {
		out, err := ticketInterpreter(t, self).Run(split, String("t"), NewNat(10), Pair{NewNat(tc.a), NewNat(tc.b)})
		ensure.Nil(t, err)
		o := out[0].(Option)
		ensure.DeepEqual(t, !o.IsNone(), tc.ok, tc.a, tc.b)
		if tc.ok {
			p := o.V.(Pair)
			ensure.DeepEqual(t, p.L.(*Ticket).Amount.Int64(), tc.a)
			ensure.DeepEqual(t, p.R.(*Ticket).Amount.Int64(), tc.b)
		}
	}

	rejoin := build(t, NewBuilder(StringT, NatT, nn).Ticket().
		IfNone(noTicket, func(b *Builder) { b.SplitTicket() }).
		IfNone(noTicket, func(b *Builder) { b.JoinTickets() }))
	out, err = ticketInterpreter(t, self).Run(rejoin, String("t"), NewNat(10), Pair{NewNat(4), NewNat(6)})
	ensure.Nil(t, err)
	joined := out[0].(Option).V.(*Ticket)
	ensure.DeepEqual(t, joined.Amount.Int64(), int64(10))
	ensure.DeepEqual(t, joined.Ticketer.Compare(self), 0)

	_, err = ticketInterpreter(t, self).Run(rejoin, String("t"), NewNat(10), Pair{NewNat(4), NewNat(4)})
	_, ok := errors.Cause(err).(*RejectError)
	ensure.True(t, ok)
}

func TestJoinTicketsOfDifferentContents(t *testing.T) {
	tt := mustTy(NewTicketT(0, StringT))
	pt := mustTy(NewPairT(0, tt, tt))
	self := OriginatedAddress([ContractHashSize]byte{7})
	a := &Ticket{Ticketer: self, Contents: String("a"), Amount: big.NewInt(1)}
	b := &Ticket{Ticketer: self, Contents: String("b"), Amount: big.NewInt(1)}
	other := &Ticket{Ticketer: OriginatedAddress([ContractHashSize]byte{8}), Contents: String("a"), Amount: big.NewInt(1)}

	code := build(t, NewBuilder(pt).JoinTickets())
	for _, p := range []Pair{{a, b}, {a, other}} {
		out, err := newTestInterpreter(t, 100000).Run(code, p)
		ensure.Nil(t, err)
		ensure.True(t, out[0].(Option).IsNone())
	}
	out, err := newTestInterpreter(t, 100000).Run(code, Pair{a, a})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out[0].(Option).V.(*Ticket).Amount.Int64(), int64(2))
}
