// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
)

// Value is a michelson value. The set of implementations is closed.
type Value interface {
	value()
}

type (
	// Unit is the only value of type unit.
	Unit struct{}
	// Bool is a boolean.
	Bool bool
	// Int is an arbitrary precision integer. V is never mutated.
	Int struct{ V *big.Int }
	// Nat is a non negative arbitrary precision integer.
	Nat struct{ V *big.Int }
	// Timestamp is a number of seconds since the epoch.
	Timestamp struct{ V *big.Int }
	// Mutez is an amount of tokens, between 0 and 2^63-1.
	Mutez int64
	// String is a printable ascii string.
	String string
	// Bytes is a byte sequence.
	Bytes []byte
	// KeyHash is a public key hash.
	KeyHash struct{ *crypto.KeyHash }
	// Key is a public key.
	Key struct{ *crypto.PublicKey }
	// Signature is a raw signature.
	Signature crypto.Signature
	// ChainID is the identifier of a chain.
	ChainID [4]byte
	// Pair is a pair of values.
	Pair struct{ L, R Value }
	// Or is Left V or Right V.
	Or struct {
		Right bool
		V     Value
	}
	// Option is Some V, or None when V is nil.
	Option struct{ V Value }
	// Ticket is an amount of contents minted by Ticketer.
	Ticket struct {
		Ticketer Address
		Contents Value
		Amount   *big.Int
	}
	// Lambda is typed code with its micheline form. A recursive lambda gets
	// itself as second argument.
	Lambda struct {
		Arg, Ret *Ty
		Code     *Instr
		Node     micheline.Node
		Rec      bool
	}
	// Contract is a typed reference to an entrypoint.
	Contract struct {
		Arg     *Ty
		Address Address
	}
	// G1 is a BLS12-381 G1 point.
	G1 struct{ *crypto.G1 }
	// G2 is a BLS12-381 G2 point.
	G2 struct{ *crypto.G2 }
	// Fr is a BLS12-381 scalar.
	Fr struct{ *crypto.Fr }
	// Chest is a timelocked payload.
	Chest struct{ *crypto.Chest }
	// ChestKey opens a chest.
	ChestKey struct{ *crypto.ChestKey }
	// SaplingTransaction is an opaque shielded transaction.
	SaplingTransaction struct {
		MemoSize uint16
		Data     []byte
	}
)

func (Unit) value()                {}
func (Bool) value()                {}
func (Int) value()                 {}
func (Nat) value()                 {}
func (Timestamp) value()           {}
func (Mutez) value()               {}
func (String) value()              {}
func (Bytes) value()               {}
func (KeyHash) value()             {}
func (Key) value()                 {}
func (Signature) value()           {}
func (ChainID) value()             {}
func (Address) value()             {}
func (Pair) value()                {}
func (Or) value()                  {}
func (Option) value()              {}
func (*Ticket) value()             {}
func (*Lambda) value()             {}
func (*Contract) value()           {}
func (G1) value()                  {}
func (G2) value()                  {}
func (Fr) value()                  {}
func (Chest) value()               {}
func (ChestKey) value()            {}
func (*SaplingTransaction) value() {}

// value constructors
var (
	True  = Bool(true)
	False = Bool(false)
	None  = Option{}
)

// NewInt creates an int.
func NewInt(v int64) Int { return Int{big.NewInt(v)} }

// NewNat creates a nat, v must not be negative.
func NewNat(v int64) Nat { return Nat{big.NewInt(v)} }

// NewTimestamp creates a timestamp.
func NewTimestamp(sec int64) Timestamp { return Timestamp{big.NewInt(sec)} }

// Some wraps v in an option.
func Some(v Value) Option { return Option{V: v} }

// Left creates Left v.
func Left(v Value) Or { return Or{V: v} }

// Right creates Right v.
func Right(v Value) Or { return Or{Right: true, V: v} }

// NewPair creates a right comb of the values, which must be at least two.
func NewPair(vs ...Value) Pair {
	r := vs[len(vs)-1]
	for i := len(vs) - 2; i > 0; i-- {
		r = Pair{vs[i], r}
	}
	return Pair{vs[0], r}
}

// IsNone reports whether the option is empty.
func (o Option) IsNone() bool { return o.V == nil }

// ChainIDFromString decodes the base58 form of a chain id.
func ChainIDFromString(s string) (ChainID, error) {
	var id ChainID
	payload, err := crypto.DecodePrefixed(crypto.PrefixChainID, len(id), s)
	if err != nil {
		return id, err
	}
	copy(id[:], payload)
	return id, nil
}

func (c ChainID) String() string {
	return crypto.EncodePrefixed(crypto.PrefixChainID, c[:])
}

// Compare orders comparable values of the same type.
func Compare(a, b Value) int {
	switch a := a.(type) {
	case Unit:
		return 0
	case Bool:
		b := b.(Bool)
		switch {
		case a == b:
			return 0
		case !bool(a):
			return -1
		}
		return 1
	case Int:
		return a.V.Cmp(b.(Int).V)
	case Nat:
		return a.V.Cmp(b.(Nat).V)
	case Timestamp:
		return a.V.Cmp(b.(Timestamp).V)
	case Mutez:
		return compareInt64(int64(a), int64(b.(Mutez)))
	case String:
		return strings.Compare(string(a), string(b.(String)))
	case Bytes:
		return bytes.Compare(a, b.(Bytes))
	case KeyHash:
		return a.KeyHash.Compare(b.(KeyHash).KeyHash)
	case Key:
		return a.PublicKey.Compare(b.(Key).PublicKey)
	case Signature:
		return bytes.Compare(a, b.(Signature))
	case ChainID:
		b := b.(ChainID)
		return bytes.Compare(a[:], b[:])
	case Address:
		return a.Compare(b.(Address))
	case Pair:
		b := b.(Pair)
		if c := Compare(a.L, b.L); c != 0 {
			return c
		}
		return Compare(a.R, b.R)
	case Or:
		b := b.(Or)
		if a.Right != b.Right {
			if a.Right {
				return 1
			}
			return -1
		}
		return Compare(a.V, b.V)
	case Option:
		b := b.(Option)
		switch {
		case a.V == nil && b.V == nil:
			return 0
		case a.V == nil:
			return -1
		case b.V == nil:
			return 1
		}
		return Compare(a.V, b.V)
	}
	panic("vm: compare on non comparable value")
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// valueComparer orders the keys of sets and maps.
type valueComparer struct{}

func (valueComparer) Compare(a, b Value) int { return Compare(a, b) }

// HasType checks that v is a well formed value of type t.
func HasType(v Value, t *Ty) bool {
	switch t.Kind {
	case TUnit:
		_, ok := v.(Unit)
		return ok
	case TNever:
		return false
	case TBool:
		_, ok := v.(Bool)
		return ok
	case TInt:
		x, ok := v.(Int)
		return ok && x.V != nil
	case TNat:
		x, ok := v.(Nat)
		return ok && x.V != nil && x.V.Sign() >= 0
	case TTimestamp:
		x, ok := v.(Timestamp)
		return ok && x.V != nil
	case TMutez:
		x, ok := v.(Mutez)
		return ok && x >= 0
	case TString:
		_, ok := v.(String)
		return ok
	case TBytes:
		_, ok := v.(Bytes)
		return ok
	case TKeyHash:
		x, ok := v.(KeyHash)
		return ok && x.KeyHash != nil
	case TKey:
		x, ok := v.(Key)
		return ok && x.PublicKey != nil
	case TSignature:
		_, ok := v.(Signature)
		return ok
	case TChainID:
		_, ok := v.(ChainID)
		return ok
	case TAddress:
		_, ok := v.(Address)
		return ok
	case TPair:
		x, ok := v.(Pair)
		return ok && HasType(x.L, t.Args[0]) && HasType(x.R, t.Args[1])
	case TOr:
		x, ok := v.(Or)
		if !ok {
			return false
		}
		if x.Right {
			return HasType(x.V, t.Args[1])
		}
		return HasType(x.V, t.Args[0])
	case TOption:
		x, ok := v.(Option)
		return ok && (x.V == nil || HasType(x.V, t.Args[0]))
	case TList:
		x, ok := v.(*List)
		if !ok {
			return false
		}
		for it := x.head; it != nil; it = it.next {
			if !HasType(it.v, t.Args[0]) {
				return false
			}
		}
		return true
	case TSet:
		x, ok := v.(*Set)
		return ok && x.Elt.Equal(t.Args[0])
	case TMap:
		x, ok := v.(*Map)
		return ok && x.KeyTy.Equal(t.Args[0]) && x.ValueTy.Equal(t.Args[1])
	case TBigMap:
		x, ok := v.(*BigMap)
		return ok && x.KeyTy.Equal(t.Args[0]) && x.ValueTy.Equal(t.Args[1])
	case TTicket:
		x, ok := v.(*Ticket)
		return ok && x.Amount.Sign() >= 0 && HasType(x.Contents, t.Args[0])
	case TLambda:
		x, ok := v.(*Lambda)
		return ok && x.Arg.Equal(t.Args[0]) && x.Ret.Equal(t.Args[1])
	case TContract:
		x, ok := v.(*Contract)
		return ok && x.Arg.Equal(t.Args[0])
	case TOperation:
		_, ok := v.(*Operation)
		return ok
	case TBls12381G1:
		_, ok := v.(G1)
		return ok
	case TBls12381G2:
		_, ok := v.(G2)
		return ok
	case TBls12381Fr:
		_, ok := v.(Fr)
		return ok
	case TChest:
		_, ok := v.(Chest)
		return ok
	case TChestKey:
		_, ok := v.(ChestKey)
		return ok
	case TSaplingState:
		x, ok := v.(*SaplingState)
		return ok && x.MemoSize == t.MemoSize
	case TSaplingTransaction:
		x, ok := v.(*SaplingTransaction)
		return ok && x.MemoSize == t.MemoSize
	}
	return false
}

// SaplingState is a shielded pool. Fresh states have no id; the pending
// outputs and nullifiers are kept in Diff until the state is persisted.
type SaplingState struct {
	ID       *lazystorage.ID
	MemoSize uint16
	Diff     *lazystorage.SaplingUpdates
}

func (*SaplingState) value() {}

// NewSaplingState creates an empty, not yet persisted, sapling state.
func NewSaplingState(memo uint16) *SaplingState {
	return &SaplingState{MemoSize: memo, Diff: &lazystorage.SaplingUpdates{}}
}
