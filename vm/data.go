// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"
	"time"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/pkg/errors"
)

// UnparseMode selects the representation of values with two forms.
type UnparseMode int

// unparsing modes
const (
	// Optimized writes keys, addresses and timestamps in binary form, as PACK does.
	Optimized UnparseMode = iota
	// Readable writes them as base58 and RFC3339 strings.
	Readable
)

var (
	unitNode  = micheline.NewPrim(micheline.DUnit)
	trueNode  = micheline.NewPrim(micheline.DTrue)
	falseNode = micheline.NewPrim(micheline.DFalse)
	noneNode  = micheline.NewPrim(micheline.DNone)
)

// Unparse returns the micheline form of v.
func Unparse(v Value, mode UnparseMode) micheline.Node {
	readable := mode == Readable
	switch v := v.(type) {
	case Unit:
		return unitNode
	case Bool:
		if v {
			return trueNode
		}
		return falseNode
	case Int:
		return micheline.Int{V: v.V}
	case Nat:
		return micheline.Int{V: v.V}
	case Timestamp:
		if readable && v.V.IsInt64() {
			if t := time.Unix(v.V.Int64(), 0).UTC(); t.Year() >= 0 && t.Year() <= 9999 {
				return micheline.String{V: t.Format(time.RFC3339)}
			}
		}
		return micheline.Int{V: v.V}
	case Mutez:
		return micheline.NewInt(int64(v))
	case String:
		return micheline.String{V: string(v)}
	case Bytes:
		return micheline.Bytes{V: v}
	case KeyHash:
		if readable {
			return micheline.String{V: v.String()}
		}
		return micheline.Bytes{V: v.Serialize()}
	case Key:
		if readable {
			return micheline.String{V: v.String()}
		}
		return micheline.Bytes{V: v.Serialize()}
	case Signature:
		if readable {
			return micheline.String{V: crypto.Signature(v).String()}
		}
		return micheline.Bytes{V: v}
	case ChainID:
		if readable {
			return micheline.String{V: v.String()}
		}
		return micheline.Bytes{V: v[:]}
	case Address:
		if readable {
			return micheline.String{V: v.String()}
		}
		return micheline.Bytes{V: v.Bytes()}
	case Pair:
		return micheline.NewPrim(micheline.DPair, Unparse(v.L, mode), Unparse(v.R, mode))
	case Or:
		if v.Right {
			return micheline.NewPrim(micheline.DRight, Unparse(v.V, mode))
		}
		return micheline.NewPrim(micheline.DLeft, Unparse(v.V, mode))
	case Option:
		if v.V == nil {
			return noneNode
		}
		return micheline.NewPrim(micheline.DSome, Unparse(v.V, mode))
	case *List:
		seq := micheline.Seq{}
		for c := v.head; c != nil; c = c.next {
			seq = append(seq, Unparse(c.v, mode))
		}
		return seq
	case *Set:
		seq := micheline.Seq{}
		for _, e := range v.Items() {
			seq = append(seq, Unparse(e, mode))
		}
		return seq
	case *Map:
		seq := micheline.Seq{}
		for _, e := range v.Items() {
			seq = append(seq, micheline.NewPrim(micheline.DElt, Unparse(e.Key, mode), Unparse(e.Value, mode)))
		}
		return seq
	case *BigMap:
		if v.ID != nil {
			return micheline.NewInt(int64(*v.ID))
		}
		seq := micheline.Seq{}
		for _, e := range v.Overlay() {
			if e.Value != nil {
				seq = append(seq, micheline.NewPrim(micheline.DElt, Unparse(e.Key, mode), Unparse(e.Value, mode)))
			}
		}
		return seq
	case *Ticket:
		return micheline.NewPrim(micheline.DPair, Unparse(v.Ticketer, mode),
			micheline.NewPrim(micheline.DPair, Unparse(v.Contents, mode), micheline.Int{V: v.Amount}))
	case *Lambda:
		if v.Rec {
			return micheline.NewPrim(micheline.DLambdaRec, v.Node)
		}
		return v.Node
	case *Contract:
		return Unparse(v.Address, mode)
	case *Operation:
		return micheline.String{V: v.String()}
	case G1:
		return micheline.Bytes{V: v.Bytes()}
	case G2:
		return micheline.Bytes{V: v.Bytes()}
	case Fr:
		return micheline.Bytes{V: v.Bytes()}
	case Chest:
		return micheline.Bytes{V: v.Bytes()}
	case ChestKey:
		return micheline.Bytes{V: v.Bytes()}
	case *SaplingState:
		if v.ID != nil {
			return micheline.NewInt(int64(*v.ID))
		}
		return micheline.Seq{}
	case *SaplingTransaction:
		return micheline.Bytes{V: v.Data}
	}
	return nil
}

// dataParser reads values from their micheline form.
type dataParser struct {
	ctxt *state.Context
	env  *Env
	// lazy allows big maps and sapling states given by id.
	lazy bool
	// tickets allows forging tickets, only for trusted inputs.
	tickets bool
}

func invalid(t *Ty, n micheline.Node) error {
	return errors.Wrapf(ErrInvalidData, "%s is not a %s", micheline.Format(n), t)
}

func (p *dataParser) parse(t *Ty, n micheline.Node) (Value, error) {
	switch t.Kind {
	case TUnit:
		if prim, ok := n.(*micheline.Prim); ok && prim.Prim == micheline.DUnit && len(prim.Args) == 0 {
			return Unit{}, nil
		}
	case TBool:
		if prim, ok := n.(*micheline.Prim); ok && len(prim.Args) == 0 {
			switch prim.Prim {
			case micheline.DTrue:
				return True, nil
			case micheline.DFalse:
				return False, nil
			}
		}
	case TInt:
		if x, ok := n.(micheline.Int); ok {
			return Int{x.V}, nil
		}
	case TNat:
		if x, ok := n.(micheline.Int); ok && x.V.Sign() >= 0 {
			return Nat{x.V}, nil
		}
	case TMutez:
		if x, ok := n.(micheline.Int); ok && x.V.Sign() >= 0 && x.V.IsInt64() {
			return Mutez(x.V.Int64()), nil
		}
	case TTimestamp:
		switch x := n.(type) {
		case micheline.Int:
			return Timestamp{x.V}, nil
		case micheline.String:
			if ts, err := time.Parse(time.RFC3339, x.V); err == nil {
				return NewTimestamp(ts.Unix()), nil
			}
		}
	case TString:
		if x, ok := n.(micheline.String); ok && printable(x.V) {
			return String(x.V), nil
		}
	case TBytes:
		if x, ok := n.(micheline.Bytes); ok {
			return Bytes(x.V), nil
		}
	case TKeyHash:
		switch x := n.(type) {
		case micheline.Bytes:
			if h, err := crypto.ParseKeyHash(x.V); err == nil {
				return KeyHash{h}, nil
			}
		case micheline.String:
			if h, err := crypto.ParseKeyHashString(x.V); err == nil {
				return KeyHash{h}, nil
			}
		}
	case TKey:
		switch x := n.(type) {
		case micheline.Bytes:
			if k, size, err := crypto.ParsePublicKey(x.V); err == nil && size == len(x.V) {
				return Key{k}, nil
			}
		case micheline.String:
			if k, err := crypto.ParsePublicKeyString(x.V); err == nil {
				return Key{k}, nil
			}
		}
	case TSignature:
		switch x := n.(type) {
		case micheline.Bytes:
			if s, err := crypto.ParseSignature(x.V); err == nil {
				return Signature(s), nil
			}
		case micheline.String:
			if s, err := crypto.ParseSignatureString(x.V); err == nil {
				return Signature(s), nil
			}
		}
	case TChainID:
		switch x := n.(type) {
		case micheline.Bytes:
			var id ChainID
			if len(x.V) == len(id) {
				copy(id[:], x.V)
				return id, nil
			}
		case micheline.String:
			if id, err := ChainIDFromString(x.V); err == nil {
				return id, nil
			}
		}
	case TAddress:
		return p.address(t, n)
	case TPair:
		l, r, ok := splitPair(n)
		if !ok {
			break
		}
		lv, err := p.parse(t.Args[0], l)
		if err != nil {
			return nil, err
		}
		rv, err := p.parse(t.Args[1], r)
		if err != nil {
			return nil, err
		}
		return Pair{lv, rv}, nil
	case TOr:
		prim, ok := n.(*micheline.Prim)
		if !ok || len(prim.Args) != 1 || (prim.Prim != micheline.DLeft && prim.Prim != micheline.DRight) {
			break
		}
		right := prim.Prim == micheline.DRight
		arg := t.Args[0]
		if right {
			arg = t.Args[1]
		}
		v, err := p.parse(arg, prim.Args[0])
		if err != nil {
			return nil, err
		}
		return Or{Right: right, V: v}, nil
	case TOption:
		prim, ok := n.(*micheline.Prim)
		if !ok {
			break
		}
		if prim.Prim == micheline.DNone && len(prim.Args) == 0 {
			return None, nil
		}
		if prim.Prim == micheline.DSome && len(prim.Args) == 1 {
			v, err := p.parse(t.Args[0], prim.Args[0])
			if err != nil {
				return nil, err
			}
			return Some(v), nil
		}
	case TList:
		seq, ok := n.(micheline.Seq)
		if !ok {
			break
		}
		vs := make([]Value, len(seq))
		for i, item := range seq {
			v, err := p.parse(t.Args[0], item)
			if err != nil {
				return nil, err
			}
			vs[i] = v
		}
		return NewList(vs...), nil
	case TSet:
		seq, ok := n.(micheline.Seq)
		if !ok {
			break
		}
		s := NewSet(t.Args[0])
		var prev Value
		for _, item := range seq {
			v, err := p.parse(t.Args[0], item)
			if err != nil {
				return nil, err
			}
			if prev != nil && Compare(prev, v) >= 0 {
				return nil, errors.Wrap(ErrInvalidData, "set elements must be in strictly increasing order")
			}
			s, prev = s.Update(v, true), v
		}
		return s, nil
	case TMap:
		entries, err := p.entries(t.Args[0], t.Args[1], n)
		if err != nil {
			return nil, err
		}
		m := NewMap(t.Args[0], t.Args[1])
		for _, e := range entries {
			m = m.Update(e.Key, e.Value)
		}
		return m, nil
	case TBigMap:
		return p.bigMap(t, n)
	case TTicket:
		if !p.tickets {
			return nil, errors.Wrap(ErrInvalidData, "tickets cannot be forged")
		}
		addr, rest, ok := splitPair(n)
		if !ok {
			break
		}
		contents, amount, ok := splitPair(rest)
		if !ok {
			break
		}
		ticketer, err := p.parse(AddressT, addr)
		if err != nil {
			return nil, err
		}
		cv, err := p.parse(t.Args[0], contents)
		if err != nil {
			return nil, err
		}
		av, err := p.parse(NatT, amount)
		if err != nil {
			return nil, err
		}
		return &Ticket{Ticketer: ticketer.(Address), Contents: cv, Amount: av.(Nat).V}, nil
	case TLambda:
		return p.lambda(t, n)
	case TContract:
		av, err := p.address(AddressT, n)
		if err != nil {
			return nil, err
		}
		return p.contract(t.Args[0], av.(Address))
	case TBls12381G1:
		if x, ok := n.(micheline.Bytes); ok {
			if g, err := crypto.ParseG1(x.V); err == nil {
				return G1{g}, nil
			}
		}
	case TBls12381G2:
		if x, ok := n.(micheline.Bytes); ok {
			if g, err := crypto.ParseG2(x.V); err == nil {
				return G2{g}, nil
			}
		}
	case TBls12381Fr:
		switch x := n.(type) {
		case micheline.Bytes:
			if f, err := crypto.ParseFr(x.V); err == nil {
				return Fr{f}, nil
			}
		case micheline.Int:
			return Fr{crypto.FrFromBig(x.V)}, nil
		}
	case TChest:
		if x, ok := n.(micheline.Bytes); ok {
			if c, err := crypto.ParseChest(x.V); err == nil {
				return Chest{c}, nil
			}
		}
	case TChestKey:
		if x, ok := n.(micheline.Bytes); ok {
			if k, err := crypto.ParseChestKey(x.V); err == nil {
				return ChestKey{k}, nil
			}
		}
	case TSaplingState:
		return p.saplingState(t, n)
	case TSaplingTransaction:
		if x, ok := n.(micheline.Bytes); ok {
			return &SaplingTransaction{MemoSize: t.MemoSize, Data: x.V}, nil
		}
	}
	return nil, invalid(t, n)
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < ' ' || c > '~') && c != '\n' {
			return false
		}
	}
	return true
}

// splitPair reads Pair a b, Pair a b c... or a sequence of at least two
// values as a right comb.
func splitPair(n micheline.Node) (micheline.Node, micheline.Node, bool) {
	var items []micheline.Node
	switch x := n.(type) {
	case *micheline.Prim:
		if x.Prim != micheline.DPair {
			return nil, nil, false
		}
		items = x.Args
	case micheline.Seq:
		items = x
	}
	switch {
	case len(items) < 2:
		return nil, nil, false
	case len(items) == 2:
		return items[0], items[1], true
	}
	return items[0], micheline.NewPrim(micheline.DPair, items[1:]...), true
}

func (p *dataParser) address(t *Ty, n micheline.Node) (Value, error) {
	switch x := n.(type) {
	case micheline.Bytes:
		if a, err := ParseAddressBytes(x.V); err == nil {
			return a, nil
		}
	case micheline.String:
		if a, err := ParseAddressString(x.V); err == nil {
			return a, nil
		}
	}
	return nil, invalid(t, n)
}

func (p *dataParser) entries(kt, vt *Ty, n micheline.Node) ([]MapEntry, error) {
	seq, ok := n.(micheline.Seq)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidData, "%s is not a sequence of Elt", micheline.Format(n))
	}
	entries := make([]MapEntry, 0, len(seq))
	for _, item := range seq {
		elt, ok := item.(*micheline.Prim)
		if !ok || elt.Prim != micheline.DElt || len(elt.Args) != 2 {
			return nil, errors.Wrapf(ErrInvalidData, "%s is not an Elt", micheline.Format(item))
		}
		k, err := p.parse(kt, elt.Args[0])
		if err != nil {
			return nil, err
		}
		v, err := p.parse(vt, elt.Args[1])
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 && Compare(entries[len(entries)-1].Key, k) >= 0 {
			return nil, errors.Wrap(ErrInvalidData, "map keys must be in strictly increasing order")
		}
		entries = append(entries, MapEntry{k, v})
	}
	return entries, nil
}

func (p *dataParser) bigMap(t *Ty, n micheline.Node) (Value, error) {
	if x, ok := n.(micheline.Int); ok {
		if !p.lazy || !x.V.IsInt64() {
			return nil, invalid(t, n)
		}
		id := lazystorage.ID(x.V.Int64())
		if err := p.checkBigMapTypes(id, t); err != nil {
			return nil, err
		}
		return StoredBigMap(id, t.Args[0], t.Args[1]), nil
	}
	entries, err := p.entries(t.Args[0], t.Args[1], n)
	if err != nil {
		return nil, err
	}
	b := NewBigMap(t.Args[0], t.Args[1])
	for _, e := range entries {
		b = b.update(BigMapEntry{KeyHash: bigMapKeyHash(e.Key), Key: e.Key, Value: e.Value})
	}
	return b, nil
}

func (p *dataParser) checkBigMapTypes(id lazystorage.ID, t *Ty) error {
	if p.ctxt == nil {
		return errors.Wrapf(ErrBigMapNotFound, "big map %s", id)
	}
	kn, vn, err := lazystorage.BigMapTypes(p.ctxt, id)
	if err != nil {
		return errors.Wrapf(ErrBigMapNotFound, "big map %s: %v", id, err)
	}
	kt, err := ParseTy(kn)
	if err != nil {
		return err
	}
	vt, err := ParseTy(vn)
	if err != nil {
		return err
	}
	if !kt.Equal(t.Args[0]) || !vt.Equal(t.Args[1]) {
		return &TypeMismatchError{A: t, B: &Ty{Kind: TBigMap, Args: []*Ty{kt, vt}}}
	}
	return nil
}

func (p *dataParser) lambda(t *Ty, n micheline.Node) (Value, error) {
	rec := false
	if prim, ok := n.(*micheline.Prim); ok && prim.Prim == micheline.DLambdaRec && len(prim.Args) == 1 {
		rec, n = true, prim.Args[0]
	}
	if _, ok := n.(micheline.Seq); !ok {
		return nil, invalid(t, n)
	}
	if p.env == nil || p.env.Parser == nil {
		return nil, ErrNoCodeParser
	}
	return p.env.Parser.ParseLambda(t.Args[0], t.Args[1], n, rec)
}

func (p *dataParser) contract(arg *Ty, a Address) (Value, error) {
	if a.IsImplicit() {
		if a.Entrypoint != "" || !arg.Equal(UnitT) {
			return nil, errors.Wrapf(ErrInvalidData, "implicit account %s only accepts unit", a)
		}
		return &Contract{Arg: UnitT, Address: a}, nil
	}
	if p.env == nil || p.env.Chain == nil {
		return nil, ErrNoChain
	}
	ty, ok, err := p.env.Chain.EntrypointType(a)
	if err != nil {
		return nil, err
	}
	if !ok || !ty.Equal(arg) {
		return nil, errors.Wrapf(ErrInvalidData, "%s has no entrypoint of type %s", a, arg)
	}
	return &Contract{Arg: arg, Address: a}, nil
}

func (p *dataParser) saplingState(t *Ty, n micheline.Node) (Value, error) {
	switch x := n.(type) {
	case micheline.Int:
		if !p.lazy || !x.V.IsInt64() || p.ctxt == nil {
			break
		}
		id := lazystorage.ID(x.V.Int64())
		memo, err := lazystorage.SaplingMemoSize(p.ctxt, id)
		if err != nil {
			return nil, errors.Wrapf(err, "sapling state %s", id)
		}
		if memo != t.MemoSize {
			return nil, invalid(t, n)
		}
		s := NewSaplingState(memo)
		s.ID = &id
		return s, nil
	case micheline.Seq:
		if len(x) == 0 {
			return NewSaplingState(t.MemoSize), nil
		}
	}
	return nil, invalid(t, n)
}

// ParseData reads a value of type t without access to the chain. Big maps
// given by id and lambdas are rejected.
func ParseData(t *Ty, n micheline.Node) (Value, error) {
	return (&dataParser{}).parse(t, n)
}

// ParseStorage reads a stored value of type t: big maps and sapling states
// may be given by id and are checked against ctxt.
func ParseStorage(ctxt *state.Context, env *Env, t *Ty, n micheline.Node) (Value, error) {
	return (&dataParser{ctxt: ctxt, env: env, lazy: true, tickets: true}).parse(t, n)
}

// natOf returns the int64 value of a nat if it fits.
func natOf(n *big.Int) (int64, bool) {
	if n.Sign() < 0 || !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}
