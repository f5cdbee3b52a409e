// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"strings"

	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/pkg/errors"
)

// MaxTypeSize is the maximum number of nodes of a type.
const MaxTypeSize = 2001

// TyKind identifies the constructor of a type.
type TyKind byte

// type constructors
const (
	TUnit TyKind = iota
	TNever
	TBool
	TInt
	TNat
	TString
	TBytes
	TMutez
	TKeyHash
	TKey
	TSignature
	TTimestamp
	TChainID
	TAddress
	TPair
	TOr
	TOption
	TList
	TSet
	TMap
	TBigMap
	TTicket
	TLambda
	TContract
	TOperation
	TBls12381G1
	TBls12381G2
	TBls12381Fr
	TChest
	TChestKey
	TSaplingState
	TSaplingTransaction

	tyKindCount
)

var tyPrims = [tyKindCount]micheline.PrimCode{
	TUnit:               micheline.TUnit,
	TNever:              micheline.TNever,
	TBool:               micheline.TBool,
	TInt:                micheline.TInt,
	TNat:                micheline.TNat,
	TString:             micheline.TString,
	TBytes:              micheline.TBytes,
	TMutez:              micheline.TMutez,
	TKeyHash:            micheline.TKeyHash,
	TKey:                micheline.TKey,
	TSignature:          micheline.TSignature,
	TTimestamp:          micheline.TTimestamp,
	TChainID:            micheline.TChainId,
	TAddress:            micheline.TAddress,
	TPair:               micheline.TPair,
	TOr:                 micheline.TOr,
	TOption:             micheline.TOption,
	TList:               micheline.TList,
	TSet:                micheline.TSet,
	TMap:                micheline.TMap,
	TBigMap:             micheline.TBigMap,
	TTicket:             micheline.TTicket,
	TLambda:             micheline.TLambda,
	TContract:           micheline.TContract,
	TOperation:          micheline.TOperation,
	TBls12381G1:         micheline.TBls12381G1,
	TBls12381G2:         micheline.TBls12381G2,
	TBls12381Fr:         micheline.TBls12381Fr,
	TChest:              micheline.TChest,
	TChestKey:           micheline.TChestKey,
	TSaplingState:       micheline.TSaplingState,
	TSaplingTransaction: micheline.TSaplingTransaction,
}

func (k TyKind) String() string {
	if k >= tyKindCount {
		return "unknown"
	}
	return tyPrims[k].String()
}

// properties of a type and its components
type tyFlags uint8

const (
	hasBigMap tyFlags = 1 << iota
	hasOperation
	hasContract
	hasTicket
	hasSapling
	hasLambda
)

// Ty is a michelson type. Types are immutable once built: the constructors
// compute the size and the properties of the type and reject types larger
// than MaxTypeSize.
type Ty struct {
	Kind TyKind
	// Args are the components: pair and or have two, option, list, set,
	// ticket and contract one, map, big_map and lambda two.
	Args []*Ty
	// Annot is the field annotation, without the leading %.
	Annot    string
	MemoSize uint16

	size  int
	cmp   bool
	flags tyFlags
}

func leaf(k TyKind, cmp bool, flags tyFlags) *Ty {
	return &Ty{Kind: k, size: 1, cmp: cmp, flags: flags}
}

// leaf types
var (
	UnitT       = leaf(TUnit, true, 0)
	NeverT      = leaf(TNever, true, 0)
	BoolT       = leaf(TBool, true, 0)
	IntT        = leaf(TInt, true, 0)
	NatT        = leaf(TNat, true, 0)
	StringT     = leaf(TString, true, 0)
	BytesT      = leaf(TBytes, true, 0)
	MutezT      = leaf(TMutez, true, 0)
	KeyHashT    = leaf(TKeyHash, true, 0)
	KeyT        = leaf(TKey, true, 0)
	SignatureT  = leaf(TSignature, true, 0)
	TimestampT  = leaf(TTimestamp, true, 0)
	ChainIDT    = leaf(TChainID, true, 0)
	AddressT    = leaf(TAddress, true, 0)
	OperationT  = leaf(TOperation, false, hasOperation)
	Bls12381G1T = leaf(TBls12381G1, false, 0)
	Bls12381G2T = leaf(TBls12381G2, false, 0)
	Bls12381FrT = leaf(TBls12381Fr, false, 0)
	ChestT      = leaf(TChest, false, 0)
	ChestKeyT   = leaf(TChestKey, false, 0)
)

func compose(loc Loc, k TyKind, cmp bool, flags tyFlags, args ...*Ty) (*Ty, error) {
	t := &Ty{Kind: k, Args: args, size: 1, cmp: cmp, flags: flags}
	for _, a := range args {
		t.size += a.size
		t.flags |= a.flags
	}
	if t.size > MaxTypeSize {
		return nil, &TypeTooLargeError{Loc: loc, Max: MaxTypeSize}
	}
	return t, nil
}

// NewPairT builds pair l r.
func NewPairT(loc Loc, l, r *Ty) (*Ty, error) {
	return compose(loc, TPair, l.cmp && r.cmp, 0, l, r)
}

// NewOrT builds or l r.
func NewOrT(loc Loc, l, r *Ty) (*Ty, error) {
	return compose(loc, TOr, l.cmp && r.cmp, 0, l, r)
}

// NewOptionT builds option t.
func NewOptionT(loc Loc, t *Ty) (*Ty, error) {
	return compose(loc, TOption, t.cmp, 0, t)
}

// NewListT builds list t.
func NewListT(loc Loc, t *Ty) (*Ty, error) {
	return compose(loc, TList, false, 0, t)
}

// NewSetT builds set t, t must be comparable.
func NewSetT(loc Loc, t *Ty) (*Ty, error) {
	if !t.cmp {
		return nil, errors.Wrapf(ErrNotComparable, "set element %s at %d", t, loc)
	}
	return compose(loc, TSet, false, 0, t)
}

// NewMapT builds map k v, k must be comparable.
func NewMapT(loc Loc, k, v *Ty) (*Ty, error) {
	if !k.cmp {
		return nil, errors.Wrapf(ErrNotComparable, "map key %s at %d", k, loc)
	}
	return compose(loc, TMap, false, 0, k, v)
}

// NewBigMapT builds big_map k v. The values of a big map cannot contain
// operations or other lazy structures.
func NewBigMapT(loc Loc, k, v *Ty) (*Ty, error) {
	if !k.cmp {
		return nil, errors.Wrapf(ErrNotComparable, "big_map key %s at %d", k, loc)
	}
	if v.flags&(hasBigMap|hasOperation|hasSapling|hasContract) != 0 {
		return nil, errors.Wrapf(ErrBigMapNotAllowed, "big_map value %s at %d", v, loc)
	}
	return compose(loc, TBigMap, false, hasBigMap, k, v)
}

// NewTicketT builds ticket t.
func NewTicketT(loc Loc, t *Ty) (*Ty, error) {
	if !t.cmp {
		return nil, errors.Wrapf(ErrBadTicketContent, "ticket %s at %d", t, loc)
	}
	return compose(loc, TTicket, false, hasTicket, t)
}

// NewLambdaT builds lambda arg ret.
func NewLambdaT(loc Loc, arg, ret *Ty) (*Ty, error) {
	return compose(loc, TLambda, false, hasLambda, arg, ret)
}

// NewContractT builds contract arg.
func NewContractT(loc Loc, arg *Ty) (*Ty, error) {
	if arg.flags&hasOperation != 0 {
		return nil, errors.Wrapf(ErrInvalidValueForTy, "contract parameter %s at %d holds operations", arg, loc)
	}
	return compose(loc, TContract, false, hasContract, arg)
}

// maximum sapling memo size
const maxMemoSize = 1<<16 - 1

// NewSaplingStateT builds sapling_state memo.
func NewSaplingStateT(memo int) (*Ty, error) {
	if memo < 0 || memo > maxMemoSize {
		return nil, ErrInvalidMemoSize
	}
	t := leaf(TSaplingState, false, hasSapling)
	t.MemoSize = uint16(memo)
	return t, nil
}

// NewSaplingTransactionT builds sapling_transaction memo.
func NewSaplingTransactionT(memo int) (*Ty, error) {
	if memo < 0 || memo > maxMemoSize {
		return nil, ErrInvalidMemoSize
	}
	t := leaf(TSaplingTransaction, false, 0)
	t.MemoSize = uint16(memo)
	return t, nil
}

// Size returns the number of nodes of the type.
func (t *Ty) Size() int { return t.size }

// Comparable reports whether values of the type can be compared.
func (t *Ty) Comparable() bool { return t.cmp }

// Pushable reports whether constants of the type can be written in code.
func (t *Ty) Pushable() bool {
	return t.flags&(hasBigMap|hasOperation|hasContract|hasTicket|hasSapling) == 0
}

// Packable reports whether values of the type can be serialized by PACK.
func (t *Ty) Packable() bool {
	return t.flags&(hasBigMap|hasOperation|hasTicket|hasSapling) == 0
}

// Storable reports whether the type can be used as a storage type.
func (t *Ty) Storable() bool {
	return t.flags&(hasOperation|hasContract) == 0
}

// Passable reports whether the type can be used as a parameter type.
func (t *Ty) Passable() bool {
	return t.flags&hasOperation == 0
}

// Duplicable reports whether values of the type can be copied by DUP.
func (t *Ty) Duplicable() bool {
	return t.flags&hasTicket == 0
}

// HasLazyStorage reports whether values of the type can hold big maps or
// sapling states.
func (t *Ty) HasLazyStorage() bool {
	return t.flags&(hasBigMap|hasSapling) != 0
}

// WithAnnot returns a copy of t annotated with the field name.
func (t *Ty) WithAnnot(annot string) *Ty {
	cp := *t
	cp.Annot = annot
	return &cp
}

// Equal checks structural equality of two types, ignoring annotations.
func (t *Ty) Equal(o *Ty) bool {
	if t == o {
		return true
	}
	if t.Kind != o.Kind || t.size != o.size || t.MemoSize != o.MemoSize || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// MergeTypes unifies two types describing the same stack slot. Types of
// different sizes are never merged.
func MergeTypes(loc Loc, a, b *Ty) (*Ty, error) {
	if a.size != b.size {
		return nil, &InconsistentTypeSizesError{Loc: loc, A: a.size, B: b.size}
	}
	if !a.Equal(b) {
		return nil, &TypeMismatchError{Loc: loc, A: a, B: b}
	}
	if a.Annot != b.Annot {
		return a.WithAnnot(""), nil
	}
	return a, nil
}

// Node returns the micheline form of the type.
func (t *Ty) Node() micheline.Node {
	p := micheline.NewPrim(tyPrims[t.Kind])
	switch t.Kind {
	case TSaplingState, TSaplingTransaction:
		p.Args = []micheline.Node{micheline.NewInt(int64(t.MemoSize))}
	default:
		for _, a := range t.Args {
			p.Args = append(p.Args, a.Node())
		}
	}
	if t.Annot != "" {
		p.Annots = []string{"%" + t.Annot}
	}
	return p
}

func (t *Ty) String() string {
	if t == nil {
		return "<nil>"
	}
	return micheline.Format(t.Node())
}

var primTys = func() map[micheline.PrimCode]TyKind {
	m := make(map[micheline.PrimCode]TyKind, tyKindCount)
	for k, p := range tyPrims {
		m[p] = TyKind(k)
	}
	return m
}()

var leafTys = [tyKindCount]*Ty{
	TUnit: UnitT, TNever: NeverT, TBool: BoolT, TInt: IntT, TNat: NatT,
	TString: StringT, TBytes: BytesT, TMutez: MutezT, TKeyHash: KeyHashT,
	TKey: KeyT, TSignature: SignatureT, TTimestamp: TimestampT,
	TChainID: ChainIDT, TAddress: AddressT, TOperation: OperationT,
	TBls12381G1: Bls12381G1T, TBls12381G2: Bls12381G2T, TBls12381Fr: Bls12381FrT,
	TChest: ChestT, TChestKey: ChestKeyT,
}

// ParseTy reads a type from its micheline form. Pairs with more than two
// arguments are right combs.
func ParseTy(n micheline.Node) (*Ty, error) {
	p, ok := n.(*micheline.Prim)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidData, "type expected, got %s", micheline.Format(n))
	}
	kind, ok := primTys[p.Prim]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidData, "unknown type %s", p.Prim)
	}
	args := make([]*Ty, len(p.Args))
	if kind != TSaplingState && kind != TSaplingTransaction {
		for i, a := range p.Args {
			t, err := ParseTy(a)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
	}
	arity := func(n int) error {
		if len(args) != n {
			return errors.Wrapf(ErrInvalidData, "%s takes %d arguments", kind, n)
		}
		return nil
	}
	var t *Ty
	var err error
	switch kind {
	case TPair:
		if len(args) < 2 {
			return nil, errors.Wrap(ErrInvalidData, "pair takes at least 2 arguments")
		}
		t = args[len(args)-1]
		for i := len(args) - 2; i >= 0 && err == nil; i-- {
			t, err = NewPairT(0, args[i], t)
		}
	case TOr, TMap, TBigMap, TLambda:
		if err = arity(2); err != nil {
			return nil, err
		}
		switch kind {
		case TOr:
			t, err = NewOrT(0, args[0], args[1])
		case TMap:
			t, err = NewMapT(0, args[0], args[1])
		case TBigMap:
			t, err = NewBigMapT(0, args[0], args[1])
		default:
			t, err = NewLambdaT(0, args[0], args[1])
		}
	case TOption, TList, TSet, TTicket, TContract:
		if err = arity(1); err != nil {
			return nil, err
		}
		switch kind {
		case TOption:
			t, err = NewOptionT(0, args[0])
		case TList:
			t, err = NewListT(0, args[0])
		case TSet:
			t, err = NewSetT(0, args[0])
		case TTicket:
			t, err = NewTicketT(0, args[0])
		default:
			t, err = NewContractT(0, args[0])
		}
	case TSaplingState, TSaplingTransaction:
		if len(p.Args) != 1 {
			return nil, errors.Wrapf(ErrInvalidData, "%s takes a memo size", kind)
		}
		memo, ok := p.Args[0].(micheline.Int)
		if !ok || !memo.V.IsInt64() {
			return nil, ErrInvalidMemoSize
		}
		if kind == TSaplingState {
			t, err = NewSaplingStateT(int(memo.V.Int64()))
		} else {
			t, err = NewSaplingTransactionT(int(memo.V.Int64()))
		}
	default:
		if err = arity(0); err != nil {
			return nil, err
		}
		t = leafTys[kind]
	}
	if err != nil {
		return nil, err
	}
	for _, a := range p.Annots {
		if strings.HasPrefix(a, "%") {
			return t.WithAnnot(a[1:]), nil
		}
	}
	return t, nil
}

// StackTy is the type of a stack, top first.
type StackTy []*Ty

func (s StackTy) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return "[ " + strings.Join(parts, " : ") + " ]"
}

// Equal checks that two stack types have the same length and slot types.
func (s StackTy) Equal(o StackTy) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
