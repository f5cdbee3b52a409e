// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/pkg/errors"
)

// overload resolves an overloaded primitive on the kinds of the two top
// slots.
type overload struct {
	a, b TyKind
	op   OpCode
	out  *Ty
}

func (b *Builder) binary(prim OpCode, table []overload) *Builder {
	if !b.need(prim, 2) {
		return b
	}
	for _, o := range table {
		if b.stack[0].Kind == o.a && b.stack[1].Kind == o.b {
			return b.simple(o.op, 2, o.out)
		}
	}
	return b.fail(prim, errors.Wrapf(ErrBadStackItem, "%s undefined on %s and %s", prim.Prim(), b.stack[0], b.stack[1]))
}

func (b *Builder) unary(prim OpCode, table []overload) *Builder {
	if !b.need(prim, 1) {
		return b
	}
	for _, o := range table {
		if b.stack[0].Kind == o.a {
			return b.simple(o.op, 1, o.out)
		}
	}
	return b.fail(prim, errors.Wrapf(ErrBadStackItem, "%s undefined on %s", prim.Prim(), b.stack[0]))
}

var addTable = []overload{
	{TInt, TInt, OpAddInt, IntT}, {TInt, TNat, OpAddInt, IntT}, {TNat, TInt, OpAddInt, IntT},
	{TNat, TNat, OpAddNat, NatT},
	{TTimestamp, TInt, OpAddTimestampToSeconds, TimestampT}, {TInt, TTimestamp, OpAddSecondsToTimestamp, TimestampT},
	{TMutez, TMutez, OpAddTez, MutezT},
	{TBls12381G1, TBls12381G1, OpAddG1, Bls12381G1T}, {TBls12381G2, TBls12381G2, OpAddG2, Bls12381G2T},
	{TBls12381Fr, TBls12381Fr, OpAddFr, Bls12381FrT},
}

// Add adds the two top values.
func (b *Builder) Add() *Builder { return b.binary(OpAddInt, addTable) }

var subTable = []overload{
	{TInt, TInt, OpSubInt, IntT}, {TInt, TNat, OpSubInt, IntT}, {TNat, TInt, OpSubInt, IntT},
	{TNat, TNat, OpSubInt, IntT},
	{TTimestamp, TInt, OpSubTimestampSeconds, TimestampT}, {TTimestamp, TTimestamp, OpDiffTimestamps, IntT},
	{TMutez, TMutez, OpSubTezLegacy, MutezT},
}

// Sub subtracts the second value from the top one.
func (b *Builder) Sub() *Builder { return b.binary(OpSubInt, subTable) }

// SubMutez subtracts mutez, None on underflow.
func (b *Builder) SubMutez() *Builder {
	if !b.kinds(OpSubTez, TMutez, TMutez) {
		return b
	}
	t, _ := NewOptionT(*b.loc, MutezT)
	return b.simple(OpSubTez, 2, t)
}

var mulTable = []overload{
	{TInt, TInt, OpMulInt, IntT}, {TInt, TNat, OpMulInt, IntT}, {TNat, TInt, OpMulInt, IntT},
	{TNat, TNat, OpMulNat, NatT},
	{TMutez, TNat, OpMulTezNat, MutezT}, {TNat, TMutez, OpMulNatTez, MutezT},
	{TBls12381G1, TBls12381Fr, OpMulG1, Bls12381G1T}, {TBls12381G2, TBls12381Fr, OpMulG2, Bls12381G2T},
	{TBls12381Fr, TBls12381Fr, OpMulFr, Bls12381FrT},
	{TNat, TBls12381Fr, OpMulZFr, Bls12381FrT}, {TInt, TBls12381Fr, OpMulZFr, Bls12381FrT},
	{TBls12381Fr, TNat, OpMulFrZ, Bls12381FrT}, {TBls12381Fr, TInt, OpMulFrZ, Bls12381FrT},
}

// Mul multiplies the two top values.
func (b *Builder) Mul() *Builder { return b.binary(OpMulInt, mulTable) }

func ediv(q, r *Ty) *Ty {
	p, _ := NewPairT(0, q, r)
	t, _ := NewOptionT(0, p)
	return t
}

var edivTable = []overload{
	{TInt, TInt, OpEdivInt, ediv(IntT, NatT)}, {TInt, TNat, OpEdivInt, ediv(IntT, NatT)},
	{TNat, TInt, OpEdivInt, ediv(IntT, NatT)}, {TNat, TNat, OpEdivNat, ediv(NatT, NatT)},
	{TMutez, TNat, OpEdivTezNat, ediv(MutezT, MutezT)}, {TMutez, TMutez, OpEdivTez, ediv(NatT, MutezT)},
}

// Ediv divides the top value by the second one, None on division by zero.
func (b *Builder) Ediv() *Builder { return b.binary(OpEdivInt, edivTable) }

// Abs returns the absolute value of an int.
func (b *Builder) Abs() *Builder {
	return b.unary(OpAbsInt, []overload{{a: TInt, op: OpAbsInt, out: NatT}})
}

// IsNat converts a non negative int to nat.
func (b *Builder) IsNat() *Builder {
	t, _ := NewOptionT(0, NatT)
	return b.unary(OpIsNat, []overload{{a: TInt, op: OpIsNat, out: t}})
}

var negTable = []overload{
	{a: TInt, op: OpNeg, out: IntT}, {a: TNat, op: OpNeg, out: IntT},
	{a: TBls12381G1, op: OpNegG1, out: Bls12381G1T}, {a: TBls12381G2, op: OpNegG2, out: Bls12381G2T},
	{a: TBls12381Fr, op: OpNegFr, out: Bls12381FrT},
}

// Neg negates the top value.
func (b *Builder) Neg() *Builder { return b.unary(OpNeg, negTable) }

var intTable = []overload{
	{a: TNat, op: OpIntNat, out: IntT}, {a: TBytes, op: OpBytesInt, out: IntT},
	{a: TBls12381Fr, op: OpIntFr, out: IntT},
}

// Int converts a nat, bytes or scalar to int.
func (b *Builder) Int() *Builder { return b.unary(OpIntNat, intTable) }

// Nat converts bytes to nat, big endian.
func (b *Builder) Nat() *Builder {
	return b.unary(OpBytesNat, []overload{{a: TBytes, op: OpBytesNat, out: NatT}})
}

// Bytes converts an int or a nat to bytes, big endian.
func (b *Builder) Bytes() *Builder {
	return b.unary(OpNatBytes, []overload{{a: TNat, op: OpNatBytes, out: BytesT}, {a: TInt, op: OpIntBytes, out: BytesT}})
}

// Lsl shifts a nat left.
func (b *Builder) Lsl() *Builder {
	return b.binary(OpLslNat, []overload{{TNat, TNat, OpLslNat, NatT}})
}

// Lsr shifts a nat right.
func (b *Builder) Lsr() *Builder {
	return b.binary(OpLsrNat, []overload{{TNat, TNat, OpLsrNat, NatT}})
}

// Or is the boolean or bitwise or.
func (b *Builder) Or() *Builder {
	return b.binary(OpOr, []overload{{TBool, TBool, OpOr, BoolT}, {TNat, TNat, OpOrNat, NatT}})
}

// And is the boolean or bitwise and.
func (b *Builder) And() *Builder {
	return b.binary(OpAnd, []overload{{TBool, TBool, OpAnd, BoolT}, {TNat, TNat, OpAndNat, NatT}, {TInt, TNat, OpAndIntNat, NatT}})
}

// Xor is the boolean or bitwise exclusive or.
func (b *Builder) Xor() *Builder {
	return b.binary(OpXor, []overload{{TBool, TBool, OpXor, BoolT}, {TNat, TNat, OpXorNat, NatT}})
}

// Not is the boolean negation or the bitwise complement.
func (b *Builder) Not() *Builder {
	return b.unary(OpNot, []overload{{a: TBool, op: OpNot, out: BoolT}, {a: TInt, op: OpNotInt, out: IntT}, {a: TNat, op: OpNotInt, out: IntT}})
}

// Concat concatenates two strings or bytes, or a list of them.
func (b *Builder) Concat() *Builder {
	if !b.need(OpConcatString, 1) {
		return b
	}
	if t := b.stack[0]; t.Kind == TList {
		switch t.Args[0].Kind {
		case TString:
			return b.simple(OpConcatString, 1, StringT)
		case TBytes:
			return b.simple(OpConcatBytes, 1, BytesT)
		}
	}
	return b.binary(OpConcatStringPair, []overload{
		{TString, TString, OpConcatStringPair, StringT}, {TBytes, TBytes, OpConcatBytesPair, BytesT},
	})
}

// Slice extracts a substring, None when out of bounds.
func (b *Builder) Slice() *Builder {
	if !b.kinds(OpSliceString, TNat, TNat) || !b.need(OpSliceString, 3) {
		return b
	}
	switch b.stack[2].Kind {
	case TString:
		t, _ := NewOptionT(0, StringT)
		return b.simple(OpSliceString, 3, t)
	case TBytes:
		t, _ := NewOptionT(0, BytesT)
		return b.simple(OpSliceBytes, 3, t)
	}
	return b.fail(OpSliceString, errors.Wrapf(ErrBadStackItem, "cannot slice %s", b.stack[2]))
}

// Address takes the address of a contract.
func (b *Builder) Address() *Builder {
	if !b.kinds(OpAddress, TContract) {
		return b
	}
	return b.simple(OpAddress, 1, AddressT)
}

// Contract looks up the entrypoint of type t at the top address.
func (b *Builder) Contract(t *Ty, entrypoint string) *Builder {
	if !b.kinds(OpContract, TAddress) {
		return b
	}
	if len(entrypoint) > maxEntrypointSize {
		return b.fail(OpContract, ErrEntrypointTooLong)
	}
	ct, err := NewContractT(*b.loc, t)
	if err != nil {
		return b.fail(OpContract, err)
	}
	ot, err := NewOptionT(*b.loc, ct)
	if err != nil {
		return b.fail(OpContract, err)
	}
	node := micheline.NewPrim(micheline.IContract, t.Node())
	if entrypoint != "" && entrypoint != defaultEntrypoint {
		node.Annots = []string{"%" + entrypoint}
	} else {
		entrypoint = ""
	}
	return b.emit(&Instr{Op: OpContract, Ty: t, Str: entrypoint}, node, 1, ot)
}

// View calls the named view of the contract at the address below the
// input, None if the view does not exist or has another type.
func (b *Builder) View(name string, ret *Ty) *Builder {
	if !b.need(OpView, 2) {
		return b
	}
	if b.stack[1].Kind != TAddress {
		return b.fail(OpView, errors.Wrapf(ErrBadStackItem, "%s is not an address", b.stack[1]))
	}
	if name == "" || len(name) > maxEntrypointSize {
		return b.fail(OpView, errors.Wrap(ErrBadViewName, name))
	}
	ot, err := NewOptionT(*b.loc, ret)
	if err != nil {
		return b.fail(OpView, err)
	}
	return b.emit(&Instr{Op: OpView, Str: name, Ty: b.stack[0], Ty2: ret},
		micheline.NewPrim(micheline.IView, micheline.String{V: name}, ret.Node()), 2, ot)
}

// TransferTokens emits a transfer of the parameter and amount to a contract.
func (b *Builder) TransferTokens() *Builder {
	if !b.need(OpTransferTokens, 3) {
		return b
	}
	if b.stack[1].Kind != TMutez || b.stack[2].Kind != TContract || !b.stack[2].Args[0].Equal(b.stack[0]) {
		return b.fail(OpTransferTokens, errors.Wrapf(ErrBadStackItem, "cannot transfer %s to %s", b.stack[0], b.stack[2]))
	}
	return b.simple(OpTransferTokens, 3, OperationT)
}

// ImplicitAccount returns the contract of an implicit account.
func (b *Builder) ImplicitAccount() *Builder {
	if !b.kinds(OpImplicitAccount, TKeyHash) {
		return b
	}
	t, _ := NewContractT(0, UnitT)
	return b.simple(OpImplicitAccount, 1, t)
}

// CreateContract emits the origination of script.
func (b *Builder) CreateContract(script *Script) *Builder {
	if !b.need(OpCreateContract, 3) {
		return b
	}
	d := b.stack[0]
	if d.Kind != TOption || d.Args[0].Kind != TKeyHash || b.stack[1].Kind != TMutez || !b.stack[2].Equal(script.Storage) {
		return b.fail(OpCreateContract, errors.Wrapf(ErrBadStackItem, "cannot originate from %s", b.stack[:3]))
	}
	return b.emit(&Instr{Op: OpCreateContract, Script: script},
		micheline.NewPrim(micheline.ICreateContract, script.Node()), 3, OperationT, AddressT)
}

// SetDelegate emits a delegation.
func (b *Builder) SetDelegate() *Builder {
	if !b.kinds(OpSetDelegate, TOption) || b.stack[0].Args[0].Kind != TKeyHash {
		return b.fail(OpSetDelegate, ErrBadStackItem)
	}
	return b.simple(OpSetDelegate, 1, OperationT)
}

func (b *Builder) constant(op OpCode, t *Ty) *Builder {
	if !b.need(op, 0) {
		return b
	}
	return b.simple(op, 0, t)
}

// Now pushes the timestamp of the block.
func (b *Builder) Now() *Builder { return b.constant(OpNow, TimestampT) }

// MinBlockTime pushes the minimal block delay.
func (b *Builder) MinBlockTime() *Builder { return b.constant(OpMinBlockTime, NatT) }

// Balance pushes the balance of the contract.
func (b *Builder) Balance() *Builder { return b.constant(OpBalance, MutezT) }

// Level pushes the level of the block.
func (b *Builder) Level() *Builder { return b.constant(OpLevel, NatT) }

// Source pushes the address that signed the operation.
func (b *Builder) Source() *Builder { return b.constant(OpSource, AddressT) }

// Sender pushes the address of the caller.
func (b *Builder) Sender() *Builder { return b.constant(OpSender, AddressT) }

// SelfAddress pushes the address of the running contract.
func (b *Builder) SelfAddress() *Builder { return b.constant(OpSelfAddress, AddressT) }

// Amount pushes the amount transferred.
func (b *Builder) Amount() *Builder { return b.constant(OpAmount, MutezT) }

// ChainID pushes the chain identifier.
func (b *Builder) ChainID() *Builder { return b.constant(OpChainID, ChainIDT) }

// TotalVotingPower pushes the total voting power.
func (b *Builder) TotalVotingPower() *Builder { return b.constant(OpTotalVotingPower, NatT) }

// VotingPower pushes the voting power of a key hash.
func (b *Builder) VotingPower() *Builder {
	if !b.kinds(OpVotingPower, TKeyHash) {
		return b
	}
	return b.simple(OpVotingPower, 1, NatT)
}

// Self pushes the entrypoint of the running contract.
func (b *Builder) Self(entrypoint string) *Builder {
	if !b.need(OpSelf, 0) {
		return b
	}
	if b.self == nil {
		return b.fail(OpSelf, ErrSelfInLambda)
	}
	t, _, ok := findEntrypoint(b.self, entrypoint)
	if !ok {
		return b.fail(OpSelf, errors.Wrapf(ErrBadStackItem, "no entrypoint %q", entrypoint))
	}
	ct, err := NewContractT(*b.loc, t.WithAnnot(""))
	if err != nil {
		return b.fail(OpSelf, err)
	}
	if entrypoint == defaultEntrypoint {
		entrypoint = ""
	}
	node := micheline.NewPrim(micheline.ISelf)
	if entrypoint != "" {
		node.Annots = []string{"%" + entrypoint}
	}
	return b.emit(&Instr{Op: OpSelf, Ty: ct.Args[0], Str: entrypoint}, node, 0, ct)
}

// Emit emits an event tagged tag carrying the top value.
func (b *Builder) Emit(tag string) *Builder {
	if !b.need(OpEmit, 1) {
		return b
	}
	if !b.stack[0].Packable() {
		return b.fail(OpEmit, errors.Wrap(ErrNotPackable, b.stack[0].String()))
	}
	node := micheline.NewPrim(micheline.IEmit, b.stack[0].Node())
	if tag != "" {
		node.Annots = []string{"%" + tag}
	}
	return b.emit(&Instr{Op: OpEmit, Str: tag, Ty: b.stack[0]}, node, 1, OperationT)
}

// CheckSignature checks a signature of bytes against a key.
func (b *Builder) CheckSignature() *Builder {
	if !b.kinds(OpCheckSignature, TKey, TSignature, TBytes) {
		return b
	}
	return b.simple(OpCheckSignature, 3, BoolT)
}

// HashKey hashes a public key.
func (b *Builder) HashKey() *Builder {
	if !b.kinds(OpHashKey, TKey) {
		return b
	}
	return b.simple(OpHashKey, 1, KeyHashT)
}

func (b *Builder) hash(op OpCode) *Builder {
	if !b.kinds(op, TBytes) {
		return b
	}
	return b.simple(op, 1, BytesT)
}

// Blake2b hashes bytes with blake2b.
func (b *Builder) Blake2b() *Builder { return b.hash(OpBlake2b) }

// Sha256 hashes bytes with sha256.
func (b *Builder) Sha256() *Builder { return b.hash(OpSha256) }

// Sha512 hashes bytes with sha512.
func (b *Builder) Sha512() *Builder { return b.hash(OpSha512) }

// Keccak hashes bytes with keccak-256.
func (b *Builder) Keccak() *Builder { return b.hash(OpKeccak) }

// Sha3 hashes bytes with sha3-256.
func (b *Builder) Sha3() *Builder { return b.hash(OpSha3) }

// Pack serializes the top value.
func (b *Builder) Pack() *Builder {
	if !b.need(OpPack, 1) {
		return b
	}
	if !b.stack[0].Packable() {
		return b.fail(OpPack, errors.Wrap(ErrNotPackable, b.stack[0].String()))
	}
	return b.simple(OpPack, 1, BytesT)
}

// Unpack deserializes bytes as a value of type t.
func (b *Builder) Unpack(t *Ty) *Builder {
	if !b.kinds(OpUnpack, TBytes) {
		return b
	}
	if !t.Packable() {
		return b.fail(OpUnpack, errors.Wrap(ErrNotPackable, t.String()))
	}
	ot, err := NewOptionT(*b.loc, t)
	if err != nil {
		return b.fail(OpUnpack, err)
	}
	return b.emit(&Instr{Op: OpUnpack, Ty: t}, micheline.NewPrim(micheline.IUnpack, t.Node()), 1, ot)
}

// PairingCheck checks a list of pairs of G1 and G2 points.
func (b *Builder) PairingCheck() *Builder {
	if !b.kinds(OpPairingCheck, TList) {
		return b
	}
	p := b.stack[0].Args[0]
	if p.Kind != TPair || p.Args[0].Kind != TBls12381G1 || p.Args[1].Kind != TBls12381G2 {
		return b.fail(OpPairingCheck, errors.Wrapf(ErrBadStackItem, "%s", b.stack[0]))
	}
	return b.simple(OpPairingCheck, 1, BoolT)
}

// SaplingEmptyState pushes an empty sapling state.
func (b *Builder) SaplingEmptyState(memo int) *Builder {
	if !b.need(OpSaplingEmptyState, 0) {
		return b
	}
	t, err := NewSaplingStateT(memo)
	if err != nil {
		return b.fail(OpSaplingEmptyState, err)
	}
	return b.emit(&Instr{Op: OpSaplingEmptyState, Ty: t},
		micheline.NewPrim(micheline.ISaplingEmptyState, nodeInt(memo)), 0, t)
}

// SaplingVerifyUpdate applies a shielded transaction to a state.
func (b *Builder) SaplingVerifyUpdate() *Builder {
	if !b.kinds(OpSaplingVerifyUpdate, TSaplingTransaction, TSaplingState) {
		return b
	}
	if b.stack[0].MemoSize != b.stack[1].MemoSize {
		return b.fail(OpSaplingVerifyUpdate, ErrInvalidMemoSize)
	}
	inner, _ := NewPairT(*b.loc, IntT, b.stack[1])
	p, _ := NewPairT(*b.loc, BytesT, inner)
	t, err := NewOptionT(*b.loc, p)
	if err != nil {
		return b.fail(OpSaplingVerifyUpdate, err)
	}
	return b.simple(OpSaplingVerifyUpdate, 2, t)
}

// Ticket mints a ticket, None for a zero amount.
func (b *Builder) Ticket() *Builder {
	if !b.need(OpTicket, 2) {
		return b
	}
	if b.stack[1].Kind != TNat {
		return b.fail(OpTicket, errors.Wrapf(ErrBadStackItem, "%s is not a nat", b.stack[1]))
	}
	tt, err := NewTicketT(*b.loc, b.stack[0])
	if err != nil {
		return b.fail(OpTicket, err)
	}
	ot, err := NewOptionT(*b.loc, tt)
	if err != nil {
		return b.fail(OpTicket, err)
	}
	return b.simple(OpTicket, 2, ot)
}

// ReadTicket pushes the ticketer, contents and amount of a ticket.
func (b *Builder) ReadTicket() *Builder {
	if !b.kinds(OpReadTicket, TTicket) {
		return b
	}
	inner, _ := NewPairT(*b.loc, b.stack[0].Args[0], NatT)
	p, err := NewPairT(*b.loc, AddressT, inner)
	if err != nil {
		return b.fail(OpReadTicket, err)
	}
	return b.simple(OpReadTicket, 0, p)
}

// SplitTicket splits a ticket in two amounts, None if they do not add up.
func (b *Builder) SplitTicket() *Builder {
	if !b.kinds(OpSplitTicket, TTicket, TPair) {
		return b
	}
	amounts := b.stack[1]
	if amounts.Args[0].Kind != TNat || amounts.Args[1].Kind != TNat {
		return b.fail(OpSplitTicket, errors.Wrapf(ErrBadStackItem, "%s is not pair nat nat", amounts))
	}
	p, _ := NewPairT(*b.loc, b.stack[0], b.stack[0])
	t, err := NewOptionT(*b.loc, p)
	if err != nil {
		return b.fail(OpSplitTicket, err)
	}
	return b.simple(OpSplitTicket, 2, t)
}

// JoinTickets joins two tickets, None if their ticketers or contents differ.
func (b *Builder) JoinTickets() *Builder {
	if !b.kinds(OpJoinTickets, TPair) {
		return b
	}
	p := b.stack[0]
	if p.Args[0].Kind != TTicket || !p.Args[0].Equal(p.Args[1]) {
		return b.fail(OpJoinTickets, errors.Wrapf(ErrBadStackItem, "%s is not a pair of tickets", p))
	}
	t, err := NewOptionT(*b.loc, p.Args[0])
	if err != nil {
		return b.fail(OpJoinTickets, err)
	}
	return b.simple(OpJoinTickets, 1, t)
}

// OpenChest opens a timelocked chest: Left payload, Right true for a bogus
// cipher, Right false for a bogus opening.
func (b *Builder) OpenChest() *Builder {
	if !b.kinds(OpOpenChest, TChestKey, TChest, TNat) {
		return b
	}
	t, _ := NewOrT(*b.loc, BytesT, BoolT)
	return b.simple(OpOpenChest, 3, t)
}
