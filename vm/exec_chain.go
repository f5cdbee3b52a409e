// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/pkg/errors"
)

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}

func (in *Interpreter) chain() (Chain, error) {
	if in.env.Chain == nil {
		return nil, ErrNoChain
	}
	return in.env.Chain, nil
}

func execAddress(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(st.peek().(*Contract).Address)
	return i.Next, k, nil
}

func execContract(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	addr := st.peek().(Address)
	ep := i.Str
	switch {
	case ep != "" && addr.Entrypoint != "":
		st.replace(None)
		return i.Next, k, nil
	case ep == "":
		ep = addr.Entrypoint
	}
	addr = addr.WithEntrypoint(ep)
	if addr.IsImplicit() {
		if addr.Entrypoint == "" && i.Ty.Equal(UnitT) {
			st.replace(Some(&Contract{Arg: UnitT, Address: addr}))
		} else {
			st.replace(None)
		}
		return i.Next, k, nil
	}
	chain, err := in.chain()
	if err != nil {
		return nil, nil, err
	}
	ty, ok, err := chain.EntrypointType(addr)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "looking up %s", addr)
	}
	if !ok || !ty.Equal(i.Ty) {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(&Contract{Arg: i.Ty, Address: addr}))
	return i.Next, k, nil
}

// execView runs the view of another contract on its own storage and
// balance, as if called by the running contract.
func execView(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	input := st.pop()
	addr := st.peek().(Address)
	if addr.IsImplicit() {
		st.replace(None)
		return i.Next, k, nil
	}
	chain, err := in.chain()
	if err != nil {
		return nil, nil, err
	}
	target, ok, err := chain.View(addr.Destination(), i.Str)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "looking up view %s of %s", i.Str, addr)
	}
	if !ok || !target.View.Input.Equal(i.Ty) || !target.View.Output.Equal(i.Ty2) {
		st.replace(None)
		return i.Next, k, nil
	}
	saved := in.step
	step := *saved
	step.Sender = saved.Self.Destination()
	step.Self = addr.Destination()
	step.Amount = 0
	step.Balance = target.Balance
	in.step = &step
	st.replace(Pair{input, target.Storage})
	next := &KMapHead{F: someOf, K: &KView{Saved: saved, K: then(i.Next, k)}}
	return in.call(target.View.Code.Entry, 1, next, st)
}

func execTransferTokens(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	param, amount := st.pop(), st.pop().(Mutez)
	c := st.peek().(*Contract)
	if c.Address.IsImplicit() && !c.Arg.Duplicable() {
		return nil, nil, errors.Wrapf(ErrNonZeroTransfer, "to %s", c.Address)
	}
	param, diffs, err := in.extractTemporary(c.Arg, param)
	if err != nil {
		return nil, nil, err
	}
	op := &Transfer{
		Source:      in.step.Self.Destination(),
		Destination: c.Address,
		Amount:      amount,
		ParamTy:     c.Arg,
		Param:       param,
		Nonce:       in.nextNonce(),
	}
	st.replace(&Operation{Op: op, LazyDiff: diffs})
	return i.Next, k, nil
}

func execImplicitAccount(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	h := st.peek().(KeyHash)
	st.replace(&Contract{Arg: UnitT, Address: ImplicitAddress(h.KeyHash)})
	return i.Next, k, nil
}

func execCreateContract(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	delegate, credit, storage := st.pop().(Option), st.pop().(Mutez), st.pop()
	storage, diffs, err := in.extractTemporary(i.Script.Storage, storage)
	if err != nil {
		return nil, nil, err
	}
	nonce := in.nextNonce()
	addr := OriginatedAddress(ContractHash(in.step.OperationHash, nonce))
	op := &Origination{
		Source:   in.step.Self.Destination(),
		Contract: addr,
		Credit:   credit,
		Script:   i.Script,
		Storage:  storage,
		Nonce:    nonce,
	}
	if !delegate.IsNone() {
		op.Delegate = delegate.V.(KeyHash).KeyHash
	}
	st.push(addr)
	st.push(&Operation{Op: op, LazyDiff: diffs})
	return i.Next, k, nil
}

func execSetDelegate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	op := &Delegation{Source: in.step.Self.Destination(), Nonce: in.nextNonce()}
	if o := st.peek().(Option); !o.IsNone() {
		op.Delegate = o.V.(KeyHash).KeyHash
	}
	st.replace(&Operation{Op: op})
	return i.Next, k, nil
}

func execEmit(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	op := &Event{
		Source:  in.step.Self.Destination(),
		Tag:     i.Str,
		Ty:      i.Ty,
		Payload: st.peek(),
		Nonce:   in.nextNonce(),
	}
	st.replace(&Operation{Op: op})
	return i.Next, k, nil
}

func execNow(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(Timestamp{orZero(in.step.Now)})
	return i.Next, k, nil
}

func execMinBlockTime(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(Nat{orZero(in.step.MinBlockTime)})
	return i.Next, k, nil
}

func execBalance(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.Balance)
	return i.Next, k, nil
}

func execLevel(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(Nat{orZero(in.step.Level)})
	return i.Next, k, nil
}

func execSource(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.Source)
	return i.Next, k, nil
}

func execSender(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.Sender)
	return i.Next, k, nil
}

func execSelf(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(&Contract{Arg: i.Ty, Address: in.step.Self.WithEntrypoint(i.Str)})
	return i.Next, k, nil
}

func execSelfAddress(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.Self.Destination())
	return i.Next, k, nil
}

func execAmount(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.Amount)
	return i.Next, k, nil
}

func execChainID(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(in.step.ChainID)
	return i.Next, k, nil
}

func execVotingPower(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	chain, err := in.chain()
	if err != nil {
		return nil, nil, err
	}
	p, err := chain.VotingPower(st.peek().(KeyHash).KeyHash)
	if err != nil {
		return nil, nil, err
	}
	st.replace(Nat{orZero(p)})
	return i.Next, k, nil
}

func execTotalVotingPower(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	chain, err := in.chain()
	if err != nil {
		return nil, nil, err
	}
	p, err := chain.TotalVotingPower()
	if err != nil {
		return nil, nil, err
	}
	st.push(Nat{orZero(p)})
	return i.Next, k, nil
}

func execCheckSignature(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	key, sig := st.pop().(Key), st.pop().(Signature)
	msg := st.peek().(Bytes)
	st.replace(Bool(crypto.CheckSignature(key.PublicKey, crypto.Signature(sig), msg)))
	return i.Next, k, nil
}

func execHashKey(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(KeyHash{st.peek().(Key).Hash()})
	return i.Next, k, nil
}

func execBlake2b(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	h := crypto.Blake2b256(st.peek().(Bytes))
	st.replace(Bytes(h[:]))
	return i.Next, k, nil
}

func execSha256(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(crypto.Sha256(st.peek().(Bytes))))
	return i.Next, k, nil
}

func execSha512(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(crypto.Sha512(st.peek().(Bytes))))
	return i.Next, k, nil
}

func execKeccak(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(crypto.Keccak256(st.peek().(Bytes))))
	return i.Next, k, nil
}

func execSha3(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(crypto.Sha3(st.peek().(Bytes))))
	return i.Next, k, nil
}

func execPack(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(micheline.Pack(Unparse(st.peek(), Optimized))))
	return i.Next, k, nil
}

// execUnpack pushes None for bytes that do not encode a value of the type.
// Lambdas need the code parser, its absence fails the execution.
func execUnpack(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	node, err := micheline.Unpack(st.peek().(Bytes))
	if err != nil {
		st.replace(None)
		return i.Next, k, nil
	}
	p := &dataParser{ctxt: in.ctxt, env: in.env}
	v, err := p.parse(i.Ty, node)
	switch cause := errors.Cause(err); {
	case cause == ErrNoCodeParser || cause == ErrNoChain:
		return nil, nil, err
	case err != nil:
		st.replace(None)
	default:
		st.replace(Some(v))
	}
	return i.Next, k, nil
}

func execAddG1(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(G1)
	st.replace(G1{a.Add(st.peek().(G1).G1)})
	return i.Next, k, nil
}

func execAddG2(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(G2)
	st.replace(G2{a.Add(st.peek().(G2).G2)})
	return i.Next, k, nil
}

func execAddFr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Fr)
	st.replace(Fr{a.Add(st.peek().(Fr).Fr)})
	return i.Next, k, nil
}

func execMulG1(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(G1)
	st.replace(G1{a.Mul(st.peek().(Fr).Fr)})
	return i.Next, k, nil
}

func execMulG2(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(G2)
	st.replace(G2{a.Mul(st.peek().(Fr).Fr)})
	return i.Next, k, nil
}

func execMulFr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Fr)
	st.replace(Fr{a.Mul(st.peek().(Fr).Fr)})
	return i.Next, k, nil
}

func execMulZFr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	n := crypto.FrFromBig(bigOf(st.pop()))
	st.replace(Fr{st.peek().(Fr).Mul(n)})
	return i.Next, k, nil
}

func execMulFrZ(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Fr)
	st.replace(Fr{a.Mul(crypto.FrFromBig(bigOf(st.peek())))})
	return i.Next, k, nil
}

func execIntFr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Int{st.peek().(Fr).BigInt()})
	return i.Next, k, nil
}

func execNegG1(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(G1{st.peek().(G1).Neg()})
	return i.Next, k, nil
}

func execNegG2(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(G2{st.peek().(G2).Neg()})
	return i.Next, k, nil
}

func execNegFr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Fr{st.peek().(Fr).Neg()})
	return i.Next, k, nil
}

func execPairingCheck(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	items := st.peek().(*List).Items()
	g1s := make([]*crypto.G1, len(items))
	g2s := make([]*crypto.G2, len(items))
	for j, it := range items {
		p := it.(Pair)
		g1s[j], g2s[j] = p.L.(G1).G1, p.R.(G2).G2
	}
	ok, err := crypto.PairingCheck(g1s, g2s)
	if err != nil {
		return nil, nil, errors.Wrap(err, "pairing check")
	}
	st.replace(Bool(ok))
	return i.Next, k, nil
}

func execSaplingEmptyState(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(NewSaplingState(i.Ty.MemoSize))
	return i.Next, k, nil
}

func mergeSaplingUpdates(a, b *lazystorage.SaplingUpdates) *lazystorage.SaplingUpdates {
	out := &lazystorage.SaplingUpdates{}
	for _, u := range []*lazystorage.SaplingUpdates{a, b} {
		if u == nil {
			continue
		}
		out.Outputs = append(out.Outputs, u.Outputs...)
		out.Nullifiers = append(out.Nullifiers, u.Nullifiers...)
	}
	return out
}

func execSaplingVerifyUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	if in.env.Sapling == nil {
		return nil, nil, ErrNoSaplingVerifier
	}
	tx := st.pop().(*SaplingTransaction)
	s := st.peek().(*SaplingState)
	res, err := in.env.Sapling.VerifyUpdate(s, tx)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		st.replace(None)
		return i.Next, k, nil
	}
	next := &SaplingState{ID: s.ID, MemoSize: s.MemoSize, Diff: mergeSaplingUpdates(s.Diff, res.Updates)}
	st.replace(Some(Pair{Bytes(res.BoundData), Pair{NewInt(res.Balance), next}}))
	return i.Next, k, nil
}

func execTicket(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	contents := st.pop()
	amount := bigOf(st.peek())
	if amount.Sign() == 0 {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(&Ticket{Ticketer: in.step.Self.Destination(), Contents: contents, Amount: amount}))
	return i.Next, k, nil
}

func execReadTicket(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	t := st.peek().(*Ticket)
	st.push(Pair{t.Ticketer, Pair{t.Contents, Nat{t.Amount}}})
	return i.Next, k, nil
}

func execSplitTicket(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	t := st.pop().(*Ticket)
	amounts := st.peek().(Pair)
	a, b := bigOf(amounts.L), bigOf(amounts.R)
	if a.Sign() == 0 || b.Sign() == 0 || new(big.Int).Add(a, b).Cmp(t.Amount) != 0 {
		st.replace(None)
		return i.Next, k, nil
	}
	l := &Ticket{Ticketer: t.Ticketer, Contents: t.Contents, Amount: a}
	r := &Ticket{Ticketer: t.Ticketer, Contents: t.Contents, Amount: b}
	st.replace(Some(Pair{l, r}))
	return i.Next, k, nil
}

func execJoinTickets(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	p := st.peek().(Pair)
	a, b := p.L.(*Ticket), p.R.(*Ticket)
	if a.Ticketer.Compare(b.Ticketer) != 0 || Compare(a.Contents, b.Contents) != 0 {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(&Ticket{Ticketer: a.Ticketer, Contents: a.Contents, Amount: new(big.Int).Add(a.Amount, b.Amount)}))
	return i.Next, k, nil
}

func execOpenChest(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	key, chest := st.pop().(ChestKey), st.pop().(Chest)
	t := bigOf(st.peek())
	if !t.IsUint64() {
		st.replace(Right(False))
		return i.Next, k, nil
	}
	payload, res := crypto.OpenChest(chest.Chest, key.ChestKey, t.Uint64())
	switch res {
	case crypto.OpenedOK:
		st.replace(Left(Bytes(payload)))
	case crypto.BogusCipher:
		st.replace(Right(True))
	default:
		st.replace(Right(False))
	}
	return i.Next, k, nil
}
