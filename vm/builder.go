// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"sort"

	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/pkg/errors"
)

// Builder assembles typed code one instruction at a time. Each method
// checks the instruction against the current stack type and computes the
// resulting one, so a built sequence is well typed by construction. The
// first error stops the construction and is returned by Build.
//
//	code, err := NewBuilder(NatT, NatT).Add().Push(NatT, NewNat(1)).Compare().Build()
type Builder struct {
	stack  StackTy
	failed bool
	err    error

	first, last *Instr
	node        micheline.Seq

	loc *Loc
	// self is the parameter type of the contract, nil in lambdas and views
	self *Ty
}

// NewBuilder starts a sequence running on the given stack, top first.
func NewBuilder(stack ...*Ty) *Builder {
	var loc Loc
	return &Builder{stack: append(StackTy(nil), stack...), loc: &loc}
}

// WithSelf allows SELF, for code of a contract with the given parameter.
func (b *Builder) WithSelf(param *Ty) *Builder {
	b.self = param
	return b
}

// Err returns the first error met.
func (b *Builder) Err() error { return b.err }

// Stack returns the current stack type, nil after a failing instruction.
func (b *Builder) Stack() StackTy { return b.stack }

// Failed reports whether the sequence always fails.
func (b *Builder) Failed() bool { return b.failed }

func (b *Builder) sub(stack StackTy) *Builder {
	return &Builder{stack: append(StackTy(nil), stack...), loc: b.loc, self: b.self}
}

func (b *Builder) reserve() Loc {
	l := *b.loc
	*b.loc++
	return l
}

func (b *Builder) fail(op OpCode, err error) *Builder {
	if b.err == nil {
		b.err = &InstrError{Loc: *b.loc, Op: op, Err: err}
	}
	return b
}

// need checks that the sequence can be extended with an instruction
// consuming n slots.
func (b *Builder) need(op OpCode, n int) bool {
	if b.err != nil {
		return false
	}
	if b.failed {
		b.fail(op, ErrUnexpectedFailed)
		return false
	}
	if len(b.stack) < n {
		b.fail(op, errors.Wrapf(ErrStackTooShort, "%d slots needed on %s", n, b.stack))
		return false
	}
	return true
}

// kinds checks the kinds of the top slots.
func (b *Builder) kinds(op OpCode, ks ...TyKind) bool {
	if !b.need(op, len(ks)) {
		return false
	}
	for i, k := range ks {
		if b.stack[i].Kind != k {
			b.fail(op, errors.Wrapf(ErrBadStackItem, "slot %d is %s, %s expected", i, b.stack[i], k))
			return false
		}
	}
	return true
}

func (b *Builder) link(i *Instr, node micheline.Node) {
	if b.last == nil {
		b.first = i
	} else {
		b.last.Next = i
	}
	b.last = i
	b.node = append(b.node, node)
}

// emitAt appends i, replacing the pop top slots by push.
func (b *Builder) emitAt(loc Loc, i *Instr, node micheline.Node, pop int, push ...*Ty) *Builder {
	i.Info = KInfo{Loc: loc, Stack: b.stack}
	out := make(StackTy, 0, len(b.stack)-pop+len(push))
	out = append(out, push...)
	b.stack = append(out, b.stack[pop:]...)
	b.link(i, node)
	return b
}

func (b *Builder) emit(i *Instr, node micheline.Node, pop int, push ...*Ty) *Builder {
	return b.emitAt(b.reserve(), i, node, pop, push...)
}

// emitFailing appends an instruction after which the stack is unreachable.
func (b *Builder) emitFailing(i *Instr, node micheline.Node) *Builder {
	i.Info = KInfo{Loc: b.reserve(), Stack: b.stack}
	b.stack, b.failed = nil, true
	b.link(i, node)
	return b
}

func (b *Builder) simple(op OpCode, pop int, push ...*Ty) *Builder {
	return b.emit(&Instr{Op: op}, micheline.NewPrim(op.Prim()), pop, push...)
}

// close terminates the sequence with a halt node and returns its entry.
func (b *Builder) close() *Instr {
	halt := &Instr{Op: OpHalt, Info: KInfo{Loc: *b.loc, Stack: b.stack}}
	if b.last == nil {
		b.first = halt
	} else {
		b.last.Next = halt
	}
	b.last = halt
	return b.first
}

// Build terminates the sequence.
func (b *Builder) Build() (*Code, error) {
	if b.err != nil {
		return nil, b.err
	}
	before := b.stack
	if b.first != nil {
		before = b.first.Info.Stack
	}
	entry := b.close()
	return &Code{Entry: entry, Before: before, After: b.stack, Node: b.node}, nil
}

// block builds a nested sequence on stack.
func (b *Builder) block(stack StackTy, body func(*Builder)) *Builder {
	sb := b.sub(stack)
	body(sb)
	if sb.err != nil && b.err == nil {
		b.err = sb.err
	}
	sb.close()
	return sb
}

// merge unifies the stacks two branches end with.
func (b *Builder) merge(loc Loc, x, y *Builder) (StackTy, bool) {
	if b.err != nil {
		return nil, false
	}
	switch {
	case x.failed && y.failed:
		return nil, true
	case x.failed:
		return y.stack, false
	case y.failed:
		return x.stack, false
	}
	if len(x.stack) != len(y.stack) {
		b.err = &InstrError{Loc: loc, Op: OpIf, Err: errors.Wrapf(ErrUnmatchedBranches, "%s and %s", x.stack, y.stack)}
		return nil, false
	}
	out := make(StackTy, len(x.stack))
	for i := range x.stack {
		t, err := MergeTypes(loc, x.stack[i], y.stack[i])
		if err != nil {
			b.err = err
			return nil, false
		}
		out[i] = t
	}
	return out, false
}

// branch appends an instruction with two branches and continues with the
// merged stack.
func (b *Builder) branch(op OpCode, loc Loc, x, y *Builder, args ...micheline.Node) *Builder {
	out, failed := b.merge(loc, x, y)
	if b.err != nil {
		return b
	}
	i := &Instr{Op: op, Info: KInfo{Loc: loc, Stack: b.stack}, Body: x.first, Else: y.first}
	args = append(args, x.node, y.node)
	b.link(i, micheline.NewPrim(op.Prim(), args...))
	b.stack, b.failed = out, failed
	return b
}

// expectStack checks the stack a body ends with.
func (b *Builder) expectStack(op OpCode, loc Loc, body *Builder, want StackTy) bool {
	if b.err != nil {
		return false
	}
	if body.failed {
		return true
	}
	if len(body.stack) != len(want) {
		b.err = &InstrError{Loc: loc, Op: op, Err: errors.Wrapf(ErrUnmatchedBranches, "body ends with %s, %s expected", body.stack, want)}
		return false
	}
	for i := range want {
		if _, err := MergeTypes(loc, body.stack[i], want[i]); err != nil {
			b.err = err
			return false
		}
	}
	return true
}

func nodeInt(n int) micheline.Node { return micheline.NewInt(int64(n)) }

// Drop removes the top item.
func (b *Builder) Drop() *Builder {
	if !b.need(OpDrop, 1) {
		return b
	}
	return b.simple(OpDrop, 1)
}

// DropN removes the n top items.
func (b *Builder) DropN(n int) *Builder {
	if n < 0 || !b.need(OpDropN, n) {
		return b.fail(OpDropN, ErrInvalidDepth)
	}
	return b.emit(&Instr{Op: OpDropN, W: &StackPrefix{Types: b.stack[:n]}},
		micheline.NewPrim(micheline.IDrop, nodeInt(n)), n)
}

// Dup copies the top item.
func (b *Builder) Dup() *Builder {
	if !b.need(OpDup, 1) {
		return b
	}
	if !b.stack[0].Duplicable() {
		return b.fail(OpDup, errors.Wrapf(ErrBadStackItem, "%s cannot be duplicated", b.stack[0]))
	}
	return b.simple(OpDup, 0, b.stack[0])
}

// DupN copies the n'th item, DUP 1 is DUP.
func (b *Builder) DupN(n int) *Builder {
	if n < 1 {
		return b.fail(OpDupN, ErrInvalidDepth)
	}
	if !b.need(OpDupN, n) {
		return b
	}
	t := b.stack[n-1]
	if !t.Duplicable() {
		return b.fail(OpDupN, errors.Wrapf(ErrBadStackItem, "%s cannot be duplicated", t))
	}
	return b.emit(&Instr{Op: OpDupN, W: &StackPrefix{Types: b.stack[:n-1]}}, micheline.NewPrim(micheline.IDup, nodeInt(n)), 0, t)
}

// Swap exchanges the two top items.
func (b *Builder) Swap() *Builder {
	if !b.need(OpSwap, 2) {
		return b
	}
	return b.simple(OpSwap, 2, b.stack[1], b.stack[0])
}

// Dig moves the n'th item, counting from 0, to the top.
func (b *Builder) Dig(n int) *Builder {
	if n < 0 || !b.need(OpDig, n+1) {
		return b.fail(OpDig, ErrInvalidDepth)
	}
	push := append(StackTy{b.stack[n]}, b.stack[:n]...)
	return b.emit(&Instr{Op: OpDig, W: &StackPrefix{Types: b.stack[:n]}}, micheline.NewPrim(micheline.IDig, nodeInt(n)), n+1, push...)
}

// Dug moves the top item down to depth n.
func (b *Builder) Dug(n int) *Builder {
	if n < 0 || !b.need(OpDug, n+1) {
		return b.fail(OpDug, ErrInvalidDepth)
	}
	push := append(append(StackTy{}, b.stack[1:n+1]...), b.stack[0])
	return b.emit(&Instr{Op: OpDug, W: &StackPrefix{Offset: 1, Types: b.stack[1 : n+1]}}, micheline.NewPrim(micheline.IDug, nodeInt(n)), n+1, push...)
}

// Push pushes the constant v of type t.
func (b *Builder) Push(t *Ty, v Value) *Builder {
	if !b.need(OpConst, 0) {
		return b
	}
	if !t.Pushable() {
		return b.fail(OpConst, errors.Wrap(ErrNotPushable, t.String()))
	}
	if !HasType(v, t) {
		return b.fail(OpConst, errors.Wrapf(ErrInvalidValueForTy, "%s", t))
	}
	return b.emit(&Instr{Op: OpConst, Ty: t, Value: v},
		micheline.NewPrim(micheline.IPush, t.Node(), Unparse(v, Readable)), 0, t)
}

// Unit pushes Unit.
func (b *Builder) Unit() *Builder {
	if !b.need(OpConst, 0) {
		return b
	}
	return b.emit(&Instr{Op: OpConst, Ty: UnitT, Value: Unit{}}, micheline.NewPrim(micheline.IUnit), 0, UnitT)
}

// Dip runs body below the top item.
func (b *Builder) Dip(body func(*Builder)) *Builder {
	return b.DipN(1, body)
}

// DipN runs body below the n top items.
func (b *Builder) DipN(n int, body func(*Builder)) *Builder {
	op := OpDipN
	if n == 1 {
		op = OpDip
	}
	if n < 0 || !b.need(op, n) {
		return b.fail(op, ErrInvalidDepth)
	}
	loc := b.reserve()
	sb := b.block(b.stack[n:], body)
	if b.err != nil {
		return b
	}
	i := &Instr{Op: op, Info: KInfo{Loc: loc, Stack: b.stack}, W: &StackPrefix{Types: b.stack[:n]}, Body: sb.first}
	node := micheline.NewPrim(micheline.IDip, sb.node)
	if op == OpDipN {
		node.Args = []micheline.Node{nodeInt(n), sb.node}
	}
	b.link(i, node)
	if sb.failed {
		b.stack, b.failed = nil, true
		return b
	}
	b.stack = append(append(StackTy{}, b.stack[:n]...), sb.stack...)
	return b
}

// Pair builds pair a b from a on top of b.
func (b *Builder) Pair() *Builder {
	if !b.need(OpConsPair, 2) {
		return b
	}
	t, err := NewPairT(*b.loc, b.stack[0], b.stack[1])
	if err != nil {
		return b.fail(OpConsPair, err)
	}
	return b.simple(OpConsPair, 2, t)
}

// Car takes the left of a pair.
func (b *Builder) Car() *Builder {
	if !b.kinds(OpCar, TPair) {
		return b
	}
	return b.simple(OpCar, 1, b.stack[0].Args[0])
}

// Cdr takes the right of a pair.
func (b *Builder) Cdr() *Builder {
	if !b.kinds(OpCdr, TPair) {
		return b
	}
	return b.simple(OpCdr, 1, b.stack[0].Args[1])
}

// Unpair splits a pair.
func (b *Builder) Unpair() *Builder {
	if !b.kinds(OpUnpair, TPair) {
		return b
	}
	return b.simple(OpUnpair, 1, b.stack[0].Args[0], b.stack[0].Args[1])
}

// PairN builds a right comb of the n top items.
func (b *Builder) PairN(n int) *Builder {
	if n < 2 {
		return b.fail(OpComb, ErrInvalidDepth)
	}
	if !b.need(OpComb, n) {
		return b
	}
	t := b.stack[n-1]
	for i := n - 2; i >= 0; i-- {
		var err error
		if t, err = NewPairT(*b.loc, b.stack[i], t); err != nil {
			return b.fail(OpComb, err)
		}
	}
	return b.emit(&Instr{Op: OpComb, W: &Comb{Items: b.stack[:n]}}, micheline.NewPrim(micheline.IPair, nodeInt(n)), n, t)
}

// UnpairN splits a right comb of n items.
func (b *Builder) UnpairN(n int) *Builder {
	if n < 2 {
		return b.fail(OpUncomb, ErrInvalidDepth)
	}
	if !b.need(OpUncomb, 1) {
		return b
	}
	var items StackTy
	t := b.stack[0]
	for k := 0; k < n-1; k++ {
		if t.Kind != TPair {
			return b.fail(OpUncomb, errors.Wrapf(ErrBadStackItem, "%s is not a comb of %d", b.stack[0], n))
		}
		items, t = append(items, t.Args[0]), t.Args[1]
	}
	items = append(items, t)
	return b.emit(&Instr{Op: OpUncomb, W: &Comb{Items: items, Folded: true}}, micheline.NewPrim(micheline.IUnpair, nodeInt(n)), 1, items...)
}

// combGetTy returns the type of slot k of a right comb.
func combGetTy(t *Ty, k int) (*Ty, bool) {
	for ; k > 1; k -= 2 {
		if t.Kind != TPair {
			return nil, false
		}
		t = t.Args[1]
	}
	if k == 1 {
		if t.Kind != TPair {
			return nil, false
		}
		t = t.Args[0]
	}
	return t, true
}

func combSetTy(loc Loc, t *Ty, k int, v *Ty) (*Ty, error) {
	switch {
	case k == 0:
		return v, nil
	case t.Kind != TPair:
		return nil, ErrBadStackItem
	case k == 1:
		return NewPairT(loc, v, t.Args[1])
	}
	r, err := combSetTy(loc, t.Args[1], k-2, v)
	if err != nil {
		return nil, err
	}
	return NewPairT(loc, t.Args[0], r)
}

// GetN reads slot n of a right comb: 0 is the whole comb, odd slots are
// the items and even slots the tails.
func (b *Builder) GetN(n int) *Builder {
	if n < 0 || !b.need(OpCombGet, 1) {
		return b.fail(OpCombGet, ErrInvalidDepth)
	}
	t, ok := combGetTy(b.stack[0], n)
	if !ok {
		return b.fail(OpCombGet, errors.Wrapf(ErrBadStackItem, "%s has no slot %d", b.stack[0], n))
	}
	return b.emit(&Instr{Op: OpCombGet, W: newCombPath(n, 0, t)}, micheline.NewPrim(micheline.IGet, nodeInt(n)), 1, t)
}

// UpdateN replaces slot n of the comb below the top with the top.
func (b *Builder) UpdateN(n int) *Builder {
	if n < 0 || !b.need(OpCombSet, 2) {
		return b.fail(OpCombSet, ErrInvalidDepth)
	}
	t, err := combSetTy(*b.loc, b.stack[1], n, b.stack[0])
	if err != nil {
		return b.fail(OpCombSet, errors.Wrapf(err, "%s has no slot %d", b.stack[1], n))
	}
	old, _ := combGetTy(b.stack[1], n)
	return b.emit(&Instr{Op: OpCombSet, W: newCombPath(n, 1, old)}, micheline.NewPrim(micheline.IUpdate, nodeInt(n)), 2, t)
}

// Some wraps the top in an option.
func (b *Builder) Some() *Builder {
	if !b.need(OpConsSome, 1) {
		return b
	}
	t, err := NewOptionT(*b.loc, b.stack[0])
	if err != nil {
		return b.fail(OpConsSome, err)
	}
	return b.simple(OpConsSome, 1, t)
}

// None pushes None of option t.
func (b *Builder) None(t *Ty) *Builder {
	if !b.need(OpConsNone, 0) {
		return b
	}
	ot, err := NewOptionT(*b.loc, t)
	if err != nil {
		return b.fail(OpConsNone, err)
	}
	return b.emit(&Instr{Op: OpConsNone, Ty: t}, micheline.NewPrim(micheline.INone, t.Node()), 0, ot)
}

// IfNone runs none on None and some on the contents of Some.
func (b *Builder) IfNone(none, some func(*Builder)) *Builder {
	if !b.kinds(OpIfNone, TOption) {
		return b
	}
	loc := b.reserve()
	rest := b.stack[1:]
	x := b.block(rest, none)
	y := b.block(append(StackTy{b.stack[0].Args[0]}, rest...), some)
	return b.branch(OpIfNone, loc, x, y)
}

// MapOption applies body to the contents of an option.
func (b *Builder) MapOption(body func(*Builder)) *Builder {
	if !b.kinds(OpOptMap, TOption) {
		return b
	}
	loc := b.reserve()
	rest := b.stack[1:]
	sb := b.block(append(StackTy{b.stack[0].Args[0]}, rest...), body)
	if b.err != nil {
		return b
	}
	if sb.failed || len(sb.stack) == 0 {
		return b.fail(OpOptMap, ErrNoBuildResult)
	}
	if !b.expectStack(OpOptMap, loc, sb, append(StackTy{sb.stack[0]}, rest...)) {
		return b
	}
	t, err := NewOptionT(loc, sb.stack[0])
	if err != nil {
		return b.fail(OpOptMap, err)
	}
	return b.emitAt(loc, &Instr{Op: OpOptMap, Body: sb.first}, micheline.NewPrim(micheline.IMap, sb.node), 1, t)
}

// Left wraps the top in or top right.
func (b *Builder) Left(right *Ty) *Builder {
	if !b.need(OpConsLeft, 1) {
		return b
	}
	t, err := NewOrT(*b.loc, b.stack[0], right)
	if err != nil {
		return b.fail(OpConsLeft, err)
	}
	return b.emit(&Instr{Op: OpConsLeft, Ty: right}, micheline.NewPrim(micheline.ILeft, right.Node()), 1, t)
}

// Right wraps the top in or left top.
func (b *Builder) Right(left *Ty) *Builder {
	if !b.need(OpConsRight, 1) {
		return b
	}
	t, err := NewOrT(*b.loc, left, b.stack[0])
	if err != nil {
		return b.fail(OpConsRight, err)
	}
	return b.emit(&Instr{Op: OpConsRight, Ty: left}, micheline.NewPrim(micheline.IRight, left.Node()), 1, t)
}

// IfLeft runs left or right on the contents of an or.
func (b *Builder) IfLeft(left, right func(*Builder)) *Builder {
	if !b.kinds(OpIfLeft, TOr) {
		return b
	}
	loc := b.reserve()
	rest := b.stack[1:]
	x := b.block(append(StackTy{b.stack[0].Args[0]}, rest...), left)
	y := b.block(append(StackTy{b.stack[0].Args[1]}, rest...), right)
	return b.branch(OpIfLeft, loc, x, y)
}

// Cons prepends the top to the list below it.
func (b *Builder) Cons() *Builder {
	if !b.need(OpConsList, 2) {
		return b
	}
	if b.stack[1].Kind != TList || !b.stack[1].Args[0].Equal(b.stack[0]) {
		return b.fail(OpConsList, errors.Wrapf(ErrBadStackItem, "cannot cons %s on %s", b.stack[0], b.stack[1]))
	}
	return b.simple(OpConsList, 2, b.stack[1])
}

// Nil pushes an empty list of t.
func (b *Builder) Nil(t *Ty) *Builder {
	if !b.need(OpNil, 0) {
		return b
	}
	lt, err := NewListT(*b.loc, t)
	if err != nil {
		return b.fail(OpNil, err)
	}
	return b.emit(&Instr{Op: OpNil, Ty: t}, micheline.NewPrim(micheline.INil, t.Node()), 0, lt)
}

// IfCons runs cons on the head and tail of a non empty list, empty otherwise.
func (b *Builder) IfCons(cons, empty func(*Builder)) *Builder {
	if !b.kinds(OpIfCons, TList) {
		return b
	}
	loc := b.reserve()
	rest := b.stack[1:]
	x := b.block(append(StackTy{b.stack[0].Args[0], b.stack[0]}, rest...), cons)
	y := b.block(rest, empty)
	return b.branch(OpIfCons, loc, x, y)
}

// Iter runs body on every element of a list, set or map.
func (b *Builder) Iter(body func(*Builder)) *Builder {
	if !b.need(OpListIter, 1) {
		return b
	}
	var op OpCode
	var elt *Ty
	switch t := b.stack[0]; t.Kind {
	case TList:
		op, elt = OpListIter, t.Args[0]
	case TSet:
		op, elt = OpSetIter, t.Args[0]
	case TMap:
		op = OpMapIter
		var err error
		if elt, err = NewPairT(*b.loc, t.Args[0], t.Args[1]); err != nil {
			return b.fail(op, err)
		}
	default:
		return b.fail(OpListIter, errors.Wrapf(ErrBadStackItem, "cannot iterate on %s", t))
	}
	loc := b.reserve()
	rest := b.stack[1:]
	sb := b.block(append(StackTy{elt}, rest...), body)
	if !b.expectStack(op, loc, sb, rest) {
		return b
	}
	return b.emitAt(loc, &Instr{Op: op, Body: sb.first}, micheline.NewPrim(micheline.IIter, sb.node), 1)
}

// Map maps body over a list, a map or an option.
func (b *Builder) Map(body func(*Builder)) *Builder {
	if !b.need(OpListMap, 1) {
		return b
	}
	t := b.stack[0]
	var op OpCode
	var elt *Ty
	switch t.Kind {
	case TOption:
		return b.MapOption(body)
	case TList:
		op, elt = OpListMap, t.Args[0]
	case TMap:
		op = OpMapMap
		var err error
		if elt, err = NewPairT(*b.loc, t.Args[0], t.Args[1]); err != nil {
			return b.fail(op, err)
		}
	default:
		return b.fail(OpListMap, errors.Wrapf(ErrBadStackItem, "cannot map on %s", t))
	}
	loc := b.reserve()
	rest := b.stack[1:]
	sb := b.block(append(StackTy{elt}, rest...), body)
	if b.err != nil {
		return b
	}
	if sb.failed || len(sb.stack) == 0 {
		return b.fail(op, ErrNoBuildResult)
	}
	if !b.expectStack(op, loc, sb, append(StackTy{sb.stack[0]}, rest...)) {
		return b
	}
	var out *Ty
	var err error
	if op == OpListMap {
		out, err = NewListT(loc, sb.stack[0])
	} else {
		out, err = NewMapT(loc, t.Args[0], sb.stack[0])
	}
	if err != nil {
		return b.fail(op, err)
	}
	return b.emitAt(loc, &Instr{Op: op, Body: sb.first, Ty: out}, micheline.NewPrim(micheline.IMap, sb.node), 1, out)
}

// Size pushes the size of a list, set, map, string or bytes.
func (b *Builder) Size() *Builder {
	if !b.need(OpListSize, 1) {
		return b
	}
	ops := map[TyKind]OpCode{TList: OpListSize, TSet: OpSetSize, TMap: OpMapSize, TString: OpStringSize, TBytes: OpBytesSize}
	op, ok := ops[b.stack[0].Kind]
	if !ok {
		return b.fail(OpListSize, errors.Wrapf(ErrBadStackItem, "%s has no size", b.stack[0]))
	}
	return b.simple(op, 1, NatT)
}

// EmptySet pushes an empty set of t.
func (b *Builder) EmptySet(t *Ty) *Builder {
	if !b.need(OpEmptySet, 0) {
		return b
	}
	st, err := NewSetT(*b.loc, t)
	if err != nil {
		return b.fail(OpEmptySet, err)
	}
	return b.emit(&Instr{Op: OpEmptySet, Ty: t}, micheline.NewPrim(micheline.IEmptySet, t.Node()), 0, st)
}

// EmptyMap pushes an empty map from k to v.
func (b *Builder) EmptyMap(k, v *Ty) *Builder {
	if !b.need(OpEmptyMap, 0) {
		return b
	}
	mt, err := NewMapT(*b.loc, k, v)
	if err != nil {
		return b.fail(OpEmptyMap, err)
	}
	return b.emit(&Instr{Op: OpEmptyMap, Ty: k, Ty2: v}, micheline.NewPrim(micheline.IEmptyMap, k.Node(), v.Node()), 0, mt)
}

// EmptyBigMap pushes an empty big map from k to v.
func (b *Builder) EmptyBigMap(k, v *Ty) *Builder {
	if !b.need(OpEmptyBigMap, 0) {
		return b
	}
	mt, err := NewBigMapT(*b.loc, k, v)
	if err != nil {
		return b.fail(OpEmptyBigMap, err)
	}
	return b.emit(&Instr{Op: OpEmptyBigMap, Ty: k, Ty2: v}, micheline.NewPrim(micheline.IEmptyBigMap, k.Node(), v.Node()), 0, mt)
}

// keyOf checks that the top is a key of the collection at depth d.
func (b *Builder) keyOf(op OpCode, d int) (*Ty, bool) {
	c := b.stack[d]
	var key *Ty
	switch c.Kind {
	case TSet, TMap, TBigMap:
		key = c.Args[0]
	default:
		b.fail(op, errors.Wrapf(ErrBadStackItem, "%s is not a collection", c))
		return nil, false
	}
	if !key.Equal(b.stack[0]) {
		b.fail(op, errors.Wrapf(ErrBadStackItem, "%s is not a key of %s", b.stack[0], c))
		return nil, false
	}
	return c, true
}

// Mem checks whether the top is an element or a key of the collection below.
func (b *Builder) Mem() *Builder {
	if !b.need(OpSetMem, 2) {
		return b
	}
	c, ok := b.keyOf(OpSetMem, 1)
	if !ok {
		return b
	}
	op := map[TyKind]OpCode{TSet: OpSetMem, TMap: OpMapMem, TBigMap: OpBigMapMem}[c.Kind]
	return b.simple(op, 2, BoolT)
}

// Get looks the top up in the map or big map below it.
func (b *Builder) Get() *Builder {
	if !b.need(OpMapGet, 2) {
		return b
	}
	c, ok := b.keyOf(OpMapGet, 1)
	if !ok {
		return b
	}
	if c.Kind == TSet {
		return b.fail(OpMapGet, errors.Wrap(ErrBadStackItem, "GET on a set"))
	}
	t, err := NewOptionT(*b.loc, c.Args[1])
	if err != nil {
		return b.fail(OpMapGet, err)
	}
	op := OpMapGet
	if c.Kind == TBigMap {
		op = OpBigMapGet
	}
	return b.simple(op, 2, t)
}

// Update sets membership in a set, or binds an optional value in a map.
func (b *Builder) Update() *Builder {
	if !b.need(OpSetUpdate, 3) {
		return b
	}
	c, ok := b.keyOf(OpSetUpdate, 2)
	if !ok {
		return b
	}
	if c.Kind == TSet {
		if !b.stack[1].Equal(BoolT) {
			return b.fail(OpSetUpdate, errors.Wrapf(ErrBadStackItem, "%s is not a bool", b.stack[1]))
		}
		return b.simple(OpSetUpdate, 3, c)
	}
	if b.stack[1].Kind != TOption || !b.stack[1].Args[0].Equal(c.Args[1]) {
		return b.fail(OpMapUpdate, errors.Wrapf(ErrBadStackItem, "%s is not option %s", b.stack[1], c.Args[1]))
	}
	op := OpMapUpdate
	if c.Kind == TBigMap {
		op = OpBigMapUpdate
	}
	return b.simple(op, 3, c)
}

// GetAndUpdate updates a map and returns the previous binding.
func (b *Builder) GetAndUpdate() *Builder {
	if !b.need(OpMapGetAndUpdate, 3) {
		return b
	}
	c, ok := b.keyOf(OpMapGetAndUpdate, 2)
	if !ok {
		return b
	}
	if c.Kind == TSet || b.stack[1].Kind != TOption || !b.stack[1].Args[0].Equal(c.Args[1]) {
		return b.fail(OpMapGetAndUpdate, errors.Wrapf(ErrBadStackItem, "cannot update %s with %s", c, b.stack[1]))
	}
	op := OpMapGetAndUpdate
	if c.Kind == TBigMap {
		op = OpBigMapGetAndUpdate
	}
	return b.simple(op, 3, b.stack[1], c)
}

// If runs then or otherwise depending on the top boolean.
func (b *Builder) If(then, otherwise func(*Builder)) *Builder {
	if !b.kinds(OpIf, TBool) {
		return b
	}
	loc := b.reserve()
	x := b.block(b.stack[1:], then)
	y := b.block(b.stack[1:], otherwise)
	return b.branch(OpIf, loc, x, y)
}

// Loop runs body while the top boolean is true.
func (b *Builder) Loop(body func(*Builder)) *Builder {
	if !b.kinds(OpLoop, TBool) {
		return b
	}
	loc := b.reserve()
	rest := b.stack[1:]
	sb := b.block(rest, body)
	if !b.expectStack(OpLoop, loc, sb, b.stack) {
		return b
	}
	return b.emitAt(loc, &Instr{Op: OpLoop, Body: sb.first}, micheline.NewPrim(micheline.ILoop, sb.node), 1)
}

// LoopLeft runs body on the contents of Left, until the top is Right.
func (b *Builder) LoopLeft(body func(*Builder)) *Builder {
	if !b.kinds(OpLoopLeft, TOr) {
		return b
	}
	loc := b.reserve()
	t, rest := b.stack[0], b.stack[1:]
	sb := b.block(append(StackTy{t.Args[0]}, rest...), body)
	if !b.expectStack(OpLoopLeft, loc, sb, b.stack) {
		return b
	}
	return b.emitAt(loc, &Instr{Op: OpLoopLeft, Body: sb.first}, micheline.NewPrim(micheline.ILoopLeft, sb.node), 1, t.Args[1])
}

// Exec applies the lambda below the top to the top.
func (b *Builder) Exec() *Builder {
	if !b.need(OpExec, 2) {
		return b
	}
	l := b.stack[1]
	if l.Kind != TLambda || !l.Args[0].Equal(b.stack[0]) {
		return b.fail(OpExec, errors.Wrapf(ErrBadStackItem, "cannot apply %s to %s", l, b.stack[0]))
	}
	return b.simple(OpExec, 2, l.Args[1])
}

// Apply partially applies the lambda below the top to the top.
func (b *Builder) Apply() *Builder {
	if !b.need(OpApply, 2) {
		return b
	}
	a, l := b.stack[0], b.stack[1]
	if l.Kind != TLambda || l.Args[0].Kind != TPair || !l.Args[0].Args[0].Equal(a) {
		return b.fail(OpApply, errors.Wrapf(ErrBadStackItem, "cannot apply %s to %s", l, a))
	}
	if !a.Pushable() {
		return b.fail(OpApply, errors.Wrap(ErrNotPushable, a.String()))
	}
	t, err := NewLambdaT(*b.loc, l.Args[0].Args[1], l.Args[1])
	if err != nil {
		return b.fail(OpApply, err)
	}
	return b.emit(&Instr{Op: OpApply, Ty: a}, micheline.NewPrim(micheline.IApply), 2, t)
}

// NewLambda builds a lambda from arg to ret.
func NewLambda(arg, ret *Ty, body func(*Builder)) (*Lambda, error) {
	return newLambda(NewBuilder(), arg, ret, false, body)
}

// NewRecLambda builds a recursive lambda: body runs on the argument above
// the lambda itself.
func NewRecLambda(arg, ret *Ty, body func(*Builder)) (*Lambda, error) {
	return newLambda(NewBuilder(), arg, ret, true, body)
}

func newLambda(parent *Builder, arg, ret *Ty, rec bool, body func(*Builder)) (*Lambda, error) {
	lt, err := NewLambdaT(*parent.loc, arg, ret)
	if err != nil {
		return nil, err
	}
	stack := StackTy{arg}
	if rec {
		stack = append(stack, lt)
	}
	sb := &Builder{stack: stack, loc: parent.loc}
	body(sb)
	if sb.err != nil {
		return nil, sb.err
	}
	if !sb.failed && (len(sb.stack) != 1 || !sb.stack[0].Equal(ret)) {
		return nil, errors.Wrapf(ErrNoBuildResult, "lambda ends with %s, [ %s ] expected", sb.stack, ret)
	}
	sb.close()
	return &Lambda{Arg: arg, Ret: ret, Code: sb.first, Node: sb.node, Rec: rec}, nil
}

// Lambda pushes a lambda from arg to ret.
func (b *Builder) Lambda(arg, ret *Ty, body func(*Builder)) *Builder {
	return b.lambda(arg, ret, false, body)
}

// LambdaRec pushes a recursive lambda from arg to ret.
func (b *Builder) LambdaRec(arg, ret *Ty, body func(*Builder)) *Builder {
	return b.lambda(arg, ret, true, body)
}

func (b *Builder) lambda(arg, ret *Ty, rec bool, body func(*Builder)) *Builder {
	if !b.need(OpLambda, 0) {
		return b
	}
	loc := b.reserve()
	l, err := newLambda(b, arg, ret, rec, body)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	lt, _ := NewLambdaT(loc, arg, ret)
	prim := micheline.ILambda
	if rec {
		prim = micheline.ILambdaRec
	}
	return b.emitAt(loc, &Instr{Op: OpLambda, Ty: lt, Value: l},
		micheline.NewPrim(prim, arg.Node(), ret.Node(), l.Node), 0, lt)
}

// Failwith aborts the execution with the top as error.
func (b *Builder) Failwith() *Builder {
	if !b.need(OpFailwith, 1) {
		return b
	}
	if !b.stack[0].Packable() {
		return b.fail(OpFailwith, errors.Wrap(ErrNotPackable, b.stack[0].String()))
	}
	return b.emitFailing(&Instr{Op: OpFailwith}, micheline.NewPrim(micheline.IFailwith))
}

// Never consumes a value of type never.
func (b *Builder) Never() *Builder {
	if !b.kinds(OpNever, TNever) {
		return b
	}
	return b.emitFailing(&Instr{Op: OpNever}, micheline.NewPrim(micheline.INever))
}

// Compare compares the two top values of the same comparable type.
func (b *Builder) Compare() *Builder {
	if !b.need(OpCompare, 2) {
		return b
	}
	if !b.stack[0].Comparable() || !b.stack[0].Equal(b.stack[1]) {
		return b.fail(OpCompare, errors.Wrapf(ErrNotComparable, "%s and %s", b.stack[0], b.stack[1]))
	}
	return b.simple(OpCompare, 2, IntT)
}

func (b *Builder) cmpResult(op OpCode) *Builder {
	if !b.kinds(op, TInt) {
		return b
	}
	return b.simple(op, 1, BoolT)
}

// Eq tests the top int for zero.
func (b *Builder) Eq() *Builder { return b.cmpResult(OpEq) }

// Neq tests the top int for non zero.
func (b *Builder) Neq() *Builder { return b.cmpResult(OpNeq) }

// Lt tests the top int for negative.
func (b *Builder) Lt() *Builder { return b.cmpResult(OpLt) }

// Gt tests the top int for positive.
func (b *Builder) Gt() *Builder { return b.cmpResult(OpGt) }

// Le tests the top int for non positive.
func (b *Builder) Le() *Builder { return b.cmpResult(OpLe) }

// Ge tests the top int for non negative.
func (b *Builder) Ge() *Builder { return b.cmpResult(OpGe) }

// NewScript builds a contract from param and storage types. The body runs
// on pair param storage and must end with pair (list operation) storage.
func NewScript(param, storage *Ty, body func(*Builder)) (*Script, error) {
	if !param.Passable() || !storage.Storable() {
		return nil, errors.Wrapf(ErrInvalidValueForTy, "%s and %s cannot be parameter and storage", param, storage)
	}
	in, err := NewPairT(0, param, storage)
	if err != nil {
		return nil, err
	}
	ops, _ := NewListT(0, OperationT)
	out, err := NewPairT(0, ops, storage)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(in).WithSelf(param)
	body(b)
	code, err := b.Build()
	if err != nil {
		return nil, err
	}
	if code.After != nil && !code.After.Equal(StackTy{out}) {
		return nil, errors.Wrapf(ErrBadReturn, "code ends with %s", code.After)
	}
	return &Script{Param: param, Storage: storage, Code: code, Views: map[string]*View{}}, nil
}

// AddView adds a view running on pair input storage and returning output.
func (s *Script) AddView(name string, input, output *Ty, body func(*Builder)) error {
	if name == "" || len(name) > maxEntrypointSize {
		return errors.Wrap(ErrBadViewName, name)
	}
	in, err := NewPairT(0, input, s.Storage)
	if err != nil {
		return err
	}
	b := NewBuilder(in)
	body(b)
	code, err := b.Build()
	if err != nil {
		return err
	}
	if code.After != nil && !code.After.Equal(StackTy{output}) {
		return errors.Wrapf(ErrBadReturn, "view %s ends with %s", name, code.After)
	}
	s.Views[name] = &View{Name: name, Input: input, Output: output, Code: code}
	return nil
}

func sortedViewNames(views map[string]*View) []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// findEntrypoint returns the type of the named entrypoint of a parameter
// type and the path of or branches leading to it, true for right.
func findEntrypoint(param *Ty, name string) (*Ty, []bool, bool) {
	if name == "" || name == defaultEntrypoint {
		if t, path, ok := lookupEntrypoint(param, defaultEntrypoint, nil); ok {
			return t, path, true
		}
		return param, nil, true
	}
	return lookupEntrypoint(param, name, nil)
}

func lookupEntrypoint(t *Ty, name string, path []bool) (*Ty, []bool, bool) {
	if t.Annot == name {
		return t, path, true
	}
	if t.Kind != TOr {
		return nil, nil, false
	}
	if r, p, ok := lookupEntrypoint(t.Args[0], name, append(append([]bool{}, path...), false)); ok {
		return r, p, true
	}
	return lookupEntrypoint(t.Args[1], name, append(append([]bool{}, path...), true))
}

// wrapEntrypoint injects the argument of an entrypoint into the parameter.
func wrapEntrypoint(path []bool, v Value) Value {
	for i := len(path) - 1; i >= 0; i-- {
		v = Or{Right: path[i], V: v}
	}
	return v
}
