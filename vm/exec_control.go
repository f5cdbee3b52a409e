// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
)

func execDrop(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.pop()
	return i.Next, k, nil
}

func execDropN(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.data = st.data[:st.len()-i.W.Depth()]
	return i.Next, k, nil
}

func execDup(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(st.peek())
	return i.Next, k, nil
}

func execDupN(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(st.Back(i.W.Depth()))
	return i.Next, k, nil
}

func execSwap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.swap(2)
	return i.Next, k, nil
}

func execDig(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.dig(i.W.Depth())
	return i.Next, k, nil
}

func execDug(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.dug(i.W.Depth())
	return i.Next, k, nil
}

func execConst(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(i.Value)
	return i.Next, k, nil
}

func execDip(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	saved := []Value{st.pop()}
	return i.Body, &KUndip{Saved: saved, K: then(i.Next, k)}, nil
}

func execDipN(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	n := i.W.Depth()
	if n == 0 {
		return i.Body, then(i.Next, k), nil
	}
	return i.Body, &KUndip{Saved: st.popN(n), K: then(i.Next, k)}, nil
}

func execConsPair(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	l := st.pop()
	st.replace(Pair{l, st.peek()})
	return i.Next, k, nil
}

func execCar(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(st.peek().(Pair).L)
	return i.Next, k, nil
}

func execCdr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(st.peek().(Pair).R)
	return i.Next, k, nil
}

func execUnpair(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	p := st.peek().(Pair)
	st.replace(p.R)
	st.push(p.L)
	return i.Next, k, nil
}

func execComb(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	c := i.W.(*Comb)
	st.push(c.fold(st.popN(c.Depth())))
	return i.Next, k, nil
}

func execUncomb(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	items := i.W.(*Comb).unfold(st.pop())
	for j := len(items) - 1; j >= 0; j-- {
		st.push(items[j])
	}
	return i.Next, k, nil
}

func execCombGet(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(i.W.(*CombPath).get(st.peek()))
	return i.Next, k, nil
}

func execCombSet(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	v := st.pop()
	st.replace(i.W.(*CombPath).set(st.peek(), v))
	return i.Next, k, nil
}

func execConsSome(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Some(st.peek()))
	return i.Next, k, nil
}

func execConsNone(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(None)
	return i.Next, k, nil
}

func execIfNone(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	o := st.pop().(Option)
	if o.IsNone() {
		return i.Body, then(i.Next, k), nil
	}
	st.push(o.V)
	return i.Else, then(i.Next, k), nil
}

func execOptMap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	o := st.peek().(Option)
	if o.IsNone() {
		return i.Next, k, nil
	}
	st.replace(o.V)
	return i.Body, &KMapHead{F: someOf, K: then(i.Next, k)}, nil
}

func execConsLeft(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Left(st.peek()))
	return i.Next, k, nil
}

func execConsRight(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Right(st.peek()))
	return i.Next, k, nil
}

func execIfLeft(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	o := st.peek().(Or)
	st.replace(o.V)
	if o.Right {
		return i.Else, then(i.Next, k), nil
	}
	return i.Body, then(i.Next, k), nil
}

func execConsList(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	st.replace(st.peek().(*List).Cons(x))
	return i.Next, k, nil
}

func execNil(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(NewList())
	return i.Next, k, nil
}

func execIfCons(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	hd, tl, ok := st.pop().(*List).Uncons()
	if !ok {
		return i.Else, then(i.Next, k), nil
	}
	st.push(tl)
	st.push(hd)
	return i.Body, then(i.Next, k), nil
}

func execListMap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	l := st.pop().(*List)
	return nil, &KListEnterBody{Body: i.Body, Xs: l.Items(), Ys: make([]Value, 0, l.Len()), K: then(i.Next, k)}, nil
}

func execListIter(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, &KIter{Body: i.Body, Items: st.pop().(*List).Items(), K: then(i.Next, k)}, nil
}

func execListSize(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(NewNat(int64(st.peek().(*List).Len())))
	return i.Next, k, nil
}

func execEmptySet(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(NewSet(i.Ty))
	return i.Next, k, nil
}

func execSetIter(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, &KIter{Body: i.Body, Items: st.pop().(*Set).Items(), K: then(i.Next, k)}, nil
}

func execSetMem(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	st.replace(Bool(st.peek().(*Set).Mem(x)))
	return i.Next, k, nil
}

func execSetUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, present := st.pop(), st.pop().(Bool)
	st.replace(st.peek().(*Set).Update(x, bool(present)))
	return i.Next, k, nil
}

func execSetSize(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(NewNat(int64(st.peek().(*Set).Len())))
	return i.Next, k, nil
}

func execEmptyMap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(NewMap(i.Ty, i.Ty2))
	return i.Next, k, nil
}

func execMapMap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	m := st.pop().(*Map)
	ys := NewMap(i.Ty.Args[0], i.Ty.Args[1])
	return nil, &KMapEnterBody{Body: i.Body, Xs: m.Items(), Ys: ys, K: then(i.Next, k)}, nil
}

func execMapIter(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	entries := st.pop().(*Map).Items()
	items := make([]Value, len(entries))
	for j, e := range entries {
		items[j] = Pair{e.Key, e.Value}
	}
	return nil, &KIter{Body: i.Body, Items: items, K: then(i.Next, k)}, nil
}

func execMapMem(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	st.replace(Bool(st.peek().(*Map).Mem(x)))
	return i.Next, k, nil
}

func execMapGet(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	v, _ := st.peek().(*Map).Get(x)
	st.replace(Option{V: v})
	return i.Next, k, nil
}

func execMapUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, o := st.pop(), st.pop().(Option)
	st.replace(st.peek().(*Map).Update(x, o.V))
	return i.Next, k, nil
}

func execMapGetAndUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, o := st.pop(), st.pop().(Option)
	m := st.peek().(*Map)
	old, _ := m.Get(x)
	st.replace(m.Update(x, o.V))
	st.push(Option{V: old})
	return i.Next, k, nil
}

func execMapSize(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(NewNat(int64(st.peek().(*Map).Len())))
	return i.Next, k, nil
}

func execEmptyBigMap(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(NewBigMap(i.Ty, i.Ty2))
	return i.Next, k, nil
}

func execBigMapMem(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	ok, err := in.bigMapMem(st.peek().(*BigMap), x)
	if err != nil {
		return nil, nil, err
	}
	st.replace(Bool(ok))
	return i.Next, k, nil
}

func execBigMapGet(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := st.pop()
	v, err := in.bigMapGet(st.peek().(*BigMap), x)
	if err != nil {
		return nil, nil, err
	}
	st.replace(Option{V: v})
	return i.Next, k, nil
}

func bigMapKeyHash(key Value) crypto.HashType {
	return lazystorage.KeyHash(Unparse(key, Optimized))
}

func bigMapSet(m *BigMap, key Value, v Value) *BigMap {
	return m.update(BigMapEntry{KeyHash: bigMapKeyHash(key), Key: key, Value: v})
}

func execBigMapUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, o := st.pop(), st.pop().(Option)
	st.replace(bigMapSet(st.peek().(*BigMap), x, o.V))
	return i.Next, k, nil
}

func execBigMapGetAndUpdate(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, o := st.pop(), st.pop().(Option)
	m := st.peek().(*BigMap)
	old, err := in.bigMapGet(m, x)
	if err != nil {
		return nil, nil, err
	}
	st.replace(bigMapSet(m, x, o.V))
	st.push(Option{V: old})
	return i.Next, k, nil
}

func execIf(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	if st.pop().(Bool) {
		return i.Body, then(i.Next, k), nil
	}
	return i.Else, then(i.Next, k), nil
}

func execLoop(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, &KLoopIn{Body: i.Body, K: then(i.Next, k)}, nil
}

func execLoopLeft(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, &KLoopInLeft{Body: i.Body, K: then(i.Next, k)}, nil
}

// call saves the stack below the n top items and runs code on them.
func (in *Interpreter) call(code *Instr, n int, next Cont, st *Stack) (*Instr, Cont, error) {
	rest := st.len() - n
	saved := append([]Value(nil), st.data[:rest]...)
	st.data = append(st.data[:0], st.data[rest:]...)
	in.depth++
	return code, &KReturn{Saved: saved, K: next}, nil
}

func execExec(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	arg := st.pop()
	l := st.pop().(*Lambda)
	st.push(arg)
	if l.Rec {
		st.replace(l)
		st.push(arg)
		return in.call(l.Code, 2, then(i.Next, k), st)
	}
	return in.call(l.Code, 1, then(i.Next, k), st)
}

// applyLambda partially applies l to v of type t: the new lambda pushes v
// and pairs it with its argument before running l.
func applyLambda(l *Lambda, t *Ty, v Value) (*Lambda, error) {
	arg := l.Arg.Args[1]
	ft, err := NewLambdaT(0, l.Arg, l.Ret)
	if err != nil {
		return nil, err
	}
	push := &Instr{Op: OpConst, Ty: t, Value: v, Info: KInfo{Stack: StackTy{arg}}}
	pair := &Instr{Op: OpConsPair, Info: KInfo{Stack: StackTy{t, arg}}}
	push.Next = pair
	node := micheline.Seq{
		micheline.NewPrim(micheline.IPush, t.Node(), Unparse(v, Optimized)),
		micheline.NewPrim(micheline.IPair),
	}
	if !l.Rec {
		pair.Next = l.Code
		if seq, ok := l.Node.(micheline.Seq); ok {
			node = append(node, seq...)
		} else {
			node = append(node, l.Node)
		}
		return &Lambda{Arg: arg, Ret: l.Ret, Code: push, Node: node}, nil
	}
	self := &Instr{Op: OpConst, Ty: ft, Value: l, Info: KInfo{Stack: StackTy{l.Arg}}}
	swap := &Instr{Op: OpSwap, Info: KInfo{Stack: StackTy{ft, l.Arg}}}
	exec := &Instr{Op: OpExec, Info: KInfo{Stack: StackTy{l.Arg, ft}}}
	halt := &Instr{Op: OpHalt, Info: KInfo{Stack: StackTy{l.Ret}}}
	pair.Next, self.Next, swap.Next, exec.Next = self, swap, exec, halt
	node = append(node,
		micheline.NewPrim(micheline.ILambdaRec, l.Arg.Node(), l.Ret.Node(), l.Node),
		micheline.NewPrim(micheline.ISwap),
		micheline.NewPrim(micheline.IExec))
	return &Lambda{Arg: arg, Ret: l.Ret, Code: push, Node: node}, nil
}

func execApply(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	v := st.pop()
	l, err := applyLambda(st.peek().(*Lambda), i.Ty, v)
	if err != nil {
		return nil, nil, err
	}
	st.replace(l)
	return i.Next, k, nil
}

func execLambda(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.push(i.Value)
	return i.Next, k, nil
}

func execFailwith(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, nil, &RejectError{Loc: i.Info.Loc, Value: Unparse(st.peek(), Optimized)}
}

func execNever(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, nil, ErrUnreachable
}

func execCompare(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop()
	st.replace(NewInt(int64(Compare(a, st.peek()))))
	return i.Next, k, nil
}

func cmpResult(st *Stack, f func(int) bool) {
	st.replace(Bool(f(st.peek().(Int).V.Sign())))
}

func execEq(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s == 0 })
	return i.Next, k, nil
}

func execNeq(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s != 0 })
	return i.Next, k, nil
}

func execLt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s < 0 })
	return i.Next, k, nil
}

func execGt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s > 0 })
	return i.Next, k, nil
}

func execLe(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s <= 0 })
	return i.Next, k, nil
}

func execGe(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	cmpResult(st, func(s int) bool { return s >= 0 })
	return i.Next, k, nil
}
