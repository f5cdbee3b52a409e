// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/BOXFoundation/tzvm/gas"
)

// Cont is the rest of the computation once the running instruction
// sequence halts. Frames are linked through their K field and the chain
// ends with KNil, so the interpreter never recurses on the native stack.
type Cont interface {
	cont()
}

type (
	// KNil ends the execution.
	KNil struct{}
	// KCons runs I, then K.
	KCons struct {
		I *Instr
		K Cont
	}
	// KReturn restores the stack saved by EXEC or VIEW below the result.
	KReturn struct {
		Saved []Value
		K     Cont
	}
	// KUndip pushes back the items hidden by DIP, top first.
	KUndip struct {
		Saved []Value
		K     Cont
	}
	// KLoopIn runs Body again while the top is true.
	KLoopIn struct {
		Body *Instr
		K    Cont
	}
	// KLoopInLeft runs Body on Left values until the top is Right.
	KLoopInLeft struct {
		Body *Instr
		K    Cont
	}
	// KIter runs Body on each of Items.
	KIter struct {
		Body  *Instr
		Items []Value
		K     Cont
	}
	// KListEnterBody runs Body on the next of Xs, Ys are the results so far.
	KListEnterBody struct {
		Body   *Instr
		Xs, Ys []Value
		K      Cont
	}
	// KListExitBody collects the result of Body.
	KListExitBody struct {
		Body   *Instr
		Xs, Ys []Value
		K      Cont
	}
	// KMapEnterBody runs Body on the next binding of Xs.
	KMapEnterBody struct {
		Body *Instr
		Xs   []MapEntry
		Ys   *Map
		K    Cont
	}
	// KMapExitBody binds Key to the result of Body.
	KMapExitBody struct {
		Body *Instr
		Xs   []MapEntry
		Ys   *Map
		Key  Value
		K    Cont
	}
	// KMapHead transforms the top with F.
	KMapHead struct {
		F func(Value) Value
		K Cont
	}
	// KView restores the step constants changed by VIEW.
	KView struct {
		Saved *StepConstants
		K     Cont
	}
)

func (KNil) cont()            {}
func (*KCons) cont()          {}
func (*KReturn) cont()        {}
func (*KUndip) cont()         {}
func (*KLoopIn) cont()        {}
func (*KLoopInLeft) cont()    {}
func (*KIter) cont()          {}
func (*KListEnterBody) cont() {}
func (*KListExitBody) cont()  {}
func (*KMapEnterBody) cont()  {}
func (*KMapExitBody) cont()   {}
func (*KMapHead) cont()       {}
func (*KView) cont()          {}

// then runs i before k, skipping trailing halts.
func then(i *Instr, k Cont) Cont {
	if i == nil || i.Op == OpHalt {
		return k
	}
	return &KCons{I: i, K: k}
}

func someOf(v Value) Value { return Some(v) }

func contCost(k Cont) gas.Cost {
	switch k.(type) {
	case *KCons:
		return costKCons
	case *KReturn:
		return costKReturn
	case *KUndip:
		return costKUndip
	case *KLoopIn, *KLoopInLeft:
		return costKLoop
	case *KIter:
		return costKIter
	case *KListEnterBody, *KListExitBody, *KMapEnterBody, *KMapExitBody, *KMapHead:
		return costKMap
	case *KView:
		return costKView
	}
	return 0
}

// resume pops the top frame of k against st. It returns the next
// instruction to run, or nil when the execution is over.
func (in *Interpreter) resume(k Cont, st *Stack) (*Instr, Cont, error) {
	if err := in.ctxt.Consume(contCost(k)); err != nil {
		return nil, nil, err
	}
	if in.logger != nil {
		in.logger.Control(k, st)
	}
	switch k := k.(type) {
	case KNil:
		return nil, nil, nil
	case *KCons:
		return k.I, k.K, nil
	case *KReturn:
		in.depth--
		st.data = append(append(make([]Value, 0, len(k.Saved)+st.len()), k.Saved...), st.data...)
		return nil, k.K, nil
	case *KUndip:
		for j := len(k.Saved) - 1; j >= 0; j-- {
			st.push(k.Saved[j])
		}
		return nil, k.K, nil
	case *KLoopIn:
		if st.pop().(Bool) {
			return k.Body, k, nil
		}
		return nil, k.K, nil
	case *KLoopInLeft:
		v := st.pop().(Or)
		st.push(v.V)
		if !v.Right {
			return k.Body, k, nil
		}
		return nil, k.K, nil
	case *KIter:
		if len(k.Items) == 0 {
			return nil, k.K, nil
		}
		st.push(k.Items[0])
		return k.Body, &KIter{Body: k.Body, Items: k.Items[1:], K: k.K}, nil
	case *KListEnterBody:
		if len(k.Xs) == 0 {
			st.push(NewList(k.Ys...))
			return nil, k.K, nil
		}
		st.push(k.Xs[0])
		return k.Body, &KListExitBody{Body: k.Body, Xs: k.Xs[1:], Ys: k.Ys, K: k.K}, nil
	case *KListExitBody:
		ys := append(k.Ys, st.pop())
		return nil, &KListEnterBody{Body: k.Body, Xs: k.Xs, Ys: ys, K: k.K}, nil
	case *KMapEnterBody:
		if len(k.Xs) == 0 {
			st.push(k.Ys)
			return nil, k.K, nil
		}
		e := k.Xs[0]
		st.push(Pair{e.Key, e.Value})
		return k.Body, &KMapExitBody{Body: k.Body, Xs: k.Xs[1:], Ys: k.Ys, Key: e.Key, K: k.K}, nil
	case *KMapExitBody:
		ys := k.Ys.Update(k.Key, st.pop())
		return nil, &KMapEnterBody{Body: k.Body, Xs: k.Xs, Ys: ys, K: k.K}, nil
	case *KMapHead:
		st.replace(k.F(st.peek()))
		return nil, k.K, nil
	case *KView:
		in.step = k.Saved
		return nil, k.K, nil
	}
	return nil, nil, ErrUnreachable
}
