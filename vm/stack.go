// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"strings"

	"github.com/BOXFoundation/tzvm/micheline"
)

// Stack is the runtime stack. The top is the last item of data. Items are
// immutable values, so they are shared rather than copied.
type Stack struct {
	data []Value
}

func newstack(items ...Value) *Stack {
	st := &Stack{data: make([]Value, 0, 64)}
	for i := len(items) - 1; i >= 0; i-- {
		st.push(items[i])
	}
	return st
}

// Data returns the items, top first.
func (st *Stack) Data() []Value {
	out := make([]Value, len(st.data))
	for i, v := range st.data {
		out[len(st.data)-1-i] = v
	}
	return out
}

func (st *Stack) push(v Value) {
	st.data = append(st.data, v)
}

func (st *Stack) pop() (ret Value) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

// popN removes the n top items and returns them, top first.
func (st *Stack) popN(n int) []Value {
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = st.pop()
	}
	return out
}

func (st *Stack) len() int {
	return len(st.data)
}

func (st *Stack) swap(n int) {
	st.data[st.len()-n], st.data[st.len()-1] = st.data[st.len()-1], st.data[st.len()-n]
}

func (st *Stack) peek() Value {
	return st.data[st.len()-1]
}

func (st *Stack) replace(v Value) {
	st.data[st.len()-1] = v
}

// Back returns the n'th item in stack
func (st *Stack) Back(n int) Value {
	return st.data[st.len()-n-1]
}

// dig moves the n'th item to the top.
func (st *Stack) dig(n int) {
	i := st.len() - n - 1
	v := st.data[i]
	copy(st.data[i:], st.data[i+1:])
	st.data[st.len()-1] = v
}

// dug moves the top item down to depth n.
func (st *Stack) dug(n int) {
	i := st.len() - n - 1
	v := st.data[st.len()-1]
	copy(st.data[i+1:], st.data[i:st.len()-1])
	st.data[i] = v
}

func (st *Stack) require(n int) error {
	if st.len() < n {
		return fmt.Errorf("stack underflow (%d <=> %d)", len(st.data), n)
	}
	return nil
}

// String dumps the content of the stack, top first.
func (st *Stack) String() string {
	if len(st.data) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(st.data))
	for i := len(st.data) - 1; i >= 0; i-- {
		parts = append(parts, micheline.Format(Unparse(st.data[i], Readable)))
	}
	return "[ " + strings.Join(parts, " : ") + " ]"
}

// matches checks the items against a stack type.
func (st *Stack) matches(s StackTy) bool {
	if st.len() != len(s) {
		return false
	}
	for i, t := range s {
		if !HasType(st.Back(i), t) {
			return false
		}
	}
	return true
}
