// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

// Witness is the operand of the instructions working at a depth of the
// stack or inside a right comb. The builder derives it once from the stack
// type and the executor replays it.
type Witness interface {
	// Depth is the number of stack slots or comb items spanned.
	Depth() int
	check(st *Stack) bool
}

// StackPrefix types the slots DIG, DUG, DIP n, DROP n and DUP n pass
// over, top first, starting Offset slots below the top.
type StackPrefix struct {
	Offset int
	Types  StackTy
}

// Depth implements Witness.
func (p *StackPrefix) Depth() int { return len(p.Types) }

func (p *StackPrefix) check(st *Stack) bool {
	if st.len() < p.Offset+len(p.Types) {
		return false
	}
	for j, t := range p.Types {
		if !HasType(st.Back(p.Offset+j), t) {
			return false
		}
	}
	return true
}

// Comb types the items of the right comb PAIR n builds or UNPAIR n
// splits, leftmost first. Folded is set when the comb is the top value.
type Comb struct {
	Items  StackTy
	Folded bool
}

// Depth implements Witness.
func (c *Comb) Depth() int { return len(c.Items) }

func (c *Comb) check(st *Stack) bool {
	if !c.Folded {
		return (&StackPrefix{Types: c.Items}).check(st)
	}
	if st.len() < 1 {
		return false
	}
	v := st.Back(0)
	last := len(c.Items) - 1
	for _, t := range c.Items[:last] {
		p, ok := v.(Pair)
		if !ok || !HasType(p.L, t) {
			return false
		}
		v = p.R
	}
	return HasType(v, c.Items[last])
}

// fold builds the comb from its items.
func (c *Comb) fold(items []Value) Value {
	return NewPair(items...)
}

// unfold splits v into its items, leftmost first.
func (c *Comb) unfold(v Value) []Value {
	items := make([]Value, 0, len(c.Items))
	for n := 1; n < len(c.Items); n++ {
		p := v.(Pair)
		items, v = append(items, p.L), p.R
	}
	return append(items, v)
}

// CombPath leads to slot Slot of the right comb found At a stack slot,
// for GET n and UPDATE n: Rights right steps, then a left one when Left
// is set. Ty is the type of the slot.
type CombPath struct {
	Slot   int
	Rights int
	Left   bool
	At     int
	Ty     *Ty
}

func newCombPath(slot, at int, t *Ty) *CombPath {
	return &CombPath{Slot: slot, Rights: slot / 2, Left: slot%2 == 1, At: at, Ty: t}
}

// Depth implements Witness.
func (c *CombPath) Depth() int { return c.Slot }

func (c *CombPath) check(st *Stack) bool {
	if st.len() <= c.At {
		return false
	}
	v := st.Back(c.At)
	for r := 0; r < c.Rights; r++ {
		p, ok := v.(Pair)
		if !ok {
			return false
		}
		v = p.R
	}
	if c.Left {
		p, ok := v.(Pair)
		if !ok {
			return false
		}
		v = p.L
	}
	return HasType(v, c.Ty)
}

func (c *CombPath) get(v Value) Value {
	for r := 0; r < c.Rights; r++ {
		v = v.(Pair).R
	}
	if c.Left {
		v = v.(Pair).L
	}
	return v
}

func (c *CombPath) set(comb Value, v Value) Value {
	return c.setFrom(comb, c.Rights, v)
}

func (c *CombPath) setFrom(comb Value, rights int, v Value) Value {
	if rights > 0 {
		p := comb.(Pair)
		return Pair{p.L, c.setFrom(p.R, rights-1, v)}
	}
	if c.Left {
		return Pair{v, comb.(Pair).R}
	}
	return v
}
