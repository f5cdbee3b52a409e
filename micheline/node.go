// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package micheline implements the canonical tree expression used to persist
and exchange values, types and code, together with its binary encoding and
the cost model of decoding it.
*/
package micheline

import (
	"math/big"
)

// Node is a micheline expression: Int, String, Bytes, *Prim or Seq.
type Node interface {
	node()
}

// Int is an arbitrary precision integer literal.
type Int struct {
	V *big.Int
}

// String is a string literal.
type String struct {
	V string
}

// Bytes is a bytes literal.
type Bytes struct {
	V []byte
}

// Prim is a primitive application with optional annotations.
type Prim struct {
	Prim   PrimCode
	Args   []Node
	Annots []string
}

// Seq is a sequence of expressions.
type Seq []Node

func (Int) node()    {}
func (String) node() {}
func (Bytes) node()  {}
func (*Prim) node()  {}
func (Seq) node()    {}

// NewInt creates an int literal.
func NewInt(v int64) Int { return Int{V: big.NewInt(v)} }

// NewPrim creates a primitive application.
func NewPrim(p PrimCode, args ...Node) *Prim {
	return &Prim{Prim: p, Args: args}
}

// WithAnnots returns a copy of p carrying annots.
func (p *Prim) WithAnnots(annots ...string) *Prim {
	cp := *p
	cp.Annots = annots
	return &cp
}

// StripAnnotations returns n with every annotation removed.
func StripAnnotations(n Node) Node {
	switch n := n.(type) {
	case *Prim:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = StripAnnotations(a)
		}
		return &Prim{Prim: n.Prim, Args: args}
	case Seq:
		out := make(Seq, len(n))
		for i, a := range n {
			out[i] = StripAnnotations(a)
		}
		return out
	default:
		return n
	}
}

// Equal checks structural equality of two expressions.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case Int:
		b, ok := b.(Int)
		return ok && a.V.Cmp(b.V) == 0
	case String:
		b, ok := b.(String)
		return ok && a.V == b.V
	case Bytes:
		b, ok := b.(Bytes)
		return ok && string(a.V) == string(b.V)
	case *Prim:
		b, ok := b.(*Prim)
		if !ok || a.Prim != b.Prim || len(a.Args) != len(b.Args) || len(a.Annots) != len(b.Annots) {
			return false
		}
		for i := range a.Annots {
			if a.Annots[i] != b.Annots[i] {
				return false
			}
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case Seq:
		b, ok := b.(Seq)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	return false
}
