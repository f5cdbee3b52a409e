// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

import (
	"github.com/BOXFoundation/tzvm/gas"
)

// Footprint is the in-memory size estimate of a decoded expression.
type Footprint struct {
	Nodes       int64
	StringBytes int64
	ZBytes      int64
}

// Add sums two footprints.
func (f Footprint) Add(o Footprint) Footprint {
	return Footprint{f.Nodes + o.Nodes, f.StringBytes + o.StringBytes, f.ZBytes + o.ZBytes}
}

// Measure walks n and returns its footprint.
func Measure(n Node) Footprint {
	switch n := n.(type) {
	case Int:
		return Footprint{Nodes: 1, ZBytes: int64(len(n.V.Bits())) * 8}
	case String:
		return Footprint{Nodes: 1, StringBytes: int64(len(n.V))}
	case Bytes:
		return Footprint{Nodes: 1, StringBytes: int64(len(n.V))}
	case Seq:
		f := Footprint{Nodes: 1}
		for _, item := range n {
			f = f.Add(Measure(item))
		}
		return f
	case *Prim:
		f := Footprint{Nodes: 1}
		for _, a := range n.Annots {
			f.StringBytes += int64(len(a))
		}
		for _, a := range n.Args {
			f = f.Add(Measure(a))
		}
		return f
	}
	return Footprint{}
}

// decoding cost coefficients, in milligas
const (
	costPerEncodedByte = 20
	costPerNode        = 100
	costPerStringByte  = 10
	costPerZByte       = 10
)

// DeserializationCostFromBytes estimates the cost of decoding length bytes,
// charged before decoding.
func DeserializationCostFromBytes(length int) gas.Cost {
	return gas.Milligas(costPerEncodedByte).Mul(int64(length))
}

// Cost returns the cost of allocating a decoded tree of this footprint.
func (f Footprint) Cost() gas.Cost {
	return gas.Milligas(costPerNode).Mul(f.Nodes).
		Add(gas.Milligas(costPerStringByte).Mul(f.StringBytes)).
		Add(gas.Milligas(costPerZByte).Mul(f.ZBytes))
}

// SerializationCost returns the cost of encoding n.
func SerializationCost(n Node) gas.Cost {
	return Measure(n).Cost()
}
