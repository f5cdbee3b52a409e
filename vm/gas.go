// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"
	"math/bits"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/micheline"
)

// Gas costs, in milligas
const (
	GasQuickStep   int64 = 10
	GasFastestStep int64 = 15
	GasFastStep    int64 = 35
	GasMidStep     int64 = 80
	GasSlowStep    int64 = 140
	GasExtStep     int64 = 300

	GasCollection    int64 = 50
	GasInterpCall    int64 = 1000
	GasViewCall      int64 = 1500
	GasTransfer      int64 = 60
	GasCreate        int64 = 60
	GasContractCheck int64 = 40
	GasUnpackBase    int64 = 260
	GasFailwith      int64 = 170
	GasTicket        int64 = 10
	GasSaplingVerify int64 = 10000
	GasOpenChest     int64 = 920000
	GasPairingBase   int64 = 450000
	GasPairingItem   int64 = 340000
)

// signature check costs per curve
var checkSignatureCosts = [...]int64{65800, 51600, 341000, 1570000}

type costFn func(i *Instr, st *Stack) gas.Cost

func constCost(n int64) costFn {
	c := gas.Milligas(n)
	return func(*Instr, *Stack) gas.Cost { return c }
}

// log2 returns the number of bits of n, 1 for 0.
func log2(n int) int64 {
	if n <= 0 {
		return 1
	}
	return int64(bits.Len(uint(n)))
}

func sizeOfInt(v Value) int {
	if x := bigOf(v); x != nil {
		return len(x.Bits()) * (bits.UintSize / 8)
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// arithmetic costs grow with the size of the operands
func addCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + int64(maxInt(sizeOfInt(st.Back(0)), sizeOfInt(st.Back(1))))/2)
}

func mulCost(i *Instr, st *Stack) gas.Cost {
	a, b := int64(sizeOfInt(st.Back(0))), int64(sizeOfInt(st.Back(1)))
	n := a + b
	return gas.Milligas(55 + n*log2(int(n))/2)
}

func edivCost(i *Instr, st *Stack) gas.Cost {
	a, b := int64(sizeOfInt(st.Back(0))), int64(sizeOfInt(st.Back(1)))
	return gas.Milligas(GasMidStep + a*b/4 + a)
}

func shiftCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + int64(sizeOfInt(st.Back(0)))/2)
}

func unaryIntCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + int64(sizeOfInt(st.Back(0)))/2)
}

// comparisons walk both operands
func compareCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + valueSize(st.Back(0))/2)
}

// valueSize estimates the number of bytes a comparable value occupies.
func valueSize(v Value) int64 {
	switch v := v.(type) {
	case Int, Nat, Timestamp:
		return int64(sizeOfInt(v))
	case String:
		return int64(len(v))
	case Bytes:
		return int64(len(v))
	case Signature:
		return int64(len(v))
	case Pair:
		return 1 + valueSize(v.L) + valueSize(v.R)
	case Or:
		return 1 + valueSize(v.V)
	case Option:
		if v.V != nil {
			return 1 + valueSize(v.V)
		}
		return 1
	case Address:
		return addressSize + int64(len(v.Entrypoint))
	case KeyHash:
		return 21
	case Key:
		return 1 + int64(len(v.Data))
	}
	return 8
}

// collection access costs are logarithmic in the collection size
func collectionCost(size int, key Value) gas.Cost {
	return gas.Milligas(GasCollection + log2(size)*(GasFastestStep+valueSize(key)/4))
}

func setMemCost(i *Instr, st *Stack) gas.Cost {
	return collectionCost(st.Back(1).(*Set).Len(), st.Back(0))
}

func setUpdateCost(i *Instr, st *Stack) gas.Cost {
	return collectionCost(st.Back(2).(*Set).Len(), st.Back(0)).Add(gas.Milligas(GasFastStep))
}

func mapAccessCost(i *Instr, st *Stack) gas.Cost {
	return collectionCost(st.Back(1).(*Map).Len(), st.Back(0))
}

func mapUpdateCost(i *Instr, st *Stack) gas.Cost {
	return collectionCost(st.Back(2).(*Map).Len(), st.Back(0)).Add(gas.Milligas(GasFastStep))
}

// big map accesses pay for hashing the key, the store is charged on read
func bigMapAccessCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasSlowStep + valueSize(st.Back(0))*2)
}

func bigMapUpdateCost(i *Instr, st *Stack) gas.Cost {
	return bigMapAccessCost(i, st).Add(collectionCost(st.Back(2).(*BigMap).Size(), st.Back(0)))
}

func iterCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasMidStep)
}

func concatPairCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + (valueSize(st.Back(0))+valueSize(st.Back(1)))/2)
}

func concatListCost(i *Instr, st *Stack) gas.Cost {
	l := st.Back(0).(*List)
	var total int64
	for c := l.head; c != nil; c = c.next {
		total += valueSize(c.v)
	}
	return gas.Milligas(GasFastStep + int64(l.Len())*GasQuickStep + total/2)
}

func sliceCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasFastStep + valueSize(st.Back(2))/2)
}

func hashCost(base, perByte int64) costFn {
	return func(i *Instr, st *Stack) gas.Cost {
		return gas.Milligas(base + valueSize(st.Back(0))*perByte)
	}
}

func checkSignatureCost(i *Instr, st *Stack) gas.Cost {
	k := st.Back(0).(Key)
	c := checkSignatureCosts[0]
	if int(k.Curve) < len(checkSignatureCosts) {
		c = checkSignatureCosts[k.Curve]
	}
	return gas.Milligas(c + valueSize(st.Back(2))*2)
}

func packCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasExtStep).Add(micheline.SerializationCost(Unparse(st.Back(0), Optimized)))
}

func unpackCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasUnpackBase).Add(micheline.DeserializationCostFromBytes(len(st.Back(0).(Bytes))))
}

func pairingCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasPairingBase + int64(st.Back(0).(*List).Len())*GasPairingItem)
}

func dropNCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasQuickStep + int64(i.W.Depth())*2)
}

func depthCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasQuickStep + int64(i.W.Depth())*3)
}

func ticketSplitCost(i *Instr, st *Stack) gas.Cost {
	return gas.Milligas(GasSlowStep + valueSize(st.Back(1))*2)
}

func joinTicketsCost(i *Instr, st *Stack) gas.Cost {
	p := st.Back(0).(Pair)
	return gas.Milligas(GasSlowStep + valueSize(p.L.(*Ticket).Contents))
}

func openChestCost(i *Instr, st *Stack) gas.Cost {
	c := st.Back(1).(Chest)
	return gas.Milligas(GasOpenChest + int64(len(c.Ciphertext))*3)
}

// continuation costs
var (
	costKCons   = gas.Milligas(GasQuickStep)
	costKReturn = gas.Milligas(GasQuickStep)
	costKUndip  = gas.Milligas(GasQuickStep)
	costKLoop   = gas.Milligas(GasQuickStep)
	costKIter   = gas.Milligas(GasFastestStep)
	costKMap    = gas.Milligas(GasFastStep)
	costKView   = gas.Milligas(GasQuickStep)
)

// bigOf returns the integer of an int, nat or timestamp value.
func bigOf(v Value) *big.Int {
	switch v := v.(type) {
	case Int:
		return v.V
	case Nat:
		return v.V
	case Timestamp:
		return v.V
	}
	return nil
}
