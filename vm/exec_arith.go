// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// maxShift bounds the shift amount of LSL and LSR.
const maxShift = 256

var (
	bigMaxMutez = big.NewInt(math.MaxInt64)
	bigMaxShift = big.NewInt(maxShift)
)

// binInt pops two integers, top first.
func binInt(st *Stack) (*big.Int, *big.Int) {
	a := bigOf(st.pop())
	return a, bigOf(st.peek())
}

func execAddInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Int{new(big.Int).Add(a, b)})
	return i.Next, k, nil
}

func execAddNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).Add(a, b)})
	return i.Next, k, nil
}

func execSubInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Int{new(big.Int).Sub(a, b)})
	return i.Next, k, nil
}

func execMulInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Int{new(big.Int).Mul(a, b)})
	return i.Next, k, nil
}

func execMulNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).Mul(a, b)})
	return i.Next, k, nil
}

// edivBig is the euclidean division: the remainder is never negative.
func edivBig(a, b *big.Int) (q, r *big.Int, ok bool) {
	if b.Sign() == 0 {
		return nil, nil, false
	}
	q, r = new(big.Int).DivMod(a, b, new(big.Int))
	return q, r, true
}

func execEdivInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	q, r, ok := edivBig(a, b)
	if !ok {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(Pair{Int{q}, Nat{r}}))
	return i.Next, k, nil
}

func execEdivNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	q, r, ok := edivBig(a, b)
	if !ok {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(Pair{Nat{q}, Nat{r}}))
	return i.Next, k, nil
}

func execAbsInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Nat{new(big.Int).Abs(bigOf(st.peek()))})
	return i.Next, k, nil
}

func execIsNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x := bigOf(st.peek())
	if x.Sign() < 0 {
		st.replace(None)
	} else {
		st.replace(Some(Nat{x}))
	}
	return i.Next, k, nil
}

func execNeg(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Int{new(big.Int).Neg(bigOf(st.peek()))})
	return i.Next, k, nil
}

func execIntNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Int{bigOf(st.peek())})
	return i.Next, k, nil
}

func shiftAmount(i *Instr, s *big.Int) (uint, error) {
	if s.Cmp(bigMaxShift) > 0 {
		return 0, &OverflowError{Loc: i.Info.Loc}
	}
	return uint(s.Uint64()), nil
}

func execLslNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, s := binInt(st)
	n, err := shiftAmount(i, s)
	if err != nil {
		return nil, nil, err
	}
	st.replace(Nat{new(big.Int).Lsh(x, n)})
	return i.Next, k, nil
}

func execLsrNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	x, s := binInt(st)
	n, err := shiftAmount(i, s)
	if err != nil {
		return nil, nil, err
	}
	st.replace(Nat{new(big.Int).Rsh(x, n)})
	return i.Next, k, nil
}

func execOrNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).Or(a, b)})
	return i.Next, k, nil
}

func execAndNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).And(a, b)})
	return i.Next, k, nil
}

// execAndIntNat masks a nat with an int in two's complement.
func execAndIntNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).And(a, b)})
	return i.Next, k, nil
}

func execXorNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Nat{new(big.Int).Xor(a, b)})
	return i.Next, k, nil
}

func execNotInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Int{new(big.Int).Not(bigOf(st.peek()))})
	return i.Next, k, nil
}

func execOr(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Bool)
	st.replace(a || st.peek().(Bool))
	return i.Next, k, nil
}

func execAnd(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Bool)
	st.replace(a && st.peek().(Bool))
	return i.Next, k, nil
}

func execXor(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Bool)
	st.replace(Bool(a != st.peek().(Bool)))
	return i.Next, k, nil
}

func execNot(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(!st.peek().(Bool))
	return i.Next, k, nil
}

// execAddTimestamp adds seconds to a timestamp, in either order.
func execAddTimestamp(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Timestamp{new(big.Int).Add(a, b)})
	return i.Next, k, nil
}

func execSubTimestampSeconds(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Timestamp{new(big.Int).Sub(a, b)})
	return i.Next, k, nil
}

func execDiffTimestamps(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binInt(st)
	st.replace(Int{new(big.Int).Sub(a, b)})
	return i.Next, k, nil
}

func binTez(st *Stack) (Mutez, Mutez) {
	a := st.pop().(Mutez)
	return a, st.peek().(Mutez)
}

func execAddTez(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binTez(st)
	if a > math.MaxInt64-b {
		return nil, nil, &OverflowError{Loc: i.Info.Loc}
	}
	st.replace(a + b)
	return i.Next, k, nil
}

func execSubTez(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binTez(st)
	if a < b {
		st.replace(None)
	} else {
		st.replace(Some(a - b))
	}
	return i.Next, k, nil
}

func execSubTezLegacy(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binTez(st)
	if a < b {
		return nil, nil, errors.Wrapf(ErrTezUnderflow, "%d - %d at %d", a, b, i.Info.Loc)
	}
	st.replace(a - b)
	return i.Next, k, nil
}

func mulTez(i *Instr, t Mutez, n *big.Int) (Mutez, error) {
	p := new(big.Int).Mul(big.NewInt(int64(t)), n)
	if p.Cmp(bigMaxMutez) > 0 {
		return 0, &OverflowError{Loc: i.Info.Loc}
	}
	return Mutez(p.Int64()), nil
}

func execMulTezNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	t := st.pop().(Mutez)
	p, err := mulTez(i, t, bigOf(st.peek()))
	if err != nil {
		return nil, nil, err
	}
	st.replace(p)
	return i.Next, k, nil
}

func execMulNatTez(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	n := bigOf(st.pop())
	p, err := mulTez(i, st.peek().(Mutez), n)
	if err != nil {
		return nil, nil, err
	}
	st.replace(p)
	return i.Next, k, nil
}

func execEdivTezNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	t := st.pop().(Mutez)
	q, r, ok := edivBig(big.NewInt(int64(t)), bigOf(st.peek()))
	if !ok {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(Pair{Mutez(q.Int64()), Mutez(r.Int64())}))
	return i.Next, k, nil
}

func execEdivTez(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a, b := binTez(st)
	if b == 0 {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(Pair{NewNat(int64(a / b)), a % b}))
	return i.Next, k, nil
}

func execConcatString(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	var sb strings.Builder
	for _, v := range st.peek().(*List).Items() {
		sb.WriteString(string(v.(String)))
	}
	st.replace(String(sb.String()))
	return i.Next, k, nil
}

func execConcatStringPair(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(String)
	st.replace(a + st.peek().(String))
	return i.Next, k, nil
}

// sliceBounds pops offset and length and checks them against size.
func sliceBounds(st *Stack, size int) (int, int, bool) {
	off, n := bigOf(st.pop()), bigOf(st.pop())
	end := new(big.Int).Add(off, n)
	if !end.IsInt64() || end.Int64() > int64(size) {
		return 0, 0, false
	}
	return int(off.Int64()), int(end.Int64()), true
}

func execSliceString(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	s := st.Back(2).(String)
	off, end, ok := sliceBounds(st, len(s))
	if !ok {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(s[off:end]))
	return i.Next, k, nil
}

func execStringSize(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(NewNat(int64(len(st.peek().(String)))))
	return i.Next, k, nil
}

func execConcatBytes(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	var out []byte
	for _, v := range st.peek().(*List).Items() {
		out = append(out, v.(Bytes)...)
	}
	st.replace(Bytes(out))
	return i.Next, k, nil
}

func execConcatBytesPair(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	a := st.pop().(Bytes)
	b := st.peek().(Bytes)
	out := make([]byte, 0, len(a)+len(b))
	st.replace(Bytes(append(append(out, a...), b...)))
	return i.Next, k, nil
}

func execSliceBytes(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	b := st.Back(2).(Bytes)
	off, end, ok := sliceBounds(st, len(b))
	if !ok {
		st.replace(None)
		return i.Next, k, nil
	}
	st.replace(Some(Bytes(append([]byte(nil), b[off:end]...))))
	return i.Next, k, nil
}

func execBytesSize(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(NewNat(int64(len(st.peek().(Bytes)))))
	return i.Next, k, nil
}

func execBytesNat(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Nat{new(big.Int).SetBytes(st.peek().(Bytes))})
	return i.Next, k, nil
}

func execNatBytes(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(bigOf(st.peek()).Bytes()))
	return i.Next, k, nil
}

func execBytesInt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Int{twosComplementInt(st.peek().(Bytes))})
	return i.Next, k, nil
}

func execIntBytes(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	st.replace(Bytes(twosComplementBytes(bigOf(st.peek()))))
	return i.Next, k, nil
}

// twosComplementInt reads a big endian two's complement integer.
func twosComplementInt(b []byte) *big.Int {
	x := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return x
}

// twosComplementBytes writes x in the shortest big endian two's complement
// form. Zero is the empty sequence.
func twosComplementBytes(x *big.Int) []byte {
	switch x.Sign() {
	case 0:
		return []byte{}
	case 1:
		b := x.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	n := (new(big.Int).Not(x).BitLen())/8 + 1
	v := new(big.Int).Add(x, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	b := v.Bytes()
	for len(b) < n {
		b = append([]byte{0xff}, b...)
	}
	return b
}
