// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/facebookgo/ensure"
	fuzz "github.com/google/gofuzz"
)

// randomValue draws a comparable value of a fixed shape:
// pair (option int) (or string nat).
func randomValue(f *fuzz.Fuzzer) Value {
	var (
		i     int16
		none  bool
		right bool
		s     string
		n     uint8
	)
	f.Fuzz(&i)
	f.Fuzz(&none)
	f.Fuzz(&right)
	f.Fuzz(&s)
	f.Fuzz(&n)
	opt := Some(NewInt(int64(i % 4)))
	if none {
		opt = None
	}
	or := Left(String(s[:len(s)%3]))
	if right {
		or = Right(NewNat(int64(n % 3)))
	}
	return Pair{opt, or}
}

func TestCompareIsTotalOrder(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for n := 0; n < 500; n++ {
		a, b, c := randomValue(f), randomValue(f), randomValue(f)
		ensure.DeepEqual(t, Compare(a, a), 0)
		ensure.DeepEqual(t, Compare(a, b), -Compare(b, a))
		if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
			ensure.True(t, Compare(a, c) <= 0)
		}
	}
}

func TestCompare(t *testing.T) {
	ensure.DeepEqual(t, Compare(Bool(false), Bool(true)), -1)
	ensure.DeepEqual(t, Compare(None, Some(NewInt(-5))), -1)
	ensure.DeepEqual(t, Compare(Left(NewInt(9)), Right(NewInt(0))), -1)
	ensure.DeepEqual(t, Compare(NewPair(NewInt(1), String("b")), NewPair(NewInt(1), String("a"))), 1)
	ensure.DeepEqual(t, Compare(Bytes{0x01}, Bytes{0x01, 0x00}), -1)
	ensure.DeepEqual(t, Compare(Mutez(7), Mutez(7)), 0)
}

func TestNewPairIsRightComb(t *testing.T) {
	p := NewPair(NewInt(1), NewInt(2), NewInt(3))
	ensure.DeepEqual(t, p, Pair{NewInt(1), Pair{NewInt(2), NewInt(3)}})
}

func TestSetOrder(t *testing.T) {
	s := NewSet(IntT, NewInt(3), NewInt(1), NewInt(2), NewInt(1))
	ensure.DeepEqual(t, s.Len(), 3)
	ensure.DeepEqual(t, s.Items(), []Value{NewInt(1), NewInt(2), NewInt(3)})
	ensure.True(t, s.Mem(NewInt(2)))
	s = s.Update(NewInt(2), false)
	ensure.False(t, s.Mem(NewInt(2)))
}
