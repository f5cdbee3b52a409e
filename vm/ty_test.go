// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"strings"
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/pkg/errors"
)

// comb builds a right comb of n pairs over unit, of size 2n+1.
func comb(t *testing.T, n int) *Ty {
	ty := UnitT
	for i := 0; i < n; i++ {
		var err error
		ty, err = NewPairT(Loc(i), UnitT, ty)
		ensure.Nil(t, err)
	}
	return ty
}

func TestTypeSize(t *testing.T) {
	ensure.DeepEqual(t, UnitT.Size(), 1)
	p, err := NewPairT(0, IntT, NatT)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, p.Size(), 3)
	m, err := NewMapT(0, StringT, p)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, m.Size(), 1+1+3)
}

func TestTypeTooLarge(t *testing.T) {
	biggest := comb(t, (MaxTypeSize-1)/2)
	ensure.DeepEqual(t, biggest.Size(), MaxTypeSize)

	_, err := NewPairT(7, UnitT, biggest)
	tooLarge, ok := err.(*TypeTooLargeError)
	ensure.True(t, ok)
	ensure.DeepEqual(t, tooLarge.Loc, Loc(7))
	ensure.DeepEqual(t, tooLarge.Max, MaxTypeSize)

	_, err = NewOptionT(3, biggest)
	ensure.NotNil(t, err)
	_, err = NewListT(3, comb(t, 999))
	ensure.Nil(t, err)
}

func TestMergeTypes(t *testing.T) {
	a, _ := NewPairT(0, IntT, NatT)
	b, _ := NewPairT(0, IntT.WithAnnot("x"), NatT)
	merged, err := MergeTypes(0, a, b)
	ensure.Nil(t, err)
	ensure.True(t, merged.Equal(a))

	_, err = MergeTypes(4, a, IntT)
	sizes, ok := err.(*InconsistentTypeSizesError)
	ensure.True(t, ok)
	ensure.DeepEqual(t, *sizes, InconsistentTypeSizesError{Loc: 4, A: 3, B: 1})

	c, _ := NewPairT(0, IntT, StringT)
	_, err = MergeTypes(5, a, c)
	_, ok = err.(*TypeMismatchError)
	ensure.True(t, ok)
}

func TestComparableTypes(t *testing.T) {
	p, _ := NewPairT(0, IntT, StringT)
	ensure.True(t, p.Comparable())
	l, _ := NewListT(0, IntT)
	ensure.False(t, l.Comparable())

	_, err := NewSetT(0, l)
	ensure.NotNil(t, err)
	_, err = NewMapT(0, l, IntT)
	ensure.NotNil(t, err)

	bm, err := NewBigMapT(0, NatT, StringT)
	ensure.Nil(t, err)
	ensure.True(t, bm.HasLazyStorage())
	ensure.False(t, bm.Pushable())
}

func TestTypeErrorsCarryLocation(t *testing.T) {
	l, _ := NewListT(0, IntT)
	op, _ := NewListT(0, OperationT)
	tests := []struct {
		build func() (*Ty, error)
		cause error
	}{
		{func() (*Ty, error) { return NewSetT(11, l) }, ErrNotComparable},
		{func() (*Ty, error) { return NewMapT(11, l, IntT) }, ErrNotComparable},
		{func() (*Ty, error) { return NewBigMapT(11, l, IntT) }, ErrNotComparable},
		{func() (*Ty, error) { return NewBigMapT(11, NatT, op) }, ErrBigMapNotAllowed},
		{func() (*Ty, error) { return NewTicketT(11, l) }, ErrBadTicketContent},
		{func() (*Ty, error) { return NewContractT(11, op) }, ErrInvalidValueForTy},
	}
	for _, tc := range tests {
		ty, err := tc.build()
		ensure.True(t, ty == nil)
		ensure.DeepEqual(t, errors.Cause(err), tc.cause)
		ensure.True(t, strings.Contains(err.Error(), "at 11"), err)
	}
}
