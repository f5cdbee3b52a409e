// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/pkg/errors"
)

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Code, error)
		cause error
	}{
		{"short stack", func() (*Code, error) {
			return NewBuilder(IntT).Add().Build()
		}, ErrStackTooShort},
		{"add on strings", func() (*Code, error) {
			return NewBuilder(StringT, StringT).Add().Build()
		}, ErrBadStackItem},
		{"after failwith", func() (*Code, error) {
			return NewBuilder(StringT).Failwith().Drop().Build()
		}, ErrUnexpectedFailed},
		{"if without bool", func() (*Code, error) {
			return NewBuilder(IntT).If(func(*Builder) {}, func(*Builder) {}).Build()
		}, ErrBadStackItem},
		{"branches of different depth", func() (*Code, error) {
			return NewBuilder(BoolT, IntT).If(
				func(b *Builder) { b.Drop() },
				func(*Builder) {}).Build()
		}, ErrUnmatchedBranches},
		{"self in lambda", func() (*Code, error) {
			return NewBuilder().WithSelf(UnitT).Lambda(UnitT, UnitT, func(b *Builder) {
				b.Drop().Self("")
			}).Build()
		}, ErrSelfInLambda},
	}
	for _, tc := range tests {
		code, err := tc.build()
		ensure.True(t, code == nil, tc.name)
		ensure.NotNil(t, err, tc.name)
		ensure.DeepEqual(t, errors.Cause(err), tc.cause, tc.name)
	}
}

func TestBuilderMergesBranchTypes(t *testing.T) {
	_, err := NewBuilder(BoolT).If(
		func(b *Builder) { b.Push(IntT, NewInt(1)) },
		func(b *Builder) { b.Push(StringT, String("one")) }).Build()
	_, ok := err.(*TypeMismatchError)
	ensure.True(t, ok)

	code, err := NewBuilder(BoolT, StringT).If(
		func(b *Builder) { b.Failwith() },
		func(*Builder) {}).Build()
	ensure.Nil(t, err)
	ensure.True(t, code.After.Equal(StackTy{StringT}))
}

func TestScriptMustReturnOperationsAndStorage(t *testing.T) {
	_, err := NewScript(UnitT, UnitT, func(b *Builder) { b.Cdr() })
	ensure.DeepEqual(t, errors.Cause(err), ErrBadReturn)

	s, err := NewScript(UnitT, UnitT, func(b *Builder) { b.Cdr().Nil(OperationT).Pair() })
	ensure.Nil(t, err)
	ensure.NotNil(t, s.Code)
}
