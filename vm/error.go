// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"errors"
	"fmt"

	"github.com/BOXFoundation/tzvm/micheline"
)

// error
var (
	// ty.go
	ErrNotComparable    = errors.New("type is not comparable")
	ErrBigMapNotAllowed = errors.New("big_map type not allowed here")
	ErrInvalidMemoSize  = errors.New("invalid sapling memo size")

	// builder.go
	ErrStackTooShort     = errors.New("stack too short for instruction")
	ErrBadStackItem      = errors.New("unexpected type on the stack")
	ErrUnmatchedBranches = errors.New("branches end with different stacks")
	ErrNoBuildResult     = errors.New("code sequence has no result")
	ErrBadReturn         = errors.New("code must end with (list operation, storage)")
	ErrInvalidDepth      = errors.New("invalid stack depth for instruction")
	ErrInvalidValueForTy = errors.New("value does not have the expected type")
	ErrUnexpectedFailed  = errors.New("instruction after FAILWITH or NEVER")
	ErrSelfInLambda      = errors.New("SELF is forbidden in lambdas and views")
	ErrUnknownView       = errors.New("unknown view")
	ErrNotPushable       = errors.New("type cannot be pushed")
	ErrNotPackable       = errors.New("type cannot be packed")
	ErrBadViewName       = errors.New("invalid view name")
	ErrEntrypointTooLong = errors.New("entrypoint name too long")
	ErrBadTicketContent  = errors.New("ticket contents must be comparable")

	// interpreter.go
	ErrUnreachable       = errors.New("unreachable state reached")
	ErrNegativeShift     = errors.New("shift amount too large")
	ErrTezOverflow       = errors.New("mutez overflow")
	ErrTezUnderflow      = errors.New("mutez underflow")
	ErrStackShape        = errors.New("runtime stack does not match its static type")
	ErrNoChain           = errors.New("no chain context for instruction")
	ErrNoCodeParser      = errors.New("lambda cannot be decoded without a code parser")
	ErrNoSaplingVerifier = errors.New("sapling transactions cannot be verified")
	ErrNonZeroTransfer   = errors.New("tickets cannot be sent to implicit accounts")

	// execute.go
	ErrUnknownEntrypoint = errors.New("unknown entrypoint")
	ErrBadParameter      = errors.New("parameter does not have the entrypoint type")

	// data.go
	ErrInvalidData    = errors.New("invalid data for type")
	ErrInvalidAddress = errors.New("invalid address")
	ErrBigMapNotFound = errors.New("big map not found")
)

// Loc is the source location of an instruction, an index into the code.
type Loc int

// TypeTooLargeError is returned when a type exceeds the maximum type size.
type TypeTooLargeError struct {
	Loc Loc
	Max int
}

func (e *TypeTooLargeError) Error() string {
	return fmt.Sprintf("type too large at %d, maximum size is %d", e.Loc, e.Max)
}

// InconsistentTypeSizesError is returned when merging types of different sizes.
type InconsistentTypeSizesError struct {
	Loc Loc
	A, B int
}

func (e *InconsistentTypeSizesError) Error() string {
	return fmt.Sprintf("inconsistent type sizes at %d: %d and %d", e.Loc, e.A, e.B)
}

// TypeMismatchError is returned when two types do not unify.
type TypeMismatchError struct {
	Loc Loc
	A, B *Ty
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch at %d: %s is not %s", e.Loc, e.A, e.B)
}

// RejectError is the failure raised by FAILWITH.
type RejectError struct {
	Loc   Loc
	Value micheline.Node
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("script rejected at %d with %s", e.Loc, micheline.Format(e.Value))
}

// OverflowError is raised by arithmetic overflowing its domain.
type OverflowError struct {
	Loc Loc
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("overflow at %d", e.Loc)
}

// InstrError wraps a builder error with the instruction it happened at.
type InstrError struct {
	Loc Loc
	Op  OpCode
	Err error
}

func (e *InstrError) Error() string {
	return fmt.Sprintf("%s at %d: %v", e.Op, e.Loc, e.Err)
}

// Cause returns the wrapped error.
func (e *InstrError) Cause() error { return e.Err }
