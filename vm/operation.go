// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
)

// Operation is an internal operation emitted by a contract, together with
// the lazy storage changes its parameter or storage carries.
type Operation struct {
	Op       InternalOp
	LazyDiff lazystorage.Diffs
}

func (*Operation) value() {}

func (o *Operation) String() string { return o.Op.String() }

// InternalOp is one of Transfer, Origination, Delegation or Event.
type InternalOp interface {
	fmt.Stringer
	internalOp()
}

// Transfer sends tokens and a parameter to a contract entrypoint.
type Transfer struct {
	Source      Address
	Destination Address
	Amount      Mutez
	ParamTy     *Ty
	Param       Value
	Nonce       uint32
}

// Origination creates a new contract.
type Origination struct {
	Source   Address
	Contract Address
	Delegate *crypto.KeyHash
	Credit   Mutez
	Script   *Script
	Storage  Value
	Nonce    uint32
}

// Delegation sets or withdraws the delegate of the source.
type Delegation struct {
	Source   Address
	Delegate *crypto.KeyHash
	Nonce    uint32
}

// Event is a typed notification.
type Event struct {
	Source  Address
	Tag     string
	Ty      *Ty
	Payload Value
	Nonce   uint32
}

func (*Transfer) internalOp()    {}
func (*Origination) internalOp() {}
func (*Delegation) internalOp()  {}
func (*Event) internalOp()       {}

func (t *Transfer) String() string {
	return fmt.Sprintf("transfer #%d %d mutez from %s to %s: %s", t.Nonce, t.Amount, t.Source, t.Destination,
		micheline.Format(Unparse(t.Param, Readable)))
}

func (o *Origination) String() string {
	return fmt.Sprintf("originate #%d %s from %s with %d mutez", o.Nonce, o.Contract, o.Source, o.Credit)
}

func (d *Delegation) String() string {
	if d.Delegate == nil {
		return fmt.Sprintf("withdraw delegate #%d of %s", d.Nonce, d.Source)
	}
	return fmt.Sprintf("delegate #%d %s to %s", d.Nonce, d.Source, d.Delegate)
}

func (e *Event) String() string {
	return fmt.Sprintf("event #%d %%%s from %s: %s", e.Nonce, e.Tag, e.Source,
		micheline.Format(Unparse(e.Payload, Readable)))
}
