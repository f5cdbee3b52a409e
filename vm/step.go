// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
)

// StepConstants describe the operation being executed. They are constant
// during an execution, except while a view runs.
type StepConstants struct {
	Source  Address
	Payer   Address
	Sender  Address
	Self    Address
	Amount  Mutez
	Balance Mutez
	ChainID ChainID
	Now     *big.Int
	Level   *big.Int
	// MinBlockTime is the minimal delay between blocks, in seconds.
	MinBlockTime *big.Int
	// OperationHash seeds the addresses of originated contracts.
	OperationHash crypto.HashType
}

// ViewTarget is a view of another contract with the state it runs on.
type ViewTarget struct {
	View    *View
	Storage Value
	Balance Mutez
}

// Chain gives access to the rest of the chain.
type Chain interface {
	// EntrypointType returns the parameter type of the entrypoint of the
	// contract at addr, ok is false if there is no such entrypoint.
	EntrypointType(addr Address) (ty *Ty, ok bool, err error)
	// View returns the named view of the contract at addr.
	View(addr Address, name string) (target *ViewTarget, ok bool, err error)
	VotingPower(h *crypto.KeyHash) (*big.Int, error)
	TotalVotingPower() (*big.Int, error)
}

// CodeParser compiles michelson code into typed lambdas. It is used to
// read lambdas from unpacked bytes and from the store.
type CodeParser interface {
	ParseLambda(arg, ret *Ty, code micheline.Node, rec bool) (*Lambda, error)
}

// SaplingResult is the outcome of a valid shielded transaction.
type SaplingResult struct {
	BoundData []byte
	// Balance is the amount leaving the pool, negative when shielding.
	Balance   int64
	Updates   *lazystorage.SaplingUpdates
}

// SaplingVerifier checks shielded transactions against a state. It returns
// a nil result for an invalid transaction.
type SaplingVerifier interface {
	VerifyUpdate(state *SaplingState, tx *SaplingTransaction) (*SaplingResult, error)
}

// Env holds the collaborators of the interpreter, any of them may be nil:
// the instructions that need a missing one fail.
type Env struct {
	Chain   Chain
	Parser  CodeParser
	Sapling SaplingVerifier
}
