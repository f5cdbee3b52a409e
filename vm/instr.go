// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"github.com/BOXFoundation/tzvm/micheline"
)

// OpCode identifies a typed instruction. Overloaded michelson primitives
// are resolved to one opcode per operand types when the code is built.
type OpCode uint16

// stack manipulation
const (
	OpDrop OpCode = iota
	OpDropN
	OpDup
	OpDupN
	OpSwap
	OpDig
	OpDug
	OpConst
	OpDip
	OpDipN

	// pairs
	OpConsPair
	OpCar
	OpCdr
	OpUnpair
	OpComb
	OpUncomb
	OpCombGet
	OpCombSet

	// options and unions
	OpConsSome
	OpConsNone
	OpIfNone
	OpOptMap
	OpConsLeft
	OpConsRight
	OpIfLeft

	// lists
	OpConsList
	OpNil
	OpIfCons
	OpListMap
	OpListIter
	OpListSize

	// sets
	OpEmptySet
	OpSetIter
	OpSetMem
	OpSetUpdate
	OpSetSize

	// maps
	OpEmptyMap
	OpMapMap
	OpMapIter
	OpMapMem
	OpMapGet
	OpMapUpdate
	OpMapGetAndUpdate
	OpMapSize

	// big maps
	OpEmptyBigMap
	OpBigMapMem
	OpBigMapGet
	OpBigMapUpdate
	OpBigMapGetAndUpdate

	// strings and bytes
	OpConcatString
	OpConcatStringPair
	OpSliceString
	OpStringSize
	OpConcatBytes
	OpConcatBytesPair
	OpSliceBytes
	OpBytesSize
	OpBytesNat
	OpNatBytes
	OpBytesInt
	OpIntBytes

	// timestamps
	OpAddSecondsToTimestamp
	OpAddTimestampToSeconds
	OpSubTimestampSeconds
	OpDiffTimestamps

	// mutez
	OpAddTez
	OpSubTez
	OpSubTezLegacy
	OpMulTezNat
	OpMulNatTez
	OpEdivTezNat
	OpEdivTez

	// booleans
	OpOr
	OpAnd
	OpXor
	OpNot

	// integers
	OpIsNat
	OpNeg
	OpAbsInt
	OpIntNat
	OpAddInt
	OpAddNat
	OpSubInt
	OpMulInt
	OpMulNat
	OpEdivInt
	OpEdivNat
	OpLslNat
	OpLsrNat
	OpOrNat
	OpAndNat
	OpAndIntNat
	OpXorNat
	OpNotInt

	// control
	OpIf
	OpLoop
	OpLoopLeft
	OpExec
	OpApply
	OpLambda
	OpFailwith
	OpNever
	OpHalt
	OpLog

	// comparison
	OpCompare
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe

	// chain
	OpAddress
	OpContract
	OpView
	OpTransferTokens
	OpImplicitAccount
	OpCreateContract
	OpSetDelegate
	OpNow
	OpMinBlockTime
	OpBalance
	OpLevel
	OpSource
	OpSender
	OpSelf
	OpSelfAddress
	OpAmount
	OpChainID
	OpVotingPower
	OpTotalVotingPower
	OpEmit

	// cryptography
	OpCheckSignature
	OpHashKey
	OpBlake2b
	OpSha256
	OpSha512
	OpKeccak
	OpSha3
	OpPack
	OpUnpack

	// bls12-381
	OpAddG1
	OpAddG2
	OpAddFr
	OpMulG1
	OpMulG2
	OpMulFr
	OpMulZFr
	OpMulFrZ
	OpIntFr
	OpNegG1
	OpNegG2
	OpNegFr
	OpPairingCheck

	// sapling, tickets and timelocks
	OpSaplingEmptyState
	OpSaplingVerifyUpdate
	OpTicket
	OpReadTicket
	OpSplitTicket
	OpJoinTickets
	OpOpenChest

	opCount
)

// opPrims is the michelson primitive each opcode is written with.
var opPrims = [opCount]micheline.PrimCode{
	OpDrop: micheline.IDrop, OpDropN: micheline.IDrop, OpDup: micheline.IDup, OpDupN: micheline.IDup,
	OpSwap: micheline.ISwap, OpDig: micheline.IDig, OpDug: micheline.IDug, OpConst: micheline.IPush,
	OpDip: micheline.IDip, OpDipN: micheline.IDip,

	OpConsPair: micheline.IPair, OpCar: micheline.ICar, OpCdr: micheline.ICdr, OpUnpair: micheline.IUnpair,
	OpComb: micheline.IPair, OpUncomb: micheline.IUnpair, OpCombGet: micheline.IGet, OpCombSet: micheline.IUpdate,

	OpConsSome: micheline.ISome, OpConsNone: micheline.INone, OpIfNone: micheline.IIfNone, OpOptMap: micheline.IMap,
	OpConsLeft: micheline.ILeft, OpConsRight: micheline.IRight, OpIfLeft: micheline.IIfLeft,

	OpConsList: micheline.ICons, OpNil: micheline.INil, OpIfCons: micheline.IIfCons, OpListMap: micheline.IMap,
	OpListIter: micheline.IIter, OpListSize: micheline.ISize,

	OpEmptySet: micheline.IEmptySet, OpSetIter: micheline.IIter, OpSetMem: micheline.IMem,
	OpSetUpdate: micheline.IUpdate, OpSetSize: micheline.ISize,

	OpEmptyMap: micheline.IEmptyMap, OpMapMap: micheline.IMap, OpMapIter: micheline.IIter, OpMapMem: micheline.IMem,
	OpMapGet: micheline.IGet, OpMapUpdate: micheline.IUpdate, OpMapGetAndUpdate: micheline.IGetAndUpdate,
	OpMapSize: micheline.ISize,

	OpEmptyBigMap: micheline.IEmptyBigMap, OpBigMapMem: micheline.IMem, OpBigMapGet: micheline.IGet,
	OpBigMapUpdate: micheline.IUpdate, OpBigMapGetAndUpdate: micheline.IGetAndUpdate,

	OpConcatString: micheline.IConcat, OpConcatStringPair: micheline.IConcat, OpSliceString: micheline.ISlice,
	OpStringSize: micheline.ISize, OpConcatBytes: micheline.IConcat, OpConcatBytesPair: micheline.IConcat,
	OpSliceBytes: micheline.ISlice, OpBytesSize: micheline.ISize, OpBytesNat: micheline.INat,
	OpNatBytes: micheline.IBytes, OpBytesInt: micheline.IInt, OpIntBytes: micheline.IBytes,

	OpAddSecondsToTimestamp: micheline.IAdd, OpAddTimestampToSeconds: micheline.IAdd,
	OpSubTimestampSeconds: micheline.ISub, OpDiffTimestamps: micheline.ISub,

	OpAddTez: micheline.IAdd, OpSubTez: micheline.ISubMutez, OpSubTezLegacy: micheline.ISub,
	OpMulTezNat: micheline.IMul, OpMulNatTez: micheline.IMul, OpEdivTezNat: micheline.IEdiv, OpEdivTez: micheline.IEdiv,

	OpOr: micheline.IOr, OpAnd: micheline.IAnd, OpXor: micheline.IXor, OpNot: micheline.INot,

	OpIsNat: micheline.IIsnat, OpNeg: micheline.INeg, OpAbsInt: micheline.IAbs, OpIntNat: micheline.IInt,
	OpAddInt: micheline.IAdd, OpAddNat: micheline.IAdd, OpSubInt: micheline.ISub, OpMulInt: micheline.IMul,
	OpMulNat: micheline.IMul, OpEdivInt: micheline.IEdiv, OpEdivNat: micheline.IEdiv, OpLslNat: micheline.ILsl,
	OpLsrNat: micheline.ILsr, OpOrNat: micheline.IOr, OpAndNat: micheline.IAnd, OpAndIntNat: micheline.IAnd,
	OpXorNat: micheline.IXor, OpNotInt: micheline.INot,

	OpIf: micheline.IIf, OpLoop: micheline.ILoop, OpLoopLeft: micheline.ILoopLeft, OpExec: micheline.IExec,
	OpApply: micheline.IApply, OpLambda: micheline.ILambda, OpFailwith: micheline.IFailwith,
	OpNever: micheline.INever, OpHalt: micheline.IUnit, OpLog: micheline.IUnit,

	OpCompare: micheline.ICompare, OpEq: micheline.IEq, OpNeq: micheline.INeq, OpLt: micheline.ILt,
	OpGt: micheline.IGt, OpLe: micheline.ILe, OpGe: micheline.IGe,

	OpAddress: micheline.IAddress, OpContract: micheline.IContract, OpView: micheline.IView,
	OpTransferTokens: micheline.ITransferTokens, OpImplicitAccount: micheline.IImplicitAccount,
	OpCreateContract: micheline.ICreateContract, OpSetDelegate: micheline.ISetDelegate, OpNow: micheline.INow,
	OpMinBlockTime: micheline.IMinBlockTime, OpBalance: micheline.IBalance, OpLevel: micheline.ILevel,
	OpSource: micheline.ISource, OpSender: micheline.ISender, OpSelf: micheline.ISelf,
	OpSelfAddress: micheline.ISelfAddress, OpAmount: micheline.IAmount, OpChainID: micheline.IChainId,
	OpVotingPower: micheline.IVotingPower, OpTotalVotingPower: micheline.ITotalVotingPower, OpEmit: micheline.IEmit,

	OpCheckSignature: micheline.ICheckSignature, OpHashKey: micheline.IHashKey, OpBlake2b: micheline.IBlake2b,
	OpSha256: micheline.ISha256, OpSha512: micheline.ISha512, OpKeccak: micheline.IKeccak, OpSha3: micheline.ISha3,
	OpPack: micheline.IPack, OpUnpack: micheline.IUnpack,

	OpAddG1: micheline.IAdd, OpAddG2: micheline.IAdd, OpAddFr: micheline.IAdd, OpMulG1: micheline.IMul,
	OpMulG2: micheline.IMul, OpMulFr: micheline.IMul, OpMulZFr: micheline.IMul, OpMulFrZ: micheline.IMul,
	OpIntFr: micheline.IInt, OpNegG1: micheline.INeg, OpNegG2: micheline.INeg, OpNegFr: micheline.INeg,
	OpPairingCheck: micheline.IPairingCheck,

	OpSaplingEmptyState: micheline.ISaplingEmptyState, OpSaplingVerifyUpdate: micheline.ISaplingVerifyUpdate,
	OpTicket: micheline.ITicket, OpReadTicket: micheline.IReadTicket, OpSplitTicket: micheline.ISplitTicket,
	OpJoinTickets: micheline.IJoinTickets, OpOpenChest: micheline.IOpenChest,
}

var opNames = [opCount]string{
	OpDropN: "DROP n", OpDupN: "DUP n", OpDipN: "DIP n", OpComb: "PAIR n", OpUncomb: "UNPAIR n",
	OpCombGet: "GET n", OpCombSet: "UPDATE n", OpHalt: "HALT", OpLog: "LOG",
	OpSubTezLegacy: "SUB (mutez)",
}

func (op OpCode) String() string {
	if op >= opCount {
		return fmt.Sprintf("opcode %d", op)
	}
	if name := opNames[op]; name != "" {
		return name
	}
	return opPrims[op].String()
}

// Prim returns the michelson primitive of the opcode.
func (op OpCode) Prim() micheline.PrimCode { return opPrims[op] }

// KInfo is the static information attached to every instruction.
type KInfo struct {
	Loc Loc
	// Stack is the type of the stack the instruction runs on.
	Stack StackTy
}

// Instr is a node of typed code. Every sequence ends with an OpHalt node.
// Branching instructions keep their branches in Body and Else, each ending
// with its own OpHalt, and continue with Next.
type Instr struct {
	Op   OpCode
	Info KInfo
	Next *Instr

	// Ty and Ty2 are operand types: the element or key and value types of
	// empty collections, the type of a constant, of the other branch of
	// an or, of an unpacked or a referenced value.
	Ty, Ty2 *Ty
	// Value is the constant of PUSH and LAMBDA.
	Value Value
	// W is the witness of DIG, DUG, DROP n, DUP n, DIP n, PAIR n,
	// UNPAIR n, GET n and UPDATE n.
	W Witness
	// Str is an entrypoint, a view name or an event tag.
	Str string
	// Body is the body of loops and DIP, or the first branch.
	Body *Instr
	// Else is the second branch.
	Else *Instr
	// Script is the code of CREATE_CONTRACT.
	Script *Script
	// Wrapped is the instruction traced by OpLog.
	Wrapped *Instr
}

// Code is a typed instruction sequence with its stack types and source.
type Code struct {
	Entry  *Instr
	Before StackTy
	After  StackTy
	Node   micheline.Seq
}

// View is an on-chain view: code from pair input storage to output.
type View struct {
	Name          string
	Input, Output *Ty
	Code          *Code
}

// Script is a typed contract: its code runs on pair parameter storage and
// returns pair (list operation) storage.
type Script struct {
	Param, Storage *Ty
	Code           *Code
	Views          map[string]*View
}

// Node returns the micheline form of the script.
func (s *Script) Node() micheline.Seq {
	seq := micheline.Seq{
		micheline.NewPrim(micheline.KParameter, s.Param.Node()),
		micheline.NewPrim(micheline.KStorage, s.Storage.Node()),
		micheline.NewPrim(micheline.KCode, s.Code.Node),
	}
	for _, name := range sortedViewNames(s.Views) {
		v := s.Views[name]
		seq = append(seq, micheline.NewPrim(micheline.KView, micheline.String{V: name},
			v.Input.Node(), v.Output.Node(), v.Code.Node))
	}
	return seq
}
