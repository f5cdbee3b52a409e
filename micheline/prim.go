// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

// PrimCode identifies a primitive, the value is its binary tag.
type PrimCode byte

// primitives
const (
	KParameter PrimCode = iota
	KStorage
	KCode
	DFalse
	DElt
	DLeft
	DNone
	DPair
	DRight
	DSome
	DTrue
	DUnit
	IPack
	IUnpack
	IBlake2b
	ISha256
	ISha512
	IAbs
	IAdd
	IAmount
	IAnd
	IBalance
	ICar
	ICdr
	ICheckSignature
	ICompare
	IConcat
	ICons
	ICreateAccount
	ICreateContract
	IImplicitAccount
	IDip
	IDrop
	IDup
	IEdiv
	IEmptyMap
	IEmptySet
	IEq
	IExec
	IFailwith
	IGe
	IGet
	IGt
	IHashKey
	IIf
	IIfCons
	IIfLeft
	IIfNone
	IInt
	ILambda
	ILe
	ILeft
	ILoop
	ILsl
	ILsr
	ILt
	IMap
	IMem
	IMul
	INeg
	INeq
	INil
	INone
	INot
	INow
	IOr
	IPair
	IPush
	IRight
	ISize
	ISome
	ISource
	ISender
	ISelf
	IStepsToQuota
	ISub
	ISwap
	ITransferTokens
	ISetDelegate
	IUnit
	IUpdate
	IXor
	IIter
	ILoopLeft
	IAddress
	IContract
	IIsnat
	ICast
	IRename
	TBool
	TContract
	TInt
	TKey
	TKeyHash
	TLambda
	TList
	TMap
	TBigMap
	TNat
	TOption
	TOr
	TPair
	TSet
	TSignature
	TString
	TBytes
	TMutez
	TTimestamp
	TUnit
	TOperation
	TAddress
	ISlice
	IDig
	IDug
	IEmptyBigMap
	IApply
	TChainId
	IChainId
	ILevel
	ISelfAddress
	TNever
	INever
	IUnpair
	IVotingPower
	ITotalVotingPower
	IKeccak
	ISha3
	IPairingCheck
	TBls12381G1
	TBls12381G2
	TBls12381Fr
	TSaplingState
	TSaplingTransactionDeprecated
	ISaplingEmptyState
	ISaplingVerifyUpdate
	TTicket
	ITicketDeprecated
	IReadTicket
	ISplitTicket
	IJoinTickets
	IGetAndUpdate
	TChest
	TChestKey
	IOpenChest
	IView
	KView
	HConstant
	ISubMutez
	TTxRollupL2Address
	IMinBlockTime
	TSaplingTransaction
	IEmit
	DLambdaRec
	ILambdaRec
	ITicket
	IBytes
	INat

	primCount
)

var primNames = [primCount]string{
	KParameter:                    "parameter",
	KStorage:                      "storage",
	KCode:                         "code",
	DFalse:                        "False",
	DElt:                          "Elt",
	DLeft:                         "Left",
	DNone:                         "None",
	DPair:                         "Pair",
	DRight:                        "Right",
	DSome:                         "Some",
	DTrue:                         "True",
	DUnit:                         "Unit",
	IPack:                         "PACK",
	IUnpack:                       "UNPACK",
	IBlake2b:                      "BLAKE2B",
	ISha256:                       "SHA256",
	ISha512:                       "SHA512",
	IAbs:                          "ABS",
	IAdd:                          "ADD",
	IAmount:                       "AMOUNT",
	IAnd:                          "AND",
	IBalance:                      "BALANCE",
	ICar:                          "CAR",
	ICdr:                          "CDR",
	ICheckSignature:               "CHECK_SIGNATURE",
	ICompare:                      "COMPARE",
	IConcat:                       "CONCAT",
	ICons:                         "CONS",
	ICreateAccount:                "CREATE_ACCOUNT",
	ICreateContract:               "CREATE_CONTRACT",
	IImplicitAccount:              "IMPLICIT_ACCOUNT",
	IDip:                          "DIP",
	IDrop:                         "DROP",
	IDup:                          "DUP",
	IEdiv:                         "EDIV",
	IEmptyMap:                     "EMPTY_MAP",
	IEmptySet:                     "EMPTY_SET",
	IEq:                           "EQ",
	IExec:                         "EXEC",
	IFailwith:                     "FAILWITH",
	IGe:                           "GE",
	IGet:                          "GET",
	IGt:                           "GT",
	IHashKey:                      "HASH_KEY",
	IIf:                           "IF",
	IIfCons:                       "IF_CONS",
	IIfLeft:                       "IF_LEFT",
	IIfNone:                       "IF_NONE",
	IInt:                          "INT",
	ILambda:                       "LAMBDA",
	ILe:                           "LE",
	ILeft:                         "LEFT",
	ILoop:                         "LOOP",
	ILsl:                          "LSL",
	ILsr:                          "LSR",
	ILt:                           "LT",
	IMap:                          "MAP",
	IMem:                          "MEM",
	IMul:                          "MUL",
	INeg:                          "NEG",
	INeq:                          "NEQ",
	INil:                          "NIL",
	INone:                         "NONE",
	INot:                          "NOT",
	INow:                          "NOW",
	IOr:                           "OR",
	IPair:                         "PAIR",
	IPush:                         "PUSH",
	IRight:                        "RIGHT",
	ISize:                         "SIZE",
	ISome:                         "SOME",
	ISource:                       "SOURCE",
	ISender:                       "SENDER",
	ISelf:                         "SELF",
	IStepsToQuota:                 "STEPS_TO_QUOTA",
	ISub:                          "SUB",
	ISwap:                         "SWAP",
	ITransferTokens:               "TRANSFER_TOKENS",
	ISetDelegate:                  "SET_DELEGATE",
	IUnit:                         "UNIT",
	IUpdate:                       "UPDATE",
	IXor:                          "XOR",
	IIter:                         "ITER",
	ILoopLeft:                     "LOOP_LEFT",
	IAddress:                      "ADDRESS",
	IContract:                     "CONTRACT",
	IIsnat:                        "ISNAT",
	ICast:                         "CAST",
	IRename:                       "RENAME",
	TBool:                         "bool",
	TContract:                     "contract",
	TInt:                          "int",
	TKey:                          "key",
	TKeyHash:                      "key_hash",
	TLambda:                       "lambda",
	TList:                         "list",
	TMap:                          "map",
	TBigMap:                       "big_map",
	TNat:                          "nat",
	TOption:                       "option",
	TOr:                           "or",
	TPair:                         "pair",
	TSet:                          "set",
	TSignature:                    "signature",
	TString:                       "string",
	TBytes:                        "bytes",
	TMutez:                        "mutez",
	TTimestamp:                    "timestamp",
	TUnit:                         "unit",
	TOperation:                    "operation",
	TAddress:                      "address",
	ISlice:                        "SLICE",
	IDig:                          "DIG",
	IDug:                          "DUG",
	IEmptyBigMap:                  "EMPTY_BIG_MAP",
	IApply:                        "APPLY",
	TChainId:                      "chain_id",
	IChainId:                      "CHAIN_ID",
	ILevel:                        "LEVEL",
	ISelfAddress:                  "SELF_ADDRESS",
	TNever:                        "never",
	INever:                        "NEVER",
	IUnpair:                       "UNPAIR",
	IVotingPower:                  "VOTING_POWER",
	ITotalVotingPower:             "TOTAL_VOTING_POWER",
	IKeccak:                       "KECCAK",
	ISha3:                         "SHA3",
	IPairingCheck:                 "PAIRING_CHECK",
	TBls12381G1:                   "bls12_381_g1",
	TBls12381G2:                   "bls12_381_g2",
	TBls12381Fr:                   "bls12_381_fr",
	TSaplingState:                 "sapling_state",
	TSaplingTransactionDeprecated: "sapling_transaction_deprecated",
	ISaplingEmptyState:            "SAPLING_EMPTY_STATE",
	ISaplingVerifyUpdate:          "SAPLING_VERIFY_UPDATE",
	TTicket:                       "ticket",
	ITicketDeprecated:             "TICKET_DEPRECATED",
	IReadTicket:                   "READ_TICKET",
	ISplitTicket:                  "SPLIT_TICKET",
	IJoinTickets:                  "JOIN_TICKETS",
	IGetAndUpdate:                 "GET_AND_UPDATE",
	TChest:                        "chest",
	TChestKey:                     "chest_key",
	IOpenChest:                    "OPEN_CHEST",
	IView:                         "VIEW",
	KView:                         "view",
	HConstant:                     "constant",
	ISubMutez:                     "SUB_MUTEZ",
	TTxRollupL2Address:            "tx_rollup_l2_address",
	IMinBlockTime:                 "MIN_BLOCK_TIME",
	TSaplingTransaction:           "sapling_transaction",
	IEmit:                         "EMIT",
	DLambdaRec:                    "Lambda_rec",
	ILambdaRec:                    "LAMBDA_REC",
	ITicket:                       "TICKET",
	IBytes:                        "BYTES",
	INat:                          "NAT",
}

var primByName = func() map[string]PrimCode {
	m := make(map[string]PrimCode, primCount)
	for i, name := range primNames {
		m[name] = PrimCode(i)
	}
	return m
}()

func (p PrimCode) String() string {
	if p >= primCount {
		return "<unknown>"
	}
	return primNames[p]
}

// Valid checks whether the primitive is known.
func (p PrimCode) Valid() bool { return p < primCount }

// PrimByName looks a primitive up by its name.
func PrimByName(name string) (PrimCode, bool) {
	p, ok := primByName[name]
	return p, ok
}

