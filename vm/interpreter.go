// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/state"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var logger = log.NewLogger("vm")

// execFn runs an instruction. It returns the instruction to run next, nil
// to resume the continuation.
type execFn func(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error)

type operation struct {
	exec execFn
	cost costFn
}

var jumpTable [opCount]operation

// Interpreter runs typed code. It is not safe for concurrent use: an
// interpreter serves a single operation.
type Interpreter struct {
	ctxt   *state.Context
	step   *StepConstants
	env    *Env
	cfg    Config
	logger Logger

	// decoded big map values read from the store
	cache *lru.Cache
	nonce uint32
	steps int64
	depth int
}

// NewInterpreter returns an interpreter running against ctxt, whose gas
// meter is charged for every instruction.
func NewInterpreter(ctxt *state.Context, step *StepConstants, env *Env, cfg Config) *Interpreter {
	cfg = cfg.withDefaults()
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		logger.Errorf("failed to create big map cache: %v", err)
	}
	if env == nil {
		env = &Env{}
	}
	if step == nil {
		step = &StepConstants{}
	}
	in := &Interpreter{ctxt: ctxt, step: step, env: env, cfg: cfg, cache: cache}
	if cfg.Trace {
		in.logger = NewTraceLogger(logger)
	}
	return in
}

// SetLogger installs an execution tracer, nil removes it.
func (in *Interpreter) SetLogger(l Logger) { in.logger = l }

// Context returns the current context, updated by the lazy storage
// allocations of the operations emitted so far.
func (in *Interpreter) Context() *state.Context { return in.ctxt }

// Steps returns the number of instructions run.
func (in *Interpreter) Steps() int64 { return in.steps }

// Run executes code on the given stack, top first, and returns the final
// stack, top first.
func (in *Interpreter) Run(code *Code, stack ...Value) ([]Value, error) {
	st := newstack(stack...)
	if !st.matches(code.Before) {
		return nil, errors.Wrapf(ErrStackShape, "%s is not %s", st, code.Before)
	}
	if err := in.run(code.Entry, KNil{}, st); err != nil {
		return nil, err
	}
	return st.Data(), nil
}

// Call applies a lambda to arg.
func (in *Interpreter) Call(l *Lambda, arg Value) (Value, error) {
	st := newstack(arg)
	if l.Rec {
		st = newstack(arg, l)
	}
	if err := in.run(l.Code, KNil{}, st); err != nil {
		return nil, err
	}
	return st.pop(), nil
}

func (in *Interpreter) run(i *Instr, k Cont, st *Stack) error {
	for {
		var err error
		if i == nil {
			if i, k, err = in.resume(k, st); err != nil {
				return err
			}
			if k == nil {
				return nil
			}
			continue
		}
		if in.logger != nil && i.Op != OpLog {
			i = &Instr{Op: OpLog, Info: i.Info, Wrapped: i}
		}
		if in.cfg.CheckStacks && i.Op != OpLog {
			if err := checkStack(i, st); err != nil {
				return err
			}
		}
		op := &jumpTable[i.Op]
		if op.cost != nil {
			if err := in.ctxt.Consume(op.cost(i, st)); err != nil {
				return err
			}
		}
		in.steps++
		if i, k, err = op.exec(in, i, k, st); err != nil {
			return err
		}
	}
}

// checkStack verifies the stack against the type i was built for and
// against its witness.
func checkStack(i *Instr, st *Stack) error {
	if !st.matches(i.Info.Stack) {
		return errors.Wrapf(ErrStackShape, "%s at %d: %s is not %s", i.Op, i.Info.Loc, st, i.Info.Stack)
	}
	if i.W != nil && !i.W.check(st) {
		return errors.Wrapf(ErrStackShape, "%s at %d: witness does not hold on %s", i.Op, i.Info.Loc, st)
	}
	return nil
}

// execLog runs the wrapped instruction between the tracing hooks.
func execLog(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	w := i.Wrapped
	if in.cfg.CheckStacks {
		if err := checkStack(w, st); err != nil {
			return nil, nil, err
		}
	}
	meter := in.ctxt.Meter()
	in.logger.Entry(w, st, meter.Remaining(), in.depth)
	op := &jumpTable[w.Op]
	var err error
	if op.cost != nil {
		err = in.ctxt.Consume(op.cost(w, st))
	}
	var next *Instr
	if err == nil {
		next, k, err = op.exec(in, w, k, st)
	}
	in.logger.Exit(w, st, meter.Remaining(), err)
	return next, k, err
}

func execHalt(in *Interpreter, i *Instr, k Cont, st *Stack) (*Instr, Cont, error) {
	return nil, k, nil
}

type bigMapCacheKey struct {
	id lazystorage.ID
	h  crypto.HashType
}

// bigMapGet looks key up in the overlay of m, then in its persisted
// contents. It returns nil when the key is unbound.
func (in *Interpreter) bigMapGet(m *BigMap, key Value) (Value, error) {
	h := bigMapKeyHash(key)
	if e, ok := m.lookup(h); ok {
		return e.Value, nil
	}
	if m.ID == nil {
		return nil, nil
	}
	ck := bigMapCacheKey{*m.ID, h}
	if in.cache != nil {
		if cached, ok := in.cache.Get(ck); ok {
			metrics.BigMapCacheHitMeter.Mark(1)
			v, _ := cached.(Value)
			return v, nil
		}
	}
	metrics.BigMapCacheMissMeter.Mark(1)
	node, err := lazystorage.BigMapGet(in.ctxt, *m.ID, h)
	if err != nil {
		return nil, errors.Wrapf(err, "reading big map %s", *m.ID)
	}
	var v Value
	if node != nil {
		p := &dataParser{ctxt: in.ctxt, env: in.env, lazy: true, tickets: true}
		if v, err = p.parse(m.ValueTy, node); err != nil {
			return nil, errors.Wrapf(err, "decoding big map %s", *m.ID)
		}
	}
	if in.cache != nil {
		in.cache.Add(ck, v)
	}
	return v, nil
}

// bigMapMem checks whether key is bound in m without decoding its value.
func (in *Interpreter) bigMapMem(m *BigMap, key Value) (bool, error) {
	h := bigMapKeyHash(key)
	if e, ok := m.lookup(h); ok {
		return e.Value != nil, nil
	}
	if m.ID == nil {
		return false, nil
	}
	if in.cache != nil {
		if cached, ok := in.cache.Get(bigMapCacheKey{*m.ID, h}); ok {
			metrics.BigMapCacheHitMeter.Mark(1)
			return cached != nil, nil
		}
	}
	metrics.BigMapCacheMissMeter.Mark(1)
	return lazystorage.BigMapMem(in.ctxt, *m.ID, h)
}

func (in *Interpreter) nextNonce() uint32 {
	n := in.nonce
	in.nonce++
	return n
}

func (in *Interpreter) consume(c gas.Cost) error {
	return in.ctxt.Consume(c)
}

func init() {
	quick := constCost(GasQuickStep)
	fastest := constCost(GasFastestStep)
	fast := constCost(GasFastStep)
	mid := constCost(GasMidStep)
	slow := constCost(GasSlowStep)
	ext := constCost(GasExtStep)

	jumpTable = [opCount]operation{
		OpDrop:  {execDrop, quick},
		OpDropN: {execDropN, dropNCost},
		OpDup:   {execDup, quick},
		OpDupN:  {execDupN, depthCost},
		OpSwap:  {execSwap, quick},
		OpDig:   {execDig, depthCost},
		OpDug:   {execDug, depthCost},
		OpConst: {execConst, quick},
		OpDip:   {execDip, fastest},
		OpDipN:  {execDipN, depthCost},

		OpConsPair: {execConsPair, fastest},
		OpCar:      {execCar, quick},
		OpCdr:      {execCdr, quick},
		OpUnpair:   {execUnpair, quick},
		OpComb:     {execComb, depthCost},
		OpUncomb:   {execUncomb, depthCost},
		OpCombGet:  {execCombGet, depthCost},
		OpCombSet:  {execCombSet, depthCost},

		OpConsSome:  {execConsSome, quick},
		OpConsNone:  {execConsNone, quick},
		OpIfNone:    {execIfNone, quick},
		OpOptMap:    {execOptMap, fastest},
		OpConsLeft:  {execConsLeft, quick},
		OpConsRight: {execConsRight, quick},
		OpIfLeft:    {execIfLeft, quick},

		OpConsList: {execConsList, quick},
		OpNil:      {execNil, quick},
		OpIfCons:   {execIfCons, quick},
		OpListMap:  {execListMap, iterCost},
		OpListIter: {execListIter, iterCost},
		OpListSize: {execListSize, quick},

		OpEmptySet:  {execEmptySet, fast},
		OpSetIter:   {execSetIter, iterCost},
		OpSetMem:    {execSetMem, setMemCost},
		OpSetUpdate: {execSetUpdate, setUpdateCost},
		OpSetSize:   {execSetSize, quick},

		OpEmptyMap:        {execEmptyMap, fast},
		OpMapMap:          {execMapMap, iterCost},
		OpMapIter:         {execMapIter, iterCost},
		OpMapMem:          {execMapMem, mapAccessCost},
		OpMapGet:          {execMapGet, mapAccessCost},
		OpMapUpdate:       {execMapUpdate, mapUpdateCost},
		OpMapGetAndUpdate: {execMapGetAndUpdate, mapUpdateCost},
		OpMapSize:         {execMapSize, quick},

		OpEmptyBigMap:        {execEmptyBigMap, fast},
		OpBigMapMem:          {execBigMapMem, bigMapAccessCost},
		OpBigMapGet:          {execBigMapGet, bigMapAccessCost},
		OpBigMapUpdate:       {execBigMapUpdate, bigMapUpdateCost},
		OpBigMapGetAndUpdate: {execBigMapGetAndUpdate, bigMapUpdateCost},

		OpConcatString:     {execConcatString, concatListCost},
		OpConcatStringPair: {execConcatStringPair, concatPairCost},
		OpSliceString:      {execSliceString, sliceCost},
		OpStringSize:       {execStringSize, quick},
		OpConcatBytes:      {execConcatBytes, concatListCost},
		OpConcatBytesPair:  {execConcatBytesPair, concatPairCost},
		OpSliceBytes:       {execSliceBytes, sliceCost},
		OpBytesSize:        {execBytesSize, quick},
		OpBytesNat:         {execBytesNat, hashCost(GasFastStep, 1)},
		OpNatBytes:         {execNatBytes, unaryIntCost},
		OpBytesInt:         {execBytesInt, hashCost(GasFastStep, 1)},
		OpIntBytes:         {execIntBytes, unaryIntCost},

		OpAddSecondsToTimestamp: {execAddTimestamp, addCost},
		OpAddTimestampToSeconds: {execAddTimestamp, addCost},
		OpSubTimestampSeconds:   {execSubTimestampSeconds, addCost},
		OpDiffTimestamps:        {execDiffTimestamps, addCost},

		OpAddTez:       {execAddTez, fast},
		OpSubTez:       {execSubTez, fast},
		OpSubTezLegacy: {execSubTezLegacy, fast},
		OpMulTezNat:    {execMulTezNat, mulCost},
		OpMulNatTez:    {execMulNatTez, mulCost},
		OpEdivTezNat:   {execEdivTezNat, edivCost},
		OpEdivTez:      {execEdivTez, edivCost},

		OpOr:  {execOr, quick},
		OpAnd: {execAnd, quick},
		OpXor: {execXor, quick},
		OpNot: {execNot, quick},

		OpIsNat:     {execIsNat, quick},
		OpNeg:       {execNeg, unaryIntCost},
		OpAbsInt:    {execAbsInt, unaryIntCost},
		OpIntNat:    {execIntNat, quick},
		OpAddInt:    {execAddInt, addCost},
		OpAddNat:    {execAddNat, addCost},
		OpSubInt:    {execSubInt, addCost},
		OpMulInt:    {execMulInt, mulCost},
		OpMulNat:    {execMulNat, mulCost},
		OpEdivInt:   {execEdivInt, edivCost},
		OpEdivNat:   {execEdivNat, edivCost},
		OpLslNat:    {execLslNat, shiftCost},
		OpLsrNat:    {execLsrNat, shiftCost},
		OpOrNat:     {execOrNat, addCost},
		OpAndNat:    {execAndNat, addCost},
		OpAndIntNat: {execAndIntNat, addCost},
		OpXorNat:    {execXorNat, addCost},
		OpNotInt:    {execNotInt, unaryIntCost},

		OpIf:       {execIf, quick},
		OpLoop:     {execLoop, quick},
		OpLoopLeft: {execLoopLeft, quick},
		OpExec:     {execExec, constCost(GasInterpCall)},
		OpApply:    {execApply, constCost(GasInterpCall)},
		OpLambda:   {execLambda, quick},
		OpFailwith: {execFailwith, constCost(GasFailwith)},
		OpNever:    {execNever, quick},
		OpHalt:     {execHalt, nil},
		OpLog:      {execLog, nil},

		OpCompare: {execCompare, compareCost},
		OpEq:      {execEq, quick},
		OpNeq:     {execNeq, quick},
		OpLt:      {execLt, quick},
		OpGt:      {execGt, quick},
		OpLe:      {execLe, quick},
		OpGe:      {execGe, quick},

		OpAddress:          {execAddress, quick},
		OpContract:         {execContract, constCost(GasContractCheck + GasSlowStep)},
		OpView:             {execView, constCost(GasViewCall)},
		OpTransferTokens:   {execTransferTokens, constCost(GasTransfer)},
		OpImplicitAccount:  {execImplicitAccount, quick},
		OpCreateContract:   {execCreateContract, constCost(GasCreate)},
		OpSetDelegate:      {execSetDelegate, constCost(GasTransfer)},
		OpNow:              {execNow, quick},
		OpMinBlockTime:     {execMinBlockTime, quick},
		OpBalance:          {execBalance, quick},
		OpLevel:            {execLevel, quick},
		OpSource:           {execSource, quick},
		OpSender:           {execSender, quick},
		OpSelf:             {execSelf, quick},
		OpSelfAddress:      {execSelfAddress, quick},
		OpAmount:           {execAmount, quick},
		OpChainID:          {execChainID, quick},
		OpVotingPower:      {execVotingPower, mid},
		OpTotalVotingPower: {execTotalVotingPower, mid},
		OpEmit:             {execEmit, packCost},

		OpCheckSignature: {execCheckSignature, checkSignatureCost},
		OpHashKey:        {execHashKey, slow},
		OpBlake2b:        {execBlake2b, hashCost(430, 1)},
		OpSha256:         {execSha256, hashCost(600, 4)},
		OpSha512:         {execSha512, hashCost(680, 3)},
		OpKeccak:         {execKeccak, hashCost(1350, 8)},
		OpSha3:           {execSha3, hashCost(1350, 8)},
		OpPack:           {execPack, packCost},
		OpUnpack:         {execUnpack, unpackCost},

		OpAddG1:        {execAddG1, constCost(9000)},
		OpAddG2:        {execAddG2, constCost(13000)},
		OpAddFr:        {execAddFr, ext},
		OpMulG1:        {execMulG1, constCost(103000)},
		OpMulG2:        {execMulG2, constCost(220000)},
		OpMulFr:        {execMulFr, ext},
		OpMulZFr:       {execMulZFr, mid},
		OpMulFrZ:       {execMulFrZ, mid},
		OpIntFr:        {execIntFr, slow},
		OpNegG1:        {execNegG1, constCost(50)},
		OpNegG2:        {execNegG2, constCost(70)},
		OpNegFr:        {execNegFr, ext},
		OpPairingCheck: {execPairingCheck, pairingCost},

		OpSaplingEmptyState:   {execSaplingEmptyState, fast},
		OpSaplingVerifyUpdate: {execSaplingVerifyUpdate, constCost(GasSaplingVerify)},
		OpTicket:              {execTicket, constCost(GasTicket)},
		OpReadTicket:          {execReadTicket, constCost(GasTicket)},
		OpSplitTicket:         {execSplitTicket, ticketSplitCost},
		OpJoinTickets:         {execJoinTickets, joinTicketsCost},
		OpOpenChest:           {execOpenChest, openChestCost},
	}
}
