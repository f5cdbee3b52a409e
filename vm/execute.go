// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"sort"
	"time"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/pkg/errors"
)

// Result is the outcome of a contract call.
type Result struct {
	Storage    Value
	Operations []*Operation
	// LazyStorageDiff brings the persisted lazy storage to the new storage.
	// It has been applied to Ctxt.
	LazyStorageDiff lazystorage.Diffs
	// SizeDelta is the number of bytes the diff adds to the store.
	SizeDelta   int64
	Ctxt        *state.Context
	GasConsumed gas.Cost
	Steps       int64
}

// Execute calls the entrypoint of script with param on storage. The big
// maps of storage are updated in place, those of the parameter are copied.
// On failure the context is left untouched; temporary ids created for the
// emitted operations stay allocated until lazystorage.CleanupTemporaries.
func Execute(ctxt *state.Context, step *StepConstants, env *Env, script *Script, entrypoint string,
	param, storage Value, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if step == nil {
		step = &StepConstants{}
	}
	if ctxt.Meter() == nil {
		meter, err := gas.NewMeter(cfg.HardGasLimit)
		if err != nil {
			return nil, err
		}
		ctxt = ctxt.WithMeter(meter)
	}
	argTy, path, ok := findEntrypoint(script.Param, entrypoint)
	if !ok {
		return nil, errors.Wrap(ErrUnknownEntrypoint, entrypoint)
	}
	if !HasType(param, argTy) {
		return nil, errors.Wrapf(ErrBadParameter, "%s is not %s", entrypoint, argTy)
	}
	if !HasType(storage, script.Storage) {
		return nil, errors.Wrapf(ErrInvalidValueForTy, "storage is not %s", script.Storage)
	}

	start, before := time.Now(), ctxt.Meter().Consumed()
	owned := newLazyIDs()
	collectLazyIDs(script.Storage, storage, owned)

	in := NewInterpreter(ctxt, step, env, cfg)
	logger.Debugf("Executing %s%%%s with %v gas left", step.Self, entrypoint, ctxt.Meter().Remaining())
	res, err := in.execute(script, wrapEntrypoint(path, param), storage, owned)
	metrics.VMStepsCounter.Inc(in.Steps())
	metrics.VMExecTimer.UpdateSince(start)
	if err != nil {
		metrics.VMFailedCounter.Inc(1)
		logger.Debugf("Execution of %s failed after %d steps: %v", step.Self, in.Steps(), err)
		return nil, err
	}
	res.GasConsumed = res.Ctxt.Meter().Consumed() - before
	res.Steps = in.Steps()
	metrics.VMGasHistogram.Update(res.GasConsumed.Ceil())
	metrics.LazyDiffItemsCounter.Inc(int64(len(res.LazyStorageDiff)))
	logger.Debugf("Executed %s: %d steps, %v gas, %d operations, %d lazy storage items",
		step.Self, res.Steps, res.GasConsumed, len(res.Operations), len(res.LazyStorageDiff))
	return res, nil
}

func (in *Interpreter) execute(script *Script, param, storage Value, owned lazyIDs) (*Result, error) {
	out, err := in.Run(script.Code, Pair{param, storage})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Wrapf(ErrBadReturn, "%d items left", len(out))
	}
	ret, ok := out[0].(Pair)
	if !ok {
		return nil, ErrBadReturn
	}
	var ops []*Operation
	for _, v := range ret.L.(*List).Items() {
		ops = append(ops, v.(*Operation))
	}

	x := newLazyExtractor(in.Context(), false, owned)
	storage, err = x.extract(script.Storage, ret.R)
	if err != nil {
		return nil, errors.Wrap(err, "extracting lazy storage")
	}
	diffs := x.result()
	for _, k := range []lazystorage.Kind{lazystorage.BigMap, lazystorage.SaplingState} {
		dead := owned[k].Difference(x.seen[k]).ToSlice()
		sort.Slice(dead, func(i, j int) bool { return dead[i] < dead[j] })
		for _, id := range dead {
			diffs = append(diffs, lazystorage.MakeRemove(k, id))
		}
	}
	c, delta, err := lazystorage.Apply(x.ctxt, diffs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Storage:         storage,
		Operations:      ops,
		LazyStorageDiff: diffs,
		SizeDelta:       delta,
		Ctxt:            c,
	}, nil
}
