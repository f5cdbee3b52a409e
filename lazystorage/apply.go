// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package lazystorage applies the diffs of lazily stored values, big maps and
sapling states, against the state context and accounts for the byte size
they add to or remove from the store.
*/
package lazystorage

import (
	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/pkg/errors"
)

var logger = log.NewLogger("lazystorage")

// TotalBytes returns the persisted total size of id.
func TotalBytes(c *state.Context, k Kind, id ID) (int64, error) {
	n, ok, err := c.GetInt64(totalBytesKey(k, id))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Wrapf(ErrMissingLazyID, "%s %s", k, id)
	}
	return n, nil
}

func applyUpdates(c *state.Context, k Kind, id ID, updates Updates) (*state.Context, int64, error) {
	if updates == nil {
		return c, 0, nil
	}
	if updates.kind() != k {
		return nil, 0, ErrInvalidUpdates
	}
	c, delta, err := k.ops().applyUpdates(c, id, updates)
	if err != nil {
		return nil, 0, err
	}
	if delta == 0 {
		return c, 0, nil
	}
	total, err := TotalBytes(c, k, id)
	if err != nil {
		return nil, 0, err
	}
	return c.SetInt64(totalBytesKey(k, id), total+delta), delta, nil
}

func applyInit(c *state.Context, k Kind, id ID, init Init) (*state.Context, int64, error) {
	switch init := init.(type) {
	case Existing:
		return c, 0, nil
	case Copy:
		size, err := TotalBytes(c, k, init.Src)
		if err != nil {
			return nil, 0, err
		}
		c, err := c.CopyTree(idKey(k, init.Src), idKey(k, id))
		if err != nil {
			return nil, 0, err
		}
		if id.IsTemp() {
			return c, 0, nil
		}
		return c, size + k.BytesSizeForEmpty(), nil
	case Alloc:
		if init.Params == nil || init.Params.kind() != k {
			return nil, 0, ErrInvalidParams
		}
		c = c.SetInt64(totalBytesKey(k, id), 0)
		c, err := k.ops().alloc(c, id, init.Params)
		if err != nil {
			return nil, 0, err
		}
		return c, k.BytesSizeForEmpty(), nil
	}
	return nil, 0, ErrInvalidParams
}

func applyDiff(c *state.Context, k Kind, id ID, diff Diff) (*state.Context, int64, error) {
	switch diff := diff.(type) {
	case Remove:
		if id.IsTemp() {
			return c.RemoveTree(idKey(k, id)), 0, nil
		}
		size, err := TotalBytes(c, k, id)
		if err != nil {
			return nil, 0, err
		}
		return c.RemoveTree(idKey(k, id)), -(size + k.BytesSizeForEmpty()), nil
	case *Update:
		c, initDelta, err := applyInit(c, k, id, diff.Init)
		if err != nil {
			return nil, 0, err
		}
		c, updatesDelta, err := applyUpdates(c, k, id, diff.Updates)
		if err != nil {
			return nil, 0, err
		}
		return c, initDelta + updatesDelta, nil
	}
	return nil, 0, ErrInvalidUpdates
}

// ApplyItem applies a single item and returns its own byte size delta,
// temporary ids included.
func ApplyItem(c *state.Context, it *Item) (*state.Context, int64, error) {
	if !it.Kind.valid() {
		return nil, 0, ErrUnknownKind
	}
	return applyDiff(c, it.Kind, it.ID, it.Diff)
}

// Apply applies diffs in order and returns the size delta summed over the
// permanent ids. Store failures are returned as they come.
func Apply(c *state.Context, diffs Diffs) (*state.Context, int64, error) {
	var total int64
	for _, it := range diffs {
		next, delta, err := ApplyItem(c, it)
		if err != nil {
			logger.Errorf("Failed to apply lazy storage diff %s: %v", it, err)
			return nil, 0, err
		}
		logger.Debugf("Applied %s, size delta %d", it, delta)
		c = next
		if !it.ID.IsTemp() {
			total += delta
		}
	}
	metrics.LazyDiffItemsCounter.Inc(int64(len(diffs)))
	return c, total, nil
}
