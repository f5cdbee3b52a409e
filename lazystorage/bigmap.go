// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"encoding/hex"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/key"
	"github.com/pkg/errors"
)

// big map size accounting
const (
	bigMapBytesSizeForEmpty = 33
	bigMapBytesSizeForKey   = 65
)

// BigMapAlloc records the key and value types of a new big map.
type BigMapAlloc struct {
	KeyType   micheline.Node
	ValueType micheline.Node
}

func (*BigMapAlloc) kind() Kind { return BigMap }

// BigMapUpdate binds or removes (nil Value) the key whose hash is KeyHash.
type BigMapUpdate struct {
	Key     micheline.Node
	KeyHash crypto.HashType
	Value   micheline.Node
}

// BigMapUpdates are applied in order.
type BigMapUpdates []*BigMapUpdate

func (BigMapUpdates) kind() Kind { return BigMap }

func (u BigMapUpdates) len() int { return len(u) }

// KeyHash returns the hash under which a big map key is stored: the
// blake2b digest of the packed key.
func KeyHash(k micheline.Node) crypto.HashType {
	return crypto.Blake2b256(micheline.Pack(k))
}

// KeyHashString returns the readable form of a key hash.
func KeyHashString(h crypto.HashType) string {
	return crypto.EncodePrefixed(crypto.PrefixScriptExpr, h[:])
}

type bigMapOps struct{}

func (bigMapOps) title() string { return "big_maps" }

func (bigMapOps) bytesSizeForEmpty() int64 { return bigMapBytesSizeForEmpty }

func contentsKey(id ID, h crypto.HashType) key.Key {
	return idKey(BigMap, id).ChildString("contents").ChildString(hex.EncodeToString(h[:]))
}

func (bigMapOps) alloc(c *state.Context, id ID, params AllocParams) (*state.Context, error) {
	p := params.(*BigMapAlloc)
	if p.KeyType == nil || p.ValueType == nil {
		return nil, ErrInvalidParams
	}
	c = c.Set(idKey(BigMap, id).ChildString("key_type"), micheline.Encode(micheline.StripAnnotations(p.KeyType)))
	c = c.Set(idKey(BigMap, id).ChildString("value_type"), micheline.Encode(micheline.StripAnnotations(p.ValueType)))
	return c, nil
}

func (bigMapOps) applyUpdates(c *state.Context, id ID, updates Updates) (*state.Context, int64, error) {
	var delta int64
	for _, u := range updates.(BigMapUpdates) {
		base := contentsKey(id, u.KeyHash)
		old, err := c.Get(base.ChildString("data"))
		if err != nil {
			return nil, 0, err
		}
		if u.Value == nil {
			if old != nil {
				delta -= bigMapBytesSizeForKey + int64(len(old))
				c = c.RemoveTree(base)
			}
			continue
		}
		data := micheline.Encode(u.Value)
		if old != nil {
			delta += int64(len(data)) - int64(len(old))
		} else {
			delta += bigMapBytesSizeForKey + int64(len(data))
		}
		c = c.Set(base.ChildString("data"), data).Set(base.ChildString("key"), micheline.Encode(u.Key))
	}
	return c, delta, nil
}

func decodeAt(c *state.Context, k key.Key) (micheline.Node, error) {
	buf, err := c.Get(k)
	if err != nil || buf == nil {
		return nil, err
	}
	if err := c.Consume(micheline.DeserializationCostFromBytes(len(buf))); err != nil {
		return nil, err
	}
	n, err := micheline.Decode(buf)
	if err != nil {
		return nil, errors.Wrap(err, k.String())
	}
	return n, nil
}

// BigMapTypes returns the key and value types of an allocated big map.
func BigMapTypes(c *state.Context, id ID) (micheline.Node, micheline.Node, error) {
	kt, err := decodeAt(c, idKey(BigMap, id).ChildString("key_type"))
	if err != nil {
		return nil, nil, err
	}
	vt, err := decodeAt(c, idKey(BigMap, id).ChildString("value_type"))
	if err != nil {
		return nil, nil, err
	}
	if kt == nil || vt == nil {
		return nil, nil, errors.Wrapf(ErrMissingLazyID, "big map %s", id)
	}
	return kt, vt, nil
}

// BigMapGet returns the persisted value bound to the key hash, nil if unbound.
func BigMapGet(c *state.Context, id ID, h crypto.HashType) (micheline.Node, error) {
	return decodeAt(c, contentsKey(id, h).ChildString("data"))
}

// BigMapMem checks whether the key hash is bound in the persisted big map.
func BigMapMem(c *state.Context, id ID, h crypto.HashType) (bool, error) {
	return c.Mem(contentsKey(id, h).ChildString("data"))
}

// BigMapEntry is one persisted binding.
type BigMapEntry struct {
	KeyHash crypto.HashType
	Key     micheline.Node
	Value   micheline.Node
}

// BigMapEntries lists the persisted bindings of a big map ordered by key hash.
func BigMapEntries(c *state.Context, id ID) ([]*BigMapEntry, error) {
	var entries []*BigMapEntry
	for _, k := range c.Keys(idKey(BigMap, id).ChildString("contents")) {
		if k.BaseName() != "data" {
			continue
		}
		raw, err := hex.DecodeString(k.Parent().BaseName())
		if err != nil || len(raw) != crypto.HashSize {
			return nil, errors.Wrap(state.ErrCorruptValue, k.String())
		}
		e := &BigMapEntry{}
		copy(e.KeyHash[:], raw)
		if e.Key, err = decodeAt(c, k.Parent().ChildString("key")); err != nil {
			return nil, err
		}
		if e.Value, err = decodeAt(c, k); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
