// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/key"
	"github.com/pkg/errors"
)

const (
	saplingBytesSizeForEmpty = 33
	saplingCommitmentSize    = 32
	saplingNullifierSize     = 32
)

// SaplingAlloc records the memo size of a new sapling state.
type SaplingAlloc struct {
	MemoSize uint16
}

func (*SaplingAlloc) kind() Kind { return SaplingState }

// SaplingOutput is a note commitment with its encrypted payload.
type SaplingOutput struct {
	Commitment [saplingCommitmentSize]byte
	Ciphertext []byte
}

// SaplingUpdates appends outputs to the commitment tree and records spent
// nullifiers.
type SaplingUpdates struct {
	Outputs    []SaplingOutput
	Nullifiers [][saplingNullifierSize]byte
}

func (*SaplingUpdates) kind() Kind { return SaplingState }

func (u *SaplingUpdates) len() int { return len(u.Outputs) + len(u.Nullifiers) }

type saplingOps struct{}

func (saplingOps) title() string { return "sapling_states" }

func (saplingOps) bytesSizeForEmpty() int64 { return saplingBytesSizeForEmpty }

func saplingKey(id ID, name string) key.Key {
	return idKey(SaplingState, id).ChildString(name)
}

func positionKey(id ID, dir string, pos int64) key.Key {
	return saplingKey(id, dir).ChildString(fmt.Sprintf("%016x", pos))
}

func (saplingOps) alloc(c *state.Context, id ID, params AllocParams) (*state.Context, error) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], params.(*SaplingAlloc).MemoSize)
	return c.Set(saplingKey(id, "memo_size"), buf[:]).SetInt64(saplingKey(id, "size"), 0), nil
}

func (saplingOps) applyUpdates(c *state.Context, id ID, updates Updates) (*state.Context, int64, error) {
	u := updates.(*SaplingUpdates)
	size, _, err := c.GetInt64(saplingKey(id, "size"))
	if err != nil {
		return nil, 0, err
	}
	var delta int64
	for _, out := range u.Outputs {
		c = c.Set(positionKey(id, "commitments", size), out.Commitment[:]).
			Set(positionKey(id, "ciphertexts", size), out.Ciphertext)
		size++
		delta += saplingCommitmentSize + int64(len(out.Ciphertext))
	}
	for _, nf := range u.Nullifiers {
		k := saplingKey(id, "nullifiers").ChildString(hex.EncodeToString(nf[:]))
		spent, err := c.Mem(k)
		if err != nil {
			return nil, 0, err
		}
		if spent {
			continue
		}
		c = c.Set(k, []byte{1})
		delta += saplingNullifierSize
	}
	return c.SetInt64(saplingKey(id, "size"), size), delta, nil
}

// SaplingMemoSize returns the memo size of an allocated sapling state.
func SaplingMemoSize(c *state.Context, id ID) (uint16, error) {
	buf, err := c.Find(saplingKey(id, "memo_size"))
	if err != nil {
		return 0, err
	}
	if len(buf) != 2 {
		return 0, errors.Wrap(state.ErrCorruptValue, "memo_size")
	}
	return binary.BigEndian.Uint16(buf), nil
}

// SaplingSize returns the number of commitments of a sapling state.
func SaplingSize(c *state.Context, id ID) (int64, error) {
	n, _, err := c.GetInt64(saplingKey(id, "size"))
	return n, err
}

// SaplingNullifierSpent checks whether a nullifier was already recorded.
func SaplingNullifierSpent(c *state.Context, id ID, nf [saplingNullifierSize]byte) (bool, error) {
	return c.Mem(saplingKey(id, "nullifiers").ChildString(hex.EncodeToString(nf[:])))
}
