// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"math/big"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Chest is a value sealed behind a sequential squaring puzzle.
type Chest struct {
	Locked     *big.Int
	Modulus    *big.Int
	Nonce      [nonceSize]byte
	Ciphertext []byte
}

// ChestKey is the puzzle solution with its proof of correct exponentiation.
type ChestKey struct {
	Unlocked *big.Int
	Proof    *big.Int
}

// OpenResult is the outcome of opening a chest.
type OpenResult int

// open outcomes
const (
	OpenedOK OpenResult = iota
	BogusCipher
	BogusOpening
)

// OpenChest checks that key solves the puzzle of chest for the given time
// and decrypts the payload.
func OpenChest(chest *Chest, key *ChestKey, time uint64) ([]byte, OpenResult) {
	n := chest.Modulus
	if n.Sign() <= 0 || key.Unlocked.Cmp(n) >= 0 || key.Proof.Cmp(n) >= 0 {
		return nil, BogusOpening
	}
	l := challengePrime(n, chest.Locked, key.Unlocked, time)
	r := new(big.Int).Exp(big.NewInt(2), new(big.Int).SetUint64(time), l)

	lhs := new(big.Int).Exp(key.Proof, l, n)
	lhs.Mul(lhs, new(big.Int).Exp(chest.Locked, r, n))
	lhs.Mod(lhs, n)
	if lhs.Cmp(new(big.Int).Mod(key.Unlocked, n)) != 0 {
		return nil, BogusOpening
	}

	symKey := Blake2b256(key.Unlocked.Bytes())
	payload, ok := secretbox.Open(nil, chest.Ciphertext, &chest.Nonce, (*[32]byte)(&symKey))
	if !ok {
		return nil, BogusCipher
	}
	return payload, OpenedOK
}

// challengePrime derives the verifier prime from the puzzle statement.
func challengePrime(n, locked, unlocked *big.Int, time uint64) *big.Int {
	var buf []byte
	for _, x := range []*big.Int{n, locked, unlocked} {
		buf = appendBig(buf, x)
	}
	buf = binary.BigEndian.AppendUint64(buf, time)
	h := Blake2b256(buf)
	l := new(big.Int).SetBytes(h[:16])
	l.SetBit(l, 0, 1)
	for !l.ProbablyPrime(20) {
		l.Add(l, big.NewInt(2))
	}
	return l
}

// NewChest seals payload behind a puzzle taking time squarings to solve,
// using a fresh RSA modulus of the given size. It returns the chest and
// its key, computed through the trapdoor.
func NewChest(payload []byte, time uint64, bits int) (*Chest, *ChestKey, error) {
	p, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, nil, err
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, nil, err
	}
	one := big.NewInt(1)
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))

	locked, err := rand.Int(rand.Reader, new(big.Int).Sub(n, big.NewInt(2)))
	if err != nil {
		return nil, nil, err
	}
	locked.Add(locked, big.NewInt(2))

	t := new(big.Int).SetUint64(time)
	e := new(big.Int).Exp(big.NewInt(2), t, phi)
	unlocked := new(big.Int).Exp(locked, e, n)

	l := challengePrime(n, locked, unlocked, time)
	quo := new(big.Int).Lsh(one, uint(time))
	quo.Quo(quo, l)
	proof := new(big.Int).Exp(locked, quo, n)

	chest := &Chest{Locked: locked, Modulus: n}
	if _, err := io.ReadFull(rand.Reader, chest.Nonce[:]); err != nil {
		return nil, nil, err
	}
	symKey := Blake2b256(unlocked.Bytes())
	chest.Ciphertext = secretbox.Seal(nil, payload, &chest.Nonce, (*[32]byte)(&symKey))
	return chest, &ChestKey{Unlocked: unlocked, Proof: proof}, nil
}

// Bytes returns the binary encoding of the chest.
func (c *Chest) Bytes() []byte {
	buf := appendBig(nil, c.Locked)
	buf = appendBig(buf, c.Modulus)
	buf = append(buf, c.Nonce[:]...)
	return appendBytes(buf, c.Ciphertext)
}

// ParseChest decodes a chest.
func ParseChest(buf []byte) (*Chest, error) {
	c := new(Chest)
	var ok bool
	if c.Locked, buf, ok = readBig(buf); !ok {
		return nil, ErrInvalidChest
	}
	if c.Modulus, buf, ok = readBig(buf); !ok {
		return nil, ErrInvalidChest
	}
	if len(buf) < nonceSize {
		return nil, ErrInvalidChest
	}
	copy(c.Nonce[:], buf)
	if c.Ciphertext, buf, ok = readBytes(buf[nonceSize:]); !ok || len(buf) != 0 {
		return nil, ErrInvalidChest
	}
	return c, nil
}

// Bytes returns the binary encoding of the chest key.
func (k *ChestKey) Bytes() []byte {
	return appendBig(appendBig(nil, k.Unlocked), k.Proof)
}

// ParseChestKey decodes a chest key.
func ParseChestKey(buf []byte) (*ChestKey, error) {
	k := new(ChestKey)
	var ok bool
	if k.Unlocked, buf, ok = readBig(buf); !ok {
		return nil, ErrInvalidChestKey
	}
	if k.Proof, buf, ok = readBig(buf); !ok || len(buf) != 0 {
		return nil, ErrInvalidChestKey
	}
	return k, nil
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendBig(buf []byte, x *big.Int) []byte {
	return appendBytes(buf, x.Bytes())
}

func readBytes(buf []byte) ([]byte, []byte, bool) {
	if len(buf) < 4 {
		return nil, nil, false
	}
	n := binary.BigEndian.Uint32(buf)
	buf = buf[4:]
	if uint64(len(buf)) < uint64(n) {
		return nil, nil, false
	}
	return append([]byte(nil), buf[:n]...), buf[n:], true
}

func readBig(buf []byte) (*big.Int, []byte, bool) {
	b, rest, ok := readBytes(buf)
	if !ok {
		return nil, nil, false
	}
	return new(big.Int).SetBytes(b), rest, true
}
