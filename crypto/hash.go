// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	// HashSize is length of the default digest
	HashSize = 32
	// KeyHashSize is length of a public key hash
	KeyHashSize = 20
)

// HashType is a 32 bytes digest
type HashType [HashSize]byte

// Blake2b256 calculates the 32 bytes blake2b digest of buf
func Blake2b256(buf []byte) HashType {
	return HashType(blake2b.Sum256(buf))
}

// Blake2b160 calculates the 20 bytes blake2b digest of buf
func Blake2b160(buf []byte) [KeyHashSize]byte {
	var digest [KeyHashSize]byte
	hasher, _ := blake2b.New(KeyHashSize, nil)
	hasher.Write(buf)
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Sha256 calculates the sha256 digest of buf
func Sha256(buf []byte) []byte {
	digest := sha256.Sum256(buf)
	return digest[:]
}

// Sha512 calculates the sha512 digest of buf
func Sha512(buf []byte) []byte {
	digest := sha512.Sum512(buf)
	return digest[:]
}

// Keccak256 calculates the legacy keccak-256 digest of buf
func Keccak256(buf []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// Sha3 calculates the sha3-256 digest of buf
func Sha3(buf []byte) []byte {
	digest := sha3.Sum256(buf)
	return digest[:]
}
