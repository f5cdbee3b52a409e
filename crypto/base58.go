// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"bytes"

	"github.com/btcsuite/btcutil/base58"
)

// base58 prefixes of the encoded objects
var (
	PrefixEd25519KeyHash   = []byte{6, 161, 159}      // tz1
	PrefixSecp256k1KeyHash = []byte{6, 161, 161}      // tz2
	PrefixP256KeyHash      = []byte{6, 161, 164}      // tz3
	PrefixBLSKeyHash       = []byte{6, 161, 166}      // tz4
	PrefixContractHash     = []byte{2, 90, 121}       // KT1
	PrefixEd25519Key       = []byte{13, 15, 37, 217}  // edpk
	PrefixSecp256k1Key     = []byte{3, 254, 226, 86}  // sppk
	PrefixP256Key          = []byte{3, 178, 139, 127} // p2pk
	PrefixBLSKey           = []byte{6, 149, 135, 204} // BLpk
	PrefixSignature        = []byte{4, 130, 43}       // sig
	PrefixChainID          = []byte{87, 82, 0}        // Net
	PrefixScriptExpr       = []byte{13, 44, 64, 27}   // expr
)

// Base58CheckEncode calculates the 4 bytes checksum of input bytes,
// append checksum to the input bytes, and convert to base58 format
func Base58CheckEncode(in []byte) string {
	b := make([]byte, 0, len(in)+4)
	b = append(b, in...)
	cksum := Checksum(in)
	b = append(b, cksum[:]...)
	return base58.Encode(b)
}

// Checksum return input bytes checksum.
func Checksum(input []byte) (cksum [4]byte) {
	h := Sha256(Sha256(input))
	copy(cksum[:], h[:4])
	return
}

// Base58CheckDecode converts a base58 format string to byte array,
// checks the checksum and returns the wrapped byte array content
func Base58CheckDecode(in string) ([]byte, error) {
	rawBytes := base58.Decode(in)
	if len(rawBytes) == 0 && len(in) > 0 {
		return nil, ErrInvalidBase58Encoding
	}
	if len(rawBytes) < 5 {
		return nil, ErrInvalidBase58StringLength
	}
	var cksum [4]byte
	sep := len(rawBytes) - 4
	content := make([]byte, sep)
	copy(cksum[:], rawBytes[sep:])
	copy(content, rawBytes[:sep])
	if Checksum(content) != cksum {
		return nil, ErrInvalidBase58Checksum
	}
	return content, nil
}

// EncodePrefixed encodes payload behind the given prefix.
func EncodePrefixed(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload))
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	return Base58CheckEncode(buf)
}

// DecodePrefixed decodes s, checks its prefix and payload size, and returns the payload.
func DecodePrefixed(prefix []byte, size int, s string) ([]byte, error) {
	raw, err := Base58CheckDecode(s)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(raw, prefix) {
		return nil, ErrInvalidBase58Prefix
	}
	payload := raw[len(prefix):]
	if size >= 0 && len(payload) != size {
		return nil, ErrInvalidBase58StringLength
	}
	return payload, nil
}
