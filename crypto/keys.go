// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// Curve identifies the signature scheme of a key.
type Curve byte

// supported curves, the value is the binary tag
const (
	Ed25519 Curve = iota
	Secp256k1
	P256
	BLS
)

type curveInfo struct {
	name      string
	keySize   int
	keyPrefix []byte
	pkhPrefix []byte
}

var curves = [...]curveInfo{
	Ed25519:   {"ed25519", ed25519.PublicKeySize, PrefixEd25519Key, PrefixEd25519KeyHash},
	Secp256k1: {"secp256k1", btcec.PubKeyBytesLenCompressed, PrefixSecp256k1Key, PrefixSecp256k1KeyHash},
	P256:      {"p256", 33, PrefixP256Key, PrefixP256KeyHash},
	BLS:       {"bls", 48, PrefixBLSKey, PrefixBLSKeyHash},
}

func (c Curve) valid() bool { return int(c) < len(curves) }

func (c Curve) String() string {
	if !c.valid() {
		return "unknown"
	}
	return curves[c].name
}

// SignatureSize returns the raw signature length of the curve.
func (c Curve) SignatureSize() int {
	if c == BLS {
		return 96
	}
	return 64
}

// PublicKey is a tagged public key.
type PublicKey struct {
	Curve Curve
	Data  []byte
}

// NewPublicKey checks the key length and returns the key.
func NewPublicKey(c Curve, data []byte) (*PublicKey, error) {
	if !c.valid() {
		return nil, ErrUnknownCurve
	}
	if len(data) != curves[c].keySize {
		return nil, ErrInvalidPublicKey
	}
	return &PublicKey{Curve: c, Data: append([]byte(nil), data...)}, nil
}

// Serialize returns the binary form: curve tag followed by the key bytes.
func (p *PublicKey) Serialize() []byte {
	return append([]byte{byte(p.Curve)}, p.Data...)
}

// ParsePublicKey parses the binary form of a public key and returns the
// number of consumed bytes.
func ParsePublicKey(buf []byte) (*PublicKey, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrInvalidPublicKey
	}
	c := Curve(buf[0])
	if !c.valid() {
		return nil, 0, ErrUnknownCurve
	}
	n := 1 + curves[c].keySize
	if len(buf) < n {
		return nil, 0, ErrInvalidPublicKey
	}
	pk, err := NewPublicKey(c, buf[1:n])
	return pk, n, err
}

// Hash returns the key hash of the public key.
func (p *PublicKey) Hash() *KeyHash {
	return &KeyHash{Curve: p.Curve, Hash: Blake2b160(p.Data)}
}

// Compare orders keys by their binary form.
func (p *PublicKey) Compare(o *PublicKey) int {
	return bytes.Compare(p.Serialize(), o.Serialize())
}

func (p *PublicKey) String() string {
	return EncodePrefixed(curves[p.Curve].keyPrefix, p.Data)
}

// ParsePublicKeyString decodes a base58 encoded public key.
func ParsePublicKeyString(s string) (*PublicKey, error) {
	for i, info := range curves {
		if payload, err := DecodePrefixed(info.keyPrefix, info.keySize, s); err == nil {
			return NewPublicKey(Curve(i), payload)
		}
	}
	return nil, ErrInvalidPublicKey
}

// KeyHash is a tagged 20 bytes public key hash.
type KeyHash struct {
	Curve Curve
	Hash  [KeyHashSize]byte
}

// Serialize returns the binary form: curve tag followed by the hash.
func (h *KeyHash) Serialize() []byte {
	return append([]byte{byte(h.Curve)}, h.Hash[:]...)
}

// ParseKeyHash parses the 21 bytes binary form of a key hash.
func ParseKeyHash(buf []byte) (*KeyHash, error) {
	if len(buf) != 1+KeyHashSize {
		return nil, ErrInvalidKeyHash
	}
	c := Curve(buf[0])
	if !c.valid() {
		return nil, ErrUnknownCurve
	}
	h := &KeyHash{Curve: c}
	copy(h.Hash[:], buf[1:])
	return h, nil
}

// Compare orders key hashes by their binary form.
func (h *KeyHash) Compare(o *KeyHash) int {
	return bytes.Compare(h.Serialize(), o.Serialize())
}

func (h *KeyHash) String() string {
	return EncodePrefixed(curves[h.Curve].pkhPrefix, h.Hash[:])
}

// ParseKeyHashString decodes a base58 encoded key hash, tz1, tz2, tz3 or tz4.
func ParseKeyHashString(s string) (*KeyHash, error) {
	for i, info := range curves {
		if payload, err := DecodePrefixed(info.pkhPrefix, KeyHashSize, s); err == nil {
			h := &KeyHash{Curve: Curve(i)}
			copy(h.Hash[:], payload)
			return h, nil
		}
	}
	return nil, ErrInvalidKeyHash
}

// Signature is an untagged signature, 64 bytes or 96 bytes for BLS.
type Signature []byte

// ParseSignature checks the length of a raw signature.
func ParseSignature(buf []byte) (Signature, error) {
	if len(buf) != 64 && len(buf) != 96 {
		return nil, ErrInvalidSignature
	}
	return Signature(append([]byte(nil), buf...)), nil
}

func (s Signature) String() string {
	return EncodePrefixed(PrefixSignature, s)
}

// ParseSignatureString decodes a base58 generic signature.
func ParseSignatureString(s string) (Signature, error) {
	payload, err := DecodePrefixed(PrefixSignature, -1, s)
	if err != nil {
		return nil, err
	}
	return ParseSignature(payload)
}

// CheckSignature verifies sig over the blake2b digest of msg.
func CheckSignature(pk *PublicKey, sig Signature, msg []byte) bool {
	if len(sig) != pk.Curve.SignatureSize() {
		return false
	}
	digest := Blake2b256(msg)
	switch pk.Curve {
	case Ed25519:
		return ed25519.Verify(ed25519.PublicKey(pk.Data), digest[:], sig)
	case Secp256k1:
		pub, err := btcec.ParsePubKey(pk.Data, btcec.S256())
		if err != nil {
			return false
		}
		s := &btcec.Signature{R: new(big.Int).SetBytes(sig[:32]), S: new(big.Int).SetBytes(sig[32:])}
		return s.Verify(digest[:], pub)
	case P256:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), pk.Data)
		if x == nil {
			return false
		}
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		return ecdsa.Verify(pub, digest[:], new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:]))
	case BLS:
		return blsVerify(pk.Data, sig, msg)
	}
	return false
}

// PrivateKey signs messages for a curve, used to build fixtures.
type PrivateKey struct {
	curve Curve
	ed    ed25519.PrivateKey
	btc   *btcec.PrivateKey
	p256  *ecdsa.PrivateKey
}

// NewKeyPair returns a new private and public key pair
func NewKeyPair(c Curve) (*PrivateKey, *PublicKey, error) {
	priv := &PrivateKey{curve: c}
	switch c {
	case Ed25519:
		_, sk, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		priv.ed = sk
	case Secp256k1:
		sk, err := btcec.NewPrivateKey(btcec.S256())
		if err != nil {
			return nil, nil, err
		}
		priv.btc = sk
	case P256:
		sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		priv.p256 = sk
	default:
		return nil, nil, ErrSigningUnsupported
	}
	return priv, priv.PubKey(), nil
}

// PubKey returns the PublicKey corresponding to this private key.
func (p *PrivateKey) PubKey() *PublicKey {
	switch p.curve {
	case Ed25519:
		return &PublicKey{Curve: Ed25519, Data: []byte(p.ed.Public().(ed25519.PublicKey))}
	case Secp256k1:
		return &PublicKey{Curve: Secp256k1, Data: p.btc.PubKey().SerializeCompressed()}
	default:
		return &PublicKey{Curve: P256, Data: elliptic.MarshalCompressed(elliptic.P256(), p.p256.X, p.p256.Y)}
	}
}

// Sign signs the blake2b digest of msg.
func (p *PrivateKey) Sign(msg []byte) (Signature, error) {
	digest := Blake2b256(msg)
	switch p.curve {
	case Ed25519:
		return Signature(ed25519.Sign(p.ed, digest[:])), nil
	case Secp256k1:
		sig, err := p.btc.Sign(digest[:])
		if err != nil {
			return nil, err
		}
		return joinRS(sig.R, sig.S), nil
	default:
		r, s, err := ecdsa.Sign(rand.Reader, p.p256, digest[:])
		if err != nil {
			return nil, err
		}
		return joinRS(r, s), nil
	}
}

func joinRS(r, s *big.Int) Signature {
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}
