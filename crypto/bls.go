// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// encoded sizes of the BLS12-381 objects
const (
	G1Size = bls12381.SizeOfG1AffineUncompressed
	G2Size = bls12381.SizeOfG2AffineUncompressed
	FrSize = fr.Bytes
)

var blsSigDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_AUG_")

// G1 is a point of the BLS12-381 G1 subgroup.
type G1 struct{ p bls12381.G1Affine }

// G2 is a point of the BLS12-381 G2 subgroup.
type G2 struct{ p bls12381.G2Affine }

// Fr is an element of the BLS12-381 scalar field.
type Fr struct{ e fr.Element }

// ParseG1 decodes an uncompressed G1 point, checking subgroup membership.
func ParseG1(buf []byte) (*G1, error) {
	if len(buf) != G1Size {
		return nil, ErrInvalidG1Point
	}
	g := new(G1)
	if _, err := g.p.SetBytes(buf); err != nil {
		return nil, ErrInvalidG1Point
	}
	return g, nil
}

// Bytes returns the uncompressed encoding.
func (g *G1) Bytes() []byte {
	b := g.p.RawBytes()
	return b[:]
}

// Add returns g + o.
func (g *G1) Add(o *G1) *G1 {
	var j bls12381.G1Jac
	j.FromAffine(&g.p)
	j.AddMixed(&o.p)
	r := new(G1)
	r.p.FromJacobian(&j)
	return r
}

// Mul returns s * g.
func (g *G1) Mul(s *Fr) *G1 {
	r := new(G1)
	r.p.ScalarMultiplication(&g.p, s.BigInt())
	return r
}

// Neg returns -g.
func (g *G1) Neg() *G1 {
	r := new(G1)
	r.p.Neg(&g.p)
	return r
}

// ParseG2 decodes an uncompressed G2 point, checking subgroup membership.
func ParseG2(buf []byte) (*G2, error) {
	if len(buf) != G2Size {
		return nil, ErrInvalidG2Point
	}
	g := new(G2)
	if _, err := g.p.SetBytes(buf); err != nil {
		return nil, ErrInvalidG2Point
	}
	return g, nil
}

// Bytes returns the uncompressed encoding.
func (g *G2) Bytes() []byte {
	b := g.p.RawBytes()
	return b[:]
}

// Add returns g + o.
func (g *G2) Add(o *G2) *G2 {
	var j bls12381.G2Jac
	j.FromAffine(&g.p)
	j.AddMixed(&o.p)
	r := new(G2)
	r.p.FromJacobian(&j)
	return r
}

// Mul returns s * g.
func (g *G2) Mul(s *Fr) *G2 {
	r := new(G2)
	r.p.ScalarMultiplication(&g.p, s.BigInt())
	return r
}

// Neg returns -g.
func (g *G2) Neg() *G2 {
	r := new(G2)
	r.p.Neg(&g.p)
	return r
}

// ParseFr decodes a little-endian scalar, rejecting non canonical values.
func ParseFr(buf []byte) (*Fr, error) {
	if len(buf) > FrSize {
		return nil, ErrInvalidFrScalar
	}
	be := make([]byte, len(buf))
	for i := range buf {
		be[len(buf)-1-i] = buf[i]
	}
	n := new(big.Int).SetBytes(be)
	if n.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrInvalidFrScalar
	}
	return FrFromBig(n), nil
}

// FrFromBig reduces n modulo the field order.
func FrFromBig(n *big.Int) *Fr {
	f := new(Fr)
	f.e.SetBigInt(n)
	return f
}

// Bytes returns the 32 bytes little-endian encoding.
func (f *Fr) Bytes() []byte {
	be := f.e.Bytes()
	le := make([]byte, FrSize)
	for i := range be {
		le[FrSize-1-i] = be[i]
	}
	return le
}

// BigInt returns the canonical integer of f.
func (f *Fr) BigInt() *big.Int {
	return f.e.BigInt(new(big.Int))
}

// Add returns f + o.
func (f *Fr) Add(o *Fr) *Fr {
	r := new(Fr)
	r.e.Add(&f.e, &o.e)
	return r
}

// Mul returns f * o.
func (f *Fr) Mul(o *Fr) *Fr {
	r := new(Fr)
	r.e.Mul(&f.e, &o.e)
	return r
}

// Neg returns -f.
func (f *Fr) Neg() *Fr {
	r := new(Fr)
	r.e.Neg(&f.e)
	return r
}

// Equal checks equality of two scalars.
func (f *Fr) Equal(o *Fr) bool {
	return f.e.Equal(&o.e)
}

// PairingCheck returns whether the product of the pairings e(g1_i, g2_i) is one.
// An empty list is accepted.
func PairingCheck(g1s []*G1, g2s []*G2) (bool, error) {
	if len(g1s) == 0 {
		return true, nil
	}
	ps := make([]bls12381.G1Affine, len(g1s))
	qs := make([]bls12381.G2Affine, len(g2s))
	for i := range g1s {
		ps[i] = g1s[i].p
		qs[i] = g2s[i].p
	}
	return bls12381.PairingCheck(ps, qs)
}

// blsVerify checks a min-pk augmented BLS signature.
func blsVerify(pk, sig, msg []byte) bool {
	var pub bls12381.G1Affine
	if _, err := pub.SetBytes(pk); err != nil {
		return false
	}
	var s bls12381.G2Affine
	if _, err := s.SetBytes(sig); err != nil {
		return false
	}
	h, err := bls12381.HashToG2(append(append([]byte(nil), pk...), msg...), blsSigDST)
	if err != nil {
		return false
	}
	_, _, g1, _ := bls12381.Generators()
	var negG1 bls12381.G1Affine
	negG1.Neg(&g1)
	ok, err := bls12381.PairingCheck([]bls12381.G1Affine{pub, negG1}, []bls12381.G2Affine{h, s})
	return err == nil && ok
}

func generators() (bls12381.G1Jac, bls12381.G2Jac, bls12381.G1Affine, bls12381.G2Affine) {
	return bls12381.Generators()
}

// G1Generator returns the generator of G1.
func G1Generator() *G1 {
	_, _, g1, _ := bls12381.Generators()
	return &G1{p: g1}
}

// G2Generator returns the generator of G2.
func G2Generator() *G2 {
	_, _, _, g2 := bls12381.Generators()
	return &G2{p: g2}
}
