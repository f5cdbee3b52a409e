// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/facebookgo/ensure"
)

func arrWithByte(len int, b byte) []byte {
	arr := make([]byte, len)
	for i := 0; i < len; i++ {
		arr[i] = b
	}
	return arr
}

func TestBase58CheckRoundTrip(t *testing.T) {
	ensure.DeepEqual(t, Base58CheckEncode(arrWithByte(20, 0)), "111111111111111111117K4nzc")
	ensure.DeepEqual(t, Base58CheckEncode(arrWithByte(0, 0)), "3QJmnh")

	out, err := Base58CheckDecode("QLbz7JHiBTspS962RLKV8GndWFwfcDTBW")
	ensure.Nil(t, err)
	ensure.DeepEqual(t, out, arrWithByte(20, 255))

	_, err = Base58CheckDecode("QLbz7JHiBTspS962RLKV8GndWFwfcDTBV")
	ensure.DeepEqual(t, err, ErrInvalidBase58Checksum)
	_, err = Base58CheckDecode("3QJmnh")
	ensure.DeepEqual(t, err, ErrInvalidBase58StringLength)
}

func TestKeyHashEncoding(t *testing.T) {
	h := &KeyHash{Curve: Ed25519}
	s := h.String()
	ensure.DeepEqual(t, s, "tz1Ke2h7sDdakHJQh8WX4Z372du1KChsksyU")
	back, err := ParseKeyHashString(s)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, back, h)

	parsed, err := ParseKeyHash(h.Serialize())
	ensure.Nil(t, err)
	ensure.DeepEqual(t, parsed, h)

	_, err = ParseKeyHashString("KT1BEqzn5Wx8uJrZNvuS9DVHmLvG9td3fDLi")
	ensure.NotNil(t, err)
}

func TestHashes(t *testing.T) {
	ensure.DeepEqual(t, hex.EncodeToString(Sha256(nil)),
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	ensure.DeepEqual(t, hex.EncodeToString(Keccak256(nil)),
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	h := Blake2b256(nil)
	ensure.DeepEqual(t, hex.EncodeToString(h[:]),
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8")
}

func TestSignatures(t *testing.T) {
	msg := []byte("dummy test message")
	for _, c := range []Curve{Ed25519, Secp256k1, P256} {
		priv, pub, err := NewKeyPair(c)
		ensure.Nil(t, err)
		sig, err := priv.Sign(msg)
		ensure.Nil(t, err)
		ensure.True(t, CheckSignature(pub, sig, msg), c.String())
		ensure.False(t, CheckSignature(pub, sig, []byte("other message")), c.String())

		_, other, err := NewKeyPair(c)
		ensure.Nil(t, err)
		ensure.False(t, CheckSignature(other, sig, msg), c.String())

		back, err := ParsePublicKeyString(pub.String())
		ensure.Nil(t, err)
		ensure.DeepEqual(t, back, pub)
	}
}

func TestBLSArithmetic(t *testing.T) {
	two := FrFromBig(big.NewInt(2))
	three := FrFromBig(big.NewInt(3))
	ensure.True(t, two.Add(three).Equal(FrFromBig(big.NewInt(5))))
	ensure.True(t, two.Mul(three).Neg().Add(FrFromBig(big.NewInt(6))).Equal(FrFromBig(big.NewInt(0))))

	back, err := ParseFr(three.Bytes())
	ensure.Nil(t, err)
	ensure.True(t, back.Equal(three))
	ensure.DeepEqual(t, three.Bytes()[0], byte(3))

	_, err = ParseFr(arrWithByte(32, 0xff))
	ensure.DeepEqual(t, err, ErrInvalidFrScalar)

	_, _, g1, g2 := generators()
	p := &G1{p: g1}
	q := &G2{p: g2}
	ensure.DeepEqual(t, p.Add(p).Bytes(), p.Mul(two).Bytes())

	ok, err := PairingCheck([]*G1{p, p.Neg()}, []*G2{q, q})
	ensure.Nil(t, err)
	ensure.True(t, ok)

	ok, err = PairingCheck(nil, nil)
	ensure.Nil(t, err)
	ensure.True(t, ok)

	parsed, err := ParseG1(p.Bytes())
	ensure.Nil(t, err)
	ensure.DeepEqual(t, parsed.Bytes(), p.Bytes())
	_, err = ParseG2(p.Bytes())
	ensure.DeepEqual(t, err, ErrInvalidG2Point)
}

func TestTimelock(t *testing.T) {
	chest, key, err := NewChest([]byte("secret"), 1000, 512)
	ensure.Nil(t, err)

	chest2, err := ParseChest(chest.Bytes())
	ensure.Nil(t, err)
	key2, err := ParseChestKey(key.Bytes())
	ensure.Nil(t, err)

	payload, res := OpenChest(chest2, key2, 1000)
	ensure.DeepEqual(t, res, OpenedOK)
	ensure.DeepEqual(t, payload, []byte("secret"))

	_, res = OpenChest(chest2, key2, 999)
	ensure.DeepEqual(t, res, BogusOpening)

	chest2.Ciphertext[0] ^= 1
	_, res = OpenChest(chest2, key2, 1000)
	ensure.DeepEqual(t, res, BogusCipher)
}
