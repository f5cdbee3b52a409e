// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/facebookgo/ensure"
)

func TestZarith(t *testing.T) {
	tests := []struct {
		v   int64
		hex string
	}{
		{0, "00"},
		{1, "01"},
		{-1, "41"},
		{63, "3f"},
		{64, "8001"},
		{-64, "c001"},
		{1000, "a80f"},
	}
	for _, tt := range tests {
		buf := AppendZarith(nil, big.NewInt(tt.v))
		ensure.DeepEqual(t, hex.EncodeToString(buf), tt.hex)

		d := decoder{buf: buf}
		v, err := d.zarith()
		ensure.Nil(t, err)
		ensure.DeepEqual(t, v.Int64(), tt.v)
	}

	d := decoder{buf: []byte{0x80, 0x00}}
	_, err := d.zarith()
	ensure.DeepEqual(t, err, ErrInvalidZarith)
}

func TestPackKnownValues(t *testing.T) {
	// PACK 1, PACK "a", PACK (Pair 1 Unit)
	ensure.DeepEqual(t, hex.EncodeToString(Pack(NewInt(1))), "050001")
	ensure.DeepEqual(t, hex.EncodeToString(Pack(String{V: "a"})), "05010000000161")
	pair := NewPrim(DPair, NewInt(1), NewPrim(DUnit))
	ensure.DeepEqual(t, hex.EncodeToString(Pack(pair)), "0507070001030b")
}

func TestEncodeDecode(t *testing.T) {
	exprs := []Node{
		NewInt(-12345),
		Bytes{V: []byte{0xde, 0xad}},
		Seq{},
		Seq{NewInt(1), String{V: "x"}},
		NewPrim(TPair, NewPrim(TNat).WithAnnots("%amount"), NewPrim(TAddress)).WithAnnots(":p"),
		NewPrim(TPair, NewPrim(TNat), NewPrim(TInt), NewPrim(TString)),
		NewPrim(DLambdaRec, Seq{NewPrim(IDrop)}),
	}
	for _, e := range exprs {
		back, err := Decode(Encode(e))
		ensure.Nil(t, err)
		ensure.True(t, Equal(e, back), Format(e))
	}

	_, err := Decode([]byte{0x0b})
	ensure.DeepEqual(t, err, ErrUnknownTag)
	_, err = Decode([]byte{0x03, 0xff})
	ensure.DeepEqual(t, err, ErrUnknownPrim)
	_, err = Decode([]byte{0x00, 0x01, 0x00})
	ensure.DeepEqual(t, err, ErrTrailingBytes)
	_, err = Unpack([]byte{0x00, 0x01})
	ensure.DeepEqual(t, err, ErrNotPacked)
}

func TestFormat(t *testing.T) {
	n := NewPrim(DPair, NewInt(1), NewPrim(DSome, String{V: "a"}))
	ensure.DeepEqual(t, Format(n), `Pair 1 (Some "a")`)
	ensure.DeepEqual(t, Format(Seq{NewPrim(IDup), NewPrim(IAdd)}), "{ DUP ; ADD }")
	ensure.DeepEqual(t, Format(Bytes{V: []byte{1}}), "0x01")
}

func TestStripAnnotations(t *testing.T) {
	n := NewPrim(TBigMap, NewPrim(TNat).WithAnnots("%k"), NewPrim(TString)).WithAnnots(":m")
	ensure.True(t, Equal(StripAnnotations(n), NewPrim(TBigMap, NewPrim(TNat), NewPrim(TString))))
}

func TestCosts(t *testing.T) {
	f := Measure(Seq{NewInt(1), String{V: "abc"}})
	ensure.DeepEqual(t, f.Nodes, int64(3))
	ensure.DeepEqual(t, f.StringBytes, int64(3))
	ensure.True(t, f.Cost() > 0)
	ensure.True(t, DeserializationCostFromBytes(10) > DeserializationCostFromBytes(1))
}
