// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

import (
	"encoding/binary"
	"math/big"
	"strings"
)

// node tags of the binary encoding
const (
	tagInt         byte = 0x00
	tagString      byte = 0x01
	tagSeq         byte = 0x02
	tagPrim0       byte = 0x03
	tagPrim0Annots byte = 0x04
	tagPrim1       byte = 0x05
	tagPrim1Annots byte = 0x06
	tagPrim2       byte = 0x07
	tagPrim2Annots byte = 0x08
	tagPrimN       byte = 0x09
	tagBytes       byte = 0x0a
)

const maxDecodeNesting = 10000

// PackPrefix is the first byte of packed data.
const PackPrefix byte = 0x05

// Encode returns the binary encoding of n.
func Encode(n Node) []byte {
	return appendNode(nil, n)
}

// Pack returns the packed form of n: PackPrefix followed by its encoding.
func Pack(n Node) []byte {
	return appendNode([]byte{PackPrefix}, n)
}

// Unpack decodes packed data.
func Unpack(buf []byte) (Node, error) {
	if len(buf) == 0 || buf[0] != PackPrefix {
		return nil, ErrNotPacked
	}
	return Decode(buf[1:])
}

// Decode decodes a complete binary expression.
func Decode(buf []byte) (Node, error) {
	d := decoder{buf: buf}
	n, err := d.node(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, ErrTrailingBytes
	}
	return n, nil
}

func appendLen(buf []byte, n int) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(n))
}

// appendSized writes the items behind a 4 bytes length of their encoding.
func appendSized(buf []byte, items []Node) []byte {
	at := len(buf)
	buf = appendLen(buf, 0)
	for _, item := range items {
		buf = appendNode(buf, item)
	}
	binary.BigEndian.PutUint32(buf[at:], uint32(len(buf)-at-4))
	return buf
}

func appendNode(buf []byte, n Node) []byte {
	switch n := n.(type) {
	case Int:
		return AppendZarith(append(buf, tagInt), n.V)
	case String:
		buf = appendLen(append(buf, tagString), len(n.V))
		return append(buf, n.V...)
	case Bytes:
		buf = appendLen(append(buf, tagBytes), len(n.V))
		return append(buf, n.V...)
	case Seq:
		return appendSized(append(buf, tagSeq), n)
	case *Prim:
		annots := strings.Join(n.Annots, " ")
		if len(n.Args) > 2 {
			buf = append(buf, tagPrimN, byte(n.Prim))
			buf = appendSized(buf, n.Args)
			buf = appendLen(buf, len(annots))
			return append(buf, annots...)
		}
		tag := tagPrim0 + byte(2*len(n.Args))
		if len(n.Annots) > 0 {
			tag++
		}
		buf = append(buf, tag, byte(n.Prim))
		for _, a := range n.Args {
			buf = appendNode(buf, a)
		}
		if len(n.Annots) > 0 {
			buf = appendLen(buf, len(annots))
			buf = append(buf, annots...)
		}
		return buf
	}
	return buf
}

// AppendZarith appends the variable length encoding of a signed integer:
// the first byte holds the sign and 6 bits, the following bytes 7 bits each.
func AppendZarith(buf []byte, v *big.Int) []byte {
	abs := new(big.Int).Abs(v)
	first := byte(abs.Uint64() & 0x3f)
	if v.Sign() < 0 {
		first |= 0x40
	}
	abs.Rsh(abs, 6)
	if abs.Sign() != 0 {
		first |= 0x80
	}
	buf = append(buf, first)
	for abs.Sign() != 0 {
		b := byte(abs.Uint64() & 0x7f)
		abs.Rsh(abs, 7)
		if abs.Sign() != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) sized() ([]byte, error) {
	l, err := d.readBytes(4)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(l)
	if uint64(n) > uint64(len(d.buf)-d.pos) {
		return nil, ErrUnexpectedEOF
	}
	return d.readBytes(int(n))
}

func (d *decoder) zarith() (*big.Int, error) {
	v := new(big.Int)
	first, err := d.readByte()
	if err != nil {
		return nil, err
	}
	v.SetUint64(uint64(first & 0x3f))
	neg := first&0x40 != 0
	shift := uint(6)
	more := first&0x80 != 0
	for more {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		more = b&0x80 != 0
		if !more && b == 0 {
			// non canonical trailing zero
			return nil, ErrInvalidZarith
		}
		v.Or(v, new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift))
		shift += 7
	}
	if neg {
		if v.Sign() == 0 {
			return nil, ErrInvalidZarith
		}
		v.Neg(v)
	}
	return v, nil
}

func (d *decoder) seqBody(depth int) ([]Node, error) {
	body, err := d.sized()
	if err != nil {
		return nil, err
	}
	sub := decoder{buf: body}
	var items []Node
	for sub.pos < len(sub.buf) {
		n, err := sub.node(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (d *decoder) annots() ([]string, error) {
	s, err := d.sized()
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, nil
	}
	parts := strings.Split(string(s), " ")
	for _, p := range parts {
		if len(p) < 1 || (p[0] != '%' && p[0] != '@' && p[0] != ':') {
			return nil, ErrInvalidAnnotStr
		}
	}
	return parts, nil
}

func (d *decoder) node(depth int) (Node, error) {
	if depth > maxDecodeNesting {
		return nil, ErrTooDeep
	}
	tag, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagInt:
		v, err := d.zarith()
		if err != nil {
			return nil, err
		}
		return Int{V: v}, nil
	case tagString:
		s, err := d.sized()
		if err != nil {
			return nil, err
		}
		return String{V: string(s)}, nil
	case tagBytes:
		b, err := d.sized()
		if err != nil {
			return nil, err
		}
		return Bytes{V: append([]byte(nil), b...)}, nil
	case tagSeq:
		items, err := d.seqBody(depth)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = Seq{}
		}
		return Seq(items), nil
	case tagPrim0, tagPrim0Annots, tagPrim1, tagPrim1Annots, tagPrim2, tagPrim2Annots, tagPrimN:
		code, err := d.readByte()
		if err != nil {
			return nil, err
		}
		p := &Prim{Prim: PrimCode(code)}
		if !p.Prim.Valid() {
			return nil, ErrUnknownPrim
		}
		if tag == tagPrimN {
			if p.Args, err = d.seqBody(depth); err != nil {
				return nil, err
			}
			if p.Annots, err = d.annots(); err != nil {
				return nil, err
			}
			return p, nil
		}
		nargs := int(tag-tagPrim0) / 2
		for i := 0; i < nargs; i++ {
			a, err := d.node(depth + 1)
			if err != nil {
				return nil, err
			}
			p.Args = append(p.Args, a)
		}
		if (tag-tagPrim0)%2 == 1 {
			if p.Annots, err = d.annots(); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
	return nil, ErrUnknownTag
}
