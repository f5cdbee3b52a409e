// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"bytes"
	"strings"

	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/pkg/errors"
)

// address sizes
const (
	ContractHashSize  = 20
	addressSize       = 22
	maxEntrypointSize = 31
	defaultEntrypoint = "default"
)

// Address is a destination with an optional entrypoint. The default
// entrypoint is stored as the empty string.
type Address struct {
	// Implicit is set for implicit accounts, nil for originated contracts.
	Implicit   *crypto.KeyHash
	Contract   [ContractHashSize]byte
	Entrypoint string
}

// ImplicitAddress returns the address of the implicit account of h.
func ImplicitAddress(h *crypto.KeyHash) Address {
	return Address{Implicit: h}
}

// OriginatedAddress returns the address of an originated contract.
func OriginatedAddress(hash [ContractHashSize]byte) Address {
	return Address{Contract: hash}
}

// IsImplicit reports whether the address designates an implicit account.
func (a Address) IsImplicit() bool { return a.Implicit != nil }

// Destination returns the address without its entrypoint.
func (a Address) Destination() Address {
	a.Entrypoint = ""
	return a
}

// WithEntrypoint returns the address targeting entrypoint ep.
func (a Address) WithEntrypoint(ep string) Address {
	if ep == defaultEntrypoint {
		ep = ""
	}
	a.Entrypoint = ep
	return a
}

func (a Address) destinationBytes() []byte {
	buf := make([]byte, 0, addressSize)
	if a.Implicit != nil {
		buf = append(buf, 0)
		return append(buf, a.Implicit.Serialize()...)
	}
	buf = append(buf, 1)
	buf = append(buf, a.Contract[:]...)
	return append(buf, 0)
}

// Bytes returns the binary form: the 22 bytes destination followed by the
// entrypoint name.
func (a Address) Bytes() []byte {
	return append(a.destinationBytes(), a.Entrypoint...)
}

// ParseAddressBytes reads the binary form of an address.
func ParseAddressBytes(buf []byte) (Address, error) {
	if len(buf) < addressSize || len(buf) > addressSize+maxEntrypointSize {
		return Address{}, ErrInvalidAddress
	}
	var a Address
	switch buf[0] {
	case 0:
		h, err := crypto.ParseKeyHash(buf[1:addressSize])
		if err != nil {
			return Address{}, errors.Wrap(ErrInvalidAddress, err.Error())
		}
		a.Implicit = h
	case 1:
		if buf[addressSize-1] != 0 {
			return Address{}, ErrInvalidAddress
		}
		copy(a.Contract[:], buf[1:addressSize-1])
	default:
		return Address{}, ErrInvalidAddress
	}
	ep := string(buf[addressSize:])
	if ep == defaultEntrypoint {
		return Address{}, errors.Wrap(ErrInvalidAddress, "explicit default entrypoint")
	}
	a.Entrypoint = ep
	return a, nil
}

func (a Address) String() string {
	var s string
	if a.Implicit != nil {
		s = a.Implicit.String()
	} else {
		s = crypto.EncodePrefixed(crypto.PrefixContractHash, a.Contract[:])
	}
	if a.Entrypoint != "" {
		s += "%" + a.Entrypoint
	}
	return s
}

// ParseAddressString reads the base58 form of an address, optionally
// followed by %entrypoint.
func ParseAddressString(s string) (Address, error) {
	var ep string
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s, ep = s[:i], s[i+1:]
		if ep == defaultEntrypoint || ep == "" || len(ep) > maxEntrypointSize {
			return Address{}, errors.Wrapf(ErrInvalidAddress, "entrypoint %q", ep)
		}
	}
	if strings.HasPrefix(s, "KT1") {
		payload, err := crypto.DecodePrefixed(crypto.PrefixContractHash, ContractHashSize, s)
		if err != nil {
			return Address{}, errors.Wrap(ErrInvalidAddress, err.Error())
		}
		a := Address{Entrypoint: ep}
		copy(a.Contract[:], payload)
		return a, nil
	}
	h, err := crypto.ParseKeyHashString(s)
	if err != nil {
		return Address{}, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	return Address{Implicit: h, Entrypoint: ep}, nil
}

// Compare orders addresses: implicit accounts first, then by hash, then by
// entrypoint.
func (a Address) Compare(o Address) int {
	if c := bytes.Compare(a.destinationBytes(), o.destinationBytes()); c != 0 {
		return c
	}
	return strings.Compare(a.Entrypoint, o.Entrypoint)
}

// SameDestination reports whether both addresses designate the same account.
func (a Address) SameDestination(o Address) bool {
	return bytes.Equal(a.destinationBytes(), o.destinationBytes())
}

// ContractHash derives the address of a contract originated by the
// operation with the given hash, at the given origination index.
func ContractHash(opHash crypto.HashType, index uint32) [ContractHashSize]byte {
	buf := make([]byte, 0, crypto.HashSize+4)
	buf = append(buf, opHash[:]...)
	buf = append(buf, byte(index>>24), byte(index>>16), byte(index>>8), byte(index))
	return crypto.Blake2b160(buf)
}
