// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crypto

import "errors"

// error
var (
	//base58.go
	ErrInvalidBase58Encoding     = errors.New("Invalid base58 encoding")
	ErrInvalidBase58Checksum     = errors.New("Invalid base58 checksum")
	ErrInvalidBase58StringLength = errors.New("Invalid base58 string length, not enough bytes for checksum")
	ErrInvalidBase58Prefix       = errors.New("Invalid base58 prefix")

	//keys.go
	ErrUnknownCurve        = errors.New("Unknown signature curve")
	ErrInvalidPublicKey    = errors.New("Invalid public key")
	ErrInvalidKeyHash      = errors.New("Invalid public key hash")
	ErrInvalidSignature    = errors.New("Invalid signature length")
	ErrSigningUnsupported  = errors.New("Signing is not supported for this curve")

	//bls.go
	ErrInvalidG1Point  = errors.New("Invalid BLS12-381 G1 point")
	ErrInvalidG2Point  = errors.New("Invalid BLS12-381 G2 point")
	ErrInvalidFrScalar = errors.New("Invalid BLS12-381 scalar field element")

	//timelock.go
	ErrInvalidChest    = errors.New("Invalid timelock chest")
	ErrInvalidChestKey = errors.New("Invalid timelock chest key")
)
