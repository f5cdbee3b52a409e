// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package state

import "errors"

// error
var (
	ErrMissingKey   = errors.New("missing key in context")
	ErrCorruptValue = errors.New("corrupted value in context")
)
