// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

import "errors"

// error
var (
	ErrUnexpectedEOF   = errors.New("unexpected end of micheline data")
	ErrUnknownTag      = errors.New("unknown micheline node tag")
	ErrUnknownPrim     = errors.New("unknown micheline primitive")
	ErrTrailingBytes   = errors.New("trailing bytes after micheline expression")
	ErrInvalidZarith   = errors.New("invalid zarith integer encoding")
	ErrNotPacked       = errors.New("packed data must start with 0x05")
	ErrTooDeep         = errors.New("micheline expression nesting too deep")
	ErrInvalidAnnotStr = errors.New("invalid annotation string")
)
