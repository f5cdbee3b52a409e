// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lazystorage

import "errors"

// error
var (
	ErrUnknownKind      = errors.New("unknown lazy storage kind")
	ErrInvalidParams    = errors.New("invalid allocation parameters for lazy storage kind")
	ErrInvalidUpdates   = errors.New("invalid updates for lazy storage kind")
	ErrMissingLazyID    = errors.New("lazy storage id does not exist")
	ErrInvalidTotalSize = errors.New("lazy storage total size is corrupted")
)
