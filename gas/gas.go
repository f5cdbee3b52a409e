// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package gas

import (
	"errors"
	"fmt"
	"math"
)

// MilligasPerGas is the precision of the meter.
const MilligasPerGas = 1000

// error
var (
	ErrOperationQuotaExceeded = errors.New("gas exhausted for the operation")
	ErrInvalidLimit           = errors.New("invalid gas limit")
)

// Cost is an amount of milligas.
type Cost int64

// Free costs nothing.
const Free Cost = 0

// Milligas returns a cost of n milligas.
func Milligas(n int64) Cost { return Cost(n) }

// Gas returns a cost of n whole gas units.
func Gas(n int64) Cost { return Cost(n * MilligasPerGas) }

// Add sums two costs, saturating on overflow.
func (c Cost) Add(o Cost) Cost {
	if o > 0 && c > math.MaxInt64-o {
		return math.MaxInt64
	}
	return c + o
}

// Mul scales a cost, saturating on overflow.
func (c Cost) Mul(n int64) Cost {
	if n <= 0 || c <= 0 {
		return 0
	}
	if int64(c) > math.MaxInt64/n {
		return math.MaxInt64
	}
	return Cost(int64(c) * n)
}

// Ceil returns the cost rounded up to whole gas units.
func (c Cost) Ceil() int64 {
	return (int64(c) + MilligasPerGas - 1) / MilligasPerGas
}

func (c Cost) String() string {
	return fmt.Sprintf("%d.%03d", int64(c)/MilligasPerGas, int64(c)%MilligasPerGas)
}

// Meter tracks the remaining milligas of an operation.
// A nil meter is unlimited.
type Meter struct {
	limit     Cost
	remaining Cost
}

// NewMeter creates a meter with the given limit in gas units.
func NewMeter(limit int64) (*Meter, error) {
	if limit < 0 || limit > math.MaxInt64/MilligasPerGas {
		return nil, ErrInvalidLimit
	}
	return &Meter{limit: Gas(limit), remaining: Gas(limit)}, nil
}

// Consume charges c, failing when the remaining gas does not cover it.
// A failed charge drains the meter.
func (m *Meter) Consume(c Cost) error {
	if m == nil || c <= 0 {
		return nil
	}
	if c > m.remaining {
		m.remaining = 0
		return ErrOperationQuotaExceeded
	}
	m.remaining -= c
	return nil
}

// Remaining returns the milligas left.
func (m *Meter) Remaining() Cost {
	if m == nil {
		return math.MaxInt64
	}
	return m.remaining
}

// Consumed returns the milligas consumed so far.
func (m *Meter) Consumed() Cost {
	if m == nil {
		return 0
	}
	return m.limit - m.remaining
}
