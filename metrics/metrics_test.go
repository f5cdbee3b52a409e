// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"

	"github.com/facebookgo/ensure"
)

func TestRegistryReuse(t *testing.T) {
	c := NewCounter("tzvm.test.counter")
	c.Inc(3)
	ensure.DeepEqual(t, NewCounter("tzvm.test.counter").Count(), int64(3))

	VMStepsCounter.Inc(1)
	ensure.True(t, NewCounter("tzvm.vm.steps").Count() >= 1)
}

func TestRunDisabled(t *testing.T) {
	Run(&Config{})
}
