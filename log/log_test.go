// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package log

import (
	"testing"

	log "github.com/BOXFoundation/tzvm/log/types"
	"github.com/facebookgo/ensure"
)

func TestLogrusInit(t *testing.T) {
	var logger = NewLogger("test")
	if logger == nil {
		t.Fatal("Get a nil logger.")
	}
	ensure.True(t, logger == NewLogger("test"))
}

func TestLogrusSetup(t *testing.T) {
	var logger = NewLogger("test")

	var levels = []string{
		"debug",
		"info",
		"warning",
		"error",
		"fatal",
	}

	for _, level := range levels {
		var cfg log.Config
		cfg.Level = level
		Setup(&cfg)
		if logger.LogLevel() != cfg.Level {
			t.Errorf("Invalid log level %s. It should be %s.", logger.LogLevel(), level)
		}
	}
}

func TestTags(t *testing.T) {
	NewLogger("vm")
	NewLogger("lazystorage")
	tags := Tags()
	ensure.True(t, len(tags) >= 2)
	for i := 1; i < len(tags); i++ {
		ensure.True(t, tags[i-1] < tags[i])
	}
}
