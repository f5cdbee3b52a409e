// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package log

import (
	"sort"
	"sync"

	ll "github.com/BOXFoundation/tzvm/log/logrus"
	log "github.com/BOXFoundation/tzvm/log/types"
)

var (
	mu        sync.Mutex
	loggerMap = map[string]log.Logger{}
)

// Setup loggers globally
func Setup(cfg *log.Config) {
	log.Setup(ll.LoggerName, cfg)
}

// NewLogger creates a new logger tagged with the name of the package using it.
// Asking twice for the same tag returns the same logger.
func NewLogger(tag string) log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggerMap[tag]; ok {
		return logger
	}
	newLogger := log.NewLogger(ll.LoggerName, tag)
	if newLogger != nil {
		loggerMap[tag] = newLogger
	}
	return newLogger
}

// Tags returns the tags of all created loggers, sorted.
func Tags() []string {
	mu.Lock()
	defer mu.Unlock()

	tags := make([]string, 0, len(loggerMap))
	for tag := range loggerMap {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// SetLogLevel sets all loggers log level
func SetLogLevel(newLevel string) (ok bool) {
	mu.Lock()
	defer mu.Unlock()

	ok = true
	for _, logger := range loggerMap {
		originLevel := logger.LogLevel()
		logger.SetLogLevel(newLevel)
		currentLevel := logger.LogLevel()
		if currentLevel != newLevel {
			logger.Infof("Error setting log level from %s to %s", originLevel, newLevel)
			ok = false
		}
	}
	return
}
