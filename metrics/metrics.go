// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"sync"
	"time"

	"github.com/BOXFoundation/tzvm/log"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/rcrowley/go-metrics/exp"
)

var logger = log.NewLogger("metrics")

const defaultInterval = 10 * time.Second

// interpreter and storage metrics
var (
	VMExecTimer          = NewTimer("tzvm.vm.exec")
	VMStepsCounter       = NewCounter("tzvm.vm.steps")
	VMGasHistogram       = NewHistogramWithUniformSample("tzvm.vm.gas", 1024)
	VMFailedCounter      = NewCounter("tzvm.vm.failed")
	BigMapCacheHitMeter  = NewMeter("tzvm.bigmap.cache.hit")
	BigMapCacheMissMeter = NewMeter("tzvm.bigmap.cache.miss")
	LazyDiffItemsCounter = NewCounter("tzvm.lazystorage.diff.items")
	StorageCacheGauge    = NewGauge("tzvm.storage.rocksdb.cache")
)

var expOnce sync.Once

// Run metrics monitor, dumping the registry to the log periodically.
func Run(config *Config) {
	if !config.Enable {
		return
	}
	if config.Expvar {
		expOnce.Do(func() { exp.Exp(metrics.DefaultRegistry) })
	}
	interval := config.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	go metrics.Log(metrics.DefaultRegistry, interval, printer{})
}

type printer struct{}

func (printer) Printf(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

// NewCounter create a new metrics Counter
func NewCounter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, metrics.DefaultRegistry)
}

// NewMeter create a new metrics Meter
func NewMeter(name string) metrics.Meter {
	return metrics.GetOrRegisterMeter(name, metrics.DefaultRegistry)
}

// NewTimer create a new metrics Timer
func NewTimer(name string) metrics.Timer {
	return metrics.GetOrRegisterTimer(name, metrics.DefaultRegistry)
}

// NewGauge create a new metrics Gauge
func NewGauge(name string) metrics.Gauge {
	return metrics.GetOrRegisterGauge(name, metrics.DefaultRegistry)
}

// NewHistogramWithUniformSample create a new metrics History with Uniform Sample algorithm.
func NewHistogramWithUniformSample(name string, reservoirSize int) metrics.Histogram {
	return metrics.GetOrRegisterHistogram(name, nil, metrics.NewUniformSample(reservoirSize))
}
