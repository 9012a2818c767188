/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package stats keeps daemon counters and gauges and exports them as JSON and
in Prometheus format.
*/
package stats

import (
	"sync"

	"github.com/eclesh/welford"
)

// residual keys
const (
	ResidualCount  = "steer.residual.count"
	ResidualMean   = "steer.residual.ppm.mean"
	ResidualStddev = "steer.residual.ppm.stddev"
)

// Stats holds counters, gauges and running statistics of the frequency residual
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	residual *welford.Stats
}

// NewStats created new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
		gauges:   map[string]float64{},
		residual: welford.New(),
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value.
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// SetGauge will set a gauge to the provided value.
func (s *Stats) SetGauge(key string, val float64) {
	s.mux.Lock()
	s.gauges[key] = val
	s.mux.Unlock()
}

// AddResidual adds a frequency residual sample and updates its mean and stddev
func (s *Stats) AddResidual(ppm float64) {
	s.mux.Lock()
	s.residual.Add(ppm)
	s.counters[ResidualCount]++
	s.gauges[ResidualMean] = s.residual.Mean()
	// sample stddev needs two values
	if s.counters[ResidualCount] > 1 {
		s.gauges[ResidualStddev] = s.residual.Stddev()
	}
	s.mux.Unlock()
}

// GetCounters returns an map of counters
func (s *Stats) GetCounters() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	for key, val := range s.counters {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// GetGauges returns an map of gauges
func (s *Stats) GetGauges() map[string]float64 {
	ret := make(map[string]float64)
	s.mux.Lock()
	for key, val := range s.gauges {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// Reset zeroes counters and drops residual statistics
func (s *Stats) Reset() {
	s.mux.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.residual = welford.New()
	delete(s.gauges, ResidualMean)
	delete(s.gauges, ResidualStddev)
	s.mux.Unlock()
}
