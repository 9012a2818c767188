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
Package steer turns frequency and offset corrections into kernel clock
adjustments. Frequency is split into a whole number of microseconds of tick
bias and a fractional frequency offset, with hysteresis on the tick so the
clock does not flap between two neighbouring ticks.
*/
package steer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/facebook/clocksteer/clock"
	"github.com/facebook/clocksteer/kernel"
	"github.com/facebook/clocksteer/ntp/protocol"
)

// ErrStepUnsupported is returned by ApplyStep when the kernel cannot step the clock
var ErrStepUnsupported = errors.New("direct clock step is not supported by the kernel")

// hysteresisMaxHZ is the highest USER_HZ at which the 500 ppm frequency range
// spans at least two ticks, so the current tick can be kept
const hysteresisMaxHZ = 250

// State is the last committed adjustment
type State struct {
	// TickDelta is nominal tick minus the tick set in the kernel
	TickDelta int64
	// FrequencyPPM is the total frequency offset the kernel committed to
	FrequencyPPM float64
}

// Engine steers the system clock. It is safe for concurrent use,
// ReadFrequency and ApplyFrequency never interleave.
type Engine struct {
	facts kernel.Facts
	clock clock.Adjuster
	stats StatsServer

	mu    sync.Mutex
	state State
	// last kernel clock state seen, TIME_OK initially
	kernelState int
}

// New returns Engine for the kernel described by facts.
// stats may be nil.
func New(facts kernel.Facts, c clock.Adjuster, stats StatsServer) *Engine {
	if stats == nil {
		stats = noopStats{}
	}
	return &Engine{
		facts: facts,
		clock: c,
		stats: stats,
	}
}

// Facts returns kernel facts the engine works with
func (e *Engine) Facts() kernel.Facts {
	return e.facts
}

// State returns a snapshot of the steering state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) ppm(tickDelta int64, freqPPM float64) float64 {
	return float64(e.facts.HZ*tickDelta) - freqPPM
}

// ReadFrequency reads tick and frequency from the kernel and returns the
// total frequency offset in ppm. Positive means the clock is slowed down.
func (e *Engine) ReadFrequency() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick, freq, state, err := clock.ReadTickFreq(e.clock)
	if err != nil {
		return 0, fmt.Errorf("reading kernel frequency: %w", err)
	}
	e.checkState(state)

	e.state.TickDelta = e.facts.NominalTick - tick
	e.state.FrequencyPPM = e.ppm(e.state.TickDelta, freq)
	e.publish()
	return e.state.FrequencyPPM, nil
}

// ApplyFrequency sets the frequency offset in ppm, positive when the clock
// runs fast uncompensated. It returns the offset the kernel committed to.
// On failure nothing changes and the previously committed offset is returned.
func (e *Engine) ApplyFrequency(requested float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if math.IsNaN(requested) || math.IsInf(requested, 0) {
		log.Errorf("refusing to set frequency to %v ppm", requested)
		e.stats.UpdateCounterBy(FrequencyFailed, 1)
		return e.state.FrequencyPPM
	}

	ppm := requested
	if maxPPM := e.facts.MaxFrequencyPPM(); math.Abs(ppm) > maxPPM {
		ppm = math.Copysign(maxPPM, ppm)
		log.Warningf("frequency %.3f ppm is out of range, clamping to %.3f ppm", requested, ppm)
		e.stats.UpdateCounterBy(FrequencyClamped, 1)
	}

	hz := float64(e.facts.HZ)
	delta := int64(math.Round(ppm / hz))

	// avoid flapping between two ticks when the error sits near a boundary
	if e.facts.HZ <= hysteresisMaxHZ && (delta+1 == e.state.TickDelta || delta-1 == e.state.TickDelta) {
		delta = e.state.TickDelta
		e.stats.UpdateCounterBy(FrequencyHeld, 1)
	}

	freq := -(ppm - hz*float64(delta))
	tick := e.facts.NominalTick - delta

	committed, state, err := clock.SetTickFreq(e.clock, tick, freq)
	if err != nil {
		log.Errorf("failed to set frequency %.3f ppm (tick=%d freq=%.3f): %v", ppm, tick, freq, err)
		e.stats.UpdateCounterBy(FrequencyFailed, 1)
		return e.state.FrequencyPPM
	}
	e.checkState(state)

	e.state.TickDelta = delta
	e.state.FrequencyPPM = e.ppm(delta, committed)
	log.Debugf("frequency requested=%.6f ppm committed=%.6f ppm tick=%d", requested, e.state.FrequencyPPM, tick)

	e.stats.UpdateCounterBy(FrequencyApplied, 1)
	e.stats.AddResidual(requested - e.state.FrequencyPPM)
	e.publish()
	return e.state.FrequencyPPM
}

// ApplyStep jumps the clock by -offset seconds: positive offset means the
// clock is ahead and must go back. The caller is expected to have checked the
// offset with protocol.IsOffsetSane. A nil error means the kernel accepted it.
func (e *Engine) ApplyStep(offset float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.facts.DirectStep {
		return ErrStepUnsupported
	}
	if !(math.Abs(offset) < float64(protocol.EraLength)) {
		e.stats.UpdateCounterBy(StepFailed, 1)
		return fmt.Errorf("invalid step offset %v", offset)
	}

	sec := int64(-offset)
	nsec := int64(1e9 * (-offset - float64(sec)))
	if nsec < 0 {
		sec--
		nsec += 1000000000
	} else if nsec >= 1000000000 {
		sec++
		nsec -= 1000000000
	}

	state, err := clock.StepTimeval(e.clock, sec, nsec)
	if err != nil {
		e.stats.UpdateCounterBy(StepFailed, 1)
		return fmt.Errorf("stepping clock by %.9f s: %w", -offset, err)
	}
	e.checkState(state)

	log.Infof("stepped clock by %.6f s", -offset)
	e.stats.UpdateCounterBy(StepApplied, 1)
	return nil
}

func (e *Engine) publish() {
	e.stats.SetGauge(FrequencyPPM, e.state.FrequencyPPM)
	e.stats.SetGauge(TickDelta, float64(e.state.TickDelta))
}

// checkState warns when the kernel clock state changes away from TIME_OK.
// Callers hold e.mu.
func (e *Engine) checkState(state int) {
	if state == e.kernelState {
		return
	}
	if state != unix.TIME_OK {
		log.Warningf("kernel clock state is %s", clock.State(state))
	} else {
		log.Infof("kernel clock state is back to %s", clock.State(state))
	}
	e.kernelState = state
}
