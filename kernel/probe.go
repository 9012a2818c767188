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

package kernel

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/clocksteer/clock"
)

// minMaxErrorAfterStep is the least maximum error a kernel honouring ADJ_SETOFFSET reports after a step
const minMaxErrorAfterStep = 100000

// Prober collects Facts about the running kernel
type Prober struct {
	Clock clock.Adjuster
	// Release returns kernel release string
	Release func() (string, error)
	// ClockTicks returns USER_HZ, values below 1 mean unknown
	ClockTicks func() (int64, error)
}

// NewProber returns Prober using uname and sysconf
func NewProber(c clock.Adjuster) *Prober {
	return &Prober{
		Clock:      c,
		Release:    UnameRelease,
		ClockTicks: SysconfHZ,
	}
}

// Probe determines kernel facts without changing any clock parameters.
// Errors are fatal: the clock cannot be safely steered.
// DirectStep reflects what the kernel version promises, PrepareClock verifies it.
func (p *Prober) Probe() (Facts, error) {
	hz, err := p.hz()
	if err != nil {
		return Facts{}, err
	}

	release, err := p.Release()
	if err != nil {
		return Facts{}, fmt.Errorf("%w: %w", ErrKernelVersion, err)
	}
	v, err := ParseRelease(release)
	if err != nil {
		return Facts{}, err
	}
	log.Debugf("Linux kernel release=%q version=%s", release, v)

	facts, err := DeriveFacts(hz, v)
	if err != nil {
		return Facts{}, err
	}
	log.Debugf("hz=%d nominal_tick=%d max_tick_bias=%d", facts.HZ, facts.NominalTick, facts.MaxTickBias)
	return facts, nil
}

// PrepareClock takes over the clock before steering it: it cancels a pending
// adjtime() offset and verifies direct stepping, disabling it in the returned
// Facts when the kernel doesn't honour it.
// Both change kernel state, only the process steering the clock should call it.
func (p *Prober) PrepareClock(facts Facts) Facts {
	if err := p.ResetAdjtimeOffset(); err != nil {
		log.Warningf("failed to reset adjtime() offset: %v", err)
	}

	if facts.DirectStep && !p.VerifyDirectStep() {
		log.Info("adjtimex() doesn't support ADJ_SETOFFSET")
		facts.DirectStep = false
	}
	return facts
}

func (p *Prober) hz() (int64, error) {
	if p.ClockTicks != nil {
		hz, err := p.ClockTicks()
		if err == nil && hz >= 1 {
			return hz, nil
		}
		log.Debugf("USER_HZ not available from sysconf (hz=%d, err=%v), guessing from tick", hz, err)
	}
	tick, _, _, err := clock.ReadTickFreq(p.Clock)
	if err != nil {
		return 0, fmt.Errorf("%w: reading tick: %w", ErrUnknownHZ, err)
	}
	return GuessHZ(tick)
}

// ResetAdjtimeOffset cancels any adjtime() offset left by a previous process
func (p *Prober) ResetAdjtimeOffset() error {
	_, err := clock.ResetOffset(p.Clock)
	return err
}

// VerifyDirectStep checks that the kernel really honours ADJ_SETOFFSET.
// Unknown modes are not rejected by the kernel, so it zeroes maximum error,
// steps by zero and expects maximum error to be reset to a large value.
func (p *Prober) VerifyDirectStep() bool {
	reported, _, err := clock.SetMaxError(p.Clock, 0)
	if err != nil || reported != 0 {
		log.Debugf("zeroing maxerror: reported=%d err=%v", reported, err)
		return false
	}
	if _, err := clock.StepTimeval(p.Clock, 0, 0); err != nil {
		log.Debugf("zero step: %v", err)
		return false
	}
	maxError, _, err := clock.ReadMaxError(p.Clock)
	if err != nil || maxError < minMaxErrorAfterStep {
		log.Debugf("maxerror after zero step: %d err=%v", maxError, err)
		return false
	}
	return true
}
