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

package clock

import (
	"sync"

	"golang.org/x/sys/unix"
)

// maxErrorAfterStep is NTP_PHASE_LIMIT, the maximum error the kernel sets after a step
const maxErrorAfterStep = 16000000

// Simulated is an in-memory Adjuster following the Linux adjtimex rules:
// tick must stay within 10% of nominal, frequency is clamped to 500 ppm,
// invalid requests are rejected before any field changes.
type Simulated struct {
	sync.Mutex

	// HZ is USER_HZ, defines nominal tick
	HZ int64
	// Tick in microseconds
	Tick int64
	// Freq in struct timex units
	Freq int64
	// MaxError in microseconds
	MaxError int64
	// Offset is the pending adjtime() offset in microseconds
	Offset int64
	// Stepped is the sum of all steps applied, in nanoseconds
	Stepped int64
	// SetOffset tells whether ADJ_SETOFFSET is honoured; unsupported modes are silently ignored
	SetOffset bool
	// Err is returned by every call when set
	Err error
	// State is returned by every successful call
	State int
	// Status is reported in struct timex status
	Status int32

	// Calls records every request as it was passed in
	Calls []unix.Timex
}

// NewSimulated returns a Simulated clock at nominal tick and zero frequency
func NewSimulated(hz int64) *Simulated {
	return &Simulated{
		HZ:        hz,
		Tick:      (1000000 + hz/2) / hz,
		SetOffset: true,
	}
}

// Adjtime implements Adjuster
func (s *Simulated) Adjtime(tx *unix.Timex) (int, error) {
	s.Lock()
	defer s.Unlock()

	s.Calls = append(s.Calls, *tx)
	if s.Err != nil {
		return -1, s.Err
	}

	modes := tx.Modes
	if modes == AdjOffsetSingleshot {
		s.Offset = getOffset(tx)
		modes = 0
	}

	if modes&AdjTick != 0 {
		tick := getTick(tx)
		if tick < 900000/s.HZ || tick > 1100000/s.HZ {
			return -1, unix.EINVAL
		}
	}
	if s.SetOffset && modes&AdjSetOffset != 0 {
		_, usec := getTime(tx)
		limit := int64(1000000)
		if modes&AdjNano != 0 {
			limit = 1000000000
		}
		if usec < 0 || usec >= limit {
			return -1, unix.EINVAL
		}
	}

	if modes&AdjMaxError != 0 {
		s.MaxError = getMaxError(tx)
	}
	if modes&AdjFrequency != 0 {
		freq := getFreqPPM(tx)
		if freq > MaxFreqPPM {
			freq = MaxFreqPPM
		} else if freq < -MaxFreqPPM {
			freq = -MaxFreqPPM
		}
		s.Freq = int64(freq * FreqScale)
	}
	if modes&AdjTick != 0 {
		s.Tick = getTick(tx)
	}
	if s.SetOffset && modes&AdjSetOffset != 0 {
		sec, usec := getTime(tx)
		if modes&AdjNano == 0 {
			usec *= 1000
		}
		s.Stepped += sec*1000000000 + usec
		s.MaxError = maxErrorAfterStep
	}

	setTick(tx, s.Tick)
	setFreqPPM(tx, float64(s.Freq)/FreqScale)
	setMaxError(tx, s.MaxError)
	setOffset(tx, s.Offset)
	tx.Status = s.Status
	return s.State, nil
}

// FreqPPM returns the current frequency offset in ppm
func (s *Simulated) FreqPPM() float64 {
	s.Lock()
	defer s.Unlock()
	return float64(s.Freq) / FreqScale
}

// CallCount returns the number of Adjtime calls so far
func (s *Simulated) CallCount() int {
	s.Lock()
	defer s.Unlock()
	return len(s.Calls)
}
