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
	"golang.org/x/sys/unix"
)

// FreqScale converts ppm to struct timex frequency units.
// man clock_adjtime(2):
// In struct timex, freq, ppsfreq, and stabil are ppm (parts per million) with a 16-bit fractional part.
const FreqScale = 65536.0

// MaxFreqPPM is the frequency limit enforced by the kernel
const MaxFreqPPM = 500.0

// clock_adjtime modes from usr/include/linux/timex.h
const (
	// time offset
	AdjOffset uint32 = 0x0001
	// frequency offset
	AdjFrequency uint32 = 0x0002
	// maximum time error
	AdjMaxError uint32 = 0x0004
	// estimated time error
	AdjEstError uint32 = 0x0008
	// clock status
	AdjStatus uint32 = 0x0010
	// pll time constant
	AdjTimeConst uint32 = 0x0020
	// set TAI offset
	AdjTAI uint32 = 0x0080
	// add 'time' to current time
	AdjSetOffset uint32 = 0x0100
	// select microsecond resolution
	AdjMicro uint32 = 0x1000
	// select nanosecond resolution
	AdjNano uint32 = 0x2000
	// tick value
	AdjTick uint32 = 0x4000
	// old-fashioned adjtime()
	AdjOffsetSingleshot uint32 = 0x8001
)

//go:generate mockgen -source=clock.go -destination=mock_adjuster.go -package=clock

// Adjuster is the kernel clock adjustment primitive.
// Modes in tx select the fields written, all fields are read back.
type Adjuster interface {
	Adjtime(tx *unix.Timex) (state int, err error)
}

// SysClock adjusts a clock through the CLOCK_ADJTIME syscall
type SysClock struct {
	ClockID int32
}

// NewSysClock returns SysClock for CLOCK_REALTIME
func NewSysClock() *SysClock {
	return &SysClock{ClockID: unix.CLOCK_REALTIME}
}

// Adjtime calls CLOCK_ADJTIME
func (c *SysClock) Adjtime(tx *unix.Timex) (int, error) {
	return Adjtime(c.ClockID, tx)
}

// Adjtime issues CLOCK_ADJTIME syscall to either adjust the parameters of given clock,
// or read them if buf is empty.
func Adjtime(clockid int32, buf *unix.Timex) (state int, err error) {
	return unix.ClockAdjtime(clockid, buf)
}

// ReadTickFreq reads the tick length in microseconds and the frequency offset in ppm
func ReadTickFreq(a Adjuster) (tick int64, freqPPM float64, state int, err error) {
	tx := &unix.Timex{}
	state, err = a.Adjtime(tx)
	if err != nil {
		return 0, 0, state, err
	}
	return getTick(tx), getFreqPPM(tx), state, nil
}

// SetTickFreq sets tick length and frequency offset in one call and returns
// the frequency offset the kernel reports back
func SetTickFreq(a Adjuster, tick int64, freqPPM float64) (committedPPM float64, state int, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjTick | AdjFrequency
	// this way we can have platform-dependent code isolated
	setTick(tx, tick)
	setFreqPPM(tx, freqPPM)
	state, err = a.Adjtime(tx)
	if err != nil {
		return 0, state, err
	}
	return getFreqPPM(tx), state, nil
}

// StepTimeval steps clock by sec seconds plus nsec nanoseconds, nsec must be in [0, 1e9)
func StepTimeval(a Adjuster, sec, nsec int64) (state int, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjSetOffset | AdjNano
	setTime(tx, sec, nsec)
	return a.Adjtime(tx)
}

// SetMaxError sets maximum error in microseconds and returns the value the kernel reports back
func SetMaxError(a Adjuster, maxError int64) (reported int64, state int, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjMaxError
	setMaxError(tx, maxError)
	state, err = a.Adjtime(tx)
	if err != nil {
		return 0, state, err
	}
	return getMaxError(tx), state, nil
}

// ReadMaxError reads maximum error in microseconds
func ReadMaxError(a Adjuster) (maxError int64, state int, err error) {
	tx := &unix.Timex{}
	state, err = a.Adjtime(tx)
	if err != nil {
		return 0, state, err
	}
	return getMaxError(tx), state, nil
}

// ResetOffset cancels any pending adjtime() offset
func ResetOffset(a Adjuster) (state int, err error) {
	tx := &unix.Timex{}
	tx.Modes = AdjOffsetSingleshot
	setOffset(tx, 0)
	return a.Adjtime(tx)
}

// ReadStatus reads clock state and status bits
func ReadStatus(a Adjuster) (status Status, state int, err error) {
	tx := &unix.Timex{}
	state, err = a.Adjtime(tx)
	if err != nil {
		return 0, state, err
	}
	return Status(tx.Status), state, nil
}
