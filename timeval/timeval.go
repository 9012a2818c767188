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
Package timeval implements arithmetic on a normalized seconds+microseconds
time value.

A Timeval always keeps Usec within [0, 1000000). Negative values are
represented by a negative Sec with a non-negative Usec, so -0.25s is
{Sec: -1, Usec: 750000}. All functions are pure and return new values.
*/
package timeval

import (
	"fmt"
	"math"
	"time"
)

// MicrosecondsPerSecond is the number of microseconds in one second
const MicrosecondsPerSecond = 1000000

// Timeval is a normalized seconds+microseconds value
type Timeval struct {
	Sec  int64
	Usec int64
}

// New returns a normalized Timeval built from seconds and microseconds
func New(sec, usec int64) Timeval {
	return Normalize(Timeval{Sec: sec, Usec: usec})
}

// FromTime converts time.Time into Timeval, truncating to microseconds
func FromTime(t time.Time) Timeval {
	return New(t.Unix(), int64(t.Nanosecond()/1000))
}

// FromSeconds converts a real number of seconds into Timeval,
// rounding to the nearest microsecond (ties away from zero).
// NaN and infinities convert to zero.
func FromSeconds(x float64) Timeval {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Timeval{}
	}
	intPart := int64(x)
	fracPart := roundAway(1.0e6 * (x - float64(intPart)))
	return Normalize(Timeval{Sec: intPart, Usec: fracPart})
}

// roundAway rounds to the nearest integer, ties away from zero
func roundAway(x float64) int64 {
	if x > 0 {
		return int64(x + 0.5)
	}
	return int64(x - 0.5)
}

// Normalize brings Usec into [0, 1000000) by moving whole seconds into Sec
func Normalize(t Timeval) Timeval {
	if t.Usec >= MicrosecondsPerSecond || t.Usec <= -MicrosecondsPerSecond {
		t.Sec += t.Usec / MicrosecondsPerSecond
		t.Usec = t.Usec % MicrosecondsPerSecond
	}
	if t.Usec < 0 {
		t.Sec--
		t.Usec += MicrosecondsPerSecond
	}
	return t
}

// IsZero reports whether both fields are zero
func (t Timeval) IsZero() bool {
	return t.Sec == 0 && t.Usec == 0
}

// Seconds returns the value as a real number of seconds
func (t Timeval) Seconds() float64 {
	return float64(t.Sec) + 1.0e-6*float64(t.Usec)
}

// Time converts Timeval into time.Time
func (t Timeval) Time() time.Time {
	return time.Unix(t.Sec, t.Usec*1000)
}

// Duration returns the value as time.Duration
func (t Timeval) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Usec)*time.Microsecond
}

// String formats Timeval as seconds with six fractional digits
func (t Timeval) String() string {
	return fmt.Sprintf("%d.%06d", t.Sec, t.Usec)
}

// Compare returns -1, 0 or 1 if a is respectively before, equal to or after b
func Compare(a, b Timeval) int {
	switch {
	case a.Sec < b.Sec:
		return -1
	case a.Sec > b.Sec:
		return 1
	case a.Usec < b.Usec:
		return -1
	case a.Usec > b.Usec:
		return 1
	}
	return 0
}

// Diff returns a-b
func Diff(a, b Timeval) Timeval {
	return Normalize(Timeval{Sec: a.Sec - b.Sec, Usec: a.Usec - b.Usec})
}

// DiffSeconds returns a-b as a real number of seconds
func DiffSeconds(a, b Timeval) float64 {
	return float64(a.Sec-b.Sec) + float64(a.Usec-b.Usec)*1.0e-6
}

// AddSeconds adds a real number of seconds to base.
// Integer and fractional parts are handled separately so large increments
// don't lose microsecond precision.
func AddSeconds(base Timeval, increment float64) Timeval {
	if math.IsNaN(increment) || math.IsInf(increment, 0) {
		return base
	}
	intPart := int64(increment)
	fracPart := roundAway((increment - float64(intPart)) * 1.0e6)
	return Normalize(Timeval{Sec: base.Sec + intPart, Usec: base.Usec + fracPart})
}

// Average returns the midpoint between earlier and later and their
// difference in seconds. If later precedes earlier the difference is
// reported as zero and the midpoint is earlier itself.
func Average(earlier, later Timeval) (Timeval, float64) {
	d := Diff(later, earlier)
	diff := d.Seconds()
	if diff < 0.0 {
		// either the caller swapped the arguments or the clock jumped,
		// most likely around a frequency change. Treat it as zero.
		return earlier, 0.0
	}
	half := Timeval{
		Sec:  d.Sec / 2,
		Usec: d.Usec/2 + (d.Sec%2)*(MicrosecondsPerSecond/2),
	}
	return Normalize(Timeval{Sec: earlier.Sec + half.Sec, Usec: earlier.Usec + half.Usec}), diff
}

// AddDiff returns c + (a - b)
func AddDiff(a, b, c Timeval) Timeval {
	return AddSeconds(c, DiffSeconds(a, b))
}

// Adjust projects old onto a clock whose frequency changed by dfreq
// and which was offset by doffset at when. It returns the new value
// and the applied correction in seconds.
func Adjust(old, when Timeval, dfreq, doffset float64) (Timeval, float64) {
	elapsed := DiffSeconds(when, old)
	delta := elapsed*dfreq - doffset
	return AddSeconds(old, delta), delta
}
