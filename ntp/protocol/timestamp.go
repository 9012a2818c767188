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

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/facebook/clocksteer/timeval"
)

// EraSplit is the earliest Unix second the default era can represent:
// fifty years before 2016-01-01.
const EraSplit int64 = 1451606400 - 50*365*86400

// DefaultEra is used by the package level conversion functions
var DefaultEra = Era{Split: EraSplit}

// TimestampSize is the wire size of a Timestamp
const TimestampSize = 8

// Timestamp is the 64-bit NTP fixed-point timestamp: seconds since 1900 in
// the high word, 2^-32 second units in the low word.
// The all-zero value means "no time" and always maps to a zero Timeval.
type Timestamp struct {
	Sec  uint32
	Frac uint32
}

// IsZero reports whether t is the "no time" sentinel
func (t Timestamp) IsZero() bool {
	return t.Sec == 0 && t.Frac == 0
}

// String returns the hex representation used in NTP debug output
func (t Timestamp) String() string {
	return fmt.Sprintf("%08x.%08x", t.Sec, t.Frac)
}

// Bytes returns the big-endian wire representation of t
func (t Timestamp) Bytes() []byte {
	b := make([]byte, TimestampSize)
	binary.BigEndian.PutUint32(b[0:], t.Sec)
	binary.BigEndian.PutUint32(b[4:], t.Frac)
	return b
}

// TimestampFromBytes parses the big-endian wire representation
func TimestampFromBytes(b []byte) (Timestamp, error) {
	if len(b) < TimestampSize {
		return Timestamp{}, fmt.Errorf("timestamp needs %d bytes, got %d", TimestampSize, len(b))
	}
	return Timestamp{
		Sec:  binary.BigEndian.Uint32(b[0:]),
		Frac: binary.BigEndian.Uint32(b[4:]),
	}, nil
}

// TimestampFromTimeval encodes tv with microsecond resolution.
// When fuzz is not nil it is XORed into both words to hide the low bits.
// A zero tv encodes to a zero Timestamp and is never fuzzed.
func TimestampFromTimeval(tv timeval.Timeval, fuzz *Timestamp) Timestamp {
	if tv.IsZero() {
		return Timestamp{}
	}
	tv = timeval.Normalize(tv)
	usec := uint32(tv.Usec)
	// 4295 * usec - usec/32 - usec/512 approximates usec * 2^32 / 1e6
	lo := 4295*usec - (usec >> 5) - (usec >> 9)
	hi := uint32(tv.Sec) + UnixEpoch
	if fuzz != nil {
		hi ^= fuzz.Sec
		lo ^= fuzz.Frac
	}
	return Timestamp{Sec: hi, Frac: lo}
}

// Timeval decodes t using the default era
func (t Timestamp) Timeval() timeval.Timeval {
	return DefaultEra.Timeval(t)
}

// IsOffsetSane reports whether tv shifted by offset stays inside the default era
func IsOffsetSane(tv timeval.Timeval, offset float64) bool {
	return DefaultEra.IsOffsetSane(tv, offset)
}

// Era resolves the 32-bit seconds of a Timestamp into a 64-bit Unix time
// window [Split, Split + 2^32).
type Era struct {
	Split int64
}

func (e Era) seconds(ntpSec uint32) int64 {
	return int64(ntpSec-uint32(e.Split+int64(UnixEpoch))) + e.Split
}

// Timeval decodes t into the era window
func (e Era) Timeval(t Timestamp) timeval.Timeval {
	if t.IsZero() {
		return timeval.Timeval{}
	}
	usec := int64(0.5 + float64(t.Frac)/4294.967296)
	return timeval.Normalize(timeval.Timeval{Sec: e.seconds(t.Sec), Usec: usec})
}

// IsOffsetSane reports whether tv + offset is a non-negative time inside the era
func (e Era) IsOffsetSane(tv timeval.Timeval, offset float64) bool {
	t, ok := offsetTime(tv, offset)
	if !ok {
		return false
	}
	return t >= float64(e.Split) && t <= float64(e.Split)+float64(EraLength)
}

// IsOffsetSane32 is IsOffsetSane for systems with a signed 32-bit time_t,
// where results closer than a year to the 2038 overflow are rejected instead
// of the era bounds.
func IsOffsetSane32(tv timeval.Timeval, offset float64) bool {
	t, ok := offsetTime(tv, offset)
	if !ok {
		return false
	}
	return t <= float64(0x7fffffff-365*24*3600)
}

func offsetTime(tv timeval.Timeval, offset float64) (float64, bool) {
	// also rejects NaN
	if !(offset > -float64(EraLength) && offset < float64(EraLength)) {
		return 0, false
	}
	t := tv.Seconds() + offset
	// time before 1970 is not valid
	if t < 0 {
		return 0, false
	}
	return t, true
}
