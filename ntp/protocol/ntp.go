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
Package protocol implements the numeric formats used on the NTP wire:
the 64-bit fixed-point timestamp, the 32-bit 16.16 short format and the
32-bit floating format with a 7-bit exponent and a 25-bit coefficient.
All conversions go through timeval.Timeval so no precision is lost
between the wire and the clock steering code.
*/
package protocol

import (
	"time"
)

// UnixEpoch is the NTP seconds value of 1970-01-01 00:00:00 UTC
const UnixEpoch uint32 = 0x83aa7e80

// EraLength is the length of one NTP era in seconds
const EraLength int64 = 1 << 32

// NanosecondsToUnix is the difference between NTP and Unix epoch in NS
const NanosecondsToUnix = int64(UnixEpoch) * int64(time.Second)

// TimestampFromTime converts Unix time into NTP timestamp with nanosecond resolution
func TimestampFromTime(t time.Time) Timestamp {
	nsec := t.UnixNano() + NanosecondsToUnix
	sec := nsec / time.Second.Nanoseconds()
	return Timestamp{
		Sec:  uint32(sec),
		Frac: uint32((nsec - sec*time.Second.Nanoseconds()) << 32 / time.Second.Nanoseconds()),
	}
}

// Time converts NTP timestamp into Unix time with nanosecond resolution.
// Seconds are mapped onto the default era.
func (t Timestamp) Time() time.Time {
	secs := DefaultEra.seconds(t.Sec)
	nanos := (int64(t.Frac) * time.Second.Nanoseconds()) >> 32
	return time.Unix(secs, nanos)
}

// Log2ToSeconds converts a power-of-two exponent (poll, precision) into seconds.
// Exponent is clamped to [-31, 31].
func Log2ToSeconds(l int8) float64 {
	if l >= 0 {
		if l > 31 {
			l = 31
		}
		return float64(uint32(1) << uint(l))
	}
	if l < -31 {
		l = -31
	}
	return 1.0 / float64(uint32(1)<<uint(-l))
}
