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
	"fmt"
	"strconv"

	"github.com/facebook/clocksteer/timeval"
)

// noHighSec in WireTimeval.SecHigh marks a 32-bit timestamp
const noHighSec uint32 = 0x7fffffff

// WireTimeval is the 12-byte timeval of the chrony command protocol
type WireTimeval struct {
	SecHigh uint32
	SecLow  uint32
	Nsec    uint32
}

// TimevalToWire converts tv into the wire layout
func TimevalToWire(tv timeval.Timeval) WireTimeval {
	tv = timeval.Normalize(tv)
	return WireTimeval{
		SecHigh: uint32(uint64(tv.Sec) >> 32),
		SecLow:  uint32(tv.Sec),
		Nsec:    uint32(tv.Usec * 1000),
	}
}

// Timeval converts w back, truncating to microseconds
func (w WireTimeval) Timeval() timeval.Timeval {
	high := uint64(w.SecHigh)
	if w.SecHigh == noHighSec {
		high = 0
	}
	return timeval.Timeval{
		Sec:  int64(high<<32 | uint64(w.SecLow)),
		Usec: int64(w.Nsec / 1000),
	}
}

// RefIDAsHEX prints ref id as hex
func RefIDAsHEX(refID uint32) string {
	return fmt.Sprintf("%08X", refID)
}

// RefIDToString decodes ASCII string encoded as uint32.
// Non-printable ids are rendered as hex.
func RefIDToString(refID uint32) string {
	result := []rune{}

	for i := range 4 {
		c := rune((refID >> (24 - uint(i)*8)) & 0xff)
		if c == 0 {
			continue
		}
		if !strconv.IsPrint(c) {
			return RefIDAsHEX(refID)
		}
		result = append(result, c)
	}

	return string(result)
}
