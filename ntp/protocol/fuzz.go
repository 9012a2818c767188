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
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// NewFuzz returns a random Timestamp whose set bits all lie below the clock
// precision (log2 seconds, in [-32, 32]). XORed into a Timestamp it hides the
// bits the clock cannot measure. A nil source means crypto/rand.
func NewFuzz(precision int, source io.Reader) (Timestamp, error) {
	if precision < -32 || precision > 32 {
		return Timestamp{}, fmt.Errorf("precision %d out of range [-32, 32]", precision)
	}
	if source == nil {
		source = rand.Reader
	}

	var buf [TimestampSize]byte
	start := TimestampSize - (precision+32+7)/8
	if _, err := io.ReadFull(source, buf[start:]); err != nil {
		return Timestamp{}, fmt.Errorf("reading random bytes: %w", err)
	}
	if bits := (precision + 32) % 8; bits != 0 {
		buf[start] %= 1 << bits
	}

	return Timestamp{
		Sec:  binary.BigEndian.Uint32(buf[0:]),
		Frac: binary.BigEndian.Uint32(buf[4:]),
	}, nil
}
