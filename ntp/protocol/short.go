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
	"math"
)

// maxShort is the largest value the 16.16 format holds
const maxShort = math.MaxUint32 / 65536.0

// Short is the unsigned 16.16 fixed-point format of root delay and dispersion
type Short uint32

// ShortFromSeconds encodes x, clamped to [0, 65535.99998]
func ShortFromSeconds(x float64) Short {
	if x > maxShort {
		x = maxShort
	} else if !(x >= 0) {
		x = 0
	}
	return Short(uint32(0.5 + 65536.0*x))
}

// Seconds decodes s
func (s Short) Seconds() float64 {
	return float64(s) / 65536.0
}

// String returns the decoded value
func (s Short) String() string {
	return fmt.Sprintf("%.6f", s.Seconds())
}
