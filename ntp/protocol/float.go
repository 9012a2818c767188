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
	"math"
)

// Float layout: 7-bit signed exponent above a 25-bit signed coefficient
const (
	floatExpBits  = 7
	floatCoefBits = 32 - floatExpBits
	floatExpMin   = -(1 << (floatExpBits - 1))
	floatExpMax   = -floatExpMin - 1
	floatCoefMin  = -(1 << (floatCoefBits - 1))
	floatCoefMax  = -floatCoefMin - 1

	floatCoefMod = 1 << floatCoefBits
	floatExpMod  = 1 << floatExpBits
)

// FloatSize is the wire size of a Float
const FloatSize = 4

// Float is the 32-bit floating format used for interval and error fields,
// value = coefficient * 2^(exponent-25). Both parts are two's complement
// within their own bit widths.
type Float uint32

// FloatFromFloat64 encodes x. NaN encodes as zero, magnitudes below 1e-100
// are zero and values beyond the representable range saturate.
func FloatFromFloat64(x float64) Float {
	var exp, coef, neg int64

	switch {
	case x < 0:
		x = -x
		neg = 1
	case x >= 0:
	default:
		// NaN
		x = 0
	}

	switch {
	case x < 1e-100:
		exp, coef = 0, 0
	case x > 1e100:
		exp, coef = floatExpMax, floatCoefMax+neg
	default:
		exp = int64(math.Log(x)/math.Log(2) + 1)
		coef = floatCoef(x, exp)

		// at most two steps; rounding again instead of shifting the
		// rounded coefficient keeps the error within half a unit
		for coef > floatCoefMax+neg {
			exp++
			coef = floatCoef(x, exp)
		}

		if exp > floatExpMax {
			exp, coef = floatExpMax, floatCoefMax+neg
		} else if exp < floatExpMin {
			if exp+floatCoefBits >= floatExpMin {
				coef >>= uint(floatExpMin - exp)
				exp = floatExpMin
			} else {
				exp, coef = 0, 0
			}
		}
	}

	if neg == 1 {
		coef = (floatCoefMod - coef) % floatCoefMod
	}
	exp = (exp + floatExpMod) % floatExpMod

	return Float(uint32(exp)<<floatCoefBits | uint32(coef))
}

// floatCoef is x scaled for exponent exp, rounded to nearest
func floatCoef(x float64, exp int64) int64 {
	return int64(x*math.Pow(2, float64(floatCoefBits-exp)) + 0.5)
}

// Float64 decodes f
func (f Float) Float64() float64 {
	x := uint32(f)

	exp := int64(x >> floatCoefBits)
	if exp >= floatExpMod/2 {
		exp -= floatExpMod
	}
	exp -= floatCoefBits

	coef := int64(x % floatCoefMod)
	if coef >= floatCoefMod/2 {
		coef -= floatCoefMod
	}

	return math.Ldexp(float64(coef), int(exp))
}

// String returns the decoded value
func (f Float) String() string {
	return fmt.Sprintf("%g", f.Float64())
}

// Bytes returns the big-endian wire representation of f
func (f Float) Bytes() []byte {
	b := make([]byte, FloatSize)
	binary.BigEndian.PutUint32(b, uint32(f))
	return b
}

// FloatFromBytes parses the big-endian wire representation
func FloatFromBytes(b []byte) (Float, error) {
	if len(b) < FloatSize {
		return 0, fmt.Errorf("float needs %d bytes, got %d", FloatSize, len(b))
	}
	return Float(binary.BigEndian.Uint32(b)), nil
}
