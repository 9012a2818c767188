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
Package kernel determines, once at startup, what the running Linux kernel
allows the clock steering code to do: USER_HZ, the nominal tick and how far
it may be biased, how often the kernel folds adjustments into the clock and
whether the clock can be stepped directly.
*/
package kernel

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-version"
)

// Fatal probe errors
var (
	ErrUnsupportedKernel = errors.New("kernel version not supported")
	ErrUnknownHZ         = errors.New("cannot determine USER_HZ")
	ErrKernelVersion     = errors.New("cannot read kernel version")
)

// Facts are read-only capabilities of the running kernel
type Facts struct {
	// HZ is USER_HZ, the tick rate tick length is expressed against
	HZ int64
	// NominalTick is the tick length in microseconds at zero bias
	NominalTick int64
	// MaxTickBias is the maximum tick deviation from nominal in microseconds
	MaxTickBias int64
	// UpdateHZ is how often the kernel applies the adjustments
	UpdateHZ int64
	// DirectStep tells whether ADJ_SETOFFSET can be used
	DirectStep bool
	// Version is the parsed kernel release
	Version *version.Version
}

// MaxFrequencyPPM is the largest frequency offset reachable by biasing the tick
func (f Facts) MaxFrequencyPPM() float64 {
	return 1e6 * float64(f.MaxTickBias) / float64(f.NominalTick)
}

// UpdateInterval is the period at which the kernel applies adjustments
func (f Facts) UpdateInterval() time.Duration {
	return time.Second / time.Duration(f.UpdateHZ)
}

// String returns a one-line summary for logging
func (f Facts) String() string {
	return fmt.Sprintf("hz=%d nominal_tick=%d max_tick_bias=%d update_hz=%d direct_step=%t",
		f.HZ, f.NominalTick, f.MaxTickBias, f.UpdateHZ, f.DirectStep)
}

// DeriveFacts computes Facts from USER_HZ and kernel version.
// DirectStep is only what the version promises, the caller still has to verify it.
func DeriveFacts(hz int64, v *version.Version) (Facts, error) {
	if hz < 1 {
		return Facts{}, fmt.Errorf("%w: hz=%d", ErrUnknownHZ, hz)
	}
	if v.LessThan(minVersion) {
		return Facts{}, fmt.Errorf("%w: %s is older than %s", ErrUnsupportedKernel, v, minVersion)
	}

	nominal := (1000000 + hz/2) / hz
	f := Facts{
		HZ:          hz,
		NominalTick: nominal,
		MaxTickBias: nominal / 10,
		// tickless kernels have no fixed rate, assume the lowest common one
		UpdateHZ:   100,
		DirectStep: !v.LessThan(setOffsetVersion),
		Version:    v,
	}
	// tickless kernels before 2.6.33 accumulated ticks only in half-second intervals
	if halfSecondUpdates.Check(v) {
		f.UpdateHZ = 2
	}
	return f, nil
}
