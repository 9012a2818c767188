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

package kernel

import (
	"fmt"

	"github.com/tklauser/go-sysconf"
)

// tick range which unambiguously means USER_HZ=100
const (
	hz100TickLo = 9000
	hz100TickHi = 11000
)

// GuessHZ estimates USER_HZ from the current tick length.
// The only credible values are 100 or powers of two, and the kernel keeps
// tick within 10% of 1e6/USER_HZ.
func GuessHZ(tick int64) (int64, error) {
	if tick >= hz100TickLo && tick <= hz100TickHi {
		return 100, nil
	}
	for i := 4; i < 16; i++ {
		hz := int64(1) << i
		nominal := 1.0e6 / float64(hz)
		lo := int64(0.5 + nominal*2.0/3.0)
		hi := int64(0.5 + nominal*4.0/3.0)
		if lo < tick && tick <= hi {
			return hz, nil
		}
	}
	return 0, fmt.Errorf("%w: from tick %d", ErrUnknownHZ, tick)
}

// SysconfHZ returns _SC_CLK_TCK
func SysconfHZ() (int64, error) {
	return sysconf.Sysconf(sysconf.SC_CLK_TCK)
}
