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
	"strings"

	"golang.org/x/sys/unix"
)

// State is the clock state returned by CLOCK_ADJTIME
type State int

func (s State) String() string {
	switch s {
	case unix.TIME_OK:
		return "TIME_OK"
	case unix.TIME_INS:
		return "TIME_INS"
	case unix.TIME_DEL:
		return "TIME_DEL"
	case unix.TIME_OOP:
		return "TIME_OOP"
	case unix.TIME_WAIT:
		return "TIME_WAIT"
	case unix.TIME_ERROR:
		return "TIME_ERROR"
	default:
		return "TIME_UNKNOWN"
	}
}

// Status is the bitmask in struct timex status
type Status int32

func (s Status) String() string {
	var labels []string

	for _, item := range []struct {
		bit   Status
		label string
	}{
		{unix.STA_PLL, "STA_PLL"},
		{unix.STA_PPSFREQ, "STA_PPSFREQ"},
		{unix.STA_PPSTIME, "STA_PPSTIME"},
		{unix.STA_FLL, "STA_FLL"},
		{unix.STA_INS, "STA_INS"},
		{unix.STA_DEL, "STA_DEL"},
		{unix.STA_UNSYNC, "STA_UNSYNC"},
		{unix.STA_FREQHOLD, "STA_FREQHOLD"},
		{unix.STA_PPSSIGNAL, "STA_PPSSIGNAL"},
		{unix.STA_PPSJITTER, "STA_PPSJITTER"},
		{unix.STA_PPSWANDER, "STA_PPSWANDER"},
		{unix.STA_PPSERROR, "STA_PPSERROR"},
		{unix.STA_CLOCKERR, "STA_CLOCKERR"},
		{unix.STA_NANO, "STA_NANO"},
		{unix.STA_MODE, "STA_MODE"},
		{unix.STA_CLK, "STA_CLK"},
	} {
		if s&item.bit == item.bit {
			labels = append(labels, item.label)
		}
	}

	return strings.Join(labels, " | ")
}
