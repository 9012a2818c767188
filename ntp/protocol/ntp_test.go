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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	// Unix
	usec  = int64(1585147599)
	unsec = int64(631495778)
	// NTP
	nsec  = uint32(3794136399)
	nfrac = uint32(2712253714)
)

func TestTimestampFromTime(t *testing.T) {
	testtime := time.Unix(usec, unsec)
	ts := TimestampFromTime(testtime)
	require.Equal(t, nsec, ts.Sec)
	require.Equal(t, nfrac, ts.Frac)
}

func TestTimestampTime(t *testing.T) {
	testtime := Timestamp{Sec: nsec, Frac: nfrac}.Time()
	require.Equal(t, usec, testtime.Unix())
	require.InDelta(t, unsec, testtime.Nanosecond(), 1)
}

func TestTimestampTimeNextEra(t *testing.T) {
	// 2036-02-07 06:28:16 UTC is NTP second 0 of era 1
	testtime := Timestamp{Sec: 0, Frac: 1 << 31}.Time()
	require.Equal(t, int64(2085978496), testtime.Unix())
	require.Equal(t, 500000000, testtime.Nanosecond())
}

func TestLog2ToSeconds(t *testing.T) {
	cases := []struct {
		in   int8
		want float64
	}{
		{in: 0, want: 1},
		{in: 4, want: 16},
		{in: -6, want: 1.0 / 64},
		{in: 31, want: 1 << 31},
		{in: 40, want: 1 << 31},
		{in: -40, want: 1.0 / (1 << 31)},
		{in: math.MinInt8, want: 1.0 / (1 << 31)},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Log2ToSeconds(tc.in), "log2 %d", tc.in)
	}
}
