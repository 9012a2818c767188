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

	"github.com/stretchr/testify/require"

	"github.com/facebook/clocksteer/timeval"
)

func TestTimestampFromTimeval(t *testing.T) {
	cases := []struct {
		in   timeval.Timeval
		want Timestamp
	}{
		{in: timeval.Timeval{Sec: 1585147599, Usec: 631495}, want: Timestamp{Sec: 3794136399, Frac: 2712250058}},
		{in: timeval.Timeval{Sec: 1, Usec: 0}, want: Timestamp{Sec: 2208988801, Frac: 0}},
		{in: timeval.Timeval{Sec: 0, Usec: 1}, want: Timestamp{Sec: 2208988800, Frac: 4295}},
		{in: timeval.Timeval{Sec: 1700000000, Usec: 999999}, want: Timestamp{Sec: 3908988800, Frac: 4294962503}},
		{in: timeval.Timeval{Sec: 4000000000, Usec: 500000}, want: Timestamp{Sec: 1914021504, Frac: 2147483399}},
		{in: timeval.Timeval{}, want: Timestamp{}},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			got := TimestampFromTimeval(tc.in, nil)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.in, got.Timeval())
		})
	}
}

func TestTimestampZeroIsNeverFuzzed(t *testing.T) {
	fuzz := &Timestamp{Sec: 0xdeadbeef, Frac: 0xffffffff}
	got := TimestampFromTimeval(timeval.Timeval{}, fuzz)
	require.True(t, got.IsZero())
	require.Equal(t, timeval.Timeval{}, got.Timeval())
}

func TestTimestampFuzz(t *testing.T) {
	tv := timeval.Timeval{Sec: 1700000000, Usec: 123456}
	fuzz := &Timestamp{Sec: 0, Frac: 0x00000fff}

	plain := TimestampFromTimeval(tv, nil)
	fuzzed := TimestampFromTimeval(tv, fuzz)
	require.Equal(t, plain.Sec, fuzzed.Sec)
	require.Equal(t, plain.Frac^0x00000fff, fuzzed.Frac)

	// 12 bits of fuzz stay below one microsecond
	require.InDelta(t, 0, timeval.DiffSeconds(fuzzed.Timeval(), tv), 1.5e-6)
}

func TestTimestampRoundTrip(t *testing.T) {
	for u := int64(0); u < timeval.MicrosecondsPerSecond; u += 997 {
		tv := timeval.Timeval{Sec: 1600000000, Usec: u}
		require.Equal(t, tv, TimestampFromTimeval(tv, nil).Timeval(), tv.String())
	}
	tv := timeval.Timeval{Sec: 1600000000, Usec: 999999}
	require.Equal(t, tv, TimestampFromTimeval(tv, nil).Timeval())
}

func TestTimestampUnnormalizedInput(t *testing.T) {
	got := TimestampFromTimeval(timeval.Timeval{Sec: 1, Usec: 2500000}, nil)
	require.Equal(t, timeval.Timeval{Sec: 3, Usec: 500000}, got.Timeval())
}

func TestTimestampDecodeCarry(t *testing.T) {
	// fraction just below one second rounds up into the next second
	got := Timestamp{Sec: 3908988800, Frac: 0xffffffff}.Timeval()
	require.Equal(t, timeval.Timeval{Sec: 1700000001, Usec: 0}, got)
}

func TestEraBoundaries(t *testing.T) {
	e := DefaultEra
	require.Equal(t, int64(-125193600), e.Split)

	first := TimestampFromTimeval(timeval.Timeval{Sec: e.Split, Usec: 1}, nil)
	require.Equal(t, timeval.Timeval{Sec: e.Split, Usec: 1}, e.Timeval(first))

	last := TimestampFromTimeval(timeval.Timeval{Sec: e.Split + EraLength - 1, Usec: 1}, nil)
	require.Equal(t, timeval.Timeval{Sec: e.Split + EraLength - 1, Usec: 1}, e.Timeval(last))

	// one second past the window wraps to its start
	wrapped := TimestampFromTimeval(timeval.Timeval{Sec: e.Split + EraLength, Usec: 1}, nil)
	require.Equal(t, timeval.Timeval{Sec: e.Split, Usec: 1}, e.Timeval(wrapped))
}

func TestCustomEra(t *testing.T) {
	e := Era{Split: 0}
	ts := Timestamp{Sec: UnixEpoch - 1, Frac: 0}
	require.Equal(t, timeval.Timeval{Sec: EraLength - 1, Usec: 0}, e.Timeval(ts))
	require.Equal(t, timeval.Timeval{Sec: -1, Usec: 0}, DefaultEra.Timeval(ts))
}

func TestIsOffsetSane(t *testing.T) {
	now := timeval.Timeval{Sec: 1700000000, Usec: 0}
	cases := []struct {
		name   string
		tv     timeval.Timeval
		offset float64
		want   bool
	}{
		{name: "zero offset", tv: now, offset: 0, want: true},
		{name: "small negative", tv: now, offset: -3600.5, want: true},
		{name: "nan", tv: now, offset: math.NaN(), want: false},
		{name: "positive inf", tv: now, offset: math.Inf(1), want: false},
		{name: "full era", tv: now, offset: float64(EraLength), want: false},
		{name: "minus full era", tv: now, offset: -float64(EraLength), want: false},
		{name: "before 1970", tv: now, offset: -1700000001, want: false},
		{name: "epoch", tv: timeval.Timeval{}, offset: 0, want: true},
		{name: "past era end", tv: timeval.Timeval{Sec: 4169773000}, offset: 1000, want: false},
		{name: "at era end", tv: timeval.Timeval{Sec: 4169773000}, offset: 696, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsOffsetSane(tc.tv, tc.offset))
		})
	}
}

func TestIsOffsetSane32(t *testing.T) {
	require.True(t, IsOffsetSane32(timeval.Timeval{Sec: 1700000000}, 0))
	require.True(t, IsOffsetSane32(timeval.Timeval{Sec: 2115947647}, 0))
	require.False(t, IsOffsetSane32(timeval.Timeval{Sec: 2115947647}, 1))
	require.False(t, IsOffsetSane32(timeval.Timeval{Sec: 10}, -11))
	require.False(t, IsOffsetSane32(timeval.Timeval{Sec: 10}, math.NaN()))
}

func TestTimestampBytes(t *testing.T) {
	ts := Timestamp{Sec: 0xe2270f77, Frac: 0xa204b0d4}
	b := ts.Bytes()
	require.Equal(t, []byte{226, 39, 15, 119, 162, 4, 176, 212}, b)

	got, err := TimestampFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, ts, got)
	require.Equal(t, "e2270f77.a204b0d4", got.String())

	_, err = TimestampFromBytes(b[:7])
	require.Error(t, err)
}
