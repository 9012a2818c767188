//go:build 386

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
	"golang.org/x/sys/unix"
)

func setFreqPPM(tx *unix.Timex, freqPPM float64) {
	tx.Freq = int32(freqPPM * FreqScale)
}

func getFreqPPM(tx *unix.Timex) float64 {
	return float64(tx.Freq) / FreqScale
}

func setTick(tx *unix.Timex, tick int64) {
	tx.Tick = int32(tick)
}

func getTick(tx *unix.Timex) int64 {
	return int64(tx.Tick)
}

func setMaxError(tx *unix.Timex, maxError int64) {
	tx.Maxerror = int32(maxError)
}

func getMaxError(tx *unix.Timex) int64 {
	return int64(tx.Maxerror)
}

func setOffset(tx *unix.Timex, offset int64) {
	tx.Offset = int32(offset)
}

func getOffset(tx *unix.Timex) int64 {
	return int64(tx.Offset)
}

func setTime(tx *unix.Timex, sec, usec int64) {
	tx.Time.Sec = int32(sec)
	tx.Time.Usec = int32(usec)
}

func getTime(tx *unix.Timex) (sec, usec int64) {
	return int64(tx.Time.Sec), int64(tx.Time.Usec)
}
