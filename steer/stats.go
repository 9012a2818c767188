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

package steer

// Stats keys
const (
	FrequencyApplied = "steer.frequency.applied"
	FrequencyFailed  = "steer.frequency.failed"
	FrequencyHeld    = "steer.frequency.held"
	FrequencyClamped = "steer.frequency.clamped"
	StepApplied      = "steer.step.applied"
	StepFailed       = "steer.step.failed"
	FrequencyPPM     = "steer.frequency.ppm"
	TickDelta        = "steer.tick.delta"
)

// StatsServer is a stats server interface
type StatsServer interface {
	UpdateCounterBy(key string, count int64)
	SetGauge(key string, val float64)
	// AddResidual records requested minus committed frequency in ppm
	AddResidual(ppm float64)
}

type noopStats struct{}

func (noopStats) UpdateCounterBy(string, int64) {}
func (noopStats) SetGauge(string, float64)      {}
func (noopStats) AddResidual(float64)           {}
