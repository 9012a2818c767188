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

package cmd

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/clocksteer/clock"
	"github.com/facebook/clocksteer/kernel"
	"github.com/facebook/clocksteer/steer"
)

// flag
var freqSetFlag float64

func init() {
	RootCmd.AddCommand(freqCmd)
	freqCmd.Flags().Float64VarP(&freqSetFlag, "set", "s", math.NaN(), "New clock frequency offset in ppm")
}

// newEngine probes the kernel and returns Engine steering its clock.
// With prepare the clock is taken over first, which changes kernel state.
func newEngine(p *kernel.Prober, prepare bool) (*steer.Engine, error) {
	facts, err := p.Probe()
	if err != nil {
		return nil, fmt.Errorf("probing kernel: %w", err)
	}
	if prepare {
		facts = p.PrepareClock(facts)
	}
	return steer.New(facts, p.Clock, nil), nil
}

func freqRun(p *kernel.Prober, freq float64) error {
	set := !math.IsNaN(freq)
	e, err := newEngine(p, set)
	if err != nil {
		return err
	}
	cur, err := e.ReadFrequency()
	if err != nil {
		return err
	}
	st := e.State()
	fmt.Printf("Current frequency: %.6f ppm (tick delta %d)\n", cur, st.TickDelta)
	status, state, err := clock.ReadStatus(p.Clock)
	if err != nil {
		return err
	}
	fmt.Printf("Kernel clock state: %s, status: %s\n", clock.State(state), status)
	if !set {
		return nil
	}

	log.Infof("Setting new frequency value %f", freq)
	actual := e.ApplyFrequency(freq)
	st = e.State()
	fmt.Printf("Requested frequency: %.6f ppm\n", freq)
	fmt.Printf("Actual frequency: %.6f ppm (tick delta %d)\n", actual, st.TickDelta)
	return nil
}

var freqCmd = &cobra.Command{
	Use:   "freq",
	Short: "Print clock frequency offset. Use `--set <ppm>` to change it",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := freqRun(newProber(), freqSetFlag); err != nil {
			log.Fatal(err)
		}
	},
}
