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
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/clocksteer/clock"
	"github.com/facebook/clocksteer/kernel"
)

// simulatedRelease is the kernel release reported in simulation mode
const simulatedRelease = "6.1.0-simulated"

// RootCmd is a main entry point. It's exported so clocksteer could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "clocksteer",
	Short: "Steer system clock frequency and offset via adjtimex",
}

var (
	verbose    bool
	simulate   bool
	simulateHZ int64
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().BoolVarP(&simulate, "simulate", "S", false, "use in-memory simulated kernel clock instead of the system clock")
	RootCmd.PersistentFlags().Int64Var(&simulateHZ, "simulate-hz", 100, "tick rate of the simulated kernel")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// newProber returns prober for either system or simulated clock
func newProber() *kernel.Prober {
	if !simulate {
		return kernel.NewProber(clock.NewSysClock())
	}
	sim := clock.NewSimulated(simulateHZ)
	return &kernel.Prober{
		Clock:      sim,
		Release:    func() (string, error) { return simulatedRelease, nil },
		ClockTicks: func() (int64, error) { return simulateHZ, nil },
	}
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
