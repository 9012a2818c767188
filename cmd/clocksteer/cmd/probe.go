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
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/clocksteer/kernel"
)

// flag
var probeVerifyFlag bool

func init() {
	RootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolVar(&probeVerifyFlag, "verify", false, "verify direct step support. Resets pending adjtime() offset and kernel maximum error")
}

func directStep(facts kernel.Facts, verified bool) string {
	switch {
	case !facts.DirectStep:
		return color.YellowString("no")
	case verified:
		return color.GreenString("yes")
	}
	return color.BlueString("yes (unverified)")
}

func printFacts(w io.Writer, facts kernel.Facts, verified bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"fact", "value"})
	table.Append([]string{"kernel version", facts.Version.String()})
	table.Append([]string{"hz", fmt.Sprintf("%d", facts.HZ)})
	table.Append([]string{"nominal tick (us)", fmt.Sprintf("%d", facts.NominalTick)})
	table.Append([]string{"max tick bias (us)", fmt.Sprintf("%d", facts.MaxTickBias)})
	table.Append([]string{"max frequency (ppm)", fmt.Sprintf("%.3f", facts.MaxFrequencyPPM())})
	table.Append([]string{"update rate (hz)", fmt.Sprintf("%d", facts.UpdateHZ)})
	table.Append([]string{"update interval", facts.UpdateInterval().String()})
	table.Append([]string{"direct step", directStep(facts, verified)})
	table.Render()
}

// probeRun prints kernel facts. Only with verify the clock is touched.
func probeRun(w io.Writer, p *kernel.Prober, verify bool) error {
	facts, err := p.Probe()
	if err != nil {
		return fmt.Errorf("probing kernel: %w", err)
	}
	if verify {
		facts = p.PrepareClock(facts)
	}
	printFacts(w, facts, verify)
	return nil
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print kernel clock discipline capabilities",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := probeRun(os.Stdout, newProber(), probeVerifyFlag); err != nil {
			log.Fatal(err)
		}
	},
}
