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
	"time"

	"github.com/beevik/ntp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/facebook/clocksteer/config"
	"github.com/facebook/clocksteer/kernel"
	"github.com/facebook/clocksteer/ntp/protocol"
	"github.com/facebook/clocksteer/timeval"
)

var (
	stepOffsetFlag float64
	stepServerFlag string
	stepDryRunFlag bool
	stepConfigFlag string
	stepFlags      = config.DefaultConfig()
)

func init() {
	RootCmd.AddCommand(stepCmd)
	stepCmd.Flags().Float64VarP(&stepOffsetFlag, "offset", "o", math.NaN(), "offset in seconds to remove from the clock, positive means the clock is ahead")
	stepCmd.Flags().StringVarP(&stepServerFlag, "server", "s", "", "NTP server to measure offset against")
	stepCmd.Flags().BoolVarP(&stepDryRunFlag, "dry-run", "n", false, "print the step without applying it")
	stepCmd.Flags().StringVarP(&stepConfigFlag, "config", "c", "", "path to the config with step limits")
	stepCmd.Flags().Float64Var(&stepFlags.MaxStep, "maxstep", stepFlags.MaxStep, "refuse steps larger than this many seconds, 0 means no limit")
	stepCmd.Flags().Float64Var(&stepFlags.StepThreshold, "stepthreshold", stepFlags.StepThreshold, "skip steps smaller than this many seconds")
	stepCmd.MarkFlagsMutuallyExclusive("offset", "server")
}

// serverOffset returns how far local clock is ahead of the server
func serverOffset(server string) (float64, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, fmt.Errorf("querying %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("invalid response from %s: %w", server, err)
	}
	log.Debugf("server=%s stratum=%d refid=%s rtt=%v clock_offset=%v",
		server, resp.Stratum, protocol.RefIDToString(resp.ReferenceID), resp.RTT, resp.ClockOffset)
	// ClockOffset is how much local clock needs to move forward
	return -resp.ClockOffset.Seconds(), nil
}

func stepRun(p *kernel.Prober, offset float64, server string, dryRun bool, cfg *config.Config) error {
	if server != "" {
		var err error
		if offset, err = serverOffset(server); err != nil {
			return err
		}
	}
	if math.IsNaN(offset) {
		return fmt.Errorf("either --offset or --server is required")
	}
	now := timeval.FromTime(time.Now())
	// the clock ends up at now - offset
	if !protocol.IsOffsetSane(now, -offset) {
		return fmt.Errorf("offset %.6fs is not sane for current time %s", offset, now)
	}
	if err := cfg.StepAllowed(offset); err != nil {
		return err
	}
	target := timeval.AddSeconds(now, -offset)
	fmt.Printf("Stepping clock by %.6fs, from %s to %s\n", -offset, now, target)
	if dryRun {
		return nil
	}

	e, err := newEngine(p, true)
	if err != nil {
		return err
	}
	return e.ApplyStep(offset)
}

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Step the clock by `--offset` or by offset measured against `--server`",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()

		setFlags := make(map[string]bool)
		c.Flags().Visit(func(f *pflag.Flag) {
			setFlags[f.Name] = true
		})
		cfg, err := config.PrepareConfig(stepConfigFlag, stepFlags, setFlags)
		if err != nil {
			log.Fatal(err)
		}
		if err := stepRun(newProber(), stepOffsetFlag, stepServerFlag, stepDryRunFlag, cfg); err != nil {
			log.Fatal(err)
		}
	},
}
