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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/clocksteer/config"
	"github.com/facebook/clocksteer/kernel"
	"github.com/facebook/clocksteer/stats"
	"github.com/facebook/clocksteer/steer"
)

var (
	runConfigFlag string
	runFlags      = config.DefaultConfig()
)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigFlag, "config", "c", "", "path to the config")
	runCmd.Flags().StringVar(&runFlags.LogLevel, "loglevel", runFlags.LogLevel, "log level: debug, info, warning or error")
	runCmd.Flags().IntVar(&runFlags.MonitoringPort, "monitoringport", runFlags.MonitoringPort, "port to start monitoring http server on")
	runCmd.Flags().DurationVar(&runFlags.Interval, "interval", runFlags.Interval, "how often to sample kernel frequency")
	runCmd.Flags().StringVar(&runFlags.DriftFile, "driftfile", runFlags.DriftFile, "file to load frequency from at start and save it to on exit")
}

// initialFrequency picks frequency to start with: drift file first, then config
func initialFrequency(cfg *config.Config) (float64, bool) {
	if cfg.DriftFile != "" {
		ppm, err := config.LoadDrift(cfg.DriftFile)
		if err == nil {
			log.Infof("Loaded frequency %.6f ppm from %s", ppm, cfg.DriftFile)
			return ppm, true
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Warningf("Ignoring drift file: %v", err)
		}
	}
	if cfg.InitialFrequency != nil {
		return *cfg.InitialFrequency, true
	}
	return 0, false
}

// sample reads kernel frequency every interval until ctx is done
func sample(ctx context.Context, e *steer.Engine, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := e.ReadFrequency(); err != nil {
				log.Warningf("Failed to read kernel frequency: %v", err)
			}
		}
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, p *kernel.Prober) error {
	facts, err := p.Probe()
	if err != nil {
		return fmt.Errorf("probing kernel: %w", err)
	}
	facts = p.PrepareClock(facts)
	log.Infof("Kernel facts: %s", facts)

	st := stats.NewJSONStats()
	e := steer.New(facts, p.Clock, st)
	if _, err := e.ReadFrequency(); err != nil {
		return fmt.Errorf("reading kernel frequency: %w", err)
	}
	if ppm, ok := initialFrequency(cfg); ok {
		actual := e.ApplyFrequency(ppm)
		log.Infof("Initial frequency requested=%.6f ppm actual=%.6f ppm", ppm, actual)
	}

	eg, ictx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return st.Start(ictx, cfg.MonitoringPort, cfg.Interval)
	})
	eg.Go(func() error {
		return sample(ictx, e, cfg.Interval)
	})

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warningf("Failed to notify systemd: %v", err)
	}

	err = eg.Wait()
	if _, nerr := daemon.SdNotify(false, daemon.SdNotifyStopping); nerr != nil {
		log.Warningf("Failed to notify systemd: %v", nerr)
	}
	if cfg.DriftFile != "" {
		ppm := e.State().FrequencyPPM
		if werr := config.WriteDrift(cfg.DriftFile, ppm); werr != nil {
			log.Errorf("Failed to save frequency to %s: %v", cfg.DriftFile, werr)
		} else {
			log.Infof("Saved frequency %.6f ppm to %s", ppm, cfg.DriftFile)
		}
	}
	return err
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run clock steering daemon exporting kernel clock state",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()

		setFlags := make(map[string]bool)
		c.Flags().Visit(func(f *pflag.Flag) {
			setFlags[f.Name] = true
		})
		cfg, err := config.PrepareConfig(runConfigFlag, runFlags, setFlags)
		if err != nil {
			log.Fatal(err)
		}
		if !verbose {
			log.SetLevel(cfg.Level())
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runDaemon(ctx, cfg, newProber()); err != nil {
			log.Fatal(err)
		}
		log.Warning("Graceful shutdown")
	},
}
