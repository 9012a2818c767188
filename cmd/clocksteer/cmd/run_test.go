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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/clocksteer/clock"
	"github.com/facebook/clocksteer/config"
	"github.com/facebook/clocksteer/kernel"
)

func simulatedProber(release string) (*kernel.Prober, *clock.Simulated) {
	sim := clock.NewSimulated(100)
	return &kernel.Prober{
		Clock:      sim,
		Release:    func() (string, error) { return release, nil },
		ClockTicks: func() (int64, error) { return 100, nil },
	}, sim
}

func testRunConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.MonitoringPort = 0
	cfg.Interval = 10 * time.Millisecond
	cfg.DriftFile = filepath.Join(t.TempDir(), "drift")
	return cfg
}

func TestRunDaemonInitialFrequency(t *testing.T) {
	cfg := testRunConfig(t)
	freq := 12.5
	cfg.InitialFrequency = &freq
	p, sim := simulatedProber(simulatedRelease)
	sim.Offset = 42

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, runDaemon(ctx, cfg, p))

	// the daemon takes over the clock
	require.Zero(t, sim.Offset)
	require.Equal(t, -12.5, sim.FreqPPM())
	ppm, err := config.LoadDrift(cfg.DriftFile)
	require.NoError(t, err)
	require.Equal(t, 12.5, ppm)
}

func TestRunDaemonDriftFilePreferred(t *testing.T) {
	cfg := testRunConfig(t)
	freq := 12.5
	cfg.InitialFrequency = &freq
	require.NoError(t, os.WriteFile(cfg.DriftFile, []byte("-3.25 0.01\n"), 0644))
	p, sim := simulatedProber(simulatedRelease)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, runDaemon(ctx, cfg, p))

	require.Equal(t, 3.25, sim.FreqPPM())
	ppm, err := config.LoadDrift(cfg.DriftFile)
	require.NoError(t, err)
	require.Equal(t, -3.25, ppm)
}

func TestRunDaemonKeepsKernelFrequency(t *testing.T) {
	cfg := testRunConfig(t)
	p, sim := simulatedProber(simulatedRelease)
	sim.Freq = int64(-7 * clock.FreqScale)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, runDaemon(ctx, cfg, p))

	ppm, err := config.LoadDrift(cfg.DriftFile)
	require.NoError(t, err)
	require.Equal(t, 7.0, ppm)
}

func TestRunDaemonProbeFailure(t *testing.T) {
	cfg := testRunConfig(t)
	p, _ := simulatedProber("2.0.40")

	err := runDaemon(context.Background(), cfg, p)
	require.ErrorIs(t, err, kernel.ErrUnsupportedKernel)
	_, err = os.Stat(cfg.DriftFile)
	require.ErrorIs(t, err, os.ErrNotExist)
}
