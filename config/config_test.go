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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig("/does/not/exist")
	require.Error(t, err)
}

func TestReadConfigDefaults(t *testing.T) {
	f, err := os.CreateTemp("", "clocksteer")
	require.NoError(t, err)
	defer os.Remove(f.Name()) // clean up
	cfg, err := ReadConfig(f.Name())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestReadConfig(t *testing.T) {
	f, err := os.CreateTemp("", "clocksteer")
	require.NoError(t, err)
	defer os.Remove(f.Name()) // clean up
	_, err = f.Write([]byte(`loglevel: debug
monitoringport: 4269
interval: 500ms
driftfile: /var/lib/clocksteer/drift
initialfrequency: -12.5
maxstep: 60
stepthreshold: 0.5
`))
	require.NoError(t, err)
	cfg, err := ReadConfig(f.Name())
	require.NoError(t, err)
	freq := -12.5
	want := &Config{
		LogLevel:         "debug",
		MonitoringPort:   4269,
		Interval:         500 * time.Millisecond,
		DriftFile:        "/var/lib/clocksteer/drift",
		InitialFrequency: &freq,
		MaxStep:          60,
		StepThreshold:    0.5,
	}
	require.Equal(t, want, cfg)
	require.Equal(t, log.DebugLevel, cfg.Level())
}

func TestReadConfigBroken(t *testing.T) {
	f, err := os.CreateTemp("", "clocksteer")
	require.NoError(t, err)
	defer os.Remove(f.Name()) // clean up
	_, err = f.Write([]byte("interval: [1, 2]\n"))
	require.NoError(t, err)
	_, err = ReadConfig(f.Name())
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	nan := 0.0
	nan /= nan
	cases := []struct {
		name   string
		modify func(c *Config)
		errStr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "loglevel", modify: func(c *Config) { c.LogLevel = "trace" }, errStr: "loglevel must be one of"},
		{name: "interval", modify: func(c *Config) { c.Interval = 0 }, errStr: "interval must be greater than zero"},
		{name: "port", modify: func(c *Config) { c.MonitoringPort = -1 }, errStr: "monitoringport must be 0 or positive"},
		{name: "initial frequency", modify: func(c *Config) { c.InitialFrequency = &nan }, errStr: "initialfrequency must be a finite number"},
		{name: "maxstep", modify: func(c *Config) { c.MaxStep = -1 }, errStr: "maxstep must be 0 or positive"},
		{name: "stepthreshold", modify: func(c *Config) { c.StepThreshold = -1 }, errStr: "stepthreshold must be 0 or positive"},
		{name: "threshold above max", modify: func(c *Config) { c.StepThreshold = 10; c.MaxStep = 5 }, errStr: "stepthreshold must not exceed maxstep"},
		{name: "unlimited step", modify: func(c *Config) { c.StepThreshold = 10; c.MaxStep = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.modify(c)
			err := c.Validate()
			if tc.errStr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tc.errStr)
			}
		})
	}
}

func TestStepAllowed(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.StepAllowed(0.5))
	require.NoError(t, c.StepAllowed(-999))
	require.ErrorContains(t, c.StepAllowed(0.05), "below step threshold")
	require.ErrorContains(t, c.StepAllowed(-1001), "exceeds max step")

	c.MaxStep = 0
	require.NoError(t, c.StepAllowed(1e6))
}

func TestPrepareConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clocksteer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 2s\nmonitoringport: 1234\n"), 0644))

	flags := &Config{MonitoringPort: 5678, Interval: time.Minute, DriftFile: "/tmp/drift"}
	cfg, err := PrepareConfig(path, flags, map[string]bool{"monitoringport": true, "driftfile": true})
	require.NoError(t, err)
	require.Equal(t, 5678, cfg.MonitoringPort)
	require.Equal(t, 2*time.Second, cfg.Interval)
	require.Equal(t, "/tmp/drift", cfg.DriftFile)

	cfg, err = PrepareConfig("", flags, map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	_, err = PrepareConfig(filepath.Join(dir, "missing.yaml"), flags, nil)
	require.Error(t, err)

	flags.Interval = -time.Second
	_, err = PrepareConfig("", flags, map[string]bool{"interval": true})
	require.ErrorContains(t, err, "validating config")
}

func TestDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift")

	_, err := LoadDrift(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, WriteDrift(path, -12.345678))
	ppm, err := LoadDrift(path)
	require.NoError(t, err)
	require.Equal(t, -12.345678, ppm)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "-12.345678\n", string(data))

	require.NoError(t, WriteDrift(path, 3))
	ppm, err = LoadDrift(path)
	require.NoError(t, err)
	require.Equal(t, 3.0, ppm)
}

func TestLoadDriftFormats(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		content string
		want    float64
		err     bool
	}{
		{content: "1.5\n", want: 1.5},
		{content: "  -4.25 0.031\n", want: -4.25},
		{content: "1.0E+01", want: 10},
		{content: "", err: true},
		{content: "fast\n", err: true},
		{content: "NaN\n", err: true},
	}
	for i, tc := range cases {
		path := filepath.Join(dir, filepath.Base(t.Name())+string(rune('a'+i)))
		require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))
		got, err := LoadDrift(path)
		if tc.err {
			require.Error(t, err, tc.content)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}
