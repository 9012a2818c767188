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

/*
Package config holds clocksteer daemon configuration and drift file handling.
*/
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// supported log levels
var logLevels = map[string]log.Level{
	"debug":   log.DebugLevel,
	"info":    log.InfoLevel,
	"warning": log.WarnLevel,
	"error":   log.ErrorLevel,
}

// Config specifies clocksteer run options
type Config struct {
	LogLevel       string        `yaml:"loglevel"`
	MonitoringPort int           `yaml:"monitoringport"`
	Interval       time.Duration `yaml:"interval"`
	DriftFile      string        `yaml:"driftfile"`
	// InitialFrequency in ppm is applied at start when there is no drift file
	InitialFrequency *float64 `yaml:"initialfrequency"`
	// MaxStep in seconds, clocksteer step refuses larger steps. 0 means no limit.
	MaxStep float64 `yaml:"maxstep"`
	// StepThreshold in seconds, clocksteer step skips smaller offsets
	StepThreshold float64 `yaml:"stepthreshold"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		MonitoringPort: 4270,
		Interval:       time.Second,
		MaxStep:        1000,
		StepThreshold:  0.1,
	}
}

// Level returns logrus level for LogLevel
func (c *Config) Level() log.Level {
	if l, ok := logLevels[c.LogLevel]; ok {
		return l
	}
	return log.InfoLevel
}

// Validate config is sane
func (c *Config) Validate() error {
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("loglevel must be one of debug, info, warning or error, got %q", c.LogLevel)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}
	if c.MonitoringPort < 0 {
		return fmt.Errorf("monitoringport must be 0 or positive")
	}
	if c.InitialFrequency != nil && (math.IsNaN(*c.InitialFrequency) || math.IsInf(*c.InitialFrequency, 0)) {
		return fmt.Errorf("initialfrequency must be a finite number")
	}
	if !(c.MaxStep >= 0) {
		return fmt.Errorf("maxstep must be 0 or positive")
	}
	if !(c.StepThreshold >= 0) {
		return fmt.Errorf("stepthreshold must be 0 or positive")
	}
	if c.MaxStep > 0 && c.StepThreshold > c.MaxStep {
		return fmt.Errorf("stepthreshold must not exceed maxstep")
	}
	return nil
}

// StepAllowed tells whether an offset in seconds should be stepped.
// Offsets below StepThreshold are left to frequency steering,
// offsets beyond MaxStep are refused.
func (c *Config) StepAllowed(offset float64) error {
	abs := math.Abs(offset)
	if abs < c.StepThreshold {
		return fmt.Errorf("offset %.6fs is below step threshold %.6fs", offset, c.StepThreshold)
	}
	if c.MaxStep > 0 && abs > c.MaxStep {
		return fmt.Errorf("offset %.6fs exceeds max step %.6fs", offset, c.MaxStep)
	}
	return nil
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, CLI flags and on-disk config, and validates resulting config
func PrepareConfig(cfgPath string, flags *Config, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	if setFlags["loglevel"] {
		warn("loglevel")
		cfg.LogLevel = flags.LogLevel
	}
	if setFlags["monitoringport"] {
		warn("monitoringport")
		cfg.MonitoringPort = flags.MonitoringPort
	}
	if setFlags["interval"] {
		warn("interval")
		cfg.Interval = flags.Interval
	}
	if setFlags["driftfile"] {
		warn("driftfile")
		cfg.DriftFile = flags.DriftFile
	}
	if setFlags["maxstep"] {
		warn("maxstep")
		cfg.MaxStep = flags.MaxStep
	}
	if setFlags["stepthreshold"] {
		warn("stepthreshold")
		cfg.StepThreshold = flags.StepThreshold
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
