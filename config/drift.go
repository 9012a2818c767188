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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadDrift reads frequency offset in ppm from the drift file.
// Only the first field is used, anything after it (like skew) is ignored.
func LoadDrift(path string) (float64, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(p))
	if len(fields) == 0 {
		return 0, fmt.Errorf("drift file %q is empty", path)
	}
	ppm, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing drift file %q: %w", path, err)
	}
	if math.IsNaN(ppm) || math.IsInf(ppm, 0) {
		return 0, fmt.Errorf("drift file %q has invalid frequency %v", path, ppm)
	}
	return ppm, nil
}

// WriteDrift replaces the drift file with the frequency offset in ppm
func WriteDrift(path string, ppm float64) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatFloat(ppm, 'f', -1, 64) + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
