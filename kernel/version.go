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

package kernel

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-version"
	"golang.org/x/sys/unix"
)

var (
	minVersion        = version.Must(version.NewVersion("2.2.0"))
	setOffsetVersion  = version.Must(version.NewVersion("2.6.39"))
	halfSecondUpdates = mustConstraints(">= 2.6.27, < 2.6.33")
)

// releaseRegexp matches major.minor[.patch] at the start of a release string
var releaseRegexp = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)

func mustConstraints(c string) version.Constraints {
	cs, err := version.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}

// ParseRelease parses kernel release like "5.15.0-91-generic" into major.minor.patch.
// Patch defaults to 0, anything after the numbers is ignored.
func ParseRelease(release string) (*version.Version, error) {
	m := releaseRegexp.FindStringSubmatch(release)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrKernelVersion, release)
	}
	fields := [3]int{}
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrKernelVersion, release, err)
		}
		fields[i] = n
	}
	return version.NewVersion(fmt.Sprintf("%d.%d.%d", fields[0], fields[1], fields[2]))
}

// UnameRelease returns the running kernel release
func UnameRelease() (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uname.Release[:]), nil
}
