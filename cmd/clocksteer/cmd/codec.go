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
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/clocksteer/ntp/protocol"
	"github.com/facebook/clocksteer/timeval"
)

// supported codec formats
const (
	formatNTP   = "ntp"
	formatFloat = "float"
	formatShort = "short"
)

var codecFormats = []string{formatNTP, formatFloat, formatShort}

func init() {
	RootCmd.AddCommand(encodeCmd)
	RootCmd.AddCommand(decodeCmd)
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %q as 32-bit hex: %w", s, err)
	}
	return uint32(v), nil
}

// encodeValue converts decimal seconds into the wire format
func encodeValue(format, value string) (string, error) {
	x, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", value, err)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", fmt.Errorf("%q is not a finite number", value)
	}
	switch format {
	case formatNTP:
		return protocol.TimestampFromTimeval(timeval.FromSeconds(x), nil).String(), nil
	case formatFloat:
		return fmt.Sprintf("0x%08x", uint32(protocol.FloatFromFloat64(x))), nil
	case formatShort:
		return fmt.Sprintf("0x%08x", uint32(protocol.ShortFromSeconds(x))), nil
	}
	return "", fmt.Errorf("unsupported format %q, must be one of %v", format, codecFormats)
}

// decodeValue converts wire format hex into decimal seconds
func decodeValue(format, value string) (string, error) {
	switch format {
	case formatNTP:
		parts := strings.Split(value, ".")
		if len(parts) != 2 {
			return "", fmt.Errorf("NTP timestamp must look like SSSSSSSS.FFFFFFFF, got %q", value)
		}
		sec, err := parseHex32(parts[0])
		if err != nil {
			return "", err
		}
		frac, err := parseHex32(parts[1])
		if err != nil {
			return "", err
		}
		tv := protocol.Timestamp{Sec: sec, Frac: frac}.Timeval()
		return fmt.Sprintf("%s (%s)", tv, tv.Time().UTC().Format(time.RFC3339Nano)), nil
	case formatFloat:
		v, err := parseHex32(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(protocol.Float(v).Float64(), 'g', -1, 64), nil
	case formatShort:
		v, err := parseHex32(value)
		if err != nil {
			return "", err
		}
		return protocol.Short(v).String(), nil
	}
	return "", fmt.Errorf("unsupported format %q, must be one of %v", format, codecFormats)
}

func codecRun(f func(string, string) (string, error), args []string) error {
	for _, v := range args[1:] {
		out, err := f(args[0], v)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}

var encodeCmd = &cobra.Command{
	Use:       "encode ntp|float|short VALUE...",
	Short:     "Encode seconds into NTP wire formats",
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: codecFormats,
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := codecRun(encodeValue, args); err != nil {
			log.Fatal(err)
		}
	},
}

var decodeCmd = &cobra.Command{
	Use:       "decode ntp|float|short HEX...",
	Short:     "Decode NTP wire formats into seconds",
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: codecFormats,
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := codecRun(decodeValue, args); err != nil {
			log.Fatal(err)
		}
	},
}
