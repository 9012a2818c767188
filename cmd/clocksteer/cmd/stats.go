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
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/facebook/clocksteer/config"
	"github.com/facebook/clocksteer/stats"
)

var (
	statsAddressFlag  string
	statsPortFlag     int
	statsCountersFlag bool
)

func init() {
	RootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsAddressFlag, "address", "a", "localhost", "address of a running daemon")
	statsCmd.Flags().IntVarP(&statsPortFlag, "port", "p", config.DefaultConfig().MonitoringPort, "monitoring port of a running daemon")
	statsCmd.Flags().BoolVarP(&statsCountersFlag, "counters", "j", false, "print only counters as JSON")
}

func statsRun(w io.Writer, url string, countersOnly bool) error {
	if countersOnly {
		counters, err := stats.FetchCounters(url)
		if err != nil {
			return fmt.Errorf("fetching counters: %w", err)
		}
		toPrint, err := json.Marshal(counters)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(toPrint))
		return nil
	}

	snapshot, err := stats.FetchSnapshot(url)
	if err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"metric", "value"})
	gauges := maps.Keys(snapshot.Gauges)
	sort.Strings(gauges)
	for _, k := range gauges {
		table.Append([]string{k, fmt.Sprintf("%.6f", snapshot.Gauges[k])})
	}
	counters := maps.Keys(snapshot.Counters)
	sort.Strings(counters)
	for _, k := range counters {
		table.Append([]string{k, fmt.Sprintf("%d", snapshot.Counters[k])})
	}
	table.Render()
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print stats of a running clocksteer daemon",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		url := "http://" + net.JoinHostPort(statsAddressFlag, fmt.Sprint(statsPortFlag))
		if err := statsRun(os.Stdout, url, statsCountersFlag); err != nil {
			log.Fatal(err)
		}
	},
}
