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

package stats

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func TestJSONStatsHandler(t *testing.T) {
	stats := NewJSONStats()
	stats.UpdateCounterBy("steer.frequency.applied", 3)
	stats.SetGauge("steer.frequency.ppm", -7.5)

	server := httptest.NewServer(stats.Handler())
	defer server.Close()

	counters, err := FetchCounters(server.URL)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"steer.frequency.applied": 3}, counters)

	snapshot, err := FetchSnapshot(server.URL)
	require.NoError(t, err)
	require.Equal(t, &Snapshot{
		Counters: map[string]int64{"steer.frequency.applied": 3},
		Gauges:   map[string]float64{"steer.frequency.ppm": -7.5},
	}, snapshot)
}

func TestHeaders(t *testing.T) {
	stats := NewJSONStats()
	server := httptest.NewServer(stats.Handler())
	defer server.Close()

	for _, path := range []string{"/", "/counters"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	}
}

func TestPrometheusExporter(t *testing.T) {
	stats := NewJSONStats()
	stats.UpdateCounterBy("steer.frequency.applied", 3)
	stats.SetGauge("steer.tick.delta", -10)

	server := httptest.NewServer(stats.Handler())
	defer server.Close()

	stats.exporter.Scrape()
	// scraping twice reuses registered gauges
	stats.UpdateCounterBy("steer.frequency.applied", 1)
	stats.exporter.Scrape()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "steer_frequency_applied 4")
	require.Contains(t, string(body), "steer_tick_delta -10")
}

func TestFlattenKey(t *testing.T) {
	require.Equal(t, "steer_residual_ppm_mean", flattenKey("steer.residual.ppm.mean"))
	require.Equal(t, "a_b_c_d_e", flattenKey("a b-c=d/e"))
}

func TestFetchCountersError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := FetchCounters(server.URL)
	require.Error(t, err)
}

func TestJSONStatsStart(t *testing.T) {
	stats := NewJSONStats()
	stats.SetCounter("steer.step.applied", 1)
	port, err := getFreePort()
	require.Nil(t, err, "Failed to allocate port")
	url := fmt.Sprintf("http://localhost:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- stats.Start(ctx, port, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		counters, err := FetchCounters(url)
		return err == nil && counters["steer.step.applied"] == 1 && counters["process.uptime"] >= 0 && len(counters) > 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
