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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	*Stats
	sys      *SysStats
	exporter *PrometheusExporter
}

// Snapshot is served on the root path
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	s := &JSONStats{Stats: NewStats(), sys: NewSysStats()}
	s.exporter = NewPrometheusExporter(s.Stats)
	return s
}

// CollectSysStats adds process and runtime stats to counters
func (s *JSONStats) CollectSysStats(interval time.Duration) error {
	sys, err := s.sys.CollectRuntimeStats(interval)
	if err != nil {
		return err
	}
	for k, v := range sys {
		s.SetCounter(k, v)
	}
	return nil
}

// Handler returns http handler serving "/", "/counters" and "/metrics"
func (s *JSONStats) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRootRequest)
	mux.HandleFunc("/counters", s.handleCountersRequest)
	mux.Handle("/metrics", s.exporter.Handler())
	return mux
}

// Start runs http server until ctx is done, refreshing system and Prometheus stats every interval
func (s *JSONStats) Start(ctx context.Context, monitoringport int, interval time.Duration) error {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.CollectSysStats(interval); err != nil {
					log.Warningf("failed to get system metrics %s", err)
				}
				s.exporter.Scrape()
			}
		}
	}()

	addr := fmt.Sprintf(":%d", monitoringport)
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warningf("failed to shut down http server: %v", err)
		}
	}()

	log.Infof("Starting http json server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// handleRootRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRootRequest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, Snapshot{Counters: s.GetCounters(), Gauges: s.GetGauges()})
}

// handleCountersRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleCountersRequest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.GetCounters())
}

func writeJSON(w http.ResponseWriter, v any) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// FetchCounters returns counters served by a running daemon
func FetchCounters(url string) (map[string]int64, error) {
	counters := map[string]int64{}
	if err := fetchJSON(url+"/counters", &counters); err != nil {
		return nil, err
	}
	return counters, nil
}

// FetchSnapshot returns counters and gauges served by a running daemon
func FetchSnapshot(url string) (*Snapshot, error) {
	s := &Snapshot{}
	if err := fetchJSON(url, s); err != nil {
		return nil, err
	}
	return s, nil
}

func fetchJSON(url string, v any) error {
	c := http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
