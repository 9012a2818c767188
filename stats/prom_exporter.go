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
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Source provides values to export
type Source interface {
	GetCounters() map[string]int64
	GetGauges() map[string]float64
}

// PrometheusExporter exposes Source values as Prometheus gauges
type PrometheusExporter struct {
	registry *prometheus.Registry
	source   Source
}

// NewPrometheusExporter creates a new instance of PrometheusExporter
func NewPrometheusExporter(source Source) *PrometheusExporter {
	return &PrometheusExporter{registry: prometheus.NewRegistry(), source: source}
}

// Handler serves the registry
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}

// Scrape copies current values from the source into the registry
func (e *PrometheusExporter) Scrape() {
	for mkey, mval := range e.source.GetCounters() {
		e.set(mkey, float64(mval))
	}
	for mkey, mval := range e.source.GetGauges() {
		e.set(mkey, mval)
	}
}

func (e *PrometheusExporter) set(mkey string, mval float64) {
	promCollector := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: flattenKey(mkey),
		Help: mkey,
	})
	if err := e.registry.Register(promCollector); err != nil {
		are := &prometheus.AlreadyRegisteredError{}
		if errors.As(err, are) {
			promCollector = are.ExistingCollector.(prometheus.Gauge)
		} else {
			log.Errorf("failed to register metric %s %v", mkey, err)
			return
		}
	}
	promCollector.Set(mval)
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
