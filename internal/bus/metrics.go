/*
 *
 * Copyright 2026 OM-Permafrost-modifications authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package bus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics bundles the host-side OpenTelemetry instruments the bus
// publishes: frame throughput, liveness incidents, and the meters a
// watchdog or dashboard would otherwise have to poll the header for
// directly. Only the host constructs a Metrics; the synth side has no
// OTel dependency since it must stay realtime-safe.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	framesProcessed metric.Int64Counter
	livenessEvents  metric.Int64Counter
	masterPeak      metric.Float64Gauge
	totalVoices     metric.Int64Gauge
}

// NewMetrics builds a Prometheus-backed OTel MeterProvider and registers
// the bus's instruments on it. Callers expose provider's registry via
// promhttp (cmd/host does this) or scrape it directly.
func NewMetrics() (*Metrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("bus: create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("omnimidi.audiobus")

	framesProcessed, err := meter.Int64Counter("bus.frames_processed",
		metric.WithDescription("frames handed from the synth to the host and back"))
	if err != nil {
		return nil, err
	}
	livenessEvents, err := meter.Int64Counter("bus.liveness_events",
		metric.WithDescription("liveness monitor timeouts and drift releases"))
	if err != nil {
		return nil, err
	}
	masterPeak, err := meter.Float64Gauge("bus.master_peak",
		metric.WithDescription("most recent master peak level, L+R averaged"))
	if err != nil {
		return nil, err
	}
	totalVoices, err := meter.Int64Gauge("bus.total_voices",
		metric.WithDescription("most recent published total voice count"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		provider:        provider,
		framesProcessed: framesProcessed,
		livenessEvents:  livenessEvents,
		masterPeak:      masterPeak,
		totalVoices:     totalVoices,
	}, nil
}

// Shutdown flushes and releases the underlying meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// RecordFrame records one successfully handed-off frame.
func (m *Metrics) RecordFrame(ctx context.Context) {
	m.framesProcessed.Add(ctx, 1)
}

// RecordLiveness records a liveness incident (timeout or drift).
func (m *Metrics) RecordLiveness(ctx context.Context, result LivenessResult) {
	if result == LivenessOK {
		return
	}
	m.livenessEvents.Add(ctx, 1)
}

// Sample snapshots a Region's header meters into the gauges.
func (m *Metrics) Sample(ctx context.Context, r *Region) {
	l, rr := r.Header.MasterPeakL(), r.Header.MasterPeakR()
	m.masterPeak.Record(ctx, float64(l+rr)/2)
	m.totalVoices.Record(ctx, int64(r.Header.TotalVoices()))
}
