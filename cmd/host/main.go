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

// Command host is a minimal demo consumer for the Audio Bus: it attaches
// to a synth's region, requests a takeover, downmixes the synth's 16
// channels of pre-mix audio into a stereo pass-through, and publishes
// OpenTelemetry metrics over Prometheus so the bus's live meters can be
// scraped like any other service.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frozensnowy/OM-Permafrost-modifications/internal/bus"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := bus.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := bus.NewLogger(slog.LevelInfo)

	region, err := waitForRegion(cfg, log)
	if err != nil {
		log.Error("open region", "error", err)
		os.Exit(1)
	}
	defer region.Close()

	metrics, err := bus.NewMetrics()
	if err != nil {
		log.Error("create metrics", "error", err)
		os.Exit(1)
	}
	defer metrics.Shutdown(context.Background())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := region.Header.RequestTakeover(region.Mutex, cfg.TakeoverMutexTimeout()); err != nil {
		log.Error("request takeover", "error", err)
		os.Exit(1)
	}

	var src bus.PanicSource
	if cfg.RegistryPollPath != "" {
		src = bus.RegistrySource{Path: cfg.RegistryPollPath}
		go bus.WatchPanicSources(ctx, region.Header, region.Mutex, src, cfg.RegistryPollIntervalDuration())
	}

	log.Info("host attached", "region", cfg.RegionName)
	runProcessLoop(ctx, log, region, cfg, metrics)

	region.Header.RequestRelease(region.Mutex, cfg.ShutdownMutexTimeout())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func waitForRegion(cfg bus.Config, log *slog.Logger) (*bus.Region, error) {
	for {
		if bus.IsConnected(cfg.RegionName) {
			return bus.OpenRegion(cfg.RegionName, cfg.BufferSamples)
		}
		log.Info("waiting for synth region", "region", cfg.RegionName)
		time.Sleep(500 * time.Millisecond)
	}
}

func runProcessLoop(ctx context.Context, log *slog.Logger, region *bus.Region, cfg bus.Config, metrics *bus.Metrics) {
	timeout := cfg.FrameTimeout()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := region.AwaitAudio(timeout); err != nil {
			continue
		}

		frame := region.ConsumeOutFrame()
		mix := downmix(frame, int(cfg.BufferSamples))
		region.PublishProcessed(mix)

		bus.LogFrame(log, "host", region.Header.InFrameCounter(), region.Header.TakeoverState())

		metrics.RecordFrame(ctx)
		metrics.Sample(ctx, region)
	}
}

// downmix sums all 16 channels into a single clipped stereo mix. A real
// host would apply its own effects chain here; this demo only proves the
// transport works end to end.
func downmix(frame [bus.ChannelCount][]float32, bufferSamples int) []float32 {
	mix := make([]float32, bufferSamples*bus.Stereo)
	for ch := 0; ch < bus.ChannelCount; ch++ {
		src := frame[ch]
		for i := 0; i < len(src) && i < len(mix); i++ {
			mix[i] += src[i]
		}
	}
	for i, v := range mix {
		if v > 1 {
			mix[i] = 1
		} else if v < -1 {
			mix[i] = -1
		}
	}
	return mix
}
