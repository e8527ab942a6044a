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

// Command synth is a minimal demo producer for the Audio Bus: it creates
// the shared-memory region, generates a quiet test tone on channel 0, and
// plays the result locally with oto while also publishing frames for a
// host to intercept. It exists to exercise internal/bus end to end, not
// as a real synthesis engine.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"

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

	region, err := bus.CreateRegion(cfg.RegionName, cfg.BufferSamples, cfg.SampleRate)
	if err != nil {
		log.Error("create region", "error", err)
		os.Exit(1)
	}
	defer region.Destroy()

	region.Header.SetEngineID(bus.EngineWAV)
	region.Header.SetSynthPID(uint32(os.Getpid()))

	player, err := newTonePlayer(int(cfg.SampleRate))
	if err != nil {
		log.Warn("oto unavailable, running headless", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("synth started", "region", cfg.RegionName, "buffer_samples", cfg.BufferSamples)
	runFrameLoop(ctx, log, region, cfg, player)
}

func runFrameLoop(ctx context.Context, log *slog.Logger, region *bus.Region, cfg bus.Config, player *tonePlayer) {
	var phase float64
	const freqHz = 220.0

	frames := cfg.FrameTimeout()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var out [bus.ChannelCount][]float32
		buf := make([]float32, cfg.BufferSamples*bus.Stereo)
		for i := 0; i < int(cfg.BufferSamples); i++ {
			sample := float32(0.1 * math.Sin(phase))
			buf[i*2] = sample
			buf[i*2+1] = sample
			phase += 2 * math.Pi * freqHz / float64(cfg.SampleRate)
		}
		out[0] = buf

		region.Header.IncrementHeartbeat()
		region.Header.SetLastUpdateMs(uint64(time.Now().UnixMilli()))

		// A release forced by the liveness monitor only reaches
		// StateReleasing; this frame boundary is where the second FSM
		// step back to StateDirect actually happens, exactly like a
		// host-requested release.
		if region.Header.TakeoverState() == bus.StateReleasing {
			region.Header.CompleteRelease()
		}

		bus.LogFrame(log, "synth", region.Header.OutFrameCounter(), region.Header.TakeoverState())

		if region.Header.ShouldProcessViaHost() {
			region.PublishFrame(out)
			waitErr := region.AwaitProcessed(frames)
			if live := region.CheckLiveness(waitErr); live != bus.LivenessOK {
				bus.LogLivenessEvent(log, live, region.Header.OutFrameCounter(), region.Header.InFrameCounter())
				region.ForceRelease(region.Mutex, cfg.TakeoverMutexTimeout())
				continue
			}
			processed := region.ConsumeProcessed()
			if player != nil {
				player.Write(processed)
			}
			region.Header.CompletePendingTakeover()
		} else {
			if player != nil {
				player.Write(buf)
			}
		}

		if region.Header.PanicRequested() {
			phase = 0
			region.Header.AcknowledgePanic(region.Mutex, cfg.TakeoverMutexTimeout())
			log.Info("panic handled")
		}

		time.Sleep(time.Duration(float64(cfg.BufferSamples) / float64(cfg.SampleRate) * float64(time.Second)))
	}
}

type tonePlayer struct {
	player *oto.Player
	ch     chan []float32
}

func newTonePlayer(sampleRate int) (*tonePlayer, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: bus.Stereo,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4096,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	tp := &tonePlayer{ch: make(chan []float32, 4)}
	tp.player = ctx.NewPlayer(tp)
	tp.player.Play()
	return tp, nil
}

// Write queues interleaved stereo float32 samples for playback.
func (tp *tonePlayer) Write(samples []float32) {
	select {
	case tp.ch <- samples:
	default:
	}
}

// Read implements io.Reader for oto.Player, converting queued float32
// samples to little-endian bytes.
func (tp *tonePlayer) Read(p []byte) (int, error) {
	select {
	case samples := <-tp.ch:
		n := 0
		for _, s := range samples {
			if n+4 > len(p) {
				break
			}
			bits := math.Float32bits(s)
			p[n] = byte(bits)
			p[n+1] = byte(bits >> 8)
			p[n+2] = byte(bits >> 16)
			p[n+3] = byte(bits >> 24)
			n += 4
		}
		return n, nil
	default:
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
}
