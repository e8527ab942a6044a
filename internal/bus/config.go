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
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the bus exposes outside its compiled-in
// defaults (SPEC_FULL.md §1, Configuration). A zero Config is invalid; use
// DefaultConfig or LoadConfig.
type Config struct {
	RegionName    string `yaml:"region_name"`
	BufferSamples uint32 `yaml:"buffer_samples"`
	SampleRate    uint32 `yaml:"sample_rate"`

	FrameTimeoutMs         int `yaml:"frame_timeout_ms"`
	TakeoverMutexTimeoutMs int `yaml:"takeover_mutex_timeout_ms"`
	ShutdownMutexTimeoutMs int `yaml:"shutdown_mutex_timeout_ms"`
	HeartbeatWindowMs      int `yaml:"heartbeat_window_ms"`
	MaxDriftFrames         int `yaml:"max_drift_frames"`

	RegistryPollPath     string `yaml:"registry_poll_path"`
	RegistryPollInterval int    `yaml:"registry_poll_interval_ms"`

	MetricsListenAddr string `yaml:"metrics_listen_addr"`
}

// DefaultConfig returns the bus's compiled-in defaults (SPEC_FULL.md §1,
// Configuration).
func DefaultConfig() Config {
	return Config{
		RegionName:             "omnimidi-audio-bus",
		BufferSamples:          DefaultBufferSamples,
		SampleRate:             48000,
		FrameTimeoutMs:         DefaultFrameTimeoutMs,
		TakeoverMutexTimeoutMs: DefaultTakeoverMutexTimeoutMs,
		ShutdownMutexTimeoutMs: DefaultShutdownMutexTimeoutMs,
		HeartbeatWindowMs:      DefaultHeartbeatWindowMs,
		MaxDriftFrames:         MaxDriftFrames,
		RegistryPollInterval:   1000,
		MetricsListenAddr:      "127.0.0.1:9469",
	}
}

// LoadConfig reads path as YAML over DefaultConfig, then applies
// OMNIMIDI_BUS_* environment overrides on top, following the same
// layering loqad's config loader uses: file values win over defaults,
// environment wins over the file. A missing file is not an error; it
// just means defaults (plus any env overrides) are used as-is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("bus: read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("bus: parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("OMNIMIDI_BUS_REGION_NAME"); ok {
		cfg.RegionName = v
	}
	if v, ok := envUint("OMNIMIDI_BUS_BUFFER_SAMPLES"); ok {
		cfg.BufferSamples = v
	}
	if v, ok := envUint("OMNIMIDI_BUS_SAMPLE_RATE"); ok {
		cfg.SampleRate = v
	}
	if v, ok := envInt("OMNIMIDI_BUS_FRAME_TIMEOUT_MS"); ok {
		cfg.FrameTimeoutMs = v
	}
	if v, ok := envInt("OMNIMIDI_BUS_MAX_DRIFT_FRAMES"); ok {
		cfg.MaxDriftFrames = v
	}
	if v, ok := os.LookupEnv("OMNIMIDI_BUS_METRICS_LISTEN_ADDR"); ok {
		cfg.MetricsListenAddr = v
	}
	if v, ok := os.LookupEnv("OMNIMIDI_BUS_REGISTRY_POLL_PATH"); ok {
		cfg.RegistryPollPath = v
	}
}

func envUint(key string) (uint32, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func envInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate rejects configurations that would make the bus's protocol
// invariants unsatisfiable before a Region is ever created.
func (c Config) Validate() error {
	if c.RegionName == "" {
		return fmt.Errorf("bus: region_name must not be empty")
	}
	if c.BufferSamples == 0 {
		return fmt.Errorf("bus: buffer_samples must be > 0")
	}
	if c.SampleRate == 0 {
		return fmt.Errorf("bus: sample_rate must be > 0")
	}
	if c.FrameTimeoutMs <= 0 {
		return fmt.Errorf("bus: frame_timeout_ms must be > 0")
	}
	if c.MaxDriftFrames <= 0 {
		return fmt.Errorf("bus: max_drift_frames must be > 0")
	}
	return nil
}

func (c Config) FrameTimeout() time.Duration {
	return time.Duration(c.FrameTimeoutMs) * time.Millisecond
}

func (c Config) TakeoverMutexTimeout() time.Duration {
	return time.Duration(c.TakeoverMutexTimeoutMs) * time.Millisecond
}

func (c Config) ShutdownMutexTimeout() time.Duration {
	return time.Duration(c.ShutdownMutexTimeoutMs) * time.Millisecond
}

func (c Config) RegistryPollIntervalDuration() time.Duration {
	return time.Duration(c.RegistryPollInterval) * time.Millisecond
}
