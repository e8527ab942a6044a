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
	"log/slog"
	"os"
)

// NewLogger returns a structured logger for the bus, writing JSON to
// stdout at the given level. Both cmd/synth and cmd/host construct one of
// these at startup and pass it down, following loqad's pattern of a
// single slog.Logger threaded through rather than a package-level global.
func NewLogger(level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", "audio-bus")
}

// LogFrame emits a debug-level record for one audio frame's handoff. It's
// deliberately cheap when debug logging is disabled: slog.Logger.Debug
// checks the level before formatting any arguments.
func LogFrame(log *slog.Logger, role string, frameCounter uint64, takeover TakeoverState) {
	log.Debug("frame",
		"role", role,
		"frame", frameCounter,
		"takeover", takeover.String(),
	)
}

// LogLivenessEvent emits a warning for a non-OK liveness check. Callers
// pass the result of Region.CheckLiveness directly; LivenessOK is a
// silent no-op.
func LogLivenessEvent(log *slog.Logger, result LivenessResult, outFrames, inFrames uint64) {
	switch result {
	case LivenessTimedOut:
		log.Warn("liveness: processed-ready wait timed out",
			"out_frames", outFrames, "in_frames", inFrames)
	case LivenessDrifted:
		log.Warn("liveness: host fell behind, forcing release",
			"out_frames", outFrames, "in_frames", inFrames,
			"drift", outFrames-inFrames)
	}
}
