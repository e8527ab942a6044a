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
	"os"
	"time"
)

// PanicSource is an auxiliary, out-of-band trigger for the panic channel
// (spec.md §4.6): something other than the host's normal request path
// that can also ask the synth to reset. The original implementation polls
// a Windows registry value; RegistrySource below polls a plain file so the
// same mechanism works on the bus's only supported platform.
type PanicSource interface {
	// Poll reports whether the auxiliary trigger is currently asserted.
	Poll() bool
}

// RegistrySource polls a file's existence as the auxiliary panic trigger.
// The name is kept from the original registry-key mechanism it replaces;
// the bus doesn't care what the trigger actually is, only that Poll
// returns true when someone outside the normal host/synth pair wants a
// panic.
type RegistrySource struct {
	Path string
}

// Poll reports whether the trigger file exists.
func (r RegistrySource) Poll() bool {
	_, err := os.Stat(r.Path)
	return err == nil
}

// RequestPanic is called by the host to ask the synth to reset all voices
// and clear its MIDI state. It sets FlagPanicRequest and clears
// FlagPanicAck under the header mutex so the request and any concurrent
// takeover-state transition never interleave into a torn flags word, and
// so a new request never leaves the forbidden Req=1,Ack=1 state visible
// from a previous, already-acknowledged panic.
func (h *Header) RequestPanic(mu headerMutex, timeout time.Duration) bool {
	if !mu.LockTimeout(timeout) {
		return false
	}
	defer mu.Unlock()
	h.SetFlag(FlagPanicRequest)
	h.ClearFlag(FlagPanicAck)
	return true
}

// PanicRequested reports whether a panic request is currently pending.
// Called from the synth's audio thread on every frame boundary; this is a
// plain atomic load, not a mutex acquisition, so checking for a pending
// panic never costs the realtime thread a blocking wait.
func (h *Header) PanicRequested() bool {
	return h.HasFlag(FlagPanicRequest)
}

// AcknowledgePanic is called by the synth once it has finished resetting:
// it clears FlagPanicRequest and sets FlagPanicAck as a single mutex-
// guarded transition, so the host never observes a state with neither bit
// set while a reset is genuinely still pending (spec.md §4.6).
func (h *Header) AcknowledgePanic(mu headerMutex, timeout time.Duration) bool {
	if !mu.LockTimeout(timeout) {
		return false
	}
	defer mu.Unlock()
	h.ClearFlag(FlagPanicRequest)
	h.SetFlag(FlagPanicAck)
	return true
}

// PanicAcknowledged reports whether the synth has acknowledged the most
// recent panic request.
func (h *Header) PanicAcknowledged() bool {
	return h.HasFlag(FlagPanicAck)
}

// ClearPanicAck is called by the host once it has observed the
// acknowledgement, completing the request/ack handshake.
func (h *Header) ClearPanicAck() {
	h.ClearFlag(FlagPanicAck)
}

// WatchPanicSources polls src at interval until ctx is canceled, calling
// RequestPanic whenever src reports a trigger. It is meant to run in its
// own goroutine alongside the host's normal event loop.
func WatchPanicSources(ctx context.Context, h *Header, mu headerMutex, src PanicSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if src.Poll() {
				h.RequestPanic(mu, DefaultTakeoverMutexTimeoutMs*time.Millisecond)
			}
		}
	}
}
