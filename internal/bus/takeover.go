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
	"errors"
	"sync/atomic"
	"time"
)

// ErrInvalidTakeoverTransition is returned when a requested takeover
// transition doesn't match the state it was requested from.
var ErrInvalidTakeoverTransition = errors.New("bus: invalid takeover state transition")

// The takeover FSM has two kinds of edges (spec.md §4.5):
//
//   - host-driven requests (Direct->Pending, Pending/Active->Releasing): these
//     race against the synth's own reads of TakeoverState, so they go
//     through the header mutex to make the check-then-set atomic.
//   - synth-driven completions (Pending->Active, Releasing->Direct): the
//     synth is the sole writer of these and only performs them at a frame
//     boundary, so a bare compare-and-swap on the state word is
//     sufficient; no mutex needed.

// RequestTakeover asks to move the bus from Direct to Pending, meaning the
// host wants to start intercepting audio. It fails if the bus isn't
// currently in Direct.
func (h *Header) RequestTakeover(mu headerMutex, timeout time.Duration) error {
	if !mu.LockTimeout(timeout) {
		return ErrFutexTimeout
	}
	defer mu.Unlock()
	if h.TakeoverState() != StateDirect {
		return ErrInvalidTakeoverTransition
	}
	h.SetTakeoverState(StatePending)
	return nil
}

// RequestRelease asks to move the bus from Pending or Active to Releasing,
// meaning the host is done intercepting audio (or backing out of a
// takeover it never finished) and wants control handed back. It fails if
// the bus is currently Direct or already Releasing.
func (h *Header) RequestRelease(mu headerMutex, timeout time.Duration) error {
	if !mu.LockTimeout(timeout) {
		return ErrFutexTimeout
	}
	defer mu.Unlock()
	switch h.TakeoverState() {
	case StatePending, StateActive:
	default:
		return ErrInvalidTakeoverTransition
	}
	h.SetTakeoverState(StateReleasing)
	return nil
}

// CompletePendingTakeover is called by the synth at a frame boundary once
// it has observed StatePending and is ready to start publishing its
// pre-mix audio for host processing. It moves Pending->Active.
func (h *Header) CompletePendingTakeover() bool {
	return h.compareAndSwapTakeover(StatePending, StateActive)
}

// CompleteRelease is called by the synth at a frame boundary once it has
// observed StateReleasing and has stopped waiting on the host's processed
// output. It moves Releasing->Direct.
func (h *Header) CompleteRelease() bool {
	return h.compareAndSwapTakeover(StateReleasing, StateDirect)
}

func (h *Header) compareAndSwapTakeover(from, to TakeoverState) bool {
	return atomic.CompareAndSwapUint32(&h.takeoverState, uint32(from), uint32(to))
}

// ShouldProcessViaHost reports whether the synth should currently route
// audio through the host's processed-input path rather than direct
// output, i.e. the FSM is in Active or Pending (spec.md §4.5: the synth
// starts publishing pre-mix audio as soon as a takeover is requested, not
// only once it's confirmed active, so the host sees frames immediately
// after requesting takeover).
func (h *Header) ShouldProcessViaHost() bool {
	switch h.TakeoverState() {
	case StatePending, StateActive:
		return true
	default:
		return false
	}
}
