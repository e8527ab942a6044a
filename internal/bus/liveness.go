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

import "time"

// LivenessResult describes the outcome of one liveness check.
type LivenessResult int

const (
	// LivenessOK means the host is keeping up; no action needed.
	LivenessOK LivenessResult = iota
	// LivenessTimedOut means the synth's wait for ProcessedReady expired.
	LivenessTimedOut
	// LivenessDrifted means OutFrameCounter has outrun InFrameCounter by
	// more than MaxDriftFrames.
	LivenessDrifted
)

// CheckLiveness evaluates the synth-side liveness monitor for the current
// frame (spec.md §4.8). It must be called, and any resulting force
// release applied, before the out-buffer is swapped for the next frame —
// swapping first would let the synth overwrite a slot the host hasn't
// finished reading while the monitor still thinks the host is healthy.
// waitErr is the error (nil, or ErrFutexTimeout) returned by the
// AwaitProcessed call that precedes this check.
func (r *Region) CheckLiveness(waitErr error) LivenessResult {
	if waitErr == ErrFutexTimeout {
		return LivenessTimedOut
	}

	out := r.Header.OutFrameCounter()
	in := r.Header.InFrameCounter()
	if out > in && out-in > MaxDriftFrames {
		return LivenessDrifted
	}
	return LivenessOK
}

// ForceRelease unconditionally moves the bus to StateReleasing, bypassing
// the normal host-driven RequestRelease handshake. It is the synth's
// escape hatch when the liveness monitor decides the host is unresponsive
// (spec.md §4.8, §7): a dead or hung host must never be able to keep the
// synth stuck waiting on it forever. This is only the first of the FSM's
// two release steps; the synth's next process_frame call still has to
// observe StateReleasing and call CompleteRelease to reach StateDirect,
// same as a host-requested release.
func (r *Region) ForceRelease(mu headerMutex, timeout time.Duration) bool {
	if !mu.LockTimeout(timeout) {
		// Even if the mutex itself is wedged (e.g. held by a crashed
		// process) the synth still abandons the host: it sets the state
		// directly rather than staying stuck in Active/Pending.
		r.Header.SetTakeoverState(StateReleasing)
		return false
	}
	defer mu.Unlock()
	r.Header.SetTakeoverState(StateReleasing)
	return true
}
