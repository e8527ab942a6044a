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

import "math"

// peakFollower applies the asymmetric one-pole smoothing spec.md §4.3
// requires: an update snaps instantly up to a louder sample (attack is
// immediate) and decays multiplicatively toward zero otherwise, the same
// shape as the teacher's PeakMeter in vst3go's analysis package but with
// the decay coefficient fixed at MeterDecay rather than derived from a
// sample-rate/time-constant pair, since the bus samples once per audio
// frame rather than once per sample.
func peakFollower(previous, input float32) float32 {
	decayed := previous * MeterDecay
	abs := input
	if abs < 0 {
		abs = -abs
	}
	if abs > decayed {
		return abs
	}
	return decayed
}

// UpdateChannelMeter folds one frame's channel peak readings into the
// published ChannelInfo for channel ch. It is called from the audio
// thread on every frame and never blocks or takes the header mutex: a
// torn read of an in-flight update is acceptable for a meter (spec.md
// §4.3, §5 — meters are best-effort, not protocol state).
func (h *Header) UpdateChannelMeter(ch int, peakL, peakR float32) {
	c := h.Channel(ch)
	if c == nil {
		return
	}
	c.SetPeakL(peakFollower(c.PeakL(), peakL))
	c.SetPeakR(peakFollower(c.PeakR(), peakR))
}

// UpdateMasterMeter folds a frame's post-mix stereo peak into the header's
// master meter fields, using the same follower as per-channel meters.
func (h *Header) UpdateMasterMeter(peakL, peakR float32) {
	h.SetMasterPeakL(peakFollower(h.MasterPeakL(), peakL))
	h.SetMasterPeakR(peakFollower(h.MasterPeakR(), peakR))
}

// RefreshTotalVoices recomputes TotalVoices from the per-channel voice
// counts and publishes it. Callers mutating more than one channel's voice
// count as part of a single logical update should hold the header mutex
// around the whole update-then-refresh sequence so a concurrent reader
// never observes a TotalVoices that doesn't match any per-channel snapshot
// (spec.md §4.3).
func (h *Header) RefreshTotalVoices() {
	h.SetTotalVoices(h.SumVoices())
}

// framesToPeak converts a slice of interleaved stereo float32 samples into
// its peak absolute value per side, for callers that capture a raw buffer
// and want to feed UpdateChannelMeter/UpdateMasterMeter directly.
func framesToPeak(interleavedStereo []float32) (peakL, peakR float32) {
	for i := 0; i+1 < len(interleavedStereo); i += 2 {
		l := float32(math.Abs(float64(interleavedStereo[i])))
		r := float32(math.Abs(float64(interleavedStereo[i+1])))
		if l > peakL {
			peakL = l
		}
		if r > peakR {
			peakR = r
		}
	}
	return peakL, peakR
}
