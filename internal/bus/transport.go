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
	"time"
)

// PublishFrame is the synth-side audio transport hook, called once per
// audio callback when the takeover FSM says the host wants to see this
// frame's pre-mix audio (spec.md §4.4, §4.5). It writes interleaved
// stereo pre-mix data for every channel into the current out-buffer slot,
// flips the write index, bumps OutFrameCounter, and signals AudioReady.
//
// frames must have exactly ChannelCount entries, each a BufferSamples*2
// length interleaved stereo slice; a shorter slice for a given channel is
// zero-padded, a longer one is truncated, matching the teacher's
// defensive slicing in its ring Write path rather than panicking on a
// caller mistake in a realtime callback.
func (r *Region) PublishFrame(frames [ChannelCount][]float32) {
	slot := r.Header.OutWriteIndex()
	for ch := 0; ch < ChannelCount; ch++ {
		dst := r.OutBuffer(ch, slot)
		n := copy(dst, frames[ch])
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
		peakL, peakR := framesToPeak(dst)
		r.Header.UpdateChannelMeter(ch, peakL, peakR)
	}
	r.Header.FlipOutWriteIndex()
	r.Header.SetOutReadIndex(slot)
	r.Header.IncrementOutFrameCounter()
	r.AudioReady.Signal()
}

// AwaitProcessed is the synth-side half of the handoff: it blocks until
// the host has signaled ProcessedReady for the frame just published, or
// until timeout elapses. On timeout the caller should consult the
// liveness monitor (liveness.go) rather than retry indefinitely, per
// spec.md §4.8.
func (r *Region) AwaitProcessed(timeout time.Duration) error {
	return r.ProcessedReady.WaitTimeout(timeout)
}

// ConsumeProcessed is the synth-side read of the host's processed stereo
// mix once AwaitProcessed has returned successfully. It returns a copy so
// the caller can keep using it after the in-buffer slot is reused.
func (r *Region) ConsumeProcessed() []float32 {
	slot := r.Header.InReadIndex()
	src := r.InBuffer(slot)
	out := make([]float32, len(src))
	copy(out, src)
	return out
}

// AwaitAudio is the host-side half of the handoff: it blocks until the
// synth has signaled AudioReady for a new frame, or until timeout
// elapses.
func (r *Region) AwaitAudio(timeout time.Duration) error {
	return r.AudioReady.WaitTimeout(timeout)
}

// ConsumeOutFrame is the host-side read of every channel's pre-mix audio
// for the frame the synth just published.
func (r *Region) ConsumeOutFrame() [ChannelCount][]float32 {
	slot := r.Header.OutReadIndex()
	var out [ChannelCount][]float32
	for ch := 0; ch < ChannelCount; ch++ {
		src := r.OutBuffer(ch, slot)
		buf := make([]float32, len(src))
		copy(buf, src)
		out[ch] = buf
	}
	return out
}

// PublishProcessed is the host-side write of its processed stereo mix
// back to the synth, followed by the ProcessedReady signal.
func (r *Region) PublishProcessed(mix []float32) {
	slot := r.Header.InWriteIndex()
	dst := r.InBuffer(slot)
	n := copy(dst, mix)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	r.Header.FlipInWriteIndex()
	r.Header.SetInReadIndex(slot)
	r.Header.IncrementInFrameCounter()
	r.ProcessedReady.Signal()
}
