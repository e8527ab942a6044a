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
	"sync/atomic"
	"unsafe"
)

// ChannelInfo is the per-channel metering slot published in the header
// (spec.md §3).
type ChannelInfo struct {
	peakL      float32
	peakR      float32
	voiceCount uint32
	reserved   uint32
}

// Header is a packed, stable-layout typed view into the region's prefix.
// Field order here favors natural 4/8-byte alignment (grouping all 8-byte
// fields before all 4-byte fields) so the Go compiler inserts no padding;
// the logical field grouping documented in spec.md §3 (identification,
// format, flags, takeover, heartbeat, timestamps, clock, indices,
// counters, meters) is preserved in the accessor methods below, not in
// physical field order — the same trade the teacher's SegmentHeader makes
// with its trailing `pad`/`reserved` fields.
//
// Every exported accessor except Magic/SetMagic uses sync/atomic; there is
// no implicit locking.
// Multi-field transitions that must appear atomic to a reader (e.g.
// acknowledge_panic's clear-Req-set-Ack) take the coarse header mutex
// (mutex.go) around the individual atomic stores.
type Header struct {
	// --- 8-byte fields ---
	heartbeatCounter       uint64
	lastUpdateMs           uint64
	ticksPerSecond         uint64
	lastMidiEventTicks     uint64
	lastSynthCompleteTicks uint64
	lastAudioOutputTicks   uint64
	lastShmemWriteTicks    uint64
	lastShmemReadTicks     uint64
	outputLatencyUs        uint64
	asioLatencyUs          uint64
	permafrostLatencyUs    uint64
	outFrameCounter        uint64
	inFrameCounter         uint64

	// --- 4-byte fields ---
	magic         [4]byte
	version       uint32
	synthPID      uint32
	sampleRate    uint32
	bufferSize    uint32
	channelCount  uint32
	flags         uint32
	takeoverState uint32
	masterPeakL   float32
	masterPeakR   float32
	totalVoices   uint32
	cpuPercent    float32
	engineID      uint32
	outWriteIndex int32
	outReadIndex  int32
	inWriteIndex  int32
	inReadIndex   int32
	frameSamples  uint32

	// Implementation-only bookkeeping (SPEC_FULL.md §3.2): the coarse
	// mutex word and the two auto-reset event sequence counters. Not part
	// of the logical field list a reader iterates, but they live inside
	// HeaderSize so a single mapping carries everything the bus needs.
	mutexWord           uint32
	audioReadySeq       uint32
	processedReadySeq   uint32

	channels [ChannelCount]ChannelInfo

	// reserved pads the struct out to HeaderSize; init() below verifies
	// the arithmetic still lines up if any field above changes.
	reserved [68]byte
}

func init() {
	if unsafe.Sizeof(Header{}) != HeaderSize {
		panic("bus: Header size does not match HeaderSize; layout changed without a Version bump")
	}
}

func headerAt(base unsafe.Pointer) *Header {
	return (*Header)(base)
}

// --- identification ---

func (h *Header) Magic() [4]byte { return h.magic }

func (h *Header) SetMagic(m [4]byte) { h.magic = m }

func (h *Header) Version() uint32 { return atomic.LoadUint32(&h.version) }

func (h *Header) SetVersion(v uint32) { atomic.StoreUint32(&h.version, v) }

func (h *Header) SynthPID() uint32 { return atomic.LoadUint32(&h.synthPID) }

func (h *Header) SetSynthPID(pid uint32) { atomic.StoreUint32(&h.synthPID, pid) }

// --- format ---

func (h *Header) SampleRate() uint32 { return atomic.LoadUint32(&h.sampleRate) }

func (h *Header) SetSampleRate(v uint32) { atomic.StoreUint32(&h.sampleRate, v) }

func (h *Header) BufferSize() uint32 { return atomic.LoadUint32(&h.bufferSize) }

func (h *Header) SetBufferSize(v uint32) { atomic.StoreUint32(&h.bufferSize, v) }

func (h *Header) ChannelCount() uint32 { return atomic.LoadUint32(&h.channelCount) }

func (h *Header) SetChannelCount(v uint32) { atomic.StoreUint32(&h.channelCount, v) }

// --- flags ---

func (h *Header) Flags() uint32 { return atomic.LoadUint32(&h.flags) }

func (h *Header) SetFlag(bit uint32) {
	for {
		old := atomic.LoadUint32(&h.flags)
		if old&bit != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&h.flags, old, old|bit) {
			return
		}
	}
}

func (h *Header) ClearFlag(bit uint32) {
	for {
		old := atomic.LoadUint32(&h.flags)
		if old&bit == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&h.flags, old, old&^bit) {
			return
		}
	}
}

func (h *Header) HasFlag(bit uint32) bool { return h.Flags()&bit != 0 }

// --- takeover state ---

func (h *Header) TakeoverState() TakeoverState {
	return TakeoverState(atomic.LoadUint32(&h.takeoverState))
}

func (h *Header) SetTakeoverState(s TakeoverState) {
	atomic.StoreUint32(&h.takeoverState, uint32(s))
}

// --- heartbeat & timestamps ---

func (h *Header) HeartbeatCounter() uint64 { return atomic.LoadUint64(&h.heartbeatCounter) }

func (h *Header) IncrementHeartbeat() uint64 {
	return atomic.AddUint64(&h.heartbeatCounter, 1)
}

func (h *Header) LastUpdateMs() uint64 { return atomic.LoadUint64(&h.lastUpdateMs) }

func (h *Header) SetLastUpdateMs(ms uint64) { atomic.StoreUint64(&h.lastUpdateMs, ms) }

// --- master meters / stats ---

func (h *Header) MasterPeakL() float32 { return loadFloat32(&h.masterPeakL) }
func (h *Header) SetMasterPeakL(v float32) { storeFloat32(&h.masterPeakL, v) }

func (h *Header) MasterPeakR() float32 { return loadFloat32(&h.masterPeakR) }
func (h *Header) SetMasterPeakR(v float32) { storeFloat32(&h.masterPeakR, v) }

func (h *Header) TotalVoices() uint32 { return atomic.LoadUint32(&h.totalVoices) }
func (h *Header) SetTotalVoices(v uint32) { atomic.StoreUint32(&h.totalVoices, v) }

func (h *Header) CPUPercent() float32 { return loadFloat32(&h.cpuPercent) }
func (h *Header) SetCPUPercent(v float32) { storeFloat32(&h.cpuPercent, v) }

// --- clock ---

func (h *Header) TicksPerSecond() uint64 { return atomic.LoadUint64(&h.ticksPerSecond) }
func (h *Header) SetTicksPerSecond(v uint64) { atomic.StoreUint64(&h.ticksPerSecond, v) }

func (h *Header) LastMidiEventTicks() uint64 { return atomic.LoadUint64(&h.lastMidiEventTicks) }
func (h *Header) SetLastMidiEventTicks(v uint64) {
	atomic.StoreUint64(&h.lastMidiEventTicks, v)
}

func (h *Header) LastSynthCompleteTicks() uint64 {
	return atomic.LoadUint64(&h.lastSynthCompleteTicks)
}
func (h *Header) SetLastSynthCompleteTicks(v uint64) {
	atomic.StoreUint64(&h.lastSynthCompleteTicks, v)
}

func (h *Header) LastAudioOutputTicks() uint64 {
	return atomic.LoadUint64(&h.lastAudioOutputTicks)
}
func (h *Header) SetLastAudioOutputTicks(v uint64) {
	atomic.StoreUint64(&h.lastAudioOutputTicks, v)
}

func (h *Header) LastShmemWriteTicks() uint64 { return atomic.LoadUint64(&h.lastShmemWriteTicks) }
func (h *Header) SetLastShmemWriteTicks(v uint64) {
	atomic.StoreUint64(&h.lastShmemWriteTicks, v)
}

func (h *Header) LastShmemReadTicks() uint64 { return atomic.LoadUint64(&h.lastShmemReadTicks) }
func (h *Header) SetLastShmemReadTicks(v uint64) {
	atomic.StoreUint64(&h.lastShmemReadTicks, v)
}

func (h *Header) OutputLatencyUs() uint64 { return atomic.LoadUint64(&h.outputLatencyUs) }
func (h *Header) SetOutputLatencyUs(v uint64) { atomic.StoreUint64(&h.outputLatencyUs, v) }

func (h *Header) AsioLatencyUs() uint64 { return atomic.LoadUint64(&h.asioLatencyUs) }
func (h *Header) SetAsioLatencyUs(v uint64) { atomic.StoreUint64(&h.asioLatencyUs, v) }

// PermafrostLatencyUs is host-owned: the host writes its own measured
// processing latency here for the synth (and any other reader) to see.
func (h *Header) PermafrostLatencyUs() uint64 {
	return atomic.LoadUint64(&h.permafrostLatencyUs)
}
func (h *Header) SetPermafrostLatencyUs(v uint64) {
	atomic.StoreUint64(&h.permafrostLatencyUs, v)
}

func (h *Header) EngineID() uint32 { return atomic.LoadUint32(&h.engineID) }
func (h *Header) SetEngineID(v uint32) { atomic.StoreUint32(&h.engineID, v) }

// --- buffer indices (0/1) ---

func (h *Header) OutWriteIndex() int32 { return atomic.LoadInt32(&h.outWriteIndex) }
func (h *Header) SetOutWriteIndex(v int32) { atomic.StoreInt32(&h.outWriteIndex, v) }
func (h *Header) FlipOutWriteIndex() int32 {
	for {
		old := atomic.LoadInt32(&h.outWriteIndex)
		if atomic.CompareAndSwapInt32(&h.outWriteIndex, old, old^1) {
			return old ^ 1
		}
	}
}

func (h *Header) OutReadIndex() int32 { return atomic.LoadInt32(&h.outReadIndex) }
func (h *Header) SetOutReadIndex(v int32) { atomic.StoreInt32(&h.outReadIndex, v) }

func (h *Header) InWriteIndex() int32 { return atomic.LoadInt32(&h.inWriteIndex) }
func (h *Header) SetInWriteIndex(v int32) { atomic.StoreInt32(&h.inWriteIndex, v) }
func (h *Header) FlipInWriteIndex() int32 {
	for {
		old := atomic.LoadInt32(&h.inWriteIndex)
		if atomic.CompareAndSwapInt32(&h.inWriteIndex, old, old^1) {
			return old ^ 1
		}
	}
}

func (h *Header) InReadIndex() int32 { return atomic.LoadInt32(&h.inReadIndex) }
func (h *Header) SetInReadIndex(v int32) { atomic.StoreInt32(&h.inReadIndex, v) }

// --- frame counters ---

func (h *Header) OutFrameCounter() uint64 { return atomic.LoadUint64(&h.outFrameCounter) }
func (h *Header) IncrementOutFrameCounter() uint64 {
	return atomic.AddUint64(&h.outFrameCounter, 1)
}

func (h *Header) InFrameCounter() uint64 { return atomic.LoadUint64(&h.inFrameCounter) }
func (h *Header) SetInFrameCounter(v uint64) { atomic.StoreUint64(&h.inFrameCounter, v) }
func (h *Header) IncrementInFrameCounter() uint64 {
	return atomic.AddUint64(&h.inFrameCounter, 1)
}

func (h *Header) CurrentFrameSamples() uint32 { return atomic.LoadUint32(&h.frameSamples) }
func (h *Header) SetCurrentFrameSamples(v uint32) { atomic.StoreUint32(&h.frameSamples, v) }

// --- per-channel meters ---

// Channel returns a pointer to channel ch's info, or nil if ch is out of
// range (spec.md §4.2: "enforces bounds on channel indices ... rejects
// out-of-range writes silently").
func (h *Header) Channel(ch int) *ChannelInfo {
	if ch < 0 || ch >= ChannelCount {
		return nil
	}
	return &h.channels[ch]
}

func (c *ChannelInfo) PeakL() float32 { return loadFloat32(&c.peakL) }
func (c *ChannelInfo) SetPeakL(v float32) { storeFloat32(&c.peakL, v) }

func (c *ChannelInfo) PeakR() float32 { return loadFloat32(&c.peakR) }
func (c *ChannelInfo) SetPeakR(v float32) { storeFloat32(&c.peakR, v) }

func (c *ChannelInfo) VoiceCount() uint32 { return atomic.LoadUint32(&c.voiceCount) }
func (c *ChannelInfo) SetVoiceCount(v uint32) { atomic.StoreUint32(&c.voiceCount, v) }

// SumVoices returns the sum of all 16 channels' voice counts. Callers
// updating TotalVoices from this should hold the header mutex so the sum
// and the publish are consistent (spec.md §4.3).
func (h *Header) SumVoices() uint32 {
	var total uint32
	for i := range h.channels {
		total += h.channels[i].VoiceCount()
	}
	return total
}

// --- implementation-only bookkeeping accessors ---

func (h *Header) mutexAddr() *uint32 { return &h.mutexWord }

func (h *Header) audioReadyAddr() *uint32 { return &h.audioReadySeq }

func (h *Header) processedReadyAddr() *uint32 { return &h.processedReadySeq }

func loadFloat32(p *float32) float32 {
	bits := atomic.LoadUint32((*uint32)(unsafe.Pointer(p)))
	return *(*float32)(unsafe.Pointer(&bits))
}

func storeFloat32(p *float32, v float32) {
	bits := *(*uint32)(unsafe.Pointer(&v))
	atomic.StoreUint32((*uint32)(unsafe.Pointer(p)), bits)
}
