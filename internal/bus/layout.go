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

import "fmt"

// Wire constants (spec.md §6).
const (
	// Magic identifies a valid Audio Bus region: "OMAB" = OmniMIDI Audio Bus.
	Magic = "OMAB"

	// Version is bumped whenever the header layout changes. A host that
	// reads a mismatched version refuses to attach.
	Version = uint32(2)

	// ChannelCount is the fixed MIDI channel count carried by the bus.
	ChannelCount = 16

	// DefaultBufferSamples is the default per-channel frame size in stereo
	// sample-pairs.
	DefaultBufferSamples = 2048

	// SampleSize is the width in bytes of a single float32 sample.
	SampleSize = 4

	// Stereo is the channel width of every audio buffer the bus carries.
	Stereo = 2

	// MeterDecay is the one-pole peak-follower decay applied per meter
	// update (fast attack, slow release).
	MeterDecay = 0.92

	// DefaultTakeoverMutexTimeoutMs bounds the wait for the header mutex
	// from non-realtime takeover-request paths.
	DefaultTakeoverMutexTimeoutMs = 100

	// DefaultHeartbeatWindowMs is the liveness window external watchdogs
	// should use; the bus itself does not consult it (heartbeat is
	// advisory, spec.md §4.8).
	DefaultHeartbeatWindowMs = 500

	// DefaultFrameTimeoutMs bounds the audio thread's wait for
	// ProcessedReady on each frame.
	DefaultFrameTimeoutMs = 50

	// DefaultShutdownMutexTimeoutMs bounds the mutex wait during teardown
	// so a crashed peer holding the lock cannot block shutdown.
	DefaultShutdownMutexTimeoutMs = 100

	// MaxDriftFrames is the maximum permitted OutFrameCounter -
	// InFrameCounter before the liveness monitor releases the host.
	MaxDriftFrames = 3
)

// Engine identifiers published in Header.EngineID (spec.md §6). Informational
// only; the bus does not interpret them.
const (
	EngineWAV = iota
	EngineDS
	EngineASIO
	EngineWASAPI
	EngineXAudio
)

// Flag bits (spec.md §6).
const (
	FlagActive uint32 = 1 << iota
	FlagPanicRequest
	FlagPanicAck
	FlagAudioEnabled
	FlagVstActive
)

// TakeoverState values (spec.md §6).
type TakeoverState uint32

const (
	StateDirect TakeoverState = iota
	StatePending
	StateActive
	StateReleasing
)

func (s TakeoverState) String() string {
	switch s {
	case StateDirect:
		return "direct"
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateReleasing:
		return "releasing"
	default:
		return fmt.Sprintf("takeover(%d)", uint32(s))
	}
}

// HeaderSize is the fixed, version-stable size of the header prefix. It
// must stay in sync with the Header struct's actual size; layout_test.go
// asserts this at test time and header.go's init function asserts it at
// package load.
const HeaderSize = 512

// regionLayout describes how a region's byte size splits into header,
// out-region and in-region given a buffer-samples size.
type regionLayout struct {
	HeaderSize uint64
	OutOffset  uint64
	OutSize    uint64
	InOffset   uint64
	InSize     uint64
	TotalSize  uint64
}

// calculateLayout computes offsets and sizes for a region sized to carry
// bufferSamples stereo sample-pairs per channel, per frame.
//
// Out region: ChannelCount channels x two buffers (A, B) x bufferSamples x
// Stereo x SampleSize, channel-major then A/B (spec.md §3).
// In region: two buffers (A, B) x bufferSamples x Stereo x SampleSize.
func calculateLayout(bufferSamples uint32) (regionLayout, error) {
	if bufferSamples == 0 {
		return regionLayout{}, fmt.Errorf("bus: buffer samples must be > 0")
	}
	channelBufBytes := uint64(bufferSamples) * Stereo * SampleSize
	outSize := uint64(ChannelCount) * 2 * channelBufBytes
	inSize := uint64(2) * channelBufBytes

	outOffset := uint64(HeaderSize)
	inOffset := outOffset + outSize
	total := inOffset + inSize

	return regionLayout{
		HeaderSize: HeaderSize,
		OutOffset:  outOffset,
		OutSize:    outSize,
		InOffset:   inOffset,
		InSize:     inSize,
		TotalSize:  total,
	}, nil
}

// channelSlotOffset returns the byte offset, relative to the start of the
// out region, of channel ch's A or B buffer.
func channelSlotOffset(bufferSamples uint32, ch int, slot int32) uint64 {
	channelBufBytes := uint64(bufferSamples) * Stereo * SampleSize
	chanStride := 2 * channelBufBytes
	return uint64(ch)*chanStride + uint64(slot)*channelBufBytes
}

// inSlotOffset returns the byte offset, relative to the start of the in
// region, of the A or B stereo buffer.
func inSlotOffset(bufferSamples uint32, slot int32) uint64 {
	channelBufBytes := uint64(bufferSamples) * Stereo * SampleSize
	return uint64(slot) * channelBufBytes
}
