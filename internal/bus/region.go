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
	"fmt"
	"os"
	"time"
	"unsafe"
)

// ErrVersionMismatch is returned by OpenRegion when an existing region's header
// carries a different Version than this build expects. spec.md's open
// question on version skew is resolved here: the bus never attempts to
// interpret an old layout, it only refuses to attach (DESIGN.md).
var ErrVersionMismatch = errors.New("bus: region version mismatch")

// ErrBadMagic is returned by OpenRegion when the backing file exists but its
// header doesn't carry the expected magic, meaning it wasn't created by
// this bus (or is truncated/corrupt).
var ErrBadMagic = errors.New("bus: region magic mismatch")

// Region is one mapped Audio Bus shared-memory segment: a Header prefix
// followed by the out-region (synth -> host pre-mix audio) and in-region
// (host -> synth processed audio), per SPEC_FULL.md §3.1. It corresponds
// to the teacher's Segment in shm_segment.go, generalized from an
// arbitrary-capacity byte ring to the bus's fixed double-buffered layout.
type Region struct {
	Name          string
	BufferSamples uint32

	file    *os.File
	data    []byte
	layout  regionLayout
	owner   bool
	clock   *clock

	Header *Header
	Mutex  headerMutex

	AudioReady     event
	ProcessedReady event
}

// CreateRegion creates a new named region sized for bufferSamples
// stereo sample-pairs per channel and initializes its header. The caller
// is the synth side: spec.md §4.1 makes region creation and destruction
// the synth's responsibility, with the host only ever opening an existing
// region.
func CreateRegion(name string, bufferSamples uint32, sampleRate uint32) (*Region, error) {
	layout, err := calculateLayout(bufferSamples)
	if err != nil {
		return nil, err
	}

	f, err := createBacking(name, layout.TotalSize)
	if err != nil {
		return nil, err
	}

	data, err := mmapFile(f, layout.TotalSize)
	if err != nil {
		f.Close()
		removeBacking(name)
		return nil, err
	}

	r := newRegionView(name, bufferSamples, layout, f, data, true)

	copy(r.Header.magic[:], Magic)
	r.Header.SetVersion(Version)
	r.Header.SetSampleRate(sampleRate)
	r.Header.SetBufferSize(bufferSamples)
	r.Header.SetChannelCount(ChannelCount)
	r.Header.SetTicksPerSecond(DefaultTicksPerSecond)
	r.Header.SetTakeoverState(StateDirect)
	r.Header.SetCurrentFrameSamples(bufferSamples)
	r.Header.SetFlag(FlagActive)
	r.clock = newClock(DefaultTicksPerSecond)

	return r, nil
}

// OpenRegion attaches to an existing region created by CreateRegion. It
// validates magic and version before returning, refusing to attach to
// anything it doesn't recognize (spec.md §7).
func OpenRegion(name string, bufferSamples uint32) (*Region, error) {
	if !backingExists(name) {
		return nil, fmt.Errorf("bus: region %q does not exist", name)
	}

	layout, err := calculateLayout(bufferSamples)
	if err != nil {
		return nil, err
	}

	f, err := openBacking(name)
	if err != nil {
		return nil, err
	}

	data, err := mmapFile(f, layout.TotalSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := newRegionView(name, bufferSamples, layout, f, data, false)

	if string(r.Header.magic[:]) != Magic {
		r.Close()
		return nil, ErrBadMagic
	}
	if r.Header.Version() != Version {
		r.Close()
		return nil, ErrVersionMismatch
	}
	r.clock = newClock(r.Header.TicksPerSecond())

	return r, nil
}

func newRegionView(name string, bufferSamples uint32, layout regionLayout, f *os.File, data []byte, owner bool) *Region {
	hdr := headerAt(unsafe.Pointer(&data[0]))
	r := &Region{
		Name:          name,
		BufferSamples: bufferSamples,
		file:          f,
		data:          data,
		layout:        layout,
		owner:         owner,
		Header:        hdr,
	}
	r.Mutex = newHeaderMutex(hdr.mutexAddr())
	r.AudioReady = newEvent(hdr.audioReadyAddr())
	r.ProcessedReady = newEvent(hdr.processedReadyAddr())
	return r
}

// Close unmaps the region and closes its backing file descriptor without
// removing the backing file. Either side may Close; only the owner should
// also Destroy.
func (r *Region) Close() error {
	if r == nil {
		return nil
	}
	var err error
	if r.data != nil {
		err = munmapImpl(r.data)
		r.data = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}
	return err
}

// Destroy closes the region and removes its backing file. Only the
// creating (synth) side should call this, on clean shutdown. Before
// unmapping, it clears FlagActive and resets the takeover state to
// StateDirect under the header mutex (spec.md §4.1, §7), so a host that
// still holds the region mapped at the instant of destruction never
// observes a stale Active flag or takeover state pointing at a synth
// that is already gone. The mutex wait is bounded the same way every
// other teardown path bounds it: best effort, not a hang.
func (r *Region) Destroy() error {
	if r.Mutex.LockTimeout(DefaultShutdownMutexTimeoutMs * time.Millisecond) {
		r.Header.ClearFlag(FlagActive)
		r.Header.SetTakeoverState(StateDirect)
		r.Mutex.Unlock()
	}
	if err := r.Close(); err != nil {
		return err
	}
	return removeBacking(r.Name)
}

// IsConnected reports whether a region with this name currently has a
// backing file present, i.e. whether a host could attach to it.
func IsConnected(name string) bool {
	return backingExists(name)
}

// OutBuffer returns the float32 view of channel ch's A or B out-buffer
// (synth-written, host-read pre-mix audio).
func (r *Region) OutBuffer(ch int, slot int32) []float32 {
	if ch < 0 || ch >= ChannelCount {
		return nil
	}
	off := r.layout.OutOffset + channelSlotOffset(r.BufferSamples, ch, slot)
	return floatsAt(r.data, off, int(r.BufferSamples)*Stereo)
}

// InBuffer returns the float32 view of the A or B in-buffer (host-
// written, synth-read processed audio).
func (r *Region) InBuffer(slot int32) []float32 {
	off := r.layout.InOffset + inSlotOffset(r.BufferSamples, slot)
	return floatsAt(r.data, off, int(r.BufferSamples)*Stereo)
}

func floatsAt(data []byte, offset uint64, count int) []float32 {
	base := unsafe.Pointer(&data[offset])
	return unsafe.Slice((*float32)(base), count)
}

// Clock returns the region's tick source.
func (r *Region) Clock() *clock { return r.clock }
