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

// DefaultTicksPerSecond is the tick rate published in Header.TicksPerSecond
// when a caller doesn't override it (spec.md §4.4 uses a high-resolution
// monotonic counter; nanoseconds-since-start gives sub-microsecond
// resolution without depending on any platform-specific counter).
const DefaultTicksPerSecond = uint64(time.Second)

// clock is the bus's monotonic tick source. It never touches wall-clock
// time: every reading is relative to the moment the clock was created, so
// ticks are only ever meaningfully compared against other ticks from the
// same clock instance, matching spec.md's rule that clock fields are for
// relative latency measurement, not timestamps.
type clock struct {
	epoch          time.Time
	ticksPerSecond uint64
}

// newClock returns a clock ticking at ticksPerSecond, starting now.
func newClock(ticksPerSecond uint64) *clock {
	if ticksPerSecond == 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	return &clock{epoch: time.Now(), ticksPerSecond: ticksPerSecond}
}

// Now returns the current tick count since the clock's epoch.
func (c *clock) Now() uint64 {
	elapsed := uint64(time.Since(c.epoch))
	whole := elapsed / uint64(time.Second)
	remainder := elapsed % uint64(time.Second)
	return whole*c.ticksPerSecond + remainder*c.ticksPerSecond/uint64(time.Second)
}

// TicksPerSecond reports the clock's tick rate.
func (c *clock) TicksPerSecond() uint64 { return c.ticksPerSecond }

// TicksToMicros converts a tick count to microseconds at the given tick
// rate. ticksPerSecond == 0 is treated as DefaultTicksPerSecond so a
// header read before the synth has published its real rate still yields
// a sane conversion instead of a divide-by-zero.
//
// The naive ticks*1_000_000/ticksPerSecond overflows uint64 once ticks
// exceeds roughly 2^64/1e6 (a few hours of uptime at the default
// nanosecond tick rate), so this splits the conversion into whole seconds
// and a remainder, each multiplied by 1e6 before dividing, keeping every
// intermediate value bounded by ticksPerSecond*1_000_000 instead of
// ticks*1_000_000.
func TicksToMicros(ticks, ticksPerSecond uint64) uint64 {
	if ticksPerSecond == 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	whole := ticks / ticksPerSecond
	remainder := ticks % ticksPerSecond
	return whole*1_000_000 + remainder*1_000_000/ticksPerSecond
}

// DiffMicros returns the elapsed microseconds between two tick readings
// taken from the same clock, handling the later-before-earlier case that
// arises when a reader samples two fields an instant apart and the writer
// updates the earlier one in between (spec.md §9 open question: resolved
// by clamping to zero rather than wrapping negative into a huge unsigned
// value).
func DiffMicros(earlier, later, ticksPerSecond uint64) uint64 {
	if later < earlier {
		return 0
	}
	return TicksToMicros(later-earlier, ticksPerSecond)
}

// DiffMicros is the clock-bound convenience form of the package-level
// DiffMicros, using the clock's own tick rate.
func (c *clock) DiffMicros(earlier, later uint64) uint64 {
	return DiffMicros(earlier, later, c.ticksPerSecond)
}
