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
	"time"
)

// event is an auto-reset, cross-process signal built on a single futex
// word living inside the mapped region. It replaces the teacher's named
// kernel auto-reset event (AudioReadyEvent / ProcessedReadyEvent in
// spec.md §4.6) with the futex sequence-counter idiom the teacher already
// uses for ring backpressure in shm_futex_linux.go: every Signal bumps the
// counter by one and wakes waiters; every Wait captures the counter before
// blocking and returns as soon as it observes a different value, so a
// Signal that lands between the capture and the block is never lost.
type event struct {
	seq *uint32
}

func newEvent(addr *uint32) event {
	return event{seq: addr}
}

// Signal wakes every waiter blocked on the event.
func (e event) Signal() {
	atomic.AddUint32(e.seq, 1)
	futexWake(e.seq, 1<<30)
}

// Wait blocks until the next Signal after the call is observed.
func (e event) Wait() error {
	start := atomic.LoadUint32(e.seq)
	for {
		cur := atomic.LoadUint32(e.seq)
		if cur != start {
			return nil
		}
		if err := futexWait(e.seq, cur); err != nil {
			return err
		}
	}
}

// WaitTimeout blocks until the next Signal after the call is observed, or
// returns ErrFutexTimeout once timeout elapses.
func (e event) WaitTimeout(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	start := atomic.LoadUint32(e.seq)
	for {
		cur := atomic.LoadUint32(e.seq)
		if cur != start {
			return nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrFutexTimeout
		}
		if err := futexWaitTimeout(e.seq, cur, remaining); err != nil {
			return err
		}
	}
}
