//go:build !linux || !(amd64 || arm64)

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
	"time"
)

// ErrFutexTimeout mirrors the Linux build's sentinel so callers can type-
// switch on it regardless of platform.
var ErrFutexTimeout = errors.New("bus: futex wait timed out")

// ErrUnsupported is returned by every futex operation on platforms without
// a native futex syscall. The bus as a whole is Linux-only (SPEC_FULL.md
// §0); this file exists so the package still compiles elsewhere, the way
// the teacher's shm_futex_stub.go does for its own futex calls.
var ErrUnsupported = errors.New("bus: futex operations require linux/amd64 or linux/arm64")

func futexWait(addr *uint32, expect uint32) error {
	return ErrUnsupported
}

func futexWaitTimeout(addr *uint32, expect uint32, timeout time.Duration) error {
	return ErrUnsupported
}

func futexWake(addr *uint32, n int) error {
	return ErrUnsupported
}
