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

// Package bus implements the OmniMIDI Audio Bus: a single-writer,
// single-reader shared-memory channel between a MIDI synthesis process
// (the synth) and an out-of-process effects host (the host).
//
// The bus lets the host observe the synth's live metering and voice
// statistics, optionally intercept the synth's 16-channel pre-mix audio
// and return a processed stereo mix, and exchange panic/reset and
// sample-rate control signals. It is not a general IPC framework: it
// carries exactly one producer and one consumer over a single named
// memory region, with no multiplexing and no encryption.
package bus
