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

import "os"

func createBacking(name string, size uint64) (*os.File, error) { return nil, ErrUnsupported }

func openBacking(name string) (*os.File, error) { return nil, ErrUnsupported }

func removeBacking(name string) error { return ErrUnsupported }

func backingExists(name string) bool { return false }

func mmapFile(f *os.File, size uint64) ([]byte, error) { return nil, ErrUnsupported }

func munmapImpl(data []byte) error { return ErrUnsupported }
