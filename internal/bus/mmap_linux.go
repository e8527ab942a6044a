//go:build linux && (amd64 || arm64)

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
	"fmt"
	"os"
	"syscall"
)

const shmDir = "/dev/shm"

func regionPath(name string) string {
	return fmt.Sprintf("%s/%s", shmDir, name)
}

// createBacking creates (or truncates) the backing file for a region of
// size bytes under /dev/shm and returns it open for read/write.
func createBacking(name string, size uint64) (*os.File, error) {
	path := regionPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("bus: create backing %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("bus: truncate backing %s: %w", path, err)
	}
	return f, nil
}

// openBacking opens an existing backing file under /dev/shm for read/write.
func openBacking(name string) (*os.File, error) {
	path := regionPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("bus: open backing %s: %w", path, err)
	}
	return f, nil
}

// removeBacking unlinks the backing file. It is not an error for the file
// to already be gone.
func removeBacking(name string) error {
	if err := os.Remove(regionPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bus: remove backing %s: %w", regionPath(name), err)
	}
	return nil
}

// backingExists reports whether a region's backing file is present.
func backingExists(name string) bool {
	_, err := os.Stat(regionPath(name))
	return err == nil
}

func mmapFile(f *os.File, size uint64) ([]byte, error) {
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("bus: mmap: %w", err)
	}
	return data, nil
}

func munmapImpl(data []byte) error {
	if data == nil {
		return nil
	}
	return syscall.Munmap(data)
}
