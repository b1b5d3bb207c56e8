//go:build unix

// Package platform isolates the host-specific pieces of linear-memory
// allocation. On unix the full reservation for a memory (its maximum size)
// is mapped up front, so growing only extends the accessible length and the
// base address never moves; concurrent readers of a shared memory keep a
// valid buffer.
package platform

import "golang.org/x/sys/unix"

// ReserveMemory maps size bytes of zeroed anonymous memory.
func ReserveMemory(size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	return unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// ReleaseMemory unmaps a reservation returned by ReserveMemory.
func ReleaseMemory(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
