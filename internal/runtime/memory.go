package runtime

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/platform"
	"github.com/riftwasm/rift/internal/trap"
)

const (
	// MemoryPageSize is the linear-memory unit: 64 KiB.
	MemoryPageSize = uint64(65536)
	// MemoryMaxPages is the largest page count addressable with 32-bit
	// offsets.
	MemoryMaxPages = uint64(65536)
)

// MemoryInstance is a linear memory. The whole address range up to the
// declared (or addressable) maximum is reserved at allocation, so Grow only
// extends the accessible length: the buffer never moves, which is what makes
// growing a shared memory safe under concurrent readers.
type MemoryInstance struct {
	Type *ir.MemoryType

	// mu guards length, grow, the atomic operations and the wait queues.
	// Plain (non-atomic) accesses go straight to the buffer.
	mu      sync.Mutex
	buffer  []byte // full reservation
	length  uint64 // accessible prefix, in bytes
	waiters map[uint32][]chan struct{}
}

// NewMemoryInstance reserves address space for t.Size.Max pages (capped at
// MemoryMaxPages) and makes the first t.Size.Min pages accessible.
func NewMemoryInstance(t *ir.MemoryType) (*MemoryInstance, error) {
	reservePages := t.Size.Max
	if reservePages == ir.Unbounded || reservePages > MemoryMaxPages {
		reservePages = MemoryMaxPages
	}
	buf, err := platform.ReserveMemory(reservePages * MemoryPageSize)
	if err != nil {
		return nil, trap.New(trap.OutOfMemory, "reserving %d pages: %v", reservePages, err)
	}
	return &MemoryInstance{
		Type:    t,
		buffer:  buf,
		length:  t.Size.Min * MemoryPageSize,
		waiters: map[uint32][]chan struct{}{},
	}, nil
}

// Close releases the reservation. The memory must not be used afterwards.
func (m *MemoryInstance) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := m.buffer
	m.buffer, m.length = nil, 0
	return platform.ReleaseMemory(buf)
}

// Size returns the accessible length in bytes.
func (m *MemoryInstance) Size() uint64 { return m.length }

// Pages returns the accessible length in pages.
func (m *MemoryInstance) Pages() uint32 { return uint32(m.length / MemoryPageSize) }

// Grow extends the memory by delta pages in place, returning the previous
// page count, or false when the declared maximum would be exceeded.
func (m *MemoryInstance) Grow(delta uint32) (uint32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prevPages := uint32(m.length / MemoryPageSize)
	newPages := uint64(prevPages) + uint64(delta)
	max := m.Type.Size.Max
	if max == ir.Unbounded || max > MemoryMaxPages {
		max = MemoryMaxPages
	}
	if newPages > max {
		return 0, false
	}
	m.length = newPages * MemoryPageSize
	return prevPages, true
}

// hasSize reports whether [offset, offset+n) is within the accessible
// length. The uint64 arithmetic cannot overflow for 32-bit operands.
func (m *MemoryInstance) hasSize(offset uint64, n uint64) bool {
	return offset+n <= m.length
}

// Read returns the byte range at [offset, offset+n), or false out of
// bounds.
func (m *MemoryInstance) Read(offset, n uint64) ([]byte, bool) {
	if !m.hasSize(offset, n) {
		return nil, false
	}
	return m.buffer[offset : offset+n], true
}

// Write copies data to offset, or reports false out of bounds.
func (m *MemoryInstance) Write(offset uint64, data []byte) bool {
	if !m.hasSize(offset, uint64(len(data))) {
		return false
	}
	copy(m.buffer[offset:], data)
	return true
}

// ReadUint32Le reads a little-endian u32, or false out of bounds.
func (m *MemoryInstance) ReadUint32Le(offset uint64) (uint32, bool) {
	if !m.hasSize(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.buffer[offset:]), true
}

// ReadUint64Le reads a little-endian u64, or false out of bounds.
func (m *MemoryInstance) ReadUint64Le(offset uint64) (uint64, bool) {
	if !m.hasSize(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.buffer[offset:]), true
}

// WriteUint32Le writes a little-endian u32, or reports false out of bounds.
func (m *MemoryInstance) WriteUint32Le(offset uint64, v uint32) bool {
	if !m.hasSize(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.buffer[offset:], v)
	return true
}

// WriteUint64Le writes a little-endian u64, or reports false out of bounds.
func (m *MemoryInstance) WriteUint64Le(offset uint64, v uint64) bool {
	if !m.hasSize(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.buffer[offset:], v)
	return true
}

// atomicCheck validates bounds and the exact alignment the atomic opcodes
// demand of the effective address.
func (m *MemoryInstance) atomicCheck(offset, n uint64) error {
	if !m.hasSize(offset, n) {
		return trap.New(trap.AccessViolation, "atomic access at %d beyond memory of %d bytes", offset, m.length)
	}
	if offset%n != 0 {
		return trap.New(trap.AccessViolation, "unaligned atomic access at %d", offset)
	}
	return nil
}

// AtomicLoad reads n bytes (4 or 8) with sequential consistency.
func (m *MemoryInstance) AtomicLoad(offset, n uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return 0, err
	}
	if n == 4 {
		return uint64(binary.LittleEndian.Uint32(m.buffer[offset:])), nil
	}
	return binary.LittleEndian.Uint64(m.buffer[offset:]), nil
}

// AtomicStore writes n bytes (4 or 8) with sequential consistency.
func (m *MemoryInstance) AtomicStore(offset, n, v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return err
	}
	if n == 4 {
		binary.LittleEndian.PutUint32(m.buffer[offset:], uint32(v))
	} else {
		binary.LittleEndian.PutUint64(m.buffer[offset:], v)
	}
	return nil
}

// AtomicNarrowStore writes a 1- or 2-byte value atomically.
func (m *MemoryInstance) AtomicNarrowStore(offset, n, v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return err
	}
	if n == 1 {
		m.buffer[offset] = byte(v)
	} else {
		binary.LittleEndian.PutUint16(m.buffer[offset:], uint16(v))
	}
	return nil
}

// AtomicNarrowLoad reads a 1- or 2-byte value atomically, zero extended.
func (m *MemoryInstance) AtomicNarrowLoad(offset, n uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return 0, err
	}
	if n == 1 {
		return uint64(m.buffer[offset]), nil
	}
	return uint64(binary.LittleEndian.Uint16(m.buffer[offset:])), nil
}

// AtomicRmwAdd adds v at offset and returns the previous value.
func (m *MemoryInstance) AtomicRmwAdd(offset, n, v uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return 0, err
	}
	if n == 4 {
		old := binary.LittleEndian.Uint32(m.buffer[offset:])
		binary.LittleEndian.PutUint32(m.buffer[offset:], old+uint32(v))
		return uint64(old), nil
	}
	old := binary.LittleEndian.Uint64(m.buffer[offset:])
	binary.LittleEndian.PutUint64(m.buffer[offset:], old+v)
	return old, nil
}

// AtomicCmpxchg stores repl at offset if the current value equals expected,
// returning the previous value either way.
func (m *MemoryInstance) AtomicCmpxchg(offset, n, expected, repl uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.atomicCheck(offset, n); err != nil {
		return 0, err
	}
	if n == 4 {
		old := binary.LittleEndian.Uint32(m.buffer[offset:])
		if uint64(old) == expected {
			binary.LittleEndian.PutUint32(m.buffer[offset:], uint32(repl))
		}
		return uint64(old), nil
	}
	old := binary.LittleEndian.Uint64(m.buffer[offset:])
	if old == expected {
		binary.LittleEndian.PutUint64(m.buffer[offset:], repl)
	}
	return old, nil
}

// Wait result codes defined by the threads proposal.
const (
	WaitOK       = 0 // woken by notify
	WaitNotEqual = 1 // value did not match expected
	WaitTimedOut = 2 // timeout expired
)

// AtomicWait parks the caller on (m, offset) until notified or the timeout
// expires. n selects the compared width (4 or 8); timeoutNs < 0 waits
// forever. The value check and queue insertion are one critical section, so
// a notify between check and park cannot be lost.
func (m *MemoryInstance) AtomicWait(offset, n, expected uint64, timeoutNs int64) (uint32, error) {
	m.mu.Lock()
	if err := m.atomicCheck(offset, n); err != nil {
		m.mu.Unlock()
		return 0, err
	}
	var cur uint64
	if n == 4 {
		cur = uint64(binary.LittleEndian.Uint32(m.buffer[offset:]))
	} else {
		cur = binary.LittleEndian.Uint64(m.buffer[offset:])
	}
	if cur != expected {
		m.mu.Unlock()
		return WaitNotEqual, nil
	}

	ch := make(chan struct{}, 1)
	addr := uint32(offset)
	m.waiters[addr] = append(m.waiters[addr], ch)
	m.mu.Unlock()

	var timeout <-chan time.Time
	if timeoutNs >= 0 {
		t := time.NewTimer(time.Duration(timeoutNs))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-ch:
		return WaitOK, nil
	case <-timeout:
		m.mu.Lock()
		defer m.mu.Unlock()
		q := m.waiters[addr]
		for i, w := range q {
			if w == ch {
				m.waiters[addr] = append(q[:i], q[i+1:]...)
				// A notify may have fired between timer and lock; honor it.
				select {
				case <-ch:
					return WaitOK, nil
				default:
				}
				return WaitTimedOut, nil
			}
		}
		// Already removed by a notifier.
		return WaitOK, nil
	}
}

// AtomicNotify wakes up to count waiters parked on (m, offset), returning
// how many were woken.
func (m *MemoryInstance) AtomicNotify(offset uint64, count uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := uint32(offset)
	q := m.waiters[addr]
	n := uint32(0)
	for len(q) > 0 && n < count {
		ch := q[0]
		q = q[1:]
		ch <- struct{}{}
		n++
	}
	m.waiters[addr] = q
	return n
}
