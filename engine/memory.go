// memory.go - flat byte-addressable memory with bounds-checked big-endian word access
package engine

import "encoding/binary"

// Memory is a contiguous, single-threaded byte buffer. It has no
// caching or aliasing concerns: one Engine owns one Memory for its
// entire lifetime.
type Memory struct {
	buf []byte
}

// NewMemory allocates a zeroed buffer of the given size in bytes.
func NewMemory(size int) *Memory {
	return &Memory{buf: make([]byte, size)}
}

// Size returns the memory's fixed capacity in bytes.
func (m *Memory) Size() int { return len(m.buf) }

func (m *Memory) inBounds(addr uint32, n int) bool {
	if n < 0 {
		return false
	}
	end := uint64(addr) + uint64(n)
	return end <= uint64(len(m.buf))
}

// ReadWord returns the big-endian 32-bit word at addr. Alignment is
// not required; any addr with at least 4 bytes remaining is valid.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if !m.inBounds(addr, 4) {
		return 0, errOutOfBounds(addr)
	}
	return binary.BigEndian.Uint32(m.buf[addr : addr+4]), nil
}

// WriteWord stores value big-endian at addr.
func (m *Memory) WriteWord(addr uint32, value uint32) error {
	if !m.inBounds(addr, 4) {
		return errOutOfBounds(addr)
	}
	binary.BigEndian.PutUint32(m.buf[addr:addr+4], value)
	return nil
}

// ReadBytes copies out a length-n slice starting at addr, used for
// instruction fetch and inspection.
func (m *Memory) ReadBytes(addr uint32, n int) ([]byte, error) {
	if !m.inBounds(addr, n) {
		return nil, errOutOfBounds(addr)
	}
	out := make([]byte, n)
	copy(out, m.buf[addr:int(addr)+n])
	return out, nil
}

// WriteBytes copies data into memory starting at addr, used by the
// loader (Engine construction) to install a program image.
func (m *Memory) WriteBytes(addr uint32, data []byte) error {
	if !m.inBounds(addr, len(data)) {
		return errOutOfBounds(addr)
	}
	copy(m.buf[addr:int(addr)+len(data)], data)
	return nil
}

// errOutOfBounds is a plain error, distinct from TrapError: Memory has
// no notion of "PC" or "current instruction" — the Engine wraps this
// into a *TrapError with the faulting PC when it occurs mid-step.
type outOfBoundsError struct{ addr uint32 }

func (e *outOfBoundsError) Error() string {
	return "address out of bounds"
}

func errOutOfBounds(addr uint32) error { return &outOfBoundsError{addr: addr} }
