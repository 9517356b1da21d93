// registers.go - the 16-slot register file, with a write-through accumulator
package engine

// NumRegisters is the size of the register file, indices 0-15.
const NumRegisters = 16

// Accumulator is register index 15: the implicit destination of every
// arithmetic, bitwise and comparison opcode, and read-only to explicit
// instruction destinations.
const Accumulator = 15

// RegisterFile holds the 16 32-bit general-purpose slots. Index 15 is
// documented as the accumulator; nothing in this type enforces that on
// its own — Set clamps explicit-destination writes, SetAccumulator is
// the only path that writes index 15, and callers are expected to use
// the right one (see engine.go's opcode dispatch for the split).
type RegisterFile struct {
	slots [NumRegisters]uint32
}

// Clamp14 maps a register-index byte to 0..14: any value above 14
// becomes 14, rather than wrapping or masking.
func Clamp14(i byte) int {
	if i > 14 {
		return 14
	}
	return int(i)
}

// Get returns the value at a pre-clamped index (0..15).
func (r *RegisterFile) Get(i int) uint32 {
	return r.slots[i]
}

// Set writes to a pre-clamped index, remapping 15 to 14. Used by every
// explicit-destination opcode (LD, LC, CPY, POP, LDI).
func (r *RegisterFile) Set(i int, v uint32) {
	if i == Accumulator {
		i = 14
	}
	r.slots[i] = v
}

// SetAccumulator writes register 15 unconditionally. Used exclusively
// by the ALU/comparison opcodes as their implicit destination.
func (r *RegisterFile) SetAccumulator(v uint32) {
	r.slots[Accumulator] = v
}

// Snapshot returns a copy of all 16 slots, for inspection and
// serialization.
func (r *RegisterFile) Snapshot() [NumRegisters]uint32 {
	return r.slots
}

// Reset zeroes every slot.
func (r *RegisterFile) Reset() {
	r.slots = [NumRegisters]uint32{}
}
