// instruction.go - the fixed 10-byte instruction word: op0 op1 a0 a1 a2 a3 b0 b1 b2 b3
package engine

import "encoding/binary"

// InstructionSize is the fixed width of every instruction word in
// bytes: a 16-bit opcode plus two 32-bit operands.
const InstructionSize = 10

// Instruction is a decoded instruction word. A and B are the raw
// 32-bit operand values; RegA/RegB are their low byte pre-clamped to
// 0..14, ready to use as either a source or destination register
// index, clamped rather than masked so an out-of-range operand byte
// still lands on a valid register instead of aliasing an unrelated
// bit pattern.
type Instruction struct {
	Op   Opcode
	A    uint32
	B    uint32
	RegA int
	RegB int
}

// Decode parses a 10-byte instruction word. The caller is responsible
// for fetching exactly InstructionSize bytes (Engine.Step does the
// bounds-checked read).
func Decode(word []byte) Instruction {
	_ = word[9] // bounds-check hint, mirrors the fixed-width decode in cpu_ie32.go
	op := Opcode(binary.BigEndian.Uint16(word[0:2]))
	a := binary.BigEndian.Uint32(word[2:6])
	b := binary.BigEndian.Uint32(word[6:10])
	return Instruction{
		Op:   op,
		A:    a,
		B:    b,
		RegA: Clamp14(word[5]),
		RegB: Clamp14(word[9]),
	}
}

// Encode is the inverse of Decode, used by tests and by the scenario
// package to build program images without a text assembler (an
// assembler front end is explicitly out of scope; this is a plain
// struct-to-bytes helper, not a parser).
func Encode(in Instruction) [InstructionSize]byte {
	var word [InstructionSize]byte
	binary.BigEndian.PutUint16(word[0:2], uint16(in.Op))
	binary.BigEndian.PutUint32(word[2:6], in.A)
	binary.BigEndian.PutUint32(word[6:10], in.B)
	return word
}

// signed32 reinterprets a 32-bit operand as two's-complement for the
// offset opcodes (JMR, CMR, MOVSP), which carry a relative displacement
// on an otherwise unsigned word.
func signed32(v uint32) int32 { return int32(v) }
