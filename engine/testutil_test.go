package engine

func assemble(instrs ...Instruction) []byte {
	out := make([]byte, 0, len(instrs)*InstructionSize)
	for _, in := range instrs {
		word := Encode(in)
		out = append(out, word[:]...)
	}
	return out
}

// reg builds an Instruction whose A/B operands carry a register index
// in their low byte, mirroring how a real assembler would place a
// register operand in the 32-bit A/B field (only the low byte, a3/b3,
// is ever consulted for a register index).
func reg(i int) uint32 { return uint32(byte(i)) }
