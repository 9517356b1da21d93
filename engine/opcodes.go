// opcodes.go - opcode constants and mnemonic table for the ie10 instruction set
package engine

// Opcode is the 16-bit big-endian value occupying bytes 0-1 of an
// instruction word.
type Opcode uint16

const (
	OpReserved Opcode = 0x0000

	OpLD  Opcode = 0x0001
	OpLC  Opcode = 0x0002
	OpDR  Opcode = 0x0003
	OpCPY Opcode = 0x0004

	OpOR   Opcode = 0x0005
	OpAND  Opcode = 0x0006
	OpXOR  Opcode = 0x0007
	OpNAND Opcode = 0x0008
	OpNOR  Opcode = 0x0009
	OpNOT  Opcode = 0x000A
	OpADD  Opcode = 0x000B
	OpSUB  Opcode = 0x000C
	OpMUL  Opcode = 0x000D
	OpDIV  Opcode = 0x000E
	OpEXP  Opcode = 0x000F

	OpJMP Opcode = 0x0020
	OpJMR Opcode = 0x0021
	OpCMP Opcode = 0x0022
	OpCMR Opcode = 0x0023

	OpPSH   Opcode = 0x0030
	OpPOP   Opcode = 0x0031
	OpMOVSP Opcode = 0x0032
	OpCALL  Opcode = 0x0033
	OpRET   Opcode = 0x0034

	OpGT Opcode = 0x0040
	OpLT Opcode = 0x0041
	OpEQ Opcode = 0x0042
	OpNE Opcode = 0x0043
	OpGE Opcode = 0x0044
	OpLE Opcode = 0x0045

	OpLDI Opcode = 0x0050
	OpSTI Opcode = 0x0051
)

// mnemonics names every opcode this engine recognizes. Executing
// anything absent from this table traps: ReservedOpcode for 0x0000,
// UnknownOpcode for the rest.
var mnemonics = map[Opcode]string{
	OpLD: "LD", OpLC: "LC", OpDR: "DR", OpCPY: "CPY",
	OpOR: "OR", OpAND: "AND", OpXOR: "XOR", OpNAND: "NAND", OpNOR: "NOR", OpNOT: "NOT",
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpDIV: "DIV", OpEXP: "EXP",
	OpJMP: "JMP", OpJMR: "JMR", OpCMP: "CMP", OpCMR: "CMR",
	OpPSH: "PSH", OpPOP: "POP", OpMOVSP: "MOVSP", OpCALL: "CALL", OpRET: "RET",
	OpGT: "GT", OpLT: "LT", OpEQ: "EQ", OpNE: "NE", OpGE: "GE", OpLE: "LE",
	OpLDI: "LDI", OpSTI: "STI",
}

// Mnemonic returns the assembly mnemonic for op, or "???" if unknown.
func (op Opcode) Mnemonic() string {
	if name, ok := mnemonics[op]; ok {
		return name
	}
	return "???"
}

// accumulatorWriters is the set of opcodes whose result is written to
// the accumulator (register 15) rather than an explicit destination.
// Kept as a lookup so tests can assert Universal Invariant 1 directly
// against the dispatch table instead of duplicating the opcode list.
var accumulatorWriters = map[Opcode]bool{
	OpOR: true, OpAND: true, OpXOR: true, OpNAND: true, OpNOR: true, OpNOT: true,
	OpADD: true, OpSUB: true, OpMUL: true, OpDIV: true, OpEXP: true,
	OpGT: true, OpLT: true, OpEQ: true, OpNE: true, OpGE: true, OpLE: true,
}

// WritesAccumulator reports whether op writes register 15 as its
// implicit destination.
func WritesAccumulator(op Opcode) bool {
	return accumulatorWriters[op]
}
