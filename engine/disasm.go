// disasm.go - single-instruction disassembly for trap diagnostics and dumps
//
// Deliberately not a disassembler *tool*: no listing driver, no
// symbol resolution, no interactive stepping. Just the decode-to-text
// half a debugger would build on top of.
package engine

import "fmt"

// Disassemble renders one decoded instruction as a human-readable
// line, following the mnemonic-plus-operands layout of the teacher's
// debug_disasm_ie32.go.
func Disassemble(addr uint32, word []byte) string {
	in := Decode(word)
	mnem := in.Op.Mnemonic()

	switch in.Op {
	case OpJMP, OpCALL:
		return fmt.Sprintf("%08X: %-6s %#08x", addr, mnem, in.A)
	case OpJMR:
		return fmt.Sprintf("%08X: %-6s %+d", addr, mnem, signed32(in.A))
	case OpRET:
		return fmt.Sprintf("%08X: %-6s", addr, mnem)
	case OpCMP:
		return fmt.Sprintf("%08X: %-6s r%d, %#08x", addr, mnem, in.RegA, in.B)
	case OpCMR:
		return fmt.Sprintf("%08X: %-6s r%d, %+d", addr, mnem, in.RegA, signed32(in.B))
	case OpLC:
		return fmt.Sprintf("%08X: %-6s #%#08x, r%d", addr, mnem, in.A, in.RegB)
	case OpLD:
		return fmt.Sprintf("%08X: %-6s [%#08x], r%d", addr, mnem, in.A, in.RegB)
	case OpDR:
		return fmt.Sprintf("%08X: %-6s r%d, [%#08x]", addr, mnem, in.RegA, in.B)
	case OpMOVSP:
		return fmt.Sprintf("%08X: %-6s %+d", addr, mnem, signed32(in.A))
	case OpPSH, OpPOP:
		return fmt.Sprintf("%08X: %-6s r%d", addr, mnem, in.RegA)
	case OpNOT:
		return fmt.Sprintf("%08X: %-6s r%d", addr, mnem, in.RegA)
	case OpLDI:
		return fmt.Sprintf("%08X: %-6s [r%d], r%d", addr, mnem, in.RegA, in.RegB)
	case OpSTI:
		return fmt.Sprintf("%08X: %-6s r%d, [r%d]", addr, mnem, in.RegA, in.RegB)
	case OpReserved:
		return fmt.Sprintf("%08X: db $0000 (reserved)", addr)
	default:
		if mnem == "???" {
			return fmt.Sprintf("%08X: db $%04X", addr, uint16(in.Op))
		}
		return fmt.Sprintf("%08X: %-6s r%d, r%d", addr, mnem, in.RegA, in.RegB)
	}
}
