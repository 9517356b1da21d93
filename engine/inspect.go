// inspect.go - read-only introspection surface for hosts (CLI dumps, snapshots)
//
// A set of named accessors a host can poll after a run, not an
// interactive stepping/breakpoint loop.
package engine

import (
	"fmt"
	"strings"
)

// RegisterInfo names a single register for display or serialization:
// a name and its 32-bit value.
type RegisterInfo struct {
	Name  string
	Value uint32
}

func registerName(i int) string {
	if i == Accumulator {
		return "ACC"
	}
	return fmt.Sprintf("R%d", i)
}

// GetRegisters returns all 16 general registers plus PC and SP, in
// display order.
func (e *Engine) GetRegisters() []RegisterInfo {
	snap := e.regs.Snapshot()
	out := make([]RegisterInfo, 0, NumRegisters+2)
	for i, v := range snap {
		out = append(out, RegisterInfo{Name: registerName(i), Value: v})
	}
	out = append(out, RegisterInfo{Name: "PC", Value: e.pc})
	out = append(out, RegisterInfo{Name: "SP", Value: e.stack.SP()})
	return out
}

// GetRegister looks up a register by name (R0..R14, ACC, PC, SP),
// case-insensitively.
func (e *Engine) GetRegister(name string) (uint32, bool) {
	switch strings.ToUpper(name) {
	case "PC":
		return e.pc, true
	case "SP":
		return e.stack.SP(), true
	case "ACC", "R15":
		return e.regs.Get(Accumulator), true
	}
	var idx int
	if n, err := fmt.Sscanf(strings.ToUpper(name), "R%d", &idx); n == 1 && err == nil && idx >= 0 && idx <= 14 {
		return e.regs.Get(idx), true
	}
	return 0, false
}

// DumpRegisters renders every register in the r%02d = 0x%08x form the
// reference implementation prints after a run (original_source/vm.py),
// used by cmd/ie10run's default register dump (when -named-registers
// is not given).
func (e *Engine) DumpRegisters() string {
	var b strings.Builder
	snap := e.regs.Snapshot()
	for i, v := range snap {
		fmt.Fprintf(&b, "r%02d = %#010x\n", i, v)
	}
	fmt.Fprintf(&b, "pc  = %#010x\n", e.pc)
	fmt.Fprintf(&b, "sp  = %#010x\n", e.stack.SP())
	return b.String()
}
