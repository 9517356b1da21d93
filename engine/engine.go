// engine.go - fetch/decode/execute loop over the 10-byte instruction word
package engine

import (
	"fmt"
	"sync/atomic"
)

// StepResult reports what Step() did on this call.
type StepResult int

const (
	Continue StepResult = iota
	Halted
)

// RunResult summarizes a Run() call.
type RunResult struct {
	Steps  int
	Result StepResult
	Err    error // a *TrapError, or nil on a clean cooperative halt
}

// Engine owns the single-threaded VM state: PC, the stack (and its
// SP), the 16-register file, and the memory they all share. The
// entire state belongs to exactly one executor; nothing here is safe
// for concurrent Step/Run calls against the same Engine.
type Engine struct {
	mem   *Memory
	regs  RegisterFile
	stack *Stack
	pc    uint32
	steps uint64

	halted    bool
	cancelled atomic.Bool
}

// New constructs an Engine, copies program into memory at base, and
// sets the initial PC/SP. Loading is a raw byte image copied verbatim
// at a fixed base address: no header, no relocations.
func New(memorySize int, program []byte, base, initialPC, initialSP uint32) (*Engine, error) {
	mem := NewMemory(memorySize)
	if err := mem.WriteBytes(base, program); err != nil {
		return nil, fmt.Errorf("loading program at base %#08x: %w", base, err)
	}
	return &Engine{
		mem:   mem,
		stack: NewStack(mem, initialSP, 0),
		pc:    initialPC,
	}, nil
}

// PC returns the current program counter.
func (e *Engine) PC() uint32 { return e.pc }

// SP returns the current stack pointer.
func (e *Engine) SP() uint32 { return e.stack.SP() }

// Steps returns the number of instructions successfully executed.
func (e *Engine) Steps() uint64 { return e.steps }

// IsHalted reports whether the engine has stopped (trap, cooperative
// cancel, or a prior clean halt) and Step/Run will no-op.
func (e *Engine) IsHalted() bool { return e.halted }

// Registers returns a copy of the 16-slot register file.
func (e *Engine) Registers() [NumRegisters]uint32 { return e.regs.Snapshot() }

// Register returns a single register value, clamping i to 0..15.
func (e *Engine) Register(i int) uint32 {
	if i < 0 {
		i = 0
	} else if i > 15 {
		i = 15
	}
	return e.regs.Get(i)
}

// ReadMemory exposes a bounds-checked byte range for host inspection
// (register/memory dumps, disassembly, snapshots).
func (e *Engine) ReadMemory(addr uint32, n int) ([]byte, error) {
	return e.mem.ReadBytes(addr, n)
}

// WriteMemory pokes a byte range directly, used by snapshot restore
// and the Lua scenario harness — not part of instruction execution.
func (e *Engine) WriteMemory(addr uint32, data []byte) error {
	return e.mem.WriteBytes(addr, data)
}

// SetRegister pokes a register directly (index 0..15, no clamping to
// 14 — this is host-side state injection, not an instruction
// writeback), used by snapshot restore and scenario scripts.
func (e *Engine) SetRegister(i int, v uint32) {
	if i < 0 || i > 15 {
		return
	}
	e.regs.slots[i] = v
}

// SetPC/SetSP reposition the engine directly, used by snapshot restore.
func (e *Engine) SetPC(pc uint32) { e.pc = pc }
func (e *Engine) SetSP(sp uint32) { e.stack.SetSP(sp) }

// Cancel requests a cooperative stop. The engine checks this flag once
// per Step call rather than mid-instruction: cancellation is external
// and non-preemptive, never interrupting an instruction in progress.
// It is safe to call from another goroutine; the Engine's own state is
// not otherwise thread-safe.
func (e *Engine) Cancel() { e.cancelled.Store(true) }

// Step executes exactly one instruction, or reports Halted if the
// engine is already stopped. A non-nil error is always a *TrapError;
// a nil error with Halted means a clean stop (cooperative cancel).
func (e *Engine) Step() (StepResult, error) {
	if e.halted {
		return Halted, nil
	}
	if e.cancelled.Load() {
		e.halted = true
		return Halted, nil
	}

	word, err := e.mem.ReadBytes(e.pc, InstructionSize)
	if err != nil {
		e.halted = true
		return Halted, trap(TrapOutOfBounds, e.pc, fmt.Sprintf("fetch at %#08x", e.pc))
	}
	in := Decode(word)
	nextPC := e.pc + InstructionSize

	if stepErr := e.execute(in, &nextPC); stepErr != nil {
		e.halted = true
		return Halted, stepErr
	}

	e.pc = nextPC
	e.steps++
	return Continue, nil
}

// Run steps until halted or maxSteps instructions have executed
// without halting, in which case it traps BudgetExhausted.
func (e *Engine) Run(maxSteps int) RunResult {
	for i := 0; i < maxSteps; i++ {
		res, err := e.Step()
		if err != nil {
			return RunResult{Steps: i + 1, Result: Halted, Err: err}
		}
		if res == Halted {
			return RunResult{Steps: i + 1, Result: Halted}
		}
	}
	e.halted = true
	return RunResult{Steps: maxSteps, Result: Halted, Err: trap(TrapBudgetExhausted, e.pc, "")}
}

// execute dispatches a single decoded instruction, updating registers,
// memory and *nextPC as needed. It returns a non-nil *TrapError on any
// fatal condition and otherwise leaves the engine ready to commit
// *nextPC as the new PC.
func (e *Engine) execute(in Instruction, nextPC *uint32) error {
	switch in.Op {
	case OpReserved:
		return trap(TrapReservedOpcode, e.pc, "")

	case OpLD:
		v, err := e.mem.ReadWord(in.A)
		if err != nil {
			return trap(TrapOutOfBounds, e.pc, fmt.Sprintf("LD address %#08x", in.A))
		}
		e.regs.Set(in.RegB, v)

	case OpLC:
		e.regs.Set(in.RegB, in.A)

	case OpDR:
		if err := e.mem.WriteWord(in.B, e.regs.Get(in.RegA)); err != nil {
			return trap(TrapOutOfBounds, e.pc, fmt.Sprintf("DR address %#08x", in.B))
		}

	case OpCPY:
		e.regs.Set(in.RegB, e.regs.Get(in.RegA))

	case OpOR:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) | e.regs.Get(in.RegB))
	case OpAND:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) & e.regs.Get(in.RegB))
	case OpXOR:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) ^ e.regs.Get(in.RegB))
	case OpNAND:
		e.regs.SetAccumulator(^(e.regs.Get(in.RegA) & e.regs.Get(in.RegB)))
	case OpNOR:
		e.regs.SetAccumulator(^(e.regs.Get(in.RegA) | e.regs.Get(in.RegB)))
	case OpNOT:
		e.regs.SetAccumulator(^e.regs.Get(in.RegA))

	case OpADD:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) + e.regs.Get(in.RegB))
	case OpSUB:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) - e.regs.Get(in.RegB))
	case OpMUL:
		e.regs.SetAccumulator(e.regs.Get(in.RegA) * e.regs.Get(in.RegB))
	case OpDIV:
		divisor := e.regs.Get(in.RegB)
		if divisor == 0 {
			return trap(TrapDivideByZero, e.pc, "")
		}
		e.regs.SetAccumulator(e.regs.Get(in.RegA) / divisor)
	case OpEXP:
		e.regs.SetAccumulator(powMod32(e.regs.Get(in.RegA), e.regs.Get(in.RegB)))

	case OpJMP:
		*nextPC = in.A
	case OpJMR:
		*nextPC = uint32(int64(e.pc) + int64(signed32(in.A)))
	case OpCMP:
		if e.regs.Get(in.RegA) != 0 {
			*nextPC = in.B
		}
	case OpCMR:
		if e.regs.Get(in.RegA) != 0 {
			*nextPC = uint32(int64(e.pc) + int64(signed32(in.B)))
		}

	case OpPSH:
		if err := e.stack.Push(e.regs.Get(in.RegA)); err != nil {
			return e.stackTrap(err)
		}
	case OpPOP:
		v, err := e.stack.Pop()
		if err != nil {
			return e.stackTrap(err)
		}
		e.regs.Set(in.RegA, v)
	case OpMOVSP:
		e.stack.Move(signed32(in.A))
	case OpCALL:
		if err := e.stack.Push(*nextPC); err != nil {
			return e.stackTrap(err)
		}
		*nextPC = in.A
	case OpRET:
		v, err := e.stack.Pop()
		if err != nil {
			return e.stackTrap(err)
		}
		*nextPC = v

	case OpGT:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) > e.regs.Get(in.RegB)))
	case OpLT:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) < e.regs.Get(in.RegB)))
	case OpEQ:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) == e.regs.Get(in.RegB)))
	case OpNE:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) != e.regs.Get(in.RegB)))
	case OpGE:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) >= e.regs.Get(in.RegB)))
	case OpLE:
		e.regs.SetAccumulator(boolWord(e.regs.Get(in.RegA) <= e.regs.Get(in.RegB)))

	case OpLDI:
		addr := e.regs.Get(in.RegA)
		v, err := e.mem.ReadWord(addr)
		if err != nil {
			return trap(TrapOutOfBounds, e.pc, fmt.Sprintf("LDI address %#08x", addr))
		}
		e.regs.Set(in.RegB, v)
	case OpSTI:
		addr := e.regs.Get(in.RegB)
		if err := e.mem.WriteWord(addr, e.regs.Get(in.RegA)); err != nil {
			return trap(TrapOutOfBounds, e.pc, fmt.Sprintf("STI address %#08x", addr))
		}

	default:
		return trap(TrapUnknownOpcode, e.pc, fmt.Sprintf("opcode %#04x", uint16(in.Op)))
	}
	return nil
}

func (e *Engine) stackTrap(err error) *TrapError {
	if se, ok := err.(*stackError); ok {
		if se.overflow {
			return trap(TrapStackOverflow, e.pc, fmt.Sprintf("SP=%#08x", e.stack.SP()))
		}
		return trap(TrapStackUnderflow, e.pc, fmt.Sprintf("SP=%#08x", e.stack.SP()))
	}
	return trap(TrapOutOfBounds, e.pc, err.Error())
}

func boolWord(b bool) uint32 {
	if b {
		return 0xFFFFFFFF
	}
	return 0
}

// powMod32 computes base^exp mod 2^32 by binary exponentiation,
// wrapping on every multiply exactly as ADD/SUB/MUL do. pow(_, 0) is
// 1, including pow(0, 0), the conventional definition of the empty
// product.
func powMod32(base, exp uint32) uint32 {
	result := uint32(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		exp >>= 1
		base *= base
	}
	return result
}
