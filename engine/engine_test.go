package engine

import "testing"

// stepN executes exactly n instructions, failing the test on any trap.
// Run(n) is the wrong tool here: with no HALT opcode, Run always ends
// in a trap once its budget is spent, even on a program that completed
// cleanly, so straight-line fixtures step by hand instead.
func stepN(t *testing.T, e *Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := e.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestArithmeticWraparound(t *testing.T) {
	cases := []struct {
		name    string
		op      Opcode
		a, b    uint32
		wantAcc uint32
	}{
		{"ADD overflow", OpADD, 0xFFFFFFFF, 1, 0},
		{"SUB underflow", OpSUB, 0, 1, 0xFFFFFFFF},
		{"MUL overflow", OpMUL, 0x10000, 0x10000, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			prog := assemble(
				Instruction{Op: OpLC, A: c.a, B: reg(0)},
				Instruction{Op: OpLC, A: c.b, B: reg(1)},
				Instruction{Op: c.op, A: reg(0), B: reg(1)},
			)
			e := newScenarioEngine(t, prog)
			stepN(t, e, 3)
			if e.Register(Accumulator) != c.wantAcc {
				t.Fatalf("acc = %#08x, want %#08x", e.Register(Accumulator), c.wantAcc)
			}
		})
	}
}

func TestComparisonsAreExactBooleans(t *testing.T) {
	ops := []Opcode{OpGT, OpLT, OpEQ, OpNE, OpGE, OpLE}
	for _, op := range ops {
		prog := assemble(
			Instruction{Op: OpLC, A: 3, B: reg(0)},
			Instruction{Op: OpLC, A: 5, B: reg(1)},
			Instruction{Op: op, A: reg(0), B: reg(1)},
		)
		e := newScenarioEngine(t, prog)
		stepN(t, e, 3)
		acc := e.Register(Accumulator)
		if acc != 0 && acc != 0xFFFFFFFF {
			t.Fatalf("%v: acc = %#08x, must be exactly 0 or 0xFFFFFFFF", op, acc)
		}
	}
}

func TestExpZeroToZeroIsOne(t *testing.T) {
	prog := assemble(
		Instruction{Op: OpLC, A: 0, B: reg(0)},
		Instruction{Op: OpLC, A: 0, B: reg(1)},
		Instruction{Op: OpEXP, A: reg(0), B: reg(1)},
	)
	e := newScenarioEngine(t, prog)
	stepN(t, e, 3)
	if e.Register(Accumulator) != 1 {
		t.Fatalf("0^0 = %d, want 1", e.Register(Accumulator))
	}
}

func TestExpWraps(t *testing.T) {
	prog := assemble(
		Instruction{Op: OpLC, A: 2, B: reg(0)},
		Instruction{Op: OpLC, A: 32, B: reg(1)},
		Instruction{Op: OpEXP, A: reg(0), B: reg(1)},
	)
	e := newScenarioEngine(t, prog)
	stepN(t, e, 3)
	if e.Register(Accumulator) != 0 {
		t.Fatalf("2^32 mod 2^32 = %#x, want 0", e.Register(Accumulator))
	}
}

func TestReservedOpcodeTraps(t *testing.T) {
	prog := assemble(Instruction{Op: OpReserved})
	e := newScenarioEngine(t, prog)
	_, err := e.Step()
	te, ok := err.(*TrapError)
	if !ok || te.Kind != TrapReservedOpcode {
		t.Fatalf("expected ReservedOpcode trap, got %v", err)
	}
}

func TestUnknownOpcodeTraps(t *testing.T) {
	prog := assemble(Instruction{Op: Opcode(0x00FF)})
	e := newScenarioEngine(t, prog)
	_, err := e.Step()
	te, ok := err.(*TrapError)
	if !ok || te.Kind != TrapUnknownOpcode {
		t.Fatalf("expected UnknownOpcode trap, got %v", err)
	}
}

func TestOutOfBoundsFetchTraps(t *testing.T) {
	e := newScenarioEngine(t, nil)
	e.SetPC(uint32(scenarioMemSize - 4)) // not enough room for a 10-byte fetch
	_, err := e.Step()
	te, ok := err.(*TrapError)
	if !ok || te.Kind != TrapOutOfBounds {
		t.Fatalf("expected OutOfBounds trap walking off memory, got %v", err)
	}
}

func TestBudgetExhausted(t *testing.T) {
	// An infinite loop: JMP back to self.
	prog := assemble(Instruction{Op: OpJMP, A: 0})
	e := newScenarioEngine(t, prog)
	res := e.Run(50)
	if res.Steps != 50 {
		t.Fatalf("Steps = %d, want 50", res.Steps)
	}
	te, ok := res.Err.(*TrapError)
	if !ok || te.Kind != TrapBudgetExhausted {
		t.Fatalf("expected BudgetExhausted trap, got %v", res.Err)
	}
}

func TestStackUnderflowOnBareRet(t *testing.T) {
	prog := assemble(Instruction{Op: OpRET})
	e := newScenarioEngine(t, prog)
	_, err := e.Step()
	te, ok := err.(*TrapError)
	if !ok || te.Kind != TrapStackUnderflow {
		t.Fatalf("expected StackUnderflow trap, got %v", err)
	}
}

func TestStackOverflowAtMemoryFloor(t *testing.T) {
	// PSH r0 at 0x08, JMP 0x08 at 0x12: loops until the stack, which
	// starts two words above address 0 just below the program, runs
	// into the memory floor on the third push.
	prog := assemble(
		Instruction{Op: OpPSH, A: reg(0)},
		Instruction{Op: OpJMP, A: 8},
	)
	e, err := New(8+len(prog), prog, 8, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	var trapErr error
	for i := 0; i < 10; i++ {
		if _, err := e.Step(); err != nil {
			trapErr = err
			break
		}
	}
	te, ok := trapErr.(*TrapError)
	if !ok || te.Kind != TrapStackOverflow {
		t.Fatalf("expected StackOverflow trap, got %v", trapErr)
	}
}

func TestPCAdvancesByTenOnNonBranchingInstructions(t *testing.T) {
	prog := assemble(
		Instruction{Op: OpLC, A: 1, B: reg(0)},
		Instruction{Op: OpLC, A: 2, B: reg(1)},
	)
	e := newScenarioEngine(t, prog)
	if _, err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if e.PC() != InstructionSize {
		t.Fatalf("PC after one step = %d, want %d", e.PC(), InstructionSize)
	}
}

func TestDeterminism(t *testing.T) {
	prog := assemble(
		Instruction{Op: OpLC, A: 11, B: reg(0)},
		Instruction{Op: OpLC, A: 31, B: reg(1)},
		Instruction{Op: OpMUL, A: reg(0), B: reg(1)},
		Instruction{Op: OpPSH, A: reg(0)},
		Instruction{Op: OpPOP, A: reg(2)},
	)
	run := func() (regs [NumRegisters]uint32, pc, sp uint32) {
		e := newScenarioEngine(t, prog)
		stepN(t, e, 5)
		return e.Registers(), e.PC(), e.SP()
	}
	regsA, pcA, spA := run()
	regsB, pcB, spB := run()
	if regsA != regsB || pcA != pcB || spA != spB {
		t.Fatal("two runs of the same program produced different final state")
	}
}

func TestCooperativeCancelHaltsCleanly(t *testing.T) {
	prog := assemble(Instruction{Op: OpJMP, A: 0})
	e := newScenarioEngine(t, prog)
	e.Cancel()
	res, err := e.Step()
	if err != nil {
		t.Fatalf("cooperative cancel should not produce a trap, got %v", err)
	}
	if res != Halted {
		t.Fatal("expected Halted after Cancel()")
	}
}
