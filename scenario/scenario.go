// Package scenario runs small Lua scripts against an engine.Engine to
// express end-to-end scenarios (load a program, poke some state, run a
// budget, assert the result) as data-driven fixtures instead of
// hand-written Go for each one.
//
// This plays the same role the teacher's debug_conditions.go
// breakpoint-condition mini-language plays for its own monitor,
// generalized to a full embedded scripting language (gopher-lua)
// because scenarios need loops and multi-step assertions a single
// condition expression cannot express.
package scenario

import (
	"encoding/hex"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/kestrelvm/ie10/engine"
)

// Runner wires a Lua state to a single engine.Engine instance, exposing
// a small fixed vocabulary of Go functions to the script.
type Runner struct {
	L       *lua.LState
	eng     *engine.Engine
	lastErr error
}

// New creates a Runner with an empty Lua environment. Call RunFile or
// RunString to execute a scenario script against it.
func New() *Runner {
	r := &Runner{L: lua.NewState()}
	r.register()
	return r
}

// Close releases the underlying Lua state.
func (r *Runner) Close() { r.L.Close() }

// Engine returns the engine constructed by the script's load_program
// or load_hex call, or nil if the script called neither.
func (r *Runner) Engine() *engine.Engine { return r.eng }

func (r *Runner) register() {
	L := r.L
	L.SetGlobal("load_program", L.NewFunction(r.luaLoadProgram))
	L.SetGlobal("load_hex", L.NewFunction(r.luaLoadHex))
	L.SetGlobal("poke_reg", L.NewFunction(r.luaPokeReg))
	L.SetGlobal("peek_reg", L.NewFunction(r.luaPeekReg))
	L.SetGlobal("poke_mem", L.NewFunction(r.luaPokeMem))
	L.SetGlobal("peek_mem", L.NewFunction(r.luaPeekMem))
	L.SetGlobal("run", L.NewFunction(r.luaRun))
	L.SetGlobal("pc", L.NewFunction(r.luaPC))
	L.SetGlobal("sp", L.NewFunction(r.luaSP))
	L.SetGlobal("expect_reg", L.NewFunction(r.luaExpectReg))
	L.SetGlobal("expect_pc", L.NewFunction(r.luaExpectPC))
	L.SetGlobal("expect_sp", L.NewFunction(r.luaExpectSP))
	L.SetGlobal("expect_trap", L.NewFunction(r.luaExpectTrap))
}

// RunFile loads and executes a Lua scenario file.
func (r *Runner) RunFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("scenario %s: %w", path, err)
	}
	return nil
}

// RunString executes a Lua scenario given as a string, used by tests
// that want an inline fixture rather than a testdata file.
func (r *Runner) RunString(src string) error {
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	return nil
}

func (r *Runner) luaLoadProgram(L *lua.LState) int {
	path := L.CheckString(1)
	memSize := L.CheckInt(2)
	base := uint32(L.CheckInt(3))
	pc0 := uint32(L.CheckInt(4))
	sp0 := uint32(L.CheckInt(5))

	data, err := os.ReadFile(path)
	if err != nil {
		L.RaiseError("load_program: reading %s: %v", path, err)
		return 0
	}
	eng, err := engine.New(memSize, data, base, pc0, sp0)
	if err != nil {
		L.RaiseError("load_program: %v", err)
		return 0
	}
	r.eng = eng
	r.lastErr = nil
	return 0
}

// luaLoadHex builds the engine straight from a hex-encoded byte string,
// letting a scenario fixture embed its program inline instead of
// pointing at a sibling .bin file.
func (r *Runner) luaLoadHex(L *lua.LState) int {
	hexStr := L.CheckString(1)
	memSize := L.CheckInt(2)
	base := uint32(L.CheckInt(3))
	pc0 := uint32(L.CheckInt(4))
	sp0 := uint32(L.CheckInt(5))

	data, err := hex.DecodeString(hexStr)
	if err != nil {
		L.RaiseError("load_hex: %v", err)
		return 0
	}
	eng, err := engine.New(memSize, data, base, pc0, sp0)
	if err != nil {
		L.RaiseError("load_hex: %v", err)
		return 0
	}
	r.eng = eng
	r.lastErr = nil
	return 0
}

func (r *Runner) requireEngine(L *lua.LState) *engine.Engine {
	if r.eng == nil {
		L.RaiseError("no engine loaded: call load_program first")
	}
	return r.eng
}

func (r *Runner) luaPokeReg(L *lua.LState) int {
	eng := r.requireEngine(L)
	idx := L.CheckInt(1)
	val := uint32(L.CheckInt(2))
	eng.SetRegister(idx, val)
	return 0
}

func (r *Runner) luaPeekReg(L *lua.LState) int {
	eng := r.requireEngine(L)
	idx := L.CheckInt(1)
	L.Push(lua.LNumber(eng.Register(idx)))
	return 1
}

func (r *Runner) luaPokeMem(L *lua.LState) int {
	eng := r.requireEngine(L)
	addr := uint32(L.CheckInt(1))
	val := uint32(L.CheckInt(2))
	var word [4]byte
	word[0] = byte(val >> 24)
	word[1] = byte(val >> 16)
	word[2] = byte(val >> 8)
	word[3] = byte(val)
	if err := eng.WriteMemory(addr, word[:]); err != nil {
		L.RaiseError("poke_mem: %v", err)
	}
	return 0
}

func (r *Runner) luaPeekMem(L *lua.LState) int {
	eng := r.requireEngine(L)
	addr := uint32(L.CheckInt(1))
	data, err := eng.ReadMemory(addr, 4)
	if err != nil {
		L.RaiseError("peek_mem: %v", err)
		return 0
	}
	v := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	L.Push(lua.LNumber(v))
	return 1
}

func (r *Runner) luaRun(L *lua.LState) int {
	eng := r.requireEngine(L)
	budget := L.CheckInt(1)
	res := eng.Run(budget)
	r.lastErr = res.Err
	L.Push(lua.LNumber(res.Steps))
	if te, ok := res.Err.(*engine.TrapError); ok {
		L.Push(lua.LString(te.Kind.String()))
	} else {
		L.Push(lua.LString(""))
	}
	return 2
}

func (r *Runner) luaPC(L *lua.LState) int {
	L.Push(lua.LNumber(r.requireEngine(L).PC()))
	return 1
}

func (r *Runner) luaSP(L *lua.LState) int {
	L.Push(lua.LNumber(r.requireEngine(L).SP()))
	return 1
}

func (r *Runner) luaExpectReg(L *lua.LState) int {
	eng := r.requireEngine(L)
	idx := L.CheckInt(1)
	want := uint32(L.CheckInt(2))
	got := eng.Register(idx)
	if got != want {
		L.RaiseError("expect_reg(%d): got %#08x, want %#08x", idx, got, want)
	}
	return 0
}

func (r *Runner) luaExpectPC(L *lua.LState) int {
	eng := r.requireEngine(L)
	want := uint32(L.CheckInt(1))
	if got := eng.PC(); got != want {
		L.RaiseError("expect_pc: got %#08x, want %#08x", got, want)
	}
	return 0
}

func (r *Runner) luaExpectSP(L *lua.LState) int {
	eng := r.requireEngine(L)
	want := uint32(L.CheckInt(1))
	if got := eng.SP(); got != want {
		L.RaiseError("expect_sp: got %#08x, want %#08x", got, want)
	}
	return 0
}

func (r *Runner) luaExpectTrap(L *lua.LState) int {
	want := L.CheckString(1)
	got := ""
	if te, ok := r.lastErr.(*engine.TrapError); ok {
		got = te.Kind.String()
	}
	if got != want {
		L.RaiseError("expect_trap: got %q, want %q", got, want)
	}
	return 0
}
