package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrelvm/ie10/engine"
)

// writeProgram assembles a raw instruction stream into a temp .bin file
// and returns its path, mirroring how a scenario script points
// load_program at an on-disk image.
func writeProgram(t *testing.T, instrs ...engine.Instruction) string {
	t.Helper()
	var buf []byte
	for _, in := range instrs {
		word := engine.Encode(in)
		buf = append(buf, word[:]...)
	}
	path := filepath.Join(t.TempDir(), "program.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func reg(i int) uint32 { return uint32(byte(i)) }

func TestScenarioAViaLua(t *testing.T) {
	path := writeProgram(t,
		engine.Instruction{Op: engine.OpLC, A: 42, B: reg(0)},
		engine.Instruction{Op: engine.OpCPY, A: reg(0), B: reg(5)},
	)
	r := New()
	defer r.Close()
	script := `
load_program("` + path + `", 4096, 0, 0, 4096)
run(2)
expect_reg(0, 42)
expect_reg(5, 42)
expect_pc(20)
`
	if err := r.RunString(script); err != nil {
		t.Fatal(err)
	}
}

func TestScenarioEViaLua(t *testing.T) {
	path := writeProgram(t,
		engine.Instruction{Op: engine.OpLC, A: 5, B: reg(0)},
		engine.Instruction{Op: engine.OpLC, A: 0, B: reg(1)},
		engine.Instruction{Op: engine.OpDIV, A: reg(0), B: reg(1)},
	)
	r := New()
	defer r.Close()
	script := `
load_program("` + path + `", 4096, 0, 0, 4096)
run(3)
expect_trap("DivideByZero")
expect_pc(20)
`
	if err := r.RunString(script); err != nil {
		t.Fatal(err)
	}
}

func TestScenarioFromTestdataFile(t *testing.T) {
	path := writeProgram(t,
		engine.Instruction{Op: engine.OpLC, A: 7, B: reg(1)},
		engine.Instruction{Op: engine.OpLC, A: 3, B: reg(2)},
		engine.Instruction{Op: engine.OpADD, A: reg(1), B: reg(2)},
	)
	fixture := filepath.Join(t.TempDir(), "accumulator.lua")
	body := `
load_program("` + path + `", 4096, 0, 0, 4096)
run(3)
expect_reg(15, 10)
`
	if err := os.WriteFile(fixture, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New()
	defer r.Close()
	if err := r.RunFile(fixture); err != nil {
		t.Fatal(err)
	}
}

// TestTestdataScenarios runs every fixture under testdata/ end to end.
// Each .lua file is self-contained (load_hex embeds its own program),
// so a bare RunFile is the whole test.
func TestTestdataScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/*.lua")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no testdata fixtures found")
	}
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			r := New()
			defer r.Close()
			if err := r.RunFile(f); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestExpectTrapFailsLoudlyOnMismatch(t *testing.T) {
	path := writeProgram(t, engine.Instruction{Op: engine.OpRET})
	r := New()
	defer r.Close()
	script := `
load_program("` + path + `", 4096, 0, 0, 4096)
run(1)
expect_trap("DivideByZero")
`
	if err := r.RunString(script); err == nil {
		t.Fatal("expected expect_trap to fail: script asserted the wrong trap kind")
	}
}
