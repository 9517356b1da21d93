// Command ie10run loads a raw ie10 program image, runs it to completion
// or trap, and prints the final register file. It is a headless host:
// no interactive debugger, just load, run, report — though on request
// it will disassemble the single faulting instruction of a trap, or
// resume from a prior snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/kestrelvm/ie10/config"
	"github.com/kestrelvm/ie10/engine"
	"github.com/kestrelvm/ie10/scenario"
)

// stamp returns the millisecond-precision clock reading the teacher's
// cpu_ie32.go prefixes its own Push/Pop overflow diagnostics with.
func stamp() string { return time.Now().Format("15:04:05.000") }

func main() {
	configPath := flag.String("config", "", "TOML config file (see config.Config); flags below override its fields")
	program := flag.String("program", "", "path to a raw program image (overrides config's program field)")
	maxSteps := flag.Int("max-steps", 0, "step budget override, 0 keeps the config/default value")
	dumpAddr := flag.Uint("dump-addr", 0, "memory address to dump after the run")
	dumpLen := flag.Int("dump-len", 0, "number of bytes to dump from dump-addr")
	snapshotOut := flag.String("snapshot", "", "write a CBOR engine.Snapshot to this path after the run")
	scenarioFile := flag.String("scenario", "", "run a Lua scenario file instead of a raw program image")
	disasmTrap := flag.Bool("disasm-trap", false, "disassemble the faulting instruction on a trap")
	resume := flag.String("resume", "", "resume from a CBOR engine.Snapshot instead of starting fresh")
	printReg := flag.String("print-reg", "", "print a single named register after the run (R0-R14, ACC, PC, SP)")
	namedRegisters := flag.Bool("named-registers", false, "print the register dump as named entries instead of r00-r15")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s Usage: ie10run [options]\n\nRuns an ie10 program to completion or trap.\n\nOptions:\n", stamp())
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s Examples:\n", stamp())
		fmt.Fprintf(os.Stderr, "%s   ie10run -program prog.bin -max-steps 100000\n", stamp())
		fmt.Fprintf(os.Stderr, "%s   ie10run -config run.toml -snapshot state.cbor\n", stamp())
		fmt.Fprintf(os.Stderr, "%s   ie10run -scenario scenario/testdata/scenario_a_constant_load_and_copy.lua\n", stamp())
	}
	flag.Parse()

	if *scenarioFile != "" {
		runScenario(*scenarioFile)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s ie10run: %v\n", stamp(), err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *program != "" {
		cfg.Program = *program
	}
	if *maxSteps > 0 {
		cfg.MaxSteps = *maxSteps
	}
	if *dumpLen > 0 {
		cfg.DumpAddr = uint32(*dumpAddr)
		cfg.DumpLen = *dumpLen
	}
	if *snapshotOut != "" {
		cfg.SnapshotOut = *snapshotOut
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s ie10run: %v\n", stamp(), err)
		os.Exit(1)
	}

	var eng *engine.Engine
	if *resume != "" {
		var err error
		eng, err = resumeEngine(cfg, *resume)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s ie10run: %v\n", stamp(), err)
			os.Exit(1)
		}
	} else {
		if cfg.Program == "" {
			fmt.Fprintf(os.Stderr, "%s ie10run: no program given (-program or config's program field)\n", stamp())
			os.Exit(1)
		}
		data, err := os.ReadFile(cfg.Program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s ie10run: %v\n", stamp(), err)
			os.Exit(1)
		}
		eng, err = engine.New(cfg.MemorySize, data, cfg.Base, cfg.InitialPC, cfg.InitialSP)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s ie10run: %v\n", stamp(), err)
			os.Exit(1)
		}
	}

	res := runCooperatively(eng, cfg.MaxSteps)

	printResult(eng, res, *disasmTrap, *namedRegisters)

	if *printReg != "" {
		printNamedRegister(eng, *printReg)
	}

	if cfg.DumpLen > 0 {
		printDump(eng, cfg.DumpAddr, cfg.DumpLen)
	}

	if cfg.SnapshotOut != "" {
		if err := writeSnapshot(eng, cfg, res.Err); err != nil {
			fmt.Fprintf(os.Stderr, "%s ie10run: writing snapshot: %v\n", stamp(), err)
			os.Exit(1)
		}
	}

	os.Exit(exitCode(res.Err))
}

// resumeEngine builds an engine from cfg (for its memory size and base
// load address) and then overwrites its state from a CBOR snapshot
// file, the counterpart to writeSnapshot's -snapshot output.
func resumeEngine(cfg config.Config, path string) (*engine.Engine, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	snap, err := engine.UnmarshalSnapshot(blob)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	eng, err := engine.New(cfg.MemorySize, nil, cfg.Base, cfg.InitialPC, cfg.InitialSP)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	if err := engine.Restore(eng, snap); err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	return eng, nil
}

// runCooperatively runs the engine on a goroutine and wires SIGINT to
// engine.Cancel(): the engine itself never touches signals, a host
// does.
func runCooperatively(eng *engine.Engine, maxSteps int) engine.RunResult {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, done := context.WithCancel(ctx)
	defer done()

	var res engine.RunResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = eng.Run(maxSteps)
		done() // release the signal watcher once the run is over
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		eng.Cancel()
		return nil
	})
	_ = g.Wait()
	return res
}

func printResult(eng *engine.Engine, res engine.RunResult, disasmTrap, named bool) {
	colorize := term.IsTerminal(int(os.Stdout.Fd()))
	if res.Err != nil {
		if colorize {
			fmt.Printf("%s \x1b[31mtrap:\x1b[0m %v\n", stamp(), res.Err)
		} else {
			fmt.Printf("%s trap: %v\n", stamp(), res.Err)
		}
		if te, ok := res.Err.(*engine.TrapError); ok && disasmTrap {
			printFaultingInstruction(eng, te)
		}
	} else {
		fmt.Printf("%s halted cleanly (cooperative cancel)\n", stamp())
	}
	fmt.Printf("%s steps executed: %d\n", stamp(), eng.Steps())
	if named {
		for _, r := range eng.GetRegisters() {
			fmt.Printf("%-3s = %#010x\n", r.Name, r.Value)
		}
		return
	}
	fmt.Print(eng.DumpRegisters())
}

// printFaultingInstruction disassembles the word at the trap's PC,
// the "trap diagnostics" consumer disasm.go's own doc comment
// describes it as feeding.
func printFaultingInstruction(eng *engine.Engine, te *engine.TrapError) {
	word, err := eng.ReadMemory(te.PC, engine.InstructionSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s ie10run: disasm: %v\n", stamp(), err)
		return
	}
	fmt.Printf("%s faulting instruction: %s\n", stamp(), engine.Disassemble(te.PC, word))
}

func printNamedRegister(eng *engine.Engine, name string) {
	v, ok := eng.GetRegister(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s ie10run: unknown register %q\n", stamp(), name)
		return
	}
	fmt.Printf("%s %s = %#010x\n", stamp(), name, v)
}

func printDump(eng *engine.Engine, addr uint32, n int) {
	data, err := eng.ReadMemory(addr, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s ie10run: dump: %v\n", stamp(), err)
		return
	}
	fmt.Printf("%s memory %#08x..%#08x:\n", stamp(), addr, addr+uint32(n))
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("  %#08x: % x\n", addr+uint32(i), data[i:end])
	}
}

func writeSnapshot(eng *engine.Engine, cfg config.Config, runErr error) error {
	snap, err := engine.TakeSnapshot(eng, cfg.Base, cfg.MemorySize, runErr)
	if err != nil {
		return err
	}
	blob, err := engine.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.SnapshotOut, blob, 0o644)
}

func runScenario(path string) {
	r := scenario.New()
	defer r.Close()
	if err := r.RunFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "%s ie10run: scenario failed: %v\n", stamp(), err)
		os.Exit(1)
	}
	fmt.Printf("%s scenario %s: ok\n", stamp(), path)
}

// exitCode maps a trap kind to a distinct process exit status so a
// calling script can tell traps apart without parsing stderr.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	te, ok := err.(*engine.TrapError)
	if !ok {
		return 1
	}
	switch te.Kind {
	case engine.TrapOutOfBounds:
		return 2
	case engine.TrapReservedOpcode:
		return 3
	case engine.TrapUnknownOpcode:
		return 4
	case engine.TrapDivideByZero:
		return 5
	case engine.TrapStackUnderflow:
		return 6
	case engine.TrapStackOverflow:
		return 7
	case engine.TrapBudgetExhausted:
		return 8
	default:
		return 1
	}
}
