// Package config loads the settings needed to construct and run an
// engine.Engine from a TOML file, the same shape chazu-maggie's
// manifest package uses for its own project configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds everything a host needs to construct and run an
// engine.Engine: memory size, program location, base load address,
// initial PC/SP, and a step budget for Run.
type Config struct {
	MemorySize int    `toml:"memory_size"`
	Program    string `toml:"program"`
	Base       uint32 `toml:"base"`
	InitialPC  uint32 `toml:"initial_pc"`
	InitialSP  uint32 `toml:"initial_sp"`
	MaxSteps   int    `toml:"max_steps"`

	// DumpAddr/DumpLen describe an optional memory window to print
	// after the run, e.g. for inspecting a result buffer.
	DumpAddr uint32 `toml:"dump_addr"`
	DumpLen  int    `toml:"dump_len"`

	// SnapshotOut, if set, is a path to write a CBOR engine.Snapshot
	// to after the run (see engine.TakeSnapshot).
	SnapshotOut string `toml:"snapshot_out"`
}

// Default returns the baseline configuration used when no TOML file is
// given: a 64KB address space, SP starting at the top of memory, PC at
// 0, and a generous but finite step budget.
func Default() Config {
	return Config{
		MemorySize: 64 * 1024,
		Base:       0,
		InitialPC:  0,
		InitialSP:  64 * 1024,
		MaxSteps:   1_000_000,
	}
}

// Load reads and parses a TOML config file, starting from Default()
// so a file only needs to override the fields it cares about.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether the configuration describes a runnable
// engine, catching mistakes (zero memory, SP outside memory) before
// engine.New ever sees them.
func (c Config) Validate() error {
	if c.MemorySize <= 0 {
		return fmt.Errorf("config: memory_size must be positive, got %d", c.MemorySize)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("config: max_steps must be positive, got %d", c.MaxSteps)
	}
	if uint64(c.InitialSP) > uint64(c.MemorySize) {
		return fmt.Errorf("config: initial_sp %#x exceeds memory_size %#x", c.InitialSP, c.MemorySize)
	}
	return nil
}
