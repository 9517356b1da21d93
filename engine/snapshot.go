// snapshot.go - CBOR-encoded machine state, for host save/restore and crash dumps
//
// Generalizes the teacher's debug_snapshot.go (a hand-rolled
// magic+gzip binary format tied to one struct) into a self-describing
// CBOR document, the same encoding chazu-maggie/vm/dist/wire.go uses
// for its wire types.
package engine

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("engine: failed to build CBOR encode mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures everything needed to resume or inspect a run: the
// register file, PC, SP, and a caller-chosen memory window (typically
// the whole address space for small images, or just the program and
// stack regions for large ones).
type Snapshot struct {
	Registers  [NumRegisters]uint32 `cbor:"registers"`
	PC         uint32               `cbor:"pc"`
	SP         uint32               `cbor:"sp"`
	MemBase    uint32               `cbor:"mem_base"`
	Memory     []byte               `cbor:"memory"`
	Halted     bool                 `cbor:"halted"`
	Steps      uint64               `cbor:"steps"`
	TrapKind   string               `cbor:"trap_kind,omitempty"`
	TrapDetail string               `cbor:"trap_detail,omitempty"`
}

// TakeSnapshot captures engine state, including the memory window
// [memBase, memBase+memLen).
func TakeSnapshot(e *Engine, memBase uint32, memLen int, runErr error) (*Snapshot, error) {
	mem, err := e.ReadMemory(memBase, memLen)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading memory window: %w", err)
	}
	snap := &Snapshot{
		Registers: e.Registers(),
		PC:        e.pc,
		SP:        e.stack.SP(),
		MemBase:   memBase,
		Memory:    mem,
		Halted:    e.halted,
		Steps:     e.steps,
	}
	if te, ok := runErr.(*TrapError); ok {
		snap.TrapKind = te.Kind.String()
		snap.TrapDetail = te.Detail
	}
	return snap, nil
}

// Restore writes a snapshot's registers, PC, SP and memory window back
// into e. It does not clear memory outside the window.
func Restore(e *Engine, snap *Snapshot) error {
	for i, v := range snap.Registers {
		e.SetRegister(i, v)
	}
	e.SetPC(snap.PC)
	e.SetSP(snap.SP)
	if len(snap.Memory) > 0 {
		if err := e.WriteMemory(snap.MemBase, snap.Memory); err != nil {
			return fmt.Errorf("snapshot: restoring memory window: %w", err)
		}
	}
	e.halted = snap.Halted
	e.steps = snap.Steps
	return nil
}

// MarshalSnapshot encodes snap as canonical CBOR.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(snap)
}

// UnmarshalSnapshot decodes a CBOR-encoded Snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &snap, nil
}
