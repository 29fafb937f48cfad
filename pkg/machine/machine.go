// Package machine implements the console computer's memory/port/bank
// dispatcher and lifecycle controller: the 64 KiB address space over
// eight 8 KiB banks, 256 I/O ports, the built-in bank-selector and
// console-I/O ports, and the Configuring/Running/Ended state machine
// described in SPEC_FULL.md.
package machine

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/minz/z80console/pkg/cpu"
)

const defaultStdinBuffer = 1 << 16 // 65536 bytes; see spec §4.6/§9.

// Machine is the root entity: ROM/RAM image sets, the bank table, the
// device registry, lifecycle flags, and the CPU Adapter.
type Machine struct {
	cpu *cpu.CPU

	rom imageSet
	ram imageSet

	banks            [8]byte
	ramStart, ramEnd uint8

	registry registry

	state      State
	returnCode byte

	stdin  *bufio.Reader
	stdout io.Writer
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithRAMCount sets the number of populated RAM pages (clamped to 1..256
// by SetRAMCount's rules). Default is 256.
func WithRAMCount(n int) Option {
	return func(m *Machine) { m.SetRAMCount(n) }
}

// WithBankSplit sets the initial RAM window (default 4..7, matching the
// original console computer's default of four ROM banks followed by four
// RAM banks).
func WithBankSplit(ramStart, ramEnd int) Option {
	return func(m *Machine) { m.ResetBanks(ramStart, ramEnd) }
}

// WithStdin overrides the console port's input source (default os.Stdin).
// Intended for embedders and tests that want to script guest input
// without touching the real terminal.
func WithStdin(r io.Reader) Option {
	return func(m *Machine) { m.stdin = bufio.NewReaderSize(r, defaultStdinBuffer) }
}

// WithStdout overrides the console port's output sink (default os.Stdout).
func WithStdout(w io.Writer) Option {
	return func(m *Machine) { m.stdout = w }
}

// New constructs a Machine in the Configuring state with 256 RAM pages,
// no ROM pages, the default 4..7 RAM bank window, and stdio wired to the
// process's real stdin/stdout.
func New(opts ...Option) *Machine {
	m := &Machine{
		stdin:  bufio.NewReaderSize(os.Stdin, defaultStdinBuffer),
		stdout: os.Stdout,
	}
	m.ram.count = 256
	m.ramStart, m.ramEnd = 4, 7
	m.applyBankLayout()

	for _, opt := range opts {
		opt(m)
	}

	m.cpu = cpu.New(m.readByte, m.writeByte, m.inPort, m.outPort, m.rawReadByte)
	m.cpu.SetReturnHandler(m.onReturn)
	// The guest entry point is invoked as a subroutine from an implicit
	// reset vector with SP initialised to zero (spec §4.5): a RET with no
	// pushed return address is how guest code signals it is done.
	m.cpu.SetPC(0)
	m.cpu.SetSP(0)
	return m
}

// CPU exposes the underlying CPU Adapter, e.g. for a CLI front-end that
// wants to set a consume-clock callback or debug sink.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// AddROMData appends data to the ROM image set, 8 KiB page at a time,
// zero-padding the final page if data is not a page multiple. Up to 256
// pages total are accepted; data beyond that is dropped, matching the
// original's silent cap. Returns false without mutating state once the
// machine has started.
func (m *Machine) AddROMData(data []byte) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.rom.append(data)
	return true
}

// LoadROMFile reads a ROM image from disk and appends it via AddROMData.
// It returns the number of ROM pages now populated.
func (m *Machine) LoadROMFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return m.rom.count, fmt.Errorf("z80console: load rom %s: %w", path, err)
	}
	if len(data) == 0 {
		return m.rom.count, fmt.Errorf("z80console: load rom %s: %w", path, ErrNoROM)
	}
	if !m.AddROMData(data) {
		return m.rom.count, fmt.Errorf("z80console: load rom %s: %w", path, ErrAlreadyStarted)
	}
	return m.rom.count, nil
}

// SetRAMCount configures how many of the 256 RAM pages are populated,
// clamped to [1, 256]. Returns false without mutating state once the
// machine has started.
func (m *Machine) SetRAMCount(count int) bool {
	if m.state != StateConfiguring {
		return false
	}
	switch {
	case count < 1:
		m.ram.count = 1
	case count > 256:
		m.ram.count = 256
	default:
		m.ram.count = count
	}
	return true
}

// ROMCount returns the number of populated ROM pages.
func (m *Machine) ROMCount() int { return m.rom.count }

// RAMCount returns the configured number of RAM pages.
func (m *Machine) RAMCount() int { return m.ram.count }

// Banks returns a copy of the current eight bank selectors.
func (m *Machine) Banks() [8]byte { return m.banks }
