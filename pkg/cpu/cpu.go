// Package cpu adapts github.com/remogatto/z80 to the callback-driven
// contract a console machine needs: four memory/port callbacks, register
// accessors, a budgeted Execute loop, and a return-instruction hook used to
// implement a guest shutdown convention.
package cpu

import (
	"fmt"

	"github.com/remogatto/z80"
)

// ReadMemFunc and friends are the four callbacks the adapter drives the
// real Z80 core through. The embedder (here, pkg/machine) supplies them;
// the adapter never decodes addresses or ports itself.
type (
	ReadMemFunc  func(addr uint16) byte
	WriteMemFunc func(addr uint16, value byte)
	InFunc       func(port byte) byte
	OutFunc      func(port byte, value byte)
)

// ReturnHandler is invoked when the core is about to execute a return
// instruction (RET, RETI, RETN) with SP()==0 — see Execute.
type ReturnHandler func(c *CPU)

// CPU wraps the remogatto/z80 core.
type CPU struct {
	core *z80.Z80
	mem  *memAccessor
	io   *portAccessor
	peek ReadMemFunc

	returnHandlers []ReturnHandler
	breakRequested bool

	consumeClock func(clocks int)
	debugMessage func(msg string)
}

// New constructs a CPU wired to the given memory/port callbacks. peek is a
// side-effect-free raw memory read used only to probe for a pending return
// instruction (see Execute); the embedder supplies one that bypasses its
// device registry so that a device mapped over a code page is never
// consulted twice per instruction fetched from it.
func New(readMem ReadMemFunc, writeMem WriteMemFunc, in InFunc, out OutFunc, peek ReadMemFunc) *CPU {
	mem := &memAccessor{read: readMem, write: writeMem}
	io := &portAccessor{in: in, out: out}
	return &CPU{
		core: z80.NewZ80(mem, io),
		mem:  mem,
		io:   io,
		peek: peek,
	}
}

// --- z80.MemoryAccessor ---

type memAccessor struct {
	read  ReadMemFunc
	write WriteMemFunc
}

func (m *memAccessor) ReadByte(address uint16) byte { return m.read(address) }

func (m *memAccessor) WriteByte(address uint16, value byte) { m.write(address, value) }

func (m *memAccessor) ReadByteInternal(address uint16) byte { return m.read(address) }

func (m *memAccessor) WriteByteInternal(address uint16, value byte) { m.write(address, value) }

func (m *memAccessor) ContendRead(address uint16, time int)               {}
func (m *memAccessor) ContendReadNoMreq(address uint16, time int)         {}
func (m *memAccessor) ContendReadNoMreq_loop(address uint16, time int, count uint) {}
func (m *memAccessor) ContendWriteNoMreq(address uint16, time int)        {}
func (m *memAccessor) ContendWriteNoMreq_loop(address uint16, time int, count uint) {}

// --- z80.PortAccessor ---

type portAccessor struct {
	in  InFunc
	out OutFunc
}

func (p *portAccessor) ReadPort(address uint16) byte { return p.in(byte(address)) }

func (p *portAccessor) WritePort(address uint16, b byte) { p.out(byte(address), b) }

func (p *portAccessor) ReadPortInternal(address uint16, contend bool) byte {
	return p.in(byte(address))
}

func (p *portAccessor) WritePortInternal(address uint16, b byte, contend bool) {
	p.out(byte(address), b)
}

func (p *portAccessor) ContendPortPreio(address uint16)  {}
func (p *portAccessor) ContendPortPostio(address uint16) {}

// --- register accessors ---

func (c *CPU) A() byte      { return c.core.A }
func (c *CPU) F() byte      { return c.core.F }
func (c *CPU) B() byte      { return c.core.B }
func (c *CPU) C() byte      { return c.core.C }
func (c *CPU) D() byte      { return c.core.D }
func (c *CPU) E() byte      { return c.core.E }
func (c *CPU) H() byte      { return c.core.H }
func (c *CPU) L() byte      { return c.core.L }
func (c *CPU) BC() uint16   { return c.core.BC() }
func (c *CPU) DE() uint16   { return c.core.DE() }
func (c *CPU) HL() uint16   { return c.core.HL() }
func (c *CPU) IX() uint16   { return c.core.IX() }
func (c *CPU) IY() uint16   { return c.core.IY() }
func (c *CPU) SP() uint16   { return c.core.SP() }
func (c *CPU) PC() uint16   { return c.core.PC() }

func (c *CPU) SetPC(pc uint16) { c.core.SetPC(pc) }
func (c *CPU) SetSP(sp uint16) { c.core.SetSP(sp) }
func (c *CPU) SetHL(hl uint16) { c.core.SetHL(hl) }

// ReadByte and WriteByte let a port handler reach guest memory directly,
// per the CPU adapter contract in spec §6.
func (c *CPU) ReadByte(addr uint16) byte          { return c.mem.read(addr) }
func (c *CPU) WriteByte(addr uint16, value byte)  { c.mem.write(addr, value) }

// ResetRegisters resets the core's register file without touching guest
// memory (memory lives entirely behind the injected callbacks).
func (c *CPU) ResetRegisters() {
	c.core.Reset()
	c.breakRequested = false
}

// SetReturnHandler registers a callback fired when the core is about to
// execute a return instruction with SP()==0. Only unconditional RET,
// RETI, and RETN are recognized — see DESIGN.md Open Question 1.
func (c *CPU) SetReturnHandler(h ReturnHandler) {
	c.returnHandlers = append(c.returnHandlers, h)
}

// RequestBreak asks Execute to stop after finishing the instruction in
// flight.
func (c *CPU) RequestBreak() { c.breakRequested = true }

// SetConsumeClockCallback installs an optional wall-clock pacing hook,
// invoked with the T-states consumed by each instruction.
func (c *CPU) SetConsumeClockCallback(cb func(clocks int)) { c.consumeClock = cb }

// SetDebugMessage installs an optional trace sink.
func (c *CPU) SetDebugMessage(cb func(msg string)) { c.debugMessage = cb }

func (c *CPU) debugf(msg string) {
	if c.debugMessage != nil {
		c.debugMessage(msg)
	}
}

func formatTrace(pc, nextPC uint16, tstates int) string {
	return fmt.Sprintf("PC=%04X -> %04X (%d T)", pc, nextPC, tstates)
}

// isReturnOpcode probes via peek, never via the memAccessor's registry-backed
// read, so that a read-page handler mapped over executable code is not
// invoked a second time for the same instruction fetch (see Execute).
func isReturnOpcode(peek ReadMemFunc, pc uint16) bool {
	op := peek(pc)
	switch op {
	case 0xC9: // RET
		return true
	case 0xED:
		switch peek(pc + 1) {
		case 0x4D, 0x45: // RETI, RETN
			return true
		}
	}
	return false
}

// Execute runs whole instructions until budget T-states have been
// consumed, RequestBreak was called, or one instruction naturally
// completes at/after budget — whichever comes first. It returns the
// number of T-states actually consumed.
func (c *CPU) Execute(budget int) int {
	consumed := 0
	c.breakRequested = false
	for consumed < budget {
		if c.breakRequested {
			break
		}
		pc := c.core.PC()
		if isReturnOpcode(c.peek, pc) && c.core.SP() == 0 {
			for _, h := range c.returnHandlers {
				h(c)
			}
		}
		before := c.core.Tstates
		c.core.DoOpcode()
		used := c.core.Tstates - before
		consumed += used
		if c.consumeClock != nil {
			c.consumeClock(used)
		}
		if c.debugMessage != nil {
			c.debugf(formatTrace(pc, c.core.PC(), used))
		}
	}
	return consumed
}
