package machine

import "github.com/minz/z80console/pkg/cpu"

// Typed device extension points (spec §9: "callback-based extension ->
// typed variants"). Port handlers receive the CPU pointer so they can
// inspect guest registers and call ReadByte/WriteByte; memory-mapped and
// lifecycle handlers receive the Machine pointer so they can see the
// wider machine. This distinction is load-bearing — see spec §6.
type (
	InputFunc     func(c *cpu.CPU, port byte) byte
	OutputFunc    func(c *cpu.CPU, port byte, value byte)
	PageReadFunc  func(m *Machine, addr uint16) byte
	PageWriteFunc func(m *Machine, addr uint16, value byte)
	LifecycleFunc func(m *Machine)
)

// registry is the pre-start device table: 256 input ports, 256 output
// ports, 256 read pages, 256 write pages, plus ordered start/end handler
// lists. The zero value is an empty registry, which is what Reset
// restores it to.
type registry struct {
	inPort    [256]InputFunc
	outPort   [256]OutputFunc
	readPage  [256]PageReadFunc
	writePage [256]PageWriteFunc

	startHandlers []LifecycleFunc
	endHandlers   []LifecycleFunc
}

// AddInputDevice registers a handler for IN on the given port. Returns
// false (and leaves state untouched) once the machine has started.
func (m *Machine) AddInputDevice(port byte, fn InputFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.inPort[port] = fn
	return true
}

// AddOutputDevice registers a handler for OUT on the given port.
func (m *Machine) AddOutputDevice(port byte, fn OutputFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.outPort[port] = fn
	return true
}

// AddReadPage registers a handler for reads in the given 256-byte page
// (page = addr>>8).
func (m *Machine) AddReadPage(page byte, fn PageReadFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.readPage[page] = fn
	return true
}

// AddWritePage registers a handler for writes in the given 256-byte page.
func (m *Machine) AddWritePage(page byte, fn PageWriteFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.writePage[page] = fn
	return true
}

// AddStartHandler appends a handler fired, in insertion order, before the
// first CPU instruction of a run.
func (m *Machine) AddStartHandler(fn LifecycleFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.startHandlers = append(m.registry.startHandlers, fn)
	return true
}

// AddEndHandler appends a handler fired, in insertion order, when the
// shutdown convention (RET with SP==0) fires.
func (m *Machine) AddEndHandler(fn LifecycleFunc) bool {
	if m.state != StateConfiguring {
		return false
	}
	m.registry.endHandlers = append(m.registry.endHandlers, fn)
	return true
}
