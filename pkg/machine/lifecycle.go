package machine

import "github.com/minz/z80console/pkg/cpu"

// State tracks the Machine's position in the Configuring -> Running ->
// Ended lifecycle (spec §4.5, recommended as an enum rather than the
// original's scattered startFlag/endFlag booleans).
type State int

const (
	StateConfiguring State = iota
	StateRunning
	StateEnded
)

// Execute drives the CPU for up to clocks T-states, firing start handlers
// on the very first call. Returns 0 without touching the CPU if no ROM
// has been loaded or the machine has already ended.
func (m *Machine) Execute(clocks int) int {
	if m.rom.count == 0 || m.state == StateEnded {
		return 0
	}
	if m.state == StateConfiguring {
		for _, h := range m.registry.startHandlers {
			h(m)
		}
		m.state = StateRunning
	}
	return m.cpu.Execute(clocks)
}

// onReturn is the CPU Adapter's return-instruction hook, registered once
// at construction (not a guest-registrable device). It implements the
// "RET with SP==0" shutdown convention: A is taken as the exit code.
func (m *Machine) onReturn(c *cpu.CPU) {
	if m.state != StateRunning {
		return
	}
	for _, h := range m.registry.endHandlers {
		h(m)
	}
	m.returnCode = c.A()
	m.state = StateEnded
	c.RequestBreak()
}

// Reset transitions the machine back to Configuring: RAM is zeroed, the
// device registry is cleared, CPU registers are reset, the current bank
// configuration is reapplied, and started/ended flags are cleared.
//
// Deviation from the original (see DESIGN.md Open Question 2): end
// handlers fire exactly once per shutdown. A reset of an already-ended
// machine does not fire them a second time — it is a silent state clear.
func (m *Machine) Reset() {
	m.ram.zero()
	m.registry = registry{}
	m.cpu.ResetRegisters()
	m.cpu.SetPC(0)
	m.cpu.SetSP(0)
	m.applyBankLayout()
	m.state = StateConfiguring
}

// IsStarted reports whether Execute has moved the machine out of the
// Configuring state (with ROM loaded) since construction or the last Reset.
func (m *Machine) IsStarted() bool { return m.state != StateConfiguring }

// IsEnded reports whether the shutdown convention has fired.
func (m *Machine) IsEnded() bool { return m.state == StateEnded }

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// ReturnCode returns the accumulator value captured at shutdown.
func (m *Machine) ReturnCode() byte { return m.returnCode }
