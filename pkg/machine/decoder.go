package machine

// readByte and writeByte implement the Address Decoder (spec §4.1). They
// are the two of the CPU Adapter's four callbacks that touch memory; the
// other two (inPort/outPort) live in ports.go.
//
// Algorithm: page = (addr>>8)&0xFF selects a memory-mapped device page;
// window = (addr>>13)&0x7 selects a bank; offset = addr&0x1FFF indexes
// within the bank's backing image. Device pages take priority over the
// bank mapping. Before the machine has started, or after it has ended,
// reads return 0xFF and writes are dropped — this keeps handler callbacks
// from firing during configuration or during the tail of an in-flight
// instruction after shutdown.
func (m *Machine) readByte(addr uint16) byte {
	if m.state != StateRunning {
		return 0xFF
	}
	page := byte(addr >> 8)
	if fn := m.registry.readPage[page]; fn != nil {
		return fn(m, addr)
	}
	return m.rawReadByte(addr)
}

// rawReadByte resolves an address against the bank table only, skipping the
// read-page device registry entirely. The CPU Adapter uses this for its
// return-opcode probe (cpu.CPU.Execute) so that a device mapped over a code
// page is consulted once per instruction fetch, not twice: the normal fetch
// through readByte, plus a second one from the probe, would otherwise both
// land on the registered handler.
func (m *Machine) rawReadByte(addr uint16) byte {
	if m.state != StateRunning {
		return 0xFF
	}
	window := byte(addr>>13) & 0x7
	offset := addr & 0x1FFF
	index := int(m.banks[window])
	if m.isRAMWindow(window) {
		return m.ram.readByte(index, offset)
	}
	return m.rom.readByte(index, offset)
}

func (m *Machine) writeByte(addr uint16, value byte) {
	if m.state != StateRunning {
		return
	}
	page := byte(addr >> 8)
	if fn := m.registry.writePage[page]; fn != nil {
		fn(m, addr, value)
		return
	}
	window := byte(addr>>13) & 0x7
	offset := addr & 0x1FFF
	index := int(m.banks[window])
	if m.isRAMWindow(window) {
		m.ram.writeByte(index, offset, value)
	}
	// Writes to ROM windows are silently ignored.
}

func (m *Machine) isRAMWindow(window byte) bool {
	return m.ramStart <= window && window <= m.ramEnd
}
