package machine

// consoleRead implements the built-in line-read port (IN 0x0F, spec
// §4.3/§4.6): prompt the host, read one newline-terminated line, and copy
// up to min(line length, BC) bytes into guest memory starting at HL,
// advancing HL by the number of bytes copied. The trailing newline counts
// toward the copy length; the guest trims it. End-of-file or any other
// host read failure degrades to an empty line rather than surfacing an
// error (spec §7, HostIoFailure).
func (m *Machine) consoleRead() byte {
	m.stdout.Write([]byte("> "))

	line, err := m.stdin.ReadString('\n')
	if err != nil {
		line = ""
	}

	addr := m.cpu.HL()
	maxLength := m.cpu.BC()
	n := len(line)
	if n > int(maxLength) {
		n = int(maxLength)
	}
	for i := 0; i < n; i++ {
		m.writeByte(addr, line[i])
		addr++
	}
	m.cpu.SetHL(addr)
	return 0
}

// consoleWrite implements the built-in length-prefixed write port (OUT
// 0x0F): read count bytes from guest memory starting at HL and write them
// verbatim to host stdout. HL is not advanced — the original convention
// treats it as a scratch read cursor, not a register the guest can chain
// subsequent calls against.
func (m *Machine) consoleWrite(count byte) {
	addr := m.cpu.HL()
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = m.readByte(addr)
		addr++
	}
	m.stdout.Write(buf)
}
