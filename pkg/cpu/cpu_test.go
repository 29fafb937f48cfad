package cpu

import "testing"

// fixedMemory backs a flat 64 KiB array so tests can write instruction
// streams without going through a full machine.Machine.
type fixedMemory struct {
	data [65536]byte
}

func TestExecuteRunsUntilBudgetExhausted(t *testing.T) {
	var mem fixedMemory
	// LD A,1 (7T) repeated; NOP-free loop so we can count instructions.
	for i := 0; i < 100; i++ {
		mem.data[i*2] = 0x3E
		mem.data[i*2+1] = 0x01
	}

	c := New(
		func(addr uint16) byte { return mem.data[addr] },
		func(addr uint16, v byte) { mem.data[addr] = v },
		func(port byte) byte { return 0xFF },
		func(port byte, v byte) {},
		func(addr uint16) byte { return mem.data[addr] },
	)

	consumed := c.Execute(50)
	if consumed < 50 {
		t.Fatalf("consumed = %d, want at least 50", consumed)
	}
}

func TestReturnHandlerFiresOnlyWhenSPIsZero(t *testing.T) {
	var mem fixedMemory
	mem.data[0] = 0xC9 // RET

	var fired int
	c := New(
		func(addr uint16) byte { return mem.data[addr] },
		func(addr uint16, v byte) { mem.data[addr] = v },
		func(port byte) byte { return 0xFF },
		func(port byte, v byte) {},
		func(addr uint16) byte { return mem.data[addr] },
	)
	c.SetReturnHandler(func(c *CPU) {
		fired++
		c.RequestBreak()
	})
	c.SetPC(0)
	c.SetSP(0)

	c.Execute(1000)

	if fired != 1 {
		t.Fatalf("handler fired %d times, want 1", fired)
	}
}

func TestReturnHandlerDoesNotFireWithNonZeroSP(t *testing.T) {
	var mem fixedMemory
	// A tight loop that never reaches a RET, to bound the test without
	// relying on the handler to stop it: JP 0x0000 (3 bytes).
	mem.data[0] = 0xC3
	mem.data[1] = 0x00
	mem.data[2] = 0x00

	var fired int
	c := New(
		func(addr uint16) byte { return mem.data[addr] },
		func(addr uint16, v byte) { mem.data[addr] = v },
		func(port byte) byte { return 0xFF },
		func(port byte, v byte) {},
		func(addr uint16) byte { return mem.data[addr] },
	)
	c.SetReturnHandler(func(c *CPU) { fired++ })
	c.SetPC(0)
	c.SetSP(1) // non-zero: the shutdown convention must not trigger

	c.Execute(100)

	if fired != 0 {
		t.Fatalf("handler fired %d times, want 0", fired)
	}
}

func TestReturnProbeUsesPeekNotMainReadPath(t *testing.T) {
	var mem fixedMemory
	mem.data[0] = 0x00 // NOP: the opcode DoOpcode actually fetches and runs

	var mainReads, peekReads int
	var fired int
	c := New(
		func(addr uint16) byte { mainReads++; return mem.data[addr] },
		func(addr uint16, v byte) { mem.data[addr] = v },
		func(port byte) byte { return 0xFF },
		func(port byte, v byte) {},
		func(addr uint16) byte { peekReads++; return 0xC9 }, // probe always reports RET
	)
	c.SetReturnHandler(func(c *CPU) {
		fired++
		c.RequestBreak()
	})
	c.SetPC(0)
	c.SetSP(0)

	c.Execute(1000)

	if fired != 1 {
		t.Fatalf("handler fired %d times, want 1 (driven by peek, not the registry-backed read)", fired)
	}
	if peekReads == 0 {
		t.Fatal("peek callback was never invoked")
	}
	if mainReads == 0 {
		t.Fatal("main read callback was never invoked for the actual opcode fetch")
	}
}

func TestConsumeClockCallbackReceivesTStates(t *testing.T) {
	var mem fixedMemory
	mem.data[0] = 0x00 // NOP, 4 T-states
	mem.data[1] = 0xC3 // JP 0x0000
	mem.data[2] = 0x00
	mem.data[3] = 0x00

	var total int
	c := New(
		func(addr uint16) byte { return mem.data[addr] },
		func(addr uint16, v byte) { mem.data[addr] = v },
		func(port byte) byte { return 0xFF },
		func(port byte, v byte) {},
		func(addr uint16) byte { return mem.data[addr] },
	)
	c.SetConsumeClockCallback(func(clocks int) { total += clocks })
	c.SetSP(1)

	c.Execute(20)

	if total == 0 {
		t.Fatal("consume-clock callback was never invoked")
	}
}
