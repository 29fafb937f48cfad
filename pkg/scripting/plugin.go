// Package scripting loads Lua device plugins for a machine.Machine. It is
// the Go-native stand-in for the original console computer CLI's
// dlopen-based "-p {i|o} PORT lib:symbol" shared-library plugins: instead
// of compiling a native .so per device, an embedder writes a small Lua
// script that calls z80.register_input/z80.register_output, and that
// script is loaded directly into a single static Go binary.
package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/minz/z80console/pkg/cpu"
	"github.com/minz/z80console/pkg/machine"
)

// Loader owns one Lua state per loaded script set and the Machine it
// registers device handlers against.
type Loader struct {
	m *machine.Machine
	L *lua.LState
}

// NewLoader creates a Loader bound to m. The Lua state is created eagerly
// so that scripts loaded later can share global state across files.
func NewLoader(m *machine.Machine) *Loader {
	ldr := &Loader{m: m, L: lua.NewState()}
	ldr.installAPI()
	return ldr
}

// Close releases the underlying Lua state.
func (l *Loader) Close() { l.L.Close() }

// LoadFile runs a Lua script, which is expected to call
// z80.register_input and/or z80.register_output to install device
// handlers on the bound Machine. Registration past the machine's start is
// rejected the same way a native Go registration would be: the
// corresponding z80.register_* call returns false to the script.
func (l *Loader) LoadFile(path string) error {
	if err := l.L.DoFile(path); err != nil {
		return fmt.Errorf("z80console: load plugin %s: %w", path, err)
	}
	return nil
}

// installAPI exposes the "z80" module to Lua scripts, mirroring the
// module/NewFunction pattern the teacher's compile-time Lua evaluator
// uses for its own "minz" module (pkg/meta/lua_evaluator.go).
func (l *Loader) installAPI() {
	module := l.L.NewTable()
	l.L.SetField(module, "register_input", l.L.NewFunction(l.registerInput))
	l.L.SetField(module, "register_output", l.L.NewFunction(l.registerOutput))
	l.L.SetGlobal("z80", module)
}

func (l *Loader) registerInput(L *lua.LState) int {
	port := byte(L.CheckInt(1))
	fn := L.CheckFunction(2)
	ok := l.m.AddInputDevice(port, l.wrapInput(fn))
	L.Push(lua.LBool(ok))
	return 1
}

func (l *Loader) registerOutput(L *lua.LState) int {
	port := byte(L.CheckInt(1))
	fn := L.CheckFunction(2)
	ok := l.m.AddOutputDevice(port, l.wrapOutput(fn))
	L.Push(lua.LBool(ok))
	return 1
}

// wrapInput adapts a Lua function(port) -> byte into a machine.InputFunc,
// publishing the CPU's registers as a read-only "cpu" table global so the
// script can branch on guest state the same way a native handler would.
func (l *Loader) wrapInput(fn *lua.LFunction) machine.InputFunc {
	return func(c *cpu.CPU, port byte) byte {
		l.pushRegisters(c)
		l.L.Push(fn)
		l.L.Push(lua.LNumber(port))
		if err := l.L.PCall(1, 1, nil); err != nil {
			return 0xFF
		}
		ret := l.L.Get(-1)
		l.L.Pop(1)
		if n, ok := ret.(lua.LNumber); ok {
			return byte(int(n) & 0xFF)
		}
		return 0xFF
	}
}

func (l *Loader) wrapOutput(fn *lua.LFunction) machine.OutputFunc {
	return func(c *cpu.CPU, port byte, value byte) {
		l.pushRegisters(c)
		l.L.Push(fn)
		l.L.Push(lua.LNumber(port))
		l.L.Push(lua.LNumber(value))
		_ = l.L.PCall(2, 0, nil)
	}
}

func (l *Loader) pushRegisters(c *cpu.CPU) {
	regs := l.L.NewTable()
	l.L.SetField(regs, "a", lua.LNumber(c.A()))
	l.L.SetField(regs, "bc", lua.LNumber(c.BC()))
	l.L.SetField(regs, "de", lua.LNumber(c.DE()))
	l.L.SetField(regs, "hl", lua.LNumber(c.HL()))
	l.L.SetField(regs, "sp", lua.LNumber(c.SP()))
	l.L.SetField(regs, "pc", lua.LNumber(c.PC()))
	l.L.SetGlobal("cpu", regs)
}
