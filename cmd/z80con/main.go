// Command z80con drives a machine.Machine from the command line: it loads
// one or more ROM images, optionally reconfigures the bank split and RAM
// page count, optionally loads Lua device plugins, and runs the machine
// to completion, printing its exit code.
//
// The plugin-loading and argument-parsing surface here is explicitly out
// of this project's core scope (spec §1 names the CLI front-end as an
// external collaborator) — it exists only so the core is exercisable from
// a terminal, in the shape the original console computer's own cli.cpp
// offered (-r ramStart:ramEnd, -m ramCount, -p plugin, -v trace).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minz/z80console/pkg/machine"
	"github.com/minz/z80console/pkg/scripting"
	"github.com/minz/z80console/pkg/trace"
)

var (
	ramSplit   string
	ramCount   int
	plugins    []string
	traceFile  string
	clockBatch int
	exitCode   int
)

var rootCmd = &cobra.Command{
	Use:   "z80con [rom-file ...]",
	Short: "z80console - a minimal Z80 console computer",
	Long: `z80con runs one or more ROM images on a Z80 console computer:
a 64KB address space split into eight 8KB banks, 256 I/O ports, and a
built-in console for stdin/stdout.

EXAMPLES:
  z80con hello.bin                  # run with the default 4..7 RAM split
  z80con -r 2:5 hello.bin           # RAM occupies banks 2..5
  z80con -m 16 hello.bin            # only 16 RAM pages populated
  z80con -p devices.lua hello.bin   # load a Lua device plugin script
  z80con -v trace.log hello.bin     # write an execution trace`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&ramSplit, "ram-split", "r", "4:7", "RAM bank window, as start:end (each 0..7)")
	rootCmd.Flags().IntVarP(&ramCount, "ram-count", "m", 256, "number of populated RAM pages (1..256)")
	rootCmd.Flags().StringArrayVarP(&plugins, "plugin", "p", nil, "Lua device plugin script (repeatable)")
	rootCmd.Flags().StringVarP(&traceFile, "trace", "v", "", "write an execution trace to this file")
	rootCmd.Flags().IntVarP(&clockBatch, "clock-batch", "c", 3579545, "T-states driven per Execute call")
}

func run(cmd *cobra.Command, args []string) error {
	ramStart, ramEnd, err := parseSplit(ramSplit)
	if err != nil {
		return err
	}

	m := machine.New(
		machine.WithBankSplit(ramStart, ramEnd),
		machine.WithRAMCount(ramCount),
	)

	for _, romPath := range args {
		if _, err := m.LoadROMFile(romPath); err != nil {
			return err
		}
	}
	if m.ROMCount() == 0 {
		return fmt.Errorf("z80con: no ROM data loaded")
	}

	if traceFile != "" {
		f, err := os.Create(traceFile)
		if err != nil {
			return fmt.Errorf("z80con: open trace file: %w", err)
		}
		defer f.Close()
		sink := trace.NewSink(1000, f)
		m.CPU().SetDebugMessage(sink.Record)
	}

	var loaders []*scripting.Loader
	for _, p := range plugins {
		ldr := scripting.NewLoader(m)
		if err := ldr.LoadFile(p); err != nil {
			return err
		}
		loaders = append(loaders, ldr)
	}
	defer func() {
		for _, ldr := range loaders {
			ldr.Close()
		}
	}()

	fmt.Fprintln(os.Stderr, "z80con: starting the console computer")
	for !m.IsEnded() {
		m.Execute(clockBatch)
	}
	code := m.ReturnCode()
	fmt.Fprintf(os.Stderr, "z80con: ended (code: %d)\n", code)
	exitCode = int(code)
	return nil
}

func parseSplit(s string) (start, end int, err error) {
	var n int
	n, err = fmt.Sscanf(s, "%d:%d", &start, &end)
	if err != nil || n != 2 {
		return 0, 0, fmt.Errorf("z80con: invalid --ram-split %q, want start:end", s)
	}
	return start, end, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "z80con:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
