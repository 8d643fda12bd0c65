// main.go - command-line driver for the console core
//
// Grounded on bassosimone-risc32's cmd/interp/main.go: flag-parsed options,
// a fetch/trace/execute loop logged with stdlib log, no config file parser
// (the outer runtime/config loader is explicitly out of scope, SPEC_FULL.md
// §AMBIENT STACK). Flat package main with an entry point at the repo root
// also matches the teacher's own layout (IntuitionAmiga-IntuitionEngine has
// no cmd/ subdirectory; main.go sits next to every other file it drives).
//
// This is the minimal driver the core needs to actually run a cartridge
// image: load the ROM, boot it, and step the VR (and the SP, whenever the
// SP's halt status bit is clear) until the machine halts or a cycle budget
// runs out.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	romPath := flag.String("rom", "", "cartridge ROM image (z64, big-endian)")
	maxCycles := flag.Uint64("max-cycles", 0, "stop after this many VR cycles (0 = run until halt)")
	traceRecord := flag.String("trace-record", "", "record a load/store trace to this path")
	traceLimit := flag.Int("trace-limit", 1<<20, "maximum trace entries kept when -trace-record is set")
	verbose := flag.Bool("v", false, "log every halt/cycle-budget transition")
	snapshotOut := flag.String("save-snapshot", "", "write a snapshot here when the machine halts")
	dumpBMP := flag.String("dump-bmp", "", "dump the DP's current color image to this BMP path when the machine halts")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("usage: n64run -rom <path> [-max-cycles N] [-trace-record path] [-save-snapshot path]")
	}

	cartROM, err := LoadROM(*romPath)
	if err != nil {
		log.Fatal(err)
	}

	dram := make([]byte, DRAMSize)
	m := NewMachineState(dram, cartROM)
	if *traceRecord != "" {
		m.Trace = NewTraceRecorder(*traceLimit)
	}
	m.Boot(cartROM)

	for !m.Halted {
		m.RunVR()
		if m.HW.SPStatus&SPStatusHalt == 0 {
			m.SPStep()
		}
		if m.SP.Halted {
			m.Halt(fmt.Sprintf("sp: %s", m.SP.HaltReason))
			break
		}
		if *maxCycles != 0 && m.Cycles >= *maxCycles {
			if *verbose {
				log.Printf("n64run: cycle budget %d reached", *maxCycles)
			}
			break
		}
	}

	if m.Halted {
		if he := m.AsHaltError(); he != nil {
			log.Printf("n64run: %s", he)
		}
	}

	if *traceRecord != "" {
		if err := writeTraceFile(*traceRecord, m.Trace); err != nil {
			log.Fatalf("n64run: writing trace: %v", err)
		}
	}

	if *snapshotOut != "" {
		snap := TakeSnapshot(m)
		if err := SaveSnapshotToFile(snap, *snapshotOut); err != nil {
			log.Fatalf("n64run: writing snapshot: %v", err)
		}
	}

	if *dumpBMP != "" {
		if err := m.DumpFramebufferBMP(*dumpBMP); err != nil {
			log.Fatalf("n64run: dumping framebuffer: %v", err)
		}
	}

	log.Printf("n64run: stopped after %d cycles, pc=%#x", m.Cycles, m.PC)
}

func writeTraceFile(path string, tr *TraceRecorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, e := range tr.Entries() {
		op := "load"
		if e.Op == TraceStore {
			op = "store"
		}
		if _, err := fmt.Fprintf(f, "%s %d %#x %#x\n", op, e.Width, e.Addr, e.Value); err != nil {
			return err
		}
	}
	return nil
}
