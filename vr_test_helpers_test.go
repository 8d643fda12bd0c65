package main

import "testing"

// newVRTestRig builds a MachineState with a small DRAM backing and no
// cartridge, boots nothing (callers set PC directly), mirroring
// newCPUZ80TestRig's bus-plus-cpu pairing from the teacher's test style.
func newVRTestRig() *MachineState {
	dram := make([]byte, 1*1024*1024)
	m := NewMachineState(dram, nil)
	m.CP0.SetStatus(0) // leave BEV/ERL clear: kseg0/kseg1 plain unmapped access
	m.PC = kseg0Base
	return m
}

func (m *MachineState) loadProgram(vaddr uint64, words []uint32) {
	phys, ok := m.translateOrExcept(vaddr, true, false)
	if !ok {
		panic("loadProgram: translation failed")
	}
	for i, w := range words {
		m.Bus.StoreU32(phys+uint32(i*4), w)
	}
}

func requireU64(t *testing.T, name string, got, want uint64) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %#x, want %#x", name, got, want)
	}
}

// mipsR encodes an R-type instruction: op rs rt rd shamt funct.
func mipsR(op, rs, rt, rd, shamt, funct uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

// mipsI encodes an I-type instruction: op rs rt imm16.
func mipsI(op, rs, rt uint32, imm int16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(uint16(imm))
}
