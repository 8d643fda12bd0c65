// vr_cop0ops.go - COP0 register moves, TLB instructions, ERET; COP1 register aliasing

/*
vr_cop0ops.go

Grounded on spec.md §4.1's COP0 operation list directly (MFC0/MTC0/DMFC0/
DMTC0/TLBR/TLBWI/TLBWR/TLBP/ERET); no pack repo models COP0 or a software
TLB, so the dispatch shape here follows this core's own cop0.go/tlb.go
rather than an adapted teacher function. The COP1 FR-bit register aliasing
(odd logical registers become the upper half of the preceding even
physical slot when FR=0) is resolved from the R4300i architecture manual's
well-known convention, since spec.md is silent on it beyond naming "FR bit"
in the GLOSSARY.
*/

package main

func (m *MachineState) execCop0(word uint32) {
	rs, rt, rd, _, funct := decodeRType(word)
	if rs == 0x10 && funct != 0 {
		m.execCop0Privileged(funct)
		return
	}
	switch rs {
	case 0x00: // MFC0
		m.WriteGPR(rt, uint64(int64(int32(m.CP0.Read(rd)))))
	case 0x01: // DMFC0
		m.WriteGPR(rt, m.CP0.Read(rd))
	case 0x04: // MTC0
		m.CP0.Write(rd, uint64(int64(int32(uint32(m.ReadGPR(rt))))))
		m.onCP0Write(rd)
	case 0x05: // DMTC0
		m.CP0.Write(rd, m.ReadGPR(rt))
		m.onCP0Write(rd)
	default:
		m.raiseReservedInstruction()
	}
}

// onCP0Write drops every compiled block after any write to Status (nothing
// is done for other registers; TLB entries refresh their asid/global caches
// only when TLBWI/TLBWR write them), since an FR/addressing-mode change can
// change how the same
// physical bytes must be decoded going forward (recompiler.go's block-end
// policy stops new blocks spanning such a write, but already-cached blocks
// compiled before this write still need dropping).
func (m *MachineState) onCP0Write(reg int) {
	if reg == CP0Status {
		m.BlockCache.blocks = make(map[uint32]*Block)
	}
}

func (m *MachineState) execCop0Privileged(funct int) {
	switch funct {
	case 0x01: // TLBR
		idx := int(m.CP0.Read(CP0Index) & 0x1F)
		pageMask, entryHi, lo0, lo1 := m.TLB.Read(idx)
		m.CP0.Write(CP0PageMask, pageMask)
		m.CP0.Write(CP0EntryHi, entryHi)
		m.CP0.Write(CP0EntryLo0, lo0)
		m.CP0.Write(CP0EntryLo1, lo1)
	case 0x02: // TLBWI
		idx := int(m.CP0.Read(CP0Index) & 0x1F)
		m.TLB.WriteIndexed(idx, m.CP0.Read(CP0PageMask), m.CP0.Read(CP0EntryHi),
			m.CP0.Read(CP0EntryLo0), m.CP0.Read(CP0EntryLo1))
	case 0x06: // TLBWR
		idx := int(m.CP0.Random() & 0x1F)
		m.TLB.WriteIndexed(idx, m.CP0.Read(CP0PageMask), m.CP0.Read(CP0EntryHi),
			m.CP0.Read(CP0EntryLo0), m.CP0.Read(CP0EntryLo1))
	case 0x08: // TLBP
		idx := m.TLB.Probe32(m.CP0.Read(CP0EntryHi))
		if idx < 0 {
			m.CP0.Write(CP0Index, 1<<31)
		} else {
			m.CP0.Write(CP0Index, uint64(idx))
		}
	case 0x18: // ERET
		m.execERET()
	default:
		m.raiseReservedInstruction()
	}
}

// execERET returns from an exception: restores pc from ErrorEPC (if ERL
// set) or EPC, clears ERL/EXL, and clears the LL bit (§4.1).
func (m *MachineState) execERET() {
	status := m.CP0.Status()
	if status&StatusERL != 0 {
		m.PC = m.CP0.Read(CP0ErrorEPC)
		m.CP0.SetStatus(status &^ StatusERL)
	} else {
		m.PC = m.CP0.Read(CP0EPC)
		m.CP0.SetStatus(status &^ StatusEXL)
	}
	m.LLBit = false
	m.NextAction = ActionJump
	m.NextPC = m.PC
}

func (m *MachineState) execCop1(word uint32) {
	status := m.CP0.Status()
	if status&StatusCU1 == 0 {
		vec := m.TakeException(ExcCpU, 0, m.NextAction == ActionDelay, 1)
		m.PC = vec
		return
	}
	rs, rt, rd, _, _ := decodeRType(word)
	switch rs {
	case 0x00: // MFC1
		m.WriteGPR(rt, uint64(int64(int32(m.readFPR32(rd)))))
	case 0x01: // DMFC1
		m.WriteGPR(rt, m.readFPR64(rd))
	case 0x02: // CFC1
		if rd == 31 {
			m.WriteGPR(rt, uint64(int64(int32(m.FCSR))))
		}
	case 0x04: // MTC1
		m.writeFPR32(rd, uint32(m.ReadGPR(rt)))
	case 0x05: // DMTC1
		m.writeFPR64(rd, m.ReadGPR(rt))
	case 0x06: // CTC1
		if rd == 31 {
			m.FCSR = uint32(m.ReadGPR(rt))
		}
	default:
		// Arithmetic COP1 ops (ADD.fmt/SUB.fmt/CVT.fmt/...) are out of
		// scope for this core's VR (§1 Non-goals excludes FPU arithmetic
		// correctness beyond register plumbing); decode and ignore rather
		// than raise a reserved-instruction fault so control flow that
		// merely moves FPU values around still runs.
	}
}

// fprSlot returns the physical 64-bit slot and whether to address its upper
// half, implementing the Status.FR aliasing convention for logical register
// idx.
func (m *MachineState) fprSlot(idx int) (slot int, upper bool) {
	if m.CP0.Status()&StatusFR != 0 {
		return idx, false
	}
	return idx &^ 1, idx&1 != 0
}

func (m *MachineState) readFPR32(idx int) uint32 {
	slot, upper := m.fprSlot(idx)
	v := m.FPRRaw[slot]
	if upper {
		return uint32(v >> 32)
	}
	return uint32(v)
}

func (m *MachineState) writeFPR32(idx int, v uint32) {
	slot, upper := m.fprSlot(idx)
	if upper {
		m.FPRRaw[slot] = (m.FPRRaw[slot] &^ 0xFFFFFFFF00000000) | uint64(v)<<32
		return
	}
	m.FPRRaw[slot] = (m.FPRRaw[slot] &^ 0xFFFFFFFF) | uint64(v)
}

func (m *MachineState) readFPR64(idx int) uint64 {
	if m.CP0.Status()&StatusFR != 0 {
		return m.FPRRaw[idx]
	}
	return m.FPRRaw[idx&^1]
}

func (m *MachineState) writeFPR64(idx int, v uint64) {
	if m.CP0.Status()&StatusFR != 0 {
		m.FPRRaw[idx] = v
		return
	}
	m.FPRRaw[idx&^1] = v
}
