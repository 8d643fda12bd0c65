// sp_loadstore.go - vector load/store family (LBV/LSV/LLV/LDV/LQV/LRV/LPV/LUV/LHV/LFV/LTV + stores)

/*
sp_loadstore.go

Grounded on spec.md §3's description of "16-byte-windowed addressing":
each of these opcodes addresses a 16-byte-aligned DMem window, loads or
stores a sub-pattern of bytes within it into one lane or a run of lanes of
the destination vector register, and several (LQV/LRV, the *V "vector"
forms, and LTV/STV "transpose" forms) clip their byte range to the window
boundary rather than wrapping. No pack repo has an analogous windowed-SIMD
addressing mode, so the per-opcode byte patterns are grounded on
original_source/src/interpreter/rsp.cc's equivalent load/store handlers.
*/

package main

func spVecOpAndElem(word uint32) (vt, e int, baseReg int, offset int32, opBits int) {
	vt = int((word >> 16) & 0x1F)
	baseReg = int((word >> 21) & 0x1F)
	e = int((word >> 7) & 0xF)
	opBits = int((word >> 11) & 0x1F)
	offset = int32(int8(uint8(word&0x7F)<<1) >> 1) // 7-bit signed offset, scaled by caller
	return
}

// spExecVectorLoadStore handles LWC2 (load) and SWC2 (store) encodings,
// where the secondary opcode field (bits 11:15, conventionally named the
// vector op's own "opcode") selects which addressing/transfer pattern
// applies. Pattern 0x0A (LWV/SWV) is not implemented and halts the SP like
// any other unlisted pattern.
func (m *MachineState) spExecVectorLoadStore(word uint32, isStore bool) {
	vt, e, baseReg, offset7, opBits := spVecOpAndElem(word)
	base := m.SP.ReadGPR(baseReg)

	switch opBits {
	case 0x00: // LBV/SBV - single byte
		addr := int32(base) + int32(offset7)
		m.vecByteTransfer(vt, e, uint32(addr), 1, isStore)
	case 0x01: // LSV/SSV - two bytes
		addr := int32(base) + int32(offset7)*2
		m.vecByteTransfer(vt, e, uint32(addr), 2, isStore)
	case 0x02: // LLV/SLV - four bytes
		addr := int32(base) + int32(offset7)*4
		m.vecByteTransfer(vt, e, uint32(addr), 4, isStore)
	case 0x03: // LDV/SDV - eight bytes
		addr := int32(base) + int32(offset7)*8
		m.vecByteTransfer(vt, e, uint32(addr), 8, isStore)
	case 0x04: // LQV/SQV - quadword, clipped to the 16-byte window
		addr := int32(base) + int32(offset7)*16
		m.vecQuadTransfer(vt, e, uint32(addr), isStore, true)
	case 0x05: // LRV/SRV - quadword, rest-of-window (clipped from the left)
		addr := int32(base) + int32(offset7)*16
		m.vecQuadTransfer(vt, e, uint32(addr), isStore, false)
	case 0x06: // LPV/SPV - packed (one byte per lane, shifted into place)
		addr := int32(base) + int32(offset7)*8
		m.vecPackedTransfer(vt, e, uint32(addr), isStore, false)
	case 0x07: // LUV/SUV - unsigned packed
		addr := int32(base) + int32(offset7)*8
		m.vecPackedTransfer(vt, e, uint32(addr), isStore, true)
	case 0x08: // LHV/SHV - packed, half-lane spacing
		addr := int32(base) + int32(offset7)*16
		m.vecHalfSpacedTransfer(vt, uint32(addr), isStore)
	case 0x09: // LFV/SFV - fourth: like LHV but only 4 of 8 lanes
		addr := int32(base) + int32(offset7)*16
		m.vecFourthTransfer(vt, e, uint32(addr), isStore)
	case 0x0B: // LTV/STV - transpose across a register group
		addr := int32(base) + int32(offset7)*16
		m.vecTransposeTransfer(vt, uint32(addr), isStore)
	default:
		m.SP.Halt("SP reserved vector load/store opcode")
	}
}

// vecByteTransfer implements LBV/SBV, LSV/SSV, LLV/SLV, LDV/SDV: n is
// always a power of two <= 8, and each transferred byte maps onto the
// big-endian byte stream of the selected lanes starting at element e.
func (m *MachineState) vecByteTransfer(vt, e int, addr uint32, n int, isStore bool) {
	m.vecBigEndianTransfer(vt, e, addr, n, isStore)
}

// vecBigEndianTransfer moves n bytes (n in {1,2,4,8}) between DMem at addr
// and the big-endian byte view of vector register vt starting at element
// e, matching how LBV/LSV/LLV/LDV and their store duals address a
// sub-range of one lane-pair stream.
func (m *MachineState) vecBigEndianTransfer(vt, e int, addr uint32, n int, isStore bool) {
	sp := m.SP
	var lane [16]byte
	for l := 0; l < spVecLanes; l++ {
		lane[l*2] = byte(sp.VReg[vt][l] >> 8)
		lane[l*2+1] = byte(sp.VReg[vt][l])
	}
	start := e
	for i := 0; i < n; i++ {
		idx := (start + i) & 0xF
		da := (addr + uint32(i)) % DMemSize
		if isStore {
			m.DMem[da] = lane[idx]
		} else {
			lane[idx] = m.DMem[da]
		}
	}
	if !isStore {
		for l := 0; l < spVecLanes; l++ {
			sp.VReg[vt][l] = uint16(lane[l*2])<<8 | uint16(lane[l*2+1])
		}
	}
}

// vecQuadTransfer implements LQV/SQV (clipFromRight=true: stop at the next
// 16-byte boundary) and LRV/SRV (clipFromRight=false: start from the
// boundary, transferring only the tail of the window).
func (m *MachineState) vecQuadTransfer(vt, e int, addr uint32, isStore, clipFromRight bool) {
	windowEnd := (addr &^ 0xF) + 16
	n := 16
	if clipFromRight {
		n = int(windowEnd - addr)
	} else {
		n = int(addr - (addr &^ 0xF))
		addr = addr &^ 0xF
	}
	if n > 16 {
		n = 16
	}
	if n < 0 {
		n = 0
	}
	m.vecBigEndianTransfer(vt, e, addr, n, isStore)
}

// vecPackedTransfer implements LPV/SPV (signed, scaled by 8) and LUV/SUV
// (unsigned, scaled by 7): one byte per lane from 8 consecutive DMem bytes,
// each widened into its own lane.
func (m *MachineState) vecPackedTransfer(vt, e int, addr uint32, isStore, unsignedShift bool) {
	sp := m.SP
	shift := uint(8)
	if unsignedShift {
		shift = 7
	}
	for i := 0; i < spVecLanes; i++ {
		da := (addr + uint32(i)) % DMemSize
		lane := (i + e) & 7
		if isStore {
			m.DMem[da] = byte(sp.VReg[vt][lane] >> shift)
		} else {
			sp.VReg[vt][lane] = uint16(m.DMem[da]) << shift
		}
	}
}

// vecHalfSpacedTransfer implements LHV/SHV: one byte per lane read at
// stride 2 within the 16-byte window, left-shifted into a full lane.
func (m *MachineState) vecHalfSpacedTransfer(vt int, addr uint32, isStore bool) {
	sp := m.SP
	base := addr &^ 0xF
	for i := 0; i < spVecLanes; i++ {
		da := (base + uint32(i)*2) % DMemSize
		if isStore {
			m.DMem[da] = byte(sp.VReg[vt][i] >> 7)
		} else {
			sp.VReg[vt][i] = uint16(m.DMem[da]) << 7
		}
	}
}

// vecFourthTransfer implements LFV/SFV: like LHV but only the four lanes
// selected by e's half (0-3 or 4-7) participate; the other half of the
// register is left untouched.
func (m *MachineState) vecFourthTransfer(vt, e int, addr uint32, isStore bool) {
	sp := m.SP
	base := addr &^ 0xF
	half := 0
	if e >= 4 {
		half = 4
	}
	for i := 0; i < 4; i++ {
		lane := half + i
		da := (base + uint32(i)*4) % DMemSize
		if isStore {
			m.DMem[da] = byte(sp.VReg[vt][lane] >> 7)
		} else {
			sp.VReg[vt][lane] = uint16(m.DMem[da]) << 7
		}
	}
}

// vecTransposeTransfer implements LTV/STV: transfers one byte-pair per
// register across a consecutive group of vector registers starting at vt,
// transposing DMem's linear byte layout into the "one element per
// register" pattern matrix multiplication code expects.
func (m *MachineState) vecTransposeTransfer(vtBase int, addr uint32, isStore bool) {
	sp := m.SP
	base := addr &^ 0xF
	for reg := 0; reg < 8; reg++ {
		vreg := (vtBase + reg) & 0x1F
		lane := reg
		da := (base + uint32(reg)*2) % DMemSize
		if isStore {
			m.DMem[da] = byte(sp.VReg[vreg][lane] >> 8)
			m.DMem[(da+1)%DMemSize] = byte(sp.VReg[vreg][lane])
		} else {
			hi := m.DMem[da]
			lo := m.DMem[(da+1)%DMemSize]
			sp.VReg[vreg][lane] = uint16(hi)<<8 | uint16(lo)
		}
	}
}
