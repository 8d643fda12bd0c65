// vr_loadstore.go - aligned and unaligned load/store family

/*
vr_loadstore.go

Grounded on bassosimone-risc32's load/store handlers for the aligned forms
(LB/LH/LW/LD and stores, zero/sign-extension on load width). The unaligned
LWL/LWR/LDL/LDR/SWL/SWR/SDL/SDR byte-merge family has no analogue in any
pack repo (none of them implement a byte-addressable unaligned-merge ISA),
so its shift/mask tables are grounded directly on original_source/src/
r4300i/eval.cc's eval_LWL/eval_LWR implementations: the merge always keeps
the bytes already present in the register for the bytes the partial word
doesn't cover, indexed by the low two (or three, for the D forms) address
bits. LDL/LDR (opcodes 0x1A/0x1B) and SD (0x3F) are not dispatched by
execImmediate and raise a reserved-instruction exception; the size-8 paths
of loadUnalignedLeft/Right are reached by no opcode.
*/

package main

var lwlShift = [4]uint{0, 8, 16, 24}
var lwlMask = [4]uint32{0x00000000, 0x000000FF, 0x0000FFFF, 0x00FFFFFF}
var lwrShift = [4]uint{24, 16, 8, 0}
var lwrMask = [4]uint32{0x00FFFFFF, 0x0000FFFF, 0x000000FF, 0x00000000}

var ldlShift = [8]uint{0, 8, 16, 24, 32, 40, 48, 56}
var ldrShift = [8]uint{56, 48, 40, 32, 24, 16, 8, 0}

func (m *MachineState) execLoadStore(op uint32, word uint32) {
	rs, rt, imm := decodeIType(word)
	vaddr := m.ReadGPR(rs) + uint64(int64(imm))
	isStore := isStoreOpcode(op)

	switch op {
	case 0x20: // LB
		m.loadSized(vaddr, rt, 1, true, isStore)
	case 0x21: // LH
		m.loadSized(vaddr, rt, 2, true, isStore)
	case 0x22: // LWL
		m.loadUnalignedLeft(vaddr, rt, 4)
	case 0x23: // LW
		m.loadSized(vaddr, rt, 4, true, isStore)
	case 0x24: // LBU
		m.loadSized(vaddr, rt, 1, false, isStore)
	case 0x25: // LHU
		m.loadSized(vaddr, rt, 2, false, isStore)
	case 0x26: // LWR
		m.loadUnalignedRight(vaddr, rt, 4)
	case 0x27: // LWU
		m.loadSized(vaddr, rt, 4, false, isStore)
	case 0x28: // SB
		m.storeSized(vaddr, rt, 1)
	case 0x29: // SH
		m.storeSized(vaddr, rt, 2)
	case 0x2A: // SWL
		m.storeUnalignedLeft(vaddr, rt, 4)
	case 0x2B: // SW
		m.storeSized(vaddr, rt, 4)
	case 0x2C: // SDL
		m.storeUnalignedLeft(vaddr, rt, 8)
	case 0x2D: // SDR
		m.storeUnalignedRight(vaddr, rt, 8)
	case 0x2E: // SWR
		m.storeUnalignedRight(vaddr, rt, 4)
	case 0x2F: // CACHE
		// Cache-maintenance instruction; this core has no cache timing
		// model (§1 Non-goals) and treats it as a pure block-ending marker
		// for the recompiler (recompiler.go's isBlockEnding).
	case 0x30: // LL
		m.loadSized(vaddr, rt, 4, true, isStore)
		m.LLBit = true
	case 0x31: // LWC1
		m.loadFPSized(vaddr, rt, 4)
	case 0x34: // LLD
		m.loadSized(vaddr, rt, 8, true, isStore)
		m.LLBit = true
	case 0x37: // LD
		m.loadSized(vaddr, rt, 8, true, isStore)
	case 0x38: // SC
		if m.LLBit {
			m.storeSized(vaddr, rt, 4)
			m.WriteGPR(rt, 1)
		} else {
			m.WriteGPR(rt, 0)
		}
		m.LLBit = false
	case 0x3C: // SCD
		if m.LLBit {
			m.storeSized(vaddr, rt, 8)
			m.WriteGPR(rt, 1)
		} else {
			m.WriteGPR(rt, 0)
		}
		m.LLBit = false
	case 0x3D: // SDC1
		m.storeFPSized(vaddr, rt, 8)
	default:
		m.raiseReservedInstruction()
	}
}

func isStoreOpcode(op uint32) bool {
	switch op {
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x38, 0x3C, 0x3D:
		return true
	}
	return false
}

func (m *MachineState) loadSized(vaddr uint64, rt int, size int, signed bool, isStore bool) {
	if !m.checkAlign(vaddr, size, false) {
		return
	}
	phys, ok := m.translateOrExcept(vaddr, false, false)
	if !ok {
		return
	}
	var v uint64
	switch size {
	case 1:
		var b uint8
		if !m.Bus.LoadU8(phys, &b) {
			m.Halt("bus error on load")
			return
		}
		if signed {
			v = uint64(int64(int8(b)))
		} else {
			v = uint64(b)
		}
	case 2:
		var h uint16
		if !m.Bus.LoadU16(phys, &h) {
			m.Halt("bus error on load")
			return
		}
		if signed {
			v = uint64(int64(int16(h)))
		} else {
			v = uint64(h)
		}
	case 4:
		var w uint32
		if !m.Bus.LoadU32(phys, &w) {
			m.Halt("bus error on load")
			return
		}
		if signed {
			v = uint64(int64(int32(w)))
		} else {
			v = uint64(w)
		}
	case 8:
		var d uint64
		if !m.Bus.LoadU64(phys, &d) {
			m.Halt("bus error on load")
			return
		}
		v = d
	}
	m.Trace.Load(size, phys, v)
	m.WriteGPR(rt, v)
}

func (m *MachineState) storeSized(vaddr uint64, rt int, size int) {
	if !m.checkAlign(vaddr, size, true) {
		return
	}
	phys, ok := m.translateOrExcept(vaddr, true, false)
	if !ok {
		return
	}
	v := m.ReadGPR(rt)
	m.Trace.Store(size, phys, v)
	var stored bool
	switch size {
	case 1:
		stored = m.Bus.StoreU8(phys, uint8(v))
	case 2:
		stored = m.Bus.StoreU16(phys, uint16(v))
	case 4:
		stored = m.Bus.StoreU32(phys, uint32(v))
	case 8:
		stored = m.Bus.StoreU64(phys, v)
	}
	if !stored {
		m.Halt("bus error on store")
		return
	}
	m.BlockCache.Invalidate(phys&^3, (phys&^3)+uint32(size)+3)
}

func (m *MachineState) loadFPSized(vaddr uint64, ft int, size int) {
	if !m.checkAlign(vaddr, size, false) {
		return
	}
	phys, ok := m.translateOrExcept(vaddr, false, false)
	if !ok {
		return
	}
	var w uint32
	if !m.Bus.LoadU32(phys, &w) {
		m.Halt("bus error on load")
		return
	}
	m.writeFPR32(ft, w)
}

func (m *MachineState) storeFPSized(vaddr uint64, ft int, size int) {
	if !m.checkAlign(vaddr, size, true) {
		return
	}
	phys, ok := m.translateOrExcept(vaddr, true, false)
	if !ok {
		return
	}
	v := m.readFPR64(ft)
	m.Bus.StoreU64(phys, v)
}

// loadUnalignedLeft/Right implement LWL/LWR (size=4) and LDL/LDR (size=8):
// merge the bytes this access actually covers into the register, keeping
// whatever bytes already held in GPR[rt] for the rest (original_source/src/
// r4300i/eval.cc).
func (m *MachineState) loadUnalignedLeft(vaddr uint64, rt int, size int) {
	align := uint64(size - 1)
	base := vaddr &^ align
	phys, ok := m.translateOrExcept(base, false, false)
	if !ok {
		return
	}
	if size == 4 {
		idx := vaddr & align
		var w uint32
		m.Bus.LoadU32(phys, &w)
		old := uint32(m.ReadGPR(rt))
		merged := (w << lwlShift[idx]) | (old & lwlMask[idx])
		m.WriteGPR(rt, uint64(int64(int32(merged))))
		return
	}
	idx := vaddr & align
	var d uint64
	m.Bus.LoadU64(phys, &d)
	old := m.ReadGPR(rt)
	merged := (d << ldlShift[idx]) | (old &^ (^uint64(0) << ldlShift[idx]))
	m.WriteGPR(rt, merged)
}

func (m *MachineState) loadUnalignedRight(vaddr uint64, rt int, size int) {
	align := uint64(size - 1)
	base := vaddr &^ align
	phys, ok := m.translateOrExcept(base, false, false)
	if !ok {
		return
	}
	if size == 4 {
		idx := vaddr & align
		var w uint32
		m.Bus.LoadU32(phys, &w)
		old := uint32(m.ReadGPR(rt))
		merged := (w >> lwrShift[idx]) | (old & ^(^uint32(0) >> lwrShift[idx]))
		if idx == 0 {
			merged = w
		}
		m.WriteGPR(rt, uint64(int64(int32(merged))))
		return
	}
	idx := vaddr & align
	var d uint64
	m.Bus.LoadU64(phys, &d)
	old := m.ReadGPR(rt)
	var merged uint64
	if idx == 0 {
		merged = d
	} else {
		merged = (d >> ldrShift[idx]) | (old &^ (^uint64(0) >> ldrShift[idx]))
	}
	m.WriteGPR(rt, merged)
}

func (m *MachineState) storeUnalignedLeft(vaddr uint64, rt int, size int) {
	align := uint64(size - 1)
	base := vaddr &^ align
	phys, ok := m.translateOrExcept(base, true, false)
	if !ok {
		return
	}
	v := m.ReadGPR(rt)
	if size == 4 {
		idx := vaddr & align
		var w uint32
		m.Bus.LoadU32(phys, &w)
		merged := (uint32(v) >> lwlShift[idx]) | (w & ^(^uint32(0) >> lwlShift[idx]))
		if idx == 0 {
			merged = uint32(v)
		}
		m.Bus.StoreU32(phys, merged)
		m.BlockCache.Invalidate(phys, phys+3)
		return
	}
	idx := vaddr & align
	var d uint64
	m.Bus.LoadU64(phys, &d)
	var merged uint64
	if idx == 0 {
		merged = v
	} else {
		merged = (v >> ldlShift[idx]) | (d &^ (^uint64(0) >> ldlShift[idx]))
	}
	m.Bus.StoreU64(phys, merged)
	m.BlockCache.Invalidate(phys, phys+7)
}

func (m *MachineState) storeUnalignedRight(vaddr uint64, rt int, size int) {
	align := uint64(size - 1)
	base := vaddr &^ align
	phys, ok := m.translateOrExcept(base, true, false)
	if !ok {
		return
	}
	v := m.ReadGPR(rt)
	if size == 4 {
		idx := vaddr & align
		var w uint32
		m.Bus.LoadU32(phys, &w)
		merged := (uint32(v) << lwrShift[idx]) | (w & lwrMask[idx])
		m.Bus.StoreU32(phys, merged)
		m.BlockCache.Invalidate(phys, phys+3)
		return
	}
	idx := vaddr & align
	var d uint64
	m.Bus.LoadU64(phys, &d)
	merged := (v << ldrShift[idx]) | (d &^ (^uint64(0) << ldrShift[idx]))
	m.Bus.StoreU64(phys, merged)
	m.BlockCache.Invalidate(phys, phys+7)
}
