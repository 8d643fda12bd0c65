// mmu.go - virtual-to-physical address translation (MIPS segment rules + TLB)

package main

// MIPS32/64 segment boundaries used by the 32-bit compatibility addressing
// this core runs cartridge code under (§4.1): kuseg, kseg0, kseg1, ksseg,
// kseg3. kseg0/kseg1 are unmapped and strip their tag bits directly;
// kuseg/ksseg/kseg3 probe the TLB. 64-bit (xkseg family) addresses decode
// by their top three bits per the standard R4000 64-bit addressing rules.
const (
	kseg0Base = 0xFFFFFFFF80000000
	kseg0End  = 0xFFFFFFFF9FFFFFFF
	kseg1Base = 0xFFFFFFFFA0000000
	kseg1End  = 0xFFFFFFFFBFFFFFFF
	kseg2Base = 0xFFFFFFFFC0000000
	kseg3Base = 0xFFFFFFFFE0000000

	xkphysBase = 0x8000000000000000
	xkphysEnd  = 0xBFFFFFFFFFFFFFFF
)

// TranslateResult carries the outcome of a virtual-address translation.
type TranslateResult struct {
	Phys uint64
	Ok   bool
	Exc  int // valid iff !Ok
}

// Translate implements §4.1's segment-then-TLB algorithm. isWrite and
// inFetch are used only to pick the correct exception code on a fault.
func (m *MachineState) Translate(vaddr uint64, isWrite, inFetch bool) TranslateResult {
	switch {
	case vaddr >= kseg0Base && vaddr <= kseg0End:
		return TranslateResult{Phys: vaddr - kseg0Base, Ok: true}
	case vaddr >= kseg1Base && vaddr <= kseg1End:
		return TranslateResult{Phys: vaddr - kseg1Base, Ok: true}
	case vaddr >= xkphysBase && vaddr <= xkphysEnd && (vaddr>>36)&0x7FFFFF == 0:
		// Unmapped, uncached/cached 64-bit physical segment: strip the
		// top bits, keep the low 36 (this core's physical space is far
		// smaller, but we keep the architectural mask shape).
		return TranslateResult{Phys: vaddr & 0x0000000FFFFFFFFF, Ok: true}
	}

	// Mapped segments: kuseg (top bit clear, in 32-bit mode), ksseg,
	// kseg3, and their 64-bit analogues all probe the TLB.
	asid := uint8(m.CP0.Read(CP0EntryHi) & 0xFF)
	phys, exc, ok := m.TLB.Translate(vaddr, asid, isWrite)
	if !ok {
		excKind := exc
		if isWrite && excKind == ExcTLBL {
			excKind = ExcTLBS
		}
		if inFetch && excKind == ExcTLBS {
			excKind = ExcTLBL
		}
		return TranslateResult{Ok: false, Exc: excKind}
	}
	return TranslateResult{Phys: phys, Ok: true}
}

// isTLBRefillMiss reports whether a failed TLB probe (as opposed to an
// invalid/modified hit) occurred, used to pick the refill-vs-invalid
// vector. The 64-bit XTLBRefill vector is never selected.
func (m *MachineState) isTLBRefillMiss(vaddr uint64, isWrite bool) bool {
	asid := uint8(m.CP0.Read(CP0EntryHi) & 0xFF)
	_, _, ok := m.TLB.Probe(vaddr, asid)
	return !ok
}

// translateOrExcept is the common helper used by every memory access path
// (interpreter loads/stores/fetches, and the recompiler's virt_load/store
// thunks): translate, and on failure call TakeException with the right
// code, returning ok=false so the caller aborts the access.
func (m *MachineState) translateOrExcept(vaddr uint64, isWrite, inFetch bool) (phys uint32, ok bool) {
	res := m.Translate(vaddr, isWrite, inFetch)
	if res.Ok {
		return uint32(res.Phys), true
	}
	kind := res.Exc
	if kind == ExcTLBL || kind == ExcTLBS {
		if m.isTLBRefillMiss(vaddr, isWrite) {
			// Refill: same ExcCode as TLBInvalid (TLBL/TLBS); the
			// difference is purely in vector selection, handled by
			// exceptionVector's tlbRefillNoExl flag.
			m.takeRefillOrInvalid(kind, vaddr, inFetch, true)
			return 0, false
		}
	}
	m.takeRefillOrInvalid(kind, vaddr, inFetch, false)
	return 0, false
}

func (m *MachineState) takeRefillOrInvalid(kind int, vaddr uint64, inFetch, isRefill bool) {
	inDelay := m.inDelaySlotNow()
	copIdx := 0
	status := m.CP0.Status()
	vec := m.TakeException(kind, vaddr, inDelay, copIdx)
	if !isRefill && (kind == ExcTLBL || kind == ExcTLBS) {
		// An invalid-entry hit takes the general vector, not the refill one.
		vec = exceptionVector(kind, status, false)
	}
	m.PC = vec
}

func (m *MachineState) inDelaySlotNow() bool {
	return m.NextAction == ActionDelay
}

// checkAlign raises AddressError when addr is not aligned to size bytes,
// per §4.2 ("An unaligned access to a size-aligned instruction raises
// AddressError").
func (m *MachineState) checkAlign(vaddr uint64, size int, isWrite bool) bool {
	if uint64(size) <= 1 {
		return true
	}
	if vaddr%uint64(size) == 0 {
		return true
	}
	kind := ExcAdEL
	if isWrite {
		kind = ExcAdES
	}
	vec := m.TakeException(kind, vaddr, m.inDelaySlotNow(), 0)
	m.PC = vec
	return false
}
