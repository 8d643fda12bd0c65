// tlb.go - 32-entry TLB with variable page size

package main

// TLBEntry mirrors one hardware TLB entry (§3): the raw writable halves
// plus cached ASID/global bits derived from them for fast probing.
type TLBEntry struct {
	PageMask uint64
	EntryHi  uint64
	EntryLo0 uint64
	EntryLo1 uint64

	asid   uint8
	global bool
}

func (e *TLBEntry) refresh() {
	e.asid = uint8(e.EntryHi & 0xFF)
	e.global = e.EntryLo0&1 != 0 && e.EntryLo1&1 != 0
}

// vpn2 returns the entry's virtual page number (divided by two, since one
// entry maps an even/odd pair of pages) after applying PageMask.
func (e *TLBEntry) vpn2() uint64 {
	mask := e.PageMask | 0x1FFF
	return e.EntryHi &^ mask &^ 0xFF
}

func (e *TLBEntry) pfnAndFlags(odd bool) (pfn uint64, valid, dirty, global bool) {
	lo := e.EntryLo0
	if odd {
		lo = e.EntryLo1
	}
	pfn = (lo >> 6) & 0xFFFFF
	valid = lo&2 != 0
	dirty = lo&4 != 0
	global = e.global
	return
}

const tlbEntries = 32

// TLB is the 32-entry translation-lookaside buffer (§4.1).
type TLB struct {
	Entries [tlbEntries]TLBEntry
}

// Probe walks all entries matching (vpn2, asid) under each entry's
// PageMask, honouring the global bit, per §4.1. Returns the matching index
// and the even/odd page-pair mask (PageMask|0x1FFF), or ok=false on miss.
func (t *TLB) Probe(vaddr uint64, asid uint8) (index int, pageMask uint64, ok bool) {
	for i := range t.Entries {
		e := &t.Entries[i]
		mask := e.PageMask | 0x1FFF
		if (vaddr&^mask)&^0xFF != e.vpn2() {
			continue
		}
		if !e.global && e.asid != asid {
			continue
		}
		return i, mask, true
	}
	return 0, 0, false
}

// Translate resolves a mapped-segment virtual address to a physical one.
// kind reports which architectural exception to raise on failure.
func (t *TLB) Translate(vaddr uint64, asid uint8, isWrite bool) (phys uint64, excKind int, ok bool) {
	idx, mask, hit := t.Probe(vaddr, asid)
	if !hit {
		return 0, ExcTLBL, false // caller promotes to ExcTLBS for writes
	}
	e := &t.Entries[idx]
	// Bit log2(pageSize/2) of vaddr selects even/odd subpage.
	oddBit := (mask + 1) >> 1
	odd := vaddr&oddBit != 0
	pfn, valid, dirty, _ := e.pfnAndFlags(odd)
	if !valid {
		if isWrite {
			return 0, ExcTLBS, false
		}
		return 0, ExcTLBL, false
	}
	if isWrite && !dirty {
		return 0, ExcMod, false
	}
	offsetMask := mask >> 1 // offset within one page of the pair
	phys = (pfn << 12 & ^offsetMask) | (vaddr & offsetMask)
	return phys, 0, true
}

// WriteIndexed implements TLBWI/TLBWR: install EntryHi/EntryLo0/EntryLo1/
// PageMask from CP0 into the TLB entry named by index.
func (t *TLB) WriteIndexed(index int, pageMask, entryHi, lo0, lo1 uint64) {
	e := &t.Entries[index&0x1F]
	e.PageMask = pageMask
	e.EntryHi = entryHi
	e.EntryLo0 = lo0
	e.EntryLo1 = lo1
	e.refresh()
}

// Read implements TLBR: returns the fields of the indexed entry.
func (t *TLB) Read(index int) (pageMask, entryHi, lo0, lo1 uint64) {
	e := &t.Entries[index&0x1F]
	return e.PageMask, e.EntryHi, e.EntryLo0, e.EntryLo1
}

// Probe32 implements TLBP: returns the index of the entry matching
// (vpn2,asid), or -1.
func (t *TLB) Probe32(entryHi uint64) int {
	asid := uint8(entryHi & 0xFF)
	idx, _, ok := t.Probe(entryHi, asid)
	if !ok {
		return -1
	}
	return idx
}
