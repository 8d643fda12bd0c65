// dma.go - DMA descriptors and the scheduled-completion event queue

/*
dma.go

Grounded on the teacher's coprocessor_manager.go: that file queued work as
tickets on a ring buffer serviced by a worker goroutine per coprocessor. §5
rules out that concurrency shape for this core (single-threaded cooperative
stepping), so the worker loop is gone, but the underlying idea — a transfer
is modelled as a descriptor plus a cycle count at which its completion
interrupt fires — survives as a plain sorted event queue that the VR step
loop drains each cycle. §4.3's DMA model is explicitly atomic: the byte move
happens synchronously when the transfer starts, and only the *interrupt* is
deferred to the scheduled cycle.
*/

package main

import "sort"

// dmaEvent is one pending completion: at Cycle, raise MI bit Bit.
type dmaEvent struct {
	Cycle uint64
	Bit   uint32
}

// DMAEngine owns the event queue and performs the synchronous byte moves
// for SP<->DRAM and cartridge PI<->DRAM transfers (§4.3).
type DMAEngine struct {
	m      *MachineState
	events []dmaEvent
}

func newDMAEngine(m *MachineState) *DMAEngine {
	return &DMAEngine{m: m}
}

// dmaLatencyCycles is a fixed, approximate completion latency; the
// specification does not model per-byte transfer timing (§1 Non-goals), so
// every transfer completes after the same fixed delay regardless of size.
const dmaLatencyCycles = 64

func (d *DMAEngine) schedule(bit uint32) {
	i := sort.Search(len(d.events), func(i int) bool { return d.events[i].Cycle >= d.m.Cycles+dmaLatencyCycles })
	ev := dmaEvent{Cycle: d.m.Cycles + dmaLatencyCycles, Bit: bit}
	d.events = append(d.events, dmaEvent{})
	copy(d.events[i+1:], d.events[i:])
	d.events[i] = ev
}

// Tick is called once per VR step; it fires every event whose cycle has
// arrived, raising the corresponding MI interrupt source.
func (d *DMAEngine) Tick() {
	n := 0
	for n < len(d.events) && d.events[n].Cycle <= d.m.Cycles {
		d.m.HW.RaiseMI(d.events[n].Bit)
		n++
	}
	d.events = d.events[n:]
}

// StartSPRead copies DRAM -> SP DMem/IMem (an SP_RD_LEN write), and
// StartSPWrite the reverse, both per the length/skip/count packed fields
// §4.3 borrows from the real SP DMA register layout: bits 0-11 are
// length-1, bits 12-19 are count-1, bits 20-31 are skip.
func (d *DMAEngine) StartSPRead(h *HWRegs) {
	d.runSPTransfer(h, true)
}

func (d *DMAEngine) StartSPWrite(h *HWRegs) {
	d.runSPTransfer(h, false)
}

func (d *DMAEngine) runSPTransfer(h *HWRegs, dramToSP bool) {
	lenField := h.SPRdLen
	if !dramToSP {
		lenField = h.SPWrLen
	}
	length := int(lenField&0xFFF) + 1
	count := int((lenField>>12)&0xFF) + 1
	skip := int((lenField >> 20) & 0xFFF)

	memAddr := h.SPMemAddr & 0x1FFF
	dramAddr := h.SPDramAddr & 0xFFFFFF
	spBase := SPDMemBase
	if memAddr&0x1000 != 0 {
		spBase = SPIMemBase
	}
	spOff := memAddr &^ 0x1000

	for c := 0; c < count; c++ {
		if dramToSP {
			buf := d.m.Bus.LoadBytes(dramAddr, length)
			d.m.Bus.StoreBytes(uint32(spBase)+spOff, buf)
		} else {
			buf := d.m.Bus.LoadBytes(uint32(spBase)+spOff, length)
			d.m.Bus.StoreBytes(dramAddr, buf)
		}
		dramAddr += uint32(length + skip)
		spOff += uint32(length)
	}

	h.SPDMABusy = 0
	d.schedule(MIIntrSP)
}

// StartPI runs a cartridge ROM->DRAM transfer. PIRegs layout follows the
// real PI DMA register order: [0]=DRAM addr, [1]=cart addr, [2]=RD_LEN
// (cart->DRAM), [3]=WR_LEN (DRAM->cart). Only the cart->DRAM direction is
// performed, with length RD_LEN+1; WR_LEN is not read.
func (d *DMAEngine) StartPI(h *HWRegs) {
	if len(h.PIRegs) < 4 {
		return
	}
	dramAddr := h.PIRegs[0] & 0xFFFFFF
	cartAddr := h.PIRegs[1]
	length := int(h.PIRegs[2]) + 1
	if length <= 0 {
		return
	}
	buf := d.m.Bus.LoadBytes(cartAddr, length)
	d.m.Bus.StoreBytes(dramAddr, buf)
	d.schedule(MIIntrPI)
}
