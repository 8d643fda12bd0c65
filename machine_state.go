// machine_state.go - the machine: VR registers, COP0/TLB, SP, scratch memories, bus

package main

// ActionKind is the VR's two-stage branch sequencer state (§3, §4.2): a
// branch does not transfer control itself, it schedules the transfer for
// after the next instruction (its delay slot) executes.
type ActionKind int

const (
	ActionContinue ActionKind = iota // pc += 4 next cycle
	ActionDelay                      // executing a branch's delay slot; NextPC queued
	ActionJump                       // next cycle's fetch takes NextPC directly
)

// MachineState is the whole console core: the VR's architectural state, its
// COP0/TLB, the SP's scalar and vector register files, the three on-chip
// scratch memories, and the physical Bus tying DRAM/ROM/device regions
// together. One MachineState is one console instance; nothing here is
// safe for concurrent access from more than one goroutine (§5).
type MachineState struct {
	// VR integer register file. GPR[0] always reads zero; WriteGPR enforces
	// this so callers never need an `if reg != 0` guard at every use site.
	GPR [32]uint64
	PC  uint64

	// Two-stage delay-slot sequencer (§4.2).
	NextAction ActionKind
	NextPC     uint64

	MultHi, MultLo uint64
	LLBit          bool

	CP0 *CP0
	TLB *TLB

	// COP1 (FPU). FR=0 aliases the 32 logical registers onto 16 physical
	// 64-bit slots (odd-numbered logical registers are the upper half of
	// the preceding even one); FR=1 gives each logical register its own
	// 64-bit slot. FPRRaw always holds the 32 physical 64-bit slots; reads
	// and writes go through the FR-aware helpers in vr_cop0ops.go.
	FPRRaw  [32]uint64
	FCSR    uint32

	SP *SPState

	DMem [DMemSize]byte
	IMem [IMemSize]byte
	TMem [TMemSize]byte

	Bus *Bus

	HW *HWRegs
	DP *DPState

	DMA *DMAEngine

	Cycles uint64

	Halted     bool
	HaltReason string

	Trace      *TraceRecorder
	BlockCache *BlockCache
}

// NewMachineState builds a console instance with its bus wired to the
// physical map in memmap.go. dram is the emulated DRAM backing (8MB max);
// cartROM is the cartridge image as loaded by rom.go.
func NewMachineState(dram, cartROM []byte) *MachineState {
	m := &MachineState{
		CP0: &CP0{},
		TLB: &TLB{},
		SP:  newSPState(),
		Bus: NewBus(),
	}
	m.HW = newHWRegs(m)
	m.DP = newDPState()
	m.DMA = newDMAEngine(m)
	m.BlockCache = newBlockCache()

	mustAdd := func(r *BusRegion) {
		if err := m.Bus.AddRegion(r); err != nil {
			panic(err) // region table is static and built once at startup
		}
	}

	mustAdd(&BusRegion{Name: "dram", Base: DRAMBase, Size: uint32(len(dram)), Kind: regionRAM, Bytes: dram})
	if len(cartROM) > 0 {
		mustAdd(&BusRegion{Name: "cart-rom", Base: CartROMBase, Size: uint32(len(cartROM)), Kind: regionROM, Bytes: cartROM})
	}
	mustAdd(&BusRegion{Name: "sp-dmem", Base: SPDMemBase, Size: SPDMemSize, Kind: regionRAM, Bytes: m.DMem[:]})
	mustAdd(&BusRegion{Name: "sp-imem", Base: SPIMemBase, Size: SPIMemSize, Kind: regionRAM, Bytes: m.IMem[:]})
	m.HW.wire(mustAdd)

	m.Reset()
	return m
}

// Reset restores cold-boot COP0 state (§3): Random at its top value, Wired
// clear, Status with BEV/ERL set so the machine starts fetching the PIF
// boot vector uncached and unmapped.
func (m *MachineState) Reset() {
	m.CP0.SetRandom(31)
	m.CP0.Write(CP0Wired, 0)
	m.CP0.SetStatus(StatusBEV | StatusERL)
	m.CP0.Write(CP0PRId, 0x00000B00)
	m.CP0.Write(CP0Config, 0x70)
	m.NextAction = ActionContinue
	m.Halted = false
	m.HaltReason = ""
}

// ReadGPR/WriteGPR enforce the architectural GPR[0]==0 invariant.
func (m *MachineState) ReadGPR(r int) uint64 { return m.GPR[r&0x1F] }

func (m *MachineState) WriteGPR(r int, v uint64) {
	if r == 0 {
		return
	}
	m.GPR[r&0x1F] = v
}

// Halt records a host-fatal emulation halt (§7): the caller stops stepping
// this machine and surfaces HaltReason to its operator.
func (m *MachineState) Halt(reason string) {
	m.Halted = true
	m.HaltReason = reason
}
