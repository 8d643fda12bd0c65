// cop0.go - coprocessor-0 register file, TLB entries, and exception vectoring

package main

// CP0 register indices (§3).
const (
	CP0Index = iota
	CP0Random
	CP0EntryLo0
	CP0EntryLo1
	CP0Context
	CP0PageMask
	CP0Wired
	cp0Res7
	CP0BadVAddr
	CP0Count
	CP0EntryHi
	CP0Compare
	CP0Status
	CP0Cause
	CP0EPC
	CP0PRId
	CP0Config
	CP0LLAddr
	CP0WatchLo
	CP0WatchHi
	CP0XContext
	cp0Res21
	cp0Res22
	CP0PErr
	CP0CacheErr
	CP0TagLo
	CP0TagHi
	CP0ErrorEPC
	cp0Res28
	cp0Res29
	cp0Res30
	cp0Res31
)

// Status register bit positions.
const (
	StatusIE  = 1 << 0
	StatusEXL = 1 << 1
	StatusERL = 1 << 2
	StatusKSU = 3 << 3
	StatusUX  = 1 << 5
	StatusSX  = 1 << 6
	StatusKX  = 1 << 7
	StatusIM  = 0xFF << 8
	StatusCU0 = 1 << 28
	StatusCU1 = 1 << 29
	StatusFR  = 1 << 26
	StatusBEV = 1 << 22
)

// Cause register fields.
const (
	CauseExcCodeShift = 2
	CauseExcCodeMask  = 0x1F << CauseExcCodeShift
	CauseCEShift      = 28
	CauseCEMask       = 3 << CauseCEShift
	CauseBD           = 1 << 31
	CauseIP           = 0xFF << 8
)

// Architectural exception codes (ExcCode values).
const (
	ExcInt         = 0
	ExcMod         = 1 // TLB modified
	ExcTLBL        = 2 // TLB refill/invalid, load or fetch
	ExcTLBS        = 3 // TLB refill/invalid, store
	ExcAdEL        = 4 // address error, load or fetch
	ExcAdES        = 5 // address error, store
	ExcIBE         = 6 // instruction bus error
	ExcDBE         = 7 // data bus error
	ExcSyscall     = 8
	ExcBp          = 9 // breakpoint
	ExcRI          = 10 // reserved instruction
	ExcCpU         = 11 // coprocessor unusable
	ExcOv          = 12 // integer overflow
	ExcTr          = 13 // trap
	ExcFPE         = 15
	ExcWATCH       = 23
)

// CP0 holds the coprocessor-0 register file (§3). Widths follow the
// architecture: most registers are effectively 32-bit with the upper half
// implied zero/sign-extended; Context/XContext/BadVAddr/EntryHi/EntryLo*/
// EPC/ErrorEPC are full 64-bit per the R4300i architecture this machine's
// VR implements.
type CP0 struct {
	regs [32]uint64
}

func (c *CP0) Read(idx int) uint64  { return c.regs[idx] }
func (c *CP0) Write(idx int, v uint64) { c.regs[idx] = v }

func (c *CP0) Status() uint32 { return uint32(c.regs[CP0Status]) }
func (c *CP0) SetStatus(v uint32) { c.regs[CP0Status] = uint64(v) }
func (c *CP0) Cause() uint32 { return uint32(c.regs[CP0Cause]) }
func (c *CP0) SetCause(v uint32) { c.regs[CP0Cause] = uint64(v) }

func (c *CP0) Wired() uint32 { return uint32(c.regs[CP0Wired]) }
func (c *CP0) Random() uint32 { return uint32(c.regs[CP0Random]) }
func (c *CP0) SetRandom(v uint32) { c.regs[CP0Random] = uint64(v) }

// TickRandom decrements Random by one, wrapping from Wired to 31, as every
// VR instruction must (§3 invariant).
func (c *CP0) TickRandom() {
	w := c.Wired() & 0x1F
	r := c.Random() & 0x1F
	if r <= w {
		r = 31
	} else {
		r--
	}
	c.SetRandom(r)
}

// exceptionVector computes the virtual PC an exception redirects to, per
// §4.1: offset 0x000 for TLB refill with EXL=0, 0x180 otherwise, based at
// 0xFFFFFFFF80000000 or 0xFFFFFFFFBFC00200 depending on Status.BEV.
func exceptionVector(kind int, status uint32, tlbRefillNoExl bool) uint64 {
	var base uint64
	if status&StatusBEV != 0 {
		base = 0xFFFFFFFFBFC00200
	} else {
		base = 0xFFFFFFFF80000000
	}
	if tlbRefillNoExl && (kind == ExcTLBL || kind == ExcTLBS) {
		return base + 0x000
	}
	return base + 0x180
}

// TakeException implements §4.1's take_exception: writes EPC (adjusting
// for a delay-slot fault and setting Cause.BD), BadVAddr, Context/XContext,
// Cause.ExcCode/CE, sets Status.EXL, and redirects pc to the exception
// vector. Returns the new pc.
func (m *MachineState) TakeException(kind int, badVAddr uint64, inDelaySlot bool, copIndex int) uint64 {
	status := m.CP0.Status()
	noExlTLBRefill := status&StatusEXL == 0

	epc := m.PC
	cause := m.CP0.Cause()
	cause &^= CauseBD
	if inDelaySlot {
		epc -= 4
		cause |= CauseBD
	}
	if status&StatusEXL == 0 {
		m.CP0.Write(CP0EPC, epc)
	}

	cause &^= CauseExcCodeMask
	cause |= uint32(kind) << CauseExcCodeShift
	cause &^= CauseCEMask
	cause |= uint32(copIndex&3) << CauseCEShift
	m.CP0.SetCause(cause)

	switch kind {
	case ExcTLBL, ExcTLBS, ExcMod, ExcAdEL, ExcAdES:
		m.CP0.Write(CP0BadVAddr, badVAddr)
		ctx := m.CP0.Read(CP0Context)
		ctx = (ctx &^ 0x7FFFF0) | ((badVAddr >> 9) & 0x7FFFF0)
		m.CP0.Write(CP0Context, ctx)
		xctx := m.CP0.Read(CP0XContext)
		xctx = (xctx &^ 0xFFFFFFFFF0) | ((badVAddr >> 9) & 0xFFFFFFFFF0)
		m.CP0.Write(CP0XContext, xctx)
	}

	m.CP0.SetStatus(status | StatusEXL)
	vec := exceptionVector(kind, status, noExlTLBRefill)
	m.PC = vec
	m.NextAction = ActionContinue
	return vec
}
