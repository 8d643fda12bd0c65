// recompiler.go - block cache, MIPS-to-IR translation driver, block-ending policy

/*
recompiler.go

Grounded on §4.4's recompiler module. The block cache's shape (a map keyed
by physical start address, with an Invalidate(loPhys, hiPhys) that drops
every entry whose start address falls in a DMA/store target range) mirrors
how bassosimone-risc32's interpreter keeps a flat decode cache indexed by
address, generalised here to store a translated Block rather than a decoded
instruction. No block is compiled to native code: TranslateBlock never sets
Block.NativeFn, so every block runs through interpretBlock's IR evaluator.
A block that fails to translate falls back to one interpreted Step rather
than aborting the machine (§7).
*/

package main

import "fmt"

// BlockCache maps a block's starting physical address to its compiled form.
type BlockCache struct {
	blocks map[uint32]*Block
	hits   map[uint32]int
}

func newBlockCache() *BlockCache {
	return &BlockCache{blocks: make(map[uint32]*Block), hits: make(map[uint32]int)}
}

// hotBlockThreshold is how many times a physical address must be reached
// before it's worth the cost of translating it to IR rather than stepping
// the interpreter one instruction at a time (§4.4: recompilation is an
// optimisation over a loop/call target seen repeatedly, not a requirement
// for every instruction ever fetched).
const hotBlockThreshold = 8

// Hit records a visit to physAddr and reports whether it has crossed
// hotBlockThreshold.
func (c *BlockCache) Hit(physAddr uint32) bool {
	c.hits[physAddr]++
	return c.hits[physAddr] >= hotBlockThreshold
}

func (c *BlockCache) Lookup(physAddr uint32) *Block {
	return c.blocks[physAddr]
}

func (c *BlockCache) Insert(b *Block) {
	c.blocks[b.PhysAddr] = b
}

// Invalidate drops every cached block whose start address falls in
// [loPhys, hiPhys]. Used whenever a store (interpreter, DMA, or another
// compiled block) writes into a physical range that might back code: the
// next fetch from that range must re-translate rather than run stale IR.
func (c *BlockCache) Invalidate(loPhys, hiPhys uint32) {
	for addr := range c.blocks {
		if addr >= loPhys && addr <= hiPhys {
			delete(c.blocks, addr)
			delete(c.hits, addr)
		}
	}
}

// maxBlockInstructions bounds a block's length when no block-ending
// instruction is seen first (§4.4).
const maxBlockInstructions = 128

// isBlockEnding reports whether the instruction at word is a jump or a
// conditional branch (including the likely forms), which end a block per
// §4.4, extended with
// the COP0-Status-write and CACHE heuristics from original_source/src/
// recompiler/target/mips.cc: both can retroactively change how the bytes
// already compiled into this block should have been interpreted (Status.FR
// changes COP1 register aliasing; CACHE can invalidate the very bytes being
// compiled), so neither is safe to compile past.
func isBlockEnding(word uint32) bool {
	op := word >> 26
	switch op {
	case 0x02, 0x03: // J, JAL
		return true
	case 0x00:
		funct := word & 0x3F
		return funct == 0x08 || funct == 0x09 // JR, JALR
	case 0x2F: // CACHE
		return true
	case 0x10: // COP0
		rs := (word >> 21) & 0x1F
		return rs == 0x04 // MTC0 — may touch Status
	}
	switch op {
	case 0x04, 0x05, 0x06, 0x07, // BEQ/BNE/BLEZ/BGTZ
		0x01,       // REGIMM (BLTZ/BGEZ family)
		0x14, 0x15, 0x16, 0x17: // BEQL/BNEL/BLEZL/BGTZL
		return true
	}
	return false
}

// TranslateBlock builds a Block starting at physAddr by decoding scalar VR
// instructions out of the bus until a block-ending instruction (inclusive,
// plus its delay slot) or the instruction cap is reached. The block's IR is
// a direct instruction-by-instruction lowering: vr_recompile.go lowers a
// small set of ALU and load/store opcodes to IR of its own and hands every
// other opcode to vr_cpu.go's execute() through a thunk.
func (m *MachineState) TranslateBlock(physAddr uint32) (*Block, error) {
	b := &Block{PhysAddr: physAddr}
	addr := physAddr
	for i := 0; i < maxBlockInstructions; i++ {
		var word uint32
		if !m.Bus.LoadU32(addr, &word) {
			return nil, fmt.Errorf("recompiler: fetch fault translating block at %#x", physAddr)
		}
		lowerInstrToIR(b, addr, word)
		ending := isBlockEnding(word)
		addr += 4
		if ending {
			// One more instruction (the delay slot) always follows a
			// branch/jump before control actually transfers. It always
			// thunks to execute() rather than taking a native lowering:
			// only execute()'s own advanceSequencerPreExec/commitPC pair
			// knows how to resolve the pending ActionDelay/ActionJump
			// transition this instruction sits in the middle of, and a
			// blindly-advanced native pc+4 would strand pc at the wrong
			// address on a taken branch.
			var delayWord uint32
			if m.Bus.LoadU32(addr, &delayWord) {
				lowerThunk(b, addr, delayWord)
				b.CycleCost++
			}
			break
		}
	}
	b.Values = append(b.Values, Value{Op: OpExit})
	return b, nil
}

// lowerInstrToIR appends the IR for one scalar instruction via
// vr_recompile.go's emitScalarIR. The opcodes it lowers natively have their
// semantics written a second time there, next to the interpreter's; the
// rest call back into execute().
func lowerInstrToIR(b *Block, addr uint32, word uint32) {
	emitScalarIR(b, addr, word)
}

// RunBlock executes a cached or freshly translated block starting at the
// VR's current physical PC: through Block.NativeFn when one is set, which
// TranslateBlock never does, otherwise by interpreting its IR. A block that
// fails to translate degrades to a single interpreted Step (§4.4:
// recompilation is an optimisation, not a semantic requirement).
func (m *MachineState) RunBlock(physAddr uint32) {
	blk := m.BlockCache.Lookup(physAddr)
	if blk == nil {
		nb, err := m.TranslateBlock(physAddr)
		if err != nil {
			m.Step()
			return
		}
		blk = nb
		m.BlockCache.Insert(blk)
	}

	if blk.NativeFn != nil {
		cycles := blk.NativeFn(m)
		m.Cycles += uint64(cycles)
		return
	}

	m.interpretBlock(blk)

	for i := uint64(0); i < blk.CycleCost; i++ {
		m.CP0.TickRandom()
		m.tickCount()
	}
	m.DMA.Tick()
}

// RunVR advances the VR by either one interpreted instruction or one
// recompiled block, whichever the current physical fetch address's hit
// count calls for (§4.4/§7). Every call site that used to call Step
// directly should call this instead; Step itself stays a plain one-
// instruction interpreter so tests can exercise single opcodes without the
// block cache ever getting involved.
func (m *MachineState) RunVR() {
	if m.Halted {
		return
	}

	fetchAddr := m.PC
	if !m.checkAlign(fetchAddr, 4, false) {
		return
	}
	phys, ok := m.translateOrExcept(fetchAddr, false, true)
	if !ok {
		return
	}

	if m.BlockCache.Hit(phys) {
		m.RunBlock(phys)
		return
	}
	m.Step()
}

// interpretBlock walks a Block's SSA values against live MachineState
// register cells, the closest thing this core has to a generic IR
// evaluator; it exists so a block that fails native compilation keeps
// running correctly, only slower (§7).
func (m *MachineState) interpretBlock(b *Block) {
	vals := make([]uint64, len(b.Values))
	for i, v := range b.Values {
		switch v.Op {
		case OpConst:
			vals[i] = v.ConstVal
		case OpLoadReg:
			vals[i] = m.readCell(v.Cell)
		case OpStoreReg:
			m.writeCell(v.Cell, maskTo(vals[v.Args[0]], v.Type))
		case OpAdd:
			vals[i] = vals[v.Args[0]] + vals[v.Args[1]]
		case OpSub:
			vals[i] = vals[v.Args[0]] - vals[v.Args[1]]
		case OpAnd:
			vals[i] = vals[v.Args[0]] & vals[v.Args[1]]
		case OpOr:
			vals[i] = vals[v.Args[0]] | vals[v.Args[1]]
		case OpXor:
			vals[i] = vals[v.Args[0]] ^ vals[v.Args[1]]
		case OpShl:
			vals[i] = vals[v.Args[0]] << (vals[v.Args[1]] & 63)
		case OpShrU:
			vals[i] = vals[v.Args[0]] >> (vals[v.Args[1]] & 63)
		case OpZExt, OpTrunc:
			vals[i] = maskTo(vals[v.Args[0]], v.Type)
		case OpSExt:
			vals[i] = signExtendTo(vals[v.Args[0]], b.Values[v.Args[0]].Type)
		case OpICmpEq:
			vals[i] = boolToU64(vals[v.Args[0]] == vals[v.Args[1]])
		case OpICmpNe:
			vals[i] = boolToU64(vals[v.Args[0]] != vals[v.Args[1]])
		case OpVirtLoad:
			addr := vals[v.Args[0]]
			phys, ok := m.translateOrExcept(addr, false, false)
			if !ok {
				return
			}
			vals[i] = loadByType(m, phys, v.Type)
		case OpVirtStore:
			addr := vals[v.Args[0]]
			phys, ok := m.translateOrExcept(addr, true, false)
			if !ok {
				return
			}
			storeByType(m, phys, v.Type, vals[v.Args[1]])
			m.BlockCache.Invalidate(phys&^3, (phys&^3)+3)
		case OpCallThunk:
			if v.Thunk != nil {
				v.Thunk(m, nil)
			}
		case OpExit:
			m.Cycles += b.CycleCost
			return
		}
	}
	m.Cycles += b.CycleCost
}

func (m *MachineState) readCell(c RegCell) uint64 {
	switch {
	case c == CellPC:
		return m.PC
	case c == CellMultHi:
		return m.MultHi
	case c == CellMultLo:
		return m.MultLo
	case c >= CellGPRBase:
		return m.ReadGPR(int(c - CellGPRBase))
	}
	return 0
}

func (m *MachineState) writeCell(c RegCell, v uint64) {
	switch {
	case c == CellPC:
		m.PC = v
	case c == CellMultHi:
		m.MultHi = v
	case c == CellMultLo:
		m.MultLo = v
	case c >= CellGPRBase:
		m.WriteGPR(int(c-CellGPRBase), v)
	}
}

func maskTo(v uint64, t IRType) uint64 {
	switch t {
	case TyI1:
		return v & 1
	case TyI8:
		return v & 0xFF
	case TyI16:
		return v & 0xFFFF
	case TyI32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}

func signExtendTo(v uint64, t IRType) uint64 {
	switch t {
	case TyI8:
		return uint64(int64(int8(v)))
	case TyI16:
		return uint64(int64(int16(v)))
	case TyI32:
		return uint64(int64(int32(v)))
	default:
		return v
	}
}

func loadByType(m *MachineState, phys uint32, t IRType) uint64 {
	switch t {
	case TyI8:
		var v uint8
		m.Bus.LoadU8(phys, &v)
		return uint64(v)
	case TyI16:
		var v uint16
		m.Bus.LoadU16(phys, &v)
		return uint64(v)
	case TyI32:
		var v uint32
		m.Bus.LoadU32(phys, &v)
		return uint64(v)
	default:
		var v uint64
		m.Bus.LoadU64(phys, &v)
		return v
	}
}

func storeByType(m *MachineState, phys uint32, t IRType, v uint64) {
	switch t {
	case TyI8:
		m.Bus.StoreU8(phys, uint8(v))
	case TyI16:
		m.Bus.StoreU16(phys, uint16(v))
	case TyI32:
		m.Bus.StoreU32(phys, uint32(v))
	default:
		m.Bus.StoreU64(phys, v)
	}
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// emitScalarIR is implemented in vr_recompile.go, next to the interpreter
// it must stay semantically identical to.
