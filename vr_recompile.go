// vr_recompile.go - MIPS-to-IR lowering for the recompiler

/*
vr_recompile.go

Grounded on spec.md §4.4: only the instruction families hot enough to be
worth a native lowering (simple register-register/immediate ALU ops, and
the common aligned load/store sizes) get real IR; everything else —
unaligned loads/stores, COP0/COP1 moves, MULT/DIV, branches themselves —
lowers to a single OpCallThunk that re-enters the scalar interpreter's
execute() for that one instruction. This keeps the JIT and the interpreter
provably unable to diverge on anything but the hot path, which is the
posture original_source/src/recompiler/target/mips.cc also takes: its
recompiler lowers a similarly small "core" set natively and falls back to
calling the reference interpreter's per-opcode C function for the rest.
*/

package main

func emitScalarIR(b *Block, addr uint32, word uint32) {
	op := word >> 26
	rs, rt, rd, sa, funct := decodeRType(word)

	selfAdvancesPC := false
	switch {
	case op == 0x00 && funct == 0x21: // ADDU
		lowerAluReg(b, rd, rs, rt, OpAdd)
	case op == 0x00 && funct == 0x23: // SUBU
		lowerAluReg(b, rd, rs, rt, OpSub)
	case op == 0x00 && funct == 0x24: // AND
		lowerAluReg(b, rd, rs, rt, OpAnd)
	case op == 0x00 && funct == 0x25: // OR
		lowerAluReg(b, rd, rs, rt, OpOr)
	case op == 0x00 && funct == 0x26: // XOR
		lowerAluReg(b, rd, rs, rt, OpXor)
	case op == 0x00 && (funct == 0x00 && sa == 0 && rs == 0 && rd == 0 && rt == 0):
		// NOP (SLL r0,r0,0): emit nothing.
	case op == 0x09: // ADDIU
		lowerAluImm(b, rt, rs, int64(int16(word&0xFFFF)), OpAdd)
	case op == 0x0C: // ANDI
		lowerAluImm(b, rt, rs, int64(uint16(word&0xFFFF)), OpAnd)
	case op == 0x0D: // ORI
		lowerAluImm(b, rt, rs, int64(uint16(word&0xFFFF)), OpOr)
	case op == 0x23: // LW
		lowerLoad(b, rt, rs, int64(int16(word&0xFFFF)), TyI32, true)
	case op == 0x24: // LBU
		lowerLoad(b, rt, rs, int64(int16(word&0xFFFF)), TyI8, false)
	case op == 0x2B: // SW
		lowerStore(b, rt, rs, int64(int16(word&0xFFFF)), TyI32)
	case op == 0x28: // SB
		lowerStore(b, rt, rs, int64(int16(word&0xFFFF)), TyI8)
	default:
		// Thunked instructions (branches, jumps, MULT/DIV, COP0 moves, ...)
		// re-enter execute(), which advances pc itself via commitPC; a
		// second bump here would double-advance it.
		lowerThunk(b, addr, word)
		selfAdvancesPC = true
	}
	if !selfAdvancesPC {
		lowerPCAdvance(b)
	}
	b.CycleCost++
}

// lowerPCAdvance emits the pc+4 every natively-lowered (non-thunked)
// instruction needs, since unlike execute()'s commitPC, none of the simple
// ALU/load/store lowerings above touch CellPC themselves.
func lowerPCAdvance(b *Block) {
	pc := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellPC})
	four := b.emit(Value{Op: OpConst, Type: TyI64, ConstVal: 4})
	next := b.emit(Value{Op: OpAdd, Type: TyI64, Args: []int{pc, four}})
	b.emit(Value{Op: OpStoreReg, Type: TyI64, Cell: CellPC, Args: []int{next}})
}

func lowerAluReg(b *Block, rd, rs, rt int, op IROp) {
	a := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rs)})
	c := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rt)})
	r := b.emit(Value{Op: op, Type: TyI64, Args: []int{a, c}})
	b.emit(Value{Op: OpStoreReg, Type: TyI64, Cell: CellGPRBase + RegCell(rd), Args: []int{r}})
}

func lowerAluImm(b *Block, rt, rs int, imm int64, op IROp) {
	a := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rs)})
	c := b.emit(Value{Op: OpConst, Type: TyI64, ConstVal: uint64(imm)})
	r := b.emit(Value{Op: op, Type: TyI64, Args: []int{a, c}})
	b.emit(Value{Op: OpStoreReg, Type: TyI64, Cell: CellGPRBase + RegCell(rt), Args: []int{r}})
}

func lowerLoad(b *Block, rt, rs int, imm int64, ty IRType, signed bool) {
	base := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rs)})
	off := b.emit(Value{Op: OpConst, Type: TyI64, ConstVal: uint64(imm)})
	addr := b.emit(Value{Op: OpAdd, Type: TyI64, Args: []int{base, off}})
	loaded := b.emit(Value{Op: OpVirtLoad, Type: ty, Args: []int{addr}})
	ext := loaded
	if signed {
		ext = b.emit(Value{Op: OpSExt, Type: TyI64, Args: []int{loaded}})
	} else {
		ext = b.emit(Value{Op: OpZExt, Type: TyI64, Args: []int{loaded}})
	}
	b.emit(Value{Op: OpStoreReg, Type: TyI64, Cell: CellGPRBase + RegCell(rt), Args: []int{ext}})
}

func lowerStore(b *Block, rt, rs int, imm int64, ty IRType) {
	base := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rs)})
	off := b.emit(Value{Op: OpConst, Type: TyI64, ConstVal: uint64(imm)})
	addr := b.emit(Value{Op: OpAdd, Type: TyI64, Args: []int{base, off}})
	val := b.emit(Value{Op: OpLoadReg, Type: TyI64, Cell: CellGPRBase + RegCell(rt)})
	trunc := b.emit(Value{Op: OpTrunc, Type: ty, Args: []int{val}})
	b.emit(Value{Op: OpVirtStore, Type: ty, Args: []int{addr, trunc}})
}

// lowerThunk falls back to the scalar interpreter for one instruction word,
// keeping every opcode this file doesn't lower natively provably identical
// to vr_cpu.go's execute().
func lowerThunk(b *Block, addr uint32, word uint32) {
	b.emit(Value{
		Op: OpCallThunk,
		Thunk: func(m *MachineState, args []uint64) uint64 {
			inDelay := m.NextAction == ActionDelay
			m.advanceSequencerPreExec(inDelay)
			m.execute(word, inDelay)
			return 0
		},
	})
}
