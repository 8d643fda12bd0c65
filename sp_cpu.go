// sp_cpu.go - SP scalar interpreter: fetch/decode/execute over IMem

/*
sp_cpu.go

Grounded on the same user-none-go-chip-m68k Step-loop shape as vr_cpu.go,
narrowed to the SP's scalar subset (§3): no TLB, no COP0, no exceptions —
an unaligned access or an out-of-range fetch is an emulation halt (§7)
rather than an architectural fault, since the SP's reference hardware has
no MMU to report one through. The SP addresses its own 4KB DMem/IMem
directly rather than through the VR's Bus, since those scratch memories
are local SRAM the SP cannot fault accessing.
*/

package main

import "fmt"

// SPStep executes one SP scalar instruction (or, for a vector opcode,
// dispatches into sp_vector.go/sp_clip.go/sp_recip.go/sp_loadstore.go).
func (m *MachineState) SPStep() {
	sp := m.SP
	if sp.Halted {
		return
	}
	if sp.PC >= IMemSize {
		sp.Halt(fmt.Sprintf("SP fetch past IMem end: pc=%#x", sp.PC))
		return
	}
	word := be32(m.IMem[sp.PC : sp.PC+4])

	wasDelay := sp.NextAction == ActionDelay
	if wasDelay {
		sp.NextAction = ActionJump
	}

	op := word >> 26
	switch {
	case op == 0x00:
		m.spExecSpecial(word)
	case op == 0x12:
		m.spExecCop2(word)
	default:
		m.spExecImmediate(op, word)
	}

	if sp.NextAction == ActionJump {
		sp.PC = sp.NextPC
		sp.NextAction = ActionContinue
	} else {
		sp.PC += 4
	}
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func (m *MachineState) spScheduleBranch(target uint32) {
	m.SP.NextAction = ActionDelay
	m.SP.NextPC = target
}

func spDecodeR(word uint32) (rs, rt, rd, sa, funct int) {
	rs = int((word >> 21) & 0x1F)
	rt = int((word >> 16) & 0x1F)
	rd = int((word >> 11) & 0x1F)
	sa = int((word >> 6) & 0x1F)
	funct = int(word & 0x3F)
	return
}

func spDecodeI(word uint32) (rs, rt int, imm int16) {
	rs = int((word >> 21) & 0x1F)
	rt = int((word >> 16) & 0x1F)
	imm = int16(word & 0xFFFF)
	return
}

func (m *MachineState) spExecSpecial(word uint32) {
	sp := m.SP
	rs, rt, rd, sa, funct := spDecodeR(word)
	switch funct {
	case 0x00: // SLL
		sp.WriteGPR(rd, sp.ReadGPR(rt)<<uint(sa))
	case 0x02: // SRL
		sp.WriteGPR(rd, sp.ReadGPR(rt)>>uint(sa))
	case 0x08: // JR
		m.spScheduleBranch(sp.ReadGPR(rs))
	case 0x09: // JALR
		link := sp.PC + 8
		m.spScheduleBranch(sp.ReadGPR(rs))
		sp.WriteGPR(rd, link)
	case 0x20, 0x21: // ADD, ADDU
		sp.WriteGPR(rd, sp.ReadGPR(rs)+sp.ReadGPR(rt))
	case 0x22, 0x23: // SUB, SUBU
		sp.WriteGPR(rd, sp.ReadGPR(rs)-sp.ReadGPR(rt))
	case 0x24: // AND
		sp.WriteGPR(rd, sp.ReadGPR(rs)&sp.ReadGPR(rt))
	case 0x25: // OR
		sp.WriteGPR(rd, sp.ReadGPR(rs)|sp.ReadGPR(rt))
	case 0x26: // XOR
		sp.WriteGPR(rd, sp.ReadGPR(rs)^sp.ReadGPR(rt))
	case 0x27: // NOR
		sp.WriteGPR(rd, ^(sp.ReadGPR(rs) | sp.ReadGPR(rt)))
	case 0x2A: // SLT
		sp.WriteGPR(rd, boolToU32(int32(sp.ReadGPR(rs)) < int32(sp.ReadGPR(rt))))
	case 0x2B: // SLTU
		sp.WriteGPR(rd, boolToU32(sp.ReadGPR(rs) < sp.ReadGPR(rt)))
	case 0x0D: // BREAK
		sp.Halt("SP BREAK executed")
	default:
		sp.Halt(fmt.Sprintf("SP reserved SPECIAL funct %#x", funct))
	}
}

func (m *MachineState) spExecImmediate(op uint32, word uint32) {
	sp := m.SP
	rs, rt, imm := spDecodeI(word)
	switch op {
	case 0x08, 0x09: // ADDI, ADDIU
		sp.WriteGPR(rt, sp.ReadGPR(rs)+uint32(int32(imm)))
	case 0x0A: // SLTI
		sp.WriteGPR(rt, boolToU32(int32(sp.ReadGPR(rs)) < int32(imm)))
	case 0x0B: // SLTIU
		sp.WriteGPR(rt, boolToU32(sp.ReadGPR(rs) < uint32(int32(imm))))
	case 0x0C: // ANDI
		sp.WriteGPR(rt, sp.ReadGPR(rs)&uint32(uint16(imm)))
	case 0x0D: // ORI
		sp.WriteGPR(rt, sp.ReadGPR(rs)|uint32(uint16(imm)))
	case 0x0E: // XORI
		sp.WriteGPR(rt, sp.ReadGPR(rs)^uint32(uint16(imm)))
	case 0x0F: // LUI
		sp.WriteGPR(rt, uint32(uint16(imm))<<16)
	case 0x04: // BEQ
		m.spBranch(sp.ReadGPR(rs) == sp.ReadGPR(rt), int32(imm))
	case 0x05: // BNE
		m.spBranch(sp.ReadGPR(rs) != sp.ReadGPR(rt), int32(imm))
	case 0x06: // BLEZ
		m.spBranch(int32(sp.ReadGPR(rs)) <= 0, int32(imm))
	case 0x07: // BGTZ
		m.spBranch(int32(sp.ReadGPR(rs)) > 0, int32(imm))
	case 0x20: // LB
		m.spLoad(rt, rs, int32(imm), 1, true)
	case 0x21: // LH
		m.spLoad(rt, rs, int32(imm), 2, true)
	case 0x23: // LW
		m.spLoad(rt, rs, int32(imm), 4, true)
	case 0x24: // LBU
		m.spLoad(rt, rs, int32(imm), 1, false)
	case 0x25: // LHU
		m.spLoad(rt, rs, int32(imm), 2, false)
	case 0x28: // SB
		m.spStore(rt, rs, int32(imm), 1)
	case 0x29: // SH
		m.spStore(rt, rs, int32(imm), 2)
	case 0x2B: // SW
		m.spStore(rt, rs, int32(imm), 4)
	case 0x32: // LWC2 (vector load family, secondary-opcode distinguished)
		m.spExecVectorLoadStore(word, false)
	case 0x3A: // SWC2
		m.spExecVectorLoadStore(word, true)
	default:
		sp.Halt(fmt.Sprintf("SP reserved opcode %#x", op))
	}
}

func (m *MachineState) spBranch(cond bool, imm int32) {
	if cond {
		target := m.SP.PC + 4 + uint32(imm<<2)
		m.spScheduleBranch(target)
	}
}

func (m *MachineState) spLoad(rt, rs int, imm int32, size int, signed bool) {
	sp := m.SP
	addr := sp.ReadGPR(rs) + uint32(imm)
	if addr%uint32(size) != 0 {
		sp.Halt(fmt.Sprintf("SP unaligned load at %#x (size %d)", addr, size))
		return
	}
	if int(addr)+size > DMemSize {
		sp.Halt(fmt.Sprintf("SP load out of DMem range: %#x", addr))
		return
	}
	var v uint32
	switch size {
	case 1:
		b := m.DMem[addr]
		if signed {
			v = uint32(int32(int8(b)))
		} else {
			v = uint32(b)
		}
	case 2:
		h := uint16(m.DMem[addr])<<8 | uint16(m.DMem[addr+1])
		if signed {
			v = uint32(int32(int16(h)))
		} else {
			v = uint32(h)
		}
	case 4:
		v = be32(m.DMem[addr : addr+4])
	}
	sp.WriteGPR(rt, v)
}

func (m *MachineState) spStore(rt, rs int, imm int32, size int) {
	sp := m.SP
	addr := sp.ReadGPR(rs) + uint32(imm)
	if addr%uint32(size) != 0 {
		sp.Halt(fmt.Sprintf("SP unaligned store at %#x (size %d)", addr, size))
		return
	}
	if int(addr)+size > DMemSize {
		sp.Halt(fmt.Sprintf("SP store out of DMem range: %#x", addr))
		return
	}
	v := sp.ReadGPR(rt)
	switch size {
	case 1:
		m.DMem[addr] = byte(v)
	case 2:
		m.DMem[addr] = byte(v >> 8)
		m.DMem[addr+1] = byte(v)
	case 4:
		putBE32(m.DMem[addr:addr+4], v)
	}
}

// spExecCop2 dispatches vector-unit arithmetic (VMULF/VMACF/.../VCH/VCL/
// VCR/RCP/RSQ families), implemented in sp_vector.go/sp_clip.go/sp_recip.go.
func (m *MachineState) spExecCop2(word uint32) {
	rs := (word >> 21) & 0x1F
	if rs&0x10 != 0 { // vector op (bit 25 set), funct field selects which
		m.spExecVectorOp(word)
		return
	}
	// MFC2/MTC2/CFC2/CTC2 scalar<->vector element moves.
	m.spExecVectorScalarMove(word)
}
