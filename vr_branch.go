// vr_branch.go - REGIMM and immediate-format branches, including the *L (likely) family

/*
vr_branch.go

Grounded on user-none-go-chip-m68k's condition-code branch handlers (each
branch computes a bool condition then calls one shared "take or fall
through" helper) generalised to MIPS's delay-slot model via
scheduleBranch (vr_cpu.go). The branch-likely nullification rule — the
delay slot only executes when the branch is taken, otherwise it is
skipped entirely by advancing pc past it — follows spec.md §4.2 directly
since none of the pack's interpreters implement a delay-slot ISA.
*/

package main

func (m *MachineState) execRegimm(word uint32) {
	rs, rt, imm := decodeIType(word)
	target := m.PC + 4 + uint64(int64(imm)<<2)
	cond := false
	link := false
	likely := false
	switch rt {
	case 0x00: // BLTZ
		cond = int64(m.ReadGPR(rs)) < 0
	case 0x01: // BGEZ
		cond = int64(m.ReadGPR(rs)) >= 0
	case 0x02: // BLTZL
		cond = int64(m.ReadGPR(rs)) < 0
		likely = true
	case 0x03: // BGEZL
		cond = int64(m.ReadGPR(rs)) >= 0
		likely = true
	case 0x10: // BLTZAL
		cond = int64(m.ReadGPR(rs)) < 0
		link = true
	case 0x11: // BGEZAL
		cond = int64(m.ReadGPR(rs)) >= 0
		link = true
	case 0x12: // BLTZALL
		cond = int64(m.ReadGPR(rs)) < 0
		link = true
		likely = true
	case 0x13: // BGEZALL
		cond = int64(m.ReadGPR(rs)) >= 0
		link = true
		likely = true
	default:
		m.raiseReservedInstruction()
		return
	}
	if link {
		m.WriteGPR(31, m.PC+8)
	}
	m.takeBranch(cond, likely, target)
}

func (m *MachineState) execBranchImm(op uint32, word uint32) {
	rs, rt, imm := decodeIType(word)
	target := m.PC + 4 + uint64(int64(imm)<<2)
	var cond bool
	likely := false
	switch op {
	case 0x04: // BEQ
		cond = m.ReadGPR(rs) == m.ReadGPR(rt)
	case 0x05: // BNE
		cond = m.ReadGPR(rs) != m.ReadGPR(rt)
	case 0x06: // BLEZ
		cond = int64(m.ReadGPR(rs)) <= 0
	case 0x07: // BGTZ
		cond = int64(m.ReadGPR(rs)) > 0
	case 0x14: // BEQL
		cond = m.ReadGPR(rs) == m.ReadGPR(rt)
		likely = true
	case 0x15: // BNEL
		cond = m.ReadGPR(rs) != m.ReadGPR(rt)
		likely = true
	case 0x16: // BLEZL
		cond = int64(m.ReadGPR(rs)) <= 0
		likely = true
	case 0x17: // BGTZL
		cond = int64(m.ReadGPR(rs)) > 0
		likely = true
	}
	m.takeBranch(cond, likely, target)
}

// takeBranch schedules the branch's delay slot to run normally when taken,
// or (for the *L likely family when not taken) nullifies it by skipping it
// outright — the architectural "annul" behaviour (§4.2).
func (m *MachineState) takeBranch(cond, likely bool, target uint64) {
	if cond {
		m.scheduleBranch(target)
		return
	}
	if likely {
		m.NextAction = ActionJump
		m.NextPC = m.PC + 8
	}
}
