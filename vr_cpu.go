// vr_cpu.go - VR main CPU: fetch/decode/execute and the delay-slot sequencer

/*
vr_cpu.go

Grounded on user-none-go-chip-m68k's interpreter loop shape (a Step method
that fetches one instruction, dispatches through a table keyed by the
opcode's primary field, and falls through to secondary tables for SPECIAL/
REGIMM-style extended encodings) and bassosimone-risc32's plain
switch-on-opcode decode, generalised to MIPS III's 6-bit primary opcode
plus 6-bit SPECIAL funct field and 5-bit REGIMM rt field. The two-stage
Continue/Delay/Jump sequencer is this core's own addition (§4.2): a branch
instruction never jumps immediately, it schedules NextAction=Delay with
NextPC, so the following instruction (the delay slot) always executes
first, mirroring the MIPS architectural contract rather than special-casing
"skip one instruction" in the branch handlers themselves.
*/

package main

import "fmt"

// Step executes exactly one scalar VR instruction: fetch at PC, decode,
// execute, then advance the delay-slot sequencer (§4.2). Each instruction
// costs this core a flat Cycles++ rather than instruction-specific timing
// (§1 Non-goals: no micro-architectural timing model beyond what keeps COP0
// Count/Compare scheduling plausible).
func (m *MachineState) Step() {
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
	var word uint32
	if !m.Bus.LoadU32(phys, &word) {
		m.Halt(fmt.Sprintf("bus error fetching instruction at phys %#x", phys))
		return
	}

	inDelaySlot := m.NextAction == ActionDelay
	m.advanceSequencerPreExec(inDelaySlot)

	m.execute(word, inDelaySlot)

	m.CP0.TickRandom()
	m.tickCount()
	m.Cycles++
	m.DMA.Tick()
}

// advanceSequencerPreExec turns a queued Delay into Jump when the
// instruction about to execute is the delay slot; it does not touch PC.
// commitPC then moves NextPC into PC after the delay slot executes. The
// target itself was queued one instruction earlier by scheduleBranch.
func (m *MachineState) advanceSequencerPreExec(wasDelay bool) {
	if wasDelay {
		m.NextAction = ActionJump
	}
}

// scheduleBranch is called by vr_branch.go's handlers: it queues the target
// for after the delay slot, per §4.2.
func (m *MachineState) scheduleBranch(target uint64) {
	m.NextAction = ActionDelay
	m.NextPC = target
}

// commitPC advances PC for the instruction just executed: to NextPC if a
// queued jump just took effect, otherwise PC+4.
func (m *MachineState) commitPC(fellThroughDelay bool) {
	if m.NextAction == ActionJump {
		m.PC = m.NextPC
		m.NextAction = ActionContinue
		return
	}
	if fellThroughDelay {
		// A branch-not-taken still falls through normally; NextAction was
		// never set to Delay for it.
	}
	m.PC += 4
}

// tickCount advances CP0.Count and, when it reaches Compare, sets the timer
// interrupt's pending bit (IP7) in CP0 Cause directly, not through MI, per
// the architecture's Count/Compare
// timer (§3's auxiliary-state note about Count/Compare wiring).
func (m *MachineState) tickCount() {
	count := uint32(m.CP0.Read(CP0Count)) + 1
	m.CP0.Write(CP0Count, uint64(count))
	if count == uint32(m.CP0.Read(CP0Compare)) {
		cause := m.CP0.Cause()
		cause |= CauseIP & (1 << 15) // timer interrupt is IP7, bit 15 of Cause
		m.CP0.SetCause(cause)
	}
}

// execute dispatches one decoded instruction. The primary opcode field
// (bits 31:26) selects SPECIAL (vr_alu.go/vr_branch.go funct dispatch),
// REGIMM (vr_branch.go rt dispatch), COP0 (vr_cop0ops.go), or a direct
// immediate-format opcode.
func (m *MachineState) execute(word uint32, inDelaySlot bool) {
	op := word >> 26
	switch op {
	case 0x00:
		m.execSpecial(word)
	case 0x01:
		m.execRegimm(word)
	case 0x10:
		m.execCop0(word)
	case 0x11:
		m.execCop1(word)
	default:
		m.execImmediate(op, word)
	}
	m.commitPC(inDelaySlot)
}

func decodeRType(word uint32) (rs, rt, rd, sa, funct int) {
	rs = int((word >> 21) & 0x1F)
	rt = int((word >> 16) & 0x1F)
	rd = int((word >> 11) & 0x1F)
	sa = int((word >> 6) & 0x1F)
	funct = int(word & 0x3F)
	return
}

func decodeIType(word uint32) (rs, rt int, imm int16) {
	rs = int((word >> 21) & 0x1F)
	rt = int((word >> 16) & 0x1F)
	imm = int16(word & 0xFFFF)
	return
}

func decodeJType(word uint32) (target uint32) {
	return word & 0x03FFFFFF
}
