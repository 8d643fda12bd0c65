package main

import "testing"

// TestAddiuImmediate exercises execImmediate's ADDIU path directly: a
// register-to-register constant add with 32-bit sign extension.
func TestAddiuImmediate(t *testing.T) {
	m := newVRTestRig()
	m.WriteGPR(8, 5)
	m.execImmediate(0x09, mipsI(0x09, 8, 9, 7)) // addiu $9, $8, 7
	requireU64(t, "$9", m.ReadGPR(9), 12)
}

// TestAdduOverflowWraps checks ADDU (unlike ADD) never traps on overflow.
func TestAdduOverflowWraps(t *testing.T) {
	m := newVRTestRig()
	m.WriteGPR(8, 0x7FFFFFFF)
	m.WriteGPR(9, 1)
	m.execSpecial(mipsR(0, 8, 9, 10, 0, 0x21)) // addu $10, $8, $9
	requireU64(t, "$10", m.ReadGPR(10), 0xFFFFFFFF80000000)
	if m.Halted {
		t.Fatalf("ADDU must not trap on overflow, halted: %s", m.HaltReason)
	}
}

// TestAddOverflowTraps checks ADD raises ExcOv and redirects pc on signed
// 32-bit overflow.
func TestAddOverflowTraps(t *testing.T) {
	m := newVRTestRig()
	m.WriteGPR(8, 0x7FFFFFFF)
	m.WriteGPR(9, 1)
	m.execSpecial(mipsR(0, 8, 9, 10, 0, 0x20)) // add $10, $8, $9
	if m.CP0.Cause()&CauseExcCodeMask>>CauseExcCodeShift != ExcOv {
		t.Fatalf("expected ExcOv, Cause=%#x", m.CP0.Cause())
	}
}

// TestDivuByZeroSentinel checks the original_source-derived by-zero
// sentinel values rather than a trap.
func TestDivuByZeroSentinel(t *testing.T) {
	m := newVRTestRig()
	m.WriteGPR(8, 42)
	m.WriteGPR(9, 0)
	m.execSpecial(mipsR(0, 8, 9, 0, 0, 0x1B)) // divu $8, $9
	requireU64(t, "LO", m.MultLo, 0xFFFFFFFFFFFFFFFF) // -1, sign-extended
	requireU64(t, "HI", m.MultHi, 42)
}

// TestDivByZeroSentinelSignFollowsDividend checks DIV's by-zero sentinel:
// a negative dividend yields lo=1, a non-negative one yields lo=-1
// (original_source/src/interpreter/cpu.cc's eval_DIV).
func TestDivByZeroSentinelSignFollowsDividend(t *testing.T) {
	m := newVRTestRig()
	m.WriteGPR(8, 0xFFFFFFFFFFFFFFF9) // -7
	m.WriteGPR(9, 0)
	m.execSpecial(mipsR(0, 8, 9, 0, 0, 0x1A)) // div $8, $9
	requireU64(t, "LO (negative dividend)", m.MultLo, uint64(int64(int32(1))))
	requireU64(t, "HI", m.MultHi, 0xFFFFFFFFFFFFFFF9) // -7

	m2 := newVRTestRig()
	m2.WriteGPR(8, 7)
	m2.WriteGPR(9, 0)
	m2.execSpecial(mipsR(0, 8, 9, 0, 0, 0x1A)) // div $8, $9
	requireU64(t, "LO (non-negative dividend)", m2.MultLo, 0xFFFFFFFFFFFFFFFF) // -1
}

// TestBranchDelaySlotExecutesOnce verifies the two-stage sequencer: the
// instruction physically after a taken branch (its delay slot) executes
// exactly once, and control lands at the branch target right after.
func TestBranchDelaySlotExecutesOnce(t *testing.T) {
	m := newVRTestRig()
	base := m.PC
	// beq $0, $0, 2          ; always taken, target = base+4+2*4 = base+12
	// addiu $1, $0, 11       ; delay slot, always executes
	// addiu $1, $0, 22       ; skipped (branch lands past here)
	// addiu $1, $0, 33       ; branch target
	m.loadProgram(base, []uint32{
		mipsI(0x04, 0, 0, 2),
		mipsI(0x09, 0, 1, 11),
		mipsI(0x09, 0, 1, 22),
		mipsI(0x09, 0, 1, 33),
	})
	m.Step() // beq
	m.Step() // delay slot: $1 = 11
	requireU64(t, "$1 after delay slot", m.ReadGPR(1), 11)
	requireU64(t, "pc at branch target", m.PC, base+12)
	m.Step() // $1 = 33 at the branch target
	requireU64(t, "$1 at branch target", m.ReadGPR(1), 33)
}

// TestBeqlNotTakenNullifiesDelaySlot verifies the "likely" branch family
// skips its delay slot entirely when not taken (§4.2).
func TestBeqlNotTakenNullifiesDelaySlot(t *testing.T) {
	m := newVRTestRig()
	base := m.PC
	m.WriteGPR(2, 1)
	// beql $0, $2, 2   ; not taken ($0 != $2)
	// addiu $1, $0, 99 ; delay slot, must be skipped
	// addiu $1, $0, 7  ; next instruction after the nullified slot
	m.loadProgram(base, []uint32{
		mipsI(0x14, 0, 2, 2),
		mipsI(0x09, 0, 1, 99),
		mipsI(0x09, 0, 1, 7),
	})
	m.Step() // beql, not taken
	m.Step() // lands directly on the post-delay-slot instruction
	requireU64(t, "$1 skips nullified delay slot", m.ReadGPR(1), 7)
}

// TestTLBRefillException checks that a kuseg access with no matching TLB
// entry raises ExcTLBL and redirects pc to the refill vector (offset
// 0x000, not the general 0x180 vector) when Status.EXL is clear.
func TestTLBRefillException(t *testing.T) {
	m := newVRTestRig()
	m.CP0.SetStatus(0) // BEV=0, EXL=0
	const kusegAddr = 0x00400000
	phys, ok := m.translateOrExcept(kusegAddr, false, true)
	if ok {
		t.Fatalf("expected TLB refill miss, got phys=%#x", phys)
	}
	wantVec := exceptionVector(ExcTLBL, 0, true)
	requireU64(t, "pc after TLB refill", m.PC, wantVec)
	gotExc := (m.CP0.Cause() & CauseExcCodeMask) >> CauseExcCodeShift
	if gotExc != ExcTLBL {
		t.Fatalf("ExcCode = %d, want ExcTLBL", gotExc)
	}
}

// TestUnalignedLoadRaisesAdEL checks checkAlign's address-error path.
func TestUnalignedLoadRaisesAdEL(t *testing.T) {
	m := newVRTestRig()
	base := m.PC
	m.WriteGPR(8, uint64(kseg0Base)+1) // misaligned by one byte
	m.loadProgram(base, []uint32{mipsI(0x23, 8, 9, 0)}) // lw $9, 0($8)
	m.Step()
	gotExc := (m.CP0.Cause() & CauseExcCodeMask) >> CauseExcCodeShift
	if gotExc != ExcAdEL {
		t.Fatalf("ExcCode = %d, want ExcAdEL", gotExc)
	}
}
