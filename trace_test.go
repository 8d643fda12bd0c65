package main

import "testing"

// storeLoadProgram writes a value through memory and reads it back, giving
// a deterministic one-store-one-load trace for replay comparison.
func storeLoadProgram() []uint32 {
	return []uint32{
		mipsI(0x0F, 0, 8, -32768), // lui $8, 0x8000 ($8 = kseg0 base, unmapped DRAM)
		mipsI(0x09, 0, 9, 0x2a),   // addiu $9, $0, 0x2a
		mipsI(0x2B, 8, 9, 0x100),  // sw $9, 0x100($8) (physical 0x100)
		mipsI(0x23, 8, 10, 0x100), // lw $10, 0x100($8)
	}
}

// TestTraceDiffMatchesIdenticalReplay checks Diff reports a match when the
// same program runs twice from the same initial state.
func TestTraceDiffMatchesIdenticalReplay(t *testing.T) {
	a := newVRTestRig()
	a.Trace = NewTraceRecorder(0)
	a.loadProgram(a.PC, storeLoadProgram())
	for i := 0; i < len(storeLoadProgram()); i++ {
		a.Step()
	}

	b := newVRTestRig()
	b.Trace = NewTraceRecorder(0)
	b.loadProgram(b.PC, storeLoadProgram())
	for i := 0; i < len(storeLoadProgram()); i++ {
		b.Step()
	}

	if _, detail, ok := Diff(a.Trace, b.Trace); !ok {
		t.Fatalf("identical replay reported mismatch: %s", detail)
	}
	requireU64(t, "$10 (loaded back)", a.ReadGPR(10), 0x2a)
}

// TestTraceDiffCatchesDivergence checks Diff reports the first differing
// entry when one run's memory traffic actually differs from the other's.
func TestTraceDiffCatchesDivergence(t *testing.T) {
	a := newVRTestRig()
	a.Trace = NewTraceRecorder(0)
	a.loadProgram(a.PC, storeLoadProgram())
	for i := 0; i < len(storeLoadProgram()); i++ {
		a.Step()
	}

	diverged := storeLoadProgram()
	diverged[1] = mipsI(0x09, 0, 9, 0x2b) // store 0x2b instead of 0x2a
	b := newVRTestRig()
	b.Trace = NewTraceRecorder(0)
	b.loadProgram(b.PC, diverged)
	for i := 0; i < len(diverged); i++ {
		b.Step()
	}

	idx, _, ok := Diff(a.Trace, b.Trace)
	if ok {
		t.Fatal("expected Diff to report a mismatch, got ok=true")
	}
	if idx != 0 {
		t.Fatalf("mismatch index = %d, want 0 (the store entry)", idx)
	}
}
