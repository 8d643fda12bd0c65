package main

import "testing"

// TestVRCPHStagesAndReturnsPriorResult checks VRCPH (high=true) stages its
// input into DivIn, arms DivInLoaded, and returns the high half of whatever
// DivOut already held rather than computing a fresh reciprocal — the *H
// variant never does its own ROM lookup.
func TestVRCPHStagesAndReturnsPriorResult(t *testing.T) {
	m := newVRTestRig()
	m.SP.DivOut = 0xABCD0000 // pretend a prior op already computed this

	m.SP.VReg[5][0] = 0x0007
	m.vecRCP(2, 0, 5, 0, true, false)

	requireU64(t, "DivIn after VRCPH", uint64(m.SP.DivIn), 0x0007)
	if !m.SP.DivInLoaded {
		t.Fatal("VRCPH must arm DivInLoaded")
	}
	requireU64(t, "VRCPH result lane", uint64(m.SP.VReg[2][0]), uint64(uint16(0xABCD0000>>16)))
	requireU64(t, "DivOut must be unchanged by VRCPH", uint64(m.SP.DivOut), 0xABCD0000)
}

// TestVRCPLCombinesStagedUpperHalfThenClears checks VRCPL (low=true) ORs
// the already-staged upper 16 bits from a preceding VRCPH into the dividend
// before computing, then clears DivInLoaded so the next VRCPH starts a
// fresh handshake instead of reusing stale input.
func TestVRCPLCombinesStagedUpperHalfThenClears(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[5][0] = 0x0001
	m.vecRCP(2, 0, 5, 0, true, false) // VRCPH: stage high half = 1

	m.SP.VReg[5][1] = 0x0000
	m.vecRCP(3, 0, 5, 1, false, true) // VRCPL: low half = 0

	if m.SP.DivInLoaded {
		t.Fatal("VRCPL must clear DivInLoaded")
	}
	want := lookupRecip(int32(0x00010000), &rcpROM, false)
	requireU64(t, "DivOut after VRCPL", uint64(m.SP.DivOut), uint64(uint32(want)))
	requireU64(t, "VRCPL result lane", uint64(m.SP.VReg[3][1]), uint64(uint16(want)))
}

// TestVRCPHAfterVRCPLReturnsComputedHighHalf checks the third step of the
// handshake: a VRCPH following a completed VRCPL returns the high half of
// the value VRCPL just computed (not a new lookup), while re-arming the
// handshake with its own input for a subsequent pair.
func TestVRCPHAfterVRCPLReturnsComputedHighHalf(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[5][0] = 0x0001
	m.vecRCP(2, 0, 5, 0, true, false) // VRCPH: stage high half = 1
	m.SP.VReg[5][1] = 0x0000
	m.vecRCP(3, 0, 5, 1, false, true) // VRCPL: computes and clears

	computed := m.SP.DivOut
	m.SP.VReg[5][2] = 0x9999
	m.vecRCP(4, 0, 5, 2, true, false) // VRCPH again

	requireU64(t, "second VRCPH result lane", uint64(m.SP.VReg[4][2]), uint64(uint16(computed>>16)))
	requireU64(t, "DivIn re-armed by second VRCPH", uint64(m.SP.DivIn), 0x9999)
	if !m.SP.DivInLoaded {
		t.Fatal("second VRCPH must re-arm DivInLoaded")
	}
}

// TestPlainVRCPClearsHandshake checks the non-split VRCP form computes
// directly from its 16-bit input (sign-extended) and always leaves
// DivInLoaded clear, regardless of whatever a preceding *H staged.
func TestPlainVRCPClearsHandshake(t *testing.T) {
	m := newVRTestRig()
	m.SP.DivInLoaded = true
	m.SP.DivIn = 0x4242

	m.SP.VReg[6][0] = 0xFF00 // -256
	m.vecRCP(7, 0, 6, 0, false, false)

	if m.SP.DivInLoaded {
		t.Fatal("plain VRCP must clear DivInLoaded")
	}
	want := lookupRecip(int32(int16(-256)), &rcpROM, false)
	requireU64(t, "plain VRCP result lane", uint64(m.SP.VReg[7][0]), uint64(uint16(want)))
}

// TestPlainVRSQUsesRSQTable checks VRSQ routes through rsqROM rather than
// rcpROM, and otherwise follows the same direct-compute, clear-handshake
// shape as plain VRCP.
func TestPlainVRSQUsesRSQTable(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[6][0] = 0x0100
	m.vecRSQ(7, 0, 6, 0, false, false)

	if m.SP.DivInLoaded {
		t.Fatal("plain VRSQ must clear DivInLoaded")
	}
	want := lookupRecip(int32(int16(0x0100)), &rsqROM, true)
	requireU64(t, "plain VRSQ result lane", uint64(m.SP.VReg[7][0]), uint64(uint16(want)))
}
