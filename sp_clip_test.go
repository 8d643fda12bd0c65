package main

import "testing"

// TestVCHSplitsSignAndNotEqualIntoVCO checks VCH packs the sign condition
// into VCO's low byte and the not-equal condition into its high byte, and
// the le/ge compare split the same way into VCC, per lane.
func TestVCHSplitsSignAndNotEqualIntoVCO(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[1][0] = uint16(int16(5))  // lane 0: same sign as t, s - t path
	m.SP.VReg[1][1] = 0xFFFB            // lane 1 (-5): opposite sign, s + t path
	var vt [spVecLanes]uint16
	vt[0] = uint16(int16(3))
	vt[1] = uint16(int16(3))

	m.vecVCH(2, 1, vt)

	requireU64(t, "VCH lane0 result", uint64(m.SP.VReg[2][0]), uint64(int16(3)))
	requireU64(t, "VCH lane1 result", uint64(m.SP.VReg[2][1]), 0xFFFD) // -3

	if m.SP.VCO&1 != 0 {
		t.Fatal("VCO bit 0 (lane0 sign) set, want clear: lane0 operands share a sign")
	}
	if (m.SP.VCO>>1)&1 == 0 {
		t.Fatal("VCO bit 1 (lane1 sign) clear, want set: lane1 operands have opposite signs")
	}
	if (m.SP.VCO>>8)&1 == 0 {
		t.Fatal("VCO bit 8 (lane0 not-equal) clear, want set")
	}
	if (m.SP.VCO>>9)&1 == 0 {
		t.Fatal("VCO bit 9 (lane1 not-equal) clear, want set")
	}
	if m.SP.VCC&1 != 0 {
		t.Fatal("VCC bit 0 (lane0 le) set, want clear")
	}
	if (m.SP.VCC>>1)&1 == 0 {
		t.Fatal("VCC bit 1 (lane1 le) clear, want set")
	}
	if (m.SP.VCC>>8)&1 == 0 {
		t.Fatal("VCC bit 8 (lane0 ge) clear, want set")
	}
	if (m.SP.VCC>>9)&1 != 0 {
		t.Fatal("VCC bit 9 (lane1 ge) set, want clear")
	}
}

// TestVCLContinuesVCHHandshake checks VCL reads VCH's staged VCO/VCC/VCE
// split back out (rather than re-deriving its own single-condition view of
// them) and only recomputes the compare when VCH's not-equal bit left it
// unsettled for that lane.
func TestVCLContinuesVCHHandshake(t *testing.T) {
	m := newVRTestRig()

	// VCH on the dividend's high half: s=5, t=-5 is the sign-differs,
	// exact-cancellation case (tmp==0), which VCH itself cannot settle
	// (neq comes out false), leaving it for VCL's tie-break.
	m.SP.VReg[1][0] = uint16(int16(5))
	var vtHigh [spVecLanes]uint16
	vtHigh[0] = 0xFFFB // -5
	m.vecVCH(2, 1, vtHigh)

	requireU64(t, "VCH lane0 result", uint64(m.SP.VReg[2][0]), uint64(int16(5)))
	if (m.SP.VCO>>8)&1 != 0 {
		t.Fatal("VCO bit 8 (not-equal) set, want clear: tmp==0 is the unsettled case")
	}

	// VCL on the low half: s=0, t=0 settles the tie in VCL's favor (sum==0,
	// no carry, VCE clear).
	m.SP.VReg[3][0] = 0
	var vtLow [spVecLanes]uint16
	vtLow[0] = 0
	m.vecVCL(4, 3, vtLow)

	requireU64(t, "VCL lane0 result", uint64(m.SP.VReg[4][0]), 0)
	if m.SP.VCC&1 == 0 {
		t.Fatal("VCC bit 0 (le) clear after VCL settled the tie true, want set")
	}
	if (m.SP.VCC>>8)&1 == 0 {
		t.Fatal("VCC bit 8 (ge) clear, want the VCH-staged ge carried through unchanged")
	}
	if m.SP.VCO != 0 {
		t.Fatal("VCO not cleared by VCL")
	}
	if m.SP.VCE != 0 {
		t.Fatal("VCE not cleared by VCL")
	}
}

// TestVCRSignDiffersTakesBitwiseComplement checks VCR's sign-differs lane
// picks ^t (not -t) when s+t+1 is not positive, records its own le/ge split
// into VCC, and clears VCO/VCE.
func TestVCRSignDiffersTakesBitwiseComplement(t *testing.T) {
	m := newVRTestRig()
	m.SP.VCO = 0xFFFF
	m.SP.VCE = 0xFF
	m.SP.VReg[1][0] = uint16(int16(2))
	var vt [spVecLanes]uint16
	vt[0] = 0xFFFC // -4

	m.vecVCR(2, 1, vt)

	requireU64(t, "VCR lane0 result", uint64(m.SP.VReg[2][0]), uint64(int16(3))) // ^t
	if (m.SP.VCC>>8)&1 == 0 {
		t.Fatal("VCC bit 8 (ge) clear, want set")
	}
	if m.SP.VCC&1 == 0 {
		t.Fatal("VCC bit 0 (le) clear, want set")
	}
	if m.SP.VCO != 0 {
		t.Fatal("VCR must clear VCO")
	}
	if m.SP.VCE != 0 {
		t.Fatal("VCR must clear VCE")
	}
}
