package main

import "testing"

// TestVmulfRoundTrip checks VMULF against the documented rounding term:
// multiplying the largest 1.15 fixed-point value (0x7FFF) by itself gives
// (0x7FFF*0x7FFF*2 + 0x8000) >> 16 = 0x7FFE, without saturating.
func TestVmulfRoundTrip(t *testing.T) {
	m := newVRTestRig()
	for i := 0; i < spVecLanes; i++ {
		m.SP.VReg[1][i] = 0x7FFF
		m.SP.VReg[2][i] = 0x7FFF
	}
	vt := vecElement(&m.SP.VReg[2], 0)
	m.vecMulFull(3, 1, vt, false, false)
	for i := 0; i < spVecLanes; i++ {
		if m.SP.VReg[3][i] != 0x7FFE {
			t.Fatalf("lane %d = %#x, want 0x7ffe", i, m.SP.VReg[3][i])
		}
	}
}

// TestVmacfAccumulates checks that VMACF (accumulate=true) adds onto a
// nonzero accumulator rather than overwriting it, distinguishing it from
// VMULF.
func TestVmacfAccumulates(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[1][0] = 0x0001
	m.SP.VReg[2][0] = 0x0001
	vt := vecElement(&m.SP.VReg[2], 0)

	m.vecMulFull(3, 1, vt, false, false) // VMULF: seeds the accumulator
	before := m.accum(0)

	m.vecMulFull(3, 1, vt, false, true) // VMACF: accumulate onto it
	after := m.accum(0)

	if after != before*2 {
		t.Fatalf("VMACF accum = %d, want %d (accumulate, not overwrite)", after, before*2)
	}
}

// TestVmudlOverwritesAccumulator checks VMUDL (overwrite=true) replaces the
// accumulator instead of adding to it, the mud/mad distinction.
func TestVmudlOverwritesAccumulator(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[1][0] = 0xFFFF // -1 as unsigned low word
	m.SP.VReg[2][0] = 0x0002
	vt := vecElement(&m.SP.VReg[2], 0)

	m.setAccum(0, 0x1234) // preexisting accumulator contents
	m.vecMulLow(3, 1, vt, true)
	want := int64(0xFFFF) * int64(0x0002)
	if m.accum(0) != want {
		t.Fatalf("VMUDL accum = %d, want %d (overwrite, not add)", m.accum(0), want)
	}
}

// TestVaddSaturates checks VADD's lane-wise saturating add via the shared
// clampS16 helper.
func TestVaddSaturates(t *testing.T) {
	m := newVRTestRig()
	m.SP.VReg[1][0] = uint16(int16(30000))
	m.SP.VReg[2][0] = uint16(int16(30000))
	vt := vecElement(&m.SP.VReg[2], 0)
	m.vecAdd(3, 1, vt)
	if int16(m.SP.VReg[3][0]) != 32767 {
		t.Fatalf("VADD result = %d, want saturated 32767", int16(m.SP.VReg[3][0]))
	}
}

// TestElementTableBroadcast checks e>=8 broadcasts a single source lane
// across every output lane, per the documented e-field layout.
func TestElementTableBroadcast(t *testing.T) {
	var v [spVecLanes]uint16
	for i := range v {
		v[i] = uint16(i + 1)
	}
	out := vecElement(&v, 8+3) // broadcast lane 3
	for i, got := range out {
		if got != v[3] {
			t.Fatalf("lane %d = %d, want broadcast of lane 3 (%d)", i, got, v[3])
		}
	}
}
