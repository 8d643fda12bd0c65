// sp_clip.go - VCH/VCL/VCR clipping-compare pipeline

/*
sp_clip.go

Grounded bit-for-bit on original_source/src/interpreter/rsp.cc's VCH/VCL/
VCR implementations rather than the MIPS vendor reference manual's prose,
per the spec's §9 Open Question instruction that these three be implemented
"as the original does them" since the manual's description and real
hardware diverge on several edge cases (the sign-combination table for
VCH's NOTVCH flag, and VCL's zero-sum tie-break). Kept as its own file
since the clipping pipeline is conceptually distinct from the plain
arithmetic in sp_vector.go: it always produces both a merged result vector
and updates all three flag registers (VCO/VCC/VCE) together.
*/

package main

// vecVCH implements VCH (select clip test high): it fills both halves of
// VCO (sign at bit i, not-equal at bit i+8) and VCC (le at bit i, ge at bit
// i+8), plus VCE, in one pass over the lanes. VCL's tie-break reads exactly
// these three registers back on the next instruction, so the bit layout
// here is load-bearing, not cosmetic.
func (m *MachineState) vecVCH(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	var vco, vcc uint16
	var vce uint8
	var out [spVecLanes]uint16
	for i := 0; i < spVecLanes; i++ {
		s := sp.VReg[vs][i]
		t := vt[i]
		sign := int16(s^t) < 0

		var tmp, di uint16
		var ge, le, vceLane, neq bool
		if sign {
			tmp = s + t
			ge = int16(t) < 0
			le = int16(tmp) <= 0
			vceLane = int16(tmp) == -1
			neq = int16(tmp) != 0 && int16(tmp) != -1
			if le {
				di = -t
			} else {
				di = s
			}
		} else {
			tmp = s - t
			le = int16(t) < 0
			ge = int16(tmp) >= 0
			neq = int16(tmp) != 0
			if ge {
				di = t
			} else {
				di = s
			}
		}

		sp.AccLo[i] = di
		if ge {
			vcc |= 1 << uint(i+8)
		}
		if le {
			vcc |= 1 << uint(i)
		}
		if neq {
			vco |= 1 << uint(i+8)
		}
		if sign {
			vco |= 1 << uint(i)
		}
		if vceLane {
			vce |= 1 << uint(i)
		}
		out[i] = di
	}
	sp.VReg[vd] = out
	sp.VCC = vcc
	sp.VCO = vco
	sp.VCE = vce
}

// vecVCL implements VCL (select clip test low), the companion to VCH: it
// reads back VCH's sign/not-equal split from VCO and le/ge split from VCC,
// only recomputing the compare when VCO's not-equal bit says VCH didn't
// already settle it for this lane.
func (m *MachineState) vecVCL(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	vcoIn, vccIn, vceIn := sp.VCO, sp.VCC, sp.VCE
	var vcc uint16
	var out [spVecLanes]uint16
	for i := 0; i < spVecLanes; i++ {
		s := sp.VReg[vs][i]
		t := vt[i]

		neq := (vcoIn>>uint(i+8))&1 != 0
		sign := (vcoIn>>uint(i))&1 != 0
		ge := (vccIn>>uint(i+8))&1 != 0
		le := (vccIn>>uint(i))&1 != 0
		vceLane := (vceIn>>uint(i))&1 != 0

		var di uint16
		if sign {
			sum := uint32(s) + uint32(t)
			carry := sum > 0xFFFF
			if !neq {
				eqZero := uint16(sum) == 0
				le = (!vceLane && eqZero && !carry) || (vceLane && (eqZero || !carry))
			}
			if le {
				di = -t
			} else {
				di = s
			}
		} else {
			diff := int32(s) - int32(t)
			if !neq {
				ge = diff >= 0
			}
			if ge {
				di = t
			} else {
				di = s
			}
		}

		sp.AccLo[i] = di
		if ge {
			vcc |= 1 << uint(i+8)
		}
		if le {
			vcc |= 1 << uint(i)
		}
		out[i] = di
	}
	sp.VReg[vd] = out
	sp.VCC = vcc
	sp.VCO = 0
	sp.VCE = 0
}

// vecVCR implements VCR (select clip test, unsigned-style rounding): same
// le/ge split into VCC as VCH, and it clears VCO/VCE since it has no
// VCL-style continuation.
func (m *MachineState) vecVCR(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	var vcc uint16
	var out [spVecLanes]uint16
	for i := 0; i < spVecLanes; i++ {
		s := sp.VReg[vs][i]
		t := vt[i]
		sign := int16(s^t) < 0

		var tmp, di uint16
		var ge, le bool
		if sign {
			tmp = s + t + 1
			ge = int16(t) < 0
			le = int16(tmp) <= 0
			if le {
				di = ^t
			} else {
				di = s
			}
		} else {
			tmp = s - t
			le = int16(t) < 0
			ge = int16(tmp) >= 0
			if ge {
				di = t
			} else {
				di = s
			}
		}

		sp.AccLo[i] = di
		if ge {
			vcc |= 1 << uint(i+8)
		}
		if le {
			vcc |= 1 << uint(i)
		}
		out[i] = di
	}
	sp.VReg[vd] = out
	sp.VCC = vcc
	sp.VCO = 0
	sp.VCE = 0
}
