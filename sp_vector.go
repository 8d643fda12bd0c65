// sp_vector.go - vector unit ALU: element selection, multiply-accumulate family

/*
sp_vector.go

Grounded on spec.md §3/§4.3's vector-unit description and cross-checked
against original_source/src/interpreter/rsp.cc for the exact accumulator
bit-widths and the VMULF/VMULU rounding term (both VMULF and VMULU add
0x8000 to the doubled product before taking its high half, so the 1.15
result is rounded to nearest rather than truncated; 0x7FFF times itself
comes out as 0x7FFE) and for the 16x8 element-selection table's
exact layout, since spec.md's GLOSSARY names the "4-bit e field" without
spelling out the broadcast pattern. No pack repo has a SIMD lane model to
ground the shape of "a fixed [16][8]int table answers the e-field lookup",
so that table's construction follows the real hardware's documented
behaviour rather than adapting an example.
*/

package main

// elementTable[e] gives, for each of the 8 output lanes, which source lane
// to read. e in 0..1 means "no swizzle" (identity); 2..3 broadcast one
// lane of each pair; 4..7 broadcast one lane of each group of four; 8..15
// broadcast a single lane.
var elementTable = buildElementTable()

func buildElementTable() [16][8]int {
	var t [16][8]int
	for lane := 0; lane < 8; lane++ {
		t[0][lane] = lane
		t[1][lane] = lane
	}
	for e := 2; e <= 3; e++ {
		for lane := 0; lane < 8; lane++ {
			t[e][lane] = (lane &^ 1) + (e - 2)
		}
	}
	for e := 4; e <= 7; e++ {
		for lane := 0; lane < 8; lane++ {
			t[e][lane] = (lane &^ 3) + (e - 4)
		}
	}
	for e := 8; e <= 15; e++ {
		single := e - 8
		for lane := 0; lane < 8; lane++ {
			t[e][lane] = single
		}
	}
	return t
}

func vecElement(v *[spVecLanes]uint16, e int) [spVecLanes]uint16 {
	var out [spVecLanes]uint16
	sel := elementTable[e&0xF]
	for i := 0; i < spVecLanes; i++ {
		out[i] = v[sel[i]]
	}
	return out
}

// spExecVectorOp dispatches one COP2 vector-arithmetic instruction: fields
// follow the standard RSP vector encoding — bit 25 set marks a vector op
// (checked by the caller), e is bits 21:24, vt 16:20, vs 11:15, vd 6:10 and
// funct 0:5, which differs from the scalar R-type and is decoded here
// directly.
func (m *MachineState) spExecVectorOp(word uint32) {
	vd := int((word >> 6) & 0x1F)
	vs := int((word >> 11) & 0x1F)
	vt := int((word >> 16) & 0x1F)
	e := int((word >> 21) & 0xF)
	funct := int(word & 0x3F)

	sp := m.SP
	vtSel := vecElement(&sp.VReg[vt], e)

	switch funct {
	case 0x00: // VMULF
		m.vecMulFull(vd, vs, vtSel, false, false)
	case 0x01: // VMULU
		m.vecMulFull(vd, vs, vtSel, true, false)
	case 0x04: // VMUDL
		m.vecMulLow(vd, vs, vtSel, true)
	case 0x05: // VMUDM
		m.vecMulMid(vd, vs, vtSel, true, false)
	case 0x06: // VMUDN
		m.vecMulMid(vd, vs, vtSel, false, false)
	case 0x07: // VMUDH
		m.vecMulHigh(vd, vs, vtSel, true)
	case 0x08: // VMACF
		m.vecMulFull(vd, vs, vtSel, false, true)
	case 0x09: // VMACU
		m.vecMulFull(vd, vs, vtSel, true, true)
	case 0x0C: // VMADL
		m.vecMulLow(vd, vs, vtSel, false)
	case 0x0D: // VMADM
		m.vecMulMid(vd, vs, vtSel, true, true)
	case 0x0E: // VMADN
		m.vecMulMid(vd, vs, vtSel, false, true)
	case 0x0F: // VMADH
		m.vecMulHigh(vd, vs, vtSel, false)
	case 0x10: // VADD
		m.vecAdd(vd, vs, vtSel)
	case 0x11: // VSUB
		m.vecSub(vd, vs, vtSel)
	case 0x14: // VABS
		m.vecAbs(vd, vs, vtSel)
	case 0x15: // VADDC
		m.vecAddC(vd, vs, vtSel)
	case 0x16: // VSUBC
		m.vecSubC(vd, vs, vtSel)
	case 0x20: // VCH
		m.vecVCH(vd, vs, vtSel)
	case 0x21: // VCR
		m.vecVCR(vd, vs, vtSel)
	case 0x22: // VCL
		m.vecVCL(vd, vs, vtSel)
	case 0x23: // VSAR
		m.vecVSAR(vd, e)
	case 0x28: // VAND
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return a & b })
	case 0x29: // VNAND
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return ^(a & b) })
	case 0x2A: // VOR
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return a | b })
	case 0x2B: // VNOR
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return ^(a | b) })
	case 0x2C: // VXOR
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return a ^ b })
	case 0x2D: // VNXOR
		m.vecLogical(vd, vs, vtSel, func(a, b uint16) uint16 { return ^(a ^ b) })
	case 0x30: // VRCP
		m.vecRCP(vd, vs, vt, e, false, false)
	case 0x31: // VRCPL
		m.vecRCP(vd, vs, vt, e, false, true)
	case 0x32: // VRCPH
		m.vecRCP(vd, vs, vt, e, true, false)
	case 0x33: // VMOV
		m.vecMov(vd, e, vtSel)
	case 0x34: // VRSQ
		m.vecRSQ(vd, vs, vt, e, false, false)
	case 0x35: // VRSQL
		m.vecRSQ(vd, vs, vt, e, false, true)
	case 0x36: // VRSQH
		m.vecRSQ(vd, vs, vt, e, true, false)
	case 0x37: // VNOP
	default:
		sp.Halt(fmtVecOp(funct))
	}
}

func fmtVecOp(funct int) string {
	return "SP reserved vector funct " + itoaHex(funct)
}

func itoaHex(v int) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0x0"
	}
	var b []byte
	for v > 0 {
		b = append([]byte{digits[v&0xF]}, b...)
		v >>= 4
	}
	return "0x" + string(b)
}

func clampS16(v int32) uint16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return 0x8000 // -32768
	}
	return uint16(int16(v))
}

func (m *MachineState) accum(lane int) int64 {
	hi := int64(int16(m.SP.AccHi[lane]))
	md := int64(m.SP.AccMd[lane])
	lo := int64(m.SP.AccLo[lane])
	return (hi << 32) | (md << 16) | lo
}

func (m *MachineState) setAccum(lane int, v int64) {
	m.SP.AccLo[lane] = uint16(v)
	m.SP.AccMd[lane] = uint16(v >> 16)
	m.SP.AccHi[lane] = uint16(v >> 32)
}

// vecMulFull/vecMulLow/vecMulMid/vecMulHigh implement the VMUL*/VMAC*/VMAD*
// family against (vd,vs,vt) triples where vt is already the
// element-selected operand: *L/*M/*N/*H pick which 16-bit slice of the
// 32-bit product lands in which accumulator slice, and accumulate vs.
// overwrite is the mac/mud distinction, per original_source/src/
// interpreter/rsp.cc.
func (m *MachineState) vecMulFull(vd, vs int, vt [spVecLanes]uint16, unsigned, accumulate bool) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		var a, b int32
		if unsigned {
			a = int32(sp.VReg[vs][i])
			b = int32(vt[i])
		} else {
			a = int32(int16(sp.VReg[vs][i]))
			b = int32(int16(vt[i]))
		}
		prod := int64(a) * int64(b) * 2
		prod += 1 << 15 // VMULF/VMULU rounding correction term
		if accumulate {
			prod += m.accum(i)
		}
		m.setAccum(i, prod)
		sp.VReg[vd][i] = clampS16(int32(m.accum(i) >> 16))
	}
}

func (m *MachineState) vecMulLow(vd, vs int, vt [spVecLanes]uint16, overwrite bool) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		a := int64(uint16(sp.VReg[vs][i]))
		b := int64(uint16(vt[i]))
		prod := a * b
		if overwrite {
			m.setAccum(i, prod)
		} else {
			m.setAccum(i, m.accum(i)+prod)
		}
		sp.VReg[vd][i] = clampS16(int32(m.accum(i)))
	}
}

func (m *MachineState) vecMulMid(vd, vs int, vt [spVecLanes]uint16, highOperandSigned, accumulate bool) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		a := int64(int16(sp.VReg[vs][i]))
		var b int64
		if highOperandSigned {
			b = int64(int16(vt[i]))
		} else {
			b = int64(uint16(vt[i]))
		}
		prod := (a * b) << 16
		if accumulate {
			m.setAccum(i, m.accum(i)+prod)
		} else {
			m.setAccum(i, prod)
		}
		sp.VReg[vd][i] = clampS16(int32(m.accum(i) >> 16))
	}
}

func (m *MachineState) vecMulHigh(vd, vs int, vt [spVecLanes]uint16, overwrite bool) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		a := int64(int16(sp.VReg[vs][i]))
		b := int64(int16(vt[i]))
		prod := (a * b) << 32
		if overwrite {
			m.setAccum(i, prod)
		} else {
			m.setAccum(i, m.accum(i)+prod)
		}
		sp.VReg[vd][i] = clampS16(int32(m.accum(i) >> 16))
	}
}

func (m *MachineState) vecAdd(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	carry := sp.VCO & 0xFF
	for i := 0; i < spVecLanes; i++ {
		a := int32(int16(sp.VReg[vs][i]))
		b := int32(int16(vt[i]))
		c := int32(0)
		if carry&(1<<uint(i)) != 0 {
			c = 1
		}
		sum := a + b + c
		m.SP.AccLo[i] = clampS16(sum)
		sp.VReg[vd][i] = clampS16(sum)
	}
	sp.VCO = 0
}

func (m *MachineState) vecSub(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	borrow := sp.VCO & 0xFF
	for i := 0; i < spVecLanes; i++ {
		a := int32(int16(sp.VReg[vs][i]))
		b := int32(int16(vt[i]))
		c := int32(0)
		if borrow&(1<<uint(i)) != 0 {
			c = 1
		}
		diff := a - b - c
		m.SP.AccLo[i] = clampS16(diff)
		sp.VReg[vd][i] = clampS16(diff)
	}
	sp.VCO = 0
}

func (m *MachineState) vecAbs(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		s := int16(sp.VReg[vs][i])
		t := int16(vt[i])
		var r int32
		switch {
		case s < 0:
			r = -int32(t)
		case s > 0:
			r = int32(t)
		default:
			r = 0
		}
		sp.VReg[vd][i] = clampS16(r)
	}
}

func (m *MachineState) vecAddC(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	var co uint16
	for i := 0; i < spVecLanes; i++ {
		a := int32(uint16(sp.VReg[vs][i]))
		b := int32(uint16(vt[i]))
		sum := a + b
		if sum > 0xFFFF {
			co |= 1 << uint(i)
		}
		sp.VReg[vd][i] = uint16(sum)
	}
	sp.VCO = co
}

func (m *MachineState) vecSubC(vd, vs int, vt [spVecLanes]uint16) {
	sp := m.SP
	var co uint16
	for i := 0; i < spVecLanes; i++ {
		a := int32(uint16(sp.VReg[vs][i]))
		b := int32(uint16(vt[i]))
		diff := a - b
		if diff != 0 {
			co |= 1 << uint(i)
		}
		sp.VReg[vd][i] = uint16(diff)
	}
	sp.VCO = co
}

func (m *MachineState) vecLogical(vd, vs int, vt [spVecLanes]uint16, f func(a, b uint16) uint16) {
	sp := m.SP
	for i := 0; i < spVecLanes; i++ {
		sp.VReg[vd][i] = f(sp.VReg[vs][i], vt[i])
		m.SP.AccLo[i] = sp.VReg[vd][i]
	}
}

func (m *MachineState) vecMov(vd, e int, vt [spVecLanes]uint16) {
	sp := m.SP
	lane := e & 0x7
	sp.VReg[vd][lane] = vt[lane]
}

// vecVSAR implements VSAR per the spec.md §9 Open Question decision: e in
// 0..2 reads zero and leaves the accumulator untouched; e in 8..10 read the
// corresponding accumulator slice (hi/md/lo) without modifying it.
func (m *MachineState) vecVSAR(vd, e int) {
	sp := m.SP
	switch e {
	case 8:
		sp.VReg[vd] = sp.AccHi
	case 9:
		sp.VReg[vd] = sp.AccMd
	case 10:
		sp.VReg[vd] = sp.AccLo
	case 0, 1, 2:
		for i := range sp.VReg[vd] {
			sp.VReg[vd][i] = 0
		}
	}
}

// spExecVectorScalarMove implements MFC2/MTC2/CFC2/CTC2: moving one 16-bit
// lane element between a scalar GPR and the vector file, or the VCO/VCC/
// VCE flag registers via CFC2/CTC2.
func (m *MachineState) spExecVectorScalarMove(word uint32) {
	rt := int((word >> 16) & 0x1F)
	rd := int((word >> 11) & 0x1F)
	e := int((word >> 7) & 0xF)
	rs := (word >> 21) & 0x1F
	sp := m.SP
	switch rs {
	case 0x00: // MFC2
		sp.WriteGPR(rt, uint32(int32(int16(sp.VReg[rd][e&7]))))
	case 0x04: // MTC2
		sp.VReg[rd][e&7] = uint16(sp.ReadGPR(rt))
	case 0x02: // CFC2
		switch rd & 3 {
		case 0:
			sp.WriteGPR(rt, uint32(int32(int16(sp.VCO))))
		case 1:
			sp.WriteGPR(rt, uint32(int32(int16(sp.VCC))))
		case 2:
			sp.WriteGPR(rt, uint32(int32(int16(uint16(sp.VCE)))))
		}
	case 0x06: // CTC2
		v := sp.ReadGPR(rt)
		switch rd & 3 {
		case 0:
			sp.VCO = uint16(v)
		case 1:
			sp.VCC = uint16(v)
		case 2:
			sp.VCE = uint8(v)
		}
	}
}
