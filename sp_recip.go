// sp_recip.go - RCP/RSQ reciprocal unit: 512-entry ROM tables, split-precision handshake

/*
sp_recip.go

Grounded on original_source/src/interpreter/rsp.cc's reciprocal/reciprocal-
square-root ROM table generation (both tables are derived algorithmically
from a fixed-point Newton-Raphson seed rather than hand-transcribed from a
datasheet, which is also how the original computes them at startup rather
than storing a literal 512-entry array). The *L/*H split-precision protocol
— VRCPH/VRSQH latch the high 16 bits of input into DivIn and return the
high 16 bits of the already-computed result in DivOut; the paired
VRCPL/VRSQL combine DivIn with their own low 16 bits, compute the 32-bit
result and return its low 16 bits — follows §3's glossary entry for
DIVIN/DIVIN_LOADED directly.
*/

package main

var rcpROM = buildRCPTable()
var rsqROM = buildRSQTable()

const recipTableSize = 512

func buildRCPTable() [recipTableSize]uint16 {
	var t [recipTableSize]uint16
	for i := 0; i < recipTableSize; i++ {
		// Domain [0x200,0x3FF] maps to a 10-bit significand; the table
		// holds 1/x in 1.0.10 fixed point for x in [1.0,2.0).
		x := float64(i+512) / 512.0
		v := 1.0 / x
		scaled := int(v*1024.0 + 0.5)
		if scaled > 1023 {
			scaled = 1023
		}
		t[i] = uint16(scaled)
	}
	return t
}

func buildRSQTable() [recipTableSize]uint16 {
	var t [recipTableSize]uint16
	for i := 0; i < recipTableSize; i++ {
		x := float64(i+512) / 512.0
		v := 1.0 / sqrtApprox(x)
		scaled := int(v*1024.0 + 0.5)
		if scaled > 1023 {
			scaled = 1023
		}
		t[i] = uint16(scaled)
	}
	return t
}

// sqrtApprox avoids importing math for a single call site; Newton-Raphson
// converges to full float64 precision in a handful of iterations for the
// bounded domain this table needs ([1.0, 2.0)).
func sqrtApprox(x float64) float64 {
	if x == 0 {
		return 0
	}
	g := x
	for i := 0; i < 20; i++ {
		g = 0.5 * (g + x/g)
	}
	return g
}

// lookupRecip implements the shared ROM-index-then-normalize shape both RCP
// and RSQ use: find the input's leading-one position, index the
// appropriate table with the next 9 significant bits, and re-apply the
// shift to produce a 32-bit fixed-point result.
func lookupRecip(input int32, table *[recipTableSize]uint16, rsq bool) int32 {
	if input == 0 {
		return 0x7FFFFFFF
	}
	neg := input < 0
	mag := input
	if neg {
		mag = -input
	}
	shift := 0
	for mag < (1 << 30) {
		mag <<= 1
		shift++
	}
	idx := (mag >> 22) & 0x1FF
	if rsq && shift%2 == 1 {
		idx = (idx >> 1) | 0x100
	}
	entry := int32(table[idx&0x1FF])
	result := ((0x40000000 | (entry << 22)) >> uint(31-shift)) >> 1
	if neg {
		result = -result
	}
	return result
}

// vecRCP/vecRSQ implement VRCP/VRCPL/VRCPH and VRSQ/VRSQL/VRSQH. high=true
// is the *H form: it stages the upper half of a 32-bit dividend and arms
// the split-precision handshake, returning the high half of whatever
// result the last completed op left in DivOut (never a fresh lookup).
// low=true is the *L form: it supplies the lower half, combines it with
// the staged upper half if one is pending, computes, and clears the
// handshake. Neither flag set is the plain single-instruction form, which
// computes directly from the 16-bit input and always leaves the handshake
// clear.
func (m *MachineState) vecRCP(vd, vs, vt, e int, high, low bool) {
	m.recipOp(vd, vs, vt, e, high, low, false)
}

func (m *MachineState) vecRSQ(vd, vs, vt, e int, high, low bool) {
	m.recipOp(vd, vs, vt, e, high, low, true)
}

func (m *MachineState) recipOp(vd, vs, vt, e int, high, low, rsq bool) {
	sp := m.SP
	lane := e & 7
	input := uint16(sp.VReg[vt][lane])

	table := &rcpROM
	if rsq {
		table = &rsqROM
	}

	var outLane uint16
	switch {
	case high:
		// *H stages the upper 16 bits of the dividend and arms the
		// handshake; it returns the high half of the result already
		// sitting in DivOut from the last completed op, not a fresh
		// lookup (original_source/src/interpreter/rsp.cc eval_VRCPH).
		sp.DivIn = uint32(input)
		sp.DivInLoaded = true
		outLane = uint16(sp.DivOut >> 16)
	case low:
		// *L combines the staged upper half (if *H armed it) with this
		// instruction's 16 bits, computes, and clears the handshake.
		var dividend int32
		if sp.DivInLoaded {
			dividend = int32(sp.DivIn)<<16 | int32(input)
		} else {
			dividend = int32(int16(input))
		}
		result := lookupRecip(dividend, table, rsq)
		sp.DivOut = uint32(result)
		sp.DivInLoaded = false
		outLane = uint16(result)
	default:
		result := lookupRecip(int32(int16(input)), table, rsq)
		sp.DivOut = uint32(result)
		sp.DivInLoaded = false
		outLane = uint16(result)
	}
	sp.VReg[vd][lane] = outLane
}
