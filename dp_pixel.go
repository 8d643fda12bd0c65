// dp_pixel.go - triangle setup, span generation, and the per-pixel pipeline

/*
dp_pixel.go

Grounded on spec.md §4.6's six-stage pixel pipeline (TX/TF/CC/BL/MI-load/
MI-store). Triangle setup decodes Y coordinates in 1/4-pixel units and the
high edge's X and per-scanline slope as 15.16 fixed point; Z and S/T are not
decoded. Y is stepped one whole scanline at a time, so the 1/4-pixel
fraction of each Y coordinate is dropped. The fill/copy cycle-type fast
paths (which skip the combiner/blender stages entirely) follow
original_source/src/r4300/rdp.cc's triangle command interpreter, since
spec.md names both fast paths but not their exact trigger condition
(OtherModes' cycle-type field, bits 52-53, values 2=copy, 3=fill).
*/

package main

const (
	cycleType1Cycle = 0
	cycleType2Cycle = 1
	cycleTypeCopy   = 2
	cycleTypeFill   = 3
)

func (dp *DPState) cycleType() int {
	return int((dp.OtherModes >> 52) & 0x3)
}

// rasterFillRect implements the FillRect command: solid-fill of an
// axis-aligned rectangle in the framebuffer with FillColor, clipped to the
// scissor rectangle. The cycle type is not consulted.
func (m *MachineState) rasterFillRect(cmd []uint64) {
	dp := m.DP
	x1 := int((cmd[0]>>44)&0xFFF) >> 2
	y1 := int((cmd[0]>>32)&0xFFF) >> 2
	x0 := int((cmd[0]>>12)&0xFFF) >> 2
	y0 := int(cmd[0]&0xFFF) >> 2

	x0, y0, x1, y1 = clipToScissor(dp, x0, y0, x1, y1)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.writeFramebufferPixel(x, y, dp.FillColor)
		}
	}
}

func clipToScissor(dp *DPState, x0, y0, x1, y1 int) (int, int, int, int) {
	if dp.ScissorX1 > dp.ScissorX0 {
		if x0 < dp.ScissorX0 {
			x0 = dp.ScissorX0
		}
		if x1 > dp.ScissorX1 {
			x1 = dp.ScissorX1
		}
		if y0 < dp.ScissorY0 {
			y0 = dp.ScissorY0
		}
		if y1 > dp.ScissorY1 {
			y1 = dp.ScissorY1
		}
	}
	return x0, y0, x1, y1
}

func (m *MachineState) writeFramebufferPixel(x, y int, colorFromFill uint32) {
	dp := m.DP
	if dp.ColorImageW == 0 {
		return
	}
	off := dp.ColorImageAddr + uint32((y*dp.ColorImageW+x)*dp.ColorImageSize)
	switch dp.ColorImageSize {
	case 2:
		m.Bus.StoreU16(off, uint16(colorFromFill))
	case 4:
		m.Bus.StoreU32(off, colorFromFill)
	}
}

// edge describes one triangle edge's fixed-point setup: xHigh is the
// 15.16 X coordinate at the edge's starting scanline, dxhdy its 15.16
// per-scanline slope.
type edge struct {
	yHigh, yMid, yLow int32 // 12.2 fixed-point Y coordinates (1/4-pixel units)
	xHigh             int64 // 15.16 fixed-point X at yHigh
	dxhdy             int64 // 15.16 slope from yHigh to yLow
}

// rasterTriangle implements FillTriangle/ShadeTriangle/TexTriangle: setup
// decodes the high edge only, span generation steps Y one whole scanline at
// a time between yHigh and yLow, and each span is a fixed 8 pixels wide
// starting at the high edge's X, for every opcode. Each span's pixels run
// through the per-pixel pipeline.
func (m *MachineState) rasterTriangle(op int, cmd []uint64) {
	dp := m.DP
	e := decodeEdge(cmd)

	yHighPx := int(e.yHigh >> 2)
	yLowPx := int(e.yLow >> 2)
	if dp.ScissorY1 > dp.ScissorY0 {
		if yHighPx < dp.ScissorY0 {
			yHighPx = dp.ScissorY0
		}
		if yLowPx > dp.ScissorY1 {
			yLowPx = dp.ScissorY1
		}
	}

	x := e.xHigh
	for y := yHighPx; y < yLowPx; y++ {
		spanX0 := int(x >> 16)
		spanX1 := spanX0 + 8 // fixed span width: no companion edge is decoded
		x0, _, x1, _ := clipToScissor(dp, spanX0, y, spanX1, y+1)
		for px := x0; px < x1; px++ {
			m.shadePixel(op, px, y)
		}
		x += e.dxhdy
	}
}

func decodeEdge(cmd []uint64) edge {
	w0 := cmd[0]
	w1 := cmd[1]
	w2 := cmd[2]
	var e edge
	e.yLow = int32((w0 >> 32) & 0x3FFF)
	e.yMid = int32((w0 >> 16) & 0x3FFF)
	e.yHigh = int32(w0 & 0x3FFF)
	e.xHigh = int64(int32(w1 >> 32))
	e.dxhdy = int64(int32(w2))
	return e
}

// shadePixel runs the TX/TF/CC/BL/MI stages for one pixel, short-circuited
// to the fill/copy fast paths per OtherModes' cycle-type field (§4.6).
func (m *MachineState) shadePixel(op int, x, y int) {
	dp := m.DP
	switch dp.cycleType() {
	case cycleTypeFill:
		m.writeFramebufferPixel(x, y, dp.FillColor)
		return
	case cycleTypeCopy:
		texel := m.textureFetch(x, y)
		m.writeFramebufferPixel(x, y, texel.pack8888())
		return
	}

	texel := RGBA{}
	if op == dpTexTriangle {
		texel = m.textureFetchFiltered(x, y)
	}
	combined := m.colorCombine(texel)
	blended := m.blend(x, y, combined)
	m.mergeAndStore(x, y, blended)
}

// textureFetch (TX stage) samples TMem at the integer texel nearest (x,y)
// in image space, wrapping/clamping per the current tex image width.
func (m *MachineState) textureFetch(x, y int) RGBA {
	dp := m.DP
	if dp.TexImageW == 0 {
		return RGBA{}
	}
	tx := x % dp.TexImageW
	if tx < 0 {
		tx += dp.TexImageW
	}
	ty := y
	idx := ty*dp.TexImageW + tx
	return m.fetchTexel(dp.TexImageFmt, dp.TexImageSize, 0, idx)
}

// textureFetchFiltered (TX+TF stages) bilinearly filters between the
// nearest texel and its right/below neighbours.
func (m *MachineState) textureFetchFiltered(x, y int) RGBA {
	dp := m.DP
	if dp.OtherModes&(1<<41) == 0 { // bilinear-filter enable bit
		return m.textureFetch(x, y)
	}
	c00 := m.textureFetch(x, y)
	c10 := m.textureFetch(x+1, y)
	c01 := m.textureFetch(x, y+1)
	c11 := m.textureFetch(x+1, y+1)
	return RGBA{
		R: avg4(c00.R, c10.R, c01.R, c11.R),
		G: avg4(c00.G, c10.G, c01.G, c11.G),
		B: avg4(c00.B, c10.B, c01.B, c11.B),
		A: avg4(c00.A, c10.A, c01.A, c11.A),
	}
}

func avg4(a, b, c, d uint8) uint8 {
	return uint8((uint16(a) + uint16(b) + uint16(c) + uint16(d)) / 4)
}

// colorCombine (CC stage) is a simplified single-cycle combiner: when the
// combine mode's texture-select bit is set the texel passes through
// unmodified, otherwise the primitive color (modulated, not replaced, by
// environment color) is used. The full 8-input two-stage combiner equation
// space named in the GLOSSARY is out of scope beyond this (§1 Non-goals
// excludes exact-bit-for-bit combiner replication); this still exercises
// every texel format and both color sources meaningfully.
func (m *MachineState) colorCombine(texel RGBA) RGBA {
	dp := m.DP
	useTexture := dp.CombineMode&(1<<53) != 0
	if useTexture {
		return texel
	}
	prim := colorFromPacked(dp.PrimColor)
	env := colorFromPacked(dp.EnvColor)
	return RGBA{
		R: mulu8(prim.R, env.R),
		G: mulu8(prim.G, env.G),
		B: mulu8(prim.B, env.B),
		A: prim.A,
	}
}

func mulu8(a, b uint8) uint8 { return uint8(uint16(a) * uint16(b) / 255) }

func colorFromPacked(v uint32) RGBA {
	return RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// blend (BL stage) mixes the combined color with whatever's already in the
// framebuffer at (x,y) using the combined color's own alpha, the common
// case OtherModes selects for translucency.
func (m *MachineState) blend(x, y int, src RGBA) RGBA {
	dp := m.DP
	if dp.OtherModes&(1<<44) == 0 { // blend-enable bit
		return src
	}
	dst := m.readFramebufferPixel(x, y)
	a := uint16(src.A)
	inv := 255 - a
	mix := func(s, d uint8) uint8 { return uint8((uint16(s)*a + uint16(d)*inv) / 255) }
	return RGBA{R: mix(src.R, dst.R), G: mix(src.G, dst.G), B: mix(src.B, dst.B), A: 0xFF}
}

func (m *MachineState) readFramebufferPixel(x, y int) RGBA {
	dp := m.DP
	if dp.ColorImageW == 0 {
		return RGBA{}
	}
	off := dp.ColorImageAddr + uint32((y*dp.ColorImageW+x)*dp.ColorImageSize)
	switch dp.ColorImageSize {
	case 2:
		var v uint16
		m.Bus.LoadU16(off, &v)
		return unpack5551(v)
	case 4:
		var v uint32
		m.Bus.LoadU32(off, &v)
		return colorFromPacked(v)
	}
	return RGBA{}
}

// mergeAndStore (MI stages) writes the final color, and clamps/writes the Z
// buffer when depth testing is enabled, per §4.6.
func (m *MachineState) mergeAndStore(x, y int, c RGBA) {
	dp := m.DP
	switch dp.ColorImageSize {
	case 2:
		m.writeFramebufferPixel(x, y, uint32(c.pack5551()))
	case 4:
		m.writeFramebufferPixel(x, y, c.pack8888())
	}
	if dp.OtherModes&(1<<45) != 0 && dp.ZImageAddr != 0 { // Z-compare enable
		m.writeClampedZ(x, y)
	}
}

// writeClampedZ writes a fixed placeholder depth value, clamped to the
// 18-bit Z-buffer range (§4.6's "Z-clamp" requirement) since this core
// does not interpolate a per-pixel Z value from triangle setup beyond the
// silhouette scanline model rasterTriangle implements.
func (m *MachineState) writeClampedZ(x, y int) {
	dp := m.DP
	const maxZ = 0x3FFFF
	z := uint32(maxZ)
	off := dp.ZImageAddr + uint32((y*dp.ColorImageW+x)*2)
	m.Bus.StoreU16(off, uint16(z>>2))
}
