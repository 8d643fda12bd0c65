package main

import (
	"os"
	"path/filepath"
	"testing"
)

// buildFillRectCommandList writes SetColorImage/SetScissor/SetFillColor/
// FillRect commands into m's DRAM at physical offset 0x1000 (the
// framebuffer itself sits at offset 0) and returns the
// [start,end) byte range RunCommandList should drain, per §4.5/§4.6's
// command word layout.
func buildFillRectCommandList(m *MachineState) (start, end uint32) {
	const (
		widthMinus1 = 3  // 4-pixel-wide framebuffer
		sizeField   = 2  // RGBA5551
		coord0      = 0  // scissor/rect 10.2 fixed-point fields, value*4
		coord4      = 16
		white5551   = 0xFFFF
	)

	words := []uint64{
		uint64(dpSetColorImage)<<56 | uint64(sizeField)<<51 | uint64(widthMinus1)<<32,
		uint64(dpSetScissor)<<56 | uint64(coord0)<<44 | uint64(coord0)<<32 | uint64(coord4)<<12 | uint64(coord4),
		uint64(dpSetFillColor)<<56 | uint64(white5551),
		uint64(dpFillRect)<<56 | uint64(coord4)<<44 | uint64(coord4)<<32 | uint64(coord0)<<12 | uint64(coord0),
	}

	addr := uint32(0x1000) // well clear of the command-list's own words below
	for i, w := range words {
		m.Bus.StoreU64(addr+uint32(i*8), w)
	}
	return addr, addr + uint32(len(words)*8)
}

// TestDPFillRectWritesFramebuffer checks a SetColorImage/SetScissor/
// SetFillColor/FillRect command sequence, run end to end through
// RunCommandList, actually lands opaque white pixels in the region
// readFramebufferPixel can read back.
func TestDPFillRectWritesFramebuffer(t *testing.T) {
	m := newVRTestRig()
	start, end := buildFillRectCommandList(m)

	n := m.RunCommandList(start, end)
	if n != 4 {
		t.Fatalf("RunCommandList processed %d commands, want 4", n)
	}
	if m.HW.DPStatus&1 != 0 {
		t.Fatal("DPStatus busy bit still set after RunCommandList completed")
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			px := m.readFramebufferPixel(x, y)
			if px.R != 255 || px.G != 255 || px.B != 255 || px.A != 255 {
				t.Fatalf("pixel (%d,%d) = %+v, want opaque white", x, y, px)
			}
		}
	}
}

// TestDPEndRegisterAutoDispatches checks storeDPReg's DPEnd write actually
// triggers RunCommandList (hwreg.go), the wiring that makes a VR register
// write reach the rasterizer without a direct RunCommandList call.
func TestDPEndRegisterAutoDispatches(t *testing.T) {
	m := newVRTestRig()
	start, end := buildFillRectCommandList(m)

	m.HW.storeDPReg(DPRegBase+0x00, start)
	m.HW.storeDPReg(DPRegBase+0x04, end)

	px := m.readFramebufferPixel(0, 0)
	if px.R != 255 || px.A != 255 {
		t.Fatalf("pixel (0,0) = %+v after DPEnd write, want opaque white", px)
	}
}

// TestDumpFramebufferBMPWritesFile checks DumpFramebufferBMP produces a
// readable, nonempty BMP once a color image is set, the §8 fill-rectangle
// round-trip artifact.
func TestDumpFramebufferBMPWritesFile(t *testing.T) {
	m := newVRTestRig()
	start, end := buildFillRectCommandList(m)
	m.RunCommandList(start, end)

	path := filepath.Join(t.TempDir(), "fill.bmp")
	if err := m.DumpFramebufferBMP(path); err != nil {
		t.Fatalf("DumpFramebufferBMP: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("bmp file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("bmp file is empty")
	}
}
