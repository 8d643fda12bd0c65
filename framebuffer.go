// framebuffer.go - framebuffer-to-BMP dump for regression comparison
//
// Grounded on debug_snapshot.go's save/restore idiom (capture host-visible
// state to a deterministic on-disk artifact for later comparison) extended
// to pixel buffers, per SPEC_FULL.md's DOMAIN STACK section. BMP is chosen
// over stdlib image/png because it's uncompressed: two runs that render the
// same scene produce byte-identical files, which is what the DP fill-
// rectangle round-trip scenario in §8 compares.
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"
)

// DumpFramebufferBMP renders the color image DP currently targets to a BMP
// file at path, decoding RGBA5551 or RGBA8888 per ColorImageSize exactly as
// dp_pixel.go's writeFramebufferPixel/readFramebufferPixel do.
func (m *MachineState) DumpFramebufferBMP(path string) error {
	dp := m.DP
	if dp.ColorImageW == 0 {
		return fmt.Errorf("framebuffer: no color image set")
	}
	height := dp.ScissorY1
	if height == 0 {
		height = dp.ColorImageW // square fallback when no scissor rect was set
	}

	img := image.NewRGBA(image.Rect(0, 0, dp.ColorImageW, height))
	for y := 0; y < height; y++ {
		for x := 0; x < dp.ColorImageW; x++ {
			px := m.readFramebufferPixel(x, y)
			img.Set(x, y, color.RGBA{R: px.R, G: px.G, B: px.B, A: px.A})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("framebuffer: %w", err)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		return fmt.Errorf("framebuffer: encoding bmp: %w", err)
	}
	return nil
}
