// rom.go - cartridge ROM image loading

/*
rom.go

Supersedes the teacher's file_io.go, which modelled a guest-visible
host-file MMIO device (the guest program issues reads/writes that reach the
host filesystem). Cartridge loading here is the reverse direction and
happens entirely host-side before the guest ever runs: an operator points
this core at a ROM image, bytes are read once into the cartridge's bus
region (big-endian as stored on the physical cartridge), and boot.go then
copies the header/bootstrap into SP DMem, the ordinary order-of-operations
bassosimone-risc32's cmd/interp/main.go follows for its own image loading.
*/

package main

import (
	"fmt"
	"os"
)

// LoadROM reads a cartridge image from disk. N64 cartridge dumps come in
// three common byte orders (z64 big-endian native, v64 byte-swapped,
// n64 word-swapped); this core accepts only the native big-endian order
// (§1 Non-goals: no format auto-detection/conversion), rejecting an image
// smaller than 4 KB or whose first byte is not 0x80 (the z64 header's first
// byte); the rest of the header is not checked.
func LoadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rom: read %q: %w", path, err)
	}
	if len(data) < 0x1000 {
		return nil, fmt.Errorf("rom: %q is too small to be a cartridge image (%d bytes)", path, len(data))
	}
	if data[0] != 0x80 {
		return nil, fmt.Errorf("rom: %q does not look like a big-endian (z64) cartridge image (first byte %#x, want 0x80)", path, data[0])
	}
	return data, nil
}
