// codebuffer.go - executable RWX memory for JIT-compiled blocks

/*
codebuffer.go

Grounded on golang.org/x/sys/unix's Mmap/Mprotect, the pattern used
throughout the Go JIT ecosystem (the wazero arm64/amd64 backends in
other_examples/ both allocate their code pages this way) for getting an
anonymous, page-aligned region the host CPU will actually execute. The
teacher module has no native code generation anywhere in its tree — its
"recompiler"-shaped code (cpu_x86*.go) only decodes x86 for its own x86
front-end — so this is new code grounded on the wider pack rather than an
adaptation of a teacher file.
*/

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CodeBuffer is a single fixed-size (codeBufferSize) RWX mapping blocks are
// appended into; it does not grow, and an append that does not fit fails.
// Real JITs keep W^X and toggle protection around writes; this core favours
// simplicity (one process-lifetime RWX mapping) since it is not a
// security boundary the specification asks this core to defend (§1 Non-
// goals: no sandboxing of untrusted cartridge code is claimed).
type CodeBuffer struct {
	mem    []byte
	cursor int
}

const codeBufferSize = 16 * 1024 * 1024

// NewCodeBuffer mmaps a fresh RWX region.
func NewCodeBuffer() (*CodeBuffer, error) {
	mem, err := unix.Mmap(-1, 0, codeBufferSize,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("codebuffer: mmap: %w", err)
	}
	return &CodeBuffer{mem: mem}, nil
}

// Emit appends code bytes, returning the entry offset, or an error if the
// buffer is exhausted (the caller should fall back to IR interpretation for
// that block per §7 rather than treat this as fatal).
func (c *CodeBuffer) Emit(code []byte) (offset int, err error) {
	if c.cursor+len(code) > len(c.mem) {
		return 0, fmt.Errorf("codebuffer: out of space (%d bytes requested, %d remaining)",
			len(code), len(c.mem)-c.cursor)
	}
	off := c.cursor
	copy(c.mem[off:], code)
	c.cursor += len(code)
	return off, nil
}

// Close unmaps the region.
func (c *CodeBuffer) Close() error {
	if c.mem == nil {
		return nil
	}
	err := unix.Munmap(c.mem)
	c.mem = nil
	return err
}
