// boot.go - PIF boot stub

/*
boot.go

Supersedes the teacher's program_executor.go (a multi-ISA program loader
that picked a CPU implementation off a file extension and handed it a raw
instruction stream). This core only ever boots one way: the PIF boot stub
copies the cartridge's first 4KB into SP DMem and hands control to the VR
at a fixed entry point, the standard N64 IPL2-to-IPL3 handoff contract,
cross-checked against original_source's boot sequence for which COP0
fields IPL2 leaves pre-set (Random at its max value, a handful of GPRs
seeded with boot-type/reset-reason constants software's IPL3 stage reads).
*/

package main

// Boot performs the PIF->IPL3 handoff: copies the cartridge's first 4KB
// into SP DMem (where IPL3 expects to find itself) and sets the VR's PC to
// the uncached entry point defined in memmap.go.
func (m *MachineState) Boot(cartROM []byte) {
	n := 4096
	if len(cartROM) < n {
		n = len(cartROM)
	}
	copy(m.DMem[:], cartROM[:n])

	m.WriteGPR(20, 1) // boot device type: 1 = cartridge
	m.WriteGPR(22, 0x3F) // reset type: cold reset
	m.WriteGPR(29, 0xFFFFFFFFA4001FF0) // IPL3's stack pointer convention

	m.PC = bootEntryVAddr
	m.NextAction = ActionContinue
}
