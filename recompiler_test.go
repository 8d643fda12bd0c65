package main

import "testing"

// loopProgram builds a small backward-branching loop that decrements $2
// and increments $1 each iteration, exercising both natively-lowered
// straight-line IR (the two ADDIUs) and the thunked branch+delay-slot pair
// (BNE and its delay-slot NOP) once the recompiler takes over.
func loopProgram() []uint32 {
	return []uint32{
		mipsI(0x09, 1, 1, 1),  // addiu $1, $1, 1
		mipsI(0x09, 2, 2, -1), // addiu $2, $2, -1
		mipsI(0x05, 2, 0, -3), // bne $2, $0, loop (offset -3 from the delay slot: back to word 0)
		mipsI(0x09, 0, 0, 0),  // delay slot: addiu $0, $0, 0 (no-op, rd=$0)
	}
}

// TestRunVRMatchesPlainStepLoop checks that driving a loop through RunVR
// (which eventually promotes the loop body to a translated block once its
// physical address crosses hotBlockThreshold hits) ends in the same
// register state as driving the identical program purely through Step.
func TestRunVRMatchesPlainStepLoop(t *testing.T) {
	const iterations = hotBlockThreshold + 5

	stepped := newVRTestRig()
	stepped.WriteGPR(2, iterations)
	stepped.loadProgram(stepped.PC, loopProgram())
	for i := 0; i < iterations*4+4; i++ {
		if stepped.ReadGPR(2) == 0 && stepped.NextAction == ActionContinue {
			break
		}
		stepped.Step()
	}

	viaRunVR := newVRTestRig()
	viaRunVR.WriteGPR(2, iterations)
	viaRunVR.loadProgram(viaRunVR.PC, loopProgram())
	for i := 0; i < iterations*4+4; i++ {
		if viaRunVR.ReadGPR(2) == 0 && viaRunVR.NextAction == ActionContinue {
			break
		}
		viaRunVR.RunVR()
	}

	requireU64(t, "$1 (iteration count)", viaRunVR.ReadGPR(1), stepped.ReadGPR(1))
	requireU64(t, "$2 (counter)", viaRunVR.ReadGPR(2), stepped.ReadGPR(2))
	if len(viaRunVR.BlockCache.blocks) == 0 {
		t.Fatalf("loop never got translated to a block despite %d iterations", iterations)
	}
}
