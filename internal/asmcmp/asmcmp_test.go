package asmcmp_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
)

func TestFloatingLabelAttachesToNextInstruction(t *testing.T) {
	ctx := asmcmp.NewContext("f")

	loopStart := ctx.NewFloatingLabel("loop_start")
	if !loopStart.Floating {
		t.Fatalf("a freshly created label should start floating")
	}

	instr := ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpLabel})
	if loopStart.Floating {
		t.Fatalf("label should no longer be floating once an instruction is emitted")
	}
	if loopStart.Instr != instr {
		t.Fatalf("label did not attach to the instruction it was hoisted onto")
	}
	if len(instr.Labels) != 1 || instr.Labels[0] != "loop_start" {
		t.Fatalf("instr.Labels = %v, want [loop_start]", instr.Labels)
	}
}

func TestMultipleFloatingLabelsStackOntoOneInstruction(t *testing.T) {
	ctx := asmcmp.NewContext("f")

	a := ctx.NewFloatingLabel("a")
	b := ctx.NewFloatingLabel("b")

	instr := ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpRet})
	if a.Instr != instr || b.Instr != instr {
		t.Fatalf("both floating labels should hoist onto the same next instruction")
	}
	if len(instr.Labels) != 2 {
		t.Fatalf("expected both labels recorded on the instruction, got %v", instr.Labels)
	}
}

func TestPinnedRegisterBypassesAllocation(t *testing.T) {
	ctx := asmcmp.NewContext("f")
	id := ctx.NewVirtualRegister(asmcmp.RegClassInteger, 0)
	ctx.PinRegister(id, "rax")

	reg := ctx.Register(id)
	if !reg.Pinned || reg.PinnedPhys != "rax" {
		t.Fatalf("register was not pinned correctly: %+v", reg)
	}
}

func TestInstructionListIsDoublyLinked(t *testing.T) {
	ctx := asmcmp.NewContext("f")
	i1 := ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMov})
	i2 := ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpRet})

	if ctx.Head() != i1 {
		t.Fatalf("Head() should return the first emitted instruction")
	}
	if i1.Next != i2 || i2.Prev != i1 {
		t.Fatalf("doubly-linked list pointers are inconsistent")
	}
}
