package regalloc_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/regalloc"
)

func TestPinnedRegisterIsUsedVerbatim(t *testing.T) {
	ctx := asmcmp.NewContext("f")
	id := ctx.NewVirtualRegister(asmcmp.RegClassInteger, 0)
	ctx.PinRegister(id, "rdx")
	ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMov, Args: []asmcmp.Operand{{IsReg: true, Reg: id}}})

	a := regalloc.New(ctx)
	got := a.Run()
	if got[id].Phys != "rdx" {
		t.Fatalf("pinned register assignment = %+v, want rdx", got[id])
	}
}

func TestExhaustingPoolSpillsToStack(t *testing.T) {
	ctx := asmcmp.NewContext("f")
	var ids []asmcmp.VirtualRegisterID
	for i := 0; i < len(regalloc.IntegerPool)+1; i++ {
		id := ctx.NewVirtualRegister(asmcmp.RegClassInteger, 0)
		ids = append(ids, id)
		ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMov, Args: []asmcmp.Operand{{IsReg: true, Reg: id}}})
	}

	a := regalloc.New(ctx)
	got := a.Run()

	last := ids[len(ids)-1]
	if !got[last].Spilled {
		t.Fatalf("expected the register beyond pool capacity to spill, got %+v", got[last])
	}
	if off, ok := a.StashOffset(last); !ok || off >= 0 {
		t.Fatalf("expected a negative stash offset, got %d, ok=%v", off, ok)
	}
}
