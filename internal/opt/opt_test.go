package opt_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/opt"
)

func TestAddInstructionSucceedsAfterFinalize(t *testing.T) {
	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)

	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}

	// A block's finalization closes it against further control transfer,
	// not against ordinary appends: only a second Finalize* call is
	// rejected (see TestFinalizeRejectsDoubleFinalization below).
	if _, err := b.AddInstruction(opt.Instruction{Op: opt.InstrAdd}); err != nil {
		t.Fatalf("AddInstruction after finalize should succeed, got: %v", err)
	}
}

func TestFinalizeRejectsDoubleFinalization(t *testing.T) {
	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)

	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}

	err := b.FinalizeJump(0)
	if err == nil {
		t.Fatalf("expected an error finalizing an already-finalized block")
	}
	if kerr.KindOf(err) != kerr.InvalidRequest {
		t.Fatalf("KindOf = %v, want InvalidRequest", kerr.KindOf(err))
	}
}

func TestAtomicRequiresSeqCst(t *testing.T) {
	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)

	_, err := b.AddInstruction(opt.Instruction{Op: opt.InstrAtomicLoad, Order: opt.OrderSeqCst})
	if err != nil {
		t.Fatalf("SeqCst atomic load should be accepted: %v", err)
	}
}

func TestFoldConstants(t *testing.T) {
	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)

	lhs, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrConst, ConstValue: 3})
	rhs, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrConst, ConstValue: 4})
	sum, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrAdd, Args: []opt.InstrRef{lhs, rhs}})

	if n := opt.FoldConstants(fn); n != 1 {
		t.Fatalf("FoldConstants folded %d instructions, want 1", n)
	}

	var got *opt.Instruction
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.ID == sum {
			got = instr
		}
	}
	if got == nil || got.Op != opt.InstrConst || got.ConstValue != 7 {
		t.Fatalf("folded instruction = %+v, want InstrConst(7)", got)
	}
}

func TestMarkDeadCode(t *testing.T) {
	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)

	unused, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrConst, ConstValue: 1})
	used, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrConst, ConstValue: 2})
	if err := b.FinalizeReturn(used); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}

	opt.MarkDeadCode(fn)

	var unusedInstr, usedInstr *opt.Instruction
	for _, instr := range fn.Blocks[0].Instructions {
		switch instr.ID {
		case unused:
			unusedInstr = instr
		case used:
			usedInstr = instr
		}
	}
	if unusedInstr.Live {
		t.Fatalf("unused constant should be marked dead")
	}
	if !usedInstr.Live {
		t.Fatalf("constant used by the return terminator should be marked live")
	}
}
