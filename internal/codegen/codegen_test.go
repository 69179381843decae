package codegen_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/opt"
)

func TestLowerFunction_ConstantReturn(t *testing.T) {
	fn := opt.NewFunction("answer")
	b := opt.NewBuilder(fn)

	val, err := b.AddInstruction(opt.Instruction{Op: opt.InstrConst, ConstValue: 42})
	if err != nil {
		t.Fatalf("AddInstruction: %v", err)
	}
	if err := b.FinalizeReturn(val); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}
	opt.MarkDeadCode(fn)

	ctx := codegen.LowerFunction(fn, kir.NewTypeBundle(), kir.NewBigIntPool(0))

	var ops []asmcmp.Opcode
	for instr := ctx.Head(); instr != nil; instr = instr.Next {
		ops = append(ops, instr.Op)
	}
	if len(ops) != 2 {
		t.Fatalf("selected instructions = %v, want [OpMov, OpRet]", ops)
	}
	if ops[0] != asmcmp.OpMov || ops[1] != asmcmp.OpRet {
		t.Fatalf("selected instructions = %v, want [OpMov, OpRet]", ops)
	}
}

func TestLowerFunction_LoadStoreSelectsWidthAndSignVariant(t *testing.T) {
	types := kir.NewTypeBundle()
	i8 := types.Intern(kir.Scalar(kir.ScalarInt8))
	i64 := types.Intern(kir.Scalar(kir.ScalarInt64))
	f64 := types.Intern(kir.Scalar(kir.ScalarFloat64))
	boolT := types.Intern(kir.Scalar(kir.ScalarBool))
	longDouble := types.Intern(kir.LongDouble())

	cases := []struct {
		name    string
		t       kir.TypeID
		loadOp  asmcmp.Opcode
		storeOp asmcmp.Opcode
	}{
		{"int8 sign-extends on load, movb on store", i8, asmcmp.OpMovsx, asmcmp.OpMovb},
		{"bool zero-extends on load, movb on store", boolT, asmcmp.OpMovzx, asmcmp.OpMovb},
		{"int64 uses a plain movq both ways", i64, asmcmp.OpMovq, asmcmp.OpMovq},
		{"float64 uses a plain movq both ways", f64, asmcmp.OpMovq, asmcmp.OpMovq},
		{"long double uses the x87 fld/fstp pair", longDouble, asmcmp.OpFld, asmcmp.OpFstp},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fn := opt.NewFunction("f")
			b := opt.NewBuilder(fn)
			loadRef, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrLoad, Type: c.t})
			b.AddInstruction(opt.Instruction{Op: opt.InstrStore, Type: c.t, Args: []opt.InstrRef{loadRef}})
			if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
				t.Fatalf("FinalizeReturn: %v", err)
			}
			ctx := codegen.LowerFunction(fn, types, kir.NewBigIntPool(0))
			var ops []asmcmp.Opcode
			for instr := ctx.Head(); instr != nil; instr = instr.Next {
				ops = append(ops, instr.Op)
			}
			if len(ops) < 2 || ops[0] != c.loadOp {
				t.Fatalf("load op = %v, want %v in %v", ops, c.loadOp, ops)
			}
			if ops[1] != c.storeOp {
				t.Fatalf("store op = %v, want %v in %v", ops[1], c.storeOp, ops)
			}
		})
	}
}

func TestLowerFunction_StoreToLocalUsesFrameDisplacement(t *testing.T) {
	types := kir.NewTypeBundle()
	i32 := types.Intern(kir.Scalar(kir.ScalarInt32))

	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)
	local, _ := b.AddInstruction(opt.Instruction{Op: opt.InstrGetArg, Type: i32, ConstValue: 0})
	b.AddInstruction(opt.Instruction{Op: opt.InstrStore, Type: i32, Args: []opt.InstrRef{local}})
	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}
	for _, instr := range fn.Blocks[0].Instructions {
		instr.Live = true
	}

	ctx := codegen.LowerFunction(fn, types, kir.NewBigIntPool(0))
	var store *asmcmp.Instruction
	for instr := ctx.Head(); instr != nil; instr = instr.Next {
		if instr.Op == asmcmp.OpMovl {
			store = instr
		}
	}
	if store == nil {
		t.Fatalf("expected a movl store instruction")
	}
	if !store.Args[0].IsMem || store.Args[0].MemDisp != -8 {
		t.Fatalf("store address operand = %+v, want frame-relative displacement -8", store.Args[0])
	}
}

func TestLowerFunction_WideAtomicUsesLibatomicCall(t *testing.T) {
	types := kir.NewTypeBundle()
	wide := types.Intern(kir.Bits(128))

	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)
	if _, err := b.AddInstruction(opt.Instruction{Op: opt.InstrAtomicLoad, Type: wide, Order: opt.OrderSeqCst}); err != nil {
		t.Fatalf("AddInstruction: %v", err)
	}
	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}
	for _, instr := range fn.Blocks[0].Instructions {
		instr.Live = true
	}

	ctx := codegen.LowerFunction(fn, types, kir.NewBigIntPool(0))
	found := false
	for instr := ctx.Head(); instr != nil; instr = instr.Next {
		if instr.Op == asmcmp.OpLibatomicCall {
			found = true
			if len(instr.Args) != 1 || instr.Args[0].Label != "__atomic_load" {
				t.Fatalf("libatomic call target = %+v, want __atomic_load", instr.Args)
			}
		}
	}
	if !found {
		t.Fatalf("expected a >8-byte atomic op to lower to OpLibatomicCall")
	}
}

func TestLowerFunction_NarrowAtomicUsesCmpxchg(t *testing.T) {
	types := kir.NewTypeBundle()
	i64 := types.Intern(kir.Scalar(kir.ScalarInt64))

	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)
	if _, err := b.AddInstruction(opt.Instruction{Op: opt.InstrAtomicLoad, Type: i64, Order: opt.OrderSeqCst}); err != nil {
		t.Fatalf("AddInstruction: %v", err)
	}
	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}
	for _, instr := range fn.Blocks[0].Instructions {
		instr.Live = true
	}

	ctx := codegen.LowerFunction(fn, types, kir.NewBigIntPool(0))
	for instr := ctx.Head(); instr != nil; instr = instr.Next {
		if instr.Op == asmcmp.OpLibatomicCall {
			t.Fatalf("an 8-byte atomic op should not go through libatomic")
		}
	}
}

func TestLowerFunction_BigIntConstSpillsWordsAsMovlPairs(t *testing.T) {
	types := kir.NewTypeBundle()
	wide := types.Intern(kir.Bits(128))
	bigints := kir.NewBigIntPool(0)

	// 6 * (1ull<<63) - 5671208515966861312, the scenario S3 value.
	id, err := bigints.Store([]uint64{0xB14B800000000000, 0x0000000000000006})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	fn := opt.NewFunction("f")
	b := opt.NewBuilder(fn)
	if _, err := b.AddInstruction(opt.Instruction{Op: opt.InstrBigIntConst, Type: wide, BigInt: id}); err != nil {
		t.Fatalf("AddInstruction: %v", err)
	}
	if err := b.FinalizeReturn(opt.InvalidInstrRef); err != nil {
		t.Fatalf("FinalizeReturn: %v", err)
	}
	for _, instr := range fn.Blocks[0].Instructions {
		instr.Live = true
	}

	ctx := codegen.LowerFunction(fn, types, bigints)

	var movls []asmcmp.Instruction
	for instr := ctx.Head(); instr != nil; instr = instr.Next {
		if instr.Op == asmcmp.OpMovl {
			movls = append(movls, *instr)
		}
	}
	if len(movls) != 4 {
		t.Fatalf("expected 4 movl immediate stores (2 words x 2 halves), got %d", len(movls))
	}

	want := []int64{
		int64(uint32(0xB14B800000000000 & 0xFFFFFFFF)), int64(uint32(0xB14B800000000000 >> 32)),
		int64(uint32(0x0000000000000006)), int64(uint32(0x0000000000000006 >> 32)),
	}
	for i, m := range movls {
		if !m.Args[1].IsImm || m.Args[1].Imm != want[i] {
			t.Fatalf("movl[%d] immediate = %+v, want %d", i, m.Args[1], want[i])
		}
		if !m.Args[0].IsMem {
			t.Fatalf("movl[%d] destination is not a stack slot: %+v", i, m.Args[0])
		}
	}
	if movls[1].Args[0].MemDisp != movls[0].Args[0].MemDisp+4 {
		t.Fatalf("high half of word 0 must sit 4 bytes after its low half")
	}
	if movls[2].Args[0].MemDisp == movls[0].Args[0].MemDisp {
		t.Fatalf("word 1 must occupy a different stack slot than word 0")
	}
}

func TestClassifyParams_IntegerArgsUseRegisterPool(t *testing.T) {
	types := kir.NewTypeBundle()
	i32 := types.Intern(kir.Scalar(kir.ScalarInt32))

	locs := codegen.ClassifyParams(types, []kir.TypeID{i32, i32})
	if len(locs) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(locs))
	}
	for i, loc := range locs {
		if loc.StackSlot {
			t.Fatalf("param %d unexpectedly spilled to the stack", i)
		}
		if len(loc.Registers) != 1 {
			t.Fatalf("param %d registers = %v, want exactly one", i, loc.Registers)
		}
	}
	if locs[0].Registers[0] == locs[1].Registers[0] {
		t.Fatalf("two distinct parameters were assigned the same register")
	}
}
