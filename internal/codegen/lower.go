package codegen

import (
	"fmt"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/abi"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/opt"
)

// LowerFunction selects instructions for one Optimizer IR function,
// producing an asmcmp.Context ready for register allocation. Each
// Optimizer IR value gets exactly one virtual register; instruction
// selection here favors one-to-one opcode mapping over fused patterns,
// matching the specification's "representative instruction coverage"
// scope (store/load for int8/16/32/64, x87 load/store for long double,
// bitint_const, and atomic load/store including the >8-byte libatomic
// call path).
func LowerFunction(fn *opt.Function, types *kir.TypeBundle, bigints *kir.BigIntPool) *asmcmp.Context {
	ctx := asmcmp.NewContext(fn.Name)
	values := make(map[opt.InstrRef]asmcmp.VirtualRegisterID)

	classOf := func(t kir.TypeID) asmcmp.RegClass {
		entry := types.Get(t)
		if len(entry) > 0 {
			switch entry[0].Kind {
			case kir.EntryLongDouble:
				return asmcmp.RegClassX87
			case kir.EntryScalar:
				if entry[0].Scalar == kir.ScalarFloat32 || entry[0].Scalar == kir.ScalarFloat64 {
					return asmcmp.RegClassSSE
				}
			}
		}
		return asmcmp.RegClassInteger
	}

	valueReg := func(ref opt.InstrRef, t kir.TypeID) asmcmp.VirtualRegisterID {
		if id, ok := values[ref]; ok {
			return id
		}
		id := ctx.NewVirtualRegister(classOf(t), t)
		values[ref] = id
		return id
	}

	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instructions {
			if !instr.Live {
				continue // dead-code hint: skip instructions with no observed use
			}
			dst := valueReg(instr.ID, instr.Type)

			switch instr.Op {
			case opt.InstrConst:
				ctx.Emit(&asmcmp.Instruction{
					Op:   asmcmp.OpMov,
					Args: []asmcmp.Operand{{IsReg: true, Reg: dst}, {IsImm: true, Imm: int64(instr.ConstValue)}},
				})

			case opt.InstrAdd, opt.InstrSub, opt.InstrMul:
				op := selectArith(instr.Op)
				lhs := valueReg(instr.Args[0], instr.Type)
				rhs := valueReg(instr.Args[1], instr.Type)
				ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMov, Args: []asmcmp.Operand{{IsReg: true, Reg: dst}, {IsReg: true, Reg: lhs}}})
				ctx.Emit(&asmcmp.Instruction{Op: op, Args: []asmcmp.Operand{{IsReg: true, Reg: dst}, {IsReg: true, Reg: rhs}}})

			case opt.InstrDiv:
				lhs := valueReg(instr.Args[0], instr.Type)
				rhs := valueReg(instr.Args[1], instr.Type)
				ctx.PinRegister(lhs, "rax")
				ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpIdiv, Args: []asmcmp.Operand{{IsReg: true, Reg: lhs}, {IsReg: true, Reg: rhs}}})

			case opt.InstrCmp:
				lhs := valueReg(instr.Args[0], instr.Type)
				rhs := valueReg(instr.Args[1], instr.Type)
				ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpCmp, Args: []asmcmp.Operand{{IsReg: true, Reg: lhs}, {IsReg: true, Reg: rhs}}})

			case opt.InstrLoad:
				if mem, ok := localMemOperand(fn, instr); ok {
					ctx.Emit(&asmcmp.Instruction{Op: selectLoadOp(types, instr.Type), Args: []asmcmp.Operand{{IsReg: true, Reg: dst}, mem}})
				} else {
					ctx.Emit(&asmcmp.Instruction{Op: selectLoadOp(types, instr.Type), Args: []asmcmp.Operand{{IsReg: true, Reg: dst}, {IsMem: true}}})
				}

			case opt.InstrStore:
				if mem, ok := localMemOperand(fn, instr); ok {
					ctx.Emit(&asmcmp.Instruction{Op: selectStoreOp(types, instr.Type), Args: []asmcmp.Operand{mem, {IsReg: true, Reg: dst}}})
				} else {
					ctx.Emit(&asmcmp.Instruction{Op: selectStoreOp(types, instr.Type), Args: []asmcmp.Operand{{IsMem: true}, {IsReg: true, Reg: dst}}})
				}

			case opt.InstrGetArg:
				// Parameter value: no instruction is emitted and its virtual
				// register is not pinned to an ABI location here.

			case opt.InstrAtomicLoad, opt.InstrAtomicStore:
				size := abi.SizeOf(types, instr.Type)
				if size > 8 {
					stash := NewLibatomicStash()
					for _, r := range stash.ClobberedRegs {
						clobber := ctx.NewVirtualRegister(asmcmp.RegClassInteger, instr.Type)
						ctx.PinRegister(clobber, r)
					}
					name := "__atomic_load"
					if instr.Op == opt.InstrAtomicStore {
						name = "__atomic_store"
					}
					ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpLibatomicCall, Args: []asmcmp.Operand{{IsLabel: true, Label: name}}})
				} else {
					ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpAtomicCmpxchg, Args: []asmcmp.Operand{{IsReg: true, Reg: dst}}})
				}

			case opt.InstrBigIntConst:
				materializeBigIntConst(ctx, types, bigints, instr)

			case opt.InstrCall:
				var args []asmcmp.Operand
				for _, a := range instr.Args {
					args = append(args, asmcmp.Operand{IsReg: true, Reg: valueReg(a, instr.Type)})
				}
				args = append(args, asmcmp.Operand{IsLabel: true, Label: instr.CallTarget})
				ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpCall, Args: args})

			case opt.InstrInlineAsm:
				ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMov, Args: nil}) // verbatim body is carried by the emitter, not asmcmp

			default:
				// Phi nodes and every other opcode not listed above emit no
				// instructions; no error is reported for them.
			}
		}

		switch blk.Term {
		case opt.TermJump:
			ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpJmp, Args: []asmcmp.Operand{{IsLabel: true, Label: blockLabel(fn.Name, blk.JumpTarget)}}})
		case opt.TermBranch:
			cond := valueReg(blk.BranchCond, 0)
			ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpJcc, Args: []asmcmp.Operand{{IsReg: true, Reg: cond}, {IsLabel: true, Label: blockLabel(fn.Name, blk.BranchThen)}, {IsLabel: true, Label: blockLabel(fn.Name, blk.BranchElse)}}})
		case opt.TermReturn:
			var args []asmcmp.Operand
			if blk.ReturnVal != opt.InvalidInstrRef {
				args = append(args, asmcmp.Operand{IsReg: true, Reg: valueReg(blk.ReturnVal, 0)})
			}
			ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpRet, Args: args})
		}
	}

	return ctx
}

// scalarWidth reports the byte width and signedness codegen uses to pick a
// load/store instruction variant. long double is reported with isFloat set
// so callers route it through the x87 fld/fstp path instead of a sized mov
// (spec.md §4.5: "x87 load/store for long double"). This port's IrType has
// no separate unsigned-integer scalar kinds (see internal/kir/type.go), so
// only ScalarBool is treated as unsigned (zero-extending); every other
// integer width is treated as signed (sign-extending).
func scalarWidth(types *kir.TypeBundle, t kir.TypeID) (size int, signed bool, isFloat bool) {
	entry := types.Get(t)
	if len(entry) == 0 {
		return 8, true, false
	}
	switch entry[0].Kind {
	case kir.EntryLongDouble:
		return 16, true, true
	case kir.EntryScalar:
		switch entry[0].Scalar {
		case kir.ScalarBool:
			return 1, false, false
		case kir.ScalarInt8:
			return 1, true, false
		case kir.ScalarInt16:
			return 2, true, false
		case kir.ScalarInt32:
			return 4, true, false
		case kir.ScalarInt64, kir.ScalarPointer:
			return 8, true, false
		case kir.ScalarFloat32:
			return 4, true, true
		case kir.ScalarFloat64:
			return 8, true, true
		}
	}
	return 8, true, false
}

// selectStoreOp picks the int8/16/32/64_store variant spec.md §4.5 names,
// or OpFstp for a long double operand.
func selectStoreOp(types *kir.TypeBundle, t kir.TypeID) asmcmp.Opcode {
	size, _, isFloat := scalarWidth(types, t)
	if isFloat && size == 16 {
		return asmcmp.OpFstp
	}
	switch size {
	case 1:
		return asmcmp.OpMovb
	case 2:
		return asmcmp.OpMovw
	case 4:
		return asmcmp.OpMovl
	default:
		return asmcmp.OpMovq
	}
}

// selectLoadOp picks a plain width-appropriate mov for 8-byte operands, a
// sign/zero-extending movsx/movzx for narrower ones, or OpFld for a long
// double operand (spec.md §4.5 step naming "movsx"/"movzx"/x87 fld/fstp).
func selectLoadOp(types *kir.TypeBundle, t kir.TypeID) asmcmp.Opcode {
	size, signed, isFloat := scalarWidth(types, t)
	if isFloat && size == 16 {
		return asmcmp.OpFld
	}
	if size >= 8 {
		return asmcmp.OpMovq
	}
	if signed {
		return asmcmp.OpMovsx
	}
	return asmcmp.OpMovzx
}

// localMemOperand implements the ALLOC_LOCAL+REF_LOCAL frame-offset
// detection helper spec.md §4.5 names: when a load/store's address operand
// (instr.Args[0]) is defined by an InstrGetArg, it names a local/parameter
// slot rather than an arbitrary pointer, so the address is emitted as a
// frame-relative displacement off the function's base pointer instead of a
// register-indirect memory operand.
func localMemOperand(fn *opt.Function, instr *opt.Instruction) (asmcmp.Operand, bool) {
	if len(instr.Args) == 0 {
		return asmcmp.Operand{}, false
	}
	ref := instr.Args[0]
	for _, blk := range fn.Blocks {
		for _, cand := range blk.Instructions {
			if cand.ID == ref && cand.Op == opt.InstrGetArg {
				offset := -(int(cand.ConstValue) + 1) * 8
				return asmcmp.Operand{IsMem: true, MemDisp: offset}, true
			}
		}
	}
	return asmcmp.Operand{}, false
}

// materializeBigIntConst spills a _BitInt(N) constant's word representation
// onto the stack, one qword at a time, each qword written as a pair of
// 32-bit immediate stores (spec.md §4.3 "allocate a spill region and mov
// qword halves from the BigInt representation"). The qword count comes from
// the instruction's declared type width via kir.WordsForWidth rather than
// len(words): the type is the authority on how many slots the value
// occupies, and bigints.Words is only the backing data for them.
func materializeBigIntConst(ctx *asmcmp.Context, types *kir.TypeBundle, bigints *kir.BigIntPool, instr *opt.Instruction) {
	bitWidth := 64
	if entry := types.Get(instr.Type); len(entry) > 0 && entry[0].Kind == kir.EntryBits {
		bitWidth = entry[0].BitWidth
	}
	words := bigints.Words(instr.BigInt)
	n := kir.WordsForWidth(bitWidth)

	base := ctx.AllocateStackSlot(n * 8)
	for i := 0; i < n; i++ {
		var word uint64
		if i < len(words) {
			word = words[i]
		}
		off := base + i*8
		ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMovl, Args: []asmcmp.Operand{
			{IsMem: true, MemDisp: off}, {IsImm: true, Imm: int64(uint32(word))},
		}})
		ctx.Emit(&asmcmp.Instruction{Op: asmcmp.OpMovl, Args: []asmcmp.Operand{
			{IsMem: true, MemDisp: off + 4}, {IsImm: true, Imm: int64(uint32(word >> 32))},
		}})
	}
}

func selectArith(op opt.InstrOpcode) asmcmp.Opcode {
	switch op {
	case opt.InstrAdd:
		return asmcmp.OpAdd
	case opt.InstrSub:
		return asmcmp.OpSub
	case opt.InstrMul:
		return asmcmp.OpImul
	default:
		return asmcmp.OpMov
	}
}

func blockLabel(fn string, idx int) string {
	return fmt.Sprintf(".L%s_%d", fn, idx)
}

// ClassifyParams assigns ABI locations (incoming physical register or
// stack memory) to a function's parameter types, left to right.
// LowerFunction does not call it.
func ClassifyParams(types *kir.TypeBundle, paramTypes []kir.TypeID) []abi.Location {
	pool := abi.NewRegisterPool()
	locs := make([]abi.Location, len(paramTypes))
	for i, t := range paramTypes {
		locs[i] = pool.Assign(abi.Classify(types, t))
	}
	return locs
}
