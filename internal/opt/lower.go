package opt

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/ir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// LowerModule translates every defined function in m into the Optimizer
// IR, running the constant-folding and dead-code-hint passes on each
// before returning. Declaration-only functions produce no Optimizer IR
// function (there is no body to lower).
func LowerModule(m *ir.Module) *Module {
	out := &Module{}
	for _, fn := range m.Functions {
		optFn := LowerFunction(fn)
		FoldConstants(optFn)
		MarkDeadCode(optFn)
		out.Functions = append(out.Functions, optFn)
	}
	return out
}

// LowerFunction lowers one internal/ir.Function (a stack-machine
// instruction stream) into one Optimizer IR Function by simulating the
// stack: every push becomes a fresh SSA value, and every consuming opcode
// pops its operands off a shadow value stack rather than an actual byte
// stack. Local variable slots become InstrGetArg instructions carrying
// the slot index in ConstValue (spec.md §4.4: "the
// Optimizer IR construction from IR is a one-pass simulation of the
// stack machine").
func LowerFunction(fn *ir.Function) *Function {
	out := NewFunction(fn.Name)
	b := NewBuilder(out)

	var stack []InstrRef
	push := func(r InstrRef) { stack = append(stack, r) }
	pop := func() InstrRef {
		if len(stack) == 0 {
			return InvalidInstrRef
		}
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return r
	}

	locals := make(map[int]InstrRef)

	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instr {
			switch instr.Op {
			case ir.OpPushU64:
				ref, _ := b.AddInstruction(Instruction{Op: InstrConst, Type: instr.Type, ConstValue: instr.U64})
				push(ref)

			case ir.OpPushF32, ir.OpPushF64:
				ref, _ := b.AddInstruction(Instruction{Op: InstrConst, Type: instr.Type})
				push(ref)

			case ir.OpGetLocal:
				if ref, ok := locals[instr.LocalSlot]; ok {
					push(ref)
				} else {
					ref, _ := b.AddInstruction(Instruction{Op: InstrGetArg, Type: instr.Type, ConstValue: uint64(instr.LocalSlot)})
					locals[instr.LocalSlot] = ref
					push(ref)
				}

			case ir.OpSetLocal:
				locals[instr.LocalSlot] = pop()

			case ir.OpGetGlobal, ir.OpGetString:
				ref, _ := b.AddInstruction(Instruction{Op: InstrLoad, Type: instr.Type})
				push(ref)

			case ir.OpBigIntConst:
				ref, _ := b.AddInstruction(Instruction{Op: InstrBigIntConst, Type: instr.Type, BigInt: instr.BigInt})
				push(ref)

			case ir.OpIAdd:
				binOp(b, push, pop, InstrAdd, instr.Type)
			case ir.OpISub:
				binOp(b, push, pop, InstrSub, instr.Type)
			case ir.OpIMul:
				binOp(b, push, pop, InstrMul, instr.Type)
			case ir.OpIDiv:
				binOp(b, push, pop, InstrDiv, instr.Type)

			case ir.OpCmpEq, ir.OpCmpNe, ir.OpCmpLt, ir.OpCmpLe, ir.OpCmpGt, ir.OpCmpGe:
				binOp(b, push, pop, InstrCmp, instr.Type)

			case ir.OpCall:
				var args []InstrRef
				for i := 0; i < instr.CallArgc; i++ {
					args = append([]InstrRef{pop()}, args...)
				}
				ref, _ := b.AddInstruction(Instruction{Op: InstrCall, CallTarget: instr.CallFunc, Args: args, Type: instr.Type})
				push(ref)

			case ir.OpReturn:
				val := InvalidInstrRef
				if len(stack) > 0 {
					val = pop()
				}
				b.FinalizeReturn(val)

			case ir.OpJump:
				b.FinalizeJump(instr.TargetThen)

			case ir.OpBranch:
				cond := pop()
				b.FinalizeBranch(cond, instr.TargetThen, instr.TargetElse)

			default:
				// Opcodes this lowering pass does not yet model (casts,
				// inline assembly) are skipped rather than rejected: a
				// function using one of them simply has no Optimizer IR
				// hint for that value, which MarkDeadCode/FoldConstants
				// tolerate (they only act on what is present).
			}
		}
		if !out.Blocks[len(out.Blocks)-1].Finalized {
			b.NewBlock()
		}
	}

	return out
}

func binOp(b *Builder, push func(InstrRef), pop func() InstrRef, op InstrOpcode, t kir.TypeID) {
	rhs := pop()
	lhs := pop()
	ref, _ := b.AddInstruction(Instruction{Op: op, Args: []InstrRef{lhs, rhs}, Type: t})
	push(ref)
}
