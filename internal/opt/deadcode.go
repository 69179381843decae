package opt

// MarkDeadCode computes liveness from one pass that records every value
// read by a terminator or by any instruction, and clears Instruction.Live
// on anything never read. A value read only by an instruction that is
// itself marked dead stays live; the marking is not repeated. This is a hint, not a deletion pass (spec.md §4.4
// Non-goals: "dead-code elimination proper, beyond marking, is out of
// scope") -- codegen may choose to skip !Live instructions with no
// observable side effect, but calls, stores, and inline assembly are
// always kept live regardless of use count, since they may have effects
// this port's IR does not model precisely enough to prove dead.
func MarkDeadCode(fn *Function) {
	used := make(map[InstrRef]bool)

	for _, blk := range fn.Blocks {
		switch blk.Term {
		case TermBranch:
			used[blk.BranchCond] = true
		case TermIndirectJump:
			used[blk.BranchCond] = true
		case TermReturn:
			if blk.ReturnVal != InvalidInstrRef {
				used[blk.ReturnVal] = true
			}
		}
		for _, instr := range blk.Instructions {
			for _, arg := range instr.Args {
				used[arg] = true
			}
			for _, v := range instr.PhiIncoming {
				used[v] = true
			}
		}
	}

	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instructions {
			if hasSideEffect(instr.Op) {
				instr.Live = true
				continue
			}
			instr.Live = used[instr.ID]
		}
	}
}

func hasSideEffect(op InstrOpcode) bool {
	switch op {
	case InstrStore, InstrAtomicStore, InstrAtomicLoad, InstrCall, InstrInlineAsm:
		return true
	default:
		return false
	}
}
