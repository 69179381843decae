package opt

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// Builder accumulates instructions into one Function, one block at a time,
// implementing the specification's builder contract: add_instruction,
// finalize_jump, finalize_branch, finalize_indirect_jump, finalize_return,
// phi, invoke, invoke_virtual, inline_assembly.
//
// Direct and indirect calls that the specification separates into
// invoke/invoke_virtual are both represented as an InstrCall instruction
// here (spec.md §4.4 Non-goals: "virtual-call devirtualization is out of
// scope" — this port only needs one call shape).
type Builder struct {
	fn  *Function
	cur *Block
}

// NewBuilder starts building into fn's entry block.
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn, cur: fn.Blocks[0]}
}

// CurrentBlock returns the block currently accepting instructions.
func (b *Builder) CurrentBlock() *Block { return b.cur }

// AddInstruction appends instr to the current block, assigning it a fresh
// id. Atomic opcodes must request OrderSeqCst (spec.md §4.4: "atomic ops
// require mandatory SeqCst"); anything else is rejected.
//
// Finalization only closes a block against further control transfer: a
// Finalize* call on an already-finalized block fails (see finalize()
// below), but AddInstruction itself never inspects b.cur.Finalized, since
// none of InstrOpcode's values are control-affecting (jumps, branches and
// returns live on Block.Term, set exclusively by the Finalize* family)
// (spec.md §8 property 6: appending a non-terminator after finalization
// is accepted; only a further control instruction is rejected).
func (b *Builder) AddInstruction(instr Instruction) (InstrRef, error) {
	if (instr.Op == InstrAtomicLoad || instr.Op == InstrAtomicStore) && instr.Order != OrderSeqCst {
		return InvalidInstrRef, kerr.New(kerr.InvalidParameter, "atomic operations require sequentially-consistent ordering")
	}
	instr.ID = b.fn.nextID
	instr.Live = true
	b.fn.nextID++
	b.cur.Instructions = append(b.cur.Instructions, &instr)
	return instr.ID, nil
}

// Phi adds a phi node to the current block. Its placement is not checked:
// a phi appended after non-phi instructions of the block is accepted.
func (b *Builder) Phi(t kir.TypeID, incoming map[int]InstrRef) (InstrRef, error) {
	return b.AddInstruction(Instruction{Op: InstrPhi, PhiIncoming: incoming})
}

// NewBlock allocates a fresh, non-finalized block and makes it current.
func (b *Builder) NewBlock() *Block {
	blk := &Block{Index: len(b.fn.Blocks)}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.cur = blk
	return blk
}

// SwitchTo makes blk the block future AddInstruction/Finalize* calls
// target. Used when a caller needs to return to an earlier, still-open
// block (e.g. to finalize a loop header's back-edge after the body has
// been built).
func (b *Builder) SwitchTo(blk *Block) { b.cur = blk }

func (b *Builder) finalize() error {
	if b.cur.Finalized {
		return kerr.New(kerr.InvalidRequest, "block is already finalized")
	}
	b.cur.Finalized = true
	return nil
}

// FinalizeJump closes the current block with an unconditional jump.
func (b *Builder) FinalizeJump(target int) error {
	if err := b.finalize(); err != nil {
		return err
	}
	b.cur.Term = TermJump
	b.cur.JumpTarget = target
	return nil
}

// FinalizeBranch closes the current block with a two-way conditional jump.
func (b *Builder) FinalizeBranch(cond InstrRef, thenBlock, elseBlock int) error {
	if err := b.finalize(); err != nil {
		return err
	}
	b.cur.Term = TermBranch
	b.cur.BranchCond = cond
	b.cur.BranchThen = thenBlock
	b.cur.BranchElse = elseBlock
	return nil
}

// FinalizeIndirectJump closes the current block with a computed-target
// jump (the target value is the instruction referenced by target).
func (b *Builder) FinalizeIndirectJump(target InstrRef) error {
	if err := b.finalize(); err != nil {
		return err
	}
	b.cur.Term = TermIndirectJump
	b.cur.BranchCond = target
	return nil
}

// FinalizeReturn closes the current block with a return, optionally
// carrying a value (InvalidInstrRef for a void return).
func (b *Builder) FinalizeReturn(value InstrRef) error {
	if err := b.finalize(); err != nil {
		return err
	}
	b.cur.Term = TermReturn
	b.cur.ReturnVal = value
	return nil
}

// InlineAssembly appends a verbatim inline-assembly instruction. Its
// operand list records which SSA values the asm block reads (MarkDeadCode
// counts them as used), without the builder needing to parse the asm body.
// Codegen lowers it with no operands, so the register allocator does not
// see them.
func (b *Builder) InlineAssembly(body string, args []InstrRef) (InstrRef, error) {
	return b.AddInstruction(Instruction{Op: InstrInlineAsm, AsmBody: body, Args: args})
}

// Invoke appends a direct call instruction.
func (b *Builder) Invoke(target string, args []InstrRef, t kir.TypeID) (InstrRef, error) {
	return b.AddInstruction(Instruction{Op: InstrCall, CallTarget: target, Args: args})
}

// InvokeVirtual appends an indirect call through a function-pointer value.
// The callee is passed as the first element of args by convention (no
// separate field), since this port does not model vtables.
func (b *Builder) InvokeVirtual(callee InstrRef, args []InstrRef) (InstrRef, error) {
	full := append([]InstrRef{callee}, args...)
	return b.AddInstruction(Instruction{Op: InstrCall, Args: full})
}
