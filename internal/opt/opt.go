// Package opt implements the Optimizer IR: a block-structured form with
// explicit terminators and a mandatory finalization discipline (spec.md
// §4.4 "Optimizer IR Construction"). Blocks accept instructions freely;
// one of the Finalize* calls sets the block's terminator, after which a
// second Finalize* call is rejected while AddInstruction still appends
// (spec.md §8 property 6).
package opt

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// InstrOpcode enumerates the Optimizer IR's own instruction set, distinct
// from internal/ir's stack-machine opcodes: every operand here is an
// explicit instruction reference rather than an implicit stack slot,
// matching the SSA-like shape spec.md calls for ("basic SSA... dead-code
// hints" — Non-goals still permit this much).
type InstrOpcode uint16

const (
	InstrNop InstrOpcode = iota
	InstrConst
	InstrAdd
	InstrSub
	InstrMul
	InstrDiv
	InstrCmp
	InstrLoad
	InstrStore
	InstrGetArg
	InstrCall
	InstrAtomicLoad
	InstrAtomicStore
	InstrPhi
	InstrInlineAsm
	InstrBigIntConst
)

// AtomicOrder is the handful of orderings the specification's atomic ops
// may request. Per spec.md §4.4 "atomic ops require mandatory SeqCst",
// this port accepts only OrderSeqCst for Instr.Order on atomic opcodes;
// AddInstruction rejects anything weaker.
type AtomicOrder uint8

const (
	OrderSeqCst AtomicOrder = iota
)

// InstrRef is an SSA-style value reference: the defining instruction's
// global id within its OptFunction.
type InstrRef int

const InvalidInstrRef InstrRef = -1

// Instruction is one Optimizer IR instruction.
type Instruction struct {
	ID InstrRef
	Op InstrOpcode

	Type kir.TypeID

	ConstValue uint64
	Args       []InstrRef

	Order AtomicOrder

	PhiIncoming map[int]InstrRef // predecessor block index -> value

	CallTarget string
	AsmBody    string
	BigInt     kir.BigIntID // valid when Op == InstrBigIntConst

	// Live is cleared by the dead-code hint pass (deadcode.go) and
	// consulted by codegen to skip instructions with no observed use.
	Live bool
}

// Terminator discriminates how a Block ends.
type Terminator uint8

const (
	TermNone Terminator = iota
	TermJump
	TermBranch
	TermIndirectJump
	TermReturn
)

// Block is one Optimizer IR basic block. Once Finalized is set, a further
// Finalize* call fails; AddInstruction and Phi still append to the block
// (spec.md §8 property 6).
type Block struct {
	Index        int
	Instructions []*Instruction

	Finalized  bool
	Term       Terminator
	JumpTarget int
	BranchCond InstrRef
	BranchThen int
	BranchElse int
	ReturnVal  InstrRef
}

// Function is one Optimizer IR function: a flat slice of Blocks plus the
// instruction-id counter shared across all of them (ids are unique within
// a function, not just within a block, so Phi incoming-value references
// remain unambiguous across block boundaries).
type Function struct {
	Name   string
	Blocks []*Block

	nextID InstrRef
}

// NewFunction allocates an empty Optimizer IR function with one entry
// block.
func NewFunction(name string) *Function {
	fn := &Function{Name: name}
	fn.Blocks = append(fn.Blocks, &Block{Index: 0})
	return fn
}

// Module is the Optimizer IR's unit-level container.
type Module struct {
	Functions []*Function
}
