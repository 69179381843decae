// Package ir is the typed, stack-oriented linear intermediate
// representation emitted by internal/translator from an analyzed AST
// (spec.md §3 "IR layer entities", §4.3).
package ir

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// Opcode enumerates the IR instruction set. This port implements the
// opcode families spec.md names explicitly; unnamed opcodes are not
// modeled (see SPEC_FULL.md "Codegen" section on representative coverage).
type Opcode uint16

const (
	OpNop Opcode = iota

	// Stack manipulation.
	OpPushU64
	OpPushF32
	OpPushF64
	OpPushLongDouble
	OpPop

	// Local variable references.
	OpGetLocal
	OpSetLocal

	// Global / string references.
	OpGetGlobal
	OpGetString

	// Arithmetic (operate on the top of stack).
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIMod
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpNeg
	OpNot
	OpBitNot
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr

	// Comparisons, push a 0/1 i32.
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe

	// Type conversions (spec.md §4.3 translate_typeconv).
	OpIntToFloat32
	OpIntToFloat64
	OpUIntToFloat32
	OpUIntToFloat64
	OpFloat32ToInt
	OpFloat64ToInt
	OpFloat32ToUInt
	OpFloat64ToUInt
	OpSignExtend
	OpZeroExtend
	OpTruncate
	OpIntToBoolCmp
	OpFloatToBoolCmp
	OpBoolNot
	OpComplexRealPart
	OpComplexFromParts
	OpLongDoubleEquals

	// Memory.
	OpLoad
	OpStore

	// BigInt constants (spec.md §4.3 "bit-precise constants").
	OpBigIntConst

	// Calls and control flow.
	OpCall
	OpReturn
	OpJump
	OpBranch
	OpLabel

	OpInlineAssembly
)

// TypedRef is a reference to a prior instruction's pushed value, carrying
// the block-local index it was produced at. Used by opcodes that need an
// operand from somewhere other than the top of stack (spec.md §3:
// "typed-ref").
type TypedRef struct {
	BlockIndex int
	InstrIndex int
	Type       kir.TypeID
}

// Instr is one IR instruction (spec.md §3 "IrInstr"). Parameters are a
// tagged union; only the fields relevant to Op are populated, matching
// spec.md §9's "tagged union for instruction operands" guidance ported as
// a plain struct of optionals rather than an interface{} union, since the
// field set is small and fixed per opcode family.
type Instr struct {
	Op Opcode

	U64        uint64
	F32        float32
	F64        float64
	LongDouble [2]uint64 // 80-bit extended precision, stored as two words

	Type   kir.TypeID
	Ref    TypedRef
	Offset int

	// Branch-triple: target block indices for conditional control flow.
	TargetThen int
	TargetElse int

	BigInt kir.BigIntID

	LocalSlot int

	CallFunc string
	CallArgc int

	StringID kir.StringID

	Label string
}

// Block is a straight-line sequence of instructions within a function
// body (spec.md §3 "IrFunction — ... linear IrBlock sequence").
type Block struct {
	Label string
	Instr []Instr
}

// Builder accumulates instructions into the current block of a Function.
// It mirrors the teacher's small, focused builder-style helper types
// (e.g. astc/ise_encode.go's bit-stream writer) rather than exposing the
// Block slice directly.
type Builder struct {
	fn  *Function
	cur *Block
}

// NewBuilder starts building into fn's entry block.
func NewBuilder(fn *Function) *Builder {
	if len(fn.Blocks) == 0 {
		fn.Blocks = append(fn.Blocks, &Block{Label: "entry"})
	}
	return &Builder{fn: fn, cur: fn.Blocks[len(fn.Blocks)-1]}
}

// Emit appends instr to the block currently being built and returns its
// TypedRef.
func (b *Builder) Emit(instr Instr) TypedRef {
	idx := len(b.cur.Instr)
	b.cur.Instr = append(b.cur.Instr, instr)
	return TypedRef{BlockIndex: len(b.fn.Blocks) - 1, InstrIndex: idx, Type: instr.Type}
}

// NewBlock starts a fresh block and makes it current, returning its index.
func (b *Builder) NewBlock(label string) int {
	b.fn.Blocks = append(b.fn.Blocks, &Block{Label: label})
	b.cur = b.fn.Blocks[len(b.fn.Blocks)-1]
	return len(b.fn.Blocks) - 1
}

// Local allocates a new local variable slot in fn and returns its index.
func (b *Builder) Local(t kir.TypeID) int {
	b.fn.Locals = append(b.fn.Locals, t)
	return len(b.fn.Locals) - 1
}

// Param describes one function parameter.
type Param struct {
	Name kir.StringID
	Type kir.TypeID
}

// Function is one IR function (spec.md §3 "IrFunction").
type Function struct {
	Name    string
	Params  []Param
	Returns kir.TypeID

	Locals []kir.TypeID
	Blocks []*Block

	IsDefinition bool
	Linkage      Linkage
}

// Linkage mirrors kast.Linkage without introducing an import-cycle back to
// internal/kast; the translator is responsible for the mapping.
type Linkage uint8

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
	LinkageWeak
)

// Global is one IR module-scope object.
type Global struct {
	Name    string
	Type    kir.TypeID
	Init    []byte // raw little-endian initializer bytes, nil for tentative/extern
	Linkage Linkage
}

// Module is the unit-level IR container (spec.md §3 "IrModule").
type Module struct {
	Strings *kir.StringPool
	Types   *kir.TypeBundle
	BigInts *kir.BigIntPool

	Functions     []*Function
	FunctionDecls []*Function // declaration-only (no body)
	Globals       []*Global
	StringLits    []kir.StringID
	InlineAsm     []string
}

// NewModule allocates an empty module sharing the given pools.
func NewModule(strings *kir.StringPool, types *kir.TypeBundle, bigints *kir.BigIntPool) *Module {
	return &Module{Strings: strings, Types: types, BigInts: bigints}
}
