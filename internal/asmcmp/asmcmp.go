// Package asmcmp is the AsmCmp IR: a doubly-linked list of virtual
// instructions operating on virtual registers, the last IR layer before
// physical register allocation (spec.md §4.5 "AsmCmp IR"). Floating
// labels (labels not yet bound to an instruction) are hoisted onto the
// next instruction inserted after them (spec.md §8 property 7).
package asmcmp

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// RegClass discriminates the physical register file a VirtualRegister is
// ultimately assigned from.
type RegClass uint8

const (
	RegClassInteger RegClass = iota
	RegClassSSE
	RegClassX87
)

// VirtualRegisterID is a stable handle into a Context's register table.
type VirtualRegisterID int

// VirtualRegister is an unassigned operand slot. Pin fixes it to a
// specific physical register name ahead of allocation (e.g. the implicit
// rax/rdx pair of a 128-bit division), matching spec.md's "pinned virtual
// registers bypass allocation entirely".
type VirtualRegister struct {
	ID    VirtualRegisterID
	Class RegClass
	Type  kir.TypeID

	Pinned      bool
	PinnedPhys  string
}

// Label is a jump/branch target. A Label created before any instruction
// exists is "floating"; the next instruction appended via Context.Emit
// adopts it. A floating label after which no instruction is emitted stays
// floating, with Instr nil.
type Label struct {
	Name     string
	Floating bool
	Instr    *Instruction
}

// Opcode is the asm-level instruction set this port models explicitly: a
// representative subset (moves, arithmetic, compare/jump, call/ret) rather
// than the full x86-64 encoding space, matching spec.md §4.5/§4.6's
// "representative instruction coverage, not an exhaustive encoder".
type Opcode uint16

const (
	OpMov Opcode = iota
	OpAdd
	OpSub
	OpImul
	OpIdiv
	OpCmp
	OpJmp
	OpJcc
	OpCall
	OpRet
	OpPush
	OpPop
	OpLabel
	OpAtomicCmpxchg
	OpLibatomicCall // >8-byte atomic ops via a libatomic call (scenario S6)
	OpMovb          // 8-bit-operand store/load variant
	OpMovw          // 16-bit-operand store/load variant
	OpMovl          // 32-bit-operand store/load variant
	OpMovq          // 64-bit-operand store/load variant
	OpMovsx         // sign-extending load of a narrower-than-register operand
	OpMovzx         // zero-extending load of a narrower-than-register operand
	OpFld           // x87 load (long double)
	OpFstp          // x87 store-and-pop (long double)
)

// Operand is a tagged union over {virtual register, immediate, memory,
// label} operand kinds.
type Operand struct {
	IsReg   bool
	Reg     VirtualRegisterID
	IsImm   bool
	Imm     int64
	IsMem   bool
	MemBase VirtualRegisterID
	MemDisp int
	IsLabel bool
	Label   string
}

// Instruction is one doubly-linked node of the asm instruction stream.
type Instruction struct {
	Op   Opcode
	Args []Operand

	Labels []string // labels bound to this instruction (may be >1 if several floating labels stacked up)

	Prev, Next *Instruction
}

// Context owns one function's virtual-register table and instruction
// list, plus the stack-frame layout accumulated as spills are requested.
type Context struct {
	FuncName string

	head, tail *Instruction

	regs        []VirtualRegister
	nextRegID   VirtualRegisterID
	floating    []*Label

	FrameSize int // bytes, grows via AllocateStackSlot
}

// NewContext starts an empty AsmCmp context for one function.
func NewContext(name string) *Context {
	return &Context{FuncName: name}
}

// NewVirtualRegister allocates a fresh, unpinned virtual register.
func (c *Context) NewVirtualRegister(class RegClass, t kir.TypeID) VirtualRegisterID {
	id := c.nextRegID
	c.nextRegID++
	c.regs = append(c.regs, VirtualRegister{ID: id, Class: class, Type: t})
	return id
}

// PinRegister fixes an existing virtual register to a physical register
// name, bypassing allocation.
func (c *Context) PinRegister(id VirtualRegisterID, phys string) {
	c.regs[id].Pinned = true
	c.regs[id].PinnedPhys = phys
}

// Register returns the VirtualRegister record for id.
func (c *Context) Register(id VirtualRegisterID) *VirtualRegister {
	return &c.regs[id]
}

// NewFloatingLabel allocates a label not yet attached to any instruction.
func (c *Context) NewFloatingLabel(name string) *Label {
	l := &Label{Name: name, Floating: true}
	c.floating = append(c.floating, l)
	return l
}

// Emit appends instr to the end of the instruction list. Any pending
// floating labels are hoisted onto it (spec.md §8 property 7).
func (c *Context) Emit(instr *Instruction) *Instruction {
	if len(c.floating) > 0 {
		for _, l := range c.floating {
			l.Floating = false
			l.Instr = instr
			instr.Labels = append(instr.Labels, l.Name)
		}
		c.floating = nil
	}

	instr.Prev = c.tail
	if c.tail != nil {
		c.tail.Next = instr
	} else {
		c.head = instr
	}
	c.tail = instr
	return instr
}

// Head returns the first instruction in program order, or nil if empty.
func (c *Context) Head() *Instruction { return c.head }

// AllocateStackSlot reserves size bytes in the function's stack frame,
// returning the negative displacement from the frame base a spilled
// value should use.
func (c *Context) AllocateStackSlot(size int) int {
	c.FrameSize += size
	return -c.FrameSize
}
