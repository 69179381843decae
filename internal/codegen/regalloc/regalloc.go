// Package regalloc implements a linear-scan register allocator over
// asmcmp virtual registers (spec.md §4.5 "Codegen — register allocation").
// Pinned registers bypass allocation entirely; everything else is granted
// a physical register from a fixed pool in first-use order and spilled to
// a stack slot once the pool is exhausted.
package regalloc

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
)

// Assignment is the allocator's verdict for one virtual register: either
// a physical register name, or a stack-frame offset if it had to spill.
type Assignment struct {
	Phys    string
	Spilled bool
	Offset  int
}

// Pools are the fixed physical-register sets available to the allocator,
// excluding any register the frame reserves for itself (rsp, rbp).
var (
	IntegerPool = []string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	SSEPool     = []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"}
)

// Allocator runs one linear-scan pass over a single asmcmp.Context.
type Allocator struct {
	ctx *asmcmp.Context

	intFree map[string]bool
	sseFree map[string]bool

	assignments map[asmcmp.VirtualRegisterID]Assignment

	// stash records the stack offset given to each virtual register that
	// was spilled because its pool was exhausted (see StashOffset).
	stash map[asmcmp.VirtualRegisterID]int
}

// New prepares an allocator for ctx with both physical pools fully free.
func New(ctx *asmcmp.Context) *Allocator {
	a := &Allocator{
		ctx:         ctx,
		intFree:     make(map[string]bool),
		sseFree:     make(map[string]bool),
		assignments: make(map[asmcmp.VirtualRegisterID]Assignment),
		stash:       make(map[asmcmp.VirtualRegisterID]int),
	}
	for _, r := range IntegerPool {
		a.intFree[r] = true
	}
	for _, r := range SSEPool {
		a.sseFree[r] = true
	}
	return a
}

// Run performs the allocation pass over every virtual register referenced
// by instructions in ctx's instruction list, in first-use program order,
// and returns the resulting assignment table.
func (a *Allocator) Run() map[asmcmp.VirtualRegisterID]Assignment {
	seen := make(map[asmcmp.VirtualRegisterID]bool)
	for instr := a.ctx.Head(); instr != nil; instr = instr.Next {
		for _, arg := range instr.Args {
			if !arg.IsReg || seen[arg.Reg] {
				continue
			}
			seen[arg.Reg] = true
			a.allocateOne(arg.Reg)
		}
	}
	return a.assignments
}

func (a *Allocator) allocateOne(id asmcmp.VirtualRegisterID) {
	reg := a.ctx.Register(id)
	if reg.Pinned {
		a.assignments[id] = Assignment{Phys: reg.PinnedPhys}
		return
	}

	free, pool := a.intFree, IntegerPool
	if reg.Class == asmcmp.RegClassSSE {
		free, pool = a.sseFree, SSEPool
	}

	for _, candidate := range pool {
		if free[candidate] {
			free[candidate] = false
			a.assignments[id] = Assignment{Phys: candidate}
			return
		}
	}

	// Pool exhausted: the register being allocated is itself spilled to a
	// fresh 8-byte stack slot; registers already assigned keep theirs.
	offset := a.ctx.AllocateStackSlot(8)
	a.stash[id] = offset
	a.assignments[id] = Assignment{Spilled: true, Offset: offset}
}

// Release returns phys to its pool, making it available for a later
// virtual register. Run never calls it, so within one Run a physical
// register is handed out at most once.
func (a *Allocator) Release(class asmcmp.RegClass, phys string) {
	if class == asmcmp.RegClassSSE {
		a.sseFree[phys] = true
		return
	}
	a.intFree[phys] = true
}

// StashOffset reports the stack offset a spilled register was given, or
// ok=false if id was never spilled.
func (a *Allocator) StashOffset(id asmcmp.VirtualRegisterID) (int, bool) {
	off, ok := a.stash[id]
	return off, ok
}
