package emitter

import (
	"fmt"
	"strings"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/regalloc"
)

// Syntax abstracts the textual rendering conventions one assembly dialect
// uses, so a second dialect (Intel syntax, say) can be added later without
// touching Emitter itself (spec.md §4.6 Non-goals: "a single syntax
// implementation is sufficient, but the seam for a second one should
// exist"). This port implements AT&T syntax only.
type Syntax interface {
	Mnemonic(op asmcmp.Opcode) string
	Operand(arg asmcmp.Operand, assignments map[asmcmp.VirtualRegisterID]regalloc.Assignment) string
	Join(mnemonic string, operands []string) string
}

// ATT is the GNU-assembler AT&T syntax: `mnemonic src, dst` operand order,
// `%reg` register prefix, `$imm` immediate prefix.
type ATT struct{}

func (ATT) Mnemonic(op asmcmp.Opcode) string {
	switch op {
	case asmcmp.OpMov:
		return "mov"
	case asmcmp.OpAdd:
		return "add"
	case asmcmp.OpSub:
		return "sub"
	case asmcmp.OpImul:
		return "imul"
	case asmcmp.OpIdiv:
		return "idiv"
	case asmcmp.OpCmp:
		return "cmp"
	case asmcmp.OpJmp:
		return "jmp"
	case asmcmp.OpJcc:
		return "jne"
	case asmcmp.OpCall:
		return "call"
	case asmcmp.OpRet:
		return "ret"
	case asmcmp.OpPush:
		return "push"
	case asmcmp.OpPop:
		return "pop"
	case asmcmp.OpAtomicCmpxchg:
		return "lock cmpxchg"
	case asmcmp.OpLibatomicCall:
		return "call"
	case asmcmp.OpMovb:
		return "movb"
	case asmcmp.OpMovw:
		return "movw"
	case asmcmp.OpMovl:
		return "movl"
	case asmcmp.OpMovq:
		return "movq"
	case asmcmp.OpMovsx:
		return "movsx"
	case asmcmp.OpMovzx:
		return "movzx"
	case asmcmp.OpFld:
		return "fld"
	case asmcmp.OpFstp:
		return "fstp"
	case asmcmp.OpLabel:
		return ""
	default:
		return "nop"
	}
}

func (ATT) Operand(arg asmcmp.Operand, assignments map[asmcmp.VirtualRegisterID]regalloc.Assignment) string {
	switch {
	case arg.IsReg:
		a := assignments[arg.Reg]
		if a.Spilled {
			return fmt.Sprintf("%d(%%rbp)", a.Offset)
		}
		if a.Phys != "" {
			return "%" + a.Phys
		}
		return fmt.Sprintf("%%vreg%d", arg.Reg)
	case arg.IsImm:
		return fmt.Sprintf("$%d", arg.Imm)
	case arg.IsMem:
		return fmt.Sprintf("%d(%%rbp)", arg.MemDisp)
	case arg.IsLabel:
		return arg.Label
	default:
		return ""
	}
}

func (ATT) Join(mnemonic string, operands []string) string {
	// Instruction selection lists operands destination-first; AT&T order
	// is source-first, so the operand list is written out reversed.
	if mnemonic == "" {
		return ""
	}
	if len(operands) == 0 {
		return mnemonic
	}
	reversed := make([]string, len(operands))
	for i, op := range operands {
		reversed[len(operands)-1-i] = op
	}
	return mnemonic + " " + strings.Join(reversed, ", ")
}
