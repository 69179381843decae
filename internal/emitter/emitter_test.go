package emitter_test

import (
	"strings"
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/regalloc"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/emitter"
)

func TestSymbolName_AsmLabelWins(t *testing.T) {
	if got := emitter.SymbolName("foo", "bar"); got != "bar" {
		t.Fatalf("SymbolName with asm-label = %q, want %q", got, "bar")
	}
	if got := emitter.SymbolName("foo", ""); got != "foo" {
		t.Fatalf("SymbolName without asm-label = %q, want %q", got, "foo")
	}
}

func TestEmitFunctionPrologueAndEpilogue(t *testing.T) {
	var buf strings.Builder
	e := emitter.New(&buf, emitter.ATT{})

	if err := e.EmitFunctionPrologue("add_one", 16); err != nil {
		t.Fatalf("EmitFunctionPrologue: %v", err)
	}
	if err := e.EmitFunctionEpilogue(); err != nil {
		t.Fatalf("EmitFunctionEpilogue: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"add_one:", "push %rbp", "mov %rsp, %rbp", "sub $16, %rsp", "leave", "ret"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q does not contain %q", out, want)
		}
	}
}

func TestEmitFunctionPrologue_NoFrameOmitsSub(t *testing.T) {
	var buf strings.Builder
	e := emitter.New(&buf, emitter.ATT{})

	if err := e.EmitFunctionPrologue("leaf", 0); err != nil {
		t.Fatalf("EmitFunctionPrologue: %v", err)
	}
	if strings.Contains(buf.String(), "sub $") {
		t.Fatalf("output %q should not contain a frame-size sub for a zero-size frame", buf.String())
	}
}

func TestEmitInstruction_RegisterAndImmediateOperands(t *testing.T) {
	var buf strings.Builder
	e := emitter.New(&buf, emitter.ATT{})

	assignments := map[asmcmp.VirtualRegisterID]regalloc.Assignment{
		0: {Phys: "rax"},
	}
	instr := &asmcmp.Instruction{
		Op:   asmcmp.OpMov,
		Args: []asmcmp.Operand{{IsReg: true, Reg: 0}, {IsImm: true, Imm: 42}},
	}

	if err := e.EmitInstruction(instr, assignments); err != nil {
		t.Fatalf("EmitInstruction: %v", err)
	}

	want := "mov $42, %rax"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("output %q does not contain %q", buf.String(), want)
	}
}

func TestEmitInstruction_SpilledOperandUsesStackOffset(t *testing.T) {
	var buf strings.Builder
	e := emitter.New(&buf, emitter.ATT{})

	assignments := map[asmcmp.VirtualRegisterID]regalloc.Assignment{
		0: {Spilled: true, Offset: -8},
	}
	instr := &asmcmp.Instruction{
		Op:   asmcmp.OpMov,
		Args: []asmcmp.Operand{{IsReg: true, Reg: 0}, {IsImm: true, Imm: 1}},
	}

	if err := e.EmitInstruction(instr, assignments); err != nil {
		t.Fatalf("EmitInstruction: %v", err)
	}
	if !strings.Contains(buf.String(), "-8(%rbp)") {
		t.Fatalf("output %q does not contain spilled offset", buf.String())
	}
}

func TestEmitInstruction_LabelsPrecedeInstruction(t *testing.T) {
	var buf strings.Builder
	e := emitter.New(&buf, emitter.ATT{})

	instr := &asmcmp.Instruction{
		Op:     asmcmp.OpRet,
		Labels: []string{".Lreturn"},
	}
	if err := e.EmitInstruction(instr, nil); err != nil {
		t.Fatalf("EmitInstruction: %v", err)
	}

	out := buf.String()
	labelIdx := strings.Index(out, ".Lreturn:")
	retIdx := strings.Index(out, "ret")
	if labelIdx == -1 || retIdx == -1 || labelIdx > retIdx {
		t.Fatalf("expected label before instruction, got %q", out)
	}
}

func TestATT_LockCmpxchgMnemonic(t *testing.T) {
	att := emitter.ATT{}
	if got := att.Mnemonic(asmcmp.OpAtomicCmpxchg); got != "lock cmpxchg" {
		t.Fatalf("Mnemonic(OpAtomicCmpxchg) = %q, want %q", got, "lock cmpxchg")
	}
}

func TestATT_SizedMoveAndX87Mnemonics(t *testing.T) {
	att := emitter.ATT{}
	cases := map[asmcmp.Opcode]string{
		asmcmp.OpMovb:  "movb",
		asmcmp.OpMovw:  "movw",
		asmcmp.OpMovl:  "movl",
		asmcmp.OpMovq:  "movq",
		asmcmp.OpMovsx: "movsx",
		asmcmp.OpMovzx: "movzx",
		asmcmp.OpFld:   "fld",
		asmcmp.OpFstp:  "fstp",
	}
	for op, want := range cases {
		if got := att.Mnemonic(op); got != want {
			t.Fatalf("Mnemonic(%v) = %q, want %q", op, got, want)
		}
	}
}
