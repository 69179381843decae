// Package emitter renders a register-allocated asmcmp.Context to textual
// assembly (spec.md §4.6 "Emitter"). Symbol naming follows the
// specification's rules: a function or global named `foo` without an
// asm-label attribute is emitted verbatim (no leading underscore, System
// V/ELF convention); one with an asm-label is emitted exactly as given.
package emitter

import (
	"fmt"
	"io"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/regalloc"
)

// Emitter writes one translation unit's assembly text to an io.Writer.
// Grounded on the teacher's small, single-purpose writer types (the ISE
// bitstream writer in astc/ise_encode.go): a thin wrapper around an
// io.Writer with one method per syntactic construct, rather than building
// a full string in memory first.
type Emitter struct {
	w      io.Writer
	Syntax Syntax
}

// New returns an Emitter writing to w using the given assembly syntax.
func New(w io.Writer, syntax Syntax) *Emitter {
	return &Emitter{w: w, Syntax: syntax}
}

// SymbolName applies the specification's symbol-naming rule: an explicit
// asm-label wins outright; otherwise the identifier name is used as-is.
func SymbolName(name, asmLabel string) string {
	if asmLabel != "" {
		return asmLabel
	}
	return name
}

// EmitFunctionPrologue writes a function's label and standard frame setup.
func (e *Emitter) EmitFunctionPrologue(symbol string, frameSize int) error {
	if _, err := fmt.Fprintf(e.w, "%s:\n", symbol); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "\tpush %%rbp\n\tmov %%rsp, %%rbp\n"); err != nil {
		return err
	}
	if frameSize > 0 {
		if _, err := fmt.Fprintf(e.w, "\tsub $%d, %%rsp\n", frameSize); err != nil {
			return err
		}
	}
	return nil
}

// EmitFunctionEpilogue writes the standard leave/ret sequence.
func (e *Emitter) EmitFunctionEpilogue() error {
	_, err := fmt.Fprintf(e.w, "\tleave\n\tret\n")
	return err
}

// EmitInstruction renders one asmcmp instruction, with its assigned
// register table, as one or more assembly lines.
func (e *Emitter) EmitInstruction(instr *asmcmp.Instruction, assignments map[asmcmp.VirtualRegisterID]regalloc.Assignment) error {
	for _, label := range instr.Labels {
		if _, err := fmt.Fprintf(e.w, "%s:\n", label); err != nil {
			return err
		}
	}

	mnemonic := e.Syntax.Mnemonic(instr.Op)
	operands := make([]string, 0, len(instr.Args))
	for _, arg := range instr.Args {
		operands = append(operands, e.Syntax.Operand(arg, assignments))
	}
	_, err := fmt.Fprintf(e.w, "\t%s\n", e.Syntax.Join(mnemonic, operands))
	return err
}
