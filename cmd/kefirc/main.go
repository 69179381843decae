// Command kefirc drives the compiler pipeline end to end: fixture AST ->
// analyzer -> translator -> Optimizer IR -> codegen -> emitter. It mirrors
// the teacher's astcencgo CLI shape (flag-parsed thin main, errors to
// stderr, no library package touches flag/os directly).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/analyzer"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/asmcmp"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/codegen/regalloc"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/emitter"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/fixture"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/opt"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/translator"
)

func main() {
	var (
		program  string
		outPath  string
		listOnly bool
	)
	flag.StringVar(&program, "program", "", "fixture program to compile (see -list)")
	flag.StringVar(&outPath, "out", "", "output assembly file (stdout if empty)")
	flag.BoolVar(&listOnly, "list", false, "print available fixture programs and exit")
	flag.Parse()

	if listOnly {
		for _, name := range fixture.Names() {
			fmt.Println(name)
		}
		return
	}

	if program == "" {
		fmt.Fprintln(os.Stderr, "usage: kefirc -program <name> [-out <file>] (-list to print available programs)")
		os.Exit(2)
	}

	if err := run(program, outPath); err != nil {
		fmt.Fprintln(os.Stderr, "kefirc:", err)
		os.Exit(1)
	}
}

func run(program, outPath string) error {
	prog, err := fixture.Build(program)
	if err != nil {
		return err
	}

	a := analyzer.New(prog.Strings, prog.Types, prog.BigInts)
	global := kast.NewGlobalContext()
	if _, err := a.AnalyzeDecl(global, prog.Function); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	tr := translator.New(prog.Strings, prog.Types, prog.BigInts)
	fnName := prog.Strings.Get(prog.Function.Name)
	fn, err := tr.TranslateFunction(fnName, prog.Function)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	if !fn.IsDefinition {
		return fmt.Errorf("translate: %s produced a declaration, not a definition", fnName)
	}

	optFn := opt.LowerFunction(fn)
	opt.FoldConstants(optFn)
	opt.MarkDeadCode(optFn)

	asmCtx := codegen.LowerFunction(optFn, prog.Types, prog.BigInts)
	alloc := regalloc.New(asmCtx)
	assignments := alloc.Run()

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	e := emitter.New(out, emitter.ATT{})
	symbol := emitter.SymbolName(fnName, "")
	if err := e.EmitFunctionPrologue(symbol, asmCtx.FrameSize); err != nil {
		return err
	}
	for instr := asmCtx.Head(); instr != nil; instr = instr.Next {
		if instr.Op == asmcmp.OpRet {
			break
		}
		if err := e.EmitInstruction(instr, assignments); err != nil {
			return err
		}
	}
	return e.EmitFunctionEpilogue()
}
