package fixture_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/analyzer"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/fixture"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/translator"
)

func TestBuild_UnknownProgramIsError(t *testing.T) {
	if _, err := fixture.Build("does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unknown fixture name")
	}
}

func TestNames_AllBuild(t *testing.T) {
	for _, name := range fixture.Names() {
		if _, err := fixture.Build(name); err != nil {
			t.Fatalf("Build(%q): %v", name, err)
		}
	}
}

func TestFixtures_AnalyzeAndTranslateCleanly(t *testing.T) {
	for _, name := range fixture.Names() {
		prog, err := fixture.Build(name)
		if err != nil {
			t.Fatalf("Build(%q): %v", name, err)
		}

		a := analyzer.New(prog.Strings, prog.Types, prog.BigInts)
		global := kast.NewGlobalContext()
		if _, err := a.AnalyzeDecl(global, prog.Function); err != nil {
			t.Fatalf("%s: AnalyzeDecl: %v", name, err)
		}

		tr := translator.New(prog.Strings, prog.Types, prog.BigInts)
		fnName := prog.Strings.Get(prog.Function.Name)
		fn, err := tr.TranslateFunction(fnName, prog.Function)
		if err != nil {
			t.Fatalf("%s: TranslateFunction: %v", name, err)
		}
		if !fn.IsDefinition {
			t.Fatalf("%s: expected a function definition", name)
		}
		if len(fn.Blocks) == 0 {
			t.Fatalf("%s: translated function has no blocks", name)
		}
	}
}
