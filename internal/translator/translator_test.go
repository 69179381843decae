package translator_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/analyzer"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/ir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/translator"
)

// buildAddOneFunction constructs the AST for:
//
//	int add_one(int x) { return x + 1; }
func buildAddOneFunction(strings *kir.StringPool, types *kir.TypeBundle) *kast.DeclNode {
	intType := types.Intern(kir.Scalar(kir.ScalarInt32))

	param := kast.NewDecl(kast.Loc{})
	param.Name = strings.Intern("x")
	param.Type = intType

	xRef := kast.NewExpr(kast.ExprIdentifier, kast.Loc{})
	xRef.Name = param.Name

	one := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	one.IntValue = 1

	sum := kast.NewExpr(kast.ExprBinary, kast.Loc{})
	sum.Op = "+"
	sum.Operands = []kast.Node{xRef, one}

	ret := kast.NewStmt(kast.StmtReturn, kast.Loc{})
	ret.Expr = sum

	body := kast.NewStmt(kast.StmtCompound, kast.Loc{})
	body.Items = []kast.Node{ret}

	fn := kast.NewDecl(kast.Loc{})
	fn.Name = strings.Intern("add_one")
	fn.Type = intType
	fn.Params = []kast.Node{param}
	fn.Body = body

	return fn
}

func TestTranslateFunction_ReturnsBinaryExpression(t *testing.T) {
	strings := kir.NewStringPool()
	types := kir.NewTypeBundle()
	a := analyzer.New(strings, types, nil)

	global := kast.NewGlobalContext()
	fnDecl := buildAddOneFunction(strings, types)

	if _, err := a.AnalyzeDecl(global, fnDecl); err != nil {
		t.Fatalf("AnalyzeDecl: %v", err)
	}

	tr := translator.New(strings, types, nil)
	fn, err := tr.TranslateFunction("add_one", fnDecl)
	if err != nil {
		t.Fatalf("TranslateFunction: %v", err)
	}

	if !fn.IsDefinition {
		t.Fatalf("expected a function definition")
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected a single entry block, got %d", len(fn.Blocks))
	}
	instr := fn.Blocks[0].Instr
	wantOps := []ir.Opcode{ir.OpGetLocal, ir.OpPushU64, ir.OpIAdd, ir.OpReturn}

	gotOps := make([]ir.Opcode, len(instr))
	for i, in := range instr {
		gotOps[i] = in.Op
	}
	if diff := cmp.Diff(wantOps, gotOps); diff != "" {
		t.Fatalf("opcode sequence mismatch (-want +got):\n%s", diff)
	}
}
