package analyzer_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/analyzer"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

func newAnalyzer() *analyzer.Analyzer {
	return analyzer.New(kir.NewStringPool(), kir.NewTypeBundle(), nil)
}

func TestAnalyzeExpr_ConstantFolding(t *testing.T) {
	a := newAnalyzer()
	ctx := kast.NewGlobalContext()

	lhs := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	lhs.IntValue = 3
	rhs := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	rhs.IntValue = 4

	add := kast.NewExpr(kast.ExprBinary, kast.Loc{})
	add.Op = "+"
	add.Operands = []kast.Node{lhs, rhs}

	p, err := a.AnalyzeExpr(ctx, add)
	if err != nil {
		t.Fatalf("AnalyzeExpr: %v", err)
	}
	if p.ConstExpr == nil || p.ConstExpr.Integer != 7 {
		t.Fatalf("folded constant = %v, want 7", p.ConstExpr)
	}
}

func TestAnalyzeExpr_UndeclaredIdentifier(t *testing.T) {
	a := newAnalyzer()
	ctx := kast.NewGlobalContext()
	pool := kir.NewStringPool()

	ref := kast.NewExpr(kast.ExprIdentifier, kast.Loc{})
	ref.Name = pool.Intern("nope")

	_, err := a.AnalyzeExpr(ctx, ref)
	if err == nil {
		t.Fatalf("expected an error for an undeclared identifier")
	}
	if kerr.KindOf(err) != kerr.AnalysisError {
		t.Fatalf("KindOf = %v, want AnalysisError", kerr.KindOf(err))
	}
}

func TestAnalyzeStmt_CaseOutsideSwitchIsError(t *testing.T) {
	a := newAnalyzer()
	global := kast.NewGlobalContext()
	ctx := kast.NewLocalContext(global)

	c := kast.NewStmt(kast.StmtCase, kast.Loc{})
	intConst := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	intConst.IntValue = 1
	c.CaseExpr = intConst

	_, err := a.AnalyzeStmt(ctx, c)
	if err == nil {
		t.Fatalf("expected an error: case label outside a switch")
	}
	if kerr.KindOf(err) != kerr.AnalysisError {
		t.Fatalf("KindOf = %v, want AnalysisError", kerr.KindOf(err))
	}
}

func TestAnalyzeStmt_SwitchWithCaseAndDefault(t *testing.T) {
	a := newAnalyzer()
	global := kast.NewGlobalContext()
	ctx := kast.NewLocalContext(global)
	pool := kir.NewStringPool()

	cond := kast.NewExpr(kast.ExprIdentifier, kast.Loc{})
	cond.Name = pool.Intern("x")
	if _, err := ctx.DefineIdentifier(nil, cond.Name, 0, kast.StorageNone, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("DefineIdentifier: %v", err)
	}

	caseStmt := kast.NewStmt(kast.StmtCase, kast.Loc{})
	oneConst := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	oneConst.IntValue = 1
	caseStmt.CaseExpr = oneConst

	defaultStmt := kast.NewStmt(kast.StmtDefault, kast.Loc{})

	body := kast.NewStmt(kast.StmtCompound, kast.Loc{})
	body.Items = []kast.Node{caseStmt, defaultStmt}

	sw := kast.NewStmt(kast.StmtSwitch, kast.Loc{})
	sw.Expr = cond
	sw.Body = body

	if _, err := a.AnalyzeStmt(ctx, sw); err != nil {
		t.Fatalf("AnalyzeStmt(switch): %v", err)
	}
}

func TestAnalyzeStmt_CaseRangeNormalizesDescendingBounds(t *testing.T) {
	a := newAnalyzer()
	global := kast.NewGlobalContext()
	ctx := kast.NewLocalContext(global)
	pool := kir.NewStringPool()

	cond := kast.NewExpr(kast.ExprIdentifier, kast.Loc{})
	cond.Name = pool.Intern("x")
	if _, err := ctx.DefineIdentifier(nil, cond.Name, 0, kast.StorageNone, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("DefineIdentifier: %v", err)
	}

	caseStmt := kast.NewStmt(kast.StmtCase, kast.Loc{})
	begin := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	begin.IntValue = 7
	end := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	end.IntValue = 3
	caseStmt.CaseExpr = begin
	caseStmt.CaseRangeEnd = end

	body := kast.NewStmt(kast.StmtCompound, kast.Loc{})
	body.Items = []kast.Node{caseStmt}

	sw := kast.NewStmt(kast.StmtSwitch, kast.Loc{})
	sw.Expr = cond
	sw.Body = body

	if _, err := a.AnalyzeStmt(ctx, sw); err != nil {
		t.Fatalf("AnalyzeStmt(switch with descending case range): %v", err)
	}
}

func TestAnalyzeStmt_DuplicateCaseRangeIsError(t *testing.T) {
	a := newAnalyzer()
	global := kast.NewGlobalContext()
	ctx := kast.NewLocalContext(global)
	pool := kir.NewStringPool()

	cond := kast.NewExpr(kast.ExprIdentifier, kast.Loc{})
	cond.Name = pool.Intern("x")
	if _, err := ctx.DefineIdentifier(nil, cond.Name, 0, kast.StorageNone, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("DefineIdentifier: %v", err)
	}

	firstCase := kast.NewStmt(kast.StmtCase, kast.Loc{})
	firstBegin := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	firstBegin.IntValue = 3
	firstEnd := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	firstEnd.IntValue = 7
	firstCase.CaseExpr = firstBegin
	firstCase.CaseRangeEnd = firstEnd

	secondCase := kast.NewStmt(kast.StmtCase, kast.Loc{})
	secondConst := kast.NewExpr(kast.ExprIntConst, kast.Loc{})
	secondConst.IntValue = 5 // already covered by the first case's 3...7 range
	secondCase.CaseExpr = secondConst

	body := kast.NewStmt(kast.StmtCompound, kast.Loc{})
	body.Items = []kast.Node{firstCase, secondCase}

	sw := kast.NewStmt(kast.StmtSwitch, kast.Loc{})
	sw.Expr = cond
	sw.Body = body

	_, err := a.AnalyzeStmt(ctx, sw)
	if err == nil {
		t.Fatalf("expected a duplicate case label error")
	}
	if kerr.KindOf(err) != kerr.InvalidChange {
		t.Fatalf("KindOf = %v, want InvalidChange", kerr.KindOf(err))
	}
}

func TestAnalyzeDecl_RegistersIdentifier(t *testing.T) {
	a := newAnalyzer()
	ctx := kast.NewGlobalContext()
	pool := kir.NewStringPool()

	decl := kast.NewDecl(kast.Loc{})
	decl.Name = pool.Intern("counter")
	decl.Storage = kast.StorageExtern

	p, err := a.AnalyzeDecl(ctx, decl)
	if err != nil {
		t.Fatalf("AnalyzeDecl: %v", err)
	}
	if p.ScopedID == nil {
		t.Fatalf("expected a ScopedIdentifier to be attached")
	}

	resolved, err := ctx.ResolveOrdinary(decl.Name)
	if err != nil || resolved != p.ScopedID {
		t.Fatalf("ResolveOrdinary did not return the declared identifier")
	}
}
