// Package fixture builds small, hand-written ASTs standing in for a real
// C front end, which is explicitly out of scope (lexing and parsing are
// not part of this port). cmd/kefirc drives the pipeline against one of
// these named programs rather than against parsed source text.
package fixture

import (
	"fmt"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// Program is one named, self-contained translation unit: the pools it was
// built against plus the top-level function declaration to analyze,
// translate, and compile.
type Program struct {
	Name     string
	Strings  *kir.StringPool
	Types    *kir.TypeBundle
	BigInts  *kir.BigIntPool
	Function *kast.DeclNode
}

// Names lists the fixtures this package knows how to build, in the order
// -list should print them.
func Names() []string {
	return []string{"add-one", "max", "sum-loop", "wide-constant"}
}

// Build constructs the named fixture, or an error if name is not one
// Names() reports.
func Build(name string) (*Program, error) {
	switch name {
	case "add-one":
		return buildAddOne(), nil
	case "max":
		return buildMax(), nil
	case "sum-loop":
		return buildSumLoop(), nil
	case "wide-constant":
		return buildWideConstant(), nil
	default:
		return nil, fmt.Errorf("fixture: unknown program %q (want one of %v)", name, Names())
	}
}

func newPools() (*kir.StringPool, *kir.TypeBundle, *kir.BigIntPool) {
	return kir.NewStringPool(), kir.NewTypeBundle(), kir.NewBigIntPool(64)
}

// buildAddOne constructs:
//
//	int add_one(int x) { return x + 1; }
func buildAddOne() *Program {
	strings, types, bigints := newPools()
	intType := types.Intern(kir.Scalar(kir.ScalarInt32))

	x := kast.NewDecl(kast.Loc{File: "add_one.fixture", Line: 1})
	x.Name = strings.Intern("x")
	x.Type = intType

	xRef := kast.NewExpr(kast.ExprIdentifier, kast.Loc{File: "add_one.fixture", Line: 2})
	xRef.Name = x.Name

	one := kast.NewExpr(kast.ExprIntConst, kast.Loc{File: "add_one.fixture", Line: 2})
	one.IntValue = 1

	sum := kast.NewExpr(kast.ExprBinary, kast.Loc{File: "add_one.fixture", Line: 2})
	sum.Op = "+"
	sum.Operands = []kast.Node{xRef, one}

	ret := kast.NewStmt(kast.StmtReturn, kast.Loc{File: "add_one.fixture", Line: 2})
	ret.Expr = sum

	body := kast.NewStmt(kast.StmtCompound, kast.Loc{File: "add_one.fixture", Line: 1})
	body.Items = []kast.Node{ret}

	fn := kast.NewDecl(kast.Loc{File: "add_one.fixture", Line: 1})
	fn.Name = strings.Intern("add_one")
	fn.Type = intType
	fn.Params = []kast.Node{x}
	fn.Body = body

	return &Program{Name: "add-one", Strings: strings, Types: types, BigInts: bigints, Function: fn}
}

// buildMax constructs:
//
//	int max(int a, int b) { if (a > b) return a; return b; }
func buildMax() *Program {
	strings, types, bigints := newPools()
	intType := types.Intern(kir.Scalar(kir.ScalarInt32))
	loc := kast.Loc{File: "max.fixture", Line: 1}

	a := kast.NewDecl(loc)
	a.Name = strings.Intern("a")
	a.Type = intType
	b := kast.NewDecl(loc)
	b.Name = strings.Intern("b")
	b.Type = intType

	aRefCond := kast.NewExpr(kast.ExprIdentifier, loc)
	aRefCond.Name = a.Name
	bRefCond := kast.NewExpr(kast.ExprIdentifier, loc)
	bRefCond.Name = b.Name
	cond := kast.NewExpr(kast.ExprBinary, loc)
	cond.Op = ">"
	cond.Operands = []kast.Node{aRefCond, bRefCond}

	aRefRet := kast.NewExpr(kast.ExprIdentifier, loc)
	aRefRet.Name = a.Name
	retA := kast.NewStmt(kast.StmtReturn, loc)
	retA.Expr = aRefRet
	thenBody := kast.NewStmt(kast.StmtCompound, loc)
	thenBody.Items = []kast.Node{retA}

	ifStmt := kast.NewStmt(kast.StmtIf, loc)
	ifStmt.Expr = cond
	ifStmt.Body = thenBody

	bRefRet := kast.NewExpr(kast.ExprIdentifier, loc)
	bRefRet.Name = b.Name
	retB := kast.NewStmt(kast.StmtReturn, loc)
	retB.Expr = bRefRet

	body := kast.NewStmt(kast.StmtCompound, loc)
	body.Items = []kast.Node{ifStmt, retB}

	fn := kast.NewDecl(loc)
	fn.Name = strings.Intern("max")
	fn.Type = intType
	fn.Params = []kast.Node{a, b}
	fn.Body = body

	return &Program{Name: "max", Strings: strings, Types: types, BigInts: bigints, Function: fn}
}

// buildSumLoop constructs:
//
//	int sum_loop(int n) {
//	    int total = 0;
//	    while (n) { total = total + n; n = n - 1; }
//	    return total;
//	}
func buildSumLoop() *Program {
	strings, types, bigints := newPools()
	intType := types.Intern(kir.Scalar(kir.ScalarInt32))
	loc := kast.Loc{File: "sum_loop.fixture", Line: 1}

	n := kast.NewDecl(loc)
	n.Name = strings.Intern("n")
	n.Type = intType

	zero := kast.NewExpr(kast.ExprIntConst, loc)
	zero.IntValue = 0
	total := kast.NewDecl(loc)
	total.Name = strings.Intern("total")
	total.Type = intType
	total.Init = zero

	nCond := kast.NewExpr(kast.ExprIdentifier, loc)
	nCond.Name = n.Name

	totalRefLHS := kast.NewExpr(kast.ExprIdentifier, loc)
	totalRefLHS.Name = total.Name
	nRefRHS := kast.NewExpr(kast.ExprIdentifier, loc)
	nRefRHS.Name = n.Name
	sumExpr := kast.NewExpr(kast.ExprBinary, loc)
	sumExpr.Op = "+"
	sumExpr.Operands = []kast.Node{totalRefLHS, nRefRHS}
	assignTotal := kast.NewExpr(kast.ExprAssign, loc)
	assignTotal.Op = "="
	assignTotal.Operands = []kast.Node{totalRefLHS, sumExpr}
	assignTotalStmt := kast.NewStmt(kast.StmtExpression, loc)
	assignTotalStmt.Expr = assignTotal

	nRefLHS := kast.NewExpr(kast.ExprIdentifier, loc)
	nRefLHS.Name = n.Name
	one := kast.NewExpr(kast.ExprIntConst, loc)
	one.IntValue = 1
	decExpr := kast.NewExpr(kast.ExprBinary, loc)
	decExpr.Op = "-"
	decExpr.Operands = []kast.Node{nRefLHS, one}
	assignN := kast.NewExpr(kast.ExprAssign, loc)
	assignN.Op = "="
	assignN.Operands = []kast.Node{nRefLHS, decExpr}
	assignNStmt := kast.NewStmt(kast.StmtExpression, loc)
	assignNStmt.Expr = assignN

	loopBody := kast.NewStmt(kast.StmtCompound, loc)
	loopBody.Items = []kast.Node{assignTotalStmt, assignNStmt}

	whileStmt := kast.NewStmt(kast.StmtWhile, loc)
	whileStmt.Expr = nCond
	whileStmt.Body = loopBody

	totalRefRet := kast.NewExpr(kast.ExprIdentifier, loc)
	totalRefRet.Name = total.Name
	retStmt := kast.NewStmt(kast.StmtReturn, loc)
	retStmt.Expr = totalRefRet

	body := kast.NewStmt(kast.StmtCompound, loc)
	body.Items = []kast.Node{total, whileStmt, retStmt}

	fn := kast.NewDecl(loc)
	fn.Name = strings.Intern("sum_loop")
	fn.Type = intType
	fn.Params = []kast.Node{n}
	fn.Body = body

	return &Program{Name: "sum-loop",Strings: strings, Types: types, BigInts: bigints, Function: fn}
}

// buildWideConstant constructs:
//
//	_BitInt(128) wide_constant(void) { return 6 * (_BitInt(128))(1ull<<63) - 5671208515966861312; }
//
// The two's-complement, little-endian words of the result are precomputed
// rather than folded at runtime (this port has no bit-precise constant
// arithmetic engine) and stored directly in the shared BigInt pool, the
// same way buildAddOne's literals are already-resolved values rather than
// parsed from text.
func buildWideConstant() *Program {
	strings, types, bigints := newPools()
	wideType := types.Intern(kir.Bits(128))
	loc := kast.Loc{File: "wide_constant.fixture", Line: 1}

	id, err := bigints.Store([]uint64{0xB14B800000000000, 0x0000000000000006})
	if err != nil {
		panic(err) // fixtures are built against a pool sized for them; this never fails
	}

	constExpr := kast.NewExpr(kast.ExprBitIntConst, loc)
	constExpr.BigInt = id
	constExpr.BitWidth = 128

	retStmt := kast.NewStmt(kast.StmtReturn, loc)
	retStmt.Expr = constExpr

	body := kast.NewStmt(kast.StmtCompound, loc)
	body.Items = []kast.Node{retStmt}

	fn := kast.NewDecl(loc)
	fn.Name = strings.Intern("wide_constant")
	fn.Type = wideType
	fn.Body = body

	return &Program{Name: "wide-constant", Strings: strings, Types: types, BigInts: bigints, Function: fn}
}
