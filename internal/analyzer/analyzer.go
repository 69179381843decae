// Package analyzer walks an unanalyzed AST and decorates every node with
// its Properties (spec.md §4.2 "AST Analyzer"), resolving identifiers
// against a kast.Context, folding constant expressions, and building the
// flow-control tree for switch/case/default and break/continue targets.
package analyzer

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// Analyzer holds the pools and running context used while decorating one
// translation unit. A fresh Analyzer is created per translation unit; the
// Context passed to AnalyzeExpr/AnalyzeStmt/AnalyzeDecl may be a
// *kast.GlobalContext or *kast.LocalContext depending on nesting depth,
// matching spec.md §4.1's context-chain model.
type Analyzer struct {
	Strings *kir.StringPool
	Types   *kir.TypeBundle
	BigInts *kir.BigIntPool
}

// New allocates an Analyzer sharing the given pools.
func New(strings *kir.StringPool, types *kir.TypeBundle, bigints *kir.BigIntPool) *Analyzer {
	return &Analyzer{Strings: strings, Types: types, BigInts: bigints}
}

// AnalyzeExpr decorates n.Props() in place and returns it for convenience.
// It is the expression half of spec.md §4.2's node-category dispatch.
func (a *Analyzer) AnalyzeExpr(ctx kast.Context, n *kast.ExprNode) (*kast.Properties, error) {
	p := n.Props()
	if p.Analyzed {
		return p, nil
	}

	for _, op := range n.Operands {
		if e, ok := op.(*kast.ExprNode); ok {
			if _, err := a.AnalyzeExpr(ctx, e); err != nil {
				return nil, err
			}
		}
	}

	switch n.Kind {
	case kast.ExprIntConst:
		p.ConstExpr = &kast.ConstExprValue{Class: kast.ConstInteger, Integer: n.IntValue}
		p.Type = a.Types.Intern(kir.Scalar(kir.ScalarInt32))

	case kast.ExprFloatConst:
		p.ConstExpr = &kast.ConstExprValue{Class: kast.ConstFloat, Float: n.FloatValue}
		p.Type = a.Types.Intern(kir.Scalar(kir.ScalarFloat64))

	case kast.ExprStringLiteral:
		p.StringLiteralID = a.Strings.Intern(n.StringValue)
		p.Type = a.Types.Intern(kir.Scalar(kir.ScalarPointer))

	case kast.ExprBitIntConst:
		p.ConstExpr = &kast.ConstExprValue{Class: kast.ConstBigInt, BigInt: n.BigInt}
		p.Type = a.Types.Intern(kir.Bits(n.BitWidth))

	case kast.ExprIdentifier:
		id, err := ctx.ResolveOrdinary(n.Name)
		if err != nil {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "use of undeclared identifier")
		}
		p.ScopedID = id
		p.Type = id.Type
		p.IsLValue = id.Kind == kast.IdentObject
		p.IsAddressable = p.IsLValue
		if id.ConstExprValue != nil {
			p.ConstExpr = id.ConstExprValue
		}

	case kast.ExprBinary:
		if len(n.Operands) != 2 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "binary expression requires two operands")
		}
		lhs, rhs := n.Operands[0].Props(), n.Operands[1].Props()
		p.Type = usualArithmeticConversion(lhs.Type, rhs.Type, a.Types)
		if lhs.ConstExpr != nil && rhs.ConstExpr != nil {
			if v, ok := foldBinary(n.Op, lhs.ConstExpr, rhs.ConstExpr); ok {
				p.ConstExpr = v
			}
		}

	case kast.ExprUnary:
		if len(n.Operands) != 1 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "unary expression requires one operand")
		}
		inner := n.Operands[0].Props()
		p.Type = inner.Type
		if n.Op == "&" {
			p.IsLValue = false
			p.Type = a.Types.Intern(kir.Scalar(kir.ScalarPointer))
		} else if n.Op == "*" {
			p.IsLValue = true
			p.IsAddressable = true
		} else if inner.ConstExpr != nil {
			if v, ok := foldUnary(n.Op, inner.ConstExpr); ok {
				p.ConstExpr = v
			}
		}

	case kast.ExprCast:
		if len(n.Operands) != 1 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "cast requires one operand")
		}
		p.Type = n.CastType

	case kast.ExprCall:
		if len(n.Operands) == 0 {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "call expression has no callee")
		}
		callee := n.Operands[0].Props()
		p.Type = callee.ReturnType
		p.PreserveAfterEval = true

	case kast.ExprAssign:
		if len(n.Operands) != 2 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "assignment requires two operands")
		}
		lhs := n.Operands[0].Props()
		if !lhs.IsLValue {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "assignment target is not an lvalue")
		}
		p.Type = lhs.Type

	case kast.ExprComma:
		if len(n.Operands) == 0 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "comma expression has no operands")
		}
		p.Type = n.Operands[len(n.Operands)-1].Props().Type

	case kast.ExprCondition:
		if len(n.Operands) != 3 {
			return nil, kerr.NewAt(kerr.InternalError, loc(n.Loc()), "ternary requires three operands")
		}
		then, els := n.Operands[1].Props(), n.Operands[2].Props()
		p.Type = usualArithmeticConversion(then.Type, els.Type, a.Types)

	default:
		return nil, kerr.NewAt(kerr.NotImplemented, loc(n.Loc()), "unsupported expression kind %d", n.Kind)
	}

	p.Analyzed = true
	return p, nil
}

func loc(l kast.Loc) kerr.Location {
	return kerr.Location{File: l.File, Line: l.Line, Column: l.Column}
}
