package analyzer

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
)

// AnalyzeStmt decorates a statement node, threading the context's
// flow-control tree through nested if/while/for/switch bodies (spec.md
// §4.2 "case/default label resolution" steps 1-6).
func (a *Analyzer) AnalyzeStmt(ctx kast.Context, n *kast.StmtNode) (*kast.Properties, error) {
	p := n.Props()
	if p.Analyzed {
		return p, nil
	}

	switch n.Kind {
	case kast.StmtExpression:
		if n.Expr != nil {
			if e, ok := n.Expr.(*kast.ExprNode); ok {
				if _, err := a.AnalyzeExpr(ctx, e); err != nil {
					return nil, err
				}
			}
		}

	case kast.StmtCompound:
		ctx.PushBlock()
		for _, item := range n.Items {
			if err := a.analyzeItem(ctx, item); err != nil {
				ctx.PopBlock()
				return nil, err
			}
		}
		ctx.PopBlock()

	case kast.StmtIf:
		if err := a.analyzeCondAndBody(ctx, n.Expr, n.Body); err != nil {
			return nil, err
		}
		if n.Else != nil {
			if err := a.analyzeItem(ctx, n.Else); err != nil {
				return nil, err
			}
		}

	case kast.StmtWhile, kast.StmtFor:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "loop statement outside a function body")
		}
		lc.Flow().Push(kast.StructLoop)
		err := a.analyzeCondAndBody(ctx, n.Expr, n.Body)
		lc.Flow().Pop()
		if err != nil {
			return nil, err
		}

	case kast.StmtSwitch:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "switch statement outside a function body")
		}
		if e, ok := n.Expr.(*kast.ExprNode); ok {
			if _, err := a.AnalyzeExpr(ctx, e); err != nil {
				return nil, err
			}
		}
		lc.Flow().Push(kast.StructSwitch)
		err := a.analyzeItem(ctx, n.Body)
		lc.Flow().Pop()
		if err != nil {
			return nil, err
		}

	case kast.StmtCase, kast.StmtDefault:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "case/default label outside a function body")
		}
		sw, err := lc.Flow().NearestSwitch()
		if err != nil {
			return nil, err
		}
		if n.Kind == kast.StmtDefault || n.CaseExpr == nil {
			point, err := sw.Switch.RegisterDefault()
			if err != nil {
				return nil, err
			}
			p.TargetPoint = point
		} else {
			e, ok := n.CaseExpr.(*kast.ExprNode)
			if !ok {
				return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "case label requires a constant expression")
			}
			if _, err := a.AnalyzeExpr(ctx, e); err != nil {
				return nil, err
			}
			if cv := e.Props().ConstExpr; cv != nil && cv.Class == kast.ConstBigInt {
				return nil, kerr.NewAt(kerr.NotImplemented, loc(n.Loc()), "bit-precise case labels are not implemented")
			}
			if e.Props().ConstExpr == nil || e.Props().ConstExpr.Class != kast.ConstInteger {
				return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "case label is not an integer constant expression")
			}
			begin := e.Props().ConstExpr.Integer
			end := begin

			caseExpr := kast.Node(e)
			var rangeEndNode kast.Node
			if n.CaseRangeEnd != nil {
				re, ok := n.CaseRangeEnd.(*kast.ExprNode)
				if !ok {
					return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "case range end requires a constant expression")
				}
				if _, err := a.AnalyzeExpr(ctx, re); err != nil {
					return nil, err
				}
				if cv := re.Props().ConstExpr; cv != nil && cv.Class == kast.ConstBigInt {
					return nil, kerr.NewAt(kerr.NotImplemented, loc(n.Loc()), "bit-precise case labels are not implemented")
				}
				if re.Props().ConstExpr == nil || re.Props().ConstExpr.Class != kast.ConstInteger {
					return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "case range end is not an integer constant expression")
				}
				end = re.Props().ConstExpr.Integer
				rangeEndNode = re
				if end < begin {
					// spec.md §4.2 step 3: a descending "case b ... a" range
					// is normalized to ascending before registration.
					begin, end = end, begin
					caseExpr, rangeEndNode = rangeEndNode, caseExpr
				}
			}

			if sw.Switch.DuplicateCase(begin, end) {
				return nil, kerr.NewAt(kerr.InvalidChange, loc(n.Loc()), "duplicate case label")
			}
			p.TargetPoint = sw.Switch.RegisterCase(caseExpr, rangeEndNode)
		}
		if n.Body != nil {
			if err := a.analyzeItem(ctx, n.Body); err != nil {
				return nil, err
			}
		}

	case kast.StmtReturn:
		if n.Expr != nil {
			if e, ok := n.Expr.(*kast.ExprNode); ok {
				if _, err := a.AnalyzeExpr(ctx, e); err != nil {
					return nil, err
				}
				p.ReturnType = e.Props().Type
			}
		}

	case kast.StmtBreak:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "break outside a function body")
		}
		cur := lc.Flow().Current()
		bp := nearestBreak(cur)
		if bp == nil {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "break statement not within a loop or switch")
		}
		p.TargetPoint = bp

	case kast.StmtContinue:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "continue outside a function body")
		}
		cp := nearestContinue(lc.Flow().Current())
		if cp == nil {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "continue statement not within a loop")
		}
		p.TargetPoint = cp

	case kast.StmtGoto:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "goto outside a function body")
		}
		id, err := lc.ReferenceLabel(n.LabelName, nil, n.Loc())
		if err != nil {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "goto refers to an undeclared label")
		}
		p.ScopedID = id

	case kast.StmtLabeled:
		lc, ok := ctx.(*kast.LocalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.AnalysisError, loc(n.Loc()), "label outside a function body")
		}
		id, err := lc.ReferenceLabel(n.LabelName, lc.Flow().Current(), n.Loc())
		if err != nil {
			return nil, err
		}
		p.ScopedID = id
		if n.Body != nil {
			if err := a.analyzeItem(ctx, n.Body); err != nil {
				return nil, err
			}
		}

	default:
		return nil, kerr.NewAt(kerr.NotImplemented, loc(n.Loc()), "unsupported statement kind %d", n.Kind)
	}

	p.Analyzed = true
	return p, nil
}

func (a *Analyzer) analyzeCondAndBody(ctx kast.Context, cond, body kast.Node) error {
	if e, ok := cond.(*kast.ExprNode); ok {
		if _, err := a.AnalyzeExpr(ctx, e); err != nil {
			return err
		}
	}
	return a.analyzeItem(ctx, body)
}

func (a *Analyzer) analyzeItem(ctx kast.Context, n kast.Node) error {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *kast.ExprNode:
		_, err := a.AnalyzeExpr(ctx, v)
		return err
	case *kast.StmtNode:
		_, err := a.AnalyzeStmt(ctx, v)
		return err
	case *kast.DeclNode:
		_, err := a.AnalyzeDecl(ctx, v)
		return err
	default:
		return kerr.New(kerr.InternalError, "unrecognized node type in statement position")
	}
}

func nearestBreak(s *kast.FlowControlStructure) *kast.FlowControlPoint {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.BreakPoint != nil {
			return cur.BreakPoint
		}
	}
	return nil
}

func nearestContinue(s *kast.FlowControlStructure) *kast.FlowControlPoint {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.ContinuePoint != nil {
			return cur.ContinuePoint
		}
	}
	return nil
}
