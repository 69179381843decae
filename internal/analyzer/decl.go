package analyzer

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
)

// AnalyzeDecl registers n in ctx (applying the redeclaration-merge rules
// kast.Context implements) and recursively analyzes its initializer,
// parameters, and body (spec.md §4.2 "declaration analysis defers to
// Context.define_identifier/define_tag for the actual merge logic").
func (a *Analyzer) AnalyzeDecl(ctx kast.Context, n *kast.DeclNode) (*kast.Properties, error) {
	p := n.Props()
	if p.Analyzed {
		return p, nil
	}

	isFunction := n.Body != nil || n.Params != nil

	if n.Init != nil {
		if e, ok := n.Init.(*kast.ExprNode); ok {
			if _, err := a.AnalyzeExpr(ctx, e); err != nil {
				return nil, err
			}
		}
	}

	id, err := ctx.DefineIdentifier(n, n.Name, n.Type, n.Storage, n.FnSpec, isFunction, n.Align, n.Init, n.Attrs, n.Loc())
	if err != nil {
		return nil, err
	}
	p.ScopedID = id
	p.Storage = n.Storage
	p.FunctionSpec = n.FnSpec
	p.IdentifierName = n.Name
	p.OriginalType = n.Type

	if isFunction && n.Body != nil {
		global, ok := ctx.(*kast.GlobalContext)
		if !ok {
			return nil, kerr.NewAt(kerr.InvalidState, loc(n.Loc()), "function definitions are only valid at file scope")
		}
		fctx := kast.NewLocalContext(global)
		for _, param := range n.Params {
			pd, ok := param.(*kast.DeclNode)
			if !ok {
				continue
			}
			if _, err := fctx.DefineIdentifier(pd, pd.Name, pd.Type, kast.StorageNone, 0, false, 0, nil, kast.Attributes{}, pd.Loc()); err != nil {
				return nil, err
			}
		}
		if body, ok := n.Body.(*kast.StmtNode); ok {
			if _, err := a.AnalyzeStmt(fctx, body); err != nil {
				return nil, err
			}
		}
	}

	p.Analyzed = true
	return p, nil
}
