// Package translator lowers an analyzed AST (internal/kast, decorated by
// internal/analyzer) into the flat stack-oriented IR of internal/ir
// (spec.md §4.3 "AST->IR Translator").
package translator

import (
	"fmt"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/ir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// Translator lowers one translation unit's worth of analyzed AST into an
// ir.Module, sharing the same pools the analyzer decorated nodes against.
type Translator struct {
	Module *ir.Module

	locals map[kir.StringID]int // identifier name -> local slot, current function only
}

// New allocates a Translator writing into a fresh ir.Module over the given
// pools.
func New(strings *kir.StringPool, types *kir.TypeBundle, bigints *kir.BigIntPool) *Translator {
	return &Translator{Module: ir.NewModule(strings, types, bigints)}
}

// TranslateFunction lowers one analyzed function definition (a DeclNode
// whose Body is a StmtCompound) into an ir.Function appended to t.Module.
func (t *Translator) TranslateFunction(name string, decl *kast.DeclNode) (*ir.Function, error) {
	if decl.Body == nil {
		fn := &ir.Function{Name: name, Returns: decl.Type, IsDefinition: false}
		t.Module.FunctionDecls = append(t.Module.FunctionDecls, fn)
		return fn, nil
	}

	fn := &ir.Function{Name: name, Returns: decl.Type, IsDefinition: true}
	t.locals = make(map[kir.StringID]int)
	b := ir.NewBuilder(fn)

	for _, p := range decl.Params {
		pd, ok := p.(*kast.DeclNode)
		if !ok {
			continue
		}
		slot := b.Local(pd.Type)
		t.locals[pd.Name] = slot
		fn.Params = append(fn.Params, ir.Param{Name: pd.Name, Type: pd.Type})
	}

	body, ok := decl.Body.(*kast.StmtNode)
	if !ok {
		return nil, kerr.New(kerr.InternalError, "function body is not a compound statement")
	}
	if err := t.translateStmt(b, body); err != nil {
		return nil, err
	}

	t.Module.Functions = append(t.Module.Functions, fn)
	return fn, nil
}

func (t *Translator) translateStmt(b *ir.Builder, n *kast.StmtNode) error {
	switch n.Kind {
	case kast.StmtCompound:
		for _, item := range n.Items {
			if err := t.translateItem(b, item); err != nil {
				return err
			}
		}
		return nil

	case kast.StmtExpression:
		if n.Expr == nil {
			return nil
		}
		e, ok := n.Expr.(*kast.ExprNode)
		if !ok {
			return kerr.New(kerr.InternalError, "expression statement holds a non-expression node")
		}
		ref, err := t.translateExpr(b, e)
		if err != nil {
			return err
		}
		_ = ref
		return nil

	case kast.StmtReturn:
		if n.Expr == nil {
			b.Emit(ir.Instr{Op: ir.OpReturn})
			return nil
		}
		e, ok := n.Expr.(*kast.ExprNode)
		if !ok {
			return kerr.New(kerr.InternalError, "return statement holds a non-expression node")
		}
		if _, err := t.translateExpr(b, e); err != nil {
			return err
		}
		b.Emit(ir.Instr{Op: ir.OpReturn, Type: e.Props().Type})
		return nil

	case kast.StmtIf:
		cond, ok := n.Expr.(*kast.ExprNode)
		if !ok {
			return kerr.New(kerr.InternalError, "if statement holds a non-expression condition")
		}
		if _, err := t.translateExpr(b, cond); err != nil {
			return err
		}
		thenIdx := b.NewBlock("if.then")
		if err := t.translateItem(b, n.Body); err != nil {
			return err
		}
		elseIdx := thenIdx
		if n.Else != nil {
			elseIdx = b.NewBlock("if.else")
			if err := t.translateItem(b, n.Else); err != nil {
				return err
			}
		}
		joinIdx := b.NewBlock("if.end")
		_ = joinIdx
		b.Emit(ir.Instr{Op: ir.OpBranch, TargetThen: thenIdx, TargetElse: elseIdx})
		return nil

	case kast.StmtWhile:
		headIdx := b.NewBlock("while.cond")
		cond, ok := n.Expr.(*kast.ExprNode)
		if !ok {
			return kerr.New(kerr.InternalError, "while statement holds a non-expression condition")
		}
		if _, err := t.translateExpr(b, cond); err != nil {
			return err
		}
		bodyIdx := b.NewBlock("while.body")
		if err := t.translateItem(b, n.Body); err != nil {
			return err
		}
		b.Emit(ir.Instr{Op: ir.OpJump, TargetThen: headIdx})
		endIdx := b.NewBlock("while.end")
		_ = bodyIdx
		_ = endIdx
		return nil

	case kast.StmtBreak, kast.StmtContinue:
		b.Emit(ir.Instr{Op: ir.OpJump, Label: kindLabel(n.Kind)})
		return nil

	case kast.StmtCase, kast.StmtDefault:
		if n.Body != nil {
			return t.translateItem(b, n.Body)
		}
		return nil

	default:
		return kerr.New(kerr.NotImplemented, fmt.Sprintf("translator does not yet lower statement kind %d", n.Kind))
	}
}

func kindLabel(k kast.StmtKind) string {
	if k == kast.StmtBreak {
		return "break"
	}
	return "continue"
}

func (t *Translator) translateItem(b *ir.Builder, n kast.Node) error {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *kast.StmtNode:
		return t.translateStmt(b, v)
	case *kast.ExprNode:
		_, err := t.translateExpr(b, v)
		return err
	case *kast.DeclNode:
		return t.translateLocalDecl(b, v)
	default:
		return kerr.New(kerr.InternalError, "unrecognized node in statement position")
	}
}

func (t *Translator) translateLocalDecl(b *ir.Builder, d *kast.DeclNode) error {
	slot := b.Local(d.Type)
	t.locals[d.Name] = slot
	if d.Init != nil {
		e, ok := d.Init.(*kast.ExprNode)
		if !ok {
			return kerr.New(kerr.InternalError, "initializer is not an expression")
		}
		if _, err := t.translateExpr(b, e); err != nil {
			return err
		}
		b.Emit(ir.Instr{Op: ir.OpSetLocal, LocalSlot: slot, Type: d.Type})
	}
	return nil
}
