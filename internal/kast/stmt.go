package kast

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// StmtNode is a concrete statement node.
type StmtNode struct {
	nodeBase
	Kind StmtKind

	Expr Node // StmtExpression/StmtReturn operand, StmtIf/StmtWhile/StmtFor condition
	Body Node // the sub-statement (loop body, if-then, case body, ...)
	Else Node // StmtIf only

	Items []Node // StmtCompound block items

	// StmtCase/StmtDefault.
	CaseExpr    Node // nil for default
	CaseRangeEnd Node // non-nil only for "case a ... b"

	// StmtGoto/StmtLabeled.
	LabelName kir.StringID
}

// NewStmt allocates a new statement node with one reference already held.
func NewStmt(kind StmtKind, loc Loc) *StmtNode {
	n := &StmtNode{nodeBase: nodeBase{category: CategoryStatement, loc: loc}, Kind: kind}
	n.Ref()
	return n
}

// Unref releases this node's reference; when it reaches zero, every child
// node referenced from this statement is unreferenced in turn.
func (n *StmtNode) Unref() {
	n.nodeBase.Unref()
	if n.RefCount() == 0 {
		for _, c := range []Node{n.Expr, n.Body, n.Else, n.CaseExpr, n.CaseRangeEnd} {
			if c != nil {
				c.Unref()
			}
		}
		for _, c := range n.Items {
			if c != nil {
				c.Unref()
			}
		}
	}
}
