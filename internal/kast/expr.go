package kast

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// ExprNode is a concrete expression node. Unref cascades to operand
// children once this node's own refcount drops to zero, matching spec.md
// §9's "freeing the root cascades" for reference-counted AST nodes.
type ExprNode struct {
	nodeBase
	Kind ExprKind

	IntValue    int64
	FloatValue  float64
	StringValue string
	Name        kir.StringID

	// BigInt and BitWidth back an ExprBitIntConst: the constant's words are
	// already stored in the shared kir.BigIntPool by whatever constructed
	// this node (spec.md §3 "BigInt pool" — values are stored once and
	// referenced by id, the same pattern ExprStringLiteral/StringLiteralID
	// uses for the string pool).
	BigInt   kir.BigIntID
	BitWidth int

	Op       string // operator spelling for Binary/Unary/Assign
	CastType kir.TypeID

	Operands []Node // left/right/operand/condition-then-else/args, kind-specific
}

// NewExpr allocates a new expression node with one reference already held
// by the caller (mirrors the teacher's explicit-construction style; there
// is no hidden global registry).
func NewExpr(kind ExprKind, loc Loc) *ExprNode {
	n := &ExprNode{nodeBase: nodeBase{category: CategoryExpression, loc: loc}, Kind: kind}
	n.Ref()
	return n
}

// Unref releases this node's reference; when it reaches zero, operand
// children are unreferenced in turn.
func (n *ExprNode) Unref() {
	n.nodeBase.Unref()
	if n.RefCount() == 0 {
		for _, op := range n.Operands {
			if op != nil {
				op.Unref()
			}
		}
	}
}
