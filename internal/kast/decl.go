package kast

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// DeclNode is a concrete declaration node.
type DeclNode struct {
	nodeBase

	Name     kir.StringID
	Type     kir.TypeID
	Storage  StorageClass
	FnSpec   FunctionSpec
	Align    int
	Init     Node   // initializer expression, nil if none
	Params   []Node // function parameter declarations, nil for objects
	Body     Node   // function body (StmtCompound), nil for a declaration-only node

	Attrs Attributes
}

// NewDecl allocates a new declaration node with one reference already held.
func NewDecl(loc Loc) *DeclNode {
	n := &DeclNode{nodeBase: nodeBase{category: CategoryDeclaration, loc: loc}}
	n.Ref()
	return n
}

// Unref releases this node's reference; when it reaches zero, the
// initializer, parameters, and body are unreferenced in turn.
func (n *DeclNode) Unref() {
	n.nodeBase.Unref()
	if n.RefCount() == 0 {
		if n.Init != nil {
			n.Init.Unref()
		}
		if n.Body != nil {
			n.Body.Unref()
		}
		for _, p := range n.Params {
			if p != nil {
				p.Unref()
			}
		}
	}
}
