package kast

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// LocalContext is the block-scoped context used inside a function body. It
// chains to the enclosing GlobalContext for identifiers not found locally
// (spec.md §3 "the context chain is: global → local (block-structured) →
// function-declaration").
type LocalContext struct {
	global *GlobalContext
	scope  *Scope
	flow   *FlowControlTree

	tempCounter int
}

// NewLocalContext opens a function body's top-level block scope.
func NewLocalContext(global *GlobalContext) *LocalContext {
	return &LocalContext{
		global: global,
		scope:  NewScope(ScopeLocal, global.scope),
		flow:   NewFlowControlTree(),
	}
}

func (l *LocalContext) ResolveOrdinary(name kir.StringID) (*ScopedIdentifier, error) {
	return l.scope.ResolveOrdinary(name)
}

func (l *LocalContext) ResolveTag(name kir.StringID) (*ScopedIdentifier, error) {
	return l.scope.ResolveTag(name)
}

func (l *LocalContext) ResolveLabel(name kir.StringID) (*ScopedIdentifier, error) {
	return l.scope.ResolveLabel(name)
}

func (l *LocalContext) DefineTag(name kir.StringID, t kir.TypeID, complete bool, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if existing, err := l.scope.ResolveTag(name); err == nil {
		if existing.IsDefinition && complete {
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redefinition of tag %v", name)
		}
		existing.Type = t
		existing.Attrs = attrs
		if complete {
			existing.IsDefinition = true
			existing.DefSite = loc
		}
		return existing, nil
	}
	id := &ScopedIdentifier{Kind: IdentTypeTag, Name: name, Type: t, Attrs: attrs, DefSite: loc, IsDefinition: complete}
	l.scope.DefineTag(name, id)
	return id, nil
}

func (l *LocalContext) DefineConstant(name kir.StringID, value ConstExprValue, t kir.TypeID, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if _, ok := l.scope.resolveOrdinaryLocal(name); ok {
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redefinition of enum constant in block scope")
	}
	id := &ScopedIdentifier{Kind: IdentEnumConstant, Name: name, Type: t, Attrs: attrs, DefSite: loc, ConstExprValue: &value, IsDefinition: true}
	l.scope.DefineOrdinary(name, id)
	return id, nil
}

func (l *LocalContext) RefineConstantType(name kir.StringID, t kir.TypeID, loc Loc) error {
	id, err := l.scope.ResolveOrdinary(name)
	if err != nil {
		return kerr.NewAt(kerr.NotFound, errLoc(loc), "no enum constant to refine")
	}
	id.EnumUnderlying = t
	id.HasEnumType = true
	return nil
}

// DefineIdentifier implements block-scope declaration rules: constexpr
// requires an initializer, and a redeclaration in the same block is merged
// by the same rules GlobalContext uses. Variably modified types are not
// modelled by this port's IrType, so no check is made on them here or in
// the analyzer.
func (l *LocalContext) DefineIdentifier(decl *DeclNode, name kir.StringID, t kir.TypeID, storage StorageClass, fnSpec FunctionSpec, isFunction bool, align int, init Node, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if storage == StorageConstexpr && init == nil {
		return nil, kerr.NewAt(kerr.AnalysisError, errLoc(loc), "constexpr %v requires an initializer", name)
	}

	if existing, ok := l.scope.resolveOrdinaryLocal(name); ok {
		merged, err := mergeRedeclaration(existing, existing.Kind, t, storage, fnSpec, align, init, attrs, loc)
		if err != nil {
			return nil, err
		}
		l.scope.DefineOrdinary(name, merged)
		return merged, nil
	}

	linkage := LinkageNone
	if storage == StorageExtern {
		linkage = LinkageExternal
	}
	if storage == StorageConstexpr {
		linkage = LinkageNone // spec.md: "block-scope constexpr gets no linkage"
	}

	kind := IdentObject
	if isFunction {
		kind = IdentFunction
	}
	id := &ScopedIdentifier{
		Kind: kind, Name: name, Type: t, Storage: storage, Linkage: linkage,
		Align: align, Init: init, FnSpec: fnSpec, Attrs: attrs, DefSite: loc,
		IsDefinition: true,
	}
	l.scope.DefineOrdinary(name, id)
	return id, nil
}

// ReferenceLabel resolves a label by name, defining it in the current
// function's label namespace iff parent is non-nil (spec.md §4.1:
// "reference_label(name, parent-flow-struct?, loc) (defines iff parent is
// given)").
func (l *LocalContext) ReferenceLabel(name kir.StringID, parent *FlowControlStructure, loc Loc) (*ScopedIdentifier, error) {
	if id, err := l.scope.ResolveLabel(name); err == nil {
		return id, nil
	}
	if parent == nil {
		return nil, kerr.NewAt(kerr.NotFound, errLoc(loc), "label not yet defined")
	}
	id := &ScopedIdentifier{Kind: IdentLabel, Name: name, DefSite: loc, IsDefinition: true}
	l.scope.DefineLabel(name, id)
	return id, nil
}

// PushBlock opens a nested block scope.
func (l *LocalContext) PushBlock() {
	l.scope = NewScope(ScopeLocal, l.scope)
}

// PopBlock closes the innermost block scope. Per spec.md §9 "Scope
// destruction cascades by iterating IDs" -- in this Go port the scope's
// maps simply become unreachable and are collected, which is the
// GC-native equivalent of that cascade.
func (l *LocalContext) PopBlock() {
	if l.scope.Parent != nil && l.scope.Parent.Kind == ScopeLocal {
		l.scope = l.scope.Parent
	}
}

func (l *LocalContext) CurrentFlowControlPoint() *FlowControlPoint {
	return l.flow.NewPoint()
}

func (l *LocalContext) AllocateTemporaryValue(t kir.TypeID, storage StorageClass, init Node, loc Loc) (*ScopedIdentifier, error) {
	l.tempCounter++
	id := &ScopedIdentifier{Kind: IdentObject, Type: t, Storage: storage, Init: init, DefSite: loc}
	id.Name = kir.StringID(-1000000 - l.tempCounter)
	l.scope.DefineOrdinary(id.Name, id)
	return id, nil
}

// Flow exposes the function body's flow-control tree to internal/analyzer.
func (l *LocalContext) Flow() *FlowControlTree { return l.flow }

// FunctionDeclarationContext is the ephemeral scope holding a function
// prototype's parameter names while analyzing the declarator itself
// (spec.md §3: "function-declaration (ephemeral, parameter names)").
type FunctionDeclarationContext struct {
	parent *GlobalContext
	scope  *Scope
}

// NewFunctionDeclarationContext opens a parameter-name scope chained to
// the global context.
func NewFunctionDeclarationContext(parent *GlobalContext) *FunctionDeclarationContext {
	return &FunctionDeclarationContext{parent: parent, scope: NewScope(ScopeFunctionDecl, parent.scope)}
}

func (f *FunctionDeclarationContext) ResolveOrdinary(name kir.StringID) (*ScopedIdentifier, error) {
	return f.scope.ResolveOrdinary(name)
}

func (f *FunctionDeclarationContext) ResolveTag(name kir.StringID) (*ScopedIdentifier, error) {
	return f.scope.ResolveTag(name)
}

func (f *FunctionDeclarationContext) ResolveLabel(kir.StringID) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "labels are not resolvable in a function-declaration scope")
}

func (f *FunctionDeclarationContext) DefineTag(name kir.StringID, t kir.TypeID, complete bool, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	id := &ScopedIdentifier{Kind: IdentTypeTag, Name: name, Type: t, Attrs: attrs, DefSite: loc, IsDefinition: complete}
	f.scope.DefineTag(name, id)
	return id, nil
}

func (f *FunctionDeclarationContext) DefineConstant(kir.StringID, ConstExprValue, kir.TypeID, Attributes, Loc) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "enum constants cannot be defined in a function-declaration scope")
}

func (f *FunctionDeclarationContext) RefineConstantType(kir.StringID, kir.TypeID, Loc) error {
	return kerr.New(kerr.InvalidRequest, "no enum constants exist in a function-declaration scope")
}

// DefineIdentifier registers a parameter name. Parameters never merge with
// anything (each prototype is independent), so this is pure insertion.
func (f *FunctionDeclarationContext) DefineIdentifier(decl *DeclNode, name kir.StringID, t kir.TypeID, storage StorageClass, fnSpec FunctionSpec, isFunction bool, align int, init Node, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	id := &ScopedIdentifier{Kind: IdentObject, Name: name, Type: t, Storage: storage, Align: align, Attrs: attrs, DefSite: loc, IsDefinition: true}
	f.scope.DefineOrdinary(name, id)
	return id, nil
}

func (f *FunctionDeclarationContext) ReferenceLabel(kir.StringID, *FlowControlStructure, Loc) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "labels are not valid in a function-declaration scope")
}

func (f *FunctionDeclarationContext) PushBlock() {}
func (f *FunctionDeclarationContext) PopBlock()  {}

func (f *FunctionDeclarationContext) CurrentFlowControlPoint() *FlowControlPoint {
	return &FlowControlPoint{ID: -1}
}

func (f *FunctionDeclarationContext) AllocateTemporaryValue(kir.TypeID, StorageClass, Node, Loc) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "temporaries cannot be allocated in a function-declaration scope")
}
