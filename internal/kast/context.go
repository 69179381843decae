package kast

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// Context is the common interface the three context flavors implement
// (spec.md §4.1). Operations dispatch on the concrete receiver's storage
// handling, not on a shared switch, mirroring the teacher's per-data-type
// file split (astc/decode_block.go vs astc/decode_block_f32.go) rather than
// one branchy function.
type Context interface {
	ResolveOrdinary(name kir.StringID) (*ScopedIdentifier, error)
	ResolveTag(name kir.StringID) (*ScopedIdentifier, error)
	ResolveLabel(name kir.StringID) (*ScopedIdentifier, error)

	DefineTag(name kir.StringID, t kir.TypeID, complete bool, attrs Attributes, loc Loc) (*ScopedIdentifier, error)
	DefineConstant(name kir.StringID, value ConstExprValue, t kir.TypeID, attrs Attributes, loc Loc) (*ScopedIdentifier, error)
	RefineConstantType(name kir.StringID, t kir.TypeID, loc Loc) error
	DefineIdentifier(decl *DeclNode, name kir.StringID, t kir.TypeID, storage StorageClass, fnSpec FunctionSpec, isFunction bool, align int, init Node, attrs Attributes, loc Loc) (*ScopedIdentifier, error)
	ReferenceLabel(name kir.StringID, parent *FlowControlStructure, loc Loc) (*ScopedIdentifier, error)

	PushBlock()
	PopBlock()

	CurrentFlowControlPoint() *FlowControlPoint
	AllocateTemporaryValue(t kir.TypeID, storage StorageClass, init Node, loc Loc) (*ScopedIdentifier, error)
}

// GlobalContext is the file-scope context. It maintains eight flat
// namespaces (spec.md §4.1: "The global context maintains eight flat
// namespaces (ordinary merged view, tags, enum constants, typedefs,
// functions, object identifiers, constant identifiers, type identifiers)").
type GlobalContext struct {
	scope *Scope
	flow  *FlowControlTree

	enumConstants map[kir.StringID]*ScopedIdentifier
	typedefs      map[kir.StringID]*ScopedIdentifier
	functions     map[kir.StringID]*ScopedIdentifier
	objects       map[kir.StringID]*ScopedIdentifier
	constants     map[kir.StringID]*ScopedIdentifier // constexpr objects
	types         map[kir.StringID]*ScopedIdentifier // IdentTypeDefinition view, distinct from typedefs storage

	tempCounter int
}

// NewGlobalContext allocates an empty global context.
func NewGlobalContext() *GlobalContext {
	return &GlobalContext{
		scope:         NewScope(ScopeGlobal, nil),
		flow:          NewFlowControlTree(),
		enumConstants: make(map[kir.StringID]*ScopedIdentifier),
		typedefs:      make(map[kir.StringID]*ScopedIdentifier),
		functions:     make(map[kir.StringID]*ScopedIdentifier),
		objects:       make(map[kir.StringID]*ScopedIdentifier),
		constants:     make(map[kir.StringID]*ScopedIdentifier),
		types:         make(map[kir.StringID]*ScopedIdentifier),
	}
}

func (g *GlobalContext) ResolveOrdinary(name kir.StringID) (*ScopedIdentifier, error) {
	return g.scope.ResolveOrdinary(name)
}

func (g *GlobalContext) ResolveTag(name kir.StringID) (*ScopedIdentifier, error) {
	return g.scope.ResolveTag(name)
}

// ResolveLabel always fails: spec.md §4.1 "resolve_label ... global/
// function-decl fail with InvalidRequest".
func (g *GlobalContext) ResolveLabel(kir.StringID) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "labels are not resolvable at global scope")
}

// DefineTag registers a tag and, per spec.md §4.1 "Tags: subsequent
// complete definition may only replace an incomplete one of the same
// kind", rejects redefining an already-complete tag under the same name.
func (g *GlobalContext) DefineTag(name kir.StringID, t kir.TypeID, complete bool, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if existing, err := g.scope.ResolveTag(name); err == nil {
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
	g.scope.DefineTag(name, id)
	return id, nil
}

func (g *GlobalContext) DefineConstant(name kir.StringID, value ConstExprValue, t kir.TypeID, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if existing, ok := g.enumConstants[name]; ok {
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redefinition of enum constant %v (first defined at %v)", name, existing.DefSite)
	}
	id := &ScopedIdentifier{Kind: IdentEnumConstant, Name: name, Type: t, Attrs: attrs, DefSite: loc, ConstExprValue: &value, IsDefinition: true}
	g.enumConstants[name] = id
	g.scope.DefineOrdinary(name, id)
	return id, nil
}

// RefineConstantType implements enum-underlying-type refinement (spec.md
// §4.1: "refine_constant_type(name, type, loc) (enum-underlying-type
// refinement)"): once an enum's underlying type is fixed, every constant
// of that enum is retagged with it.
func (g *GlobalContext) RefineConstantType(name kir.StringID, t kir.TypeID, loc Loc) error {
	id, ok := g.enumConstants[name]
	if !ok {
		return kerr.NewAt(kerr.NotFound, errLoc(loc), "no enum constant to refine")
	}
	id.EnumUnderlying = t
	id.HasEnumType = true
	return nil
}

// DefineIdentifier implements the object/function redeclaration-merge
// rules of spec.md §4.1 at file scope.
func (g *GlobalContext) DefineIdentifier(decl *DeclNode, name kir.StringID, t kir.TypeID, storage StorageClass, fnSpec FunctionSpec, isFunction bool, align int, init Node, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	kind := IdentObject
	table := g.objects
	if storage == StorageTypedef {
		kind = IdentTypeDefinition
		table = g.typedefs
	} else if isFunction {
		kind = IdentFunction
		table = g.functions
	}

	existing, ok := table[name]
	if !ok {
		linkage := LinkageExternal
		if storage == StorageStatic {
			linkage = LinkageInternal
		}
		if storage == StorageConstexpr {
			if init == nil {
				return nil, kerr.NewAt(kerr.AnalysisError, errLoc(loc), "constexpr %v requires an initializer", name)
			}
			linkage = LinkageInternal
		}
		id := &ScopedIdentifier{
			Kind: kind, Name: name, Type: t, Storage: storage, Linkage: linkage,
			Align: align, Init: init, FnSpec: fnSpec, Attrs: attrs, DefSite: loc,
			IsDefinition: init != nil || storage == StorageConstexpr,
		}
		table[name] = id
		if storage == StorageConstexpr {
			g.constants[name] = id
		}
		g.scope.DefineOrdinary(name, id)
		return id, nil
	}

	merged, err := mergeRedeclaration(existing, kind, t, storage, fnSpec, align, init, attrs, loc)
	if err != nil {
		return nil, err
	}
	table[name] = merged
	g.scope.DefineOrdinary(name, merged)
	return merged, nil
}

func (g *GlobalContext) ReferenceLabel(kir.StringID, *FlowControlStructure, Loc) (*ScopedIdentifier, error) {
	return nil, kerr.New(kerr.InvalidRequest, "labels are not valid at global scope")
}

func (g *GlobalContext) PushBlock() {} // global scope has no nested blocks
func (g *GlobalContext) PopBlock()  {}

func (g *GlobalContext) CurrentFlowControlPoint() *FlowControlPoint {
	return g.flow.NewPoint()
}

func (g *GlobalContext) AllocateTemporaryValue(t kir.TypeID, storage StorageClass, init Node, loc Loc) (*ScopedIdentifier, error) {
	g.tempCounter++
	id := &ScopedIdentifier{Kind: IdentObject, Type: t, Storage: storage, Init: init, DefSite: loc}
	id.Name = kir.StringID(-1 - g.tempCounter) // negative, never collides with an interned name
	g.scope.DefineOrdinary(id.Name, id)
	return id, nil
}

func errLoc(l Loc) kerr.Location {
	return kerr.Location{File: l.File, Line: l.Line, Column: l.Column}
}

