package kast

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// IdentifierKind is one of the six ScopedIdentifier variants (spec.md §3).
type IdentifierKind uint8

const (
	IdentObject IdentifierKind = iota
	IdentFunction
	IdentEnumConstant
	IdentTypeTag
	IdentTypeDefinition
	IdentLabel
)

// Linkage enumerates C linkage classes.
type Linkage uint8

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
)

// Visibility mirrors GCC/Clang visibility attributes.
type Visibility uint8

const (
	VisibilityDefault Visibility = iota
	VisibilityHidden
	VisibilityProtected
	VisibilityInternal
)

// Attributes bundles the merge-sensitive declaration attributes spec.md
// §4.1 enumerates: "deprecated/visibility/weak/gnu-inline/always-inline/
// noinline/constructor/destructor/alias/asm-label attributes merged with
// specific conflict rules".
type Attributes struct {
	Deprecated    bool
	Weak          bool
	GNUInline     bool
	AlwaysInline  bool
	NoInline      bool
	Constructor   bool
	Destructor    bool
	Visibility    Visibility
	VisibilitySet bool
	Alias         string // "" = none; sticky once set (cannot be cleared)
	AsmLabel      string // "" = none
}

// ScopedIdentifier is a fully-decorated name binding produced by the
// analyzer (spec.md §3 "ScopedIdentifier"). A single value may be shared
// (non-owning alias) between the global context's ordinary-view scope and
// one of its specialized scopes; DefinitionScope records the owner
// (spec.md §5 "Shared-resource policy").
type ScopedIdentifier struct {
	Kind    IdentifierKind
	Name    kir.StringID
	Type    kir.TypeID
	Storage StorageClass
	Linkage Linkage
	Align   int

	Init         Node
	FnSpec       FunctionSpec
	IsDefinition bool

	Attrs Attributes

	DefSite Loc

	// EnumUnderlying is set once refine_constant_type has run on an
	// IdentEnumConstant identifier.
	EnumUnderlying kir.TypeID
	HasEnumType    bool

	// DefinitionScope records which scope owns this identifier; other
	// scopes referencing the same *ScopedIdentifier hold a non-owning
	// alias (spec.md §5).
	DefinitionScope *Scope

	// ConstExprValue is populated for constexpr objects and enum
	// constants.
	ConstExprValue *ConstExprValue
}

// isCompatibleStorage reports whether two storage classes may coexist on
// redeclarations of the same identifier, per spec.md §4.1's redeclaration
// rules (the rule table itself is evaluated in merge.go; this only
// expresses the primitive compatibility check reused there).
func isCompatibleStorage(a, b StorageClass) bool {
	if a == b {
		return true
	}
	externLike := func(s StorageClass) bool { return s == StorageExtern || s == StorageNone }
	return externLike(a) && externLike(b)
}
