package kast

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// mergeRedeclaration implements spec.md §4.1's redeclaration rules and
// §8 property 3 (merged alignment is max(α₁,α₂), attributes merged per
// field-specific rules).
func mergeRedeclaration(existing *ScopedIdentifier, kind IdentifierKind, t kir.TypeID, storage StorageClass, fnSpec FunctionSpec, align int, init Node, attrs Attributes, loc Loc) (*ScopedIdentifier, error) {
	if existing.Kind != kind {
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redeclaration changes identifier kind")
	}

	if existing.Storage == StorageConstexpr || storage == StorageConstexpr {
		// spec.md §4.1: "constexpr: ... redefinition disallowed".
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "constexpr identifier cannot be redeclared")
	}

	if existing.Storage == StorageThreadLocal != (storage == StorageThreadLocal) {
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "_Thread_local must match across redeclarations")
	}

	isFunc := kind == IdentFunction
	if isFunc {
		// Function redeclaration: relaxed "function-definition-compatible"
		// merge (spec.md §4.1). Prototype/non-prototype merges are the
		// front-end type system's job (outside this port's IrType scope);
		// here we enforce the linkage/inline/definition state machine.
		if existing.IsDefinition && init != nil {
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redefinition of function")
		}
	} else {
		if existing.Storage == StorageStatic && storage == StorageExtern {
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "extern declaration follows static declaration")
		}
		if existing.Storage == StorageExtern && storage == StorageStatic {
			// spec.md: "Static over extern in the same scope: error."
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "static declaration follows extern declaration")
		}
		if !isCompatibleStorage(existing.Storage, storage) && existing.Storage != storage {
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "incompatible storage class in redeclaration")
		}
		if existing.IsDefinition && init != nil {
			return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "redefinition of object")
		}
	}

	mergedAlign := existing.Align
	if align > mergedAlign {
		mergedAlign = align
	}

	mergedAttrs, err := mergeAttributes(existing.Attrs, attrs)
	if err != nil {
		return nil, kerr.NewAt(kerr.InvalidChange, errLoc(loc), "%v", err)
	}

	merged := *existing
	merged.Align = mergedAlign
	merged.Attrs = mergedAttrs

	if init != nil {
		merged.Init = init
		merged.IsDefinition = true
		merged.DefSite = loc
	}

	if isFunc {
		merged.FnSpec = existing.FnSpec | fnSpec
		// spec.md: "inline + no external-linkage ⇒ inline-definition; a
		// subsequent non-inline extern declaration of the same name
		// promotes to external."
		if existing.FnSpec&FnSpecInline != 0 && fnSpec == 0 && storage == StorageExtern {
			merged.Linkage = LinkageExternal
		}
	}

	// extern on top of static (and vice versa handled above as errors);
	// extern-on-extern keeps the existing storage; a visibility set by the
	// new declaration replaces the existing one (mergeAttributes).
	if storage == StorageStatic {
		merged.Storage = StorageStatic
		merged.Linkage = LinkageInternal
	}

	return &merged, nil
}

// mergeAttributes implements spec.md §4.1's specific per-attribute
// conflict rules:
//
//   - asm-label: equal or one-side-null
//   - alias: sticky once set
//   - function alias disallows asm-label
//   - visibility: last-wins after first-set (spec.md §8 property 3)
//   - weak: logical-or
func mergeAttributes(a, b Attributes) (Attributes, error) {
	out := a

	out.Deprecated = a.Deprecated || b.Deprecated
	out.Weak = a.Weak || b.Weak
	out.GNUInline = a.GNUInline || b.GNUInline
	out.AlwaysInline = a.AlwaysInline || b.AlwaysInline
	out.NoInline = a.NoInline || b.NoInline
	out.Constructor = a.Constructor || b.Constructor
	out.Destructor = a.Destructor || b.Destructor

	if b.VisibilitySet {
		out.Visibility = b.Visibility
		out.VisibilitySet = true
	}

	if a.AsmLabel != "" && b.AsmLabel != "" && a.AsmLabel != b.AsmLabel {
		return Attributes{}, errAttrConflict("asm-label redeclared with a different label")
	}
	if out.AsmLabel == "" {
		out.AsmLabel = b.AsmLabel
	}

	if a.Alias != "" && b.Alias != "" && a.Alias != b.Alias {
		return Attributes{}, errAttrConflict("alias redeclared with a different target")
	}
	if out.Alias == "" {
		out.Alias = b.Alias // alias is sticky once set; an empty b.Alias never clears an existing one
	}

	if out.Alias != "" && out.AsmLabel != "" {
		return Attributes{}, errAttrConflict("function alias disallows an asm-label")
	}

	return out, nil
}

type attrConflictError string

func (e attrConflictError) Error() string { return string(e) }

func errAttrConflict(msg string) error { return attrConflictError(msg) }
