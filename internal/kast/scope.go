package kast

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// ScopeKind distinguishes the three links of the context chain (spec.md
// §3: "global → local (block-structured) → function-declaration
// (ephemeral, parameter names)").
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeLocal
	ScopeFunctionDecl
)

// Scope is a flat or block-structured mapping from identifier string to
// ScopedIdentifier. Block-structured scopes chain to a Parent; lookups
// that miss fall through to the parent (spec.md §7 "scope lookups fall
// back to the enclosing scope on NotFound").
type Scope struct {
	Kind   ScopeKind
	Parent *Scope

	ordinary map[kir.StringID]*ScopedIdentifier
	tags     map[kir.StringID]*ScopedIdentifier
	labels   map[kir.StringID]*ScopedIdentifier

	flowPoint *FlowControlPoint
}

// NewScope allocates a scope chained to parent (nil for the global scope).
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Kind:     kind,
		Parent:   parent,
		ordinary: make(map[kir.StringID]*ScopedIdentifier),
		tags:     make(map[kir.StringID]*ScopedIdentifier),
		labels:   make(map[kir.StringID]*ScopedIdentifier),
	}
}

func (s *Scope) resolveOrdinaryLocal(name kir.StringID) (*ScopedIdentifier, bool) {
	id, ok := s.ordinary[name]
	return id, ok
}

// ResolveOrdinary walks this scope and its parents for an ordinary
// (non-tag, non-label) identifier.
func (s *Scope) ResolveOrdinary(name kir.StringID) (*ScopedIdentifier, error) {
	for cur := s; cur != nil; cur = cur.Parent {
		if id, ok := cur.resolveOrdinaryLocal(name); ok {
			return id, nil
		}
	}
	return nil, kerr.New(kerr.NotFound, "ordinary identifier not found")
}

// ResolveTag walks this scope and its parents for a tag (struct/union/enum
// tag namespace, disjoint from ordinary identifiers per spec.md §4.1
// invariant: "tags and ordinary identifiers live in disjoint namespaces").
func (s *Scope) ResolveTag(name kir.StringID) (*ScopedIdentifier, error) {
	for cur := s; cur != nil; cur = cur.Parent {
		if id, ok := cur.tags[name]; ok {
			return id, nil
		}
	}
	return nil, kerr.New(kerr.NotFound, "tag not found")
}

// ResolveLabel walks this scope and its parents for a label. Global and
// function-declaration scopes never hold labels and fail with
// InvalidRequest if asked directly (spec.md §4.1).
func (s *Scope) ResolveLabel(name kir.StringID) (*ScopedIdentifier, error) {
	if s.Kind == ScopeGlobal || s.Kind == ScopeFunctionDecl {
		return nil, kerr.New(kerr.InvalidRequest, "labels are not resolvable in this scope kind")
	}
	for cur := s; cur != nil; cur = cur.Parent {
		if id, ok := cur.labels[name]; ok {
			return id, nil
		}
		if cur.Kind != ScopeLocal {
			break
		}
	}
	return nil, kerr.New(kerr.NotFound, "label not found")
}

// DefineTag registers a tag identifier in this scope's tag namespace.
// Because tags and ordinary identifiers are disjoint namespaces, DefineTag
// never collides with DefineIdentifier for the same name (spec.md §8
// property 2).
func (s *Scope) DefineTag(name kir.StringID, id *ScopedIdentifier) {
	id.DefinitionScope = s
	s.tags[name] = id
}

// DefineOrdinary registers an ordinary identifier (object, function, enum
// constant, or typedef) in this scope's ordinary namespace.
func (s *Scope) DefineOrdinary(name kir.StringID, id *ScopedIdentifier) {
	if id.DefinitionScope == nil {
		id.DefinitionScope = s
	}
	s.ordinary[name] = id
}

// DefineLabel registers a label in this scope's label namespace.
func (s *Scope) DefineLabel(name kir.StringID, id *ScopedIdentifier) {
	id.DefinitionScope = s
	s.labels[name] = id
}
