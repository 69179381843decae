package kast_test

import (
	"testing"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

func TestResolveOrdinary_Deterministic(t *testing.T) {
	pool := kir.NewStringPool()
	g := kast.NewGlobalContext()
	name := pool.Intern("x")

	if _, err := g.DefineIdentifier(nil, name, 0, kast.StorageExtern, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("DefineIdentifier: %v", err)
	}

	first, err := g.ResolveOrdinary(name)
	if err != nil {
		t.Fatalf("ResolveOrdinary: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := g.ResolveOrdinary(name)
		if err != nil {
			t.Fatalf("ResolveOrdinary[%d]: %v", i, err)
		}
		if got != first {
			t.Fatalf("ResolveOrdinary[%d]: got a different *ScopedIdentifier across repeated calls", i)
		}
	}
}

func TestTagAndOrdinaryDisjoint(t *testing.T) {
	pool := kir.NewStringPool()
	g := kast.NewGlobalContext()
	name := pool.Intern("T")

	tagID, err := g.DefineTag(name, 1, true, kast.Attributes{}, kast.Loc{})
	if err != nil {
		t.Fatalf("DefineTag: %v", err)
	}

	if _, err := g.DefineIdentifier(nil, name, 2, kast.StorageExtern, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("DefineIdentifier with same spelling as a tag should not collide: %v", err)
	}

	gotTag, err := g.ResolveTag(name)
	if err != nil || gotTag != tagID {
		t.Fatalf("ResolveTag: got (%v, %v), want (%v, nil)", gotTag, err, tagID)
	}
	gotOrd, err := g.ResolveOrdinary(name)
	if err != nil || gotOrd.Type != 2 {
		t.Fatalf("ResolveOrdinary: got (%v, %v), want type 2", gotOrd, err)
	}
}

func TestRedeclarationMerge_AlignmentAndAttributes(t *testing.T) {
	pool := kir.NewStringPool()
	g := kast.NewGlobalContext()
	name := pool.Intern("f")

	a1 := kast.Attributes{Weak: false, AsmLabel: ""}
	if _, err := g.DefineIdentifier(nil, name, 0, kast.StorageExtern, 0, false, 4, nil, a1, kast.Loc{}); err != nil {
		t.Fatalf("first decl: %v", err)
	}

	a2 := kast.Attributes{Weak: true}
	merged, err := g.DefineIdentifier(nil, name, 0, kast.StorageExtern, 0, false, 16, nil, a2, kast.Loc{})
	if err != nil {
		t.Fatalf("second decl: %v", err)
	}
	if merged.Align != 16 {
		t.Fatalf("merged.Align = %d, want max(4,16) = 16", merged.Align)
	}
	if !merged.Attrs.Weak {
		t.Fatalf("merged.Attrs.Weak = false, want true (logical-or)")
	}
}

func TestRedeclaration_StaticAfterExternIsError(t *testing.T) {
	pool := kir.NewStringPool()
	g := kast.NewGlobalContext()
	name := pool.Intern("g")

	if _, err := g.DefineIdentifier(nil, name, 0, kast.StorageExtern, 0, false, 0, nil, kast.Attributes{}, kast.Loc{}); err != nil {
		t.Fatalf("first decl: %v", err)
	}
	_, err := g.DefineIdentifier(nil, name, 0, kast.StorageStatic, 0, false, 0, nil, kast.Attributes{}, kast.Loc{})
	if err == nil {
		t.Fatalf("expected an error redeclaring extern as static")
	}
	if kerr.KindOf(err) != kerr.InvalidChange {
		t.Fatalf("KindOf = %v, want InvalidChange", kerr.KindOf(err))
	}
}

func TestSwitchCaseUniqueness(t *testing.T) {
	tree := kast.NewFlowControlTree()
	sw := tree.Push(kast.StructSwitch)

	sw.Switch.RegisterCase(nil, nil)
	sw.Switch.RegisterCase(nil, nil)
	if len(sw.Switch.CaseLabelPoints) != 2 {
		t.Fatalf("expected 2 distinct case ids, got %d", len(sw.Switch.CaseLabelPoints))
	}

	if _, err := sw.Switch.RegisterDefault(); err != nil {
		t.Fatalf("first RegisterDefault: %v", err)
	}
	if _, err := sw.Switch.RegisterDefault(); err == nil {
		t.Fatalf("expected an error on a second default")
	}
}

func TestNearestSwitch_ErrorsOutsideSwitch(t *testing.T) {
	tree := kast.NewFlowControlTree()
	if _, err := tree.NearestSwitch(); err == nil {
		t.Fatalf("expected an error: no enclosing switch")
	}
	tree.Push(kast.StructSwitch)
	if _, err := tree.NearestSwitch(); err != nil {
		t.Fatalf("NearestSwitch: %v", err)
	}
}
