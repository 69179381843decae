package kast

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"

// FlowControlPoint is a forward-reference jump target, resolved to an
// assembly label only much later by codegen (spec.md §3, glossary "Flow-
// control point").
type FlowControlPoint struct {
	ID int
}

// StructureKind is one of {block, if, switch, loop}, per spec.md §3
// "FlowControlTree / FlowControlStructure / FlowControlPoint — a tree
// whose nodes are {block, if, switch, loop}".
type StructureKind uint8

const (
	StructBlock StructureKind = iota
	StructIf
	StructSwitch
	StructLoop
)

// CaseID identifies one case (or case-range) label within a switch,
// monotonically increasing as cases are registered (spec.md §4.1: "a
// switch statement stores three parallel maps keyed by a monotonically
// increasing case-id").
type CaseID int

// SwitchData holds the three parallel case maps plus the at-most-one
// default field described in spec.md §4.1 and tested by property 4.
type SwitchData struct {
	nextCaseID CaseID

	CaseLabelPoints map[CaseID]*FlowControlPoint
	CaseExprNodes   map[CaseID]Node
	CaseRangeEnds   map[CaseID]Node // present only for "case a ... b"

	DefaultPoint *FlowControlPoint
	DefaultSet   bool
}

func newSwitchData() *SwitchData {
	return &SwitchData{
		CaseLabelPoints: make(map[CaseID]*FlowControlPoint),
		CaseExprNodes:   make(map[CaseID]Node),
		CaseRangeEnds:   make(map[CaseID]Node),
	}
}

// RegisterCase allocates a fresh case-id, a fresh FlowControlPoint, and
// records expr (and, for ranges, rangeEnd) under that id. Duplicate
// detection against existing single-value labels is the caller's
// responsibility (internal/analyzer owns constant evaluation); RegisterCase
// itself only performs bookkeeping, matching the Context/builder split
// spec.md draws between resolution and analysis.
func (sd *SwitchData) RegisterCase(expr Node, rangeEnd Node) *FlowControlPoint {
	id := sd.nextCaseID
	sd.nextCaseID++
	point := &FlowControlPoint{ID: int(id)}
	sd.CaseLabelPoints[id] = point
	sd.CaseExprNodes[id] = expr
	if rangeEnd != nil {
		sd.CaseRangeEnds[id] = rangeEnd
	}
	return point
}

// DuplicateCase reports whether the inclusive integer range [begin, end]
// overlaps any case already registered on sd, by comparing against each
// registered label's own folded value (and, for ranges, its folded end)
// rather than the unevaluated Node (spec.md §4.2 step 4, property 4: two
// case labels naming the same constant, or overlapping ranges, are a
// compile error). Callers normalize begin <= end before calling this.
func (sd *SwitchData) DuplicateCase(begin, end int64) bool {
	for id, exprNode := range sd.CaseExprNodes {
		cv := exprNode.Props().ConstExpr
		if cv == nil {
			continue
		}
		existingBegin := cv.Integer
		existingEnd := existingBegin
		if rangeEnd, ok := sd.CaseRangeEnds[id]; ok {
			if rc := rangeEnd.Props().ConstExpr; rc != nil {
				existingEnd = rc.Integer
			}
		}
		if begin <= existingEnd && existingBegin <= end {
			return true
		}
	}
	return false
}

// RegisterDefault allocates the default label point, failing with
// InvalidChange if a default has already been registered (spec.md §4.1
// "Default is at most one" / §8 property 4).
func (sd *SwitchData) RegisterDefault() (*FlowControlPoint, error) {
	if sd.DefaultSet {
		return nil, kerr.New(kerr.InvalidChange, "switch already has a default label")
	}
	sd.DefaultSet = true
	sd.DefaultPoint = &FlowControlPoint{ID: -1}
	return sd.DefaultPoint, nil
}

// FlowControlStructure is one node of the flow-control tree.
type FlowControlStructure struct {
	Kind   StructureKind
	Parent *FlowControlStructure

	// Switch is non-nil iff Kind == StructSwitch.
	Switch *SwitchData

	// BreakPoint/ContinuePoint are valid for StructLoop and (BreakPoint
	// only) StructSwitch, matching C's break/continue target rules.
	BreakPoint    *FlowControlPoint
	ContinuePoint *FlowControlPoint
}

// FlowControlTree owns the nesting structure for one function body.
type FlowControlTree struct {
	root        *FlowControlStructure
	current     *FlowControlStructure
	nextPointID int
}

// NewFlowControlTree starts a tree rooted at a top-level block.
func NewFlowControlTree() *FlowControlTree {
	root := &FlowControlStructure{Kind: StructBlock}
	return &FlowControlTree{root: root, current: root}
}

// Current returns the innermost flow-control structure.
func (t *FlowControlTree) Current() *FlowControlStructure { return t.current }

// NewPoint allocates a fresh FlowControlPoint, used for plain labels and
// loop entry/exit points that are not switch cases.
func (t *FlowControlTree) NewPoint() *FlowControlPoint {
	p := &FlowControlPoint{ID: t.nextPointID}
	t.nextPointID++
	return p
}

// Push enters a nested structure of the given kind, returning it.
func (t *FlowControlTree) Push(kind StructureKind) *FlowControlStructure {
	s := &FlowControlStructure{Kind: kind, Parent: t.current}
	if kind == StructSwitch {
		s.Switch = newSwitchData()
		s.BreakPoint = t.NewPoint()
	}
	if kind == StructLoop {
		s.BreakPoint = t.NewPoint()
		s.ContinuePoint = t.NewPoint()
	}
	t.current = s
	return s
}

// Pop leaves the current structure, restoring its parent as current.
func (t *FlowControlTree) Pop() {
	if t.current.Parent != nil {
		t.current = t.current.Parent
	}
}

// NearestSwitch walks up from the current structure to find the nearest
// enclosing switch, returning an AnalysisError if there is none (spec.md §4.2
// case-analysis step 1: "Traverse flow-control tree to locate nearest
// enclosing switch; error if none").
func (t *FlowControlTree) NearestSwitch() (*FlowControlStructure, error) {
	for s := t.current; s != nil; s = s.Parent {
		if s.Kind == StructSwitch {
			return s, nil
		}
	}
	return nil, kerr.New(kerr.AnalysisError, "case/default label not within a switch statement")
}
