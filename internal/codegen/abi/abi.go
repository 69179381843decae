// Package abi implements the System-V AMD64 calling-convention
// classification the specification names for Codegen (spec.md §4.5
// steps 1-5): split each argument/return type into 8-byte "eightbytes",
// classify each as INTEGER or SSE (MEMORY once a type exceeds two
// eightbytes; fields are always laid out naturally aligned, so alignment
// is never checked), then assign registers from
// a fixed pool, spilling to the stack once the pool is exhausted.
package abi

import "github.com/sourcehut-mirrors/kefir-sub008/internal/kir"

// Class is one eightbyte's classification.
type Class uint8

const (
	ClassInteger Class = iota
	ClassSSE
	ClassMemory
)

// IntegerArgRegs and SSEArgRegs are the fixed System-V argument-passing
// pools, in assignment order.
var (
	IntegerArgRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	SSEArgRegs     = []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"}
	IntegerRetRegs = []string{"rax", "rdx"}
	SSERetRegs     = []string{"xmm0", "xmm1"}
)

// Eightbyte is one 8-byte-aligned classification slot of an argument.
type Eightbyte struct {
	Class Class
}

// Location is where one argument ultimately lives: a register name, or a
// stack-memory slot at Offset bytes past the frame's argument area.
type Location struct {
	Eightbytes []Eightbyte
	Registers  []string // one per non-memory eightbyte, empty if Class == ClassMemory
	StackSlot  bool
	Offset     int
}

// sizeOf mirrors kir.TypeBundle.SizeOf's slot-count proxy but in bytes,
// using natural per-kind sizes; this port does not compute full struct
// layout (padding/alignment of nested aggregates), matching spec.md's
// Non-goals carryover ("exact struct layout algorithm is out of scope;
// classification assumes natural packing").
func sizeOf(t kir.IrType) int {
	if len(t) == 0 {
		return 0
	}
	e := t[0]
	switch e.Kind {
	case kir.EntryScalar:
		switch e.Scalar {
		case kir.ScalarBool, kir.ScalarInt8:
			return 1
		case kir.ScalarInt16:
			return 2
		case kir.ScalarInt32, kir.ScalarFloat32:
			return 4
		case kir.ScalarInt64, kir.ScalarFloat64, kir.ScalarPointer:
			return 8
		}
	case kir.EntryBits:
		return (e.BitWidth + 7) / 8
	case kir.EntryLongDouble:
		return 16
	case kir.EntryComplex:
		switch e.Complex {
		case kir.ComplexFloat32:
			return 8
		case kir.ComplexFloat64:
			return 16
		default:
			return 32
		}
	case kir.EntryArray:
		return e.ArrayLen * sizeOf(t[1:])
	case kir.EntryStruct, kir.EntryUnion:
		total := 0
		for i := 1; i <= e.FieldCount && i < len(t); i++ {
			s := sizeOf(t[i:])
			if e.Kind == kir.EntryUnion {
				if s > total {
					total = s
				}
			} else {
				total += s
			}
		}
		return total
	}
	return 8
}

func isSSEType(t kir.IrType) bool {
	if len(t) == 0 {
		return false
	}
	switch t[0].Kind {
	case kir.EntryScalar:
		return t[0].Scalar == kir.ScalarFloat32 || t[0].Scalar == kir.ScalarFloat64
	case kir.EntryComplex:
		return true
	default:
		return false
	}
}

// SizeOf exposes the byte-size computation used by classification to
// codegen, which needs the same natural-packing size to pick atomic
// instruction widths (internal/codegen/lower.go).
func SizeOf(bundle *kir.TypeBundle, id kir.TypeID) int {
	return sizeOf(bundle.Get(id))
}

func alignOf(t kir.IrType) int {
	if len(t) == 0 {
		return 1
	}
	e := t[0]
	switch e.Kind {
	case kir.EntryArray:
		return alignOf(t[1:])
	case kir.EntryStruct, kir.EntryUnion:
		best := 1
		for i := 1; i <= e.FieldCount && i < len(t); i++ {
			if a := alignOf(t[i:]); a > best {
				best = a
			}
			i += fieldSpanLen(t[i:]) - 1
		}
		return best
	default:
		s := sizeOf(t)
		if s == 0 {
			return 1
		}
		return s
	}
}

// fieldSpanLen reports how many flat TypeEntry slots the field rooted at
// t[0] occupies, so a struct/union walk can skip over nested aggregates'
// own field entries instead of re-visiting them.
func fieldSpanLen(t kir.IrType) int {
	if len(t) == 0 {
		return 1
	}
	e := t[0]
	switch e.Kind {
	case kir.EntryArray:
		return 1 + fieldSpanLen(t[1:])
	case kir.EntryStruct, kir.EntryUnion:
		n := 1
		for i := 1; i <= e.FieldCount && i < len(t); {
			span := fieldSpanLen(t[i:])
			n += span
			i += span
		}
		return n
	default:
		return 1
	}
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) / align * align
}

// fieldSpan is one leaf scalar/complex field's byte placement within its
// enclosing argument type, collected by layoutFields for per-eightbyte
// classification.
type fieldSpan struct {
	offset int
	size   int
	sse    bool
}

// layoutFields walks t, assigning struct fields increasing offsets (with
// natural alignment padding) and union fields the shared offset base,
// appending one fieldSpan per leaf scalar/complex field. It returns the
// total byte size consumed at this level, matching the psABI rule that
// classification below the eightbyte boundary always bottoms out at
// individual scalar members (System-V AMD64 ABI §3.2.3 classification
// algorithm, also followed by the reference compiler's
// original_source/source/target/abi/system-v-amd64/parameters.c).
func layoutFields(t kir.IrType, base int, spans *[]fieldSpan) int {
	if len(t) == 0 {
		return 0
	}
	e := t[0]
	switch e.Kind {
	case kir.EntryArray:
		elemSize := sizeOf(t[1:])
		elemAlign := alignOf(t[1:])
		off := alignUp(base, elemAlign)
		for i := 0; i < e.ArrayLen; i++ {
			layoutFields(t[1:], off+i*elemSize, spans)
		}
		return off + e.ArrayLen*elemSize - base

	case kir.EntryStruct:
		off := base
		i := 1
		for count := 0; count < e.FieldCount && i < len(t); count++ {
			field := t[i:]
			align := alignOf(field)
			off = alignUp(off, align)
			consumed := layoutFields(field, off, spans)
			off += consumed
			i += fieldSpanLen(field)
		}
		return alignUp(off, alignOf(t)) - base

	case kir.EntryUnion:
		total := 0
		i := 1
		for count := 0; count < e.FieldCount && i < len(t); count++ {
			field := t[i:]
			consumed := layoutFields(field, base, spans)
			if consumed > total {
				total = consumed
			}
			i += fieldSpanLen(field)
		}
		return total

	default:
		size := sizeOf(t)
		*spans = append(*spans, fieldSpan{offset: base, size: size, sse: isSSEType(t)})
		return size
	}
}

// Classify implements the System-V AMD64 eightbyte classification
// algorithm (spec.md §4.5 steps 1-5):
//
//  1. Lay out the type's leaf scalar/complex fields at their natural
//     byte offsets (layoutFields).
//  2. If the type's total size exceeds two eightbytes (16 bytes),
//     classify MEMORY outright.
//  3. Otherwise, for each eightbyte, classify INTEGER unless every field
//     whose byte range overlaps it is a floating-point/complex scalar,
//     in which case SSE; an eightbyte touched by no field (trailing
//     padding) defaults to SSE, matching the merge rule below.
//  4. Merge: any eightbyte touched by at least one non-SSE field takes
//     INTEGER, regardless of how many SSE fields also touch it.
//  5. Return the per-eightbyte Class slice.
func Classify(bundle *kir.TypeBundle, id kir.TypeID) []Class {
	t := bundle.Get(id)
	size := sizeOf(t)
	n := (size + 7) / 8
	if n == 0 {
		n = 1
	}
	if size > 16 {
		classes := make([]Class, n)
		for i := range classes {
			classes[i] = ClassMemory
		}
		return classes
	}

	var spans []fieldSpan
	layoutFields(t, 0, &spans)

	classes := make([]Class, n)
	for i := range classes {
		lo, hi := i*8, i*8+8
		touched := false
		allSSE := true
		for _, f := range spans {
			if f.offset >= hi || f.offset+f.size <= lo {
				continue
			}
			touched = true
			if !f.sse {
				allSSE = false
			}
		}
		if touched && allSSE {
			classes[i] = ClassSSE
		} else if !touched {
			classes[i] = ClassSSE
		} else {
			classes[i] = ClassInteger
		}
	}
	return classes
}

// RegisterPool tracks the argument-register assignment cursor across a
// function's full parameter list, matching spec.md §4.5's "registers are
// assigned left-to-right across the whole parameter list, not per
// argument independently".
type RegisterPool struct {
	nextInt   int
	nextSSE   int
	stackBase int
}

// NewRegisterPool starts a fresh pool at the beginning of a parameter list.
func NewRegisterPool() *RegisterPool { return &RegisterPool{} }

// Assign consumes register or stack slots for one argument's
// classification, returning its final Location.
func (p *RegisterPool) Assign(classes []Class) Location {
	loc := Location{Eightbytes: make([]Eightbyte, len(classes))}
	for i, c := range classes {
		loc.Eightbytes[i] = Eightbyte{Class: c}
	}

	needInt, needSSE := 0, 0
	for _, c := range classes {
		switch c {
		case ClassInteger:
			needInt++
		case ClassSSE:
			needSSE++
		case ClassMemory:
			loc.StackSlot = true
		}
	}
	if loc.StackSlot || p.nextInt+needInt > len(IntegerArgRegs) || p.nextSSE+needSSE > len(SSEArgRegs) {
		loc.StackSlot = true
		loc.Offset = p.stackBase
		p.stackBase += 8 * len(classes)
		return loc
	}

	for _, c := range classes {
		switch c {
		case ClassInteger:
			loc.Registers = append(loc.Registers, IntegerArgRegs[p.nextInt])
			p.nextInt++
		case ClassSSE:
			loc.Registers = append(loc.Registers, SSEArgRegs[p.nextSSE])
			p.nextSSE++
		}
	}
	return loc
}

// ReturnLocation assigns the fixed return-value registers for the given
// classification (never spills to memory in this port; large aggregate
// returns via hidden pointer are out of scope, matching spec.md's
// Non-goals carryover for struct-by-value returns).
func ReturnLocation(classes []Class) Location {
	loc := Location{Eightbytes: make([]Eightbyte, len(classes))}
	intIdx, sseIdx := 0, 0
	for i, c := range classes {
		loc.Eightbytes[i] = Eightbyte{Class: c}
		switch c {
		case ClassInteger:
			if intIdx < len(IntegerRetRegs) {
				loc.Registers = append(loc.Registers, IntegerRetRegs[intIdx])
				intIdx++
			}
		case ClassSSE:
			if sseIdx < len(SSERetRegs) {
				loc.Registers = append(loc.Registers, SSERetRegs[sseIdx])
				sseIdx++
			}
		}
	}
	return loc
}
