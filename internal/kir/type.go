package kir

import (
	"fmt"
	"strings"
)

// TypeID is a stable handle into a TypeBundle.
type TypeID int32

// InvalidTypeID is never returned by Intern.
const InvalidTypeID TypeID = -1

// ScalarKind enumerates the primitive scalar entries an IrType can hold.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarInt8
	ScalarInt16
	ScalarInt32
	ScalarInt64
	ScalarFloat32
	ScalarFloat64
	ScalarPointer
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBool:
		return "bool"
	case ScalarInt8:
		return "i8"
	case ScalarInt16:
		return "i16"
	case ScalarInt32:
		return "i32"
	case ScalarInt64:
		return "i64"
	case ScalarFloat32:
		return "f32"
	case ScalarFloat64:
		return "f64"
	case ScalarPointer:
		return "ptr"
	default:
		return "scalar?"
	}
}

// ComplexPrecision selects the real-component width backing a complex entry.
type ComplexPrecision uint8

const (
	ComplexFloat32 ComplexPrecision = iota
	ComplexFloat64
	ComplexLongDouble
)

// TypeEntryKind discriminates the tagged-union variants of an IrTypeEntry
// (spec.md §3 "IrType — an ordered sequence of IrTypeEntry").
type TypeEntryKind uint8

const (
	EntryScalar TypeEntryKind = iota
	EntryStruct
	EntryUnion
	EntryArray
	EntryBits      // _BitInt(width)
	EntryLongDouble
	EntryComplex
	EntryBuiltin // va_list and similar platform builtins
)

// TypeEntry is one preorder slot of an IrType. Aggregates (struct/union,
// array) occupy one head slot followed immediately by their nested
// entries' own slots -- there is no separate index table, matching
// spec.md's "every entry occupies one slot; nested entries follow".
type TypeEntry struct {
	Kind TypeEntryKind

	Scalar ScalarKind // valid when Kind == EntryScalar

	FieldCount int // valid when Kind == EntryStruct/EntryUnion
	ArrayLen   int // valid when Kind == EntryArray (element count)

	BitWidth int // valid when Kind == EntryBits

	Complex ComplexPrecision // valid when Kind == EntryComplex

	BuiltinKind string // valid when Kind == EntryBuiltin

	Alignment int // byte alignment of this slot's own value, 0 = natural
}

// IrType is the canonical, interned representation of a C type in the
// IR/Opt-IR/AsmCmp layers. It is immutable once interned.
type IrType []TypeEntry

func (t IrType) key() string {
	var b strings.Builder
	for _, e := range t {
		fmt.Fprintf(&b, "%d:%d:%d:%d:%d:%d:%s;", e.Kind, e.Scalar, e.FieldCount, e.ArrayLen, e.BitWidth, e.Complex, e.BuiltinKind)
	}
	return b.String()
}

// Scalar builds a single-entry IrType for a scalar kind.
func Scalar(k ScalarKind) IrType { return IrType{{Kind: EntryScalar, Scalar: k}} }

// Bits builds a single-entry IrType for a _BitInt(width).
func Bits(width int) IrType { return IrType{{Kind: EntryBits, BitWidth: width}} }

// LongDouble builds a single-entry IrType for long double.
func LongDouble() IrType { return IrType{{Kind: EntryLongDouble}} }

// Complex builds a single-entry IrType for _Complex of the given precision.
func Complex(p ComplexPrecision) IrType { return IrType{{Kind: EntryComplex, Complex: p}} }

// TypeBundle deduplicates canonical IrType values for one compilation unit.
//
// Grounded on the same double-checked-locking cache shape as StringPool
// (astc/decimation_table_cache.go): types are immutable once interned, so a
// read-through cache with no invalidation is sufficient.
type TypeBundle struct {
	pool *StringPool // reused machinery: keys are type.key() strings
	byID []IrType
}

// NewTypeBundle returns an empty bundle.
func NewTypeBundle() *TypeBundle {
	return &TypeBundle{pool: NewStringPool()}
}

// Intern returns the stable ID for t, allocating one if t is new.
func (b *TypeBundle) Intern(t IrType) TypeID {
	id := b.pool.Intern(t.key())
	if int(id) == len(b.byID) {
		b.byID = append(b.byID, t)
	}
	return TypeID(id)
}

// Get returns the canonical IrType for id, or nil if id was never interned.
func (b *TypeBundle) Get(id TypeID) IrType {
	if int(id) < 0 || int(id) >= len(b.byID) {
		return nil
	}
	return b.byID[id]
}

// SizeOf returns the flattened slot count of the interned type, i.e. the
// number of TypeEntry values (preorder), useful as a cheap structural size
// proxy before layout is computed.
func (b *TypeBundle) SizeOf(id TypeID) int {
	return len(b.byID[id])
}
