package analyzer

import (
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

// usualArithmeticConversion is a deliberately simplified stand-in for C's
// usual arithmetic conversions: widest scalar rank wins, float beats int.
// Struct/union/array operands are out of scope for this port's constant
// folder (spec.md §4.2 Non-goals: "exhaustive usual-arithmetic-conversion
// rank table"); callers needing full C rank rules should resolve types via
// the front end before reaching this analyzer.
func usualArithmeticConversion(a, b kir.TypeID, types *kir.TypeBundle) kir.TypeID {
	if a == b {
		return a
	}
	ae, be := types.Get(a), types.Get(b)
	if len(ae) == 0 || len(be) == 0 {
		return a
	}
	if rank(ae[0].Scalar) >= rank(be[0].Scalar) {
		return a
	}
	return b
}

func rank(k kir.ScalarKind) int {
	switch k {
	case kir.ScalarFloat64:
		return 7
	case kir.ScalarFloat32:
		return 6
	case kir.ScalarInt64:
		return 5
	case kir.ScalarInt32:
		return 4
	case kir.ScalarInt16:
		return 3
	case kir.ScalarInt8:
		return 2
	case kir.ScalarPointer:
		return 8
	case kir.ScalarBool:
		return 1
	default:
		return 0
	}
}

// foldBinary evaluates a constant binary expression. Only integer and
// float operand pairs are folded; mixed/pointer arithmetic is left to
// codegen (spec.md §4.2: "constant folding covers the common arithmetic
// and comparison operators; anything else is deferred, not rejected").
func foldBinary(op string, lhs, rhs *kast.ConstExprValue) (*kast.ConstExprValue, bool) {
	if lhs.Class == kast.ConstInteger && rhs.Class == kast.ConstInteger {
		l, r := lhs.Integer, rhs.Integer
		switch op {
		case "+":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l + r}, true
		case "-":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l - r}, true
		case "*":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l * r}, true
		case "/":
			if r == 0 {
				return nil, false
			}
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l / r}, true
		case "%":
			if r == 0 {
				return nil, false
			}
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l % r}, true
		case "&":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l & r}, true
		case "|":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l | r}, true
		case "^":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l ^ r}, true
		case "<<":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l << uint(r)}, true
		case ">>":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: l >> uint(r)}, true
		case "==":
			return boolConst(l == r), true
		case "!=":
			return boolConst(l != r), true
		case "<":
			return boolConst(l < r), true
		case "<=":
			return boolConst(l <= r), true
		case ">":
			return boolConst(l > r), true
		case ">=":
			return boolConst(l >= r), true
		}
		return nil, false
	}

	if lhs.Class == kast.ConstFloat && rhs.Class == kast.ConstFloat {
		l, r := lhs.Float, rhs.Float
		switch op {
		case "+":
			return &kast.ConstExprValue{Class: kast.ConstFloat, Float: l + r}, true
		case "-":
			return &kast.ConstExprValue{Class: kast.ConstFloat, Float: l - r}, true
		case "*":
			return &kast.ConstExprValue{Class: kast.ConstFloat, Float: l * r}, true
		case "/":
			if r == 0 {
				return nil, false
			}
			return &kast.ConstExprValue{Class: kast.ConstFloat, Float: l / r}, true
		case "==":
			return boolConst(l == r), true
		case "!=":
			return boolConst(l != r), true
		case "<":
			return boolConst(l < r), true
		case "<=":
			return boolConst(l <= r), true
		case ">":
			return boolConst(l > r), true
		case ">=":
			return boolConst(l >= r), true
		}
	}
	return nil, false
}

func foldUnary(op string, v *kast.ConstExprValue) (*kast.ConstExprValue, bool) {
	switch {
	case v.Class == kast.ConstInteger:
		switch op {
		case "-":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: -v.Integer}, true
		case "~":
			return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: ^v.Integer}, true
		case "!":
			return boolConst(v.Integer == 0), true
		case "+":
			return v, true
		}
	case v.Class == kast.ConstFloat:
		switch op {
		case "-":
			return &kast.ConstExprValue{Class: kast.ConstFloat, Float: -v.Float}, true
		case "!":
			return boolConst(v.Float == 0), true
		case "+":
			return v, true
		}
	}
	return nil, false
}

func boolConst(b bool) *kast.ConstExprValue {
	if b {
		return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: 1}
	}
	return &kast.ConstExprValue{Class: kast.ConstInteger, Integer: 0}
}
