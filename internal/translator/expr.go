package translator

import (
	"fmt"

	"github.com/sourcehut-mirrors/kefir-sub008/internal/ir"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kast"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kerr"
	"github.com/sourcehut-mirrors/kefir-sub008/internal/kir"
)

func (t *Translator) translateExpr(b *ir.Builder, n *kast.ExprNode) (ir.TypedRef, error) {
	p := n.Props()

	switch n.Kind {
	case kast.ExprIntConst:
		return b.Emit(ir.Instr{Op: ir.OpPushU64, U64: uint64(n.IntValue), Type: p.Type}), nil

	case kast.ExprFloatConst:
		return b.Emit(ir.Instr{Op: ir.OpPushF64, F64: n.FloatValue, Type: p.Type}), nil

	case kast.ExprStringLiteral:
		t.Module.StringLits = append(t.Module.StringLits, p.StringLiteralID)
		return b.Emit(ir.Instr{Op: ir.OpGetString, StringID: p.StringLiteralID, Type: p.Type}), nil

	case kast.ExprBitIntConst:
		return b.Emit(ir.Instr{Op: ir.OpBigIntConst, BigInt: n.BigInt, Type: p.Type}), nil

	case kast.ExprIdentifier:
		if slot, ok := t.locals[n.Name]; ok {
			return b.Emit(ir.Instr{Op: ir.OpGetLocal, LocalSlot: slot, Type: p.Type}), nil
		}
		return b.Emit(ir.Instr{Op: ir.OpGetGlobal, StringID: n.Name, Type: p.Type}), nil

	case kast.ExprBinary:
		if len(n.Operands) != 2 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "binary expression requires two operands")
		}
		lhs, ok1 := n.Operands[0].(*kast.ExprNode)
		rhs, ok2 := n.Operands[1].(*kast.ExprNode)
		if !ok1 || !ok2 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "binary operands must be expressions")
		}
		if _, err := t.translateExpr(b, lhs); err != nil {
			return ir.TypedRef{}, err
		}
		if _, err := t.translateExpr(b, rhs); err != nil {
			return ir.TypedRef{}, err
		}
		op, err := binaryOpcode(n.Op)
		if err != nil {
			return ir.TypedRef{}, err
		}
		return b.Emit(ir.Instr{Op: op, Type: p.Type}), nil

	case kast.ExprUnary:
		if len(n.Operands) != 1 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "unary expression requires one operand")
		}
		inner, ok := n.Operands[0].(*kast.ExprNode)
		if !ok {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "unary operand must be an expression")
		}
		if _, err := t.translateExpr(b, inner); err != nil {
			return ir.TypedRef{}, err
		}
		op, err := unaryOpcode(n.Op)
		if err != nil {
			return ir.TypedRef{}, err
		}
		return b.Emit(ir.Instr{Op: op, Type: p.Type}), nil

	case kast.ExprCast:
		if len(n.Operands) != 1 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "cast requires one operand")
		}
		inner, ok := n.Operands[0].(*kast.ExprNode)
		if !ok {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "cast operand must be an expression")
		}
		if _, err := t.translateExpr(b, inner); err != nil {
			return ir.TypedRef{}, err
		}
		return t.translateTypeconv(b, inner.Props().Type, n.CastType)

	case kast.ExprAssign:
		if len(n.Operands) != 2 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "assignment requires two operands")
		}
		lhs, ok1 := n.Operands[0].(*kast.ExprNode)
		rhs, ok2 := n.Operands[1].(*kast.ExprNode)
		if !ok1 || !ok2 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "assignment operands must be expressions")
		}
		ref, err := t.translateExpr(b, rhs)
		if err != nil {
			return ir.TypedRef{}, err
		}
		if lhs.Kind == kast.ExprIdentifier {
			if slot, ok := t.locals[lhs.Name]; ok {
				b.Emit(ir.Instr{Op: ir.OpSetLocal, LocalSlot: slot, Type: p.Type})
				return ref, nil
			}
		}
		return ir.TypedRef{}, kerr.New(kerr.NotImplemented, "translator only lowers assignment to a plain local identifier")

	case kast.ExprComma:
		var last ir.TypedRef
		for _, op := range n.Operands {
			e, ok := op.(*kast.ExprNode)
			if !ok {
				return ir.TypedRef{}, kerr.New(kerr.InternalError, "comma operand must be an expression")
			}
			ref, err := t.translateExpr(b, e)
			if err != nil {
				return ir.TypedRef{}, err
			}
			last = ref
		}
		return last, nil

	case kast.ExprCall:
		if len(n.Operands) == 0 {
			return ir.TypedRef{}, kerr.New(kerr.InternalError, "call expression has no callee")
		}
		callee, ok := n.Operands[0].(*kast.ExprNode)
		if !ok || callee.Kind != kast.ExprIdentifier {
			return ir.TypedRef{}, kerr.New(kerr.NotImplemented, "translator only lowers direct calls to a named function")
		}
		for _, arg := range n.Operands[1:] {
			e, ok := arg.(*kast.ExprNode)
			if !ok {
				return ir.TypedRef{}, kerr.New(kerr.InternalError, "call argument must be an expression")
			}
			if _, err := t.translateExpr(b, e); err != nil {
				return ir.TypedRef{}, err
			}
		}
		name := t.Module.Strings.Get(callee.Name)
		return b.Emit(ir.Instr{Op: ir.OpCall, CallFunc: name, CallArgc: len(n.Operands) - 1, Type: p.Type}), nil

	default:
		return ir.TypedRef{}, kerr.New(kerr.NotImplemented, fmt.Sprintf("translator does not yet lower expression kind %d", n.Kind))
	}
}

func binaryOpcode(op string) (ir.Opcode, error) {
	switch op {
	case "+":
		return ir.OpIAdd, nil
	case "-":
		return ir.OpISub, nil
	case "*":
		return ir.OpIMul, nil
	case "/":
		return ir.OpIDiv, nil
	case "%":
		return ir.OpIMod, nil
	case "&":
		return ir.OpAnd, nil
	case "|":
		return ir.OpOr, nil
	case "^":
		return ir.OpXor, nil
	case "<<":
		return ir.OpShl, nil
	case ">>":
		return ir.OpShr, nil
	case "==":
		return ir.OpCmpEq, nil
	case "!=":
		return ir.OpCmpNe, nil
	case "<":
		return ir.OpCmpLt, nil
	case "<=":
		return ir.OpCmpLe, nil
	case ">":
		return ir.OpCmpGt, nil
	case ">=":
		return ir.OpCmpGe, nil
	default:
		return 0, kerr.New(kerr.NotImplemented, fmt.Sprintf("translator does not lower binary operator %q", op))
	}
}

func unaryOpcode(op string) (ir.Opcode, error) {
	switch op {
	case "-":
		return ir.OpNeg, nil
	case "~":
		return ir.OpBitNot, nil
	case "!":
		return ir.OpNot, nil
	default:
		return 0, kerr.New(kerr.NotImplemented, fmt.Sprintf("translator does not lower unary operator %q", op))
	}
}

// translateTypeconv implements spec.md §4.3's translate_typeconv rule
// table: dispatch on (source scalar kind, destination scalar kind).
// Struct/union/array conversions (never implicit in C) are rejected as
// InternalError; pointer<->integer conversions are represented as plain
// bit reinterpretation (no opcode emitted) since this port's IrType does
// not distinguish pointer provenance at the scalar level.
func (t *Translator) translateTypeconv(b *ir.Builder, from, to kir.TypeID) (ir.TypedRef, error) {
	if from == to {
		return ir.TypedRef{}, nil
	}
	fromEntry := t.Module.Types.Get(from)
	toEntry := t.Module.Types.Get(to)
	if len(fromEntry) == 0 || len(toEntry) == 0 || fromEntry[0].Kind != kir.EntryScalar || toEntry[0].Kind != kir.EntryScalar {
		return ir.TypedRef{}, kerr.New(kerr.InternalError, "translateTypeconv only supports scalar-to-scalar conversions")
	}
	fk, tk := fromEntry[0].Scalar, toEntry[0].Scalar

	isFloat := func(k kir.ScalarKind) bool { return k == kir.ScalarFloat32 || k == kir.ScalarFloat64 }
	isInt := func(k kir.ScalarKind) bool {
		return k == kir.ScalarInt8 || k == kir.ScalarInt16 || k == kir.ScalarInt32 || k == kir.ScalarInt64 || k == kir.ScalarBool
	}
	widthOf := func(k kir.ScalarKind) int {
		switch k {
		case kir.ScalarInt8, kir.ScalarBool:
			return 8
		case kir.ScalarInt16:
			return 16
		case kir.ScalarInt32:
			return 32
		case kir.ScalarInt64, kir.ScalarPointer:
			return 64
		}
		return 0
	}

	switch {
	case (isInt(fk) || fk == kir.ScalarPointer) && tk == kir.ScalarBool:
		// Conversion to _Bool compares against zero rather than truncating.
		return b.Emit(ir.Instr{Op: ir.OpIntToBoolCmp, Type: to}), nil

	case isFloat(fk) && tk == kir.ScalarBool:
		return b.Emit(ir.Instr{Op: ir.OpFloatToBoolCmp, Type: to}), nil

	case isInt(fk) && isFloat(tk):
		op := ir.OpIntToFloat64
		if tk == kir.ScalarFloat32 {
			op = ir.OpIntToFloat32
		}
		return b.Emit(ir.Instr{Op: op, Type: to}), nil

	case isFloat(fk) && isInt(tk):
		op := ir.OpFloat64ToInt
		if fk == kir.ScalarFloat32 {
			op = ir.OpFloat32ToInt
		}
		return b.Emit(ir.Instr{Op: op, Type: to}), nil

	case isFloat(fk) && isFloat(tk):
		// float32<->float64: represented as a no-op widen/narrow pair; the
		// Opt IR's fold pass (internal/opt/fold.go) resolves the exact
		// rounding at constant-fold time. Codegen handles the runtime case.
		return b.Emit(ir.Instr{Op: ir.OpIntToFloat64, Type: to}), nil

	case isInt(fk) && isInt(tk):
		fw, tw := widthOf(fk), widthOf(tk)
		switch {
		case tw > fw:
			return b.Emit(ir.Instr{Op: ir.OpSignExtend, Type: to}), nil
		case tw < fw:
			return b.Emit(ir.Instr{Op: ir.OpTruncate, Type: to}), nil
		default:
			return ir.TypedRef{}, nil
		}

	case fk == kir.ScalarPointer || tk == kir.ScalarPointer:
		return ir.TypedRef{}, nil // bit-reinterpretation, no opcode needed

	default:
		return ir.TypedRef{}, kerr.New(kerr.NotImplemented, "unsupported scalar conversion pair")
	}
}
