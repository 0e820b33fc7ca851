package expr

import "math"

// Value is the result of evaluating an expression: exactly one of Num or
// Bool is meaningful, selected by the expression's static type.
type Value struct {
	Num  float64
	Bool bool
}

func NumberValue(v float64) Value { return Value{Num: v} }
func BoolValue(v bool) Value      { return Value{Bool: v} }

// Eval evaluates e under env, a map from feature name to its current
// value, and types, the same feature-name-to-declared-Type table passed
// to TypeCheck. Arithmetic follows IEEE-754 double semantics: division by
// zero, NaN, and ±Inf propagate rather than panicking, and every
// comparison operator (other than '==' and '!=' between booleans) yields
// false when either operand is NaN. '&&' and '||' short-circuit: the
// right operand is not evaluated when the left already determines the
// result.
//
// Eval assumes e has already passed TypeCheck against types; a missing
// identifier is reported as an EvalError rather than silently defaulting.
func Eval(e Expr, env map[string]float64, types map[string]Type) (Value, error) {
	switch n := e.(type) {
	case *NumberLit:
		return NumberValue(n.Value), nil

	case *BoolLit:
		return BoolValue(n.Value), nil

	case *Ident:
		v, ok := env[n.Name]
		if !ok {
			return Value{}, &EvalError{Name: n.Name}
		}
		if types[n.Name] == TypeBoolean {
			return BoolValue(v != 0), nil
		}
		return NumberValue(v), nil

	case *Unary:
		switch n.Op {
		case UnaryNeg:
			x, err := Eval(n.X, env, types)
			if err != nil {
				return Value{}, err
			}
			return NumberValue(-x.Num), nil
		case UnaryNot:
			x, err := Eval(n.X, env, types)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(!x.Bool), nil
		}
		return Value{}, &TypeError{Offset: n.Offset, Message: "unrecognized unary operator"}

	case *Binary:
		return evalBinary(n, env, types)
	}
	return Value{}, &TypeError{Offset: e.Pos(), Message: "unrecognized expression node"}
}

func evalBinary(n *Binary, env map[string]float64, types map[string]Type) (Value, error) {
	switch n.Op {
	case OpAnd:
		x, err := Eval(n.X, env, types)
		if err != nil {
			return Value{}, err
		}
		if !x.Bool {
			return BoolValue(false), nil
		}
		y, err := Eval(n.Y, env, types)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(y.Bool), nil

	case OpOr:
		x, err := Eval(n.X, env, types)
		if err != nil {
			return Value{}, err
		}
		if x.Bool {
			return BoolValue(true), nil
		}
		y, err := Eval(n.Y, env, types)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(y.Bool), nil
	}

	x, err := Eval(n.X, env, types)
	if err != nil {
		return Value{}, err
	}
	y, err := Eval(n.Y, env, types)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case OpAdd:
		return NumberValue(x.Num + y.Num), nil
	case OpSub:
		return NumberValue(x.Num - y.Num), nil
	case OpMul:
		return NumberValue(x.Num * y.Num), nil
	case OpDiv:
		return NumberValue(x.Num / y.Num), nil
	case OpLt, OpLe, OpGt, OpGe:
		xf, yf := orderingOperands(n, x, y, types)
		switch n.Op {
		case OpLt:
			return BoolValue(xf < yf), nil
		case OpLe:
			return BoolValue(xf <= yf), nil
		case OpGt:
			return BoolValue(xf > yf), nil
		default:
			return BoolValue(xf >= yf), nil
		}
	case OpEq:
		return BoolValue(numEqOrBoolEq(n, x, y, types)), nil
	case OpNe:
		if !isBooleanOperand(n.X, types) && (math.IsNaN(x.Num) || math.IsNaN(y.Num)) {
			return BoolValue(false), nil
		}
		return BoolValue(!numEqOrBoolEq(n, x, y, types)), nil
	}
	return Value{}, &TypeError{Offset: n.Offset, Message: "unrecognized binary operator"}
}

// numEqOrBoolEq handles '==' across both number and boolean operands: the
// type checker has already guaranteed X and Y share a type, so inspecting
// X's AST shape (and, for identifiers, its declared type) tells us which
// field of Value to compare. Number equality is false when either operand
// is NaN (so NaN == NaN is false); '!=' handles its own NaN case in
// evalBinary so that it is false as well.
func numEqOrBoolEq(n *Binary, x, y Value, types map[string]Type) bool {
	if isBooleanOperand(n.X, types) {
		return x.Bool == y.Bool
	}
	if math.IsNaN(x.Num) || math.IsNaN(y.Num) {
		return false
	}
	return x.Num == y.Num
}

// orderingOperands extracts the two operands of a '<' '<=' '>' '>='
// comparison as floats, treating a boolean operand's false/true as 0/1 so
// the same ordering arithmetic below serves both number and boolean
// comparisons (the type checker guarantees X and Y share a type).
func orderingOperands(n *Binary, x, y Value, types map[string]Type) (float64, float64) {
	if isBooleanOperand(n.X, types) {
		return boolToFloat(x.Bool), boolToFloat(y.Bool)
	}
	return x.Num, y.Num
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isBooleanOperand(e Expr, types map[string]Type) bool {
	switch n := e.(type) {
	case *BoolLit:
		return true
	case *Ident:
		return types[n.Name] == TypeBoolean
	case *Unary:
		return n.Op == UnaryNot
	case *Binary:
		switch n.Op {
		case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe, OpAnd, OpOr:
			return true
		}
	}
	return false
}
