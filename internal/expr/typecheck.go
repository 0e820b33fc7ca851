package expr

// TypeCheck walks e bottom-up, resolving each Ident against types (a map
// from feature name to its declared Type) and verifying every operator is
// applied to operands of the expected type. It returns the expression's
// result type or the first error encountered.
func TypeCheck(e Expr, types map[string]Type) (Type, error) {
	switch n := e.(type) {
	case *NumberLit:
		return TypeNumber, nil

	case *BoolLit:
		return TypeBoolean, nil

	case *Ident:
		t, ok := types[n.Name]
		if !ok {
			return TypeUnknown, &UnknownFeatureError{Offset: n.Offset, Name: n.Name}
		}
		return t, nil

	case *Unary:
		xt, err := TypeCheck(n.X, types)
		if err != nil {
			return TypeUnknown, err
		}
		switch n.Op {
		case UnaryNeg:
			if xt != TypeNumber {
				return TypeUnknown, &TypeError{Offset: n.Offset, Message: "unary '-' requires a number operand, got " + xt.String()}
			}
			return TypeNumber, nil
		case UnaryNot:
			if xt != TypeBoolean {
				return TypeUnknown, &TypeError{Offset: n.Offset, Message: "unary '!' requires a boolean operand, got " + xt.String()}
			}
			return TypeBoolean, nil
		}
		return TypeUnknown, &TypeError{Offset: n.Offset, Message: "unrecognized unary operator"}

	case *Binary:
		xt, err := TypeCheck(n.X, types)
		if err != nil {
			return TypeUnknown, err
		}
		yt, err := TypeCheck(n.Y, types)
		if err != nil {
			return TypeUnknown, err
		}
		return typeCheckBinary(n, xt, yt)
	}
	return TypeUnknown, &TypeError{Offset: e.Pos(), Message: "unrecognized expression node"}
}

func typeCheckBinary(n *Binary, xt, yt Type) (Type, error) {
	switch n.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if xt != TypeNumber || yt != TypeNumber {
			return TypeUnknown, &TypeError{Offset: n.Offset, Message: "'" + n.Op.String() + "' requires number operands, got " + xt.String() + " and " + yt.String()}
		}
		return TypeNumber, nil

	case OpLt, OpLe, OpGt, OpGe:
		if xt != yt {
			return TypeUnknown, &TypeError{Offset: n.Offset, Message: "'" + n.Op.String() + "' requires operands of the same type, got " + xt.String() + " and " + yt.String()}
		}
		return TypeBoolean, nil

	case OpEq, OpNe:
		if xt != yt {
			return TypeUnknown, &TypeError{Offset: n.Offset, Message: "'" + n.Op.String() + "' requires operands of the same type, got " + xt.String() + " and " + yt.String()}
		}
		return TypeBoolean, nil

	case OpAnd, OpOr:
		if xt != TypeBoolean || yt != TypeBoolean {
			return TypeUnknown, &TypeError{Offset: n.Offset, Message: "'" + n.Op.String() + "' requires boolean operands, got " + xt.String() + " and " + yt.String()}
		}
		return TypeBoolean, nil
	}
	return TypeUnknown, &TypeError{Offset: n.Offset, Message: "unrecognized binary operator"}
}
