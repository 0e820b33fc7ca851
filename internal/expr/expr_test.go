package expr

import (
	"errors"
	"math"
	"testing"
)

func mustParse(t *testing.T, text string) Expr {
	t.Helper()
	e, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return e
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"1 + 2 * 3", "+"},
		{"(1 + 2) * 3", "*"},
		{"a < b && c > d", "&&"},
		{"a < b || c > d && e == f", "||"},
	}
	for _, c := range cases {
		e := mustParse(t, c.text)
		b, ok := e.(*Binary)
		if !ok {
			t.Fatalf("Parse(%q): expected top-level Binary, got %T", c.text, e)
		}
		if b.Op.String() != c.want {
			t.Errorf("Parse(%q): top-level op = %q, want %q", c.text, b.Op.String(), c.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{"1 +", "(1 + 2", "1 2", "&&", ""}
	for _, text := range cases {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", text)
		}
	}
}

func TestTypeCheck(t *testing.T) {
	types := map[string]Type{"close": TypeNumber, "sma20": TypeNumber}

	ty, err := TypeCheck(mustParse(t, "close > sma20"), types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty != TypeBoolean {
		t.Errorf("got %v, want boolean", ty)
	}

	if _, err := TypeCheck(mustParse(t, "close + true"), types); err == nil {
		t.Error("expected type error mixing number and boolean")
	}

	var unk *UnknownFeatureError
	_, err = TypeCheck(mustParse(t, "rsi14 > 70"), types)
	if !errors.As(err, &unk) {
		t.Errorf("expected UnknownFeatureError, got %v", err)
	}
}

func TestEvalArithmeticAndNaN(t *testing.T) {
	env := map[string]float64{"a": 1, "b": 0}
	types := map[string]Type{"a": TypeNumber, "b": TypeNumber}
	v, err := Eval(mustParse(t, "a / b"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(v.Num, 1) {
		t.Errorf("1/0 = %v, want +Inf", v.Num)
	}

	env = map[string]float64{"x": math.NaN()}
	types = map[string]Type{"x": TypeNumber}
	for _, text := range []string{"x < 1", "x > 1", "x == 1", "x >= 1"} {
		v, err := Eval(mustParse(t, text), env, types)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", text, err)
		}
		if v.Bool {
			t.Errorf("%q with NaN operand = true, want false", text)
		}
	}
}

func TestEvalShortCircuit(t *testing.T) {
	env := map[string]float64{"a": 1}
	types := map[string]Type{"a": TypeNumber, "b": TypeNumber}
	// "b" is absent from env; && must not evaluate its right side once the
	// left side is false.
	v, err := Eval(mustParse(t, "a > 10 && b > 0"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Bool {
		t.Error("expected false")
	}

	v, err = Eval(mustParse(t, "a < 10 || b > 0"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Bool {
		t.Error("expected true")
	}
}

func TestEvalMissingIdentifier(t *testing.T) {
	_, err := Eval(mustParse(t, "missing > 1"), map[string]float64{}, map[string]Type{})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvalError, got %v", err)
	}
}

func TestEvalBooleanIdentifier(t *testing.T) {
	types := map[string]Type{"smaRising": TypeBoolean}

	env := map[string]float64{"smaRising": 1}
	v, err := Eval(mustParse(t, "smaRising"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Bool {
		t.Error("smaRising encoded as 1 should evaluate true")
	}

	v, err = Eval(mustParse(t, "!smaRising"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Bool {
		t.Error("!smaRising with smaRising true should evaluate false")
	}

	v, err = Eval(mustParse(t, "smaRising == true"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Bool {
		t.Error("smaRising == true with smaRising true should evaluate true")
	}

	env["smaRising"] = 0
	v, err = Eval(mustParse(t, "smaRising"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Bool {
		t.Error("smaRising encoded as 0 should evaluate false")
	}
}

func TestOrderingComparisonAcceptsSameTypedBooleans(t *testing.T) {
	types := map[string]Type{"smaRising": TypeBoolean, "rsiOverbought": TypeBoolean}

	ty, err := TypeCheck(mustParse(t, "smaRising > rsiOverbought"), types)
	if err != nil {
		t.Fatalf("unexpected type error ordering two boolean features: %v", err)
	}
	if ty != TypeBoolean {
		t.Errorf("got %v, want boolean", ty)
	}

	env := map[string]float64{"smaRising": 1, "rsiOverbought": 0}
	v, err := Eval(mustParse(t, "smaRising > rsiOverbought"), env, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Bool {
		t.Error("true > false should evaluate true")
	}

	if _, err := TypeCheck(mustParse(t, "smaRising > 1"), types); err == nil {
		t.Error("expected type error ordering a boolean against a number")
	}
}

func TestFreeIdentifiers(t *testing.T) {
	e := mustParse(t, "close > sma20 && rsi14 < 70")
	free := FreeIdentifiers(e)
	want := []string{"close", "sma20", "rsi14"}
	if len(free) != len(want) {
		t.Fatalf("got %d identifiers, want %d: %v", len(free), len(want), free)
	}
	for _, name := range want {
		if _, ok := free[name]; !ok {
			t.Errorf("missing identifier %q in %v", name, free)
		}
	}
}
