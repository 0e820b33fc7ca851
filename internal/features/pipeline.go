package features

import (
	"fmt"
	"math"

	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/pkg/bar"
)

// EvalFailure records one feature whose evaluator returned an error or
// panicked while producing a bar's feature map. The feature's value is
// recorded as NaN (or false, for booleans) and evaluation of the
// remaining plan continues.
type EvalFailure struct {
	Name string
	Err  error
}

// Evaluate runs plan (a topologically ordered, deterministic list of
// feature names, built-ins included) against the given bar and prior
// history, writing each result into values. Built-in names are
// materialised directly from b rather than through their Descriptor,
// matching the contract that they require no computation. Any indicator
// whose Eval function errors or panics is recorded as a failure and its
// value set to NaN (0, i.e. false, for a boolean-typed feature); a name
// missing from the registry is recorded as NaN. Evaluation of later
// features in the plan still
// proceeds, since later features may not transitively depend on the
// failed one.
func Evaluate(r *Registry, plan []string, b bar.Bar, history []bar.Bar, values map[string]float64) []EvalFailure {
	var failures []EvalFailure

	for _, name := range plan {
		if IsBuiltin(name) {
			values[name] = builtinValue(name, b)
			continue
		}

		d, ok := r.Lookup(name)
		if !ok {
			failures = append(failures, EvalFailure{Name: name, Err: &UnknownFeatureError{Name: name}})
			values[name] = math.NaN()
			continue
		}

		v, err := safeEval(d, Context{Bar: b, History: history, Values: values})
		if err != nil {
			failures = append(failures, EvalFailure{Name: name, Err: err})
			if d.Type == expr.TypeBoolean {
				values[name] = 0
			} else {
				values[name] = math.NaN()
			}
			continue
		}
		values[name] = v
	}
	return failures
}

func builtinValue(name string, b bar.Bar) float64 {
	switch name {
	case "open":
		return b.Open
	case "high":
		return b.High
	case "low":
		return b.Low
	case "close", "price":
		return b.Close
	case "volume":
		return b.Volume
	}
	return math.NaN()
}

// safeEval invokes d.Eval, converting a panic into an error so a single
// defective indicator cannot bring down an Engine's bar processing.
func safeEval(d Descriptor, c Context) (v float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("feature %q panicked: %v", d.Name, rec)
		}
	}()
	return d.Eval(c)
}
