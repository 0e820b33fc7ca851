package features

import "github.com/atlas-desktop/stratcore/internal/expr"

// builtinNames enumerates the projections materialised directly from the
// current bar, before any indicator in the plan is evaluated.
var builtinNames = []string{"open", "high", "low", "close", "volume", "price"}

func registerBuiltins(r *Registry) {
	project := func(name string, f func(Context) float64) Descriptor {
		return Descriptor{
			Name: name,
			Kind: KindBuiltin,
			Type: expr.TypeNumber,
			Eval: func(c Context) (float64, error) { return f(c), nil },
		}
	}

	r.Register(project("open", func(c Context) float64 { return c.Bar.Open }))
	r.Register(project("high", func(c Context) float64 { return c.Bar.High }))
	r.Register(project("low", func(c Context) float64 { return c.Bar.Low }))
	r.Register(project("close", func(c Context) float64 { return c.Bar.Close }))
	r.Register(project("volume", func(c Context) float64 { return c.Bar.Volume }))
	r.Register(project("price", func(c Context) float64 { return c.Bar.Close })) // alias close
}

// IsBuiltin reports whether name is one of the bar projections that the
// pipeline materialises directly, bypassing Descriptor.Eval.
func IsBuiltin(name string) bool {
	for _, n := range builtinNames {
		if n == name {
			return true
		}
	}
	return false
}
