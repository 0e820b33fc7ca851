// Package features implements the feature registry and evaluation
// pipeline: built-in bar projections, technical indicators, and pattern
// detectors, registered by name with declared dependencies and
// topologically ordered for per-bar evaluation.
package features

import (
	"fmt"

	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/pkg/bar"
)

// Kind tags the variant of a Descriptor.
type Kind int

const (
	KindBuiltin Kind = iota
	KindIndicator
	KindMicrostructure
)

// Context is the per-bar evaluation environment handed to every
// Descriptor's Eval function: the current bar, the ordered history of
// prior bars (oldest first, current bar not yet included), and the values
// already computed earlier in the plan for this bar.
type Context struct {
	Bar     bar.Bar
	History []bar.Bar
	Values  map[string]float64
}

// Descriptor is a named, typed, pure computation over a Context. Eval
// must be deterministic given identical (History, Bar, Values) and must
// never retain hidden state across calls — any smoothing state an
// indicator needs is recomputed from History on every call.
type Descriptor struct {
	Name    string
	Kind    Kind
	Type    expr.Type
	Deps    []string
	Eval    func(Context) (float64, error)
}

// CycleDetectedError reports a cycle found while ordering a requested
// feature set.
type CycleDetectedError struct {
	Name string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected in feature dependency graph at %q", e.Name)
}

// UnknownFeatureError reports a reference (as a dependency or a requested
// root) to a name the registry has no Descriptor for.
type UnknownFeatureError struct {
	Name string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q", e.Name)
}

// Registry stores feature descriptors by name. It is read-only after
// construction finishes and may be shared freely across Engines.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry builds a Registry pre-populated with every built-in and
// every indicator this package provides.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	registerBuiltins(r)
	registerIndicators(r)
	return r
}

// Register adds or replaces a Descriptor. Intended for test fixtures and
// for document-declared indicator configurations the compiler expands
// into concrete descriptors (e.g. "sma20" -> SMA(period=20)).
func (r *Registry) Register(d Descriptor) {
	r.descriptors[d.Name] = d
}

// Lookup returns the Descriptor registered under name, if any.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Enumerate returns every registered feature name in no particular order.
func (r *Registry) Enumerate() []string {
	out := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		out = append(out, name)
	}
	return out
}

// TopoSort returns a deterministic, dependency-ordered plan covering every
// name in roots plus their transitive dependencies: for any i < j in the
// result, result[i] is not a (transitive) dependent of result[j]. roots
// are visited in the order given, and each descriptor's Deps are visited
// in declaration order, so the result is stable across calls given the
// same roots and registry contents.
func (r *Registry) TopoSort(roots []string) ([]string, error) {
	var (
		order    []string
		visited  = make(map[string]int) // 0=unvisited, 1=visiting, 2=done
	)

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return &CycleDetectedError{Name: name}
		}
		d, ok := r.descriptors[name]
		if !ok {
			return &UnknownFeatureError{Name: name}
		}
		visited[name] = 1
		for _, dep := range d.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}
