// Package compiler turns a YAML strategy document into an immutable
// CompiledIR: schema validation, feature-table collection, guard
// type-checking, sugar lowering, FSM and order-plan validation, feature
// plan ordering, and deterministic IR emission.
package compiler

import (
	"fmt"
	"sort"

	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/internal/features"
	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// Result is everything Compile produces: the IR itself, the feature
// registry it was compiled against (needed by the runtime engine to
// evaluate ir.FeaturePlan), and any non-fatal warnings.
type Result struct {
	IR       *ir.CompiledIR
	Registry *features.Registry
	Warnings []Warning
}

// Compile runs the full eight-stage pipeline over text and returns a
// Result, or the first fatal error encountered. No partial IR is ever
// returned alongside an error.
func Compile(text string) (*Result, error) {
	// Stage 1: parse/validate schema.
	doc, err := parseAndValidateSchema(text)
	if err != nil {
		return nil, err
	}

	// Stage 2: collect feature table.
	registry, featureTypes, err := buildFeatureTable(doc)
	if err != nil {
		return nil, err
	}

	// Stage 4: lower invalidate_when / invalidate_when_any sugar into
	// synthetic transitions, appended after the document's own. Run before
	// stage 3 so lowered guards are type-checked too.
	synthetic := lowerSugar(doc)
	allTransitionDocs := append(append([]DocTransition{}, doc.Transitions...), synthetic...)

	// Stage 3: parse and type-check every guard expression.
	parsedGuards := make([]expr.Expr, len(allTransitionDocs))
	for i, t := range allTransitionDocs {
		e, err := expr.Parse(t.When)
		if err != nil {
			return nil, err
		}
		ty, err := expr.TypeCheck(e, featureTypes)
		if err != nil {
			return nil, err
		}
		if ty != expr.TypeBoolean {
			return nil, &expr.TypeError{Offset: e.Pos(), Message: fmt.Sprintf("transition guard must be boolean, got %s", ty)}
		}
		parsedGuards[i] = e
	}

	// Stage 5: validate FSM structure (uses the post-lowering transition set).
	warnings, err := validateFSMStructure(doc, allTransitionDocs)
	if err != nil {
		return nil, err
	}

	// Stage 6: validate order plans.
	plans, err := validateAndBuildOrderPlans(doc.OrderPlans)
	if err != nil {
		return nil, err
	}

	// Build IR transitions, now that planId references can be checked.
	transitionsByState := make(map[ir.StrategyState][]ir.Transition)
	for i, t := range allTransitionDocs {
		actions, err := buildActions(t.Actions, plans)
		if err != nil {
			return nil, err
		}
		from := ir.StrategyState(t.From)
		transitionsByState[from] = append(transitionsByState[from], ir.Transition{
			From:    from,
			To:      ir.StrategyState(t.To),
			When:    parsedGuards[i],
			Actions: actions,
		})
	}

	// Stage 7: build the feature plan — union of every identifier
	// referenced by any guard, topologically sorted.
	roots := map[string]struct{}{}
	for _, e := range parsedGuards {
		for name := range expr.FreeIdentifiers(e) {
			roots[name] = struct{}{}
		}
	}
	rootList := make([]string, 0, len(roots))
	for name := range roots {
		rootList = append(rootList, name)
	}
	sort.Strings(rootList)

	plan, err := registry.TopoSort(rootList)
	if err != nil {
		return nil, err
	}

	// Stage 8: emit IR.
	compiled := &ir.CompiledIR{
		Symbol:       doc.Symbol,
		Timeframe:    doc.Timeframe,
		InitialState: ir.StateIdle,
		FeaturePlan:  plan,
		FeatureTypes: featureTypes,
		OrderPlans:   plans,
		Transitions:  transitionsByState,
		Meta:         ir.Meta{Name: doc.Meta.Name, Version: doc.Meta.Version},
	}

	return &Result{IR: compiled, Registry: registry, Warnings: warnings}, nil
}
