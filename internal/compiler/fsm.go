package compiler

import (
	"fmt"

	"github.com/atlas-desktop/stratcore/pkg/ir"
)

// validateFSMStructure checks every from/to state is declared or
// canonical, rejects unapproved self-loops, and returns an
// UnreachableTerminalWarning for any non-terminal state that cannot
// reach EXITED.
func validateFSMStructure(doc *Document, transitions []DocTransition) ([]Warning, error) {
	declared := map[string]bool{}
	for k := range canonicalStates {
		declared[k] = true
	}
	for _, s := range doc.States {
		declared[s.Name] = true
	}

	for i, t := range transitions {
		if !declared[t.From] {
			return nil, &SchemaError{Field: fmt.Sprintf("transitions[%d].from", i), Message: fmt.Sprintf("state %q is not declared", t.From)}
		}
		if !declared[t.To] {
			return nil, &SchemaError{Field: fmt.Sprintf("transitions[%d].to", i), Message: fmt.Sprintf("state %q is not declared", t.To)}
		}
		if t.From == t.To && !t.AllowSelfLoop {
			return nil, &SchemaError{Field: fmt.Sprintf("transitions[%d]", i), Message: fmt.Sprintf("self-loop on %q requires allowSelfLoop: true", t.From)}
		}
	}

	adjacency := map[string][]string{}
	for _, t := range transitions {
		adjacency[t.From] = append(adjacency[t.From], t.To)
	}

	var warnings []Warning
	for state := range declared {
		if state == string(ir.StateExited) {
			continue
		}
		if !reaches(adjacency, state, map[string]bool{}) {
			warnings = append(warnings, &UnreachableTerminalWarning{State: state})
		}
	}

	return warnings, nil
}

func reaches(adjacency map[string][]string, from string, seen map[string]bool) bool {
	if from == string(ir.StateExited) {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, to := range adjacency[from] {
		if reaches(adjacency, to, seen) {
			return true
		}
	}
	return false
}
