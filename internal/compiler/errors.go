package compiler

import "fmt"

// SchemaError reports a structural failure in the input document: a
// missing required field, a malformed type, an unknown key, or a value
// out of bounds.
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %q: %s", e.Field, e.Message)
}

// InvalidOrderPlanError reports an OrderPlan that violates the bracket
// ratio sum or stop/entry ordering invariants.
type InvalidOrderPlanError struct {
	PlanID string
	Reason string
}

func (e *InvalidOrderPlanError) Error() string {
	return fmt.Sprintf("invalid order plan %q: %s", e.PlanID, e.Reason)
}

// UnreachableTerminalWarning is a non-fatal compile-time diagnostic: a
// state from which EXITED is not reachable through any transition.
type UnreachableTerminalWarning struct {
	State string
}

func (e *UnreachableTerminalWarning) Error() string {
	return fmt.Sprintf("state %q cannot reach EXITED", e.State)
}

// Warning is the interface satisfied by every non-fatal compile
// diagnostic.
type Warning interface {
	error
	warningNode()
}

func (*UnreachableTerminalWarning) warningNode() {}
