package expr

import "fmt"

// ParseError reports a lexical or syntactic failure, with the character
// offset into the source text where it was detected.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// TypeError reports a static type-checking failure.
type TypeError struct {
	Offset  int
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error at offset %d: %s", e.Offset, e.Message)
}

// UnknownFeatureError reports a reference to an identifier not present in
// the feature-type table supplied to TypeCheck.
type UnknownFeatureError struct {
	Offset int
	Name   string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q at offset %d", e.Name, e.Offset)
}

// EvalError indicates an identifier unexpectedly missing from the value
// environment at evaluation time — a compiler bug, never a user error,
// since type-checking guarantees every identifier resolves.
type EvalError struct {
	Name string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error: missing value for feature %q", e.Name)
}
