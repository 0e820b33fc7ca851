package compiler

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Size bounds enforced during schema validation. These exist to keep a
// compiled strategy within the same order of magnitude the runtime
// engine is designed for; a document that needs more than this is almost
// certainly malformed.
const (
	maxFeatures    = 64
	maxOrderPlans  = 64
	maxStates      = 32
	maxTransitions = 256
	maxBrackets    = 8
)

var validTimeframes = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true, "1w": true, "1mo": true,
}

var canonicalStates = map[string]bool{
	"IDLE": true, "ARMED": true, "PLACED": true, "MANAGING": true, "EXITED": true,
}

// parseAndValidateSchema decodes text strictly (unknown keys are hard
// errors) and checks every required-field and size-bound rule.
func parseAndValidateSchema(text string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaError{Field: "document", Message: fmt.Sprintf("decode failed: %v", err)}
	}

	if doc.Meta.Name == "" {
		return nil, &SchemaError{Field: "meta.name", Message: "required"}
	}
	if doc.Symbol == "" {
		return nil, &SchemaError{Field: "symbol", Message: "required"}
	}
	if !validTimeframes[doc.Timeframe] {
		return nil, &SchemaError{Field: "timeframe", Message: fmt.Sprintf("must be one of the declared timeframes, got %q", doc.Timeframe)}
	}
	if len(doc.Features) > maxFeatures {
		return nil, &SchemaError{Field: "features", Message: fmt.Sprintf("exceeds maximum of %d declarations", maxFeatures)}
	}
	if len(doc.OrderPlans) == 0 {
		return nil, &SchemaError{Field: "orderPlans", Message: "at least one order plan is required"}
	}
	if len(doc.OrderPlans) > maxOrderPlans {
		return nil, &SchemaError{Field: "orderPlans", Message: fmt.Sprintf("exceeds maximum of %d", maxOrderPlans)}
	}
	if len(doc.States) > maxStates {
		return nil, &SchemaError{Field: "states", Message: fmt.Sprintf("exceeds maximum of %d", maxStates)}
	}
	if len(doc.Transitions) == 0 {
		return nil, &SchemaError{Field: "transitions", Message: "at least one transition is required"}
	}
	if len(doc.Transitions) > maxTransitions {
		return nil, &SchemaError{Field: "transitions", Message: fmt.Sprintf("exceeds maximum of %d", maxTransitions)}
	}

	for i, f := range doc.Features {
		if f.Name == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("features[%d].name", i), Message: "required"}
		}
		if f.Type != "indicator" && f.Type != "microstructure" {
			return nil, &SchemaError{Field: fmt.Sprintf("features[%d].type", i), Message: `must be "indicator" or "microstructure"`}
		}
	}
	for i, p := range doc.OrderPlans {
		if p.ID == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("orderPlans[%d].id", i), Message: "required"}
		}
		if p.Side != "buy" && p.Side != "sell" {
			return nil, &SchemaError{Field: fmt.Sprintf("orderPlans[%d].side", i), Message: `must be "buy" or "sell"`}
		}
		if p.Qty <= 0 {
			return nil, &SchemaError{Field: fmt.Sprintf("orderPlans[%d].qty", i), Message: "must be a positive integer"}
		}
		if len(p.Brackets) > maxBrackets {
			return nil, &SchemaError{Field: fmt.Sprintf("orderPlans[%d].brackets", i), Message: fmt.Sprintf("exceeds maximum of %d", maxBrackets)}
		}
	}
	for i, t := range doc.Transitions {
		if t.From == "" || t.To == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("transitions[%d]", i), Message: "from and to are required"}
		}
		if t.When == "" {
			return nil, &SchemaError{Field: fmt.Sprintf("transitions[%d].when", i), Message: "required"}
		}
	}

	return &doc, nil
}
