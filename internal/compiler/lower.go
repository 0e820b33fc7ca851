package compiler

// lowerSugar rewrites invalidate_when / invalidate_when_any entries
// attached to doc.States into synthetic transitions targeting EXITED,
// appended after the document's own declared transitions so explicit
// transitions keep priority under first-true-guard-wins. The lowered
// action set follows the source state: ARMED/PLACED cancel open
// entries, MANAGING closes the position.
func lowerSugar(doc *Document) []DocTransition {
	var synthetic []DocTransition

	for _, state := range doc.States {
		actions := actionsForInvalidation(state.Name)

		if state.InvalidateWhen != "" {
			synthetic = append(synthetic, DocTransition{
				From:    state.Name,
				To:      "EXITED",
				When:    state.InvalidateWhen,
				Actions: actions,
			})
		}
		for _, when := range state.InvalidateWhenAny {
			synthetic = append(synthetic, DocTransition{
				From:    state.Name,
				To:      "EXITED",
				When:    when,
				Actions: actions,
			})
		}
	}

	return synthetic
}

func actionsForInvalidation(state string) []DocAction {
	switch state {
	case "ARMED", "PLACED":
		return []DocAction{{Kind: "cancelOpenEntries"}}
	case "MANAGING":
		return []DocAction{{Kind: "closePosition", Reason: "invalidated"}}
	default:
		return nil
	}
}
