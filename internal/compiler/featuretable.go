package compiler

import (
	"fmt"

	"github.com/atlas-desktop/stratcore/internal/expr"
	"github.com/atlas-desktop/stratcore/internal/features"
)

// buildFeatureTable constructs the registry this compilation will use
// (the shared defaults plus every document-declared configuration) and
// the featureName -> type map needed by type-checking. Collisions
// between a declared name and a built-in, or between two declared
// features, are schema errors.
func buildFeatureTable(doc *Document) (*features.Registry, map[string]expr.Type, error) {
	r := features.NewRegistry()
	types := make(map[string]expr.Type)
	for _, name := range r.Enumerate() {
		d, _ := r.Lookup(name)
		types[name] = d.Type
	}

	declared := make(map[string]bool)
	for i, f := range doc.Features {
		if features.IsBuiltin(f.Name) {
			return nil, nil, &SchemaError{Field: fmt.Sprintf("features[%d].name", i), Message: fmt.Sprintf("%q collides with a built-in feature", f.Name)}
		}
		if declared[f.Name] {
			return nil, nil, &SchemaError{Field: fmt.Sprintf("features[%d].name", i), Message: fmt.Sprintf("duplicate declaration of %q", f.Name)}
		}
		declared[f.Name] = true

		d, err := buildDescriptor(f)
		if err != nil {
			return nil, nil, err
		}
		r.Register(d)
		types[f.Name] = d.Type
	}

	return r, types, nil
}

func param(f DocFeature, key string, def float64) float64 {
	if v, ok := f.Params[key]; ok {
		return v
	}
	return def
}

// buildDescriptor expands one document feature declaration into a
// concrete Descriptor via the matching features.New*Descriptor
// constructor.
func buildDescriptor(f DocFeature) (features.Descriptor, error) {
	period := int(param(f, "period", 14))
	window := int(param(f, "window", 20))
	lookback := int(param(f, "lookback", 20))
	kPeriod := int(param(f, "kPeriod", 14))
	dPeriod := int(param(f, "dPeriod", 3))
	k := param(f, "k", 2)

	switch f.Kind {
	case "sma":
		return features.NewSMADescriptor(f.Name, period), nil
	case "ema":
		return features.NewEMADescriptor(f.Name, period), nil
	case "rsi":
		return features.NewRSIDescriptor(f.Name, period), nil
	case "macdLine":
		return features.NewMACDLineDescriptor(f.Name), nil
	case "macdSignal":
		return features.NewMACDSignalDescriptor(f.Name), nil
	case "macdHist":
		return features.NewMACDHistDescriptor(f.Name), nil
	case "bbUpper":
		return features.NewBollingerUpperDescriptor(f.Name, period, k), nil
	case "bbMiddle":
		return features.NewBollingerMiddleDescriptor(f.Name, period, k), nil
	case "bbLower":
		return features.NewBollingerLowerDescriptor(f.Name, period, k), nil
	case "atr":
		return features.NewATRDescriptor(f.Name, period), nil
	case "adx":
		return features.NewADXDescriptor(f.Name, period), nil
	case "stochK":
		return features.NewStochasticKDescriptor(f.Name, kPeriod, dPeriod), nil
	case "stochD":
		return features.NewStochasticDDescriptor(f.Name, kPeriod, dPeriod), nil
	case "cci":
		return features.NewCCIDescriptor(f.Name, period), nil
	case "williamsR":
		return features.NewWilliamsRDescriptor(f.Name, period), nil
	case "obv":
		return features.NewOBVDescriptor(f.Name), nil
	case "vwap":
		return features.NewVWAPDescriptor(f.Name), nil
	case "rangeHigh":
		return features.NewRollingRangeHighDescriptor(f.Name, window), nil
	case "rangeLow":
		return features.NewRollingRangeLowDescriptor(f.Name, window), nil
	case "rangeMid":
		return features.NewRollingRangeMidDescriptor(f.Name, window), nil
	case "smaRising":
		return features.NewSMARisingDescriptor(f.Name, period, lookback), nil
	case "hi52w":
		return features.NewFiftyTwoWeekHighDescriptor(f.Name), nil
	case "lo52w":
		return features.NewFiftyTwoWeekLowDescriptor(f.Name), nil
	case "cupAndHandle":
		return features.NewCupAndHandleDescriptor(f.Name), nil
	default:
		return features.Descriptor{}, &SchemaError{Field: "features[].kind", Message: fmt.Sprintf("unknown indicator kind %q", f.Kind)}
	}
}
