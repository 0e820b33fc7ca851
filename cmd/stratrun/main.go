// Package main provides stratrun, a thin command-line harness that
// compiles a strategy document and drives it against a CSV bar file
// through the FSM runtime engine, printing one line for each bar on which
// a transition fires. It exists to exercise internal/compiler and internal/runtime
// end to end; it is not a production trading service.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-desktop/stratcore/internal/broker"
	"github.com/atlas-desktop/stratcore/internal/compiler"
	"github.com/atlas-desktop/stratcore/internal/runtime"
	"github.com/atlas-desktop/stratcore/internal/runtimecfg"
	"github.com/atlas-desktop/stratcore/internal/telemetry"
	"github.com/atlas-desktop/stratcore/pkg/bar"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	docPath := flag.String("doc", "", "path to the strategy document (YAML)")
	barsPath := flag.String("bars", "", "path to a CSV bar file (timestamp,open,high,low,close,volume)")
	configPath := flag.String("config", "", "path to a runtime config file (optional)")
	symbol := flag.String("symbol", "SYMBOL", "symbol label used for snapshot/telemetry keys")
	replay := flag.Bool("replay", false, "run in replay mode (suppress broker calls)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	if *docPath == "" || *barsPath == "" {
		logger.Fatal("both -doc and -bars are required")
	}

	cfg, err := runtimecfg.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load runtime config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid runtime config", zap.Error(err))
	}

	docBytes, err := os.ReadFile(*docPath)
	if err != nil {
		logger.Fatal("failed to read strategy document", zap.Error(err))
	}

	result, err := compiler.Compile(string(docBytes))
	if err != nil {
		logger.Fatal("failed to compile strategy document", zap.Error(err))
	}
	for _, w := range result.Warnings {
		logger.Warn("compiler warning", zap.String("message", w.Error()))
	}

	bars, err := loadBarsCSV(*barsPath)
	if err != nil {
		logger.Fatal("failed to load bar file", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	env := broker.Env{
		AccountID:            cfg.Engine.AccountID,
		DryRun:               cfg.Engine.DryRun,
		AllowLiveOrders:      cfg.Engine.AllowLiveOrders,
		PerSymbolOrderCap:    cfg.Engine.PerSymbolOrderCap,
		MaxOrderQty:          cfg.Engine.MaxOrderQty,
		MaxNotionalPerSymbol: decimal.NewFromFloat(cfg.Engine.MaxNotionalPerSymbol),
		DailyLossLimit:       decimal.NewFromFloat(cfg.Engine.DailyLossLimit),
	}
	paperBroker := broker.NewPaperBroker(logger)

	engineCfg := runtime.Config{
		HistoryCapacity: cfg.Engine.HistoryCapacity,
		LogCapacity:     cfg.Engine.LogCapacity,
		Replay:          *replay || cfg.Engine.Replay,
	}
	engine := runtime.New(result.IR, result.Registry, paperBroker, env, engineCfg, logger)
	defer engine.Shutdown()

	store, err := runtime.NewFileSnapshotStore(cfg.Engine.SnapshotDir)
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.Error(err))
	}

	ctx := context.Background()
	for _, b := range bars {
		outcome := engine.ProcessBar(ctx, b)

		obs := telemetry.Observation{Strategy: *docPath, Symbol: *symbol}
		for _, l := range outcome.Logs {
			switch l.Kind {
			case runtime.LogOutOfOrderBar:
				obs.OutOfOrder = true
			case runtime.LogFeatureError:
				obs.FeatureFailures = append(obs.FeatureFailures, l.Message)
			case runtime.LogDegradedFeature:
				obs.DegradedNames = append(obs.DegradedNames, l.Message)
			case runtime.LogBrokerError:
				obs.BrokerFailures = append(obs.BrokerFailures, l.Message)
			}
		}
		if outcome.TransitionFired != nil {
			obs.TransitionFrom = string(outcome.TransitionFired.From)
			obs.TransitionTo = string(outcome.TransitionFired.To)
		}
		metrics.Record(obs)

		if outcome.TransitionFired != nil {
			fmt.Printf("bar=%d %s -> %s actions=%d\n", b.Timestamp,
				outcome.TransitionFired.From, outcome.TransitionFired.To, len(outcome.ActionsEmitted))
		}
	}

	if err := store.Save(*symbol, engine.Snapshot()); err != nil {
		logger.Error("failed to persist snapshot", zap.Error(err))
	}
}

// loadBarsCSV reads a headerless CSV of
// timestamp,open,high,low,close,volume rows, in ascending timestamp
// order, into a slice of bar.Bar.
func loadBarsCSV(path string) ([]bar.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	var bars []bar.Bar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading bar row: %w", err)
		}
		b, err := parseBarRow(rec)
		if err != nil {
			return nil, err
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseBarRow(rec []string) (bar.Bar, error) {
	ts, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return bar.Bar{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	fields := make([]float64, 5)
	for i, raw := range rec[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return bar.Bar{}, fmt.Errorf("parsing field %q: %w", raw, err)
		}
		fields[i] = v
	}
	return bar.Bar{
		Timestamp: ts,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
