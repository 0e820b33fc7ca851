package runtimecfg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.HistoryCapacity != 260 {
		t.Errorf("HistoryCapacity = %d, want 260", cfg.Engine.HistoryCapacity)
	}
	if cfg.Compiler.MaxStates != 32 {
		t.Errorf("MaxStates = %d, want 32", cfg.Compiler.MaxStates)
	}
	if cfg.Engine.LogCapacity != 1024 {
		t.Errorf("LogCapacity = %d, want 1024", cfg.Engine.LogCapacity)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeTempYAML(t, `
engine:
  history_capacity: 500
  account_id: acct-1
  dry_run: false
compiler:
  max_states: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.HistoryCapacity != 500 {
		t.Errorf("HistoryCapacity = %d, want 500", cfg.Engine.HistoryCapacity)
	}
	if cfg.Engine.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want acct-1", cfg.Engine.AccountID)
	}
	if cfg.Compiler.MaxStates != 10 {
		t.Errorf("MaxStates = %d, want 10", cfg.Compiler.MaxStates)
	}
	// Untouched fields still hold their defaults.
	if cfg.Compiler.MaxFeatures != 64 {
		t.Errorf("MaxFeatures = %d, want 64 (default)", cfg.Compiler.MaxFeatures)
	}
}

func TestValidateRejectsLiveAndDryRunTogether(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.AllowLiveOrders = true
	cfg.Engine.DryRun = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for allow_live_orders + dry_run both set")
	}
}

func TestValidateRejectsMissingAccountID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.AccountID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty account_id")
	}
}

func TestValidateRejectsNonPositiveCompilerBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compiler.MaxTransitions = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max_transitions")
	}
}
