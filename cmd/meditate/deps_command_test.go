package main

import (
	"encoding/json"
	"testing"
)

func TestDepsCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "deps", "--json")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	var report depsReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !report.Ready {
		t.Fatalf("expected ready report, got %+v", report)
	}
	if len(report.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(report.Dependencies))
	}
}

func TestDepsCommandText(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", "/nonexistent")

	out, _, err := runCLI(t, env.configPath, "deps")
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "Missing dependencies")
	requireContains(t, out, "== Preflight ==")
}
