package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBenchCmdDefaultsCellProtocols(t *testing.T) {
	resultsDir := t.TempDir()

	args := append([]string{
		"bench",
		"--preset", "cell",
		"--episodes", "2",
		"--seed", "1",
	}, quietFlags(resultsDir)...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	if !strings.Contains(out, "benchmark completed run_id=") {
		t.Fatalf("missing completion line: %q", out)
	}
	if !strings.Contains(out, "episodes=2") {
		t.Fatalf("missing episode count: %q", out)
	}
	winner := extractValue(t, out, "winner=")
	if winner == "" {
		t.Fatalf("missing winner: %q", out)
	}
	for _, protocol := range []string{"rest", "slow-charge", "fast-charge", "break-in"} {
		if !strings.Contains(out, "protocol="+protocol+" ") {
			t.Fatalf("missing stats for %s: %q", protocol, out)
		}
	}
	if n := strings.Count(out, "\nprotocol="); n != 4 {
		t.Fatalf("expected 4 protocol lines, got %d: %q", n, out)
	}

	dir := extractValue(t, out, "artifacts_dir=")
	for _, name := range []string{"benchmark_series.csv", "yield_curves.csv"} {
		if _, statErr := os.Stat(filepath.Join(dir, name)); statErr != nil {
			t.Fatalf("missing artifact %s: %v", name, statErr)
		}
	}
}

func TestBenchCmdHonorsExplicitProtocols(t *testing.T) {
	resultsDir := t.TempDir()

	args := append([]string{
		"bench",
		"--preset", "solvent",
		"--protocols", "always-heat,ramp-hold",
		"--episodes", "2",
		"--seed", "4",
	}, quietFlags(resultsDir)...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}

	if n := strings.Count(out, "\nprotocol="); n != 2 {
		t.Fatalf("expected 2 protocol lines, got %d: %q", n, out)
	}
	if strings.Contains(out, "protocol=pulse-quench") {
		t.Fatalf("unrequested protocol present: %q", out)
	}
}
