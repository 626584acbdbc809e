package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestRunsCmdEmptyIndex(t *testing.T) {
	resultsDir := t.TempDir()

	out, err := runCLI(t, append([]string{"runs"}, quietFlags(resultsDir)...)...)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "no runs found") {
		t.Fatalf("expected empty index message: %q", out)
	}
}

func TestRunsAndExportAfterWalk(t *testing.T) {
	resultsDir := t.TempDir()
	modelPath := writeStabilityModel(t)

	walkArgs := append([]string{
		"walk",
		"--oracle", modelPath,
		"--seed-formula", "BaHfS3",
		"--steps", "5",
		"--seed", "2",
	}, quietFlags(resultsDir)...)
	if _, err := runCLI(t, walkArgs...); err != nil {
		t.Fatalf("walk: %v", err)
	}

	out, err := runCLI(t, append([]string{"runs"}, quietFlags(resultsDir)...)...)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "run_id=") || !strings.Contains(out, "kind=walk") {
		t.Fatalf("index should list the walk: %q", out)
	}
	if !strings.Contains(out, "seed=2") {
		t.Fatalf("index should carry the seed: %q", out)
	}

	exportDir := filepath.Join(t.TempDir(), "exports")
	exportArgs := append([]string{
		"export",
		"--latest",
		"--out", exportDir,
	}, quietFlags(resultsDir)...)
	out, err = runCLI(t, exportArgs...)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "exported run_id=") {
		t.Fatalf("missing export confirmation: %q", out)
	}

	exported := extractValue(t, out, "to=")
	if _, statErr := os.Stat(filepath.Join(exported, "run_config.json")); statErr != nil {
		t.Fatalf("exported directory incomplete: %v", statErr)
	}
}

func TestExportCmdRequiresSelector(t *testing.T) {
	resultsDir := t.TempDir()

	_, err := runCLI(t, append([]string{"export"}, quietFlags(resultsDir)...)...)
	if err == nil || !strings.Contains(err.Error(), "run id or latest") {
		t.Fatalf("expected selector error, got %v", err)
	}

	args := append([]string{"export", "--run-id", "abc", "--latest"}, quietFlags(resultsDir)...)
	_, err = runCLI(t, args...)
	if err == nil || !strings.Contains(err.Error(), "either run id or latest") {
		t.Fatalf("expected mutual exclusion error, got %v", err)
	}
}

func TestRunsCmdHonorsLimit(t *testing.T) {
	resultsDir := t.TempDir()
	modelPath := writeStabilityModel(t)

	for seed := 0; seed < 3; seed++ {
		args := append([]string{
			"walk",
			"--oracle", modelPath,
			"--seed-formula", "BaHfS3",
			"--steps", "3",
			"--seed", strconv.Itoa(seed + 1),
		}, quietFlags(resultsDir)...)
		if _, err := runCLI(t, args...); err != nil {
			t.Fatalf("walk %d: %v", seed, err)
		}
	}

	out, err := runCLI(t, append([]string{"runs", "--limit", "2"}, quietFlags(resultsDir)...)...)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if n := strings.Count(out, "run_id="); n != 2 {
		t.Fatalf("expected 2 entries, got %d: %q", n, out)
	}
}
