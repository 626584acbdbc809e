package stats

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"crucible/internal/model"
)

func TestWriteAndExportWalkArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	artifacts := WalkArtifacts{
		Config: RunConfig{
			RunID:         runID,
			Kind:          KindWalk,
			Seed:          1,
			Oracle:        "stability-linear",
			StartFormulas: []string{"BaZrS3"},
			WalkSteps:     50,
		},
		Summary: WalkSummary{
			RunID:       runID,
			Oracle:      "stability-linear",
			Walkers:     1,
			BestFormula: "BaHfS3",
			BestScore:   0.42,
			PerSeed: []WalkSeedSummary{
				{Seed: 1, Steps: 50, Accepted: 31, BestFormula: "BaHfS3", BestScore: 0.42},
			},
		},
		Records: []model.WalkRecord{{
			ID:   "w1",
			Seed: 1,
			Steps: []model.WalkStep{
				{Step: 1, Formula: "BaHfS3", Score: 0.42, Accepted: true, Current: "BaHfS3", Best: "BaHfS3"},
			},
		}},
	}

	runDir, err := WriteWalkArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	for _, file := range []string{"run_config.json", "summary.json", "discovery_log.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}

	for _, file := range []string{"run_config.json", "summary.json", "discovery_log.csv"} {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
	// trajectory.csv was never written for a walk run; export must skip it.
	if _, err := os.Stat(filepath.Join(exportedDir, "trajectory.csv")); !os.IsNotExist(err) {
		t.Fatalf("expected no exported trajectory, got: %v", err)
	}

	cfg, ok, err := ReadRunConfig(baseDir, runID)
	if err != nil {
		t.Fatalf("read run config: %v", err)
	}
	if !ok {
		t.Fatal("expected run config to exist")
	}
	if cfg.Kind != KindWalk || cfg.Oracle != "stability-linear" {
		t.Fatalf("unexpected run config: %+v", cfg)
	}
}

func TestWriteWalkArtifactsRequiresRunID(t *testing.T) {
	_, err := WriteWalkArtifacts(t.TempDir(), WalkArtifacts{})
	if err == nil {
		t.Fatal("expected run id error")
	}
}

func TestDiscoveryLogColumns(t *testing.T) {
	baseDir := t.TempDir()

	artifacts := WalkArtifacts{
		Config:  RunConfig{RunID: "run-d", Kind: KindWalk},
		Summary: WalkSummary{RunID: "run-d"},
		Records: []model.WalkRecord{{
			ID:   "w1",
			Seed: 7,
			Steps: []model.WalkStep{
				{Step: 1, Formula: "BaHfS3", Score: 0.5, Accepted: true, Current: "BaHfS3", Best: "BaHfS3"},
				{Step: 2, Formula: "BaHfTe3", Score: 0.25, Accepted: false, Current: "BaHfS3", Best: "BaHfS3"},
			},
		}},
	}
	runDir, err := WriteWalkArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	file, err := os.Open(filepath.Join(runDir, "discovery_log.csv"))
	if err != nil {
		t.Fatalf("open discovery log: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read discovery log: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	wantHeader := []string{"seed", "step", "formula", "score", "accepted", "current", "best"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header column %d = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "7" || rows[1][1] != "1" || rows[1][2] != "BaHfS3" || rows[1][4] != "true" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[2][3] != "0.25" || rows[2][4] != "false" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestWriteSynthesisArtifactsTrajectory(t *testing.T) {
	baseDir := t.TempDir()

	artifacts := SynthesisArtifacts{
		Config: RunConfig{RunID: "run-s", Kind: KindSynthesis, Preset: "solvent", Protocol: "always-heat"},
		Summary: SynthesisSummary{
			RunID:       "run-s",
			Preset:      "solvent",
			Protocol:    "always-heat",
			Steps:       2,
			TotalReward: 1.5,
			Termination: "step_budget",
			FinalObs:    []float64{0.6, 0.1, 0.8, 1},
		},
		ObsColumns: []string{"temp_scaled", "target", "waste", "progress"},
		Trajectory: []TrajectoryRow{
			{Step: 1, Action: "2", Obs: []float64{0.32, 0, 0, 0.5}, Reward: 0.75},
			{Step: 2, Action: "2", Obs: []float64{0.34, 0.01, 0, 1}, Reward: 0.75},
		},
	}
	runDir, err := WriteSynthesisArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	file, err := os.Open(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		t.Fatalf("open trajectory: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read trajectory: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"step", "action", "temp_scaled", "target", "waste", "progress", "reward"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header column %d = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "1" || rows[1][1] != "2" || rows[1][6] != "0.75" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}

func TestWriteSynthesisArtifactsObsMismatch(t *testing.T) {
	artifacts := SynthesisArtifacts{
		Config:     RunConfig{RunID: "run-bad", Kind: KindSynthesis},
		ObsColumns: []string{"a", "b"},
		Trajectory: []TrajectoryRow{{Step: 1, Action: "0", Obs: []float64{1}}},
	}
	if _, err := WriteSynthesisArtifacts(t.TempDir(), artifacts); err == nil {
		t.Fatal("expected observation column mismatch error")
	}
}

func TestWriteDopingArtifactsObservations(t *testing.T) {
	baseDir := t.TempDir()

	artifacts := DopingArtifacts{
		Config: RunConfig{RunID: "run-dope", Kind: KindDoping, Iterations: 2},
		Summary: DopingSummary{
			RunID:        "run-dope",
			Iterations:   2,
			Best:         model.DopingLoading{Cl: 0.4},
			BestResponse: 0.61,
			Validation:   model.DopingValidation{Phase: "argyrodite-like", Stable: true},
		},
		Observations: []model.DopingObservation{
			{Iteration: 0, Cl: 0.25, Br: 0.125, I: 0, Response: 0.5, Strain: 30, Note: "stable"},
			{Iteration: 1, Cl: 0.4, Br: 0, I: 0, Response: 0.61, Strain: 36, Note: "stable"},
		},
	}
	runDir, err := WriteDopingArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	file, err := os.Open(filepath.Join(runDir, "observations.csv"))
	if err != nil {
		t.Fatalf("open observations: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read observations: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"iteration", "cl", "br", "i", "response", "strain", "note"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header column %d = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][1] != "0.25" || rows[1][2] != "0.125" || rows[1][6] != "stable" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Kind:         KindWalk,
		Seed:         1,
		Best:         0.80,
		CreatedAtUTC: "2026-02-10T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-1: %v", err)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-2",
		Kind:         KindSynthesis,
		Seed:         2,
		Best:         412.75,
		CreatedAtUTC: "2026-02-10T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Kind:         KindWalk,
		Seed:         1,
		Best:         0.90,
		CreatedAtUTC: "2026-02-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].Best != 0.90 {
		t.Fatalf("unexpected upsert result: %+v", entries[0])
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	ts := "2026-02-10T12:00:00Z"

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-a", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-a: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-b", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-b: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-b" {
		t.Fatalf("expected latest appended run-b first, got %+v", entries)
	}
}
