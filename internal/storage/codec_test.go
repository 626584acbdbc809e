package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"crucible/internal/model"
)

func TestDecodeWalkFixture(t *testing.T) {
	rec := decodeWalkFixture(t, "minimal_walk_v1.json")
	if rec.ID != "walk-minimal-1" {
		t.Fatalf("unexpected walk id: %s", rec.ID)
	}
	if rec.BestFormula != "BaHfS3" {
		t.Fatalf("unexpected best formula: %s", rec.BestFormula)
	}
	if len(rec.Steps) != 2 || rec.Steps[1].Accepted {
		t.Fatalf("unexpected steps: %+v", rec.Steps)
	}
}

func TestDecodeEpisodeFixture(t *testing.T) {
	path := fixturePath("minimal_episode_v1.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	rec, err := DecodeEpisode(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if rec.ID != "episode-minimal-1" {
		t.Fatalf("unexpected episode id: %s", rec.ID)
	}
	if rec.Termination != "step_budget" {
		t.Fatalf("unexpected termination: %s", rec.Termination)
	}
	if rec.StartTemp != nil {
		t.Fatalf("expected unset start temp, got %v", *rec.StartTemp)
	}
	if len(rec.FinalObs) != 4 {
		t.Fatalf("unexpected final obs: %+v", rec.FinalObs)
	}
}

func TestDecodeDopingFixture(t *testing.T) {
	path := fixturePath("minimal_doping_v1.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	rec, err := DecodeDoping(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if rec.ID != "doping-minimal-1" {
		t.Fatalf("unexpected doping id: %s", rec.ID)
	}
	if rec.Best.Cl != 0.31 {
		t.Fatalf("unexpected best loading: %+v", rec.Best)
	}
	if len(rec.Observations) != 2 {
		t.Fatalf("unexpected observations: %+v", rec.Observations)
	}
	if rec.Validation.Phase != "argyrodite-like" || !rec.Validation.Stable {
		t.Fatalf("unexpected validation: %+v", rec.Validation)
	}
}

func TestWalkCodecRoundTrip(t *testing.T) {
	input := model.WalkRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "w1",
		Oracle:          "stability-linear",
		StartFormula:    "BaZrS3",
		Seed:            42,
		Temperature:     0.05,
		Steps: []model.WalkStep{
			{Step: 1, Formula: "SrZrS3", Score: 0.31, Accepted: true, Current: "SrZrS3", Best: "SrZrS3"},
		},
		FinalFormula: "SrZrS3",
		BestFormula:  "SrZrS3",
		BestScore:    0.31,
		CreatedAtUTC: "2026-01-12T10:00:00Z",
	}

	encoded, err := EncodeWalk(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeWalk(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, input) {
		t.Fatalf("roundtrip mismatch\nactual=%+v\nexpected=%+v", decoded, input)
	}
}

func TestEpisodeCodecRoundTrip(t *testing.T) {
	start := 450.0
	input := model.EpisodeRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "e1",
		Preset:          "perovskite",
		Material:        "BaZrS3",
		Protocol:        "pulse-quench",
		Seed:            7,
		StartTemp:       &start,
		Steps:           180,
		TotalReward:     512.25,
		Termination:     "step_budget",
		FinalObs:        []float64{0.5, 0.9, 0.02, 1},
		CreatedAtUTC:    "2026-01-12T10:01:00Z",
	}

	encoded, err := EncodeEpisode(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEpisode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, input) {
		t.Fatalf("roundtrip mismatch\nactual=%+v\nexpected=%+v", decoded, input)
	}
}

func TestDopingCodecRoundTrip(t *testing.T) {
	input := model.DopingRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "d1",
		Seed:            3,
		Iterations:      1,
		Best:            model.DopingLoading{Cl: 0.4, Br: 0.1},
		BestResponse:    0.61,
		Observations: []model.DopingObservation{
			{Iteration: 0, Cl: 0.4, Br: 0.1, Response: 0.61, Strain: 33.1, Note: "stable"},
		},
		Validation: model.DopingValidation{
			LiRemaining:     2.5,
			Formula:         "Li2.50 P S3.50 X0.50",
			VegardStrainPct: -0.8,
			Phase:           "argyrodite-like",
			Findings:        []string{"lattice strain within tolerance"},
			Stable:          true,
		},
		CreatedAtUTC: "2026-01-12T10:02:00Z",
	}

	encoded, err := EncodeDoping(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeDoping(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, input) {
		t.Fatalf("roundtrip mismatch\nactual=%+v\nexpected=%+v", decoded, input)
	}
}

func TestWalkCodecRoundTripFixtureEquality(t *testing.T) {
	expected := decodeWalkFixture(t, "minimal_walk_v1.json")

	encoded, err := EncodeWalk(expected)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	actual, err := DecodeWalk(encoded)
	if err != nil {
		t.Fatalf("decode roundtrip: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("roundtrip mismatch\nactual=%+v\nexpected=%+v", actual, expected)
	}
}

func TestDecodeWalkVersionMismatch(t *testing.T) {
	rec := decodeWalkFixture(t, "minimal_walk_v1.json")
	rec.CodecVersion++

	encoded, err := EncodeWalk(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodeWalk(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeEpisodeVersionMismatch(t *testing.T) {
	input := model.EpisodeRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "e1",
	}
	encoded, err := EncodeEpisode(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = DecodeEpisode(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodeDopingVersionMismatch(t *testing.T) {
	input := model.DopingRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion + 1},
		ID:              "d1",
	}
	encoded, err := EncodeDoping(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = DecodeDoping(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func decodeWalkFixture(t *testing.T, name string) model.WalkRecord {
	t.Helper()

	path := fixturePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	rec, err := DecodeWalk(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	return rec
}
