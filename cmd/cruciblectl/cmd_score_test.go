package main

import (
	"strings"
	"testing"
)

func TestScoreCmdIsDeterministic(t *testing.T) {
	modelPath := writeStabilityModel(t)

	first, err := runCLI(t, "score", "--oracle", modelPath, "--formula", "BaHfS3", "--log-level", "error")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(first, "oracle=stability target=energy_above_hull_ev formula=BaHfS3 score=") {
		t.Fatalf("unexpected score line: %q", first)
	}

	second, err := runCLI(t, "score", "--oracle", modelPath, "--formula", "BaHfS3", "--log-level", "error")
	if err != nil {
		t.Fatalf("score again: %v", err)
	}
	if first != second {
		t.Fatalf("same formula should score identically:\n%q\n%q", first, second)
	}

	other, err := runCLI(t, "score", "--oracle", modelPath, "--formula", "SrZrSe3", "--log-level", "error")
	if err != nil {
		t.Fatalf("score other: %v", err)
	}
	if other == first {
		t.Fatalf("distinct formulas should score differently: %q", other)
	}
}

func TestScoreCmdRequiresInputs(t *testing.T) {
	modelPath := writeStabilityModel(t)

	if _, err := runCLI(t, "score", "--formula", "BaHfS3", "--log-level", "error"); err == nil {
		t.Fatal("expected an error without a model path")
	}
	if _, err := runCLI(t, "score", "--oracle", modelPath, "--log-level", "error"); err == nil {
		t.Fatal("expected an error without a formula")
	}
}

func TestScoreCmdRejectsMalformedFormula(t *testing.T) {
	modelPath := writeStabilityModel(t)
	if _, err := runCLI(t, "score", "--oracle", modelPath, "--formula", "???", "--log-level", "error"); err == nil {
		t.Fatal("expected a parse error for a malformed formula")
	}
}
