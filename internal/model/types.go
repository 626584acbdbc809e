// Package model holds the persisted record types shared by the store and
// the run artifacts.
package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// WalkStep is one Metropolis proposal in a composition walk.
type WalkStep struct {
	Step     int     `json:"step"`
	Formula  string  `json:"formula"`
	Score    float64 `json:"score"`
	Accepted bool    `json:"accepted"`
	Current  string  `json:"current"`
	Best     string  `json:"best"`
}

// WalkRecord persists one composition walk. Multi-seed runs save one
// record per seed.
type WalkRecord struct {
	VersionedRecord
	ID           string     `json:"id"`
	Oracle       string     `json:"oracle"`
	StartFormula string     `json:"start_formula"`
	Seed         int64      `json:"seed"`
	Temperature  float64    `json:"temperature"`
	Steps        []WalkStep `json:"steps"`
	FinalFormula string     `json:"final_formula"`
	BestFormula  string     `json:"best_formula"`
	BestScore    float64    `json:"best_score"`
	CreatedAtUTC string     `json:"created_at_utc"`
}

// EpisodeRecord persists the summary of one synthesis or charging episode.
// The full trajectory lives in the run artifacts, not the store.
type EpisodeRecord struct {
	VersionedRecord
	ID           string    `json:"id"`
	Preset       string    `json:"preset"`
	Material     string    `json:"material"`
	Protocol     string    `json:"protocol"`
	Seed         int64     `json:"seed"`
	StartTemp    *float64  `json:"start_temp_k,omitempty"`
	Steps        int       `json:"steps"`
	TotalReward  float64   `json:"total_reward"`
	Termination  string    `json:"termination"`
	FinalObs     []float64 `json:"final_obs"`
	CreatedAtUTC string    `json:"created_at_utc"`
}

// DopingLoading is a halogen loading in persisted form.
type DopingLoading struct {
	Cl float64 `json:"cl"`
	Br float64 `json:"br"`
	I  float64 `json:"i"`
}

// DopingObservation is one evaluated loading.
type DopingObservation struct {
	Iteration int     `json:"iteration"`
	Cl        float64 `json:"cl"`
	Br        float64 `json:"br"`
	I         float64 `json:"i"`
	Response  float64 `json:"response"`
	Strain    float64 `json:"strain"`
	Note      string  `json:"note"`
}

// DopingValidation is the structural verdict on the winning loading.
type DopingValidation struct {
	LiRemaining     float64  `json:"li_remaining"`
	Formula         string   `json:"formula"`
	VegardStrainPct float64  `json:"vegard_strain_pct"`
	Phase           string   `json:"phase"`
	Findings        []string `json:"findings,omitempty"`
	Stable          bool     `json:"stable"`
}

// DopingRecord persists one dopant optimization run.
type DopingRecord struct {
	VersionedRecord
	ID           string              `json:"id"`
	Seed         int64               `json:"seed"`
	Iterations   int                 `json:"iterations"`
	Best         DopingLoading       `json:"best"`
	BestResponse float64             `json:"best_response"`
	Observations []DopingObservation `json:"observations"`
	Validation   DopingValidation    `json:"validation"`
	CreatedAtUTC string              `json:"created_at_utc"`
}
