// Package stats writes run artifacts: per-run JSON config and summary, the
// kind-specific CSV series, and the run index at the results root.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"crucible/internal/model"
)

const runIndexFile = "run_index.json"

// Run kinds recorded in the index.
const (
	KindWalk      = "walk"
	KindSynthesis = "synth"
	KindBenchmark = "bench"
	KindDoping    = "dope"
)

// RunConfig captures every knob of a run, across all run kinds. Fields that
// do not apply to a kind stay zero and are omitted from the JSON.
type RunConfig struct {
	RunID string `json:"run_id"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	Seed  int64  `json:"seed"`

	Oracle          string   `json:"oracle,omitempty"`
	StartFormulas   []string `json:"start_formulas,omitempty"`
	WalkSteps       int      `json:"walk_steps,omitempty"`
	WalkTemperature float64  `json:"walk_temperature,omitempty"`

	Preset     string   `json:"preset,omitempty"`
	Protocol   string   `json:"protocol,omitempty"`
	Protocols  []string `json:"protocols,omitempty"`
	Episodes   int      `json:"episodes,omitempty"`
	StartTemp  *float64 `json:"start_temp_k,omitempty"`
	Continuous bool     `json:"continuous,omitempty"`

	Iterations int      `json:"iterations,omitempty"`
	SeedPoints int      `json:"seed_points,omitempty"`
	PoolSize   int      `json:"pool_size,omitempty"`
	NoiseStd   *float64 `json:"noise_std,omitempty"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Kind         string  `json:"kind"`
	Label        string  `json:"label,omitempty"`
	Seed         int64   `json:"seed"`
	Best         float64 `json:"best"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

type WalkSeedSummary struct {
	Seed        int64   `json:"seed"`
	Steps       int     `json:"steps"`
	Accepted    int     `json:"accepted"`
	BestFormula string  `json:"best_formula"`
	BestScore   float64 `json:"best_score"`
}

type WalkSummary struct {
	RunID       string            `json:"run_id"`
	Oracle      string            `json:"oracle"`
	Walkers     int               `json:"walkers"`
	BestFormula string            `json:"best_formula"`
	BestScore   float64           `json:"best_score"`
	PerSeed     []WalkSeedSummary `json:"per_seed"`
}

type SynthesisSummary struct {
	RunID       string    `json:"run_id"`
	Preset      string    `json:"preset"`
	Material    string    `json:"material"`
	Protocol    string    `json:"protocol"`
	Steps       int       `json:"steps"`
	TotalReward float64   `json:"total_reward"`
	Termination string    `json:"termination"`
	FinalObs    []float64 `json:"final_obs"`
}

type DopingSummary struct {
	RunID        string                 `json:"run_id"`
	Iterations   int                    `json:"iterations"`
	Best         model.DopingLoading    `json:"best"`
	BestResponse float64                `json:"best_response"`
	Validation   model.DopingValidation `json:"validation"`
}

// TrajectoryRow is one line of the trajectory CSV. Obs must match the
// observation columns declared for the episode.
type TrajectoryRow struct {
	Step   int
	Action string
	Obs    []float64
	Reward float64
}

type WalkArtifacts struct {
	Config  RunConfig
	Summary WalkSummary
	Records []model.WalkRecord
}

type SynthesisArtifacts struct {
	Config     RunConfig
	Summary    SynthesisSummary
	ObsColumns []string
	Trajectory []TrajectoryRow
}

type DopingArtifacts struct {
	Config       RunConfig
	Summary      DopingSummary
	Observations []model.DopingObservation
}

func WriteWalkArtifacts(baseDir string, artifacts WalkArtifacts) (string, error) {
	runDir, err := makeRunDir(baseDir, artifacts.Config.RunID)
	if err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run_config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeDiscoveryLog(filepath.Join(runDir, "discovery_log.csv"), artifacts.Records); err != nil {
		return "", err
	}

	return runDir, nil
}

func WriteSynthesisArtifacts(baseDir string, artifacts SynthesisArtifacts) (string, error) {
	runDir, err := makeRunDir(baseDir, artifacts.Config.RunID)
	if err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run_config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, "trajectory.csv"), artifacts.ObsColumns, artifacts.Trajectory); err != nil {
		return "", err
	}

	return runDir, nil
}

func WriteDopingArtifacts(baseDir string, artifacts DopingArtifacts) (string, error) {
	runDir, err := makeRunDir(baseDir, artifacts.Config.RunID)
	if err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run_config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeObservations(filepath.Join(runDir, "observations.csv"), artifacts.Observations); err != nil {
		return "", err
	}

	return runDir, nil
}

func makeRunDir(baseDir, runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeDiscoveryLog(path string, records []model.WalkRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"seed", "step", "formula", "score", "accepted", "current", "best"}); err != nil {
		return err
	}
	for _, rec := range records {
		for _, step := range rec.Steps {
			if err := writer.Write([]string{
				strconv.FormatInt(rec.Seed, 10),
				strconv.Itoa(step.Step),
				step.Formula,
				strconv.FormatFloat(step.Score, 'f', -1, 64),
				strconv.FormatBool(step.Accepted),
				step.Current,
				step.Best,
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTrajectory(path string, obsColumns []string, rows []TrajectoryRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	header := make([]string, 0, len(obsColumns)+3)
	header = append(header, "step", "action")
	header = append(header, obsColumns...)
	header = append(header, "reward")

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row.Obs) != len(obsColumns) {
			return fmt.Errorf("trajectory row %d has %d observations, header has %d", i, len(row.Obs), len(obsColumns))
		}
		record := make([]string, 0, len(header))
		record = append(record, strconv.Itoa(row.Step), row.Action)
		for _, v := range row.Obs {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		record = append(record, strconv.FormatFloat(row.Reward, 'f', -1, 64))
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeObservations(path string, observations []model.DopingObservation) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"iteration", "cl", "br", "i", "response", "strain", "note"}); err != nil {
		return err
	}
	for _, obs := range observations {
		if err := writer.Write([]string{
			strconv.Itoa(obs.Iteration),
			strconv.FormatFloat(obs.Cl, 'f', -1, 64),
			strconv.FormatFloat(obs.Br, 'f', -1, 64),
			strconv.FormatFloat(obs.I, 'f', -1, 64),
			strconv.FormatFloat(obs.Response, 'f', -1, 64),
			strconv.FormatFloat(obs.Strain, 'f', -1, 64),
			obs.Note,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"run_config.json", "summary.json"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{"discovery_log.csv", "trajectory.csv", "observations.csv", "benchmark_series.csv", "yield_curves.csv"} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "run_config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
