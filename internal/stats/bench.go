package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ProtocolStats aggregates episode outcomes for one protocol.
type ProtocolStats struct {
	Protocol       string  `json:"protocol"`
	Episodes       int     `json:"episodes"`
	MeanReward     float64 `json:"mean_reward"`
	StdReward      float64 `json:"std_reward"`
	MinReward      float64 `json:"min_reward"`
	MaxReward      float64 `json:"max_reward"`
	MeanFinalYield float64 `json:"mean_final_yield"`
}

// NewProtocolStats reduces per-episode total rewards and final yields.
// StdReward is the sample standard deviation; it stays zero for a single
// episode.
func NewProtocolStats(protocol string, rewards, finalYields []float64) ProtocolStats {
	ps := ProtocolStats{Protocol: protocol, Episodes: len(rewards)}
	if len(rewards) == 0 {
		return ps
	}
	ps.MeanReward = stat.Mean(rewards, nil)
	if len(rewards) > 1 {
		ps.StdReward = stat.StdDev(rewards, nil)
	}
	ps.MinReward = floats.Min(rewards)
	ps.MaxReward = floats.Max(rewards)
	if len(finalYields) > 0 {
		ps.MeanFinalYield = stat.Mean(finalYields, nil)
	}
	return ps
}

type BenchSummary struct {
	RunID     string          `json:"run_id"`
	Preset    string          `json:"preset"`
	Episodes  int             `json:"episodes"`
	Winner    string          `json:"winner"`
	Protocols []ProtocolStats `json:"protocols"`
}

type BenchArtifacts struct {
	Config  RunConfig
	Summary BenchSummary
}

func WriteBenchArtifacts(baseDir string, artifacts BenchArtifacts) (string, error) {
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
	if err := WriteBenchmarkSeries(runDir, artifacts.Summary.Protocols); err != nil {
		return "", err
	}

	return runDir, nil
}

func WriteBenchmarkSeries(runDir string, series []ProtocolStats) error {
	path := filepath.Join(runDir, "benchmark_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"protocol", "episodes", "mean_reward", "std_reward", "min_reward", "max_reward", "mean_final_yield"}); err != nil {
		return err
	}
	for _, ps := range series {
		if err := writer.Write([]string{
			ps.Protocol,
			strconv.Itoa(ps.Episodes),
			strconv.FormatFloat(ps.MeanReward, 'f', -1, 64),
			strconv.FormatFloat(ps.StdReward, 'f', -1, 64),
			strconv.FormatFloat(ps.MinReward, 'f', -1, 64),
			strconv.FormatFloat(ps.MaxReward, 'f', -1, 64),
			strconv.FormatFloat(ps.MeanFinalYield, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadBenchmarkSeries(baseDir, runID string) ([]ProtocolStats, bool, error) {
	path := filepath.Join(baseDir, runID, "benchmark_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []ProtocolStats{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 7 {
		return nil, false, fmt.Errorf("benchmark series header must have at least 7 columns")
	}

	series := make([]ProtocolStats, 0, 8)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 7 {
			return nil, false, fmt.Errorf("benchmark series row must have at least 7 columns")
		}
		episodes, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, false, err
		}
		values := make([]float64, 5)
		for i := range values {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, false, err
			}
			values[i] = v
		}
		series = append(series, ProtocolStats{
			Protocol:       record[0],
			Episodes:       episodes,
			MeanReward:     values[0],
			StdReward:      values[1],
			MinReward:      values[2],
			MaxReward:      values[3],
			MeanFinalYield: values[4],
		})
	}
	return series, true, nil
}
