// Package platform wires the lab together: store, results directory,
// registered oracles, and simulator presets. Runs are synchronous and
// independent; the only cross-run state is the store and the results
// directory.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"crucible/internal/doping"
	"crucible/internal/kinetics"
	"crucible/internal/logging"
	"crucible/internal/model"
	"crucible/internal/oracle"
	"crucible/internal/search"
	"crucible/internal/stats"
	"crucible/internal/storage"
)

// timestampLayout keeps six fractional digits so record timestamps sort
// lexicographically.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Config assembles a Lab. Store and ResultsDir are required; Presets and
// Logger fall back to the embedded defaults and a component logger.
type Config struct {
	Store      storage.Store
	ResultsDir string
	Presets    *kinetics.PresetSet
	Logger     *slog.Logger
}

// Lab runs experiments against a store and a results directory. Oracles
// are registered by name; simulators come from the preset set.
type Lab struct {
	store      storage.Store
	resultsDir string
	presets    *kinetics.PresetSet
	log        *slog.Logger

	mu      sync.RWMutex
	oracles map[string]oracle.Scorer
	started bool
}

// New validates the config and builds a Lab. Call Init before running
// experiments.
func New(cfg Config) (*Lab, error) {
	if cfg.Store == nil {
		return nil, errors.New("lab needs a store")
	}
	if cfg.ResultsDir == "" {
		return nil, errors.New("lab needs a results directory")
	}
	presets := cfg.Presets
	if presets == nil {
		var err error
		presets, err = kinetics.Defaults()
		if err != nil {
			return nil, fmt.Errorf("load default presets: %w", err)
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("lab")
	}
	return &Lab{
		store:      cfg.Store,
		resultsDir: cfg.ResultsDir,
		presets:    presets,
		log:        log,
		oracles:    make(map[string]oracle.Scorer),
	}, nil
}

// Init readies the store. Calling it on an initialized lab is a no-op.
func (l *Lab) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if err := l.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	l.started = true
	return nil
}

// Reset clears every persisted record, initializing the store first if
// needed. Run artifacts on disk are left alone.
func (l *Lab) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		if err := l.store.Init(ctx); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		l.started = true
	}
	if err := l.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	return nil
}

// Started reports whether Init has completed.
func (l *Lab) Started() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started
}

// Store exposes the backing store for read paths (run listings, exports).
func (l *Lab) Store() storage.Store { return l.store }

// ResultsDir is the artifacts root.
func (l *Lab) ResultsDir() string { return l.resultsDir }

// Presets exposes the simulator preset set.
func (l *Lab) Presets() *kinetics.PresetSet { return l.presets }

// RegisterOracle makes a scorer available to walks under the given name.
// Registering an existing name replaces the previous scorer.
func (l *Lab) RegisterOracle(name string, s oracle.Scorer) error {
	if name == "" {
		return errors.New("oracle name is required")
	}
	if s == nil {
		return errors.New("oracle is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.oracles[name] = s
	return nil
}

// Oracle looks up a registered scorer.
func (l *Lab) Oracle(name string) (oracle.Scorer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.oracles[name]
	return s, ok
}

// OracleNames lists registered oracles, sorted.
func (l *Lab) OracleNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.oracles))
	for name := range l.oracles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Lab) requireStarted() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.started {
		return errors.New("lab is not initialized")
	}
	return nil
}

// WalkSpec configures one composition-walk run. Each start formula gets
// its own walker seeded with Seed plus its index.
type WalkSpec struct {
	Oracle        string
	StartFormulas []string
	Steps         int
	Temperature   float64 // 0 means search.DefaultTemperature
	Seed          int64
	Label         string
}

// WalkReport is the outcome of a walk run.
type WalkReport struct {
	RunID   string
	Dir     string
	Summary stats.WalkSummary
	Records []model.WalkRecord
}

// RunWalk runs one Metropolis walk per start formula, in parallel, then
// persists the records and writes the run artifacts.
func (l *Lab) RunWalk(ctx context.Context, spec WalkSpec) (*WalkReport, error) {
	if spec.Oracle == "" {
		return nil, errors.New("walk needs an oracle name")
	}
	if len(spec.StartFormulas) == 0 {
		return nil, errors.New("walk needs at least one start formula")
	}
	if spec.Steps <= 0 {
		return nil, errors.New("walk steps must be positive")
	}
	temperature := spec.Temperature
	if temperature == 0 {
		temperature = search.DefaultTemperature
	}
	if temperature < 0 {
		return nil, errors.New("walk temperature must be positive")
	}
	if err := l.requireStarted(); err != nil {
		return nil, err
	}
	scorer, ok := l.Oracle(spec.Oracle)
	if !ok {
		return nil, fmt.Errorf("oracle not registered: %s", spec.Oracle)
	}

	runID := newRunID(stats.KindWalk)
	createdAt := nowUTC()

	records := make([]model.WalkRecord, len(spec.StartFormulas))
	g, gctx := errgroup.WithContext(ctx)
	for i, start := range spec.StartFormulas {
		i, start := i, start
		g.Go(func() error {
			seed := spec.Seed + int64(i)
			walker := &search.Walker{
				Rand:        rand.New(rand.NewSource(seed)),
				Scorer:      scorer,
				Temperature: temperature,
			}
			hist, err := walker.Walk(gctx, start, spec.Steps)
			if err != nil {
				return fmt.Errorf("walk from %q: %w", start, err)
			}
			records[i] = walkRecord(runID, spec.Oracle, seed, temperature, createdAt, hist)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := stats.WalkSummary{
		RunID:   runID,
		Oracle:  spec.Oracle,
		Walkers: len(records),
		PerSeed: make([]stats.WalkSeedSummary, 0, len(records)),
	}
	bestIdx := 0
	for i, rec := range records {
		accepted := 0
		for _, step := range rec.Steps {
			if step.Accepted {
				accepted++
			}
		}
		summary.PerSeed = append(summary.PerSeed, stats.WalkSeedSummary{
			Seed:        rec.Seed,
			Steps:       len(rec.Steps),
			Accepted:    accepted,
			BestFormula: rec.BestFormula,
			BestScore:   rec.BestScore,
		})
		if rec.BestScore < records[bestIdx].BestScore {
			bestIdx = i
		}
	}
	summary.BestFormula = records[bestIdx].BestFormula
	summary.BestScore = records[bestIdx].BestScore

	for _, rec := range records {
		if err := l.store.SaveWalk(ctx, rec); err != nil {
			return nil, fmt.Errorf("save walk %s: %w", rec.ID, err)
		}
	}
	runDir, err := stats.WriteWalkArtifacts(l.resultsDir, stats.WalkArtifacts{
		Config: stats.RunConfig{
			RunID:           runID,
			Kind:            stats.KindWalk,
			Label:           spec.Label,
			Seed:            spec.Seed,
			Oracle:          spec.Oracle,
			StartFormulas:   spec.StartFormulas,
			WalkSteps:       spec.Steps,
			WalkTemperature: temperature,
		},
		Summary: summary,
		Records: records,
	})
	if err != nil {
		return nil, fmt.Errorf("write walk artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(l.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		Kind:         stats.KindWalk,
		Label:        spec.Label,
		Seed:         spec.Seed,
		Best:         summary.BestScore,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return nil, fmt.Errorf("append run index: %w", err)
	}

	l.log.Info("walk run finished",
		"run_id", runID,
		"walkers", len(records),
		"best_formula", summary.BestFormula,
		"best_score", summary.BestScore,
	)
	return &WalkReport{RunID: runID, Dir: runDir, Summary: summary, Records: records}, nil
}

// walkRecord converts a walk history into its persisted form. The history
// tracks scores; the record tracks the current and best formulas per step.
func walkRecord(runID, oracleName string, seed int64, temperature float64, createdAt string, hist search.History) model.WalkRecord {
	current := hist.Start
	best := hist.Start
	bestScore := hist.StartScore
	steps := make([]model.WalkStep, 0, len(hist.Steps))
	for _, s := range hist.Steps {
		if s.Accepted {
			current = s.Formula
			if s.Score < bestScore {
				bestScore = s.Score
				best = s.Formula
			}
		}
		steps = append(steps, model.WalkStep{
			Step:     s.Step,
			Formula:  s.Formula,
			Score:    s.Score,
			Accepted: s.Accepted,
			Current:  current,
			Best:     best,
		})
	}
	return model.WalkRecord{
		VersionedRecord: versioned(),
		ID:              fmt.Sprintf("%s-s%d", runID, seed),
		Oracle:          oracleName,
		StartFormula:    hist.Start,
		Seed:            seed,
		Temperature:     temperature,
		Steps:           steps,
		FinalFormula:    hist.FinalFormula,
		BestFormula:     hist.BestFormula,
		BestScore:       hist.BestScore,
		CreatedAtUTC:    createdAt,
	}
}

// SynthesisSpec configures one episode. A nil StartTemp lets the preset
// draw its start temperature; Continuous reroutes the protocol's discrete
// choices through the continuous action encoding.
type SynthesisSpec struct {
	Preset     string
	Protocol   string
	Seed       int64
	StartTemp  *float64
	Continuous bool
	Label      string
}

// SynthesisReport is the outcome of one episode run.
type SynthesisReport struct {
	RunID      string
	Dir        string
	Record     model.EpisodeRecord
	Trajectory kinetics.Trajectory
	ObsColumns []string
	Summary    stats.SynthesisSummary
}

// RunSynthesis drives one episode of the preset's simulator under the named
// protocol, then persists the episode record and trajectory artifacts.
func (l *Lab) RunSynthesis(ctx context.Context, spec SynthesisSpec) (*SynthesisReport, error) {
	if spec.Preset == "" {
		return nil, errors.New("synthesis needs a preset")
	}
	if spec.Protocol == "" {
		return nil, errors.New("synthesis needs a protocol")
	}
	if err := l.requireStarted(); err != nil {
		return nil, err
	}

	sim, err := l.presets.New(spec.Preset, rand.New(rand.NewSource(spec.Seed)))
	if err != nil {
		return nil, err
	}
	policy, err := kinetics.NewProtocol(spec.Protocol)
	if err != nil {
		return nil, err
	}
	if spec.Continuous {
		if policy, err = kinetics.Continuousize(policy, sim); err != nil {
			return nil, err
		}
	}

	var traj kinetics.Trajectory
	if spec.StartTemp != nil {
		traj, err = kinetics.RunFrom(ctx, sim, policy, *spec.StartTemp)
	} else {
		traj, err = kinetics.Run(ctx, sim, policy)
	}
	if err != nil {
		return nil, fmt.Errorf("run episode: %w", err)
	}

	runID := newRunID(stats.KindSynthesis)
	createdAt := nowUTC()
	preset := kinetics.Normalize(spec.Preset)
	record := model.EpisodeRecord{
		VersionedRecord: versioned(),
		ID:              runID,
		Preset:          preset,
		Material:        l.presets.Materials()[preset],
		Protocol:        policy.Name(),
		Seed:            spec.Seed,
		Steps:           len(traj.Steps),
		TotalReward:     traj.TotalReward,
		Termination:     traj.Termination,
		FinalObs:        append([]float64(nil), traj.FinalObs()...),
		CreatedAtUTC:    createdAt,
	}
	if spec.StartTemp != nil {
		temp := *spec.StartTemp
		record.StartTemp = &temp
	}
	if err := l.store.SaveEpisode(ctx, record); err != nil {
		return nil, fmt.Errorf("save episode %s: %w", runID, err)
	}

	summary := stats.SynthesisSummary{
		RunID:       runID,
		Preset:      record.Preset,
		Material:    record.Material,
		Protocol:    record.Protocol,
		Steps:       record.Steps,
		TotalReward: record.TotalReward,
		Termination: record.Termination,
		FinalObs:    record.FinalObs,
	}
	rows := make([]stats.TrajectoryRow, 0, len(traj.Steps))
	for _, step := range traj.Steps {
		rows = append(rows, stats.TrajectoryRow{
			Step:   step.Step,
			Action: step.Action.Encode(),
			Obs:    step.Obs,
			Reward: step.Reward,
		})
	}
	runDir, err := stats.WriteSynthesisArtifacts(l.resultsDir, stats.SynthesisArtifacts{
		Config: stats.RunConfig{
			RunID:      runID,
			Kind:       stats.KindSynthesis,
			Label:      spec.Label,
			Seed:       spec.Seed,
			Preset:     record.Preset,
			Protocol:   record.Protocol,
			StartTemp:  record.StartTemp,
			Continuous: spec.Continuous,
		},
		Summary:    summary,
		ObsColumns: sim.ObsColumns(),
		Trajectory: rows,
	})
	if err != nil {
		return nil, fmt.Errorf("write synthesis artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(l.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		Kind:         stats.KindSynthesis,
		Label:        spec.Label,
		Seed:         spec.Seed,
		Best:         record.TotalReward,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return nil, fmt.Errorf("append run index: %w", err)
	}

	l.log.Info("synthesis run finished",
		"run_id", runID,
		"preset", record.Preset,
		"protocol", record.Protocol,
		"total_reward", record.TotalReward,
		"termination", record.Termination,
	)
	return &SynthesisReport{
		RunID:      runID,
		Dir:        runDir,
		Record:     record,
		Trajectory: traj,
		ObsColumns: sim.ObsColumns(),
		Summary:    summary,
	}, nil
}

// BenchSpec configures a protocol comparison on one preset. Every protocol
// replays the same per-episode seeds, so start draws pair up across
// protocols.
type BenchSpec struct {
	Preset    string
	Protocols []string
	Episodes  int
	Seed      int64
	StartTemp *float64
	Label     string
}

// BenchReport is the outcome of a protocol benchmark.
type BenchReport struct {
	RunID   string
	Dir     string
	Summary stats.BenchSummary
	Curves  map[string][]stats.YieldCurvePoint
}

// RunProtocolBench fans the protocols out in parallel, runs Episodes
// episodes under each, and writes the aggregate table plus per-protocol
// yield curves. Benchmarks leave no store records; the artifacts are the
// product.
func (l *Lab) RunProtocolBench(ctx context.Context, spec BenchSpec) (*BenchReport, error) {
	if spec.Preset == "" {
		return nil, errors.New("benchmark needs a preset")
	}
	if len(spec.Protocols) == 0 {
		return nil, errors.New("benchmark needs at least one protocol")
	}
	if spec.Episodes <= 0 {
		return nil, errors.New("benchmark episodes must be positive")
	}
	if err := l.requireStarted(); err != nil {
		return nil, err
	}

	// Resolve protocol names up front so a typo fails before any episode
	// runs, and duplicates collapse into one entry.
	names := make([]string, 0, len(spec.Protocols))
	seen := make(map[string]bool, len(spec.Protocols))
	for _, raw := range spec.Protocols {
		policy, err := kinetics.NewProtocol(raw)
		if err != nil {
			return nil, err
		}
		if seen[policy.Name()] {
			continue
		}
		seen[policy.Name()] = true
		names = append(names, policy.Name())
	}

	probe, err := l.presets.New(spec.Preset, rand.New(rand.NewSource(spec.Seed)))
	if err != nil {
		return nil, err
	}
	yieldIdx := yieldColumn(probe.ObsColumns())

	results := make([]stats.ProtocolStats, len(names))
	curveList := make([][]stats.YieldCurvePoint, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rewards := make([]float64, spec.Episodes)
			yields := make([]float64, spec.Episodes)
			series := make([][]float64, spec.Episodes)
			for e := 0; e < spec.Episodes; e++ {
				sim, err := l.presets.New(spec.Preset, rand.New(rand.NewSource(spec.Seed+int64(e))))
				if err != nil {
					return err
				}
				policy, err := kinetics.NewProtocol(name)
				if err != nil {
					return err
				}
				var traj kinetics.Trajectory
				if spec.StartTemp != nil {
					traj, err = kinetics.RunFrom(gctx, sim, policy, *spec.StartTemp)
				} else {
					traj, err = kinetics.Run(gctx, sim, policy)
				}
				if err != nil {
					return fmt.Errorf("protocol %s episode %d: %w", name, e, err)
				}
				rewards[e] = traj.TotalReward
				yields[e] = finalYield(traj)
				series[e] = yieldSeries(traj, yieldIdx)
			}
			results[i] = stats.NewProtocolStats(name, rewards, yields)
			curveList[i] = stats.BuildYieldCurve(series)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	winner := 0
	for i := range results {
		if results[i].MeanReward > results[winner].MeanReward {
			winner = i
		}
	}
	runID := newRunID(stats.KindBenchmark)
	createdAt := nowUTC()
	summary := stats.BenchSummary{
		RunID:     runID,
		Preset:    kinetics.Normalize(spec.Preset),
		Episodes:  spec.Episodes,
		Winner:    results[winner].Protocol,
		Protocols: results,
	}
	runDir, err := stats.WriteBenchArtifacts(l.resultsDir, stats.BenchArtifacts{
		Config: stats.RunConfig{
			RunID:     runID,
			Kind:      stats.KindBenchmark,
			Label:     spec.Label,
			Seed:      spec.Seed,
			Preset:    summary.Preset,
			Protocols: names,
			Episodes:  spec.Episodes,
			StartTemp: spec.StartTemp,
		},
		Summary: summary,
	})
	if err != nil {
		return nil, fmt.Errorf("write benchmark artifacts: %w", err)
	}
	curves := make(map[string][]stats.YieldCurvePoint, len(names))
	for i, name := range names {
		curves[name] = curveList[i]
	}
	if err := stats.WriteYieldCurves(runDir, curves); err != nil {
		return nil, fmt.Errorf("write yield curves: %w", err)
	}
	if err := stats.AppendRunIndex(l.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		Kind:         stats.KindBenchmark,
		Label:        spec.Label,
		Seed:         spec.Seed,
		Best:         results[winner].MeanReward,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return nil, fmt.Errorf("append run index: %w", err)
	}

	l.log.Info("benchmark finished",
		"run_id", runID,
		"preset", summary.Preset,
		"protocols", len(names),
		"episodes", spec.Episodes,
		"winner", summary.Winner,
	)
	return &BenchReport{RunID: runID, Dir: runDir, Summary: summary, Curves: curves}, nil
}

// yieldColumn finds the observation column benchmarks track: the target
// fraction for furnaces, accumulated charge for cells.
func yieldColumn(columns []string) int {
	for i, name := range columns {
		if name == "target" || name == "charge" {
			return i
		}
	}
	return -1
}

// finalYield reads the terminal yield diagnostic from a trajectory.
func finalYield(traj kinetics.Trajectory) float64 {
	if v, ok := traj.FinalValue("final_target"); ok {
		return v
	}
	if v, ok := traj.FinalValue("final_charge"); ok {
		return v
	}
	return 0
}

// yieldSeries extracts one observation column across the trajectory.
func yieldSeries(traj kinetics.Trajectory, idx int) []float64 {
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(traj.Steps))
	for _, step := range traj.Steps {
		if idx < len(step.Obs) {
			out = append(out, step.Obs[idx])
		}
	}
	return out
}

// DopingSpec configures a dopant optimization run. Zero SeedPoints and
// PoolSize keep the optimizer defaults; a nil NoiseStd keeps the default
// measurement noise, and an explicit zero disables it.
type DopingSpec struct {
	Iterations int
	Seed       int64
	NoiseStd   *float64
	SeedPoints int
	PoolSize   int
	Label      string
}

// DopingReport is the outcome of a dopant optimization run.
type DopingReport struct {
	RunID      string
	Dir        string
	Record     model.DopingRecord
	Result     doping.Result
	Validation doping.Report
}

// RunDoping optimizes the halogen loading, validates the winner, and
// persists the record and observation log.
func (l *Lab) RunDoping(ctx context.Context, spec DopingSpec) (*DopingReport, error) {
	if spec.Iterations <= 0 {
		return nil, errors.New("doping iterations must be positive")
	}
	if err := l.requireStarted(); err != nil {
		return nil, err
	}

	params := doping.DefaultResponseParams()
	if spec.NoiseStd != nil {
		params.NoiseStd = *spec.NoiseStd
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	response, err := doping.NewResponse(params, rng)
	if err != nil {
		return nil, err
	}
	optimizer := &doping.Optimizer{
		Rand:       rng,
		Experiment: response,
		Params:     params,
		SeedPoints: spec.SeedPoints,
		PoolSize:   spec.PoolSize,
	}
	result, err := optimizer.Optimize(ctx, spec.Iterations)
	if err != nil {
		return nil, fmt.Errorf("optimize doping: %w", err)
	}
	validation := doping.NewValidator(params).Validate(result.Best)

	runID := newRunID(stats.KindDoping)
	createdAt := nowUTC()
	record := model.DopingRecord{
		VersionedRecord: versioned(),
		ID:              runID,
		Seed:            spec.Seed,
		Iterations:      result.Iterations,
		Best: model.DopingLoading{
			Cl: result.Best.Cl,
			Br: result.Best.Br,
			I:  result.Best.I,
		},
		BestResponse: result.BestResponse,
		Observations: dopingObservations(result.Observations),
		Validation: model.DopingValidation{
			LiRemaining:     validation.LiRemaining,
			Formula:         validation.Formula,
			VegardStrainPct: validation.VegardStrainPct,
			Phase:           validation.Phase,
			Findings:        append([]string(nil), validation.Findings...),
			Stable:          validation.Stable,
		},
		CreatedAtUTC: createdAt,
	}
	if err := l.store.SaveDoping(ctx, record); err != nil {
		return nil, fmt.Errorf("save doping %s: %w", runID, err)
	}

	summary := stats.DopingSummary{
		RunID:        runID,
		Iterations:   record.Iterations,
		Best:         record.Best,
		BestResponse: record.BestResponse,
		Validation:   record.Validation,
	}
	runDir, err := stats.WriteDopingArtifacts(l.resultsDir, stats.DopingArtifacts{
		Config: stats.RunConfig{
			RunID:      runID,
			Kind:       stats.KindDoping,
			Label:      spec.Label,
			Seed:       spec.Seed,
			Iterations: spec.Iterations,
			SeedPoints: spec.SeedPoints,
			PoolSize:   spec.PoolSize,
			NoiseStd:   spec.NoiseStd,
		},
		Summary:      summary,
		Observations: record.Observations,
	})
	if err != nil {
		return nil, fmt.Errorf("write doping artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(l.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		Kind:         stats.KindDoping,
		Label:        spec.Label,
		Seed:         spec.Seed,
		Best:         record.BestResponse,
		CreatedAtUTC: createdAt,
	}); err != nil {
		return nil, fmt.Errorf("append run index: %w", err)
	}

	l.log.Info("doping run finished",
		"run_id", runID,
		"iterations", record.Iterations,
		"best_response", record.BestResponse,
		"stable", record.Validation.Stable,
	)
	return &DopingReport{RunID: runID, Dir: runDir, Record: record, Result: result, Validation: validation}, nil
}

func dopingObservations(observations []doping.Observation) []model.DopingObservation {
	out := make([]model.DopingObservation, 0, len(observations))
	for _, obs := range observations {
		out = append(out, model.DopingObservation{
			Iteration: obs.Iteration,
			Cl:        obs.Composition.Cl,
			Br:        obs.Composition.Br,
			I:         obs.Composition.I,
			Response:  obs.Response,
			Strain:    obs.Strain,
			Note:      obs.Note,
		})
	}
	return out
}

func versioned() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}

func newRunID(kind string) string {
	return kind + "-" + uuid.NewString()
}

func nowUTC() string {
	return time.Now().UTC().Format(timestampLayout)
}
