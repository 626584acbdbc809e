package crucible

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"crucible/internal/doping"
	"crucible/internal/kinetics"
	"crucible/internal/model"
	"crucible/internal/oracle"
	"crucible/internal/platform"
	"crucible/internal/stats"
	"crucible/internal/storage"
)

const (
	defaultResultsDir = "results"
	defaultExportsDir = "exports"
	defaultDBPath     = "crucible.db"

	defaultSeedFormula = "BaHfS3"
	defaultWalkSteps   = 100
	defaultPreset      = "solvent"
	defaultProtocol    = "ramp-hold"
	defaultEpisodes    = 20
	defaultIterations  = 20
	defaultRunsLimit   = 20
)

type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
	ExportsDir string
	PresetFile string
	Logger     *slog.Logger
}

type Client struct {
	store   storage.Store
	lab     *platform.Lab
	presets *kinetics.PresetSet
	logger  *slog.Logger

	resultsDir string
	exportsDir string
}

type WalkRequest struct {
	OracleModel  string
	SeedFormulas []string
	Steps        int
	Temperature  float64
	Seed         int64
	Label        string
}

type WalkChampion struct {
	Seed         int64
	StartFormula string
	FinalFormula string
	BestFormula  string
	BestScore    float64
	Steps        int
	Accepted     int
}

type WalkSummary struct {
	RunID        string
	ArtifactsDir string
	Oracle       string
	Target       string
	BestFormula  string
	BestScore    float64
	Champions    []WalkChampion
}

type SynthesisRequest struct {
	Preset     string
	Protocol   string
	Seed       int64
	StartTemp  *float64
	Continuous bool
	Label      string
}

type SynthesisSummary struct {
	RunID        string
	ArtifactsDir string
	Preset       string
	Material     string
	Protocol     string
	Seed         int64
	Steps        int
	TotalReward  float64
	Termination  string
	ObsColumns   []string
	FinalObs     []float64
}

type BenchRequest struct {
	Preset    string
	Protocols []string
	Episodes  int
	Seed      int64
	StartTemp *float64
	Label     string
}

type BenchSummary struct {
	RunID        string
	ArtifactsDir string
	Preset       string
	Episodes     int
	Winner       string
	Protocols    []stats.ProtocolStats
}

type DopeRequest struct {
	Iterations int
	Seed       int64
	NoiseStd   *float64
	SeedPoints int
	PoolSize   int
	Label      string
}

type DopeSummary struct {
	RunID        string
	ArtifactsDir string
	Iterations   int
	Best         model.DopingLoading
	BestResponse float64
	Observations []model.DopingObservation
	Validation   model.DopingValidation
}

type ValidateRequest struct {
	Cl     float64
	Br     float64
	Iodine float64
}

type ValidationReport struct {
	Cl              float64
	Br              float64
	Iodine          float64
	ExcessCharge    float64
	LiRemaining     float64
	Formula         string
	VegardStrainPct float64
	Phase           string
	Findings        []string
	Stable          bool
}

type ScoreRequest struct {
	OracleModel string
	Formula     string
}

type ScoreSummary struct {
	Oracle  string
	Target  string
	Formula string
	Score   float64
}

type PresetItem struct {
	Name     string
	Kind     string
	Material string
	MaxSteps int
	Furnace  *kinetics.FurnaceParams
	Cell     *kinetics.CellParams
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	Kind         string
	Label        string
	Seed         int64
	Best         float64
	CreatedAtUTC string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	presets, err := kinetics.Defaults()
	if err != nil {
		return nil, err
	}
	if opts.PresetFile != "" {
		data, err := os.ReadFile(opts.PresetFile)
		if err != nil {
			return nil, fmt.Errorf("read preset file: %w", err)
		}
		if presets, err = kinetics.ParsePresets(data); err != nil {
			return nil, err
		}
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		presets:    presets,
		logger:     opts.Logger,
		resultsDir: resultsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureLab(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	lab, err := c.ensureLab(ctx)
	if err != nil {
		return err
	}
	return lab.Reset(ctx)
}

func (c *Client) Walk(ctx context.Context, req WalkRequest) (WalkSummary, error) {
	if req.OracleModel == "" {
		return WalkSummary{}, errors.New("walk requires an oracle model path")
	}
	if len(req.SeedFormulas) == 0 {
		req.SeedFormulas = []string{defaultSeedFormula}
	}
	if req.Steps <= 0 {
		req.Steps = defaultWalkSteps
	}

	lab, err := c.ensureLab(ctx)
	if err != nil {
		return WalkSummary{}, err
	}
	art, err := oracle.Load(req.OracleModel)
	if err != nil {
		return WalkSummary{}, err
	}
	if err := lab.RegisterOracle(art.Name(), art); err != nil {
		return WalkSummary{}, err
	}

	report, err := lab.RunWalk(ctx, platform.WalkSpec{
		Oracle:        art.Name(),
		StartFormulas: req.SeedFormulas,
		Steps:         req.Steps,
		Temperature:   req.Temperature,
		Seed:          req.Seed,
		Label:         req.Label,
	})
	if err != nil {
		return WalkSummary{}, err
	}

	champions := make([]WalkChampion, 0, len(report.Records))
	for _, rec := range report.Records {
		accepted := 0
		for _, step := range rec.Steps {
			if step.Accepted {
				accepted++
			}
		}
		champions = append(champions, WalkChampion{
			Seed:         rec.Seed,
			StartFormula: rec.StartFormula,
			FinalFormula: rec.FinalFormula,
			BestFormula:  rec.BestFormula,
			BestScore:    rec.BestScore,
			Steps:        len(rec.Steps),
			Accepted:     accepted,
		})
	}
	return WalkSummary{
		RunID:        report.RunID,
		ArtifactsDir: filepath.Clean(report.Dir),
		Oracle:       art.Name(),
		Target:       art.Target(),
		BestFormula:  report.Summary.BestFormula,
		BestScore:    report.Summary.BestScore,
		Champions:    champions,
	}, nil
}

func (c *Client) Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisSummary, error) {
	if req.Preset == "" {
		req.Preset = defaultPreset
	}
	if req.Protocol == "" {
		req.Protocol = defaultProtocol
	}

	lab, err := c.ensureLab(ctx)
	if err != nil {
		return SynthesisSummary{}, err
	}
	report, err := lab.RunSynthesis(ctx, platform.SynthesisSpec{
		Preset:     req.Preset,
		Protocol:   req.Protocol,
		Seed:       req.Seed,
		StartTemp:  req.StartTemp,
		Continuous: req.Continuous,
		Label:      req.Label,
	})
	if err != nil {
		return SynthesisSummary{}, err
	}

	return SynthesisSummary{
		RunID:        report.RunID,
		ArtifactsDir: filepath.Clean(report.Dir),
		Preset:       report.Record.Preset,
		Material:     report.Record.Material,
		Protocol:     report.Record.Protocol,
		Seed:         req.Seed,
		Steps:        report.Record.Steps,
		TotalReward:  report.Record.TotalReward,
		Termination:  report.Record.Termination,
		ObsColumns:   append([]string(nil), report.ObsColumns...),
		FinalObs:     append([]float64(nil), report.Record.FinalObs...),
	}, nil
}

func (c *Client) Bench(ctx context.Context, req BenchRequest) (BenchSummary, error) {
	if req.Preset == "" {
		req.Preset = defaultPreset
	}
	if req.Episodes <= 0 {
		req.Episodes = defaultEpisodes
	}
	if len(req.Protocols) == 0 {
		kind, err := c.presets.Kind(req.Preset)
		if err != nil {
			return BenchSummary{}, err
		}
		if kind == kinetics.KindCell {
			req.Protocols = []string{"rest", "slow-charge", "fast-charge", "break-in"}
		} else {
			req.Protocols = []string{"always-heat", "ramp-hold", "pulse-quench"}
		}
	}

	lab, err := c.ensureLab(ctx)
	if err != nil {
		return BenchSummary{}, err
	}
	report, err := lab.RunProtocolBench(ctx, platform.BenchSpec{
		Preset:    req.Preset,
		Protocols: req.Protocols,
		Episodes:  req.Episodes,
		Seed:      req.Seed,
		StartTemp: req.StartTemp,
		Label:     req.Label,
	})
	if err != nil {
		return BenchSummary{}, err
	}

	return BenchSummary{
		RunID:        report.RunID,
		ArtifactsDir: filepath.Clean(report.Dir),
		Preset:       report.Summary.Preset,
		Episodes:     report.Summary.Episodes,
		Winner:       report.Summary.Winner,
		Protocols:    append([]stats.ProtocolStats(nil), report.Summary.Protocols...),
	}, nil
}

func (c *Client) Dope(ctx context.Context, req DopeRequest) (DopeSummary, error) {
	if req.Iterations <= 0 {
		req.Iterations = defaultIterations
	}

	lab, err := c.ensureLab(ctx)
	if err != nil {
		return DopeSummary{}, err
	}
	report, err := lab.RunDoping(ctx, platform.DopingSpec{
		Iterations: req.Iterations,
		Seed:       req.Seed,
		NoiseStd:   req.NoiseStd,
		SeedPoints: req.SeedPoints,
		PoolSize:   req.PoolSize,
		Label:      req.Label,
	})
	if err != nil {
		return DopeSummary{}, err
	}

	return DopeSummary{
		RunID:        report.RunID,
		ArtifactsDir: filepath.Clean(report.Dir),
		Iterations:   report.Record.Iterations,
		Best:         report.Record.Best,
		BestResponse: report.Record.BestResponse,
		Observations: append([]model.DopingObservation(nil), report.Record.Observations...),
		Validation:   report.Record.Validation,
	}, nil
}

func (c *Client) Validate(_ context.Context, req ValidateRequest) (ValidationReport, error) {
	if req.Cl < 0 || req.Br < 0 || req.Iodine < 0 {
		return ValidationReport{}, errors.New("dopant loadings must be >= 0")
	}

	validator := doping.NewValidator(doping.DefaultResponseParams())
	report := validator.Validate(doping.Composition{Cl: req.Cl, Br: req.Br, I: req.Iodine})
	return ValidationReport{
		Cl:              report.Composition.Cl,
		Br:              report.Composition.Br,
		Iodine:          report.Composition.I,
		ExcessCharge:    report.ExcessCharge,
		LiRemaining:     report.LiRemaining,
		Formula:         report.Formula,
		VegardStrainPct: report.VegardStrainPct,
		Phase:           report.Phase,
		Findings:        append([]string(nil), report.Findings...),
		Stable:          report.Stable,
	}, nil
}

func (c *Client) Score(_ context.Context, req ScoreRequest) (ScoreSummary, error) {
	if req.OracleModel == "" {
		return ScoreSummary{}, errors.New("score requires an oracle model path")
	}
	if req.Formula == "" {
		return ScoreSummary{}, errors.New("score requires a formula")
	}

	art, err := oracle.Load(req.OracleModel)
	if err != nil {
		return ScoreSummary{}, err
	}
	value, err := art.Score(req.Formula)
	if err != nil {
		return ScoreSummary{}, err
	}
	return ScoreSummary{
		Oracle:  art.Name(),
		Target:  art.Target(),
		Formula: req.Formula,
		Score:   value,
	}, nil
}

func (c *Client) Presets(_ context.Context) ([]PresetItem, error) {
	names := c.presets.Names()
	materials := c.presets.Materials()

	items := make([]PresetItem, 0, len(names))
	for _, name := range names {
		kind, err := c.presets.Kind(name)
		if err != nil {
			return nil, err
		}
		item := PresetItem{Name: name, Kind: kind, Material: materials[name]}
		switch kind {
		case kinetics.KindFurnace:
			params, err := c.presets.Furnace(name)
			if err != nil {
				return nil, err
			}
			item.MaxSteps = params.MaxSteps
			item.Furnace = &params
		case kinetics.KindCell:
			params, err := c.presets.Cell(name)
			if err != nil {
				return nil, err
			}
			item.MaxSteps = params.MaxSteps
			item.Cell = &params
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.resultsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			Kind:         e.Kind,
			Label:        e.Label,
			Seed:         e.Seed,
			Best:         e.Best,
			CreatedAtUTC: e.CreatedAtUTC,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.resultsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) ensureLab(ctx context.Context) (*platform.Lab, error) {
	if c.lab != nil {
		return c.lab, nil
	}
	lab, err := platform.New(platform.Config{
		Store:      c.store,
		ResultsDir: c.resultsDir,
		Presets:    c.presets,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := lab.Init(ctx); err != nil {
		return nil, err
	}
	c.lab = lab
	return c.lab, nil
}
