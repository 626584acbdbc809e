package kinetics

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Simulator kinds reported by PresetSet.Kind.
const (
	KindFurnace = "furnace"
	KindCell    = "cell"
)

// ErrUnknownPreset is wrapped by lookups on names no preset answers to.
var ErrUnknownPreset = errors.New("unknown simulator preset")

// PresetSet holds named furnace routes and cell scenarios, keyed by their
// normalized names. The embedded defaults cover the built-in materials; a
// user file can replace them wholesale.
type PresetSet struct {
	furnaces map[string]FurnaceParams
	cells    map[string]CellParams
}

type presetFile struct {
	Furnaces []FurnaceParams `yaml:"furnaces"`
	Cells    []CellParams    `yaml:"cells"`
}

// ParsePresets reads a preset file and validates every entry.
func ParsePresets(data []byte) (*PresetSet, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	set := &PresetSet{
		furnaces: make(map[string]FurnaceParams, len(file.Furnaces)),
		cells:    make(map[string]CellParams, len(file.Cells)),
	}
	for _, params := range file.Furnaces {
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("furnace preset: %w", err)
		}
		key := Normalize(params.Name)
		if set.has(key) {
			return nil, fmt.Errorf("duplicate preset name %q", key)
		}
		set.furnaces[key] = params
	}
	for _, params := range file.Cells {
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("cell preset: %w", err)
		}
		key := Normalize(params.Name)
		if set.has(key) {
			return nil, fmt.Errorf("duplicate preset name %q", key)
		}
		set.cells[key] = params
	}
	return set, nil
}

var (
	defaultsOnce sync.Once
	defaultSet   *PresetSet
	defaultsErr  error
)

// Defaults returns the embedded preset set.
func Defaults() (*PresetSet, error) {
	defaultsOnce.Do(func() {
		defaultSet, defaultsErr = ParsePresets(presetsYAML)
	})
	return defaultSet, defaultsErr
}

func (s *PresetSet) has(key string) bool {
	if _, ok := s.furnaces[key]; ok {
		return true
	}
	_, ok := s.cells[key]
	return ok
}

// Furnace looks up a furnace route by name or alias.
func (s *PresetSet) Furnace(name string) (FurnaceParams, error) {
	params, ok := s.furnaces[Normalize(name)]
	if !ok {
		return FurnaceParams{}, fmt.Errorf("furnace %q: %w", name, ErrUnknownPreset)
	}
	return params, nil
}

// Cell looks up a cell scenario by name or alias.
func (s *PresetSet) Cell(name string) (CellParams, error) {
	params, ok := s.cells[Normalize(name)]
	if !ok {
		return CellParams{}, fmt.Errorf("cell %q: %w", name, ErrUnknownPreset)
	}
	return params, nil
}

// Kind reports whether a preset name resolves to a furnace or a cell.
func (s *PresetSet) Kind(name string) (string, error) {
	key := Normalize(name)
	if _, ok := s.furnaces[key]; ok {
		return KindFurnace, nil
	}
	if _, ok := s.cells[key]; ok {
		return KindCell, nil
	}
	return "", fmt.Errorf("preset %q: %w", name, ErrUnknownPreset)
}

// New builds a simulator for any preset name. The random source is handed
// to the simulator and must not be shared across goroutines.
func (s *PresetSet) New(name string, rng *rand.Rand) (Simulator, error) {
	key := Normalize(name)
	if params, ok := s.furnaces[key]; ok {
		return NewFurnace(params, rng)
	}
	if params, ok := s.cells[key]; ok {
		return NewCell(params, rng)
	}
	return nil, fmt.Errorf("preset %q: %w", name, ErrUnknownPreset)
}

// Names lists every preset in the set, sorted.
func (s *PresetSet) Names() []string {
	names := make([]string, 0, len(s.furnaces)+len(s.cells))
	for name := range s.furnaces {
		names = append(names, name)
	}
	for name := range s.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Materials maps preset names to the material each one synthesizes or
// cycles, for listings.
func (s *PresetSet) Materials() map[string]string {
	out := make(map[string]string, len(s.furnaces)+len(s.cells))
	for name, params := range s.furnaces {
		out[name] = params.Material
	}
	for name, params := range s.cells {
		out[name] = params.Material
	}
	return out
}
