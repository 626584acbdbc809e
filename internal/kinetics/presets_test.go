package kinetics

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultPresetsCoverBuiltinMaterials(t *testing.T) {
	set, err := Defaults()
	if err != nil {
		t.Fatalf("load default presets: %v", err)
	}
	want := []string{"cell", "chalcogenide", "perovskite", "solvent"}
	if diff := cmp.Diff(want, set.Names()); diff != "" {
		t.Fatalf("preset names mismatch (-want +got):\n%s", diff)
	}
	materials := set.Materials()
	if materials["chalcogenide"] != "CaGeTe3" {
		t.Fatalf("chalcogenide material = %q", materials["chalcogenide"])
	}
	if materials["perovskite"] != "BaZrS3" {
		t.Fatalf("perovskite material = %q", materials["perovskite"])
	}
}

func TestPresetLookupAcceptsMaterialAliases(t *testing.T) {
	set, err := Defaults()
	if err != nil {
		t.Fatalf("load default presets: %v", err)
	}

	furnace, err := set.Furnace("CaGeTe3")
	if err != nil {
		t.Fatalf("lookup by material alias: %v", err)
	}
	if furnace.Name != "chalcogenide" {
		t.Fatalf("alias resolved to %q, want chalcogenide", furnace.Name)
	}

	cell, err := set.Cell("battery")
	if err != nil {
		t.Fatalf("lookup by battery alias: %v", err)
	}
	if cell.Name != "cell" {
		t.Fatalf("alias resolved to %q, want cell", cell.Name)
	}

	kind, err := set.Kind("BaZrS3")
	if err != nil {
		t.Fatalf("kind by alias: %v", err)
	}
	if kind != KindFurnace {
		t.Fatalf("kind = %q, want %q", kind, KindFurnace)
	}

	if _, err := set.Furnace("unobtainium"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestPresetSetBuildsEitherSimulatorKind(t *testing.T) {
	set, err := Defaults()
	if err != nil {
		t.Fatalf("load default presets: %v", err)
	}

	sim, err := set.New("solvent", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build solvent: %v", err)
	}
	if sim.Name() != "solvent" || sim.MaxSteps() != 300 {
		t.Fatalf("solvent simulator = %q with budget %d", sim.Name(), sim.MaxSteps())
	}

	sim, err = set.New("sei", rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("build cell by alias: %v", err)
	}
	if _, ok := sim.(*Cell); !ok {
		t.Fatalf("sei alias built %T, want *Cell", sim)
	}

	if _, err := set.New("solvent", nil); err == nil {
		t.Fatal("expected an error for a nil random source")
	}
}

func TestParsePresetsRejectsDuplicatesAndBadParams(t *testing.T) {
	duplicated := []byte(`
furnaces:
  - name: twin
    formation_prefactor: 1
    formation_activation_k: 1
    decay_prefactor: 1
    decay_activation_k: 1
    time_step_min: 1
    max_steps: 10
    temp_min_k: 300
    temp_max_k: 400
    temp_step_k: 5
    start_temp_low_k: 300
    start_temp_high_k: 300
    obs_temp_scale_k: 400
  - name: twin
    formation_prefactor: 1
    formation_activation_k: 1
    decay_prefactor: 1
    decay_activation_k: 1
    time_step_min: 1
    max_steps: 10
    temp_min_k: 300
    temp_max_k: 400
    temp_step_k: 5
    start_temp_low_k: 300
    start_temp_high_k: 300
    obs_temp_scale_k: 400
`)
	if _, err := ParsePresets(duplicated); err == nil {
		t.Fatal("expected a duplicate-name error")
	}

	invalid := []byte("furnaces:\n  - name: broken\n    max_steps: -1\n")
	if _, err := ParsePresets(invalid); err == nil {
		t.Fatal("expected a validation error")
	}

	if _, err := ParsePresets([]byte("furnaces: {")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestNormalizeCanonicalizesAliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"chalcogenide", "chalcogenide"},
		{"Chalcogenide-Furnace", "chalcogenide"},
		{"CaGeTe3", "chalcogenide"},
		{"BaZrS3 ", "perovskite"},
		{"perovskite-synthesis", "perovskite"},
		{"Beta-Li3PS4", "solvent"},
		{"li3ps4", "solvent"},
		{"alloy", "solvent"},
		{"SEI_cell", "cell"},
		{"battery", "cell"},
		{"anode", "cell"},
		{"", ""},
		{"mystery-route", "mystery-route"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProtocolRegistry(t *testing.T) {
	names := Protocols()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("protocol names are not sorted: %v", names)
	}
	for _, name := range names {
		policy, err := NewProtocol(name)
		if err != nil {
			t.Fatalf("build %q: %v", name, err)
		}
		if policy.Name() != name {
			t.Fatalf("policy %q reports name %q", name, policy.Name())
		}
	}

	policy, err := NewProtocol("Always_Heat")
	if err != nil {
		t.Fatalf("scrubbed lookup: %v", err)
	}
	if policy.Name() != "always-heat" {
		t.Fatalf("scrubbed lookup built %q", policy.Name())
	}

	if _, err := NewProtocol("overclock"); !errors.Is(err, ErrUnknownProtocol) {
		t.Fatalf("expected ErrUnknownProtocol, got %v", err)
	}
}
