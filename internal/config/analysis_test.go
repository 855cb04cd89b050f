package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAnalysisConfig_Partial(t *testing.T) {
	path := writeConfig(t, `{"muon_collection": "SelectedMuons", "bfield_tesla": 4.0}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := cfg.GetMuonCollection(); got != "SelectedMuons" {
		t.Errorf("muon collection = %q, want SelectedMuons", got)
	}
	if got := cfg.GetBFieldTesla(); got != 4.0 {
		t.Errorf("bfield = %v, want 4.0", got)
	}

	// Unset fields fall back to defaults.
	if got := cfg.GetTrackCollection(); got != "Tracks" {
		t.Errorf("track collection default = %q, want Tracks", got)
	}
	if got := cfg.GetComEnergyGeV(); got != 13000 {
		t.Errorf("com energy default = %v, want 13000", got)
	}
	if got := cfg.GetMatchMaxAngleRad(); got != 0.01 {
		t.Errorf("match angle default = %v, want 0.01", got)
	}
}

func TestLoadAnalysisConfig_RejectsNonJSON(t *testing.T) {
	if _, err := LoadAnalysisConfig("analysis.yaml"); err == nil {
		t.Error("expected extension error")
	}
}

func TestValidate(t *testing.T) {
	bad := -1.0
	lo, hi := 100.0, 50.0

	tests := []struct {
		name string
		cfg  AnalysisConfig
	}{
		{"negative com energy", AnalysisConfig{ComEnergyGeV: &bad}},
		{"negative min pt", AnalysisConfig{MinMuonPtGeV: &bad}},
		{"non-positive match angle", AnalysisConfig{MatchMaxAngleRad: &bad}},
		{"inverted mass window", AnalysisConfig{MassWindowLowGeV: &lo, MassWindowHighGeV: &hi}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_MassWindowAcceptedButUnused(t *testing.T) {
	lo, hi := 70.0, 110.0
	cfg := AnalysisConfig{MassWindowLowGeV: &lo, MassWindowHighGeV: &hi}
	if err := cfg.Validate(); err != nil {
		t.Errorf("well-formed mass window rejected: %v", err)
	}
}
