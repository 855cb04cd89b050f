// Package config loads the JSON analysis configuration consumed by the
// scan tools. The schema uses pointer fields so a partial file can be
// merged over the built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AnalysisConfig names the per-event input collections and carries the
// scanner tuning knobs. The collection identifiers, the centre-of-mass
// energy and the mass window describe the producing framework; of
// these, the mass window is accepted but not consumed by the core
// computation.
type AnalysisConfig struct {
	// Input collection identifiers.
	MuonCollection       *string `json:"muon_collection,omitempty"`
	TrackCollection      *string `json:"track_collection,omitempty"`
	VertexCollection     *string `json:"vertex_collection,omitempty"`
	PileupInfoCollection *string `json:"pileup_info_collection,omitempty"`
	PrunedGenCollection  *string `json:"pruned_gen_collection,omitempty"`
	PackedGenCollection  *string `json:"packed_gen_collection,omitempty"`

	// Generator context.
	ComEnergyGeV *float64 `json:"com_energy_gev,omitempty"`

	// Optional invariant-mass window bounds (GeV). Retained for
	// framework compatibility; the feature computation ignores it.
	MassWindowLowGeV  *float64 `json:"mass_window_low_gev,omitempty"`
	MassWindowHighGeV *float64 `json:"mass_window_high_gev,omitempty"`

	// Scanner tuning.
	MinMuonPtGeV     *float64 `json:"min_muon_pt_gev,omitempty"`
	MatchMaxAngleRad *float64 `json:"match_max_angle_rad,omitempty"`
	BFieldTesla      *float64 `json:"bfield_tesla,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. Fields
// omitted from the file keep their defaults, so partial configs are
// safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configured values for internal consistency.
func (c *AnalysisConfig) Validate() error {
	if c.ComEnergyGeV != nil && *c.ComEnergyGeV <= 0 {
		return fmt.Errorf("com_energy_gev must be positive, got %f", *c.ComEnergyGeV)
	}
	if c.MinMuonPtGeV != nil && *c.MinMuonPtGeV < 0 {
		return fmt.Errorf("min_muon_pt_gev must be non-negative, got %f", *c.MinMuonPtGeV)
	}
	if c.MatchMaxAngleRad != nil && *c.MatchMaxAngleRad <= 0 {
		return fmt.Errorf("match_max_angle_rad must be positive, got %f", *c.MatchMaxAngleRad)
	}
	if c.BFieldTesla != nil && *c.BFieldTesla == 0 {
		return fmt.Errorf("bfield_tesla must be non-zero")
	}
	if c.MassWindowLowGeV != nil && c.MassWindowHighGeV != nil &&
		*c.MassWindowLowGeV > *c.MassWindowHighGeV {
		return fmt.Errorf("mass window bounds inverted: [%f, %f]",
			*c.MassWindowLowGeV, *c.MassWindowHighGeV)
	}
	return nil
}

// GetMuonCollection returns the muon collection name or the default.
func (c *AnalysisConfig) GetMuonCollection() string {
	if c.MuonCollection == nil {
		return "MCParticle"
	}
	return *c.MuonCollection
}

// GetTrackCollection returns the track collection name or the default.
func (c *AnalysisConfig) GetTrackCollection() string {
	if c.TrackCollection == nil {
		return "Tracks"
	}
	return *c.TrackCollection
}

// GetVertexCollection returns the vertex collection name or the default.
func (c *AnalysisConfig) GetVertexCollection() string {
	if c.VertexCollection == nil {
		return "Vertices"
	}
	return *c.VertexCollection
}

// GetPrunedGenCollection returns the full truth-collection name or the
// default.
func (c *AnalysisConfig) GetPrunedGenCollection() string {
	if c.PrunedGenCollection == nil {
		return "MCParticle"
	}
	return *c.PrunedGenCollection
}

// GetComEnergyGeV returns the centre-of-mass energy or the default.
func (c *AnalysisConfig) GetComEnergyGeV() float64 {
	if c.ComEnergyGeV == nil {
		return 13000
	}
	return *c.ComEnergyGeV
}

// GetMinMuonPtGeV returns the muon pt floor or the default.
func (c *AnalysisConfig) GetMinMuonPtGeV() float64 {
	if c.MinMuonPtGeV == nil {
		return 0.5
	}
	return *c.MinMuonPtGeV
}

// GetMatchMaxAngleRad returns the truth-to-track matching cone or the
// default.
func (c *AnalysisConfig) GetMatchMaxAngleRad() float64 {
	if c.MatchMaxAngleRad == nil {
		return 0.01
	}
	return *c.MatchMaxAngleRad
}

// GetBFieldTesla returns the solenoid field or the default.
func (c *AnalysisConfig) GetBFieldTesla() float64 {
	if c.BFieldTesla == nil {
		return 3.8
	}
	return *c.BFieldTesla
}
