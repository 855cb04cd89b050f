package muon

import "math"

// MuonFeatureRecord is one output row: the kinematics, impact
// parameters, per-threshold clustering accumulations, charge-weighted
// ratio curve and derived summary scalars of a single accepted muon.
type MuonFeatureRecord struct {
	Pt     float64
	Eta    float64
	Phi    float64
	Charge int

	// Dz and D0 are the impact parameters of the best-fit track
	// against the event reference vertex; ImpactFactor is their
	// Euclidean norm.
	Dz           float64
	D0           float64
	ImpactFactor float64

	// ExtraTracks and SumExtraTrackPt are indexed in step with
	// DisplacementThresholdsMM.
	ExtraTracks     [NumThresholds]int
	SumExtraTrackPt [NumThresholds]float64

	// ChargeWeightedRatios is indexed by RatioExponent.
	ChargeWeightedRatios [NumRatioExponents]float64

	MaxPtRatio float64
	PtRange    float64
	SumExtraPt float64

	// ExtraPtRatio is a 1.0/0.0 indicator of any extra pt being
	// present. The name suggests a true ratio but the historical
	// output is the indicator, which is reproduced unchanged.
	ExtraPtRatio float64
}

// BuildFeatureRecord assembles the output row for one muon from its
// clustering and ratio-curve results. ref is the event reference vertex.
func BuildFeatureRecord(mu *Muon, ref Vec3, cluster *ClusterResult, curve *RatioCurve) MuonFeatureRecord {
	rec := MuonFeatureRecord{
		Pt:     mu.Pt,
		Eta:    mu.Eta,
		Phi:    mu.Phi,
		Charge: mu.Charge,
	}

	if mu.BestTrack != nil {
		rec.Dz = mu.BestTrack.Dz(ref)
		rec.D0 = mu.BestTrack.Dxy(ref)
		rec.ImpactFactor = math.Hypot(rec.Dz, rec.D0)
	}

	for t := 0; t < NumThresholds; t++ {
		rec.ExtraTracks[t] = cluster.Buckets[t].Count
		rec.SumExtraTrackPt[t] = cluster.Buckets[t].SumPt
	}
	rec.ChargeWeightedRatios = curve.Ratios

	rec.SumExtraPt = curve.SumPt
	if curve.SumPt > 0 {
		rec.MaxPtRatio = curve.MaxPt / curve.SumPt
		rec.ExtraPtRatio = 1.0
	}
	if len(cluster.Nearby) > 0 {
		rec.PtRange = curve.MaxPt - curve.MinPt
	}

	return rec
}
