package muon

// DisplacementThresholdsMM are the nested clustering radii, in
// millimetres. A candidate within threshold i is also counted at every
// larger threshold, so per-threshold counts and summed pt are
// monotonically non-decreasing across this sequence.
var DisplacementThresholdsMM = [NumThresholds]float64{0.5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// NumThresholds is the number of displacement thresholds.
const NumThresholds = 11

// thresholdSuffixes are the column-name suffixes matching
// DisplacementThresholdsMM ("0p5" for the half-millimetre bucket).
var thresholdSuffixes = [NumThresholds]string{"0p5", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

// ThresholdSuffix returns the output-column suffix for threshold index i.
func ThresholdSuffix(i int) string {
	return thresholdSuffixes[i]
}

// mmPerCm converts the detector-frame centimetre coordinates to the
// millimetre threshold scale.
const mmPerCm = 10.0

// SelfMatchPtTolerance is the pt window used to drop the candidate track
// belonging to the muon itself. This is a proxy match on transverse
// momentum, not an identity check: it can drop a genuinely distinct
// candidate at coincidentally equal pt, and a heavily rounded muon track
// can slip past it. It is kept as-is for output compatibility.
const SelfMatchPtTolerance = 1e-3

// ThresholdBucket accumulates the candidates inside one displacement
// threshold.
type ThresholdBucket struct {
	Count int
	SumPt float64
}

// TrackSample is the (pt, charge) pair of a surviving candidate, kept
// for the downstream ratio and range computations.
type TrackSample struct {
	Pt     float64
	Charge int
}

// ClusterResult is the output of one displacement-clustering pass.
type ClusterResult struct {
	// Buckets is indexed in step with DisplacementThresholdsMM.
	Buckets [NumThresholds]ThresholdBucket

	// Nearby lists every surviving candidate regardless of distance;
	// the ratio curve and pt range are intentionally unbounded by
	// radius.
	Nearby []TrackSample
}

// ClusterDisplaced scans the candidate-track collection around mu and
// accumulates per-threshold counts and summed transverse momentum.
// Candidates without track details and the muon's own proxy match are
// skipped entirely.
func ClusterDisplaced(mu *Muon, tracks []CandidateTrack) ClusterResult {
	var res ClusterResult
	for i := range tracks {
		cand := &tracks[i]
		if !cand.HasTrackDetails {
			continue
		}
		dpt := cand.Pt - mu.Pt
		if dpt < 0 {
			dpt = -dpt
		}
		if dpt < SelfMatchPtTolerance {
			continue
		}

		distMM := cand.Pos.Distance(mu.Prod) * mmPerCm
		for t, thr := range DisplacementThresholdsMM {
			if distMM < thr {
				res.Buckets[t].Count++
				res.Buckets[t].SumPt += cand.Pt
			}
		}

		res.Nearby = append(res.Nearby, TrackSample{Pt: cand.Pt, Charge: cand.Charge})
	}
	return res
}
