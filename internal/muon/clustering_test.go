package muon

import (
	"math"
	"testing"
)

func TestClusterDisplaced_NestedThresholds(t *testing.T) {
	// Muon at pt=20 producing at the origin; two candidates at 0.3mm
	// and 0.8mm with pt 5 and 3. The 0.5mm bucket sees only the first,
	// the 1mm bucket sees both.
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	tracks := []CandidateTrack{
		{Pt: 5, Charge: +1, Pos: Vec3{X: 0.03}, HasTrackDetails: true}, // 0.3mm
		{Pt: 3, Charge: -1, Pos: Vec3{X: 0.08}, HasTrackDetails: true}, // 0.8mm
	}

	res := ClusterDisplaced(mu, tracks)

	if res.Buckets[0].Count != 1 || res.Buckets[0].SumPt != 5 {
		t.Errorf("0.5mm bucket = (%d, %v), want (1, 5)", res.Buckets[0].Count, res.Buckets[0].SumPt)
	}
	if res.Buckets[1].Count != 2 || res.Buckets[1].SumPt != 8 {
		t.Errorf("1mm bucket = (%d, %v), want (2, 8)", res.Buckets[1].Count, res.Buckets[1].SumPt)
	}
	if len(res.Nearby) != 2 {
		t.Errorf("nearby samples = %d, want 2", len(res.Nearby))
	}
}

func TestClusterDisplaced_Monotonic(t *testing.T) {
	mu := &Muon{Pt: 40, Prod: Vec3{X: 1, Y: -2, Z: 3}}

	// Spread candidates across and beyond the threshold range.
	var tracks []CandidateTrack
	for i := 0; i < 30; i++ {
		d := 0.004 * float64(i+1) // 0.04mm steps in cm
		tracks = append(tracks, CandidateTrack{
			Pt:              1 + float64(i),
			Charge:          1 - 2*(i%2),
			Pos:             Vec3{X: 1 + d, Y: -2, Z: 3},
			HasTrackDetails: true,
		})
	}

	res := ClusterDisplaced(mu, tracks)

	for tIdx := 1; tIdx < NumThresholds; tIdx++ {
		if res.Buckets[tIdx].Count < res.Buckets[tIdx-1].Count {
			t.Errorf("count not monotonic at threshold %d: %d < %d",
				tIdx, res.Buckets[tIdx].Count, res.Buckets[tIdx-1].Count)
		}
		if res.Buckets[tIdx].SumPt < res.Buckets[tIdx-1].SumPt {
			t.Errorf("sumPt not monotonic at threshold %d: %v < %v",
				tIdx, res.Buckets[tIdx].SumPt, res.Buckets[tIdx-1].SumPt)
		}
	}
}

func TestClusterDisplaced_SkipsSelfMatch(t *testing.T) {
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	tracks := []CandidateTrack{
		// The muon's own track, reconstructed with a rounding shift
		// inside the tolerance.
		{Pt: 20.0005, Charge: 1, Pos: Vec3{}, HasTrackDetails: true},
		{Pt: 7, Charge: -1, Pos: Vec3{X: 0.01}, HasTrackDetails: true},
	}

	res := ClusterDisplaced(mu, tracks)

	if len(res.Nearby) != 1 {
		t.Fatalf("nearby samples = %d, want 1 (self match excluded)", len(res.Nearby))
	}
	if res.Nearby[0].Pt != 7 {
		t.Errorf("surviving sample pt = %v, want 7", res.Nearby[0].Pt)
	}
}

func TestClusterDisplaced_SkipsMissingDetails(t *testing.T) {
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	tracks := []CandidateTrack{
		{Pt: 5, Charge: 1, Pos: Vec3{X: 0.01}, HasTrackDetails: false},
	}

	res := ClusterDisplaced(mu, tracks)

	if res.Buckets[NumThresholds-1].Count != 0 {
		t.Error("candidate without track details must be excluded")
	}
	if len(res.Nearby) != 0 {
		t.Error("candidate without track details must not enter the sample list")
	}
}

func TestClusterDisplaced_FarCandidateStillSampled(t *testing.T) {
	// A candidate beyond 10mm contributes to no bucket but still feeds
	// the ratio sample list: the list is intentionally unbounded by
	// radius.
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	tracks := []CandidateTrack{
		{Pt: 9, Charge: 1, Pos: Vec3{X: 5}, HasTrackDetails: true}, // 50mm
	}

	res := ClusterDisplaced(mu, tracks)

	for tIdx := 0; tIdx < NumThresholds; tIdx++ {
		if res.Buckets[tIdx].Count != 0 {
			t.Errorf("threshold %d counted a 50mm candidate", tIdx)
		}
	}
	if len(res.Nearby) != 1 {
		t.Errorf("nearby samples = %d, want 1", len(res.Nearby))
	}
}

func TestClusterDisplaced_EmptyInput(t *testing.T) {
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	res := ClusterDisplaced(mu, nil)

	for tIdx := 0; tIdx < NumThresholds; tIdx++ {
		if res.Buckets[tIdx].Count != 0 || res.Buckets[tIdx].SumPt != 0 {
			t.Errorf("threshold %d = (%d, %v), want (0, 0)",
				tIdx, res.Buckets[tIdx].Count, res.Buckets[tIdx].SumPt)
		}
	}
	if len(res.Nearby) != 0 {
		t.Error("empty input must produce no samples")
	}
}

func TestClusterDisplaced_StrictThresholdBoundary(t *testing.T) {
	// A candidate at exactly 1mm is outside the 1mm bucket (strict <)
	// but inside the 2mm bucket.
	mu := &Muon{Pt: 20, Prod: Vec3{}}
	tracks := []CandidateTrack{
		{Pt: 4, Charge: 1, Pos: Vec3{X: 0.1}, HasTrackDetails: true}, // exactly 1mm
	}

	res := ClusterDisplaced(mu, tracks)

	if res.Buckets[1].Count != 0 {
		t.Error("boundary candidate must not enter the 1mm bucket")
	}
	if res.Buckets[2].Count != 1 {
		t.Error("boundary candidate must enter the 2mm bucket")
	}
}

func TestVec3_Distance(t *testing.T) {
	v := Vec3{1, 2, 3}
	w := Vec3{4, 6, 3}
	if got := v.Distance(w); math.Abs(got-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", got)
	}
}
