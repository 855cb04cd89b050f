package muon

// CategoryBuffer holds the parallel per-field output arrays of one
// category. The i-th entry across every array describes the same muon.
type CategoryBuffer struct {
	Pt           []float64
	Eta          []float64
	Phi          []float64
	Dz           []float64
	D0           []float64
	ImpactFactor []float64
	Charge       []int

	ExtraTracks     [NumThresholds][]int
	SumExtraTrackPt [NumThresholds][]float64

	ChargeWeightedRatios [NumRatioExponents][]float64

	MaxPtRatio   []float64
	PtRange      []float64
	SumExtraPt   []float64
	ExtraPtRatio []float64
}

// Len returns the number of muons buffered in the category.
func (b *CategoryBuffer) Len() int {
	return len(b.Pt)
}

// Append adds one feature record to every parallel array.
func (b *CategoryBuffer) Append(rec *MuonFeatureRecord) {
	b.Pt = append(b.Pt, rec.Pt)
	b.Eta = append(b.Eta, rec.Eta)
	b.Phi = append(b.Phi, rec.Phi)
	b.Dz = append(b.Dz, rec.Dz)
	b.D0 = append(b.D0, rec.D0)
	b.ImpactFactor = append(b.ImpactFactor, rec.ImpactFactor)
	b.Charge = append(b.Charge, rec.Charge)

	for t := 0; t < NumThresholds; t++ {
		b.ExtraTracks[t] = append(b.ExtraTracks[t], rec.ExtraTracks[t])
		b.SumExtraTrackPt[t] = append(b.SumExtraTrackPt[t], rec.SumExtraTrackPt[t])
	}
	for k := 0; k < NumRatioExponents; k++ {
		b.ChargeWeightedRatios[k] = append(b.ChargeWeightedRatios[k], rec.ChargeWeightedRatios[k])
	}

	b.MaxPtRatio = append(b.MaxPtRatio, rec.MaxPtRatio)
	b.PtRange = append(b.PtRange, rec.PtRange)
	b.SumExtraPt = append(b.SumExtraPt, rec.SumExtraPt)
	b.ExtraPtRatio = append(b.ExtraPtRatio, rec.ExtraPtRatio)
}

// Record reassembles the i-th buffered muon into a feature record.
// The index must be in [0, Len()).
func (b *CategoryBuffer) Record(i int) MuonFeatureRecord {
	rec := MuonFeatureRecord{
		Pt:           b.Pt[i],
		Eta:          b.Eta[i],
		Phi:          b.Phi[i],
		Dz:           b.Dz[i],
		D0:           b.D0[i],
		ImpactFactor: b.ImpactFactor[i],
		Charge:       b.Charge[i],
		MaxPtRatio:   b.MaxPtRatio[i],
		PtRange:      b.PtRange[i],
		SumExtraPt:   b.SumExtraPt[i],
		ExtraPtRatio: b.ExtraPtRatio[i],
	}
	for t := 0; t < NumThresholds; t++ {
		rec.ExtraTracks[t] = b.ExtraTracks[t][i]
		rec.SumExtraTrackPt[t] = b.SumExtraTrackPt[t][i]
	}
	for k := 0; k < NumRatioExponents; k++ {
		rec.ChargeWeightedRatios[k] = b.ChargeWeightedRatios[k][i]
	}
	return rec
}

// Frame is the per-event output row-set: the category-partitioned
// buffers plus the truth-linked record list. A Frame is handed to the
// sink by value at flush time, so no buffer aliasing survives across
// events.
type Frame struct {
	EventID uint64

	// Categories is indexed by Category.
	Categories [NumCategories]CategoryBuffer

	TruthRows []TruthMatchRecord

	// BoundFaults counts ancestry walks that hit MaxAncestryHops
	// while populating this frame.
	BoundFaults int
}

// Rows returns the total number of categorised muon rows in the frame.
func (f *Frame) Rows() int {
	n := 0
	for c := range f.Categories {
		n += f.Categories[c].Len()
	}
	return n
}

// ColumnNames returns the output column names of one category, in
// schema order. The threshold and exponent segments are generated from
// the declared tables so the eleven-fold and ten-fold column families
// cannot drift apart from the accumulation code.
func ColumnNames(cat Category) []string {
	prefix := cat.String() + "_"
	names := make([]string, 0, numColumns)
	for _, f := range []string{"pt", "eta", "phi", "dz", "d0", "impactFactor", "charge"} {
		names = append(names, prefix+f)
	}
	for t := 0; t < NumThresholds; t++ {
		names = append(names, prefix+"extratracks"+ThresholdSuffix(t)+"mm")
	}
	for t := 0; t < NumThresholds; t++ {
		names = append(names, prefix+"sumExtraTrackPt"+ThresholdSuffix(t)+"mm")
	}
	for k := 0; k < NumRatioExponents; k++ {
		names = append(names, prefix+"chargeWeightedRatio_"+RatioSuffix(k))
	}
	for _, f := range []string{"maxPtRatio", "ptRange", "sumExtraPt", "extraPtRatio"} {
		names = append(names, prefix+f)
	}
	return names
}

// numColumns is the per-category column count: seven kinematic fields,
// two eleven-fold threshold families, the ten ratios and four summary
// scalars.
const numColumns = 7 + 2*NumThresholds + NumRatioExponents + 4

// Values flattens a feature record into the ColumnNames order, with the
// integer fields widened to float64.
func (rec *MuonFeatureRecord) Values() []float64 {
	vals := make([]float64, 0, numColumns)
	vals = append(vals, rec.Pt, rec.Eta, rec.Phi, rec.Dz, rec.D0, rec.ImpactFactor, float64(rec.Charge))
	for t := 0; t < NumThresholds; t++ {
		vals = append(vals, float64(rec.ExtraTracks[t]))
	}
	for t := 0; t < NumThresholds; t++ {
		vals = append(vals, rec.SumExtraTrackPt[t])
	}
	for k := 0; k < NumRatioExponents; k++ {
		vals = append(vals, rec.ChargeWeightedRatios[k])
	}
	vals = append(vals, rec.MaxPtRatio, rec.PtRange, rec.SumExtraPt, rec.ExtraPtRatio)
	return vals
}
