package muon

import (
	"fmt"
	"math"
)

// NumRatioExponents is the number of charge-weighted ratio exponents.
const NumRatioExponents = 10

// RatioExponent returns exponent k of the ratio curve: 0.1, 0.2, ... 1.0.
// The exponent is derived from the integer index so that exactly ten
// values are produced with no floating-point step drift.
func RatioExponent(k int) float64 {
	return float64(k+1) * 0.1
}

// RatioSuffix returns the output-column suffix for exponent index k
// ("m01" through "m10").
func RatioSuffix(k int) string {
	return fmt.Sprintf("m%02d", k+1)
}

// MinPtSentinel is the initial value of the running pt minimum. It
// survives in RatioCurve.MinPt when the sample list is empty; callers
// must guard on an empty list before deriving ranges.
const MinPtSentinel = 1e9

// RatioCurve holds the charge-weighted momentum-ratio curve and the pt
// reductions over one muon's nearby-track samples.
type RatioCurve struct {
	// Ratios is indexed by exponent: Ratios[k] uses RatioExponent(k).
	Ratios [NumRatioExponents]float64

	SumPt float64
	MaxPt float64
	MinPt float64
}

// ComputeRatioCurve evaluates the charge-weighted power-mean ratio at
// each exponent, together with the sum, maximum and minimum of the
// sample pt values. An empty sample list yields zero ratios, zero sums
// and the sentinel minimum, with no division fault.
func ComputeRatioCurve(samples []TrackSample) RatioCurve {
	curve := RatioCurve{MinPt: MinPtSentinel}

	for _, s := range samples {
		curve.SumPt += s.Pt
		if s.Pt > curve.MaxPt {
			curve.MaxPt = s.Pt
		}
		if s.Pt < curve.MinPt {
			curve.MinPt = s.Pt
		}
	}

	for k := 0; k < NumRatioExponents; k++ {
		m := RatioExponent(k)
		var num, den float64
		for _, s := range samples {
			w := math.Pow(s.Pt, m)
			num += float64(s.Charge) * w
			den += w
		}
		if den > 0 {
			curve.Ratios[k] = num / den
		}
	}

	return curve
}
