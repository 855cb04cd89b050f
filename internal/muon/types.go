// Package muon computes displacement-based track-clustering features and
// generator-level truth classifications for reconstructed muons.
//
// The package is the per-event core of the analysis: the surrounding
// framework (event iteration, collection retrieval, persistence) hands it
// one Event at a time and receives one Frame of output rows back.
package muon

import "math"

// Vec3 is a point or displacement in the detector frame (centimetres).
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance between v and w.
func (v Vec3) Distance(w Vec3) float64 {
	return v.Sub(w).Norm()
}

// BestFitTrack is the best-fit track attached to a reconstructed muon.
// It is described by a reference point on the track and the momentum at
// that point, which is enough to evaluate impact parameters against an
// arbitrary reference vertex.
type BestFitTrack struct {
	Ref Vec3 // point on the track (cm)
	Mom Vec3 // momentum at Ref (GeV)
}

// Pt returns the transverse momentum of the track.
func (t *BestFitTrack) Pt() float64 {
	return math.Hypot(t.Mom.X, t.Mom.Y)
}

// Dxy returns the signed transverse impact parameter of the track with
// respect to ref, using the straight-line point-of-closest-approach
// convention.
func (t *BestFitTrack) Dxy(ref Vec3) float64 {
	pt := t.Pt()
	if pt == 0 {
		return 0
	}
	return (-(t.Ref.X-ref.X)*t.Mom.Y + (t.Ref.Y-ref.Y)*t.Mom.X) / pt
}

// Dz returns the longitudinal impact parameter of the track with respect
// to ref.
func (t *BestFitTrack) Dz(ref Vec3) float64 {
	pt := t.Pt()
	if pt == 0 {
		return t.Ref.Z - ref.Z
	}
	proj := ((t.Ref.X-ref.X)*t.Mom.X + (t.Ref.Y-ref.Y)*t.Mom.Y) / pt
	return (t.Ref.Z - ref.Z) - proj*t.Mom.Z/pt
}

// Muon is a read-only per-event snapshot of a reconstructed muon.
type Muon struct {
	Pt     float64
	Eta    float64
	Phi    float64
	Charge int
	Prod   Vec3 // production point (cm)

	// IsTracker reports whether the muon was reconstructed as a
	// tracker muon. Non-tracker muons are skipped by the aggregator.
	IsTracker bool

	// BestTrack is the best-fit track, nil when the fit is missing.
	// Muons without a best-fit track produce no output row.
	BestTrack *BestFitTrack

	// TruthRef is the arena index of the matched generator particle,
	// or NoMother when the muon has no truth match.
	TruthRef int
}

// CandidateTrack is one entry of the candidate-track collection scanned
// by the displacement clusterer.
type CandidateTrack struct {
	Pt     float64
	Charge int
	Pos    Vec3 // reconstructed position (cm)

	// HasTrackDetails reports whether track-level detail is available.
	// Candidates without details are excluded from clustering.
	HasTrackDetails bool
}

// Vertex is a reconstructed interaction vertex. Only the first vertex of
// an event's collection is consulted; an empty collection falls back to
// the origin.
type Vertex struct {
	Pos Vec3
}

// Event bundles the per-event input collections. All collections are
// owned by the caller and treated as immutable snapshots.
type Event struct {
	ID     uint64
	Muons  []Muon
	Tracks []CandidateTrack
	Verts  []Vertex
	Truth  *GenArena
}

// ReferenceVertex returns the position of the first vertex, or the
// origin when the vertex collection is empty.
func (ev *Event) ReferenceVertex() Vec3 {
	if len(ev.Verts) == 0 {
		return Vec3{}
	}
	return ev.Verts[0].Pos
}
