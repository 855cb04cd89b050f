package muon

import (
	"github.com/dispmuon/displacement.report/internal/monitoring"
)

// Aggregator runs the per-event feature computation: it iterates the
// muon collection, invokes the clusterer, the ratio curve and the
// ancestry classification for each accepted muon, and buffers the
// results into a category-partitioned Frame.
//
// The life cycle per event is Clear → Populate → Flush. An Aggregator
// is single-threaded; to process events concurrently, give each worker
// its own Aggregator and serialise the flushed frames into the sink.
type Aggregator struct {
	frame Frame
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Clear resets all output buffers. Clearing an already-empty aggregator
// is a no-op, so Clear may be called unconditionally at the start of
// every event.
func (g *Aggregator) Clear() {
	g.frame = Frame{}
}

// Populate computes features for every accepted muon of ev and appends
// them to the frame buffers. Muons failing the quality gates (not a
// tracker muon, or missing the best-fit track) and muons without a
// truth match are skipped without a row; skipping is not an error.
// Ancestry walks that hit the hop bound are counted on the frame and
// the affected muon is classified along the non-photon path, so the
// event always completes.
func (g *Aggregator) Populate(ev *Event) {
	g.frame.EventID = ev.ID
	ref := ev.ReferenceVertex()

	for i := range ev.Muons {
		mu := &ev.Muons[i]
		if !mu.IsTracker || mu.BestTrack == nil {
			continue
		}
		if ev.Truth.At(mu.TruthRef) == nil {
			continue
		}

		cluster := ClusterDisplaced(mu, ev.Tracks)
		curve := ComputeRatioCurve(cluster.Nearby)
		rec := BuildFeatureRecord(mu, ref, &cluster, &curve)

		cat, err := ev.Truth.ClassifyTruth(mu.TruthRef)
		if err != nil {
			g.frame.BoundFaults++
		}
		g.frame.Categories[cat].Append(&rec)

		g.appendTruthRow(ev, i, mu)
	}

	if g.frame.BoundFaults > 0 {
		monitoring.CountAncestryFault(g.frame.BoundFaults)
		monitoring.Logf("event %d: %d ancestry walk(s) exceeded the hop bound; input mother relation is suspect",
			ev.ID, g.frame.BoundFaults)
	}
}

// appendTruthRow emits the truth-linked variant record for muon index i.
// The record keeps the reco collection index, so rows stay positionally
// aligned with the unfiltered muon list even across skipped muons.
func (g *Aggregator) appendTruthRow(ev *Event, i int, mu *Muon) {
	p := ev.Truth.At(mu.TruthRef)

	photonMother, err := ev.Truth.HasPhotonMother(mu.TruthRef)
	if err != nil {
		g.frame.BoundFaults++
	}

	g.frame.TruthRows = append(g.frame.TruthRows, TruthMatchRecord{
		Index:        i,
		RecoPt:       mu.Pt,
		RecoEta:      mu.Eta,
		RecoPhi:      mu.Phi,
		TruthPt:      p.Pt,
		TruthEta:     p.Eta,
		TruthPhi:     p.Phi,
		TruthPDG:     p.PDG,
		IsPileup:     ev.Truth.IsPileupLike(mu.TruthRef),
		IsSignal:     ev.Truth.IsSignalMuon(mu.TruthRef),
		Prompt:       p.Flags.Has(FlagPrompt),
		HardProcess:  p.Flags.Has(FlagHardProcess),
		LastCopy:     p.Flags.Has(FlagLastCopy),
		PhotonMother: photonMother,
	})
}

// Flush hands the populated frame to the caller by value and resets the
// aggregator, ready for the next event.
func (g *Aggregator) Flush() Frame {
	out := g.frame
	g.frame = Frame{}
	return out
}

// ProcessEvent is the Clear → Populate → Flush cycle in one call.
func (g *Aggregator) ProcessEvent(ev *Event) Frame {
	g.Clear()
	g.Populate(ev)
	return g.Flush()
}
