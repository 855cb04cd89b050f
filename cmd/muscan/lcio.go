package main

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/lcio"

	"github.com/dispmuon/displacement.report/internal/config"
	"github.com/dispmuon/displacement.report/internal/muon"
)

// LCIO stores positions in millimetres; the event model uses
// centimetres.
const cmPerMM = 0.1

// pt [GeV] from track curvature: pt = c * B / |omega|, with omega in
// 1/mm and B in tesla.
const curvatureToPt = 2.99792458e-4

// adapterHopCap bounds the flag-derivation walks over the raw parent
// relation, mirroring the core ancestry bound.
const adapterHopCap = muon.MaxAncestryHops

// eventAdapter converts LCIO collections into the event model consumed
// by the aggregator. One adapter serves one input file.
type eventAdapter struct {
	cfg *config.AnalysisConfig
}

// adapt builds a muon.Event from one LCIO event. Muons are taken from
// the final-state truth muons and matched to reconstructed tracks by
// minimum opening angle; the matched track supplies the best-fit track
// of the muon, and an unmatched muon fails the quality gates
// downstream.
func (ad *eventAdapter) adapt(evt *lcio.Event, id uint64) (*muon.Event, error) {
	truthColl, ok := evt.Get(ad.cfg.GetPrunedGenCollection()).(*lcio.McParticleContainer)
	if !ok {
		return nil, fmt.Errorf("missing truth collection %q", ad.cfg.GetPrunedGenCollection())
	}
	trackColl, ok := evt.Get(ad.cfg.GetTrackCollection()).(*lcio.TrackContainer)
	if !ok {
		return nil, fmt.Errorf("missing track collection %q", ad.cfg.GetTrackCollection())
	}

	arena := buildArena(truthColl)

	ev := &muon.Event{
		ID:     id,
		Truth:  arena,
		Tracks: adaptTracks(trackColl, ad.cfg.GetBFieldTesla()),
	}

	// LCIO carries no reconstructed primary vertex in these streams;
	// the production vertex of the first hard-process particle stands
	// in for it, and an event without one falls back to the origin.
	for i := range arena.Particles {
		if arena.Particles[i].Flags.Has(muon.FlagHardProcess) {
			ev.Verts = []muon.Vertex{{Pos: arena.Particles[i].Vert}}
			break
		}
	}

	ev.Muons = ad.adaptMuons(truthColl, trackColl, arena)
	return ev, nil
}

// buildArena flattens the parent-pointer truth collection into the
// integer-indexed arena, deriving the status-flag bitset on the way.
func buildArena(coll *lcio.McParticleContainer) *muon.GenArena {
	index := make(map[*lcio.McParticle]int, len(coll.Particles))
	for i := range coll.Particles {
		index[&coll.Particles[i]] = i
	}

	arena := &muon.GenArena{Particles: make([]muon.GenParticle, len(coll.Particles))}
	for i := range coll.Particles {
		p := &coll.Particles[i]

		mother := muon.NoMother
		if len(p.Parents) > 0 {
			if mi, ok := index[p.Parents[0]]; ok {
				mother = mi
			}
		}

		pt, eta, phi := kinematics(p.P)
		arena.Particles[i] = muon.GenParticle{
			PDG:    int(p.PDG),
			Status: int(p.GenStatus),
			Flags:  deriveFlags(p, index),
			Pt:     pt,
			Eta:    eta,
			Phi:    phi,
			Vert: muon.Vec3{
				X: p.Vertex[0] * cmPerMM,
				Y: p.Vertex[1] * cmPerMM,
				Z: p.Vertex[2] * cmPerMM,
			},
			Mother: mother,
		}
	}
	return arena
}

// hardProcessStatus reports whether a generator status code belongs to
// the hard scattering (Pythia8 uses 21-29, legacy generators use 3).
func hardProcessStatus(status int32) bool {
	return status == 3 || (status >= 21 && status <= 29)
}

// isHadron is a coarse PDG test: hadrons (and diquarks) carry
// identifiers of at least three digits, while quarks, leptons and
// bosons stay below 100.
func isHadron(pdg int32) bool {
	if pdg < 0 {
		pdg = -pdg
	}
	return pdg >= 100
}

// deriveFlags approximates the generator status-flag bitset from the
// information LCIO retains: status codes and the parent relation.
func deriveFlags(p *lcio.McParticle, index map[*lcio.McParticle]int) muon.StatusFlags {
	var flags muon.StatusFlags

	if hardProcessStatus(p.GenStatus) {
		flags |= muon.FlagHardProcess
	}

	prompt := true
	fromHard := hardProcessStatus(p.GenStatus)
	cur := p
	for hops := 0; hops < adapterHopCap && len(cur.Parents) > 0; hops++ {
		parent := cur.Parents[0]
		if _, ok := index[parent]; !ok {
			break
		}
		if isHadron(parent.PDG) {
			prompt = false
		}
		if hardProcessStatus(parent.GenStatus) {
			fromHard = true
		}
		cur = parent
	}
	if prompt {
		flags |= muon.FlagPrompt
	}
	if fromHard {
		flags |= muon.FlagFromHardProcess
	}

	lastCopy := true
	for _, child := range p.Children {
		if child.PDG == p.PDG {
			lastCopy = false
			break
		}
	}
	if lastCopy {
		flags |= muon.FlagLastCopy
	}

	return flags
}

// kinematics converts a momentum three-vector into (pt, eta, phi).
func kinematics(p [3]float64) (pt, eta, phi float64) {
	pt = math.Hypot(p[0], p[1])
	phi = math.Atan2(p[1], p[0])
	norm := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if norm > 0 {
		eta = math.Atanh(p[2] / norm)
	}
	return pt, eta, phi
}

// trackState captures the candidate-track parameters used by the
// clusterer: curvature-derived pt and charge, plus the point of closest
// approach as the track position.
func trackState(trk *lcio.Track, bfield float64) muon.CandidateTrack {
	omega := trk.Omega()
	cand := muon.CandidateTrack{HasTrackDetails: omega != 0}
	if omega == 0 {
		return cand
	}

	cand.Pt = curvatureToPt * math.Abs(bfield) / math.Abs(omega)
	// Curvature sign follows the charge for a field along +z.
	if omega > 0 {
		cand.Charge = 1
	} else {
		cand.Charge = -1
	}

	phi := trk.Phi()
	cand.Pos = muon.Vec3{
		X: -trk.D0() * math.Sin(phi) * cmPerMM,
		Y: trk.D0() * math.Cos(phi) * cmPerMM,
		Z: trk.Z0() * cmPerMM,
	}
	return cand
}

// adaptTracks converts the reconstructed track collection.
func adaptTracks(coll *lcio.TrackContainer, bfield float64) []muon.CandidateTrack {
	tracks := make([]muon.CandidateTrack, 0, len(coll.Tracks))
	for i := range coll.Tracks {
		tracks = append(tracks, trackState(&coll.Tracks[i], bfield))
	}
	return tracks
}

// trackDirection returns the unit momentum direction of a track.
func trackDirection(trk *lcio.Track) [3]float64 {
	lambda := math.Atan(trk.TanL())
	return [3]float64{
		math.Cos(trk.Phi()) * math.Cos(lambda),
		math.Sin(trk.Phi()) * math.Cos(lambda),
		math.Sin(lambda),
	}
}

// adaptMuons selects the final-state truth muons and attaches the
// best-matching reconstructed track to each, by minimum opening angle
// within the configured cone. Each matched track is consumed, so two
// muons never share one track.
func (ad *eventAdapter) adaptMuons(truthColl *lcio.McParticleContainer, trackColl *lcio.TrackContainer, arena *muon.GenArena) []muon.Muon {
	minPt := ad.cfg.GetMinMuonPtGeV()
	maxAngle := ad.cfg.GetMatchMaxAngleRad()
	bfield := ad.cfg.GetBFieldTesla()

	used := make([]bool, len(trackColl.Tracks))

	var muons []muon.Muon
	for i := range truthColl.Particles {
		p := &truthColl.Particles[i]
		pdg := p.PDG
		if pdg < 0 {
			pdg = -pdg
		}
		if pdg != 13 || p.GenStatus != 1 {
			continue
		}

		pt, eta, phi := kinematics(p.P)
		if pt < minPt {
			continue
		}

		pNorm := normalize(p.P)
		minSeen := math.Inf(1)
		minIndex := -1
		for j := range trackColl.Tracks {
			if used[j] {
				continue
			}
			dir := trackDirection(&trackColl.Tracks[j])
			angle := math.Acos(dot(pNorm, dir))
			if angle < minSeen {
				minSeen = angle
				minIndex = j
			}
		}

		mu := muon.Muon{
			Pt:     pt,
			Eta:    eta,
			Phi:    phi,
			Charge: int(p.Charge),
			Prod: muon.Vec3{
				X: p.Vertex[0] * cmPerMM,
				Y: p.Vertex[1] * cmPerMM,
				Z: p.Vertex[2] * cmPerMM,
			},
			TruthRef: i,
		}

		if minIndex >= 0 && minSeen < maxAngle {
			used[minIndex] = true
			trk := &trackColl.Tracks[minIndex]
			cand := trackState(trk, bfield)
			dir := trackDirection(trk)
			pmag := cand.Pt / math.Max(math.Cos(math.Atan(trk.TanL())), 1e-12)
			mu.IsTracker = true
			mu.BestTrack = &muon.BestFitTrack{
				Ref: cand.Pos,
				Mom: muon.Vec3{X: pmag * dir[0], Y: pmag * dir[1], Z: pmag * dir[2]},
			}
		}

		muons = append(muons, mu)
	}
	return muons
}

func normalize(v [3]float64) [3]float64 {
	n := math.Sqrt(dot(v, v))
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
