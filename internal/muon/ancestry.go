package muon

import "errors"

// MaxAncestryHops bounds the mother-chain walks. Generator mother chains
// are a few tens of particles deep at most; hitting the bound means the
// input relation contains a cycle or a corrupt index and is reported as
// a fault rather than truncated silently.
const MaxAncestryHops = 10000

// pdgPhoton is the PDG identifier of the photon.
const pdgPhoton = 22

// ErrAncestryBound is returned when a mother-chain walk exceeds
// MaxAncestryHops before reaching the top of the chain.
var ErrAncestryBound = errors.New("muon: ancestry walk exceeded hop bound")

// HasPhotonAncestor walks the mother chain starting at particle i itself
// and reports whether any particle on the chain, i included, is a photon.
// The walk stops at the first particle without a mother.
func (a *GenArena) HasPhotonAncestor(i int) (bool, error) {
	return a.walkForPhoton(i)
}

// HasPhotonMother walks the mother chain starting at the first mother of
// particle i, excluding i itself. The two photon walks are distinct
// operations: consumers of each producer variant depend on the specific
// semantics, so they are not unified.
func (a *GenArena) HasPhotonMother(i int) (bool, error) {
	p := a.At(i)
	if p == nil {
		return false, nil
	}
	return a.walkForPhoton(p.Mother)
}

func (a *GenArena) walkForPhoton(i int) (bool, error) {
	for hops := 0; hops < MaxAncestryHops; hops++ {
		p := a.At(i)
		if p == nil {
			return false, nil
		}
		pdg := p.PDG
		if pdg < 0 {
			pdg = -pdg
		}
		if pdg == pdgPhoton {
			return true, nil
		}
		i = p.Mother
	}
	return false, ErrAncestryBound
}

// MaxPileupVz is the longitudinal production-coordinate bound beyond
// which a truth particle is treated as pileup-like regardless of its
// status flags (cm).
const MaxPileupVz = 1.0

// IsPileupLike reports whether particle i looks like pileup. Two
// independent signals each suffice: the particle is neither flagged
// prompt nor flagged hard-process-origin, or its longitudinal production
// coordinate exceeds MaxPileupVz in magnitude.
func (a *GenArena) IsPileupLike(i int) bool {
	p := a.At(i)
	if p == nil {
		return false
	}
	if !p.Flags.Has(FlagPrompt) && !p.Flags.Has(FlagFromHardProcess) {
		return true
	}
	vz := p.Vert.Z
	if vz < 0 {
		vz = -vz
	}
	return vz > MaxPileupVz
}

// pdgMuon is the PDG identifier of the muon.
const pdgMuon = 13

// IsSignalMuon reports whether particle i is a signal muon: flagged
// prompt and hard-process, identified as a muon, and in the final state.
func (a *GenArena) IsSignalMuon(i int) bool {
	p := a.At(i)
	if p == nil {
		return false
	}
	pdg := p.PDG
	if pdg < 0 {
		pdg = -pdg
	}
	return p.Flags.Has(FlagPrompt) &&
		p.Flags.Has(FlagHardProcess) &&
		pdg == pdgMuon &&
		p.Status == 1
}
