package muon

// StatusFlags is the generator status-flag bitset carried by a truth
// particle. The bits mirror the provenance flags written by the event
// generator.
type StatusFlags uint8

const (
	// FlagPrompt marks a particle produced directly in the primary
	// interaction rather than in a decay chain.
	FlagPrompt StatusFlags = 1 << iota
	// FlagHardProcess marks a particle of the hard scattering itself.
	FlagHardProcess
	// FlagFromHardProcess marks a particle descending from the hard
	// scattering.
	FlagFromHardProcess
	// FlagLastCopy marks the last copy of a particle before decay.
	FlagLastCopy
)

// Has reports whether all bits of mask are set.
func (f StatusFlags) Has(mask StatusFlags) bool {
	return f&mask == mask
}

// NoMother is the mother index of a particle at the top of its chain,
// and the TruthRef of a muon without a truth match.
const NoMother = -1

// GenParticle is a generator-level truth particle. Particles live in a
// GenArena and refer to their mother by arena index, so the ancestry
// relation is a plain integer walk rather than a pointer chase.
type GenParticle struct {
	PDG    int   // particle type identifier
	Status int   // generator status code (1 == final state)
	Flags  StatusFlags
	Pt     float64
	Eta    float64
	Phi    float64
	Vert   Vec3 // production vertex (cm)

	// Mother is the arena index of the mother particle, or NoMother.
	Mother int
}

// GenArena holds the truth particles of one event, addressed by stable
// integer index. Mother chains are finite and acyclic by construction of
// the input; the ancestry walks still bound their hop count defensively.
type GenArena struct {
	Particles []GenParticle
}

// Len returns the number of particles in the arena.
func (a *GenArena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Particles)
}

// At returns the particle at index i, or nil when i is out of range.
func (a *GenArena) At(i int) *GenParticle {
	if a == nil || i < 0 || i >= len(a.Particles) {
		return nil
	}
	return &a.Particles[i]
}
