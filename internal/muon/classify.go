package muon

// Category is the closed generator-level origin classification of an
// accepted muon. Exactly one category applies per muon in the
// category-partitioned producer.
type Category int

const (
	// CategoryPrompt marks muons of prompt, hard-process origin.
	CategoryPrompt Category = iota
	// CategoryPileup marks muons of pileup-like origin.
	CategoryPileup
	// CategoryFromPhoton marks muons descending from a photon.
	CategoryFromPhoton

	// NumCategories is the number of output categories.
	NumCategories
)

// categoryNames are the output-column prefixes of the categories.
var categoryNames = [NumCategories]string{"prompt", "pileup", "fromPhoton"}

// String returns the output-column name of the category.
func (c Category) String() string {
	if c < 0 || c >= NumCategories {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories returns the categories in output order.
func Categories() [NumCategories]Category {
	return [NumCategories]Category{CategoryPrompt, CategoryPileup, CategoryFromPhoton}
}

// ClassifyTruth assigns the output category of a muon from its matched
// truth particle. Pileup signals take precedence over photon descent,
// and prompt is the fall-through. A failed (hop-bounded) photon walk is
// reported through err; the returned category then follows the
// non-photon path so the event can still complete.
func (a *GenArena) ClassifyTruth(i int) (Category, error) {
	if a.IsPileupLike(i) {
		return CategoryPileup, nil
	}
	fromPhoton, err := a.HasPhotonAncestor(i)
	if fromPhoton {
		return CategoryFromPhoton, err
	}
	return CategoryPrompt, err
}

// TruthMatchRecord is one row of the truth-linked producer variant:
// reco and matched-truth kinematics plus the classification booleans,
// indexed by the muon's position in the unfiltered reco collection.
type TruthMatchRecord struct {
	// Index is the muon's position in the event's muon collection.
	// Muons without a truth match emit no row but still advance the
	// index, preserving position correspondence.
	Index int

	RecoPt  float64
	RecoEta float64
	RecoPhi float64

	TruthPt  float64
	TruthEta float64
	TruthPhi float64
	TruthPDG int

	IsPileup bool
	IsSignal bool

	// Raw status flags of the matched truth particle.
	Prompt      bool
	HardProcess bool
	LastCopy    bool

	// PhotonMother is the strict-ancestors-only photon walk; the
	// inclusive-of-self walk feeds the categorised producer instead.
	PhotonMother bool
}
