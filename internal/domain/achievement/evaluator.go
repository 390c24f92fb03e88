package achievement

import "github.com/margo-hub/margo-learning-hub/internal/domain/progress"

// Evaluation is the outcome of one evaluator pass.
type Evaluation struct {
	// UnlockedCount is the number of predicates currently satisfied.
	UnlockedCount int `json:"unlocked_count"`

	// Unlocked holds the per-achievement satisfaction flags, in catalog order.
	Unlocked []bool `json:"unlocked"`

	// NewlyUnlockedIndex is the catalog index of the achievement whose
	// celebration should fire, or -1 when nothing new unlocked.
	NewlyUnlockedIndex int `json:"newly_unlocked_index"`

	// PersistCount is the value the caller must write back as the new
	// previously-observed count. Equals the prior value when nothing changed.
	PersistCount int `json:"persist_count"`
}

// HasNewUnlock reports whether a celebration should fire.
func (e Evaluation) HasNewUnlock() bool { return e.NewlyUnlockedIndex >= 0 }

// Evaluate runs the achievement predicates against the aggregates and decides
// whether a one-shot celebration fires. prevUnlocked is the persisted
// previously-observed count; prevFound is false on the very first read, in
// which case the count is initialized to the current value without firing,
// so a first-ever dashboard render never reports a zero-to-N unlock burst.
//
// The function is pure. Callers must serialize the surrounding
// read-evaluate-persist cycle per user, or two concurrent evaluations can
// double-fire the same celebration.
func Evaluate(agg progress.Aggregates, authenticated bool, prevUnlocked int, prevFound bool) Evaluation {
	unlocked := make([]bool, len(Catalog))
	count := 0
	for i, def := range Catalog {
		if def.Satisfied(agg, authenticated) {
			unlocked[i] = true
			count++
		}
	}

	ev := Evaluation{
		UnlockedCount:      count,
		Unlocked:           unlocked,
		NewlyUnlockedIndex: -1,
		PersistCount:       prevUnlocked,
	}

	// A zero count is indistinguishable from a transient empty fetch, so it
	// never touches persisted state and never fires.
	if count == 0 {
		return ev
	}

	if !prevFound {
		ev.PersistCount = count
		return ev
	}

	if count > prevUnlocked {
		ev.NewlyUnlockedIndex = attributeUnlock(unlocked, prevUnlocked)
		ev.PersistCount = count
	}
	return ev
}

// attributeUnlock picks the catalog index credited for an unlock: the lowest
// true index not covered by an unbroken true-prefix of length prevUnlocked.
// When the count jumps by more than one in a single pass, the lowest newly
// uncovered index wins.
func attributeUnlock(unlocked []bool, prevUnlocked int) int {
	if prevUnlocked < 0 {
		prevUnlocked = 0
	}
	covered := 0
	for i, ok := range unlocked {
		if !ok {
			continue
		}
		if covered >= prevUnlocked {
			return i
		}
		covered++
	}
	return -1
}
