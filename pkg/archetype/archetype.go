// Package archetype classifies a loadout against a fixed table of playstyle
// archetypes by comparing tier vectors.
package archetype

import (
	"github.com/loadscope/loadscope/pkg/loadout"
)

// DefaultThreshold is the minimum similarity for a loadout to count as
// matching an archetype.
const DefaultThreshold = 0.7

// NoMatchMessage is returned when no archetype reaches the threshold.
const NoMatchMessage = "Your loadout doesn't follow a common strategy pattern. Experiment and find what works for you."

// Archetype is a named reference tier vector.
type Archetype struct {
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description" yaml:"description"`
	Targets     map[loadout.Category]int `json:"targets" yaml:"targets"`
}

// Target returns the target tier for category c (0 when unset).
func (a Archetype) Target(c loadout.Category) int {
	return a.Targets[c]
}

var defaults = []Archetype{
	{
		Name:        "Aggressive",
		Description: "Aggressive: you favour close-quarters firepower. Push fights early and keep the pressure on.",
		Targets:     targets(3, 4, 4, 1, 2),
	},
	{
		Name:        "Defensive",
		Description: "Defensive: you play for survival. Hold strong positions, pick fights at range and out-heal your opponents.",
		Targets:     targets(3, 2, 2, 3, 4),
	},
	{
		Name:        "Balanced",
		Description: "Balanced: you're ready for any range. Adapt to each fight and take the engagements that suit you.",
		Targets:     targets(3, 3, 3, 3, 3),
	},
	{
		Name:        "Sniper Focus",
		Description: "Sniper Focus: you win fights before they start. Take high ground, land long-range shots and rotate early.",
		Targets:     targets(2, 2, 1, 4, 3),
	},
	{
		Name:        "Close Combat",
		Description: "Close Combat: you live for box fights. Build aggressively and finish opponents up close.",
		Targets:     targets(1, 4, 3, 0, 3),
	},
}

func targets(ar, shotgun, smg, sniper, heals int) map[loadout.Category]int {
	return map[loadout.Category]int{
		loadout.AR:      ar,
		loadout.Shotgun: shotgun,
		loadout.SMG:     smg,
		loadout.Sniper:  sniper,
		loadout.Heals:   heals,
	}
}

// Defaults returns a copy of the built-in archetype table in definition order.
func Defaults() []Archetype {
	out := make([]Archetype, len(defaults))
	for i, a := range defaults {
		t := make(map[loadout.Category]int, len(a.Targets))
		for c, v := range a.Targets {
			t[c] = v
		}
		out[i] = Archetype{Name: a.Name, Description: a.Description, Targets: t}
	}
	return out
}

// Similarity is the fraction of categories where the loadout's tier is no
// more than one level below the archetype's target. Missing categories count
// as None.
func Similarity(l loadout.Loadout, a Archetype) float64 {
	categories := loadout.AllCategories()
	matches := 0
	for _, c := range categories {
		r, _ := l.Get(c)
		if r.Tier() >= a.Target(c)-1 {
			matches++
		}
	}
	return float64(matches) / float64(len(categories))
}

// Score is an archetype paired with a loadout's similarity to it.
type Score struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Result is the outcome of matching a loadout.
type Result struct {
	Archetype  string  `json:"archetype,omitempty"` // empty when nothing matched
	Similarity float64 `json:"similarity"`          // best similarity seen
	Matched    bool    `json:"matched"`
	Message    string  `json:"message"`
	Ranking    []Score `json:"ranking"` // every archetype, definition order
}

// Matcher classifies loadouts against an ordered archetype table.
type Matcher struct {
	Archetypes []Archetype
	Threshold  float64
}

// NewMatcher returns a matcher over the built-in archetypes.
func NewMatcher() *Matcher {
	return &Matcher{Archetypes: Defaults(), Threshold: DefaultThreshold}
}

// Rank returns the similarity of l to every archetype, in definition order.
func (m *Matcher) Rank(l loadout.Loadout) []Score {
	scores := make([]Score, len(m.Archetypes))
	for i, a := range m.Archetypes {
		scores[i] = Score{Name: a.Name, Similarity: Similarity(l, a)}
	}
	return scores
}

// Match picks the archetype with the highest similarity; the first-defined
// archetype wins ties. Below the threshold the result is unmatched and
// carries NoMatchMessage.
func (m *Matcher) Match(l loadout.Loadout) Result {
	ranking := m.Rank(l)
	res := Result{Message: NoMatchMessage, Ranking: ranking}

	best := -1
	for i, s := range ranking {
		if best < 0 || s.Similarity > ranking[best].Similarity {
			best = i
		}
	}
	if best < 0 {
		return res
	}

	res.Similarity = ranking[best].Similarity
	if res.Similarity >= m.Threshold {
		res.Archetype = m.Archetypes[best].Name
		res.Matched = true
		res.Message = m.Archetypes[best].Description
	}
	return res
}

// Match classifies l against the built-in archetypes.
func Match(l loadout.Loadout) Result {
	return NewMatcher().Match(l)
}

// Describe returns only the match message for l.
func Describe(l loadout.Loadout) string {
	return Match(l).Message
}
