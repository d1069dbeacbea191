package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/loadscope/loadscope/pkg/archetype"
	"github.com/loadscope/loadscope/pkg/loadout"
)

// Score averages the rarity scores of the slots present, rounded to the
// nearest integer. An empty loadout scores 0.
func Score(l loadout.Loadout) int {
	slots := l.Slots()
	if len(slots) == 0 {
		return 0
	}
	total := 0
	for _, s := range slots {
		total += s.Rarity.Score()
	}
	return int(math.Round(float64(total) / float64(len(slots))))
}

// Describe renders the loadout as "<Rarity> <Category>" phrases, or
// "No <Category>" for empty slots, joined with ", ".
func Describe(l loadout.Loadout) string {
	slots := l.Slots()
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Rarity == loadout.None {
			parts = append(parts, "No "+string(s.Category))
			continue
		}
		parts = append(parts, string(s.Rarity)+" "+string(s.Category))
	}
	return strings.Join(parts, ", ")
}

// Suggestions returns the upgrade advice lines for a complete loadout:
// one sentence for each of the upgradeCount weakest slots that is not
// already Legendary, then one warning per structural gap. The weakest
// slots are chosen by a stable sort, so equal rarities keep loadout order.
// It returns an ErrInvalidInput error if any category is missing.
func Suggestions(l loadout.Loadout, upgradeCount int) ([]string, error) {
	if err := l.RequireComplete(); err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}

	slots := l.Slots()
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Rarity.Score() < slots[j].Rarity.Score()
	})

	var lines []string
	for i := 0; i < len(slots) && i < upgradeCount; i++ {
		if slots[i].Rarity == loadout.TopRarity {
			continue
		}
		lines = append(lines, upgradeSuggestion(slots[i].Category, slots[i].Rarity))
	}

	for _, g := range gaps {
		if allNone(l, g.categories) {
			lines = append(lines, g.warning)
		}
	}
	return lines, nil
}

// Suggest returns the suggestion lines joined with newlines, or
// WellBalancedMessage when there is nothing to suggest.
func Suggest(l loadout.Loadout) (string, error) {
	lines, err := Suggestions(l, DefaultThresholds().UpgradeCount)
	if err != nil {
		return "", err
	}
	return joinSuggestions(lines), nil
}

func joinSuggestions(lines []string) string {
	if len(lines) == 0 {
		return WellBalancedMessage
	}
	return strings.Join(lines, "\n")
}

func allNone(l loadout.Loadout, categories []loadout.Category) bool {
	for _, c := range categories {
		if r, _ := l.Get(c); r != loadout.None {
			return false
		}
	}
	return true
}

// Engine evaluates loadouts into Reports.
type Engine struct {
	thresholds Thresholds
	matcher    *archetype.Matcher
}

// NewEngine creates an engine with the given thresholds and archetype table.
// A nil table selects the built-in archetypes.
func NewEngine(t Thresholds, archetypes []archetype.Archetype) *Engine {
	if archetypes == nil {
		archetypes = archetype.Defaults()
	}
	return &Engine{
		thresholds: t,
		matcher:    &archetype.Matcher{Archetypes: archetypes, Threshold: t.Similarity},
	}
}

// DefaultEngine returns an engine with default thresholds and archetypes.
func DefaultEngine() *Engine {
	return NewEngine(DefaultThresholds(), nil)
}

// Thresholds returns the engine's cut-offs.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Matcher returns the engine's archetype matcher.
func (e *Engine) Matcher() *archetype.Matcher { return e.matcher }

// Suggest is the package-level Suggest using the engine's upgrade count.
func (e *Engine) Suggest(l loadout.Loadout) (string, error) {
	lines, err := Suggestions(l, e.thresholds.UpgradeCount)
	if err != nil {
		return "", err
	}
	return joinSuggestions(lines), nil
}

// Evaluate produces a complete Report. Partial loadouts are scored and
// described but carry no suggestions; their absent categories are listed
// in Missing.
func (e *Engine) Evaluate(l loadout.Loadout) (*Report, error) {
	score := Score(l)
	report := &Report{
		Score:       score,
		Band:        e.thresholds.Band(score),
		Description: Describe(l),
		Strategy:    e.matcher.Match(l),
		Missing:     l.Missing(),
		Loadout:     l,
	}

	for _, s := range l.Slots() {
		report.Breakdown = append(report.Breakdown, SlotResult{
			Category: s.Category,
			Rarity:   s.Rarity,
			Score:    s.Rarity.Score(),
			Tier:     s.Rarity.Tier(),
			Color:    s.Rarity.Color(),
		})
	}

	if report.Complete() {
		lines, err := Suggestions(l, e.thresholds.UpgradeCount)
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			lines = []string{WellBalancedMessage}
		}
		report.Suggestions = lines
	}

	return report, nil
}
