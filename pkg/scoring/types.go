// Package scoring implements the Loadscope loadout scoring engine.
// It computes the aggregate score, a text description and upgrade
// suggestions, and bundles them with the archetype match into a Report.
package scoring

import (
	"github.com/loadscope/loadscope/pkg/archetype"
	"github.com/loadscope/loadscope/pkg/loadout"
)

// Report is the complete output of evaluating a loadout.
// Immutable once computed.
type Report struct {
	Score       int                `json:"score"` // 0-100
	Band        Band               `json:"band"`
	Description string             `json:"description"`
	Breakdown   []SlotResult       `json:"breakdown"`
	Strategy    archetype.Result   `json:"strategy"`
	Suggestions []string           `json:"suggestions,omitempty"` // only for complete loadouts
	Missing     []loadout.Category `json:"missing,omitempty"`
	Loadout     loadout.Loadout    `json:"loadout"`
}

// Complete reports whether the evaluated loadout had every category.
func (r *Report) Complete() bool {
	return len(r.Missing) == 0
}

// SlotResult is the per-slot view of a loadout.
type SlotResult struct {
	Category loadout.Category `json:"category"`
	Rarity   loadout.Rarity   `json:"rarity"`
	Score    int              `json:"score"`
	Tier     int              `json:"tier"`
	Color    string           `json:"color"`
}

// Band is a coarse verdict derived from the score.
type Band string

const (
	BandExcellent Band = "excellent"
	BandSolid     Band = "solid"
	BandAverage   Band = "average"
	BandWeak      Band = "weak"
)

// BandFromScore maps a score to a band using the default thresholds.
func BandFromScore(score int) Band {
	return DefaultThresholds().Band(score)
}

// Band maps a score to a band.
func (t Thresholds) Band(score int) Band {
	switch {
	case score >= t.Excellent:
		return BandExcellent
	case score >= t.Solid:
		return BandSolid
	case score >= t.Average:
		return BandAverage
	default:
		return BandWeak
	}
}
