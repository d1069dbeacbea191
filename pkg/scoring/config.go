package scoring

import (
	"fmt"

	"github.com/loadscope/loadscope/pkg/archetype"
)

// Thresholds holds the cut-offs used by the engine.
type Thresholds struct {
	// Score bands, inclusive lower bounds.
	Excellent int
	Solid     int
	Average   int

	// Number of lowest-rarity slots considered for upgrade advice.
	UpgradeCount int

	// Minimum archetype similarity for a strategy match.
	Similarity float64
}

// DefaultThresholds returns the default cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent: 80,
		Solid:     60,
		Average:   40,

		UpgradeCount: 2,

		Similarity: archetype.DefaultThreshold,
	}
}

// Validate checks that the thresholds are ordered and in range.
func (t Thresholds) Validate() error {
	if !(0 <= t.Average && t.Average <= t.Solid && t.Solid <= t.Excellent && t.Excellent <= 100) {
		return fmt.Errorf("score bands must satisfy 0 <= average <= solid <= excellent <= 100, got %d/%d/%d",
			t.Average, t.Solid, t.Excellent)
	}
	if t.UpgradeCount < 0 {
		return fmt.Errorf("upgrade count must be non-negative, got %d", t.UpgradeCount)
	}
	if t.Similarity < 0 || t.Similarity > 1 {
		return fmt.Errorf("similarity threshold must be within [0,1], got %g", t.Similarity)
	}
	return nil
}
