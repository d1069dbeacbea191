// Package loadout defines the core data model for Loadscope: weapon categories,
// rarity labels and the fixed lookup tables derived from them.
// These types are the shared vocabulary across all modules.
package loadout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks a caller-contract violation: unknown labels,
// duplicate categories, or a loadout missing categories an operation needs.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrUnknownCategory = fmt.Errorf("%w: unknown weapon category", ErrInvalidInput)
	ErrUnknownRarity   = fmt.Errorf("%w: unknown rarity", ErrInvalidInput)
)

// Category is a weapon slot in a loadout.
type Category string

const (
	AR      Category = "AR"
	Shotgun Category = "Shotgun"
	SMG     Category = "SMG"
	Sniper  Category = "Sniper"
	Heals   Category = "Heals"
)

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	return []Category{AR, Shotgun, SMG, Sniper, Heals}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case AR, Shotgun, SMG, Sniper, Heals:
		return true
	}
	return false
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(name, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCategory, s)
}

// Rarity is the quality tier of the item held in a slot.
type Rarity string

const (
	None      Rarity = "None"
	Common    Rarity = "Common"
	Uncommon  Rarity = "Uncommon"
	Rare      Rarity = "Rare"
	Epic      Rarity = "Epic"
	Legendary Rarity = "Legendary"
)

// AllRarities returns all rarities from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{None, Common, Uncommon, Rare, Epic, Legendary}
}

// TopRarity is the highest rarity; slots holding it never get upgrade advice.
const TopRarity = Legendary

// ParseRarity resolves a rarity label case-insensitively.
func ParseRarity(s string) (Rarity, error) {
	name := strings.TrimSpace(s)
	for _, r := range AllRarities() {
		if strings.EqualFold(name, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownRarity, s)
}

// Valid reports whether r is one of the six known labels.
func (r Rarity) Valid() bool {
	return r.Tier() > 0 || r == None
}

// Tier is the ordinal rank of the rarity, 0 (None) through 5 (Legendary).
// Unknown labels rank 0.
func (r Rarity) Tier() int {
	switch r {
	case Common:
		return 1
	case Uncommon:
		return 2
	case Rare:
		return 3
	case Epic:
		return 4
	case Legendary:
		return 5
	default:
		return 0
	}
}

// Score is the 0-100 value of the rarity used by the aggregate score.
func (r Rarity) Score() int {
	return r.Tier() * 20
}

// Color is the display color name of the rarity. Unknown labels are "gray".
func (r Rarity) Color() string {
	switch r {
	case None:
		return "darkgray"
	case Common:
		return "gray"
	case Uncommon:
		return "green"
	case Rare:
		return "blue"
	case Epic:
		return "purple"
	case Legendary:
		return "orange"
	default:
		return "gray"
	}
}

// RarityColor looks up the display color for a raw label, defaulting to "gray".
func RarityColor(label string) string {
	r, err := ParseRarity(label)
	if err != nil {
		return "gray"
	}
	return r.Color()
}

// RarityTier looks up the tier for a raw label, defaulting to 0.
func RarityTier(label string) int {
	r, err := ParseRarity(label)
	if err != nil {
		return 0
	}
	return r.Tier()
}

// RarityScore looks up the score for a raw label, defaulting to 0.
func RarityScore(label string) int {
	return RarityTier(label) * 20
}
