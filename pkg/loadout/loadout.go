package loadout

import (
	"fmt"
	"strings"
)

// Slot pairs a category with the rarity held in it.
type Slot struct {
	Category Category `json:"category" yaml:"category"`
	Rarity   Rarity   `json:"rarity" yaml:"rarity"`
}

// Loadout is an ordered set of slots with unique categories.
// Order is the order the caller supplied and is significant for
// tie-breaking in upgrade suggestions. The zero value is an empty loadout.
type Loadout struct {
	slots []Slot
}

// New builds a loadout from slots, rejecting unknown values and duplicates.
func New(slots ...Slot) (Loadout, error) {
	seen := make(map[Category]bool, len(slots))
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Category.Valid() {
			return Loadout{}, fmt.Errorf("%w %q", ErrUnknownCategory, s.Category)
		}
		if !s.Rarity.Valid() {
			return Loadout{}, fmt.Errorf("%w %q for %s", ErrUnknownRarity, s.Rarity, s.Category)
		}
		if seen[s.Category] {
			return Loadout{}, fmt.Errorf("%w: duplicate category %s", ErrInvalidInput, s.Category)
		}
		seen[s.Category] = true
		out = append(out, s)
	}
	return Loadout{slots: out}, nil
}

// MustNew is New that panics on error. Intended for tests and fixed tables.
func MustNew(slots ...Slot) Loadout {
	l, err := New(slots...)
	if err != nil {
		panic(err)
	}
	return l
}

// FromMap parses a raw category->rarity mapping. Since maps carry no order,
// the resulting slots are in canonical category order.
func FromMap(m map[string]string) (Loadout, error) {
	byCat := make(map[Category]Rarity, len(m))
	for k, v := range m {
		c, err := ParseCategory(k)
		if err != nil {
			return Loadout{}, err
		}
		r, err := ParseRarity(v)
		if err != nil {
			return Loadout{}, fmt.Errorf("%s: %w", c, err)
		}
		if _, dup := byCat[c]; dup {
			return Loadout{}, fmt.Errorf("%w: duplicate category %s", ErrInvalidInput, c)
		}
		byCat[c] = r
	}

	var slots []Slot
	for _, c := range AllCategories() {
		if r, ok := byCat[c]; ok {
			slots = append(slots, Slot{Category: c, Rarity: r})
		}
	}
	return New(slots...)
}

// Full returns a complete loadout with the given rarities in canonical order
// (AR, Shotgun, SMG, Sniper, Heals).
func Full(ar, shotgun, smg, sniper, heals Rarity) (Loadout, error) {
	return New(
		Slot{AR, ar},
		Slot{Shotgun, shotgun},
		Slot{SMG, smg},
		Slot{Sniper, sniper},
		Slot{Heals, heals},
	)
}

// Slots returns a copy of the slots in loadout order.
func (l Loadout) Slots() []Slot {
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

// Len returns the number of slots present.
func (l Loadout) Len() int { return len(l.slots) }

// Get returns the rarity held in category c.
func (l Loadout) Get(c Category) (Rarity, bool) {
	for _, s := range l.slots {
		if s.Category == c {
			return s.Rarity, true
		}
	}
	return "", false
}

// Has reports whether category c is present.
func (l Loadout) Has(c Category) bool {
	_, ok := l.Get(c)
	return ok
}

// Missing returns the categories absent from the loadout, in canonical order.
func (l Loadout) Missing() []Category {
	var missing []Category
	for _, c := range AllCategories() {
		if !l.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Complete reports whether every category is present.
func (l Loadout) Complete() bool {
	return len(l.Missing()) == 0
}

// RequireComplete returns an ErrInvalidInput naming the missing categories,
// or nil if the loadout is complete.
func (l Loadout) RequireComplete() error {
	missing := l.Missing()
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = string(c)
	}
	return fmt.Errorf("%w: loadout is missing %s", ErrInvalidInput, strings.Join(names, ", "))
}

// With returns a copy of l with category c set to r. An existing slot keeps
// its position; a new slot is appended.
func (l Loadout) With(c Category, r Rarity) (Loadout, error) {
	slots := l.Slots()
	for i := range slots {
		if slots[i].Category == c {
			slots[i].Rarity = r
			return New(slots...)
		}
	}
	return New(append(slots, Slot{Category: c, Rarity: r})...)
}

// Key returns a stable string form, e.g. "AR=Rare,Heals=None", used for
// cache keys. Slots are listed in canonical order so that equal mappings
// share a key.
func (l Loadout) Key() string {
	var parts []string
	for _, c := range AllCategories() {
		if r, ok := l.Get(c); ok {
			parts = append(parts, string(c)+"="+string(r))
		}
	}
	return strings.Join(parts, ",")
}

// Map returns the loadout as a plain map.
func (l Loadout) Map() map[Category]Rarity {
	m := make(map[Category]Rarity, len(l.slots))
	for _, s := range l.slots {
		m[s.Category] = s.Rarity
	}
	return m
}
