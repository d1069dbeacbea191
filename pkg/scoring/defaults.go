package scoring

import (
	"fmt"

	"github.com/loadscope/loadscope/pkg/loadout"
)

// Fixed advice text.
const (
	WellBalancedMessage = "Your loadout is well-balanced. Keep it up!"

	HealingGapWarning     = "Warning: you have no healing items. Carry at least one heal to survive extended fights."
	MediumRangeGapWarning = "Warning: you have no medium-range weapon. Pick up an AR or an SMG."
	CloseRangeGapWarning  = "Warning: you have no close-range weapon. Pick up a Shotgun or an SMG."
)

// upgradeSuggestion is the sentence emitted for one of the weakest slots.
func upgradeSuggestion(c loadout.Category, r loadout.Rarity) string {
	if r == loadout.None {
		return fmt.Sprintf("You have no %s. Pick one up as soon as you can.", c)
	}
	return fmt.Sprintf("Upgrade your %s from %s to a higher rarity.", c, r)
}

// gap is a structural hole in a loadout: every listed category is None.
type gap struct {
	categories []loadout.Category
	warning    string
}

var gaps = []gap{
	{[]loadout.Category{loadout.Heals}, HealingGapWarning},
	{[]loadout.Category{loadout.AR, loadout.SMG}, MediumRangeGapWarning},
	{[]loadout.Category{loadout.Shotgun, loadout.SMG}, CloseRangeGapWarning},
}
