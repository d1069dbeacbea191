package advisor

import (
	"fmt"
	"strings"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
)

const systemPrompt = `You are a battle royale loadout coach.
Answer the player's question about their loadout in two or three short sentences.
Be specific about weapon categories and rarities. Don't use markdown formatting.`

// prompt embeds the loadout, its score and the query.
func (d *Dispatcher) prompt(l loadout.Loadout, query string, score int) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Loadout: %s\n", scoring.Describe(l))
	fmt.Fprintf(&sb, "Score: %d/100 (%s)\n", score, d.engine.Thresholds().Band(score))

	if m := d.engine.Matcher().Match(l); m.Matched {
		fmt.Fprintf(&sb, "Playstyle: %s\n", m.Archetype)
	}

	q := strings.TrimSpace(query)
	if q == "" {
		q = "How can I improve my loadout?"
	}
	fmt.Fprintf(&sb, "\nQuestion: %s\n", q)
	return sb.String()
}
