package advisor

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
)

// Rule names the deterministic branch that produced an answer.
type Rule string

const (
	RuleCategory Rule = "category"
	RuleScore    Rule = "score"
	RuleImprove  Rule = "improve"
	RuleStrategy Rule = "strategy"
	RuleDefault  Rule = "default"
)

// MoreQuestionsPrompt ends the default answer.
const MoreQuestionsPrompt = "Ask me about a specific weapon, your score, upgrades, or your strategy for more detail."

// Keywords per rule, matched against query tokens by prefix. Multi-word
// entries must appear as consecutive tokens.
var (
	scoreKeywords    = []string{"rate", "rating", "score", "how good"}
	improveKeywords  = []string{"improve", "improving", "better", "upgrade"}
	strategyKeywords = []string{"strategy", "strategies", "playstyle", "play style"}
)

// categoryAliases lists the extra tokens that name a category besides its
// own name and plural.
var categoryAliases = map[loadout.Category][]string{
	loadout.Heals: {"heal", "healing", "heals"},
}

// tokenize lowercases the query and splits it on anything that is not a
// letter or digit.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// mentionedCategory returns the first category named in the query, by
// position in the query. Names and aliases must match a whole token: plain
// substring search would find "ar" inside "are", "rare" or "far" and send
// "are these rare?" to the AR branch.
func mentionedCategory(tokens []string) (loadout.Category, bool) {
	for _, tok := range tokens {
		for _, c := range loadout.AllCategories() {
			name := strings.ToLower(string(c))
			if tok == name || tok == name+"s" {
				return c, true
			}
			for _, alias := range categoryAliases[c] {
				if tok == alias {
					return c, true
				}
			}
		}
	}
	return "", false
}

func containsKeyword(tokens []string, keywords []string) bool {
	for _, kw := range keywords {
		words := strings.Fields(kw)
		for i := 0; i+len(words) <= len(tokens); i++ {
			if matchesAt(tokens[i:], words) {
				return true
			}
		}
	}
	return false
}

// matchesAt reports whether tokens start with words. The last word only
// has to be a prefix so that "upgrades" or "rated" still count.
func matchesAt(tokens, words []string) bool {
	for j, w := range words {
		if j == len(words)-1 {
			if !strings.HasPrefix(tokens[j], w) {
				return false
			}
			continue
		}
		if tokens[j] != w {
			return false
		}
	}
	return true
}

// classify picks the branch for a query. The order is fixed: a category
// mention wins over everything, then score, improve and strategy keywords.
func classify(query string) (Rule, loadout.Category) {
	tokens := tokenize(query)
	if c, ok := mentionedCategory(tokens); ok {
		return RuleCategory, c
	}
	switch {
	case containsKeyword(tokens, scoreKeywords):
		return RuleScore, ""
	case containsKeyword(tokens, improveKeywords):
		return RuleImprove, ""
	case containsKeyword(tokens, strategyKeywords):
		return RuleStrategy, ""
	default:
		return RuleDefault, ""
	}
}

func scoreLine(score int) string {
	return fmt.Sprintf("Your loadout score is %d/100.", score)
}

func categoryAnswer(c loadout.Category, r loadout.Rarity) string {
	switch {
	case r == loadout.None:
		return fmt.Sprintf("You have no %s yet. Finding one should be a priority.", c)
	case r.Score() < 60:
		return fmt.Sprintf("Your %s is %s. It's usable, but look for a higher-rarity upgrade when you can.", c, r)
	default:
		return fmt.Sprintf("Your %s is %s. That's a strong pick, keep it.", c, r)
	}
}

func scoreAnswer(band scoring.Band, score int) string {
	switch band {
	case scoring.BandExcellent:
		return fmt.Sprintf("Your loadout is excellent (%d/100). You're well equipped for any fight.", score)
	case scoring.BandSolid:
		return fmt.Sprintf("Your loadout is solid (%d/100). A couple of upgrades would make it great.", score)
	case scoring.BandAverage:
		return fmt.Sprintf("Your loadout is average (%d/100). Focus on upgrading your weakest slots.", score)
	default:
		return fmt.Sprintf("Your loadout is weak (%d/100). Prioritize picking up better gear.", score)
	}
}
