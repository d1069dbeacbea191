package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/loadscope/loadscope/pkg/archetype"
	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
)

// TerminalRenderer renders a Report as colored terminal output. Colors are
// dropped automatically when the writer is not a terminal or NO_COLOR is set.
type TerminalRenderer struct{}

// styles is the set of lipgloss styles bound to one writer.
type styles struct {
	r    *lipgloss.Renderer
	bold lipgloss.Style
	dim  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		r:    r,
		bold: r.NewStyle().Bold(true),
		dim:  r.NewStyle().Faint(true),
	}
}

func (s styles) rarity(rarity loadout.Rarity, text string) string {
	return s.r.NewStyle().Foreground(lipgloss.Color(ColorHex(rarity.Color()))).Render(text)
}

func (s styles) band(b scoring.Band, text string) string {
	var color string
	switch b {
	case scoring.BandExcellent:
		color = ColorHex("orange")
	case scoring.BandSolid:
		color = ColorHex("green")
	case scoring.BandAverage:
		color = ColorHex("blue")
	default:
		color = ColorHex("darkgray")
	}
	return s.r.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(text)
}

// Render writes the score header, the per-slot breakdown, the matched
// strategy and any upgrade suggestions.
func (r *TerminalRenderer) Render(w io.Writer, report *scoring.Report) error {
	st := newStyles(w)

	// Header
	fmt.Fprintf(w, "%s %s\n",
		st.bold.Render("Loadscope: Score"),
		st.band(report.Band, fmt.Sprintf("%d/100 (%s)", report.Score, report.Band)))
	if report.Description != "" {
		fmt.Fprintln(w, report.Description)
	}
	fmt.Fprintln(w)

	// Breakdown
	if len(report.Breakdown) == 0 {
		fmt.Fprintln(w, "Empty loadout.")
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "Loadout:")
		for _, s := range report.Breakdown {
			fmt.Fprintf(w, "  %-8s %s %3d\n",
				s.Category, st.rarity(s.Rarity, fmt.Sprintf("%-10s", s.Rarity)), s.Score)
		}
		fmt.Fprintln(w)
	}

	if len(report.Missing) > 0 {
		names := make([]string, len(report.Missing))
		for i, c := range report.Missing {
			names[i] = string(c)
		}
		fmt.Fprintf(w, "Missing: %s\n", strings.Join(names, ", "))
		fmt.Fprintln(w, st.dim.Render("Suggestions need every category."))
		fmt.Fprintln(w)
	}

	r.writeStrategy(w, st, report.Strategy, false)

	// Suggestions
	if len(report.Suggestions) > 0 {
		fmt.Fprintln(w, "Suggestions:")
		for _, line := range report.Suggestions {
			writeBullet(w, st, line)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// RenderStrategy writes the match result and, when ranking is set, the
// similarity to every archetype.
func (r *TerminalRenderer) RenderStrategy(w io.Writer, result archetype.Result, ranking bool) error {
	r.writeStrategy(w, newStyles(w), result, ranking)
	return nil
}

func (r *TerminalRenderer) writeStrategy(w io.Writer, st styles, res archetype.Result, ranking bool) {
	if res.Matched {
		fmt.Fprintf(w, "Strategy: %s (%.0f%% similar)\n", st.bold.Render(res.Archetype), res.Similarity*100)
	} else {
		fmt.Fprintf(w, "Strategy: %s\n", st.dim.Render("no match"))
	}
	for _, line := range wrapText(res.Message, 70) {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if ranking {
		for _, s := range res.Ranking {
			marker := " "
			if res.Matched && s.Name == res.Archetype {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %-14s %3.0f%%\n", marker, s.Name, s.Similarity*100)
		}
	}
	fmt.Fprintln(w)
}

// RenderRarityTable writes the rarity lookup table.
func (r *TerminalRenderer) RenderRarityTable(w io.Writer) error {
	st := newStyles(w)
	fmt.Fprintln(w, st.bold.Render(fmt.Sprintf("%-10s %5s %4s  %s", "Rarity", "Score", "Tier", "Color")))
	for _, rarity := range loadout.AllRarities() {
		fmt.Fprintf(w, "%s %5d %4d  %s\n",
			st.rarity(rarity, fmt.Sprintf("%-10s", rarity)), rarity.Score(), rarity.Tier(), rarity.Color())
	}
	return nil
}

func writeBullet(w io.Writer, st styles, text string) {
	lines := wrapText(text, 70)
	for i, line := range lines {
		if i == 0 {
			fmt.Fprintf(w, "  • %s\n", line)
			continue
		}
		fmt.Fprintf(w, "    %s\n", st.dim.Render(line))
	}
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
