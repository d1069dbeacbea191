package surface_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
	"github.com/loadscope/loadscope/pkg/surface"
)

func sampleReport(t *testing.T) *scoring.Report {
	t.Helper()
	l, err := loadout.Full(loadout.Rare, loadout.Epic, loadout.Epic, loadout.Common, loadout.Uncommon)
	if err != nil {
		t.Fatalf("Full() error: %v", err)
	}
	report, err := scoring.DefaultEngine().Evaluate(l)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	return report
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, sampleReport(t)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()

	// Header
	if !strings.Contains(output, "Score 56/100 (average)") {
		t.Errorf("expected score header in output:\n%s", output)
	}
	if !strings.Contains(output, "Rare AR, Epic Shotgun, Epic SMG, Common Sniper, Uncommon Heals") {
		t.Error("expected description")
	}

	// Breakdown
	if !strings.Contains(output, "Sniper   Common      20") {
		t.Errorf("expected aligned Sniper row in output:\n%s", output)
	}

	// Strategy
	if !strings.Contains(output, "Strategy: Aggressive (100% similar)") {
		t.Error("expected Aggressive strategy")
	}

	// Suggestions
	if !strings.Contains(output, "Suggestions:") {
		t.Error("expected Suggestions section")
	}
	if !strings.Contains(output, "• Upgrade your Sniper from Common to a higher rarity.") {
		t.Error("expected Sniper suggestion")
	}
	if strings.Contains(output, "\033[") {
		t.Error("expected no ANSI escape codes with NO_COLOR set")
	}
}

func TestTerminalRenderer_PartialLoadout(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	l := loadout.MustNew(loadout.Slot{Category: loadout.Sniper, Rarity: loadout.Legendary})
	report, err := scoring.DefaultEngine().Evaluate(l)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, report); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Missing: AR, Shotgun, SMG, Heals") {
		t.Errorf("expected missing categories in output:\n%s", output)
	}
	if strings.Contains(output, "Suggestions:") {
		t.Error("partial loadouts should not show suggestions")
	}
	if !strings.Contains(output, "Strategy: no match") {
		t.Error("expected no strategy match")
	}
}

func TestTerminalRenderer_Empty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	report, err := scoring.DefaultEngine().Evaluate(loadout.Loadout{})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, report); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Empty loadout.") {
		t.Error("expected 'Empty loadout.' message")
	}
}

func TestTerminalRenderer_ColorForced(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, sampleReport(t)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when CLICOLOR_FORCE is set")
	}
}

func TestRenderStrategyRanking(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	report := sampleReport(t)
	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderStrategy(&buf, report.Strategy, true); err != nil {
		t.Fatalf("RenderStrategy() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "* Aggressive     100%") {
		t.Errorf("expected marked Aggressive row:\n%s", output)
	}
	if !strings.Contains(output, "Close Combat") {
		t.Error("expected every archetype in the ranking")
	}
}

func TestRenderRarityTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderRarityTable(&buf); err != nil {
		t.Fatalf("RenderRarityTable() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected header and 6 rows, got %d lines", len(lines))
	}
	if lines[6] != "Legendary    100    5  orange" {
		t.Errorf("unexpected Legendary row %q", lines[6])
	}
}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"", "text", "json", "xlsx"} {
		if _, err := surface.ForFormat(f); err != nil {
			t.Errorf("ForFormat(%q) error: %v", f, err)
		}
	}
	if _, err := surface.ForFormat("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestColorHex(t *testing.T) {
	if got := surface.ColorHex("orange"); got != "#FF9800" {
		t.Errorf("ColorHex(orange) = %q", got)
	}
	if got := surface.ColorHex("chartreuse"); got != surface.ColorHex("gray") {
		t.Errorf("unknown colors should fall back to gray, got %q", got)
	}
}
