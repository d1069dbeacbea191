package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/loadscope/loadscope/pkg/scoring"
)

// Sheet names written by XLSXRenderer.
const (
	SheetBreakdown  = "Loadout"
	SheetArchetypes = "Archetypes"
)

// XLSXRenderer writes a Report as a workbook with a breakdown sheet and an
// archetype similarity sheet.
type XLSXRenderer struct{}

func (r *XLSXRenderer) Render(w io.Writer, report *scoring.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetBreakdown); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetArchetypes); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeBreakdown(f, report, headerStyle); err != nil {
		return fmt.Errorf("writing %s sheet: %w", SheetBreakdown, err)
	}
	if err := writeArchetypes(f, report, headerStyle); err != nil {
		return fmt.Errorf("writing %s sheet: %w", SheetArchetypes, err)
	}

	_, err = f.WriteTo(w)
	return err
}

func writeBreakdown(f *excelize.File, report *scoring.Report, headerStyle int) error {
	sheet := SheetBreakdown
	for i, h := range []string{"Category", "Rarity", "Score", "Tier", "Color"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, s := range report.Breakdown {
		fill, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(ColorHex(s.Color), "#")}},
			Font: &excelize.Font{Color: "FFFFFF", Bold: true},
		})
		if err != nil {
			return err
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), string(s.Category))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(s.Rarity))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), s.Score)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), s.Tier)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), s.Color)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), fill)
		row++
	}

	// Summary block below the table.
	row++
	summary := [][2]any{
		{"Score", report.Score},
		{"Band", string(report.Band)},
		{"Description", report.Description},
		{"Strategy", report.Strategy.Message},
	}
	for _, kv := range summary {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), kv[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), kv[1])
		row++
	}
	for i, s := range report.Suggestions {
		label := ""
		if i == 0 {
			label = "Suggestions"
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s)
		row++
	}

	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "E", 12)
}

func writeArchetypes(f *excelize.File, report *scoring.Report, headerStyle int) error {
	sheet := SheetArchetypes
	_ = f.SetCellValue(sheet, "A1", "Archetype")
	_ = f.SetCellValue(sheet, "B1", "Similarity")
	_ = f.SetCellValue(sheet, "C1", "Matched")
	if err := f.SetCellStyle(sheet, "A1", "C1", headerStyle); err != nil {
		return err
	}

	pct, err := f.NewStyle(&excelize.Style{NumFmt: 9}) // 0%
	if err != nil {
		return err
	}

	for i, s := range report.Strategy.Ranking {
		row := i + 2
		matched := report.Strategy.Matched && s.Name == report.Strategy.Archetype
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), s.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s.Similarity)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), matched)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), pct)
	}

	return f.SetColWidth(sheet, "A", "A", 16)
}
