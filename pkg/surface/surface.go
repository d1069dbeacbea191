// Package surface defines output rendering for Loadscope reports.
// Implementations handle different output targets: terminal, JSON, XLSX.
package surface

import (
	"fmt"
	"io"

	"github.com/loadscope/loadscope/pkg/scoring"
)

// Renderer produces formatted output from a Report.
type Renderer interface {
	// Render writes the formatted report to the writer.
	Render(w io.Writer, report *scoring.Report) error
}

// Format names an output format accepted by ForFormat.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch Format(format) {
	case FormatText, "":
		return &TerminalRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatXLSX:
		return &XLSXRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or xlsx)", format)
	}
}

// palette maps the domain's rarity color names to hex values.
var palette = map[string]string{
	"darkgray": "#555555",
	"gray":     "#9E9E9E",
	"green":    "#4CAF50",
	"blue":     "#2196F3",
	"purple":   "#9C27B0",
	"orange":   "#FF9800",
}

// ColorHex returns the hex value for a rarity color name, gray for
// unknown names.
func ColorHex(name string) string {
	if hex, ok := palette[name]; ok {
		return hex
	}
	return palette["gray"]
}
