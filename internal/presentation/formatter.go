// Package presentation renders scenario reports for the command line.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatReport writes the report in the named format.
func (f *Formatter) FormatReport(report ReportDTO, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(f.writer)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case FormatText, "":
		_, err := io.WriteString(f.writer, renderText(report))
		return err
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
	}
}

// pad left-aligns s in a column of width cells.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func renderText(r ReportDTO) string {
	var sb strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&sb, "scenario %s\n\n", r.Name)
	}

	itemW, zoneW := len("item"), len("zone")
	for _, s := range r.Steps {
		itemW = max(itemW, runewidth.StringWidth(s.Item))
		zoneW = max(zoneW, runewidth.StringWidth(s.Zone))
	}
	for _, a := range r.Assignments {
		itemW = max(itemW, runewidth.StringWidth(a.Item))
		zoneW = max(zoneW, runewidth.StringWidth(a.Zone))
	}

	fmt.Fprintf(&sb, "%-4s  %-10s  %s  %s  %s\n", "step", "kind", pad("item", itemW), pad("zone", zoneW), "outcome")
	for _, s := range r.Steps {
		line := fmt.Sprintf("%-4d  %-10s  %s  %s  %s", s.Step, s.Kind, pad(s.Item, itemW), pad(s.Zone, zoneW), s.Outcome)
		if s.Reason != "" {
			line += " (" + s.Reason + ")"
		}
		if s.Position != nil {
			line += fmt.Sprintf(" at %g,%g", s.Position.X, s.Position.Y)
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteByte('\n')
	}

	sb.WriteString("\nassignments\n")
	if len(r.Assignments) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, a := range r.Assignments {
		fmt.Fprintf(&sb, "  %s  %s\n", pad(a.Item, itemW), a.Zone)
	}

	fmt.Fprintf(&sb, "\ncommitted %d, rejected %d, no target %d, cancelled %d\n",
		r.Stats.Committed, r.Stats.Rejected, r.Stats.NoTarget, r.Stats.Cancelled)
	return sb.String()
}
