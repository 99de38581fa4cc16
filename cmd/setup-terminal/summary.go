// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/marjacob/setup-terminal/internal/setup"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/docker/go-units"
)

// newTable returns a table styled like the rest of the CLI output.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// renderSummary prints one row per package outcome followed by totals.
func renderSummary(w io.Writer, s setup.Summary) {
	fmt.Fprintln(w, describeBundle(s.Bundle, s.Tag, s.Version, s.Preview))

	t := newTable("CPU", "INSTALLER", "SIZE", "TIME", "STATUS")
	for _, p := range s.Packages {
		cpu, name := string(p.CPU), p.Build
		if p.Entry == "" {
			cpu, name = "?", "(unreadable package)"
		}
		status := SuccessStyle.Render("built")
		if !p.Succeeded() {
			status = ErrorStyle.Render("failed")
		}
		t.Row(cpu, name,
			units.HumanSize(float64(p.Size)),
			p.Duration.Round(time.Millisecond).String(),
			status)
	}
	fmt.Fprintln(w, t.Render())

	totals := fmt.Sprintf("%d built, %d failed", s.Succeeded(), s.Failed())
	if s.Failed() > 0 {
		fmt.Fprintln(w, ErrorStyle.Render(totals))
		for _, p := range s.Packages {
			if err := p.Failure(); err != nil {
				fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(p.Build+":"), err)
			}
		}
		return
	}
	fmt.Fprintln(w, SuccessStyle.Render(totals))
}
