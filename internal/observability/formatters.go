// Package observability provides logging setup and formatted output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/growly/resume-bot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the analyze and stats commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if runes := []rune(line); len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAnalysis outputs a summary of an analysis result.
func (p *Printer) PrintAnalysis(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Model:       %s\n", result.Model))
	sb.WriteString(fmt.Sprintf("Raw length:  %d chars\n", len([]rune(result.RawText))))
	sb.WriteString(fmt.Sprintf("Formatted:   %d chars\n", len([]rune(result.FormattedText))))
	sb.WriteString("\n")

	if len(result.JobPositions) == 0 {
		sb.WriteString("Job positions: none extracted\n")
	} else {
		sb.WriteString("Job positions:\n")
		count := min(len(result.JobPositions), maxItemsToShow)
		for _, position := range result.JobPositions[:count] {
			sb.WriteString(fmt.Sprintf("  • %s\n", position))
		}
		if len(result.JobPositions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.JobPositions)-maxItemsToShow))
		}
	}

	p.printBox("RESUME ANALYSIS", strings.TrimRight(sb.String(), "\n"))
}

// PrintChunks writes each message chunk exactly as it would be sent.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintChunks(chunks []string) {
	for i, chunk := range chunks {
		fmt.Fprintf(p.out, "----- message %d/%d (%d chars) -----\n", i+1, len(chunks), len([]rune(chunk)))
		fmt.Fprintln(p.out, chunk)
	}
}

// PrintQualityMetrics outputs the rating summary.
func (p *Printer) PrintQualityMetrics(m types.QualityMetrics) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total ratings:  %d\n", m.TotalRatings))
	sb.WriteString(fmt.Sprintf("Average rating: %.2f\n", m.Average))
	sb.WriteString("\n")
	for _, r := range types.AllRatings {
		sb.WriteString(fmt.Sprintf("  %d ★  %d\n", int(r), m.Distribution[r]))
	}

	p.printBox("SERVICE QUALITY", strings.TrimRight(sb.String(), "\n"))
}
