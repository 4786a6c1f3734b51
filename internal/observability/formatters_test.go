package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/growly/resume-bot/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.AnalysisResult{
		RawText:       "raw",
		FormattedText: "formatted",
		Model:         "gemini-1.5-flash",
		JobPositions:  []string{"Backend Engineer", "Site Reliability Engineer"},
	})
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "gemini-1.5-flash")
	assert.Contains(t, output, "Backend Engineer")
	assert.Contains(t, output, "Site Reliability Engineer")
}

func TestPrintAnalysis_TruncatesPositionList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.AnalysisResult{
		JobPositions: []string{"A", "B", "C", "D", "E", "F", "G"},
	})

	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintAnalysis_NoPositions(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(&types.AnalysisResult{})

	assert.Contains(t, buf.String(), "none extracted")
}

func TestPrintAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintAnalysis(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesMultibyteLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("ر", 100))

	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), "�")
}

func TestPrintChunks(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintChunks([]string{"first", "second"})

	output := buf.String()
	assert.Contains(t, output, "message 1/2")
	assert.Contains(t, output, "message 2/2")
	assert.Contains(t, output, "second")
}

func TestPrintQualityMetrics(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintQualityMetrics(types.ComputeQualityMetrics([]types.Rating{5, 4}))

	output := buf.String()
	assert.Contains(t, output, "SERVICE QUALITY")
	assert.Contains(t, output, "Total ratings:  2")
	assert.Contains(t, output, "Average rating: 4.50")
}
