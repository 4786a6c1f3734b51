package analysis

import (
	"strings"

	"github.com/growly/resume-bot/internal/prompts"
	"github.com/growly/resume-bot/internal/rendering"
)

// ExtractJobPositions returns the English job titles listed under the job
// positions section of an analysis. Scanning starts after the first line
// containing the section marker and stops at the first non-blank line that is
// not a bullet. Entries containing any non-ASCII character are skipped.
func ExtractJobPositions(text string) []string {
	positions := []string{}
	capturing := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if !capturing {
			if strings.Contains(line, prompts.JobPositionsLabel) {
				capturing = true
			}
			continue
		}

		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, rendering.BulletGlyph) {
			break
		}

		position := strings.TrimSpace(strings.TrimPrefix(trimmed, rendering.BulletGlyph))
		if position != "" && isASCII(position) {
			positions = append(positions, position)
		}
	}

	return positions
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
