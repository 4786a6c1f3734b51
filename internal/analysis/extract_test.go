package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const marker = "موقعیت‌های شغلی مرتبط:"

func TestExtractJobPositions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "no marker",
			input:    "نقاط قوت رزومه:\n• Go\n• Kubernetes",
			expected: []string{},
		},
		{
			name:     "bullets after marker",
			input:    marker + "\n• Backend Engineer\n• DevOps Engineer\n• Site Reliability Engineer",
			expected: []string{"Backend Engineer", "DevOps Engineer", "Site Reliability Engineer"},
		},
		{
			name:     "blank lines before bullets are skipped",
			input:    marker + "\n\n   \n• Data Engineer\n\n• ML Engineer",
			expected: []string{"Data Engineer", "ML Engineer"},
		},
		{
			name:     "non-bullet line ends the section",
			input:    marker + "\n• Go Developer\nDo not include this\n• Rust Developer",
			expected: []string{"Go Developer"},
		},
		{
			name:     "non-ascii entries are dropped",
			input:    marker + "\n• مهندس نرم‌افزار\n• Software Engineer\n• Café Manager",
			expected: []string{"Software Engineer"},
		},
		{
			name:     "indented bullets and surrounding whitespace",
			input:    "intro\n  " + marker + "  \n   •   Platform Engineer   \n\t• QA Engineer",
			expected: []string{"Platform Engineer", "QA Engineer"},
		},
		{
			name:     "lines before marker are ignored",
			input:    "• Ignored Title\n" + marker + "\n• Counted Title",
			expected: []string{"Counted Title"},
		},
		{
			name:     "marker with nothing after it",
			input:    "text\n" + marker,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJobPositions(tt.input))
		})
	}
}

func TestExtractJobPositions_PreservesOrder(t *testing.T) {
	titles := []string{"A", "B", "C", "D", "E"}
	var sb strings.Builder
	sb.WriteString("## header\n" + marker + "\n")
	for _, title := range titles {
		sb.WriteString("• " + title + "\n")
	}

	assert.Equal(t, titles, ExtractJobPositions(sb.String()))
}
