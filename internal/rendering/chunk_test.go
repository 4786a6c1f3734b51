package rendering

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split("", 100))
	assert.Empty(t, Split(" \n \n", 100))
	assert.NotNil(t, Split("", 100))
}

func TestSplit_FitsInOneChunk(t *testing.T) {
	chunks := Split("line one\nline two\n", 100)
	assert.Equal(t, []string{"line one\nline two"}, chunks)
}

func TestSplit_GreedyPacking(t *testing.T) {
	// "aaaa\n" (5) + "bbbb\n" (5) fits in 10, "cccc" starts a new chunk.
	chunks := Split("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)
}

func TestSplit_LineEqualToMaxLength(t *testing.T) {
	line := strings.Repeat("x", 8)
	chunks := Split(line+"\n"+line, 8)
	assert.Equal(t, []string{line, line}, chunks)
}

func TestSplit_LargeDocument(t *testing.T) {
	var lines []string
	for i := 0; len(strings.Join(lines, "\n")) < 9000; i++ {
		lines = append(lines, fmt.Sprintf("%04d %s", i, strings.Repeat("w", 85)))
	}
	text := strings.Join(lines, "\n")
	require.GreaterOrEqual(t, len(text), 9000)

	chunks := Split(text, DefaultMaxLength)

	assert.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, TextLength(c), DefaultMaxLength)
		assert.NotEmpty(t, c)
	}
	assert.Equal(t, text, strings.Join(chunks, "\n"))
}

func TestSplit_ReconstructsText(t *testing.T) {
	texts := []string{
		"a\nbb\nccc\ndddd\neeeee\nffffff",
		"• one\n• two\n• three",
		"نقاط قوت رزومه:\n• تجربه کاری\n• مهارت‌ها",
	}
	for _, text := range texts {
		for maxLength := 16; maxLength <= 40; maxLength++ {
			chunks := Split(text, maxLength)
			assert.Equal(t, text, strings.Join(chunks, "\n"), "maxLength %d", maxLength)
			for _, c := range chunks {
				assert.LessOrEqual(t, TextLength(c), maxLength)
			}
		}
	}
}

func TestSplit_OverlongLineIsHardSplit(t *testing.T) {
	line := strings.Repeat("z", 25)
	chunks := Split("head\n"+line+"\ntail", 10)

	for _, c := range chunks {
		assert.LessOrEqual(t, TextLength(c), 10)
	}
	assert.Equal(t, "head"+line+"tail", strings.ReplaceAll(strings.Join(chunks, ""), "\n", ""))
}

func TestSplit_HardSplitKeepsEscapePairs(t *testing.T) {
	line := strings.Repeat("a", 4) + `\.` + strings.Repeat("b", 4)
	chunks := Split(line, 5)

	for _, c := range chunks {
		assert.False(t, strings.HasSuffix(c, `\`), "chunk %q ends with a dangling escape", c)
		assert.LessOrEqual(t, TextLength(c), 5)
	}
	assert.Equal(t, line, strings.Join(chunks, ""))
}

func TestSplit_DefaultMaxLength(t *testing.T) {
	chunks := Split(strings.Repeat("y", 5000), 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, DefaultMaxLength, TextLength(chunks[0]))
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	chunks := Split("aaaa\n\n\n\nbbbb\n\n", 5)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
	}
	assert.Equal(t, []string{"aaaa", "bbbb"}, chunks)
}

func TestTextLength_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 0, TextLength(""))
	assert.Equal(t, 3, TextLength("abc"))
	assert.Equal(t, 4, TextLength("سلام"))
	assert.Equal(t, 2, TextLength("🌟"))
}
