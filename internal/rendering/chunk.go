package rendering

import (
	"strings"
	"unicode/utf16"
)

// DefaultMaxLength is Telegram's per-message limit in UTF-16 code units.
const DefaultMaxLength = 4096

// TextLength measures s in UTF-16 code units, the unit Telegram counts in.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Split packs the lines of text greedily into chunks of at most maxLength.
// Lines are never joined mid-line; a line longer than maxLength on its own is
// hard-split at rune boundaries. Each chunk is trimmed and empty chunks are
// dropped. A non-positive maxLength selects DefaultMaxLength.
func Split(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	chunks := []string{}
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		for _, piece := range hardSplit(line, maxLength) {
			pieceLen := TextLength(piece)
			if currentLen+pieceLen+1 > maxLength {
				flush()
			}
			current.WriteString(piece)
			current.WriteByte('\n')
			currentLen += pieceLen + 1
		}
	}
	flush()

	return chunks
}

// hardSplit breaks line into pieces of at most maxLength code units. An escape
// backslash is never separated from the character it escapes.
func hardSplit(line string, maxLength int) []string {
	if TextLength(line) <= maxLength {
		return []string{line}
	}

	var pieces []string
	runes := []rune(line)
	start, width := 0, 0
	for i := 0; i < len(runes); i++ {
		w := TextLength(string(runes[i]))
		if width+w > maxLength && i > start {
			cut := i
			if runes[cut-1] == '\\' && isSpecial(runes[cut]) && cut-1 > start {
				cut--
			}
			pieces = append(pieces, string(runes[start:cut]))
			start = cut
			width = TextLength(string(runes[start:i]))
		}
		width += w
	}
	pieces = append(pieces, string(runes[start:]))
	return pieces
}
