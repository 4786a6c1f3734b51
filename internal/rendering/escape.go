// Package rendering formats analysis text for Telegram's MarkdownV2 dialect
// and packs it into message-sized chunks.
package rendering

import "strings"

// SpecialChars are the characters MarkdownV2 requires to be backslash-escaped.
const SpecialChars = "_*[]()~`>#+-=|{}.!"

func isSpecial(r rune) bool {
	return strings.ContainsRune(SpecialChars, r)
}

// EscapeMarkdownV2 inserts a backslash before every special character.
// It must be applied to a given literal exactly once.
func EscapeMarkdownV2(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		if isSpecial(r) {
			result.WriteByte('\\')
		}
		result.WriteRune(r)
	}

	return result.String()
}

// UnescapeMarkdownV2 removes a backslash that directly precedes a special character.
func UnescapeMarkdownV2(text string) string {
	return unescape(text, false)
}

// StripMarkup turns MarkdownV2 produced by Format into plain text: bold
// markers are dropped and escape backslashes removed.
func StripMarkup(text string) string {
	return unescape(text, true)
}

func unescape(text string, dropBold bool) string {
	if text == "" {
		return ""
	}

	runes := []rune(text)
	var result strings.Builder
	result.Grow(len(text))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\\' && i+1 < len(runes) && isSpecial(runes[i+1]) {
			result.WriteRune(runes[i+1])
			i++
			continue
		}
		if dropBold && r == '*' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}
