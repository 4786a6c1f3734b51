package rendering

import (
	"regexp"
	"strings"
)

const (
	// Header opens every formatted analysis.
	Header = "*📄 تحلیل رزومه 📄*\n\n"
	// Footer closes every formatted analysis; it is already escaped.
	Footer = "\n\nبرای بهبود رزومه خود، این پیشنهادات را در نظر بگیرید\\. موفق باشید\\! 🌟"

	// BulletGlyph marks a list item in the model's output.
	BulletGlyph = "•"
	// ImprovedVersionLabel introduces a rewritten resume excerpt.
	ImprovedVersionLabel = "نسخه بهبود یافته:"

	headingMarker = "##"
	headingIcon   = "📌 "
)

// SectionLabels are the feedback section titles rendered in bold.
var SectionLabels = []string{
	"نقاط قوت رزومه:",
	"زمینه‌های نیازمند بهبود:",
	"پیشنهادات برای بهبود رزومه:",
	"نمونه‌های بهبود یافته:",
}

// boldTitlePattern splits "• **Title** rest" into bullet, title and rest.
var boldTitlePattern = regexp.MustCompile(`^(•\s+)(\*\*.*?\*\*)(.*)$`)

// LineKind identifies which formatting rule a line falls under.
type LineKind int

const (
	KindHeading LineKind = iota
	KindSectionLabel
	KindBullet
	KindImprovedVersion
	KindPlain
)

func (k LineKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindSectionLabel:
		return "section_label"
	case KindBullet:
		return "bullet"
	case KindImprovedVersion:
		return "improved_version"
	default:
		return "plain"
	}
}

// lineRule pairs a predicate with the transform applied when it matches.
type lineRule struct {
	kind      LineKind
	matches   func(line string) bool
	transform func(line string) string
}

// formattingRules is evaluated top to bottom; the first match wins.
// The final rule matches every line.
var formattingRules = []lineRule{
	{
		kind:      KindHeading,
		matches:   func(line string) bool { return strings.HasPrefix(line, headingMarker) },
		transform: formatHeading,
	},
	{
		kind:      KindSectionLabel,
		matches:   isSectionLabel,
		transform: func(line string) string { return bold(EscapeMarkdownV2(line)) },
	},
	{
		kind:      KindBullet,
		matches:   func(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), BulletGlyph) },
		transform: formatBullet,
	},
	{
		kind:      KindImprovedVersion,
		matches:   func(line string) bool { return strings.TrimSpace(line) == ImprovedVersionLabel },
		transform: func(line string) string { return "\n" + EscapeMarkdownV2(line) },
	},
	{
		kind:      KindPlain,
		matches:   func(string) bool { return true },
		transform: EscapeMarkdownV2,
	},
}

// Classify returns the kind of the first rule matching line.
func Classify(line string) LineKind {
	return ruleFor(line).kind
}

func ruleFor(line string) lineRule {
	for _, rule := range formattingRules {
		if rule.matches(line) {
			return rule
		}
	}
	return formattingRules[len(formattingRules)-1]
}

// FormatLine applies the first matching rule to a single line.
func FormatLine(line string) string {
	return ruleFor(line).transform(line)
}

// Format converts raw model output into MarkdownV2 wrapped by Header and Footer.
func Format(text string) string {
	lines := strings.Split(text, "\n")
	processed := make([]string, len(lines))
	for i, line := range lines {
		processed[i] = FormatLine(line)
	}

	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteString(strings.Join(processed, "\n"))
	sb.WriteString(Footer)
	return sb.String()
}

func formatHeading(line string) string {
	title := strings.TrimSpace(strings.TrimPrefix(line, headingMarker))
	return bold(headingIcon + EscapeMarkdownV2(title))
}

func formatBullet(line string) string {
	m := boldTitlePattern.FindStringSubmatch(line)
	if m == nil {
		return EscapeMarkdownV2(line)
	}
	bullet, title, rest := m[1], strings.Trim(m[2], "*"), m[3]
	return EscapeMarkdownV2(bullet) + bold(EscapeMarkdownV2(title)) + EscapeMarkdownV2(rest)
}

func isSectionLabel(line string) bool {
	trimmed := strings.TrimRight(line, " \t\r")
	for _, label := range SectionLabels {
		if trimmed == label {
			return true
		}
	}
	return false
}

func bold(s string) string {
	return "*" + s + "*"
}
