// Package sanitize neutralizes discord markdown and mentions in text coming
// from untrusted sources, so it can be placed into messages verbatim.
package sanitize

import (
	"regexp"
	"strings"
)

// Characters that are markdown anywhere in a line
const inline = "\\*_~`|"

// Characters that are markdown only in some positions, escaped when they are.
// Any escape sequence made with them is left alone
const positional = ">#-["

var mentions = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)

var maskedLink = regexp.MustCompile(`^\[[^\]\n]+\]\([^)\n]+\)`)

const zeroWidthSpace = "\u200b"

// Sanitize escapes markdown and breaks mentions. Sanitizing twice gives
// the same result as sanitizing once
func Sanitize(text string) string {
	return escapeMentions(escapeMarkdown(text))
}

func escapeMentions(text string) string {
	return mentions.ReplaceAllString(text, "@"+zeroWidthSpace+"$1")
}

func escapeMarkdown(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	lineStart := true  // nothing written in this line yet
	indentOnly := true // only spaces or tabs written in this line
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && isSpecial(runes[i+1]):
			// Already escaped
			b.WriteRune(r)
			i++
			b.WriteRune(runes[i])
		case strings.ContainsRune(inline, r),
			r == '>' && lineStart && isBlockQuote(runes[i:]),
			r == '#' && lineStart && isHeader(runes[i:]),
			r == '-' && indentOnly && i+1 < len(runes) && isSpace(runes[i+1]),
			r == '[' && maskedLink.MatchString(string(runes[i:])):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		last := runes[i]
		lineStart = last == '\n'
		indentOnly = last == '\n' || (indentOnly && isSpace(last))
	}
	return b.String()
}

func isSpecial(r rune) bool {
	return strings.ContainsRune(inline, r) || strings.ContainsRune(positional, r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// > text or >>> text
func isBlockQuote(runes []rune) bool {
	n := 1
	if len(runes) >= 3 && runes[1] == '>' && runes[2] == '>' {
		n = 3
	}
	return len(runes) > n && (isSpace(runes[n]) || runes[n] == '\n')
}

// One to three hashes followed by a space
func isHeader(runes []rune) bool {
	n := 0
	for n < len(runes) && runes[n] == '#' {
		n++
	}
	return n <= 3 && n < len(runes) && isSpace(runes[n])
}
