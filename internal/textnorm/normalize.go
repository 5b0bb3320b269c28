// Package textnorm canonicalizes free-text track metadata into a comparable form.
package textnorm

import (
	"html"
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

// Normalize decodes HTML entities, transliterates non-Latin scripts, strips
// combining diacritics, lower-cases, spells out "&" as "and", and reduces
// everything that is not a letter or digit to single spaces.
//
// The output only contains [a-z0-9 ], so Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := html.UnescapeString(text)
	s = ToHinglish(s)
	s = StripMarks(s)
	s = unidecode.Unidecode(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if isASCIIAlnum(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// StripMarks applies canonical decomposition and drops combining marks,
// turning "Beyoncé" into "Beyonce".
func StripMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CollapseSpace trims s and replaces whitespace runs with a single space
// without altering case or punctuation.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the whitespace-separated words of Normalize(s).
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
