package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	halant = '\u094D'
	nukta  = '\u093C'
)

var devanagariVowels = map[rune]string{
	'अ': "a", 'आ': "aa", 'इ': "i", 'ई': "ii", 'उ': "u", 'ऊ': "uu", 'ऋ': "ri",
	'ए': "e", 'ऐ': "ai", 'ओ': "o", 'औ': "au", 'ऑ': "o", 'ऍ': "e",
}

// Dependent vowel signs plus anusvara, candrabindu and visarga.
var devanagariMatras = map[rune]string{
	'ा': "aa", 'ि': "i", 'ी': "ii", 'ु': "u", 'ू': "uu", 'ृ': "ri",
	'े': "e", 'ै': "ai", 'ो': "o", 'ौ': "au", 'ॉ': "o", 'ॅ': "e",
	'ं': "n", 'ँ': "n", 'ः': "h",
}

var devanagariConsonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "ng",
	'च': "ch", 'छ': "chh", 'ज': "j", 'झ': "jh", 'ञ': "ny",
	'ट': "t", 'ठ': "th", 'ड': "d", 'ढ': "dh", 'ण': "n",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'व': "v",
	'श': "sh", 'ष': "sh", 'स': "s", 'ह': "h", 'ळ': "l",
	// precomposed nukta letters
	'\u0958': "q", '\u0959': "kh", '\u095A': "gh", '\u095B': "z",
	'\u095C': "d", '\u095D': "rh", '\u095E': "f", '\u095F': "y",
}

// Base consonant followed by a combining nukta.
var nuktaForms = map[rune]string{
	'क': "q", 'ख': "kh", 'ग': "gh", 'ज': "z", 'ड': "d", 'ढ': "rh", 'फ': "f", 'य': "y",
}

var vandeFix = regexp.MustCompile(`(?i)\bvnde\b`)

func isDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

func hasDevanagari(s string) bool {
	return strings.ContainsFunc(s, isDevanagari)
}

// ToHinglish transliterates Devanagari text into the informal Latin spelling
// used by Indian catalogs ("तुम ही हो" → "tum hii ho"). Text without
// Devanagari characters is returned unchanged.
//
// The inherent vowel is written only between Devanagari letters, so
// word-final consonants stay bare.
func ToHinglish(text string) string {
	if !hasDevanagari(text) {
		return text
	}

	runes := []rune(norm.NFC.String(text))
	var out strings.Builder
	out.Grow(len(runes) * 2)

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if v, ok := devanagariVowels[ch]; ok {
			out.WriteString(v)
			continue
		}

		if base, ok := devanagariConsonants[ch]; ok {
			if i+1 < len(runes) && runes[i+1] == nukta {
				if f, ok := nuktaForms[ch]; ok {
					base = f
				}
				i++
			}

			var next rune
			if i+1 < len(runes) {
				next = runes[i+1]
			}

			switch {
			case next == halant:
				out.WriteString(base)
				i++
			case devanagariMatras[next] != "":
				out.WriteString(base)
				out.WriteString(devanagariMatras[next])
				i++
			case next != 0 && isDevanagari(next) && next != nukta:
				out.WriteString(base)
				out.WriteByte('a')
			default:
				out.WriteString(base)
			}
			continue
		}

		if m, ok := devanagariMatras[ch]; ok {
			out.WriteString(m)
			continue
		}

		// stray nukta, danda and other unmapped signs
		if isDevanagari(ch) {
			continue
		}

		out.WriteRune(ch)
	}

	return vandeFix.ReplaceAllString(out.String(), "vande")
}
