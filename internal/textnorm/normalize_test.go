package textnorm

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: "!!! ... ???", want: ""},
		{name: "diacritics", input: "Beyoncé", want: "beyonce"},
		{name: "html entity ampersand", input: "Tom &amp; Jerry", want: "tom and jerry"},
		{name: "bare ampersand", input: "Rock&Roll", want: "rock and roll"},
		{name: "numeric entity", input: "Don&#39;t Stop", want: "don t stop"},
		{name: "whitespace and punctuation", input: "  Hello,   World!! ", want: "hello world"},
		{name: "quoted parenthetical", input: `Kesariya (From "Brahmastra")`, want: "kesariya from brahmastra"},
		{name: "devanagari", input: "तुम ही हो", want: "tum hii ho"},
		{name: "cyrillic", input: "Москва", want: "moskva"},
		{name: "digits kept", input: "2 Phone", want: "2 phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Tum Hi Ho",
		"Kesariya (From \"Brahmastra\")",
		"AC/DC & Friends &amp; more",
		"Beyoncé — Halo",
		"🎵 Song 🎶 with emoji",
		"मेरे रश्के क़मर",
		"東京 Tokyo",
		"  \t spaced\nout  ",
		"&amp;amp;",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		for _, r := range once {
			if !isASCIIAlnum(r) && r != ' ' {
				t.Errorf("Normalize(%q) = %q contains %q", in, once, r)
			}
		}
		if strings.Contains(once, "  ") || strings.TrimSpace(once) != once {
			t.Errorf("Normalize(%q) = %q has untrimmed or repeated spaces", in, once)
		}
	}
}

func TestToHinglish(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "latin untouched", input: "Tum Hi Ho", want: "Tum Hi Ho"},
		{name: "matras", input: "तुम ही हो", want: "tum hii ho"},
		{name: "halant conjunct", input: "वन्दे", want: "vande"},
		{name: "anusvara fix", input: "वंदे", want: "vande"},
		{name: "inherent vowel between letters", input: "मातरम्", want: "maataram"},
		{name: "decomposed nukta", input: "ज़रा", want: "zaraa"},
		{name: "mixed script", input: "Sajni (सजनी)", want: "Sajni (sajanii)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToHinglish(tt.input)
			if got != tt.want {
				t.Errorf("ToHinglish(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("  The   Final-Countdown ")
	want := []string{"the", "final", "countdown"}
	if len(got) != len(want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
