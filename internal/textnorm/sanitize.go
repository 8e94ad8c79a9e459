// Package textnorm normalizes raw category labels into a comparable form.
// Score-report text arrives via copy-paste and OCR, so it carries curly
// quotes, non-breaking spaces, zero-width characters, and inconsistent
// punctuation that would otherwise defeat matching.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cleaner applies NFKC normalization and drops zero-width characters.
var cleaner = transform.Chain(
	norm.NFKC,
	runes.Remove(runes.Predicate(isZeroWidth)),
)

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}

// asciiFold maps typographic punctuation onto ASCII equivalents.
var asciiFold = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "′", "'",
	"“", "\"", "”", "\"",
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "−", "-",
	" ", " ",
)

var (
	commaSpacingRe = regexp.MustCompile(`\s*,\s*`)
	disallowedRe   = regexp.MustCompile(`[^a-z0-9\s,/:()'-]+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes a raw label: Unicode NFKC, zero-width stripping,
// punctuation folding, lowercasing, "&" to "and", comma spacing, and a
// final character whitelist. Total: garbage in yields an empty string,
// never an error.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	s, _, err := transform.String(cleaner, raw)
	if err != nil {
		// Malformed UTF-8: fall back to the raw bytes and let the
		// whitelist below discard anything unusable.
		s = raw
	}

	s = asciiFold.Replace(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = commaSpacingRe.ReplaceAllString(s, ", ")
	s = disallowedRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
