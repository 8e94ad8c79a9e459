package matcher

import (
	"regexp"
	"strings"
)

// Boilerplate prefixes/suffixes that exam blueprints wrap around the
// meaningful part of a category name. Stripped from both the input and
// the canonical side before comparison so wording drift doesn't defeat
// exact matching.
var boilerplatePrefixes = []string{
	"patient presentations related to the ",
	"patient presentations related to ",
}

var boilerplateSuffixes = []string{
	" in the practice of osteopathic medicine",
	" in osteopathic medical practice",
	" in osteopathic medicine",
}

var systemsRe = regexp.MustCompile(`\bsystems\b`)

// preprocess reduces a sanitized label to its comparable core: blueprint
// boilerplate removed and "systems" singularized.
func preprocess(s string) string {
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimPrefix(s, p)
			break
		}
	}
	for _, suf := range boilerplateSuffixes {
		if strings.HasSuffix(s, suf) {
			s = strings.TrimSuffix(s, suf)
			break
		}
	}
	s = systemsRe.ReplaceAllString(s, "system")
	return strings.TrimSpace(s)
}

// stopwords are connective tokens dropped before fuzzy comparison. They
// carry no category signal and inflate edit distance on short labels.
var stopwords = map[string]bool{
	"patient":       true,
	"presentations": true,
	"related":       true,
	"to":            true,
	"the":           true,
	"and":           true,
	"of":            true,
}

// confusableFold collapses character sequences OCR commonly misreads.
// Applied to both sides of a fuzzy comparison, so folding legitimate
// text is harmless.
var confusableFold = strings.NewReplacer(
	"rn", "m",
	"|", "l",
)

// simplify reduces a preprocessed label to the form used for fuzzy
// similarity: stopwords removed, OCR confusables folded.
func simplify(s string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			kept = append(kept, f)
		}
	}
	return confusableFold.Replace(strings.Join(kept, " "))
}
