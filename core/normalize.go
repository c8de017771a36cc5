package core

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/huangsam/conceptrace/schema"
	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// bracketPattern matches generic arguments, array suffixes and argument lists.
var bracketPattern = regexp.MustCompile(`\[.*\]|\{.*\}|\(.*\)`)

// Normalizer turns raw identifiers into vocabulary terms.
type Normalizer struct {
	stemmer       schema.StemmerMode
	rejected      map[string]struct{}
	trimHungarian bool
}

// NewNormalizer creates a normalizer. Rejected words are compared after lower-casing.
func NewNormalizer(stemmer schema.StemmerMode, rejectedWords []string, trimHungarian bool) *Normalizer {
	rejected := make(map[string]struct{}, len(rejectedWords))
	for _, w := range rejectedWords {
		rejected[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Normalizer{stemmer: stemmer, rejected: rejected, trimHungarian: trimHungarian}
}

// Terms returns the distinct lower-case terms of an identifier in order of appearance.
func (n *Normalizer) Terms(identifier string) []string {
	clean := stripDiacritics(identifier)
	clean = bracketPattern.ReplaceAllString(clean, "")
	if n.trimHungarian {
		clean = TrimHungarian(clean)
	}
	clean = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return ' '
	}, clean)

	var terms []string
	for _, token := range Tokenize(clean) {
		term := strings.ToLower(token)
		if _, ok := n.rejected[term]; ok {
			continue
		}
		if n.stemmer == schema.EnglishStemmer {
			term = english.Stem(term, false)
		}
		if term == "" || slices.Contains(terms, term) {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// Signature identifies the normalizer settings, so cached stems built with
// other settings are never reused.
func (n *Normalizer) Signature() string {
	words := make([]string, 0, len(n.rejected))
	for w := range n.rejected {
		words = append(words, w)
	}
	slices.Sort(words)
	key := fmt.Sprintf("%s:%t:%s", n.stemmer, n.trimHungarian, strings.Join(words, ","))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// stripDiacritics removes combining marks, so "Überweisung" becomes "Uberweisung".
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
