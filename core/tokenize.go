package core

import (
	"regexp"
	"strings"
	"unicode"
)

// hungarianPattern matches an identifier decorated with an optional scope
// prefix and exactly one known type abbreviation, capturing the semantic tail.
var hungarianPattern = regexp.MustCompile(`^(?:m_|g_|s_|l_)?(?:lpsz|lpfn|lp|psz|pfn|str|sz|dw|by|rgb|ar|fd|pt|ch|class|char|[abcdfhilnopsuvw])(?P<name>\p{Lu}\w+)$`)

// classPattern matches the C prefix of class names such as CAccount.
var classPattern = regexp.MustCompile(`^C(?P<name>\p{Lu}\p{Ll}\w*)$`)

// scopePattern matches a bare scope prefix such as m_balance.
var scopePattern = regexp.MustCompile(`^(?:m_|g_|s_|l_)(?P<name>\w+)$`)

// Tokenize splits an identifier into its camel-case terms, preserving case.
// Separators (space, underscore, dash) are dropped, a run of capitals is kept
// as one acronym term and digits stay attached to the term being built.
func Tokenize(identifier string) []string {
	terms := make([]string, 0, 4)
	var word []rune
	prevUpper, prevSep, acronym := false, true, false

	flush := func() {
		if len(word) > 0 {
			terms = append(terms, string(word))
			word = word[:0]
		}
	}

	for _, ch := range identifier {
		upper := unicode.IsUpper(ch)
		switch {
		case isSeparator(ch):
			prevUpper, prevSep, acronym = false, true, false
		case upper && prevUpper:
			word = append(word, ch)
			acronym = true
		case prevSep || upper:
			flush()
			word = append(word, ch)
			prevUpper, prevSep, acronym = upper, false, false
		case acronym && unicode.IsLower(ch):
			// The last capital of an acronym run starts the next word.
			last := word[len(word)-1]
			word = word[:len(word)-1]
			flush()
			word = append(word, last, ch)
			prevUpper, acronym = false, false
		default:
			word = append(word, ch)
			prevUpper, acronym = false, false
		}
	}
	flush()

	return terms
}

// TrimHungarian strips scope and type decoration (m_strName, g_dwCount,
// pszLabel, CAccount) from an identifier. Plain camel-case words are never
// read as decoration, so addItem and isValid are returned as-is.
func TrimHungarian(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	for _, p := range []*regexp.Regexp{hungarianPattern, classPattern, scopePattern} {
		if m := p.FindStringSubmatch(trimmed); m != nil {
			return m[p.SubexpIndex("name")]
		}
	}
	return identifier
}

func isSeparator(ch rune) bool {
	return ch == ' ' || ch == '_' || ch == '-'
}
