// Package normalize derives canonical comparison keys from raw entity
// mention strings. Keys are what duplicate detection runs on; display
// casing is preserved separately on the entity itself.
package normalize

import (
	"strings"
	"unicode"

	"github.com/siherrmann/newsgraph/model"
)

// legalSuffixes are trailing company designations stripped for Company
// mentions so "OpenAI Inc." and "OpenAI" share one key
var legalSuffixes = []string{
	"inc", "incorporated", "ltd", "limited", "llc", "llp", "plc",
	"corp", "corporation", "co", "company", "gmbh", "ag", "sa", "se",
	"nv", "bv", "oy", "ab", "kk", "pte", "pty", "holdings", "group",
}

// Key canonicalizes a raw mention name into the comparison key for its
// entity type. It is deterministic and idempotent: Key(Key(x)) == Key(x).
// It never fails; unrecognized input yields a best-effort lowercased,
// trimmed key.
func Key(raw string, entityType model.EntityType) string {
	key := strings.TrimSpace(raw)
	key = strings.ToLower(key)
	key = foldPunctuation(key)
	key = collapseWhitespace(key)

	if entityType == model.EntityTypeCompany || entityType == model.EntityTypeInvestor {
		key = stripLegalSuffixes(key)
	}

	return key
}

// foldPunctuation replaces punctuation with spaces so "J.P. Morgan" and
// "JP Morgan" collapse to the same token sequence, keeping characters that
// carry identity (letters, digits, ampersand)
func foldPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// collapseWhitespace reduces any run of whitespace to a single space and
// trims the ends
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLegalSuffixes removes trailing legal designations, repeatedly, so
// "Example Holdings Inc" reduces to "example"
func stripLegalSuffixes(key string) string {
	tokens := strings.Fields(key)
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if !isLegalSuffix(last) {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func isLegalSuffix(token string) bool {
	for _, suffix := range legalSuffixes {
		if token == suffix {
			return true
		}
	}
	return false
}
