package ranking

import (
	"strings"
	"unicode"
)

// stopWords are removed only when they stand alone as a token.
// Particles glued to a content word ("배터리의") survive tokenization.
var stopWords = map[string]struct{}{
	"이": {}, "가": {}, "을": {}, "를": {}, "은": {}, "는": {}, "의": {},
	"에": {}, "에서": {}, "로": {}, "으로": {}, "와": {}, "과": {},
	"도": {}, "만": {}, "및": {}, "등": {}, "또는": {}, "그리고": {},
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {},
	"for": {}, "to": {}, "in": {}, "on": {}, "with": {},
}

// Tokenize lowercases text, drops every rune that is not a letter, digit or
// whitespace, splits on whitespace and removes standalone stop words.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
