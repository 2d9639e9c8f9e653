package embedding

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords filters common English words that add noise to similarity.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "for": {}, "with": {}, "you": {},
	"are": {}, "have": {}, "will": {}, "this": {}, "that": {}, "from": {},
	"our": {}, "your": {}, "their": {}, "they": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "is": {}, "be": {}, "we": {}, "as": {},
	"or": {}, "by": {}, "it": {}, "its": {}, "was": {}, "were": {}, "been": {},
	"can": {}, "not": {}, "but": {}, "all": {}, "also": {}, "more": {},
	"than": {}, "into": {}, "has": {}, "who": {}, "what": {}, "which": {},
	"must": {}, "looking": {}, "join": {}, "us": {}, "i": {}, "am": {},
	"my": {}, "me": {},
}

// Tokenize splits text into lowercase terms, dropping stop words and
// single-character tokens. Tech suffixes like "c++", "c#" and "node.js"
// survive because + # . count as word characters.
func Tokenize(text string) []string {
	var (
		out  []string
		word strings.Builder
	)
	flush := func() {
		w := strings.Trim(word.String(), ".")
		word.Reset()
		if utf8.RuneCountInString(w) < 2 {
			return
		}
		if _, stop := stopWords[w]; stop {
			return
		}
		out = append(out, w)
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
