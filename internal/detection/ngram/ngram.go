// Package ngram extracts the character 1-, 2- and 3-grams used as detection features.
package ngram

import (
	"strings"
	"unicode"

	"langpredict/internal/detection/normalize"
)

// MaxLen is the longest n-gram produced.
const MaxLen = 3

const pad = string(normalize.Space)

// Generate normalizes text, splits it into words on the separator and returns
// the word-boundary n-grams of every word, in order. Words of three or more
// runes written entirely in upper case are treated as acronyms and skipped.
func Generate(text string) []string {
	normalized := normalize.String(text)
	var grams []string
	for _, word := range strings.Split(normalized, pad) {
		w := []rune(word)
		if len(w) >= 3 && allUpper(w) {
			continue
		}
		grams = appendWordGrams(grams, w)
	}
	return grams
}

func allUpper(w []rune) bool {
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func appendWordGrams(grams []string, w []rune) []string {
	n := len(w)
	switch n {
	case 0:
		return grams
	case 1:
		s := string(w)
		return append(grams, s, pad+s, s+pad, pad+s+pad)
	case 2:
		a, b, s := string(w[0]), string(w[1]), string(w)
		return append(grams, a, b, pad+a, b+pad, s, pad+s, s+pad)
	case 3:
		a, b, c := string(w[0]), string(w[1]), string(w[2])
		return append(grams,
			a, b, c,
			pad+a, string(w[0:2]), string(w[1:3]), c+pad,
			pad+string(w[0:2]), string(w), string(w[1:3])+pad,
		)
	}

	for end := 3; end <= n; end++ {
		grams = append(grams,
			string(w[end-1:end]),
			string(w[end-2:end]),
			string(w[end-3:end]),
		)
	}
	return append(grams,
		string(w[0]), string(w[1]), string(w[0:2]),
		pad+string(w[0]), pad+string(w[0:2]),
		string(w[n-1])+pad, string(w[n-2:])+pad,
	)
}
