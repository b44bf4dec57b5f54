package normalize

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

const (
	// vietnameseBases are the letters that take a combining tone mark.
	vietnameseBases = "AEIOUYaeiouyÂÊÔâêôĂăƠơƯư"
	// vietnameseMarks are grave, acute, tilde, hook above and dot below.
	vietnameseMarks = "\u0300\u0301\u0303\u0309\u0323"
)

var (
	vietnamesePattern = regexp.MustCompile("([" + vietnameseBases + "])([" + vietnameseMarks + "])")
	vietnameseTable   = buildVietnameseTable()
)

// buildVietnameseTable precomputes the precomposed form of every base+mark pair.
func buildVietnameseTable() map[string]string {
	table := make(map[string]string, len(vietnameseBases)*len(vietnameseMarks))
	for _, base := range vietnameseBases {
		for _, mark := range vietnameseMarks {
			pair := string([]rune{base, mark})
			table[pair] = norm.NFC.String(pair)
		}
	}
	return table
}

// Vietnamese folds a base letter followed by a combining tone mark into the
// single precomposed rune. It runs before per-rune normalization so that
// decomposed and precomposed Vietnamese text produce the same n-grams.
func Vietnamese(s string) string {
	if !vietnamesePattern.MatchString(s) {
		return s
	}
	return vietnamesePattern.ReplaceAllStringFunc(s, func(pair string) string {
		if composed, ok := vietnameseTable[pair]; ok {
			return composed
		}
		return pair
	})
}
