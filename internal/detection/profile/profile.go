// Package profile holds per-language n-gram frequency profiles, their training
// and pruning, the JSON exchange codec and the merged lookup Set used by the
// detector.
package profile

import (
	"unicode/utf8"

	"langpredict/internal/detection/ngram"
	"langpredict/internal/detection/normalize"
)

// Pruning defaults.
const (
	DefaultMinimumFreq   = 2
	DefaultLessFreqRatio = 100000
)

// Profile is the n-gram frequency table of one language.
type Profile struct {
	Name string
	// NGramCounts[n-1] is the total number of n-grams of length n that were added.
	NGramCounts [ngram.MaxLen]int
	Freq        map[string]int
}

// New returns an empty profile for lang.
func New(lang string) *Profile {
	return &Profile{
		Name: lang,
		Freq: make(map[string]int),
	}
}

// Add counts one occurrence of gram. Grams outside 1..3 runes are ignored.
func (p *Profile) Add(gram string) {
	n := utf8.RuneCountInString(gram)
	if n < 1 || n > ngram.MaxLen {
		return
	}
	if p.Freq == nil {
		p.Freq = make(map[string]int)
	}
	p.NGramCounts[n-1]++
	p.Freq[gram]++
}

// Update adds every n-gram of text.
func (p *Profile) Update(text string) {
	for _, gram := range ngram.Generate(normalize.Vietnamese(text)) {
		p.Add(gram)
	}
}

// PruneOptions tunes OmitLessFreq.
type PruneOptions struct {
	// MinimumFreq is the floor of the removal threshold.
	MinimumFreq int
	// LessFreqRatio divides the unigram total to get the removal threshold.
	LessFreqRatio int
}

// DefaultPruneOptions returns the standard pruning parameters.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{MinimumFreq: DefaultMinimumFreq, LessFreqRatio: DefaultLessFreqRatio}
}

// OmitLessFreq prunes with the default options.
func (p *Profile) OmitLessFreq() {
	p.Prune(DefaultPruneOptions())
}

// Prune removes rare n-grams and, when the profile is not predominantly written
// in Latin script, every n-gram containing a Latin letter. Totals are kept equal
// to the sum of the remaining counts.
func (p *Profile) Prune(opts PruneOptions) {
	if p.Name == "" {
		return
	}
	if opts.LessFreqRatio <= 0 {
		opts.LessFreqRatio = DefaultLessFreqRatio
	}

	threshold := max(p.NGramCounts[0]/opts.LessFreqRatio, opts.MinimumFreq)

	roman := 0
	for gram, count := range p.Freq {
		if count <= threshold {
			p.remove(gram, count)
			continue
		}
		if isRomanLetter(gram) {
			roman += count
		}
	}

	// Latin noise in a non-Latin profile (quotes, code, names) is dropped.
	if roman < p.NGramCounts[0]/3 {
		for gram, count := range p.Freq {
			if containsRoman(gram) {
				p.remove(gram, count)
			}
		}
	}
}

func (p *Profile) remove(gram string, count int) {
	if n := utf8.RuneCountInString(gram); n >= 1 && n <= ngram.MaxLen {
		p.NGramCounts[n-1] -= count
	}
	delete(p.Freq, gram)
}

func isRoman(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isRomanLetter(gram string) bool {
	r, size := utf8.DecodeRuneInString(gram)
	return size == len(gram) && isRoman(r)
}

func containsRoman(gram string) bool {
	for _, r := range gram {
		if isRoman(r) {
			return true
		}
	}
	return false
}

// Summary describes a profile without its frequency table.
type Summary struct {
	Name        string
	NGramCounts [ngram.MaxLen]int
	Vocabulary  int
}

// Summary returns the profile's totals and vocabulary size.
func (p *Profile) Summary() Summary {
	return Summary{Name: p.Name, NGramCounts: p.NGramCounts, Vocabulary: len(p.Freq)}
}
