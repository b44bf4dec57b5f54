package profile

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frenchCorpus = `Le chat dort sur le canapé pendant que les enfants jouent dans le jardin.
Nous avons mangé une tarte aux pommes et bu du café avec nos voisins.
La ville est calme le dimanche matin et les rues sont presque vides.`

func addN(p *Profile, gram string, n int) {
	for range n {
		p.Add(gram)
	}
}

// assertTotals checks that every length total equals the sum of its grams.
func assertTotals(t *testing.T, p *Profile) {
	t.Helper()
	var sums [3]int
	for gram, count := range p.Freq {
		sums[utf8.RuneCountInString(gram)-1] += count
	}
	assert.Equal(t, sums, p.NGramCounts)
}

func TestAdd(t *testing.T) {
	p := New("en")
	p.Add("a")
	p.Add("ab")
	p.Add("abc")
	p.Add("ab")
	p.Add("")     // ignored
	p.Add("abcd") // ignored

	assert.Equal(t, [3]int{1, 2, 1}, p.NGramCounts)
	assert.Equal(t, map[string]int{"a": 1, "ab": 2, "abc": 1}, p.Freq)
}

func TestUpdate(t *testing.T) {
	p := New("en")
	p.Update("ab")
	assert.Equal(t, [3]int{2, 3, 2}, p.NGramCounts)
	assert.Equal(t, 1, p.Freq[" ab"])
	assertTotals(t, p)

	// decomposed Vietnamese counts like precomposed
	a, b := New("vi"), New("vi")
	a.Update("Vi\u00EA\u0323t")
	b.Update("Vi\u1EC7t")
	assert.Equal(t, b.Freq, a.Freq)
}

func TestPruneRemovesRareGrams(t *testing.T) {
	p := New("en")
	addN(p, "a", 5)
	addN(p, "b", 1)
	addN(p, "ab", 3)
	addN(p, "xyz", 1)

	p.OmitLessFreq()

	assert.Equal(t, map[string]int{"a": 5, "ab": 3}, p.Freq)
	assert.Equal(t, [3]int{5, 3, 0}, p.NGramCounts)
	assertTotals(t, p)
}

func TestPruneDropsLatinNoiseFromNonLatinProfile(t *testing.T) {
	p := New("ja")
	addN(p, "あ", 10)
	addN(p, "a", 3)
	addN(p, "aあ", 3)

	p.OmitLessFreq()

	assert.Equal(t, map[string]int{"あ": 10}, p.Freq)
	assert.Equal(t, [3]int{10, 0, 0}, p.NGramCounts)
}

func TestPruneThresholdScalesWithCorpus(t *testing.T) {
	p := New("en")
	addN(p, "e", 300000)
	addN(p, "q", 3) // above the floor, below n_words[0]/100000

	p.Prune(DefaultPruneOptions())

	assert.NotContains(t, p.Freq, "q")
	assert.Equal(t, 300000, p.NGramCounts[0])
}

func TestPruneInvariantOnTrainedProfile(t *testing.T) {
	p := New("fr")
	for range 3 {
		p.Update(frenchCorpus)
	}
	p.OmitLessFreq()

	require.NotEmpty(t, p.Freq)
	assertTotals(t, p)
	for _, count := range p.Freq {
		assert.Greater(t, count, DefaultMinimumFreq)
	}
}

func TestPruneWithoutNameIsNoop(t *testing.T) {
	p := &Profile{Freq: map[string]int{"a": 1}, NGramCounts: [3]int{1, 0, 0}}
	p.OmitLessFreq()
	assert.Equal(t, 1, p.Freq["a"])
}
