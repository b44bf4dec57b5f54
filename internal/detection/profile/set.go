package profile

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"slices"
	"unicode/utf8"

	"langpredict/internal/detection"
	"langpredict/internal/detection/ngram"
)

// MinProfiles is the smallest number of profiles a Set accepts.
const MinProfiles = 2

// Set merges several profiles into one lookup table from n-gram to a vector of
// per-language probabilities. Slot i of every vector belongs to Languages()[i].
// A Set is immutable once built and safe for concurrent use.
type Set struct {
	langs       []string
	index       map[string]int
	probs       map[string][]float64
	summaries   []Summary
	seed        int64
	seeded      bool
	fingerprint string
}

// SetOption configures a Set.
type SetOption func(*Set)

// WithSeed makes every detector built on the set reproducible.
func WithSeed(seed int64) SetOption {
	return func(s *Set) {
		s.seed = seed
		s.seeded = true
	}
}

// NewSet builds a Set from profiles, in order. It fails when fewer than
// MinProfiles are given, when a name repeats, or when a profile's totals
// cannot back its frequencies.
func NewSet(profiles []*Profile, opts ...SetOption) (*Set, error) {
	if len(profiles) < MinProfiles {
		return nil, detection.ConfigError("need at least %d profiles, got %d", MinProfiles, len(profiles))
	}

	s := &Set{
		langs:     make([]string, 0, len(profiles)),
		index:     make(map[string]int, len(profiles)),
		probs:     make(map[string][]float64),
		summaries: make([]Summary, 0, len(profiles)),
	}
	for _, opt := range opts {
		opt(s)
	}

	h := sha256.New()
	for i, p := range profiles {
		if p == nil || p.Name == "" {
			return nil, detection.ConfigError("profile %d has no name", i)
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, detection.ConfigError("duplicate profile %q", p.Name)
		}
		s.index[p.Name] = i
		s.langs = append(s.langs, p.Name)
		s.summaries = append(s.summaries, p.Summary())
		if err := s.addProfile(i, len(profiles), p); err != nil {
			return nil, err
		}

		h.Write([]byte(p.Name))
		for _, n := range p.NGramCounts {
			_ = binary.Write(h, binary.LittleEndian, int64(n))
		}
		_ = binary.Write(h, binary.LittleEndian, int64(len(p.Freq)))
	}
	s.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	return s, nil
}

func (s *Set) addProfile(slot, size int, p *Profile) error {
	for gram, count := range p.Freq {
		n := utf8.RuneCountInString(gram)
		if n < 1 || n > ngram.MaxLen {
			continue
		}
		total := p.NGramCounts[n-1]
		if total <= 0 {
			if count == 0 {
				continue
			}
			return detection.ConfigError("profile %q: n-gram %q counted but n_words[%d] is %d", p.Name, gram, n-1, total)
		}
		vec, ok := s.probs[gram]
		if !ok {
			vec = make([]float64, size)
			s.probs[gram] = vec
		}
		vec[slot] = float64(count) / float64(total)
	}
	return nil
}

// Languages returns the language names in slot order.
func (s *Set) Languages() []string {
	return slices.Clone(s.langs)
}

// Len returns the number of languages.
func (s *Set) Len() int { return len(s.langs) }

// Index returns the slot of lang.
func (s *Set) Index(lang string) (int, bool) {
	i, ok := s.index[lang]
	return i, ok
}

// Lookup returns the probability vector of gram. The returned slice is shared
// and must not be modified.
func (s *Set) Lookup(gram string) ([]float64, bool) {
	vec, ok := s.probs[gram]
	return vec, ok
}

// Vocabulary returns the number of distinct n-grams known to the set.
func (s *Set) Vocabulary() int { return len(s.probs) }

// Seed returns the seed detectors built on this set use, if any.
func (s *Set) Seed() (int64, bool) { return s.seed, s.seeded }

// Summaries describes the profiles the set was built from, in slot order.
func (s *Set) Summaries() []Summary {
	return slices.Clone(s.summaries)
}

// Fingerprint identifies the profile contents. Two sets built from the same
// profiles in the same order share a fingerprint.
func (s *Set) Fingerprint() string { return s.fingerprint }
