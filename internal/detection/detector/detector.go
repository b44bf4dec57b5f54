// Package detector identifies the language of a text against a profile.Set.
//
// A Detector is a single-use session: text is appended, then Probabilities or
// Detect scores it once and memoizes the result. Scoring runs several
// randomized trials. Each trial samples the text's n-grams with replacement and
// multiplies a per-language probability vector by the smoothed n-gram
// probabilities until one language dominates or the iteration cap is hit. The
// trial vectors are averaged.
//
// Detectors are not safe for concurrent use. Build one per request; the Set
// they share is read-only.
package detector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"

	"langpredict/internal/detection"
	"langpredict/internal/detection/ngram"
	"langpredict/internal/detection/normalize"
	"langpredict/internal/detection/profile"
	"langpredict/pkg/logger"
)

const (
	DefaultAlpha         = 0.5
	DefaultMaxTextLength = 10000
	// UnknownLanguage is reported when no language clears the threshold.
	UnknownLanguage = "unknown"

	alphaWidth     = 0.05
	// minTrialAlpha keeps the per-trial smoothing positive, so no factor in
	// updateLangProb can be zero or negative.
	minTrialAlpha  = alphaWidth / 10
	iterationLimit = 1000
	probThreshold  = 0.1
	convThreshold  = 0.99999
	baseFreq       = 10000
	numTrials      = 7
	checkInterval  = 5
)

var (
	urlPattern  = regexp.MustCompile(`https?://[-_.?&~;+=/#0-9A-Za-z]+`)
	mailPattern = regexp.MustCompile(`[-_.0-9A-Za-z]{1,64}@[-_0-9A-Za-z]{1,255}[-_.0-9A-Za-z]{1,255}`)
)

// Language is a language and its probability.
type Language struct {
	Lang string  `json:"lang"`
	Prob float64 `json:"prob"`
}

func (l Language) String() string {
	return fmt.Sprintf("%s:%g", l.Lang, l.Prob)
}

// Detector scores one text.
type Detector struct {
	set           *profile.Set
	alpha         float64
	maxTextLength int
	prior         []float64
	seed          int64
	seeded        bool
	verbose       bool
	logger        *logger.Logger

	rng  *rand.Rand
	text []rune

	scored   bool
	langProb []float64
	err      error
}

// Option configures a Detector.
type Option func(*Detector) error

// WithAlpha sets the smoothing parameter.
func WithAlpha(alpha float64) Option {
	return func(d *Detector) error {
		if alpha < 0 {
			return detection.ConfigError("alpha must not be negative, got %g", alpha)
		}
		d.alpha = alpha
		return nil
	}
}

// WithMaxTextLength caps the number of runes kept from appended text.
func WithMaxTextLength(n int) Option {
	return func(d *Detector) error {
		if n <= 0 {
			return detection.ConfigError("max text length must be positive, got %d", n)
		}
		d.maxTextLength = n
		return nil
	}
}

// WithPrior sets prior language probabilities. Weights must be non-negative
// and at least one language of the set must get a positive weight. Languages
// unknown to the set are ignored. The vector is normalized.
func WithPrior(prior map[string]float64) Option {
	return func(d *Detector) error {
		if len(prior) == 0 {
			d.prior = nil
			return nil
		}
		vec := make([]float64, d.set.Len())
		var sum float64
		for lang, p := range prior {
			if p < 0 {
				return detection.ConfigError("prior probability of %q must not be negative, got %g", lang, p)
			}
			if i, ok := d.set.Index(lang); ok {
				vec[i] = p
				sum += p
			}
		}
		if sum <= 0 {
			return detection.ConfigError("prior assigns no positive weight to a known language")
		}
		for i := range vec {
			vec[i] /= sum
		}
		d.prior = vec
		return nil
	}
}

// WithSeed overrides the set's seed for this detector.
func WithSeed(seed int64) Option {
	return func(d *Detector) error {
		d.seed = seed
		d.seeded = true
		return nil
	}
}

// WithVerbose logs per-gram and per-trial probability snapshots at debug level.
func WithVerbose(verbose bool) Option {
	return func(d *Detector) error {
		d.verbose = verbose
		return nil
	}
}

// WithLogger sets the logger used for verbose output.
func WithLogger(log *logger.Logger) Option {
	return func(d *Detector) error {
		if log != nil {
			d.logger = log.WithComponent("detector")
		}
		return nil
	}
}

// New creates a detector over set.
func New(set *profile.Set, opts ...Option) (*Detector, error) {
	if set == nil {
		return nil, detection.ConfigError("detector needs a profile set")
	}
	d := &Detector{
		set:           set,
		alpha:         DefaultAlpha,
		maxTextLength: DefaultMaxTextLength,
		logger:        logger.NewNop(),
	}
	d.seed, d.seeded = set.Seed()
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if d.seeded {
		s := uint64(d.seed)
		d.rng = rand.New(rand.NewPCG(s, s))
	} else {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return d, nil
}

// Append adds text to the buffer. URLs and e-mail addresses are blanked out and
// runs of spaces collapse to one. Text beyond the length cap is dropped.
func (d *Detector) Append(text string) error {
	if d.scored {
		return detection.ConfigError("detector already scored, create a new one")
	}

	text = urlPattern.ReplaceAllString(text, " ")
	text = mailPattern.ReplaceAllString(text, " ")
	text = normalize.Vietnamese(text)

	var prev rune
	if n := len(d.text); n > 0 {
		prev = d.text[n-1]
	}
	for _, r := range text {
		if len(d.text) >= d.maxTextLength {
			break
		}
		if r != ' ' || prev != ' ' {
			d.text = append(d.text, r)
		}
		prev = r
	}
	return nil
}

// AppendReader appends text read from r until EOF or the length cap.
func (d *Detector) AppendReader(r io.Reader) error {
	if d.scored {
		return detection.ConfigError("detector already scored, create a new one")
	}

	br := bufio.NewReader(r)
	var sb strings.Builder
	for n := len(d.text); n < d.maxTextLength; n++ {
		ch, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return detection.WrapIO(err, "failed to read text")
		}
		sb.WriteRune(ch)
	}
	return d.Append(sb.String())
}

// Detect returns the most probable language, or UnknownLanguage when none
// clears the reporting threshold.
func (d *Detector) Detect() (string, error) {
	probs, err := d.Probabilities()
	if err != nil {
		return "", err
	}
	if len(probs) > 0 {
		return probs[0].Lang, nil
	}
	return UnknownLanguage, nil
}

// Probabilities returns the languages whose probability exceeds 0.1, most
// probable first. The text is scored on the first call only.
func (d *Detector) Probabilities() ([]Language, error) {
	if !d.scored {
		d.scored = true
		d.langProb, d.err = d.detectBlock()
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.sortProbability(d.langProb), nil
}

type feature struct {
	gram string
	prob []float64
}

func (d *Detector) detectBlock() ([]float64, error) {
	d.cleanText()

	features := d.extractFeatures()
	if len(features) == 0 {
		return nil, detection.NoFeatures()
	}

	langProb := make([]float64, d.set.Len())
	trials := 0
	for trial := range numTrials {
		prob := d.initProbability()
		alpha := max(d.alpha+d.rng.NormFloat64()*alphaWidth, minTrialAlpha)

		collapsed := false
		for i := 0; ; i++ {
			f := features[d.rng.IntN(len(features))]
			d.updateLangProb(prob, f, alpha)
			if i%checkInterval == 0 {
				maxp := normalizeProb(prob)
				if maxp == 0 {
					collapsed = true
					break
				}
				if maxp > convThreshold || i >= iterationLimit {
					break
				}
				if d.verbose {
					d.logger.Debug().Str("gram", f.gram).Str("probabilities", d.snapshot(prob)).Msg("iteration")
				}
			}
		}

		if collapsed {
			d.logger.Debug().Int("trial", trial).Float64("alpha", alpha).Msg("trial underflowed, discarded")
			continue
		}
		trials++
		for j := range langProb {
			langProb[j] += prob[j]
		}
		if d.verbose {
			d.logger.Debug().Int("trial", trial).Float64("alpha", alpha).Str("probabilities", d.snapshot(prob)).Msg("trial done")
		}
	}
	if trials > 0 {
		for j := range langProb {
			langProb[j] /= float64(trials)
		}
	}
	return langProb, nil
}

// cleanText drops Latin letters from text that is mostly written in another
// script, so embedded names and acronyms do not dominate.
func (d *Detector) cleanText() {
	latin, nonLatin := 0, 0
	for _, r := range d.text {
		if r >= 'A' && r <= 'z' {
			latin++
		} else if r >= 0x0300 && !normalize.IsLatinExtendedAdditional(r) {
			nonLatin++
		}
	}
	if latin*2 >= nonLatin {
		return
	}
	d.text = slices.DeleteFunc(d.text, func(r rune) bool {
		return r >= 'A' && r <= 'z'
	})
}

func (d *Detector) extractFeatures() []feature {
	var features []feature
	for _, gram := range ngram.Generate(string(d.text)) {
		if prob, ok := d.set.Lookup(gram); ok {
			features = append(features, feature{gram: gram, prob: prob})
		}
	}
	return features
}

func (d *Detector) initProbability() []float64 {
	if d.prior != nil {
		return slices.Clone(d.prior)
	}
	prob := make([]float64, d.set.Len())
	for i := range prob {
		prob[i] = 1.0 / float64(len(prob))
	}
	return prob
}

func (d *Detector) updateLangProb(prob []float64, f feature, alpha float64) {
	weight := alpha / baseFreq
	for i := range prob {
		prob[i] *= weight + f.prob[i]
	}
}

// normalizeProb scales prob to sum to one and returns its largest entry.
func normalizeProb(prob []float64) float64 {
	var sum, maxp float64
	for _, p := range prob {
		sum += p
	}
	if sum == 0 {
		return 0
	}
	for i := range prob {
		prob[i] /= sum
		maxp = max(maxp, prob[i])
	}
	return maxp
}

func (d *Detector) sortProbability(prob []float64) []Language {
	langs := d.set.Languages()
	var list []Language
	for i, p := range prob {
		if p > probThreshold {
			list = append(list, Language{Lang: langs[i], Prob: p})
		}
	}
	slices.SortStableFunc(list, func(a, b Language) int {
		switch {
		case a.Prob > b.Prob:
			return -1
		case a.Prob < b.Prob:
			return 1
		}
		return 0
	})
	return list
}

func (d *Detector) snapshot(prob []float64) string {
	langs := d.set.Languages()
	var sb strings.Builder
	for i, p := range prob {
		if p > 0.00001 {
			fmt.Fprintf(&sb, " %s:%.5f", langs[i], p)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Detect is a shortcut that scores text with a fresh detector.
func Detect(set *profile.Set, text string, opts ...Option) (string, error) {
	d, err := New(set, opts...)
	if err != nil {
		return "", err
	}
	if err := d.Append(text); err != nil {
		return "", err
	}
	return d.Detect()
}
