package services

import (
	"bufio"
	"context"
	"io"
	"slices"
	"strings"

	"github.com/abadojack/whatlanggo"

	"langpredict/internal/detection"
	"langpredict/internal/domain/models"
	"langpredict/internal/textio"
	"langpredict/pkg/logger"
)

// Evaluator measures detection accuracy over labelled samples
type Evaluator struct {
	detection *DetectionService
	baseline  bool
	logger    *logger.Logger
}

// NewEvaluator creates an evaluator. With baseline set every sample is also
// run through whatlanggo and its agreement with the label is reported.
func NewEvaluator(svc *DetectionService, baseline bool, log *logger.Logger) *Evaluator {
	return &Evaluator{
		detection: svc,
		baseline:  baseline,
		logger:    log.WithComponent("evaluator"),
	}
}

// ReadSamples parses "lang<TAB>text" lines. Lines without a language before
// the first tab are skipped.
func ReadSamples(r io.Reader) ([]models.EvaluationSample, error) {
	var samples []models.EvaluationSample
	sc := bufio.NewScanner(textio.ToUTF8Reader(r))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lang, text, ok := strings.Cut(sc.Text(), "\t")
		if !ok || lang == "" {
			continue
		}
		samples = append(samples, models.EvaluationSample{Language: lang, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, detection.WrapIO(err, "failed to read samples")
	}
	return samples, nil
}

// Evaluate detects every sample and aggregates the outcome per labelled
// language. Languages are reported in sorted order.
func (e *Evaluator) Evaluate(ctx context.Context, samples []models.EvaluationSample) (*models.EvaluationReport, error) {
	byLang := make(map[string]*models.LanguageAccuracy)
	report := &models.EvaluationReport{BaselineUsed: e.baseline}

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		acc, ok := byLang[sample.Language]
		if !ok {
			acc = &models.LanguageAccuracy{Language: sample.Language, Detected: make(map[string]int)}
			byLang[sample.Language] = acc
		}
		acc.Total++
		report.Total++

		result, err := e.detection.Detect(ctx, &models.DetectionRequest{Text: sample.Text, NoCache: true})
		if err != nil {
			e.logger.Debug().Err(err).Str("language", sample.Language).Msg("sample failed")
			acc.Detected[detection.KindOf(err).String()]++
			report.Failed++
		} else {
			acc.Detected[result.Language]++
			if result.Language == sample.Language {
				acc.Correct++
				report.Correct++
			}
		}

		if e.baseline && baselineAgrees(sample) {
			acc.Baseline++
			report.BaselineTotal++
		}
	}

	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	for _, lang := range langs {
		acc := byLang[lang]
		acc.Accuracy = ratio(acc.Correct, acc.Total)
		report.Languages = append(report.Languages, *acc)
	}
	report.Accuracy = ratio(report.Correct, report.Total)

	e.logger.Info().
		Int("samples", report.Total).
		Int("correct", report.Correct).
		Float64("accuracy", report.Accuracy).
		Msg("evaluation completed")
	return report, nil
}

// baselineAgrees reports whether whatlanggo gives the sample's label. Labels
// with a region or script suffix such as zh-cn compare on the primary subtag.
func baselineAgrees(sample models.EvaluationSample) bool {
	primary, _, _ := strings.Cut(strings.ToLower(sample.Language), "-")
	info := whatlanggo.Detect(sample.Text)
	return info.Lang.Iso6391() == primary
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
