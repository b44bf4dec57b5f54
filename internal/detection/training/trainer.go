package training

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"langpredict/internal/detection"
	"langpredict/internal/detection/profile"
	"langpredict/internal/textio"
	"langpredict/pkg/logger"
)

// Wikipedia abstract dumps keep each article summary in an <abstract> element.
const (
	AbstractTag       = "abstract"
	AbstractMinLength = 100
)

// Trainer feeds corpora into language profiles.
type Trainer struct {
	logger *logger.Logger
}

// NewTrainer creates a new trainer
func NewTrainer(log *logger.Logger) *Trainer {
	return &Trainer{
		logger: log.WithComponent("trainer"),
	}
}

// FromWikipediaAbstract trains a profile for lang from an abstract dump. Files
// ending in .gz are decompressed on the fly.
func (t *Trainer) FromWikipediaAbstract(ctx context.Context, lang, path string) (*profile.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, detection.WrapIO(err, "failed to open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, detection.WrapIO(err, "failed to open gzip stream %s", path)
		}
		defer gz.Close()
		r = gz
	}

	p := profile.New(lang)
	n, err := t.ReadAbstracts(ctx, r, p)
	if err != nil {
		return nil, err
	}
	t.logger.Info().Str("language", lang).Str("file", path).Int("abstracts", n).Msg("trained profile from abstracts")
	return p, nil
}

// ReadAbstracts streams an abstract dump from r into p and returns the number
// of abstracts used.
func (t *Trainer) ReadAbstracts(ctx context.Context, r io.Reader, p *profile.Profile) (int, error) {
	ex := NewTagExtractor(AbstractTag, AbstractMinLength)
	dec := xml.NewDecoder(r)
	dec.Strict = false

	for {
		if err := ctx.Err(); err != nil {
			return ex.Count(), err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return ex.Count(), nil
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return ex.Count(), detection.WrapConfig(err, "invalid abstract XML")
			}
			return ex.Count(), detection.WrapIO(err, "failed to read abstracts")
		}

		switch el := tok.(type) {
		case xml.StartElement:
			ex.Start(el.Name.Local)
		case xml.CharData:
			ex.Text(el)
		case xml.EndElement:
			if text, ok := ex.End(el.Name.Local); ok {
				p.Update(text)
			}
		}
	}
}

// FromText trains a profile for lang from a plain text file, one document
// per line. The file encoding is detected.
func (t *Trainer) FromText(ctx context.Context, lang, path string) (*profile.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, detection.WrapIO(err, "failed to open %s", path)
	}
	defer f.Close()

	p := profile.New(lang)
	n, err := t.ReadText(ctx, f, p)
	if err != nil {
		return nil, err
	}
	t.logger.Info().Str("language", lang).Str("file", path).Int("lines", n).Msg("trained profile from text")
	return p, nil
}

// ReadText feeds every line of r into p and returns the number of lines read.
func (t *Trainer) ReadText(ctx context.Context, r io.Reader, p *profile.Profile) (int, error) {
	sc := bufio.NewScanner(textio.ToUTF8Reader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	n := 0
	for sc.Scan() {
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		p.Update(sc.Text())
		n++
	}
	if err := sc.Err(); err != nil {
		return n, detection.WrapIO(err, "failed to read text")
	}
	return n, nil
}
