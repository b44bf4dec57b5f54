package profile

import (
	"io"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"langpredict/internal/detection"
	"langpredict/internal/detection/ngram"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// document is the exchange format shared with other implementations:
//
//	{"name": "en", "n_words": [n1, n2, n3], "freq": {"gram": count, ...}}
type document struct {
	Name   string         `json:"name"`
	NWords []int          `json:"n_words"`
	Freq   map[string]int `json:"freq"`
}

// Marshal encodes p in the exchange format. Map keys are sorted, so equal
// profiles encode to equal bytes.
func Marshal(p *Profile) ([]byte, error) {
	return json.Marshal(toDocument(p))
}

// Encode writes p to w in the exchange format.
func Encode(w io.Writer, p *Profile) error {
	if err := json.NewEncoder(w).Encode(toDocument(p)); err != nil {
		return detection.WrapIO(err, "failed to write profile %s", p.Name)
	}
	return nil
}

// Unmarshal decodes one profile document.
func Unmarshal(data []byte) (*Profile, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, detection.WrapConfig(err, "malformed profile")
	}
	return fromDocument(doc)
}

// Decode reads one profile document from r.
func Decode(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, detection.WrapIO(err, "failed to read profile")
	}
	return Unmarshal(data)
}

func toDocument(p *Profile) document {
	freq := p.Freq
	if freq == nil {
		freq = map[string]int{}
	}
	return document{
		Name:   p.Name,
		NWords: p.NGramCounts[:],
		Freq:   freq,
	}
}

func fromDocument(doc document) (*Profile, error) {
	if doc.Name == "" {
		return nil, detection.ConfigError("malformed profile: missing name")
	}
	if len(doc.NWords) != ngram.MaxLen {
		return nil, detection.ConfigError("malformed profile %s: n_words has %d entries, want %d",
			doc.Name, len(doc.NWords), ngram.MaxLen)
	}

	p := New(doc.Name)
	for i, n := range doc.NWords {
		if n < 0 {
			return nil, detection.ConfigError("malformed profile %s: negative n_words[%d]", doc.Name, i)
		}
		p.NGramCounts[i] = n
	}
	for gram, count := range doc.Freq {
		if n := utf8.RuneCountInString(gram); n < 1 || n > ngram.MaxLen {
			return nil, detection.ConfigError("malformed profile %s: n-gram %q has length %d", doc.Name, gram, n)
		}
		if count < 0 {
			return nil, detection.ConfigError("malformed profile %s: negative count for %q", doc.Name, gram)
		}
		p.Freq[gram] = count
	}
	return p, nil
}
