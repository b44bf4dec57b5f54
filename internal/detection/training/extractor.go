// Package training builds language profiles from text corpora: Wikipedia
// abstract dumps and plain text files.
package training

import (
	"strings"
	"unicode/utf8"
)

// TagExtractor collects the character data of one XML element. Text of an
// element is kept only when it is longer than the threshold.
type TagExtractor struct {
	target    string
	threshold int

	inside bool
	buf    strings.Builder
	count  int
}

// NewTagExtractor creates an extractor for elements named target.
func NewTagExtractor(target string, threshold int) *TagExtractor {
	return &TagExtractor{target: target, threshold: threshold}
}

// Target returns the element name the extractor looks for.
func (e *TagExtractor) Target() string { return e.target }

// Count returns how many texts were extracted so far.
func (e *TagExtractor) Count() int { return e.count }

// Start notes the opening of an element.
func (e *TagExtractor) Start(name string) {
	if name == e.target {
		e.inside = true
		e.buf.Reset()
	}
}

// Text adds character data when inside the target element.
func (e *TagExtractor) Text(data []byte) {
	if e.inside {
		e.buf.Write(data)
	}
}

// End notes the closing of an element and returns the collected text if it
// is long enough.
func (e *TagExtractor) End(name string) (string, bool) {
	if name != e.target || !e.inside {
		return "", false
	}
	e.inside = false
	text := e.buf.String()
	e.buf.Reset()
	if utf8.RuneCountInString(text) <= e.threshold {
		return "", false
	}
	e.count++
	return text, true
}

// Reset clears the state and the counter.
func (e *TagExtractor) Reset() {
	e.inside = false
	e.buf.Reset()
	e.count = 0
}
