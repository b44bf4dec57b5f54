// Package textio turns text input of unknown encoding into UTF-8 before it
// reaches the detector or the profile trainer.
package textio

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// UTF8BOM is the utf-8 byte-order marker
var UTF8BOM = []byte{'\xef', '\xbb', '\xbf'}

const sniffLen = 2048

// ToUTF8Reader sniffs the start of rd and returns a reader producing UTF-8.
// Input that already is UTF-8, or whose encoding cannot be identified, passes
// through unchanged apart from a leading BOM.
func ToUTF8Reader(rd io.Reader) io.Reader {
	buf := make([]byte, sniffLen)
	n, err := readAtMost(rd, buf)
	head := removeBOM(buf[:n])
	if err != nil {
		return io.MultiReader(bytes.NewReader(head), rd)
	}

	label, err := DetectEncoding(head)
	if err != nil || label == "UTF-8" {
		return io.MultiReader(bytes.NewReader(head), rd)
	}

	encoding, _ := charset.Lookup(label)
	if encoding == nil {
		return io.MultiReader(bytes.NewReader(head), rd)
	}
	return transform.NewReader(io.MultiReader(bytes.NewReader(head), rd), encoding.NewDecoder())
}

// ToUTF8 converts content to a UTF-8 string.
func ToUTF8(content []byte) (string, error) {
	b, err := io.ReadAll(ToUTF8Reader(bytes.NewReader(content)))
	return string(b), err
}

// DetectEncoding guesses the charset label of content.
func DetectEncoding(content []byte) (string, error) {
	if utf8.Valid(trimIncompleteRune(content)) {
		return "UTF-8", nil
	}

	detectContent := content
	if len(content) < 1024 {
		// chardet needs some volume to be confident
		times := 1024/len(content) + 1
		detectContent = bytes.Repeat(content, times)
	}

	result, err := chardet.NewTextDetector().DetectBest(detectContent)
	if err != nil {
		return "", err
	}
	return result.Charset, nil
}

// trimIncompleteRune drops a rune cut off at the end of a sniffed buffer.
func trimIncompleteRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		start := len(b) - i
		if utf8.RuneStart(b[start]) {
			if !utf8.FullRune(b[start:]) {
				return b[:start]
			}
			break
		}
	}
	return b
}

func removeBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, UTF8BOM)
}

// readAtMost reads into buf until it is full or rd is exhausted.
func readAtMost(rd io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(rd, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}
