package training

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/detection"
	"langpredict/internal/detection/profile"
	"langpredict/pkg/logger"
)

var longAbstract = strings.Repeat("The village sits at the edge of the forest. ", 4)

func abstractDump(abstracts ...string) string {
	var sb strings.Builder
	sb.WriteString("<feed>\n")
	for i, a := range abstracts {
		sb.WriteString("<doc><title>Article ")
		sb.WriteString(string(rune('A' + i)))
		sb.WriteString("</title><abstract>")
		sb.WriteString(a)
		sb.WriteString("</abstract></doc>\n")
	}
	sb.WriteString("</feed>\n")
	return sb.String()
}

func TestTagExtractor(t *testing.T) {
	ex := NewTagExtractor("abstract", 5)
	ex.Start("title")
	ex.Text([]byte("ignored"))
	_, ok := ex.End("title")
	assert.False(t, ok)

	ex.Start("abstract")
	ex.Text([]byte("short"))
	_, ok = ex.End("abstract")
	assert.False(t, ok, "text must be longer than the threshold")

	ex.Start("abstract")
	ex.Text([]byte("long "))
	ex.Text([]byte("enough"))
	text, ok := ex.End("abstract")
	require.True(t, ok)
	assert.Equal(t, "long enough", text)
	assert.Equal(t, 1, ex.Count())

	ex.Reset()
	assert.Zero(t, ex.Count())
	assert.Equal(t, "abstract", ex.Target())
}

func TestReadAbstracts(t *testing.T) {
	tr := NewTrainer(logger.NewNop())
	p := profile.New("en")

	n, err := tr.ReadAbstracts(context.Background(), strings.NewReader(abstractDump(longAbstract, "Too short.", longAbstract)), p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Positive(t, p.Freq["the"])
	assert.Zero(t, p.Freq["Too"])
}

func TestReadAbstractsInvalidXML(t *testing.T) {
	tr := NewTrainer(logger.NewNop())
	_, err := tr.ReadAbstracts(context.Background(), strings.NewReader("<feed><doc><abstract>"+longAbstract), profile.New("en"))
	assert.ErrorIs(t, err, detection.ErrConfiguration)
}

func TestFromWikipediaAbstractGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enwiki-20240101-abstract.xml.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(abstractDump(longAbstract)))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	p, err := NewTrainer(logger.NewNop()).FromWikipediaAbstract(context.Background(), "en", path)
	require.NoError(t, err)
	assert.Equal(t, "en", p.Name)
	assert.Positive(t, p.NGramCounts[2])
}

func TestFromWikipediaAbstractMissingFile(t *testing.T) {
	_, err := NewTrainer(logger.NewNop()).FromWikipediaAbstract(context.Background(), "en", filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, detection.ErrIO)
}

func TestFromText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr.txt")
	require.NoError(t, os.WriteFile(path, []byte("le chat dort\nla ville est calme\n"), 0o644))

	p, err := NewTrainer(logger.NewNop()).FromText(context.Background(), "fr", path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Freq["le"]) // "le" and "ville"
	assert.Equal(t, 1, p.Freq[" ch"])
}

func TestReadTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTrainer(logger.NewNop()).ReadText(ctx, strings.NewReader("one\ntwo\n"), profile.New("en"))
	assert.ErrorIs(t, err, context.Canceled)
}
