package profile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/detection"
)

func TestMarshalFieldNames(t *testing.T) {
	p := New("en")
	p.Add("b")
	p.Add("a")
	p.Add("ab")

	data, err := Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"en","n_words":[2,1,0],"freq":{"a":1,"b":1,"ab":1}}`, string(data))

	// keys are sorted, so the encoding is stable
	again, err := Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestDecodeEncode(t *testing.T) {
	in := `{"name":"fr","n_words":[3,2,1],"freq":{"é":2,"e":1,"le":2,"le ":1}}`
	p, err := Decode(bytes.NewBufferString(in))
	require.NoError(t, err)
	assert.Equal(t, "fr", p.Name)
	assert.Equal(t, [3]int{3, 2, 1}, p.NGramCounts)
	assert.Equal(t, 2, p.Freq["é"])

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, p))
	assert.JSONEq(t, in, buf.String())
}

func TestUnmarshalMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"name":`},
		{"missing name", `{"n_words":[1,0,0],"freq":{"a":1}}`},
		{"short n_words", `{"name":"en","n_words":[1,0],"freq":{"a":1}}`},
		{"negative total", `{"name":"en","n_words":[-1,0,0],"freq":{}}`},
		{"long gram", `{"name":"en","n_words":[0,0,0],"freq":{"abcd":1}}`},
		{"empty gram", `{"name":"en","n_words":[0,0,0],"freq":{"":1}}`},
		{"negative count", `{"name":"en","n_words":[1,0,0],"freq":{"a":-1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, detection.ErrConfiguration)
		})
	}
}
