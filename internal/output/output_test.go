package output

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" yaml:"name"`
	Items []string `json:"items" yaml:"items"`
}

func TestDefaultRegistry_Formats(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{"json", "yaml"}, r.Formats())
	assert.Equal(t, "json, yaml", r.AvailableFormats())
}

func TestRegistry_Encoder(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "yaml", want: "name: a\nitems:\n  - lint\n  - test\n"},
		{format: "json", want: "{\n  \"name\": \"a\",\n  \"items\": [\n    \"lint\",\n    \"test\"\n  ]\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := DefaultRegistry().Encoder(tt.format)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, enc(&buf, sample{Name: "a", Items: []string{"lint", "test"}}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRegistry_UnknownFormat(t *testing.T) {
	_, err := DefaultRegistry().Encoder("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
	assert.Contains(t, err.Error(), "json, yaml")
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()

	assert.Empty(t, r.Formats())
	assert.Equal(t, "none", r.AvailableFormats())
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register("raw", func(io.Writer, any) error { return errors.New("first") })
	r.Register("raw", func(w io.Writer, _ any) error {
		_, err := io.WriteString(w, "second")
		return err
	})

	enc, err := r.Encoder("raw")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc(&buf, nil))
	assert.Equal(t, "second", buf.String())
}
