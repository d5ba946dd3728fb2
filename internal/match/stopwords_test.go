package match

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStopwords(t *testing.T) {
	sw := DefaultStopwords()

	assert.True(t, sw.Contains("the"))
	assert.True(t, sw.Contains("The"))
	assert.True(t, sw.Contains("shouldn't"))
	assert.False(t, sw.Contains("protein"))
}

func TestStopwords_Strip(t *testing.T) {
	sw := DefaultStopwords()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "removes stopwords keeping original casing",
			input: "The Role of Mitochondria in Aging",
			want:  "Role Mitochondria Aging",
		},
		{
			name:  "no stopwords present",
			input: "Mitochondrial dynamics",
			want:  "Mitochondrial dynamics",
		},
		{
			name:  "only stopwords",
			input: "and or the",
			want:  "",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sw.Strip(tt.input))
		})
	}
}

func TestLoadStopwords(t *testing.T) {
	t.Run("loads custom list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stopwords.txt")
		require.NoError(t, os.WriteFile(path, []byte("foo\nbar\n\n"), 0o644))

		sw, err := LoadStopwords(path)
		require.NoError(t, err)

		assert.True(t, sw.Contains("foo"))
		assert.True(t, sw.Contains("bar"))
		assert.False(t, sw.Contains("the"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStopwords(filepath.Join(t.TempDir(), "absent.txt"))
		assert.Error(t, err)
	})
}
