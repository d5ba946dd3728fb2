package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/preprint-resolver/internal/embedding"
)

// fakeProvider returns canned vectors keyed by the cleaned text it
// receives, and records every call.
type fakeProvider struct {
	vectors map[string][]float32
	calls   []string
}

func (f *fakeProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	f.calls = append(f.calls, text)
	vec, ok := f.vectors[text]
	if !ok {
		return embedding.Embedding{}, fmt.Errorf("no canned vector for %q", text)
	}
	return embedding.Embedding{Vector: vec}, nil
}

func (f *fakeProvider) ModelName() string { return "fake" }
func (f *fakeProvider) Dimensions() int   { return 3 }

func TestScorer_Score(t *testing.T) {
	t.Run("identical texts score 1", func(t *testing.T) {
		provider := &fakeProvider{vectors: map[string][]float32{
			"adverse drug reactions patients": {1, 0, 0},
		}}
		scorer := NewScorer(provider, DefaultStopwords())

		score, err := scorer.Score(context.Background(),
			"Adverse drug reactions in the patients.",
			"adverse drug reactions of patients")
		require.NoError(t, err)

		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("orthogonal texts score 0", func(t *testing.T) {
		provider := &fakeProvider{vectors: map[string][]float32{
			"drug safety": {1, 0, 0},
			"protein folding": {0, 1, 0},
		}}
		scorer := NewScorer(provider, DefaultStopwords())

		score, err := scorer.Score(context.Background(), "drug safety", "protein folding")
		require.NoError(t, err)

		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("empty text scores 0 without embedding", func(t *testing.T) {
		provider := &fakeProvider{vectors: map[string][]float32{}}
		scorer := NewScorer(provider, DefaultStopwords())

		score, err := scorer.Score(context.Background(), "", "some real abstract text")
		require.NoError(t, err)

		assert.Zero(t, score)
		assert.Empty(t, provider.calls)
	})

	t.Run("text of only stopwords scores 0 without embedding", func(t *testing.T) {
		provider := &fakeProvider{vectors: map[string][]float32{}}
		scorer := NewScorer(provider, DefaultStopwords())

		score, err := scorer.Score(context.Background(), "the of and", "some real abstract text")
		require.NoError(t, err)

		assert.Zero(t, score)
		assert.Empty(t, provider.calls)
	})
}

func TestScorer_clean(t *testing.T) {
	scorer := NewScorer(nil, DefaultStopwords())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and drops stopwords",
			input: "The Adverse Drug Reactions in Patients",
			want:  "adverse drug reactions patients",
		},
		{
			name:  "strips non-letter characters",
			input: "COVID-19 outcomes (n=112)",
			want:  "covid outcomes n",
		},
		{
			name:  "drops trailing period",
			input: "protein folding.",
			want:  "protein folding",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.clean(tt.input))
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
