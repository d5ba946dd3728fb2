package match

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/helixir/preprint-resolver/internal/embedding"
)

// Scorer computes semantic similarity between two texts by embedding
// their cleaned forms and taking the cosine of the resulting vectors.
type Scorer struct {
	provider  embedding.Provider
	stopwords *Stopwords
}

// NewScorer creates a Scorer backed by the given embedding provider.
func NewScorer(provider embedding.Provider, stopwords *Stopwords) *Scorer {
	return &Scorer{
		provider:  provider,
		stopwords: stopwords,
	}
}

// Score returns the cosine similarity of the two texts in embedding
// space, in [−1, 1] with 1 meaning identical direction. Texts are
// lowercased, stripped of non-letter characters and stopwords before
// embedding. If either text cleans down to nothing the score is 0 and
// the provider is never called.
func (s *Scorer) Score(ctx context.Context, text1, text2 string) (float64, error) {
	clean1 := s.clean(text1)
	clean2 := s.clean(text2)
	if clean1 == "" || clean2 == "" {
		return 0, nil
	}

	emb1, err := s.provider.Embed(ctx, clean1)
	if err != nil {
		return 0, fmt.Errorf("embedding first text: %w", err)
	}

	emb2, err := s.provider.Embed(ctx, clean2)
	if err != nil {
		return 0, fmt.Errorf("embedding second text: %w", err)
	}

	return CosineSimilarity(emb1.Vector, emb2.Vector), nil
}

// clean normalizes a text for embedding: lowercase, drop a trailing
// period, map non-letter characters to spaces within each token, and
// drop tokens that reduce to stopwords.
func (s *Scorer) clean(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSuffix(text, ".")

	var kept []string
	for _, token := range strings.Fields(text) {
		mapped := strings.TrimSpace(lettersOnly(token))
		if mapped == "" || s.stopwords.Contains(mapped) {
			continue
		}
		kept = append(kept, mapped)
	}
	return strings.Join(kept, " ")
}

// lettersOnly replaces every non-letter rune with a space.
func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return ' '
	}, s)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero-length input.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}
