package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Embed(t *testing.T) {
	t.Run("returns embedding vector", func(t *testing.T) {
		var gotModel, gotPrompt string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/embeddings", r.URL.Path)

			var req ollamaEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			gotModel = req.Model
			gotPrompt = req.Prompt

			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
		}))
		defer server.Close()

		provider := NewOllamaProvider(
			WithBaseURL(server.URL),
			WithModel("test-model"),
			WithDimensions(3),
		)

		emb, err := provider.Embed(context.Background(), "some abstract text")
		require.NoError(t, err)

		assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb.Vector)
		assert.Equal(t, "test-model", gotModel)
		assert.Equal(t, "some abstract text", gotPrompt)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2}})
		}))
		defer server.Close()

		provider := NewOllamaProvider(WithBaseURL(server.URL), WithDimensions(3))

		_, err := provider.Embed(context.Background(), "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected embedding dimensions")
	})

	t.Run("propagates server errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("model not loaded"))
		}))
		defer server.Close()

		provider := NewOllamaProvider(WithBaseURL(server.URL))

		_, err := provider.Embed(context.Background(), "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestNewOllamaProvider_defaults(t *testing.T) {
	provider := NewOllamaProvider()

	assert.Equal(t, DefaultModel, provider.ModelName())
	assert.Equal(t, DefaultDimensions, provider.Dimensions())
}
