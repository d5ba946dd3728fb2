package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ctx := ContextWithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	})

	t.Run("missing value yields empty string", func(t *testing.T) {
		assert.Equal(t, "", RequestIDFromContext(context.Background()))
	})
}

func TestWithResolutionContext(t *testing.T) {
	t.Run("includes request id when set", func(t *testing.T) {
		var buf bytes.Buffer
		log := WithResolutionContext(zerolog.New(&buf), "req-123", "10.1101/x", "biorxiv")

		log.Info().Msg("test")

		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
		assert.Contains(t, buf.String(), `"preprint_doi":"10.1101/x"`)
		assert.Contains(t, buf.String(), `"server":"biorxiv"`)
	})

	t.Run("omits blank request id", func(t *testing.T) {
		var buf bytes.Buffer
		log := WithResolutionContext(zerolog.New(&buf), "", "10.1101/x", "other")

		log.Info().Msg("test")

		assert.NotContains(t, buf.String(), "request_id")
	})
}
