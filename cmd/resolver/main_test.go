package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/preprint-resolver/internal/domain"
)

func TestPrintOutcome(t *testing.T) {
	t.Run("found via matching prints locator and score", func(t *testing.T) {
		var buf bytes.Buffer
		outcome := domain.Found("https://doi.org/10.3390/jcm9020538", domain.ViaPre2Pub)
		outcome.Score = 0.97

		printOutcome(&buf, "10.1101/2020.07.25.20161844", outcome)

		out := buf.String()
		assert.Contains(t, out, "preprint: 10.1101/2020.07.25.20161844")
		assert.Contains(t, out, "status:   found")
		assert.Contains(t, out, "locator:  https://doi.org/10.3390/jcm9020538")
		assert.Contains(t, out, "via:      pre2pub")
		assert.Contains(t, out, "score:    0.9700")
	})

	t.Run("unavailable outcome still reports its status", func(t *testing.T) {
		var buf bytes.Buffer

		printOutcome(&buf, "10.1101/2020.07.25.20161844", domain.Unavailable())

		out := buf.String()
		assert.Contains(t, out, "status:   temporarily_unavailable")
		assert.NotContains(t, out, "locator:")
	})

	t.Run("not found prints no locator", func(t *testing.T) {
		var buf bytes.Buffer

		printOutcome(&buf, "10.1101/2024.01.02.573943", domain.NotFound())

		out := buf.String()
		assert.Contains(t, out, "status:   not_found")
		assert.NotContains(t, out, "locator:")
	})
}
