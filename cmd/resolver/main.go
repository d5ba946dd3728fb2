// Package main provides a CLI tool for resolving a single preprint DOI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/preprint-resolver/internal/config"
	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/embedding"
	"github.com/helixir/preprint-resolver/internal/match"
	"github.com/helixir/preprint-resolver/internal/observability"
	"github.com/helixir/preprint-resolver/internal/resolver"
	"github.com/helixir/preprint-resolver/internal/sources/biorxiv"
	"github.com/helixir/preprint-resolver/internal/sources/crossref"
	"github.com/helixir/preprint-resolver/internal/sources/pubmed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Define CLI flags.
	doi := flag.String("doi", "", "DOI of the preprint to resolve (required)")
	server := flag.String("server", "other", "Preprint server: biorxiv, medrxiv, or other")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall resolution timeout")
	flag.Parse()

	if *doi == "" {
		flag.Usage()
		return fmt.Errorf("no preprint DOI specified")
	}

	// Load configuration (source settings from env/config file).
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging with console output for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stderr",
		AddSource:  false,
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "resolver-cli").Logger()

	// Metrics are not exposed from a one-shot run.
	res, err := buildResolver(cfg, logger, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	outcome, err := res.Resolve(ctx, *doi, *server)

	// An unavailable outcome still arrives with a terminal status; print
	// it before reporting the cause through the exit path.
	printOutcome(os.Stdout, *doi, outcome)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", *doi, err)
	}
	return nil
}

// buildResolver wires the external source clients, the embedding-backed
// similarity scorer, and the author matcher into a Resolver.
func buildResolver(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*resolver.Resolver, error) {
	biorxivClient := biorxiv.New(biorxiv.Config{
		BaseURL:   cfg.BioRxiv.BaseURL,
		Timeout:   cfg.BioRxiv.Timeout,
		RateLimit: cfg.BioRxiv.RateLimit,
	})

	crossrefClient := crossref.New(crossref.Config{
		BaseURL:   cfg.Crossref.BaseURL,
		MailTo:    cfg.Crossref.MailTo,
		Timeout:   cfg.Crossref.Timeout,
		RateLimit: cfg.Crossref.RateLimit,
	})

	pubmedClient := pubmed.New(pubmed.Config{
		BaseURL:   cfg.PubMed.BaseURL,
		APIKey:    cfg.PubMed.APIKey,
		Email:     cfg.PubMed.Email,
		Timeout:   cfg.PubMed.Timeout,
		RateLimit: cfg.PubMed.RateLimit,
		RetMax:    cfg.Resolver.RetMax,
	})

	provider := embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Embedding.BaseURL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithTimeout(cfg.Embedding.Timeout),
	)

	stopwords := match.DefaultStopwords()
	if cfg.Resolver.StopwordFile != "" {
		var err error
		stopwords, err = match.LoadStopwords(cfg.Resolver.StopwordFile)
		if err != nil {
			return nil, fmt.Errorf("load stopword file: %w", err)
		}
	}

	return resolver.New(
		biorxivClient,
		crossrefClient,
		pubmedClient,
		match.NewScorer(provider, stopwords),
		match.NewMatcher(match.FormatFullName),
		stopwords,
		resolver.Config{RetMax: cfg.Resolver.RetMax},
		logger,
		metrics,
	), nil
}

func printOutcome(w io.Writer, doi string, o domain.Outcome) {
	fmt.Fprintf(w, "preprint: %s\n", doi)
	fmt.Fprintf(w, "status:   %s\n", o.Status)
	if o.Status != domain.StatusFound {
		return
	}
	fmt.Fprintf(w, "locator:  %s\n", o.Locator)
	fmt.Fprintf(w, "via:      %s\n", o.Via)
	if o.Via == domain.ViaPre2Pub {
		fmt.Fprintf(w, "score:    %.4f\n", o.Score)
	}
}
