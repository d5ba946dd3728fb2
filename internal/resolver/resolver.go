// Package resolver implements the staged resolution of a preprint DOI
// to its published journal article. Three stages run in order, each
// consulted only when the previous one found nothing: the preprint
// server's own publication link, the cross-reference relation map, and
// finally similarity-based matching against PubMed search results.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/observability"
	"github.com/helixir/preprint-resolver/internal/sources/crossref"
	"github.com/helixir/preprint-resolver/internal/sources/pubmed"
)

// Known preprint servers with a queryable publication-link API. Any
// other server name skips straight to the cross-reference stage.
const (
	ServerBioRxiv = "biorxiv"
	ServerMedRxiv = "medrxiv"
	ServerOther   = "other"
)

// ServerLookup asks a preprint server for its recorded publication DOI.
type ServerLookup interface {
	PublishedDOI(ctx context.Context, server, doi string) (string, error)
}

// WorkLookup retrieves the cross-reference metadata record for a DOI.
type WorkLookup interface {
	GetWork(ctx context.Context, doi string) (*crossref.Work, error)
}

// ArticleSearcher finds and fetches candidate journal articles.
type ArticleSearcher interface {
	SearchIDs(ctx context.Context, term string, retMax int) ([]string, error)
	FetchRecords(ctx context.Context, pmids []string) ([]pubmed.Record, error)
}

// Similarity scores the semantic closeness of two texts in [−1, 1].
type Similarity interface {
	Score(ctx context.Context, text1, text2 string) (float64, error)
}

// AuthorMatcher decides whether two author lists describe the same paper.
type AuthorMatcher interface {
	Match(preprintAuthors, articleAuthors []string) bool
}

// Stopwords strips stopword tokens from search queries.
type Stopwords interface {
	Strip(text string) string
}

// Config holds resolver tuning knobs.
type Config struct {
	// RetMax is the maximum number of candidate articles retrieved per
	// search.
	RetMax int
}

// Resolver runs the staged resolution.
type Resolver struct {
	servers    ServerLookup
	works      WorkLookup
	articles   ArticleSearcher
	similarity Similarity
	authors    AuthorMatcher
	stopwords  Stopwords
	config     Config
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// New creates a Resolver from its collaborators. Metrics may be nil.
func New(
	servers ServerLookup,
	works WorkLookup,
	articles ArticleSearcher,
	similarity Similarity,
	authors AuthorMatcher,
	stopwords Stopwords,
	cfg Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	if cfg.RetMax <= 0 {
		cfg.RetMax = 5
	}
	return &Resolver{
		servers:    servers,
		works:      works,
		articles:   articles,
		similarity: similarity,
		authors:    authors,
		stopwords:  stopwords,
		config:     cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Resolve attempts to find the published journal article for a preprint
// DOI. server names the preprint server ("biorxiv", "medrxiv", or
// anything else for servers without a publication-link API). The
// returned Outcome always carries a terminal status; the error is
// non-nil only alongside StatusUnavailable and explains what failed.
func (r *Resolver) Resolve(ctx context.Context, doi, server string) (domain.Outcome, error) {
	start := time.Now()
	r.metrics.RecordResolutionStarted()

	outcome, err := r.resolve(ctx, doi, strings.ToLower(server))

	r.metrics.RecordResolutionFinished(string(outcome.Status), string(outcome.Via), time.Since(start).Seconds())
	return outcome, err
}

func (r *Resolver) resolve(ctx context.Context, doi, server string) (domain.Outcome, error) {
	log := observability.WithResolutionContext(r.logger, observability.RequestIDFromContext(ctx), doi, server)

	// Stage 1: the preprint server's own publication link.
	if server == ServerBioRxiv || server == ServerMedRxiv {
		stageStart := time.Now()
		published, err := r.servers.PublishedDOI(ctx, server, doi)
		r.recordSource(server, "details", stageStart, err)
		switch {
		case err == nil:
			log.Info().Str("published_doi", published).Msg("publication link recorded by preprint server")
			return domain.Found(doiURL(published), domain.ViaServer), nil
		case errors.Is(err, domain.ErrNotFound):
			log.Debug().Msg("no publication link at preprint server")
		case errors.Is(err, domain.ErrServiceUnavailable):
			return domain.Unavailable(), err
		default:
			return domain.Unavailable(), err
		}
	}

	// Stage 2: the cross-reference relation map.
	stageStart := time.Now()
	work, err := r.works.GetWork(ctx, doi)
	r.recordSource("crossref", "works", stageStart, err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Info().Msg("preprint DOI not registered")
		return domain.NotFound(), nil
	case err != nil:
		return domain.Unavailable(), err
	}

	if published, ok := work.PublishedDOI(); ok {
		log.Info().Str("published_doi", published).Msg("publication link asserted in relation map")
		return domain.Found(doiURL(published), domain.ViaCrossref), nil
	}

	// Stage 3: similarity-based matching against PubMed.
	if strings.TrimSpace(work.Abstract) == "" {
		log.Info().Msg("preprint has no abstract, matching cannot run")
		return domain.MissingAbstract(), nil
	}

	posted, _ := work.PostedDate()
	preprint := domain.Preprint{
		DOI:        doi,
		Title:      work.PrimaryTitle(),
		Abstract:   work.CleanAbstract(),
		PostedDate: posted,
		Authors:    work.AuthorString(),
	}

	locator, score, found, err := r.matchInPubMed(ctx, log, preprint)
	if err != nil {
		return domain.Unavailable(), err
	}
	if !found {
		log.Info().Msg("no candidate met the similarity threshold")
		return domain.NotFound(), nil
	}

	log.Info().Str("locator", locator).Float64("similarity", score).Msg("publication found by matching")
	outcome := domain.Found(locator, domain.ViaPre2Pub)
	outcome.Score = score
	return outcome, nil
}

// recordSource records one external source call in the metrics. Not-found
// answers are successful requests, not failures.
func (r *Resolver) recordSource(source, endpoint string, start time.Time, err error) {
	r.metrics.RecordSourceRequest(source, endpoint, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.metrics.RecordSourceRequestFailed(source, endpoint, errorType(err))
	}
}

func errorType(err error) string {
	if errors.Is(err, domain.ErrServiceUnavailable) {
		return "unavailable"
	}
	return "error"
}

func doiURL(doi string) string {
	return "https://doi.org/" + doi
}
