package resolver

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/match"
	"github.com/helixir/preprint-resolver/internal/observability"
	"github.com/helixir/preprint-resolver/internal/sources/crossref"
	"github.com/helixir/preprint-resolver/internal/sources/pubmed"
)

type fakeServers struct {
	published string
	err       error
	calls     int
}

func (f *fakeServers) PublishedDOI(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.published, f.err
}

type fakeWorks struct {
	work  *crossref.Work
	err   error
	calls int
}

func (f *fakeWorks) GetWork(_ context.Context, _ string) (*crossref.Work, error) {
	f.calls++
	return f.work, f.err
}

type fakeArticles struct {
	searchTerms []string
	searchIDs   [][]string // Responses consumed in order, one per SearchIDs call.
	searchErr   error
	records     []pubmed.Record
	fetchErr    error
	fetchCalls  int
}

func (f *fakeArticles) SearchIDs(_ context.Context, term string, _ int) ([]string, error) {
	f.searchTerms = append(f.searchTerms, term)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchIDs) == 0 {
		return nil, nil
	}
	ids := f.searchIDs[0]
	f.searchIDs = f.searchIDs[1:]
	return ids, nil
}

func (f *fakeArticles) FetchRecords(_ context.Context, _ []string) ([]pubmed.Record, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

type fakeSimilarity struct {
	scoreFn func(text1, text2 string) (float64, error)
}

func (f *fakeSimilarity) Score(_ context.Context, text1, text2 string) (float64, error) {
	return f.scoreFn(text1, text2)
}

type fakeAuthors struct {
	matchFn func(pre, pub []string) bool
}

func (f *fakeAuthors) Match(pre, pub []string) bool {
	return f.matchFn(pre, pub)
}

// preprintWork is a registered preprint without a publication relation.
func preprintWork() *crossref.Work {
	return &crossref.Work{
		DOI:      "10.1101/2020.07.25.20161844",
		Title:    []string{"Adverse drug reactions in hospitalized patients"},
		Abstract: "<jats:p>We studied adverse drug reactions in a hospital cohort.</jats:p>",
		Posted:   crossref.DateParts{DateParts: [][]int{{2020, 7, 28}}},
		Author: []crossref.Author{
			{Given: "Anna", Family: "Schmidt"},
			{Given: "Ben", Family: "Okafor"},
		},
	}
}

func matchedRecord() pubmed.Record {
	return pubmed.Record{
		PMID:       "32079150",
		Title:      "Adverse drug reactions in hospitalized patients.",
		Abstract:   "We studied adverse drug reactions in a hospital cohort.",
		Authors:    []string{"Schmidt, Anna", "Okafor, Ben"},
		EntrezDate: "2020/08/18 06:00",
		ArticleIDs: []pubmed.ArticleID{{Type: "doi", Value: "10.3390/jcm9020538"}},
	}
}

type resolverFakes struct {
	servers  *fakeServers
	works    *fakeWorks
	articles *fakeArticles
	sim      *fakeSimilarity
	authors  *fakeAuthors
}

func newResolver(f resolverFakes) *Resolver {
	if f.sim == nil {
		f.sim = &fakeSimilarity{scoreFn: func(a, b string) (float64, error) { return 0, nil }}
	}
	if f.authors == nil {
		f.authors = &fakeAuthors{matchFn: func(_, _ []string) bool { return false }}
	}
	return New(
		f.servers,
		f.works,
		f.articles,
		f.sim,
		f.authors,
		match.DefaultStopwords(),
		Config{RetMax: 5},
		zerolog.Nop(),
		nil,
	)
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	doi := "10.1101/2020.07.25.20161844"

	t.Run("preprint server supplies the link", func(t *testing.T) {
		servers := &fakeServers{published: "10.3390/jcm9020538"}
		works := &fakeWorks{}

		r := newResolver(resolverFakes{servers: servers, works: works, articles: &fakeArticles{}})

		outcome, err := r.Resolve(ctx, doi, "medrxiv")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFound, outcome.Status)
		assert.Equal(t, domain.ViaServer, outcome.Via)
		assert.Equal(t, "https://doi.org/10.3390/jcm9020538", outcome.Locator)
		assert.Zero(t, works.calls, "later stages must not run")
	})

	t.Run("relation map supplies the link", func(t *testing.T) {
		servers := &fakeServers{err: domain.NewNotFoundError("publication link", doi)}
		work := preprintWork()
		work.Relation = map[string][]crossref.RelationEntry{
			"is-preprint-of": {{IDType: "doi", ID: "10.3390/jcm9020538"}},
		}
		articles := &fakeArticles{}

		r := newResolver(resolverFakes{servers: servers, works: &fakeWorks{work: work}, articles: articles})

		outcome, err := r.Resolve(ctx, doi, "biorxiv")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFound, outcome.Status)
		assert.Equal(t, domain.ViaCrossref, outcome.Via)
		assert.Equal(t, "https://doi.org/10.3390/jcm9020538", outcome.Locator)
		assert.Empty(t, articles.searchTerms, "matching must not run")
	})

	t.Run("unknown server skips straight to the relation map", func(t *testing.T) {
		servers := &fakeServers{}
		work := preprintWork()
		work.Relation = map[string][]crossref.RelationEntry{
			"is-preprint-of": {{IDType: "doi", ID: "10.3390/jcm9020538"}},
		}

		r := newResolver(resolverFakes{servers: servers, works: &fakeWorks{work: work}, articles: &fakeArticles{}})

		outcome, err := r.Resolve(ctx, "10.21203/rs.3.rs-692244/v1", "ssrn")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFound, outcome.Status)
		assert.Zero(t, servers.calls, "server lookup only runs for bioRxiv and medRxiv")
	})

	t.Run("matching accepts a candidate via title search", func(t *testing.T) {
		servers := &fakeServers{err: domain.NewNotFoundError("publication link", doi)}
		articles := &fakeArticles{
			searchIDs: [][]string{{"32079150"}},
			records:   []pubmed.Record{matchedRecord()},
		}
		sim := &fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0.97, nil }}
		authors := &fakeAuthors{matchFn: func(_, _ []string) bool { return true }}

		r := newResolver(resolverFakes{
			servers:  servers,
			works:    &fakeWorks{work: preprintWork()},
			articles: articles,
			sim:      sim,
			authors:  authors,
		})

		outcome, err := r.Resolve(ctx, doi, "medrxiv")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFound, outcome.Status)
		assert.Equal(t, domain.ViaPre2Pub, outcome.Via)
		assert.Equal(t, "https://doi.org/10.3390/jcm9020538", outcome.Locator)
		assert.InDelta(t, 0.97, outcome.Score, 1e-9)

		// The title query is stopword-stripped and journal-filtered.
		require.Len(t, articles.searchTerms, 1)
		assert.Equal(t, "Adverse drug reactions hospitalized patients AND Journal Article[filter]", articles.searchTerms[0])
	})

	t.Run("author query is used when the title finds nothing", func(t *testing.T) {
		articles := &fakeArticles{
			searchIDs: [][]string{{}, {"32079150"}},
			records:   []pubmed.Record{matchedRecord()},
		}
		sim := &fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0.95, nil }}
		// Author matching must not be consulted on the author-search path.
		authors := &fakeAuthors{matchFn: func(_, _ []string) bool {
			t.Fatal("author matcher called during author search")
			return false
		}}

		r := newResolver(resolverFakes{
			servers:  &fakeServers{},
			works:    &fakeWorks{work: preprintWork()},
			articles: articles,
			sim:      sim,
			authors:  authors,
		})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFound, outcome.Status)
		require.Len(t, articles.searchTerms, 2)
		assert.Equal(t, "Anna Schmidt AND Ben Okafor[author] AND Journal Article[filter]", articles.searchTerms[1])
	})

	t.Run("best candidate below threshold is rejected", func(t *testing.T) {
		articles := &fakeArticles{
			searchIDs: [][]string{{"32079150"}},
			records:   []pubmed.Record{matchedRecord()},
		}
		sim := &fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0.89, nil }}
		authors := &fakeAuthors{matchFn: func(_, _ []string) bool { return true }}

		r := newResolver(resolverFakes{
			servers:  &fakeServers{},
			works:    &fakeWorks{work: preprintWork()},
			articles: articles,
			sim:      sim,
			authors:  authors,
		})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusNotFound, outcome.Status)
	})

	t.Run("missing abstract short-circuits matching", func(t *testing.T) {
		work := preprintWork()
		work.Abstract = ""
		articles := &fakeArticles{}

		r := newResolver(resolverFakes{servers: &fakeServers{}, works: &fakeWorks{work: work}, articles: articles})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusMissingAbstract, outcome.Status)
		assert.Empty(t, articles.searchTerms)
	})

	t.Run("unregistered DOI is not found", func(t *testing.T) {
		works := &fakeWorks{err: domain.NewNotFoundError("work", doi)}

		r := newResolver(resolverFakes{servers: &fakeServers{}, works: works, articles: &fakeArticles{}})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusNotFound, outcome.Status)
	})

	t.Run("server stage failure is temporarily unavailable", func(t *testing.T) {
		servers := &fakeServers{err: domain.NewExternalAPIError("medrxiv", 502, "bad gateway", nil)}
		works := &fakeWorks{}

		r := newResolver(resolverFakes{servers: servers, works: works, articles: &fakeArticles{}})

		outcome, err := r.Resolve(ctx, doi, "medrxiv")
		require.Error(t, err)

		assert.Equal(t, domain.StatusUnavailable, outcome.Status)
		assert.Zero(t, works.calls)
	})

	t.Run("search failure is temporarily unavailable", func(t *testing.T) {
		articles := &fakeArticles{searchErr: domain.NewExternalAPIError("pubmed", 0, "connection refused", nil)}

		r := newResolver(resolverFakes{servers: &fakeServers{}, works: &fakeWorks{work: preprintWork()}, articles: articles})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.Error(t, err)

		assert.Equal(t, domain.StatusUnavailable, outcome.Status)
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})

	t.Run("no search results at all is not found", func(t *testing.T) {
		articles := &fakeArticles{searchIDs: [][]string{{}, {}}}

		r := newResolver(resolverFakes{servers: &fakeServers{}, works: &fakeWorks{work: preprintWork()}, articles: articles})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusNotFound, outcome.Status)
		assert.Zero(t, articles.fetchCalls)
	})

	t.Run("locator falls back to the PubMed page without a DOI", func(t *testing.T) {
		rec := matchedRecord()
		rec.ArticleIDs = []pubmed.ArticleID{{Type: "pubmed", Value: "32079150"}}
		articles := &fakeArticles{
			searchIDs: [][]string{{"32079150"}},
			records:   []pubmed.Record{rec},
		}
		sim := &fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0.95, nil }}
		authors := &fakeAuthors{matchFn: func(_, _ []string) bool { return true }}

		r := newResolver(resolverFakes{
			servers:  &fakeServers{},
			works:    &fakeWorks{work: preprintWork()},
			articles: articles,
			sim:      sim,
			authors:  authors,
		})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/32079150", outcome.Locator)
	})

	t.Run("exact similarity ties resolve to the earlier result", func(t *testing.T) {
		first := matchedRecord()
		second := matchedRecord()
		second.PMID = "99999999"
		second.ArticleIDs = []pubmed.ArticleID{{Type: "doi", Value: "10.1000/other"}}
		articles := &fakeArticles{
			searchIDs: [][]string{{"32079150", "99999999"}},
			records:   []pubmed.Record{first, second},
		}
		sim := &fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0.95, nil }}
		authors := &fakeAuthors{matchFn: func(_, _ []string) bool { return true }}

		r := newResolver(resolverFakes{
			servers:  &fakeServers{},
			works:    &fakeWorks{work: preprintWork()},
			articles: articles,
			sim:      sim,
			authors:  authors,
		})

		outcome, err := r.Resolve(ctx, doi, "other")
		require.NoError(t, err)

		assert.Equal(t, "https://doi.org/10.3390/jcm9020538", outcome.Locator)
	})
}

func TestPublishedAfter(t *testing.T) {
	posted := time.Date(2020, 7, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record pubmed.Record
		want   bool
	}{
		{
			name:   "entrez date after posting",
			record: pubmed.Record{EntrezDate: "2020/08/18 06:00"},
			want:   true,
		},
		{
			name:   "entrez date before posting",
			record: pubmed.Record{EntrezDate: "2020/06/01 06:00"},
			want:   false,
		},
		{
			name:   "same day is not strictly after",
			record: pubmed.Record{EntrezDate: "2020/07/28 06:00"},
			want:   false,
		},
		{
			name:   "falls back to publication date",
			record: pubmed.Record{PubDate: "2020-08-14"},
			want:   true,
		},
		{
			name:   "entrez date takes precedence over publication date",
			record: pubmed.Record{EntrezDate: "2020/06/01 06:00", PubDate: "2020-08-14"},
			want:   false,
		},
		{
			name:   "no dates retains the candidate",
			record: pubmed.Record{},
			want:   true,
		},
		{
			name:   "unparseable dates retain the candidate",
			record: pubmed.Record{EntrezDate: "summer 2020", PubDate: "n/a"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publishedAfter(tt.record, posted))
		})
	}
}

func TestConvertDate(t *testing.T) {
	t.Run("slash delimited with time suffix", func(t *testing.T) {
		d, ok := convertDate("2020/08/18 06:00")
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 8, 18, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("dash delimited", func(t *testing.T) {
		d, ok := convertDate("2020-08-14")
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 8, 14, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("no delimiter", func(t *testing.T) {
		_, ok := convertDate("20200814")
		assert.False(t, ok)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := convertDate("")
		assert.False(t, ok)
	})
}

func TestAuthorQuery(t *testing.T) {
	q := authorQuery("Anna M. Schmidt; Ben Okafor, Jr.")
	assert.Equal(t, "Anna M Schmidt AND Ben Okafor Jr[author]", q)
}

func TestResolver_Resolve_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	works := &fakeWorks{work: &crossref.Work{
		Relation: map[string][]crossref.RelationEntry{
			"is-preprint-of": {{IDType: "doi", ID: "10.3390/jcm9020538"}},
		},
	}}
	r := New(
		&fakeServers{},
		works,
		&fakeArticles{},
		&fakeSimilarity{scoreFn: func(_, _ string) (float64, error) { return 0, nil }},
		&fakeAuthors{matchFn: func(_, _ []string) bool { return false }},
		match.DefaultStopwords(),
		Config{RetMax: 5},
		zerolog.New(&buf),
		nil,
	)

	ctx := observability.ContextWithRequestID(context.Background(), "req-123")
	outcome, err := r.Resolve(ctx, "10.1101/2020.07.25.20161844", "other")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, outcome.Status)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}
