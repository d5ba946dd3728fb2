package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/observability"
	"github.com/helixir/preprint-resolver/internal/sources/pubmed"
)

const (
	// journalFilter restricts searches to peer-reviewed journal
	// articles, keeping the preprint itself out of the results.
	journalFilter = " AND Journal Article[filter]"

	// titleThreshold is the minimum title similarity for a candidate
	// found via author search to proceed to abstract comparison.
	// Strictly greater-than.
	titleThreshold = 0.94

	// abstractThreshold is the minimum abstract similarity for the best
	// candidate to be accepted as the published version.
	abstractThreshold = 0.9
)

// candidate is one fetched article together with its per-stage scores.
type candidate struct {
	record     pubmed.Record
	authorOK   bool
	titleScore float64
	similarity float64
}

// matchInPubMed is the fallback matching stage. It searches for the
// preprint's title (then its authors when the title finds nothing),
// discards candidates published before the preprint was posted, gates
// each survivor on an author or title check, scores the survivors'
// abstracts against the preprint's, and accepts the best candidate if
// its similarity reaches the threshold.
//
// Returns the publication locator, its similarity, and whether a match
// was accepted. A non-nil error means an external dependency failed.
func (r *Resolver) matchInPubMed(ctx context.Context, log zerolog.Logger, preprint domain.Preprint) (string, float64, bool, error) {
	log = observability.WithSourceContext(log, "pubmed")
	strippedTitle := r.stopwords.Strip(preprint.Title)

	searchStart := time.Now()
	ids, err := r.articles.SearchIDs(ctx, strippedTitle+journalFilter, r.config.RetMax)
	r.recordSource("pubmed", "esearch", searchStart, err)
	if err != nil {
		return "", 0, false, fmt.Errorf("title search: %w", err)
	}

	// Title found nothing; retry with an author-fielded query.
	authorSearch := false
	if len(ids) == 0 {
		authorSearch = true
		searchStart = time.Now()
		ids, err = r.articles.SearchIDs(ctx, authorQuery(preprint.Authors)+journalFilter, r.config.RetMax)
		r.recordSource("pubmed", "esearch", searchStart, err)
		if err != nil {
			return "", 0, false, fmt.Errorf("author search: %w", err)
		}
	}

	if len(ids) == 0 {
		log.Debug().Msg("no search results for title or authors")
		return "", 0, false, nil
	}

	fetchStart := time.Now()
	records, err := r.articles.FetchRecords(ctx, ids)
	r.recordSource("pubmed", "efetch", fetchStart, err)
	if err != nil {
		return "", 0, false, fmt.Errorf("fetching candidate records: %w", err)
	}

	candidates := make([]*candidate, 0, len(records))
	for _, rec := range records {
		if publishedAfter(rec, preprint.PostedDate) {
			candidates = append(candidates, &candidate{record: rec})
		}
	}
	if len(candidates) == 0 {
		log.Debug().Msg("all candidates predate the preprint")
		return "", 0, false, nil
	}

	// The gate depends on how the candidates were found: a title search
	// is validated by the author lists, an author search by the titles.
	for _, c := range candidates {
		if authorSearch {
			if c.record.Title == "" {
				continue
			}
			c.titleScore, err = r.similarity.Score(ctx, preprint.Title, c.record.Title)
			if err != nil {
				return "", 0, false, fmt.Errorf("title similarity: %w", err)
			}
		} else {
			c.authorOK = r.authors.Match(preprint.AuthorList(), c.record.Authors)
		}
	}

	for _, c := range candidates {
		if !c.authorOK && c.titleScore <= titleThreshold {
			continue
		}
		if c.record.Abstract == "" {
			continue
		}
		c.similarity, err = r.similarity.Score(ctx, preprint.Abstract, c.record.Abstract)
		if err != nil {
			return "", 0, false, fmt.Errorf("abstract similarity: %w", err)
		}
	}

	// Highest similarity wins; ties go to the earlier search result.
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.similarity > best.similarity {
			best = c
		}
	}

	r.metrics.RecordMatchingRun(len(candidates), best.similarity)

	if best.similarity < abstractThreshold {
		log.Debug().
			Float64("best_similarity", best.similarity).
			Str("pmid", best.record.PMID).
			Msg("best candidate below threshold")
		return "", 0, false, nil
	}

	return articleLocator(best.record), best.similarity, true, nil
}

// authorQuery turns the semicolon-joined author string into a fielded
// search query: separators become AND operators, punctuation inside
// names is dropped, and the author field tag is appended.
func authorQuery(authors string) string {
	q := strings.ReplaceAll(authors, ";", " AND")
	q = strings.ReplaceAll(q, ",", "")
	q = strings.ReplaceAll(q, ".", "")
	return q + "[author]"
}

// publishedAfter reports whether the record's date is strictly after
// the preprint's posted date. The database-entry date is preferred over
// the journal publication date; a record with neither date parseable is
// retained, since date filtering is a heuristic.
func publishedAfter(rec pubmed.Record, posted time.Time) bool {
	if d, ok := convertDate(rec.EntrezDate); ok {
		return posted.Before(d)
	}
	if d, ok := convertDate(rec.PubDate); ok {
		return posted.Before(d)
	}
	return true
}

// convertDate parses the leading year-month-day triple of a date string
// in either "YYYY/MM/DD" or "YYYY-MM-DD" form, ignoring any trailing
// time component.
func convertDate(s string) (time.Time, bool) {
	if len(s) > 10 {
		s = s[:10]
	}

	var parts []string
	switch {
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	default:
		return time.Time{}, false
	}
	if len(parts) != 3 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// articleLocator builds the publication locator for an accepted record:
// a DOI URL when the record lists a DOI, otherwise its PubMed page.
func articleLocator(rec pubmed.Record) string {
	if doi, ok := rec.DOI(); ok {
		return doiURL(doi)
	}
	return "https://pubmed.ncbi.nlm.nih.gov/" + rec.PMID
}
