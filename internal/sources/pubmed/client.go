package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/preprint-resolver/internal/domain"
	"github.com/helixir/preprint-resolver/internal/sources"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	DefaultRateLimit = 3.0

	// KeyedRateLimit is the rate limit NCBI grants with an API key.
	KeyedRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetMax is the default maximum PMIDs returned per search.
	DefaultRetMax = 5

	// sourceName identifies this source in errors and logs.
	sourceName = "pubmed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits. Optional.
	APIKey string

	// Email is the contact address sent with every request. NCBI asks
	// for it when issuing many queries.
	Email string

	// Tool identifies the calling application to NCBI.
	Tool string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second. When zero it
	// defaults to 3, or 10 when an API key is configured.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// RetMax is the default maximum PMIDs returned per search.
	RetMax int
}

// applyDefaults applies default values to the config.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Tool == "" {
		c.Tool = "preprint-resolver"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
		if c.APIKey != "" {
			c.RateLimit = KeyedRateLimit
		}
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.RetMax == 0 {
		c.RetMax = DefaultRetMax
	}
}

// Client queries the E-utilities esearch and efetch endpoints.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// New creates a new PubMed client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
	}
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// SearchIDs runs an esearch query and returns the matching PMIDs, at
// most retMax of them. A query that matches nothing returns an empty
// slice and no error; retMax <= 0 uses the configured default.
func (c *Client) SearchIDs(ctx context.Context, term string, retMax int) ([]string, error) {
	if retMax <= 0 {
		retMax = c.config.RetMax
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmax", strconv.Itoa(retMax))

	body, err := c.get(ctx, "/esearch.fcgi", q)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var result eSearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("esearch: parsing response: %w", err)
	}

	// PhraseNotFound means the term matched nothing, not that the
	// request failed.
	return result.IDList.IDs, nil
}

// FetchRecords retrieves the full article records for the given PMIDs,
// in request order. An empty PMID list returns nil without a request.
func (c *Client) FetchRecords(ctx context.Context, pmids []string) ([]Record, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	body, err := c.get(ctx, "/efetch.fcgi", q)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	var articleSet pubmedArticleSet
	if err := xml.Unmarshal(body, &articleSet); err != nil {
		return nil, fmt.Errorf("efetch: parsing response: %w", err)
	}

	records := make([]Record, 0, len(articleSet.Articles))
	for i := range articleSet.Articles {
		records = append(records, articleToRecord(&articleSet.Articles[i]))
	}
	return records, nil
}

// get executes a GET against an E-utilities endpoint with the shared
// identification parameters applied.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.config.BaseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q.Set("tool", c.config.Tool)
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewExternalAPIError(sourceName, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// articleToRecord flattens a fetched article into a Record.
func articleToRecord(pa *pubmedArticle) Record {
	art := pa.MedlineCitation.Article

	rec := Record{
		PMID:       pa.MedlineCitation.PMID.Value,
		Title:      strings.TrimSpace(art.ArticleTitle),
		Abstract:   extractAbstract(art.Abstract),
		Authors:    extractAuthors(art.AuthorList),
		EntrezDate: extractEntrezDate(pa.PubmedData.History),
		PubDate:    formatPubDate(art.Journal.JournalIssue.PubDate),
	}

	for _, id := range pa.PubmedData.ArticleIdList.ArticleIDs {
		rec.ArticleIDs = append(rec.ArticleIDs, ArticleID{
			Type:  id.IDType,
			Value: strings.TrimSpace(id.Value),
		})
	}

	return rec
}

// extractAbstract concatenates the abstract sections into one string.
func extractAbstract(ab *abstract) string {
	if ab == nil || len(ab.AbstractTexts) == 0 {
		return ""
	}

	if len(ab.AbstractTexts) == 1 && ab.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(ab.AbstractTexts[0].Value)
	}

	var parts []string
	for _, at := range ab.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// extractAuthors renders each author as "LastName, ForeName" in listed
// order. Collective names and invalidated entries are skipped.
func extractAuthors(al *authorList) []string {
	if al == nil || len(al.Authors) == 0 {
		return nil
	}

	authors := make([]string, 0, len(al.Authors))
	for _, a := range al.Authors {
		if a.ValidYN == "N" || a.CollectiveName != "" || a.LastName == "" {
			continue
		}
		fore := a.ForeName
		if fore == "" {
			fore = a.Initials
		}
		if fore == "" {
			authors = append(authors, a.LastName)
			continue
		}
		authors = append(authors, a.LastName+", "+fore)
	}
	return authors
}

// extractEntrezDate formats the "entrez" history entry as
// "YYYY/MM/DD HH:MM", matching the legacy Medline EDAT field.
func extractEntrezDate(h *history) string {
	if h == nil {
		return ""
	}
	for _, d := range h.PubMedPubDates {
		if d.PubStatus != "entrez" {
			continue
		}
		if d.Year == "" || d.Month == "" || d.Day == "" {
			return ""
		}
		s := fmt.Sprintf("%s/%s/%s", d.Year, pad2(d.Month), pad2(d.Day))
		if d.Hour != "" && d.Minute != "" {
			s += fmt.Sprintf(" %s:%s", pad2(d.Hour), pad2(d.Minute))
		}
		return s
	}
	return ""
}

// formatPubDate renders the journal publication date as "YYYY-MM-DD".
// Month names are resolved to numbers; missing month or day components
// default to 1. Free-form MedlineDate values are not parseable and
// yield an empty string.
func formatPubDate(pd pubDate) string {
	if pd.Year == "" {
		return ""
	}
	if _, err := strconv.Atoi(pd.Year); err != nil {
		return ""
	}

	month := 1
	if pd.Month != "" {
		month = int(parseMonth(pd.Month))
	}
	day := 1
	if pd.Day != "" {
		if d, err := strconv.Atoi(pd.Day); err == nil {
			day = d
		}
	}
	return fmt.Sprintf("%s-%02d-%02d", pd.Year, month, day)
}

// monthNames maps lowercase month name strings (abbreviation and full)
// to time.Month.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth parses a month string (numeric or name) into time.Month.
func parseMonth(month string) time.Month {
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	if m, ok := monthNames[strings.ToLower(month)]; ok {
		return m
	}
	return time.January
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
