package crossref

import (
	"strings"
	"time"
)

// worksResponse is the envelope of the works API.
type worksResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is the metadata record of a registered DOI.
type Work struct {
	DOI      string                     `json:"DOI"`
	Title    []string                   `json:"title"`
	Abstract string                     `json:"abstract"` // JATS-flavored markup
	Posted   DateParts                  `json:"posted"`
	Author   []Author                   `json:"author"`
	Relation map[string][]RelationEntry `json:"relation"`
}

// DateParts holds a partial date as nested year/month/day components.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Author is one contributor entry. Consortia typically carry only a Name
// and no Given field.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// RelationEntry is one target of a work relation such as "is-preprint-of".
type RelationEntry struct {
	IDType     string `json:"id-type"`
	ID         string `json:"id"`
	AssertedBy string `json:"asserted-by"`
}

// PublishedDOI returns the journal DOI asserted in the work's
// "is-preprint-of" relation, if a DOI-typed entry exists.
func (w *Work) PublishedDOI() (string, bool) {
	entries, ok := w.Relation["is-preprint-of"]
	if !ok {
		return "", false
	}
	for _, entry := range entries {
		if entry.IDType == "doi" && entry.ID != "" {
			return entry.ID, true
		}
	}
	return "", false
}

// PrimaryTitle returns the first registered title, or "" when none exists.
func (w *Work) PrimaryTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return strings.TrimSpace(w.Title[0])
}

// PostedDate returns the posted date at UTC midnight. Missing month or
// day components default to 1, matching how partial registration dates
// are conventionally completed.
func (w *Work) PostedDate() (time.Time, bool) {
	if len(w.Posted.DateParts) == 0 || len(w.Posted.DateParts[0]) == 0 {
		return time.Time{}, false
	}
	parts := w.Posted.DateParts[0]
	year := parts[0]
	month, day := 1, 1
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// AuthorString joins the author list into a single "Given Family" string
// with entries separated by "; ". Entries without a given name (usually
// consortia) are skipped.
func (w *Work) AuthorString() string {
	var names []string
	for _, a := range w.Author {
		if a.Given == "" {
			continue
		}
		names = append(names, a.Given+" "+a.Family)
	}
	return strings.Join(names, "; ")
}

// CleanAbstract returns the abstract with all markup stripped.
func (w *Work) CleanAbstract() string {
	return StripMarkup(w.Abstract)
}
