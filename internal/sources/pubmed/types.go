// Package pubmed provides a client for the NCBI PubMed E-utilities API.
//
// The resolver uses the classic two-step flow: esearch.fcgi to find PMIDs
// for a query, then efetch.fcgi to retrieve the article records the
// matching core scores.
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import (
	"encoding/xml"
	"strings"
)

// eSearchResult represents the response from the esearch.fcgi endpoint.
type eSearchResult struct {
	XMLName   xml.Name   `xml:"eSearchResult"`
	Count     int        `xml:"Count"`
	IDList    idList     `xml:"IdList"`
	ErrorList *errorList `xml:"ErrorList,omitempty"`
}

// idList contains the list of PMIDs returned by a search.
type idList struct {
	IDs []string `xml:"Id"`
}

// errorList contains errors from the E-utilities API. A PhraseNotFound
// entry means the query matched nothing, which is not a failure.
type errorList struct {
	PhraseNotFound []string `xml:"PhraseNotFound,omitempty"`
	FieldNotFound  []string `xml:"FieldNotFound,omitempty"`
}

// pubmedArticleSet represents the response from the efetch.fcgi endpoint.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

// pubmedArticle represents a single article in the PubMed database.
type pubmedArticle struct {
	MedlineCitation medlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    pmid    `xml:"PMID"`
	Article article `xml:"Article"`
}

type pmid struct {
	Value string `xml:",chardata"`
}

type article struct {
	Journal      journal     `xml:"Journal"`
	ArticleTitle string      `xml:"ArticleTitle"`
	Abstract     *abstract   `xml:"Abstract,omitempty"`
	AuthorList   *authorList `xml:"AuthorList,omitempty"`
}

type journal struct {
	Title        string       `xml:"Title,omitempty"`
	JournalIssue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

// pubDate represents the journal publication date, which may arrive as
// year/month/day components or a free-form MedlineDate.
type pubDate struct {
	Year        string `xml:"Year,omitempty"`
	Month       string `xml:"Month,omitempty"`
	Day         string `xml:"Day,omitempty"`
	MedlineDate string `xml:"MedlineDate,omitempty"`
}

// abstract contains the article abstract, which may have multiple
// labeled sections.
type abstract struct {
	AbstractTexts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr,omitempty"`
	Value string `xml:",chardata"`
}

type authorList struct {
	Authors []author `xml:"Author"`
}

type author struct {
	ValidYN        string `xml:"ValidYN,attr,omitempty"`
	LastName       string `xml:"LastName,omitempty"`
	ForeName       string `xml:"ForeName,omitempty"`
	Initials       string `xml:"Initials,omitempty"`
	CollectiveName string `xml:"CollectiveName,omitempty"`
}

// pubmedData contains publication history and the article identifiers.
type pubmedData struct {
	History       *history      `xml:"History,omitempty"`
	ArticleIdList articleIDList `xml:"ArticleIdList"`
}

type history struct {
	PubMedPubDates []pubMedPubDate `xml:"PubMedPubDate"`
}

type pubMedPubDate struct {
	PubStatus string `xml:"PubStatus,attr"`
	Year      string `xml:"Year"`
	Month     string `xml:"Month"`
	Day       string `xml:"Day"`
	Hour      string `xml:"Hour,omitempty"`
	Minute    string `xml:"Minute,omitempty"`
}

type articleIDList struct {
	ArticleIDs []articleID `xml:"ArticleId"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// ArticleID is one identifier attached to a record (doi, pmc, pii, ...).
type ArticleID struct {
	Type  string
	Value string
}

// Record is the flattened article record handed to the matching core.
type Record struct {
	// PMID is the PubMed identifier.
	PMID string

	// Title is the article title.
	Title string

	// Abstract is the full abstract with labeled sections concatenated.
	Abstract string

	// Authors holds one "LastName, ForeName" entry per author, in
	// listed order. Collective names (consortia) are skipped.
	Authors []string

	// EntrezDate is the date the record entered the database, formatted
	// "YYYY/MM/DD HH:MM". Empty when the history carries no entrez entry.
	EntrezDate string

	// PubDate is the journal publication date formatted "YYYY-MM-DD".
	// Empty when no parseable date is present.
	PubDate string

	// ArticleIDs lists all identifiers attached to the record.
	ArticleIDs []ArticleID
}

// DOI returns the record's DOI, if one is listed among its identifiers.
func (r Record) DOI() (string, bool) {
	for _, id := range r.ArticleIDs {
		if id.Type == "doi" && id.Value != "" {
			return strings.TrimSpace(id.Value), true
		}
	}
	return "", false
}
