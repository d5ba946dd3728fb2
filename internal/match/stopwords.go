// Package match implements the core matching logic that decides whether
// a journal article is the published version of a preprint: stopword
// handling for queries and abstracts, embedding-based text similarity,
// and author-list comparison.
package match

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed stopwords_en.txt
var englishStopwords string

// Stopwords is a set of words excluded from search queries and
// similarity comparisons.
type Stopwords struct {
	set map[string]struct{}
}

// DefaultStopwords returns the built-in English stopword set.
func DefaultStopwords() *Stopwords {
	return newStopwords(englishStopwords)
}

// LoadStopwords reads a stopword set from a file with one word per line.
func LoadStopwords(path string) (*Stopwords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stopword file: %w", err)
	}
	return newStopwords(string(data)), nil
}

func newStopwords(data string) *Stopwords {
	set := make(map[string]struct{})
	for _, line := range strings.Split(data, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		set[strings.ToLower(word)] = struct{}{}
	}
	return &Stopwords{set: set}
}

// Contains reports whether word is a stopword. Matching is
// case-insensitive.
func (s *Stopwords) Contains(word string) bool {
	_, ok := s.set[strings.ToLower(word)]
	return ok
}

// Strip removes stopword tokens from text while preserving the
// remaining tokens verbatim. Used to tighten title search queries.
func (s *Stopwords) Strip(text string) string {
	var kept []string
	for _, token := range strings.Fields(text) {
		if s.Contains(token) {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
