package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// authorThreshold is the minimum Levenshtein similarity ratio for two
// name strings to count as the same person.
const authorThreshold = 0.9

// maxAuthorCountGap is the largest tolerated difference in author-list
// lengths. A bigger gap usually means mismatched parsing, e.g. a
// consortium listed as one entry on one side.
const maxAuthorCountGap = 3

// NameFormat selects how author names are normalized before comparison.
type NameFormat int

const (
	// FormatFullName expects "Given [Middle] Family" names, as produced
	// from cross-reference author records.
	FormatFullName NameFormat = iota

	// FormatSurnameInitials expects "Family, G." style names, as used by
	// some preprint server exports.
	FormatSurnameInitials
)

// Matcher decides whether two author lists describe the same paper.
// Names never compare exactly across databases (initials, dropped
// middle names, reordered given/family parts), so the matcher combines
// normalization, prefix checks and Levenshtein similarity, then applies
// a set of list-level consensus rules.
type Matcher struct {
	format NameFormat
}

// NewMatcher creates a Matcher for author names in the given format.
func NewMatcher(format NameFormat) *Matcher {
	return &Matcher{format: format}
}

// Match reports whether the preprint author list and the article author
// list plausibly describe the same paper. The article list must be
// non-empty and the list lengths must not differ by more than three.
//
// Matching proceeds in rounds, short-circuiting on first success:
// positional consensus rules, then presence of the preprint's first and
// last author anywhere in the article list, then both again with the
// preprint's first author rotated to the end (shared-senior-author
// convention). The input slices are never mutated.
func (m *Matcher) Match(preprintAuthors, articleAuthors []string) bool {
	if len(preprintAuthors) == 0 || len(articleAuthors) == 0 {
		return false
	}
	if gap := len(preprintAuthors) - len(articleAuthors); gap > maxAuthorCountGap || gap < -maxAuthorCountGap {
		return false
	}

	if m.consensusRules(preprintAuthors, articleAuthors) {
		return true
	}
	if m.endpointsPresent(preprintAuthors, articleAuthors) {
		return true
	}

	rotated := rotateFirstToLast(preprintAuthors)

	if m.consensusRules(rotated, articleAuthors) {
		return true
	}
	return m.endpointsPresent(rotated, articleAuthors)
}

// consensusRules evaluates the four acceptance rules against the
// pairwise consensus of the two lists:
//
//	(a) strictly more matching positions than mismatching ones
//	(b) the first three positions all match
//	(c) the first and last positions agree (both match or both mismatch)
//	(d) rule (c) over a consensus of only each list's first and last author
func (m *Matcher) consensusRules(preprintAuthors, articleAuthors []string) bool {
	consensus := m.consensus(preprintAuthors, articleAuthors)
	endpointConsensus := m.consensus(
		firstAndLast(preprintAuthors),
		firstAndLast(articleAuthors),
	)

	return majority(consensus) ||
		firstN(consensus, 3) ||
		sameEnds(consensus) ||
		sameEnds(endpointConsensus)
}

// consensus compares the two lists position by position, up to the
// shorter length, and records whether each pair names the same person.
func (m *Matcher) consensus(preprintAuthors, articleAuthors []string) []bool {
	n := len(preprintAuthors)
	if len(articleAuthors) < n {
		n = len(articleAuthors)
	}
	result := make([]bool, n)
	for i := 0; i < n; i++ {
		result[i] = m.samePerson(preprintAuthors[i], articleAuthors[i])
	}
	return result
}

// endpointsPresent reports whether the preprint's first and last author
// each appear anywhere in the article list.
func (m *Matcher) endpointsPresent(preprintAuthors, articleAuthors []string) bool {
	first := preprintAuthors[0]
	last := preprintAuthors[len(preprintAuthors)-1]
	return m.inList(first, articleAuthors) && m.inList(last, articleAuthors)
}

func (m *Matcher) inList(preprintAuthor string, articleAuthors []string) bool {
	for _, a := range articleAuthors {
		if m.samePerson(preprintAuthor, a) {
			return true
		}
	}
	return false
}

// samePerson decides whether a preprint name and an article name refer
// to the same person. Both are normalized to surname-first form; the
// pair matches on any prefix relation in either direction, on the
// initials-only form of the preprint name being a prefix of the article
// name, on either prefix relation against the reversed-token preprint
// name, or on a Levenshtein similarity ratio of at least the threshold
// for the better of the plain and reversed forms.
func (m *Matcher) samePerson(preprintName, articleName string) bool {
	pre, initials := m.normalizePreprint(preprintName)
	pub := m.normalizeArticle(articleName)
	if pre == "" || pub == "" {
		return false
	}

	reversed := reverseTokens(pre)

	if strings.HasPrefix(pre, pub) || strings.HasPrefix(pub, pre) {
		return true
	}
	if strings.HasPrefix(initials, pub) {
		return true
	}
	if strings.HasPrefix(reversed, pub) || strings.HasPrefix(pub, reversed) {
		return true
	}

	ratio := levenshteinRatio(pre, pub)
	if r := levenshteinRatio(reversed, pub); r > ratio {
		ratio = r
	}
	return ratio >= authorThreshold
}

// normalizePreprint lowercases and de-punctuates a preprint name,
// rearranges it to surname-first token order and additionally builds an
// initials-only variant (surname plus one letter per remaining token).
func (m *Matcher) normalizePreprint(name string) (full, initialsOnly string) {
	name = strings.ToLower(name)

	var surnamePos int
	switch m.format {
	case FormatSurnameInitials:
		// "family, g." style: surname leads.
		name = strings.ReplaceAll(name, ", ", " ")
		name = strings.ReplaceAll(name, ".", "")
		surnamePos = 0
	default:
		// "given middle family" style: surname trails.
		name = strings.ReplaceAll(name, ". ", " ")
		name = strings.ReplaceAll(name, ".", " ")
		surnamePos = -1
	}

	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", ""
	}
	if surnamePos < 0 {
		surnamePos = len(tokens) - 1
	}

	surname := tokens[surnamePos]
	rest := make([]string, 0, len(tokens)-1)
	rest = append(rest, tokens[:surnamePos]...)
	rest = append(rest, tokens[surnamePos+1:]...)

	initials := make([]string, 0, len(rest)+1)
	initials = append(initials, surname)
	for _, tok := range rest {
		initials = append(initials, tok[:1])
	}

	full = strings.Join(append([]string{surname}, rest...), " ")
	return full, strings.Join(initials, " ")
}

// normalizeArticle lowercases an article author name and flattens
// "Family, Given" comma form to plain token order, which is already
// surname-first.
func (m *Matcher) normalizeArticle(name string) string {
	if m.format == FormatSurnameInitials {
		full, _ := m.normalizePreprint(name)
		return full
	}
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, ", ", " ")
}

// reverseTokens reverses the token order of a normalized name.
func reverseTokens(name string) string {
	tokens := strings.Fields(name)
	for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
	return strings.Join(tokens, " ")
}

// rotateFirstToLast returns a new slice with the first element moved to
// the end. The input is left untouched.
func rotateFirstToLast(authors []string) []string {
	rotated := make([]string, 0, len(authors))
	rotated = append(rotated, authors[1:]...)
	rotated = append(rotated, authors[0])
	return rotated
}

// firstAndLast keeps only the endpoints of a list. A single-author list
// yields that author twice.
func firstAndLast(authors []string) []string {
	return []string{authors[0], authors[len(authors)-1]}
}

// majority reports whether matches strictly outnumber mismatches.
func majority(consensus []bool) bool {
	matches := 0
	for _, ok := range consensus {
		if ok {
			matches++
		}
	}
	return matches > len(consensus)-matches
}

// firstN reports whether the first n positions (or all of them, for
// shorter lists) all match.
func firstN(consensus []bool, n int) bool {
	if len(consensus) == 0 {
		return false
	}
	if len(consensus) < n {
		n = len(consensus)
	}
	for _, ok := range consensus[:n] {
		if !ok {
			return false
		}
	}
	return true
}

// sameEnds reports whether the first and last positions agree, meaning
// both match or both mismatch.
func sameEnds(consensus []bool) bool {
	if len(consensus) == 0 {
		return false
	}
	return consensus[0] == consensus[len(consensus)-1]
}

// levenshteinRatio converts edit distance to a similarity ratio in
// [0, 1], where 1 means identical strings.
func levenshteinRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
