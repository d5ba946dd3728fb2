// Package domain defines the core types and error taxonomy for preprint
// resolution: the preprint record under resolution, the final outcome,
// and the errors external collaborators can surface.
package domain

import (
	"strings"
	"time"
)

// AuthorSeparator joins individual author names into the single preprint
// author string. Consumers split on it to recover the ordered name list.
const AuthorSeparator = "; "

// Preprint is the immutable input to a resolution attempt. It is
// constructed from the cross-reference record of the preprint DOI before
// the matching core is invoked; the abstract has already had any HTML
// markup stripped.
type Preprint struct {
	// DOI is the preprint's own DOI, e.g. "10.1101/2020.07.25.20161844".
	DOI string

	// Title is the preprint title as registered.
	Title string

	// Abstract is the plain-text abstract. Empty when the registration
	// carries none; matching cannot run in that case.
	Abstract string

	// PostedDate is the date the preprint was posted, at UTC midnight.
	PostedDate time.Time

	// Authors is the ordered author list as a single string of
	// "Given Family" names joined by AuthorSeparator. Entries without a
	// given name (typically consortia) are omitted at construction time.
	Authors string
}

// AuthorList splits the joined author string back into individual names.
// Returns nil for an empty author string.
func (p Preprint) AuthorList() []string {
	if p.Authors == "" {
		return nil
	}
	return strings.Split(p.Authors, AuthorSeparator)
}

// HasAbstract reports whether the preprint carries an abstract.
func (p Preprint) HasAbstract() bool {
	return strings.TrimSpace(p.Abstract) != ""
}
