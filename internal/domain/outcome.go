package domain

// Status classifies the terminal state of a resolution attempt.
// Exactly one of the four values is reported to the caller; a resolution
// never ends in a silent empty result.
type Status string

const (
	// StatusFound means a publication locator was resolved.
	StatusFound Status = "found"

	// StatusNotFound means every stage completed and no candidate met
	// the acceptance threshold. This is a normal, expected outcome.
	StatusNotFound Status = "not_found"

	// StatusUnavailable means an external dependency could not be
	// reached; the caller should retry later.
	StatusUnavailable Status = "temporarily_unavailable"

	// StatusMissingAbstract means the preprint registration carries no
	// abstract, so similarity matching cannot run. Non-retryable.
	StatusMissingAbstract Status = "missing_abstract"
)

// Via identifies which stage produced a resolved locator.
type Via string

const (
	// ViaServer means the preprint server's own lookup supplied the link.
	ViaServer Via = "server"

	// ViaCrossref means the cross-reference relation map supplied the link.
	ViaCrossref Via = "crossref"

	// ViaPre2Pub means the fallback matching algorithm found the link.
	ViaPre2Pub Via = "pre2pub"
)

// Outcome is the result of one resolution attempt.
type Outcome struct {
	// Status is the terminal state.
	Status Status

	// Locator is the resolved publication URL. Set only when Status is
	// StatusFound. It embeds a DOI when one was available, otherwise it
	// is a fallback record-locator URL.
	Locator string

	// Via identifies the stage that produced the locator. Set only when
	// Status is StatusFound.
	Via Via

	// Score is the abstract similarity of the accepted candidate. Set
	// only when Via is ViaPre2Pub.
	Score float64
}

// Found builds a successful outcome.
func Found(locator string, via Via) Outcome {
	return Outcome{Status: StatusFound, Locator: locator, Via: via}
}

// NotFound builds the no-match outcome.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Unavailable builds the temporarily-unavailable outcome.
func Unavailable() Outcome {
	return Outcome{Status: StatusUnavailable}
}

// MissingAbstract builds the missing-abstract outcome.
func MissingAbstract() Outcome {
	return Outcome{Status: StatusMissingAbstract}
}
