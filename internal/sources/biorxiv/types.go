package biorxiv

// DetailsResponse represents the top-level bioRxiv/medRxiv details API response.
type DetailsResponse struct {
	Messages   []Message `json:"messages"`
	Collection []Entry   `json:"collection"`
}

// Message carries the API's status block for a details request.
type Message struct {
	Status string `json:"status"` // "ok" or "no posts found"
	Count  int    `json:"count"`
}

// Entry is one version record of a preprint in the details response.
type Entry struct {
	DOI       string `json:"doi"`
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Date      string `json:"date"`      // "2024-01-15"
	Version   string `json:"version"`
	Category  string `json:"category"`
	Published string `json:"published"` // journal DOI, or "NA" when unpublished
	Server    string `json:"server"`    // "biorxiv" or "medrxiv"
}
