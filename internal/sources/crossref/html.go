package crossref

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML/JATS tags from a registered abstract, keeping
// only the text content. Registered abstracts commonly arrive wrapped in
// jats:p and jats:title elements; the tokenizer treats those as ordinary
// tags. Entity references are decoded along the way.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(html.UnescapeString(s))
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(b.String())
}
