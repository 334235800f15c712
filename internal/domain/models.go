package domain

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// SearchResult is a single hit returned by the search endpoint
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"` // empty when the endpoint sent none
	Image       string `json:"image,omitempty"`       // URL, empty when absent
}

// HasDescription reports whether the result carries a description
func (r SearchResult) HasDescription() bool {
	return r.Description != ""
}

// HasImage reports whether the result carries an image URL
func (r SearchResult) HasImage() bool {
	return r.Image != ""
}

// ResultPage is one page of results as produced by the network boundary
type ResultPage struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
}

// Clone returns a copy that shares no memory with p
func (p ResultPage) Clone() ResultPage {
	return ResultPage{
		Results: slices.Clone(p.Results),
		Total:   p.Total,
		Page:    p.Page,
	}
}

// IsEmpty reports whether the page holds no results
func (p ResultPage) IsEmpty() bool {
	return len(p.Results) == 0
}

// Query is a normalized search string. It is the cache key and the payload
// carried by every request token.
type Query string

// String returns the query text
func (q Query) String() string {
	return string(q)
}

// Len returns the query length in runes
func (q Query) Len() int {
	return utf8.RuneCountInString(string(q))
}

// IsSearchable reports whether the query is long enough to hit the network
func (q Query) IsSearchable(minLength int) bool {
	return q != "" && q.Len() >= minLength
}

// NormalizeQuery trims, collapses inner whitespace and case folds raw input
func NormalizeQuery(raw string) Query {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	// cases.Caser is stateful, so each call gets its own
	return Query(cases.Fold().String(strings.Join(fields, " ")))
}
