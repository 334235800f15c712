// Package search finds where the current query occurs in result text so the
// list can highlight it.
package search

import (
	"slices"
	"strings"
	"unicode/utf8"

	"typeahead/internal/domain"
)

// Service tracks the query whose terms are highlighted
type Service struct {
	state *State
}

// NewService creates a new search service
func NewService() *Service {
	return &Service{state: &State{}}
}

// SetQuery replaces the highlighted terms. Setting the same query again is a
// no-op.
func (s *Service) SetQuery(query domain.Query) {
	q := query.String()
	if q == s.state.Query {
		return
	}
	s.state.Query = q
	s.state.Terms = nil

	seen := make(map[string]bool)
	for _, word := range strings.Fields(q) {
		if seen[word] {
			continue
		}
		seen[word] = true
		s.state.Terms = append(s.state.Terms, []rune(word))
	}
	slices.SortFunc(s.state.Terms, func(a, b []rune) int { return len(b) - len(a) })
}

// GetQuery returns the current query
func (s *Service) GetQuery() string {
	return s.state.Query
}

// Spans returns the merged, ordered ranges of text matching any query term,
// compared case-insensitively
func (s *Service) Spans(text string) []Span {
	if len(s.state.Terms) == 0 || text == "" {
		return nil
	}
	runes := []rune(text)

	var spans []Span
	for _, term := range s.state.Terms {
		n := len(term)
		for i := 0; i+n <= len(runes); i++ {
			if strings.EqualFold(string(runes[i:i+n]), string(term)) {
				spans = append(spans, Span{Start: i, End: i + n})
			}
		}
	}
	return merge(spans)
}

// ShouldHighlight reports whether text contains any query term
func (s *Service) ShouldHighlight(text string) bool {
	return len(s.Spans(text)) > 0
}

// Highlight wraps every matching range of text with style
func (s *Service) Highlight(text string, style func(string) string) string {
	spans := s.Spans(text)
	if len(spans) == 0 {
		return text
	}

	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + len(spans)*utf8.UTFMax*4)
	last := 0
	for _, sp := range spans {
		b.WriteString(string(runes[last:sp.Start]))
		b.WriteString(style(string(runes[sp.Start:sp.End])))
		last = sp.End
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}

func merge(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	out := spans[:1]
	for _, sp := range spans[1:] {
		prev := &out[len(out)-1]
		if sp.Start <= prev.End {
			if sp.End > prev.End {
				prev.End = sp.End
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}
