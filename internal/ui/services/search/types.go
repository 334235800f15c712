package search

// Span is a half-open range of rune offsets matching a query term
type Span struct {
	Start int
	End   int
}

// State holds the terms being highlighted
type State struct {
	Query string
	Terms [][]rune // distinct query words, longest first
}
