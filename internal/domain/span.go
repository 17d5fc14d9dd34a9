package domain

import "time"

// Span is a half-open wall-clock interval [Start, End). Times carry no
// meaningful location; comparisons are naive local time.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open spans intersect. Spans that only
// touch at an endpoint do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.End.After(o.Start) && s.Start.Before(o.End)
}

// Skip records an input that was ignored because it could not be parsed.
type Skip struct {
	Index  int    `json:"index"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}
