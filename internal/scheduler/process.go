package scheduler

import (
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// Input is everything the deterministic pipeline needs besides the model.
type Input struct {
	Items         []domain.PlanItem
	BusyIntervals []string
	Anchor        time.Time
	Chronotype    domain.Chronotype
	Vocabulary    *vocabulary.Vocabulary
}

// Result is the outcome of Process.
type Result struct {
	Items            []domain.PlanItem `json:"weekly_plan"`
	WeekStart        string            `json:"week_start"`
	Before           DetectionReport   `json:"before"`
	After            DetectionReport   `json:"after"`
	Resolution       ResolveReport     `json:"resolution"`
	SkippedIntervals []domain.Skip     `json:"skipped_intervals,omitempty"`
}

// Process runs normalization, detection, resolution and a second detection
// pass over in.Items.
func Process(in Input) Result {
	vocab := in.Vocabulary
	if vocab == nil {
		vocab = vocabulary.Default()
	}

	spans, skippedIntervals := ParseBusyIntervals(in.BusyIntervals)
	items := Normalize(in.Items, in.Chronotype, vocab)
	before := FindConflicts(items, spans, in.Anchor)
	resolved, rr := ResolveAll(items, spans, in.Anchor, in.Chronotype, before)
	after := FindConflicts(resolved, spans, in.Anchor)

	return Result{
		Items:            resolved,
		WeekStart:        FormatDate(in.Anchor),
		Before:           before,
		After:            after,
		Resolution:       rr,
		SkippedIntervals: skippedIntervals,
	}
}
