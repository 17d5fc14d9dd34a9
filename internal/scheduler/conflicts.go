package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
)

// Conflict pairs a plan item with a busy span it overlaps.
type Conflict struct {
	Index int             `json:"index"`
	Item  domain.PlanItem `json:"item"`
	Busy  domain.Span     `json:"busy"`
}

// DetectionReport is the outcome of FindConflicts.
type DetectionReport struct {
	Conflicts    []Conflict    `json:"conflicts"`
	SkippedItems []domain.Skip `json:"skipped_items,omitempty"`
}

// Count returns the number of (item, span) pairs that overlap.
func (r DetectionReport) Count() int {
	return len(r.Conflicts)
}

// ConflictingIndexes returns each conflicting item index once, in order of
// first conflict.
func (r DetectionReport) ConflictingIndexes() []int {
	seen := make(map[int]bool, len(r.Conflicts))
	var out []int
	for _, c := range r.Conflicts {
		if seen[c.Index] {
			continue
		}
		seen[c.Index] = true
		out = append(out, c.Index)
	}
	return out
}

// ItemSpan places item on the week starting at anchor. An item without a
// start time is placed at DefaultStartTime. It fails when the day is not
// canonical or the start time is not H:MM.
func ItemSpan(item domain.PlanItem, anchor time.Time) (domain.Span, error) {
	date, ok := DayDate(anchor, item.Day)
	if !ok {
		return domain.Span{}, fmt.Errorf("unrecognized day %q", item.Day)
	}
	hour, minute, ok := ParseClock(domain.CoalesceStr(item.StartTime, DefaultStartTime))
	if !ok {
		return domain.Span{}, fmt.Errorf("unparsable start_time %q", item.StartTime)
	}
	start := atClock(date, hour, minute)
	return domain.Span{
		Start: start,
		End:   start.Add(time.Duration(item.Duration()) * time.Minute),
	}, nil
}

// FindConflicts reports every (item, span) overlap, in item-then-span
// order. An item overlapping several spans appears once per span.
func FindConflicts(items []domain.PlanItem, spans []domain.Span, anchor time.Time) DetectionReport {
	var report DetectionReport
	for i, item := range items {
		itemSpan, err := ItemSpan(item, anchor)
		if err != nil {
			report.SkippedItems = append(report.SkippedItems, domain.Skip{
				Index:  i,
				Value:  item.TaskName,
				Reason: err.Error(),
			})
			continue
		}
		for _, busy := range spans {
			if itemSpan.Overlaps(busy) {
				report.Conflicts = append(report.Conflicts, Conflict{Index: i, Item: item, Busy: busy})
			}
		}
	}
	return report
}
