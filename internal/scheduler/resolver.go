package scheduler

import (
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
)

var (
	morningOffsets = []int{-1, -2, -3, 1, 2, 3, 4, -4, 5, -5}
	eveningOffsets = []int{1, 2, 3, -1, -2, -3, 4, -4, 5, -5}
	neutralOffsets = []int{1, -1, 2, -2, 3, -3, 4, -4, 5, -5}
)

// ShiftOffsets returns the hour deltas TryShift tries, in order.
func ShiftOffsets(chronotype domain.Chronotype) []int {
	var offsets []int
	switch chronotype {
	case domain.ChronoMorning:
		offsets = morningOffsets
	case domain.ChronoEvening:
		offsets = eveningOffsets
	default:
		offsets = neutralOffsets
	}
	out := make([]int, len(offsets))
	copy(out, offsets)
	return out
}

// TryShift looks for a start hour on targetDate, near the item's current
// hour, where the item overlaps none of spans. Candidates outside
// [MinShiftHour, MaxShiftHour] are skipped. On success it returns a copy
// with start_time "HH:00"; otherwise it returns item unchanged and false.
// Other plan items are not considered.
func TryShift(item domain.PlanItem, spans []domain.Span, targetDate time.Time, chronotype domain.Chronotype) (domain.PlanItem, bool) {
	base := currentHour(item.StartTime)
	duration := time.Duration(item.Duration()) * time.Minute

	for _, delta := range ShiftOffsets(chronotype) {
		hour := base + delta
		if hour < MinShiftHour || hour > MaxShiftHour {
			continue
		}
		start := atClock(targetDate, hour, 0)
		candidate := domain.Span{Start: start, End: start.Add(duration)}
		if overlapsAny(candidate, spans) {
			continue
		}
		shifted := item.Clone()
		shifted.StartTime = FormatHour(hour)
		return shifted, true
	}
	return item, false
}

func overlapsAny(candidate domain.Span, spans []domain.Span) bool {
	for _, s := range spans {
		if candidate.Overlaps(s) {
			return true
		}
	}
	return false
}

// ResolveReport lists which conflicting items were moved.
type ResolveReport struct {
	Shifted    []int `json:"shifted"`
	Unresolved []int `json:"unresolved"`
}

// ResolveAll shifts every item named in report once, in order of first
// conflict, targeting the item's own day of the week at anchor. The
// returned slice is a copy; items is not modified.
func ResolveAll(items []domain.PlanItem, spans []domain.Span, anchor time.Time, chronotype domain.Chronotype, report DetectionReport) ([]domain.PlanItem, ResolveReport) {
	out := make([]domain.PlanItem, len(items))
	copy(out, items)

	var rr ResolveReport
	for _, idx := range report.ConflictingIndexes() {
		target, ok := DayDate(anchor, out[idx].Day)
		if !ok {
			rr.Unresolved = append(rr.Unresolved, idx)
			continue
		}
		shifted, moved := TryShift(out[idx], spans, target, chronotype)
		if !moved {
			rr.Unresolved = append(rr.Unresolved, idx)
			continue
		}
		out[idx] = shifted
		rr.Shifted = append(rr.Shifted, idx)
	}
	return out, rr
}
