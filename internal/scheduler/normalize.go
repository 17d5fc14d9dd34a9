package scheduler

import (
	"strings"

	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// Normalize returns normalized copies of items; the input slice is not
// modified. Normalizing an already-normalized list is a no-op.
func Normalize(items []domain.PlanItem, chronotype domain.Chronotype, vocab *vocabulary.Vocabulary) []domain.PlanItem {
	out := make([]domain.PlanItem, len(items))
	for i, item := range items {
		out[i] = NormalizeItem(item, chronotype, vocab)
	}
	return out
}

// NormalizeItem fills a missing duration, canonicalizes the day and turns a
// vague start time ("evening") into "HH:00".
func NormalizeItem(item domain.PlanItem, chronotype domain.Chronotype, vocab *vocabulary.Vocabulary) domain.PlanItem {
	out := item.Clone()

	if out.DurationMinutes == nil {
		out.DurationMinutes = domain.IntPtr(domain.DefaultDurationMinutes)
	}
	if day, ok := domain.CanonicalWeekday(out.Day); ok {
		out.Day = string(day)
	}
	if hasASCIILetter(out.StartTime) {
		out.StartTime = FormatHour(vocab.Resolve(out.StartTime, chronotype))
	}
	return out
}

func hasASCIILetter(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}
