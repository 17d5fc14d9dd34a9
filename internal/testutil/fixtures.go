package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/weekplan/internal/domain"
)

// Plan item options
type ItemOption func(*domain.PlanItem)

func WithDay(day string) ItemOption {
	return func(p *domain.PlanItem) {
		p.Day = day
	}
}

func WithStart(start string) ItemOption {
	return func(p *domain.PlanItem) {
		p.StartTime = start
	}
}

func WithDuration(min int) ItemOption {
	return func(p *domain.PlanItem) {
		p.DurationMinutes = domain.IntPtr(min)
	}
}

func WithoutDuration() ItemOption {
	return func(p *domain.PlanItem) {
		p.DurationMinutes = nil
	}
}

func WithRecurrence(r string) ItemOption {
	return func(p *domain.PlanItem) {
		p.Recurrence = r
	}
}

func WithLocation(loc string) ItemOption {
	return func(p *domain.PlanItem) {
		p.Location = &loc
	}
}

// WithExtra adds a passthrough key. value is JSON-encoded.
func WithExtra(key string, value any) ItemOption {
	return func(p *domain.PlanItem) {
		raw, err := json.Marshal(value)
		if err != nil {
			panic(fmt.Sprintf("testutil: encoding extra %q: %v", key, err))
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		p.Extra[key] = raw
	}
}

// NewTestItem returns a one-hour Monday 09:00 item with the given options applied.
func NewTestItem(task string, opts ...ItemOption) domain.PlanItem {
	item := domain.PlanItem{
		TaskName:        task,
		Day:             string(domain.Mon),
		StartTime:       "09:00",
		DurationMinutes: domain.IntPtr(60),
		Recurrence:      string(domain.RecurrenceNone),
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// PlanJSON renders items as a model reply: {"weekly_plan": [...]}.
func PlanJSON(items ...domain.PlanItem) string {
	if items == nil {
		items = []domain.PlanItem{}
	}
	raw, err := json.Marshal(map[string]any{"weekly_plan": items})
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding plan: %v", err))
	}
	return string(raw)
}
