package domain

import "strings"

type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
	Sun Weekday = "Sun"
)

// WeekDays lists the canonical day tokens in week order, Monday first.
var WeekDays = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

var weekdayOffsets = map[Weekday]int{
	Mon: 0, Tue: 1, Wed: 2, Thu: 3, Fri: 4, Sat: 5, Sun: 6,
}

// weekdayAliases maps lower-cased tokens and full English names to the canonical token.
var weekdayAliases = map[string]Weekday{
	"mon": Mon, "tue": Tue, "wed": Wed, "thu": Thu, "fri": Fri, "sat": Sat, "sun": Sun,
	"monday": Mon, "tuesday": Tue, "wednesday": Wed, "thursday": Thu,
	"friday": Fri, "saturday": Sat, "sunday": Sun,
}

// Offset returns the number of days from Monday. ok is false for
// anything that is not one of the seven canonical tokens.
func (d Weekday) Offset() (int, bool) {
	n, ok := weekdayOffsets[d]
	return n, ok
}

// CanonicalWeekday maps a free-form day name (case-insensitive token or
// full English name) to its canonical token.
func CanonicalWeekday(s string) (Weekday, bool) {
	d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Chronotype is the user's self-described time-of-day preference. Values
// outside the three known ones are allowed and behave like ChronoNeutral.
type Chronotype string

const (
	ChronoMorning Chronotype = "morning"
	ChronoEvening Chronotype = "evening"
	ChronoNeutral Chronotype = "neutral"
)

// ParseChronotype lower-cases and trims s. Empty input maps to ChronoNeutral.
func ParseChronotype(s string) Chronotype {
	c := strings.ToLower(strings.TrimSpace(s))
	if c == "" {
		return ChronoNeutral
	}
	return Chronotype(c)
}

type Recurrence string

const (
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
	RecurrenceNone   Recurrence = "none"
)
