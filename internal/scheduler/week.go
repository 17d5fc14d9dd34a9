package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
)

const dateLayout = "2006-01-02"

// NextMonday returns the Monday of the calendar week after now, at midnight.
// A Monday yields the following Monday.
func NextMonday(now time.Time) time.Time {
	mondayIndex := (int(now.Weekday()) + 6) % 7
	days := 7 - mondayIndex
	return time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, time.UTC)
}

// ParseWeekStart parses a YYYY-MM-DD anchor date. The date is used as
// Monday whatever weekday it falls on.
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week start %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a week anchor as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DayDate returns anchor shifted by the canonical day's offset.
func DayDate(anchor time.Time, day string) (time.Time, bool) {
	offset, ok := domain.Weekday(day).Offset()
	if !ok {
		return time.Time{}, false
	}
	return anchor.AddDate(0, 0, offset), true
}

func atClock(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}
