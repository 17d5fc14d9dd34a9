package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
)

// ErrMalformedInterval marks a busy interval or timestamp that cannot be parsed.
var ErrMalformedInterval = errors.New("malformed busy interval")

// Date, optional clock with seconds and fraction, optional zone designator.
var isoRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}):(\d{2})(?::(\d{2})(?:[.,](\d+))?)?)?(Z|[+-]\d{2}:?\d{2})?$`)

// ParseTimestamp parses an ISO-8601 timestamp into a naive wall-clock time.
// Any zone offset is discarded, not applied: "09:00+02:00" becomes 09:00.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	m := isoRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrMalformedInterval, s)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	var hour, minute, sec, nsec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}
	if frac := m[7]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		nsec, _ = strconv.Atoi(frac)
	}

	if month < 1 || month > 12 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: out of range timestamp %q", ErrMalformedInterval, s)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, time.UTC)
	// time.Date normalizes Feb 30 into March; reject instead.
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrMalformedInterval, s)
	}
	return t, nil
}

// ParseBusyInterval parses "<start>/<end>".
func ParseBusyInterval(s string) (domain.Span, error) {
	if strings.Count(s, "/") != 1 {
		return domain.Span{}, fmt.Errorf("%w: expected exactly one '/' in %q", ErrMalformedInterval, s)
	}
	startStr, endStr, _ := strings.Cut(s, "/")

	start, err := ParseTimestamp(startStr)
	if err != nil {
		return domain.Span{}, err
	}
	end, err := ParseTimestamp(endStr)
	if err != nil {
		return domain.Span{}, err
	}
	return domain.Span{Start: start, End: end}, nil
}

// ParseBusyIntervals parses every interval, recording the malformed ones as
// skips rather than failing.
func ParseBusyIntervals(intervals []string) ([]domain.Span, []domain.Skip) {
	spans := make([]domain.Span, 0, len(intervals))
	var skipped []domain.Skip
	for i, s := range intervals {
		span, err := ParseBusyInterval(s)
		if err != nil {
			skipped = append(skipped, domain.Skip{Index: i, Value: s, Reason: err.Error()})
			continue
		}
		spans = append(spans, span)
	}
	return spans, skipped
}
