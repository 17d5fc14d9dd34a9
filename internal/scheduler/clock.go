package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinShiftHour and MaxShiftHour bound the hours the resolver may move an item to.
	MinShiftHour = 6
	MaxShiftHour = 22

	fallbackHour = 8
)

// DefaultStartTime is where conflict detection places an item with no start time.
const DefaultStartTime = "09:00"

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses "H:MM" or "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// FormatHour renders an hour as "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// currentHour reads the integer before the first ':' of a start time.
// Unparsable values yield fallbackHour.
func currentHour(startTime string) int {
	head, _, _ := strings.Cut(startTime, ":")
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return fallbackHour
	}
	return h
}
