package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/weekplan/internal/scheduler"
)

const taskColumnWidth = 32

// itemState is how a plan row is labelled in the check table.
type itemState int

const (
	stateOK itemState = iota
	stateShifted
	stateConflict
	stateSkipped
)

func (s itemState) render() string {
	switch s {
	case stateShifted:
		return StyleYellow.Render("↷ shifted")
	case stateConflict:
		return StyleRed.Render("✖ conflict")
	case stateSkipped:
		return StyleDim.Render("– skipped")
	default:
		return StyleGreen.Render("● ok")
	}
}

// FormatCheck renders a processed plan as a table followed by a summary of
// conflicts before and after resolution.
func FormatCheck(res scheduler.Result) string {
	states := make(map[int]itemState, len(res.Items))
	for _, sk := range res.After.SkippedItems {
		states[sk.Index] = stateSkipped
	}
	for _, idx := range res.Resolution.Shifted {
		states[idx] = stateShifted
	}
	for _, idx := range res.After.ConflictingIndexes() {
		states[idx] = stateConflict
	}

	headers := []string{"#", "DAY", "START", "DURATION", "TASK", "STATE"}
	rows := make([][]string, 0, len(res.Items))
	for i, item := range res.Items {
		rows = append(rows, []string{
			Dim(strconv.Itoa(i)),
			OrDash(item.Day),
			OrDash(item.StartTime),
			FormatMinutes(item.Duration()),
			Truncate(item.TaskName, taskColumnWidth),
			states[i].render(),
		})
	}

	var b strings.Builder
	b.WriteString(Header("Week of " + res.WeekStart))
	b.WriteString("\n\n")
	if len(rows) == 0 {
		b.WriteString(Dim("No plan items."))
		b.WriteString("\n")
	} else {
		b.WriteString(RenderTable(headers, rows))
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Before %s  After %s  %s  %s\n",
		ConflictIndicator(res.Before.Count()),
		ConflictIndicator(res.After.Count()),
		StyleYellow.Render(fmt.Sprintf("%d shifted", len(res.Resolution.Shifted))),
		StyleRed.Render(fmt.Sprintf("%d unresolved", len(res.Resolution.Unresolved))),
	))

	for _, sk := range res.After.SkippedItems {
		b.WriteString(Dim(fmt.Sprintf("  skipped item %d: %s", sk.Index, sk.Reason)))
		b.WriteString("\n")
	}
	for _, sk := range res.SkippedIntervals {
		b.WriteString(Dim(fmt.Sprintf("  skipped interval %q: %s", sk.Value, sk.Reason)))
		b.WriteString("\n")
	}
	return b.String()
}
