package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// FormatVocabulary renders the phrase table with the hour each chronotype
// would pick inside the window.
func FormatVocabulary(v *vocabulary.Vocabulary) string {
	headers := []string{"PHRASE", "WINDOW", "MORNING", "NEUTRAL"}
	entries := v.Entries()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			Bold(e.Phrase),
			StyleBlue.Render(e.Window.String()),
			fmt.Sprintf("%02d:00", v.ChooseHour(e.Window, domain.ChronoMorning)),
			fmt.Sprintf("%02d:00", v.ChooseHour(e.Window, domain.ChronoNeutral)),
		})
	}

	var b strings.Builder
	b.WriteString(Header("Time vocabulary"))
	b.WriteString("\n\n")
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("Unknown phrases fall back to %s; \"weekend\" maps to %s.",
		v.ResolveWindow("").String(), v.ResolveWindow("weekend").String())))
	b.WriteString("\n")
	return b.String()
}
