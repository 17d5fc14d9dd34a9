// Package vocabulary maps vague time-of-day phrases ("evening", "after
// work") to hour windows and picks a concrete hour inside a window.
package vocabulary

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/weekplan/internal/domain"
)

// Window is an hour range [Start, End] on a 24-hour clock.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Midpoint returns floor((Start+End)/2).
func (w Window) Midpoint() int {
	return (w.Start + w.End) / 2
}

// Contains reports whether hour lies within the window, edges included.
func (w Window) Contains(hour int) bool {
	return hour >= w.Start && hour <= w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.Start, w.End)
}

// Entry is one row of the phrase table.
type Entry struct {
	Phrase string `json:"phrase"`
	Window Window `json:"window"`
}

const (
	phraseMorning = "morning"
	phraseWeekend = "weekend"
)

var afterWorkPhrases = []string{"after work", "post-work"}

var defaultEntries = []Entry{
	{Phrase: "early morning", Window: Window{Start: 5, End: 7}},
	{Phrase: "morning", Window: Window{Start: 7, End: 9}},
	{Phrase: "late morning", Window: Window{Start: 9, End: 11}},
	{Phrase: "midday", Window: Window{Start: 11, End: 13}},
	{Phrase: "afternoon", Window: Window{Start: 13, End: 17}},
	{Phrase: "evening", Window: Window{Start: 18, End: 21}},
	{Phrase: "night", Window: Window{Start: 21, End: 23}},
}

// AfterWorkWindow is returned for phrases mentioning "after work" or "post-work".
var AfterWorkWindow = Window{Start: 17, End: 19}

// Vocabulary is an immutable phrase table. Build it once and share it.
type Vocabulary struct {
	entries []Entry
	index   map[string]Window
}

var defaultVocabulary = New(defaultEntries)

// Default returns the built-in table shared by the whole process.
func Default() *Vocabulary {
	return defaultVocabulary
}

// New builds a Vocabulary from entries. Order matters: substring matching
// walks entries in the order given. The table must contain "morning", which
// is the fallback window.
func New(entries []Entry) *Vocabulary {
	v := &Vocabulary{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]Window, len(entries)),
	}
	for _, e := range entries {
		phrase := strings.ToLower(strings.TrimSpace(e.Phrase))
		v.entries = append(v.entries, Entry{Phrase: phrase, Window: e.Window})
		v.index[phrase] = e.Window
	}
	return v
}

// Entries returns a copy of the table in definition order.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// ResolveWindow maps a phrase to an hour window. Lookup is case-insensitive
// and whitespace-trimmed, and always succeeds: unknown phrases get the
// morning window.
func (v *Vocabulary) ResolveWindow(phrase string) Window {
	p := strings.ToLower(strings.TrimSpace(phrase))

	if w, ok := v.index[p]; ok {
		return w
	}
	if strings.Contains(p, phraseWeekend) {
		return v.index[phraseMorning]
	}
	for _, aw := range afterWorkPhrases {
		if strings.Contains(p, aw) {
			return AfterWorkWindow
		}
	}
	for _, e := range v.entries {
		if strings.Contains(p, e.Phrase) {
			return e.Window
		}
	}
	return v.index[phraseMorning]
}

// ChooseHour picks a concrete hour inside w. Morning people get the start
// of the window, everyone else the midpoint.
func (v *Vocabulary) ChooseHour(w Window, chronotype domain.Chronotype) int {
	if chronotype == domain.ChronoMorning {
		return w.Start
	}
	return w.Midpoint()
}

// Resolve combines ResolveWindow and ChooseHour.
func (v *Vocabulary) Resolve(phrase string, chronotype domain.Chronotype) int {
	return v.ChooseHour(v.ResolveWindow(phrase), chronotype)
}

// PromptRules renders the table as the TIME_RULES block of the model prompt.
func (v *Vocabulary) PromptRules() string {
	lines := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		lines = append(lines, fmt.Sprintf("- %q -> %s", e.Phrase, e.Window))
	}
	return strings.Join(lines, "\n")
}
