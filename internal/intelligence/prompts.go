package intelligence

import (
	"encoding/json"
	"strings"

	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

// planPreamble tells the model what it is and what it must not do.
const planPreamble = `You are a weekly planning assistant.
Turn the user's goal into a realistic schedule for one week (Monday to Sunday).
Respect the user's profile and never place tasks inside a busy interval.
Answer with JSON only: no markdown, no commentary, no trailing text.`

// planSchema is the shape of the object the model must return.
const planSchema = `{
  "weekly_plan": [
    {
      "task_name": "string",
      "day": "Mon|Tue|Wed|Thu|Fri|Sat|Sun",
      "start_time": "HH:MM or a time phrase from TIME_RULES",
      "duration_minutes": 60,
      "recurrence": "daily|weekly|none",
      "location": "optional string"
    }
  ],
  "milestones": [
    {
      "date": "YYYY-MM-DD",
      "goal": "string"
    }
  ]
}`

const planOutputInstruction = "OUTPUT: Return a single raw JSON object exactly matching the schema above."

// BuildPrompt assembles the generation prompt. Blocks are separated by a
// blank line and labelled so the model can tell them apart.
func BuildPrompt(profile domain.UserProfile, busy []string, goal string, vocab *vocabulary.Vocabulary) string {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		profileJSON = []byte("{}")
	}

	busyBlock := "none"
	if len(busy) > 0 {
		busyBlock = strings.Join(busy, "\n")
	}

	parts := []string{
		planPreamble,
		"SCHEMA:",
		planSchema,
		"TIME_RULES:",
		vocab.PromptRules(),
		"USER_PROFILE:",
		string(profileJSON),
		"BUSY_INTERVALS:",
		busyBlock,
		"GOAL:",
		goal,
		planOutputInstruction,
	}
	return strings.Join(parts, "\n\n")
}
