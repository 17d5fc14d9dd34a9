package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

var (
	fenceOpenRe  = regexp.MustCompile("(?i)```json")
	fenceRe      = regexp.MustCompile("```")
	preambleRe   = regexp.MustCompile(`(?s)<\?.*?\?>`)
	singleOpenRe = regexp.MustCompile(`([\{\}\[\]:,])\s*'`)
	singleEndRe  = regexp.MustCompile(`'\s*([\{\}\[\]:,])`)
	trailCommaRe = regexp.MustCompile(`,\s*([\}\]])`)

	quoteReplacer = strings.NewReplacer(
		"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`,
		"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'",
	)
)

// ExtractJSON extracts a JSON object of type T from raw LLM text output.
// It handles markdown code fences, leading/trailing text, nested braces and
// the common syntax slips repaired by RepairObject.
// If validator is non-nil, the extracted value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	obj, err := Recover(raw)
	if err != nil {
		return zero, err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// Recover returns the JSON object embedded in raw model text. When no
// balanced candidate exists the whole text goes through repair.
func Recover(raw string) (map[string]json.RawMessage, error) {
	if candidate, ok := ExtractCandidate(raw); ok {
		return RepairObject(candidate)
	}
	return RepairObject(raw)
}

// ExtractCandidate returns the longest balanced {...} substring of text after
// code fences and <?...?> preambles are removed. Ties go to the earliest.
func ExtractCandidate(text string) (string, bool) {
	cleaned := stripCodeFences(text)

	best := ""
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] != '{' {
			continue
		}
		if block := extractJSONBlock(cleaned[i:]); len(block) > len(best) {
			best = block
		}
	}
	return best, best != ""
}

// RepairObject parses s as a JSON object, applying a repair pass when the
// direct parse fails.
func RepairObject(s string) (map[string]json.RawMessage, error) {
	s = strings.TrimSpace(s)

	if obj, err := parseObject(s); err == nil {
		return obj, nil
	}

	repaired := quoteReplacer.Replace(s)
	repaired = singleOpenRe.ReplaceAllString(repaired, `$1"`)
	repaired = singleEndRe.ReplaceAllString(repaired, `"$1`)
	repaired = stripJSONComments(repaired)
	repaired = normalizeLeadingDecimalNumbers(repaired)
	repaired = trailCommaRe.ReplaceAllString(repaired, "$1")

	obj, err := parseObject(repaired)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return obj, nil
}

func parseObject(s string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	// "null" decodes into a nil map without error.
	if obj == nil {
		return nil, fmt.Errorf("top-level value is not an object")
	}
	return obj, nil
}

// stripCodeFences removes markdown code fences and processing-instruction
// preambles such as <?xml ...?>.
func stripCodeFences(s string) string {
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceRe.ReplaceAllString(s, "")
	return preambleRe.ReplaceAllString(s, "")
}

// extractJSONBlock returns the balanced { ... } block starting at s[0].
func extractJSONBlock(s string) string {
	if s == "" || s[0] != '{' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return ""
}

// stripJSONComments removes C-style line comments (// ...) outside of JSON string
// values. LLMs sometimes emit comments in JSON output despite instructions not to.
func stripJSONComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}

		if inString {
			b.WriteByte(c)
			continue
		}

		// Line comment: skip to end of line
		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}
			continue
		}

		// Block comment: skip to closing */
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			i += 2
			for i+1 < len(s) {
				if s[i] == '*' && s[i+1] == '/' {
					i++
					break
				}
				i++
			}
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

// normalizeLeadingDecimalNumbers rewrites invalid JSON numeric literals such as
// ".8" or "-.3" into valid forms "0.8" and "-0.3" outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			b.WriteByte(c)
			inString = !inString
			continue
		}

		if inString {
			b.WriteByte(c)
			continue
		}

		// JSON does not allow ".5" or "-.5". Some models emit these forms.
		if c == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			b.WriteByte('0')
		}

		b.WriteByte(c)
	}

	return b.String()
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		if s[i] != ' ' && s[i] != '\n' && s[i] != '\r' && s[i] != '\t' {
			return s[i]
		}
	}
	return 0
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
