package domain

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// DefaultDurationMinutes is applied to items that arrive without a duration.
const DefaultDurationMinutes = 60

const (
	keyTaskName   = "task_name"
	keyDay        = "day"
	keyStartTime  = "start_time"
	keyDuration   = "duration_minutes"
	keyRecurrence = "recurrence"
	keyLocation   = "location"
)

var planItemKeys = []string{keyTaskName, keyDay, keyStartTime, keyDuration, keyRecurrence, keyLocation}

// PlanItem is one scheduled task proposed by the model. Keys the model
// emits beyond the known fields are kept in Extra and written back out
// unchanged, so normalization never drops data.
type PlanItem struct {
	TaskName        string
	Day             string
	StartTime       string
	DurationMinutes *int
	Recurrence      string
	Location        *string

	Extra map[string]json.RawMessage

	// decoded holds the input value of each known key that decoded to a
	// zero field; nil marks a key the input did not carry. Such keys are
	// written back as they arrived until the field is set.
	decoded map[string]json.RawMessage
}

// Duration returns the item's duration in minutes, DefaultDurationMinutes when unset.
func (p PlanItem) Duration() int {
	return IntFromPtrWithDefault(DefaultDurationMinutes, p.DurationMinutes)
}

// Clone returns a deep copy that shares no pointers or maps with p.
func (p PlanItem) Clone() PlanItem {
	out := p
	if p.DurationMinutes != nil {
		out.DurationMinutes = IntPtr(*p.DurationMinutes)
	}
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	out.Extra = cloneRaw(p.Extra)
	out.decoded = cloneRaw(p.decoded)
	return out
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// UnmarshalJSON decodes leniently: scalar fields accept strings, numbers and
// booleans; a known key holding a non-scalar value is kept verbatim in Extra.
func (p *PlanItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var item PlanItem
	for key, val := range raw {
		switch key {
		case keyTaskName, keyDay, keyStartTime, keyRecurrence, keyLocation:
			s, ok := coerceString(val)
			if !ok {
				item.setExtra(key, val)
				continue
			}
			switch key {
			case keyTaskName:
				item.TaskName = s
			case keyDay:
				item.Day = s
			case keyStartTime:
				item.StartTime = s
			case keyRecurrence:
				item.Recurrence = s
			case keyLocation:
				if !isJSONNull(val) {
					loc := s
					item.Location = &loc
				}
			}
		case keyDuration:
			item.DurationMinutes = coerceMinutes(val)
		default:
			item.setExtra(key, val)
		}
	}

	for _, key := range planItemKeys {
		val, present := raw[key]
		if _, zero := item.field(key); !zero {
			continue
		}
		if _, shadowed := item.Extra[key]; shadowed {
			continue
		}
		if item.decoded == nil {
			item.decoded = make(map[string]json.RawMessage)
		}
		if present {
			item.decoded[key] = val
		} else {
			item.decoded[key] = nil
		}
	}

	*p = item
	return nil
}

// field returns the value written for key and whether it is the zero value.
func (p PlanItem) field(key string) (any, bool) {
	switch key {
	case keyTaskName:
		return p.TaskName, p.TaskName == ""
	case keyDay:
		return p.Day, p.Day == ""
	case keyStartTime:
		return p.StartTime, p.StartTime == ""
	case keyDuration:
		return p.DurationMinutes, p.DurationMinutes == nil
	case keyRecurrence:
		return p.Recurrence, p.Recurrence == ""
	case keyLocation:
		return p.Location, p.Location == nil
	}
	return nil, true
}

// MarshalJSON writes known fields first, in schema order, followed by
// Extra keys in sorted order. A decoded item keeps the keys it arrived
// with: absent keys stay absent and null stays null until the field is set.
// location is omitted when unset.
func (p PlanItem) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for _, key := range planItemKeys {
		if _, shadowed := p.Extra[key]; shadowed {
			continue
		}
		val, zero := p.field(key)
		if orig, tracked := p.decoded[key]; tracked && zero {
			if orig == nil {
				continue
			}
			val = orig
		} else if key == keyLocation && zero {
			continue
		}
		if err := w.field(key, val); err != nil {
			return nil, err
		}
	}
	if err := w.extra(p.Extra); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (p *PlanItem) setExtra(key string, val json.RawMessage) {
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	p.Extra[key] = val
}

// coerceString turns a JSON scalar into a string. ok is false for objects
// and arrays.
func coerceString(val json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(val, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// coerceMinutes accepts JSON numbers and numeric strings. Anything else,
// including null, is reported as absent.
func coerceMinutes(val json.RawMessage) *int {
	var v any
	if err := json.Unmarshal(val, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return IntPtr(int(math.Round(t)))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		return IntPtr(int(math.Round(f)))
	default:
		return nil
	}
}
