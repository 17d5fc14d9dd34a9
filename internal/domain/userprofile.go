package domain

import "encoding/json"

const (
	DefaultTimezone = "UTC"
)

const (
	keyUserID      = "user_id"
	keyChronotype  = "chronotype"
	keyTimezone    = "timezone"
	keyPreferences = "preferences"
)

// UserProfile describes the person the plan is generated for. Only
// Chronotype influences scheduling; the rest is forwarded to the model.
// Keys beyond the known fields, and known keys whose value has an
// unexpected shape, are kept in Extra and forwarded unchanged.
type UserProfile struct {
	UserID      any
	Chronotype  Chronotype
	Timezone    string
	Preferences map[string]any

	Extra map[string]json.RawMessage
}

// DefaultUserProfile returns the profile used when a request carries none.
func DefaultUserProfile() UserProfile {
	return UserProfile{
		Chronotype:  ChronoNeutral,
		Timezone:    DefaultTimezone,
		Preferences: map[string]any{},
	}
}

// WithDefaults fills empty fields from DefaultUserProfile.
func (p UserProfile) WithDefaults() UserProfile {
	def := DefaultUserProfile()
	if _, shadowed := p.Extra[keyChronotype]; !shadowed {
		p.Chronotype = Chronotype(CoalesceStr(string(p.Chronotype), string(def.Chronotype)))
	}
	if _, shadowed := p.Extra[keyTimezone]; !shadowed {
		p.Timezone = CoalesceStr(p.Timezone, def.Timezone)
	}
	if _, shadowed := p.Extra[keyPreferences]; !shadowed && p.Preferences == nil {
		p.Preferences = def.Preferences
	}
	return p
}

// SchedulingChronotype is the chronotype normalization and conflict
// resolution act on: trimmed and lower-cased, neutral when empty.
func (p UserProfile) SchedulingChronotype() Chronotype {
	return ParseChronotype(string(p.Chronotype))
}

// UnmarshalJSON accepts any JSON value for user_id. A chronotype or
// timezone that is not a string, or preferences that are not an object,
// go to Extra rather than failing the request.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out UserProfile
	for key, val := range raw {
		switch key {
		case keyUserID:
			if err := json.Unmarshal(val, &out.UserID); err != nil {
				return err
			}
		case keyChronotype, keyTimezone:
			var s string
			if isJSONNull(val) || json.Unmarshal(val, &s) != nil {
				out.setExtra(key, val)
				continue
			}
			if key == keyChronotype {
				out.Chronotype = Chronotype(s)
			} else {
				out.Timezone = s
			}
		case keyPreferences:
			if isJSONNull(val) || json.Unmarshal(val, &out.Preferences) != nil {
				out.Preferences = nil
				out.setExtra(key, val)
			}
		default:
			out.setExtra(key, val)
		}
	}

	*p = out
	return nil
}

// MarshalJSON writes user_id, chronotype, timezone and preferences in that
// order, then Extra keys sorted.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	var w objectWriter
	known := []struct {
		key string
		val any
	}{
		{keyUserID, p.UserID},
		{keyChronotype, p.Chronotype},
		{keyTimezone, p.Timezone},
		{keyPreferences, p.Preferences},
	}
	for _, f := range known {
		if _, shadowed := p.Extra[f.key]; shadowed {
			continue
		}
		if err := w.field(f.key, f.val); err != nil {
			return nil, err
		}
	}
	if err := w.extra(p.Extra); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (p *UserProfile) setExtra(key string, val json.RawMessage) {
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	p.Extra[key] = val
}
