package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alexanderramin/weekplan/internal/domain"
)

// ErrInvalidRequest marks a request that cannot be processed as given.
var ErrInvalidRequest = errors.New("invalid request")

// WeekStartLayout is the date format of ref_week_start.
const WeekStartLayout = "2006-01-02"

type PlanRequest struct {
	Goal          string              `json:"goal"`
	Profile       *domain.UserProfile `json:"profile,omitempty"`
	BusyIntervals []string            `json:"busy_intervals,omitempty"`
	ModelName     string              `json:"model_name,omitempty"`
	RefWeekStart  string              `json:"ref_week_start,omitempty"`
}

func NewPlanRequest(goal string) PlanRequest {
	return PlanRequest{Goal: goal}
}

// DecodePlanRequest reads one JSON request from r.
func DecodePlanRequest(r io.Reader) (PlanRequest, error) {
	var req PlanRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return PlanRequest{}, fmt.Errorf("%w: decoding request: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// Validate checks the fields the pipeline cannot default.
func (r PlanRequest) Validate() error {
	if strings.TrimSpace(r.Goal) == "" {
		return fmt.Errorf("%w: goal is required", ErrInvalidRequest)
	}
	if r.RefWeekStart != "" {
		if _, err := time.Parse(WeekStartLayout, r.RefWeekStart); err != nil {
			return fmt.Errorf("%w: ref_week_start must be YYYY-MM-DD: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

// EffectiveProfile returns the request profile with defaults applied. The
// chronotype is kept as the caller wrote it; use SchedulingChronotype for
// the value the pipeline acts on.
func (r PlanRequest) EffectiveProfile() domain.UserProfile {
	if r.Profile == nil {
		return domain.DefaultUserProfile()
	}
	return r.Profile.WithDefaults()
}

// CheckRequest is the input document of the offline check command: a plan
// that already exists, run through the deterministic stages only.
type CheckRequest struct {
	WeeklyPlan    []domain.PlanItem `json:"weekly_plan"`
	BusyIntervals []string          `json:"busy_intervals,omitempty"`
	Chronotype    string            `json:"chronotype,omitempty"`
	RefWeekStart  string            `json:"ref_week_start,omitempty"`
}

func (r CheckRequest) Validate() error {
	if r.RefWeekStart != "" {
		if _, err := time.Parse(WeekStartLayout, r.RefWeekStart); err != nil {
			return fmt.Errorf("%w: ref_week_start must be YYYY-MM-DD: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}
