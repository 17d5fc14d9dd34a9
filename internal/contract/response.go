package contract

import "encoding/json"

type Status string

const (
	StatusOK          Status = "ok"
	StatusInvalidJSON Status = "invalid_json"
	StatusError       Status = "error"
)

// ErrorType names the failure class of a runtime-failure envelope.
type ErrorType string

const (
	ErrorTypeGenerationUnavailable ErrorType = "GenerationUnavailable"
	ErrorTypeGenerationTimeout     ErrorType = "GenerationTimeout"
	ErrorTypeInvalidRequest        ErrorType = "InvalidRequest"
	ErrorTypeSchemaViolation       ErrorType = "SchemaViolation"
	ErrorTypeUnexpected            ErrorType = "UnexpectedRuntimeError"
)

// ParseFailureMessage is the error text of an invalid_json envelope.
const ParseFailureMessage = "Failed to parse JSON from model output"

// PlanStats is the success-only part of Metadata.
type PlanStats struct {
	ConflictsBefore  int    `json:"conflicts_before"`
	ConflictsAfter   int    `json:"conflicts_after"`
	WeekStart        string `json:"week_start"`
	SkippedItems     int    `json:"skipped_items"`
	SkippedIntervals int    `json:"skipped_intervals"`
	ShiftedItems     int    `json:"shifted_items"`
	UnresolvedItems  int    `json:"unresolved_items"`
	LatencyMs        int64  `json:"latency_ms"`
}

type Metadata struct {
	RequestID string  `json:"request_id"`
	ModelUsed string  `json:"model_used"`
	RawText   *string `json:"raw_text,omitempty"`
	*PlanStats
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PlanResponse is one of three envelopes: success, parse failure or
// runtime failure. Use the constructors rather than building it by hand.
type PlanResponse struct {
	Success   bool            `json:"success"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorType ErrorType       `json:"error_type,omitempty"`
	RawOutput *string         `json:"raw_output,omitempty"`
	Metadata  Metadata        `json:"metadata"`
}

func NewSuccess(requestID, model, rawText string, output json.RawMessage, stats PlanStats) *PlanResponse {
	return &PlanResponse{
		Success: true,
		Output:  output,
		Metadata: Metadata{
			RequestID: requestID,
			ModelUsed: model,
			RawText:   &rawText,
			PlanStats: &stats,
			Status:    StatusOK,
		},
	}
}

func NewParseFailure(requestID, model, rawText string) *PlanResponse {
	return &PlanResponse{
		Success:   false,
		Error:     ParseFailureMessage,
		RawOutput: &rawText,
		Metadata: Metadata{
			RequestID: requestID,
			ModelUsed: model,
			RawText:   &rawText,
			Status:    StatusInvalidJSON,
		},
	}
}

func NewRuntimeFailure(requestID, model string, errType ErrorType, err error) *PlanResponse {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &PlanResponse{
		Success:   false,
		Error:     msg,
		ErrorType: errType,
		Metadata: Metadata{
			RequestID: requestID,
			ModelUsed: model,
			Status:    StatusError,
			Error:     msg,
		},
	}
}
