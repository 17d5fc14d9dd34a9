package intelligence

import (
	"context"
	"errors"

	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/llm"
)

// ErrSchemaViolation indicates the model returned a well-formed object whose
// weekly_plan is not an array of objects.
var ErrSchemaViolation = errors.New("schema violation")

// classifyError maps a pipeline error to the error_type of the runtime
// failure envelope.
func classifyError(err error) contract.ErrorType {
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return contract.ErrorTypeGenerationTimeout
	case errors.Is(err, llm.ErrGenerationUnavailable), errors.Is(err, llm.ErrRetryExhausted):
		return contract.ErrorTypeGenerationUnavailable
	case errors.Is(err, contract.ErrInvalidRequest):
		return contract.ErrorTypeInvalidRequest
	case errors.Is(err, ErrSchemaViolation):
		return contract.ErrorTypeSchemaViolation
	default:
		return contract.ErrorTypeUnexpected
	}
}
