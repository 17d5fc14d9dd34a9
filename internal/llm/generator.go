package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// GenerateRequest holds the parameters for an LLM generation call.
// Nil parameters fall back to the backend's LLMConfig.
type GenerateRequest struct {
	Task        TaskType
	Prompt      string
	Model       string   // empty uses config model
	Temperature *float64 // nil uses config default
	TopP        *float64 // nil uses config default
	MaxTokens   *int     // nil uses config default
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Generator provides access to a language model for text generation.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate sends a prompt and returns the raw text response with any
	// echoed prompt removed.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// NewGenerator builds the Generator selected by cfg.Backend.
func NewGenerator(ctx context.Context, cfg LLMConfig, observer Observer) (Generator, error) {
	switch cfg.Backend {
	case BackendOllama, "":
		return NewOllamaClient(cfg, observer), nil
	case BackendGemini:
		return NewGeminiClient(ctx, cfg, observer)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrGenerationUnavailable, cfg.Backend)
	}
}

// Unavailable returns a Generator whose every call fails with
// ErrGenerationUnavailable wrapping cause.
func Unavailable(cause error) Generator {
	return unavailableGenerator{cause: cause}
}

type unavailableGenerator struct {
	cause error
}

func (g unavailableGenerator) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	switch {
	case g.cause == nil:
		return nil, ErrGenerationUnavailable
	case errors.Is(g.cause, ErrGenerationUnavailable):
		return nil, g.cause
	default:
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, g.cause)
	}
}

// StripEcho removes the prompt from the start of raw when the model echoed
// it back. Comparison is on trimmed text; anything else is returned trimmed.
func StripEcho(prompt, raw string) string {
	text := strings.TrimSpace(raw)
	p := strings.TrimSpace(prompt)
	if p != "" && strings.HasPrefix(text, p) {
		return strings.TrimSpace(text[len(p):])
	}
	return text
}

// attemptFunc performs one backend call. It returns the generated text and
// the model name reported by the backend.
type attemptFunc func(ctx context.Context) (text, model string, err error)

// generateWithRetry runs attempt up to 1+cfg.MaxRetries times, each under
// its own timeout, and reports the outcome to observer.
func generateWithRetry(ctx context.Context, cfg LLMConfig, observer Observer, backend Backend, req GenerateRequest, model string, attempt attemptFunc) (*GenerateResponse, error) {
	start := time.Now()

	var lastErr error
	attempts := 1 + cfg.MaxRetries
	made := 0

	for i := 0; i < attempts; i++ {
		made++
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		text, gotModel, err := attempt(attemptCtx)
		cancel()

		if err == nil {
			latency := time.Since(start).Milliseconds()
			if gotModel == "" {
				gotModel = model
			}
			observer.OnCallComplete(LLMCallEvent{
				Task:      req.Task,
				Backend:   backend,
				Model:     gotModel,
				LatencyMs: latency,
				Attempts:  made,
				Success:   true,
			})
			return &GenerateResponse{
				Text:      StripEcho(req.Prompt, text),
				Model:     gotModel,
				LatencyMs: latency,
			}, nil
		}
		lastErr = err

		// The caller gave up; further attempts cannot succeed.
		if ctx.Err() != nil {
			break
		}
	}

	finalErr := classify(ctx, lastErr)
	observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Backend:   backend,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  made,
		Success:   false,
		ErrorCode: errorCode(finalErr),
	})
	return nil, finalErr
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrGenerationUnavailable, ctx.Err())
	case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrGenerationUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
