package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/weekplan/internal/llm"
)

// FakeGenerator is a concurrency-safe llm.Generator for tests. Respond, when
// set, decides each reply; otherwise Text and Err are returned as is.
type FakeGenerator struct {
	Text    string
	Err     error
	Model   string
	Respond func(req llm.GenerateRequest) (string, error)

	mu       sync.Mutex
	requests []llm.GenerateRequest
}

func (f *FakeGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := f.Text, f.Err
	if f.Respond != nil {
		text, err = f.Respond(req)
	}
	if err != nil {
		return nil, err
	}

	model := f.Model
	if model == "" {
		model = req.Model
	}
	if model == "" {
		model = "fake-model"
	}
	return &llm.GenerateResponse{Text: llm.StripEcho(req.Prompt, text), Model: model}, nil
}

// Requests returns a copy of every request received so far.
func (f *FakeGenerator) Requests() []llm.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.GenerateRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
