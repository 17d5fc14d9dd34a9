package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient implements Generator on the Gemini API.
type geminiClient struct {
	cfg      LLMConfig
	client   *genai.Client
	observer Observer
}

// NewGeminiClient creates a Generator backed by Gemini. cfg.APIKey is
// required; a non-empty cfg.Endpoint replaces the default API base URL.
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", ErrGenerationUnavailable)
	}
	if observer == nil {
		observer = NoopObserver{}
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" && cfg.Endpoint != DefaultConfig().Endpoint {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", ErrGenerationUnavailable, err)
	}

	return &geminiClient{cfg: cfg, client: client, observer: observer}, nil
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model, temp, topP, maxTok := c.cfg.resolve(req)

	gcfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temp)),
		TopP:            genai.Ptr(float32(topP)),
		MaxOutputTokens: int32(maxTok),
	}

	return generateWithRetry(ctx, c.cfg, c.observer, BackendGemini, req, model, func(ctx context.Context) (string, string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), gcfg)
		if err != nil {
			return "", "", fmt.Errorf("gemini generate failed: %w", err)
		}
		return resp.Text(), resp.ModelVersion, nil
	})
}
