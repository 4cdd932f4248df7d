package prompt

import (
	"context"
	"errors"
	"strings"

	"postergen/internal/domain"
	"postergen/internal/infra"
	"postergen/internal/providers/genai"
	"postergen/internal/retry"
)

type GeminiOptions struct {
	Clients       *genai.Factory
	Model         string
	Retry         *retry.Executor
	DefaultLocale string
	Logger        *infra.Logger
}

type GeminiRefiner struct {
	clients       *genai.Factory
	model         string
	retry         *retry.Executor
	defaultLocale string
	logger        *infra.Logger
}

func NewGeminiRefiner(opts GeminiOptions) (*GeminiRefiner, error) {
	if opts.Clients == nil {
		return nil, errors.New("gemini client factory is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	executor := opts.Retry
	if executor == nil {
		executor = retry.New(logger)
	}
	return &GeminiRefiner{
		clients:       opts.Clients,
		model:         model,
		retry:         executor,
		defaultLocale: opts.DefaultLocale,
		logger:        logger,
	}, nil
}

func (g *GeminiRefiner) Refine(ctx context.Context, rawText string) (domain.StructuredContent, error) {
	if strings.TrimSpace(rawText) == "" {
		return domain.StructuredContent{}, emptyInput()
	}
	locale := LocaleFromContext(ctx, g.defaultLocale)
	req := genai.GenerateContentRequest{
		Contents: genai.UserText(buildRefinePrompt(rawText, locale)),
		GenerationConfig: &genai.GenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   contentSchema(),
		},
	}
	return retry.Do(ctx, g.retry, "refine", func(ctx context.Context) (domain.StructuredContent, error) {
		client, err := g.clients.Client(ctx)
		if err != nil {
			return domain.StructuredContent{}, err
		}
		resp, err := client.GenerateContent(ctx, g.model, req)
		if err != nil {
			return domain.StructuredContent{}, err
		}
		content, err := decodeContent(resp.Text())
		if err != nil {
			g.logger.Warn().
				Err(err).
				Str("provider", geminiProviderName).
				Str("model", g.model).
				Msg("prompt: unusable refinement payload")
			return domain.StructuredContent{}, err
		}
		return content, nil
	})
}

func contentSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(fieldOrder))
	for _, name := range fieldOrder {
		props[name] = &genai.Schema{Type: "STRING", Description: fieldDescriptions[name]}
	}
	return &genai.Schema{
		Type:       "OBJECT",
		Properties: props,
		Required:   append([]string(nil), fieldOrder...),
	}
}

var _ Refiner = (*GeminiRefiner)(nil)
