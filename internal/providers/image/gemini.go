// Package image produces poster background images.
package image

import (
	"context"
	"errors"
	"strings"

	"postergen/internal/domain"
	"postergen/internal/infra"
	"postergen/internal/providers/genai"
	"postergen/internal/retry"
)

// AspectRatio is the portrait ratio used for every poster background.
const AspectRatio = "3:4"

// NoImageMessage is surfaced when the model answers without an image,
// usually a content-policy refusal.
const NoImageMessage = "The AI did not produce a background image this time."

// Generator is the contract implemented by image providers.
type Generator interface {
	Generate(ctx context.Context, promptSeed string) (domain.ImageAsset, error)
}

type GeminiOptions struct {
	Clients *genai.Factory
	Model   string
	Retry   *retry.Executor
	Logger  *infra.Logger
}

type GeminiGenerator struct {
	clients *genai.Factory
	model   string
	retry   *retry.Executor
	logger  *infra.Logger
}

func NewGeminiGenerator(opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.Clients == nil {
		return nil, errors.New("gemini client factory is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	executor := opts.Retry
	if executor == nil {
		executor = retry.New(logger)
	}
	return &GeminiGenerator{clients: opts.Clients, model: model, retry: executor, logger: logger}, nil
}

// Generate returns the first image part of the answer. An answer without one
// is a permanent failure and is not retried.
func (g *GeminiGenerator) Generate(ctx context.Context, promptSeed string) (domain.ImageAsset, error) {
	req := genai.GenerateContentRequest{
		Contents: genai.UserText(BuildBackgroundPrompt(promptSeed)),
		GenerationConfig: &genai.GenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &genai.ImageConfig{AspectRatio: AspectRatio},
		},
	}
	return retry.Do(ctx, g.retry, "image", func(ctx context.Context) (domain.ImageAsset, error) {
		client, err := g.clients.Client(ctx)
		if err != nil {
			return domain.ImageAsset{}, err
		}
		resp, err := client.GenerateContent(ctx, g.model, req)
		if err != nil {
			return domain.ImageAsset{}, err
		}
		blob := resp.FirstInlineData()
		if blob == nil {
			reason := ""
			if resp.PromptFeedback != nil {
				reason = resp.PromptFeedback.BlockReason
			}
			g.logger.Debug().
				Str("model", g.model).
				Str("block_reason", reason).
				Msg("image: answer carried no image part")
			return domain.ImageAsset{}, domain.NewUserError(domain.ErrNoImage, NoImageMessage)
		}
		data, err := genai.DecodeInline(blob)
		if err != nil || len(data) == 0 {
			return domain.ImageAsset{}, domain.NewUserError(domain.ErrNoImage, NoImageMessage)
		}
		mime := blob.MimeType
		if mime == "" {
			mime = domain.DefaultImageMIME
		}
		return domain.ImageAsset{Data: data, MIME: mime}, nil
	})
}

var _ Generator = (*GeminiGenerator)(nil)
