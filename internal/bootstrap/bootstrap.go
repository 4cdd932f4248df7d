// Package bootstrap assembles the generation pipeline from configuration.
// Both the HTTP API and the CLI go through Build so they share one credential
// chain and one retry policy.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"postergen/internal/infra"
	"postergen/internal/infra/credentials"
	"postergen/internal/providers/genai"
	"postergen/internal/providers/image"
	"postergen/internal/providers/prompt"
	"postergen/internal/providers/video"
	"postergen/internal/retry"
	"postergen/internal/session"
)

// GeminiKeyEnv lists the variables consulted for the Gemini key, in order.
var GeminiKeyEnv = []string{"GEMINI_API_KEY", "API_KEY"}

type Pipeline struct {
	Session *session.Session
	Videos  *video.Orchestrator
	Store   *credentials.Store

	pool *pgxpool.Pool
}

// Close releases the database pool, if one was opened.
func (p *Pipeline) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// Build wires providers, retry policy and session. When DATABASE_URL is set
// the persisted credential store is consulted between the per-request
// override and the environment.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	p := &Pipeline{}

	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.pool = pool
		p.Store = credentials.NewStore(infra.NewSQLRunner(pool, *logger))
		if err := p.Store.EnsureSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("credential store schema check failed")
		}
	}

	executor := retry.New(logger)
	executor.MaxAttempts = cfg.RetryMaxAttempts

	factory, err := genai.NewFactory(genai.Options{
		Credentials: Credentials(p.Store, credentials.ProviderGemini, GeminiKeyEnv...),
		BaseURL:     cfg.GeminiBaseURL,
		Logger:      logger,
	})
	if err != nil {
		p.Close()
		return nil, err
	}

	refiner, err := newRefiner(cfg, factory, executor, p.Store, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	images, err := image.NewGeminiGenerator(image.GeminiOptions{
		Clients: factory,
		Model:   cfg.GeminiImageModel,
		Retry:   executor,
		Logger:  logger,
	})
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Videos, err = video.NewOrchestrator(video.Options{
		Clients:      factory,
		Model:        cfg.GeminiVideoModel,
		Retry:        executor,
		PollInterval: cfg.VideoPollInterval,
		QuotaBackoff: cfg.VideoQuotaBackoff,
		MaxPolls:     cfg.VideoMaxPolls,
		Logger:       logger,
	})
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Session, err = session.New(session.Options{
		Refiner: refiner,
		Images:  images,
		Videos:  p.Videos,
		Logger:  logger,
	})
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Credentials builds the lookup order for provider: request override, then
// the persisted store (when present), then the environment.
func Credentials(store *credentials.Store, provider string, envNames ...string) credentials.Source {
	sources := []credentials.Source{credentials.Override(provider)}
	if store != nil {
		sources = append(sources, store.Source(provider))
	}
	sources = append(sources, credentials.Env(envNames...))
	return credentials.Chain(sources...)
}

func newRefiner(cfg *infra.Config, factory *genai.Factory, executor *retry.Executor, store *credentials.Store, logger *infra.Logger) (prompt.Refiner, error) {
	switch cfg.PromptProvider {
	case infra.PromptProviderOpenAI:
		return prompt.NewOpenAIRefiner(prompt.OpenAIOptions{
			Credentials:   Credentials(store, credentials.ProviderOpenAI, "OPENAI_API_KEY"),
			Model:         cfg.OpenAIModel,
			BaseURL:       cfg.OpenAIBaseURL,
			Organization:  cfg.OpenAIOrg,
			Retry:         executor,
			DefaultLocale: cfg.DefaultLocale,
			Logger:        logger,
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("openai refiner")
			},
		})
	default:
		return prompt.NewGeminiRefiner(prompt.GeminiOptions{
			Clients:       factory,
			Model:         cfg.GeminiTextModel,
			Retry:         executor,
			DefaultLocale: cfg.DefaultLocale,
			Logger:        logger,
		})
	}
}
