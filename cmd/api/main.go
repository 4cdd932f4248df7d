package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"postergen/internal/bootstrap"
	"postergen/internal/http/handlers"
	httpapi "postergen/internal/http/httpapi"
	"postergen/internal/infra"
	"postergen/internal/infra/geoip"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.Build(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation pipeline")
	}
	defer pipeline.Close()

	routerOpts := httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if countries != nil {
		defer countries.Close()
		routerOpts.Countries = countries
	}

	app := handlers.NewApp(pipeline.Session)
	router := httpapi.NewRouter(app, routerOpts)

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().
		Str("prompt_provider", cfg.PromptProvider).
		Bool("credential_store", pipeline.Store != nil).
		Msgf("API listening on %s", server.Addr())

	if err := server.Run(ctx, nil); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}
