package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"reelserver/internal/generation"
	"reelserver/internal/http/handlers"
	httpapi "reelserver/internal/http/httpapi"
	"reelserver/internal/infra"
	"reelserver/internal/providers/genai"
	"reelserver/internal/providers/search"
	"reelserver/internal/providers/speech"
	"reelserver/internal/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation service")
	}

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video store")
	}

	app := handlers.NewApp(logger, gen, store)
	router := httpapi.NewRouter(app, logger, httpapi.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newGenerator(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*generation.Service, error) {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	text, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GoogleAIAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}

	searcher, err := search.NewClient(search.Options{
		APIKey:     cfg.ExaAPIKey,
		BaseURL:    cfg.ExaBaseURL,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, err
	}

	awsCfg, err := infra.NewAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	synth := speech.NewSynthesizer(awsCfg, cfg.PollyVoice)

	return generation.NewService(text, searcher, synth, logger), nil
}

func newStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.VideoStore, error) {
	if cfg.StorageBackend == "filesystem" {
		return storage.NewFileStore(cfg.StoragePath, logger)
	}
	awsCfg, err := infra.NewAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := awss3.NewFromConfig(awsCfg)
	return storage.NewS3Store(client, cfg.AWSS3Bucket, logger)
}
