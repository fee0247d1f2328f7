// Command reelgen runs the full reel pipeline from the terminal: research,
// narration, image download, local ffmpeg encode and upload. It is the
// server-side counterpart of the browser flow and needs ffmpeg on PATH.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"reelserver/internal/encoder"
	"reelserver/internal/fetcher"
	"reelserver/internal/generation"
	"reelserver/internal/infra"
	"reelserver/internal/pipeline"
	"reelserver/internal/providers/genai"
	"reelserver/internal/providers/search"
	"reelserver/internal/providers/speech"
	"reelserver/internal/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

func main() {
	name := flag.String("name", "", "athlete to generate a reel for")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall pipeline timeout")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: reelgen -name \"Athlete Name\"")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger, *name); err != nil {
		logger.Fatal().Err(err).Msg("reel generation failed")
	}
}

func run(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, name string) error {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	text, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GoogleAIAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
	})
	if err != nil {
		return err
	}
	searcher, err := search.NewClient(search.Options{
		APIKey:     cfg.ExaAPIKey,
		BaseURL:    cfg.ExaBaseURL,
		HTTPClient: httpClient,
	})
	if err != nil {
		return err
	}

	awsCfg, err := infra.NewAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}
	synth := speech.NewSynthesizer(awsCfg, cfg.PollyVoice)
	gen := generation.NewService(text, searcher, synth, logger)

	var store storage.VideoStore
	if cfg.StorageBackend == "filesystem" {
		store, err = storage.NewFileStore(cfg.StoragePath, logger)
	} else {
		store, err = storage.NewS3Store(awss3.NewFromConfig(awsCfg), cfg.AWSS3Bucket, logger)
	}
	if err != nil {
		return err
	}

	enc := encoder.New(cfg.FFmpegPath, logger)
	defer enc.Close()

	orch := pipeline.New(gen, fetcher.New(httpClient, logger), enc, store, logger,
		pipeline.WithTransitionHook(func(from, to pipeline.State) {
			fmt.Printf("%s -> %s\n", from, to)
		}))

	res, err := orch.Run(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("stored %s\n%s\n", res.Key, res.VideoURL)
	return nil
}
