package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Meet-tatva65/ai-video-maker/internal/capture"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra/credentials"
	"github.com/Meet-tatva65/ai-video-maker/internal/preview"
	"github.com/Meet-tatva65/ai-video-maker/internal/providers/veo"
	"github.com/Meet-tatva65/ai-video-maker/internal/session"
	"github.com/Meet-tatva65/ai-video-maker/internal/storage"
	"github.com/Meet-tatva65/ai-video-maker/internal/view"
	"github.com/Meet-tatva65/ai-video-maker/internal/workflow"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	imagePath := flag.String("image", "", "path to the source image")
	prompt := flag.String("prompt", "", "describe the motion or story for the video")
	serve := flag.Bool("serve", false, "keep a localhost preview server running after generation")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *imagePath == "" || *prompt == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	// Credential gate: an already-exported key passes; otherwise run the
	// interactive selection flow.
	selector := credentials.NewPromptSelector(os.Stdin, os.Stdout)
	gate := credentials.NewGate(selector)
	gate.Init(ctx)
	if !gate.HasCredential() {
		if err := gate.Select(ctx); err != nil {
			logger.Error().Err(err).Msg("credential selection failed")
			os.Exit(1)
		}
	}
	apiKey := cfg.GeminiAPIKey
	if k := selector.Key(); k != "" {
		apiKey = k
	}

	client, err := veo.NewClient(veo.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.VeoModel,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure video client")
	}

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare output directory")
	}

	runner, err := workflow.NewRunner(workflow.Options{
		Generator: client,
		Store:     store,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build workflow")
	}

	sess, err := session.New(session.Options{
		Gate:   gate,
		Runner: runner,
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build session")
	}

	name, mimeType, data, err := capture.LoadImageFile(*imagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read image")
	}
	if err := sess.SelectImage(name, mimeType, data); err != nil {
		logger.Error().Msg(sess.ErrorMessage())
		os.Exit(1)
	}
	sess.SetPrompt(*prompt)

	// Surface the rotating status messages while the workflow runs.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		last := ""
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if sess.State() != view.Generating {
					continue
				}
				if msg := sess.StatusMessage(); msg != last {
					logger.Info().Msg(msg)
					last = msg
				}
			}
		}
	}()

	result, err := sess.Generate(ctx)
	close(done)
	if err != nil {
		logger.Error().Msg(sess.ErrorMessage())
		os.Exit(1)
	}
	logger.Info().
		Str("path", result.Path).
		Str("type", result.MIME).
		Int("bytes", result.Size).
		Msg("video ready")

	if !*serve {
		return
	}

	server := infra.NewHTTPServer(cfg, preview.NewRouter(store, logger))
	go func() {
		logger.Info().Msgf("preview at http://localhost:%s/%s", cfg.PreviewPort, result.Key)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("preview server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown preview server")
	}
	logger.Info().Msg("preview stopped")
}
