// Package workflow drives one generation end to end: submit, poll until
// terminal, download the first result, and materialize it locally.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Meet-tatva65/ai-video-maker/internal/capture"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra"
	"github.com/Meet-tatva65/ai-video-maker/internal/providers/veo"
)

// Output policy for this client. These are fixed, not user-configurable.
const (
	sampleCount     = 1
	resolution      = "720p"
	aspectRatio     = "16:9"
	durationSeconds = 8

	defaultPollInterval = 10 * time.Second
)

var (
	// ErrMissingInputs means generation was triggered without a prompt or image.
	ErrMissingInputs = errors.New("workflow: prompt and image are required")
	// ErrNoResult means the operation completed without a downloadable video.
	ErrNoResult = errors.New("workflow: generation completed but no video download link was found")
)

// Generator is the slice of the Veo client the runner depends on.
type Generator interface {
	CreateGeneration(ctx context.Context, req veo.GenerationRequest) (*veo.Operation, error)
	GetGeneration(ctx context.Context, name string) (*veo.Operation, error)
	Download(ctx context.Context, uri string) ([]byte, string, error)
}

// Store materializes fetched bytes as a locally addressable file.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Path(key string) string
}

// Options configures a Runner.
type Options struct {
	Generator Generator
	Store     Store
	Logger    *infra.Logger
	// PollInterval overrides the fixed ten second poll wait. Tests use this.
	PollInterval time.Duration
}

// Runner executes generations one at a time.
type Runner struct {
	gen          Generator
	store        Store
	logger       *infra.Logger
	pollInterval time.Duration
}

// Result is a finished, locally playable video.
type Result struct {
	Key  string
	Path string
	MIME string
	Size int
}

// NewRunner constructs a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Generator == nil {
		return nil, errors.New("workflow: generator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("workflow: store is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Runner{
		gen:          opts.Generator,
		store:        opts.Store,
		logger:       logger,
		pollInterval: interval,
	}, nil
}

// Run executes one generation. The poll loop is unbounded with a fixed
// interval; the only way out before a terminal state is ctx cancellation.
func (r *Runner) Run(ctx context.Context, in *capture.Inputs) (*Result, error) {
	img := in.Image()
	if img == nil || img.Encoded == "" || len(img.Data) == 0 || in.Prompt() == "" {
		return nil, ErrMissingInputs
	}

	attempt := uuid.New().String()
	logger := r.logger.With().Str("attempt", attempt).Logger()

	op, err := r.gen.CreateGeneration(ctx, veo.GenerationRequest{
		Prompt:          in.Prompt(),
		ImageBase64:     img.Encoded,
		ImageMIME:       img.MIME,
		SampleCount:     sampleCount,
		Resolution:      resolution,
		AspectRatio:     aspectRatio,
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("operation", op.Name).Msg("workflow: generation submitted")

	polls := 0
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pollInterval):
		}
		op, err = r.gen.GetGeneration(ctx, op.Name)
		if err != nil {
			return nil, err
		}
		polls++
		logger.Debug().Int("polls", polls).Bool("done", op.Done).Msg("workflow: polled operation")
	}

	if len(op.Videos) == 0 || op.Videos[0].URI == "" {
		return nil, ErrNoResult
	}

	data, contentType, err := r.gen.Download(ctx, op.Videos[0].URI)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := fmt.Sprintf("videos/%s.mp4", attempt)
	if _, err := r.store.Write(ctx, key, data); err != nil {
		return nil, err
	}

	result := &Result{
		Key:  key,
		Path: r.store.Path(key),
		MIME: contentType,
		Size: len(data),
	}
	logger.Info().
		Str("path", result.Path).
		Int("bytes", result.Size).
		Int("polls", polls).
		Msg("workflow: video ready")

	return result, nil
}
