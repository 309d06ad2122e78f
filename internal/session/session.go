// Package session owns the single-user state driving the UI: the credential
// gate, the captured inputs, the in-flight generation and its outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Meet-tatva65/ai-video-maker/internal/capture"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra/credentials"
	"github.com/Meet-tatva65/ai-video-maker/internal/providers/veo"
	"github.com/Meet-tatva65/ai-video-maker/internal/view"
	"github.com/Meet-tatva65/ai-video-maker/internal/workflow"
)

// ErrBusy rejects a second generation while one is in flight.
var ErrBusy = errors.New("session: a generation is already in flight")

// Runner is the slice of the workflow the session depends on.
type Runner interface {
	Run(ctx context.Context, in *capture.Inputs) (*workflow.Result, error)
}

// Options configures a Session.
type Options struct {
	Gate    *credentials.Gate
	Runner  Runner
	Rotator *view.Rotator
	Logger  *infra.Logger
}

// Session is the single logical thread of control. All mutation goes through
// its methods; there are no background writers besides the rotator's ticker,
// which only touches its own index.
type Session struct {
	mu      sync.Mutex
	gate    *credentials.Gate
	runner  Runner
	rotator *view.Rotator
	logger  *infra.Logger

	inputs  capture.Inputs
	loading bool
	result  *workflow.Result
	errMsg  string
}

// New constructs a Session.
func New(opts Options) (*Session, error) {
	if opts.Gate == nil {
		return nil, errors.New("session: credential gate is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("session: runner is required")
	}
	rotator := opts.Rotator
	if rotator == nil {
		rotator = view.NewRotator(nil, 0)
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Session{
		gate:    opts.Gate,
		runner:  opts.Runner,
		rotator: rotator,
		logger:  logger,
	}, nil
}

// State derives the active screen from the session's facts.
func (s *Session) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Derive(s.gate.HasCredential(), s.loading, s.result != nil, s.errMsg)
}

// SelectImage validates and stores a selected file. A non-image file only
// surfaces a message; prior inputs are untouched.
func (s *Session) SelectImage(filename, mimeType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inputs.SelectImage(filename, mimeType, data); err != nil {
		s.errMsg = fmt.Sprintf("Please select an image file (got %s).", mimeType)
		return err
	}
	s.errMsg = ""
	return nil
}

// SetPrompt stores the prompt text.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.SetPrompt(prompt)
}

// CanGenerate reports whether the generate action is enabled: prompt present,
// encoded image present, and nothing in flight.
func (s *Session) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loading && s.inputs.Complete()
}

// SelectCredential runs the gate's selection flow. Failure surfaces as error
// text; the gate state is unchanged.
func (s *Session) SelectCredential(ctx context.Context) error {
	err := s.gate.Select(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	return nil
}

// Generate runs one generation to completion. Previous result and error are
// cleared on entry, the rotator runs for the duration, and loading is cleared
// on every outcome. An invalid-credential failure additionally demotes the
// gate, forcing the user back through selection.
func (s *Session) Generate(ctx context.Context) (*workflow.Result, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if !s.inputs.Complete() {
		s.errMsg = "Please provide both an image and a prompt."
		s.mu.Unlock()
		return nil, workflow.ErrMissingInputs
	}
	s.errMsg = ""
	s.result = nil
	s.loading = true
	inputs := s.inputs
	s.mu.Unlock()

	s.rotator.Start()
	result, err := s.runner.Run(ctx, &inputs)
	s.rotator.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		if veo.IsInvalidKey(err) {
			s.gate.Demote()
			s.errMsg = "Your API key was rejected. Please select a valid key and try again."
			s.logger.Warn().Err(err).Msg("session: credential rejected by service")
		} else {
			s.errMsg = fmt.Sprintf("Video generation failed: %v", err)
			s.logger.Error().Err(err).Msg("session: generation failed")
		}
		return nil, err
	}
	s.result = result
	return result, nil
}

// Reset clears image, prompt, result and error, returning to input.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs.Clear()
	s.result = nil
	s.errMsg = ""
}

// Result returns the current video result, or nil.
func (s *Session) Result() *workflow.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ErrorMessage returns the current user-visible error text.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// StatusMessage returns the rotating loading message.
func (s *Session) StatusMessage() string {
	return s.rotator.Message()
}
