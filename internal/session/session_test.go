package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Meet-tatva65/ai-video-maker/internal/capture"
	"github.com/Meet-tatva65/ai-video-maker/internal/infra/credentials"
	"github.com/Meet-tatva65/ai-video-maker/internal/view"
	"github.com/Meet-tatva65/ai-video-maker/internal/workflow"
)

type stubSelector struct {
	selected bool
	openErr  error
}

func (s *stubSelector) Selected(ctx context.Context) (bool, error) { return s.selected, nil }
func (s *stubSelector) Open(ctx context.Context) error             { return s.openErr }

type stubRunner struct {
	result *workflow.Result
	err    error
	calls  int
	gotIn  *capture.Inputs
}

func (r *stubRunner) Run(ctx context.Context, in *capture.Inputs) (*workflow.Result, error) {
	r.calls++
	r.gotIn = in
	return r.result, r.err
}

func newTestSession(t *testing.T, sel credentials.Selector, runner Runner) (*Session, *credentials.Gate) {
	t.Helper()
	t.Setenv(credentials.EnvKeyName, "")
	gate := credentials.NewGate(sel)
	gate.Init(context.Background())
	s, err := New(Options{
		Gate:    gate,
		Runner:  runner,
		Rotator: view.NewRotator(nil, time.Hour),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, gate
}

func fill(t *testing.T, s *Session) {
	t.Helper()
	if err := s.SelectImage("cat.png", "image/png", []byte{1, 2, 3}); err != nil {
		t.Fatalf("SelectImage: %v", err)
	}
	s.SetPrompt("a cat surfing")
}

func TestStateStartsAtCredentialGate(t *testing.T) {
	s, _ := newTestSession(t, &stubSelector{selected: false}, &stubRunner{})
	if got := s.State(); got != view.AwaitingCredential {
		t.Fatalf("state = %v, want AwaitingCredential", got)
	}
}

func TestCanGenerate(t *testing.T) {
	s, _ := newTestSession(t, &stubSelector{selected: true}, &stubRunner{})
	if s.CanGenerate() {
		t.Fatal("empty inputs must disable generate")
	}
	s.SetPrompt("a cat surfing")
	if s.CanGenerate() {
		t.Fatal("prompt alone must disable generate")
	}
	fill(t, s)
	if !s.CanGenerate() {
		t.Fatal("expected generate enabled")
	}
}

func TestSelectImageRejectionShowsMessageOnly(t *testing.T) {
	s, _ := newTestSession(t, &stubSelector{selected: true}, &stubRunner{})
	fill(t, s)

	if err := s.SelectImage("doc.pdf", "application/pdf", []byte{1}); err == nil {
		t.Fatal("expected rejection")
	}
	if s.ErrorMessage() == "" {
		t.Fatal("expected user-visible message")
	}
	if !s.CanGenerate() {
		t.Fatal("prior inputs must survive a rejected selection")
	}
}

func TestGenerateSuccess(t *testing.T) {
	runner := &stubRunner{result: &workflow.Result{Key: "videos/a.mp4", Path: "/store/videos/a.mp4", MIME: "video/mp4", Size: 5}}
	s, _ := newTestSession(t, &stubSelector{selected: true}, runner)
	fill(t, s)

	result, err := s.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result != runner.result || s.Result() != runner.result {
		t.Fatal("result not published")
	}
	if got := s.State(); got != view.ResultReady {
		t.Fatalf("state = %v, want ResultReady", got)
	}
	if s.CanGenerate() != true {
		t.Fatal("loading must be cleared after success")
	}
}

func TestGenerateWithoutInputs(t *testing.T) {
	runner := &stubRunner{}
	s, _ := newTestSession(t, &stubSelector{selected: true}, runner)

	if _, err := s.Generate(context.Background()); !errors.Is(err, workflow.ErrMissingInputs) {
		t.Fatalf("err = %v, want ErrMissingInputs", err)
	}
	if runner.calls != 0 {
		t.Fatal("runner must not be invoked without inputs")
	}
	if got := s.State(); got != view.ErrorShown {
		t.Fatalf("state = %v, want ErrorShown", got)
	}
}

func TestGenerateFailureShowsError(t *testing.T) {
	runner := &stubRunner{err: errors.New("veo: status 500: internal")}
	s, gate := newTestSession(t, &stubSelector{selected: true}, runner)
	fill(t, s)

	if _, err := s.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := s.State(); got != view.ErrorShown {
		t.Fatalf("state = %v, want ErrorShown", got)
	}
	if !gate.HasCredential() {
		t.Fatal("generic failures must not demote the credential")
	}
}

func TestGenerateInvalidKeyDemotesGate(t *testing.T) {
	runner := &stubRunner{err: errors.New("veo: operation failed: Requested entity was not found.")}
	s, gate := newTestSession(t, &stubSelector{selected: true}, runner)
	fill(t, s)

	if _, err := s.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if gate.HasCredential() {
		t.Fatal("invalid-key failure must demote the gate")
	}
	if got := s.State(); got != view.AwaitingCredential {
		t.Fatalf("state = %v, want AwaitingCredential", got)
	}
}

func TestGenerateClearsPreviousOutcome(t *testing.T) {
	runner := &stubRunner{result: &workflow.Result{Key: "videos/a.mp4"}}
	s, _ := newTestSession(t, &stubSelector{selected: true}, runner)
	fill(t, s)
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	runner.result = nil
	runner.err = errors.New("boom")
	if _, err := s.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Result() != nil {
		t.Fatal("previous result must be cleared on a new attempt")
	}
}

func TestReset(t *testing.T) {
	runner := &stubRunner{result: &workflow.Result{Key: "videos/a.mp4"}}
	s, _ := newTestSession(t, &stubSelector{selected: true}, runner)
	fill(t, s)
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s.Reset()
	if s.Result() != nil || s.ErrorMessage() != "" || s.CanGenerate() {
		t.Fatal("Reset must clear result, error and inputs")
	}
	if got := s.State(); got != view.ReadyForInput {
		t.Fatalf("state = %v, want ReadyForInput", got)
	}
}

func TestSelectCredentialFailure(t *testing.T) {
	s, gate := newTestSession(t, &stubSelector{selected: false, openErr: errors.New("user dismissed")}, &stubRunner{})
	if err := s.SelectCredential(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if gate.HasCredential() {
		t.Fatal("failed selection must leave the gate unchanged")
	}
	if s.ErrorMessage() == "" {
		t.Fatal("expected user-visible message")
	}
}

func TestSelectCredentialSuccess(t *testing.T) {
	s, gate := newTestSession(t, &stubSelector{selected: false}, &stubRunner{})
	if err := s.SelectCredential(context.Background()); err != nil {
		t.Fatalf("SelectCredential: %v", err)
	}
	if !gate.HasCredential() {
		t.Fatal("expected optimistic selection")
	}
	if got := s.State(); got != view.ReadyForInput {
		t.Fatalf("state = %v, want ReadyForInput", got)
	}
}
