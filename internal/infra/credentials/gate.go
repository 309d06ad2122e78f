// Package credentials decides whether a usable API key is available before
// the generation workflow is reachable. The host side of key selection is
// abstracted behind the Selector interface so the rest of the app never
// touches a global; tests substitute a stub.
package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// EnvKeyName is the environment variable consulted when no Selector is
// available or the Selector cannot answer.
const EnvKeyName = "GEMINI_API_KEY"

// Selector is the host capability for API key selection: an async "is a key
// already selected" query and an interactive selection flow.
type Selector interface {
	Selected(ctx context.Context) (bool, error)
	Open(ctx context.Context) error
}

// Gate tracks whether a usable credential is currently selected.
type Gate struct {
	mu       sync.Mutex
	sel      Selector
	lookup   func(string) (string, bool)
	selected bool
}

// NewGate constructs a Gate around an optional Selector. A nil Selector means
// only the environment fallback is consulted.
func NewGate(sel Selector) *Gate {
	return &Gate{sel: sel, lookup: os.LookupEnv}
}

// Init queries the Selector for an already-selected key. If the Selector is
// absent or errors, it falls back to checking the process environment.
func (g *Gate) Init(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sel != nil {
		if ok, err := g.sel.Selected(ctx); err == nil {
			g.selected = ok
			if ok {
				return
			}
		}
	}
	if v, ok := g.lookup(EnvKeyName); ok && strings.TrimSpace(v) != "" {
		g.selected = true
	}
}

// HasCredential reports whether a usable credential is currently selected.
func (g *Gate) HasCredential() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Select runs the Selector's interactive flow. On success the gate is marked
// selected optimistically, before the host's own state has synchronized. On
// failure the error is returned and the gate is left unchanged.
func (g *Gate) Select(ctx context.Context) error {
	g.mu.Lock()
	sel := g.sel
	g.mu.Unlock()

	if sel == nil {
		return errors.New("credentials: no selector available")
	}
	if err := sel.Open(ctx); err != nil {
		return fmt.Errorf("credentials: selection failed: %w", err)
	}

	g.mu.Lock()
	g.selected = true
	g.mu.Unlock()
	return nil
}

// Demote drops the selected flag, forcing the user back through selection.
// Called when the service rejects the key as invalid or expired.
func (g *Gate) Demote() {
	g.mu.Lock()
	g.selected = false
	g.mu.Unlock()
}

// PromptSelector reads an API key from an interactive terminal. It is the
// shipped Selector implementation for the CLI.
type PromptSelector struct {
	in  io.Reader
	out io.Writer

	mu  sync.Mutex
	key string
}

// NewPromptSelector constructs a PromptSelector over the given streams.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{in: in, out: out}
}

// Selected reports whether a key has already been captured.
func (s *PromptSelector) Selected(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != "", nil
}

// Open prompts for a key on the terminal and stores the trimmed value.
func (s *PromptSelector) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprint(s.out, "Paste your Gemini API key: ")
	scanner := bufio.NewScanner(s.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("no key entered")
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" {
		return errors.New("no key entered")
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

// Key returns the captured API key, if any.
func (s *PromptSelector) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}
