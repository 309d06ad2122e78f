// Package view derives which screen is active and rotates the loading status
// messages. State is computed from {credential, loading, result, error}
// rather than stored, so inconsistent combinations cannot render.
package view

import (
	"sync"
	"time"
)

// State is the active screen.
type State int

const (
	AwaitingCredential State = iota
	ReadyForInput
	Generating
	ResultReady
	ErrorShown
)

func (s State) String() string {
	switch s {
	case AwaitingCredential:
		return "awaiting_credential"
	case ReadyForInput:
		return "ready_for_input"
	case Generating:
		return "generating"
	case ResultReady:
		return "result_ready"
	case ErrorShown:
		return "error_shown"
	default:
		return "unknown"
	}
}

// Derive computes the active state. Precedence: missing credential, then
// loading, then error, then result.
func Derive(credential, loading, hasResult bool, errMsg string) State {
	switch {
	case !credential:
		return AwaitingCredential
	case loading:
		return Generating
	case errMsg != "":
		return ErrorShown
	case hasResult:
		return ResultReady
	default:
		return ReadyForInput
	}
}

// StatusMessages is the fixed ordered list shown while generating. Rotation
// is purely cosmetic and independent of actual progress.
var StatusMessages = []string{
	"Warming up the cameras...",
	"Storyboarding your scene...",
	"Directing the first frames...",
	"Rendering motion and light...",
	"Color grading the footage...",
	"Almost there, adding final touches...",
}

const defaultRotateInterval = 3500 * time.Millisecond

// Rotator advances an index into a message list on a fixed tick while
// running. Start resets the index to the first message; Stop tears the
// ticker down so nothing leaks across state transitions.
type Rotator struct {
	mu       sync.Mutex
	messages []string
	interval time.Duration
	index    int
	stop     chan struct{}
}

// NewRotator constructs a Rotator. A zero interval means the default 3.5s.
func NewRotator(messages []string, interval time.Duration) *Rotator {
	if len(messages) == 0 {
		messages = StatusMessages
	}
	if interval <= 0 {
		interval = defaultRotateInterval
	}
	return &Rotator{messages: messages, interval: interval}
}

// Start resets the index and begins ticking. Starting a running rotator only
// resets the index.
func (r *Rotator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = 0
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	go r.run(r.stop)
}

func (r *Rotator) run(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Advance()
		}
	}
}

// Advance moves the index forward by one, wrapping around.
func (r *Rotator) Advance() {
	r.mu.Lock()
	r.index = (r.index + 1) % len(r.messages)
	r.mu.Unlock()
}

// Stop halts rotation. The index stops advancing immediately.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.stop = nil
}

// Index returns the current message index.
func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Message returns the current status message.
func (r *Rotator) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[r.index]
}
