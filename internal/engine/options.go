package engine

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Delays holds the resolution delay per class. Text < ChatProducts < VoiceProducts.
type Delays struct {
	Text          time.Duration
	ChatProducts  time.Duration
	VoiceProducts time.Duration
}

// DefaultDelays returns the stock timings.
func DefaultDelays() Delays {
	return Delays{
		Text:          900 * time.Millisecond,
		ChatProducts:  2200 * time.Millisecond,
		VoiceProducts: 3500 * time.Millisecond,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock timers are armed on.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDelays overrides the resolution delays.
func WithDelays(d Delays) Option {
	return func(e *Engine) { e.delays = d }
}

// WithIDGenerator overrides how user and loading entry ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithResolveHook registers a callback invoked after a placeholder resolves.
func WithResolveHook(fn func(loaderID string, s Scenario)) Option {
	return func(e *Engine) { e.onResolve = fn }
}
