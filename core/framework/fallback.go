package framework

import (
	"log/slog"
	"sync"

	"github.com/codewandler/actr-go/core/address"
	"github.com/codewandler/actr-go/core/message"
)

// TypedFallback observes an undeliverable message by its sender only.
type TypedFallback func(from address.Address)

// BlindFallback observes an undeliverable message's raw payload and sender.
type BlindFallback func(data []byte, from address.Address)

// FallbackHandlers holds the framework's single fallback handler, of either
// shape. Installing a handler of one shape replaces a handler of the other.
// With neither installed, undeliverable messages are logged.
type FallbackHandlers struct {
	mu    sync.RWMutex
	typed TypedFallback
	blind BlindFallback
	log   *slog.Logger
}

// NewFallbackHandlers creates the set with the default logging handler.
func NewFallbackHandlers(log *slog.Logger) *FallbackHandlers {
	return &FallbackHandlers{log: log}
}

// SetTyped installs h as the fallback handler.
func (s *FallbackHandlers) SetTyped(h TypedFallback) {
	s.mu.Lock()
	s.typed = h
	s.blind = nil
	s.mu.Unlock()
}

// SetBlind installs h as the fallback handler.
func (s *FallbackHandlers) SetBlind(h BlindFallback) {
	s.mu.Lock()
	s.typed = nil
	s.blind = h
	s.mu.Unlock()
}

// Handle routes one undeliverable message to the installed handler.
func (s *FallbackHandlers) Handle(m *message.Message) {
	s.mu.RLock()
	typed, blind := s.typed, s.blind
	s.mu.RUnlock()

	switch {
	case blind != nil:
		blind(m.Data(), m.From())
	case typed != nil:
		typed(m.From())
	default:
		s.log.Warn("unhandled message",
			slog.String("type", m.TypeName()),
			slog.String("from", m.From().String()),
			slog.String("to", m.To().String()))
	}
}
