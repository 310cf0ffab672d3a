package harness

import (
	"github.com/danmuck/cmdharness/internal/registry"
	"github.com/rs/zerolog"
)

type Option func(*Harness)

// WithRegistry dispatches against an existing registry instead of a private
// one.
func WithRegistry(r *registry.Registry) Option {
	return func(h *Harness) {
		if r != nil {
			h.commands = r
		}
	}
}

// WithMaxLineBytes bounds the accumulation buffer. Bytes past the bound are
// dropped and the completed line fails with ErrLineTooLong. Zero or less
// leaves the buffer unbounded.
func WithMaxLineBytes(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.maxLine = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithObserver reports every completed line to o.
func WithObserver(o Observer) Option {
	return func(h *Harness) {
		h.observer = o
	}
}
