package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/cmdharness/internal/harness"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type LoopOption func(*Loop)

// Loop feeds bytes from src into a harness until the source ends or the
// context is cancelled.
type Loop struct {
	h           *harness.Harness
	src         io.Reader
	readSize    int
	translateCR bool
	prevCR      bool
	echo        io.Writer
	logger      zerolog.Logger
}

type chunk struct {
	data []byte
	err  error
}

func NewLoop(h *harness.Harness, src io.Reader, opts ...LoopOption) *Loop {
	l := &Loop{
		h:        h,
		src:      src,
		readSize: 1,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithReadSize sets how many bytes one source read may return. Bytes are
// still ingested one at a time.
func WithReadSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.readSize = n
		}
	}
}

// WithTranslateCR treats '\r' as the line terminator and drops a '\n' that
// directly follows it. Raw terminals send '\r' for Enter.
func WithTranslateCR() LoopOption {
	return func(l *Loop) {
		l.translateCR = true
	}
}

// WithEcho writes every accepted byte back to w.
func WithEcho(w io.Writer) LoopOption {
	return func(l *Loop) {
		l.echo = w
	}
}

func WithLogger(logger zerolog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// Run shows the prompt and ingests input. Cancellation and end of input
// return nil; read and output failures are returned.
//
// The reader goroutine can outlive Run while it is blocked in src.Read. It
// exits once that Read returns, so callers reusing the source should close it
// or make it return (for example with a read deadline) after Run.
func (l *Loop) Run(ctx context.Context) error {
	logger := l.logger.With().Str("session", uuid.NewString()).Logger()
	logger.Info().Msg("console session started")

	if err := l.h.Prompt(); err != nil {
		return fmt.Errorf("console: write prompt: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reads := make(chan chunk)
	go l.readLoop(ctx, reads)

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("console session cancelled")
			return nil
		case c := <-reads:
			for _, b := range c.data {
				if ctx.Err() != nil {
					logger.Info().Msg("console session cancelled")
					return nil
				}
				if err := l.ingest(b); err != nil {
					return fmt.Errorf("console: write output: %w", err)
				}
			}
			if c.err == nil {
				continue
			}
			if errors.Is(c.err, io.EOF) {
				logger.Info().Msg("console input closed")
				return nil
			}
			return fmt.Errorf("console: read input: %w", c.err)
		}
	}
}

func (l *Loop) ingest(b byte) error {
	if l.translateCR {
		prevCR := l.prevCR
		l.prevCR = b == '\r'
		switch {
		case b == '\n' && prevCR:
			return nil
		case b == '\r':
			b = harness.Terminator
		}
	}
	if l.echo != nil {
		if _, err := l.echo.Write([]byte{b}); err != nil {
			return err
		}
	}
	return l.h.ReceiveAndPrint(b)
}

func (l *Loop) readLoop(ctx context.Context, out chan<- chunk) {
	for {
		buf := make([]byte, l.readSize)
		n, err := l.src.Read(buf)
		c := chunk{data: buf[:n], err: err}
		if n == 0 && err == nil {
			continue
		}
		select {
		case out <- c:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
