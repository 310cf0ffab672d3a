package harness

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/danmuck/cmdharness/internal/registry"
	"github.com/rs/zerolog"
)

const (
	Prompt     = "> "
	Terminator = '\n'

	helpCommand = "help"
)

type flusher interface {
	Flush() error
}

// Harness accumulates input bytes into lines and dispatches each completed
// line to the command registered under its exact text.
type Harness struct {
	cmdline  []byte
	dropped  bool
	maxLine  int
	commands *registry.Registry
	writer   io.Writer
	logger   zerolog.Logger
	observer Observer
}

// New creates a harness that writes prompts, help, and errors to w.
func New(w io.Writer, opts ...Option) *Harness {
	h := &Harness{
		commands: registry.NewRegistry(),
		writer:   w,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddCommand registers handler under name, replacing any prior entry.
// A command named "help" is stored but shadowed by the built-in listing.
func (h *Harness) AddCommand(name, helpText string, handler registry.Handler) {
	h.commands.Register(name, helpText, handler)
	h.logger.Debug().Str("command", name).Msg("command registered")
}

func (h *Harness) Registry() *registry.Registry {
	return h.commands
}

// Pending reports how many bytes of the current line are buffered.
func (h *Harness) Pending() int {
	return len(h.cmdline)
}

// Receive ingests one byte. It reports false while the line is still being
// accumulated. On the line terminator it dispatches the buffered line and
// reports true with the dispatch result.
func (h *Harness) Receive(b byte) (bool, error) {
	if b != Terminator {
		if h.maxLine > 0 && len(h.cmdline) >= h.maxLine {
			h.dropped = true
			return false, nil
		}
		h.cmdline = append(h.cmdline, b)
		return false, nil
	}

	// The array is reused for the next line; process copies the text out
	// before any handler runs.
	line, dropped := h.cmdline, h.dropped
	h.cmdline, h.dropped = h.cmdline[:0], false
	return true, h.dispatch(line, dropped)
}

// ReceiveAndPrint ingests one byte and, when a line completes, writes any
// dispatch error followed by a fresh prompt. Only sink I/O failures are
// returned.
func (h *Harness) ReceiveAndPrint(b byte) error {
	done, err := h.Receive(b)
	if !done {
		return nil
	}
	if err != nil {
		if _, werr := fmt.Fprintf(h.writer, "Error: %s\n", err); werr != nil {
			return werr
		}
	}
	return h.Prompt()
}

// Prompt writes the prompt and flushes the sink.
func (h *Harness) Prompt() error {
	if _, err := io.WriteString(h.writer, Prompt); err != nil {
		return err
	}
	if f, ok := h.writer.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Write feeds p through ReceiveAndPrint one byte at a time, so a Harness
// can be the destination of io.Copy. It stops at the first sink failure;
// the byte that triggered it counts as consumed.
func (h *Harness) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := h.ReceiveAndPrint(b); err != nil {
			return i + 1, err
		}
	}
	return len(p), nil
}

func (h *Harness) dispatch(line []byte, dropped bool) error {
	start := time.Now()
	name, err := h.process(line, dropped)
	command, outcome := classify(name, err)
	elapsed := time.Since(start)

	event := h.logger.Debug()
	if err != nil {
		event = h.logger.Warn().Err(err)
	}
	event.
		Str("command", command).
		Str("outcome", outcome).
		Int("bytes", len(line)).
		Dur("duration", elapsed).
		Msg("line dispatched")

	if h.observer != nil {
		h.observer.ObserveDispatch(Dispatch{
			Command: command,
			Outcome: outcome,
			Bytes:   len(line),
			Elapsed: elapsed,
			Err:     err,
		})
	}
	return err
}

// process resolves one completed line. It returns the decoded text (empty
// when the line never decoded) with the dispatch result.
func (h *Harness) process(line []byte, dropped bool) (string, error) {
	if dropped {
		return "", ErrLineTooLong
	}
	if !utf8.Valid(line) {
		return "", ErrInvalidEncoding
	}
	name := string(line)

	if name == helpCommand {
		if err := h.printHelp(); err != nil {
			return name, fmt.Errorf("%w: %w", ErrHelpIO, err)
		}
		return name, nil
	}

	cmd, ok := h.commands.Lookup(name)
	if !ok {
		return name, ErrInvalidCommand
	}
	if cmd.Handler == nil {
		return name, nil
	}
	if err := cmd.Handler(); err != nil {
		return name, &HandlerError{Command: name, Err: err}
	}
	return name, nil
}

func (h *Harness) printHelp() error {
	for _, cmd := range h.commands.List() {
		if _, err := fmt.Fprintf(h.writer, "Command: %s - %s\n", cmd.Name, cmd.HelpText); err != nil {
			return err
		}
	}
	return nil
}
