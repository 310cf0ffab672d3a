package harness

import (
	"errors"
	"time"
)

// Dispatch outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeHelp            = "help"
	OutcomeInvalidEncoding = "invalid_encoding"
	OutcomeInvalidCommand  = "invalid_command"
	OutcomeHandlerError    = "handler_error"
	OutcomeHelpIO          = "help_io"
	OutcomeLineTooLong     = "line_too_long"
)

// Dispatch describes one completed line. Command is empty unless the line
// resolved to a registered command or the help listing.
type Dispatch struct {
	Command string
	Outcome string
	Bytes   int
	Elapsed time.Duration
	Err     error
}

// Observer receives one Dispatch per completed line, on the ingestion
// goroutine.
type Observer interface {
	ObserveDispatch(d Dispatch)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(d Dispatch)

func (f ObserverFunc) ObserveDispatch(d Dispatch) {
	f(d)
}

func classify(name string, err error) (string, string) {
	var handlerErr *HandlerError
	switch {
	case err == nil && name == helpCommand:
		return helpCommand, OutcomeHelp
	case err == nil:
		return name, OutcomeOK
	case errors.As(err, &handlerErr):
		return handlerErr.Command, OutcomeHandlerError
	case errors.Is(err, ErrHelpIO):
		return helpCommand, OutcomeHelpIO
	case errors.Is(err, ErrInvalidEncoding):
		return "", OutcomeInvalidEncoding
	case errors.Is(err, ErrLineTooLong):
		return "", OutcomeLineTooLong
	default:
		return "", OutcomeInvalidCommand
	}
}
