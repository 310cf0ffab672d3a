package harness

import "errors"

// Messages are printed verbatim after "Error: ", so they keep their
// operator-facing capitalisation.
var (
	ErrInvalidEncoding = errors.New("Command is invalid UTF-8")
	ErrInvalidCommand  = errors.New("Invalid command")
	ErrHelpIO          = errors.New("Failed to print help")
	ErrLineTooLong     = errors.New("Command line too long")
)

// HandlerError carries a failure returned by a command handler. Its message
// is the handler's message, unchanged.
type HandlerError struct {
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
