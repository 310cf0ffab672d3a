package console

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// CRLFWriter turns bare '\n' into "\r\n" for raw terminals and serial
// consoles, where output post-processing is off.
type CRLFWriter struct {
	out    io.Writer
	mu     sync.Mutex
	prevCR bool
}

func NewCRLFWriter(out io.Writer) *CRLFWriter {
	return &CRLFWriter{out: out}
}

func (w *CRLFWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && !w.prevCR {
			buf = append(buf, '\r')
		}
		buf = append(buf, b)
		w.prevCR = b == '\r'
	}

	if _, err := w.out.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush forwards to the wrapped writer when it buffers.
func (w *CRLFWriter) Flush() error {
	if f, ok := w.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MakeRaw switches f to raw mode and returns a function restoring the
// previous state. It is a no-op when f is not a terminal.
func MakeRaw(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = term.Restore(fd, state)
	}, nil
}
