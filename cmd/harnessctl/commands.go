package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/cmdharness/internal/harness"
)

var errBar = errors.New("bar doesn't work")

// registerCommands installs the demo command set. quit cancels the console
// session instead of exiting the process, so deferred cleanup still runs.
func registerCommands(h *harness.Harness, out io.Writer, quit context.CancelFunc) {
	h.AddCommand("foo", "Foo's the frobble", func() error {
		_, err := fmt.Fprintln(out, "Called foo!")
		return err
	})
	h.AddCommand("bar", "Bar's the frobble", func() error {
		if _, err := fmt.Fprintln(out, "Called bar!"); err != nil {
			return err
		}
		return errBar
	})
	h.AddCommand("quit", "Exit's the program", func() error {
		quit()
		return nil
	})
}
