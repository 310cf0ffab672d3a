package harness

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/cmdharness/internal/registry"
	"github.com/danmuck/cmdharness/internal/testutil/testlog"
)

var errSink = errors.New("sink closed")

// failingWriter accepts ok writes and fails every write after that.
type failingWriter struct {
	ok  int
	buf bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.ok <= 0 {
		return 0, errSink
	}
	w.ok--
	return w.buf.Write(p)
}

func okHandler() error { return nil }

// feed sends every byte of s except the last and requires no result, then
// sends the last byte and returns its result.
func feed(t *testing.T, h *Harness, s string) (bool, error) {
	t.Helper()
	for i := 0; i < len(s)-1; i++ {
		done, err := h.Receive(s[i])
		if done || err != nil {
			t.Fatalf("byte %d (%q): expected no result, got done=%v err=%v", i, s[i], done, err)
		}
	}
	return h.Receive(s[len(s)-1])
}

func TestReceiveWithoutTerminatorYieldsNoResult(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	h.AddCommand("foo", "Does stuff.", okHandler)

	input := []byte("foo\rhelp\x00\x80\xffbar")
	for i, b := range input {
		done, err := h.Receive(b)
		if done || err != nil {
			t.Fatalf("byte %d: expected no result, got done=%v err=%v", i, done, err)
		}
	}
	if h.Pending() != len(input) {
		t.Fatalf("expected %d pending bytes, got %d", len(input), h.Pending())
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestGoodCommandTwice(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	calls := 0
	h.AddCommand("foo", "Does stuff.", func() error {
		calls++
		return nil
	})

	for i := 0; i < 2; i++ {
		done, err := feed(t, h, "foo\n")
		if !done || err != nil {
			t.Fatalf("round %d: expected success, got done=%v err=%v", i, done, err)
		}
		if h.Pending() != 0 {
			t.Fatalf("round %d: buffer not reset, pending=%d", i, h.Pending())
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestHandlerFailurePassesMessageThrough(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})
	boom := errors.New("boom")
	h.AddCommand("bar", "Bar's the frobble", func() error { return boom })

	done, err := feed(t, h, "bar\n")
	if !done {
		t.Fatalf("expected completed line")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if err.Error() != "boom" {
		t.Fatalf("message altered: %q", err.Error())
	}
	var handlerErr *HandlerError
	if !errors.As(err, &handlerErr) || handlerErr.Command != "bar" {
		t.Fatalf("expected HandlerError for bar, got %#v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})
	h.AddCommand("foobar", "", okHandler)

	cases := []string{"hhhh\n", "foo\n", "foobar \n", "foobar\r\n", "FOOBAR\n", "helpme\n"}
	for _, in := range cases {
		done, err := feed(t, h, in)
		if !done || !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("input %q: expected ErrInvalidCommand, got done=%v err=%v", in, done, err)
		}
	}
}

func TestEmptyLine(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})

	done, err := h.Receive('\n')
	if !done || !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got done=%v err=%v", done, err)
	}

	h.AddCommand("", "empty", okHandler)
	done, err = h.Receive('\n')
	if !done || err != nil {
		t.Fatalf("expected empty-name command to run, got done=%v err=%v", done, err)
	}
}

func TestInvalidEncodingNeverReachesLookup(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})
	called := false
	h.AddCommand("\x80", "", func() error {
		called = true
		return nil
	})

	for _, in := range []string{"\x80\n", "fo\xffo\n", "\xe2\x82\n"} {
		done, err := feed(t, h, in)
		if !done || !errors.Is(err, ErrInvalidEncoding) {
			t.Fatalf("input %q: expected ErrInvalidEncoding, got done=%v err=%v", in, done, err)
		}
		if errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("input %q: reported as invalid command", in)
		}
	}
	if called {
		t.Fatalf("handler ran for undecodable input")
	}
}

func TestMultibyteCommandName(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})
	h.AddCommand("größe", "", okHandler)

	done, err := feed(t, h, "größe\n")
	if !done || err != nil {
		t.Fatalf("expected success, got done=%v err=%v", done, err)
	}
}

func TestHelpWithNoCommands(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)

	done, err := feed(t, h, "help\n")
	if !done || err != nil {
		t.Fatalf("expected success, got done=%v err=%v", done, err)
	}
	if strings.Contains(out.String(), "Command:") {
		t.Fatalf("expected empty listing, got %q", out.String())
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	h.AddCommand("foo", "Foo's the frobble", okHandler)
	h.AddCommand("bar", "Bar's the frobble", okHandler)
	h.AddCommand("quit", "Exit's the program", okHandler)

	done, err := feed(t, h, "help\n")
	if !done || err != nil {
		t.Fatalf("expected success, got done=%v err=%v", done, err)
	}
	want := "Command: bar - Bar's the frobble\n" +
		"Command: foo - Foo's the frobble\n" +
		"Command: quit - Exit's the program\n"
	if out.String() != want {
		t.Fatalf("unexpected help output:\n got=%q\nwant=%q", out.String(), want)
	}
}

func TestHelpShadowsRegisteredHelp(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	called := false
	h.AddCommand("help", "Does stuff.", func() error {
		called = true
		return errors.New("boom")
	})

	for i := 0; i < 2; i++ {
		done, err := feed(t, h, "help\n")
		if !done || err != nil {
			t.Fatalf("round %d: expected success, got done=%v err=%v", i, done, err)
		}
	}
	if called {
		t.Fatalf("registered help handler must be shadowed")
	}
	if got := strings.Count(out.String(), "Command: help - Does stuff.\n"); got != 2 {
		t.Fatalf("expected shadowed entry listed once per help, got %d in %q", got, out.String())
	}
	if _, ok := h.Registry().Lookup("help"); !ok {
		t.Fatalf("shadowed entry must stay registered")
	}
}

func TestHelpWriteFailureIsHelpIO(t *testing.T) {
	testlog.Start(t)
	h := New(&failingWriter{})
	h.AddCommand("foo", "Does stuff.", okHandler)

	done, err := feed(t, h, "help\n")
	if !done || !errors.Is(err, ErrHelpIO) {
		t.Fatalf("expected ErrHelpIO, got done=%v err=%v", done, err)
	}
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error to be wrapped, got %v", err)
	}
	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		t.Fatalf("help failure must not look like a handler failure")
	}
}

func TestBufferResetsAfterErrors(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{})
	h.AddCommand("foo", "", okHandler)

	if _, err := feed(t, h, "\x80\n"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
	if _, err := feed(t, h, "nope\n"); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
	if _, err := feed(t, h, "foo\n"); err != nil {
		t.Fatalf("expected success after errors, got %v", err)
	}
}

func TestReceiveAndPrintSuccessWritesPrompt(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	h.AddCommand("foo", "", okHandler)

	for _, b := range []byte("fo") {
		if err := h.ReceiveAndPrint(b); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output before terminator, got %q", out.String())
	}
	for _, b := range []byte("o\n") {
		if err := h.ReceiveAndPrint(b); err != nil {
			t.Fatalf("receive: %v", err)
		}
	}
	if out.String() != "> " {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestReceiveAndPrintErrorThenPrompt(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	h := New(&out)
	h.AddCommand("bar", "", func() error { return errors.New("bar doesn't work") })

	if _, err := h.Write([]byte("bar\nhhhh\n\x80\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Error: bar doesn't work\n> " +
		"Error: Invalid command\n> " +
		"Error: Command is invalid UTF-8\n> "
	if out.String() != want {
		t.Fatalf("unexpected output:\n got=%q\nwant=%q", out.String(), want)
	}
}

func TestReceiveAndPrintSkipsPromptWhenErrorWriteFails(t *testing.T) {
	testlog.Start(t)
	w := &failingWriter{}
	h := New(w)

	if err := h.ReceiveAndPrint('x'); err != nil {
		t.Fatalf("buffered byte must not touch the sink: %v", err)
	}
	if err := h.ReceiveAndPrint('\n'); !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if w.buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", w.buf.String())
	}
}

func TestReceiveAndPrintPromptFailurePropagates(t *testing.T) {
	testlog.Start(t)
	w := &failingWriter{ok: 1}
	h := New(w)

	if _, err := h.Write([]byte("x\n")); !errors.Is(err, errSink) {
		t.Fatalf("expected prompt failure, got %v", err)
	}
	if w.buf.String() != "Error: Invalid command\n" {
		t.Fatalf("unexpected output: %q", w.buf.String())
	}
	if h.Pending() != 0 {
		t.Fatalf("buffer must reset even when output fails, pending=%d", h.Pending())
	}
}

func TestPromptFlushesBufferedSink(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)
	h := New(bw)

	if err := h.Prompt(); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if out.String() != "> " {
		t.Fatalf("expected flushed prompt, got %q", out.String())
	}
}

func TestWriteStopsAtFirstSinkFailure(t *testing.T) {
	testlog.Start(t)
	h := New(&failingWriter{})
	h.AddCommand("foo", "", okHandler)

	n, err := h.Write([]byte("foo\nfoo\n"))
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes consumed, got %d", n)
	}
}

func TestMaxLineBytesDropsOverflow(t *testing.T) {
	testlog.Start(t)
	h := New(&bytes.Buffer{}, WithMaxLineBytes(4))
	h.AddCommand("foo", "", okHandler)

	done, err := feed(t, h, "foofoofoo\n")
	if !done || !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got done=%v err=%v", done, err)
	}
	done, err = feed(t, h, "foo\n")
	if !done || err != nil {
		t.Fatalf("expected success after overflow, got done=%v err=%v", done, err)
	}
}

func TestWithRegistrySharesCommands(t *testing.T) {
	testlog.Start(t)
	r := registry.NewRegistry()
	h := New(&bytes.Buffer{}, WithRegistry(r))
	r.Register("foo", "", okHandler)

	done, err := feed(t, h, "foo\n")
	if !done || err != nil {
		t.Fatalf("expected success, got done=%v err=%v", done, err)
	}
}

func TestObserverSeesEveryOutcome(t *testing.T) {
	testlog.Start(t)
	var seen []Dispatch
	h := New(&bytes.Buffer{}, WithObserver(ObserverFunc(func(d Dispatch) {
		seen = append(seen, d)
	})))
	h.AddCommand("foo", "", okHandler)
	h.AddCommand("bar", "", func() error { return errors.New("boom") })

	if _, err := h.Write([]byte("foo\nbar\nhelp\nzzz\n\x80\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := []struct {
		command string
		outcome string
	}{
		{"foo", OutcomeOK},
		{"bar", OutcomeHandlerError},
		{"help", OutcomeHelp},
		{"", OutcomeInvalidCommand},
		{"", OutcomeInvalidEncoding},
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d dispatches, got %d", len(want), len(seen))
	}
	for i, w := range want {
		if seen[i].Command != w.command || seen[i].Outcome != w.outcome {
			t.Fatalf("dispatch %d: got command=%q outcome=%q want command=%q outcome=%q",
				i, seen[i].Command, seen[i].Outcome, w.command, w.outcome)
		}
	}
	if seen[0].Bytes != 3 {
		t.Fatalf("expected 3 bytes for foo, got %d", seen[0].Bytes)
	}
}
