// Package harness owns byte ingestion and line dispatch.
//
// Ownership boundary:
// - the accumulation buffer for the line being typed
//
// - resolving a completed line to a registered command
//
// - reporting results, errors, and the prompt to the output sink
//
// Lifecycle order:
// - New -> AddCommand -> Prompt -> Receive/ReceiveAndPrint per byte
//
// - AddCommand may also run between lines.
//
// A Harness is not safe for concurrent use. One ingestion goroutine feeds it
// bytes; handlers run synchronously on that goroutine and must not block
// indefinitely.
//
// Wire strings:
// - prompt "> " (flushed when the sink supports Flush)
//
// - help line "Command: {name} - {help}\n"
//
// - error line "Error: {message}\n"
package harness
