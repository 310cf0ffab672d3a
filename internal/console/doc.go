// Package console drives a harness from a byte source.
//
// Ownership boundary:
// - the read loop and its cancellation
//
// - terminal raw mode and CRLF output translation
//
// Run is the only goroutine that touches the harness. Reads happen on a
// helper goroutine so cancellation does not wait for input.
package console
