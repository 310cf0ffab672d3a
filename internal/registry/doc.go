// Package registry owns command storage for the line harness.
//
// Ownership boundary:
// - command name, help text, and handler shape
//
// - name-keyed lookup and deterministic listing
//
// The registry never invokes handlers; dispatch belongs to the harness.
package registry
