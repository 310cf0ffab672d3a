// Package observability owns process logging setup, prometheus metrics for
// line dispatch, and the gin middleware used by the metrics endpoint.
package observability
