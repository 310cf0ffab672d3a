// Package serialport opens a Linux UART as a raw 8N1 byte stream so it can
// feed the harness one byte at a time and receive its output.
//
// This package does not support Windows or macOS; Open returns
// ErrUnsupportedPlatform there.
package serialport
