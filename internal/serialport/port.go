package serialport

import (
	"errors"
	"os"
)

var (
	ErrUnsupportedBaud     = errors.New("serialport: unsupported baud rate")
	ErrUnsupportedPlatform = errors.New("serialport: unsupported platform")
	ErrNoDevice            = errors.New("serialport: device is required")
)

type Config struct {
	Device   string
	BaudRate int
}

// Port is an open serial device in raw mode.
type Port struct {
	f      *os.File
	device string
}

func (p *Port) Read(b []byte) (int, error) {
	return p.f.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Close releases the device. A Read blocked on the port returns once Close
// runs.
func (p *Port) Close() error {
	return p.f.Close()
}

func (p *Port) Device() string {
	return p.device
}
