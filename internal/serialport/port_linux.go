//go:build linux

package serialport

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	1200:    unix.B1200,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

// Open opens cfg.Device in raw 8N1 mode at cfg.BaudRate. The descriptor is
// non-blocking so reads park in the runtime poller and Close can interrupt
// them.
func Open(cfg Config) (*Port, error) {
	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		return nil, ErrNoDevice
	}
	speed, ok := baudRates[cfg.BaudRate]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBaud, cfg.BaudRate)
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", device, err)
	}
	if err := configure(fd, speed); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("serialport: configure %s: %w", device, err)
	}
	return &Port{f: os.NewFile(uintptr(fd), device), device: device}, nil
}

func configure(fd int, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	makeRaw(t, speed)
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func makeRaw(t *unix.Termios, speed uint32) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed = speed
	t.Ospeed = speed
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

// SupportedBaud reports whether rate can be configured.
func SupportedBaud(rate int) bool {
	_, ok := baudRates[rate]
	return ok
}
