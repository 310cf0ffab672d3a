//go:build !linux

package serialport

func Open(cfg Config) (*Port, error) {
	return nil, ErrUnsupportedPlatform
}

// SupportedBaud accepts the standard rates so configs still validate on
// platforms where Open is unavailable.
func SupportedBaud(rate int) bool {
	switch rate {
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600, 1000000:
		return true
	}
	return false
}
