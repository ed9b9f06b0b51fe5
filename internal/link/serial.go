package link

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// DefaultBaud is the rate both nodes are flashed with.
const DefaultBaud = 115200

// OpenSerial opens a serial device and wraps it in a Link. A short read
// timeout keeps the reader responsive to Close.
func OpenSerial(name string, baud int, readTimeout time.Duration, logger zerolog.Logger, opts ...Option) (*Link, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	if readTimeout <= 0 {
		readTimeout = 100 * time.Millisecond
	}
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	logger.Info().Str("port", name).Int("baud", baud).Msg("serial link open")
	return New(p, logger, opts...), nil
}
