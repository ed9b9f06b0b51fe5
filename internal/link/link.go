// Package link carries newline-terminated ASCII command lines between the
// driver and follower nodes.
package link

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/metrics"
)

// MaxLineLen bounds a command line. Longer lines are treated as garbled.
const MaxLineLen = 64

var (
	ErrClosed  = errors.New("link closed")
	ErrTimeout = errors.New("receive timed out")
)

// Link is a line-oriented duplex over a serial port. Send may be called from
// any goroutine; lines are never interleaved.
type Link struct {
	port    io.ReadWriteCloser
	logger  zerolog.Logger
	metrics *metrics.Metrics

	writeMu sync.Mutex
	lines   chan string
	done    chan struct{}
	once    sync.Once
	backoff time.Duration
}

type Option func(*Link)

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Link) { l.metrics = m }
}

// WithQueue sets how many received lines may wait for a reader.
func WithQueue(n int) Option {
	return func(l *Link) {
		if n > 0 {
			l.lines = make(chan string, n)
		}
	}
}

// New starts reading port in the background.
func New(port io.ReadWriteCloser, logger zerolog.Logger, opts ...Option) *Link {
	l := &Link{
		port:    port,
		logger:  logger.With().Str("component", "link").Logger(),
		lines:   make(chan string, 256),
		done:    make(chan struct{}),
		backoff: 5 * time.Millisecond,
	}
	for _, o := range opts {
		o(l)
	}
	go l.readLoop()
	return l
}

// Send writes line followed by a newline. Failures are logged and counted
// and returned to the caller, who usually carries on.
func (l *Link) Send(line string) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	l.writeMu.Lock()
	_, err := io.WriteString(l.port, line+"\n")
	l.writeMu.Unlock()
	if err != nil {
		l.metrics.SendError()
		l.logger.Warn().Err(err).Str("line", line).Msg("send failed")
		return err
	}
	l.metrics.Sent()
	l.logger.Trace().Str("line", line).Msg("sent")
	return nil
}

// SendMessage sends m.Line().
func (l *Link) SendMessage(m Message) error {
	return l.Send(m.Line())
}

// TryReceive returns a pending line without blocking.
func (l *Link) TryReceive() (string, bool) {
	select {
	case s, ok := <-l.lines:
		return s, ok
	default:
		return "", false
	}
}

// Receive waits up to timeout for the next line. A zero timeout waits until
// ctx is done.
func (l *Link) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	var tc <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		tc = t.C
	}
	select {
	case s, ok := <-l.lines:
		if !ok {
			return "", ErrClosed
		}
		return s, nil
	case <-tc:
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		return "", ErrClosed
	}
}

// Close stops the reader and closes the port.
func (l *Link) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.port.Close()
	})
	return err
}

func (l *Link) readLoop() {
	defer close(l.lines)
	r := bufio.NewReader(l.port)
	var buf []byte
	garbled := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			if l.stopped(err) {
				return
			}
			// tarm reports an expired read timeout as io.EOF
			if !errors.Is(err, io.EOF) {
				l.logger.Debug().Err(err).Msg("read")
			}
			select {
			case <-l.done:
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		switch {
		case b == '\n':
			if garbled {
				l.metrics.Dropped("garbled")
				l.logger.Debug().Msg("dropped overlong line")
			} else if line := strings.TrimSpace(string(buf)); line != "" {
				l.deliver(line)
			}
			buf = buf[:0]
			garbled = false
		case b == '\r':
		case garbled:
		case len(buf) >= MaxLineLen:
			garbled = true
		case b < 0x20 || b > 0x7e:
			buf = append(buf, '?')
		default:
			buf = append(buf, b)
		}
	}
}

func (l *Link) deliver(line string) {
	l.metrics.Received()
	select {
	case l.lines <- line:
	case <-l.done:
	default:
		l.metrics.Dropped("overflow")
		l.logger.Warn().Str("line", line).Msg("receive queue full")
	}
}

func (l *Link) stopped(err error) bool {
	select {
	case <-l.done:
		return true
	default:
	}
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed)
}
