// Package supervisor keeps at most one driver effect running and switches
// between them on request.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/token"
)

// DefaultJoinTimeout bounds how long a stop waits for the running effect.
const DefaultJoinTimeout = time.Second

var ErrClosed = errors.New("supervisor closed")

// Runner executes one effect to completion on the calling goroutine.
type Runner interface {
	Run(tok *token.Token, m mood.Mood, feeling string) error
	Has(m mood.Mood) bool
	Dark()
}

type Supervisor struct {
	runner      Runner
	link        io.Closer
	joinTimeout time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	// switchMu serializes Request, Stop and Cleanup across the join. mu only
	// guards the fields below, so Active and Done never wait on a join.
	switchMu sync.Mutex
	mu       sync.Mutex
	tok      *token.Token
	done     chan struct{}
	active   mood.Mood
	closed   bool
}

type Option func(*Supervisor)

func WithJoinTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.joinTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// New returns an idle supervisor. link is closed by Cleanup and may be nil.
func New(r Runner, link io.Closer, logger zerolog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		runner:      r,
		link:        link,
		joinTimeout: DefaultJoinTimeout,
		logger:      logger.With().Str("component", "supervisor").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Request stops whatever is running and starts m. Requests are not queued;
// the latest one wins.
func (s *Supervisor) Request(m mood.Mood, feeling string) error {
	if !s.runner.Has(m) {
		return fmt.Errorf("%w: %q", mood.ErrUnknown, m)
	}
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	if s.isClosed() {
		return ErrClosed
	}
	s.stop()

	tok := token.New()
	done := make(chan struct{})
	s.mu.Lock()
	s.tok, s.done, s.active = tok, done, m
	s.mu.Unlock()
	go func() {
		defer close(done)
		if err := s.runner.Run(tok, m, feeling); err != nil {
			s.logger.Error().Err(err).Str("mood", m.String()).Msg("effect failed")
		}
	}()
	s.logger.Info().Str("mood", m.String()).Str("feeling", feeling).Msg("mode started")
	return nil
}

// RunEffect starts the effect named by wanted, colored by feeling. It is the
// entry point for the input and classifier collaborators.
func (s *Supervisor) RunEffect(feeling, wanted string) error {
	m, err := mood.Parse(wanted)
	if err != nil {
		return err
	}
	return s.Request(m, strings.ToLower(strings.TrimSpace(feeling)))
}

// Stop ends the running effect. It does nothing when idle.
func (s *Supervisor) Stop() {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.stop()
}

// StopEffect is Stop under the name the collaborators use.
func (s *Supervisor) StopEffect() { s.Stop() }

// Cleanup stops, forces the local strips dark and closes the link. Further
// requests fail with ErrClosed.
func (s *Supervisor) Cleanup() error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.stop()
	s.runner.Dark()
	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if wasClosed || s.link == nil {
		return nil
	}
	return s.link.Close()
}

// Active returns the running mood, if any.
func (s *Supervisor) Active() (mood.Mood, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return "", false
	}
	select {
	case <-s.done:
		return "", false
	default:
		return s.active, true
	}
}

// Done is closed when the current effect returns. It is already closed when
// idle.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return s.done
}

func (s *Supervisor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// stop sets the running effect's token and waits for it, at most
// joinTimeout, without holding mu. The caller holds switchMu.
func (s *Supervisor) stop() {
	s.mu.Lock()
	tok, done, active := s.tok, s.done, s.active
	s.mu.Unlock()
	if tok == nil {
		return
	}
	tok.Set()
	timer := time.NewTimer(s.joinTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.metrics.WorkerAbandoned()
		s.logger.Warn().Str("mood", active.String()).Dur("waited", s.joinTimeout).Msg("effect did not stop in time, abandoning it")
	}
	s.logger.Info().Str("mood", active.String()).Msg("mode stopped")
	s.mu.Lock()
	s.tok, s.done, s.active = nil, nil, ""
	s.mu.Unlock()
	s.metrics.Idle()
}
