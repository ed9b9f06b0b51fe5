// Package dispatcher is the follower node's mode state machine. It reads
// mode lines while idle and keeps exactly one receiver running while active.
package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/token"
)

type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Runner serves one mood until stopped or until another mood is requested.
type Runner interface {
	Run(tok *token.Token, m mood.Mood) (next mood.Mood, err error)
	Has(m mood.Mood) bool
	Dark()
}

// Link is read only while idle; the running receiver owns it otherwise.
type Link interface {
	Receive(ctx context.Context, timeout time.Duration) (string, error)
}

type result struct {
	next mood.Mood
	err  error
}

type Dispatcher struct {
	runner      Runner
	link        Link
	poll        time.Duration
	joinTimeout time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	state   State
	current mood.Mood
	tok     *token.Token
	done    chan struct{}
	results chan result
}

type Option func(*Dispatcher)

func WithPoll(d time.Duration) Option {
	return func(p *Dispatcher) {
		if d > 0 {
			p.poll = d
		}
	}
}

func WithJoinTimeout(d time.Duration) Option {
	return func(p *Dispatcher) {
		if d > 0 {
			p.joinTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Dispatcher) { p.metrics = m }
}

func New(r Runner, l Link, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner:      r,
		link:        l,
		poll:        100 * time.Millisecond,
		joinTimeout: time.Second,
		logger:      logger.With().Str("component", "dispatcher").Logger(),
		state:       Idle,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// State returns the current state and, when active, the mood being served.
func (d *Dispatcher) State() (State, mood.Mood) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.current
}

// Run drives the state machine until ctx is done or the link closes. The
// strips are dark when it returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.Stop()
	d.logger.Info().Msg("waiting for mode lines")
	for {
		if results := d.pending(); results != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case res := <-results:
				if err := d.finished(res); err != nil {
					return err
				}
			}
			continue
		}

		line, err := d.link.Receive(ctx, d.poll)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, link.ErrClosed) {
			return err
		}
		if err != nil {
			continue
		}
		m, err := link.ParseMode(line)
		if err != nil || !d.runner.Has(m) {
			d.logger.Warn().Str("line", line).Msg("unknown command while idle")
			continue
		}
		d.start(m)
	}
}

// Stop ends the running receiver and clears the strips. It does nothing
// when idle.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Dispatcher) pending() chan result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Active {
		return nil
	}
	return d.results
}

// finished handles the end of a receiver: a requested switch starts the next
// mood right away, anything else returns to idle.
func (d *Dispatcher) finished(res result) error {
	switch {
	case res.next != "" && d.runner.Has(res.next):
		d.logger.Info().Str("mood", res.next.String()).Msg("mode switch")
		d.start(res.next)
		return nil
	case errors.Is(res.err, link.ErrClosed):
		d.Stop()
		return res.err
	case res.err != nil:
		d.logger.Error().Err(res.err).Msg("receiver failed")
	}
	d.Stop()
	return nil
}

func (d *Dispatcher) start(m mood.Mood) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	tok := token.New()
	done := make(chan struct{})
	results := make(chan result, 1)
	d.state, d.current, d.tok, d.done, d.results = Active, m, tok, done, results
	go func() {
		defer close(done)
		next, err := d.runner.Run(tok, m)
		results <- result{next: next, err: err}
	}()
	d.logger.Info().Str("mood", m.String()).Msg("mode started")
}

func (d *Dispatcher) stopLocked() {
	if d.state != Active {
		return
	}
	d.tok.Set()
	timer := time.NewTimer(d.joinTimeout)
	defer timer.Stop()
	select {
	case <-d.done:
	case <-timer.C:
		d.metrics.WorkerAbandoned()
		d.logger.Warn().Str("mood", d.current.String()).Msg("receiver did not stop in time, abandoning it")
	}
	d.runner.Dark()
	d.logger.Info().Str("mood", d.current.String()).Msg("mode stopped")
	d.state, d.current, d.tok, d.done, d.results = Idle, "", nil, nil, nil
	d.metrics.Idle()
}
