// Package effect runs the driver node's mood animations on local strips A and
// B while steering the follower over the link.
package effect

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// Link is the part of the serial link the effects use.
type Link interface {
	Send(line string) error
	TryReceive() (string, bool)
	Receive(ctx context.Context, timeout time.Duration) (string, error)
}

// Routine is one mood's animation loop. It returns when the token is set or
// the animation runs out.
type Routine func(e *Engine, a *anim.Animator, tok *token.Token, feeling string)

// Engine owns the local strips for the lifetime of the process. At most one
// routine runs at a time; the supervisor enforces that.
type Engine struct {
	A, B    *strip.Strip
	link    Link
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	routines map[mood.Mood]Routine
}

func New(a, b *strip.Strip, l Link, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Engine {
	e := &Engine{
		A:        a,
		B:        b,
		link:     l,
		cfg:      cfg,
		logger:   logger.With().Str("component", "effect").Logger(),
		metrics:  m,
		routines: map[mood.Mood]Routine{},
	}
	e.Register(mood.Energy, runEnergy)
	e.Register(mood.Focus, runFocus)
	e.Register(mood.Love, runLove)
	e.Register(mood.Healing, runHealing)
	e.Register(mood.Relief, runRelief)
	return e
}

// Register replaces the routine for m.
func (e *Engine) Register(m mood.Mood, r Routine) {
	if r == nil {
		return
	}
	e.routines[m] = r
}

// Has reports whether a routine exists for m.
func (e *Engine) Has(m mood.Mood) bool {
	_, ok := e.routines[m]
	return ok
}

// Run executes the routine for m on the calling goroutine. Both local strips
// are dark when it returns, including after a panic.
func (e *Engine) Run(tok *token.Token, m mood.Mood, feeling string) (err error) {
	r, ok := e.routines[m]
	if !ok {
		return fmt.Errorf("%w: %q", mood.ErrUnknown, m)
	}
	log := e.logger.With().Str("mood", m.String()).Logger()
	a := anim.New(tok, log)

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("effect crashed")
			err = fmt.Errorf("effect %s: panic: %v", m, p)
		}
		a.Dark(e.A, e.B)
		e.metrics.Finished(m.String())
		log.Info().Msg("effect finished")
	}()

	e.metrics.Activated(m.String())
	log.Info().Str("feeling", feeling).Msg("effect started")
	a.Dark(e.A, e.B)
	r(e, a, tok, feeling)
	return nil
}

// Dark forces both local strips off.
func (e *Engine) Dark() {
	anim.New(nil, e.logger).Dark(e.A, e.B)
}

func (e *Engine) send(line string) {
	// failures are logged by the link
	_ = e.link.Send(line)
}

// ordered returns the local strips smallest first.
func (e *Engine) ordered() (small, large *strip.Strip) {
	if e.B.Len() < e.A.Len() {
		return e.B, e.A
	}
	return e.A, e.B
}
