// Package receiver runs the follower node's side of each mood on strips C
// and D, driven by lines from the link.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// Link is the part of the serial link the receivers use.
type Link interface {
	Send(line string) error
	Receive(ctx context.Context, timeout time.Duration) (string, error)
}

// Handler applies one decoded effect-data message. It reports false when the
// token interrupted it.
type Handler func(r *Receivers, a *anim.Animator, msg link.Message) bool

type Config struct {
	// BaseColor is what love and focus levels scale.
	BaseColor    strip.Color
	FocusDwell   time.Duration
	HealingFade  time.Duration
	HealingSteps int
	Pairs        anim.PairTiming
	// Poll bounds each link read so the token is seen promptly.
	Poll time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseColor:    strip.Color{R: 255},
		FocusDwell:   200 * time.Millisecond,
		HealingFade:  500 * time.Millisecond,
		HealingSteps: 50,
		Pairs:        anim.DefaultPairTiming,
		Poll:         100 * time.Millisecond,
	}
}

// Receivers owns strips C and D.
type Receivers struct {
	C, D    *strip.Strip
	link    Link
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	handlers map[mood.Mood]Handler
}

func New(c, d *strip.Strip, l Link, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Receivers {
	r := &Receivers{
		C:        c,
		D:        d,
		link:     l,
		cfg:      cfg,
		logger:   logger.With().Str("component", "receiver").Logger(),
		metrics:  m,
		handlers: map[mood.Mood]Handler{},
	}
	r.Register(mood.Energy, onEnergy)
	r.Register(mood.Focus, onFocus)
	r.Register(mood.Love, onLove)
	r.Register(mood.Healing, onHealing)
	r.Register(mood.Relief, onRelief)
	return r
}

func (r *Receivers) Register(m mood.Mood, h Handler) {
	if h == nil {
		return
	}
	r.handlers[m] = h
}

func (r *Receivers) Has(m mood.Mood) bool {
	_, ok := r.handlers[m]
	return ok
}

// Run serves mood m until the token is set or a mode line for another mood
// arrives. In the second case that mood is returned. Strips C and D are dark
// when Run returns.
func (r *Receivers) Run(tok *token.Token, m mood.Mood) (next mood.Mood, err error) {
	h, ok := r.handlers[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", mood.ErrUnknown, m)
	}
	log := r.logger.With().Str("mood", m.String()).Logger()
	a := anim.New(tok, log)

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("receiver crashed")
			next, err = "", fmt.Errorf("receiver %s: panic: %v", m, p)
		}
		a.Dark(r.C, r.D)
		r.metrics.Finished(m.String())
		log.Info().Msg("receiver finished")
	}()

	r.metrics.Activated(m.String())
	log.Info().Msg("receiver started")
	a.Dark(r.C, r.D)

	for {
		line, rerr := r.link.Receive(tok.Context(), r.cfg.Poll)
		if tok.IsSet() {
			return "", nil
		}
		switch {
		case errors.Is(rerr, link.ErrClosed):
			return "", rerr
		case rerr != nil:
			continue
		}

		msg, perr := link.Decode(m, line)
		if perr != nil {
			r.metrics.ParseError(m.String())
			log.Warn().Err(perr).Str("line", line).Msg("skipping line")
			continue
		}
		switch v := msg.(type) {
		case link.ModeLine:
			if v.Mood != m {
				return v.Mood, nil
			}
		case link.Ack:
			log.Debug().Msg("stray DONE")
		default:
			if !h(r, a, msg) {
				return "", nil
			}
		}
	}
}

// Dark forces both strips off.
func (r *Receivers) Dark() {
	anim.New(nil, r.logger).Dark(r.C, r.D)
}

func (r *Receivers) strips(t link.Target) []*strip.Strip {
	switch t {
	case link.TargetC:
		return []*strip.Strip{r.C}
	case link.TargetD:
		return []*strip.Strip{r.D}
	case link.TargetAll:
		return []*strip.Strip{r.C, r.D}
	}
	return nil
}

// colorNamed resolves a wire color name, warning on the white fallback.
func (r *Receivers) colorNamed(name string) strip.Color {
	c, ok := mood.ColorByName(name)
	if !ok {
		r.logger.Warn().Str("color", name).Str("using", mood.DefaultColorName).Msg("unsupported color")
	}
	return c
}
