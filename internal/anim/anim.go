// Package anim holds the strip animations shared by the driver effects and
// the follower receivers.
package anim

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// Animator paints strips for one activation. Every interruptible primitive
// reports false once the token is set.
type Animator struct {
	tok    *token.Token
	logger zerolog.Logger
}

// New returns an Animator bound to tok. A nil tok never interrupts.
func New(tok *token.Token, logger zerolog.Logger) *Animator {
	return &Animator{tok: tok, logger: logger}
}

// Stopped reports whether the token has been set.
func (a *Animator) Stopped() bool {
	return a.tok != nil && a.tok.IsSet()
}

// Sleep waits d or until the token is set.
func (a *Animator) Sleep(d time.Duration) bool {
	if a.tok == nil {
		time.Sleep(d)
		return true
	}
	return a.tok.Sleep(d)
}

// Show commits each strip. Driver errors are logged and otherwise ignored.
func (a *Animator) Show(strips ...*strip.Strip) {
	for _, s := range strips {
		if err := s.Commit(); err != nil {
			a.logger.Warn().Err(err).Msg("commit")
		}
	}
}

// Fill paints every pixel of each strip c and commits.
func (a *Animator) Fill(c strip.Color, strips ...*strip.Strip) {
	for _, s := range strips {
		s.Fill(c)
	}
	a.Show(strips...)
}

// Dark turns every strip off.
func (a *Animator) Dark(strips ...*strip.Strip) {
	a.Fill(strip.Off, strips...)
}

// Level is the i-th of steps+1 brightness levels between start and end.
func Level(start, end, i, steps int) int {
	if steps <= 0 {
		return end
	}
	return int(float64(start) + float64(end-start)*float64(i)/float64(steps))
}

// Fade runs steps+1 levels from start to end over d, filling the strips with
// base scaled to each level. onStep, if set, sees every level after the
// commit. The token is checked before every step.
func (a *Animator) Fade(base strip.Color, start, end int, d time.Duration, steps int, onStep func(level int), strips ...*strip.Strip) bool {
	return a.fade(true, base, start, end, d, steps, onStep, strips...)
}

// Ramp is Fade without cancellation. The caller checks the token between
// ramps.
func (a *Animator) Ramp(base strip.Color, start, end int, d time.Duration, steps int, onStep func(level int), strips ...*strip.Strip) {
	a.fade(false, base, start, end, d, steps, onStep, strips...)
}

func (a *Animator) fade(interruptible bool, base strip.Color, start, end int, d time.Duration, steps int, onStep func(level int), strips ...*strip.Strip) bool {
	if steps < 1 {
		steps = 1
	}
	delay := d / time.Duration(steps)
	for i := 0; i <= steps; i++ {
		if interruptible && a.Stopped() {
			return false
		}
		lvl := Level(start, end, i, steps)
		a.Fill(base.Scale(float64(lvl)), strips...)
		if onStep != nil {
			onStep(lvl)
		}
		if !interruptible {
			time.Sleep(delay)
		} else if !a.Sleep(delay) {
			return false
		}
	}
	return true
}

// CircularFill lights the strip one pixel per dwell, then turns the pixels
// off in the same order. reverse walks from the last pixel down.
func (a *Animator) CircularFill(s *strip.Strip, c strip.Color, dwell time.Duration, reverse bool) bool {
	n := s.Len()
	order := make([]int, n)
	for i := range order {
		if reverse {
			order[i] = n - 1 - i
		} else {
			order[i] = i
		}
	}
	for _, pass := range []strip.Color{c, strip.Off} {
		for _, i := range order {
			if a.Stopped() {
				return false
			}
			s.Set(i, pass)
			a.Show(s)
			if !a.Sleep(dwell) {
				return false
			}
		}
	}
	return true
}
