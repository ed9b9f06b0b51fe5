package effect

import (
	"errors"
	"time"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/token"
)

// runFocus alternates between the follower's strips (D then C, each waiting
// for DONE) and a circular fill of B ascending then A descending.
func runFocus(e *Engine, a *anim.Animator, tok *token.Token, _ string) {
	cfg := e.cfg.Focus
	e.send(mood.Focus.String())

	for !a.Stopped() {
		for _, t := range []link.Target{link.TargetD, link.TargetC} {
			if !e.trigger(tok, link.FocusData{Target: t, Level: 100}) {
				return
			}
		}
		if !a.CircularFill(e.B, cfg.Color, cfg.Dwell, false) {
			return
		}
		if !a.CircularFill(e.A, cfg.Color, cfg.Dwell, true) {
			return
		}
	}
}

// trigger sends msg and waits for the follower's DONE, resending only after a
// full AckTimeout of silence. It gives up after the configured retries and
// carries on; it reports false only when the token is set.
func (e *Engine) trigger(tok *token.Token, msg link.Message) bool {
	cfg := e.cfg.Focus
	for attempt := 0; attempt <= cfg.AckRetries; attempt++ {
		// a DONE already queued belongs to an earlier trigger
		e.discardPending()
		e.send(msg.Line())
		err := e.awaitAck(tok, cfg.AckTimeout)
		if err == nil {
			return true
		}
		if tok.IsSet() {
			return false
		}
		if errors.Is(err, link.ErrClosed) {
			break
		}
		e.logger.Warn().Str("line", msg.Line()).Int("attempt", attempt+1).Msg("no DONE from follower")
	}
	e.metrics.AckTimeout()
	e.logger.Error().Str("line", msg.Line()).Msg("follower never acknowledged, continuing")
	return true
}

func (e *Engine) awaitAck(tok *token.Token, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var wait time.Duration
		if timeout > 0 {
			if wait = time.Until(deadline); wait <= 0 {
				return link.ErrTimeout
			}
		}
		line, err := e.link.Receive(tok.Context(), wait)
		if err != nil {
			return err
		}
		if link.IsAck(line) {
			return nil
		}
		e.logger.Debug().Str("line", line).Msg("ignored while waiting for DONE")
	}
}

// discardPending drops lines left over from an earlier trigger or activation,
// so a late DONE cannot release the next barrier.
func (e *Engine) discardPending() {
	for {
		if _, ok := e.link.TryReceive(); !ok {
			return
		}
	}
}
