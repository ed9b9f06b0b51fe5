package effect

import (
	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/token"
)

// runLove beats a heartbeat on all four strips. A beat always completes once
// started; the token is only consulted between beats.
func runLove(e *Engine, a *anim.Animator, _ *token.Token, _ string) {
	cfg := e.cfg.Love
	e.send(mood.Love.String())
	defer e.loveLevel(0)

	for !a.Stopped() {
		rise := true
		for _, d := range cfg.Ramps {
			from, to := 0, 100
			if !rise {
				from, to = 100, 0
			}
			a.Ramp(cfg.Color, from, to, d, cfg.Steps, e.loveLevel, e.A, e.B)
			rise = !rise
		}
		a.Sleep(cfg.Rest)
	}
}

func (e *Engine) loveLevel(level int) {
	for _, t := range []link.Target{link.TargetC, link.TargetD} {
		e.send(link.LoveData{Target: t, Level: level}.Line())
	}
}
