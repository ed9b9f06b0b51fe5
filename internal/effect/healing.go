package effect

import (
	"time"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// remoteStep is one blind-timed trigger of a follower strip.
type remoteStep struct {
	target link.Target
	pause  time.Duration
}

// runHealing breathes A then B in the feeling's color, then triggers C and D
// by name and waits out their fades on a fixed clock.
func runHealing(e *Engine, a *anim.Animator, _ *token.Token, feeling string) {
	cfg := e.cfg.Healing
	entry := mood.ForFeeling(feeling)
	e.send(mood.Healing.String())
	defer func() {
		a.Dark(e.A, e.B)
		for _, t := range []link.Target{link.TargetC, link.TargetD} {
			e.send(link.HealingData{Target: t, Level: 0, ColorName: entry.Name}.Line())
		}
	}()

	if !a.Sleep(cfg.Settle) {
		return
	}
	steps := []remoteStep{{link.TargetC, cfg.PauseC}, {link.TargetD, cfg.PauseD}}
	for !a.Stopped() {
		for _, s := range []*strip.Strip{e.A, e.B} {
			if !a.Fade(entry.Color, 0, 100, cfg.Fade, cfg.Steps, nil, s) {
				return
			}
			if !a.Fade(entry.Color, 100, 0, cfg.Fade, cfg.Steps, nil, s) {
				return
			}
		}
		for _, st := range steps {
			e.send(link.HealingData{Target: st.target, Level: 100, ColorName: entry.Name}.Line())
			e.send(link.HealingData{Target: st.target, Level: 0, ColorName: entry.Name}.Line())
			if !a.Sleep(st.pause) {
				return
			}
		}
	}
}
