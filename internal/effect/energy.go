package effect

import (
	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// runEnergy blinks every strip between the energy color and black. A zero
// repeat count blinks until stopped.
func runEnergy(e *Engine, a *anim.Animator, _ *token.Token, _ string) {
	cfg := e.cfg.Energy
	e.send(mood.Energy.String())
	defer e.paintRemote(strip.Off)

	for i := 0; cfg.Repeats <= 0 || i < cfg.Repeats; i++ {
		for _, c := range []strip.Color{cfg.Color, strip.Off} {
			if a.Stopped() {
				return
			}
			a.Fill(c, e.A, e.B)
			e.paintRemote(c)
			if !a.Sleep(cfg.Delay) {
				return
			}
		}
	}
}

func (e *Engine) paintRemote(c strip.Color) {
	for _, t := range []link.Target{link.TargetC, link.TargetD} {
		e.send(link.EnergyData{Target: t, Color: c}.Line())
	}
}
