package effect

import (
	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/token"
)

// runRelief plays the pair fade on the smaller local strip, then the larger,
// then hands the pattern to C and D in turn.
func runRelief(e *Engine, a *anim.Animator, _ *token.Token, feeling string) {
	cfg := e.cfg.Relief
	entry := mood.ForFeeling(feeling)
	small, large := e.ordered()
	steps := []remoteStep{{link.TargetC, cfg.PauseC}, {link.TargetD, cfg.PauseD}}

	for !a.Stopped() {
		e.send(mood.Relief.String())
		if !a.Sleep(cfg.Lead) {
			return
		}
		if !a.PairFade(small, entry.Color, cfg.Pairs) {
			return
		}
		if !a.PairFade(large, entry.Color, cfg.Pairs) {
			return
		}
		if !a.Sleep(cfg.Settle) {
			return
		}
		for _, st := range steps {
			e.send(mood.Relief.String())
			e.send(link.ReliefData{Target: st.target, ColorName: entry.Name}.Line())
			if !a.Sleep(st.pause) {
				return
			}
		}
	}
}
