package receiver

import (
	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/link"
)

func onEnergy(r *Receivers, a *anim.Animator, msg link.Message) bool {
	m := msg.(link.EnergyData)
	a.Fill(m.Color, r.strips(m.Target)...)
	return true
}

func onLove(r *Receivers, a *anim.Animator, msg link.Message) bool {
	m := msg.(link.LoveData)
	a.Fill(r.cfg.BaseColor.Scale(float64(m.Level)), r.strips(m.Target)...)
	return true
}

// onFocus runs one circular fill and acknowledges it. An interrupted fill is
// not acknowledged.
func onFocus(r *Receivers, a *anim.Animator, msg link.Message) bool {
	m := msg.(link.FocusData)
	if m.Level <= 0 {
		return true
	}
	for _, s := range r.strips(m.Target) {
		if !a.CircularFill(s, r.cfg.BaseColor, r.cfg.FocusDwell, false) {
			return false
		}
	}
	// failures are logged by the link
	_ = r.link.Send(link.Ack{}.Line())
	return true
}

// onHealing breathes each target once up to the requested level.
func onHealing(r *Receivers, a *anim.Animator, msg link.Message) bool {
	m := msg.(link.HealingData)
	c := r.colorNamed(m.ColorName)
	for _, s := range r.strips(m.Target) {
		if !a.Fade(c, 0, m.Level, r.cfg.HealingFade, r.cfg.HealingSteps, nil, s) {
			return false
		}
		if !a.Fade(c, m.Level, 0, r.cfg.HealingFade, r.cfg.HealingSteps, nil, s) {
			return false
		}
	}
	return true
}

func onRelief(r *Receivers, a *anim.Animator, msg link.Message) bool {
	m := msg.(link.ReliefData)
	c := r.colorNamed(m.ColorName)
	for _, s := range r.strips(m.Target) {
		if !a.PairFade(s, c, r.cfg.Pairs) {
			return false
		}
	}
	return true
}
