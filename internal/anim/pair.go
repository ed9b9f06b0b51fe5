package anim

import (
	"time"

	"github.com/coreman2200/moodlight/internal/strip"
)

// PairTiming shapes the symmetric pair fade.
type PairTiming struct {
	InSteps  int
	OutSteps int
	Delay    time.Duration
}

var DefaultPairTiming = PairTiming{InSteps: 10, OutSteps: 5, Delay: 50 * time.Millisecond}

// Pairs matches pixel i with its mirror n-1-i. Mirrored pairs start from the
// back of the strip. An odd middle pixel is left out.
func Pairs(n int, mirrored bool) [][2]int {
	out := make([][2]int, 0, n/2)
	for i := 0; i < n/2; i++ {
		if mirrored {
			out = append(out, [2]int{n - 1 - i, i})
		} else {
			out = append(out, [2]int{i, n - 1 - i})
		}
	}
	return out
}

// PairFade runs one relief cycle on s: pairs fade in one after another, each
// brighter than the last, then fade out in order, then the same again with
// mirrored pairs.
func (a *Animator) PairFade(s *strip.Strip, c strip.Color, t PairTiming) bool {
	if t.InSteps < 1 {
		t.InSteps = 1
	}
	if t.OutSteps < 1 {
		t.OutSteps = 1
	}
	for _, mirrored := range []bool{false, true} {
		pairs := Pairs(s.Len(), mirrored)
		for idx, p := range pairs {
			peak := float64(idx+1) / float64(len(pairs))
			if !a.fadeInPair(s, p, c, peak, t) {
				return false
			}
		}
		for _, p := range pairs {
			if a.Stopped() {
				return false
			}
			if !a.turnOffPair(s, p, t) {
				return false
			}
		}
	}
	return true
}

func (a *Animator) fadeInPair(s *strip.Strip, p [2]int, c strip.Color, peak float64, t PairTiming) bool {
	for step := 0; step < t.InSteps; step++ {
		if a.Stopped() {
			return false
		}
		px := c.Dim(peak * float64(step+1) / float64(t.InSteps))
		s.Set(p[0], px)
		s.Set(p[1], px)
		a.Show(s)
		if !a.Sleep(t.Delay) {
			return false
		}
	}
	return true
}

// turnOffPair dims from the pair's current color and always ends dark.
func (a *Animator) turnOffPair(s *strip.Strip, p [2]int, t PairTiming) bool {
	from := s.Get(p[0])
	ok := true
	for step := 0; step < t.OutSteps; step++ {
		if a.Stopped() {
			ok = false
			break
		}
		px := from.Dim(1 - float64(step+1)/float64(t.OutSteps))
		s.Set(p[0], px)
		s.Set(p[1], px)
		a.Show(s)
		if !a.Sleep(t.Delay) {
			ok = false
			break
		}
	}
	s.Set(p[0], strip.Off)
	s.Set(p[1], strip.Off)
	a.Show(s)
	return ok
}
