package effect

import (
	"time"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/strip"
)

type EnergyConfig struct {
	Color   strip.Color
	Delay   time.Duration
	Repeats int
}

type FocusConfig struct {
	Color strip.Color
	Dwell time.Duration
	// AckTimeout bounds each wait for DONE. It must exceed the follower's
	// longest fill, or the trigger is resent while that fill still runs.
	// Zero waits forever.
	AckTimeout time.Duration
	// AckRetries is how many times a trigger is resent after a silent
	// AckTimeout.
	AckRetries int
}

type LoveConfig struct {
	Color strip.Color
	Steps int
	// Ramps are the heartbeat ramp durations, alternating rise and fall.
	Ramps []time.Duration
	Rest  time.Duration
}

type HealingConfig struct {
	Steps  int
	Fade   time.Duration
	Settle time.Duration
	PauseC time.Duration
	PauseD time.Duration
}

type ReliefConfig struct {
	Pairs  anim.PairTiming
	Lead   time.Duration
	Settle time.Duration
	PauseC time.Duration
	PauseD time.Duration
}

type Config struct {
	Energy  EnergyConfig
	Focus   FocusConfig
	Love    LoveConfig
	Healing HealingConfig
	Relief  ReliefConfig
}

// DefaultConfig returns the timings the installation was tuned with.
func DefaultConfig() Config {
	return Config{
		Energy: EnergyConfig{
			Color:   strip.Color{B: 255},
			Delay:   100 * time.Millisecond,
			Repeats: 1000,
		},
		Focus: FocusConfig{
			Color:      strip.Color{R: 255, G: 255},
			Dwell:      200 * time.Millisecond,
			AckTimeout: 15 * time.Second,
			AckRetries: 1,
		},
		Love: LoveConfig{
			Color: strip.Color{R: 255},
			Steps: 20,
			Ramps: []time.Duration{
				10 * time.Millisecond,
				10 * time.Millisecond,
				10 * time.Millisecond,
				330 * time.Millisecond,
			},
			Rest: 200 * time.Millisecond,
		},
		Healing: HealingConfig{
			Steps:  50,
			Fade:   500 * time.Millisecond,
			Settle: 200 * time.Millisecond,
			PauseC: 2 * time.Second,
			PauseD: 1500 * time.Millisecond,
		},
		Relief: ReliefConfig{
			Pairs:  anim.DefaultPairTiming,
			Lead:   20 * time.Millisecond,
			Settle: 500 * time.Millisecond,
			PauseC: 13 * time.Second,
			PauseD: 21 * time.Second,
		},
	}
}
