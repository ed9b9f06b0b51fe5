package link

import (
	"fmt"

	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
)

// Target names a remote strip, or every strip for healing.
type Target string

const (
	TargetC   Target = "C"
	TargetD   Target = "D"
	TargetAll Target = "ALL"
)

// AckLine is the follower's focus completion handshake.
const AckLine = "DONE"

// Message is one decoded command line. The set of implementations is closed.
type Message interface {
	// Line renders the message without the trailing newline.
	Line() string
	message()
}

// ModeLine switches the follower to Mood.
type ModeLine struct {
	Mood mood.Mood
}

// EnergyData paints a whole remote strip with an absolute color.
type EnergyData struct {
	Target Target
	Color  strip.Color
}

// FocusData triggers one circular fill on the target strip.
type FocusData struct {
	Target Target
	Level  int
}

// LoveData sets the target's brightness against the follower's base color.
type LoveData struct {
	Target Target
	Level  int
}

// HealingData runs one fade cycle up to Level in the named color.
type HealingData struct {
	Target    Target
	Level     int
	ColorName string
}

// ReliefData runs one pair-fade pattern in the named color.
type ReliefData struct {
	Target    Target
	ColorName string
}

// Ack is the DONE line.
type Ack struct{}

func (m ModeLine) Line() string { return string(m.Mood) }

func (m EnergyData) Line() string {
	return fmt.Sprintf("%s,%d,%d,%d", m.Target, m.Color.R, m.Color.G, m.Color.B)
}

func (m FocusData) Line() string { return fmt.Sprintf("%s,%d", m.Target, m.Level) }

func (m LoveData) Line() string { return fmt.Sprintf("%s,%d", m.Target, m.Level) }

func (m HealingData) Line() string {
	return fmt.Sprintf("%s,%d,%s", m.Target, m.Level, m.ColorName)
}

func (m ReliefData) Line() string { return fmt.Sprintf("%s,%s", m.Target, m.ColorName) }

func (Ack) Line() string { return AckLine }

func (ModeLine) message()    {}
func (EnergyData) message()  {}
func (FocusData) message()   {}
func (LoveData) message()    {}
func (HealingData) message() {}
func (ReliefData) message()  {}
func (Ack) message()         {}
