package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/moodlight/internal/anim"
	"github.com/coreman2200/moodlight/internal/effect"
	"github.com/coreman2200/moodlight/internal/receiver"
	"github.com/coreman2200/moodlight/internal/strip"
)

// RGB is written as a flow list, e.g. [255, 0, 0].
type RGB []int

func (c RGB) Color() strip.Color {
	var ch [3]uint8
	for i := 0; i < len(c) && i < 3; i++ {
		v := c[i]
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		ch[i] = uint8(v)
	}
	return strip.Color{R: ch[0], G: ch[1], B: ch[2]}
}

func rgb(c strip.Color) RGB { return RGB{int(c.R), int(c.G), int(c.B)} }

type Log struct {
	Level  string `yaml:"level"`  // trace | debug | info | warn | error
	Format string `yaml:"format"` // console | json | journal
}

type Link struct {
	Port        string        `yaml:"port"` // e.g. /dev/serial0
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	Queue       int           `yaml:"queue"`
}

type Strip struct {
	Name     string  `yaml:"name"`
	Count    int     `yaml:"count"`
	Driver   string  `yaml:"driver"` // "nrz" | "console" | "sim"
	SPI      string  `yaml:"spi,omitempty"`
	FreqKHz  int     `yaml:"freq_khz,omitempty"`
	WhiteCap float64 `yaml:"white_cap,omitempty"`
}

type Supervisor struct {
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

type Dispatcher struct {
	Poll        time.Duration `yaml:"poll"`
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

type Energy struct {
	Color   RGB           `yaml:"color,flow"`
	Delay   time.Duration `yaml:"delay"`
	Repeats int           `yaml:"repeats"`
}

type Focus struct {
	Color      RGB           `yaml:"color,flow"`
	Dwell      time.Duration `yaml:"dwell"`
	AckTimeout time.Duration `yaml:"ack_timeout"`
	AckRetries int           `yaml:"ack_retries"`
}

type Love struct {
	Color RGB             `yaml:"color,flow"`
	Steps int             `yaml:"steps"`
	Ramps []time.Duration `yaml:"ramps,flow"`
	Rest  time.Duration   `yaml:"rest"`
}

type Healing struct {
	Steps  int           `yaml:"steps"`
	Fade   time.Duration `yaml:"fade"`
	Settle time.Duration `yaml:"settle"`
	PauseC time.Duration `yaml:"pause_c"`
	PauseD time.Duration `yaml:"pause_d"`
}

type Pairs struct {
	InSteps  int           `yaml:"in_steps"`
	OutSteps int           `yaml:"out_steps"`
	Delay    time.Duration `yaml:"delay"`
}

type Relief struct {
	Pairs  Pairs         `yaml:"pairs"`
	Lead   time.Duration `yaml:"lead"`
	Settle time.Duration `yaml:"settle"`
	PauseC time.Duration `yaml:"pause_c"`
	PauseD time.Duration `yaml:"pause_d"`
}

type Effects struct {
	Energy  Energy  `yaml:"energy"`
	Focus   Focus   `yaml:"focus"`
	Love    Love    `yaml:"love"`
	Healing Healing `yaml:"healing"`
	Relief  Relief  `yaml:"relief"`
}

type Receivers struct {
	BaseColor    RGB           `yaml:"base_color,flow"`
	FocusDwell   time.Duration `yaml:"focus_dwell"`
	HealingFade  time.Duration `yaml:"healing_fade"`
	HealingSteps int           `yaml:"healing_steps"`
	Pairs        Pairs         `yaml:"pairs"`
	Poll         time.Duration `yaml:"poll"`
}

type Metrics struct {
	Addr string `yaml:"addr"` // empty disables /metrics
}

type Preview struct {
	Addr string `yaml:"addr"` // empty disables the websocket preview
}

// Handoff names the files the classifier writes. An empty WantFile turns
// the watcher off.
type Handoff struct {
	WantFile    string        `yaml:"want_file"`
	CurrentFile string        `yaml:"current_file"`
	Debounce    time.Duration `yaml:"debounce"`
}

type Config struct {
	Log  Log  `yaml:"log"`
	Link Link `yaml:"link"`

	// DriverStrips are A and B, FollowerStrips are C and D.
	DriverStrips   []Strip `yaml:"driver_strips"`
	FollowerStrips []Strip `yaml:"follower_strips"`

	Supervisor Supervisor `yaml:"supervisor"`
	Dispatcher Dispatcher `yaml:"dispatcher"`
	Effects    Effects    `yaml:"effects"`
	Receivers  Receivers  `yaml:"receivers"`

	Metrics Metrics `yaml:"metrics"`
	Preview Preview `yaml:"preview"`
	Handoff Handoff `yaml:"handoff"`
}

// Default matches the installed hardware: A and B on the driver's SPI buses,
// C and D on the follower's.
func Default() *Config {
	ef := effect.DefaultConfig()
	rc := receiver.DefaultConfig()
	return &Config{
		Log:  Log{Level: "info", Format: "console"},
		Link: Link{Port: "/dev/serial0", Baud: 115200, ReadTimeout: 100 * time.Millisecond, Queue: 256},
		DriverStrips: []Strip{
			{Name: "A", Count: 8, Driver: "nrz", SPI: "/dev/spidev0.0", FreqKHz: 2500},
			{Name: "B", Count: 12, Driver: "nrz", SPI: "/dev/spidev1.0", FreqKHz: 2500},
		},
		FollowerStrips: []Strip{
			{Name: "C", Count: 16, Driver: "nrz", SPI: "/dev/spidev0.0", FreqKHz: 2500},
			{Name: "D", Count: 24, Driver: "nrz", SPI: "/dev/spidev1.0", FreqKHz: 2500},
		},
		Supervisor: Supervisor{JoinTimeout: time.Second},
		Dispatcher: Dispatcher{Poll: 100 * time.Millisecond, JoinTimeout: time.Second},
		Effects: Effects{
			Energy: Energy{Color: rgb(ef.Energy.Color), Delay: ef.Energy.Delay, Repeats: ef.Energy.Repeats},
			Focus: Focus{
				Color:      rgb(ef.Focus.Color),
				Dwell:      ef.Focus.Dwell,
				AckTimeout: ef.Focus.AckTimeout,
				AckRetries: ef.Focus.AckRetries,
			},
			Love: Love{Color: rgb(ef.Love.Color), Steps: ef.Love.Steps, Ramps: ef.Love.Ramps, Rest: ef.Love.Rest},
			Healing: Healing{
				Steps:  ef.Healing.Steps,
				Fade:   ef.Healing.Fade,
				Settle: ef.Healing.Settle,
				PauseC: ef.Healing.PauseC,
				PauseD: ef.Healing.PauseD,
			},
			Relief: Relief{
				Pairs:  pairs(ef.Relief.Pairs),
				Lead:   ef.Relief.Lead,
				Settle: ef.Relief.Settle,
				PauseC: ef.Relief.PauseC,
				PauseD: ef.Relief.PauseD,
			},
		},
		Receivers: Receivers{
			BaseColor:    rgb(rc.BaseColor),
			FocusDwell:   rc.FocusDwell,
			HealingFade:  rc.HealingFade,
			HealingSteps: rc.HealingSteps,
			Pairs:        pairs(rc.Pairs),
			Poll:         rc.Poll,
		},
		Metrics: Metrics{Addr: ":9102"},
		Handoff: Handoff{Debounce: 300 * time.Millisecond},
	}
}

func pairs(t anim.PairTiming) Pairs {
	return Pairs{InSteps: t.InSteps, OutSteps: t.OutSteps, Delay: t.Delay}
}

func (p Pairs) timing() anim.PairTiming {
	return anim.PairTiming{InSteps: p.InSteps, OutSteps: p.OutSteps, Delay: p.Delay}
}

// Load reads a YAML file over the defaults, so a partial file only changes
// what it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, c.Validate()
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Link.Baud <= 0 {
		errs = append(errs, fmt.Errorf("link.baud must be positive, got %d", c.Link.Baud))
	}
	for _, group := range []struct {
		key    string
		strips []Strip
	}{{"driver_strips", c.DriverStrips}, {"follower_strips", c.FollowerStrips}} {
		if len(group.strips) != 2 {
			errs = append(errs, fmt.Errorf("%s needs exactly 2 strips, got %d", group.key, len(group.strips)))
		}
		for _, s := range group.strips {
			if s.Count <= 0 {
				errs = append(errs, fmt.Errorf("%s %q: count must be positive", group.key, s.Name))
			}
			switch s.Driver {
			case "nrz", "console", "sim":
			default:
				errs = append(errs, fmt.Errorf("%s %q: unknown driver %q", group.key, s.Name, s.Driver))
			}
			if s.WhiteCap < 0 || s.WhiteCap > 1 {
				errs = append(errs, fmt.Errorf("%s %q: white_cap must be within 0..1", group.key, s.Name))
			}
		}
	}
	if c.Handoff.WantFile != "" && c.Handoff.Debounce < 0 {
		errs = append(errs, errors.New("handoff.debounce must not be negative"))
	}
	if c.Effects.Focus.AckRetries < 0 {
		errs = append(errs, errors.New("effects.focus.ack_retries must not be negative"))
	}
	if fill := c.FollowerFill(); c.Effects.Focus.AckTimeout > 0 && c.Effects.Focus.AckTimeout <= fill {
		errs = append(errs, fmt.Errorf("effects.focus.ack_timeout %s must exceed the longest follower fill %s",
			c.Effects.Focus.AckTimeout, fill))
	}
	return errors.Join(errs...)
}

// FollowerFill is how long the follower takes to fill its longest strip on
// and off once during focus.
func (c *Config) FollowerFill() time.Duration {
	longest := 0
	for _, s := range c.FollowerStrips {
		longest = max(longest, s.Count)
	}
	return time.Duration(longest) * 2 * c.Receivers.FocusDwell
}

// EffectConfig converts the effects section for the driver engine.
func (c *Config) EffectConfig() effect.Config {
	e := c.Effects
	return effect.Config{
		Energy: effect.EnergyConfig{Color: e.Energy.Color.Color(), Delay: e.Energy.Delay, Repeats: e.Energy.Repeats},
		Focus: effect.FocusConfig{
			Color:      e.Focus.Color.Color(),
			Dwell:      e.Focus.Dwell,
			AckTimeout: e.Focus.AckTimeout,
			AckRetries: e.Focus.AckRetries,
		},
		Love: effect.LoveConfig{Color: e.Love.Color.Color(), Steps: e.Love.Steps, Ramps: e.Love.Ramps, Rest: e.Love.Rest},
		Healing: effect.HealingConfig{
			Steps:  e.Healing.Steps,
			Fade:   e.Healing.Fade,
			Settle: e.Healing.Settle,
			PauseC: e.Healing.PauseC,
			PauseD: e.Healing.PauseD,
		},
		Relief: effect.ReliefConfig{
			Pairs:  e.Relief.Pairs.timing(),
			Lead:   e.Relief.Lead,
			Settle: e.Relief.Settle,
			PauseC: e.Relief.PauseC,
			PauseD: e.Relief.PauseD,
		},
	}
}

// ReceiverConfig converts the receivers section for the follower.
func (c *Config) ReceiverConfig() receiver.Config {
	r := c.Receivers
	return receiver.Config{
		BaseColor:    r.BaseColor.Color(),
		FocusDwell:   r.FocusDwell,
		HealingFade:  r.HealingFade,
		HealingSteps: r.HealingSteps,
		Pairs:        r.Pairs.timing(),
		Poll:         r.Poll,
	}
}
