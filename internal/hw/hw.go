// Package hw turns strip configuration into drivable strips.
package hw

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/coreman2200/moodlight/internal/config"
	"github.com/coreman2200/moodlight/internal/strip"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph host drivers. Only the first call does any work.
func Init(logger zerolog.Logger) error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("periph host init: %w", err)
			return
		}
		for _, f := range state.Failed {
			logger.Debug().Str("driver", f.D.String()).Err(f.Err).Msg("periph driver failed")
		}
		logger.Info().Int("loaded", len(state.Loaded)).Msg("periph host ready")
	})
	return initErr
}

// Build opens every configured strip. An NRZ strip whose SPI port cannot be
// opened falls back to the console so the node still runs. observer, if set,
// sees every committed frame.
func Build(cfgs []config.Strip, observer func(name string, rgb []byte), logger zerolog.Logger) ([]*strip.Strip, error) {
	out := make([]*strip.Strip, 0, len(cfgs))
	for _, c := range cfgs {
		drv, kind, err := open(c, logger)
		if err != nil {
			Close(out)
			return nil, err
		}
		opts := []strip.Option{strip.WithWhiteCap(c.WhiteCap)}
		if observer != nil {
			opts = append(opts, strip.WithObserver(observer))
		}
		out = append(out, strip.New(c.Name, c.Count, drv, opts...))
		logger.Info().Str("strip", c.Name).Int("count", c.Count).Str("driver", kind).Msg("strip ready")
	}
	return out, nil
}

func open(c config.Strip, logger zerolog.Logger) (strip.Driver, string, error) {
	if c.Count <= 0 {
		return nil, "", fmt.Errorf("strip %s: invalid LED count %d", c.Name, c.Count)
	}
	switch c.Driver {
	case "sim":
		return strip.NewSim(), "sim", nil
	case "console":
		return strip.NewConsole(c.Count), "console", nil
	case "nrz":
		freq := physic.Frequency(c.FreqKHz) * physic.KiloHertz
		if c.FreqKHz <= 0 {
			freq = 2500 * physic.KiloHertz
		}
		drv, err := strip.OpenNRZ(c.SPI, c.Count, freq)
		if err != nil {
			logger.Warn().Err(err).
				Str("strip", c.Name).
				Str("spi", c.SPI).
				Msg("SPI init failed; falling back to console")
			return strip.NewConsole(c.Count), "console", nil
		}
		return drv, "nrz", nil
	default:
		return nil, "", fmt.Errorf("strip %s: unknown driver %q", c.Name, c.Driver)
	}
}

// Close releases every strip's driver.
func Close(strips []*strip.Strip) {
	for _, s := range strips {
		_ = s.Close()
	}
}
