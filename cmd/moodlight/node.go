package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/coreos/go-systemd/v22/journal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/journald"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/moodlight/internal/config"
	"github.com/coreman2200/moodlight/internal/hw"
	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/preview"
	"github.com/coreman2200/moodlight/internal/strip"
)

// node is everything a role shares: config, logging, strips, the link and
// the side servers.
type node struct {
	role    string
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	hub     *preview.Hub
	strips  []*strip.Strip
	link    *link.Link
	servers []*http.Server

	status atomic.Pointer[func() string]
}

// loadConfig reads the config file when there is one. A missing file means
// defaults; a broken one is an error.
func loadConfig(path string) (*config.Config, error) {
	c, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("config not found; proceeding with defaults")
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// applyFlags lets flags set on the command line win over the file.
func applyFlags(cmd *cobra.Command, opts *rootOptions, c *config.Config) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		switch f.Name {
		case "log-level":
			c.Log.Level = opts.logLevel
		case "log-json":
			if opts.logJSON {
				c.Log.Format = "json"
			} else {
				c.Log.Format = "console"
			}
		case "port":
			c.Link.Port = opts.port
		case "preview-addr":
			c.Preview.Addr = opts.preview
		case "metrics-addr":
			c.Metrics.Addr = opts.metrics
		case "want-file":
			c.Handoff.WantFile = opts.wantFile
		case "current-file":
			c.Handoff.CurrentFile = opts.currentFile
		}
	})
	if opts.sim {
		for i := range c.DriverStrips {
			c.DriverStrips[i].Driver = "sim"
		}
		for i := range c.FollowerStrips {
			c.FollowerStrips[i].Driver = "sim"
		}
	}
}

// setupLogging configures the global zerolog logger from the log section.
// "journal" falls back to the console when journald is not reachable.
func setupLogging(c config.Log) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	switch {
	case c.Format == "json":
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case c.Format == "journal" && journal.Enabled():
		log.Logger = zerolog.New(journald.NewJournalDWriter())
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return log.Logger
}

func newNode(cmd *cobra.Command, opts *rootOptions, role string) (*node, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, opts, cfg)
	logger := setupLogging(cfg.Log).With().Str("node", role).Logger()

	stripCfgs := cfg.DriverStrips
	if role == "follower" {
		stripCfgs = cfg.FollowerStrips
	}

	n := &node{role: role, cfg: cfg, logger: logger, metrics: metrics.New()}
	top := preview.Topology{Node: role, Strips: map[string]int{}}
	for _, s := range stripCfgs {
		top.Strips[s.Name] = s.Count
	}
	n.hub = preview.NewHub(top, func() string {
		if f := n.status.Load(); f != nil {
			return (*f)()
		}
		return ""
	}, logger)

	for _, s := range stripCfgs {
		if s.Driver == "nrz" {
			if err := hw.Init(logger); err != nil {
				logger.Warn().Err(err).Msg("hardware init failed; NRZ strips will fall back")
			}
			break
		}
	}
	n.strips, err = hw.Build(stripCfgs, n.hub.Observe, logger)
	if err != nil {
		return nil, err
	}

	n.link, err = link.OpenSerial(cfg.Link.Port, cfg.Link.Baud, cfg.Link.ReadTimeout, logger,
		link.WithMetrics(n.metrics), link.WithQueue(cfg.Link.Queue))
	if err != nil {
		hw.Close(n.strips)
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", n.metrics.Handler())
		n.serve("metrics", cfg.Metrics.Addr, mux)
	}
	if cfg.Preview.Addr != "" {
		n.serve("preview", cfg.Preview.Addr, n.hub.Handler())
	}
	return n, nil
}

func (n *node) serve(name, addr string, h http.Handler) {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	n.servers = append(n.servers, srv)
	go func() {
		n.logger.Info().Str("addr", addr).Str("server", name).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.Error().Err(err).Str("server", name).Msg("http server stopped")
		}
	}()
}

// ready tells systemd the node is up. Outside a unit it does nothing.
func (n *node) ready() {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		n.logger.Warn().Err(err).Msg("sd_notify failed")
	} else if ok {
		n.logger.Debug().Msg("notified systemd")
	}
}

// reportStatus sets what /health shows as the node's mood.
func (n *node) reportStatus(f func() string) { n.status.Store(&f) }

// pair returns the node's two strips in config order.
func (n *node) pair() (*strip.Strip, *strip.Strip, error) {
	if len(n.strips) != 2 {
		return nil, nil, fmt.Errorf("%s needs exactly 2 strips, got %d", n.role, len(n.strips))
	}
	return n.strips[0], n.strips[1], nil
}

// close shuts the side servers and releases the strips. The link is closed
// by whoever owns it.
func (n *node) close() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, srv := range n.servers {
		_ = srv.Shutdown(ctx)
	}
	n.hub.Close()
	hw.Close(n.strips)
	n.logger.Info().Msg("node stopped")
}
