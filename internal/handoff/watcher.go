// Package handoff starts effects from the files a feeling classifier writes.
//
// The classifier side writes the wanted mood to one file and the listener's
// current feeling to another, one value per line. The last non-empty line of
// each file counts.
package handoff

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/coreman2200/moodlight/internal/mood"
)

// StopWord in the want file stops the running effect.
const StopWord = "stop"

// DefaultDebounce collapses the burst of events a single write produces.
const DefaultDebounce = 300 * time.Millisecond

// Starter is what the watcher drives, normally a supervisor.
type Starter interface {
	RunEffect(feeling, wanted string) error
	StopEffect()
}

type Watcher struct {
	wantPath    string
	currentPath string
	debounce    time.Duration
	starter     Starter
	logger      zerolog.Logger

	last string
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher for wantPath. currentPath may be empty, in which case
// effects start without a feeling.
func New(wantPath, currentPath string, s Starter, logger zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		wantPath:    wantPath,
		currentPath: currentPath,
		debounce:    DefaultDebounce,
		starter:     s,
		logger:      logger.With().Str("component", "handoff").Logger(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches the files' directories until ctx is done. Directories are
// watched rather than the files so editors that replace a file are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := map[string]bool{filepath.Dir(w.wantPath): true}
	if w.currentPath != "" {
		dirs[filepath.Dir(w.currentPath)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return err
		}
	}
	w.logger.Info().Str("want", w.wantPath).Str("current", w.currentPath).Dur("debounce", w.debounce).Msg("watching handoff files")

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("handoff change")
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := w.Apply(); err != nil {
				w.logger.Warn().Err(err).Msg("handoff request ignored")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == filepath.Clean(w.wantPath) ||
		(w.currentPath != "" && name == filepath.Clean(w.currentPath))
}

// Apply reads both files and forwards the request. A request equal to the
// last one forwarded is dropped, so rewriting the same values does not
// restart the effect.
func (w *Watcher) Apply() error {
	wanted, err := mood.ReadFeeling(w.wantPath)
	if err != nil {
		return err
	}
	wanted = strings.ToLower(wanted)
	if wanted == "" {
		return nil
	}

	feeling := ""
	if w.currentPath != "" {
		feeling, err = mood.ReadFeeling(w.currentPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	key := wanted + "/" + strings.ToLower(feeling)
	if key == w.last {
		return nil
	}
	if wanted == StopWord {
		w.last = key
		w.starter.StopEffect()
		w.logger.Info().Msg("stop requested")
		return nil
	}
	if err := w.starter.RunEffect(feeling, wanted); err != nil {
		return err
	}
	w.last = key
	w.logger.Info().Str("mood", wanted).Str("feeling", feeling).Msg("effect requested")
	return nil
}
