package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/moodlight/internal/mood"
)

type runOptions struct {
	mood        string
	feeling     string
	feelingFile string
	label       int
	duration    time.Duration
}

// resolveFeeling picks the feeling from, in order, a classifier label, a
// feeling file and the --feeling flag.
func (o runOptions) resolveFeeling() (string, error) {
	if o.label >= 0 {
		return mood.FeelingForLabel(o.label)
	}
	if o.feelingFile != "" {
		f, err := mood.ReadFeeling(o.feelingFile)
		if err != nil {
			return "", err
		}
		if f == "" {
			return "", fmt.Errorf("feeling file %s is empty", o.feelingFile)
		}
		return f, nil
	}
	return o.feeling, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	ro := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one mood on the driver node and exit",
		Long: `Plays a single mood until it ends on its own, --duration passes or a signal arrives. ` +
			`Energy ends by itself; the other moods loop until stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := mood.Parse(ro.mood); err != nil {
				return err
			}
			feeling, err := ro.resolveFeeling()
			if err != nil {
				return err
			}

			d, err := newDriverNode(cmd, opts)
			if err != nil {
				return err
			}
			defer d.shutdown()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if ro.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, ro.duration)
				defer cancel()
			}

			if err := d.sup.RunEffect(feeling, ro.mood); err != nil {
				return err
			}
			d.ready()
			select {
			case <-d.sup.Done():
				d.logger.Info().Str("mood", ro.mood).Msg("effect finished")
			case <-ctx.Done():
				d.logger.Info().Str("mood", ro.mood).Msg("stopping effect")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&ro.mood, "mood", "m", "", "mood to play: energy | focus | love | healing | relief")
	f.StringVarP(&ro.feeling, "feeling", "f", "", "feeling that colors the mood: happy | sad | angry")
	f.StringVar(&ro.feelingFile, "feeling-file", "", "read the feeling from the last line of this file")
	f.IntVar(&ro.label, "label", -1, "classifier label to take the feeling from (0 happy, 1 sad, 2 angry)")
	f.DurationVar(&ro.duration, "duration", 0, "stop after this long (0 runs until the effect ends)")
	_ = cmd.MarkFlagRequired("mood")
	return cmd
}
