package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coreman2200/moodlight/internal/dispatcher"
	"github.com/coreman2200/moodlight/internal/receiver"
)

func newFollowerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "follower",
		Short: "Run the follower node",
		Long:  `Starts the follower node. It waits for mode lines on the link and animates strips C and D from the lines that follow.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newNode(cmd, opts, "follower")
			if err != nil {
				return err
			}
			defer n.close()
			defer n.link.Close()

			c, d, err := n.pair()
			if err != nil {
				return err
			}
			recv := receiver.New(c, d, n.link, n.cfg.ReceiverConfig(), n.logger, n.metrics)
			disp := dispatcher.New(recv, n.link, n.logger,
				dispatcher.WithPoll(n.cfg.Dispatcher.Poll),
				dispatcher.WithJoinTimeout(n.cfg.Dispatcher.JoinTimeout),
				dispatcher.WithMetrics(n.metrics))
			n.reportStatus(func() string {
				_, m := disp.State()
				return m.String()
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			n.ready()

			err = disp.Run(ctx)
			if errors.Is(err, context.Canceled) {
				n.logger.Info().Msg("signal received, shutting down")
				return nil
			}
			return err
		},
	}
}
