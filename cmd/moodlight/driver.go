package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coreman2200/moodlight/internal/effect"
	"github.com/coreman2200/moodlight/internal/handoff"
	"github.com/coreman2200/moodlight/internal/supervisor"
)

// driverNode is a node with the effect engine and its supervisor attached.
type driverNode struct {
	*node
	sup *supervisor.Supervisor
}

func newDriverNode(cmd *cobra.Command, opts *rootOptions) (*driverNode, error) {
	n, err := newNode(cmd, opts, "driver")
	if err != nil {
		return nil, err
	}
	a, b, err := n.pair()
	if err != nil {
		_ = n.link.Close()
		n.close()
		return nil, err
	}
	eng := effect.New(a, b, n.link, n.cfg.EffectConfig(), n.logger, n.metrics)
	sup := supervisor.New(eng, n.link, n.logger,
		supervisor.WithJoinTimeout(n.cfg.Supervisor.JoinTimeout),
		supervisor.WithMetrics(n.metrics))
	n.reportStatus(func() string {
		m, _ := sup.Active()
		return m.String()
	})
	return &driverNode{node: n, sup: sup}, nil
}

// shutdown stops the effect, darkens A and B, closes the link and then the
// rest of the node.
func (d *driverNode) shutdown() {
	if err := d.sup.Cleanup(); err != nil {
		d.logger.Warn().Err(err).Msg("closing link")
	}
	d.close()
}

// watchHandoff follows the classifier's files when they are configured.
func (d *driverNode) watchHandoff(ctx context.Context) {
	h := d.cfg.Handoff
	if h.WantFile == "" {
		return
	}
	w := handoff.New(h.WantFile, h.CurrentFile, d.sup, d.logger, handoff.WithDebounce(h.Debounce))
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error().Err(err).Msg("handoff watcher stopped")
		}
	}()
}

func newDriverCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Run the driver node with an interactive console",
		Long: `Starts the driver node and reads commands from stdin: "<mood> [feeling]" starts a mood, ` +
			`"stop" ends it, "status" reports it and "quit" exits. A feeling may be a classifier label ` +
			`written as label=N.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDriverNode(cmd, opts)
			if err != nil {
				return err
			}
			defer d.shutdown()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			d.watchHandoff(ctx)
			d.ready()

			done := make(chan error, 1)
			go func() { done <- console(os.Stdin, os.Stdout, d.sup) }()

			select {
			case <-ctx.Done():
				d.logger.Info().Msg("signal received, shutting down")
				return nil
			case err := <-done:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&opts.wantFile, "want-file", "", "start effects when the classifier writes a mood to this file")
	cmd.Flags().StringVar(&opts.currentFile, "current-file", "", "file holding the listener's current feeling")
	return cmd
}
