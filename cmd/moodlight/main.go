package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
	port       string
	sim        bool
	preview    string
	metrics    string

	// driver only
	wantFile    string
	currentFile string
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "moodlight",
		Short: "Mood light choreography across a driver and a follower node",
		Long: `moodlight drives four LED strips split across two nodes joined by a serial link. ` +
			`The driver node owns strips A and B and decides which mood plays; the follower ` +
			`owns C and D and animates them from the lines it receives.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "moodlight.yaml", "path to the YAML config (optional)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: trace | debug | info | warn | error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "emit JSON logs instead of console output")
	pf.StringVarP(&opts.port, "port", "p", "", "serial device of the link, e.g. /dev/serial0")
	pf.BoolVar(&opts.sim, "sim", false, "use simulated strips, no hardware output")
	pf.StringVar(&opts.preview, "preview-addr", "", "websocket preview listen address (empty disables)")
	pf.StringVar(&opts.metrics, "metrics-addr", "", "prometheus listen address (empty disables)")

	root.AddCommand(
		newDriverCmd(opts),
		newFollowerCmd(opts),
		newRunCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd(&rootOptions{}).Execute(); err != nil {
		log.Error().Err(err).Msg("moodlight exited")
		os.Exit(1)
	}
}
