package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/finrate/config"
	"github.com/use-agent/finrate/scraper"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	proxies    []string
	jsonOutput bool
	logLevel   string

	cfg *config.Config
}

// NewRootCmd builds the finrate command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "finrate",
		Short:         "finrate scrapes Finviz snapshot and sector pages and scores companies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a JSON5 config file")
	flags.StringSliceVar(&opts.proxies, "proxy", nil, "proxy URL to rotate through (repeatable)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of tables")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newReportCmd(opts),
		newSnapshotCmd(opts),
		newSectorsCmd(opts),
		newRateCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// load resolves configuration and installs the logger. Logs go to stderr so
// stdout carries only command output.
func (o *options) load(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Load()
	}

	if len(o.proxies) > 0 {
		cfg.Throttle.Proxies = o.proxies
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	slog.SetDefault(cfg.Log.NewLogger(cmd.ErrOrStderr()))
	o.cfg = cfg
	return nil
}

func (o *options) newScraper() (*scraper.Scraper, error) {
	sc, err := scraper.NewScraper(o.cfg.Scraper, o.cfg.Throttle)
	if err != nil {
		return nil, fmt.Errorf("init scraper: %w", err)
	}
	return sc, nil
}
