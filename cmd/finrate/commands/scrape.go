package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/titanous/json5"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/parser"
	"github.com/use-agent/finrate/rating"
)

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report <ticker>",
		Short: "Scrapes the snapshot and sector pages and scores the company.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.newScraper()
			if err != nil {
				return err
			}
			defer sc.Close()

			start := time.Now()
			report, err := sc.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			slog.Info("report complete", "ticker", report.Ticker, "seconds", time.Since(start).Seconds())

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, report)
			}
			renderSnapshot(out, snapshotTitle(report.Ticker, report.SourceURL), report.Snapshot)
			renderSectors(out, report.Sectors)
			renderRatings(out, report.Ratings)
			return nil
		},
	}
}

func newSnapshotCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <ticker|url>",
		Short: "Scrapes one company snapshot page.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, ticker, sourceURL, err := fetchSnapshot(cmd, opts, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, models.SnapshotResponse{
					Success:   true,
					SourceURL: sourceURL,
					Snapshot:  snap,
				})
			}
			renderSnapshot(out, snapshotTitle(ticker, sourceURL), snap)
			return nil
		},
	}
}

func newSectorsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "Scrapes the sector performance table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := opts.newScraper()
			if err != nil {
				return err
			}
			defer sc.Close()

			st, err := sc.SectorData(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, st)
			}
			renderSectors(out, st)
			return nil
		},
	}
}

func newRateCmd(opts *options) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "rate [ticker|url]",
		Short: "Scores a company, either scraped live or read from a snapshot file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if fromFile != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap models.CompanySnapshot
			if fromFile != "" {
				var err error
				snap, err = readSnapshotFile(fromFile)
				if err != nil {
					return err
				}
			} else {
				var err error
				snap, _, _, err = fetchSnapshot(cmd, opts, args[0])
				if err != nil {
					return err
				}
			}

			ratings := rating.Rate(snap)
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, ratings)
			}
			renderRatings(out, ratings)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "score a saved snapshot (JSON5 object of label to value)")
	return cmd
}

// readSnapshotFile loads a JSON5 object of label to value. Numbers are taken
// as-is; strings go through the same normalisation as scraped cells.
func readSnapshotFile(path string) (models.CompanySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	snap := make(models.CompanySnapshot, len(raw))
	for label, v := range raw {
		switch v := v.(type) {
		case float64:
			snap[label] = models.Number(v)
		case string:
			snap[label] = parser.Normalize(v)
		default:
			return nil, fmt.Errorf("parse %s: %q: unsupported value %v", path, label, v)
		}
	}
	return snap, nil
}

// fetchSnapshot scrapes target, which is either a ticker or a full page URL.
func fetchSnapshot(cmd *cobra.Command, opts *options, target string) (models.CompanySnapshot, string, string, error) {
	sc, err := opts.newScraper()
	if err != nil {
		return nil, "", "", err
	}
	defer sc.Close()

	if strings.Contains(target, "://") {
		snap, err := sc.CompanyData(cmd.Context(), target)
		return snap, "", target, err
	}
	snap, sourceURL, err := sc.CompanyDataForTicker(cmd.Context(), target)
	return snap, strings.ToUpper(target), sourceURL, err
}
