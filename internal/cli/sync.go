package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/NBISweden/timelogbot/internal/core"
	"github.com/NBISweden/timelogbot/internal/logger"
	"github.com/NBISweden/timelogbot/internal/mail"
	"github.com/NBISweden/timelogbot/internal/storage"
	"github.com/NBISweden/timelogbot/internal/tracker"
	"github.com/NBISweden/timelogbot/internal/wiki"
)

var (
	syncSpace  string
	syncDryRun bool
	syncForce  bool
	syncDump   string
)

var syncCmd = &cobra.Command{
	Use:   "sync CONFIG",
	Short: "Run one sync pass against Redmine and Confluence",
	Long: `Run one top-to-bottom sync pass: fetch tracked issues and their logged
time from Redmine, find all TimeLog pages in Confluence, regenerate the
report on every matched page, evaluate hour and day checkpoints against the
state database, and e-mail the configured recipients on a crossing.

CONFIG is the path to the configuration bundle (TOML or YAML).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := core.LoadConfig(args[0])
		if err != nil {
			return err
		}

		log := logger.New()

		store, err := storage.OpenStateStore(cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("closing state store")
			}
		}()

		runner := core.NewRunner(
			cfg,
			tracker.NewClient(cfg.Redmine, log),
			wiki.NewClient(cfg.Confluence, log),
			mail.NewMailer(cfg.Email, cfg.Recipients, syncDryRun, log),
			store,
			log,
		)

		summary, err := runner.Run(cmd.Context(), core.RunOptions{
			Space:    syncSpace,
			DryRun:   syncDryRun,
			Force:    syncForce,
			DumpPath: syncDump,
		})
		if err != nil {
			return err
		}

		log.Info().
			Int("pages", summary.Pages).
			Int("matched", summary.Matched).
			Int("updated", summary.Updated).
			Int("skipped", summary.Skipped).
			Int("failed", summary.Failed).
			Int("emails_sent", summary.EmailsSent).
			Msg("done")

		if summary.Failed > 0 {
			return &core.PartialError{Failed: summary.Failed}
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSpace, "space", "", "Confluence space to work on (default: all)")
	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "Do not upload any new content to Confluence. Do not send e-mails")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Update even if nothing changed")
	syncCmd.Flags().StringVar(&syncDump, "dump", "", "Dump work units to FILE (JSON, or YAML by extension)")

	rootCmd.AddCommand(syncCmd)
}

// ExitCode maps an Execute error to the process exit code: 0 on success,
// 2 when the run completed with per-page failures, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var partial *core.PartialError
	if errors.As(err, &partial) {
		return 2
	}
	return 1
}
