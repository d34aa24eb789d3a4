// Package cli defines the timelogbot command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "timelogbot",
	Short: "Sync Redmine time logs into Confluence and mail checkpoint alerts",
	Long: `timelogbot is a scheduled batch job that copies per-project logged hours
from Redmine into the TimeLog page of the matching Confluence space and
e-mails stakeholders when a project crosses an hour or elapsed-day
checkpoint.

It runs one pass per invocation and exits; schedule it with cron or a
similar timer, leaving enough headroom that runs do not overlap.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("timelogbot %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
