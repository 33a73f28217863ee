package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsbolt/opsbolt/cmd/opsbolt/commands"
	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/logger"
)

var (
	flagJSON    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "opsbolt",
	Short: "Operational toolkit: locking task runner, domain intelligence, HTTP probe",
	Long: `opsbolt is a small operational toolkit.

Available commands:
  run      - Run a command under a per-job lock with run-time-limit
             enforcement and throttled failure alerting
  domains  - Aggregate WHOIS, DNS, and HTTP-liveness data per domain
  probe    - One-line HTTP status/timing probe
  version  - Show build information

Examples:
  opsbolt run --name "Nightly Sync" --dir /srv/sync -- ./sync.sh --full
  opsbolt domains example.com example.org --csv report.csv
  opsbolt probe https://api.example.com/healthz`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(flagJSON, flagVerbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON log output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose (debug) logging")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.DomainsCmd)
	rootCmd.AddCommand(commands.ProbeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		if errors.IsUsage(err) {
			fmt.Fprintf(os.Stderr, "opsbolt: %v\n", err)
			for _, hint := range errors.GetAllHints(err) {
				fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
			}
		} else {
			logger.Errorw("opsbolt failed", "error", err)
		}
		logger.Cleanup()
		os.Exit(1)
	}
}
