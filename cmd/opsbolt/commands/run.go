package commands

import (
	"os/signal"
	"syscall"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/opsbolt/opsbolt/config"
	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/notify"
	"github.com/opsbolt/opsbolt/runner"
)

var (
	runName       string
	runDir        string
	runCommand    string
	runLogDir     string
	runLockDir    string
	runSMS        []string
	runEmail      []string
	runMaxMinutes int
	runGapMinutes int
	runRulesPath  string
)

// RunCmd runs a command under the per-job lock.
var RunCmd = &cobra.Command{
	Use:   "run --name <job> --dir <workdir> [flags] -- <command> [args...]",
	Short: "Run a command with mutual exclusion, run-time limit, and throttled alerts",
	Long: `Run a command as a supervised child under an exclusive per-job lock.

Concurrent invocations of the same job never overlap: the one that wins the
lock runs, the others inspect the lock's age and exit quietly (young lock)
or raise a throttled alert (lock older than --max-run-minutes). The child's
stdout goes to the job's daily debug log; stderr is captured, filtered
against known-benign patterns, and any remaining text fails the invocation
and is routed to the configured recipients.

Exit status: 0 when the command ran cleanly or another run legitimately
holds the lock; 1 on missing arguments, environment failures, captured
error output, or a stale lock.

Example:
  opsbolt run --name "Nightly Sync" --dir /srv/sync \
      --email ops@example.com --sms +15550100 \
      --max-run-minutes 90 -- ./sync.sh --full`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		command := runCommand
		if command == "" && len(args) > 0 {
			command = shellquote.Join(args...)
		}

		opts := runner.Options{
			JobName:         runName,
			WorkDir:         runDir,
			Command:         command,
			LogDir:          runLogDir,
			LockDir:         runLockDir,
			EmailTo:         runEmail,
			SMSTo:           runSMS,
			MaxRunMinutes:   runMaxMinutes,
			AlertGapMinutes: runGapMinutes,
		}
		if opts.LockDir == "" {
			opts.LockDir = cfg.Runner.LockDir
		}
		if opts.MaxRunMinutes == 0 {
			opts.MaxRunMinutes = cfg.Runner.MaxRunMinutes
		}
		if opts.AlertGapMinutes == 0 {
			opts.AlertGapMinutes = cfg.Runner.AlertGapMinutes
		}

		rulesPath := runRulesPath
		if rulesPath == "" {
			rulesPath = cfg.Runner.FilterRulesPath
		}
		if rulesPath != "" {
			rules, err := runner.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			opts.FilterRules = rules
		}

		r, err := runner.New(opts, notify.FromConfig(cfg.Notify))
		if err != nil {
			if errors.IsUsage(err) {
				cmd.SilenceUsage = false
			}
			return err
		}

		// Termination is forwarded to the child; the lock is still
		// released, distinctly logged as an interrupt.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return r.Run(ctx)
	},
}

func init() {
	RunCmd.Flags().StringVar(&runName, "name", "", "Job name (mandatory; reduced to an alphanumeric slug as the lock key)")
	RunCmd.Flags().StringVar(&runDir, "dir", "", "Working directory for the command (mandatory)")
	RunCmd.Flags().StringVar(&runCommand, "command", "", "Command line to run (alternative to trailing args after --)")
	RunCmd.Flags().StringVar(&runLogDir, "log-dir", "", "Log directory (default: <dir>/logs)")
	RunCmd.Flags().StringVar(&runLockDir, "lock-dir", "", "Lock directory (default: from config, then OS temp dir)")
	RunCmd.Flags().StringSliceVar(&runEmail, "email", nil, "Email recipient for failure alerts (repeatable)")
	RunCmd.Flags().StringSliceVar(&runSMS, "sms", nil, "SMS recipient for failure alerts (repeatable)")
	RunCmd.Flags().IntVar(&runMaxMinutes, "max-run-minutes", 0, "Lock older than this is stale (default: 60)")
	RunCmd.Flags().IntVar(&runGapMinutes, "alert-gap-minutes", 0, "Minimum minutes between alert dispatches (default: 60)")
	RunCmd.Flags().StringVar(&runRulesPath, "rules", "", "YAML file of stderr noise-suppression rules")
}
