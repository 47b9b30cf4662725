package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orgsync/internal/formatting"
	"orgsync/internal/repocheck"
)

var (
	checkDryRun      bool
	checkConcurrency int
)

// newCheckCmd creates the command that audits repository settings against
// the configured compliance policy.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check repository settings against policy",
		Long: `Check fetches every repository of the organization and compares its
settings (merge methods, branch protection, security features, archival)
to the repositories policy in orgsync.yaml, patching drifted settings.

With --dry-run nothing is patched; the command exits with code 2 when
drift is found.`,
		RunE: runCheck,
	}
	cmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "report drift without patching")
	cmd.Flags().IntVar(&checkConcurrency, "concurrency", 0, "max repositories checked in parallel (0 uses the default)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, client, err := loadAndConnect()
	if err != nil {
		return err
	}

	if !cfg.Repositories.Enabled() {
		return fmt.Errorf("no repositories policy configured")
	}

	runner := repocheck.NewRunner(client, cfg.Owner)

	stop := startSpinner(" Checking repositories...")
	report := runner.Run(cmd.Context(), cfg.Repositories, repocheck.Options{
		DryRun:      checkDryRun,
		Owner:       owner,
		Concurrency: checkConcurrency,
	})
	stop()

	if err := renderReport(cmd, report); err != nil {
		return err
	}

	if report.HasErrors {
		return fmt.Errorf("check completed with errors")
	}
	if checkDryRun && report.HasChanges {
		return errDriftDetected
	}
	return nil
}

func renderReport(cmd *cobra.Command, report *repocheck.Report) error {
	formatter, err := formatting.NewFormatter(formatting.Options{
		Format: formatting.OutputFormat(outputFlag),
		Quiet:  quiet,
		Color:  true,
	})
	if err != nil {
		return err
	}
	out, err := formatter.FormatReport(report)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
