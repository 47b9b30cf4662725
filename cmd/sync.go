package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"orgsync/internal/config"
	"orgsync/internal/formatting"
	"orgsync/internal/github"
	"orgsync/internal/teamsync"
	"orgsync/pkg/logging"
)

var syncDryRun bool

// newSyncCmd creates the command that reconciles teams against the live
// organization.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile declared teams against the organization",
		Long: `Sync loads the team declarations from orgsync.yaml, compares them to the
live organization and creates or updates teams, metadata and memberships
until both match.

With --dry-run no changes are made; the command prints what would change
and exits with code 2 when drift is found, so CI can fail on unapplied
configuration.`,
		RunE: runSync,
	}
	cmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "preview changes without applying them")
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, client, err := loadAndConnect()
	if err != nil {
		return err
	}

	manager := teamsync.NewManager(client, cfg.Owner)

	stop := startSpinner(" Reconciling teams...")
	result := manager.Sync(cmd.Context(), cfg.Desired(), teamsync.Options{
		DryRun:         syncDryRun,
		UnmanagedTeams: cfg.UnmanagedTeams,
		Owner:          owner,
	})
	stop()

	if err := renderSyncResult(cmd, result); err != nil {
		return err
	}

	if result.HasErrors {
		return fmt.Errorf("sync completed with errors")
	}
	if syncDryRun && result.HasChanges {
		return errDriftDetected
	}
	return nil
}

// loadAndConnect is the shared front half of every command: load and
// validate configuration, then build the API client.
func loadAndConnect() (config.Config, *github.Client, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	warnings, err := config.Validate(cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for _, warning := range warnings {
		logging.Warn("ConfigLoader", "%s", warning)
	}

	token := config.Token()
	if token == "" {
		return config.Config{}, nil, fmt.Errorf("no API token: set %s", config.EnvToken)
	}

	client, err := github.NewClient(github.Options{Token: token})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, client, nil
}

// startSpinner shows a progress spinner unless running quiet or in a
// non-table format, where stray terminal output would corrupt the result.
func startSpinner(suffix string) func() {
	if quiet || formatting.OutputFormat(outputFlag) != formatting.FormatTable {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

func renderSyncResult(cmd *cobra.Command, result *teamsync.SyncResult) error {
	formatter, err := formatting.NewFormatter(formatting.Options{
		Format: formatting.OutputFormat(outputFlag),
		Quiet:  quiet,
		Color:  true,
	})
	if err != nil {
		return err
	}
	out, err := formatter.FormatSyncResult(result)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
