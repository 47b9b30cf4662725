package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orgsync/internal/config"
	"orgsync/internal/github"
	"orgsync/internal/repocheck"
	"orgsync/internal/teamsync"
	"orgsync/internal/watch"
	"orgsync/pkg/logging"
)

var watchDebounce time.Duration

// newWatchCmd creates the command that keeps the organization reconciled
// while the configuration changes on disk.
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously reconcile on configuration changes",
		Long: `Watch runs an initial reconciliation, then watches the config directory
and re-reconciles whenever orgsync.yaml changes. Runs until interrupted.`,
		RunE: runWatch,
	}
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "settle time before reacting to a config change")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	detector := watch.NewDetector(path, watchDebounce)
	changes := make(chan watch.ChangeEvent, 8)
	if err := detector.Start(ctx, changes); err != nil {
		return err
	}
	defer detector.Stop()

	reconcile(ctx, path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			logging.Info("Watch", "Shutting down")
			return nil
		case event := <-changes:
			logging.Info("Watch", "Configuration %s (%s), reconciling", event.Path, event.Operation)
			reconcile(ctx, path)
		}
	}
}

// reconcile runs one full pass. Watch mode keeps going on failures; a bad
// intermediate config state should not kill the watcher.
func reconcile(ctx context.Context, path string) {
	cfg, err := config.Load(path)
	if err != nil {
		logging.Error("Watch", err, "Could not load configuration, keeping previous state")
		return
	}
	warnings, err := config.Validate(cfg)
	if err != nil {
		logging.Error("Watch", err, "Invalid configuration, keeping previous state")
		return
	}
	for _, warning := range warnings {
		logging.Warn("ConfigLoader", "%s", warning)
	}

	token := config.Token()
	if token == "" {
		logging.Error("Watch", nil, "No API token: set %s", config.EnvToken)
		return
	}
	client, err := github.NewClient(github.Options{Token: token})
	if err != nil {
		logging.Error("Watch", err, "Could not build API client")
		return
	}

	result := teamsync.NewManager(client, cfg.Owner).Sync(ctx, cfg.Desired(), teamsync.Options{
		UnmanagedTeams: cfg.UnmanagedTeams,
		Owner:          owner,
	})
	logging.Info("Watch", "%s", result.Summary)

	if cfg.Repositories.Enabled() {
		report := repocheck.NewRunner(client, cfg.Owner).Run(ctx, cfg.Repositories, repocheck.Options{Owner: owner})
		logging.Info("Watch", "%s", report.Summary)
	}
}
