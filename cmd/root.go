package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"orgsync/internal/config"
	"orgsync/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution with nothing to change.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeDrift indicates a dry run found changes that would be applied.
	ExitCodeDrift = 2
)

// errDriftDetected marks a successful dry run that found drift, so CI
// pipelines can fail on unapplied changes without parsing output.
var errDriftDetected = errors.New("drift detected")

var (
	configPath string
	owner      string
	outputFlag string
	quiet      bool
	logLevel   string
)

// rootCmd represents the base command for the orgsync application.
var rootCmd = &cobra.Command{
	Use:   "orgsync",
	Short: "Reconcile organization teams and repository settings",
	Long: `orgsync reconciles a declarative YAML description of an organization's
teams and repository policies against the live state, creating and
updating teams, memberships and repository settings to match.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quiet {
			logging.InitQuiet()
			return nil
		}
		logging.InitForCLI(logging.ParseLevel(logLevel), os.Stderr)
		return nil
	},
}

// SetVersion sets the version for the root command. Called from main to
// inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "orgsync version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps handled errors to semantic exit codes for scripting.
func getExitCode(err error) int {
	if errors.Is(err, errDriftDetected) {
		return ExitCodeDrift
	}
	return ExitCodeError
}

// resolveConfigPath picks the --config value or the per-user default.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultConfigPath()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config directory (default is $HOME/.config/orgsync)")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "", "organization login (overrides config and ORGSYNC_OWNER)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output and logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}
