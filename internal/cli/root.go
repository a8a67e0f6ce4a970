package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/adapters/progress"
	"github.com/trebuchet-org/catapult/internal/app"
	"github.com/trebuchet-org/catapult/internal/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	// release ends the command deadline; cobra skips post-run hooks when RunE fails
	release := func() {}

	rootCmd := &cobra.Command{
		Use:   "catapult",
		Short: "Declarative smart contract deployment plans",
		Long: `Catapult runs YAML deployment plans against EVM networks. Each plan is an
ordered list of deploy, upgrade, call and register steps gated by a network
filter; steps reference configuration values and earlier step outputs.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if skipsApp(cmd) {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd.Flags())

			appInstance, err := app.InitApp(v, newSink(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				release = cancel
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (a [networks.<name>] table in catapult.toml)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall deadline for the command (default 30m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	// Main commands
	for _, cmd := range []*cobra.Command{NewRunCmd(), NewMigrateCmd(), NewValidateCmd()} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	// Management commands
	for _, cmd := range []*cobra.Command{NewPlansCmd(), NewArtifactsCmd(), NewNetworksCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	releaseAfterRun(rootCmd, func() { release() })

	return rootCmd
}

// releaseAfterRun makes every runnable command call release once RunE returns,
// whether it failed or not
func releaseAfterRun(cmd *cobra.Command, release func()) {
	for _, child := range cmd.Commands() {
		releaseAfterRun(child, release)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer release()
		return run(cmd, args)
	}
}

func skipsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete":
		return true
	}
	return false
}

// newSink picks the progress sink: only commands that broadcast report progress
func newSink(cmd *cobra.Command) usecase.ProgressSink {
	switch cmd.Name() {
	case "run", "migrate":
		return progress.NewRunProgress()
	default:
		return progress.NewNopSink()
	}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
