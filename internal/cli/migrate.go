package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	var params usecase.MigrateParams

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run every pending plan in order",
		Long: `Run all plans in the plans directory in numeric order.

Plans already recorded as completed for the network in
.catapult/migrations/<network>.json are not run again unless --reset is
given. Plans whose network filter excludes the network are reported as
skipped. The migration stops at the first failing plan.

Examples:
  # Run pending plans on kovan
  catapult migrate --network kovan

  # Run everything again from the first plan
  catapult migrate -n kovan --reset

  # Choose which plans to run
  catapult migrate -n kovan --select`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.Migrate.Run(cmd.Context(), params)
			if result != nil {
				if renderErr := render.NewMigrateRenderer(cmd.OutOrStdout()).Render(result); renderErr != nil && err == nil {
					return renderErr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&params.Reset, "reset", false, "Ignore the migration ledger and run every plan")
	cmd.Flags().BoolVar(&params.Select, "select", false, "Interactively select the plans to run")
	cmd.Flags().BoolVar(&params.DryRun, "dry-run", false, "Run against an in-memory chain without broadcasting")
	cmd.Flags().BoolVarP(&params.AutoConfirm, "yes", "y", false, "Skip the confirmation prompt for networks marked confirm = true")

	return cmd
}
