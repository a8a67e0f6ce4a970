package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		dryRun bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "run [plan]",
		Short: "Run a single deployment plan",
		Long: `Run a deployment plan against the selected network.

Steps execute strictly in order. A step may reference configuration values
with ${config.<key>} and earlier step outputs with ${steps.<name>} or
${steps.<name>.address}. The run stops at the first failing step; artifacts
deployed before the failure are still recorded in .catapult/deployments.

If the plan's network filter excludes the network the plan is skipped
without contacting the chain.

Examples:
  # Run a plan by name or file
  catapult run 8_pet_base --network kovan
  catapult run plans/8_pet_base.yaml -n kovan

  # Pick a plan interactively
  catapult run -n kovan

  # Execute against an in-memory chain, nothing is broadcast or recorded
  catapult run 8_pet_base -n kovan --dry-run`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.RunPlanParams{
				DryRun:      dryRun,
				AutoConfirm: yes,
			}
			if len(args) > 0 {
				params.PlanRef = args[0]
			}

			renderer := render.NewRunRenderer(cmd.OutOrStdout())
			result, err := app.RunPlan.Run(cmd.Context(), params)
			if err != nil {
				renderer.RenderFailure(result, err)
				return err
			}

			return renderer.Render(result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run against an in-memory chain without broadcasting")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt for networks marked confirm = true")

	return cmd
}
