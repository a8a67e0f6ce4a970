package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [plan]",
		Short: "Check plans without touching the network",
		Long: `Validate one plan, or every plan, for the selected network.

Each plan is checked for structure and then executed against an in-memory
chain, so references to missing configuration keys or to steps that have
not produced an address yet are reported before anything is broadcast.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var params usecase.ValidatePlanParams
			if len(args) > 0 {
				params.PlanRef = args[0]
			}

			result, err := app.ValidatePlan.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if err := render.NewValidateRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}

			if failed := len(result.Failed()); failed > 0 {
				return fmt.Errorf("%d plan(s) failed validation", failed)
			}
			return nil
		},
	}

	return cmd
}
