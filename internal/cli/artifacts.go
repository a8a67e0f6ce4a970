package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewArtifactsCmd creates the artifacts command
func NewArtifactsCmd() *cobra.Command {
	var params usecase.ListArtifactsParams

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List recorded deployments for a network",
		Long: `List the contracts deployed on a network, as recorded in
.catapult/deployments/<network>.json.

Examples:
  catapult artifacts -n kovan
  catapult artifacts -n kovan --plan 8_pet_base
  catapult artifacts -n kovan --contract PetBase`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListArtifacts.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			return render.NewArtifactsRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&params.Plan, "plan", "", "Only show artifacts from this plan")
	cmd.Flags().StringVar(&params.Contract, "contract", "", "Only show artifacts of this contract")

	return cmd
}
