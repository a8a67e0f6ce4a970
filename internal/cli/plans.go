package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
)

// NewPlansCmd creates the plans command
func NewPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "plans",
		Short:        "List deployment plans",
		Long:         "List deployment plans in run order. With --network, show which plans run on it.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListPlans.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewPlansRenderer(cmd.OutOrStdout()).Render(result)
		},
	}
}
