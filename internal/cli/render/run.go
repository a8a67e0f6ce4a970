package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// RunRenderer prints the summary after a single plan run
type RunRenderer struct {
	out io.Writer
}

// NewRunRenderer creates a new run renderer
func NewRunRenderer(out io.Writer) *RunRenderer {
	return &RunRenderer{out: out}
}

// Render prints the deployed artifacts and the final status line
func (r *RunRenderer) Render(result *usecase.RunPlanResult) error {
	if result.Skipped {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Plan %s does not run on %s (%s)",
			result.Plan.Name, result.Network.Name, result.Plan.Networks)))
		return nil
	}

	if len(result.Artifacts) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, ArtifactTable(result.Artifacts))
	}

	fmt.Fprintln(r.out)
	msg := fmt.Sprintf("Plan %s completed on %s (%d steps, %d deployed)",
		result.Plan.Name, result.Network.Name, len(result.Plan.Steps), len(result.Artifacts))
	if result.DryRun {
		msg += " [dry run, nothing recorded]"
	}
	fmt.Fprintln(r.out, FormatSuccess(msg))
	return nil
}

// RenderFailure prints what was deployed before err and names the failing step
func (r *RunRenderer) RenderFailure(result *usecase.RunPlanResult, err error) {
	if result != nil && len(result.Artifacts) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Deployed before the failure:")
		fmt.Fprintln(r.out, ArtifactTable(result.Artifacts))
		if !result.DryRun {
			fmt.Fprintln(r.out, mutedStyle.Sprint("These artifacts have been recorded."))
		}
	}

	if step, ok := domain.FailedStep(err); ok {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, failStyle.Sprintf("✗ Step %s failed", step))
	}
}

var _ Renderer[*usecase.RunPlanResult] = (*RunRenderer)(nil)
