package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ValidateRenderer prints validation verdicts
type ValidateRenderer struct {
	out io.Writer
}

// NewValidateRenderer creates a new validate renderer
func NewValidateRenderer(out io.Writer) *ValidateRenderer {
	return &ValidateRenderer{out: out}
}

// Render prints one line per plan followed by a summary
func (r *ValidateRenderer) Render(result *usecase.ValidatePlanResult) error {
	for _, v := range result.Plans {
		switch {
		case !v.Valid():
			fmt.Fprintf(r.out, "%s %s\n", failStyle.Sprint("✗"), v.Plan.Name)
			fmt.Fprintf(r.out, "    %s\n", failStyle.Sprint(v.Err.Error()))
		case v.Skipped:
			fmt.Fprintf(r.out, "%s %s %s\n", filterStyle.Sprint("⊘"), v.Plan.Name,
				mutedStyle.Sprintf("(does not run on %s)", result.Network))
		default:
			fmt.Fprintf(r.out, "%s %s %s\n", okStyle.Sprint("✓"), v.Plan.Name,
				mutedStyle.Sprintf("(%d steps)", len(v.Plan.Steps)))
		}
	}

	fmt.Fprintln(r.out)
	failed := len(result.Failed())
	if failed > 0 {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%d of %d plan(s) invalid for %s", failed, len(result.Plans), result.Network)))
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d plan(s) valid for %s", len(result.Plans), result.Network)))
	return nil
}

var _ Renderer[*usecase.ValidatePlanResult] = (*ValidateRenderer)(nil)
