package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// MigrateRenderer prints the per-plan outcome of a migration
type MigrateRenderer struct {
	out io.Writer
}

// NewMigrateRenderer creates a new migrate renderer
func NewMigrateRenderer(out io.Writer) *MigrateRenderer {
	return &MigrateRenderer{out: out}
}

// Render prints one row per plan that was considered
func (r *MigrateRenderer) Render(result *usecase.MigrateResult) error {
	if len(result.Migrations) == 0 {
		fmt.Fprintln(r.out, "No plans to migrate")
		return nil
	}

	t := newTable()
	t.AppendHeader(header("PLAN", "STATUS", "DEPLOYED", "APPLIED"))
	for _, m := range result.Migrations {
		t.AppendRow(table.Row{
			nameStyle.Sprint(m.Plan.Name),
			formatStatus(m.Status),
			len(m.Artifacts),
			timestampStyle.Sprint(formatTime(m.AppliedAt)),
		})
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	summary := fmt.Sprintf("%d completed, %d already applied, %d skipped on %s",
		result.Count(usecase.MigrationCompleted),
		result.Count(usecase.MigrationApplied),
		result.Count(usecase.MigrationSkipped),
		result.Network.Name)
	if result.DryRun {
		summary += " [dry run, nothing recorded]"
	}

	if failed := result.Count(usecase.MigrationFailed); failed > 0 {
		fmt.Fprintln(r.out, FormatWarning(summary))
	} else {
		fmt.Fprintln(r.out, FormatSuccess(summary))
	}
	return nil
}

func formatStatus(status usecase.MigrationStatus) string {
	switch status {
	case usecase.MigrationCompleted:
		return okStyle.Sprint("completed")
	case usecase.MigrationApplied:
		return mutedStyle.Sprint("already applied")
	case usecase.MigrationSkipped:
		return filterStyle.Sprint("skipped")
	case usecase.MigrationFailed:
		return failStyle.Sprint("failed")
	default:
		return string(status)
	}
}

var _ Renderer[*usecase.MigrateResult] = (*MigrateRenderer)(nil)
