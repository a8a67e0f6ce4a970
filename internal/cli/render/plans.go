package render

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// PlansRenderer renders the plan list as a table
type PlansRenderer struct {
	out io.Writer
}

// NewPlansRenderer creates a new plans renderer
func NewPlansRenderer(out io.Writer) *PlansRenderer {
	return &PlansRenderer{out: out}
}

// Render prints one row per plan. When a network is selected the last
// column says whether the plan would run on it.
func (r *PlansRenderer) Render(result *usecase.ListPlansResult) error {
	if len(result.Plans) == 0 {
		fmt.Fprintln(r.out, "No plans found")
		return nil
	}

	t := newTable()
	cols := []string{"PLAN", "STEPS", "ACTIONS", "NETWORKS"}
	if result.Network != "" {
		cols = append(cols, strings.ToUpper(result.Network))
	}
	t.AppendHeader(header(cols...))

	for _, plan := range result.Plans {
		row := table.Row{
			nameStyle.Sprint(plan.Name),
			len(plan.Steps),
			formatActions(plan.CountActions()),
			filterStyle.Sprint(plan.Networks.String()),
		}
		if result.Network != "" {
			if result.Matches[plan.Name] {
				row = append(row, okStyle.Sprint("runs"))
			} else {
				row = append(row, mutedStyle.Sprint("skipped"))
			}
		}
		t.AppendRow(row)
	}

	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintf(r.out, "\n%d plan(s)\n", len(result.Plans))
	return nil
}

// formatActions renders counts like "2 Deploy, 1 Upgrade" in action order
func formatActions(counts map[models.ActionType]int) string {
	var parts []string
	for _, action := range models.Actions {
		if n := counts[action]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, ActionName(action)))
		}
	}

	// actions outside the known set still show up, sorted
	var unknown []string
	for action, n := range counts {
		if !slices.Contains(models.Actions, action) {
			unknown = append(unknown, fmt.Sprintf("%d %s", n, action))
		}
	}
	sort.Strings(unknown)
	parts = append(parts, unknown...)

	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

var _ Renderer[*usecase.ListPlansResult] = (*PlansRenderer)(nil)
