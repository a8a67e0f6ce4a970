package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ArtifactsRenderer renders recorded deployments grouped by plan
type ArtifactsRenderer struct {
	out io.Writer
}

// NewArtifactsRenderer creates a new artifacts renderer
func NewArtifactsRenderer(out io.Writer) *ArtifactsRenderer {
	return &ArtifactsRenderer{out: out}
}

// Render prints a table per plan in the order plans first deployed
func (r *ArtifactsRenderer) Render(result *usecase.ListArtifactsResult) error {
	if len(result.Artifacts) == 0 {
		fmt.Fprintf(r.out, "No artifacts recorded for %s\n", result.Network)
		return nil
	}

	groups := lo.GroupBy(result.Artifacts, func(a *models.DeployedArtifact) string { return a.Plan })
	planOrder := lo.Uniq(lo.Map(result.Artifacts, func(a *models.DeployedArtifact, _ int) string { return a.Plan }))

	fmt.Fprintf(r.out, "Deployments on %s:\n\n", nameStyle.Sprint(result.Network))
	for _, plan := range planOrder {
		name := plan
		if name == "" {
			name = "(no plan)"
		}
		fmt.Fprintln(r.out, headerStyle.Sprintf("%s (%d)", name, result.ByPlan[plan]))
		fmt.Fprintln(r.out, ArtifactTable(groups[plan]))
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "%d artifact(s)\n", len(result.Artifacts))
	return nil
}

// ArtifactTable renders artifacts sorted by deployment time
func ArtifactTable(artifacts []*models.DeployedArtifact) string {
	sorted := make([]*models.DeployedArtifact, len(artifacts))
	copy(sorted, artifacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DeployedAt.Before(sorted[j].DeployedAt)
	})

	t := newTable()
	t.AppendHeader(header("STEP", "CONTRACT", "ADDRESS", "TX", "BLOCK", "DEPLOYED"))
	for _, a := range sorted {
		t.AppendRow(table.Row{
			"  " + a.Step,
			nameStyle.Sprint(a.Contract),
			addressStyle.Sprint(a.Address.Hex()),
			mutedStyle.Sprint(shortHash(a.TxHash.Hex())),
			a.BlockNumber,
			timestampStyle.Sprint(formatTime(a.DeployedAt)),
		})
	}
	return t.Render()
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:10] + "..." + h[len(h)-4:]
}

var _ Renderer[*usecase.ListArtifactsResult] = (*ArtifactsRenderer)(nil)
