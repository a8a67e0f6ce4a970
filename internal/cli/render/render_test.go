package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

func noColor(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })
}

func petBasePlan() *models.DeploymentPlan {
	return &models.DeploymentPlan{
		Name:     "8_pet_base",
		Networks: models.NetworkFilter{Only: []string{"kovan"}},
		Steps: []*models.DeploymentStep{
			{Name: "petBaseProxy", Action: models.ActionDeploy},
			{Name: "petBase", Action: models.ActionDeploy},
			{Name: "upgrade", Action: models.ActionUpgrade},
			{Name: "initialize", Action: models.ActionCall},
		},
	}
}

func TestFormatHelpers(t *testing.T) {
	noColor(t)

	assert.Equal(t, "❌ Transaction reverted", FormatError("plan x: step 'y' failed: transaction reverted"))
	assert.Equal(t, "✅ done", FormatSuccess("done"))
	assert.Equal(t, "⚠️  careful", FormatWarning("careful"))
	assert.Equal(t, "Deploy", ActionName(models.ActionDeploy))
	assert.Equal(t, "-", formatTime(time.Time{}))
}

func TestFormatActions(t *testing.T) {
	assert.Equal(t, "2 Deploy, 1 Upgrade, 1 Call", formatActions(petBasePlan().CountActions()))
	assert.Equal(t, "-", formatActions(nil))
	assert.Equal(t, "1 Register, 1 selfdestruct", formatActions(map[models.ActionType]int{
		models.ActionRegister: 1,
		"selfdestruct":        1,
	}))
}

func TestPlansRenderer(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	result := &usecase.ListPlansResult{
		Plans:   []*models.DeploymentPlan{{Name: "2_registry"}, petBasePlan()},
		Network: "mainnet",
		Matches: map[string]bool{"2_registry": true, "8_pet_base": false},
	}
	require.NoError(t, NewPlansRenderer(&buf).Render(result))

	out := buf.String()
	assert.Contains(t, out, "MAINNET")
	assert.Contains(t, out, "only kovan")
	assert.Contains(t, out, "all networks")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "2 plan(s)")

	buf.Reset()
	require.NoError(t, NewPlansRenderer(&buf).Render(&usecase.ListPlansResult{}))
	assert.Equal(t, "No plans found\n", buf.String())
}

func TestArtifactsRenderer(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	now := time.Now()
	result := &usecase.ListArtifactsResult{
		Network: "kovan",
		Artifacts: []*models.DeployedArtifact{
			{Plan: "8_pet_base", Step: "petBase", Contract: "PetBase", Address: common.HexToAddress("0x02"), DeployedAt: now.Add(time.Second)},
			{Plan: "2_registry", Step: "registry", Contract: "SettingsRegistry", Address: common.HexToAddress("0x01"), DeployedAt: now},
			{Plan: "8_pet_base", Step: "petBaseProxy", Contract: "OwnedUpgradeabilityProxy", Address: common.HexToAddress("0x03"), DeployedAt: now},
		},
		ByPlan: map[string]int{"8_pet_base": 2, "2_registry": 1},
	}
	require.NoError(t, NewArtifactsRenderer(&buf).Render(result))

	out := buf.String()
	assert.Contains(t, out, "8_pet_base (2)")
	assert.Contains(t, out, "2_registry (1)")
	assert.Contains(t, out, common.HexToAddress("0x01").Hex())
	assert.Contains(t, out, "3 artifact(s)")
	// plans keep the order they first appear in
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("8_pet_base (2)")), bytes.Index(buf.Bytes(), []byte("2_registry (1)")))
	// rows inside a plan are sorted by deployment time
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("petBaseProxy")), bytes.Index(buf.Bytes(), []byte("  petBase ")))
}

func TestRunRenderer(t *testing.T) {
	noColor(t)
	network := &config.Network{Name: "kovan"}

	t.Run("completed", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.RunPlanResult{
			Plan:      petBasePlan(),
			Network:   network,
			Artifacts: []*models.DeployedArtifact{{Step: "petBase", Contract: "PetBase"}},
		}
		require.NoError(t, NewRunRenderer(&buf).Render(result))
		assert.Contains(t, buf.String(), "Plan 8_pet_base completed on kovan (4 steps, 1 deployed)")
		assert.NotContains(t, buf.String(), "dry run")
	})

	t.Run("skipped", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.RunPlanResult{Plan: petBasePlan(), Network: &config.Network{Name: "mainnet"}, Skipped: true}
		require.NoError(t, NewRunRenderer(&buf).Render(result))
		assert.Contains(t, buf.String(), "does not run on mainnet (only kovan)")
	})

	t.Run("failure names the step", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.RunPlanResult{
			Plan:      petBasePlan(),
			Network:   network,
			Artifacts: []*models.DeployedArtifact{{Step: "petBaseProxy", Contract: "OwnedUpgradeabilityProxy"}},
		}
		err := &domain.DeploymentError{Step: "upgrade", Cause: domain.ErrReverted}
		NewRunRenderer(&buf).RenderFailure(result, err)
		assert.Contains(t, buf.String(), "Deployed before the failure")
		assert.Contains(t, buf.String(), "OwnedUpgradeabilityProxy")
		assert.Contains(t, buf.String(), "✗ Step upgrade failed")
	})

	t.Run("failure without result", func(t *testing.T) {
		var buf bytes.Buffer
		NewRunRenderer(&buf).RenderFailure(nil, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}

func TestMigrateRenderer(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	result := &usecase.MigrateResult{
		Network: &config.Network{Name: "kovan"},
		Migrations: []*usecase.MigrationResult{
			{Plan: &models.DeploymentPlan{Name: "2_registry"}, Status: usecase.MigrationApplied, AppliedAt: time.Now()},
			{Plan: petBasePlan(), Status: usecase.MigrationCompleted, Artifacts: make([]*models.DeployedArtifact, 2)},
			{Plan: &models.DeploymentPlan{Name: "9_mainnet_only"}, Status: usecase.MigrationSkipped},
		},
	}
	require.NoError(t, NewMigrateRenderer(&buf).Render(result))

	out := buf.String()
	assert.Contains(t, out, "already applied")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "✅ 1 completed, 1 already applied, 1 skipped on kovan")
}

func TestValidateRenderer(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer

	result := &usecase.ValidatePlanResult{
		Network: "kovan",
		Plans: []*usecase.PlanValidation{
			{Plan: petBasePlan()},
			{Plan: &models.DeploymentPlan{Name: "9_mainnet_only"}, Skipped: true},
			{Plan: &models.DeploymentPlan{Name: "10_broken"}, Err: &domain.UnresolvedDependencyError{
				Step: "upgrade", Kind: domain.ReferenceStep, Reference: "petBaseProxy_address",
			}},
		},
	}
	require.NoError(t, NewValidateRenderer(&buf).Render(result))

	out := buf.String()
	assert.Contains(t, out, "✓ 8_pet_base (4 steps)")
	assert.Contains(t, out, "⊘ 9_mainnet_only (does not run on kovan)")
	assert.Contains(t, out, "✗ 10_broken")
	assert.Contains(t, out, "step 'upgrade' references unresolved steps 'petBaseProxy_address'")
	assert.Contains(t, out, "❌ 1 of 3 plan(s) invalid for kovan")
}
