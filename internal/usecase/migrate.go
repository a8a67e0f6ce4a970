package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// MigrationStatus is the outcome of a single plan during a migration
type MigrationStatus string

const (
	MigrationCompleted MigrationStatus = "completed"
	MigrationSkipped   MigrationStatus = "skipped"
	MigrationApplied   MigrationStatus = "already_applied"
	MigrationFailed    MigrationStatus = "failed"
)

// MigrateParams contains parameters for running every plan in order
type MigrateParams struct {
	Reset       bool
	Select      bool
	DryRun      bool
	AutoConfirm bool
}

// MigrationResult describes what happened to one plan
type MigrationResult struct {
	Plan      *models.DeploymentPlan
	Status    MigrationStatus
	Artifacts []*models.DeployedArtifact
	AppliedAt time.Time
	Err       error
}

// MigrateResult contains the result of a migration run
type MigrateResult struct {
	Network    *config.Network
	Migrations []*MigrationResult
	DryRun     bool
}

// Count returns how many plans ended with status
func (r *MigrateResult) Count(status MigrationStatus) int {
	return lo.CountBy(r.Migrations, func(m *MigrationResult) bool {
		return m.Status == status
	})
}

// Migrate runs every plan in order, truffle style, skipping plans already
// recorded in the migration ledger and stopping at the first failure
type Migrate struct {
	cfg          *config.RuntimeConfig
	plans        PlanRepository
	selector     PlanSelector
	confirmer    Confirmer
	connector    ChainConnector
	orchestrator *DeploymentOrchestrator
	store        ArtifactStore
	ledger       MigrationLedger
	progress     ProgressSink
	log          *slog.Logger
	now          func() time.Time
}

// NewMigrate creates a new Migrate use case
func NewMigrate(
	cfg *config.RuntimeConfig,
	plans PlanRepository,
	selector PlanSelector,
	confirmer Confirmer,
	connector ChainConnector,
	orchestrator *DeploymentOrchestrator,
	store ArtifactStore,
	ledger MigrationLedger,
	progress ProgressSink,
	log *slog.Logger,
) *Migrate {
	return &Migrate{
		cfg:          cfg,
		plans:        plans,
		selector:     selector,
		confirmer:    confirmer,
		connector:    connector,
		orchestrator: orchestrator,
		store:        store,
		ledger:       ledger,
		progress:     progress,
		log:          log.With("component", "migrate"),
		now:          time.Now,
	}
}

// Run executes the use case
func (uc *Migrate) Run(ctx context.Context, params MigrateParams) (*MigrateResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("%w: specify one with --network", domain.ErrNetworkNotConfigured)
	}
	dryRun := params.DryRun || uc.cfg.DryRun

	plans, err := uc.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if params.Select {
		if uc.cfg.NonInteractive {
			return nil, fmt.Errorf("%w: --select needs a terminal", domain.ErrInteractiveRequired)
		}
		plans, err = uc.selector.SelectPlans(ctx, plans, "Select plans to migrate")
		if err != nil {
			return nil, err
		}
	}

	if params.Reset && !dryRun {
		if err := uc.ledger.Reset(ctx, network.Name); err != nil {
			return nil, fmt.Errorf("failed to reset migrations: %w", err)
		}
	}

	completed := map[string]time.Time{}
	if !params.Reset {
		completed, err = uc.ledger.Completed(ctx, network.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load migrations: %w", err)
		}
	}

	result := &MigrateResult{Network: network, DryRun: dryRun}

	pending := 0
	for _, plan := range plans {
		if _, done := completed[plan.Name]; !done && !IsSkipped(plan, network.Name) {
			pending++
		}
	}
	if pending > 0 {
		if err := confirmBroadcast(ctx, uc.cfg, uc.confirmer, network, dryRun, params.AutoConfirm,
			fmt.Sprintf("Run %d pending plan(s) on %s (chain %d)?", pending, network.Name, network.ChainID)); err != nil {
			return nil, err
		}
	}

	var chain ChainClient
	for i, plan := range plans {
		migration := &MigrationResult{Plan: plan}
		result.Migrations = append(result.Migrations, migration)

		if appliedAt, done := completed[plan.Name]; done {
			migration.Status = MigrationApplied
			migration.AppliedAt = appliedAt
			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageMigrationApplied,
				Current:  i + 1,
				Total:    len(plans),
				Message:  plan.Name,
				Metadata: migration,
			})
			continue
		}

		if IsSkipped(plan, network.Name) {
			// the orchestrator reports the skip without touching the chain
			if _, err := uc.orchestrator.Run(ctx, plan, network, nil); err != nil {
				migration.Status = MigrationFailed
				migration.Err = err
				return result, fmt.Errorf("plan %s: %w", plan.Name, err)
			}
			migration.Status = MigrationSkipped
			continue
		}

		if chain == nil {
			chain, err = uc.connector.Connect(ctx, network, dryRun)
			if err != nil {
				return result, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
			}
			defer closeChain(chain, uc.log)
		}

		uc.log.Debug("running migration", "plan", plan.Name, "network", network.Name)
		artifacts, runErr := uc.orchestrator.Run(ctx, plan, network, chain)
		migration.Artifacts = artifacts

		if !dryRun && len(artifacts) > 0 {
			if err := uc.store.SaveArtifacts(ctx, network.Name, artifacts); err != nil {
				uc.log.Warn("failed to save artifacts", "plan", plan.Name, "error", err)
				if runErr == nil {
					runErr = fmt.Errorf("failed to save artifacts: %w", err)
				}
			}
		}

		if runErr != nil {
			migration.Status = MigrationFailed
			migration.Err = runErr
			return result, fmt.Errorf("plan %s: %w", plan.Name, runErr)
		}

		migration.Status = MigrationCompleted
		migration.AppliedAt = uc.now().UTC()
		if !dryRun {
			if err := uc.ledger.MarkCompleted(ctx, network.Name, plan.Name, migration.AppliedAt); err != nil {
				return result, fmt.Errorf("failed to record migration %s: %w", plan.Name, err)
			}
		}
	}

	return result, nil
}
