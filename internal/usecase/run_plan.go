package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// RunPlanParams contains parameters for running a single plan
type RunPlanParams struct {
	PlanRef     string
	DryRun      bool
	AutoConfirm bool
}

// RunPlanResult contains the result of running a plan
type RunPlanResult struct {
	Plan      *models.DeploymentPlan
	Network   *config.Network
	Artifacts []*models.DeployedArtifact
	Skipped   bool
	DryRun    bool
}

// RunPlan loads a plan, connects to the configured network and executes it
type RunPlan struct {
	cfg          *config.RuntimeConfig
	plans        PlanRepository
	selector     PlanSelector
	confirmer    Confirmer
	connector    ChainConnector
	orchestrator *DeploymentOrchestrator
	store        ArtifactStore
	log          *slog.Logger
}

// NewRunPlan creates a new RunPlan use case
func NewRunPlan(
	cfg *config.RuntimeConfig,
	plans PlanRepository,
	selector PlanSelector,
	confirmer Confirmer,
	connector ChainConnector,
	orchestrator *DeploymentOrchestrator,
	store ArtifactStore,
	log *slog.Logger,
) *RunPlan {
	return &RunPlan{
		cfg:          cfg,
		plans:        plans,
		selector:     selector,
		confirmer:    confirmer,
		connector:    connector,
		orchestrator: orchestrator,
		store:        store,
		log:          log.With("component", "run_plan"),
	}
}

// Run executes the use case. The result is returned even when the plan
// fails so the caller can report what was deployed before the failure.
func (uc *RunPlan) Run(ctx context.Context, params RunPlanParams) (*RunPlanResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("%w: specify one with --network", domain.ErrNetworkNotConfigured)
	}

	plan, err := uc.loadPlan(ctx, params.PlanRef)
	if err != nil {
		return nil, err
	}

	dryRun := params.DryRun || uc.cfg.DryRun
	result := &RunPlanResult{
		Plan:    plan,
		Network: network,
		DryRun:  dryRun,
		Skipped: IsSkipped(plan, network.Name),
	}

	var chain ChainClient
	if !result.Skipped {
		if err := confirmBroadcast(ctx, uc.cfg, uc.confirmer, network, dryRun, params.AutoConfirm,
			fmt.Sprintf("Run plan %s on %s (chain %d)?", plan.Name, network.Name, network.ChainID)); err != nil {
			return nil, err
		}

		chain, err = uc.connector.Connect(ctx, network, dryRun)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", network.Name, err)
		}
		defer closeChain(chain, uc.log)
	}

	artifacts, runErr := uc.orchestrator.Run(ctx, plan, network, chain)
	result.Artifacts = artifacts

	if !dryRun && len(artifacts) > 0 {
		if err := uc.store.SaveArtifacts(ctx, network.Name, artifacts); err != nil {
			uc.log.Warn("failed to save artifacts", "network", network.Name, "error", err)
			if runErr == nil {
				return result, fmt.Errorf("failed to save artifacts: %w", err)
			}
		}
	}

	return result, runErr
}

func (uc *RunPlan) loadPlan(ctx context.Context, ref string) (*models.DeploymentPlan, error) {
	if ref != "" {
		return uc.plans.GetPlan(ctx, ref)
	}

	if uc.cfg.NonInteractive {
		return nil, fmt.Errorf("%w: plan name is required", domain.ErrInteractiveRequired)
	}

	plans, err := uc.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no plans in %s", domain.ErrNotFound, uc.cfg.PlansDir)
	}

	return uc.selector.SelectPlan(ctx, plans, "Select a plan to run")
}

// closeChain releases the connection behind chain when it holds one
func closeChain(chain ChainClient, log *slog.Logger) {
	closer, ok := chain.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Debug("failed to close chain client", "error", err)
	}
}

// confirmBroadcast asks before sending transactions to a network flagged confirm = true
func confirmBroadcast(
	ctx context.Context,
	cfg *config.RuntimeConfig,
	confirmer Confirmer,
	network *config.Network,
	dryRun, autoConfirm bool,
	message string,
) error {
	if dryRun || autoConfirm || cfg.AutoConfirm || !network.Confirm {
		return nil
	}
	if cfg.NonInteractive {
		return fmt.Errorf("%w: network %s requires confirmation, pass --yes", domain.ErrInteractiveRequired, network.Name)
	}

	ok, err := confirmer.Confirm(ctx, message)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAborted
	}
	return nil
}
