package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ValidatePlanParams contains parameters for validating plans.
// An empty PlanRef validates every plan.
type ValidatePlanParams struct {
	PlanRef string
}

// PlanValidation is the verdict for a single plan
type PlanValidation struct {
	Plan    *models.DeploymentPlan
	Skipped bool
	Err     error
}

// Valid reports whether the plan passed
func (v *PlanValidation) Valid() bool {
	return v.Err == nil
}

// ValidatePlanResult contains the result of validation
type ValidatePlanResult struct {
	Network string
	Plans   []*PlanValidation
}

// Failed returns the validations that did not pass
func (r *ValidatePlanResult) Failed() []*PlanValidation {
	return lo.Reject(r.Plans, func(v *PlanValidation, _ int) bool {
		return v.Valid()
	})
}

// ValidatePlan checks plan structure and dry-runs each plan on an in-memory
// chain so unresolved references surface without touching a network
type ValidatePlan struct {
	cfg       *config.RuntimeConfig
	plans     PlanRepository
	connector ChainConnector
	contracts ContractRepository
	log       *slog.Logger
}

// NewValidatePlan creates a new ValidatePlan use case
func NewValidatePlan(
	cfg *config.RuntimeConfig,
	plans PlanRepository,
	connector ChainConnector,
	contracts ContractRepository,
	log *slog.Logger,
) *ValidatePlan {
	return &ValidatePlan{
		cfg:       cfg,
		plans:     plans,
		connector: connector,
		contracts: contracts,
		log:       log,
	}
}

// Run executes the use case
func (uc *ValidatePlan) Run(ctx context.Context, params ValidatePlanParams) (*ValidatePlanResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("%w: specify one with --network", domain.ErrNetworkNotConfigured)
	}

	var plans []*models.DeploymentPlan
	if params.PlanRef != "" {
		plan, err := uc.plans.GetPlan(ctx, params.PlanRef)
		if err != nil {
			return nil, err
		}
		plans = []*models.DeploymentPlan{plan}
	} else {
		var err error
		plans, err = uc.plans.ListPlans(ctx)
		if err != nil {
			return nil, err
		}
	}

	// Validation runs quietly; only the verdicts are reported
	orchestrator := NewDeploymentOrchestrator(uc.contracts, NopProgress{}, uc.log)

	chain, err := uc.connector.Connect(ctx, network, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create dry-run chain: %w", err)
	}

	result := &ValidatePlanResult{Network: network.Name}
	for _, plan := range plans {
		_, runErr := orchestrator.Run(ctx, plan, network, chain)
		result.Plans = append(result.Plans, &PlanValidation{
			Plan:    plan,
			Skipped: runErr == nil && IsSkipped(plan, network.Name),
			Err:     runErr,
		})
	}

	return result, nil
}
