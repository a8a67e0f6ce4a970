package usecase

import (
	"context"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ListPlansResult contains the plans and, when a network is selected,
// whether each plan would run on it
type ListPlansResult struct {
	Plans   []*models.DeploymentPlan
	Network string
	Matches map[string]bool
}

// ListPlans is a use case for listing deployment plans
type ListPlans struct {
	cfg   *config.RuntimeConfig
	plans PlanRepository
}

// NewListPlans creates a new ListPlans use case
func NewListPlans(cfg *config.RuntimeConfig, plans PlanRepository) *ListPlans {
	return &ListPlans{cfg: cfg, plans: plans}
}

// Run executes the use case
func (uc *ListPlans) Run(ctx context.Context) (*ListPlansResult, error) {
	plans, err := uc.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	result := &ListPlansResult{Plans: plans}
	if uc.cfg.Network != nil {
		result.Network = uc.cfg.Network.Name
		result.Matches = make(map[string]bool, len(plans))
		for _, plan := range plans {
			result.Matches[plan.Name] = plan.Networks.Matches(result.Network)
		}
	}

	return result, nil
}
