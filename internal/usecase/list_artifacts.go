package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ListArtifactsParams contains parameters for listing recorded artifacts
type ListArtifactsParams struct {
	Plan     string
	Contract string
}

// ListArtifactsResult contains the recorded artifacts for a network
type ListArtifactsResult struct {
	Network   string
	Artifacts []*models.DeployedArtifact
	ByPlan    map[string]int
}

// ListArtifacts is a use case for listing deployed artifacts
type ListArtifacts struct {
	cfg   *config.RuntimeConfig
	store ArtifactStore
}

// NewListArtifacts creates a new ListArtifacts use case
func NewListArtifacts(cfg *config.RuntimeConfig, store ArtifactStore) *ListArtifacts {
	return &ListArtifacts{cfg: cfg, store: store}
}

// Run executes the use case
func (uc *ListArtifacts) Run(ctx context.Context, params ListArtifactsParams) (*ListArtifactsResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("%w: specify one with --network", domain.ErrNetworkNotConfigured)
	}
	network := uc.cfg.Network.Name

	artifacts, err := uc.store.ListArtifacts(ctx, network)
	if err != nil {
		return nil, err
	}

	artifacts = lo.Filter(artifacts, func(a *models.DeployedArtifact, _ int) bool {
		return (params.Plan == "" || a.Plan == params.Plan) &&
			(params.Contract == "" || a.Contract == params.Contract)
	})

	byPlan := lo.CountValuesBy(artifacts, func(a *models.DeployedArtifact) string {
		return a.Plan
	})

	return &ListArtifactsResult{
		Network:   network,
		Artifacts: artifacts,
		ByPlan:    byPlan,
	}, nil
}
