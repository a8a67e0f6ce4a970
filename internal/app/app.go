package app

import (
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	RunPlan       *usecase.RunPlan
	Migrate       *usecase.Migrate
	ValidatePlan  *usecase.ValidatePlan
	ListPlans     *usecase.ListPlans
	ListArtifacts *usecase.ListArtifacts
	ListNetworks  *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	runPlan *usecase.RunPlan,
	migrate *usecase.Migrate,
	validatePlan *usecase.ValidatePlan,
	listPlans *usecase.ListPlans,
	listArtifacts *usecase.ListArtifacts,
	listNetworks *usecase.ListNetworks,
) (*App, error) {
	return &App{
		Config:        cfg,
		RunPlan:       runPlan,
		Migrate:       migrate,
		ValidatePlan:  validatePlan,
		ListPlans:     listPlans,
		ListArtifacts: listArtifacts,
		ListNetworks:  listNetworks,
	}, nil
}
