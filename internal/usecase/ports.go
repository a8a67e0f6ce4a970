package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ChainClient submits deployments, transactions and calls to a network.
// Every method blocks until the transaction is confirmed or the call returns.
type ChainClient interface {
	DeployContract(ctx context.Context, req models.DeployRequest) (*models.Receipt, error)
	CallMethod(ctx context.Context, call models.MethodCall) (*models.CallResult, error)
	SendTransaction(ctx context.Context, to common.Address, data []byte) (*models.Receipt, error)
	GetDeployedAddress(ctx context.Context, txHash common.Hash) (common.Address, error)
}

// ChainConnector opens a ChainClient for a network. A dry run gets an
// in-memory chain that never touches the network.
type ChainConnector interface {
	Connect(ctx context.Context, network *config.Network, dryRun bool) (ChainClient, error)
}

// ContractRepository provides access to compiled contract artifacts
type ContractRepository interface {
	GetContract(ctx context.Context, name string) (*models.Contract, error)
}

// PlanRepository loads deployment plans from the plans directory
type PlanRepository interface {
	// ListPlans returns every plan ordered by its numeric prefix
	ListPlans(ctx context.Context) ([]*models.DeploymentPlan, error)
	// GetPlan finds a plan by name, file name or path
	GetPlan(ctx context.Context, ref string) (*models.DeploymentPlan, error)
}

// ArtifactStore persists DeployedArtifacts per network
type ArtifactStore interface {
	SaveArtifacts(ctx context.Context, network string, artifacts []*models.DeployedArtifact) error
	ListArtifacts(ctx context.Context, network string) ([]*models.DeployedArtifact, error)
}

// MigrationLedger records which plans have completed on a network
type MigrationLedger interface {
	Completed(ctx context.Context, network string) (map[string]time.Time, error)
	MarkCompleted(ctx context.Context, network, plan string, at time.Time) error
	Reset(ctx context.Context, network string) error
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// PlanSelector handles interactive selection of plans
type PlanSelector interface {
	SelectPlan(ctx context.Context, plans []*models.DeploymentPlan, prompt string) (*models.DeploymentPlan, error)
	SelectPlans(ctx context.Context, plans []*models.DeploymentPlan, prompt string) ([]*models.DeploymentPlan, error)
}

// Confirmer asks the user to approve broadcasting to a network
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Progress stages emitted by the orchestrator
const (
	StagePlanSkipped   = "plan_skipped"
	StagePlanStarted   = "plan_started"
	StageStepStarting  = "step_starting"
	StageStepCompleted = "step_completed"
	StageStepFailed    = "step_failed"
	StagePlanCompleted = "plan_completed"

	// StageMigrationApplied is emitted by migrate for plans already in the ledger
	StageMigrationApplied = "migration_applied"
)

// PlanSkippedInfo is the metadata of a plan_skipped event
type PlanSkippedInfo struct {
	Plan    *models.DeploymentPlan
	Network string
}

// StepFailedInfo is the metadata of a step_failed event
type StepFailedInfo struct {
	Step  *models.DeploymentStep
	Index int
	Err   error
}
