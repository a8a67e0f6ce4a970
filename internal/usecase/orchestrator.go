package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// Register method signatures on the settings registry
const (
	setAddressPropertySig = "setAddressProperty(bytes32,address)"
	setUintPropertySig    = "setUintProperty(bytes32,uint256)"
)

// DeploymentOrchestrator executes a deployment plan step by step against a
// chain client. Steps run strictly in order and the first failure aborts the run.
type DeploymentOrchestrator struct {
	contracts ContractRepository
	progress  ProgressSink
	log       *slog.Logger
	now       func() time.Time
}

// NewDeploymentOrchestrator creates a new orchestrator
func NewDeploymentOrchestrator(
	contracts ContractRepository,
	progress ProgressSink,
	log *slog.Logger,
) *DeploymentOrchestrator {
	return &DeploymentOrchestrator{
		contracts: contracts,
		progress:  progress,
		log:       log.With("component", "orchestrator"),
		now:       time.Now,
	}
}

// Run executes plan on network. It returns one artifact per deploy step, in
// plan order. A plan whose network filter excludes network yields no
// artifacts and no error. On failure the artifacts produced so far are
// returned together with a *domain.DeploymentError naming the failed step.
func (o *DeploymentOrchestrator) Run(
	ctx context.Context,
	plan *models.DeploymentPlan,
	network *config.Network,
	chain ChainClient,
) ([]*models.DeployedArtifact, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan given", domain.ErrInvalidPlan)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPlan, err)
	}
	if network == nil {
		return nil, domain.ErrNetworkNotConfigured
	}

	artifacts := make([]*models.DeployedArtifact, 0)

	if !plan.Networks.Matches(network.Name) {
		o.log.Debug("plan skipped", "plan", plan.Name, "network", network.Name, "filter", plan.Networks.String())
		o.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StagePlanSkipped,
			Message:  fmt.Sprintf("%s: %s (%s)", plan.Name, domain.ErrNetworkMismatch, plan.Networks),
			Metadata: &PlanSkippedInfo{Plan: plan, Network: network.Name},
		})
		return artifacts, nil
	}

	total := len(plan.Steps)
	scope := newResolutionScope(plan, network.Config.Merge(plan.Config))

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanStarted,
		Total:    total,
		Message:  plan.Name,
		Metadata: plan,
	})

	for i, step := range plan.Steps {
		o.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageStepStarting,
			Current:  i + 1,
			Total:    total,
			Message:  step.Name,
			Spinner:  true,
			Metadata: step,
		})
		o.log.Debug("executing step", "plan", plan.Name, "step", step.Name, "action", step.Action)

		outcome, err := o.executeStep(ctx, plan, step, network, scope, chain)
		if err != nil {
			o.log.Debug("step failed", "step", step.Name, "error", err)
			o.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageStepFailed,
				Current:  i + 1,
				Total:    total,
				Message:  err.Error(),
				Metadata: &StepFailedInfo{Step: step, Index: i, Err: err},
			})
			return artifacts, &domain.DeploymentError{Step: step.Name, Cause: err}
		}

		outcome.Index = i
		outcome.Total = total
		scope.record(outcome)
		if outcome.Artifact != nil {
			artifacts = append(artifacts, outcome.Artifact)
		}

		o.log.Info("step completed", "step", step.Name, "action", step.Action)
		o.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageStepCompleted,
			Current:  i + 1,
			Total:    total,
			Message:  describeOutcome(outcome),
			Metadata: outcome,
		})
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCompleted,
		Current:  total,
		Total:    total,
		Message:  plan.Name,
		Metadata: artifacts,
	})

	return artifacts, nil
}

// executeStep resolves the step's references and then performs its action.
// Resolution failures return before any chain call is made.
func (o *DeploymentOrchestrator) executeStep(
	ctx context.Context,
	plan *models.DeploymentPlan,
	step *models.DeploymentStep,
	network *config.Network,
	scope *resolutionScope,
	chain ChainClient,
) (*models.StepOutcome, error) {
	if err := scope.checkDependencies(step); err != nil {
		return nil, err
	}

	params, err := scope.resolveParams(step)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewChainCallError(string(step.Action), step.Name, err)
	}

	switch step.Action {
	case models.ActionDeploy:
		return o.deploy(ctx, plan, step, params, network, chain)
	case models.ActionUpgrade:
		return o.upgrade(ctx, step, params, chain)
	case models.ActionCall:
		return o.call(ctx, step, params, chain)
	case models.ActionRegister:
		return o.register(ctx, step, params, chain)
	default:
		return nil, fmt.Errorf("%w: unknown action '%s'", domain.ErrInvalidPlan, step.Action)
	}
}

func (o *DeploymentOrchestrator) deploy(
	ctx context.Context,
	plan *models.DeploymentPlan,
	step *models.DeploymentStep,
	params models.Params,
	network *config.Network,
	chain ChainClient,
) (*models.StepOutcome, error) {
	name := params.GetString(models.ParamContract)
	contract, err := o.contracts.GetContract(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract %s: %w", name, err)
	}

	receipt, err := chain.DeployContract(ctx, models.DeployRequest{
		Contract: contract,
		Args:     params.GetList(models.ParamArgs),
	})
	if err != nil {
		return nil, err
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address, err = chain.GetDeployedAddress(ctx, receipt.TxHash)
		if err != nil {
			return nil, err
		}
	}

	return &models.StepOutcome{
		Step:    step,
		Receipt: receipt,
		Artifact: &models.DeployedArtifact{
			Step:        step.Name,
			Plan:        plan.Name,
			Contract:    contract.Name,
			Address:     address,
			TxHash:      receipt.TxHash,
			BlockNumber: receipt.BlockNumber,
			Network:     network.Name,
			ChainID:     network.ChainID,
			DeployedAt:  o.now().UTC(),
		},
	}, nil
}

func (o *DeploymentOrchestrator) upgrade(
	ctx context.Context,
	step *models.DeploymentStep,
	params models.Params,
	chain ChainClient,
) (*models.StepOutcome, error) {
	proxy, err := addressParam(params, models.ParamProxy)
	if err != nil {
		return nil, err
	}
	implementation, err := addressParam(params, models.ParamImplementation)
	if err != nil {
		return nil, err
	}

	method := params.GetString(models.ParamMethod)
	if method == "" {
		method = models.DefaultUpgradeMethod
	}

	result, err := chain.CallMethod(ctx, models.MethodCall{
		To:            proxy,
		Signature:     method,
		Args:          []any{implementation},
		StateChanging: true,
	})
	if err != nil {
		return nil, err
	}

	return &models.StepOutcome{Step: step, Receipt: result.Receipt}, nil
}

func (o *DeploymentOrchestrator) call(
	ctx context.Context,
	step *models.DeploymentStep,
	params models.Params,
	chain ChainClient,
) (*models.StepOutcome, error) {
	target, err := addressParam(params, models.ParamTarget)
	if err != nil {
		return nil, err
	}

	view := params.GetBool(models.ParamView)
	result, err := chain.CallMethod(ctx, models.MethodCall{
		To:            target,
		Signature:     params.GetString(models.ParamMethod),
		Returns:       params.GetString(models.ParamReturns),
		Args:          params.GetList(models.ParamArgs),
		StateChanging: !view,
	})
	if err != nil {
		return nil, err
	}

	outcome := &models.StepOutcome{Step: step, Receipt: result.Receipt}
	if view {
		outcome.Result, outcome.HasResult = result.Value()
	}
	return outcome, nil
}

func (o *DeploymentOrchestrator) register(
	ctx context.Context,
	step *models.DeploymentStep,
	params models.Params,
	chain ChainClient,
) (*models.StepOutcome, error) {
	registry, err := addressParam(params, models.ParamRegistry)
	if err != nil {
		return nil, err
	}

	method := setAddressPropertySig
	if params.GetString(models.ParamKind) == models.RegisterKindUint {
		method = setUintPropertySig
	}

	result, err := chain.CallMethod(ctx, models.MethodCall{
		To:            registry,
		Signature:     method,
		Args:          []any{params[models.ParamKey], params[models.ParamValue]},
		StateChanging: true,
	})
	if err != nil {
		return nil, err
	}

	return &models.StepOutcome{Step: step, Receipt: result.Receipt}, nil
}

// addressParam reads a resolved param as an address
func addressParam(params models.Params, key string) (common.Address, error) {
	switch v := params[key].(type) {
	case common.Address:
		return v, nil
	case string:
		if common.IsHexAddress(v) {
			return common.HexToAddress(v), nil
		}
		return common.Address{}, fmt.Errorf("%w: %s '%s'", domain.ErrInvalidAddress, key, v)
	default:
		return common.Address{}, fmt.Errorf("%w: %s has type %T", domain.ErrInvalidAddress, key, v)
	}
}

// describeOutcome is the one-line summary carried by step_completed events
func describeOutcome(outcome *models.StepOutcome) string {
	switch {
	case outcome.Artifact != nil:
		return outcome.Artifact.Address.Hex()
	case outcome.HasResult:
		return fmt.Sprint(formatValue(outcome.Result))
	case outcome.Receipt != nil:
		return outcome.Receipt.TxHash.Hex()
	default:
		return ""
	}
}

// formatValue renders decoded call results readably
func formatValue(v any) any {
	switch val := v.(type) {
	case [32]byte:
		return common.Hash(val).Hex()
	case common.Address:
		return val.Hex()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

// IsSkipped reports whether a run produced nothing because of the network filter
func IsSkipped(plan *models.DeploymentPlan, network string) bool {
	return plan != nil && !plan.Networks.Matches(network)
}
