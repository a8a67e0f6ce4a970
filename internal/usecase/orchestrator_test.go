package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// chainCall records a single request made to the fake chain
type chainCall struct {
	Op        string
	Contract  string
	To        common.Address
	Signature string
	Args      []any
}

// fakeChain is an in-memory ChainClient that records every call
type fakeChain struct {
	calls           []chainCall
	nonce           int64
	failOnCall      int
	failErr         error
	views           map[string][]any
	implementations map[common.Address]common.Address
	closed          int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		views:           make(map[string][]any),
		implementations: make(map[common.Address]common.Address),
	}
}

func (f *fakeChain) Close() error {
	f.closed++
	return nil
}

func (f *fakeChain) record(call chainCall) error {
	f.calls = append(f.calls, call)
	if f.failOnCall > 0 && len(f.calls) == f.failOnCall {
		if f.failErr != nil {
			return f.failErr
		}
		return domain.NewChainCallError(call.Op, call.Signature, domain.ErrReverted)
	}
	return nil
}

func (f *fakeChain) receipt() *models.Receipt {
	f.nonce++
	return &models.Receipt{
		TxHash:      common.BigToHash(big.NewInt(f.nonce)),
		BlockNumber: uint64(f.nonce),
		GasUsed:     21000,
	}
}

func (f *fakeChain) DeployContract(ctx context.Context, req models.DeployRequest) (*models.Receipt, error) {
	if err := f.record(chainCall{Op: "deploy", Contract: req.Contract.Name, Args: req.Args}); err != nil {
		return nil, err
	}
	r := f.receipt()
	r.ContractAddress = common.BigToAddress(big.NewInt(0x1000 + f.nonce))
	return r, nil
}

func (f *fakeChain) CallMethod(ctx context.Context, call models.MethodCall) (*models.CallResult, error) {
	op := "send"
	if !call.StateChanging {
		op = "view"
	}
	if err := f.record(chainCall{Op: op, To: call.To, Signature: call.Signature, Args: call.Args}); err != nil {
		return nil, err
	}
	if !call.StateChanging {
		return &models.CallResult{Values: f.views[call.Signature]}, nil
	}
	if call.Signature == models.DefaultUpgradeMethod {
		f.implementations[call.To] = call.Args[0].(common.Address)
	}
	return &models.CallResult{Receipt: f.receipt()}, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, to common.Address, data []byte) (*models.Receipt, error) {
	if err := f.record(chainCall{Op: "raw", To: to}); err != nil {
		return nil, err
	}
	return f.receipt(), nil
}

func (f *fakeChain) GetDeployedAddress(ctx context.Context, txHash common.Hash) (common.Address, error) {
	return common.Address{}, domain.ErrNotFound
}

// fakeContracts resolves every name except those listed as missing
type fakeContracts struct {
	missing map[string]bool
}

func (f *fakeContracts) GetContract(ctx context.Context, name string) (*models.Contract, error) {
	if f.missing[name] {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, name)
	}
	return &models.Contract{Name: name}, nil
}

// recordingProgress keeps every event it receives
type recordingProgress struct {
	NopProgress
	events []ProgressEvent
}

func (r *recordingProgress) OnProgress(ctx context.Context, event ProgressEvent) {
	r.events = append(r.events, event)
}

func (r *recordingProgress) stages() []string {
	stages := make([]string, len(r.events))
	for i, e := range r.events {
		stages[i] = e.Stage
	}
	return stages
}

func (r *recordingProgress) count(stage string) int {
	n := 0
	for _, e := range r.events {
		if e.Stage == stage {
			n++
		}
	}
	return n
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kovan(cfg models.Configuration) *config.Network {
	return &config.Network{Name: "kovan", ChainID: 42, Config: cfg}
}

func step(name string, action models.ActionType, params models.Params, deps ...string) *models.DeploymentStep {
	return &models.DeploymentStep{Name: name, Action: action, Params: params, DependsOn: deps}
}

func newTestOrchestrator() (*DeploymentOrchestrator, *recordingProgress) {
	progress := &recordingProgress{}
	return NewDeploymentOrchestrator(&fakeContracts{}, progress, testLogger()), progress
}

func TestRunNetworkMismatch(t *testing.T) {
	tests := []struct {
		name   string
		filter models.NetworkFilter
	}{
		{name: "except", filter: models.NetworkFilter{Except: []string{"kovan"}}},
		{name: "only", filter: models.NetworkFilter{Only: []string{"mainnet"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orchestrator, progress := newTestOrchestrator()
			chain := newFakeChain()
			plan := &models.DeploymentPlan{
				Name:     "3_token",
				Networks: tt.filter,
				Steps: []*models.DeploymentStep{
					step("token", models.ActionDeploy, models.Params{"contract": "StandardERC223"}),
				},
			}

			artifacts, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

			require.NoError(t, err)
			assert.Empty(t, artifacts)
			assert.Empty(t, chain.calls)
			assert.Equal(t, []string{StagePlanSkipped}, progress.stages())
			info, ok := progress.events[0].Metadata.(*PlanSkippedInfo)
			require.True(t, ok)
			assert.Equal(t, "kovan", info.Network)
		})
	}
}

func TestRunInvalidPlan(t *testing.T) {
	tests := []struct {
		name string
		plan *models.DeploymentPlan
	}{
		{name: "nil plan", plan: nil},
		{name: "no steps", plan: &models.DeploymentPlan{Name: "empty"}},
		{
			name: "duplicate step names",
			plan: &models.DeploymentPlan{Name: "dup", Steps: []*models.DeploymentStep{
				step("a", models.ActionDeploy, models.Params{"contract": "A"}),
				step("a", models.ActionDeploy, models.Params{"contract": "B"}),
			}},
		},
		{
			name: "unknown action",
			plan: &models.DeploymentPlan{Name: "bad", Steps: []*models.DeploymentStep{
				step("a", "destroy", models.Params{}),
			}},
		},
		{
			name: "step name not referenceable",
			plan: &models.DeploymentPlan{Name: "bad", Steps: []*models.DeploymentStep{
				step("pet.base", models.ActionDeploy, models.Params{"contract": "PetBase"}),
			}},
		},
		{
			name: "missing required param",
			plan: &models.DeploymentPlan{Name: "bad", Steps: []*models.DeploymentStep{
				step("a", models.ActionUpgrade, models.Params{"proxy": "0x01"}),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orchestrator, _ := newTestOrchestrator()
			chain := newFakeChain()

			_, err := orchestrator.Run(context.Background(), tt.plan, kovan(nil), chain)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidPlan)
			assert.Empty(t, chain.calls)
		})
	}
}

func TestRunUnresolvedReference(t *testing.T) {
	t.Run("undefined config key stops before the chain call", func(t *testing.T) {
		orchestrator, progress := newTestOrchestrator()
		chain := newFakeChain()
		plan := &models.DeploymentPlan{Name: "11_pet_base", Steps: []*models.DeploymentStep{
			step("pet_base", models.ActionDeploy, models.Params{"contract": "PetBase"}),
			step("upgrade_pet_base", models.ActionUpgrade, models.Params{
				"proxy":          "${config.petBaseProxy_address}",
				"implementation": "${steps.pet_base}",
			}),
			step("never", models.ActionDeploy, models.Params{"contract": "Never"}),
		}}

		artifacts, err := orchestrator.Run(context.Background(), plan, kovan(models.Configuration{}), chain)

		require.Error(t, err)
		failed, ok := domain.FailedStep(err)
		require.True(t, ok)
		assert.Equal(t, "upgrade_pet_base", failed)

		var unresolved *domain.UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, domain.ReferenceConfig, unresolved.Kind)
		assert.Equal(t, "petBaseProxy_address", unresolved.Reference)

		require.Len(t, chain.calls, 1)
		assert.Len(t, artifacts, 1)
		assert.Equal(t, 1, progress.count(StageStepFailed))
		assert.Equal(t, 1, progress.count(StageStepCompleted))
	})

	t.Run("forward step reference", func(t *testing.T) {
		orchestrator, _ := newTestOrchestrator()
		chain := newFakeChain()
		plan := &models.DeploymentPlan{Name: "fwd", Steps: []*models.DeploymentStep{
			step("init", models.ActionCall, models.Params{
				"target": "${steps.proxy}",
				"method": "initializeContract()",
			}),
			step("proxy", models.ActionDeploy, models.Params{"contract": "OwnedUpgradeabilityProxy"}),
		}}

		_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

		var unresolved *domain.UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "init", unresolved.Step)
		assert.Equal(t, "step has not run yet", unresolved.Reason)
		assert.Empty(t, chain.calls)
	})

	t.Run("unknown step", func(t *testing.T) {
		orchestrator, _ := newTestOrchestrator()
		chain := newFakeChain()
		plan := &models.DeploymentPlan{Name: "unknown", Steps: []*models.DeploymentStep{
			step("token", models.ActionDeploy, models.Params{"contract": "Token", "args": []any{"${steps.ghost.address}"}}),
		}}

		_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

		var unresolved *domain.UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "ghost.address", unresolved.Reference)
		assert.Equal(t, "no such step in plan", unresolved.Reason)
		assert.Empty(t, chain.calls)
	})

	t.Run("depends_on a later step", func(t *testing.T) {
		orchestrator, _ := newTestOrchestrator()
		chain := newFakeChain()
		plan := &models.DeploymentPlan{Name: "deps", Steps: []*models.DeploymentStep{
			step("a", models.ActionDeploy, models.Params{"contract": "A"}, "b"),
			step("b", models.ActionDeploy, models.Params{"contract": "B"}),
		}}

		_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

		var unresolved *domain.UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "b", unresolved.Reference)
		assert.Empty(t, chain.calls)
	})

	t.Run("result of a step without one", func(t *testing.T) {
		orchestrator, _ := newTestOrchestrator()
		chain := newFakeChain()
		plan := &models.DeploymentPlan{Name: "result", Steps: []*models.DeploymentStep{
			step("token", models.ActionDeploy, models.Params{"contract": "Token"}),
			step("register", models.ActionRegister, models.Params{
				"registry": "0x00000000000000000000000000000000000000aa",
				"key":      "${steps.token.result}",
				"value":    "${steps.token}",
			}),
		}}

		_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

		var unresolved *domain.UnresolvedDependencyError
		require.ErrorAs(t, err, &unresolved)
		assert.Equal(t, "register", unresolved.Step)
		assert.Len(t, chain.calls, 1)
	})
}

func TestRunArtifactsInPlanOrder(t *testing.T) {
	orchestrator, progress := newTestOrchestrator()
	chain := newFakeChain()
	plan := &models.DeploymentPlan{Name: "2_ownership", Steps: []*models.DeploymentStep{
		step("ownership_proxy", models.ActionDeploy, models.Params{"contract": "OwnedUpgradeabilityProxy"}),
		step("ownership", models.ActionDeploy, models.Params{"contract": "ObjectOwnership"}),
		step("upgrade", models.ActionUpgrade, models.Params{
			"proxy":          "${steps.ownership_proxy}",
			"implementation": "${steps.ownership.address}",
		}),
		step("authority", models.ActionDeploy, models.Params{
			"contract": "ObjectOwnershipAuthority",
			"args":     []any{[]any{"${steps.ownership_proxy}"}},
		}),
	}}

	artifacts, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)
	require.NoError(t, err)

	require.Len(t, artifacts, 3)
	assert.Equal(t, "ownership_proxy", artifacts[0].Step)
	assert.Equal(t, "ownership", artifacts[1].Step)
	assert.Equal(t, "authority", artifacts[2].Step)
	assert.Equal(t, "ObjectOwnershipAuthority", artifacts[2].Contract)
	for _, a := range artifacts {
		assert.Equal(t, "kovan", a.Network)
		assert.Equal(t, uint64(42), a.ChainID)
		assert.Equal(t, "2_ownership", a.Plan)
		assert.NotEqual(t, common.Address{}, a.Address)
		assert.False(t, a.DeployedAt.IsZero())
	}
	assert.NotEqual(t, artifacts[0].Address, artifacts[1].Address)

	// authority constructor gets the proxy address inside a list
	authorityArgs := chain.calls[3].Args
	require.Len(t, authorityArgs, 1)
	assert.Equal(t, []any{artifacts[0].Address}, authorityArgs[0])

	assert.Equal(t, artifacts[1].Address, chain.implementations[artifacts[0].Address])
	assert.Equal(t, 4, progress.count(StageStepCompleted))
	assert.Equal(t, StagePlanCompleted, progress.stages()[len(progress.events)-1])
}

func TestRunUpgradeIdempotent(t *testing.T) {
	orchestrator, _ := newTestOrchestrator()
	chain := newFakeChain()
	proxy := "0x00000000000000000000000000000000000000b1"
	impl := "0x00000000000000000000000000000000000000c1"
	plan := &models.DeploymentPlan{Name: "upgrade", Steps: []*models.DeploymentStep{
		step("first", models.ActionUpgrade, models.Params{"proxy": proxy, "implementation": impl}),
		step("again", models.ActionUpgrade, models.Params{"proxy": proxy, "implementation": impl}),
	}}

	artifacts, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	_, err = orchestrator.Run(context.Background(), plan, kovan(nil), chain)
	require.NoError(t, err)

	assert.Len(t, chain.calls, 4)
	assert.Equal(t, common.HexToAddress(impl), chain.implementations[common.HexToAddress(proxy)])
	for _, c := range chain.calls {
		assert.Equal(t, models.DefaultUpgradeMethod, c.Signature)
	}
}

func TestRunFailFast(t *testing.T) {
	orchestrator, progress := newTestOrchestrator()
	chain := newFakeChain()
	chain.failOnCall = 3

	plan := &models.DeploymentPlan{Name: "five", Steps: []*models.DeploymentStep{
		step("step1", models.ActionDeploy, models.Params{"contract": "One"}),
		step("step2", models.ActionDeploy, models.Params{"contract": "Two"}),
		step("step3", models.ActionCall, models.Params{"target": "${steps.step1}", "method": "setAuthority(address)", "args": []any{"${steps.step2}"}}),
		step("step4", models.ActionDeploy, models.Params{"contract": "Four"}),
		step("step5", models.ActionDeploy, models.Params{"contract": "Five"}),
	}}

	artifacts, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

	require.Error(t, err)
	var depErr *domain.DeploymentError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "step3", depErr.Step)
	assert.ErrorIs(t, err, domain.ErrReverted)
	assert.Contains(t, err.Error(), "step3")

	assert.Len(t, chain.calls, 3)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "step2", artifacts[1].Step)
	assert.NotContains(t, progress.stages(), StagePlanCompleted)
	assert.Equal(t, 2, progress.count(StageStepCompleted))
}

func TestRunMissingContract(t *testing.T) {
	progress := &recordingProgress{}
	orchestrator := NewDeploymentOrchestrator(&fakeContracts{missing: map[string]bool{"Ghost": true}}, progress, testLogger())
	chain := newFakeChain()
	plan := &models.DeploymentPlan{Name: "ghost", Steps: []*models.DeploymentStep{
		step("ghost", models.ActionDeploy, models.Params{"contract": "Ghost"}),
	}}

	_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
	assert.Empty(t, chain.calls)
}

func TestRunTimeoutIsChainFailure(t *testing.T) {
	orchestrator, _ := newTestOrchestrator()
	chain := newFakeChain()
	chain.failOnCall = 1
	chain.failErr = domain.NewChainCallError("deploy", "Slow", context.DeadlineExceeded)

	plan := &models.DeploymentPlan{Name: "slow", Steps: []*models.DeploymentStep{
		step("slow", models.ActionDeploy, models.Params{"contract": "Slow"}),
	}}

	_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

	var callErr *domain.ChainCallError
	require.ErrorAs(t, err, &callErr)
	assert.True(t, callErr.Timeout)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunCancelledContext(t *testing.T) {
	orchestrator, _ := newTestOrchestrator()
	chain := newFakeChain()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := &models.DeploymentPlan{Name: "cancelled", Steps: []*models.DeploymentStep{
		step("a", models.ActionDeploy, models.Params{"contract": "A"}),
	}}

	_, err := orchestrator.Run(ctx, plan, kovan(nil), chain)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	failed, _ := domain.FailedStep(err)
	assert.Equal(t, "a", failed)
	assert.Empty(t, chain.calls)
}

func TestRunRegistryProxyScenario(t *testing.T) {
	orchestrator, progress := newTestOrchestrator()
	chain := newFakeChain()

	idKey := [32]byte{}
	copy(idKey[:], "CONTRACT_OBJECT_OWNERSHIP")
	chain.views["CONTRACT_OBJECT_OWNERSHIP()"] = []any{idKey}

	registry := common.HexToAddress("0xd8b7a3f6076872c2c37fb4d5cbfeb5bf45826ed7")
	settingIds := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	plan := &models.DeploymentPlan{
		Name:     "2_object_ownership",
		Networks: models.NetworkFilter{Only: []string{"kovan"}},
		Config: models.Configuration{
			"setting_ids_address": settingIds.Hex(),
		},
		Steps: []*models.DeploymentStep{
			step("ownership_proxy", models.ActionDeploy, models.Params{"contract": "OwnedUpgradeabilityProxy"}),
			step("ownership", models.ActionDeploy, models.Params{"contract": "ObjectOwnership"}),
			step("upgrade", models.ActionUpgrade, models.Params{
				"proxy":          "${steps.ownership_proxy}",
				"implementation": "${steps.ownership}",
			}, "ownership_proxy", "ownership"),
			step("initialize", models.ActionCall, models.Params{
				"target": "${steps.ownership_proxy}",
				"method": "initializeContract(address)",
				"args":   []any{"${config.registry_address}"},
			}),
			step("ownership_id", models.ActionCall, models.Params{
				"target":  "${config.setting_ids_address}",
				"method":  "CONTRACT_OBJECT_OWNERSHIP()",
				"returns": "bytes32",
				"view":    true,
			}),
			step("register", models.ActionRegister, models.Params{
				"registry": "${config.registry_address}",
				"key":      "${steps.ownership_id.result}",
				"value":    "${steps.ownership_proxy}",
			}),
			step("bid_waiting", models.ActionRegister, models.Params{
				"registry": "${config.registry_address}",
				"key":      "UINT_APOSTLE_BID_WAITING_TIME",
				"value":    "${config.bid_waiting_time}",
				"kind":     "uint",
			}),
		},
	}

	artifacts, err := orchestrator.Run(context.Background(), plan, kovan(models.Configuration{
		"registry_address": registry.Hex(),
		"bid_waiting_time": 1800,
	}), chain)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	proxy := artifacts[0].Address
	impl := artifacts[1].Address

	require.Len(t, chain.calls, 7)

	upgrade := chain.calls[2]
	assert.Equal(t, proxy, upgrade.To)
	assert.Equal(t, []any{impl}, upgrade.Args)

	initialize := chain.calls[3]
	assert.Equal(t, "send", initialize.Op)
	assert.Equal(t, proxy, initialize.To)
	assert.Equal(t, "initializeContract(address)", initialize.Signature)
	assert.Equal(t, []any{registry.Hex()}, initialize.Args)

	read := chain.calls[4]
	assert.Equal(t, "view", read.Op)
	assert.Equal(t, settingIds, read.To)

	register := chain.calls[5]
	assert.Equal(t, registry, register.To)
	assert.Equal(t, "setAddressProperty(bytes32,address)", register.Signature)
	assert.Equal(t, []any{idKey, proxy}, register.Args)

	uintRegister := chain.calls[6]
	assert.Equal(t, "setUintProperty(bytes32,uint256)", uintRegister.Signature)
	assert.Equal(t, []any{"UINT_APOSTLE_BID_WAITING_TIME", 1800}, uintRegister.Args)

	assert.Equal(t, impl, chain.implementations[proxy])

	// the view result is surfaced in the step_completed event
	var readEvent *ProgressEvent
	for i, e := range progress.events {
		if e.Stage == StageStepCompleted && e.Current == 5 {
			readEvent = &progress.events[i]
		}
	}
	require.NotNil(t, readEvent)
	assert.Equal(t, common.Hash(idKey).Hex(), readEvent.Message)
}

func TestRunPlanConfigOverridesNetwork(t *testing.T) {
	orchestrator, _ := newTestOrchestrator()
	chain := newFakeChain()
	plan := &models.DeploymentPlan{
		Name:   "override",
		Config: models.Configuration{"target": "0x00000000000000000000000000000000000000f2"},
		Steps: []*models.DeploymentStep{
			step("poke", models.ActionCall, models.Params{"target": "${config.target}", "method": "poke()"}),
		},
	}

	_, err := orchestrator.Run(context.Background(), plan, kovan(models.Configuration{
		"target": "0x00000000000000000000000000000000000000f1",
	}), chain)
	require.NoError(t, err)

	require.Len(t, chain.calls, 1)
	assert.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000f2"), chain.calls[0].To)
}

func TestRunInvalidAddress(t *testing.T) {
	orchestrator, _ := newTestOrchestrator()
	chain := newFakeChain()
	plan := &models.DeploymentPlan{Name: "bad", Steps: []*models.DeploymentStep{
		step("poke", models.ActionCall, models.Params{"target": "not-an-address", "method": "poke()"}),
	}}

	_, err := orchestrator.Run(context.Background(), plan, kovan(nil), chain)

	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	assert.Empty(t, chain.calls)
}
