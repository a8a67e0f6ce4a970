package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	abicodec "github.com/trebuchet-org/catapult/internal/adapters/abi"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// DryRunDeployer is the sender the memory chain pretends to sign with
var DryRunDeployer = common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")

// MemoryChain simulates a network without any RPC access. Addresses are
// derived from the deployer nonce like a real chain would, arguments are
// encoded to catch type errors and reads return zero values.
type MemoryChain struct {
	mu              sync.Mutex
	codec           *abicodec.MethodCodec
	from            common.Address
	nonce           uint64
	block           uint64
	created         map[common.Hash]common.Address
	implementations map[common.Address]common.Address
	log             *slog.Logger
}

// NewMemoryChain creates an empty in-memory chain
func NewMemoryChain(codec *abicodec.MethodCodec, log *slog.Logger) *MemoryChain {
	return &MemoryChain{
		codec:           codec,
		from:            DryRunDeployer,
		created:         make(map[common.Hash]common.Address),
		implementations: make(map[common.Address]common.Address),
		log:             log,
	}
}

func (m *MemoryChain) mine(to *common.Address, data []byte) *models.Receipt {
	m.block++
	hash := crypto.Keccak256Hash(m.from.Bytes(), new(big.Int).SetUint64(m.nonce).Bytes(), data)

	receipt := &models.Receipt{TxHash: hash, BlockNumber: m.block}
	if to == nil {
		receipt.ContractAddress = crypto.CreateAddress(m.from, m.nonce)
		m.created[hash] = receipt.ContractAddress
	}
	m.nonce++
	return receipt
}

// DeployContract encodes the deployment and assigns the next CREATE address
func (m *MemoryChain) DeployContract(ctx context.Context, req models.DeployRequest) (*models.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}

	code, err := abicodec.EncodeDeployment(req.Contract, req.Args)
	if err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	receipt := m.mine(nil, code)
	m.log.Debug("dry-run deploy", "contract", req.Contract.Name, "address", receipt.ContractAddress.Hex())
	return receipt, nil
}

// CallMethod encodes the call. Upgrades are remembered so Implementation can
// answer for the proxy.
func (m *MemoryChain) CallMethod(ctx context.Context, call models.MethodCall) (*models.CallResult, error) {
	target := fmt.Sprintf("%s on %s", call.Signature, call.To.Hex())
	if err := ctx.Err(); err != nil {
		return nil, domain.NewChainCallError("call", target, err)
	}

	data, fn, err := m.codec.EncodeCall(call)
	if err != nil {
		return nil, domain.NewChainCallError("call", target, err)
	}

	if !call.StateChanging {
		return &models.CallResult{Values: abicodec.ZeroReturns(fn)}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if call.Signature == models.DefaultUpgradeMethod && len(call.Args) == 1 {
		if impl, ok := call.Args[0].(common.Address); ok {
			m.implementations[call.To] = impl
		}
	}

	to := call.To
	return &models.CallResult{Receipt: m.mine(&to, data)}, nil
}

// SendTransaction records a raw transaction
func (m *MemoryChain) SendTransaction(ctx context.Context, to common.Address, data []byte) (*models.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewChainCallError("send", to.Hex(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mine(&to, data), nil
}

// GetDeployedAddress returns the address created by txHash
func (m *MemoryChain) GetDeployedAddress(ctx context.Context, txHash common.Hash) (common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr, ok := m.created[txHash]
	if !ok {
		return common.Address{}, domain.NewChainCallError("receipt", txHash.Hex(), domain.ErrNotFound)
	}
	return addr, nil
}

// Implementation returns the implementation last set on proxy with upgradeTo
func (m *MemoryChain) Implementation(proxy common.Address) (common.Address, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	impl, ok := m.implementations[proxy]
	return impl, ok
}

var _ usecase.ChainClient = (*MemoryChain)(nil)
