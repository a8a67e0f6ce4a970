package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	abicodec "github.com/trebuchet-org/catapult/internal/adapters/abi"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// Backend is the part of an RPC client the chain client needs.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client signs and broadcasts transactions with a single deployer key and
// waits for each of them to be mined
type Client struct {
	backend        Backend
	codec          *abicodec.MethodCodec
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
	log            *slog.Logger

	// closeBackend releases the RPC connection the client was built on
	closeBackend func()
}

// NewClient verifies the backend serves the network's chain and prepares the signer
func NewClient(
	ctx context.Context,
	backend Backend,
	network *config.Network,
	codec *abicodec.MethodCodec,
	log *slog.Logger,
) (*Client, error) {
	networkChainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	// A chain_id of 0 accepts whatever the node reports
	if network.ChainID != 0 && networkChainID.Uint64() != network.ChainID {
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", network.ChainID, networkChainID.Uint64())
	}

	if network.PrivateKey == "" {
		return nil, fmt.Errorf("network %s has no private_key configured", network.Name)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(network.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private_key for network %s: %w", network.Name, err)
	}

	timeout := network.ConfirmTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfirmTimeout
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	log.Debug("chain client ready", "network", network.Name, "chainId", networkChainID, "from", from.Hex())

	return &Client{
		backend:        backend,
		codec:          codec,
		key:            key,
		from:           from,
		chainID:        networkChainID,
		confirmTimeout: timeout,
		log:            log,
	}, nil
}

// Close releases the underlying RPC connection, if the client owns one
func (c *Client) Close() error {
	if c.closeBackend != nil {
		c.closeBackend()
		c.closeBackend = nil
	}
	return nil
}

// From returns the deployer address
func (c *Client) From() common.Address {
	return c.from
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// DeployContract creates req.Contract and waits for the creation receipt
func (c *Client) DeployContract(ctx context.Context, req models.DeployRequest) (*models.Receipt, error) {
	code, err := abicodec.EncodeDeployment(req.Contract, req.Args)
	if err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}

	// Constructor args are already packed into code
	_, tx, _, err := bind.DeployContract(opts, abi.ABI{}, code, c.backend)
	if err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}
	c.log.Debug("deployment sent", "contract", req.Contract.Name, "tx", tx.Hash().Hex())

	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return nil, domain.NewChainCallError("deploy", req.Contract.Name, err)
	}
	return receipt, nil
}

// CallMethod sends a transaction for state-changing calls and performs an
// eth_call otherwise
func (c *Client) CallMethod(ctx context.Context, call models.MethodCall) (*models.CallResult, error) {
	target := fmt.Sprintf("%s on %s", call.Signature, call.To.Hex())

	data, fn, err := c.codec.EncodeCall(call)
	if err != nil {
		return nil, domain.NewChainCallError("call", target, err)
	}

	if call.StateChanging {
		receipt, err := c.send(ctx, call.To, data)
		if err != nil {
			return nil, domain.NewChainCallError("call", target, err)
		}
		return &models.CallResult{Receipt: receipt}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	to := call.To
	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, domain.NewChainCallError("call", target, err)
	}

	values, err := c.codec.DecodeReturns(fn, output)
	if err != nil {
		return nil, domain.NewChainCallError("call", target, err)
	}
	return &models.CallResult{Values: values}, nil
}

// SendTransaction sends raw calldata to an address
func (c *Client) SendTransaction(ctx context.Context, to common.Address, data []byte) (*models.Receipt, error) {
	receipt, err := c.send(ctx, to, data)
	if err != nil {
		return nil, domain.NewChainCallError("send", to.Hex(), err)
	}
	return receipt, nil
}

func (c *Client) send(ctx context.Context, to common.Address, data []byte) (*models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(to, abi.ABI{}, c.backend, c.backend, c.backend)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, err
	}
	c.log.Debug("transaction sent", "to", to.Hex(), "tx", tx.Hash().Hex())

	return c.waitMined(ctx, tx)
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*models.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: %s", domain.ErrReverted, tx.Hash().Hex())
	}
	return toReceipt(receipt), nil
}

// GetDeployedAddress reads the created contract address from a mined receipt
func (c *Client) GetDeployedAddress(ctx context.Context, txHash common.Hash) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			err = fmt.Errorf("receipt %w", domain.ErrNotFound)
		}
		return common.Address{}, domain.NewChainCallError("receipt", txHash.Hex(), err)
	}
	if receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, domain.NewChainCallError("receipt", txHash.Hex(),
			fmt.Errorf("transaction did not create a contract"))
	}
	return receipt.ContractAddress, nil
}

func toReceipt(r *types.Receipt) *models.Receipt {
	receipt := &models.Receipt{
		TxHash:          r.TxHash,
		ContractAddress: r.ContractAddress,
		GasUsed:         r.GasUsed,
	}
	if r.BlockNumber != nil {
		receipt.BlockNumber = r.BlockNumber.Uint64()
	}
	return receipt
}

var _ usecase.ChainClient = (*Client)(nil)
