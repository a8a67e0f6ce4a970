package blockchain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethclient"
	abicodec "github.com/trebuchet-org/catapult/internal/adapters/abi"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// Connector opens chain clients for resolved networks
type Connector struct {
	codec *abicodec.MethodCodec
	log   *slog.Logger
}

// NewConnector creates a new connector
func NewConnector(codec *abicodec.MethodCodec, log *slog.Logger) *Connector {
	return &Connector{codec: codec, log: log.With("component", "chain")}
}

// Connect returns a MemoryChain for dry runs and an RPC-backed Client otherwise
func (c *Connector) Connect(ctx context.Context, network *config.Network, dryRun bool) (usecase.ChainClient, error) {
	if network == nil {
		return nil, domain.ErrNetworkNotConfigured
	}

	if dryRun {
		c.log.Debug("using in-memory chain", "network", network.Name)
		return NewMemoryChain(c.codec, c.log), nil
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC for %s: %w", network.Name, err)
	}

	chain, err := NewClient(ctx, client, network, c.codec, c.log)
	if err != nil {
		client.Close()
		return nil, err
	}
	chain.closeBackend = client.Close
	return chain, nil
}

var _ usecase.ChainConnector = (*Connector)(nil)
