package config

import (
	"context"

	"github.com/trebuchet-org/catapult/internal/config"
	domainconfig "github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworkResolverAdapter adapts the config.NetworkResolver to the usecase.NetworkResolver interface
type NetworkResolverAdapter struct {
	resolver *config.NetworkResolver
}

// NewNetworkResolverAdapter creates a resolver over the networks of catapult.toml
func NewNetworkResolverAdapter(cfg *domainconfig.RuntimeConfig) *NetworkResolverAdapter {
	return &NetworkResolverAdapter{
		resolver: config.NewNetworkResolver(cfg.Project),
	}
}

// GetNetworks returns all configured network names
func (a *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return a.resolver.Names()
}

// ResolveNetwork resolves a network name to its configuration
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.Network, error) {
	return a.resolver.Resolve(networkName)
}

var _ usecase.NetworkResolver = (*NetworkResolverAdapter)(nil)
