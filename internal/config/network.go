package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// NetworkResolver resolves network names to configurations from catapult.toml
type NetworkResolver struct {
	project *config.ProjectConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(project *config.ProjectConfig) *NetworkResolver {
	return &NetworkResolver{project: project}
}

// Names returns the configured network names, sorted
func (r *NetworkResolver) Names() []string {
	names := lo.Keys(r.project.Networks)
	sort.Strings(names)
	return names
}

// Resolve resolves a network name to its configuration
func (r *NetworkResolver) Resolve(networkName string) (*config.Network, error) {
	raw, ok := r.project.Networks[networkName]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' not found in %s [networks]", domain.ErrNetworkNotConfigured, networkName, ProjectFile)
	}

	if raw.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url (e.g. rpc_url = \"${%s}\")", networkName, GenerateEnvVarName(networkName))
	}

	rpcURL, missing := expandValue(raw.RPCURL)
	if missing != "" {
		return nil, fmt.Errorf("rpc_url for network '%s' references unset environment variable %s", networkName, missing)
	}

	privateKey, missing := expandValue(raw.PrivateKey)
	if missing != "" {
		return nil, fmt.Errorf("private_key for network '%s' references unset environment variable %s", networkName, missing)
	}

	confirmTimeout := config.DefaultConfirmTimeout
	if raw.ConfirmTimeout != "" {
		d, err := time.ParseDuration(raw.ConfirmTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid confirm_timeout for network '%s': %w", networkName, err)
		}
		confirmTimeout = d
	}

	return &config.Network{
		Name:           networkName,
		RPCURL:         rpcURL,
		ChainID:        raw.ChainID,
		PrivateKey:     privateKey,
		ConfirmTimeout: confirmTimeout,
		Confirm:        raw.Confirm,
		Config:         models.Configuration(expandConfig(raw.Config)),
	}, nil
}
