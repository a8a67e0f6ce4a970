package config

import (
	"time"

	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Command-specific settings (only populated for relevant commands)
	DryRun      bool
	AutoConfirm bool

	// Resolved paths
	PlansDir     string
	ArtifactsDir string

	// Config source tracking
	ConfigSource string

	Project *ProjectConfig
}

// ProjectConfig is the decoded catapult.toml
type ProjectConfig struct {
	PlansDir     string                   `toml:"plans_dir"`
	ArtifactsDir string                   `toml:"artifacts_dir"`
	Networks     map[string]NetworkConfig `toml:"networks"`
}

// NetworkConfig is a [networks.<name>] table before resolution
type NetworkConfig struct {
	RPCURL         string         `toml:"rpc_url"`
	ChainID        uint64         `toml:"chain_id"`
	PrivateKey     string         `toml:"private_key"`
	ConfirmTimeout string         `toml:"confirm_timeout"`
	Confirm        bool           `toml:"confirm"`
	Config         map[string]any `toml:"config"`
}

// Network represents a resolved network
type Network struct {
	Name           string               `json:"name"`
	RPCURL         string               `json:"rpcUrl"`
	ChainID        uint64               `json:"chainId"`
	PrivateKey     string               `json:"-"`
	ConfirmTimeout time.Duration        `json:"confirmTimeout"`
	Confirm        bool                 `json:"confirm"`
	Config         models.Configuration `json:"config,omitempty"`
}

// DefaultConfirmTimeout bounds how long a single transaction may wait for inclusion
const DefaultConfirmTimeout = 10 * time.Minute
