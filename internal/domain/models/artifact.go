package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeployedArtifact is the immutable record of a successful deploy step
type DeployedArtifact struct {
	Step        string         `json:"step"`
	Plan        string         `json:"plan,omitempty"`
	Contract    string         `json:"contract"`
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
	Network     string         `json:"network"`
	ChainID     uint64         `json:"chainId,omitempty"`
	DeployedAt  time.Time      `json:"deployedAt"`
}

// StepOutcome is what a completed step produced
type StepOutcome struct {
	Step     *DeploymentStep
	Index    int
	Total    int
	Artifact *DeployedArtifact
	Receipt  *Receipt
	Result   any
	// HasResult is set for read-only calls that returned at least one value
	HasResult bool
}

// Address returns the address the step produced or acted on
func (o *StepOutcome) Address() (common.Address, bool) {
	if o.Artifact != nil {
		return o.Artifact.Address, true
	}
	return common.Address{}, false
}
