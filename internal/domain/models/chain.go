package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// Receipt is the confirmed result of a transaction
type Receipt struct {
	TxHash          common.Hash    `json:"txHash"`
	ContractAddress common.Address `json:"contractAddress,omitempty"`
	BlockNumber     uint64         `json:"blockNumber"`
	GasUsed         uint64         `json:"gasUsed"`
}

// DeployRequest asks the chain client to create a contract
type DeployRequest struct {
	Contract *Contract
	Args     []any
}

// MethodCall describes a call to a named method on a contract.
// Signature is human-readable, e.g. "initializeContract(address,uint256)".
// Returns is the comma separated list of return types for read calls.
type MethodCall struct {
	To            common.Address
	Signature     string
	Returns       string
	Args          []any
	StateChanging bool
}

// CallResult holds either the receipt of a state-changing call or the
// decoded values of a read-only call
type CallResult struct {
	Receipt *Receipt
	Values  []any
}

// Value returns the first decoded return value
func (r *CallResult) Value() (any, bool) {
	if r == nil || len(r.Values) == 0 {
		return nil, false
	}
	return r.Values[0], true
}
