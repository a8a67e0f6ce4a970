package models

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract is a compiled contract ready to be deployed
type Contract struct {
	Name         string
	ArtifactPath string
	ABI          *abi.ABI
	Bytecode     []byte
}

// HasConstructorInputs reports whether deploying needs constructor args
func (c *Contract) HasConstructorInputs() bool {
	return c.ABI != nil && len(c.ABI.Constructor.Inputs) > 0
}

// BytecodeObject represents bytecode information in a Foundry artifact
type BytecodeObject struct {
	Object string `json:"object"`
}

// ArtifactFile is the on-disk JSON artifact. Truffle writes bytecode as a hex
// string; Foundry writes an object with the hex under "object".
type ArtifactFile struct {
	ContractName string          `json:"contractName,omitempty"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// BytecodeHex extracts the creation bytecode hex from either artifact format
func (a *ArtifactFile) BytecodeHex() (string, error) {
	if len(a.Bytecode) == 0 {
		return "", nil
	}

	var hex string
	if err := json.Unmarshal(a.Bytecode, &hex); err == nil {
		return hex, nil
	}

	var obj BytecodeObject
	if err := json.Unmarshal(a.Bytecode, &obj); err != nil {
		return "", err
	}
	return obj.Object, nil
}
