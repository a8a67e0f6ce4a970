package abi

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/lmittmann/w3"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// MethodCodec encodes calls from human-readable signatures such as
// "setAddressProperty(bytes32,address)" and decodes their return data.
// Parsed functions are cached by signature.
type MethodCodec struct {
	mu    sync.Mutex
	funcs map[string]*w3.Func
}

// NewMethodCodec creates a new codec
func NewMethodCodec() *MethodCodec {
	return &MethodCodec{funcs: make(map[string]*w3.Func)}
}

// Func returns the parsed function for signature and returns
func (c *MethodCodec) Func(signature, returns string) (*w3.Func, error) {
	key := signature + "|" + returns

	c.mu.Lock()
	defer c.mu.Unlock()

	if fn, ok := c.funcs[key]; ok {
		return fn, nil
	}

	fn, err := w3.NewFunc(signature, returns)
	if err != nil {
		return nil, fmt.Errorf("invalid method signature '%s': %w", signature, err)
	}
	c.funcs[key] = fn
	return fn, nil
}

// EncodeCall coerces the call arguments and returns the calldata together
// with the parsed function
func (c *MethodCodec) EncodeCall(call models.MethodCall) ([]byte, *w3.Func, error) {
	fn, err := c.Func(call.Signature, call.Returns)
	if err != nil {
		return nil, nil, err
	}

	args, err := CoerceArgs(fn.Args, call.Args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", call.Signature, err)
	}

	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s: %w", call.Signature, err)
	}
	return data, fn, nil
}

// DecodeReturns unpacks the output of a read-only call
func (c *MethodCodec) DecodeReturns(fn *w3.Func, output []byte) ([]any, error) {
	if len(fn.Returns) == 0 {
		return nil, nil
	}
	values, err := fn.Returns.Unpack(output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return values, nil
}

// ZeroReturns returns the zero value of every return type of fn
func ZeroReturns(fn *w3.Func) []any {
	values := make([]any, len(fn.Returns))
	for i, ret := range fn.Returns {
		values[i] = zeroValue(ret.Type)
	}
	return values
}

func zeroValue(t abi.Type) any {
	typ := t.GetType()
	if typ == bigIntType {
		return new(big.Int)
	}
	return reflect.Zero(typ).Interface()
}

// EncodeDeployment appends the ABI-encoded constructor args to the creation bytecode
func EncodeDeployment(contract *models.Contract, args []any) ([]byte, error) {
	if len(contract.Bytecode) == 0 {
		return nil, fmt.Errorf("contract %s has no bytecode (abstract or interface?)", contract.Name)
	}

	code := make([]byte, len(contract.Bytecode))
	copy(code, contract.Bytecode)

	if contract.ABI == nil || len(contract.ABI.Constructor.Inputs) == 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("contract %s takes no constructor arguments, got %d", contract.Name, len(args))
		}
		return code, nil
	}

	coerced, err := CoerceArgs(contract.ABI.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", contract.Name, err)
	}

	packed, err := contract.ABI.Pack("", coerced...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor of %s: %w", contract.Name, err)
	}
	return append(code, packed...), nil
}
