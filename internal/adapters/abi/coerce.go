package abi

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// CoerceArgs converts plan values into the Go types go-ethereum packs for args
func CoerceArgs(args abi.Arguments, values []any) ([]any, error) {
	if len(args) != len(values) {
		return nil, fmt.Errorf("expected %d argument(s), got %d", len(args), len(values))
	}

	out := make([]any, len(values))
	for i, arg := range args {
		v, err := Coerce(arg.Type, values[i])
		if err != nil {
			name := arg.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, arg.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// Coerce converts a single value to the Go representation of t
func Coerce(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.UintTy, abi.IntTy:
		n, err := ToBigInt(v)
		if err != nil {
			return nil, err
		}
		return fitInteger(t, n)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.BytesTy:
		return toBytes(v)
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch val := v.(type) {
	case common.Address:
		return val, nil
	case [20]byte:
		return common.Address(val), nil
	case string:
		s := strings.TrimSpace(val)
		if common.IsHexAddress(s) {
			return common.HexToAddress(s), nil
		}
		return common.Address{}, fmt.Errorf("%w: '%s'", domain.ErrInvalidAddress, val)
	default:
		return common.Address{}, fmt.Errorf("%w: value of type %T", domain.ErrInvalidAddress, v)
	}
}

// ToBigInt parses integers written as plan literals: native numbers, decimal
// or 0x-hex strings and exponent notation such as "500e18"
func ToBigInt(v any) (*big.Int, error) {
	switch val := v.(type) {
	case *big.Int:
		if val == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(val), nil
	case big.Int:
		return new(big.Int).Set(&val), nil
	case int:
		return big.NewInt(int64(val)), nil
	case int8:
		return big.NewInt(int64(val)), nil
	case int16:
		return big.NewInt(int64(val)), nil
	case int32:
		return big.NewInt(int64(val)), nil
	case int64:
		return big.NewInt(val), nil
	case uint:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint64:
		return new(big.Int).SetUint64(val), nil
	case float64:
		if math.Abs(val) > 1<<53 {
			return nil, fmt.Errorf("%v exceeds float precision, quote large integers", val)
		}
		f := new(big.Float).SetFloat64(val)
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", val)
		}
		n, _ := f.Int(nil)
		return n, nil
	case string:
		return parseIntegerString(val)
	default:
		return nil, fmt.Errorf("cannot use %T as an integer", v)
	}
}

func parseIntegerString(raw string) (*big.Int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if s == "" {
		return nil, fmt.Errorf("empty integer")
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex integer '%s'", raw)
		}
		return n, nil
	}

	mantissa, exponent := s, 0
	if idx := strings.IndexAny(s, "eE"); idx != -1 {
		e, err := strconv.Atoi(s[idx+1:])
		if err != nil || e < 0 {
			return nil, fmt.Errorf("invalid exponent in '%s'", raw)
		}
		mantissa, exponent = s[:idx], e
	}

	if dot := strings.IndexByte(mantissa, '.'); dot != -1 {
		frac := strings.TrimRight(mantissa[dot+1:], "0")
		if len(frac) > exponent {
			return nil, fmt.Errorf("'%s' is not an integer", raw)
		}
		mantissa = mantissa[:dot] + frac
		exponent -= len(frac)
	}

	n, ok := new(big.Int).SetString(mantissa, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer '%s'", raw)
	}
	if exponent > 0 {
		n.Mul(n, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exponent)), nil))
	}
	return n, nil
}

// fitInteger range-checks n against t and converts it to t's Go type
func fitInteger(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for %s", n, t.String())
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows %s", n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		lower := new(big.Int).Neg(limit)
		if n.Cmp(lower) < 0 || n.Cmp(limit) >= 0 {
			return nil, fmt.Errorf("value %s overflows %s", n, t.String())
		}
	}

	typ := t.GetType()
	if typ == bigIntType {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(typ).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(typ).Interface(), nil
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("invalid bool '%s'", val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("cannot use %T as a bool", v)
	}
}

// toFixedBytes builds a bytesN value. Plain strings are right-padded the way
// Solidity converts a string literal to bytes32.
func toFixedBytes(t abi.Type, v any) (any, error) {
	var b []byte
	switch val := v.(type) {
	case [32]byte:
		b = val[:]
	case common.Hash:
		b = val.Bytes()
	case []byte:
		b = val
	case string:
		if strings.HasPrefix(val, "0x") || strings.HasPrefix(val, "0X") {
			decoded, err := hex.DecodeString(val[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex '%s': %w", val, err)
			}
			b = decoded
		} else {
			b = []byte(val)
		}
	default:
		return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
	}

	if len(b) > t.Size {
		return nil, fmt.Errorf("%d bytes do not fit in %s", len(b), t.String())
	}

	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

func toBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		if strings.HasPrefix(val, "0x") || strings.HasPrefix(val, "0X") {
			decoded, err := hex.DecodeString(val[2:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex '%s': %w", val, err)
			}
			return decoded, nil
		}
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("cannot use %T as bytes", v)
	}
}

func toList(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected a list for %s, got %T", t.String(), v)
	}

	n := rv.Len()
	typ := t.GetType()

	var out reflect.Value
	if t.T == abi.ArrayTy {
		if n != t.Size {
			return nil, fmt.Errorf("expected %d elements for %s, got %d", t.Size, t.String(), n)
		}
		out = reflect.New(typ).Elem()
	} else {
		out = reflect.MakeSlice(typ, n, n)
	}

	for i := 0; i < n; i++ {
		elem, err := Coerce(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}
