package blockchain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/sling/internal/domain"
)

// EncodeConstructorArgs coerces string arguments to the constructor's input
// types and ABI-encodes them. Arrays are given as JSON, e.g. ["0x01","0x02"].
func EncodeConstructorArgs(contractABI abi.ABI, args []string) ([]byte, error) {
	inputs := contractABI.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: constructor takes %d argument(s), got %d", domain.ErrInvalidConstructorArgs, len(inputs), len(args))
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	values := make([]interface{}, len(inputs))
	for i, input := range inputs {
		v, err := coerce(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("%w: argument %s (%s): %v", domain.ErrInvalidConstructorArgs, name, input.Type.String(), err)
		}
		values[i] = v
	}

	encoded, err := inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConstructorArgs, err)
	}
	return encoded, nil
}

func coerce(t abi.Type, raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)

	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%q is not an address", raw)
		}
		return common.HexToAddress(raw), nil

	case abi.BoolTy:
		return strconv.ParseBool(raw)

	case abi.StringTy:
		return raw, nil

	case abi.IntTy, abi.UintTy:
		return coerceInteger(t, raw)

	case abi.BytesTy:
		return hexutil.Decode(raw)

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		return coerceList(t, raw)
	}

	return nil, fmt.Errorf("type %s is not supported on the command line", t.String())
}

func coerceInteger(t abi.Type, raw string) (interface{}, error) {
	n, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", raw)
	}

	// abi.Pack wants the exact Go type for sizes that have one
	switch t.GetType().Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !n.IsUint64() || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s overflows %s", raw, t.String())
		}
		return reflect.ValueOf(n.Uint64()).Convert(t.GetType()).Interface(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !n.IsInt64() || n.BitLen() >= t.Size {
			return nil, fmt.Errorf("%s overflows %s", raw, t.String())
		}
		return reflect.ValueOf(n.Int64()).Convert(t.GetType()).Interface(), nil
	}

	limit := t.Size
	if t.T == abi.IntTy {
		limit--
	}
	if n.BitLen() > limit {
		return nil, fmt.Errorf("%s overflows %s", raw, t.String())
	}
	return n, nil
}

func coerceList(t abi.Type, raw string) (interface{}, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %v", err)
	}
	if t.T == abi.ArrayTy && len(items) != t.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}

	for i, item := range items {
		elem := string(item)
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			elem = s
		}
		v, err := coerce(*t.Elem, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %v", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}
