package transport

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrArgumentType 参数无法转换为 ABI 声明的类型
var ErrArgumentType = errors.New("argument type mismatch")

// ArgumentError 单个参数转换失败
type ArgumentError struct {
	Index int
	Type  string
	Cause error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d (%s): %v", e.Index, e.Type, e.Cause)
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// CoerceArgs 按 ABI 输入声明转换参数
//
// 调用方可以传字符串形式的地址、整数和十六进制字节，这里统一换成
// go-ethereum 打包所需的 Go 类型：
//   - address → common.Address
//   - uint/int（>64 位）→ *big.Int，（≤64 位）→ 对应定宽整数
//   - bytes → []byte，bytesN → [N]byte
//   - bool → bool（也接受 "true"/"false"）
//
// 其余类型原样透传，由 go-ethereum 在打包时校验。
func CoerceArgs(inputs ethabi.Arguments, args []interface{}) ([]interface{}, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", ErrArgumentType, len(inputs), len(args))
	}

	out := make([]interface{}, len(args))
	for i, in := range inputs {
		v, err := coerce(in.Type, args[i])
		if err != nil {
			return nil, &ArgumentError{Index: i, Type: in.Type.String(), Cause: err}
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t ethabi.Type, v interface{}) (interface{}, error) {
	switch t.T {
	case ethabi.AddressTy:
		return toAddress(v)
	case ethabi.UintTy, ethabi.IntTy:
		return toInteger(t, v)
	case ethabi.BoolTy:
		return toBool(v)
	case ethabi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("%w: want string, got %T", ErrArgumentType, v)
	case ethabi.BytesTy:
		return toBytes(v)
	case ethabi.FixedBytesTy:
		return toFixedBytes(t, v)
	default:
		return v, nil
	}
}

func toAddress(v interface{}) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a == nil {
			return common.Address{}, fmt.Errorf("%w: nil address", ErrArgumentType)
		}
		return *a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrArgumentType, a)
		}
		return common.HexToAddress(a), nil
	default:
		return common.Address{}, fmt.Errorf("%w: want address, got %T", ErrArgumentType, v)
	}
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrArgumentType)
		}
		return n, nil
	case string:
		s := strings.TrimSpace(n)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
		out, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrArgumentType, n)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	default:
		return nil, fmt.Errorf("%w: want integer, got %T", ErrArgumentType, v)
	}
}

func toInteger(t ethabi.Type, v interface{}) (interface{}, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}
	if t.T == ethabi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value for %s", ErrArgumentType, t.String())
	}
	if !fitsInteger(t, n) {
		return nil, fmt.Errorf("%w: %s overflows %s", ErrArgumentType, n, t.String())
	}

	target := t.GetType()
	if target == reflect.TypeOf((*big.Int)(nil)) {
		return new(big.Int).Set(n), nil
	}

	out := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.SetUint(n.Uint64())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(n.Int64())
	default:
		return nil, fmt.Errorf("%w: unsupported integer type %s", ErrArgumentType, target)
	}
	return out.Interface(), nil
}

// fitsInteger uintN 取 [0, 2^N)，intN 取补码范围 [-2^(N-1), 2^(N-1))
func fitsInteger(t ethabi.Type, n *big.Int) bool {
	if t.T == ethabi.UintTy {
		return n.BitLen() <= t.Size
	}
	bound := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Sign() < 0 {
		return n.Cmp(new(big.Int).Neg(bound)) >= 0
	}
	return n.Cmp(bound) < 0
}

func toBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: want bool, got %v", ErrArgumentType, v)
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		out, err := hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArgumentType, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: want bytes, got %T", ErrArgumentType, v)
	}
}

func toFixedBytes(t ethabi.Type, v interface{}) (interface{}, error) {
	target := t.GetType()
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Type() == target {
		return v, nil
	}

	raw, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	if len(raw) > t.Size {
		return nil, fmt.Errorf("%w: %d bytes do not fit %s", ErrArgumentType, len(raw), t.String())
	}

	out := reflect.New(target).Elem()
	reflect.Copy(out, reflect.ValueOf(raw))
	return out.Interface(), nil
}
