// Package units provides token amount conversion between display strings and base units.
//
// 金额在链上以最小单位的整数表示，对外展示时按合约 decimals 换算：
//   - "2.5" + 18 位精度 → 2500000000000000000
//   - 2500000000000000000 + 18 位精度 → "2.5"
//
// 全部计算使用 *big.Int，不经过浮点数。
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidAmount 无效的金额字符串
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnsupportedValue 无法转换为整数的返回值
	ErrUnsupportedValue = errors.New("unsupported numeric value")
)

// InvalidAmountError 金额字符串解析失败
type InvalidAmountError struct {
	Input  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// Unwrap 返回 ErrInvalidAmount，便于 errors.Is 匹配
func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

func invalid(input, reason string) error {
	return &InvalidAmountError{Input: input, Reason: reason}
}

// pow10 返回 10^decimals
func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ParseUnits 将十进制展示字符串换算为最小单位
//
// 规则：
//   - 只接受非负十进制数（数字与至多一个小数点）
//   - 超出精度的小数位向零截断："1.239" + 2 位 → 123
//   - 空串、负号、科学计数法、多余字符均返回 *InvalidAmountError
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	input := s
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid(input, "empty string")
	}
	if strings.HasPrefix(s, "-") {
		return nil, invalid(input, "negative amount")
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, invalid(input, "multiple decimal points")
	}
	if whole == "" && frac == "" {
		return nil, invalid(input, "no digits")
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, invalid(input, "not a decimal number")
	}

	// 截断超出精度的小数位，不足的右侧补零
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, invalid(input, "not a decimal number")
	}
	return value, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatUnits 将最小单位换算为规范展示字符串
//
// 去掉小数部分末尾的 0，小数部分为空时不保留小数点：
//
//	2500000000000000000, 18 → "2.5"
//	1000000, 6 → "1"
//	1, 8 → "0.00000001"
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Set(v)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	whole, frac := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	return sign + whole.String() + "." + fracStr
}

// ToSupply 按精度换算初始发行量，返回最小单位的十进制字符串
//
// 示例：ToSupply("1000000", 18) → "1000000000000000000000000"
func ToSupply(initialSupply string, decimals uint8) (string, error) {
	v, err := ParseUnits(initialSupply, decimals)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ToBigInt 将 ABI 解包得到的数值转换为 *big.Int
//
// 支持 *big.Int、big.Int、定宽整数与十进制字符串。
func ToBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("%w: nil *big.Int", ErrUnsupportedValue)
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case string:
		out, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedValue, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// ToDecimals 将 decimals() 的返回值转换为 uint8
func ToDecimals(v interface{}) (uint8, error) {
	n, err := ToBigInt(v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(255)) > 0 {
		return 0, fmt.Errorf("%w: decimals %s out of range", ErrUnsupportedValue, n)
	}
	return uint8(n.Uint64()), nil
}
