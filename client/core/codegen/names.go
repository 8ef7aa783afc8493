package codegen

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// reservedParams 生成代码中已占用的标识符，参数名与之冲突时加后缀
var reservedParams = map[string]bool{
	"c": true, "ctx": true, "err": true,
	"context": true, "contract": true, "typed": true, "transport": true, "common": true, "big": true,
	// 预声明标识符
	"string": true, "bool": true, "byte": true, "error": true, "any": true, "nil": true,
	"true": true, "false": true, "len": true, "cap": true, "new": true, "make": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
}

// reservedMethods 生成类型上已有的方法
var reservedMethods = map[string]bool{
	"Client": true,
}

// exportName 转换为导出标识符：transfer → Transfer，erc20-token → Erc20Token
func exportName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// paramName 转换为参数名：_to → to，Spender → spender
func paramName(s string, index int) string {
	name := exportName(s)
	if s == "" || name == "X" {
		return "arg" + strconv.Itoa(index)
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	name = string(runes)
	if token.IsKeyword(name) || reservedParams[name] {
		name += "_"
	}
	return name
}

// snakeCase 转换为文件名：Erc20TokenAll → erc20_token_all，ERC20Token → erc20_token
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	sep := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			sep()
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sep()
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.Trim(b.String(), "_")
}

// uniqueName 在 used 中登记 name，冲突时依次追加 2、3……
func uniqueName(name string, used map[string]bool) string {
	out := name
	for i := 2; used[out]; i++ {
		out = fmt.Sprintf("%s%d", name, i)
	}
	used[out] = true
	return out
}

// GoType ABI 类型到 Go 类型的映射
//
//	address → common.Address       bool → bool        string → string
//	uint8/16/32/64, int8/16/32/64 → 对应定宽整数      其余整数 → *big.Int
//	bytes → []byte                 bytesN → [N]byte   其他（数组、元组）→ interface{}
//
// 与 go-ethereum 解包结果的 Go 类型一致。
func GoType(abiType string) string {
	switch abiType {
	case "address":
		return "common.Address"
	case "bool":
		return "bool"
	case "string":
		return "string"
	case "bytes":
		return "[]byte"
	}

	if strings.ContainsAny(abiType, "[(") {
		return "interface{}"
	}

	for _, prefix := range []string{"uint", "int"} {
		if !strings.HasPrefix(abiType, prefix) {
			continue
		}
		bits := strings.TrimPrefix(abiType, prefix)
		switch bits {
		case "8", "16", "32", "64":
			return prefix + bits
		}
		if n, err := strconv.Atoi(bits); bits == "" || (err == nil && n > 0 && n <= 256 && n%8 == 0) {
			return "*big.Int"
		}
		return "interface{}"
	}

	if strings.HasPrefix(abiType, "bytes") {
		if n, err := strconv.Atoi(strings.TrimPrefix(abiType, "bytes")); err == nil && n >= 1 && n <= 32 {
			return fmt.Sprintf("[%d]byte", n)
		}
	}
	return "interface{}"
}
