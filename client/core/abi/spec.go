// Package abi provides contract interface descriptions for client operations.
//
// 本包负责 ABI 的解析、函数分类（读/写、amount 参数路由、输出格式化）与能力探测，
// 动态类型化客户端与离线代码生成器共用同一套分类规则。
package abi

import (
	"encoding/json"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// Mutability 函数状态可变性
type Mutability string

const (
	MutabilityPure       Mutability = "pure"
	MutabilityView       Mutability = "view"
	MutabilityNonPayable Mutability = "nonpayable"
	MutabilityPayable    Mutability = "payable"
)

// IsReadOnly 是否为只读（pure/view）
func (m Mutability) IsReadOnly() bool {
	return m == MutabilityPure || m == MutabilityView
}

// EntryTypeFunction ABI 条目类型：函数
const EntryTypeFunction = "function"

// ParamSpec 参数/返回值描述
type ParamSpec struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	InternalType string      `json:"internalType,omitempty"`
	Indexed      bool        `json:"indexed,omitempty"`
	Components   []ParamSpec `json:"components,omitempty"`
}

// FunctionSpec ABI 条目
//
// 只有 Type == "function" 的条目参与客户端生成；事件、构造函数等原样保留。
// 旧版 ABI 的 constant/payable 字段在解析时折算为 StateMutability。
type FunctionSpec struct {
	Type            string      `json:"type"`
	Name            string      `json:"name,omitempty"`
	Inputs          []ParamSpec `json:"inputs"`
	Outputs         []ParamSpec `json:"outputs,omitempty"`
	StateMutability Mutability  `json:"stateMutability,omitempty"`
	Constant        *bool       `json:"constant,omitempty"`
	Payable         *bool       `json:"payable,omitempty"`
}

// IsFunction 是否为函数条目
func (f FunctionSpec) IsFunction() bool {
	return f.Type == EntryTypeFunction
}

// HasMutability 是否声明了可变性
func (f FunctionSpec) HasMutability() bool {
	return f.StateMutability != ""
}

// Signature 返回规范签名，如 transfer(address,uint256)
func (f FunctionSpec) Signature() string {
	types := make([]string, len(f.Inputs))
	for i, in := range f.Inputs {
		types[i] = in.Type
	}
	return f.Name + "(" + strings.Join(types, ",") + ")"
}

// normalizeLegacy 将旧版 constant/payable 标记折算为 StateMutability
func (f *FunctionSpec) normalizeLegacy() {
	if f.StateMutability != "" || (f.Constant == nil && f.Payable == nil) {
		return
	}
	switch {
	case f.Constant != nil && *f.Constant:
		f.StateMutability = MutabilityView
	case f.Payable != nil && *f.Payable:
		f.StateMutability = MutabilityPayable
	default:
		f.StateMutability = MutabilityNonPayable
	}
}

// Description 合约接口描述（有序的 ABI 条目序列）
//
// 函数名不保证唯一（允许重载），按声明顺序保存。
type Description struct {
	entries []FunctionSpec
	raw     json.RawMessage
	eth     *ethabi.ABI
}

// Entries 返回全部条目（按声明顺序）
func (d *Description) Entries() []FunctionSpec {
	out := make([]FunctionSpec, len(d.entries))
	copy(out, d.entries)
	return out
}

// Functions 返回全部函数条目（按声明顺序）
func (d *Description) Functions() []FunctionSpec {
	out := make([]FunctionSpec, 0, len(d.entries))
	for _, e := range d.entries {
		if e.IsFunction() {
			out = append(out, e)
		}
	}
	return out
}

// HasFunction 是否声明了指定名称的函数
func (d *Description) HasFunction(name string) bool {
	for _, e := range d.entries {
		if e.IsFunction() && e.Name == name {
			return true
		}
	}
	return false
}

// Ethereum 返回 go-ethereum 解析后的 ABI，用于参数打包与结果解包
func (d *Description) Ethereum() *ethabi.ABI {
	return d.eth
}

// Raw 返回原始 ABI JSON
func (d *Description) Raw() json.RawMessage {
	return d.raw
}

// MarshalJSON 输出原始 ABI JSON
func (d *Description) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("[]"), nil
	}
	return d.raw, nil
}

// UnmarshalJSON 解析并校验 ABI 数组
func (d *Description) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDescription(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// Artifact 编译产物（Hardhat/Truffle 风格）
//
// Bytecode 仅用于部署，原样透传。
type Artifact struct {
	ContractName string          `json:"contractName,omitempty"`
	ABI          *Description    `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode,omitempty"`
}
