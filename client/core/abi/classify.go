package abi

import (
	"fmt"
	"strings"
)

// Kind 操作类别
type Kind int

const (
	// KindRead 只读操作，走只读调用面，不需要签名身份
	KindRead Kind = iota
	// KindWrite 状态变更操作，通过合约句柄发送交易
	KindWrite
)

// String 返回类别名称
func (k Kind) String() string {
	if k == KindRead {
		return "read"
	}
	return "write"
}

const (
	// AmountParam 需要做单位换算的参数名
	AmountParam = "amount"

	// DecimalsFunction 精度函数名，其输出不做格式化
	DecimalsFunction = "decimals"
)

// gatedOperations 需要能力校验的操作 → 所需能力
var gatedOperations = map[string]Feature{
	"mint":     FeatureMintable,
	"burn":     FeatureBurnable,
	"burnFrom": FeatureBurnable,
}

// RequiredFeature 调用 name 前需要的能力，空表示不受限
//
// 与 ABI 是否声明该函数无关：未声明 burn 的合约同样不具备 Burnable。
func RequiredFeature(name string) Feature {
	return gatedOperations[name]
}

// Operation 由单个函数条目派生出的客户端操作
//
// 动态客户端与代码生成器都只消费 Operation，两者的行为由此保持一致。
type Operation struct {
	// Key 调度键；重载函数依次为 name、name0、name1……，与 go-ethereum 的方法表一致
	Key string
	// Name 声明的函数名
	Name       string
	Kind       Kind
	Mutability Mutability
	Inputs     []ParamSpec
	Outputs    []ParamSpec

	// AmountIndex 名为 amount 的参数下标，-1 表示没有
	AmountIndex int
	// FormatOutput 整数输出是否按精度格式化（decimals 本身除外）
	FormatOutput bool
	// Requires 执行前需要的能力，空表示不受限
	Requires Feature
}

// IsRead 是否为只读操作
func (op Operation) IsRead() bool {
	return op.Kind == KindRead
}

// Signature 返回规范签名
func (op Operation) Signature() string {
	return FunctionSpec{Name: op.Name, Inputs: op.Inputs}.Signature()
}

// Classify 对单个函数条目分类
//
// 规则：
//   - pure/view → 读操作，其余（含未声明）→ 写操作
//   - 名为 amount 的参数需要先经过单位换算
//   - 读操作的整数输出需要格式化，decimals 除外
//   - mint/burn/burnFrom 需要对应能力
func Classify(fn FunctionSpec) Operation {
	op := Operation{
		Key:         fn.Name,
		Name:        fn.Name,
		Kind:        KindWrite,
		Mutability:  fn.StateMutability,
		Inputs:      fn.Inputs,
		Outputs:     fn.Outputs,
		AmountIndex: -1,
		Requires:    RequiredFeature(fn.Name),
	}

	if fn.StateMutability.IsReadOnly() {
		op.Kind = KindRead
	}

	for i, in := range fn.Inputs {
		if in.Name == AmountParam {
			op.AmountIndex = i
			break
		}
	}

	if op.Kind == KindRead && fn.Name != DecimalsFunction {
		for _, out := range fn.Outputs {
			if IsIntegerType(out.Type) {
				op.FormatOutput = true
				break
			}
		}
	}

	return op
}

// Plan 按声明顺序对全部函数条目分类并分配调度键
func Plan(desc *Description) []Operation {
	if desc == nil {
		return nil
	}

	used := make(map[string]bool)
	var ops []Operation
	for _, fn := range desc.Functions() {
		op := Classify(fn)
		op.Key = resolveNameConflict(fn.Name, used)
		used[op.Key] = true
		ops = append(ops, op)
	}
	return ops
}

// resolveNameConflict 为重载函数生成唯一键
func resolveNameConflict(name string, used map[string]bool) string {
	key := name
	for idx := 0; used[key]; idx++ {
		key = fmt.Sprintf("%s%d", name, idx)
	}
	return key
}

// IsIntegerType 是否为定宽整数类型（intN/uintN，不含数组）
func IsIntegerType(t string) bool {
	if strings.Contains(t, "[") {
		return false
	}
	return strings.HasPrefix(t, "uint") || strings.HasPrefix(t, "int")
}
