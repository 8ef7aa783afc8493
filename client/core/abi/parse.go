package abi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	// ErrInvalidABI ABI 不是合法 JSON 或不符合接口描述结构
	ErrInvalidABI = errors.New("invalid abi")

	// ErrUnknownABI 注册表中不存在该 ABI
	ErrUnknownABI = errors.New("unknown abi")
)

// ParseDescription 解析 ABI 数组
//
// 校验规则：
//   - 必须是 JSON 数组
//   - 每个条目必须声明 type
//   - 函数条目必须有名称，参数必须声明类型
//   - 能被 go-ethereum 解析（类型字符串合法）
func ParseDescription(data []byte) (*Description, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidABI)
	}

	var entries []FunctionSpec
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}

	for i := range entries {
		if err := validateEntry(i, &entries[i]); err != nil {
			return nil, err
		}
		entries[i].normalizeLegacy()
	}

	eth, err := ethabi.JSON(bytes.NewReader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}

	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)

	return &Description{
		entries: entries,
		raw:     raw,
		eth:     &eth,
	}, nil
}

func validateEntry(index int, e *FunctionSpec) error {
	if e.Type == "" {
		return fmt.Errorf("%w: entry %d has no type", ErrInvalidABI, index)
	}
	if !e.IsFunction() {
		return nil
	}
	if e.Name == "" {
		return fmt.Errorf("%w: function entry %d has no name", ErrInvalidABI, index)
	}
	for j, in := range e.Inputs {
		if err := validateParam(in); err != nil {
			return fmt.Errorf("%w: %s input %d: %v", ErrInvalidABI, e.Name, j, err)
		}
	}
	for j, out := range e.Outputs {
		if err := validateParam(out); err != nil {
			return fmt.Errorf("%w: %s output %d: %v", ErrInvalidABI, e.Name, j, err)
		}
	}
	if e.StateMutability != "" {
		switch e.StateMutability {
		case MutabilityPure, MutabilityView, MutabilityNonPayable, MutabilityPayable:
		default:
			return fmt.Errorf("%w: %s has unknown stateMutability %q", ErrInvalidABI, e.Name, e.StateMutability)
		}
	}
	return nil
}

// validateParam 校验参数类型，go-ethereum 对整数位宽不做检查
//
// uintN/intN 要求 N 为 8 的倍数且在 8..256 之间，bytesN 要求 N 在 1..32 之间，
// 数组后缀的长度必须是正整数，tuple 递归校验 components。
func validateParam(p ParamSpec) error {
	if p.Type == "" {
		return errors.New("no type")
	}

	base := p.Type
	for strings.HasSuffix(base, "]") {
		open := strings.LastIndex(base, "[")
		if open < 0 {
			return fmt.Errorf("malformed array type %q", p.Type)
		}
		if size := base[open+1 : len(base)-1]; size != "" {
			if n, err := strconv.Atoi(size); err != nil || n <= 0 {
				return fmt.Errorf("invalid array length in %q", p.Type)
			}
		}
		base = base[:open]
	}

	switch {
	case base == "tuple":
		if len(p.Components) == 0 {
			return fmt.Errorf("tuple %q has no components", p.Name)
		}
		for i, c := range p.Components {
			if err := validateParam(c); err != nil {
				return fmt.Errorf("component %d: %w", i, err)
			}
		}
		return nil
	case base == "address", base == "bool", base == "string", base == "bytes", base == "function":
		return nil
	case strings.HasPrefix(base, "uint"):
		return checkWidth(p.Type, strings.TrimPrefix(base, "uint"), 8, 256, 8)
	case strings.HasPrefix(base, "int"):
		return checkWidth(p.Type, strings.TrimPrefix(base, "int"), 8, 256, 8)
	case strings.HasPrefix(base, "bytes"):
		return checkWidth(p.Type, strings.TrimPrefix(base, "bytes"), 1, 32, 1)
	default:
		return fmt.Errorf("unsupported type %q", p.Type)
	}
}

// checkWidth 校验类型后缀的位宽；编译器输出的 ABI 总是带位宽
func checkWidth(typ, suffix string, lo, hi, step int) error {
	n, err := strconv.Atoi(suffix)
	if err != nil || n < lo || n > hi || n%step != 0 {
		return fmt.Errorf("invalid type %q", typ)
	}
	return nil
}

// ParseArtifact 解析编译产物
//
// 支持两种格式：
//   - {"contractName": "...", "abi": [...], "bytecode": "0x..."}
//   - 裸 ABI 数组 [...]（ContractName 为空）
func ParseArtifact(data []byte) (*Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		desc, err := ParseDescription(trimmed)
		if err != nil {
			return nil, err
		}
		return &Artifact{ABI: desc}, nil
	}

	var envelope struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}
	if len(envelope.ABI) == 0 || string(envelope.ABI) == "null" {
		return nil, fmt.Errorf("%w: missing abi field", ErrInvalidABI)
	}

	desc, err := ParseDescription(envelope.ABI)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ContractName: envelope.ContractName,
		ABI:          desc,
		Bytecode:     envelope.Bytecode,
	}, nil
}

// LoadArtifact 从文件加载编译产物
// 未声明 contractName 时使用文件名（去掉扩展名）
func LoadArtifact(path string) (*Artifact, error) {
	//nolint:gosec // G304: 路径由调用方（CLI 参数或 ABI 目录）提供
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abi file: %w", err)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		return nil, err
	}
	if artifact.ContractName == "" {
		base := filepath.Base(path)
		artifact.ContractName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return artifact, nil
}
