package abi

import "strings"

// Feature 合约可选能力
type Feature string

const (
	FeatureMintable Feature = "mintable"
	FeatureBurnable Feature = "burnable"
	FeaturePausable Feature = "pausable"
)

// featureByFunction 能力探测策略表：声明的函数名 → 能力
var featureByFunction = map[string]Feature{
	"mint":  FeatureMintable,
	"burn":  FeatureBurnable,
	"pause": FeaturePausable,
}

// Features 能力标记，每个 ABI 推导一次，之后不可变
type Features struct {
	Mintable bool `json:"mintable"`
	Burnable bool `json:"burnable"`
	Pausable bool `json:"pausable"`
}

// Has 是否具备指定能力；空能力视为具备
func (f Features) Has(feature Feature) bool {
	switch feature {
	case "":
		return true
	case FeatureMintable:
		return f.Mintable
	case FeatureBurnable:
		return f.Burnable
	case FeaturePausable:
		return f.Pausable
	default:
		return false
	}
}

// String 以逗号连接具备的能力，无能力时为 "-"
func (f Features) String() string {
	var names []string
	for _, feature := range []Feature{FeatureMintable, FeatureBurnable, FeaturePausable} {
		if f.Has(feature) {
			names = append(names, string(feature))
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

// IsFullFeature 是否同时具备全部可选能力
func (f Features) IsFullFeature() bool {
	return f.Mintable && f.Burnable && f.Pausable
}

// DetectFeatures 按函数名匹配策略表推导能力标记
//
// 只考虑 type == "function" 且声明了可变性的条目。纯函数，无网络访问。
func DetectFeatures(desc *Description) Features {
	var f Features
	if desc == nil {
		return f
	}

	for _, e := range desc.entries {
		if !e.IsFunction() || !e.HasMutability() {
			continue
		}
		switch featureByFunction[e.Name] {
		case FeatureMintable:
			f.Mintable = true
		case FeatureBurnable:
			f.Burnable = true
		case FeaturePausable:
			f.Pausable = true
		}
	}
	return f
}
