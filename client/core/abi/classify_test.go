package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		fn           FunctionSpec
		wantKind     Kind
		wantAmount   int
		wantFormat   bool
		wantRequires Feature
	}{
		{
			name: "view 整数输出需要格式化",
			fn: FunctionSpec{
				Type: "function", Name: "balanceOf", StateMutability: MutabilityView,
				Inputs:  []ParamSpec{{Name: "account", Type: "address"}},
				Outputs: []ParamSpec{{Type: "uint256"}},
			},
			wantKind: KindRead, wantAmount: -1, wantFormat: true,
		},
		{
			name: "decimals 不格式化",
			fn: FunctionSpec{
				Type: "function", Name: "decimals", StateMutability: MutabilityPure,
				Outputs: []ParamSpec{{Type: "uint8"}},
			},
			wantKind: KindRead, wantAmount: -1,
		},
		{
			name: "字符串输出不格式化",
			fn: FunctionSpec{
				Type: "function", Name: "symbol", StateMutability: MutabilityView,
				Outputs: []ParamSpec{{Type: "string"}},
			},
			wantKind: KindRead, wantAmount: -1,
		},
		{
			name: "整数数组输出不格式化",
			fn: FunctionSpec{
				Type: "function", Name: "amounts", StateMutability: MutabilityView,
				Outputs: []ParamSpec{{Type: "uint256[]"}},
			},
			wantKind: KindRead, wantAmount: -1,
		},
		{
			name: "mint 需要 mintable 且定位 amount",
			fn: FunctionSpec{
				Type: "function", Name: "mint", StateMutability: MutabilityNonPayable,
				Inputs: []ParamSpec{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
			},
			wantKind: KindWrite, wantAmount: 1, wantRequires: FeatureMintable,
		},
		{
			name: "burnFrom 需要 burnable",
			fn: FunctionSpec{
				Type: "function", Name: "burnFrom", StateMutability: MutabilityNonPayable,
				Inputs: []ParamSpec{{Name: "account", Type: "address"}, {Name: "amount", Type: "uint256"}},
			},
			wantKind: KindWrite, wantAmount: 1, wantRequires: FeatureBurnable,
		},
		{
			name: "未声明可变性视为写",
			fn: FunctionSpec{
				Type: "function", Name: "poke",
				Outputs: []ParamSpec{{Type: "uint256"}},
			},
			wantKind: KindWrite, wantAmount: -1,
		},
		{
			name: "payable 写操作",
			fn: FunctionSpec{
				Type: "function", Name: "deposit", StateMutability: MutabilityPayable,
			},
			wantKind: KindWrite, wantAmount: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Classify(tt.fn)
			assert.Equal(t, tt.wantKind, op.Kind)
			assert.Equal(t, tt.wantAmount, op.AmountIndex)
			assert.Equal(t, tt.wantFormat, op.FormatOutput)
			assert.Equal(t, tt.wantRequires, op.Requires)
			assert.Equal(t, tt.fn.Name, op.Key)
		})
	}
}

func TestPlan_OverloadKeysMatchEthereum(t *testing.T) {
	desc := mustDescription(t, `[
		{"type":"constructor","inputs":[]},
		{"type":"function","name":"burn","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"burn","inputs":[{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"event","name":"Burned","inputs":[{"name":"amount","type":"uint256","indexed":false}]},
		{"type":"function","name":"burn","inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"}
	]`)

	ops := Plan(desc)
	require.Len(t, ops, 3)

	keys := []string{ops[0].Key, ops[1].Key, ops[2].Key}
	assert.Equal(t, []string{"burn", "burn0", "burn1"}, keys)

	methods := desc.Ethereum().Methods
	for _, op := range ops {
		m, ok := methods[op.Key]
		require.True(t, ok, "missing go-ethereum method %s", op.Key)
		assert.Equal(t, op.Signature(), m.Sig)
	}
	// burn(address from, uint256 amount, bytes data)
	assert.Equal(t, 1, ops[2].AmountIndex)
	assert.Equal(t, FeatureBurnable, ops[2].Requires)
}

func TestRequiredFeature(t *testing.T) {
	tests := map[string]Feature{
		"mint":     FeatureMintable,
		"burn":     FeatureBurnable,
		"burnFrom": FeatureBurnable,
		"pause":    "",
		"transfer": "",
		"burn0":    "",
	}
	for name, want := range tests {
		assert.Equal(t, want, RequiredFeature(name), name)
	}
}

func TestPlan_Nil(t *testing.T) {
	assert.Nil(t, Plan(nil))
}

func TestDetectFeatures(t *testing.T) {
	tests := []struct {
		name string
		abi  string
		want Features
	}{
		{
			name: "只有 mint",
			abi:  scenarioABI,
			want: Features{Mintable: true},
		},
		{
			name: "全部能力",
			abi: `[
				{"type":"function","name":"mint","inputs":[],"stateMutability":"nonpayable"},
				{"type":"function","name":"burn","inputs":[],"stateMutability":"nonpayable"},
				{"type":"function","name":"pause","inputs":[],"stateMutability":"nonpayable"}
			]`,
			want: Features{Mintable: true, Burnable: true, Pausable: true},
		},
		{
			name: "事件同名不计入",
			abi:  `[{"type":"event","name":"mint","inputs":[]}]`,
			want: Features{},
		},
		{
			name: "未声明可变性不计入",
			abi:  `[{"type":"function","name":"burn","inputs":[]}]`,
			want: Features{},
		},
		{
			name: "旧版 constant 字段折算后计入",
			abi:  `[{"type":"function","name":"pause","constant":false,"payable":false,"inputs":[]}]`,
			want: Features{Pausable: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := mustDescription(t, tt.abi)
			got := DetectFeatures(desc)
			assert.Equal(t, tt.want, got)
			// 纯函数：重复调用结果相同
			assert.Equal(t, got, DetectFeatures(desc))
		})
	}

	assert.Equal(t, Features{}, DetectFeatures(nil))
}

func TestFeatures_Has(t *testing.T) {
	f := Features{Mintable: true}
	assert.True(t, f.Has(""))
	assert.True(t, f.Has(FeatureMintable))
	assert.False(t, f.Has(FeatureBurnable))
	assert.False(t, f.Has(FeaturePausable))
	assert.False(t, f.Has(Feature("other")))
	assert.False(t, f.IsFullFeature())
	assert.True(t, Features{Mintable: true, Burnable: true, Pausable: true}.IsFullFeature())
}

func TestFeatures_String(t *testing.T) {
	assert.Equal(t, "-", Features{}.String())
	assert.Equal(t, "mintable,pausable", Features{Mintable: true, Pausable: true}.String())
	assert.Equal(t, "mintable,burnable,pausable", Features{Mintable: true, Burnable: true, Pausable: true}.String())
}
