package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// EthereumCoinType SLIP-0044 中以太坊的 coin type，BSC 等 EVM 链沿用
const EthereumCoinType uint32 = 60

const bip44Purpose uint32 = 44

// DerivationPath BIP44 路径 m/purpose'/coin'/account'/change/index
type DerivationPath struct {
	Purpose      uint32
	CoinType     uint32
	Account      uint32
	Change       uint32
	AddressIndex uint32
}

// PathForIndex 以太坊默认账户下第 index 个地址；index 为 0 时即 MetaMask、Hardhat 使用的 m/44'/60'/0'/0/0
func PathForIndex(index uint32) *DerivationPath {
	return &DerivationPath{
		Purpose:      bip44Purpose,
		CoinType:     EthereumCoinType,
		AddressIndex: index,
	}
}

// ParseDerivationPath 解析 m/44'/60'/0'/0/0 形式的路径
//
// 前缀 m/ 可省略，硬化标记可写作 ' h H。前三级必须硬化，后两级不得硬化。
func ParseDerivationPath(path string) (*DerivationPath, error) {
	rest := strings.TrimPrefix(strings.TrimPrefix(path, "m/"), "M/")
	parts := strings.Split(rest, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("derivation path %q: want 5 levels, got %d", path, len(parts))
	}

	dp := &DerivationPath{}
	levels := [5]*uint32{&dp.Purpose, &dp.CoinType, &dp.Account, &dp.Change, &dp.AddressIndex}
	for i, part := range parts {
		v, err := parseLevel(part, i < 3)
		if err != nil {
			return nil, fmt.Errorf("derivation path %q level %d: %w", path, i, err)
		}
		*levels[i] = v
	}

	if err := dp.Validate(); err != nil {
		return nil, err
	}
	return dp, nil
}

func parseLevel(s string, hardened bool) (uint32, error) {
	num := strings.TrimRight(s, "'hH")
	if marked := num != s; marked != hardened {
		if hardened {
			return 0, fmt.Errorf("%s must be hardened", s)
		}
		return 0, fmt.Errorf("%s must not be hardened", s)
	}

	v, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", s)
	}
	if v >= hdkeychain.HardenedKeyStart {
		return 0, fmt.Errorf("%s out of range", s)
	}
	return uint32(v), nil
}

func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", dp.Purpose, dp.CoinType, dp.Account, dp.Change, dp.AddressIndex)
}

// indices hdkeychain 逐级派生使用的子索引
func (dp *DerivationPath) indices() []uint32 {
	return []uint32{
		hdkeychain.HardenedKeyStart + dp.Purpose,
		hdkeychain.HardenedKeyStart + dp.CoinType,
		hdkeychain.HardenedKeyStart + dp.Account,
		dp.Change,
		dp.AddressIndex,
	}
}

// Validate purpose 固定为 44，change 只能是 0（外部链）或 1（找零链）
func (dp *DerivationPath) Validate() error {
	if dp.Purpose != bip44Purpose {
		return fmt.Errorf("derivation path purpose %d, want %d", dp.Purpose, bip44Purpose)
	}
	if dp.Change > 1 {
		return fmt.Errorf("derivation path change %d, want 0 or 1", dp.Change)
	}
	return nil
}
