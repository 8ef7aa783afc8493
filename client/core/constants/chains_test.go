package constants

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAddress(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		chainID string
		want    string
		ok      bool
	}{
		{"以太坊主网", "usdt", "0x1", "0xdAC17F958D2ee523a2206206994597C13D831ec7", true},
		{"十进制链 ID", "usdt", "56", "0x55d398326f99059ff775485246999027b3197955", true},
		{"大写符号与链 ID", "USDT", "0xAA36A7", "0x4516125e745218f3634e030d7ae6aC98C02394c2", true},
		{"未知链", "usdt", "0x89", "", false},
		{"未知代币", "dai", "0x1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TokenAddress(tt.token, tt.chainID)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscrowLibrary(t *testing.T) {
	lib, ok := EscrowLibrary("97")
	require.True(t, ok)
	assert.Equal(t, "bsctestnet", lib.NetworkName)

	_, ok = EscrowLibrary(ChainEthereum)
	assert.False(t, ok)
}

func TestLinkEscrowLibrary(t *testing.T) {
	code := "0x6080" + ERC20AddressPlaceholder + "00" + ERC20AddressPlaceholder

	linked, err := LinkEscrowLibrary(code, ChainSepolia)
	require.NoError(t, err)
	assert.NotContains(t, linked, "__$")
	assert.Equal(t, 2, strings.Count(linked, "83cde6926b37ddc42e2aa1010a920643f81487f4"))

	_, err = LinkEscrowLibrary(code, ChainBSC)
	assert.Error(t, err)
}

func TestChainIDHex(t *testing.T) {
	assert.Equal(t, "0x38", ChainIDHex(big.NewInt(56)))
	assert.Equal(t, "0xaa36a7", ChainIDHex(big.NewInt(11155111)))
	assert.Empty(t, ChainIDHex(nil))
}
