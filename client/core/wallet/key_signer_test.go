package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/transport"
	"github.com/flexsmart/sdk/client/core/transport/testutil"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

const transferABI = `[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"}
]`

func expectedAddress(t *testing.T) string {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestNewKeySigner(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"无前缀", testKeyHex, false},
		{"0x 前缀", "0x" + testKeyHex, false},
		{"首尾空白", "  " + testKeyHex + "\n", false},
		{"长度错误", "abcd", true},
		{"非十六进制", "zz" + testKeyHex[2:], true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewKeySigner(tt.key, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)

			addr, err := s.Address(context.Background())
			require.NoError(t, err)
			assert.Equal(t, expectedAddress(t), addr)
		})
	}
}

func TestKeySigner_WithoutProvider(t *testing.T) {
	s, err := NewKeySigner(testKeyHex, nil)
	require.NoError(t, err)

	assert.Nil(t, s.Provider())

	desc, err := abi.ParseDescription([]byte(transferABI))
	require.NoError(t, err)
	_, err = s.NewTransactor("0x5FbDB2315678afecb367f032d93F642f64180aa3", desc)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestKeySigner_SignsWithChainID(t *testing.T) {
	desc, err := abi.ParseDescription([]byte(transferABI))
	require.NoError(t, err)

	backend := testutil.NewEthBackend(56, desc.Ethereum())
	provider := transport.NewEthProvider(backend)

	s, err := NewKeySigner(testKeyHex, provider)
	require.NoError(t, err)
	require.NotNil(t, s.Provider())

	tr, err := s.NewTransactor("0x5FbDB2315678afecb367f032d93F642f64180aa3", desc)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		pending, err := tr.Transact(context.Background(), "transfer", []interface{}{
			"0x70997970C51812dc3A010C7d01b50e0d17dc79C8", big.NewInt(10),
		})
		require.NoError(t, err)
		_, err = pending.Wait(context.Background())
		require.NoError(t, err)
	}

	sent := backend.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(56), sent[0].ChainId().Int64())
	assert.Equal(t, uint64(0), sent[0].Nonce())
	assert.Equal(t, uint64(1), sent[1].Nonce())

	sender, err := backend.Sender(1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(expectedAddress(t)), sender)
}
