package typed

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/contract"
	"github.com/flexsmart/sdk/client/core/transport"
	"github.com/flexsmart/sdk/client/core/transport/testutil"
	"github.com/flexsmart/sdk/client/core/units"
	"github.com/flexsmart/sdk/client/core/wallet"
)

const (
	tokenAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	aliceAddr = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	bobAddr   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"

	testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
)

// 可增发、不可销毁的代币
const mintableABI = `[
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"},
	{"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"allowance","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"reserves","inputs":[],"outputs":[{"name":"base","type":"uint256"},{"name":"active","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"burnFrom","inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"setLabel","inputs":[{"name":"label","type":"string"}],"outputs":[],"stateMutability":"nonpayable"}
]`

type fixture struct {
	net    *testutil.Network
	prov   *testutil.Provider
	alice  *testutil.Signer
	conn   *connection.Context
	client *Client
}

func newFixture(t *testing.T, abiJSON string, id func(f *fixture) connection.Identity) *fixture {
	t.Helper()
	desc, err := abi.ParseDescription([]byte(abiJSON))
	require.NoError(t, err)

	f := &fixture{net: testutil.NewNetwork()}
	f.prov = testutil.NewProvider(f.net, "A", 1)
	f.alice = testutil.NewSigner(f.net, "alice", aliceAddr, f.prov)

	f.conn, err = connection.New(id(f))
	require.NoError(t, err)

	h, err := contract.New(tokenAddr, desc, f.conn)
	require.NoError(t, err)
	f.client, err = New(h)
	require.NoError(t, err)
	return f
}

func signing(f *fixture) connection.Identity { return connection.Signing(f.alice) }
func readOnly(f *fixture) connection.Identity { return connection.ReadOnly(f.prov) }

func TestNew_NoNetwork(t *testing.T) {
	f := newFixture(t, mintableABI, signing)

	assert.Equal(t, abi.Features{Mintable: true}, f.client.Features())
	assert.Len(t, f.client.Operations(), 11)
	assert.Equal(t, tokenAddr, f.client.Address())
	assert.Zero(t, f.net.CallCount())

	_, err := New(nil)
	assert.Error(t, err)
}

func TestCall_WriteNormalizesAmount(t *testing.T) {
	f := newFixture(t, mintableABI, signing)
	f.net.SetResult("decimals", uint8(18))

	res, err := f.client.Call(context.Background(), "mint", bobAddr, "2.5")
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.True(t, res.Receipt.Succeeded())
	assert.Nil(t, res.Value)

	txs := f.net.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "mint", txs[0].Method)
	require.Len(t, txs[0].Args, 2)
	assert.Equal(t, bobAddr, txs[0].Args[0])
	assert.Equal(t, "2500000000000000000", txs[0].Args[1].(*big.Int).String())
}

func TestCall_DecimalsFetchedOnce(t *testing.T) {
	f := newFixture(t, mintableABI, signing)
	f.net.SetResult("decimals", uint8(6))

	for i := 0; i < 3; i++ {
		_, err := f.client.Call(context.Background(), "transfer", bobAddr, "1")
		require.NoError(t, err)
	}

	decimalsCalls := 0
	for _, c := range f.net.Calls() {
		if c.Kind == testutil.KindCall && c.Method == "decimals" {
			decimalsCalls++
		}
	}
	assert.Equal(t, 1, decimalsCalls)

	for _, tx := range f.net.Transactions() {
		assert.Equal(t, "1000000", tx.Args[1].(*big.Int).String())
	}
}

func TestCall_WriteWithoutAmountPassesArgs(t *testing.T) {
	f := newFixture(t, mintableABI, signing)

	_, err := f.client.Call(context.Background(), "setLabel", "hello")
	require.NoError(t, err)

	txs := f.net.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, []interface{}{"hello"}, txs[0].Args)
	assert.Zero(t, f.net.CountKind(testutil.KindCall))
}

func TestCall_Read(t *testing.T) {
	f := newFixture(t, mintableABI, readOnly)
	f.net.SetResult("decimals", uint8(18))
	f.net.SetResult("name", "Flex")
	bal, _ := new(big.Int).SetString("1500000000000000000", 10)
	f.net.SetResult("balanceOf", bal)
	f.net.SetResult("reserves", big.NewInt(25e17), true)

	tests := []struct {
		name string
		fn   string
		args []interface{}
		want interface{}
	}{
		{"整数输出格式化", "balanceOf", []interface{}{aliceAddr}, "1.5"},
		{"decimals 不格式化", "decimals", nil, uint8(18)},
		{"字符串原样返回", "name", nil, "Flex"},
		{"多个输出只格式化整数", "reserves", nil, []interface{}{"2.5", true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.client.Call(context.Background(), tt.fn, tt.args...)
			require.NoError(t, err)
			assert.Nil(t, res.Receipt)
			assert.Equal(t, tt.want, res.Value)
		})
	}

	// 只读身份下读操作不需要签名者
	assert.Zero(t, f.net.CountKind(testutil.KindTransact))
}

func TestRead_Unformatted(t *testing.T) {
	f := newFixture(t, mintableABI, readOnly)
	f.net.SetResult("totalSupply", big.NewInt(42))

	v, err := f.client.Read(context.Background(), "totalSupply", false)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), v)
	assert.Equal(t, 1, f.net.CallCount())
}

func TestCall_Errors(t *testing.T) {
	f := newFixture(t, mintableABI, signing)

	tests := []struct {
		name   string
		fn     string
		args   []interface{}
		target error
	}{
		{"未知函数", "pause", nil, contract.ErrUnknownFunction},
		{"参数过少", "transfer", []interface{}{bobAddr}, ErrArgumentCount},
		{"参数过多", "decimals", []interface{}{1}, ErrArgumentCount},
		{"非法金额", "transfer", []interface{}{bobAddr, "-1"}, units.ErrInvalidAmount},
		{"金额不是字符串", "transfer", []interface{}{bobAddr, 5}, ErrAmountType},
		{"burnFrom 需要 Burnable", "burnFrom", []interface{}{bobAddr, "1"}, ErrUnsupportedOperation},
		{"未声明的 burn 同样按能力拦截", "burn", []interface{}{"1"}, ErrUnsupportedOperation},
		{"能力校验先于参数个数", "burn", nil, ErrUnsupportedOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.Call(context.Background(), tt.fn, tt.args...)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	assert.Zero(t, f.net.CallCount())
}

func TestWrite_ReadOnlyIdentity(t *testing.T) {
	f := newFixture(t, mintableABI, readOnly)

	_, err := f.client.Call(context.Background(), "setLabel", "x")
	assert.ErrorIs(t, err, connection.ErrNoSigner)
	assert.Zero(t, f.net.CallCount())
}

func TestWrite_SubmissionFailure(t *testing.T) {
	f := newFixture(t, mintableABI, signing)
	boom := errors.New("nonce too low")
	f.net.FailSubmit(boom)

	_, err := f.client.Call(context.Background(), "setLabel", "x")
	var subErr *contract.TransactionSubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.ErrorIs(t, err, boom)
}

func TestRaw_PassesArgsVerbatim(t *testing.T) {
	f := newFixture(t, mintableABI, signing)

	_, err := f.client.Raw(context.Background(), "transfer", bobAddr, "7")
	require.NoError(t, err)

	txs := f.net.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, []interface{}{bobAddr, "7"}, txs[0].Args)
	assert.Zero(t, f.net.CountKind(testutil.KindCall))
}

func TestOnConnectionChanged_ResetsDecimals(t *testing.T) {
	f := newFixture(t, mintableABI, signing)
	f.net.SetResult("decimals", uint8(18))

	d, err := f.client.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	// 同一快照：不重建，缓存保留
	require.NoError(t, f.client.OnConnectionChanged(f.conn))
	f.net.SetResult("decimals", uint8(6))
	d, err = f.client.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	bob := testutil.NewSigner(f.net, "bob", bobAddr, testutil.NewProvider(f.net, "B", 1))
	require.NoError(t, f.conn.Update(connection.Signing(bob)))
	require.NoError(t, f.client.OnConnectionChanged(f.conn))

	d, err = f.client.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(6), d)

	_, err = f.client.Call(context.Background(), "transfer", aliceAddr, "1")
	require.NoError(t, err)
	txs := f.net.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "bob", txs[0].Via)
}

func TestNormalizeAndFormatAmount(t *testing.T) {
	f := newFixture(t, mintableABI, readOnly)
	f.net.SetResult("decimals", uint8(6))

	raw, err := f.client.NormalizeAmount(context.Background(), "12.345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", raw.String())

	s, err := f.client.FormatAmount(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "12.345678", s)
}

func TestWithDecimalsSource(t *testing.T) {
	desc, err := abi.ParseDescription([]byte(mintableABI))
	require.NoError(t, err)
	net := testutil.NewNetwork()
	conn, err := connection.New(connection.Signing(testutil.NewSigner(net, "alice", aliceAddr, testutil.NewProvider(net, "A", 1))))
	require.NoError(t, err)
	h, err := contract.New(tokenAddr, desc, conn)
	require.NoError(t, err)

	c, err := New(h, WithDecimalsSource(units.DecimalsFunc(func(context.Context) (uint8, error) { return 2, nil })))
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "transfer", bobAddr, "3.5")
	require.NoError(t, err)
	txs := net.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "350", txs[0].Args[1].(*big.Int).String())
	assert.Zero(t, net.CountKind(testutil.KindCall))
}

// 端到端：go-ethereum 适配层 + 私钥签名者，核对链上收到的 calldata
func TestMint_EndToEndWithKeySigner(t *testing.T) {
	desc, err := abi.ParseDescription([]byte(mintableABI))
	require.NoError(t, err)

	backend := testutil.NewEthBackend(56, desc.Ethereum())
	backend.SetResult("decimals", uint8(18))
	provider := transport.NewEthProvider(backend)

	signer, err := wallet.NewKeySigner(testKey, provider)
	require.NoError(t, err)
	conn, err := connection.New(connection.Signing(signer))
	require.NoError(t, err)

	h, err := contract.New(tokenAddr, desc, conn)
	require.NoError(t, err)
	c, err := New(h)
	require.NoError(t, err)

	receipt, err := NewERC20(c).Mint(context.Background(), bobAddr, "2.5")
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())

	require.Len(t, backend.Sent(), 1)
	method, args, err := backend.DecodeSent(0)
	require.NoError(t, err)
	assert.Equal(t, "mint", method.Name)
	require.Len(t, args, 2)
	assert.Equal(t, common.HexToAddress(bobAddr), args[0])
	assert.Equal(t, "2500000000000000000", args[1].(*big.Int).String())

	from, err := backend.Sender(0)
	require.NoError(t, err)
	addr, err := signer.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, from.Hex())
}

func TestAs(t *testing.T) {
	f := newFixture(t, mintableABI, readOnly)
	f.net.SetResult("decimals", uint8(18))
	f.net.SetResult("name", "Flex")

	d, err := As[uint8](f.client.Read(context.Background(), "decimals", false))
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	_, err = As[bool](f.client.Read(context.Background(), "name", false))
	assert.ErrorIs(t, err, ErrResultType)

	boom := errors.New("boom")
	_, err = As[string](nil, boom)
	assert.ErrorIs(t, err, boom)
}
