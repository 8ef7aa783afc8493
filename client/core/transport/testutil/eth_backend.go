package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EthBackend 内存版 go-ethereum 合约后端
//
// 只读调用按 4 字节选择器找到方法，返回预设结果的 ABI 编码；
// 发送的交易立即"上链"，回执状态由 Revert 控制。
// 头部不带 BaseFee，交易走 legacy gas 路径。
type EthBackend struct {
	mu       sync.Mutex
	chainID  *big.Int
	abi      *ethabi.ABI
	results  map[string][]interface{}
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	calls    int
	revert   bool
}

// NewEthBackend 创建内存后端
func NewEthBackend(chainID int64, contractABI *ethabi.ABI) *EthBackend {
	return &EthBackend{
		chainID:  big.NewInt(chainID),
		abi:      contractABI,
		results:  make(map[string][]interface{}),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// SetResult 设置只读方法的返回值（按 ABI 方法键）
func (b *EthBackend) SetResult(method string, out ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[method] = out
}

// Revert 让后续交易执行失败（status == 0）
func (b *EthBackend) Revert(revert bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revert = revert
}

// Sent 返回已发送的交易
func (b *EthBackend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*types.Transaction, len(b.sent))
	copy(out, b.sent)
	return out
}

// CallCount 只读调用次数
func (b *EthBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// DecodeSent 解码第 i 笔交易的方法与参数
func (b *EthBackend) DecodeSent(i int) (*ethabi.Method, []interface{}, error) {
	sent := b.Sent()
	if i >= len(sent) {
		return nil, nil, fmt.Errorf("transaction %d not sent", i)
	}
	data := sent[i].Data()
	if len(data) < 4 {
		return nil, nil, errors.New("short calldata")
	}
	m, err := b.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return m, args, nil
}

// Sender 恢复第 i 笔交易的发送地址
func (b *EthBackend) Sender(i int) (common.Address, error) {
	sent := b.Sent()
	if i >= len(sent) {
		return common.Address{}, fmt.Errorf("transaction %d not sent", i)
	}
	return types.Sender(types.LatestSignerForChainID(b.chainID), sent[i])
}

// ===== bind.ContractCaller =====

func (b *EthBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *EthBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++

	if len(call.Data) < 4 {
		return nil, errors.New("short calldata")
	}
	m, err := b.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	out, ok := b.results[m.Name]
	if !ok {
		return nil, fmt.Errorf("no result configured for %s", m.Name)
	}
	return m.Outputs.Pack(out...)
}

// ===== bind.ContractTransactor =====

func (b *EthBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1)}, nil
}

func (b *EthBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

func (b *EthBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *EthBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *EthBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *EthBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *EthBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sent = append(b.sent, tx)
	status := types.ReceiptStatusSuccessful
	if b.revert {
		status = types.ReceiptStatusFailed
	}
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: big.NewInt(int64(len(b.sent))),
	}
	return nil
}

// ===== bind.ContractFilterer =====

func (b *EthBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *EthBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("log subscription not supported")
}

// ===== bind.DeployBackend =====

func (b *EthBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// ChainID 实现 transport.Backend
func (b *EthBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}
