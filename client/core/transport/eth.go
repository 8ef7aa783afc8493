package transport

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/flexsmart/sdk/client/core/abi"
)

// Backend go-ethereum 合约后端
// *ethclient.Client 直接满足该接口
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend

	// ChainID 获取链ID
	ChainID(ctx context.Context) (*big.Int, error)
}

// AuthFunc 按需生成交易签名参数
type AuthFunc func(ctx context.Context) (*bind.TransactOpts, error)

// EthProvider 基于 go-ethereum 的 Provider 实现
type EthProvider struct {
	backend Backend
	closer  func()

	mu      sync.Mutex
	chainID *big.Int
}

// NewEthProvider 包装任意 go-ethereum 后端
func NewEthProvider(backend Backend) *EthProvider {
	return &EthProvider{backend: backend}
}

// Backend 返回底层后端
func (p *EthProvider) Backend() Backend {
	return p.backend
}

// ChainID 获取链ID（首次查询后缓存）
func (p *EthProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chainID != nil {
		return new(big.Int).Set(p.chainID), nil
	}

	id, err := p.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	p.chainID = new(big.Int).Set(id)
	return id, nil
}

// NewCaller 创建只读调用面
func (p *EthProvider) NewCaller(address string, desc *abi.Description) (Caller, error) {
	contract, err := p.bind(address, desc)
	if err != nil {
		return nil, err
	}
	return &ethCaller{contract: contract, desc: desc}, nil
}

// NewTransactor 创建交易调用面，签名参数由 auth 在每次提交时提供
func (p *EthProvider) NewTransactor(address string, desc *abi.Description, auth AuthFunc) (Transactor, error) {
	if auth == nil {
		return nil, fmt.Errorf("transactor for %s: nil auth", address)
	}
	contract, err := p.bind(address, desc)
	if err != nil {
		return nil, err
	}
	return &ethTransactor{contract: contract, desc: desc, auth: auth, backend: p.backend}, nil
}

// Close 关闭底层连接（仅对 Dial 创建的连接有效）
func (p *EthProvider) Close() {
	if p.closer != nil {
		p.closer()
	}
}

func (p *EthProvider) bind(address string, desc *abi.Description) (*bind.BoundContract, error) {
	if desc == nil || desc.Ethereum() == nil {
		return nil, fmt.Errorf("bind %s: nil abi", address)
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("bind: %q is not a hex address", address)
	}
	addr := common.HexToAddress(address)
	return bind.NewBoundContract(addr, *desc.Ethereum(), p.backend, p.backend, p.backend), nil
}

// ===== 只读调用面 =====

type ethCaller struct {
	contract *bind.BoundContract
	desc     *abi.Description
}

func (c *ethCaller) Call(ctx context.Context, method string, args []interface{}) ([]interface{}, error) {
	m, ok := c.desc.Ethereum().Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	params, err := CoerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

// ===== 交易调用面 =====

type ethTransactor struct {
	contract *bind.BoundContract
	desc     *abi.Description
	auth     AuthFunc
	backend  bind.DeployBackend
}

func (t *ethTransactor) Transact(ctx context.Context, method string, args []interface{}) (PendingTx, error) {
	m, ok := t.desc.Ethereum().Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	params, err := CoerceArgs(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", method, err)
	}

	auth, err := t.auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", method, err)
	}
	opts := *auth
	opts.Context = ctx

	tx, err := t.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", method, err)
	}
	return &ethPendingTx{tx: tx, backend: t.backend}, nil
}

type ethPendingTx struct {
	tx      *types.Transaction
	backend bind.DeployBackend
}

func (p *ethPendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *ethPendingTx) Wait(ctx context.Context) (*Receipt, error) {
	r, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return nil, err
	}

	receipt := ReceiptFromEth(r)
	if r.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, receipt.TxHash)
	}
	return receipt, nil
}

// ReceiptFromEth 转换 go-ethereum 回执
func ReceiptFromEth(r *types.Receipt) *Receipt {
	if r == nil {
		return nil
	}
	out := &Receipt{
		TxHash:  r.TxHash.Hex(),
		Status:  r.Status,
		GasUsed: r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	if r.ContractAddress != (common.Address{}) {
		out.ContractAddress = r.ContractAddress.Hex()
	}
	return out
}
