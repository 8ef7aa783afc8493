// Package transport provides network transport abstractions for contract clients.
//
// 客户端与链的所有交互都经由本包接口：
//   - Provider：只读连接，创建只读调用面（Caller）
//   - Signer：签名身份，携带自己的 Provider，创建交易调用面（Transactor）
//
// go-ethereum 适配实现见 eth.go；测试替身见 testutil 包。
package transport

import (
	"context"
	"errors"
	"math/big"

	"github.com/flexsmart/sdk/client/core/abi"
)

var (
	// ErrReverted 交易已上链但执行失败（status == 0）
	ErrReverted = errors.New("transaction reverted")

	// ErrUnknownMethod ABI 中不存在该方法键
	ErrUnknownMethod = errors.New("unknown method")
)

// Provider 只读连接
type Provider interface {
	// ChainID 获取链ID
	ChainID(ctx context.Context) (*big.Int, error)

	// NewCaller 创建绑定到合约地址的只读调用面
	NewCaller(address string, desc *abi.Description) (Caller, error)
}

// Signer 签名身份
type Signer interface {
	// Address 获取签名地址（可能访问网络，例如外部钱包）
	Address(ctx context.Context) (string, error)

	// Provider 签名者自带的连接；没有时返回 nil
	Provider() Provider

	// NewTransactor 创建绑定到合约地址的交易调用面
	NewTransactor(address string, desc *abi.Description) (Transactor, error)
}

// Caller 只读调用面（eth_call）
type Caller interface {
	// Call 调用只读方法，method 为 ABI 方法键（重载为 name0、name1……）
	Call(ctx context.Context, method string, args []interface{}) ([]interface{}, error)
}

// Transactor 交易调用面
type Transactor interface {
	// Transact 构建、签名并提交交易；返回时交易已被节点接受，尚未确认
	Transact(ctx context.Context, method string, args []interface{}) (PendingTx, error)
}

// PendingTx 已提交、等待确认的交易
type PendingTx interface {
	// Hash 交易哈希
	Hash() string

	// Wait 等待交易确认并返回回执
	// 执行失败时返回回执与 ErrReverted
	Wait(ctx context.Context) (*Receipt, error)
}

// Receipt 交易回执
type Receipt struct {
	TxHash          string `json:"tx_hash"`
	BlockNumber     uint64 `json:"block_number"`
	Status          uint64 `json:"status"`
	GasUsed         uint64 `json:"gas_used"`
	ContractAddress string `json:"contract_address,omitempty"`
}

// Succeeded 交易是否执行成功
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}
