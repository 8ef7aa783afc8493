// Package deployment 描述已部署合约的元数据记录
//
// 记录由 Builder 从部署参数与交易回执组装，数值字段统一为最小单位的十进制字符串；
// 持久化通过 Store 接口交给外部实现。
package deployment

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/constants"
	"github.com/flexsmart/sdk/client/core/transport"
	"github.com/flexsmart/sdk/client/core/units"
)

// Status 部署状态
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// ErrIncompleteRecord 记录缺少必填字段
var ErrIncompleteRecord = errors.New("incomplete deployment record")

// Record 已部署合约的元数据
type Record struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
	Chain         string `json:"chain"`
	Network       string `json:"network"`
	InitialSupply string `json:"initialSupply"`
	Transaction   string `json:"transaction"`
	Status        Status `json:"status"`
	IsFullFeature bool   `json:"isFullFeature"`
}

// Validate 校验必填字段
func (r *Record) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: name", ErrIncompleteRecord)
	case r.Chain == "":
		return fmt.Errorf("%w: chain", ErrIncompleteRecord)
	case r.Transaction == "":
		return fmt.Errorf("%w: transaction", ErrIncompleteRecord)
	}
	return nil
}

// Store 部署记录的持久化接口
type Store interface {
	Save(ctx context.Context, record *Record) error
}

// StoreFunc 函数适配器
type StoreFunc func(ctx context.Context, record *Record) error

// Save 实现 Store
func (f StoreFunc) Save(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// Builder 部署记录构建器
type Builder struct {
	record   Record
	supply   string
	decimals uint8
}

// NewBuilder 创建构建器
func NewBuilder(name, symbol, contractType string) *Builder {
	return &Builder{record: Record{Name: name, Symbol: symbol, Type: contractType, Status: StatusPending}}
}

// WithChain 设置链 ID 与网络名
func (b *Builder) WithChain(chainID *big.Int, network string) *Builder {
	b.record.Chain = constants.ChainIDHex(chainID)
	b.record.Network = network
	return b
}

// WithSupply 设置展示单位的初始供应量与代币精度
func (b *Builder) WithSupply(initialSupply string, decimals uint8) *Builder {
	b.supply = initialSupply
	b.decimals = decimals
	return b
}

// WithFeatures 按能力标记设置 IsFullFeature
func (b *Builder) WithFeatures(f abi.Features) *Builder {
	b.record.IsFullFeature = f.IsFullFeature()
	return b
}

// WithReceipt 设置部署交易哈希与状态
func (b *Builder) WithReceipt(r *transport.Receipt) *Builder {
	if r == nil {
		return b
	}
	b.record.Transaction = r.TxHash
	if r.Succeeded() {
		b.record.Status = StatusConfirmed
	} else {
		b.record.Status = StatusFailed
	}
	return b
}

// WithTransaction 仅设置交易哈希（回执尚未取得时）
func (b *Builder) WithTransaction(hash string) *Builder {
	b.record.Transaction = hash
	return b
}

// Build 组装并校验记录
func (b *Builder) Build() (*Record, error) {
	r := b.record
	if b.supply != "" {
		supply, err := units.ToSupply(b.supply, b.decimals)
		if err != nil {
			return nil, err
		}
		r.InitialSupply = supply
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
