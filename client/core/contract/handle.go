// Package contract 提供绑定到链上合约地址的调用句柄
//
// 句柄持有一对调用面：只读调用面（走连接的 Provider）与交易调用面（走 Signer，
// 只读身份下为空）。两者总是从同一个连接快照构建，并在 Refresh 时一次性替换；
// 进行中的调用继续使用它开始时取到的那一对。
package contract

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/events"
	"github.com/flexsmart/sdk/client/core/metrics"
	"github.com/flexsmart/sdk/client/core/transport"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

// surfaces 一对调用面及其来源快照
type surfaces struct {
	conn       *connection.Context
	generation uint64
	caller     transport.Caller
	transactor transport.Transactor // 只读身份下为 nil
	signer     transport.Signer
}

// Option 句柄选项
type Option func(*Handle)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithEvents 设置事件总线（默认沿用连接上下文的总线）
func WithEvents(bus *events.Bus) Option {
	return func(h *Handle) { h.bus = bus }
}

// WithMetrics 设置监控指标（默认沿用连接上下文的指标）
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handle) { h.metrics = m }
}

// Handle 合约句柄
type Handle struct {
	address string
	desc    *abi.Description

	current atomic.Pointer[surfaces]
	mu      sync.Mutex // 串行化 Refresh

	bus     *events.Bus
	metrics *metrics.Metrics
	logger  logInterface.Logger
}

// New 创建合约句柄，两个调用面来自 conn 的同一个快照
func New(address string, desc *abi.Description, conn *connection.Context, opts ...Option) (*Handle, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	if desc == nil || desc.Ethereum() == nil {
		return nil, fmt.Errorf("contract %s: nil abi", address)
	}
	if conn == nil {
		return nil, fmt.Errorf("contract %s: nil connection", address)
	}

	checksummed := common.HexToAddress(address).Hex()
	h := &Handle{
		address: checksummed,
		desc:    desc,
		bus:     conn.Events(),
		metrics: conn.Metrics(),
		logger:  logimpl.NewModuleLogger(logimpl.GetLogger(), "contract").With("address", checksummed),
	}
	for _, opt := range opts {
		opt(h)
	}

	s, err := h.build(conn)
	if err != nil {
		return nil, err
	}
	h.current.Store(s)
	return h, nil
}

// build 从连接的当前快照构建一对调用面（不访问网络）
func (h *Handle) build(conn *connection.Context) (*surfaces, error) {
	b := conn.Snapshot()

	caller, err := b.Provider.NewCaller(h.address, h.desc)
	if err != nil {
		return nil, fmt.Errorf("bind read surface: %w", err)
	}

	s := &surfaces{
		conn:       conn,
		generation: b.Generation,
		caller:     caller,
		signer:     b.Signer,
	}
	if b.Signer != nil {
		tr, err := b.Signer.NewTransactor(h.address, h.desc)
		if err != nil {
			return nil, fmt.Errorf("bind write surface: %w", err)
		}
		s.transactor = tr
	}
	return s, nil
}

// Refresh 按连接的最新快照重建两个调用面，并一次性替换
//
// 同一连接、同一代数下重复调用不做任何事，返回 false。地址与 ABI 不变。
func (h *Handle) Refresh(conn *connection.Context) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("contract %s: nil connection", h.address)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.current.Load()
	if cur.conn == conn && cur.generation == conn.Generation() {
		return false, nil
	}

	s, err := h.build(conn)
	if err != nil {
		return false, err
	}
	h.current.Store(s)
	h.logger.Debugf("调用面已重建 generation=%d signer=%t", s.generation, s.signer != nil)
	return true, nil
}

// Invoke 发送交易并等待确认
//
// 错误顺序：
//   - 函数不在 ABI 中 → *UnknownFunctionError（不访问网络）
//   - 没有签名者 → connection.ErrNoSigner（不访问网络）
//   - 提交失败 → *TransactionSubmissionError
//   - 确认失败 → *FinalityError
func (h *Handle) Invoke(ctx context.Context, name string, args []interface{}) (*transport.Receipt, error) {
	if !h.HasFunction(name) {
		h.metrics.ObserveCall("write", name, metrics.ResultUnsupported)
		return nil, &UnknownFunctionError{Contract: h.address, Name: name}
	}

	s := h.current.Load()
	if s.transactor == nil {
		h.metrics.ObserveCall("write", name, metrics.ResultUnsupported)
		return nil, connection.ErrNoSigner
	}

	callID := uuid.NewString()
	zl := h.logger.GetZapLogger().With(zap.String("call_id", callID), zap.String("method", name))

	pending, err := s.transactor.Transact(ctx, name, args)
	if err != nil {
		h.metrics.ObserveCall("write", name, metrics.ResultError)
		zl.Warn("交易提交失败", zap.Error(err))
		return nil, &TransactionSubmissionError{Method: name, Cause: err}
	}

	hash := pending.Hash()
	zl.Info("交易已提交", zap.String("tx_hash", hash))
	h.bus.Publish(events.TopicTxSubmitted, events.TxSubmitted{
		CallID:   callID,
		Contract: h.address,
		Method:   name,
		TxHash:   hash,
		At:       time.Now(),
	})

	start := time.Now()
	receipt, err := pending.Wait(ctx)
	elapsed := time.Since(start)

	finalized := events.TxFinalized{
		CallID:   callID,
		Contract: h.address,
		Method:   name,
		TxHash:   hash,
		Err:      err,
		Elapsed:  elapsed,
	}
	if receipt != nil {
		finalized.BlockNumber = receipt.BlockNumber
	}
	h.bus.Publish(events.TopicTxFinalized, finalized)

	if err != nil {
		h.metrics.ObserveCall("write", name, metrics.ResultError)
		zl.Warn("交易确认失败", zap.String("tx_hash", hash), zap.Error(err))
		return nil, &FinalityError{Method: name, TxHash: hash, Receipt: receipt, Cause: err}
	}

	h.metrics.ObserveCall("write", name, metrics.ResultSuccess)
	h.metrics.ObserveFinality(name, elapsed)
	zl.Info("交易已确认", zap.String("tx_hash", hash), zap.Uint64("block", receipt.BlockNumber))
	return receipt, nil
}

// Read 只读调用，不需要签名者
func (h *Handle) Read(ctx context.Context, name string, args []interface{}) ([]interface{}, error) {
	if !h.HasFunction(name) {
		h.metrics.ObserveCall("read", name, metrics.ResultUnsupported)
		return nil, &UnknownFunctionError{Contract: h.address, Name: name}
	}

	out, err := h.current.Load().caller.Call(ctx, name, args)
	if err != nil {
		h.metrics.ObserveCall("read", name, metrics.ResultError)
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	h.metrics.ObserveCall("read", name, metrics.ResultSuccess)
	return out, nil
}

// SignerAddress 当前调用面绑定的签名地址
func (h *Handle) SignerAddress(ctx context.Context) (string, error) {
	s := h.current.Load()
	if s.signer == nil {
		return "", connection.ErrNoSigner
	}
	return s.signer.Address(ctx)
}

// HasFunction 方法键是否存在（重载为 name、name0、name1……）
func (h *Handle) HasFunction(name string) bool {
	_, ok := h.desc.Ethereum().Methods[name]
	return ok
}

// CanWrite 当前调用面是否能发送交易
func (h *Handle) CanWrite() bool {
	return h.current.Load().transactor != nil
}

// Generation 当前调用面来源快照的代数
func (h *Handle) Generation() uint64 {
	return h.current.Load().generation
}

// Address 合约地址（EIP-55 校验和格式）
func (h *Handle) Address() string {
	return h.address
}

// ABI 合约接口描述
func (h *Handle) ABI() *abi.Description {
	return h.desc
}
