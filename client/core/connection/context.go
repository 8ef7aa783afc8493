// Package connection 维护 SDK 当前的连接身份
//
// 连接身份由只读连接（Provider）与可选的签名者（Signer）组成。
// 合约句柄从同一个快照（Binding）构建只读调用面与交易调用面；
// 身份切换时整体替换快照，读者永远看不到"新 Provider + 旧 Signer"的混合状态。
package connection

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flexsmart/sdk/client/core/events"
	"github.com/flexsmart/sdk/client/core/metrics"
	"github.com/flexsmart/sdk/client/core/transport"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

var (
	// ErrNoSigner 当前连接没有签名者，不能发送交易
	ErrNoSigner = errors.New("no signer bound to connection")

	// ErrNoProvider 身份既没有 Provider，签名者也不带 Provider
	ErrNoProvider = errors.New("no provider available")
)

// Identity 调用方提供的连接身份
type Identity struct {
	Provider transport.Provider
	Signer   transport.Signer
}

// ReadOnly 只读身份
func ReadOnly(p transport.Provider) Identity {
	return Identity{Provider: p}
}

// Signing 签名身份；只读调用走签名者自带的 Provider
func Signing(s transport.Signer) Identity {
	return Identity{Signer: s}
}

// Binding 某一时刻的连接快照，创建后不可变
type Binding struct {
	Provider   transport.Provider
	Signer     transport.Signer
	Generation uint64
}

// HasSigner 快照是否带签名者
func (b *Binding) HasSigner() bool {
	return b != nil && b.Signer != nil
}

// Option 连接上下文选项
type Option func(*Context)

// WithEvents 设置事件总线；同一总线会被合约句柄沿用
func WithEvents(bus *events.Bus) Option {
	return func(c *Context) { c.bus = bus }
}

// WithMetrics 设置监控指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Context 连接上下文
type Context struct {
	current atomic.Pointer[Binding]
	mu      sync.Mutex // 串行化 Update，保证代数单调递增

	bus     *events.Bus
	metrics *metrics.Metrics
	logger  logInterface.Logger
}

// New 创建连接上下文
func New(id Identity, opts ...Option) (*Context, error) {
	c := &Context{
		logger: logimpl.NewModuleLogger(logimpl.GetLogger(), "connection"),
	}
	for _, opt := range opts {
		opt(c)
	}

	p, s, err := resolve(id)
	if err != nil {
		return nil, err
	}
	c.current.Store(&Binding{Provider: p, Signer: s, Generation: 1})
	return c, nil
}

// resolve 解析身份
//
// 签名者自带 Provider 时优先使用；否则使用显式 Provider，签名者（若有）照常保留。
func resolve(id Identity) (transport.Provider, transport.Signer, error) {
	if id.Signer != nil {
		if p := id.Signer.Provider(); p != nil {
			return p, id.Signer, nil
		}
	}
	if id.Provider != nil {
		return id.Provider, id.Signer, nil
	}
	return nil, nil, ErrNoProvider
}

// Update 整体替换连接身份
//
// 解析失败时原快照保持不变。
func (c *Context) Update(id Identity) error {
	p, s, err := resolve(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	next := &Binding{Provider: p, Signer: s, Generation: c.current.Load().Generation + 1}
	c.current.Store(next)
	c.mu.Unlock()

	c.metrics.IncRebind()
	c.logger.Infof("连接身份已切换 generation=%d signer=%t", next.Generation, next.HasSigner())
	c.bus.Publish(events.TopicConnectionChanged, events.ConnectionChanged{
		Generation: next.Generation,
		HasSigner:  next.HasSigner(),
		At:         time.Now(),
	})
	return nil
}

// Snapshot 返回当前快照
func (c *Context) Snapshot() *Binding {
	return c.current.Load()
}

// Generation 当前快照代数
func (c *Context) Generation() uint64 {
	return c.current.Load().Generation
}

// Provider 当前只读连接
func (c *Context) Provider() transport.Provider {
	return c.current.Load().Provider
}

// Signer 当前签名者；没有时返回 ErrNoSigner
func (c *Context) Signer() (transport.Signer, error) {
	s := c.current.Load().Signer
	if s == nil {
		return nil, ErrNoSigner
	}
	return s, nil
}

// SignerAddress 当前签名地址
func (c *Context) SignerAddress(ctx context.Context) (string, error) {
	s, err := c.Signer()
	if err != nil {
		return "", err
	}
	addr, err := s.Address(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve signer address: %w", err)
	}
	return addr, nil
}

// ChainID 当前连接的链ID
func (c *Context) ChainID(ctx context.Context) (*big.Int, error) {
	return c.current.Load().Provider.ChainID(ctx)
}

// Events 事件总线（可能为 nil）
func (c *Context) Events() *events.Bus {
	return c.bus
}

// Metrics 监控指标（可能为 nil）
func (c *Context) Metrics() *metrics.Metrics {
	return c.metrics
}

// Logger 日志记录器
func (c *Context) Logger() logInterface.Logger {
	return c.logger
}
