// Package client 是 Flexsmart SDK 的统一入口
//
// Session 把连接上下文、客户端缓存、ABI 注册表、事件总线与监控指标组装在一起：
// 按地址获取类型化客户端，切换连接身份时把新身份广播给所有已创建的客户端。
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/cache"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/deployment"
	"github.com/flexsmart/sdk/client/core/events"
	"github.com/flexsmart/sdk/client/core/metrics"
	"github.com/flexsmart/sdk/client/core/transport"
	"github.com/flexsmart/sdk/client/core/typed"
	"github.com/flexsmart/sdk/client/core/wallet"
	"github.com/flexsmart/sdk/client/pkg/config"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

var (
	// ErrNoRegistry 会话未配置 ABI 注册表
	ErrNoRegistry = errors.New("session has no abi registry")

	// ErrNoStore 会话未配置部署记录存储
	ErrNoStore = errors.New("session has no deployment store")
)

// TokenABI Token 使用的内置 ABI
const TokenABI = "Erc20TokenAll"

// Option 会话选项
type Option func(*Session)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics 设置监控指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithEvents 设置事件总线
func WithEvents(bus *events.Bus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithCacheCapacity 限制客户端缓存容量，<=0 表示不限
func WithCacheCapacity(n int) Option {
	return func(s *Session) { s.capacity = n }
}

// WithRegistry 设置 ABI 注册表；会话关闭时一并关闭
func WithRegistry(r *abi.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithStore 设置部署记录存储
func WithStore(store deployment.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithClientOptions 附加类型化客户端选项
func WithClientOptions(opts ...typed.Option) Option {
	return func(s *Session) { s.clientOpts = append(s.clientOpts, opts...) }
}

// Session SDK 会话
type Session struct {
	id       string
	conn     *connection.Context
	cache    *cache.Cache
	registry *abi.Registry
	store    deployment.Store

	bus        *events.Bus
	metrics    *metrics.Metrics
	logger     logInterface.Logger
	capacity   int
	clientOpts []typed.Option

	closers []func()
}

// NewSession 以给定身份创建会话（不访问网络）
func NewSession(id connection.Identity, opts ...Option) (*Session, error) {
	s := &Session{
		id:     uuid.NewString(),
		bus:    events.New(),
		logger: logimpl.NewModuleLogger(logimpl.GetLogger(), "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)

	conn, err := connection.New(id,
		connection.WithEvents(s.bus),
		connection.WithMetrics(s.metrics),
		connection.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	s.conn = conn

	clientOpts := append([]typed.Option{typed.WithLogger(s.logger)}, s.clientOpts...)
	c, err := cache.New(conn,
		cache.WithCapacity(s.capacity),
		cache.WithLogger(s.logger),
		cache.WithMetrics(s.metrics),
		cache.WithClientOptions(clientOpts...),
	)
	if err != nil {
		return nil, fmt.Errorf("create client cache: %w", err)
	}
	s.cache = c

	s.logger.Infof("会话已创建 signer=%t capacity=%d", conn.Snapshot().HasSigner(), s.capacity)
	return s, nil
}

// NewSessionFromKey 按配置连接节点，以环境变量中的私钥或助记词作为签名身份
//
// 两者都未设置时以只读身份创建会话。配置了 RegistryURL 时同时创建远端 ABI 注册表。
func NewSessionFromKey(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	provider, err := transport.Dial(ctx, cfg.DialConfig())
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	id, err := identityFromConfig(cfg, provider)
	if err != nil {
		provider.Close()
		return nil, err
	}

	registry, err := abi.NewRegistry(ctx, cfg.RegistryTTL.Duration(), registryOptions(cfg)...)
	if err != nil {
		provider.Close()
		return nil, err
	}

	base := []Option{WithRegistry(registry), WithCacheCapacity(cfg.CacheCapacity)}
	s, err := NewSession(id, append(base, opts...)...)
	if err != nil {
		_ = registry.Close()
		provider.Close()
		return nil, err
	}
	s.closers = append(s.closers, provider.Close)
	return s, nil
}

// identityFromConfig 私钥优先，其次助记词，都没有时只读
func identityFromConfig(cfg *config.Config, provider *transport.EthProvider) (connection.Identity, error) {
	key, err := cfg.PrivateKey()
	if err == nil {
		signer, err := wallet.NewKeySigner(key, provider)
		if err != nil {
			return connection.Identity{}, err
		}
		return connection.Signing(signer), nil
	}
	if !errors.Is(err, config.ErrNoPrivateKey) {
		return connection.Identity{}, err
	}

	mnemonic, err := cfg.Mnemonic()
	if errors.Is(err, config.ErrNoMnemonic) {
		return connection.ReadOnly(provider), nil
	}
	if err != nil {
		return connection.Identity{}, err
	}
	signer, err := wallet.NewMnemonicSigner(mnemonic, "", cfg.DerivationPath, provider)
	if err != nil {
		return connection.Identity{}, err
	}
	return connection.Signing(signer), nil
}

func registryOptions(cfg *config.Config) []abi.RegistryOption {
	if cfg.RegistryURL == "" {
		return nil
	}
	return []abi.RegistryOption{abi.WithBaseURL(cfg.RegistryURL)}
}

// ===== 连接身份 =====

// UpdateIdentity 切换连接身份，并广播给所有已创建的客户端
//
// 身份解析失败时什么都不变。广播中个别客户端失败不影响其他客户端，错误合并返回。
func (s *Session) UpdateIdentity(id connection.Identity) error {
	if err := s.conn.Update(id); err != nil {
		return err
	}
	if err := s.cache.Broadcast(s.conn); err != nil {
		s.logger.Warnf("部分客户端重新绑定失败: %v", err)
		return err
	}
	return nil
}

// ===== 合约客户端 =====

// Contract 返回地址对应的类型化客户端；同一地址始终返回同一实例
func (s *Session) Contract(address string, desc *abi.Description) (*typed.Client, error) {
	return s.cache.GetOrCreate(address, desc)
}

// ContractByName 以注册表中的 ABI 获取客户端
//
// 地址已有客户端时直接返回，不查询注册表。
func (s *Session) ContractByName(ctx context.Context, address, name string) (*typed.Client, error) {
	if c, ok := s.cache.Get(address); ok {
		return c, nil
	}
	if s.registry == nil {
		return nil, ErrNoRegistry
	}

	artifact, err := s.registry.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrCreate(address, artifact.ABI)
}

// Token 以内置 ERC-20 ABI 获取代币门面
func (s *Session) Token(ctx context.Context, address string) (*typed.ERC20, error) {
	c, err := s.ContractByName(ctx, address, TokenABI)
	if err != nil {
		return nil, err
	}
	return typed.NewERC20(c), nil
}

// ===== 部署记录 =====

// RecordDeployment 以当前连接的链 ID 补全部署记录并保存
func (s *Session) RecordDeployment(ctx context.Context, b *deployment.Builder, network string) (*deployment.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	chainID, err := s.conn.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve chain id: %w", err)
	}
	record, err := b.WithChain(chainID, network).Build()
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save deployment %s: %w", record.Transaction, err)
	}
	s.logger.Infof("部署记录已保存 name=%s chain=%s tx=%s status=%s",
		record.Name, record.Chain, record.Transaction, record.Status)
	return record, nil
}

// ===== 访问器 =====

// ID 会话 ID，出现在本会话的所有日志中
func (s *Session) ID() string {
	return s.id
}

// Connection 连接上下文
func (s *Session) Connection() *connection.Context {
	return s.conn
}

// Cache 客户端缓存
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// Registry ABI 注册表，可能为 nil
func (s *Session) Registry() *abi.Registry {
	return s.registry
}

// Events 事件总线
func (s *Session) Events() *events.Bus {
	return s.bus
}

// Close 释放注册表与连接
func (s *Session) Close() error {
	var err error
	if s.registry != nil {
		err = s.registry.Close()
	}
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
	_ = s.logger.Sync()
	return err
}
