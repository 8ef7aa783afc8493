// Package cache 按合约地址缓存类型化客户端
//
// 同一地址在缓存生命周期内只对应一个客户端实例：插入与连接广播共用一把锁，
// 先到者的客户端被保留，之后的请求（即使带着不同的 ABI）拿到的都是它。
// 默认不限容量；设置容量后按 LRU 淘汰，被淘汰的客户端不再接收连接广播。
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/contract"
	"github.com/flexsmart/sdk/client/core/metrics"
	"github.com/flexsmart/sdk/client/core/typed"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

// ErrInvalidAddress 合约地址格式错误
var ErrInvalidAddress = errors.New("invalid contract address")

// Option 缓存选项
type Option func(*Cache)

// WithCapacity 限制缓存条目数（<=0 表示不限）
func WithCapacity(n int) Option {
	return func(c *Cache) { c.capacity = n }
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics 设置监控指标（默认沿用连接上下文的指标）
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClientOptions 创建客户端时附带的选项
func WithClientOptions(opts ...typed.Option) Option {
	return func(c *Cache) { c.clientOpts = append(c.clientOpts, opts...) }
}

// Cache 类型化客户端缓存
type Cache struct {
	mu      sync.Mutex
	conn    *connection.Context
	entries map[string]*typed.Client         // 不限容量时使用
	bounded *lru.Cache[string, *typed.Client] // 限容量时使用

	capacity   int
	clientOpts []typed.Option
	metrics    *metrics.Metrics
	logger     logInterface.Logger
}

// New 创建缓存，conn 为新客户端绑定的连接
func New(conn *connection.Context, opts ...Option) (*Cache, error) {
	if conn == nil {
		return nil, fmt.Errorf("client cache: nil connection")
	}

	c := &Cache{
		conn:    conn,
		metrics: conn.Metrics(),
		logger:  logimpl.NewModuleLogger(logimpl.GetLogger(), "cache"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.capacity > 0 {
		bounded, err := lru.NewWithEvict(c.capacity, c.onEvict)
		if err != nil {
			return nil, fmt.Errorf("create lru: %w", err)
		}
		c.bounded = bounded
	} else {
		c.entries = make(map[string]*typed.Client)
	}
	return c, nil
}

// onEvict 在持有 c.mu 时由 LRU 回调
func (c *Cache) onEvict(key string, _ *typed.Client) {
	c.logger.Infof("客户端已淘汰 address=%s", key)
}

// GetOrCreate 返回地址对应的客户端，不存在时用 desc 创建
//
// 已存在的条目原样返回，desc 被忽略。创建过程不访问网络。
func (c *Cache) GetOrCreate(address string, desc *abi.Description) (*typed.Client, error) {
	key, err := normalizeKey(address)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.get(key); ok {
		return existing, nil
	}

	h, err := contract.New(key, desc, c.conn)
	if err != nil {
		return nil, err
	}
	client, err := typed.New(h, c.clientOpts...)
	if err != nil {
		return nil, err
	}

	c.put(key, client)
	c.metrics.SetCacheSize(c.len())
	c.logger.Debugf("客户端已创建 address=%s", key)
	return client, nil
}

// Get 查找已缓存的客户端
func (c *Cache) Get(address string) (*typed.Client, bool) {
	key, err := normalizeKey(address)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Broadcast 切换到新连接，并通知每个已缓存的客户端
//
// 与 GetOrCreate 互斥：广播期间创建的客户端要么在广播之前插入并被通知，
// 要么在广播之后插入并直接绑定新连接。
func (c *Cache) Broadcast(conn *connection.Context) error {
	if conn == nil {
		return fmt.Errorf("client cache: nil connection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	var errs []error
	for _, client := range c.all() {
		if err := client.OnConnectionChanged(conn); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", client.Address(), err))
		}
	}
	c.logger.Debugf("连接已广播 clients=%d generation=%d", c.len(), conn.Generation())
	return errors.Join(errs...)
}

// Len 缓存条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.len()
}

// Connection 新客户端将绑定的连接
func (c *Cache) Connection() *connection.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// ===== 存储（调用方持有 c.mu） =====

func (c *Cache) get(key string) (*typed.Client, bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}
	client, ok := c.entries[key]
	return client, ok
}

func (c *Cache) put(key string, client *typed.Client) {
	if c.bounded != nil {
		c.bounded.Add(key, client)
		return
	}
	c.entries[key] = client
}

func (c *Cache) all() []*typed.Client {
	if c.bounded != nil {
		return c.bounded.Values()
	}
	out := make([]*typed.Client, 0, len(c.entries))
	for _, client := range c.entries {
		out = append(out, client)
	}
	return out
}

func (c *Cache) len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.entries)
}

// normalizeKey 校验地址并转换为校验和格式
func normalizeKey(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}
