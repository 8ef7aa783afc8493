package abi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/flexsmart/sdk/abis"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
)

// BuiltinNames 可按名称获取的 ABI
var BuiltinNames = []string{
	"Erc20Token",
	"Erc20TokenAll",
	"Bep20Token",
	"Bep20TokenAll",
	"Erc777TokenBasic",
}

// Registry 按名称获取 ABI 产物
//
// 查找顺序：远端缓存 → 内置文件 → 远端地址（配置了 baseURL 时）。
// 远端拉取的原始 JSON 存入 bigcache，避免重复请求。
type Registry struct {
	files      fs.FS
	baseURL    string
	httpClient *http.Client
	cache      *bigcache.BigCache
	logger     logInterface.Logger
}

// RegistryOption 注册表选项
type RegistryOption func(*Registry)

// WithFiles 替换内置 ABI 文件系统
func WithFiles(files fs.FS) RegistryOption {
	return func(r *Registry) { r.files = files }
}

// WithBaseURL 设置远端 ABI 地址，按 <baseURL>/<name>.json 拉取
func WithBaseURL(baseURL string) RegistryOption {
	return func(r *Registry) { r.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient 设置 HTTP 客户端
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) { r.httpClient = c }
}

// WithRegistryLogger 设置日志记录器
func WithRegistryLogger(logger logInterface.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry 创建 ABI 注册表
func NewRegistry(ctx context.Context, ttl time.Duration, opts ...RegistryOption) (*Registry, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 64
	cfg.HardMaxCacheSize = 8 // MB
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create abi cache: %w", err)
	}

	r := &Registry{
		files:      abis.FS,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		logger:     logimpl.NewModuleLogger(logimpl.GetLogger(), "abi"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Names 返回可用的 ABI 名称（已排序）
func (r *Registry) Names() []string {
	names := make([]string, len(BuiltinNames))
	copy(names, BuiltinNames)
	sort.Strings(names)
	return names
}

// Lookup 按名称获取 ABI 产物
func (r *Registry) Lookup(ctx context.Context, name string) (*Artifact, error) {
	if !isBuiltin(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownABI, name)
	}

	if data, err := r.cache.Get(name); err == nil {
		return r.parse(name, data)
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, fmt.Errorf("read abi cache: %w", err)
	}

	if data, err := fs.ReadFile(r.files, name+".json"); err == nil {
		return r.parse(name, data)
	}

	if r.baseURL == "" {
		return nil, fmt.Errorf("%w: %s not bundled and no remote configured", ErrUnknownABI, name)
	}

	data, err := r.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	artifact, err := r.parse(name, data)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(name, data); err != nil {
		r.logger.Warnf("缓存 ABI 失败 name=%s: %v", name, err)
	}
	return artifact, nil
}

// Close 释放缓存
func (r *Registry) Close() error {
	return r.cache.Close()
}

func (r *Registry) fetch(ctx context.Context, name string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s.json", r.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch abi %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch abi %s: http status %d", name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read abi %s: %w", name, err)
	}

	r.logger.GetZapLogger().Debug("fetched remote abi", zap.String("name", name), zap.Int("bytes", len(data)))
	return data, nil
}

func (r *Registry) parse(name string, data []byte) (*Artifact, error) {
	artifact, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("parse abi %s: %w", name, err)
	}
	if artifact.ContractName == "" {
		artifact.ContractName = name
	}
	return artifact, nil
}

func isBuiltin(name string) bool {
	for _, n := range BuiltinNames {
		if n == name {
			return true
		}
	}
	return false
}
