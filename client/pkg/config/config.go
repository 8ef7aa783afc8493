// Package config provides configuration management functionality for client operations.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flexsmart/sdk/client/core/transport"
	logconfig "github.com/flexsmart/sdk/internal/config/log"
)

var (
	// ErrNoPrivateKey 私钥环境变量未设置
	ErrNoPrivateKey = errors.New("private key not set")

	// ErrNoMnemonic 助记词环境变量未设置
	ErrNoMnemonic = errors.New("mnemonic not set")
)

// Config SDK 配置
type Config struct {
	// 节点配置
	Endpoints   []transport.EndpointConfig `json:"endpoints"`    // RPC 端点，按优先级尝试
	DialTimeout Duration                   `json:"dial_timeout"` // 单个端点的连接超时

	// 签名配置
	PrivateKeyEnv  string `json:"private_key_env"` // 私钥所在的环境变量名，私钥本身不落盘
	MnemonicEnv    string `json:"mnemonic_env"`    // 助记词所在的环境变量名，未设置私钥时使用
	DerivationPath string `json:"derivation_path"` // 助记词派生路径，为空时使用 m/44'/60'/0'/0/0

	// 代码生成配置
	ABIDir  string `json:"abi_dir"` // ABI 目录
	OutDir  string `json:"out_dir"` // 生成代码输出目录
	Package string `json:"package"` // 生成代码包名

	// 客户端配置
	CacheCapacity int      `json:"cache_capacity"` // 客户端缓存容量，<=0 表示不限
	RegistryURL   string   `json:"registry_url"`   // 远程 ABI 仓库地址，为空时只用内置 ABI
	RegistryTTL   Duration `json:"registry_ttl"`   // 远程 ABI 缓存时间

	// 日志配置
	Log *logconfig.UserLogConfig `json:"log,omitempty"`
}

// Duration 以字符串（如 "10s"）序列化的时长
type Duration time.Duration

// MarshalJSON 实现 json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON 实现 json.Unmarshaler，同时接受字符串与纳秒整数
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parsing duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Duration 转换为 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoints: []transport.EndpointConfig{
			{Name: "local", Priority: 1, URL: "http://localhost:8545"},
		},
		DialTimeout:   Duration(10 * time.Second),
		PrivateKeyEnv: "FLEXSMART_PRIVATE_KEY",
		MnemonicEnv:   "FLEXSMART_MNEMONIC",
		ABIDir:        "abis",
		OutDir:        "contracts",
		Package:       "contracts",
		CacheCapacity: 0,
		RegistryTTL:   Duration(10 * time.Minute),
	}
}

// Load 加载配置
//
// path 为空时使用默认路径；文件不存在时返回默认配置（不创建文件）。
// 文件中未填写的字段保留默认值。
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	//nolint:gosec // G304: 配置路径来自命令行参数或用户主目录
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save 保存配置
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	//nolint:gosec // G301: 配置目录需要用户可读权限，0755 是合理的
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	//nolint:gosec // G306: 配置文件不含私钥，0644 是合理的
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	for i, ep := range c.Endpoints {
		if strings.TrimSpace(ep.URL) == "" {
			return fmt.Errorf("endpoint %d (%s): empty url", i, ep.Name)
		}
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must not be negative")
	}
	if c.RegistryTTL <= 0 {
		return fmt.Errorf("registry_ttl must be positive")
	}
	if c.Package != "" && strings.ContainsAny(c.Package, " -./") {
		return fmt.Errorf("package %q is not a valid Go package name", c.Package)
	}
	if c.Log != nil && c.Log.Level != nil {
		return logconfig.ValidateLevel(*c.Log.Level)
	}
	return nil
}

// DialConfig 转换为传输层的连接配置
func (c *Config) DialConfig() transport.DialConfig {
	return transport.DialConfig{
		Endpoints: c.Endpoints,
		Timeout:   c.DialTimeout.Duration(),
	}
}

// PrivateKey 从环境变量读取私钥
func (c *Config) PrivateKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.PrivateKeyEnv))
	if c.PrivateKeyEnv == "" || key == "" {
		return "", fmt.Errorf("%w: set %s", ErrNoPrivateKey, c.PrivateKeyEnv)
	}
	return key, nil
}

// Mnemonic 从环境变量读取助记词
func (c *Config) Mnemonic() (string, error) {
	mnemonic := strings.TrimSpace(os.Getenv(c.MnemonicEnv))
	if c.MnemonicEnv == "" || mnemonic == "" {
		return "", fmt.Errorf("%w: set %s", ErrNoMnemonic, c.MnemonicEnv)
	}
	return mnemonic, nil
}

// LogConfig 日志配置
func (c *Config) LogConfig() *logconfig.Config {
	return logconfig.New(c.Log)
}

// DefaultPath 默认配置文件路径
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".flexsmart", "config.json")
}
