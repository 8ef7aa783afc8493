package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none", "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// 不创建文件
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_PartialOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoints": [{"name":"bsc","priority":2,"url":"https://bsc.example"}],
		"dial_timeout": "3s",
		"package": "bindings",
		"cache_capacity": 16,
		"log": {"level": "debug"}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://bsc.example", cfg.Endpoints[0].URL)
	assert.Equal(t, Duration(3*time.Second), cfg.DialTimeout)
	assert.Equal(t, "bindings", cfg.Package)
	assert.Equal(t, 16, cfg.CacheCapacity)
	// 未填写的字段保留默认值
	assert.Equal(t, "abis", cfg.ABIDir)
	assert.Equal(t, "FLEXSMART_PRIVATE_KEY", cfg.PrivateKeyEnv)
	assert.Equal(t, "debug", cfg.LogConfig().GetLevel())

	dial := cfg.DialConfig()
	assert.Equal(t, 3*time.Second, dial.Timeout)
	assert.Len(t, dial.Endpoints, 1)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"不是 JSON", `{`},
		{"时长非法", `{"dial_timeout":"soon"}`},
		{"端点为空", `{"endpoints":[{"name":"x","url":" "}]}`},
		{"包名非法", `{"package":"my-contracts"}`},
		{"负超时", `{"dial_timeout":-1}`},
		{"缓存时间为零", `{"registry_ttl":"0s"}`},
		{"日志级别非法", `{"log":{"level":"verbose"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.RegistryURL = "https://abis.example/v1"
	cfg.RegistryTTL = Duration(time.Minute)
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"registry_ttl": "1m0s"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPrivateKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrivateKeyEnv = "FLEXSMART_TEST_KEY"

	t.Setenv("FLEXSMART_TEST_KEY", "")
	_, err := cfg.PrivateKey()
	assert.ErrorIs(t, err, ErrNoPrivateKey)

	t.Setenv("FLEXSMART_TEST_KEY", " 0xabc ")
	key, err := cfg.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, "0xabc", key)

	cfg.PrivateKeyEnv = ""
	_, err = cfg.PrivateKey()
	assert.ErrorIs(t, err, ErrNoPrivateKey)
}

func TestMnemonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MnemonicEnv = "FLEXSMART_TEST_MNEMONIC"

	t.Setenv("FLEXSMART_TEST_MNEMONIC", "")
	_, err := cfg.Mnemonic()
	assert.ErrorIs(t, err, ErrNoMnemonic)

	t.Setenv("FLEXSMART_TEST_MNEMONIC", "test test junk\n")
	mnemonic, err := cfg.Mnemonic()
	require.NoError(t, err)
	assert.Equal(t, "test test junk", mnemonic)
}
