package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logconfig "github.com/flexsmart/sdk/internal/config/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFileOutput 测试文件输出为 JSON 且包含结构化字段
func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sdk.log")
	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:    "info",
		FilePath: path,
		MaxSize:  1,
	}))
	require.NoError(t, err)

	logger.Named("contract").With("address", "0xabc").Info("交易已提交", "tx_hash", "0x01")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "交易已提交", entry["message"])
	assert.Equal(t, "contract", entry["module"])
	assert.Equal(t, "0xabc", entry["address"])
	assert.Equal(t, "0x01", entry["tx_hash"])
	assert.Equal(t, "info", entry["level"])
}

// TestLevelFiltering 测试日志级别过滤
func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdk.log")
	logger, err := New(logconfig.New(&logconfig.LogOptions{Level: "warn", FilePath: path}))
	require.NoError(t, err)

	logger.Info("不应出现")
	logger.Warnf("应出现 %d", 1)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "不应出现")
	assert.Contains(t, string(data), "应出现 1")
}

// TestNoOutputConfigured 测试未配置任何输出时返回 Nop 记录器
func TestNoOutputConfigured(t *testing.T) {
	logger, err := New(logconfig.New(&logconfig.LogOptions{Level: "info"}))
	require.NoError(t, err)
	assert.NotPanics(t, func() { logger.Error("dropped") })
}

// TestNewModuleLogger 测试 module 字段附加与 nil 安全
func TestNewModuleLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := Wrap(zap.New(core))

	NewModuleLogger(base, "cache").Debugf("entries=%d", 3)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "entries=3", entry.Message)
	assert.Equal(t, "cache", entry.ContextMap()["module"])

	assert.NotNil(t, NewModuleLogger(nil, "cache"))
}

// TestStructuredFields 测试键值对字段转换
func TestStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.Warn("rpc 超时", "endpoint", "bsc", 3, "attempts", "dangling")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "bsc", fields["endpoint"])
	assert.Equal(t, "attempts", fields["3"])
	assert.Equal(t, "dangling", fields["!BADKEY"])

	logger.Debug("无字段")
	assert.Empty(t, logs.All()[1].Context)
}

// TestCallerPointsAtCallSite 测试封装方法与原生 zap 调用都记录真实调用位置
func TestCallerPointsAtCallSite(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := Wrap(zap.New(core, zap.AddCaller()))

	logger.Info("kv")
	logger.Infof("sugar %d", 1)
	logger.With("k", "v").Warn("child")
	logger.GetZapLogger().Info("raw")

	require.Equal(t, 4, logs.Len())
	for _, e := range logs.All() {
		require.True(t, e.Caller.Defined, e.Message)
		assert.Equal(t, "log_test.go", filepath.Base(e.Caller.File), e.Message)
	}
}

// TestGlobalLogger 测试全局记录器替换
func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	nop := NewNop()
	SetLogger(nop)
	assert.Same(t, nop, GetLogger())

	SetLogger(nil)
	assert.Same(t, nop, GetLogger())
}

// TestModule 测试 fx 模块提供日志服务
func TestModule(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	var logger logInterface.Logger
	var zapLogger *zap.Logger
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&logconfig.LogOptions{Level: "debug"}),
		Module(),
		fx.Populate(&logger, &zapLogger),
	)
	require.NoError(t, app.Err())
	assert.NotNil(t, logger)
	assert.NotNil(t, zapLogger)
	assert.Same(t, logger, GetLogger())
}
