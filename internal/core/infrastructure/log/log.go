// Package log 基于 zap 的日志实现：控制台输出（stderr）、lumberjack 轮转文件输出与结构化字段
package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	logconfig "github.com/flexsmart/sdk/internal/config/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 进程级默认记录器；未经配置的 SDK 组件从这里取记录器
var (
	defaultMu     sync.RWMutex
	defaultLogger logInterface.Logger
)

// Logger zap 实现的日志记录器
//
// zapLogger 原样交给 GetZapLogger 的调用方；wrapped 与 sugar 多跳过一层封装，
// 使两种用法记录的调用位置都指向 SDK 组件。
type Logger struct {
	zapLogger *zap.Logger
	wrapped   *zap.Logger
	sugar     *zap.SugaredLogger
}

// rotatingFile 按大小轮转的日志文件
func rotatingFile(path string, cfg *logconfig.Config) (zapcore.WriteSyncer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log path %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   abs,
		MaxSize:    cfg.GetMaxSize(), // MB
		MaxBackups: cfg.GetMaxBackups(),
		MaxAge:     cfg.GetMaxAge(), // 天
		Compress:   cfg.IsCompressionEnabled(),
	}), nil
}

// sinks 按配置组装输出
//
// file_path 为 stdout/stderr 时只输出到该设备；否则控制台固定写 stderr，
// 避免与调用方写到标准输出的数据混在一起。
func sinks(cfg *logconfig.Config, level zapcore.LevelEnabler) ([]zapcore.Core, error) {
	switch path := cfg.GetFilePath(); path {
	case "stdout":
		return []zapcore.Core{zapcore.NewCore(cfg.CreateConsoleEncoder(), zapcore.Lock(os.Stdout), level)}, nil
	case "stderr":
		return []zapcore.Core{zapcore.NewCore(cfg.CreateConsoleEncoder(), zapcore.Lock(os.Stderr), level)}, nil
	default:
		var cores []zapcore.Core
		if cfg.IsConsoleEnabled() {
			cores = append(cores, zapcore.NewCore(cfg.CreateConsoleEncoder(), zapcore.Lock(os.Stderr), level))
		}
		if path != "" {
			ws, err := rotatingFile(path, cfg)
			if err != nil {
				return nil, err
			}
			cores = append(cores, zapcore.NewCore(cfg.CreateFileEncoder(), ws, level))
		}
		return cores, nil
	}
}

// New 按配置创建记录器；没有任何输出时返回 Nop
func New(cfg *logconfig.Config) (logInterface.Logger, error) {
	if cfg == nil {
		cfg = logconfig.New(nil)
	}

	cores, err := sinks(cfg, zap.NewAtomicLevelAt(cfg.GetZapLevel()))
	if err != nil {
		return nil, err
	}
	if len(cores) == 0 {
		return NewNop(), nil
	}

	var opts []zap.Option
	if cfg.IsCallerEnabled() {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.IsStacktraceEnabled() {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return Wrap(zap.New(zapcore.NewTee(cores...), opts...)), nil
}

// NewNop 丢弃所有输出
func NewNop() logInterface.Logger {
	return Wrap(zap.NewNop())
}

// Wrap 将已有的 zap.Logger 包装为日志接口
func Wrap(zapLogger *zap.Logger) logInterface.Logger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	wrapped := zapLogger.WithOptions(zap.AddCallerSkip(1))
	return &Logger{
		zapLogger: zapLogger,
		wrapped:   wrapped,
		sugar:     wrapped.Sugar(),
	}
}

// NewModuleLogger 返回带 module 字段的子记录器，base 为 nil 时返回 Nop
func NewModuleLogger(base logInterface.Logger, module string) logInterface.Logger {
	if base == nil {
		return NewNop()
	}
	return base.Named(module)
}

// SetLogger 替换进程级默认记录器，nil 被忽略
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// GetLogger 进程级默认记录器；未设置时为 Nop，库默认不产生输出
func GetLogger() logInterface.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultLogger == nil {
		return NewNop()
	}
	return defaultLogger
}

// toZapFields 键值对转 zap 字段；落单的末尾键记为 "!BADKEY"
func toZapFields(kv ...interface{}) []zap.Field {
	if len(kv) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, (len(kv)+1)/2)
	for len(kv) > 0 {
		key, ok := kv[0].(string)
		if !ok {
			key = fmt.Sprint(kv[0])
		}
		if len(kv) == 1 {
			fields = append(fields, zap.Any("!BADKEY", key))
			break
		}
		fields = append(fields, zap.Any(key, kv[1]))
		kv = kv[2:]
	}
	return fields
}

// ===== 日志方法 =====

func (l *Logger) Debug(msg string, kv ...interface{}) { l.wrapped.Debug(msg, toZapFields(kv...)...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.wrapped.Info(msg, toZapFields(kv...)...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.wrapped.Warn(msg, toZapFields(kv...)...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.wrapped.Error(msg, toZapFields(kv...)...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With 返回附加了字段的子记录器
func (l *Logger) With(kv ...interface{}) logInterface.Logger {
	return Wrap(l.zapLogger.With(toZapFields(kv...)...))
}

// Named 返回带 module 字段的子记录器
func (l *Logger) Named(module string) logInterface.Logger {
	return l.With("module", module)
}

// Sync 刷新缓冲区；标准输出类设备不支持 fsync，忽略该错误
func (l *Logger) Sync() error {
	err := l.zapLogger.Sync()
	if err != nil && errors.Is(err, syscall.EINVAL) {
		return nil
	}
	return err
}

// GetZapLogger 底层 zap 记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}
