// Package log 定义 SDK 统一的日志记录接口
//
// SDK 内所有组件（连接上下文、合约句柄、类型化客户端、客户端缓存、代码生成器）
// 只依赖本接口，具体实现位于 internal/core/infrastructure/log（基于 zap）。
//
// 库代码从不终止进程，因此接口不提供 Fatal 级别。
package log

import "go.uber.org/zap"

// Logger 日志记录器
//
// 无后缀方法接受键值对形式的结构化字段：key1, value1, key2, value2, ...
type Logger interface {
	Debug(msg string, kv ...interface{})
	Debugf(format string, args ...interface{})

	Info(msg string, kv ...interface{})
	Infof(format string, args ...interface{})

	Warn(msg string, kv ...interface{})
	Warnf(format string, args ...interface{})

	Error(msg string, kv ...interface{})
	Errorf(format string, args ...interface{})

	// With 返回附加了字段的子记录器
	With(kv ...interface{}) Logger

	// Named 返回带 module 字段的子记录器
	Named(module string) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 底层 zap 记录器，供需要强类型字段的调用方使用
	GetZapLogger() *zap.Logger
}
