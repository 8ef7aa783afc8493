package log

import (
	"context"
	"fmt"

	logconfig "github.com/flexsmart/sdk/internal/config/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle          `optional:"true"`
	Options   *logconfig.LogOptions `optional:"true"` // 缺省时使用默认配置
}

// ModuleOutput 日志模块输出
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger
	ZapLogger *zap.Logger
}

// Module 日志模块，客户端模块之前装配
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建记录器并设为进程级默认记录器，应用停止时刷新缓冲区
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.New(params.Options))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("create logger: %w", err)
	}
	SetLogger(logger)

	if params.Lifecycle != nil {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error { return logger.Sync() },
		})
	}

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}
