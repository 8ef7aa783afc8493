package client

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/deployment"
	"github.com/flexsmart/sdk/client/core/events"
	"github.com/flexsmart/sdk/client/core/metrics"
	"github.com/flexsmart/sdk/client/pkg/config"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

// ModuleParams 定义客户端模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     *config.Config        `optional:"true"` // SDK 配置，缺省时使用默认配置
	Logger     logInterface.Logger   `optional:"true"` // 日志记录器
	Registerer prometheus.Registerer `optional:"true"` // 指标注册器，缺省时不注册
	Store      deployment.Store      `optional:"true"` // 部署记录存储

	// Identity 显式连接身份；提供时不再按配置连接节点
	Identity *connection.Identity `optional:"true"`
}

// ModuleOutput 定义客户端模块的输出结构
type ModuleOutput struct {
	fx.Out

	Session *Session
	Events  *events.Bus
	Metrics *metrics.Metrics
}

// Module 返回客户端模块
func Module() fx.Option {
	return fx.Module("client",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建会话，并在应用停止时关闭
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := params.Logger
	if logger == nil {
		logger = logimpl.GetLogger()
	}

	m, err := metrics.New(params.Registerer)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("注册客户端指标失败: %w", err)
	}
	bus := events.New()

	opts := []Option{
		WithLogger(logimpl.NewModuleLogger(logger, "session")),
		WithMetrics(m),
		WithEvents(bus),
		WithCacheCapacity(cfg.CacheCapacity),
	}
	if params.Store != nil {
		opts = append(opts, WithStore(params.Store))
	}

	var session *Session
	if params.Identity != nil {
		registry, err := abi.NewRegistry(context.Background(), cfg.RegistryTTL.Duration(), registryOptions(cfg)...)
		if err != nil {
			return ModuleOutput{}, err
		}
		session, err = NewSession(*params.Identity, append(opts, WithRegistry(registry))...)
		if err != nil {
			_ = registry.Close()
			return ModuleOutput{}, err
		}
	} else {
		session, err = NewSessionFromKey(context.Background(), cfg, opts...)
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("创建客户端会话失败: %w", err)
		}
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return session.Close()
		},
	})

	return ModuleOutput{
		Session: session,
		Events:  bus,
		Metrics: m,
	}, nil
}
