package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flexsmart/sdk/client/core/output"
	"github.com/flexsmart/sdk/client/pkg/config"
	logconfig "github.com/flexsmart/sdk/internal/config/log"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件路径
	LogLevel     string // 日志级别
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
}

// cli 一次命令执行的共享状态
type cli struct {
	flags     GlobalFlags
	stdout    io.Writer
	stderr    io.Writer
	cfg       *config.Config
	formatter *output.Formatter
	logger    logInterface.Logger
}

// Execute 执行命令，返回进程退出码
func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	return c.run(ctx, args)
}

func (c *cli) run(ctx context.Context, args []string) int {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if c.formatter == nil {
			c.formatter = output.NewFormatter(output.FormatTable, c.stdout)
			c.formatter.SetLogWriter(c.stderr)
		}
		c.formatter.PrintError(err)
		return 1
	}
	return 0
}

// rootCmd 根命令
func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flexsmart",
		Short: "Flexsmart 合约客户端工具",
		Long: `flexsmart - 从合约 ABI 生成类型化 Go 客户端

生成的客户端与 SDK 运行时的类型化客户端使用相同的函数分类规则：
只读函数返回解码后的值，写函数提交交易并等待确认，
名为 amount 的参数按代币精度从展示单位换算。`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup() },
	}

	root.PersistentFlags().StringVar(&c.flags.ConfigPath, "config", "", "配置文件路径 (默认: ~/.flexsmart/config.json)")
	root.PersistentFlags().StringVar(&c.flags.LogLevel, "log-level", "warn", "日志级别: debug|info|warn|error")
	root.PersistentFlags().StringVarP(&c.flags.OutputFormat, "output", "o", "table", "输出格式: json|pretty|table")
	root.PersistentFlags().BoolVar(&c.flags.Silent, "silent", false, "静默模式 (仅输出错误)")

	root.AddCommand(c.generateCmd())
	root.AddCommand(c.abisCmd())
	root.AddCommand(c.configCmd())
	return root
}

// setup 加载配置，初始化日志与输出
func (c *cli) setup() error {
	format, err := output.ParseFormat(c.flags.OutputFormat)
	if err != nil {
		return err
	}
	c.formatter = output.NewFormatter(format, c.stdout)
	c.formatter.SetLogWriter(c.stderr)
	c.formatter.SetSilent(c.flags.Silent)

	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("加载配置: %w", err)
	}
	c.cfg = cfg

	opts := *cfg.LogConfig().GetOptions()
	if c.flags.LogLevel != "" {
		if err := logconfig.ValidateLevel(c.flags.LogLevel); err != nil {
			return err
		}
		opts.Level = c.flags.LogLevel
	}
	logger, err := logimpl.New(logconfig.New(&opts))
	if err != nil {
		return fmt.Errorf("初始化日志: %w", err)
	}
	logimpl.SetLogger(logger)
	c.logger = logimpl.NewModuleLogger(logger, "cli")
	return nil
}
