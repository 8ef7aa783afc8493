// Package log SDK 日志配置
//
// 库默认只向 stderr 输出 info 及以上级别；配置 file_path 后改写 JSON 轮转文件。
package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogOptions 完整日志选项
type LogOptions struct {
	Level     string `json:"level"`      // debug / info / warn / error
	ToConsole bool   `json:"to_console"` // 输出到 stderr
	FilePath  string `json:"file_path"`  // 为空时不写文件；stdout、stderr 表示只写该设备

	// 轮转，单位分别为 MB、个、天
	MaxSize    int  `json:"max_size"`
	MaxBackups int  `json:"max_backups"`
	MaxAge     int  `json:"max_age"`
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"`
}

// UserLogConfig 配置文件中的日志段，只覆盖填写了的字段
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`
	FilePath  *string `json:"file_path,omitempty"`
	ToConsole *bool   `json:"to_console,omitempty"`
}

// Config 只读的日志配置
type Config struct {
	options *LogOptions
}

// DefaultOptions 默认日志选项
func DefaultOptions() *LogOptions {
	return &LogOptions{
		Level:        "info",
		ToConsole:    true,
		MaxSize:      50,
		MaxBackups:   5,
		MaxAge:       14,
		Compress:     true,
		EnableCaller: true,
	}
}

// New 创建日志配置
//
// 接受 *LogOptions（整体替换，会复制一份）或 *UserLogConfig（部分覆盖）；nil 或其他类型得到默认配置。
func New(source interface{}) *Config {
	opts := DefaultOptions()

	switch v := source.(type) {
	case *LogOptions:
		if v != nil {
			cp := *v
			opts = &cp
		}
	case *UserLogConfig:
		if v != nil {
			v.apply(opts)
		}
	}
	return &Config{options: opts}
}

func (u *UserLogConfig) apply(opts *LogOptions) {
	if u.Level != nil {
		opts.Level = *u.Level
	}
	if u.FilePath != nil {
		opts.FilePath = *u.FilePath
		// 写文件时默认不再输出到控制台，除非显式打开
		opts.ToConsole = false
	}
	if u.ToConsole != nil {
		opts.ToConsole = *u.ToConsole
	}
}

// ValidateLevel 校验级别名称，空串视为默认级别
func ValidateLevel(level string) error {
	if level == "" {
		return nil
	}
	if _, err := zapcore.ParseLevel(strings.ToLower(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return nil
}

// GetOptions 选项本身；调用方修改前应先复制
func (c *Config) GetOptions() *LogOptions { return c.options }

func (c *Config) GetLevel() string { return c.options.Level }

// GetZapLevel 无法识别的级别按 info 处理
func (c *Config) GetZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(c.options.Level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (c *Config) IsConsoleEnabled() bool     { return c.options.ToConsole }
func (c *Config) GetFilePath() string        { return c.options.FilePath }
func (c *Config) GetMaxSize() int            { return c.options.MaxSize }
func (c *Config) GetMaxBackups() int         { return c.options.MaxBackups }
func (c *Config) GetMaxAge() int             { return c.options.MaxAge }
func (c *Config) IsCompressionEnabled() bool { return c.options.Compress }
func (c *Config) IsCallerEnabled() bool      { return c.options.EnableCaller }
func (c *Config) IsStacktraceEnabled() bool  { return c.options.EnableStacktrace }

// ===== 编码器 =====

// CreateFileEncoder 文件输出使用 JSON，便于日志采集
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	enc := encoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(enc)
}

// CreateConsoleEncoder 控制台输出使用带级别大写的文本格式
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	enc := encoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(enc)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
