// Package typed 在合约句柄之上提供按 ABI 分类的类型化客户端
//
// 客户端构建时对 ABI 做一次分类（abi.Plan）与能力探测（abi.DetectFeatures），
// 之后所有调用都按分类结果路由：
//   - 只读操作走只读调用面，整数输出按合约精度格式化（decimals 本身除外）
//   - 写操作的 amount 参数先换算为最小单位，再交给合约句柄发送并等待确认
//   - mint/burn/burnFrom 在合约不具备相应能力时直接失败，不访问网络
//
// 动态调用（Call）与生成代码（Read/Write）共用同一套原语。
package typed

import (
	"context"
	"fmt"
	"math/big"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/connection"
	"github.com/flexsmart/sdk/client/core/contract"
	"github.com/flexsmart/sdk/client/core/transport"
	"github.com/flexsmart/sdk/client/core/units"
	logimpl "github.com/flexsmart/sdk/internal/core/infrastructure/log"
	logInterface "github.com/flexsmart/sdk/pkg/interfaces/infrastructure/log"
)

// Result 动态调用结果
//
// 读操作填充 Value（单个输出为该值，多个输出为切片）；写操作填充 Receipt。
type Result struct {
	Value   interface{}
	Receipt *transport.Receipt
}

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDecimalsSource 替换精度来源（默认读取合约的 decimals()）
func WithDecimalsSource(source units.DecimalsSource) Option {
	return func(c *Client) {
		if source != nil {
			c.normalizer = units.NewNormalizer(source)
		}
	}
}

// Client 类型化合约客户端
type Client struct {
	handle     *contract.Handle
	ops        map[string]abi.Operation
	order      []abi.Operation
	features   abi.Features
	normalizer *units.Normalizer
	logger     logInterface.Logger
}

// New 基于合约句柄创建客户端，不访问网络
func New(handle *contract.Handle, opts ...Option) (*Client, error) {
	if handle == nil {
		return nil, fmt.Errorf("typed client: nil contract handle")
	}

	desc := handle.ABI()
	plan := abi.Plan(desc)
	c := &Client{
		handle:   handle,
		ops:      make(map[string]abi.Operation, len(plan)),
		order:    plan,
		features: abi.DetectFeatures(desc),
		logger:   logimpl.NewModuleLogger(logimpl.GetLogger(), "typed").With("address", handle.Address()),
	}
	for _, op := range plan {
		c.ops[op.Key] = op
	}
	c.normalizer = units.NewNormalizer(units.DecimalsFunc(c.fetchDecimals))

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// fetchDecimals 通过只读调用面读取合约精度
func (c *Client) fetchDecimals(ctx context.Context) (uint8, error) {
	out, err := c.handle.Read(ctx, abi.DecimalsFunction, nil)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("decimals returned no value")
	}
	return units.ToDecimals(out[0])
}

// ===== 动态调用 =====

// Call 按名称动态调用
//
// name 为调度键：重载函数依次为 name、name0、name1……
func (c *Client) Call(ctx context.Context, name string, args ...interface{}) (*Result, error) {
	op, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := checkArity(op, args); err != nil {
		return nil, err
	}

	if op.IsRead() {
		v, err := c.Read(ctx, name, op.FormatOutput, args...)
		if err != nil {
			return nil, err
		}
		return &Result{Value: v}, nil
	}

	receipt, err := c.Write(ctx, name, op.AmountIndex, args...)
	if err != nil {
		return nil, err
	}
	return &Result{Receipt: receipt}, nil
}

// ===== 原语 =====

// Read 只读调用
//
// format 为 true 时，声明为整数类型的输出按合约精度格式化为展示字符串。
// 单个输出直接返回该值，多个输出返回切片。
func (c *Client) Read(ctx context.Context, name string, format bool, args ...interface{}) (interface{}, error) {
	op, err := c.lookup(name)
	if err != nil {
		return nil, err
	}

	out, err := c.handle.Read(ctx, name, args)
	if err != nil {
		return nil, err
	}

	if format {
		if out, err = c.formatOutputs(ctx, op, out); err != nil {
			return nil, err
		}
	}

	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

// As 将 Read 的结果断言为 T，供生成代码使用
func As[T any](v interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: want %T, got %T", ErrResultType, zero, v)
	}
	return out, nil
}

// Write 发送交易并等待确认
//
// amountIndex 指向需要换算的 amount 参数（-1 表示没有），该参数必须是十进制字符串，
// 按声明顺序原位替换为最小单位的整数。
func (c *Client) Write(ctx context.Context, name string, amountIndex int, args ...interface{}) (*transport.Receipt, error) {
	op, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := checkArity(op, args); err != nil {
		return nil, err
	}

	callArgs := make([]interface{}, len(args))
	copy(callArgs, args)

	if amountIndex >= 0 && amountIndex < len(callArgs) {
		display, ok := callArgs[amountIndex].(string)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrAmountType, callArgs[amountIndex])
		}
		raw, err := c.normalizer.Normalize(ctx, display)
		if err != nil {
			return nil, err
		}
		callArgs[amountIndex] = raw
	}

	return c.handle.Invoke(ctx, name, callArgs)
}

// Raw 不经分类直接发送交易，参数原样透传
func (c *Client) Raw(ctx context.Context, name string, args ...interface{}) (*transport.Receipt, error) {
	return c.handle.Invoke(ctx, name, args)
}

// lookup 先做能力校验再查找操作，均不访问网络
//
// mint/burn/burnFrom 在能力缺失时一律返回 UnsupportedOperationError，
// 无论 ABI 中是否声明了该函数。
func (c *Client) lookup(name string) (abi.Operation, error) {
	if req := abi.RequiredFeature(name); !c.features.Has(req) {
		return abi.Operation{}, c.unsupported(name, req)
	}
	op, ok := c.ops[name]
	if !ok {
		return abi.Operation{}, &contract.UnknownFunctionError{Contract: c.handle.Address(), Name: name}
	}
	if !c.features.Has(op.Requires) {
		return abi.Operation{}, c.unsupported(op.Name, op.Requires)
	}
	return op, nil
}

func (c *Client) unsupported(name string, feature abi.Feature) error {
	c.logger.Debugf("操作被能力校验拦截 op=%s feature=%s", name, feature)
	return &UnsupportedOperationError{Operation: name, Feature: feature}
}

// checkArity 参数个数必须与声明一致
func checkArity(op abi.Operation, args []interface{}) error {
	if len(args) != len(op.Inputs) {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArgumentCount, op.Signature(), len(op.Inputs), len(args))
	}
	return nil
}

// formatOutputs 格式化整数输出，其余输出原样保留
func (c *Client) formatOutputs(ctx context.Context, op abi.Operation, out []interface{}) ([]interface{}, error) {
	formatted := make([]interface{}, len(out))
	copy(formatted, out)

	for i, v := range out {
		if i >= len(op.Outputs) || !abi.IsIntegerType(op.Outputs[i].Type) {
			continue
		}
		n, err := units.ToBigInt(v)
		if err != nil {
			return nil, fmt.Errorf("format output %d of %s: %w", i, op.Name, err)
		}
		s, err := c.normalizer.Format(ctx, n)
		if err != nil {
			return nil, err
		}
		formatted[i] = s
	}
	return formatted, nil
}

// ===== 连接切换 =====

// OnConnectionChanged 按连接的最新快照重建调用面
//
// 调用面发生变化时清空精度缓存；对同一快照重复调用无副作用。
func (c *Client) OnConnectionChanged(conn *connection.Context) error {
	changed, err := c.handle.Refresh(conn)
	if err != nil {
		return err
	}
	if changed {
		c.normalizer.Reset()
		c.logger.Debugf("连接已切换 generation=%d", c.handle.Generation())
	}
	return nil
}

// ===== 金额换算 =====

// NormalizeAmount 将展示金额换算为最小单位
func (c *Client) NormalizeAmount(ctx context.Context, amount string) (*big.Int, error) {
	return c.normalizer.Normalize(ctx, amount)
}

// FormatAmount 将最小单位换算为展示金额
func (c *Client) FormatAmount(ctx context.Context, v *big.Int) (string, error) {
	return c.normalizer.Format(ctx, v)
}

// Decimals 合约精度（首次调用后缓存）
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	return c.normalizer.Decimals(ctx)
}

// ===== 访问器 =====

// Features 能力标记
func (c *Client) Features() abi.Features {
	return c.features
}

// Operations 按声明顺序返回全部操作
func (c *Client) Operations() []abi.Operation {
	out := make([]abi.Operation, len(c.order))
	copy(out, c.order)
	return out
}

// Operation 按调度键查找操作
func (c *Client) Operation(key string) (abi.Operation, bool) {
	op, ok := c.ops[key]
	return op, ok
}

// Address 合约地址
func (c *Client) Address() string {
	return c.handle.Address()
}

// Handle 底层合约句柄
func (c *Client) Handle() *contract.Handle {
	return c.handle
}
