package typed

import (
	"context"
	"fmt"

	"github.com/flexsmart/sdk/client/core/transport"
)

// ERC20 标准代币的便捷封装
//
// 金额参数均为展示金额（如 "2.5"），查询结果均为格式化后的展示字符串。
type ERC20 struct {
	*Client
}

// NewERC20 包装类型化客户端
func NewERC20(c *Client) *ERC20 {
	return &ERC20{Client: c}
}

// Mint 铸造代币，需要 Mintable 能力
func (e *ERC20) Mint(ctx context.Context, to, amount string) (*transport.Receipt, error) {
	return e.writeAmount(ctx, "mint", amount, to)
}

// Burn 销毁调用者持有的代币，需要 Burnable 能力
func (e *ERC20) Burn(ctx context.Context, amount string) (*transport.Receipt, error) {
	return e.writeAmount(ctx, "burn", amount)
}

// Transfer 转账
func (e *ERC20) Transfer(ctx context.Context, to, amount string) (*transport.Receipt, error) {
	return e.writeAmount(ctx, "transfer", amount, to)
}

// Approve 授权
func (e *ERC20) Approve(ctx context.Context, spender, amount string) (*transport.Receipt, error) {
	return e.writeAmount(ctx, "approve", amount, spender)
}

// writeAmount 按 ABI 的分类结果组装参数：amount 放在声明的位置，其余参数按顺序填入其他位置
//
// 参数个数与声明不符或函数没有 amount 参数时返回 ErrArgumentCount，不访问网络。
func (e *ERC20) writeAmount(ctx context.Context, name, amount string, others ...interface{}) (*transport.Receipt, error) {
	op, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	if op.AmountIndex < 0 || len(op.Inputs) != len(others)+1 {
		return nil, fmt.Errorf("%w: %s does not match %s(amount + %d args)",
			ErrArgumentCount, op.Signature(), name, len(others))
	}

	args := make([]interface{}, 0, len(op.Inputs))
	args = append(args, others[:op.AmountIndex]...)
	args = append(args, amount)
	args = append(args, others[op.AmountIndex:]...)
	return e.Write(ctx, op.Key, op.AmountIndex, args...)
}

// BalanceOf 查询余额；owner 为空时查询当前签名地址
func (e *ERC20) BalanceOf(ctx context.Context, owner string) (string, error) {
	owner, err := e.ownerOrSigner(ctx, owner)
	if err != nil {
		return "", err
	}
	return e.readAmount(ctx, "balanceOf", owner)
}

// Allowance 查询授权额度；owner 为空时使用当前签名地址
func (e *ERC20) Allowance(ctx context.Context, owner, spender string) (string, error) {
	owner, err := e.ownerOrSigner(ctx, owner)
	if err != nil {
		return "", err
	}
	return e.readAmount(ctx, "allowance", owner, spender)
}

// TotalSupply 查询总供应量
func (e *ERC20) TotalSupply(ctx context.Context) (string, error) {
	return e.readAmount(ctx, "totalSupply")
}

func (e *ERC20) ownerOrSigner(ctx context.Context, owner string) (string, error) {
	if owner != "" {
		return owner, nil
	}
	return e.Handle().SignerAddress(ctx)
}

func (e *ERC20) readAmount(ctx context.Context, name string, args ...interface{}) (string, error) {
	v, err := e.Read(ctx, name, true, args...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected result %T", name, v)
	}
	return s, nil
}
