package units

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DecimalsSource 精度来源（通常是合约的 decimals() 只读调用）
type DecimalsSource interface {
	Decimals(ctx context.Context) (uint8, error)
}

// DecimalsFunc 函数适配器
type DecimalsFunc func(ctx context.Context) (uint8, error)

// Decimals 实现 DecimalsSource
func (f DecimalsFunc) Decimals(ctx context.Context) (uint8, error) {
	return f(ctx)
}

// Normalizer 按合约精度换算金额
//
// 精度在首次需要时获取一次并缓存；连接切换后调用 Reset 清空缓存。
// 并发的首次获取合并为一次调用。
type Normalizer struct {
	source DecimalsSource
	group  singleflight.Group

	mu         sync.Mutex
	decimals   uint8
	cached     bool
	generation uint64
}

// NewNormalizer 创建换算器
func NewNormalizer(source DecimalsSource) *Normalizer {
	return &Normalizer{source: source}
}

// Decimals 返回合约精度
func (n *Normalizer) Decimals(ctx context.Context) (uint8, error) {
	n.mu.Lock()
	if n.cached {
		d := n.decimals
		n.mu.Unlock()
		return d, nil
	}
	gen := n.generation
	n.mu.Unlock()

	v, err, _ := n.group.Do(fmt.Sprintf("decimals-%d", gen), func() (interface{}, error) {
		return n.source.Decimals(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("fetch decimals: %w", err)
	}
	d := v.(uint8)

	n.mu.Lock()
	// Reset 之后取回的旧值不写入缓存
	if n.generation == gen {
		n.decimals = d
		n.cached = true
	}
	n.mu.Unlock()
	return d, nil
}

// Normalize 将展示金额换算为最小单位
func (n *Normalizer) Normalize(ctx context.Context, amount string) (*big.Int, error) {
	// 先校验格式，非法输入不触发网络请求
	if _, err := ParseUnits(amount, 0); err != nil {
		return nil, err
	}
	d, err := n.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	return ParseUnits(amount, d)
}

// Format 将最小单位换算为展示金额
func (n *Normalizer) Format(ctx context.Context, v *big.Int) (string, error) {
	d, err := n.Decimals(ctx)
	if err != nil {
		return "", err
	}
	return FormatUnits(v, d), nil
}

// Reset 清空精度缓存
func (n *Normalizer) Reset() {
	n.mu.Lock()
	n.cached = false
	n.decimals = 0
	n.generation++
	n.mu.Unlock()
}
