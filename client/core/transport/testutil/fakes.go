// Package testutil 提供传输层的测试替身
//
// Network 模拟一条链：记录所有经过它的网络调用，按方法名返回预设结果。
// Provider/Signer 实现 transport 接口，供连接上下文、合约句柄、类型化客户端测试使用；
// EthBackend 实现 go-ethereum 合约后端，供 go-ethereum 适配层与钱包测试使用。
package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/transport"
)

// CallKind 网络调用类别
type CallKind string

const (
	KindChainID  CallKind = "chain_id"
	KindAddress  CallKind = "address"
	KindCall     CallKind = "call"
	KindTransact CallKind = "transact"
	KindWait     CallKind = "wait"
)

// Call 一次被记录的网络调用
type Call struct {
	Kind    CallKind
	Via     string // 发起调用的 Provider/Signer 名称
	Address string
	Method  string
	Args    []interface{}
}

// Network 模拟链
type Network struct {
	mu        sync.Mutex
	results   map[string][]interface{}
	readErrs  map[string]error
	submitErr error
	waitErr   error
	calls     []Call
	txCount   int
}

// NewNetwork 创建模拟链
func NewNetwork() *Network {
	return &Network{
		results:  make(map[string][]interface{}),
		readErrs: make(map[string]error),
	}
}

// SetResult 设置只读方法的返回值
func (n *Network) SetResult(method string, out ...interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results[method] = out
}

// SetReadError 设置只读方法的错误
func (n *Network) SetReadError(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.readErrs[method] = err
}

// FailSubmit 让后续交易提交失败
func (n *Network) FailSubmit(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitErr = err
}

// FailWait 让后续等待确认失败
func (n *Network) FailWait(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.waitErr = err
}

// Calls 返回已记录调用的副本
func (n *Network) Calls() []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Call, len(n.calls))
	copy(out, n.calls)
	return out
}

// CallCount 返回已记录的网络调用次数
func (n *Network) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// CountKind 返回指定类别的调用次数
func (n *Network) CountKind(kind CallKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, c := range n.calls {
		if c.Kind == kind {
			count++
		}
	}
	return count
}

// Transactions 返回全部交易调用
func (n *Network) Transactions() []Call {
	var out []Call
	for _, c := range n.Calls() {
		if c.Kind == KindTransact {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls 清空调用记录
func (n *Network) ResetCalls() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

func (n *Network) record(c Call) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

// ===== Provider =====

// Provider 模拟只读连接
type Provider struct {
	Name string
	net  *Network
	id   *big.Int
}

// NewProvider 创建模拟连接
func NewProvider(net *Network, name string, chainID int64) *Provider {
	return &Provider{Name: name, net: net, id: big.NewInt(chainID)}
}

// ChainID 实现 transport.Provider
func (p *Provider) ChainID(context.Context) (*big.Int, error) {
	p.net.record(Call{Kind: KindChainID, Via: p.Name})
	return new(big.Int).Set(p.id), nil
}

// NewCaller 实现 transport.Provider，不访问网络
func (p *Provider) NewCaller(address string, desc *abi.Description) (transport.Caller, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil abi")
	}
	return &caller{p: p, address: address}, nil
}

type caller struct {
	p       *Provider
	address string
}

// Via 返回创建该调用面的 Provider 名称
func (c *caller) Via() string {
	return c.p.Name
}

func (c *caller) Call(_ context.Context, method string, args []interface{}) ([]interface{}, error) {
	net := c.p.net
	net.record(Call{Kind: KindCall, Via: c.p.Name, Address: c.address, Method: method, Args: args})

	net.mu.Lock()
	defer net.mu.Unlock()
	if err := net.readErrs[method]; err != nil {
		return nil, err
	}
	out, ok := net.results[method]
	if !ok {
		return nil, fmt.Errorf("no result configured for %s", method)
	}
	return out, nil
}

// ===== Signer =====

// Signer 模拟签名身份
type Signer struct {
	Name string
	Addr string
	net  *Network
	prov *Provider
}

// NewSigner 创建模拟签名者；prov 可以为 nil
func NewSigner(net *Network, name, address string, prov *Provider) *Signer {
	return &Signer{Name: name, Addr: address, net: net, prov: prov}
}

// Address 实现 transport.Signer，计为一次网络调用
func (s *Signer) Address(context.Context) (string, error) {
	s.net.record(Call{Kind: KindAddress, Via: s.Name})
	return s.Addr, nil
}

// Provider 实现 transport.Signer
func (s *Signer) Provider() transport.Provider {
	if s.prov == nil {
		return nil
	}
	return s.prov
}

// NewTransactor 实现 transport.Signer，不访问网络
func (s *Signer) NewTransactor(address string, desc *abi.Description) (transport.Transactor, error) {
	if desc == nil {
		return nil, fmt.Errorf("nil abi")
	}
	return &transactor{s: s, address: address}, nil
}

type transactor struct {
	s       *Signer
	address string
}

func (t *transactor) Transact(_ context.Context, method string, args []interface{}) (transport.PendingTx, error) {
	net := t.s.net
	net.record(Call{Kind: KindTransact, Via: t.s.Name, Address: t.address, Method: method, Args: args})

	net.mu.Lock()
	defer net.mu.Unlock()
	if net.submitErr != nil {
		return nil, net.submitErr
	}
	net.txCount++
	return &pendingTx{net: net, via: t.s.Name, hash: fmt.Sprintf("0x%064x", net.txCount), block: uint64(net.txCount)}, nil
}

type pendingTx struct {
	net   *Network
	via   string
	hash  string
	block uint64
}

func (p *pendingTx) Hash() string {
	return p.hash
}

func (p *pendingTx) Wait(ctx context.Context) (*transport.Receipt, error) {
	p.net.record(Call{Kind: KindWait, Via: p.via, Method: p.hash})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.net.mu.Lock()
	defer p.net.mu.Unlock()
	if p.net.waitErr != nil {
		return nil, p.net.waitErr
	}
	return &transport.Receipt{TxHash: p.hash, BlockNumber: p.block, Status: 1, GasUsed: 21000}, nil
}
