// Package wallet provides signing identities for contract clients.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/flexsmart/sdk/client/core/abi"
	"github.com/flexsmart/sdk/client/core/transport"
)

var (
	// ErrInvalidKey 私钥格式错误
	ErrInvalidKey = errors.New("invalid private key")

	// ErrNoProvider 签名者没有绑定连接，无法发送交易
	ErrNoProvider = errors.New("signer has no provider")
)

// KeySigner 基于私钥的签名身份
//
// 签名参数（含链ID）在第一次发送交易时生成并缓存。
type KeySigner struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	provider *transport.EthProvider

	mu   sync.Mutex
	opts *bind.TransactOpts
}

// NewKeySigner 从十六进制私钥创建签名者（可带 0x 前缀）
// provider 可以为 nil，此时只能查询地址
func NewKeySigner(hexKey string, provider *transport.EthProvider) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return newKeySigner(key, provider), nil
}

func newKeySigner(key *ecdsa.PrivateKey, provider *transport.EthProvider) *KeySigner {
	return &KeySigner{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		provider: provider,
	}
}

// Address 实现 transport.Signer，本地推导，不访问网络
func (s *KeySigner) Address(context.Context) (string, error) {
	return s.address.Hex(), nil
}

// Provider 实现 transport.Signer
func (s *KeySigner) Provider() transport.Provider {
	if s.provider == nil {
		return nil
	}
	return s.provider
}

// NewTransactor 实现 transport.Signer
func (s *KeySigner) NewTransactor(address string, desc *abi.Description) (transport.Transactor, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	return s.provider.NewTransactor(address, desc, s.transactOpts)
}

// transactOpts 生成（并缓存）交易签名参数
func (s *KeySigner) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts != nil {
		return s.opts, nil
	}

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("create transactor: %w", err)
	}
	s.opts = opts
	return opts, nil
}
