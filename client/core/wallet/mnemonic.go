package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/flexsmart/sdk/client/core/transport"
)

// ErrInvalidMnemonic 助记词无效
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// validWordCounts BIP39 允许的助记词数量
var validWordCounts = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

// ValidateMnemonic 校验助记词：数量、词表、校验和
func ValidateMnemonic(mnemonic string) error {
	mnemonic = normalizeSpaces(mnemonic)
	words := strings.Fields(mnemonic)
	if !validWordCounts[len(words)] {
		return fmt.Errorf("%w: %d words, expected 12, 15, 18, 21 or 24", ErrInvalidMnemonic, len(words))
	}

	for i, word := range words {
		if _, ok := bip39.GetWordIndex(word); !ok {
			return fmt.Errorf("%w: word %d %q is not in the BIP39 word list", ErrInvalidMnemonic, i+1, word)
		}
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidMnemonic)
	}
	return nil
}

// DeriveKey 从助记词按路径派生私钥
//
// path 为空时使用 m/44'/60'/0'/0/0。
func DeriveKey(mnemonic, passphrase, path string) (*ecdsa.PrivateKey, error) {
	mnemonic = normalizeSpaces(mnemonic)
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}

	dp := PathForIndex(0)
	if path != "" {
		var err error
		if dp, err = ParseDerivationPath(path); err != nil {
			return nil, fmt.Errorf("parse path: %w", err)
		}
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	// 主网参数只影响扩展密钥的序列化前缀，不影响派生结果
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, index := range dp.indices() {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("derive %s: %w", dp, err)
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("get private key: %w", err)
	}
	return privKey.ToECDSA(), nil
}

// NewMnemonicSigner 从助记词派生签名者
// provider 可以为 nil，此时只能查询地址
func NewMnemonicSigner(mnemonic, passphrase, path string, provider *transport.EthProvider) (*KeySigner, error) {
	key, err := DeriveKey(mnemonic, passphrase, path)
	if err != nil {
		return nil, err
	}
	return newKeySigner(key, provider), nil
}

// normalizeSpaces 合并多余空白
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
