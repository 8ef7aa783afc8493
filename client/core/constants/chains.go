// Package constants 链相关的常量表：已知代币地址与托管合约库地址
//
// 链 ID 统一使用十六进制字符串（如 "0x38"），与钱包和 RPC 的 eth_chainId 返回一致。
package constants

import (
	"fmt"
	"math/big"
	"strings"
)

// 链 ID
const (
	ChainEthereum   = "0x1"
	ChainGoerli     = "0x5"
	ChainSepolia    = "0xaa36a7"
	ChainBSC        = "0x38"
	ChainBSCTestnet = "0x61"
)

// TokenUSDT 代币符号
const TokenUSDT = "usdt"

// ERC20AddressPlaceholder 托管合约字节码中 ERC20 库地址的链接占位符
const ERC20AddressPlaceholder = "__$482c9b3a47f6f0ec86a0b1e1c7231e7eb9$__"

type tokenKey struct {
	token   string
	chainID string
}

// 测试网地址为项目自部署的 USDT
var tokenAddresses = map[tokenKey]string{
	{TokenUSDT, ChainEthereum}:   "0xdAC17F958D2ee523a2206206994597C13D831ec7",
	{TokenUSDT, ChainGoerli}:     "0x17547b26cf5dd3c73a62047c9a74d9ceaae323ed",
	{TokenUSDT, ChainSepolia}:    "0x4516125e745218f3634e030d7ae6aC98C02394c2",
	{TokenUSDT, ChainBSC}:        "0x55d398326f99059ff775485246999027b3197955",
	{TokenUSDT, ChainBSCTestnet}: "0x15771be6175a305abaf08e3b5be458aa97ab23a6",
}

// EscrowLib 托管合约库部署信息
type EscrowLib struct {
	NetworkName string
	Address     string
}

var escrowLibs = map[string]EscrowLib{
	ChainBSCTestnet: {NetworkName: "bsctestnet", Address: "0x215b1029F9132ce28Aed51785F58caC522c4A79F"},
	ChainGoerli:     {NetworkName: "goerli", Address: "0x505cFC51E2b4141A22526E008d278dbBb82dad38"},
	ChainSepolia:    {NetworkName: "sepolia", Address: "0x83cde6926b37ddc42e2aa1010a920643f81487f4"},
}

// ChainIDHex 将链 ID 转换为小写十六进制字符串
func ChainIDHex(id *big.Int) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("0x%x", id)
}

// normalizeChainID 统一为小写、带 0x 前缀
func normalizeChainID(chainID string) string {
	s := strings.ToLower(strings.TrimSpace(chainID))
	if !strings.HasPrefix(s, "0x") {
		if n, ok := new(big.Int).SetString(s, 10); ok {
			return ChainIDHex(n)
		}
	}
	return s
}

// TokenAddress 查询代币在指定链上的地址
//
// chainID 可以是十六进制（"0x38"）或十进制（"56"）。
func TokenAddress(token, chainID string) (string, bool) {
	addr, ok := tokenAddresses[tokenKey{strings.ToLower(token), normalizeChainID(chainID)}]
	return addr, ok
}

// EscrowLibrary 查询托管合约库在指定链上的部署信息
func EscrowLibrary(chainID string) (EscrowLib, bool) {
	lib, ok := escrowLibs[normalizeChainID(chainID)]
	return lib, ok
}

// LinkEscrowLibrary 将字节码中的 ERC20 库占位符替换为指定链上的库地址
func LinkEscrowLibrary(bytecode, chainID string) (string, error) {
	lib, ok := EscrowLibrary(chainID)
	if !ok {
		return "", fmt.Errorf("no escrow library deployed on chain %s", chainID)
	}
	addr := strings.TrimPrefix(strings.ToLower(lib.Address), "0x")
	return strings.ReplaceAll(bytecode, ERC20AddressPlaceholder, addr), nil
}
