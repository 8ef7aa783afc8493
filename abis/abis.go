// Package abis 内置常用代币合约的 ABI 产物
//
// 同时作为 `flexsmart generate` 不带参数时的默认 ABI 目录。
package abis

import "embed"

// FS 内置 ABI 文件（<ContractName>.json）
//
//go:embed *.json
var FS embed.FS
