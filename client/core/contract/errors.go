package contract

import (
	"errors"
	"fmt"

	"github.com/flexsmart/sdk/client/core/transport"
)

// ============================================================================
//                            合约句柄错误定义
// ============================================================================

var (
	// ErrUnknownFunction ABI 中不存在该函数
	ErrUnknownFunction = errors.New("unknown function")

	// ErrSubmissionFailed 交易提交失败
	ErrSubmissionFailed = errors.New("transaction submission failed")

	// ErrFinalityFailed 交易确认失败
	ErrFinalityFailed = errors.New("transaction finality failed")
)

// UnknownFunctionError 函数名不在合约 ABI 中，未发起任何网络调用
type UnknownFunctionError struct {
	Contract string
	Name     string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("%s: %s on %s", ErrUnknownFunction, e.Name, e.Contract)
}

func (e *UnknownFunctionError) Unwrap() error {
	return ErrUnknownFunction
}

// TransactionSubmissionError 交易提交失败（签名、估算或节点拒绝）
type TransactionSubmissionError struct {
	Method string
	Cause  error
}

func (e *TransactionSubmissionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSubmissionFailed, e.Method, e.Cause)
}

// Is 同时匹配 ErrSubmissionFailed
func (e *TransactionSubmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

func (e *TransactionSubmissionError) Unwrap() error {
	return e.Cause
}

// FinalityError 交易已提交但等待确认失败（执行回滚、超时、连接中断）
//
// Receipt 在交易已上链但执行失败时非空。
type FinalityError struct {
	Method  string
	TxHash  string
	Receipt *transport.Receipt
	Cause   error
}

func (e *FinalityError) Error() string {
	return fmt.Sprintf("%s: %s tx %s: %v", ErrFinalityFailed, e.Method, e.TxHash, e.Cause)
}

// Is 同时匹配 ErrFinalityFailed
func (e *FinalityError) Is(target error) bool {
	return target == ErrFinalityFailed
}

func (e *FinalityError) Unwrap() error {
	return e.Cause
}
