package typed

import (
	"errors"
	"fmt"

	"github.com/flexsmart/sdk/client/core/abi"
)

var (
	// ErrUnsupportedOperation 合约不具备操作所需的能力
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrArgumentCount 参数个数与 ABI 声明不一致
	ErrArgumentCount = errors.New("argument count mismatch")

	// ErrAmountType amount 参数不是十进制字符串
	ErrAmountType = errors.New("amount must be a decimal string")

	// ErrResultType 只读调用结果与期望类型不符
	ErrResultType = errors.New("unexpected result type")
)

// UnsupportedOperationError 能力校验失败，未发起任何网络调用
type UnsupportedOperationError struct {
	Operation string
	Feature   abi.Feature
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrUnsupportedOperation, e.Operation, e.Feature)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}
