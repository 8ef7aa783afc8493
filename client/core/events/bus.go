// Package events 基于 asaskevich/EventBus 的 SDK 事件总线
//
// 连接切换与交易进度通过总线通知调用方（例如 UI 刷新余额、展示交易状态），
// 事件处理失败不影响调用本身。
package events

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Topic 事件主题
type Topic string

const (
	// TopicConnectionChanged 连接身份已切换，载荷 ConnectionChanged
	TopicConnectionChanged Topic = "connection:changed"

	// TopicTxSubmitted 交易已提交，载荷 TxSubmitted
	TopicTxSubmitted Topic = "tx:submitted"

	// TopicTxFinalized 交易已确认或确认失败，载荷 TxFinalized
	TopicTxFinalized Topic = "tx:finalized"
)

// ConnectionChanged 连接切换事件
type ConnectionChanged struct {
	Generation uint64
	HasSigner  bool
	At         time.Time
}

// TxSubmitted 交易提交事件
type TxSubmitted struct {
	CallID   string
	Contract string
	Method   string
	TxHash   string
	At       time.Time
}

// TxFinalized 交易确认事件；Err 非空表示确认失败
type TxFinalized struct {
	CallID      string
	Contract    string
	Method      string
	TxHash      string
	BlockNumber uint64
	Err         error
	Elapsed     time.Duration
}

// Bus 事件总线
//
// nil *Bus 可以安全调用 Publish，便于组件把总线作为可选依赖。
type Bus struct {
	bus evbus.Bus
}

// New 创建事件总线
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Subscribe 同步订阅，handler 形如 func(events.TxSubmitted)
func (b *Bus) Subscribe(topic Topic, handler interface{}) error {
	return b.bus.Subscribe(string(topic), handler)
}

// SubscribeAsync 异步订阅（同一 handler 串行执行）
func (b *Bus) SubscribeAsync(topic Topic, handler interface{}) error {
	return b.bus.SubscribeAsync(string(topic), handler, true)
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(topic Topic, handler interface{}) error {
	return b.bus.Unsubscribe(string(topic), handler)
}

// Publish 发布事件
func (b *Bus) Publish(topic Topic, payload interface{}) {
	if b == nil {
		return
	}
	b.bus.Publish(string(topic), payload)
}

// HasSubscribers 主题是否有订阅者
func (b *Bus) HasSubscribers(topic Topic) bool {
	if b == nil {
		return false
	}
	return b.bus.HasCallback(string(topic))
}

// WaitAsync 等待异步处理完成
func (b *Bus) WaitAsync() {
	if b == nil {
		return
	}
	b.bus.WaitAsync()
}
