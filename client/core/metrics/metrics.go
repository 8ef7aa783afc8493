// Package metrics 提供合约调用相关的 Prometheus 监控指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 调用结果标签
const (
	ResultSuccess     = "success"
	ResultError       = "error"
	ResultUnsupported = "unsupported"
)

// Metrics 合约调用指标
//
// nil *Metrics 的所有方法都是空操作。
type Metrics struct {
	// calls 调用次数（按类别、方法、结果）
	calls *prometheus.CounterVec

	// finality 交易提交到确认的耗时
	finality *prometheus.HistogramVec

	// cacheSize 客户端缓存条目数
	cacheSize prometheus.Gauge

	// rebinds 连接切换次数
	rebinds prometheus.Counter
}

// New 创建指标并注册到 reg；reg 为 nil 时只创建不注册
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flexsmart",
			Subsystem: "contract",
			Name:      "calls_total",
			Help:      "Total number of contract calls by kind, method and result",
		}, []string{"kind", "method", "result"}),

		finality: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flexsmart",
			Subsystem: "contract",
			Name:      "finality_seconds",
			Help:      "Time from transaction submission to finality in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s ~ 256s
		}, []string{"method"}),

		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flexsmart",
			Subsystem: "cache",
			Name:      "clients",
			Help:      "Number of typed clients held by the client cache",
		}),

		rebinds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flexsmart",
			Subsystem: "connection",
			Name:      "rebinds_total",
			Help:      "Total number of connection identity changes",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.calls, m.finality, m.cacheSize, m.rebinds} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ObserveCall 记录一次调用
func (m *Metrics) ObserveCall(kind, method, result string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(kind, method, result).Inc()
}

// ObserveFinality 记录交易确认耗时
func (m *Metrics) ObserveFinality(method string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.finality.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SetCacheSize 设置缓存条目数
func (m *Metrics) SetCacheSize(n int) {
	if m == nil {
		return
	}
	m.cacheSize.Set(float64(n))
}

// IncRebind 记录一次连接切换
func (m *Metrics) IncRebind() {
	if m == nil {
		return
	}
	m.rebinds.Inc()
}

// Calls 返回调用计数器（测试与自定义导出用）
func (m *Metrics) Calls() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.calls
}

// CacheSize 返回缓存条目数仪表
func (m *Metrics) CacheSize() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.cacheSize
}
