package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// EndpointConfig 节点端点配置
type EndpointConfig struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"` // 优先级,数字越小越优先
	URL      string `json:"url"`
}

// DialConfig 连接配置
type DialConfig struct {
	// 节点端点(按优先级尝试)
	Endpoints []EndpointConfig `json:"endpoints"`

	// 单个端点的连接与探测超时
	Timeout time.Duration `json:"timeout"`
}

// Dial 按优先级依次连接端点，返回第一个能正常返回链ID的连接
func Dial(ctx context.Context, cfg DialConfig) (*EthProvider, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	endpoints := make([]EndpointConfig, len(cfg.Endpoints))
	copy(endpoints, cfg.Endpoints)
	sort.SliceStable(endpoints, func(i, j int) bool {
		return endpoints[i].Priority < endpoints[j].Priority
	})

	var errs []error
	for _, ep := range endpoints {
		if ep.URL == "" {
			continue
		}
		p, err := dialOne(ctx, ep.URL, cfg.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", endpointName(ep), err))
			continue
		}
		return p, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("no valid endpoints")
	}
	return nil, fmt.Errorf("all endpoints failed: %w", errors.Join(errs...))
}

// DialURL 连接单个节点
func DialURL(ctx context.Context, url string) (*EthProvider, error) {
	return Dial(ctx, DialConfig{Endpoints: []EndpointConfig{{Name: url, URL: url}}})
}

func dialOne(ctx context.Context, url string, timeout time.Duration) (*EthProvider, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, err
	}

	p := NewEthProvider(client)
	p.closer = client.Close
	if _, err := p.ChainID(dialCtx); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func endpointName(ep EndpointConfig) string {
	if ep.Name != "" {
		return ep.Name
	}
	return ep.URL
}
