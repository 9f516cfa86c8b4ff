package session

import (
	"sync"

	"icx-wallet/pkg/config"
)

// Networks 当前选中的网络. RPC 客户端和交易构建每次调用都从这里读取
type Networks struct {
	mu     sync.RWMutex
	cfg    config.NetworkConfig
	active config.Endpoint
}

func NewNetworks(cfg config.NetworkConfig) (*Networks, error) {
	ep, err := cfg.Endpoint(cfg.Active)
	if err != nil {
		return nil, err
	}
	return &Networks{cfg: cfg, active: ep}, nil
}

// Active 当前网络
func (n *Networks) Active() config.Endpoint {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// Endpoint 满足 rpc.EndpointFunc
func (n *Networks) Endpoint() string { return n.Active().APIEndpoint }

// NID 满足 transaction.NIDFunc
func (n *Networks) NID() int64 { return n.Active().NID }

// Ref 当前网络名
func (n *Networks) Ref() string { return n.Active().Ref }

func (n *Networks) switchTo(ref string) (config.Endpoint, error) {
	ep, err := n.cfg.Endpoint(ref)
	if err != nil {
		return config.Endpoint{}, err
	}
	n.mu.Lock()
	n.active = ep
	n.mu.Unlock()
	return ep, nil
}
