package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"icx-wallet/pkg/address"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/logger"
)

// EndpointFunc 返回当前选中网络的 API 地址, 每次调用都会重新读取
type EndpointFunc func() string

// Client ICON JSON-RPC v3 客户端
// 查询类请求在传输层失败时会重试; icx_sendTransaction 使用独立的不重试客户端
type Client struct {
	endpoint EndpointFunc
	query    *retryablehttp.Client
	submit   *retryablehttp.Client
	nextID   atomic.Int64
	log      *zap.Logger
}

// NewClient retries 为查询类请求的最大重试次数
func NewClient(endpoint EndpointFunc, retries int, timeout time.Duration) *Client {
	c := &Client{
		endpoint: endpoint,
		query:    newHTTPClient(retries, timeout),
		submit:   newHTTPClient(0, timeout),
		log:      logger.Named("rpc"),
	}
	return c
}

func newHTTPClient(retries int, timeout time.Duration) *retryablehttp.Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = retries
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.HTTPClient.Timeout = timeout
	hc.Logger = logger.NewHTTPLogger()
	hc.CheckRetry = retryTransportOnly
	// 最后一次的响应原样交给调用方解析 JSON-RPC 错误
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return hc
}

// retryTransportOnly JSON-RPC 错误 (包括 "Pending transaction") 由上层处理, 这里只重试网络故障和网关错误
func retryTransportOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil {
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		default:
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Call 发送查询类请求并把 result 解码到 out
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	return c.do(ctx, c.query, method, params, out)
}

func (c *Client) do(ctx context.Context, hc *retryablehttp.Client, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	url := c.endpoint()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("%s: unexpected response (HTTP %d): %s", method, resp.StatusCode, string(bytes.TrimSpace(raw)))
	}
	if r.Error != nil {
		c.log.Debug("rpc error", zap.String("method", method), zap.Int("code", r.Error.Code), zap.String("message", r.Error.Message))
		return r.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// GetBalance icx_getBalance
func (c *Client) GetBalance(ctx context.Context, addr string) (*big.Int, error) {
	var hex string
	if err := c.Call(ctx, "icx_getBalance", map[string]string{"address": addr}, &hex); err != nil {
		return nil, err
	}
	return amount.ParseLoop(hex)
}

// CallScore icx_call, 只读合约调用
func (c *Client) CallScore(ctx context.Context, to string, data CallData, out interface{}) error {
	params := map[string]interface{}{
		"to":       to,
		"dataType": "call",
		"data":     data,
	}
	return c.Call(ctx, "icx_call", params, out)
}

// GetStake governance getStake
func (c *Client) GetStake(ctx context.Context, addr string) (*Stake, error) {
	var h hexStake
	err := c.CallScore(ctx, address.GovernanceScore, CallData{Method: "getStake", Params: map[string]string{"address": addr}}, &h)
	if err != nil {
		return nil, err
	}
	return h.decode()
}

// GetDelegation governance getDelegation
func (c *Client) GetDelegation(ctx context.Context, addr string) (*DelegationInfo, error) {
	var h hexDelegationInfo
	err := c.CallScore(ctx, address.GovernanceScore, CallData{Method: "getDelegation", Params: map[string]string{"address": addr}}, &h)
	if err != nil {
		return nil, err
	}
	return h.decode()
}

// QueryIScore governance queryIScore
func (c *Client) QueryIScore(ctx context.Context, addr string) (*IScore, error) {
	var h hexIScore
	err := c.CallScore(ctx, address.GovernanceScore, CallData{Method: "queryIScore", Params: map[string]string{"address": addr}}, &h)
	if err != nil {
		return nil, err
	}
	return h.decode()
}

// GetStepCosts 返回各类操作的 step 消耗, "default" 为普通转账
func (c *Client) GetStepCosts(ctx context.Context) (map[string]*big.Int, error) {
	var raw map[string]string
	if err := c.CallScore(ctx, address.NetworkScore, CallData{Method: "getStepCosts"}, &raw); err != nil {
		return nil, err
	}
	costs := make(map[string]*big.Int, len(raw))
	for k, v := range raw {
		n, err := amount.ParseLoop(v)
		if err != nil {
			return nil, fmt.Errorf("step cost %s: %w", k, err)
		}
		costs[k] = n
	}
	return costs, nil
}

// SendTransaction icx_sendTransaction, 不做任何重试
func (c *Client) SendTransaction(ctx context.Context, params map[string]interface{}) (string, error) {
	var hash string
	if err := c.do(ctx, c.submit, "icx_sendTransaction", params, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetTransactionResult icx_getTransactionResult, 交易未上链时节点返回错误
func (c *Client) GetTransactionResult(ctx context.Context, hash string) (*TransactionResult, error) {
	var result TransactionResult
	if err := c.Call(ctx, "icx_getTransactionResult", map[string]string{"txHash": hash}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
