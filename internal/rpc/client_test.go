package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/internal/rpc/rpctest"
)

const testAddr = "hx0123456789abcdef0123456789abcdef01234567"

func newTestClient(url string) *Client {
	return NewClient(func() string { return url }, 2, 5*time.Second)
}

func TestQueries(t *testing.T) {
	srv := rpctest.NewServer()
	defer srv.Close()

	srv.Result("icx_getBalance", "0xde0b6b3a7640000")
	srv.Result("icx_call:getStake", map[string]interface{}{
		"stake":    "0x1bc16d674ec80000",
		"unstakes": []map[string]string{{"unstake": "0xde0b6b3a7640000"}},
	})
	srv.Result("icx_call:getDelegation", map[string]interface{}{
		"totalDelegated": "0xde0b6b3a7640000",
		"votingPower":    "0xde0b6b3a7640000",
		"delegations":    []map[string]string{{"address": testAddr, "value": "0xde0b6b3a7640000"}},
	})
	srv.Result("icx_call:queryIScore", map[string]string{"iscore": "0x3e8", "estimatedICX": "0x1", "blockHeight": "0x10"})
	srv.Result("icx_call:getStepCosts", map[string]string{"default": "0x186a0", "contractCall": "0x61a8"})

	c := newTestClient(srv.URL)
	ctx := context.Background()

	bal, err := c.GetBalance(ctx, testAddr)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", bal.String())

	stake, err := c.GetStake(ctx, testAddr)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", stake.Stake.String())
	assert.Equal(t, "1000000000000000000", stake.Unstaking.String())

	del, err := c.GetDelegation(ctx, testAddr)
	require.NoError(t, err)
	require.Len(t, del.Delegations, 1)
	assert.Equal(t, testAddr, del.Delegations[0].Address)

	is, err := c.QueryIScore(ctx, testAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), is.IScore.Int64())

	costs, err := c.GetStepCosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), costs["default"].Int64())

	var call struct {
		To       string   `json:"to"`
		DataType string   `json:"dataType"`
		Data     CallData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(srv.Params("icx_call:getStake")[0], &call))
	assert.Equal(t, "cx0000000000000000000000000000000000000000", call.To)
	assert.Equal(t, "call", call.DataType)
	assert.Equal(t, testAddr, call.Data.Params["address"])
}

func TestRPCErrorVerbatim(t *testing.T) {
	srv := rpctest.NewServer()
	defer srv.Close()
	srv.Handle("icx_sendTransaction", func(json.RawMessage) (interface{}, *rpctest.Error) {
		return nil, &rpctest.Error{Code: -32600, Message: "Out of balance"}
	})

	c := newTestClient(srv.URL)
	_, err := c.SendTransaction(context.Background(), map[string]interface{}{"from": testAddr})

	var rpcErr *Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32600, rpcErr.Code)
	assert.Equal(t, "Out of balance", err.Error())
	assert.Equal(t, 1, srv.Calls("icx_sendTransaction"))
}

func TestSubmitNeverRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SendTransaction(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "sendTransaction 不允许重试")

	hits.Store(0)
	_, err = c.GetBalance(context.Background(), testAddr)
	assert.Error(t, err)
	assert.Equal(t, int32(3), hits.Load(), "查询类请求应重试 2 次")
}

func TestFindEvent(t *testing.T) {
	r := &TransactionResult{
		Status: "0x1",
		EventLogs: []EventLog{
			{Indexed: []string{"ICXTransfer(Address,Address,int)"}},
			{Indexed: []string{"IScoreClaimed(int,int)"}, Data: []string{"0x3e8", "0x1"}},
		},
	}
	ev, ok := r.FindEvent("IScoreClaimed(int,int)")
	require.True(t, ok)
	assert.Equal(t, "0x1", ev.Data[1])
	assert.True(t, r.Succeeded())

	_, ok = r.FindEvent("Missing()")
	assert.False(t, ok)
}
