package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"icx-wallet/pkg/amount"
)

const jsonrpcVersion = "2.0"

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
	ID      int64           `json:"id"`
}

// Error JSON-RPC 错误, Message 原样来自节点
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) String() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// CallData icx_call / 交易中 dataType=call 的 data 字段
type CallData struct {
	Method string            `json:"method"`
	Params map[string]string `json:"params,omitempty"`
}

// Delegation 单个委托 (地址, 票数 loop)
type Delegation struct {
	Address string   `json:"address"`
	Value   *big.Int `json:"value"`
}

// Stake getStake 结果
type Stake struct {
	Stake     *big.Int
	Unstaking *big.Int
}

// DelegationInfo getDelegation 结果
type DelegationInfo struct {
	TotalDelegated *big.Int
	VotingPower    *big.Int
	Delegations    []Delegation
}

// IScore queryIScore 结果
type IScore struct {
	IScore       *big.Int
	EstimatedICX *big.Int
	BlockHeight  *big.Int
}

// EventLog 交易回执中的事件
type EventLog struct {
	ScoreAddress string   `json:"scoreAddress"`
	Indexed      []string `json:"indexed"`
	Data         []string `json:"data"`
}

// Failure status=0x0 时节点给出的失败原因
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TransactionResult icx_getTransactionResult 结果
type TransactionResult struct {
	TxHash      string     `json:"txHash"`
	Status      string     `json:"status"`
	BlockHeight string     `json:"blockHeight"`
	BlockHash   string     `json:"blockHash,omitempty"`
	StepUsed    string     `json:"stepUsed"`
	StepPrice   string     `json:"stepPrice,omitempty"`
	To          string     `json:"to"`
	Failure     *Failure   `json:"failure,omitempty"`
	EventLogs   []EventLog `json:"eventLogs"`
}

// Succeeded status 0x1
func (r *TransactionResult) Succeeded() bool {
	return r.Status == "0x1"
}

// FindEvent 返回第一个签名匹配的事件, 例如 "IScoreClaimed(int,int)"
func (r *TransactionResult) FindEvent(signature string) (EventLog, bool) {
	for _, ev := range r.EventLogs {
		if len(ev.Indexed) > 0 && ev.Indexed[0] == signature {
			return ev, true
		}
	}
	return EventLog{}, false
}

type hexStake struct {
	Stake    string `json:"stake"`
	Unstake  string `json:"unstake"` // 旧版本节点
	Unstakes []struct {
		Unstake string `json:"unstake"`
	} `json:"unstakes"`
}

func (h hexStake) decode() (*Stake, error) {
	s := &Stake{Unstaking: new(big.Int)}
	var err error
	if s.Stake, err = parseLoopOrZero(h.Stake); err != nil {
		return nil, err
	}
	if h.Unstake != "" {
		v, err := amount.ParseLoop(h.Unstake)
		if err != nil {
			return nil, err
		}
		s.Unstaking.Add(s.Unstaking, v)
	}
	for _, u := range h.Unstakes {
		v, err := amount.ParseLoop(u.Unstake)
		if err != nil {
			return nil, err
		}
		s.Unstaking.Add(s.Unstaking, v)
	}
	return s, nil
}

type hexDelegationInfo struct {
	TotalDelegated string `json:"totalDelegated"`
	VotingPower    string `json:"votingPower"`
	Delegations    []struct {
		Address string `json:"address"`
		Value   string `json:"value"`
	} `json:"delegations"`
}

func (h hexDelegationInfo) decode() (*DelegationInfo, error) {
	info := &DelegationInfo{}
	var err error
	if info.TotalDelegated, err = parseLoopOrZero(h.TotalDelegated); err != nil {
		return nil, err
	}
	if info.VotingPower, err = parseLoopOrZero(h.VotingPower); err != nil {
		return nil, err
	}
	for _, d := range h.Delegations {
		v, err := amount.ParseLoop(d.Value)
		if err != nil {
			return nil, err
		}
		info.Delegations = append(info.Delegations, Delegation{Address: d.Address, Value: v})
	}
	return info, nil
}

type hexIScore struct {
	IScore       string `json:"iscore"`
	EstimatedICX string `json:"estimatedICX"`
	BlockHeight  string `json:"blockHeight"`
}

func (h hexIScore) decode() (*IScore, error) {
	out := &IScore{}
	var err error
	if out.IScore, err = parseLoopOrZero(h.IScore); err != nil {
		return nil, err
	}
	if out.EstimatedICX, err = parseLoopOrZero(h.EstimatedICX); err != nil {
		return nil, err
	}
	if out.BlockHeight, err = parseLoopOrZero(h.BlockHeight); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLoopOrZero(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	return amount.ParseLoop(s)
}
