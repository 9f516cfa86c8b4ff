// Package rpctest provides an in-process ICON JSON-RPC stub for tests.
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Handler 返回 result 或 *Error
type Handler func(params json.RawMessage) (interface{}, *Error)

// Error JSON-RPC 错误体
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server 按方法名分发的 JSON-RPC 桩服务
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
	bodies   map[string][]json.RawMessage
}

func NewServer() *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		calls:    make(map[string]int),
		bodies:   make(map[string][]json.RawMessage),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle 注册 method 的处理函数, icx_call 可以用 "icx_call:<method>" 按合约方法注册
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	s.handlers[method] = h
	s.mu.Unlock()
}

// Result 注册固定返回值
func (s *Server) Result(method string, result interface{}) {
	s.Handle(method, func(json.RawMessage) (interface{}, *Error) { return result, nil })
}

// Calls 返回 method 被调用的次数
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Params 返回 method 每次调用收到的 params
func (s *Server) Params(method string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.bodies[method]...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		ID     int64           `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := req.Method
	if req.Method == "icx_call" {
		var call struct {
			Data struct {
				Method string `json:"method"`
			} `json:"data"`
		}
		_ = json.Unmarshal(req.Params, &call)
		key = "icx_call:" + call.Data.Method
	}

	s.mu.Lock()
	s.calls[key]++
	s.bodies[key] = append(s.bodies[key], req.Params)
	h, ok := s.handlers[key]
	s.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = Error{Code: -32601, Message: "Method not found: " + key}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
