package service

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"icx-wallet/pkg/errno"
	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
)

// Status 步骤状态
type Status string

const (
	StatusIdle     Status = "idle"
	StatusWorking  Status = "working"
	StatusFinished Status = "finished"
	StatusErrored  Status = "errored"
)

// StepResult 步骤产出, 传给下一步
type StepResult struct {
	TxHash string            `json:"txHash,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// Step 链中的一步. prev 是上一步最后一次成功的结果, 第一步为空
type Step struct {
	Name string
	Run  func(ctx context.Context, prev StepResult) (StepResult, error)
}

// StepState 展示用快照
type StepState struct {
	Name   string            `json:"name"`
	Status Status            `json:"status"`
	TxHash string            `json:"txHash,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Chain 按顺序执行相互依赖的交易. 第 N 步只在第 N-1 步 finished 后执行,
// 失败的步骤只能通过 RetryStep 单独重试, 已完成的步骤不会重跑
type Chain struct {
	name       string
	steps      []Step
	onComplete func(ctx context.Context) error

	mu      sync.Mutex
	states  []StepState
	results []StepResult
	errs    []error

	busy atomic.Bool
	log  *zap.Logger
}

// NewChain onComplete 在所有步骤完成时调用并等待, 其错误只记录日志
func NewChain(name string, steps []Step, onComplete func(ctx context.Context) error) *Chain {
	states := make([]StepState, len(steps))
	for i, s := range steps {
		states[i] = StepState{Name: s.Name, Status: StatusIdle}
	}
	return &Chain{
		name:       name,
		steps:      steps,
		onComplete: onComplete,
		states:     states,
		results:    make([]StepResult, len(steps)),
		errs:       make([]error, len(steps)),
		log:        logger.Named("chain").With(zap.String("chain", name)),
	}
}

func (c *Chain) Name() string { return c.name }

// Run 从第一个未完成的步骤执行到最后. 遇到 errored 步骤时直接返回其错误, 需要 RetryStep
func (c *Chain) Run(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return errno.New(errno.ErrChainBusy, "chain %s is already running", c.name)
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	start := len(c.steps)
	for i, s := range c.states {
		if s.Status != StatusFinished {
			start = i
			break
		}
	}
	if start < len(c.steps) && c.states[start].Status == StatusErrored {
		err := c.errs[start]
		c.mu.Unlock()
		return errno.StepFailed(c.steps[start].Name, err)
	}
	c.mu.Unlock()

	if start == len(c.steps) {
		return nil
	}
	return c.runFrom(ctx, start)
}

// RetryStep 重新执行一个 errored 步骤, 成功后继续执行后续步骤
func (c *Chain) RetryStep(ctx context.Context, name string) error {
	if !c.busy.CompareAndSwap(false, true) {
		return errno.New(errno.ErrChainBusy, "chain %s is already running", c.name)
	}
	defer c.busy.Store(false)

	c.mu.Lock()
	idx, err := c.retryable(name)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.log.Info("retrying step", zap.String("step", name))
	return c.runFrom(ctx, idx)
}

// CanRetry 检查 name 当前是否可以重试, 不执行
func (c *Chain) CanRetry(name string) error {
	if c.busy.Load() {
		return errno.New(errno.ErrChainBusy, "chain %s is already running", c.name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.retryable(name)
	return err
}

// retryable 调用方持有 c.mu
func (c *Chain) retryable(name string) (int, error) {
	for i, s := range c.steps {
		if s.Name != name {
			continue
		}
		if st := c.states[i].Status; st != StatusErrored {
			return -1, errno.New(errno.ErrStepNotRetryable, "step %s is %s, only errored steps can be retried", name, st)
		}
		return i, nil
	}
	return -1, errno.New(errno.ErrStepNotRetryable, "chain %s has no step %q", c.name, name)
}

func (c *Chain) runFrom(ctx context.Context, start int) error {
	for i := start; i < len(c.steps); i++ {
		step := c.steps[i]

		c.mu.Lock()
		var prev StepResult
		if i > 0 {
			prev = c.results[i-1]
		}
		c.states[i] = StepState{Name: step.Name, Status: StatusWorking}
		c.errs[i] = nil
		c.mu.Unlock()

		c.log.Info("step started", zap.String("step", step.Name))
		res, err := step.Run(ctx, prev)

		c.mu.Lock()
		if err != nil {
			c.states[i].Status = StatusErrored
			c.states[i].Error = err.Error()
			c.states[i].TxHash = res.TxHash
			c.errs[i] = err
			c.mu.Unlock()

			monitor.Business.ChainStepTotal.WithLabelValues(step.Name, string(StatusErrored)).Inc()
			c.log.Warn("step failed", zap.String("step", step.Name), zap.Error(err))
			return errno.StepFailed(step.Name, err)
		}
		c.states[i] = StepState{Name: step.Name, Status: StatusFinished, TxHash: res.TxHash, Data: copyData(res.Data)}
		c.results[i] = res
		c.mu.Unlock()

		monitor.Business.ChainStepTotal.WithLabelValues(step.Name, string(StatusFinished)).Inc()
		c.log.Info("step finished", zap.String("step", step.Name), zap.String("txHash", res.TxHash))
	}

	if c.onComplete != nil {
		if err := c.onComplete(ctx); err != nil {
			c.log.Warn("post-completion refresh failed", zap.Error(err))
		}
	}
	c.log.Info("chain finished")
	return nil
}

// Finished 所有步骤都已完成
func (c *Chain) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.states {
		if s.Status != StatusFinished {
			return false
		}
	}
	return true
}

// Running 是否有 Run/RetryStep 正在执行
func (c *Chain) Running() bool {
	return c.busy.Load()
}

// States 返回各步骤状态的副本
func (c *Chain) States() []StepState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StepState, len(c.states))
	for i, s := range c.states {
		s.Data = copyData(s.Data)
		out[i] = s
	}
	return out
}

func copyData(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
