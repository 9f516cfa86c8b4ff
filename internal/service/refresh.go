package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"icx-wallet/pkg/logger"
	"icx-wallet/pkg/monitor"
	"icx-wallet/pkg/utils/lock"
)

const refreshLockKey = "cron:lock:session_refresh"

// Refresher 刷新当前会话的账户指标
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshScheduler 定时刷新会话指标
type RefreshScheduler struct {
	cron    *cron.Cron
	spec    string
	target  Refresher
	locks   lock.DistributedLock
	timeout time.Duration
	log     *zap.Logger
}

// NewRefreshScheduler spec 为 cron 表达式, 例如 "@every 30s"
func NewRefreshScheduler(spec string, target Refresher, locks lock.DistributedLock) *RefreshScheduler {
	if locks == nil {
		locks = lock.NewLocalLock()
	}
	return &RefreshScheduler{
		cron:    cron.New(),
		spec:    spec,
		target:  target,
		locks:   locks,
		timeout: 20 * time.Second,
		log:     logger.Named("refresh-cron"),
	}
}

func (s *RefreshScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RefreshOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("session refresh scheduled", zap.String("spec", s.spec))
	return nil
}

// Stop 等待正在执行的刷新结束
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("session refresh stopped")
}

// RefreshOnce 执行一次刷新. 上一次还没结束时跳过
func (s *RefreshScheduler) RefreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	locked, err := s.locks.Acquire(ctx, refreshLockKey, s.timeout)
	if err != nil || !locked {
		s.log.Debug("refresh skipped, another run in progress")
		return
	}
	defer s.locks.Release(context.Background(), refreshLockKey)

	start := time.Now()
	if err := s.target.Refresh(ctx); err != nil {
		s.log.Warn("session refresh failed", zap.Error(err))
		return
	}
	monitor.Business.SessionRefreshTime.Observe(time.Since(start).Seconds())
}
