package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/pkg/utils/lock"
)

type countingRefresher struct {
	n atomic.Int32
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestRefreshOnceSkipsWhenLocked(t *testing.T) {
	locks := lock.NewLocalLock()
	r := &countingRefresher{}
	s := NewRefreshScheduler("@every 1h", r, locks)

	s.RefreshOnce()
	assert.Equal(t, int32(1), r.n.Load())

	ok, err := locks.Acquire(context.Background(), refreshLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	s.RefreshOnce()
	assert.Equal(t, int32(1), r.n.Load(), "已有刷新在进行时跳过")
}

func TestRefreshSchedulerRuns(t *testing.T) {
	r := &countingRefresher{}
	s := NewRefreshScheduler("@every 1s", r, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.n.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestRefreshSchedulerBadSpec(t *testing.T) {
	s := NewRefreshScheduler("every now and then", &countingRefresher{}, nil)
	assert.Error(t, s.Start())
}
