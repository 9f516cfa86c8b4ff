package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	ok, err := l.Acquire(ctx, "sign:hx1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Acquire(ctx, "sign:hx1", 0)
	assert.False(t, ok, "同一个 key 不能重复获取")

	ok, _ = l.Acquire(ctx, "sign:hx2", 0)
	assert.True(t, ok, "不同 key 互不影响")

	require.NoError(t, l.Release(ctx, "sign:hx1"))
	ok, _ = l.Acquire(ctx, "sign:hx1", 0)
	assert.True(t, ok)
}

func TestLocalLockExpires(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	ok, _ := l.Acquire(ctx, "k", 10*time.Millisecond)
	require.True(t, ok)
	time.Sleep(20 * time.Millisecond)

	ok, _ = l.Acquire(ctx, "k", 10*time.Millisecond)
	assert.True(t, ok, "过期后可以重新获取")
}
