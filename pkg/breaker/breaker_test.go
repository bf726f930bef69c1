package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"webchat/apperrors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCtxSkipsCanceledContext(t *testing.T) {
	cb := New(Config{Name: "test"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := ExecuteCtx(ctx, cb, func() (any, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExecuteCtxReportsOpenBreaker(t *testing.T) {
	cb := New(Config{Name: "history-api", MinRequests: 2, Threshold: 0.5, Timeout: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := ExecuteCtx(context.Background(), cb, func() (any, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := ExecuteCtx(context.Background(), cb, func() (any, error) { return "ok", nil })
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeServiceUnavail))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestExecuteCtxPassesResult(t *testing.T) {
	cb := New(Config{Name: "ok"})
	res, err := ExecuteCtx(context.Background(), cb, func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}
