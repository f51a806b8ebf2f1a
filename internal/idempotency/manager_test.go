package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupManager(t *testing.T) Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewManager(NewRedisStore(client, testLogger()), testLogger())
}

func TestManager_ExecuteOnce(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	calls := 0
	op := func(context.Context) (interface{}, error) {
		calls++
		return nil, nil
	}

	result, err := m.Execute(ctx, "cb:123", time.Hour, op)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, calls)

	// The second delivery of the same update short-circuits.
	result, err = m.Execute(ctx, "cb:123", time.Hour, op)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, calls)
}

func TestManager_FailedOperationCanRetry(t *testing.T) {
	m := setupManager(t)
	ctx := context.Background()

	boom := errors.New("boom")
	calls := 0

	_, err := m.Execute(ctx, "cb:456", time.Hour, func(context.Context) (interface{}, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	result, err := m.Execute(ctx, "cb:456", time.Hour, func(context.Context) (interface{}, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2, calls)
}
