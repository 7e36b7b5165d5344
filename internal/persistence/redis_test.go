package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/config"
)

func TestNewRedisServesStore(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	r, err := NewRedis(ctx, config.RedisConfig{Addr: server.Addr(), KeyPrefix: "hd:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(r.Close)

	require.NoError(t, r.Ping(ctx))
	require.NoError(t, r.Store().Set(ctx, "queues:list:U1", []byte(`[]`), time.Minute))
	assert.True(t, server.Exists("hd:queues:list:U1"))
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestNilRedisPing(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
}
