package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedis_Success(t *testing.T) {
	mockRedis := miniredis.RunT(t)

	client, err := InitRedis([]string{mockRedis.Addr()}, "", 0)
	require.NoError(t, err, "InitRedis should not return an error")
	require.NotNil(t, client)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err(), "Should be able to ping Redis")
}

func TestInitRedis_Auth(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	mockRedis.RequireAuth("correctPassword")

	client, err := InitRedis([]string{mockRedis.Addr()}, "correctPassword", 0)
	require.NoError(t, err, "InitRedis should work with correct password")
	client.Close()

	client, err = InitRedis([]string{mockRedis.Addr()}, "wrongpassword", 0)
	assert.Error(t, err, "InitRedis should return error with wrong password")
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestInitRedis_Unreachable(t *testing.T) {
	for _, addr := range []string{"invalid-address:6379", "127.0.0.1:16379"} {
		client, err := InitRedis([]string{addr}, "", 0)

		assert.Error(t, err, "addr %s", addr)
		assert.Nil(t, client)
	}
}

func TestInitRedis_EmptyAddrs(t *testing.T) {
	client, err := InitRedis(nil, "", 0)

	assert.ErrorContains(t, err, "redis addrs is empty")
	assert.Nil(t, client)
}

func TestInitRedis_SingleAddrIsNotCluster(t *testing.T) {
	mockRedis := miniredis.RunT(t)

	client, err := InitRedis([]string{mockRedis.Addr()}, "", 0)
	require.NoError(t, err)
	defer client.Close()

	_, isNode := client.(*redis.Client)
	assert.True(t, isNode, "one address connects a single node")
}

func TestInitRedis_SelectsDB(t *testing.T) {
	mockRedis := miniredis.RunT(t)

	client, err := InitRedis([]string{mockRedis.Addr()}, "", 5)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "testkey", "testvalue", time.Minute).Err())

	mockRedis.Select(5)
	val, err := mockRedis.Get("testkey")
	require.NoError(t, err)
	assert.Equal(t, "testvalue", val, "key lands in the configured db")
}
