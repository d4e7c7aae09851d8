package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a live Redis; set REDIS_TEST_ADDR to run them.
func testStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewStore(addr, 15, logger)
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	return s, rdb
}

func TestAppendWritesRawStream(t *testing.T) {
	s, rdb := testStore(t)
	defer s.Close()

	now := time.Now()
	s.Append([]byte("first record"), now)
	s.Append([]byte("second record"), now.Add(time.Second))

	ctx := context.Background()
	require.Eventually(t, func() bool {
		n, err := rdb.XLen(ctx, messagesStream).Result()
		return err == nil && n == 2
	}, 5*time.Second, 50*time.Millisecond)

	msgs, err := rdb.XRange(ctx, messagesStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Receipt order survives the async queue.
	assert.Equal(t, "first record", msgs[0].Values["raw"])
	assert.Equal(t, "second record", msgs[1].Values["raw"])
	assert.NotEmpty(t, msgs[0].Values["received_at"])
}

func TestSaveLastKnown(t *testing.T) {
	s, rdb := testStore(t)
	defer s.Close()

	s.SaveLastKnown("868443028828427", []byte(`{"type":"Feature"}`))

	require.Eventually(t, func() bool {
		v, err := rdb.HGet(context.Background(), lastKnownHash, "868443028828427").Result()
		return err == nil && v == `{"type":"Feature"}`
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewStoreFailsFastWithoutRedis(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewStore("127.0.0.1:1", 0, logger)
	assert.Error(t, err)
}
