package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/durak/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These need a running Redis; set REDIS_ADDR to enable them.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), addr, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestPublisherPushesRecords(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()
	queue := "durak_test_" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), queue) })

	rec := models.ActionRecord{
		RoomID:        uuid.New(),
		ActionIndex:   4,
		ActorPlayerID: uuid.New(),
		ActionType:    models.ActionAttack,
		ActionPayload: map[string]interface{}{"card": "7H"},
		Timestamp:     time.Now().UnixMilli(),
	}
	require.NoError(t, NewPublisher(rdb, queue).Record(ctx, rec))

	raw, err := rdb.LPop(ctx, queue).Result()
	require.NoError(t, err)
	var got models.ActionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec.RoomID, got.RoomID)
	assert.Equal(t, rec.ActionType, got.ActionType)
	assert.Equal(t, "7H", got.ActionPayload["card"])
}

func TestRedisLockerExcludes(t *testing.T) {
	rdb := testClient(t)
	l := NewRedisLocker(rdb, time.Second)
	id := uuid.New()

	unlock, err := l.Lock(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	again, err := l.Lock(context.Background(), id)
	require.NoError(t, err)
	again()
}
