package remote

import (
	"context"
	"testing"
	"time"

	"go-catalogue-ws/internal/rows"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires Redis on localhost:6379, skipped otherwise
const testRedisAddr = "localhost:6379"

type countingService struct {
	gets    int
	appends int
	data    []rows.Row
}

func (s *countingService) GetAll(context.Context, string) ([]rows.Row, error) {
	s.gets++
	return s.data, nil
}

func (s *countingService) Append(_ context.Context, _ string, r rows.Row) (AppendResult, error) {
	s.appends++
	s.data = append(s.data, r)
	return AppendResult{Confirmed: true}, nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCachedService_CacheAside(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	prefix := "test:" + t.Name() + ":"
	client.Del(ctx, prefix+"sheet:"+rows.SheetUsers)

	inner := &countingService{data: []rows.Row{{"email": "a@b.c"}}}
	c := NewCachedService(inner, client, prefix, time.Minute, nil)

	first, err := c.GetAll(ctx, rows.SheetUsers)
	require.NoError(t, err)
	second, err := c.GetAll(ctx, rows.SheetUsers)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.gets)

	_, err = c.Append(ctx, rows.SheetUsers, rows.Row{"email": "d@e.f"})
	require.NoError(t, err)

	third, err := c.GetAll(ctx, rows.SheetUsers)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedService_RedisDownFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer client.Close()

	inner := &countingService{data: []rows.Row{{"id": "1"}}}
	c := NewCachedService(inner, client, "x:", time.Minute, nil)

	got, err := c.GetAll(context.Background(), rows.SheetProducts)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedService_ImportNeedsImporter(t *testing.T) {
	c := NewCachedService(&countingService{}, nil, "test:", time.Minute, nil)
	err := c.Import(context.Background(), rows.SheetCategories, []rows.Row{{"id": "c1"}})
	assert.ErrorIs(t, err, ErrImportUnsupported)
}
