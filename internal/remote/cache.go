package remote

import (
	"context"
	"encoding/json"
	"time"

	"go-catalogue-ws/internal/rows"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedService puts a redis cache-aside layer in front of another
// RowService. Cache failures are logged and bypassed; they never fail a
// read.
type CachedService struct {
	inner  RowService
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedService(inner RowService, client *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *CachedService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedService{inner: inner, client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *CachedService) key(sheet string) string {
	return c.prefix + "sheet:" + sheet
}

func (c *CachedService) GetAll(ctx context.Context, sheet string) ([]rows.Row, error) {
	if err := checkSheet(sheet); err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, c.key(sheet)).Bytes()
	switch {
	case err == nil:
		var cached []rows.Row
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			return cached, nil
		}
		c.log.Warn("discarding unreadable cache entry", zap.String("sheet", sheet))
	case err != redis.Nil:
		c.log.Warn("row cache get failed", zap.String("sheet", sheet), zap.Error(err))
	}

	fresh, err := c.inner.GetAll(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(fresh); jerr == nil {
		if serr := c.client.Set(ctx, c.key(sheet), payload, c.ttl).Err(); serr != nil {
			c.log.Warn("row cache set failed", zap.String("sheet", sheet), zap.Error(serr))
		}
	}
	return fresh, nil
}

// Append writes through and drops the sheet's cache entry.
func (c *CachedService) Append(ctx context.Context, sheet string, row rows.Row) (AppendResult, error) {
	res, err := c.inner.Append(ctx, sheet, row)
	if err != nil {
		return res, err
	}
	c.Invalidate(ctx, sheet)
	return res, nil
}

// Import forwards to the wrapped backend and drops the sheet's cache
// entry. It fails with ErrImportUnsupported when the backend cannot
// import.
func (c *CachedService) Import(ctx context.Context, sheet string, data []rows.Row) error {
	imp, ok := c.inner.(Importer)
	if !ok {
		return ErrImportUnsupported
	}
	if err := imp.Import(ctx, sheet, data); err != nil {
		return err
	}
	c.Invalidate(ctx, sheet)
	return nil
}

// Invalidate drops the cached copy of one sheet.
func (c *CachedService) Invalidate(ctx context.Context, sheet string) {
	if err := c.client.Del(ctx, c.key(sheet)).Err(); err != nil {
		c.log.Warn("row cache delete failed", zap.String("sheet", sheet), zap.Error(err))
	}
}
